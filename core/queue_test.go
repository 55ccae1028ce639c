package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestEventQueueFIFO(t *testing.T) {
	q := NewEventQueue()
	b1 := Bar{Symbol: "AAPL", Timestamp: time.Unix(1, 0), Volume: 100}
	b2 := Bar{Symbol: "AAPL", Timestamp: time.Unix(2, 0), Volume: 100}

	if err := q.Put(b1); err != nil {
		t.Fatalf("put b1: %v", err)
	}
	if err := q.Put(b2); err != nil {
		t.Fatalf("put b2: %v", err)
	}
	if q.Size() != 2 {
		t.Fatalf("size = %d, want 2", q.Size())
	}

	got, err := q.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.(Bar).Timestamp != b1.Timestamp {
		t.Fatalf("FIFO violated: got %v, want %v", got, b1)
	}

	got, err = q.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.(Bar).Timestamp != b2.Timestamp {
		t.Fatalf("FIFO violated: got %v, want %v", got, b2)
	}

	if !q.IsEmpty() {
		t.Fatal("expected queue empty")
	}
}

func TestEventQueueRejectsBadType(t *testing.T) {
	q := NewEventQueue()
	err := q.Put("not an event")
	if err == nil {
		t.Fatal("expected TypeKind error")
	}
	var cerr *Error
	if e, ok := err.(*Error); ok {
		cerr = e
	}
	if cerr == nil || cerr.Kind != TypeKind {
		t.Fatalf("expected TypeKind, got %v", err)
	}
}

func TestEventQueueEmptyGet(t *testing.T) {
	q := NewEventQueue()
	_, err := q.Get()
	if err == nil {
		t.Fatal("expected EmptyKind error")
	}
	cerr, ok := err.(*Error)
	if !ok || cerr.Kind != EmptyKind {
		t.Fatalf("expected EmptyKind, got %v", err)
	}
}

func TestEventQueueAcceptsAllFourVariants(t *testing.T) {
	q := NewEventQueue()
	price := decimal.NewFromInt(10)
	events := []any{
		Bar{Symbol: "AAPL", Volume: 1},
		Signal{Symbol: "AAPL", Variant: SignalLong},
		Order{Symbol: "AAPL", Type: OrderLimit, Side: SideBuy, Quantity: decimal.NewFromInt(1), Price: &price},
		Fill{Symbol: "AAPL", Side: SideBuy, Quantity: decimal.NewFromInt(1), FillPrice: price},
	}
	for _, e := range events {
		if err := q.Put(e); err != nil {
			t.Fatalf("put %T: %v", e, err)
		}
	}
	if q.Size() != len(events) {
		t.Fatalf("size = %d, want %d", q.Size(), len(events))
	}
}
