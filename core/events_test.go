package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBarValidate(t *testing.T) {
	tests := []struct {
		name    string
		bar     Bar
		wantErr bool
	}{
		{
			name: "valid",
			bar: Bar{
				Symbol: "AAPL", Open: dec("100"), High: dec("101"),
				Low: dec("99"), Close: dec("100"), Volume: 1000,
			},
			wantErr: false,
		},
		{name: "zero volume", bar: Bar{Open: dec("100"), High: dec("101"), Low: dec("99"), Close: dec("100"), Volume: 0}, wantErr: true},
		{name: "low above open", bar: Bar{Open: dec("100"), High: dec("101"), Low: dec("100.5"), Close: dec("100"), Volume: 1}, wantErr: true},
		{name: "close above high", bar: Bar{Open: dec("100"), High: dec("101"), Low: dec("99"), Close: dec("102"), Volume: 1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bar.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOrderValidate(t *testing.T) {
	price := dec("100")
	tests := []struct {
		name    string
		order   Order
		wantErr bool
	}{
		{name: "market ok", order: Order{Type: OrderMarket, Quantity: dec("1")}, wantErr: false},
		{name: "market with price", order: Order{Type: OrderMarket, Quantity: dec("1"), Price: &price}, wantErr: true},
		{name: "limit ok", order: Order{Type: OrderLimit, Quantity: dec("1"), Price: &price}, wantErr: false},
		{name: "limit missing price", order: Order{Type: OrderLimit, Quantity: dec("1")}, wantErr: true},
		{name: "zero quantity", order: Order{Type: OrderMarket, Quantity: dec("0")}, wantErr: true},
		{name: "negative quantity", order: Order{Type: OrderMarket, Quantity: dec("-1")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFillTotalFriction(t *testing.T) {
	f := Fill{Commission: dec("1.5"), SlippageCost: dec("0.25"), SpreadCost: dec("0.1")}
	want := dec("1.85")
	if !f.TotalFriction().Equal(want) {
		t.Fatalf("TotalFriction() = %v, want %v", f.TotalFriction(), want)
	}
}
