// Package core defines the immutable event/enum model that every other
// backtest package builds on: Bar, Signal, Order, Fill, and the Strategy /
// RiskManager capability interfaces a single-threaded engine loop drives.
package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignalVariant is the directional intent a strategy expresses for a bar.
type SignalVariant string

const (
	SignalLong  SignalVariant = "LONG"
	SignalShort SignalVariant = "SHORT"
	SignalExit  SignalVariant = "EXIT"
)

// OrderType selects the fill rule the execution handler applies.
type OrderType string

const (
	OrderMarket OrderType = "MARKET"
	OrderLimit  OrderType = "LIMIT"
	OrderStop   OrderType = "STOP"
)

// OrderSide is the direction of an order or fill.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// Bar is one immutable OHLCV observation. Invariants: Low <= Open, Close <=
// High; Low <= High; Volume >= 0. A Bar with Volume == 0 must never reach
// the engine — callers drop it at ingestion, before it is constructed here.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    int64
	Timeframe string
}

// Validate checks the Bar's structural invariants. Ingestion code should
// call this and drop invalid bars rather than let them reach the engine.
func (b Bar) Validate() error {
	if b.Volume <= 0 {
		return NewError(InvalidInputKind, ErrZeroVolumeBar.Error())
	}
	if b.Low.GreaterThan(b.Open) || b.Low.GreaterThan(b.High) || b.Close.GreaterThan(b.High) || b.Low.GreaterThan(b.Close) {
		return NewError(InvalidInputKind, "bar: OHLC invariant violated for "+b.Symbol)
	}
	return nil
}

// Signal is the strategy's immutable directional intent for one bar.
// Strength is informational only — it is never consulted by the translator.
type Signal struct {
	Symbol    string
	Timestamp time.Time
	Variant   SignalVariant
	Strength  decimal.Decimal
}

// Order is an immutable instruction submitted to the execution handler.
// MARKET orders carry no price; LIMIT and STOP orders must carry one.
type Order struct {
	Symbol    string
	Timestamp time.Time
	Type      OrderType
	Side      OrderSide
	Quantity  decimal.Decimal
	Price     *decimal.Decimal
}

// Validate enforces the MARKET-has-no-price / LIMIT-STOP-has-price
// invariant and the positive-quantity invariant.
func (o Order) Validate() error {
	if o.Quantity.LessThanOrEqual(decimal.Zero) {
		return NewError(InvalidInputKind, ErrBadQuantity.Error())
	}
	switch o.Type {
	case OrderMarket:
		if o.Price != nil {
			return NewError(InvalidInputKind, ErrOrderHasPrice.Error())
		}
	case OrderLimit, OrderStop:
		if o.Price == nil {
			return NewError(InvalidInputKind, ErrOrderNoPrice.Error())
		}
	}
	return nil
}

// Fill is the immutable record of an order's execution against a bar.
// Commission, SlippageCost, and SpreadCost are reported separately so
// callers can attribute friction precisely.
type Fill struct {
	Symbol       string
	Timestamp    time.Time
	Side         OrderSide
	Quantity     decimal.Decimal
	FillPrice    decimal.Decimal
	Commission   decimal.Decimal
	SlippageCost decimal.Decimal
	SpreadCost   decimal.Decimal
}

// TotalFriction sums the three cost components reported on a Fill.
func (f Fill) TotalFriction() decimal.Decimal {
	return f.Commission.Add(f.SlippageCost).Add(f.SpreadCost)
}

// EquityLogEntry is one append-only mark-to-market snapshot.
type EquityLogEntry struct {
	Timestamp time.Time
	Equity    decimal.Decimal
	Cash      decimal.Decimal
	Prices    map[string]decimal.Decimal
}

// Strategy is the capability every strategy implementation exposes. A
// rolling buffer of bars is the strategy's sole window onto history; it
// cannot see future bars by construction. CurrentATR lets the risk manager
// size stops off the strategy's own volatility estimate.
type Strategy interface {
	Symbol() string
	CalculateSignals(bar Bar) (Signal, bool)
	CurrentATR() decimal.Decimal
}

// Portfolio is the subset of portfolio behaviour the risk manager and the
// signal→order translator depend on. Kept as an interface here (rather than
// importing the portfolio package) to avoid a dependency cycle: portfolio
// depends on core, not the other way around.
type Portfolio interface {
	Cash() decimal.Decimal
	Equity(prices map[string]decimal.Decimal) decimal.Decimal
	LastEquity() decimal.Decimal
	EquityLog() []EquityLogEntry
	FillLog() []Fill
	HasPosition(symbol string) bool
	PositionQuantity(symbol string) decimal.Decimal
	PositionSide(symbol string) (OrderSide, bool)
	OpenPositionCount() int
	OpenSymbols() []string
	PositionNotional(symbol string) decimal.Decimal
	ValidateOrder(symbol string, side OrderSide, quantity, price decimal.Decimal, volume int64) (bool, string)
}

// RiskManager is the capability the signal→order translator consults
// before sizing a LONG/SHORT order.
type RiskManager interface {
	CanTrade(p Portfolio, bar Bar) bool
	ComputeQuantity(p Portfolio, s Strategy, bar Bar) decimal.Decimal
}
