// Package execution turns submitted orders into fills against the next
// bar, applying slippage, half-spread, and commission. Fills are always
// adverse to the trader: a BUY pays up, a SELL receives down.
package execution

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// Config holds the friction parameters applied to every fill.
type Config struct {
	SlippagePct        decimal.Decimal
	CommissionPerTrade decimal.Decimal
	CommissionPerShare decimal.Decimal
	SpreadPct          decimal.Decimal
}

// DefaultConfig returns the standard friction model: 1bp slippage, $1
// flat commission, half-cent per share, 2bp round-trip spread.
func DefaultConfig() Config {
	return Config{
		SlippagePct:        decimal.NewFromFloat(0.0001),
		CommissionPerTrade: decimal.NewFromFloat(1.00),
		CommissionPerShare: decimal.NewFromFloat(0.005),
		SpreadPct:          decimal.NewFromFloat(0.0002),
	}
}

// Handler maintains the ordered list of pending orders for one symbol (or,
// in the multi-asset engine, one per symbol so a late-arriving bar for one
// symbol never triggers another symbol's orders).
type Handler struct {
	cfg     Config
	pending []core.Order
}

// New builds a Handler with the given friction configuration.
func New(cfg Config) *Handler { return &Handler{cfg: cfg} }

// Submit appends an order to the pending list. It never fills on the
// submission bar — that is the structural guard against look-ahead bias.
func (h *Handler) Submit(o core.Order) error {
	switch o.Type {
	case core.OrderMarket, core.OrderLimit, core.OrderStop:
	default:
		return ErrUnsupportedOrderType
	}
	if err := o.Validate(); err != nil {
		return err
	}
	h.pending = append(h.pending, o)
	return nil
}

// Pending returns the number of resting orders.
func (h *Handler) Pending() int { return len(h.pending) }

// Process attempts to fill every pending order against bar, returning
// fills in submission order. Orders that don't fill remain pending. If
// several pending orders would fill on one bar, all of them do — there is
// no cross-cancellation and no partial-fill model.
func (h *Handler) Process(bar core.Bar) []core.Fill {
	var fills []core.Fill
	var remaining []core.Order

	for _, o := range h.pending {
		base, ok := h.tryFill(o, bar)
		if !ok {
			remaining = append(remaining, o)
			continue
		}
		fills = append(fills, h.buildFill(o, bar, base))
	}

	h.pending = remaining
	return fills
}

func (h *Handler) tryFill(o core.Order, bar core.Bar) (decimal.Decimal, bool) {
	switch o.Type {
	case core.OrderMarket:
		return bar.Open, true
	case core.OrderLimit:
		return h.tryFillLimit(o, bar)
	case core.OrderStop:
		return h.tryFillStop(o, bar)
	default:
		return decimal.Zero, false
	}
}

func (h *Handler) tryFillLimit(o core.Order, bar core.Bar) (decimal.Decimal, bool) {
	limit := *o.Price
	switch o.Side {
	case core.SideBuy:
		if bar.Low.LessThanOrEqual(limit) {
			return limit, true
		}
	case core.SideSell:
		if bar.High.GreaterThanOrEqual(limit) {
			return limit, true
		}
	}
	return decimal.Zero, false
}

func (h *Handler) tryFillStop(o core.Order, bar core.Bar) (decimal.Decimal, bool) {
	stop := *o.Price
	switch o.Side {
	case core.SideBuy:
		if bar.Open.GreaterThanOrEqual(stop) {
			return bar.Open, true
		}
		if bar.High.GreaterThanOrEqual(stop) {
			return stop, true
		}
	case core.SideSell:
		if bar.Open.LessThanOrEqual(stop) {
			return bar.Open, true
		}
		if bar.Low.LessThanOrEqual(stop) {
			return stop, true
		}
	}
	return decimal.Zero, false
}

// buildFill applies slippage, half-spread, and commission to the base
// price and returns the resulting Fill with each friction component
// reported separately for attribution.
func (h *Handler) buildFill(o core.Order, bar core.Bar, base decimal.Decimal) core.Fill {
	slippage := base.Mul(h.cfg.SlippagePct)
	halfSpread := base.Mul(h.cfg.SpreadPct).Div(two)
	commission := h.cfg.CommissionPerTrade.Add(h.cfg.CommissionPerShare.Mul(o.Quantity))

	var fillPrice decimal.Decimal
	if o.Side == core.SideBuy {
		fillPrice = base.Add(slippage).Add(halfSpread)
	} else {
		fillPrice = base.Sub(slippage.Abs()).Sub(halfSpread)
	}

	return core.Fill{
		Symbol:       o.Symbol,
		Timestamp:    bar.Timestamp,
		Side:         o.Side,
		Quantity:     o.Quantity,
		FillPrice:    fillPrice,
		Commission:   commission,
		SlippageCost: slippage.Abs(),
		SpreadCost:   halfSpread,
	}
}
