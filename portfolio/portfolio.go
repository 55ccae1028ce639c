// Package portfolio tracks cash, positions, FIFO close accounting, the
// mark-to-market equity log, margin monitoring, and forced liquidation.
package portfolio

import (
	"time"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// Position is one symbol's open exposure. Quantity is always a
// non-negative magnitude regardless of Side; a position with Quantity == 0
// is semantically absent and is removed from the Portfolio's map.
type Position struct {
	Symbol              string
	Side                core.OrderSide // BUY = long, SELL = short
	Quantity            decimal.Decimal
	AvgEntryPrice       decimal.Decimal
	RealizedPnL         decimal.Decimal
	AccumulatedFriction decimal.Decimal
}

// Value returns the position's mark-to-market contribution to equity at
// the current price: qty * (price - avg_entry) for a long, qty *
// (avg_entry - price) for a short.
func (p Position) Value(price decimal.Decimal) decimal.Decimal {
	if p.Side == core.SideBuy {
		return p.Quantity.Mul(price.Sub(p.AvgEntryPrice))
	}
	return p.Quantity.Mul(p.AvgEntryPrice.Sub(price))
}

// Portfolio owns the cash balance, the symbol -> Position map, and the
// append-only equity/fill logs. It is the only mutably-shared resource in
// a run: the engine mutates it, metrics read it only after the run ends.
type Portfolio struct {
	cash                   decimal.Decimal
	marginRequirement      decimal.Decimal
	positions              map[string]*Position
	equityLog              []core.EquityLogEntry
	fillLog                []core.Fill
	totalRealizedPnL       decimal.Decimal
	forcedLiquidationCount int
}

// New builds a Portfolio with the given starting cash and margin
// requirement (fraction of position notional required as equity).
func New(initialCash, marginRequirement decimal.Decimal) *Portfolio {
	return &Portfolio{
		cash:              initialCash,
		marginRequirement: marginRequirement,
		positions:         make(map[string]*Position),
	}
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() decimal.Decimal { return p.cash }

// FillLog returns a read-only copy of every processed fill.
func (p *Portfolio) FillLog() []core.Fill {
	out := make([]core.Fill, len(p.fillLog))
	copy(out, p.fillLog)
	return out
}

// EquityLog returns a read-only copy of the append-only equity snapshots.
func (p *Portfolio) EquityLog() []core.EquityLogEntry {
	out := make([]core.EquityLogEntry, len(p.equityLog))
	copy(out, p.equityLog)
	return out
}

// TotalRealizedPnL returns the running sum of realized PnL across all
// closed slices.
func (p *Portfolio) TotalRealizedPnL() decimal.Decimal { return p.totalRealizedPnL }

// ForcedLiquidationCount returns how many times ForceLiquidate has fired.
func (p *Portfolio) ForcedLiquidationCount() int { return p.forcedLiquidationCount }

// Position returns a copy of the open position for symbol, if any.
func (p *Portfolio) Position(symbol string) (Position, bool) {
	pos, ok := p.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// Positions returns a read-only copy of every open (non-zero) position,
// keyed by symbol. Callers that need to reason across the whole book —
// the risk manager's heat and concurrency gates chief among them — use
// this instead of reaching for a private field.
func (p *Portfolio) Positions() map[string]Position {
	out := make(map[string]Position, len(p.positions))
	for symbol, pos := range p.positions {
		if pos.Quantity.GreaterThan(decimal.Zero) {
			out[symbol] = *pos
		}
	}
	return out
}

// PositionOrErr returns the open position for symbol, or ErrUnknownSymbol
// if the portfolio has no open position in it (never opened, or closed).
func (p *Portfolio) PositionOrErr(symbol string) (Position, error) {
	pos, ok := p.positions[symbol]
	if !ok {
		return Position{}, ErrUnknownSymbol
	}
	return *pos, nil
}

// HasPosition reports whether symbol has an open (non-zero) position.
func (p *Portfolio) HasPosition(symbol string) bool {
	pos, ok := p.positions[symbol]
	return ok && pos.Quantity.GreaterThan(decimal.Zero)
}

// PositionQuantity returns the magnitude of the open position for symbol,
// or zero if none.
func (p *Portfolio) PositionQuantity(symbol string) decimal.Decimal {
	if pos, ok := p.positions[symbol]; ok {
		return pos.Quantity
	}
	return decimal.Zero
}

// PositionNotional returns the absolute notional value of the open position
// for symbol, marked at its average entry price. Used by the risk manager's
// portfolio-heat gate as a fallback when no fresher price is available for a
// symbol other than the one the current bar belongs to.
func (p *Portfolio) PositionNotional(symbol string) decimal.Decimal {
	pos, ok := p.positions[symbol]
	if !ok {
		return decimal.Zero
	}
	return pos.Quantity.Mul(pos.AvgEntryPrice).Abs()
}

// PositionSide returns the side of the open position for symbol.
func (p *Portfolio) PositionSide(symbol string) (core.OrderSide, bool) {
	pos, ok := p.positions[symbol]
	if !ok {
		return "", false
	}
	return pos.Side, true
}

// OpenPositionCount returns the number of symbols with a non-zero position.
func (p *Portfolio) OpenPositionCount() int {
	n := 0
	for _, pos := range p.positions {
		if pos.Quantity.GreaterThan(decimal.Zero) {
			n++
		}
	}
	return n
}

// OpenSymbols returns the symbols currently holding a non-zero position, in
// no particular order. The risk manager's per-asset concurrency and heat
// gates use this to iterate the book without reaching for the private
// position map.
func (p *Portfolio) OpenSymbols() []string {
	out := make([]string, 0, len(p.positions))
	for symbol, pos := range p.positions {
		if pos.Quantity.GreaterThan(decimal.Zero) {
			out = append(out, symbol)
		}
	}
	return out
}

// ValidateOrder performs pre-submission validation: rejects a zero-volume
// bar, or a BUY whose gross cost exceeds available cash.
func (p *Portfolio) ValidateOrder(symbol string, side core.OrderSide, quantity, price decimal.Decimal, volume int64) (bool, string) {
	if volume <= 0 {
		return false, "zero volume bar"
	}
	if side == core.SideBuy {
		grossCost := quantity.Mul(price)
		if grossCost.GreaterThan(p.cash) {
			return false, "insufficient cash"
		}
	}
	return true, ""
}

// Equity returns cash plus the mark-to-market value of every open
// position at the given last-known prices.
func (p *Portfolio) Equity(prices map[string]decimal.Decimal) decimal.Decimal {
	total := p.cash
	for symbol, pos := range p.positions {
		price, ok := prices[symbol]
		if !ok {
			price = pos.AvgEntryPrice
		}
		total = total.Add(pos.Value(price))
	}
	return total
}

// LastEquity returns the most recent equity snapshot, or cash if none has
// been taken yet.
func (p *Portfolio) LastEquity() decimal.Decimal {
	if len(p.equityLog) == 0 {
		return p.cash
	}
	return p.equityLog[len(p.equityLog)-1].Equity
}

// AppendSnapshot records a mark-to-market equity snapshot. This is the
// only sanctioned way to extend the equity log — callers (including the
// multi-asset engine) must never reach into the log directly.
func (p *Portfolio) AppendSnapshot(ts time.Time, prices map[string]decimal.Decimal) {
	p.equityLog = append(p.equityLog, core.EquityLogEntry{
		Timestamp: ts,
		Equity:    p.Equity(prices),
		Cash:      p.cash,
		Prices:    prices,
	})
}

// UpdateEquity is a single-symbol convenience over AppendSnapshot, used by
// the single-asset engine.
func (p *Portfolio) UpdateEquity(bar core.Bar) {
	p.AppendSnapshot(bar.Timestamp, map[string]decimal.Decimal{bar.Symbol: bar.Close})
}

// CheckMargin evaluates every open position's required equity against
// current equity at the given prices and returns the symbols that are
// under-margined and must be force-liquidated.
func (p *Portfolio) CheckMargin(prices map[string]decimal.Decimal) []string {
	equity := p.Equity(prices)
	var flagged []string
	for symbol, pos := range p.positions {
		price, ok := prices[symbol]
		if !ok {
			continue
		}
		notional := pos.Quantity.Mul(price).Abs()
		required := notional.Mul(p.marginRequirement)
		if equity.LessThan(required) {
			flagged = append(flagged, symbol)
		}
	}
	return flagged
}

// ForceLiquidate closes the entire position in symbol at currentPrice, at
// the given timestamp (the current bar's timestamp — never the wall
// clock), with a synthetic zero-friction Fill on the opposite side.
func (p *Portfolio) ForceLiquidate(symbol string, currentPrice decimal.Decimal, ts time.Time) (core.Fill, bool) {
	pos, ok := p.positions[symbol]
	if !ok || pos.Quantity.LessThanOrEqual(decimal.Zero) {
		return core.Fill{}, false
	}
	closeSide := core.SideSell
	if pos.Side == core.SideSell {
		closeSide = core.SideBuy
	}
	fill := core.Fill{
		Symbol:    symbol,
		Timestamp: ts,
		Side:      closeSide,
		Quantity:  pos.Quantity,
		FillPrice: currentPrice,
	}
	p.ProcessFill(fill)
	p.forcedLiquidationCount++
	return fill, true
}

// ProcessFill applies a Fill to cash and positions using FIFO-close /
// weighted-average-add accounting. A fill whose quantity exceeds the
// open position flips through zero in one step: the closing portion
// reduces/removes the position, and any remainder opens a new position on
// the fill's side.
func (p *Portfolio) ProcessFill(fill core.Fill) {
	p.fillLog = append(p.fillLog, fill)
	friction := fill.TotalFriction()

	pos, exists := p.positions[fill.Symbol]
	if !exists || pos.Quantity.LessThanOrEqual(decimal.Zero) {
		p.openPosition(fill, fill.Quantity, friction)
		return
	}

	if isClosing(pos.Side, fill.Side) {
		p.closeAndMaybeFlip(pos, fill, friction)
		return
	}

	p.addToPosition(pos, fill, friction)
}

func isClosing(posSide, fillSide core.OrderSide) bool {
	return (posSide == core.SideBuy && fillSide == core.SideSell) ||
		(posSide == core.SideSell && fillSide == core.SideBuy)
}

func (p *Portfolio) openPosition(fill core.Fill, quantity, friction decimal.Decimal) {
	p.settleCash(fill.Side, fill.FillPrice, quantity, friction)
	p.positions[fill.Symbol] = &Position{
		Symbol:              fill.Symbol,
		Side:                fill.Side,
		Quantity:            quantity,
		AvgEntryPrice:       fill.FillPrice,
		AccumulatedFriction: friction,
	}
}

func (p *Portfolio) addToPosition(pos *Position, fill core.Fill, friction decimal.Decimal) {
	oldQty, oldAvg := pos.Quantity, pos.AvgEntryPrice
	newQty := oldQty.Add(fill.Quantity)
	newAvg := oldAvg.Mul(oldQty).Add(fill.FillPrice.Mul(fill.Quantity)).Div(newQty)

	p.settleCash(fill.Side, fill.FillPrice, fill.Quantity, friction)
	pos.Quantity = newQty
	pos.AvgEntryPrice = newAvg
	pos.AccumulatedFriction = pos.AccumulatedFriction.Add(friction)
}

func (p *Portfolio) closeAndMaybeFlip(pos *Position, fill core.Fill, friction decimal.Decimal) {
	closedQty := decimal.Min(fill.Quantity, pos.Quantity)
	remainingQty := fill.Quantity.Sub(closedQty)

	closingFriction := friction
	flipFriction := decimal.Zero
	if fill.Quantity.GreaterThan(decimal.Zero) {
		closingFriction = friction.Mul(closedQty).Div(fill.Quantity)
		flipFriction = friction.Sub(closingFriction)
	}

	openFrictionShare := decimal.Zero
	if pos.Quantity.GreaterThan(decimal.Zero) {
		openFrictionShare = pos.AccumulatedFriction.Mul(closedQty).Div(pos.Quantity)
	}

	var grossPnL decimal.Decimal
	if pos.Side == core.SideBuy {
		grossPnL = closedQty.Mul(fill.FillPrice.Sub(pos.AvgEntryPrice))
		p.cash = p.cash.Add(fill.FillPrice.Mul(closedQty)).Sub(closingFriction)
	} else {
		grossPnL = closedQty.Mul(pos.AvgEntryPrice.Sub(fill.FillPrice))
		p.cash = p.cash.Sub(fill.FillPrice.Mul(closedQty)).Sub(closingFriction)
	}
	netPnL := grossPnL.Sub(closingFriction).Sub(openFrictionShare)
	pos.RealizedPnL = pos.RealizedPnL.Add(netPnL)
	p.totalRealizedPnL = p.totalRealizedPnL.Add(netPnL)

	pos.Quantity = pos.Quantity.Sub(closedQty)
	pos.AccumulatedFriction = pos.AccumulatedFriction.Sub(openFrictionShare)
	if pos.Quantity.LessThanOrEqual(decimal.Zero) {
		delete(p.positions, fill.Symbol)
	}

	if remainingQty.GreaterThan(decimal.Zero) {
		p.openPosition(fill, remainingQty, flipFriction)
	}
}

func (p *Portfolio) settleCash(side core.OrderSide, price, quantity, friction decimal.Decimal) {
	cost := price.Mul(quantity)
	if side == core.SideBuy {
		p.cash = p.cash.Sub(cost).Sub(friction)
	} else {
		p.cash = p.cash.Add(cost).Sub(friction)
	}
}
