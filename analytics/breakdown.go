package analytics

import (
	"sort"
	"strconv"
	"time"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

type pairedTrade struct {
	entryFill core.Fill
	exitFill  core.Fill
	pnl       decimal.Decimal
	entryTime time.Time
	exitTime  time.Time
}

// pairFillsToTrades pairs fillLog into FIFO round-trip trades per symbol,
// mirroring metrics.computeTradeStats' pairing exactly (commission-only
// friction) but retaining the entry/exit fills themselves, which the
// breakdown and MAE/MFE views need and the metrics package's leaner
// tradeStats does not.
func pairFillsToTrades(fillLog []core.Fill) []pairedTrade {
	var trades []pairedTrade
	openFills := make(map[string][]core.Fill)

	for _, fill := range fillLog {
		existing := openFills[fill.Symbol]

		if len(existing) > 0 && existing[0].Side != fill.Side {
			open := existing[0]
			openFills[fill.Symbol] = existing[1:]

			qty := decimal.Min(fill.Quantity, open.Quantity)
			var pnl decimal.Decimal
			if open.Side == core.SideBuy {
				pnl = fill.FillPrice.Sub(open.FillPrice).Mul(qty)
			} else {
				pnl = open.FillPrice.Sub(fill.FillPrice).Mul(qty)
			}
			pnl = pnl.Sub(fill.Commission).Sub(open.Commission)

			trades = append(trades, pairedTrade{
				entryFill: open,
				exitFill:  fill,
				pnl:       pnl,
				entryTime: open.Timestamp,
				exitTime:  fill.Timestamp,
			})
		} else {
			openFills[fill.Symbol] = append(existing, fill)
		}
	}

	return trades
}

// sessionDefinitions maps a trading session name to its [start, end) hour
// range, in display order. Any hour not covered falls into "Off-Hours".
var sessionDefinitions = []struct {
	name       string
	start, end int
}{
	{"Pre-Market", 4, 10},
	{"Morning", 10, 12},
	{"Lunch", 12, 14},
	{"Afternoon", 14, 16},
	{"After-Hours", 16, 20},
}

func sessionForHour(hour int) string {
	for _, s := range sessionDefinitions {
		if hour >= s.start && hour < s.end {
			return s.name
		}
	}
	return "Off-Hours"
}

var weekdayNames = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// pythonWeekday converts Go's Sunday=0..Saturday=6 into Monday=0..Sunday=6.
func pythonWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// BucketStat aggregates round-trip trade PnL for one breakdown bucket
// (an hour, a weekday, or a session).
type BucketStat struct {
	Key       string
	Count     int
	TotalPnL  decimal.Decimal
	WinCount  int
	LossCount int
}

// TradeBreakdown groups round-trip trades by entry hour, entry weekday,
// and entry session.
type TradeBreakdown struct {
	ByHour    []BucketStat
	ByWeekday []BucketStat
	BySession []BucketStat
}

// ComputeTradeBreakdown pairs fillLog into round-trip trades and buckets
// each by its entry time's hour, weekday, and session.
func ComputeTradeBreakdown(fillLog []core.Fill) TradeBreakdown {
	trades := pairFillsToTrades(fillLog)
	if len(trades) == 0 {
		return TradeBreakdown{}
	}

	hourStats := make(map[int]*BucketStat)
	weekdayStats := make(map[int]*BucketStat)
	sessionStats := make(map[string]*BucketStat)

	accumulate := func(stat *BucketStat, pnl decimal.Decimal) {
		stat.Count++
		stat.TotalPnL = stat.TotalPnL.Add(pnl)
		if pnl.GreaterThan(decimal.Zero) {
			stat.WinCount++
		} else {
			stat.LossCount++
		}
	}

	for _, t := range trades {
		h := t.entryTime.Hour()
		if hourStats[h] == nil {
			hourStats[h] = &BucketStat{}
		}
		accumulate(hourStats[h], t.pnl)

		wd := pythonWeekday(t.entryTime)
		if weekdayStats[wd] == nil {
			weekdayStats[wd] = &BucketStat{}
		}
		accumulate(weekdayStats[wd], t.pnl)

		sess := sessionForHour(t.entryTime.Hour())
		if sessionStats[sess] == nil {
			sessionStats[sess] = &BucketStat{}
		}
		accumulate(sessionStats[sess], t.pnl)
	}

	hours := make([]int, 0, len(hourStats))
	for h := range hourStats {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	byHour := make([]BucketStat, 0, len(hours))
	for _, h := range hours {
		s := *hourStats[h]
		s.Key = strconv.Itoa(h)
		byHour = append(byHour, s)
	}

	weekdays := make([]int, 0, len(weekdayStats))
	for wd := range weekdayStats {
		weekdays = append(weekdays, wd)
	}
	sort.Ints(weekdays)
	byWeekday := make([]BucketStat, 0, len(weekdays))
	for _, wd := range weekdays {
		s := *weekdayStats[wd]
		s.Key = weekdayNames[wd]
		byWeekday = append(byWeekday, s)
	}

	sessionOrder := append([]string{}, "Pre-Market", "Morning", "Lunch", "Afternoon", "After-Hours", "Off-Hours")
	bySession := make([]BucketStat, 0, len(sessionStats))
	for _, name := range sessionOrder {
		if stat, ok := sessionStats[name]; ok {
			s := *stat
			s.Key = name
			bySession = append(bySession, s)
		}
	}

	return TradeBreakdown{ByHour: byHour, ByWeekday: byWeekday, BySession: bySession}
}
