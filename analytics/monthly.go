package analytics

import (
	"sort"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type yearMonth struct {
	year  int
	month int
}

// MonthlyReturns computes, for every (year, month) after the first one
// observed, the percentage return from the last equity value recorded in
// the previous month to the last equity value recorded in that month.
// Returns dict[year][month] = return_pct; empty if fewer than two
// distinct months are present.
func MonthlyReturns(equityLog []core.EquityLogEntry) map[int]map[int]decimal.Decimal {
	if len(equityLog) < 2 {
		return map[int]map[int]decimal.Decimal{}
	}

	monthlyLast := make(map[yearMonth]decimal.Decimal)
	for _, e := range equityLog {
		monthlyLast[yearMonth{e.Timestamp.Year(), int(e.Timestamp.Month())}] = e.Equity
	}

	keys := make([]yearMonth, 0, len(monthlyLast))
	for k := range monthlyLast {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	result := make(map[int]map[int]decimal.Decimal)
	if len(keys) < 2 {
		return result
	}

	for i := 1; i < len(keys); i++ {
		prevEq := monthlyLast[keys[i-1]]
		currEq := monthlyLast[keys[i]]

		retPct := decimal.Zero
		if prevEq.GreaterThan(decimal.Zero) {
			retPct = currEq.Sub(prevEq).Div(prevEq).Mul(hundred)
		}

		curr := keys[i]
		if result[curr.year] == nil {
			result[curr.year] = make(map[int]decimal.Decimal)
		}
		result[curr.year][curr.month] = retPct
	}

	return result
}
