package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// CSVDataSource implements engine.BarSource by serving bars from an
// in-memory slice loaded from a single-symbol OHLCV CSV file.
//
// Expected CSV header (case-insensitive): date,open,high,low,close,volume
// Date formats supported: 2006-01-02, RFC3339, "2006-01-02 15:04:05".
type CSVDataSource struct {
	symbol string
	bars   []core.Bar // sorted by Timestamp ascending
	pos    int
}

// LoadCSV reads the OHLCV CSV at filePath and returns a CSVDataSource for
// symbol. All bars are loaded eagerly into memory and parsed as
// decimal.Decimal, never float64 — this is the boundary where external
// price data enters the exact-arithmetic half of the module.
func LoadCSV(filePath, symbol string) (*CSVDataSource, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("dataset.LoadCSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset.LoadCSV: read header: %w", err)
	}
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	idx := func(name string) (int, error) {
		i, ok := colIdx[name]
		if !ok {
			return 0, fmt.Errorf("CSV missing column %q", name)
		}
		return i, nil
	}

	dateCol, err := idx("date")
	if err != nil {
		return nil, fmt.Errorf("dataset.LoadCSV: %w", err)
	}
	openCol, err := idx("open")
	if err != nil {
		return nil, fmt.Errorf("dataset.LoadCSV: %w", err)
	}
	highCol, err := idx("high")
	if err != nil {
		return nil, fmt.Errorf("dataset.LoadCSV: %w", err)
	}
	lowCol, err := idx("low")
	if err != nil {
		return nil, fmt.Errorf("dataset.LoadCSV: %w", err)
	}
	closeCol, err := idx("close")
	if err != nil {
		return nil, fmt.Errorf("dataset.LoadCSV: %w", err)
	}
	volCol, err := idx("volume")
	if err != nil {
		return nil, fmt.Errorf("dataset.LoadCSV: %w", err)
	}

	symCol := -1
	if i, ok := colIdx["symbol"]; ok {
		symCol = i
	}

	dateFormats := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	parseDate := func(s string) (time.Time, error) {
		s = strings.TrimSpace(s)
		for _, layout := range dateFormats {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised date format %q", s)
	}
	parseDecimal := func(s string) (decimal.Decimal, error) {
		return decimal.NewFromString(strings.TrimSpace(s))
	}

	var bars []core.Bar
	lineNo := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset.LoadCSV: line %d: %w", lineNo+1, err)
		}
		lineNo++

		rowSymbol := symbol
		if symCol >= 0 && symCol < len(row) {
			rowSymbol = strings.TrimSpace(row[symCol])
		}

		ts, err := parseDate(row[dateCol])
		if err != nil {
			return nil, fmt.Errorf("dataset.LoadCSV: line %d date: %w", lineNo, err)
		}
		o, err := parseDecimal(row[openCol])
		if err != nil {
			return nil, fmt.Errorf("dataset.LoadCSV: line %d open: %w", lineNo, err)
		}
		h, err := parseDecimal(row[highCol])
		if err != nil {
			return nil, fmt.Errorf("dataset.LoadCSV: line %d high: %w", lineNo, err)
		}
		l, err := parseDecimal(row[lowCol])
		if err != nil {
			return nil, fmt.Errorf("dataset.LoadCSV: line %d low: %w", lineNo, err)
		}
		c, err := parseDecimal(row[closeCol])
		if err != nil {
			return nil, fmt.Errorf("dataset.LoadCSV: line %d close: %w", lineNo, err)
		}
		v, err := strconv.ParseInt(strings.TrimSpace(row[volCol]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("dataset.LoadCSV: line %d volume: %w", lineNo, err)
		}
		if v == 0 {
			// A zero-volume bar must never reach the engine.
			continue
		}

		bars = append(bars, core.Bar{
			Symbol:    rowSymbol,
			Timestamp: ts,
			Open:      o,
			High:      h,
			Low:       l,
			Close:     c,
			Volume:    v,
		})
	}

	return &CSVDataSource{symbol: symbol, bars: bars}, nil
}

// Next implements engine.BarSource.
func (ds *CSVDataSource) Next() (core.Bar, bool) {
	if ds.pos >= len(ds.bars) {
		return core.Bar{}, false
	}
	bar := ds.bars[ds.pos]
	ds.pos++
	return bar, true
}

// Reset rewinds the source to its first bar, letting one CSVDataSource
// serve several fresh engine runs over the same underlying slice — the
// walk-forward and sensitivity harnesses slice Bars() themselves instead of
// replaying Next(), but callers driving a single registered dataset
// straight through the engine need this.
func (ds *CSVDataSource) Reset() {
	ds.pos = 0
}

// Bars returns every loaded bar for symbol within [start, end] (inclusive).
// A zero start or end means unbounded on that side. Callers that need to
// slice a dataset into train/test windows (optimization.RunWalkForward)
// should use this rather than draining Next().
func (ds *CSVDataSource) Bars(_ context.Context, symbol string, start, end time.Time) ([]core.Bar, error) {
	var out []core.Bar
	for _, b := range ds.bars {
		if b.Symbol != symbol {
			continue
		}
		if !start.IsZero() && b.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && b.Timestamp.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// Symbol returns the dataset's primary symbol.
func (ds *CSVDataSource) Symbol() string { return ds.symbol }

// Len returns the total number of loaded bars.
func (ds *CSVDataSource) Len() int { return len(ds.bars) }
