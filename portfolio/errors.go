package portfolio

import "errors"

var (
	// ErrUnknownSymbol is returned when a caller asks about a position
	// this portfolio does not currently hold.
	ErrUnknownSymbol = errors.New("portfolio: unknown symbol")
)
