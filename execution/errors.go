package execution

import "errors"

var (
	// ErrUnsupportedOrderType is returned by Submit for an order whose
	// Type isn't MARKET, LIMIT, or STOP.
	ErrUnsupportedOrderType = errors.New("execution: unsupported order type")
)
