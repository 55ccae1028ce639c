package core

import "errors"

// Kind classifies the error taxonomy a backtest run can surface. Ordinary
// business conditions inside the per-bar loop (insufficient cash, zero
// volume, a failed risk gate) are never errors — they are observed and
// dropped. Kind exists for the conditions that are.
type Kind int

const (
	// InvalidInputKind marks malformed bars, out-of-range config, or an
	// order carrying a price where none is expected (or missing one where
	// required).
	InvalidInputKind Kind = iota
	// TypeKind marks a wrong-type value enqueued into the event queue.
	TypeKind
	// EmptyKind marks a dequeue on an empty queue, or metrics requested
	// over an empty equity log.
	EmptyKind
	// InsufficientCapitalKind is never raised as an error — portfolio
	// pre-validation reports it as a boolean. Retained so callers that
	// want to classify a drop reason have a name for it.
	InsufficientCapitalKind
	// MarginViolationKind is never raised as an error — it drives the
	// forced-liquidation control path, not a failure path.
	MarginViolationKind
	// MetricsComputationKind marks metrics that cannot be produced:
	// empty log, or fewer than two equity points for return-series math.
	MetricsComputationKind
)

func (k Kind) String() string {
	switch k {
	case InvalidInputKind:
		return "invalid_input"
	case TypeKind:
		return "type"
	case EmptyKind:
		return "empty"
	case InsufficientCapitalKind:
		return "insufficient_capital"
	case MarginViolationKind:
		return "margin_violation"
	case MetricsComputationKind:
		return "metrics_computation"
	default:
		return "unknown"
	}
}

// Error wraps a Kind with a descriptive message. It is returned at
// construction/submission boundaries for invariant violations; it is never
// used for ordinary per-bar business conditions.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Msg }

// NewError builds a classified Error.
func NewError(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

// Sentinel errors for the queue, kept alongside the Kind taxonomy so callers
// that only need identity comparison (errors.Is) don't need to unwrap Error.
var (
	ErrQueueEmpty    = errors.New("event queue: empty")
	ErrQueueBadType  = errors.New("event queue: unsupported event type")
	ErrOrderNoPrice  = errors.New("order: limit/stop order requires a price")
	ErrOrderHasPrice = errors.New("order: market order must not carry a price")
	ErrBadQuantity   = errors.New("order: quantity must be positive")
	ErrZeroVolumeBar = errors.New("bar: volume must be greater than zero")
)
