package protocol

const (
	// Pool invariants.
	ErrInsufficientResources = "E_INSUFFICIENT_RESOURCES"
	ErrInsufficientCurrency  = "E_INSUFFICIENT_CURRENCY"
	ErrEmptyPool             = "E_EMPTY_POOL"
	ErrNoEligibleTask        = "E_NO_ELIGIBLE_TASK"

	// Run control.
	ErrCancelled = "E_CANCELLED"
	ErrTrace     = "E_TRACE"
	ErrInternal  = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrInsufficientResources: {},
	ErrInsufficientCurrency:  {},
	ErrEmptyPool:             {},
	ErrNoEligibleTask:        {},
	ErrCancelled:             {},
	ErrTrace:                 {},
	ErrInternal:              {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
