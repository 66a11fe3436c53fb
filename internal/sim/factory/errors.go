package factory

import (
	"context"
	"errors"

	"foobartory.dev/internal/protocol"
)

// ErrorCode maps a run error onto a trace end code. nil maps to "".
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return protocol.ErrCancelled
	case errors.Is(err, ErrPassLog):
		return protocol.ErrTrace
	case errors.Is(err, ErrInsufficientResources):
		return protocol.ErrInsufficientResources
	case errors.Is(err, ErrInsufficientCurrency):
		return protocol.ErrInsufficientCurrency
	case errors.Is(err, ErrEmptyPool):
		return protocol.ErrEmptyPool
	case errors.Is(err, ErrNoEligibleTask):
		return protocol.ErrNoEligibleTask
	default:
		return protocol.ErrInternal
	}
}
