package modem

import (
	"context"
	"errors"
	"fmt"

	"i4.energy/across/cellgw/cellular"
)

// fail attaches a cellular.ErrorCode to err so that the link can classify
// it. A modem refusal becomes refusal; failures to get an answer at all are
// mapped the same way for every command. The caller's own cancellation or
// deadline carries no code.
func fail(op string, err error, refusal cellular.ErrorCode) error {
	if err == nil {
		return nil
	}

	var code cellular.ErrorCode
	switch {
	case errors.As(err, &code):
		return fmt.Errorf("%s: %w", op, err)
	case rejected(err):
		code = refusal
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, ErrBusy):
		code = cellular.ErrOtherATCommandRunning
	case errors.Is(err, ErrCommandTimeout):
		code = cellular.ErrModuleTimeout
	case errors.Is(err, ErrNotInitialized):
		code = cellular.ErrNotOpen
	default:
		code = cellular.ErrModuleCom
	}
	return fmt.Errorf("%s: %w: %w", op, code, err)
}
