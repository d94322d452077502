package modem

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"i4.energy/across/cellgw/cellular"
)

func TestFail(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want cellular.ErrorCode
	}{
		{"plain refusal", fmt.Errorf("AT+SQNSH=1: %w", ErrRejected), cellular.ErrNotOpen},
		{"CME refusal", CMEError("4"), cellular.ErrNotOpen},
		{"CMS refusal", CMSError("500"), cellular.ErrNotOpen},
		{"queue busy", fmt.Errorf("%w: %w", ErrBusy, ErrCommandTimeout), cellular.ErrOtherATCommandRunning},
		{"no answer", fmt.Errorf("AT+SQNSH=1: %w", ErrCommandTimeout), cellular.ErrModuleTimeout},
		{"closed modem", ErrNotInitialized, cellular.ErrNotOpen},
		{"loop stopped", ErrLoopStopped, cellular.ErrModuleCom},
		{"transport", errors.New("write: broken pipe"), cellular.ErrModuleCom},
		{"already coded", fmt.Errorf("inner: %w", cellular.ErrSocketNotReady), cellular.ErrSocketNotReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fail("close socket", tt.err, cellular.ErrNotOpen)

			assert.Equal(t, tt.want, cellular.CodeOf(err))
			assert.ErrorIs(t, err, tt.err)
			assert.ErrorContains(t, err, "close socket: ")
		})
	}

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, fail("send", nil, cellular.ErrNotConnect))
	})

	t.Run("canceled carries no code", func(t *testing.T) {
		err := fail("send", context.Canceled, cellular.ErrNotConnect)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, cellular.ErrUnknown, cellular.CodeOf(err))
	})

	t.Run("caller deadline carries no code", func(t *testing.T) {
		err := fail("send", fmt.Errorf("AT+SQNSSENDEXT=1,4: %w", context.DeadlineExceeded), cellular.ErrNotConnect)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, cellular.ErrUnknown, cellular.CodeOf(err))
	})

	t.Run("caller deadline while queued carries no code", func(t *testing.T) {
		err := fail("send", fmt.Errorf("%w: %w", ErrBusy, context.DeadlineExceeded), cellular.ErrNotConnect)

		assert.Equal(t, cellular.ErrUnknown, cellular.CodeOf(err))
	})
}

func TestNewError(t *testing.T) {
	assert.Equal(t, CMEError("10"), newError("+CME ERROR: 10"))
	assert.Equal(t, CMSError("302"), newError("+CMS ERROR: 302"))
	assert.Equal(t, ErrRejected, newError("ERROR"))
	assert.Equal(t, ErrRejected, newError("NO CARRIER"))
	assert.Equal(t, "CME error: 10", CMEError("10").Error())

	assert.True(t, rejected(fmt.Errorf("x: %w", CMEError("3"))))
	assert.False(t, rejected(context.DeadlineExceeded))
}
