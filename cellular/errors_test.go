package cellular_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"i4.energy/across/cellgw/cellular"
)

func TestCodeOf(t *testing.T) {
	t.Run("nil is success", func(t *testing.T) {
		assert.Equal(t, cellular.Success, cellular.CodeOf(nil))
	})

	t.Run("wrapped code is found", func(t *testing.T) {
		err := fmt.Errorf("attach: %w", cellular.ErrAPConnectFailed)
		assert.Equal(t, cellular.ErrAPConnectFailed, cellular.CodeOf(err))
		assert.ErrorIs(t, err, cellular.ErrAPConnectFailed)
	})

	t.Run("plain error is unknown", func(t *testing.T) {
		assert.Equal(t, cellular.ErrUnknown, cellular.CodeOf(errors.New("boom")))
	})
}

func TestErrorCodeError(t *testing.T) {
	assert.Equal(t, "cellular: module timeout (-20)", cellular.ErrModuleTimeout.Error())
	assert.Equal(t, "cellular: error -77", cellular.ErrorCode(-77).Error())
}
