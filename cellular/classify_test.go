package cellular_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"i4.energy/across/cellgw/cellular"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		code    cellular.ErrorCode
		send    cellular.ErrorClass
		receive cellular.ErrorClass
		connect cellular.ErrorClass
	}{
		{cellular.ErrOtherAPIRunning, cellular.ClassIgnorable, cellular.ClassIgnorable, cellular.ClassUnclassified},
		{cellular.ErrOtherATCommandRunning, cellular.ClassIgnorable, cellular.ClassIgnorable, cellular.ClassUnclassified},
		{cellular.ErrNotConnect, cellular.ClassIgnorable, cellular.ClassUnclassified, cellular.ClassUnclassified},
		{cellular.ErrSocketNotReady, cellular.ClassSocketNotReady, cellular.ClassSocketNotReady, cellular.ClassUnclassified},
		{cellular.ErrModuleCom, cellular.ClassLinkDegraded, cellular.ClassLinkDegraded, cellular.ClassLinkDegraded},
		{cellular.ErrModuleTimeout, cellular.ClassLinkFatal, cellular.ClassLinkFatal, cellular.ClassLinkFatal},
		{cellular.ErrAllocationFailed, cellular.ClassResourceExhausted, cellular.ClassResourceExhausted, cellular.ClassResourceExhausted},
		{cellular.ErrNoSocketCreation, cellular.ClassResourceExhausted, cellular.ClassResourceExhausted, cellular.ClassResourceExhausted},
		{cellular.ErrParameter, cellular.ClassUnclassified, cellular.ClassUnclassified, cellular.ClassUnclassified},
		{cellular.ErrUnknown, cellular.ClassUnclassified, cellular.ClassUnclassified, cellular.ClassUnclassified},
	}

	for _, tt := range tests {
		t.Run(tt.code.Error(), func(t *testing.T) {
			assert.Equal(t, tt.send, cellular.Classify(cellular.OpSend, tt.code), "send")
			assert.Equal(t, tt.receive, cellular.Classify(cellular.OpReceive, tt.code), "receive")
			assert.Equal(t, tt.connect, cellular.Classify(cellular.OpEstablish, tt.code), "establish")
		})
	}
}

func TestPolicyDecide(t *testing.T) {
	policy := cellular.Policy{Threshold: 3}

	tests := []struct {
		name     string
		class    cellular.ErrorClass
		force    bool
		failures uint32
		decision cellular.Decision
		after    uint32
	}{
		{"ignorable clears count", cellular.ClassIgnorable, false, 2, cellular.DecisionAbsorb, 0},
		{"socket not ready closes", cellular.ClassSocketNotReady, false, 2, cellular.DecisionCloseSocket, 0},
		{"unclassified propagates", cellular.ClassUnclassified, false, 2, cellular.DecisionPropagate, 0},
		{"unclassified ignores force", cellular.ClassUnclassified, true, 1, cellular.DecisionPropagate, 0},
		{"resource exhausted propagates", cellular.ClassResourceExhausted, false, 1, cellular.DecisionPropagate, 0},
		{"first degraded is absorbed", cellular.ClassLinkDegraded, false, 0, cellular.DecisionAbsorb, 1},
		{"second degraded is absorbed", cellular.ClassLinkDegraded, false, 1, cellular.DecisionAbsorb, 2},
		{"third degraded resets", cellular.ClassLinkDegraded, false, 2, cellular.DecisionResetLink, 0},
		{"forced degraded resets", cellular.ClassLinkDegraded, true, 0, cellular.DecisionResetLink, 0},
		{"forced degraded keeps count", cellular.ClassLinkDegraded, true, 2, cellular.DecisionResetLink, 2},
		{"fatal resets", cellular.ClassLinkFatal, false, 0, cellular.DecisionResetLink, 0},
		{"fatal resets mid count", cellular.ClassLinkFatal, false, 2, cellular.DecisionResetLink, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, after := policy.Decide(tt.class, tt.force, tt.failures)
			assert.Equal(t, tt.decision, decision)
			assert.Equal(t, tt.after, after)
		})
	}

	t.Run("zero threshold resets on the first error", func(t *testing.T) {
		decision, _ := cellular.Policy{}.Decide(cellular.ClassLinkDegraded, false, 0)
		assert.Equal(t, cellular.DecisionResetLink, decision)
	})
}
