package cellular

// ErrorClass is the recovery category of an ErrorCode. Control flow in the
// link depends on the class, never on the raw code.
type ErrorClass int

const (
	// ClassUnclassified codes pass through unchanged.
	ClassUnclassified ErrorClass = iota
	// ClassIgnorable codes mean the module was busy; the caller retries.
	ClassIgnorable
	// ClassSocketNotReady codes mean the socket itself is dead.
	ClassSocketNotReady
	// ClassLinkDegraded codes are evidence of a bad AT link.
	ClassLinkDegraded
	// ClassLinkFatal codes require a reset right away.
	ClassLinkFatal
	// ClassResourceExhausted codes abort the operation.
	ClassResourceExhausted
)

func (c ErrorClass) String() string {
	switch c {
	case ClassIgnorable:
		return "ignorable"
	case ClassSocketNotReady:
		return "socket-not-ready"
	case ClassLinkDegraded:
		return "link-degraded"
	case ClassLinkFatal:
		return "link-fatal"
	case ClassResourceExhausted:
		return "resource-exhausted"
	default:
		return "unclassified"
	}
}

// Operation identifies the call site an error came from.
type Operation int

const (
	// OpEstablish covers socket creation, DNS and connect.
	OpEstablish Operation = iota
	OpSend
	OpReceive
)

func (o Operation) String() string {
	switch o {
	case OpSend:
		return "send"
	case OpReceive:
		return "receive"
	default:
		return "establish"
	}
}

var resourceCodes = map[ErrorCode]ErrorClass{
	ErrAllocationFailed:  ClassResourceExhausted,
	ErrNoSocketCreation:  ClassResourceExhausted,
	ErrMemoryAllocation:  ClassResourceExhausted,
	ErrSocketCreateLimit: ClassResourceExhausted,
}

var linkCodes = map[ErrorCode]ErrorClass{
	ErrModuleCom:     ClassLinkDegraded,
	ErrModuleTimeout: ClassLinkFatal,
}

// Send treats "not connected" as busy; receive does not. The module reports
// it while a freshly connected socket is still settling on the send path.
var sendCodes = map[ErrorCode]ErrorClass{
	ErrOtherAPIRunning:       ClassIgnorable,
	ErrOtherATCommandRunning: ClassIgnorable,
	ErrNotConnect:            ClassIgnorable,
	ErrSocketNotReady:        ClassSocketNotReady,
}

var receiveCodes = map[ErrorCode]ErrorClass{
	ErrOtherAPIRunning:       ClassIgnorable,
	ErrOtherATCommandRunning: ClassIgnorable,
	ErrSocketNotReady:        ClassSocketNotReady,
}

// Classify maps code to its class for op.
func Classify(op Operation, code ErrorCode) ErrorClass {
	if class, ok := linkCodes[code]; ok {
		return class
	}
	if class, ok := resourceCodes[code]; ok {
		return class
	}
	var table map[ErrorCode]ErrorClass
	switch op {
	case OpSend:
		table = sendCodes
	case OpReceive:
		table = receiveCodes
	}
	if class, ok := table[code]; ok {
		return class
	}
	return ClassUnclassified
}

// Decision is the action the link takes for a classified error.
type Decision int

const (
	// DecisionPropagate returns the error to the caller unchanged.
	DecisionPropagate Decision = iota
	// DecisionAbsorb reports zero bytes and no error.
	DecisionAbsorb
	// DecisionCloseSocket closes the socket and returns the error.
	DecisionCloseSocket
	// DecisionResetLink resets the module, reconnects and returns the error.
	DecisionResetLink
)

func (d Decision) String() string {
	switch d {
	case DecisionAbsorb:
		return "absorb"
	case DecisionCloseSocket:
		return "close-socket"
	case DecisionResetLink:
		return "reset-link"
	default:
		return "propagate"
	}
}

// Policy turns an error class into a Decision. It holds no state; the
// consecutive failure count is passed in and the updated count returned.
type Policy struct {
	// Threshold is the number of consecutive degraded errors that triggers
	// a reset. Values below 1 behave as 1.
	Threshold uint32
}

// Decide returns the action for class and the new consecutive failure count.
// force escalates link errors straight to a reset; it is used on connection
// establishment, where no later I/O would retry. A forced reset leaves the
// count as it was.
func (p Policy) Decide(class ErrorClass, force bool, failures uint32) (Decision, uint32) {
	switch class {
	case ClassIgnorable:
		return DecisionAbsorb, 0
	case ClassSocketNotReady:
		return DecisionCloseSocket, 0
	case ClassLinkFatal:
		return DecisionResetLink, 0
	case ClassLinkDegraded:
		if force {
			return DecisionResetLink, failures
		}
		failures++
		if failures < p.Threshold {
			return DecisionAbsorb, failures
		}
		return DecisionResetLink, 0
	default:
		return DecisionPropagate, 0
	}
}
