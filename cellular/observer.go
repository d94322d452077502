package cellular

// Observer receives link events. Calls are made with the link lock held, so
// implementations must not call back into the Link and should return quickly.
type Observer interface {
	// ConnectAttempt reports the result of one pass of the attach sequence.
	ConnectAttempt(attempt int, err error)
	// HardwareReset reports a module reset and the code that caused it.
	HardwareReset(cause ErrorCode)
	// ErrorHandled reports a classified driver error and the action taken.
	ErrorHandled(op Operation, code ErrorCode, class ErrorClass, decision Decision)
	// SocketClosed reports a released socket. ok is false when the module
	// never confirmed the close.
	SocketClosed(socket int, ok bool)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) ConnectAttempt(int, error) {}
func (NopObserver) HardwareReset(ErrorCode) {}
func (NopObserver) ErrorHandled(Operation, ErrorCode, ErrorClass, Decision) {}
func (NopObserver) SocketClosed(int, bool) {}

// Observers fans every event out to each member in order.
type Observers []Observer

func (obs Observers) ConnectAttempt(attempt int, err error) {
	for _, o := range obs {
		o.ConnectAttempt(attempt, err)
	}
}

func (obs Observers) HardwareReset(cause ErrorCode) {
	for _, o := range obs {
		o.HardwareReset(cause)
	}
}

func (obs Observers) ErrorHandled(op Operation, code ErrorCode, class ErrorClass, decision Decision) {
	for _, o := range obs {
		o.ErrorHandled(op, code, class, decision)
	}
}

func (obs Observers) SocketClosed(socket int, ok bool) {
	for _, o := range obs {
		o.SocketClosed(socket, ok)
	}
}
