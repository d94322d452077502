package cellular

import (
	"errors"
	"fmt"
)

// ErrorCode is a status reported by the modem driver. Zero is success and
// every failure is negative. ErrorCode implements error so that codes can be
// wrapped with fmt.Errorf and matched with errors.Is.
type ErrorCode int32

const (
	Success                  ErrorCode = 0
	ErrParameter             ErrorCode = -1
	ErrAlreadyOpen           ErrorCode = -2
	ErrNotOpen               ErrorCode = -3
	ErrSerialOpen            ErrorCode = -4
	ErrModuleCom             ErrorCode = -5
	ErrNotConnect            ErrorCode = -6
	ErrAlreadyConnect        ErrorCode = -7
	ErrMemoryAllocation      ErrorCode = -8
	ErrOtherAPIRunning       ErrorCode = -15
	ErrOtherATCommandRunning ErrorCode = -16
	ErrAPConnectFailed       ErrorCode = -17
	ErrSocketNotReady        ErrorCode = -18
	ErrSocketCreateLimit     ErrorCode = -19
	ErrModuleTimeout         ErrorCode = -20
	ErrAllocationFailed      ErrorCode = -50
	ErrNoSocketCreation      ErrorCode = -51
	ErrUnknown               ErrorCode = -99
)

var codeNames = map[ErrorCode]string{
	Success:                  "success",
	ErrParameter:             "invalid parameter",
	ErrAlreadyOpen:           "already open",
	ErrNotOpen:               "not open",
	ErrSerialOpen:            "serial open failed",
	ErrModuleCom:             "module communication error",
	ErrNotConnect:            "not connected",
	ErrAlreadyConnect:        "already connected",
	ErrMemoryAllocation:      "memory allocation failed",
	ErrOtherAPIRunning:       "another API is running",
	ErrOtherATCommandRunning: "another AT command is running",
	ErrAPConnectFailed:       "access point connect failed",
	ErrSocketNotReady:        "socket not ready",
	ErrSocketCreateLimit:     "socket create limit reached",
	ErrModuleTimeout:         "module timeout",
	ErrAllocationFailed:      "socket context allocation failed",
	ErrNoSocketCreation:      "no socket created",
	ErrUnknown:               "unknown error",
}

func (c ErrorCode) Error() string {
	if name, ok := codeNames[c]; ok {
		return fmt.Sprintf("cellular: %s (%d)", name, int32(c))
	}
	return fmt.Sprintf("cellular: error %d", int32(c))
}

// CodeOf extracts the ErrorCode carried by err. A nil error is Success and an
// error that carries no code is ErrUnknown.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return Success
	}
	var code ErrorCode
	if errors.As(err, &code) {
		return code
	}
	return ErrUnknown
}

var (
	// ErrNoDriver is returned by New when no Driver is supplied.
	ErrNoDriver = errors.New("cellular: no driver configured")

	// ErrNoBands is returned when the frequency band list is empty.
	//
	// Bands depend on the carrier and region of the SIM, so there is no
	// safe way to attach without them.
	ErrNoBands = errors.New("cellular: no frequency bands configured")

	// ErrLinkShutdown is returned by every operation after Shutdown.
	ErrLinkShutdown = errors.New("cellular: link shut down")

	// ErrNilSocket is returned when a nil *Socket is passed to the link.
	ErrNilSocket = errors.New("cellular: nil socket")

	// ErrForeignSocket is returned when a socket is used with a link that
	// did not open it.
	ErrForeignSocket = errors.New("cellular: socket belongs to another link")
)
