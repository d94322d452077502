package modem

import (
	"errors"
	"strings"

	"i4.energy/across/cellgw/at"
)

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on a Modem
	// that has not been opened, or when a Dialer hands back no Transport.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrSIMPinRequired is returned when the SIM card requires a PIN and no
	// PIN was provided in the Config.
	ErrSIMPinRequired = errors.New("SIM PIN required")

	// ErrLineTooLong is returned when a modem response line exceeds the
	// maximum allowed length.
	//
	// This typically indicates malformed input, unexpected binary data,
	// or a protocol framing error.
	ErrLineTooLong = errors.New("response line too long")

	// ErrRejected is returned when the modem answers a command with a plain
	// ERROR or NO CARRIER.
	ErrRejected = errors.New("command rejected")

	// ErrBusy is returned when a command could not be queued before its
	// context expired because another command held the line.
	ErrBusy = errors.New("another command is running")

	// ErrCommandTimeout is the cause of a command context that expired on
	// the modem's own timer (Config.ATTimeout or a socket timeout), as
	// opposed to a deadline set by the caller.
	ErrCommandTimeout = errors.New("command timeout")

	// ErrLoopStopped is returned for commands issued after the I/O loop
	// ended, usually because the transport failed.
	ErrLoopStopped = errors.New("modem I/O loop stopped")

	// ErrNotRegistered is returned when the modem did not register on the
	// network within the attach poll limits.
	ErrNotRegistered = errors.New("not registered on network")

	// ErrRegistrationDenied is returned when the network refused the
	// registration.
	ErrRegistrationDenied = errors.New("registration denied")

	// ErrHostNotFound is returned when the modem cannot resolve a host.
	ErrHostNotFound = errors.New("host not found")

	// ErrMalformedResponse is returned when a response cannot be parsed.
	ErrMalformedResponse = errors.New("malformed response")
)

// CMEError indicates a +CME ERROR was returned by the modem. The value is
// the numeric code as reported with AT+CMEE=1.
type CMEError string

func (e CMEError) Error() string {
	return "CME error: " + string(e)
}

// CMSError indicates a +CMS ERROR was returned by the modem.
type CMSError string

func (e CMSError) Error() string {
	return "CMS error: " + string(e)
}

// newError converts a failing final response line into an error.
func newError(line string) error {
	switch {
	case strings.HasPrefix(line, at.CmeError):
		return CMEError(strings.TrimSpace(line[len(at.CmeError):]))
	case strings.HasPrefix(line, at.CmsError):
		return CMSError(strings.TrimSpace(line[len(at.CmsError):]))
	default:
		return ErrRejected
	}
}

// rejected reports whether err is the modem refusing a command, as opposed
// to the command never getting an answer.
func rejected(err error) bool {
	var cme CMEError
	var cms CMSError
	return errors.Is(err, ErrRejected) || errors.As(err, &cme) || errors.As(err, &cms)
}
