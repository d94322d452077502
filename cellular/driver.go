package cellular

import (
	"context"
	"net/netip"
	"time"
)

//go:generate go tool mockgen -source=driver.go -destination=mock_driver.go -package=cellular

// Protocol selects the transport protocol of a modem socket.
type Protocol int

const (
	ProtocolTCP Protocol = iota
	ProtocolUDP
)

// IPVersion selects the address family used for sockets and DNS queries.
type IPVersion int

const (
	IPv4 IPVersion = iota
	IPv6
)

// Driver is the narrow view of the AT-command cellular driver that the link
// needs. Implementations report failures as ErrorCode values, optionally
// wrapped; anything that does not carry a code is treated as ErrUnknown.
//
// A Driver is not expected to be safe for concurrent use. The Link serializes
// every call.
type Driver interface {
	// Open powers the module up and prepares the AT channel.
	Open(ctx context.Context) error
	// Close shuts the module down and releases the AT channel.
	Close(ctx context.Context) error
	// HardwareReset restarts the module. All sockets are lost.
	HardwareReset(ctx context.Context) error
	// SetOperator selects the operator profile (e.g. "standard").
	SetOperator(ctx context.Context, name string) error
	// SetBands programs the comma separated LTE band list.
	SetBands(ctx context.Context, bands string) error
	// Attach registers with the network and activates the data context
	// for the access point name.
	Attach(ctx context.Context, apn string) error

	// CreateSocket reserves a socket and returns its number. A number of
	// zero or less with a nil error means no socket could be created.
	CreateSocket(ctx context.Context, proto Protocol, ipv IPVersion) (int, error)
	// DNSQuery resolves host through the modem.
	DNSQuery(ctx context.Context, host string, ipv IPVersion) (netip.Addr, error)
	// ConnectSocket connects socket to addr:port.
	ConnectSocket(ctx context.Context, socket int, addr netip.Addr, port uint16) error
	// Send writes p and returns the number of bytes accepted by the module.
	Send(ctx context.Context, socket int, p []byte, timeout time.Duration) (int, error)
	// Receive reads up to len(p) bytes. Zero bytes with a nil error means
	// nothing arrived before timeout.
	Receive(ctx context.Context, socket int, p []byte, timeout time.Duration) (int, error)
	// CloseSocket shuts socket down and releases its number.
	CloseSocket(ctx context.Context, socket int) error
}
