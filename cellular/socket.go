package cellular

import (
	"context"
	"fmt"
	"net/netip"
	"time"
)

type socketState int

const (
	socketOpen socketState = iota
	// socketDead sockets were lost in a reset; the module no longer knows them.
	socketDead
	socketClosed
)

// Socket is a TCP connection carried by the modem. It is only valid with the
// Link that opened it.
type Socket struct {
	link   *Link
	number int
	host   string
	remote netip.AddrPort

	recvTimeout time.Duration
	sendTimeout time.Duration

	state socketState
}

// Number returns the socket number assigned by the modem.
func (s *Socket) Number() int {
	return s.number
}

// Host returns the host name the socket was opened for.
func (s *Socket) Host() string {
	return s.host
}

// RemoteAddr returns the resolved peer address.
func (s *Socket) RemoteAddr() netip.AddrPort {
	return s.remote
}

// RecvTimeout returns the timeout passed to the driver on Receive.
func (s *Socket) RecvTimeout() time.Duration {
	return s.recvTimeout
}

// SendTimeout returns the timeout passed to the driver on Send.
func (s *Socket) SendTimeout() time.Duration {
	return s.sendTimeout
}

// OpenTCP creates a socket, resolves host through the modem and connects to
// host:port. The timeouts are stored and passed to the driver on every Send
// and Receive.
//
// Failures while creating, resolving or connecting escalate link errors to a
// reset straight away, since they happen once per connection and will not be
// retried by later I/O. No socket is left open on the module on any error path.
func (l *Link) OpenTCP(ctx context.Context, host string, port uint16, recvTimeout, sendTimeout time.Duration) (*Socket, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.shutdown {
		return nil, ErrLinkShutdown
	}

	number, err := l.driver.CreateSocket(ctx, ProtocolTCP, IPv4)
	if err != nil {
		l.logger.Error("Failed to create socket", "error", err)
		l.handleError(ctx, OpEstablish, nil, err, true)
		return nil, fmt.Errorf("create socket: %w", err)
	}
	if number <= 0 {
		l.logger.Error("Module created no socket", "number", number)
		l.failures = 0
		return nil, ErrNoSocketCreation
	}

	s := &Socket{
		link:        l,
		number:      number,
		host:        host,
		recvTimeout: recvTimeout,
		sendTimeout: sendTimeout,
	}
	if !l.register(s) {
		l.logger.Error("Failed to allocate socket context",
			"socket", number, "open", len(l.sockets), "max", l.config.MaxSockets)
		l.closeNumber(ctx, number)
		return nil, ErrAllocationFailed
	}
	l.logger.Info("Created TCP socket", "socket", number)

	addr, err := l.driver.DNSQuery(ctx, host, IPv4)
	if err != nil {
		l.logger.Error("DNS resolution failed", "host", host, "error", err)
		l.handleError(ctx, OpEstablish, s, err, true)
		l.closeSocket(ctx, s)
		return nil, fmt.Errorf("resolve %s: %w", host, err)
	}

	l.logger.Debug("Creating TCP connection", "host", host, "addr", addr, "port", port)
	if err := l.driver.ConnectSocket(ctx, number, addr, port); err != nil {
		l.logger.Error("Connect failed", "host", host, "port", port, "error", err)
		l.handleError(ctx, OpEstablish, s, err, true)
		l.closeSocket(ctx, s)
		return nil, fmt.Errorf("connect %s:%d: %w", host, port, err)
	}
	s.remote = netip.AddrPortFrom(addr, port)

	l.logger.Info("Established TCP connection", "host", host, "port", port, "socket", number)
	return s, nil
}

// register adds s to the socket table. It fails when the table is full or
// the number is already taken by a live socket.
func (l *Link) register(s *Socket) bool {
	if len(l.sockets) >= l.config.MaxSockets {
		return false
	}
	if _, taken := l.sockets[s.number]; taken {
		return false
	}
	l.sockets[s.number] = s
	return true
}

// CloseSocket closes s. It is idempotent and best effort: a socket that is
// already closed, or that the module never finished opening, counts as
// closed, and a module that keeps refusing is logged but not reported.
func (l *Link) CloseSocket(ctx context.Context, s *Socket) error {
	if s == nil {
		return ErrNilSocket
	}
	if s.link != l {
		return ErrForeignSocket
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.closeSocket(ctx, s)
	return nil
}

func (l *Link) closeSocket(ctx context.Context, s *Socket) {
	switch s.state {
	case socketClosed:
		return
	case socketDead:
		s.state = socketClosed
		return
	}

	l.closeNumber(ctx, s.number)
	delete(l.sockets, s.number)
	s.state = socketClosed
}

// closeNumber asks the module to close socket, retrying up to
// Config.CloseSocketRetries times. It reports whether the module confirmed.
func (l *Link) closeNumber(ctx context.Context, socket int) bool {
	attempts, _, err := retry(l.config.CloseSocketRetries, func(attempt int) (Outcome, error) {
		err := l.driver.CloseSocket(ctx, socket)
		switch CodeOf(err) {
		case Success, ErrNotOpen, ErrSocketNotReady:
			return Succeeded, nil
		}
		l.logger.Info("Retrying socket close", "socket", socket, "attempt", attempt, "error", err)
		return Retry, err
	})

	ok := err == nil
	if ok {
		l.logger.Info("Closed socket", "socket", socket)
	} else {
		l.logger.Warn("Failed to close socket",
			"socket", socket, "attempts", attempts, "error", err)
	}
	l.config.Observer.SocketClosed(socket, ok)
	return ok
}
