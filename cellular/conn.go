package cellular

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"time"
)

// pollInterval paces Conn reads and writes that made no progress.
const pollInterval = 50 * time.Millisecond

// Conn presents a Socket as a net.Conn. Reads and writes retry absorbed
// errors until they make progress, fail, or hit the deadline.
type Conn struct {
	link   *Link
	socket *Socket

	mu            sync.Mutex
	readDeadline  time.Time
	writeDeadline time.Time
}

var _ net.Conn = (*Conn)(nil)

// NewConn wraps s, which must have been opened by l.
func NewConn(l *Link, s *Socket) *Conn {
	return &Conn{link: l, socket: s}
}

// Dial opens a TCP socket to host:port and wraps it in a Conn. The timeouts
// bound each individual driver call, not the whole read or write.
func (l *Link) Dial(ctx context.Context, host string, port uint16, recvTimeout, sendTimeout time.Duration) (*Conn, error) {
	s, err := l.OpenTCP(ctx, host, port, recvTimeout, sendTimeout)
	if err != nil {
		return nil, err
	}
	return NewConn(l, s), nil
}

// Socket returns the wrapped socket.
func (c *Conn) Socket() *Socket {
	return c.socket
}

func (c *Conn) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	c.mu.Lock()
	deadline := c.readDeadline
	c.mu.Unlock()

	ctx, cancel := deadlineContext(deadline)
	defer cancel()

	for {
		n, err := c.link.Receive(ctx, c.socket, p)
		if err != nil && ctx.Err() != nil && errors.Is(err, context.DeadlineExceeded) {
			return n, os.ErrDeadlineExceeded
		}
		if err != nil || n > 0 {
			return n, err
		}
		if !wait(ctx) {
			return 0, os.ErrDeadlineExceeded
		}
	}
}

// Write sends p in as many driver calls as needed. The write deadline is
// checked between calls; a call in flight is bounded by the socket's send
// timeout only, so that an expired deadline never reads as a module timeout.
func (c *Conn) Write(p []byte) (int, error) {
	c.mu.Lock()
	deadline := c.writeDeadline
	c.mu.Unlock()

	ctx, cancel := deadlineContext(deadline)
	defer cancel()

	written := 0
	for written < len(p) {
		if ctx.Err() != nil {
			return written, os.ErrDeadlineExceeded
		}
		n, err := c.link.Send(context.Background(), c.socket, p[written:])
		written += n
		if err != nil {
			return written, err
		}
		if n == 0 && !wait(ctx) {
			return written, os.ErrDeadlineExceeded
		}
	}
	return written, nil
}

// Close closes the socket. Closing twice is not an error.
func (c *Conn) Close() error {
	return c.link.CloseSocket(context.Background(), c.socket)
}

// LocalAddr is unknown for modem sockets; the module does not report it.
func (c *Conn) LocalAddr() net.Addr {
	return &net.TCPAddr{}
}

func (c *Conn) RemoteAddr() net.Addr {
	return net.TCPAddrFromAddrPort(c.socket.RemoteAddr())
}

func (c *Conn) SetDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readDeadline = t
	c.writeDeadline = t
	return nil
}

func (c *Conn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readDeadline = t
	return nil
}

func (c *Conn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeDeadline = t
	return nil
}

func deadlineContext(t time.Time) (context.Context, context.CancelFunc) {
	if t.IsZero() {
		return context.WithCancel(context.Background())
	}
	return context.WithDeadline(context.Background(), t)
}

// wait sleeps for pollInterval and reports false once ctx is done.
func wait(ctx context.Context) bool {
	timer := time.NewTimer(pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
