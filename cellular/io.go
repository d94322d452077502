package cellular

import "context"

// Send writes p to s using the socket's send timeout.
//
// A busy module and isolated communication errors are absorbed: Send then
// returns 0 and a nil error and the caller should try again. A dead socket
// is closed, and a persistent link failure resets and reconnects the module,
// before the original error is returned.
func (l *Link) Send(ctx context.Context, s *Socket, p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.usable(s); err != nil {
		return 0, err
	}

	n, err := l.driver.Send(ctx, s.number, p, s.sendTimeout)
	if err == nil {
		l.failures = 0
		return n, nil
	}
	return 0, l.handleError(ctx, OpSend, s, err, false)
}

// Receive reads into p from s using the socket's receive timeout. Errors are
// handled as in Send, except that "not connected" is not treated as busy.
func (l *Link) Receive(ctx context.Context, s *Socket, p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.usable(s); err != nil {
		return 0, err
	}

	n, err := l.driver.Receive(ctx, s.number, p, s.recvTimeout)
	if err == nil {
		l.failures = 0
		return n, nil
	}
	return 0, l.handleError(ctx, OpReceive, s, err, false)
}

func (l *Link) usable(s *Socket) error {
	switch {
	case s == nil:
		return ErrNilSocket
	case s.link != l:
		return ErrForeignSocket
	case l.shutdown:
		return ErrLinkShutdown
	case s.state != socketOpen:
		return ErrSocketNotReady
	}
	return nil
}
