package modem

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"i4.energy/across/cellgw/at"
	"i4.energy/across/cellgw/cellular"
)

const (
	// maxConnections is the number of connection ids of the module.
	maxConnections = 6
	// maxPayload is the largest chunk moved by one send or receive command.
	maxPayload = 1500
)

// socket is the driver side state of a connection id.
type socket struct {
	proto     cellular.Protocol
	connected bool
	// pending is the byte count announced by the last +SQNSRING.
	pending int
	// peerClosed is set by +SQNSH or a module restart.
	peerClosed bool
	// ring is signalled whenever pending or peerClosed change.
	ring chan struct{}
}

func (s *socket) notify() {
	select {
	case s.ring <- struct{}{}:
	default:
	}
}

// lookup returns the socket for id or nil.
func (m *Modem) lookup(id int) *socket {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sockets[id]
}

// CreateSocket reserves a free connection id and configures it for hex
// payloads and data-amount rings.
func (m *Modem) CreateSocket(ctx context.Context, proto cellular.Protocol, ipv cellular.IPVersion) (int, error) {
	if proto != cellular.ProtocolTCP && proto != cellular.ProtocolUDP {
		return 0, fmt.Errorf("create socket: %w: protocol %d", cellular.ErrParameter, proto)
	}
	if ipv != cellular.IPv4 && ipv != cellular.IPv6 {
		return 0, fmt.Errorf("create socket: %w: ip version %d", cellular.ErrParameter, ipv)
	}

	m.mu.Lock()
	if m.transport == nil {
		m.mu.Unlock()
		return 0, fmt.Errorf("create socket: %w", cellular.ErrNotOpen)
	}
	id := 0
	for n := 1; n <= maxConnections; n++ {
		if _, used := m.sockets[n]; !used {
			id = n
			break
		}
	}
	if id == 0 {
		m.mu.Unlock()
		return 0, fmt.Errorf("create socket: %w", cellular.ErrSocketCreateLimit)
	}
	m.sockets[id] = &socket{proto: proto, ring: make(chan struct{}, 1)}
	m.mu.Unlock()

	for _, cmd := range []string{
		fmt.Sprintf(at.CmdSocketConfig, id),
		fmt.Sprintf(at.CmdSocketConfigExt, id),
	} {
		if _, err := m.exec(ctx, cmd); err != nil {
			m.release(id)
			return 0, fail("configure socket", err, cellular.ErrParameter)
		}
	}

	m.logger.Debug("Socket created", "socket", id)
	return id, nil
}

func (m *Modem) release(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sockets, id)
}

// DNSQuery resolves host with the module's resolver.
func (m *Modem) DNSQuery(ctx context.Context, host string, ipv cellular.IPVersion) (netip.Addr, error) {
	if host == "" {
		return netip.Addr{}, fmt.Errorf("dns lookup: %w: empty host", cellular.ErrParameter)
	}
	ipType := 0
	if ipv == cellular.IPv6 {
		ipType = 1
	}

	resp, err := m.exec(ctx, fmt.Sprintf(at.CmdDNSLookup, host, ipType))
	if err != nil {
		if rejected(err) {
			return netip.Addr{}, fmt.Errorf("dns lookup %s: %w: %w", host, ErrHostNotFound, err)
		}
		return netip.Addr{}, fail("dns lookup", err, cellular.ErrUnknown)
	}

	for line := range strings.SplitSeq(resp, "\n") {
		value, ok := at.Field(line, at.RespDNSLookup)
		if !ok {
			continue
		}
		// +SQNDNSLKUP: <hostname>,<ip>[,<ip>...]
		fields := strings.Split(value, ",")
		if len(fields) < 2 {
			break
		}
		addr, err := netip.ParseAddr(strings.Trim(strings.TrimSpace(fields[1]), `"`))
		if err != nil {
			return netip.Addr{}, fmt.Errorf("dns lookup %s: %w: %w", host, ErrMalformedResponse, err)
		}
		return addr, nil
	}
	return netip.Addr{}, fmt.Errorf("dns lookup %s: %w", host, ErrHostNotFound)
}

// ConnectSocket dials addr:port on a created socket in command mode.
func (m *Modem) ConnectSocket(ctx context.Context, id int, addr netip.Addr, port uint16) error {
	s := m.lookup(id)
	if s == nil {
		return fmt.Errorf("connect socket %d: %w", id, cellular.ErrNotOpen)
	}
	if !addr.IsValid() || port == 0 {
		return fmt.Errorf("connect socket %d: %w", id, cellular.ErrParameter)
	}

	txProt := 0
	if s.proto == cellular.ProtocolUDP {
		txProt = 1
	}
	if _, err := m.exec(ctx, fmt.Sprintf(at.CmdSocketDial, id, txProt, port, addr.Unmap())); err != nil {
		return fail("connect socket", err, cellular.ErrNotConnect)
	}

	m.mu.Lock()
	s.connected = true
	m.mu.Unlock()
	m.logger.Debug("Socket connected", "socket", id, "addr", addr, "port", port)
	return nil
}

// usable returns the socket for id when it can carry data.
func (m *Modem) usable(id int) (*socket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sockets[id]
	if s == nil || !s.connected {
		return nil, cellular.ErrSocketNotReady
	}
	return s, nil
}

// Send writes up to maxPayload bytes of p as a hex payload and returns the
// number of bytes accepted by the module.
func (m *Modem) Send(ctx context.Context, id int, p []byte, timeout time.Duration) (int, error) {
	s, err := m.usable(id)
	if err != nil {
		return 0, fmt.Errorf("send on socket %d: %w", id, err)
	}
	m.mu.Lock()
	closed := s.peerClosed
	m.mu.Unlock()
	if closed {
		return 0, fmt.Errorf("send on socket %d: %w", id, cellular.ErrSocketNotReady)
	}
	if len(p) == 0 {
		return 0, nil
	}

	chunk := p[:min(len(p), maxPayload)]
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, timeout, ErrCommandTimeout)
		defer cancel()
	}

	payload := []byte(strings.ToUpper(hex.EncodeToString(chunk)))
	if _, err := m.execPayload(ctx, fmt.Sprintf(at.CmdSocketSend, id, len(chunk)), payload); err != nil {
		return 0, fail("send", err, cellular.ErrNotConnect)
	}
	return len(chunk), nil
}

// Receive waits up to timeout for a ring on the socket and reads what is
// buffered into p. It returns 0 and no error when nothing arrived.
func (m *Modem) Receive(ctx context.Context, id int, p []byte, timeout time.Duration) (int, error) {
	s, err := m.usable(id)
	if err != nil {
		return 0, fmt.Errorf("receive on socket %d: %w", id, err)
	}
	if len(p) == 0 {
		return 0, nil
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, timeout, ErrCommandTimeout)
		defer cancel()
	}

	pending, closed := m.pending(s)
	if pending == 0 && !closed {
		select {
		case <-s.ring:
		case <-ctx.Done():
		}
		pending, closed = m.pending(s)
	}
	if pending == 0 {
		if closed {
			return 0, fmt.Errorf("receive on socket %d: %w", id, cellular.ErrSocketNotReady)
		}
		return 0, nil
	}

	if ctx.Err() != nil {
		// The wait used up the budget; give the read a fresh one.
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(context.WithoutCancel(ctx), m.config.ATTimeout, ErrCommandTimeout)
		defer cancel()
	}

	want := min(len(p), pending, maxPayload)
	resp, err := m.exec(ctx, fmt.Sprintf(at.CmdSocketRecv, id, want))
	if err != nil {
		return 0, fail("receive", err, cellular.ErrNotConnect)
	}

	n, err := decodeRecv(resp, p)
	if err != nil {
		return 0, fmt.Errorf("receive on socket %d: %w: %w", id, cellular.ErrModuleCom, err)
	}

	m.mu.Lock()
	s.pending = max(s.pending-n, 0)
	m.mu.Unlock()
	return n, nil
}

func (m *Modem) pending(s *socket) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return s.pending, s.peerClosed
}

// decodeRecv parses "+SQNSRECV: <id>,<len>" followed by the hex payload
// line and decodes the payload into p.
func decodeRecv(resp string, p []byte) (int, error) {
	lines := strings.Split(resp, "\n")
	for i, line := range lines {
		value, ok := at.Field(line, at.RespSocketRecv)
		if !ok {
			continue
		}
		fields := strings.Split(value, ",")
		if len(fields) < 2 {
			break
		}
		size, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil || size > len(p) {
			break
		}
		if size == 0 {
			return 0, nil
		}
		if i+1 >= len(lines) {
			break
		}
		data := lines[i+1]
		if hex.DecodedLen(len(data)) != size {
			return 0, fmt.Errorf("%w: want %d bytes, got %q", ErrMalformedResponse, size, data)
		}
		return hex.Decode(p, []byte(data))
	}
	return 0, fmt.Errorf("%w: %q", ErrMalformedResponse, resp)
}

// CloseSocket closes the connection and frees its id. A refusal means the
// module no longer knows the connection and is reported as
// cellular.ErrNotOpen.
func (m *Modem) CloseSocket(ctx context.Context, id int) error {
	if m.lookup(id) == nil {
		return fmt.Errorf("close socket %d: %w", id, cellular.ErrNotOpen)
	}

	_, err := m.exec(ctx, fmt.Sprintf(at.CmdSocketClose, id))
	if err != nil && !rejected(err) {
		return fail("close socket", err, cellular.ErrNotOpen)
	}
	m.release(id)
	if err != nil {
		return fail("close socket", err, cellular.ErrNotOpen)
	}
	m.logger.Debug("Socket closed", "socket", id)
	return nil
}
