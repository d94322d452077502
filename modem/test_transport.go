package modem

import (
	"context"
	"io"
	"strings"
	"sync"
)

// TestTransport is a test helper that simulates a modem behind a blocking
// transport. Replies are scripted per command and queued for reading when
// the command is written, the way a real serial port would deliver them.
type TestTransport struct {
	mu       sync.Mutex
	readChan chan []byte
	closed   bool
	replies  map[string][]string
	written  []string
}

// NewTestTransport creates a new test transport for testing.
// Exported for use in tests.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		readChan: make(chan []byte, 64),
		replies:  make(map[string][]string),
	}
}

// Reply queues resp as the answer to the next write of cmd. cmd is matched
// without the trailing carriage return; hex payloads are matched as written.
func (t *TestTransport) Reply(cmd, resp string) *TestTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replies[cmd] = append(t.replies[cmd], resp)
	return t
}

// Written returns every command and payload written so far.
func (t *TestTransport) Written() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.written...)
}

func (t *TestTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.ErrClosedPipe
	}

	cmd := strings.TrimSuffix(string(p), "\r")
	t.written = append(t.written, cmd)
	if queue := t.replies[cmd]; len(queue) > 0 {
		t.replies[cmd] = queue[1:]
		if queue[0] != "" {
			t.readChan <- []byte(queue[0])
		}
	}
	return len(p), nil
}

func (t *TestTransport) Read(p []byte) (n int, err error) {
	data, ok := <-t.readChan
	if !ok {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData queues data to be read by the transport.
// This simulates unsolicited output from the modem.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}

// TestDialer hands out a fresh transport from New on every Dial.
type TestDialer struct {
	New   func() *TestTransport
	mu    sync.Mutex
	dials []*TestTransport
}

func (d *TestDialer) Dial(ctx context.Context) (Transport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := d.New()
	d.mu.Lock()
	d.dials = append(d.dials, t)
	d.mu.Unlock()
	return t, nil
}

// Dials returns the transports handed out so far.
func (d *TestDialer) Dials() []*TestTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*TestTransport(nil), d.dials...)
}
