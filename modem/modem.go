package modem

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"i4.energy/across/cellgw/at"
	"i4.energy/across/cellgw/cellular"
)

// Modem drives a Sequans RYZ014A-class LTE modem over AT commands and
// implements cellular.Driver. All transport I/O goes through a single event
// loop goroutine started by Open, so URCs are never lost between commands.
type Modem struct {
	config Config
	logger *slog.Logger

	mu sync.Mutex
	// transport provides the physical connection to the modem; nil while
	// the modem is closed.
	transport Transport
	// commands queues AT command requests for the loop to process.
	commands chan *commandRequest
	// loopCancel stops the event loop and the URC watcher.
	loopCancel context.CancelFunc
	// loopDone is closed when the event loop has returned.
	loopDone chan struct{}

	operator string
	sockets  map[int]*socket
}

var _ cellular.Driver = (*Modem)(nil)

// commandRequest represents an AT command request to be executed by the loop.
type commandRequest struct {
	// cmd is the AT command string to send to the modem
	cmd string
	// payload, when set, is written after the "> " prompt instead of
	// completing the command on it.
	payload []byte
	// respChan receives the command response from the loop
	respChan chan commandResponse
	// ctx provides timeout and cancellation control for the command
	ctx context.Context
}

// commandResponse contains the result of an AT command execution.
type commandResponse struct {
	// response contains the complete response text from the modem
	response string
	// err contains any error that occurred during command execution
	err error
}

// PollConfig defines configuration for polling operations like waiting for
// SIM readiness or network registration.
type PollConfig struct {
	// Interval is the time between polling attempts
	Interval time.Duration
	// Timeout is the maximum time to wait for the condition
	Timeout time.Duration
	// MaxRetries is the maximum number of polling attempts
	MaxRetries int
}

// New creates a closed Modem. Open dials the transport and initializes the
// hardware.
func New(config Config) (*Modem, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	return &Modem{
		config:  config,
		logger:  config.Logger.With("component", "modem"),
		sockets: make(map[int]*socket),
	}, nil
}

// Open dials the modem, runs the start-up sequence and starts the event
// loop. Opening an open modem fails with cellular.ErrAlreadyOpen.
func (m *Modem) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.transport != nil {
		return cellular.ErrAlreadyOpen
	}

	transport, err := m.config.Dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("dial modem: %w: %w", cellular.ErrSerialOpen, err)
	}
	if transport == nil {
		return fmt.Errorf("dial modem: %w: %w", cellular.ErrSerialOpen, ErrNotInitialized)
	}

	initCtx, cancel := context.WithTimeout(ctx, m.config.InitTimeout)
	defer cancel()

	if err := m.init(initCtx, transport); err != nil {
		transport.Close()
		code := cellular.ErrModuleCom
		if errors.Is(err, ErrSIMPinRequired) {
			code = cellular.ErrParameter
		}
		return fmt.Errorf("initialize modem: %w: %w", code, err)
	}

	loopCtx, loopCancel := context.WithCancel(context.Background())
	commands := make(chan *commandRequest)
	urcs := make(chan string, 100) // Buffered to prevent blocking on URCs
	done := make(chan struct{})

	m.transport = transport
	m.commands = commands
	m.loopCancel = loopCancel
	m.loopDone = done

	go func() {
		defer close(done)
		if err := m.loop(loopCtx, transport, commands, urcs); err != nil && loopCtx.Err() == nil {
			m.logger.Warn("Modem I/O loop stopped", "error", err)
		}
	}()
	go m.watch(loopCtx, urcs)

	m.logger.Info("Modem opened")
	return nil
}

// Close stops the event loop and closes the transport. Every socket is
// forgotten. Closing a closed modem fails with cellular.ErrNotOpen.
func (m *Modem) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.transport == nil {
		m.mu.Unlock()
		return cellular.ErrNotOpen
	}
	transport, cancel, done := m.transport, m.loopCancel, m.loopDone
	m.transport = nil
	m.commands = nil
	m.loopCancel = nil
	m.loopDone = nil
	m.operator = ""
	clear(m.sockets)
	m.mu.Unlock()

	cancel()
	err := transport.Close()

	select {
	case <-done:
	case <-ctx.Done():
	}

	if err != nil {
		return fmt.Errorf("close transport: %w", err)
	}
	m.logger.Info("Modem closed")
	return nil
}

// loop owns the transport while the modem is open. It writes queued
// commands one at a time, hands payloads over on the prompt, routes URCs to
// the watcher and completes each command on its final line or on expiry of
// the command's context. After an expiry the next command waits for the
// late final line or for Config.LateReplyWindow, whichever comes first. It
// returns when ctx is cancelled or reading fails.
func (m *Modem) loop(ctx context.Context, transport Transport, commands <-chan *commandRequest, urcs chan<- string) error {
	scanner := bufio.NewScanner(transport)
	scanner.Split(at.Splitter)

	// Channels for tokens and errors from the scanner goroutine
	tokens := make(chan string, 10)
	scanErrs := make(chan error, 1)

	go func() {
		defer close(tokens)
		for scanner.Scan() {
			token := scanner.Text()
			if token != "" {
				select {
				case tokens <- token:
				case <-ctx.Done():
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				err = ErrLineTooLong
			}
			select {
			case scanErrs <- err:
			case <-ctx.Done():
			}
		}
	}()

	var current *commandRequest
	var lines []string
	// settle fires when the late answer of an expired command is no longer
	// expected.
	var settle <-chan time.Time

	respond := func(resp commandResponse) {
		current.respChan <- resp
		current = nil
		lines = nil
	}

	for {
		// Only one command is in flight; new requests wait until it is
		// answered or expires.
		var accept <-chan *commandRequest
		var expired <-chan struct{}
		switch {
		case current != nil:
			expired = current.ctx.Done()
		case settle == nil:
			accept = commands
		}

		select {
		case <-ctx.Done():
			if current != nil {
				respond(commandResponse{err: ctx.Err()})
			}
			return ctx.Err()

		case req := <-accept:
			current = req
			lines = nil

			wire := strings.TrimSpace(req.cmd) + "\r"
			if _, err := transport.Write([]byte(wire)); err != nil {
				respond(commandResponse{err: fmt.Errorf("write command %q: %w", req.cmd, err)})
			}

		case <-expired:
			m.logger.Debug("Command expired", "cmd", current.cmd)
			respond(commandResponse{err: fmt.Errorf("%s: %w", current.cmd, expiry(current.ctx))})
			if m.config.LateReplyWindow > 0 {
				settle = time.After(m.config.LateReplyWindow)
			}

		case <-settle:
			settle = nil

		case token, ok := <-tokens:
			if !ok {
				if current != nil {
					respond(commandResponse{response: strings.Join(lines, "\n"), err: io.EOF})
				}
				return io.EOF
			}

			switch at.Classify(token) {
			case at.TypeURC:
				// URCs can arrive at any time, even during command execution
				select {
				case urcs <- token:
				default:
					m.logger.Warn("URC dropped", "urc", token)
				}

			case at.TypeFinal:
				if current == nil {
					if settle != nil {
						m.logger.Debug("Late reply dropped", "line", token)
						settle = nil
					}
					continue
				}
				lines = append(lines, token)
				response := strings.Join(lines, "\n")
				if token == at.OK {
					respond(commandResponse{response: response})
				} else {
					respond(commandResponse{response: response, err: fmt.Errorf("%s: %w", current.cmd, newError(token))})
				}

			case at.TypeData:
				if current != nil {
					lines = append(lines, token)
				}

			case at.TypePrompt:
				if current == nil {
					continue
				}
				if current.payload == nil {
					lines = append(lines, token)
					respond(commandResponse{response: strings.Join(lines, "\n")})
					continue
				}
				if _, err := transport.Write(current.payload); err != nil {
					respond(commandResponse{err: fmt.Errorf("write payload: %w", err)})
				}
			}

		case err := <-scanErrs:
			if current != nil {
				respond(commandResponse{err: fmt.Errorf("read error: %w", err)})
			}
			return fmt.Errorf("scanner error: %w", err)
		}
	}
}

// exec sends an AT command through the loop and waits for the response.
func (m *Modem) exec(ctx context.Context, cmd string) (string, error) {
	return m.submit(ctx, &commandRequest{cmd: cmd})
}

// execPayload sends cmd, writes payload on the "> " prompt and waits for the
// final response.
func (m *Modem) execPayload(ctx context.Context, cmd string, payload []byte) (string, error) {
	return m.submit(ctx, &commandRequest{cmd: cmd, payload: payload})
}

func (m *Modem) submit(ctx context.Context, req *commandRequest) (string, error) {
	m.mu.Lock()
	commands, done := m.commands, m.loopDone
	m.mu.Unlock()

	if commands == nil {
		return "", ErrNotInitialized
	}

	// Apply per-command timeout if context has none
	if _, ok := ctx.Deadline(); !ok && m.config.ATTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, m.config.ATTimeout, ErrCommandTimeout)
		defer cancel()
	}

	req.ctx = ctx
	req.respChan = make(chan commandResponse, 1) // Buffered to prevent blocking

	select {
	case commands <- req:
	case <-done:
		return "", ErrLoopStopped
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrBusy, expiry(ctx))
	}

	select {
	case resp := <-req.respChan:
		return resp.response, resp.err
	case <-done:
		return "", ErrLoopStopped
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", req.cmd, expiry(ctx))
	}
}

// expiry reports why a command context ended: ErrCommandTimeout when one of
// the modem's own timers fired, the caller's context error otherwise.
func expiry(ctx context.Context) error {
	if cause := context.Cause(ctx); errors.Is(cause, ErrCommandTimeout) {
		return cause
	}
	return ctx.Err()
}

// init performs the start-up sequence directly on transport, before the
// loop runs.
func (m *Modem) init(ctx context.Context, transport Transport) error {
	// 1. Wake-up / sanity check
	if err := m.expectOkDirect(ctx, transport, at.CmdAt); err != nil {
		return fmt.Errorf("modem not responding: %w", err)
	}

	if err := m.expectOkDirect(ctx, transport, at.CmdEchoOff); err != nil {
		return fmt.Errorf("could not disable echo: %w", err)
	}

	if err := m.expectOkDirect(ctx, transport, at.CmdNumericErrors); err != nil {
		return fmt.Errorf("could not enable numeric errors: %w", err)
	}

	// 4. Check SIM status
	simStatus, err := m.execDirect(ctx, transport, at.CmdSimStatus)
	if err != nil {
		return fmt.Errorf("query SIM status: %w", err)
	}

	switch {
	case strings.Contains(simStatus, at.SimReady):
		return nil

	case strings.Contains(simStatus, at.SimPin):
		if m.config.SimPIN == "" {
			return ErrSIMPinRequired
		}
		if err := m.expectOkDirect(ctx, transport, fmt.Sprintf(`AT+CPIN="%s"`, m.config.SimPIN)); err != nil {
			return fmt.Errorf("enter SIM PIN: %w", err)
		}
		err := poll(ctx, m.config.SIMPoll, func(ctx context.Context) (bool, error) {
			resp, err := m.execDirect(ctx, transport, at.CmdSimStatus)
			if err != nil {
				return false, nil
			}
			return strings.Contains(resp, at.SimReady), nil
		})
		if err != nil {
			return fmt.Errorf("SIM not ready: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unsupported SIM state: %q", simStatus)
	}
}

// execDirect executes an AT command directly on the transport without
// using the loop and handles the complete request-response cycle. It is
// used during initialization when the loop is not yet running.
func (m *Modem) execDirect(ctx context.Context, transport Transport, cmd string) (string, error) {
	if _, ok := ctx.Deadline(); !ok && m.config.ATTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, m.config.ATTimeout, ErrCommandTimeout)
		defer cancel()
	}

	wire := strings.TrimSpace(cmd) + "\r"
	if _, err := transport.Write([]byte(wire)); err != nil {
		return "", fmt.Errorf("write command %q: %w", cmd, err)
	}

	scanner := bufio.NewScanner(transport)
	scanner.Split(at.Splitter)

	var lines []string

	for {
		select {
		case <-ctx.Done():
			return strings.Join(lines, "\n"), ctx.Err()
		default:
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return strings.Join(lines, "\n"), fmt.Errorf("read error: %w", err)
			}
			return strings.Join(lines, "\n"), io.EOF
		}

		token := scanner.Text()
		if token == "" {
			continue
		}

		switch at.Classify(token) {
		case at.TypeFinal:
			lines = append(lines, token)
			response := strings.Join(lines, "\n")
			if token == at.OK {
				return response, nil
			}
			return response, fmt.Errorf("%s: %w", cmd, newError(token))

		case at.TypeData, at.TypePrompt:
			lines = append(lines, token)

		case at.TypeURC:
			// Ignore URCs in direct exec
			continue
		}
	}
}

// expectOkDirect executes an AT command and validates that the response
// contains "OK".
func (m *Modem) expectOkDirect(ctx context.Context, transport Transport, cmd string) error {
	resp, err := m.execDirect(ctx, transport, cmd)
	if err != nil {
		return err
	}
	if !strings.Contains(resp, at.OK) {
		return fmt.Errorf("unexpected response: %q", resp)
	}
	return nil
}

var errGaveUp = errors.New("condition not met")

// poll calls check every config.Interval until it reports done, fails, or
// the retry budget runs out.
func poll(ctx context.Context, config PollConfig, check func(ctx context.Context) (bool, error)) error {
	var (
		pollInterval = config.Interval
		timeout      = config.Timeout
		maxRetries   = config.MaxRetries
	)

	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = max(int(timeout/pollInterval), 1)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	retries := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			retries++
			if retries > maxRetries {
				return fmt.Errorf("%w after %d retries", errGaveUp, maxRetries)
			}
			ok, err := check(ctx)
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
		}
	}
}
