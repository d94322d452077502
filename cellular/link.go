// Package cellular manages a cellular data link and the TCP sockets carried
// over it. It classifies driver errors and decides between absorbing them,
// closing the affected socket, or resetting the module and reconnecting, so
// that callers see a diagnostic code but never have to perform recovery
// themselves.
package cellular

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Level is the operating level of the link. It only advances one step at a
// time through ConnectToNetwork.
type Level int

const (
	LevelClosed Level = iota
	LevelPowered
	LevelRegistered
	LevelBandsConfigured
	LevelAttached
)

func (l Level) String() string {
	switch l {
	case LevelPowered:
		return "powered"
	case LevelRegistered:
		return "registered"
	case LevelBandsConfigured:
		return "bands-configured"
	case LevelAttached:
		return "attached"
	default:
		return "closed"
	}
}

// Link owns the cellular attachment and every socket opened on it.
// All methods are safe for concurrent use; calls are serialized.
type Link struct {
	mu sync.Mutex

	driver Driver
	config Config
	policy Policy
	logger *slog.Logger

	level    Level
	failures uint32
	resets   uint64
	lastErr  error
	sockets  map[int]*Socket
	shutdown bool
}

// Status is a snapshot of the link state.
type Status struct {
	Level     Level
	Operator  string
	Bands     string
	Failures  uint32
	Resets    uint64
	Sockets   []int
	LastError error
}

// New creates a Link over driver. The link starts closed; call
// ConnectToNetwork to attach.
func New(driver Driver, config Config) (*Link, error) {
	if driver == nil {
		return nil, ErrNoDriver
	}
	config.setDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &Link{
		driver:  driver,
		config:  config,
		policy:  Policy{Threshold: config.CommErrorThreshold},
		logger:  config.Logger,
		sockets: make(map[int]*Socket),
	}, nil
}

// Status returns a snapshot of the link.
func (l *Link) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	open := make([]int, 0, len(l.sockets))
	for n := range l.sockets {
		open = append(open, n)
	}
	slices.Sort(open)

	return Status{
		Level:     l.level,
		Operator:  l.config.Operator,
		Bands:     l.config.Bands,
		Failures:  l.failures,
		Resets:    l.resets,
		Sockets:   open,
		LastError: l.lastErr,
	}
}

// ConnectToNetwork runs the attach sequence: open the module, select the
// operator profile, program the bands and attach to the access point.
//
// Only an access point failure is retried, after a hardware reset, up to
// Config.ReconnectAttempts times. A failure in any earlier step is returned
// at once. A nil return means the link is attached.
func (l *Link) ConnectToNetwork(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.shutdown {
		return ErrLinkShutdown
	}
	return l.connect(ctx)
}

func (l *Link) connect(ctx context.Context) error {
	if l.level == LevelAttached {
		return nil
	}
	if l.level != LevelClosed {
		// A previous sequence stopped halfway; the module would refuse a
		// second open.
		if err := l.driver.Close(ctx); err != nil {
			l.logger.Debug("Close before reconnect failed", "error", err)
		}
		l.level = LevelClosed
	}

	attempts, exhausted, err := retry(l.config.ReconnectAttempts, func(attempt int) (Outcome, error) {
		l.logger.Info("Connecting to access point", "attempt", attempt)
		err := l.attach(ctx)
		l.config.Observer.ConnectAttempt(attempt, err)

		switch {
		case err == nil:
			return Succeeded, nil
		case l.level == LevelBandsConfigured && errors.Is(err, ErrAPConnectFailed):
			l.logger.Warn("Access point connect failed, resetting module",
				"error", CodeOf(err), "attempt", attempt)
			l.hardwareReset(ctx, ErrAPConnectFailed)
			l.config.Delay(ctx, l.config.ResetSettleDelay)
			return Retry, err
		default:
			return Abort, err
		}
	})

	l.lastErr = err
	switch {
	case err == nil:
		l.logger.Info("Connected to access point", "attempts", attempts)
	case exhausted:
		l.logger.Error("Failed to connect to access point",
			"attempts", attempts, "error", CodeOf(err))
		err = fmt.Errorf("connect after %d attempts: %w", attempts, err)
		l.lastErr = err
	default:
		l.logger.Error("Connect sequence aborted",
			"attempt", attempts, "level", l.level, "error", err)
	}
	return err
}

// attach runs one pass of the sequence, advancing level after each step.
func (l *Link) attach(ctx context.Context) error {
	if err := l.driver.Open(ctx); err != nil {
		return fmt.Errorf("open module: %w", err)
	}
	l.level = LevelPowered

	if err := l.driver.SetOperator(ctx, l.config.Operator); err != nil {
		return fmt.Errorf("set operator %q: %w", l.config.Operator, err)
	}
	l.level = LevelRegistered

	l.logger.Info("Setting frequency bands", "bands", l.config.Bands)
	if err := l.driver.SetBands(ctx, l.config.Bands); err != nil {
		return fmt.Errorf("set bands: %w", err)
	}
	l.level = LevelBandsConfigured

	if err := l.driver.Attach(ctx, l.config.APN); err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	l.level = LevelAttached
	return nil
}

// hardwareReset restarts and closes the module. Every socket dies with it.
// The caller's cancellation does not reach the module.
func (l *Link) hardwareReset(ctx context.Context, cause ErrorCode) {
	ctx = context.WithoutCancel(ctx)
	l.logger.Warn("Resetting cellular hardware", "cause", cause)
	l.resets++
	l.config.Observer.HardwareReset(cause)

	if err := l.driver.HardwareReset(ctx); err != nil {
		l.logger.Error("Hardware reset failed", "error", err)
	}
	if err := l.driver.Close(ctx); err != nil {
		l.logger.Debug("Close after reset failed", "error", err)
	}
	l.level = LevelClosed

	for n, s := range l.sockets {
		s.state = socketDead
		delete(l.sockets, n)
	}
}

// resetLink escalates: hardware reset followed by a full reconnect. Both
// run to completion even when the caller's context is done.
func (l *Link) resetLink(ctx context.Context, cause ErrorCode) {
	ctx = context.WithoutCancel(ctx)
	l.hardwareReset(ctx, cause)
	if err := l.connect(ctx); err != nil {
		l.logger.Error("Reconnect after reset failed", "cause", cause, "error", err)
	}
}

// handleError classifies err, updates the failure count and executes the
// decision. It returns nil when the error was absorbed and err otherwise.
func (l *Link) handleError(ctx context.Context, op Operation, s *Socket, err error, force bool) error {
	code := CodeOf(err)
	class := Classify(op, code)
	decision, failures := l.policy.Decide(class, force, l.failures)
	l.failures = failures
	l.config.Observer.ErrorHandled(op, code, class, decision)

	switch decision {
	case DecisionAbsorb:
		if class == ClassLinkDegraded {
			l.logger.Info("Module communication error absorbed",
				"op", op, "error", code, "count", failures, "threshold", l.policy.Threshold)
		}
		return nil
	case DecisionCloseSocket:
		if s != nil {
			l.logger.Info("Socket not ready, closing", "op", op, "socket", s.number)
			l.closeSocket(ctx, s)
		}
		return err
	case DecisionResetLink:
		l.logger.Warn("Escalating to link reset",
			"op", op, "error", code, "class", class, "forced", force)
		l.resetLink(ctx, code)
		return err
	default:
		return err
	}
}

// Shutdown closes every socket and the module. The link cannot be used
// afterwards.
func (l *Link) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.shutdown {
		return ErrLinkShutdown
	}
	l.shutdown = true

	for _, s := range l.sockets {
		l.closeSocket(ctx, s)
	}
	if l.level == LevelClosed {
		return nil
	}
	l.level = LevelClosed
	if err := l.driver.Close(ctx); err != nil {
		return fmt.Errorf("close module: %w", err)
	}
	return nil
}
