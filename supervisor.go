package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jpillora/backoff"
	"i4.energy/across/cellgw/cellular"
)

// Connector attaches the link to the network.
type Connector interface {
	ConnectToNetwork(ctx context.Context) error
}

// Supervisor keeps the link attached. Each trigger starts a round of
// ConnectToNetwork calls spaced by an exponential backoff that ends on the
// first success.
type Supervisor struct {
	link   Connector
	logger *slog.Logger

	// Min and Max bound the wait between failed rounds.
	Min time.Duration
	Max time.Duration

	trigger chan struct{}
}

// NewSupervisor returns a Supervisor that connects as soon as Run starts.
func NewSupervisor(link Connector, logger *slog.Logger) *Supervisor {
	s := &Supervisor{
		link:    link,
		logger:  logger,
		Min:     time.Second,
		Max:     5 * time.Minute,
		trigger: make(chan struct{}, 1),
	}
	s.Trigger()
	return s
}

// Trigger requests a connect round. Requests made while a round is pending
// are merged.
func (s *Supervisor) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run serves triggers until ctx is done.
func (s *Supervisor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.trigger:
			s.connect(ctx)
		}
	}
}

func (s *Supervisor) connect(ctx context.Context) {
	b := &backoff.Backoff{
		Min:    s.Min,
		Max:    s.Max,
		Factor: 2,
		Jitter: true,
	}

	for {
		err := s.link.ConnectToNetwork(ctx)
		if err == nil {
			s.logger.Info("Link attached", "rounds", b.Attempt()+1)
			return
		}
		if errors.Is(err, cellular.ErrLinkShutdown) || ctx.Err() != nil {
			return
		}

		wait := b.Duration()
		s.logger.Warn("Connect failed", "error", err, "retry_in", wait, "code", cellular.CodeOf(err))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
