package cellular

import (
	"context"
	"log/slog"
	"time"
)

// DefaultBands enables every LTE band the RYZ014A supports. Narrow it to the
// bands of the carrier region, for example "2,4,5,12,13,25" for North America
// or "1,3,8,20,28" for EMEA.
const DefaultBands = "1,2,4,5,8,12,13,14,17,18,19,20,25,26,28,66"

// DefaultOperator is the operator profile selected before attaching.
const DefaultOperator = "standard"

// Config holds the recovery policy and link parameters of a Link.
type Config struct {
	// CommErrorThreshold is the number of consecutive module communication
	// errors absorbed before the link is reset.
	CommErrorThreshold uint32
	// ReconnectAttempts bounds the attach attempts of ConnectToNetwork.
	ReconnectAttempts int
	// CloseSocketRetries bounds the driver close calls of CloseSocket.
	CloseSocketRetries int
	// ResetSettleDelay is waited between a hardware reset and the next open.
	ResetSettleDelay time.Duration
	// MaxSockets is the number of sockets the module can hold at once.
	MaxSockets int

	Operator string
	Bands    string
	APN      string

	Logger   *slog.Logger
	Observer Observer
	// Delay blocks for d. Tests replace it to avoid real sleeps.
	Delay func(ctx context.Context, d time.Duration)
}

func (c *Config) setDefaults() {
	if c.CommErrorThreshold == 0 {
		c.CommErrorThreshold = 3
	}
	if c.ReconnectAttempts <= 0 {
		c.ReconnectAttempts = 3
	}
	if c.CloseSocketRetries <= 0 {
		c.CloseSocketRetries = 3
	}
	if c.ResetSettleDelay == 0 {
		c.ResetSettleDelay = 10 * time.Millisecond
	}
	if c.MaxSockets <= 0 {
		c.MaxSockets = 6
	}
	if c.Operator == "" {
		c.Operator = DefaultOperator
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Observer == nil {
		c.Observer = NopObserver{}
	}
	if c.Delay == nil {
		c.Delay = sleep
	}
}

func (c *Config) validate() error {
	if c.Bands == "" {
		return ErrNoBands
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ConfigBuilder assembles a Config step by step.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder returns a builder preloaded with DefaultBands.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{config: Config{Bands: DefaultBands}}
}

func (b *ConfigBuilder) WithCommErrorThreshold(n uint32) *ConfigBuilder {
	b.config.CommErrorThreshold = n
	return b
}

func (b *ConfigBuilder) WithReconnectAttempts(n int) *ConfigBuilder {
	b.config.ReconnectAttempts = n
	return b
}

func (b *ConfigBuilder) WithCloseSocketRetries(n int) *ConfigBuilder {
	b.config.CloseSocketRetries = n
	return b
}

func (b *ConfigBuilder) WithResetSettleDelay(d time.Duration) *ConfigBuilder {
	b.config.ResetSettleDelay = d
	return b
}

func (b *ConfigBuilder) WithMaxSockets(n int) *ConfigBuilder {
	b.config.MaxSockets = n
	return b
}

func (b *ConfigBuilder) WithOperator(name string) *ConfigBuilder {
	b.config.Operator = name
	return b
}

func (b *ConfigBuilder) WithBands(bands string) *ConfigBuilder {
	b.config.Bands = bands
	return b
}

func (b *ConfigBuilder) WithAPN(apn string) *ConfigBuilder {
	b.config.APN = apn
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.Logger = l
	return b
}

func (b *ConfigBuilder) WithObserver(o Observer) *ConfigBuilder {
	b.config.Observer = o
	return b
}

func (b *ConfigBuilder) WithDelay(fn func(ctx context.Context, d time.Duration)) *ConfigBuilder {
	b.config.Delay = fn
	return b
}

// Build applies defaults and validates the result.
func (b *ConfigBuilder) Build() (Config, error) {
	c := b.config
	c.setDefaults()
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
