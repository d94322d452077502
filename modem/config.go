package modem

import (
	"log/slog"
	"time"
)

// Config holds the settings of a Modem.
type Config struct {
	Dialer Dialer
	SimPIN string
	// ATTimeout bounds a single command when the caller's context has no
	// deadline.
	ATTimeout time.Duration
	// InitTimeout bounds the start-up sequence run by Open.
	InitTimeout time.Duration
	// LateReplyWindow is how long the loop holds back the next command after
	// one expired, so that a late answer is not taken for the next reply.
	// Negative disables it.
	LateReplyWindow time.Duration
	// SIMPoll paces the SIM status checks after a PIN was entered.
	SIMPoll PollConfig
	// AttachPoll paces the registration checks of Attach.
	AttachPoll PollConfig
	Logger     *slog.Logger
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.ATTimeout == 0 {
		c.ATTimeout = 5 * time.Second
	}
	if c.InitTimeout == 0 {
		c.InitTimeout = 30 * time.Second
	}
	if c.LateReplyWindow == 0 {
		c.LateReplyWindow = min(200*time.Millisecond, c.ATTimeout/4)
	}
	if c.SIMPoll.Interval <= 0 {
		c.SIMPoll.Interval = 500 * time.Millisecond
	}
	if c.SIMPoll.Timeout <= 0 {
		c.SIMPoll.Timeout = 30 * time.Second
	}
	if c.AttachPoll.Interval <= 0 {
		c.AttachPoll.Interval = time.Second
	}
	if c.AttachPoll.Timeout <= 0 {
		c.AttachPoll.Timeout = 2 * time.Minute
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
}

// ConfigBuilder assembles a Config.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

func (b *ConfigBuilder) WithSimPIN(pin string) *ConfigBuilder {
	b.config.SimPIN = pin
	return b
}

func (b *ConfigBuilder) WithATTimeout(d time.Duration) *ConfigBuilder {
	b.config.ATTimeout = d
	return b
}

func (b *ConfigBuilder) WithInitTimeout(d time.Duration) *ConfigBuilder {
	b.config.InitTimeout = d
	return b
}

func (b *ConfigBuilder) WithLateReplyWindow(d time.Duration) *ConfigBuilder {
	b.config.LateReplyWindow = d
	return b
}

func (b *ConfigBuilder) WithSIMPoll(p PollConfig) *ConfigBuilder {
	b.config.SIMPoll = p
	return b
}

func (b *ConfigBuilder) WithAttachPoll(p PollConfig) *ConfigBuilder {
	b.config.AttachPoll = p
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.Logger = l
	return b
}

// Build validates the configuration and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	c := b.config
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	c.setDefaults()
	return c, nil
}
