package session

import (
	"time"

	"github.com/danmuck/ircctl/internal/transport"
)

// Config defines session behavior and connection limits.
type Config struct {
	// HandlePing answers PING with PONG inside the pump instead of queueing it.
	HandlePing     bool
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	// MaxLineBytes bounds an unterminated fragment held between stream chunks.
	MaxLineBytes int
	// Dialer overrides transport.NetDialer built from Transport.
	Dialer    transport.Dialer
	Transport transport.Options
	Backoff   BackoffConfig
}

// DefaultConfig returns the defaults used by Dial when fields are unset.
func DefaultConfig() Config {
	return Config{
		HandlePing:     true,
		ConnectTimeout: 10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxLineBytes:   8191 + 512,
		Backoff: BackoffConfig{
			InitialDelay: 500 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     30 * time.Second,
			Jitter:       true,
		},
	}
}

// WithDefaults fills zero durations and limits from DefaultConfig.
// HandlePing is left as given.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = def.MaxLineBytes
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff = def.Backoff
	}
	if c.Dialer == nil {
		c.Dialer = transport.NetDialer{Options: c.Transport}
	}
	return c
}
