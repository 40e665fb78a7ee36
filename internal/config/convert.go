package config

import (
	"github.com/danmuck/ircctl/internal/protocol/session"
)

// SessionConfig maps the file schema onto a session.Config. Unset values
// fall back to session.DefaultConfig.
func (c ClientConfig) SessionConfig() (session.Config, error) {
	out := session.DefaultConfig()
	out.HandlePing = c.HandlePing
	out.Transport.TLS = c.TLS

	s := c.Session
	if d, err := parseDuration(s.ConnectTimeout); err != nil {
		return session.Config{}, err
	} else if d > 0 {
		out.ConnectTimeout = d
		out.Transport.HandshakeTimeout = d
	}
	if d, err := parseDuration(s.WriteTimeout); err != nil {
		return session.Config{}, err
	} else if d > 0 {
		out.WriteTimeout = d
	}
	if s.MaxLineBytes > 0 {
		out.MaxLineBytes = s.MaxLineBytes
	}
	if d, err := parseDuration(s.BackoffInitial); err != nil {
		return session.Config{}, err
	} else if d > 0 {
		out.Backoff.InitialDelay = d
	}
	if d, err := parseDuration(s.BackoffMax); err != nil {
		return session.Config{}, err
	} else if d > 0 {
		out.Backoff.MaxDelay = d
	}
	if s.BackoffMultiplier >= 1 {
		out.Backoff.Multiplier = s.BackoffMultiplier
	}
	out.Backoff.Jitter = s.BackoffJitter
	return out, nil
}
