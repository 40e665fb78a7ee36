package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/ircctl/internal/transport"
	"github.com/pelletier/go-toml/v2"
)

// ClientConfig is the on-disk schema for ircctl.
type ClientConfig struct {
	Addr                 string              `toml:"addr"`
	Nick                 string              `toml:"nick"`
	Channels             []string            `toml:"channels"`
	Capabilities         []string            `toml:"capabilities"`
	HandlePing           bool                `toml:"handle_ping"`
	MaxReconnectAttempts int                 `toml:"max_reconnect_attempts"`
	AdminAddr            string              `toml:"admin_addr"`
	Session              SessionSection      `toml:"session"`
	TLS                  transport.TLSConfig `toml:"tls"`
}

// SessionSection holds session tuning. Durations use time.ParseDuration
// syntax; empty values keep the session defaults.
type SessionSection struct {
	ConnectTimeout    string  `toml:"connect_timeout"`
	WriteTimeout      string  `toml:"write_timeout"`
	MaxLineBytes      int     `toml:"max_line_bytes"`
	BackoffInitial    string  `toml:"backoff_initial"`
	BackoffMax        string  `toml:"backoff_max"`
	BackoffMultiplier float64 `toml:"backoff_multiplier"`
	BackoffJitter     bool    `toml:"backoff_jitter"`
}

// DefaultClientConfig connects anonymously to Twitch chat over WebSocket.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Addr:         "wss://irc-ws.chat.twitch.tv:443",
		Nick:         "justinfan12345",
		Capabilities: []string{"twitch.tv/tags", "twitch.tv/commands"},
		HandlePing:   true,
		Session: SessionSection{
			BackoffJitter: true,
		},
	}
}

func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	if err := loadToml(path, &cfg); err != nil {
		return ClientConfig{}, err
	}
	if err := ValidateClientConfig(cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateClientConfig(cfg ClientConfig) error {
	if _, err := transport.ParseAddress(cfg.Addr); err != nil {
		return fmt.Errorf("client config addr invalid: %w", err)
	}
	if strings.TrimSpace(cfg.Nick) == "" {
		return fmt.Errorf("client config missing nick")
	}
	if strings.ContainsAny(cfg.Nick, " \r\n") {
		return fmt.Errorf("client config nick %q contains whitespace", cfg.Nick)
	}
	for i, ch := range cfg.Channels {
		if strings.TrimSpace(ch) == "" || strings.ContainsAny(ch, " ,\r\n") {
			return fmt.Errorf("channel[%d] invalid: %q", i, ch)
		}
	}
	for i, capability := range cfg.Capabilities {
		if strings.TrimSpace(capability) == "" || strings.ContainsAny(capability, " \r\n") {
			return fmt.Errorf("capability[%d] invalid: %q", i, capability)
		}
	}
	if cfg.MaxReconnectAttempts < 0 {
		return fmt.Errorf("max_reconnect_attempts must be >= 0")
	}
	if err := cfg.TLS.Validate(); err != nil {
		return fmt.Errorf("tls invalid: %w", err)
	}
	if err := ValidateSessionSection(cfg.Session); err != nil {
		return fmt.Errorf("session invalid: %w", err)
	}
	return nil
}

func ValidateSessionSection(s SessionSection) error {
	for name, raw := range map[string]string{
		"connect_timeout": s.ConnectTimeout,
		"write_timeout":   s.WriteTimeout,
		"backoff_initial": s.BackoffInitial,
		"backoff_max":     s.BackoffMax,
	} {
		if _, err := parseDuration(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if s.MaxLineBytes < 0 {
		return fmt.Errorf("max_line_bytes must be >= 0")
	}
	if s.BackoffMultiplier != 0 && s.BackoffMultiplier < 1 {
		return fmt.Errorf("backoff_multiplier must be >= 1")
	}
	return nil
}

func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", raw)
	}
	return d, nil
}
