package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/ircctl/internal/config"
)

// ircctl config.toml key mapping onto config.ClientConfig.
type fileConfig struct {
	Addr                 string   `toml:"addr"`
	Nick                 string   `toml:"nick"`
	Channels             []string `toml:"channels"`
	Capabilities         []string `toml:"capabilities"`
	HandlePing           bool     `toml:"handle_ping"`
	MaxReconnectAttempts int      `toml:"max_reconnect_attempts"`
	AdminAddr            string   `toml:"admin_addr"`
	LogLevel             string   `toml:"log_level"`
	Session              struct {
		ConnectTimeout    string  `toml:"connect_timeout"`
		WriteTimeout      string  `toml:"write_timeout"`
		MaxLineBytes      int     `toml:"max_line_bytes"`
		BackoffInitial    string  `toml:"backoff_initial"`
		BackoffMax        string  `toml:"backoff_max"`
		BackoffMultiplier float64 `toml:"backoff_multiplier"`
		BackoffJitter     bool    `toml:"backoff_jitter"`
	} `toml:"session"`
	TLS struct {
		Enabled            bool   `toml:"enabled"`
		InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
		ServerName         string `toml:"server_name"`
		CAFile             string `toml:"ca_file"`
		CertFile           string `toml:"cert_file"`
		KeyFile            string `toml:"key_file"`
	} `toml:"tls"`
}

type runtimeConfig struct {
	Client   config.ClientConfig
	LogLevel string
}

// ircctl loader for TOML config with default overlay. An empty path keeps
// the defaults.
func loadRuntimeConfig(path string) (runtimeConfig, error) {
	rc := runtimeConfig{Client: config.DefaultClientConfig()}
	if strings.TrimSpace(path) == "" {
		return rc, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runtimeConfig{}, fmt.Errorf("load ircctl config: %w", err)
	}
	cfg := &rc.Client

	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("nick") {
		cfg.Nick = strings.TrimSpace(raw.Nick)
	}
	if meta.IsDefined("channels") {
		cfg.Channels = normalizeList(raw.Channels)
	}
	if meta.IsDefined("capabilities") {
		cfg.Capabilities = normalizeList(raw.Capabilities)
	}
	if meta.IsDefined("handle_ping") {
		cfg.HandlePing = raw.HandlePing
	}
	if meta.IsDefined("max_reconnect_attempts") {
		cfg.MaxReconnectAttempts = raw.MaxReconnectAttempts
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("log_level") {
		rc.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if meta.IsDefined("session", "connect_timeout") {
		cfg.Session.ConnectTimeout = strings.TrimSpace(raw.Session.ConnectTimeout)
	}
	if meta.IsDefined("session", "write_timeout") {
		cfg.Session.WriteTimeout = strings.TrimSpace(raw.Session.WriteTimeout)
	}
	if meta.IsDefined("session", "max_line_bytes") {
		cfg.Session.MaxLineBytes = raw.Session.MaxLineBytes
	}
	if meta.IsDefined("session", "backoff_initial") {
		cfg.Session.BackoffInitial = strings.TrimSpace(raw.Session.BackoffInitial)
	}
	if meta.IsDefined("session", "backoff_max") {
		cfg.Session.BackoffMax = strings.TrimSpace(raw.Session.BackoffMax)
	}
	if meta.IsDefined("session", "backoff_multiplier") {
		cfg.Session.BackoffMultiplier = raw.Session.BackoffMultiplier
	}
	if meta.IsDefined("session", "backoff_jitter") {
		cfg.Session.BackoffJitter = raw.Session.BackoffJitter
	}

	if meta.IsDefined("tls", "enabled") {
		cfg.TLS.Enabled = raw.TLS.Enabled
	}
	if meta.IsDefined("tls", "insecure_skip_verify") {
		cfg.TLS.InsecureSkipVerify = raw.TLS.InsecureSkipVerify
	}
	if meta.IsDefined("tls", "server_name") {
		cfg.TLS.ServerName = strings.TrimSpace(raw.TLS.ServerName)
	}
	if meta.IsDefined("tls", "ca_file") {
		cfg.TLS.CAFile = strings.TrimSpace(raw.TLS.CAFile)
	}
	if meta.IsDefined("tls", "cert_file") {
		cfg.TLS.CertFile = strings.TrimSpace(raw.TLS.CertFile)
	}
	if meta.IsDefined("tls", "key_file") {
		cfg.TLS.KeyFile = strings.TrimSpace(raw.TLS.KeyFile)
	}

	return rc, nil
}

func normalizeList(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, item := range in {
		v := strings.TrimSpace(item)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// channelFlags collects repeated -channel flags.
type channelFlags []string

func (c *channelFlags) String() string {
	return strings.Join(*c, ",")
}

func (c *channelFlags) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*c = append(*c, part)
		}
	}
	return nil
}
