package transport

import (
	"errors"
	"testing"

	"github.com/danmuck/ircctl/internal/testutil/testlog"
)

func TestParseAddress(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		raw  string
		want Address
	}{
		{"irc.example.net:6667", Address{HostPort: "irc.example.net:6667"}},
		{"irc://irc.example.net", Address{Scheme: SchemeTCP, HostPort: "irc.example.net:6667"}},
		{"ircs://irc.example.net", Address{Scheme: SchemeTLS, HostPort: "irc.example.net:6697"}},
		{"IRCS://irc.example.net:7000", Address{Scheme: SchemeTLS, HostPort: "irc.example.net:7000"}},
		{"wss://irc-ws.chat.twitch.tv:443", Address{Scheme: SchemeWSS, HostPort: "irc-ws.chat.twitch.tv:443", URL: "wss://irc-ws.chat.twitch.tv:443"}},
		{"ws://127.0.0.1:8080/irc", Address{Scheme: SchemeWS, HostPort: "127.0.0.1:8080", URL: "ws://127.0.0.1:8080/irc"}},
	}
	for _, tc := range cases {
		got, err := ParseAddress(tc.raw)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("parse %q: got %+v want %+v", tc.raw, got, tc.want)
		}
	}
}

func TestParseAddressRejects(t *testing.T) {
	testlog.Start(t)

	if _, err := ParseAddress("http://example.net"); !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("expected ErrUnsupportedScheme, got %v", err)
	}
	for _, raw := range []string{"", "no-port", "irc://"} {
		if _, err := ParseAddress(raw); !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("expected ErrInvalidAddress for %q, got %v", raw, err)
		}
	}
}

func TestTLSConfigValidate(t *testing.T) {
	testlog.Start(t)

	if err := (TLSConfig{Enabled: true}).Validate(); err != nil {
		t.Fatalf("system roots config should validate: %v", err)
	}
	if err := (TLSConfig{CertFile: "c.crt"}).Validate(); !errors.Is(err, ErrTLSKeyFileRequired) {
		t.Fatalf("expected ErrTLSKeyFileRequired, got %v", err)
	}
	if err := (TLSConfig{KeyFile: "c.key"}).Validate(); !errors.Is(err, ErrTLSCertFileRequired) {
		t.Fatalf("expected ErrTLSCertFileRequired, got %v", err)
	}
	if err := (TLSConfig{InsecureSkipVerify: true, CAFile: "ca.crt"}).Validate(); !errors.Is(err, ErrTLSInsecureWithCA) {
		t.Fatalf("expected ErrTLSInsecureWithCA, got %v", err)
	}
}

func TestClientConfigServerName(t *testing.T) {
	testlog.Start(t)

	cfg, err := TLSConfig{Enabled: true}.ClientConfig("irc.example.net:6697")
	if err != nil {
		t.Fatalf("client config: %v", err)
	}
	if cfg.ServerName != "irc.example.net" {
		t.Fatalf("unexpected server name %q", cfg.ServerName)
	}
	cfg, err = TLSConfig{Enabled: true, ServerName: "override"}.ClientConfig("10.0.0.1:6697")
	if err != nil {
		t.Fatalf("client config: %v", err)
	}
	if cfg.ServerName != "override" {
		t.Fatalf("unexpected server name %q", cfg.ServerName)
	}
}

func TestFramingOfDefaults(t *testing.T) {
	testlog.Start(t)

	if got := FramingOf(&StreamTransport{}); got != FramingStream {
		t.Fatalf("stream transport reported %s", got)
	}
	if got := FramingOf(&WebSocketTransport{}); got != FramingMessage {
		t.Fatalf("websocket transport reported %s", got)
	}
	if got := FramingOf(nil); got != FramingMessage {
		t.Fatalf("unknown transport reported %s", got)
	}
}
