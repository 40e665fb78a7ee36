// Package transport carries IRC text between the session driver and a
// remote server. It owns connection setup (TCP, TLS, WebSocket) and write
// serialisation; line parsing and keepalive handling live above it.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

var (
	ErrClosed            = errors.New("transport: closed")
	ErrUnsupportedScheme = errors.New("transport: unsupported address scheme")
	ErrInvalidAddress    = errors.New("transport: invalid address")
)

// Transport is a connected, bidirectional text channel. Send may be called
// from several goroutines; Receive is driven by a single reader.
type Transport interface {
	Send(ctx context.Context, text string) error
	// Receive blocks until a text unit arrives or the transport fails.
	// Once ctx is cancelled the transport should be treated as unusable.
	Receive(ctx context.Context) (string, error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, addr string) (Transport, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, addr string) (Transport, error)

func (f DialerFunc) Dial(ctx context.Context, addr string) (Transport, error) {
	return f(ctx, addr)
}

// Framing describes how Receive demarcates text.
type Framing int

const (
	// FramingMessage delivers one or more whole lines per unit; CRLF may be
	// omitted on the last line.
	FramingMessage Framing = iota
	// FramingStream delivers arbitrary chunks that may split lines.
	FramingStream
)

func (f Framing) String() string {
	switch f {
	case FramingMessage:
		return "message"
	case FramingStream:
		return "stream"
	default:
		return fmt.Sprintf("framing(%d)", int(f))
	}
}

// Framed is implemented by transports that report their framing.
type Framed interface {
	Framing() Framing
}

// FramingOf returns t's framing, defaulting to FramingMessage.
func FramingOf(t Transport) Framing {
	if f, ok := t.(Framed); ok {
		return f.Framing()
	}
	return FramingMessage
}

const (
	SchemeTCP  = "irc"
	SchemeTLS  = "ircs"
	SchemeWS   = "ws"
	SchemeWSS  = "wss"
	portPlain  = "6667"
	portSecure = "6697"

	defaultHandshakeTimeout = 10 * time.Second
	defaultReadBufferBytes  = 4096
)

// Options configures NetDialer.
type Options struct {
	TLS              TLSConfig
	HandshakeTimeout time.Duration
	ReadBufferBytes  int
}

func (o Options) handshakeTimeout() time.Duration {
	if o.HandshakeTimeout <= 0 {
		return defaultHandshakeTimeout
	}
	return o.HandshakeTimeout
}

func (o Options) readBufferBytes() int {
	if o.ReadBufferBytes <= 0 {
		return defaultReadBufferBytes
	}
	return o.ReadBufferBytes
}

// Address is a parsed dial target.
type Address struct {
	Scheme   string
	HostPort string
	// URL is the full WebSocket URL for ws and wss targets.
	URL string
}

func (a Address) Secure() bool {
	return a.Scheme == SchemeTLS || a.Scheme == SchemeWSS
}

// ParseAddress accepts irc://, ircs://, ws:// and wss:// URLs or a bare
// host:port. irc and ircs targets without a port get 6667 and 6697.
func ParseAddress(raw string) (Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Address{}, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	if !strings.Contains(raw, "://") {
		if _, _, err := net.SplitHostPort(raw); err != nil {
			return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
		return Address{HostPort: raw}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if u.Host == "" {
		return Address{}, fmt.Errorf("%w: missing host in %q", ErrInvalidAddress, raw)
	}
	scheme := strings.ToLower(u.Scheme)
	addr := Address{Scheme: scheme, HostPort: u.Host}
	switch scheme {
	case SchemeTCP, SchemeTLS:
		if u.Port() == "" {
			port := portPlain
			if scheme == SchemeTLS {
				port = portSecure
			}
			addr.HostPort = net.JoinHostPort(u.Hostname(), port)
		}
	case SchemeWS, SchemeWSS:
		u.Scheme = scheme
		addr.URL = u.String()
	default:
		return Address{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return addr, nil
}

// NetDialer dials real network transports, choosing the implementation
// from the address scheme. Bare host:port targets use TCP, wrapped in TLS
// when Options.TLS.Enabled is set.
type NetDialer struct {
	Options Options
}

func (d NetDialer) Dial(ctx context.Context, addr string) (Transport, error) {
	target, err := ParseAddress(addr)
	if err != nil {
		return nil, err
	}
	switch target.Scheme {
	case SchemeWS, SchemeWSS:
		return dialWebSocket(ctx, target, d.Options)
	case SchemeTLS:
		return dialStream(ctx, target.HostPort, d.Options, true)
	case SchemeTCP:
		return dialStream(ctx, target.HostPort, d.Options, false)
	default:
		return dialStream(ctx, target.HostPort, d.Options, d.Options.TLS.Enabled)
	}
}

// deadlineOnCancel forces pending I/O on conn to return once ctx is done.
// The returned stop func reports false when the cancellation already fired.
func deadlineOnCancel(ctx context.Context, set func(time.Time) error) func() bool {
	if dl, ok := ctx.Deadline(); ok {
		_ = set(dl)
	} else {
		_ = set(time.Time{})
	}
	return context.AfterFunc(ctx, func() {
		_ = set(time.Now())
	})
}
