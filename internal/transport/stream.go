package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"
)

// StreamTransport carries IRC text over a byte stream such as TCP or TLS.
// Receive returns raw chunks; lines may be split across calls.
type StreamTransport struct {
	conn    net.Conn
	readBuf []byte

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}
}

// NewStream wraps an established connection.
func NewStream(conn net.Conn, readBufferBytes int) *StreamTransport {
	if readBufferBytes <= 0 {
		readBufferBytes = defaultReadBufferBytes
	}
	return &StreamTransport{
		conn:    conn,
		readBuf: make([]byte, readBufferBytes),
		closed:  make(chan struct{}),
	}
}

func dialStream(ctx context.Context, hostport string, opts Options, secure bool) (*StreamTransport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", hostport)
	if err != nil {
		return nil, err
	}
	if secure {
		tlsCfg, err := opts.TLS.ClientConfig(hostport)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		tlsConn := tls.Client(conn, tlsCfg)
		handshakeCtx, cancel := context.WithTimeout(ctx, opts.handshakeTimeout())
		defer cancel()
		if err := tlsConn.HandshakeContext(handshakeCtx); err != nil {
			_ = conn.Close()
			return nil, err
		}
		conn = tlsConn
	}
	return NewStream(conn, opts.readBufferBytes()), nil
}

func (s *StreamTransport) Framing() Framing {
	return FramingStream
}

func (s *StreamTransport) Send(ctx context.Context, text string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.isClosed() {
		return ErrClosed
	}
	stop := deadlineOnCancel(ctx, s.conn.SetWriteDeadline)
	_, err := io.WriteString(s.conn, text)
	if !stop() {
		return ctx.Err()
	}
	return s.mapErr(err)
}

func (s *StreamTransport) Receive(ctx context.Context) (string, error) {
	if s.isClosed() {
		return "", ErrClosed
	}
	stop := deadlineOnCancel(ctx, s.conn.SetReadDeadline)
	n, err := s.conn.Read(s.readBuf)
	if !stop() {
		return "", ctx.Err()
	}
	if n > 0 {
		return string(s.readBuf[:n]), nil
	}
	return "", s.mapErr(err)
}

func (s *StreamTransport) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

func (s *StreamTransport) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *StreamTransport) mapErr(err error) error {
	if err == nil {
		return nil
	}
	if s.isClosed() || errors.Is(err, net.ErrClosed) {
		return ErrClosed
	}
	return err
}
