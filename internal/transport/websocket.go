package transport

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const closeGracePeriod = time.Second

// WebSocketTransport carries IRC text in WebSocket messages. Each message
// holds one or more complete lines.
type WebSocketTransport struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}
}

// NewWebSocket wraps an established connection.
func NewWebSocket(conn *websocket.Conn) *WebSocketTransport {
	return &WebSocketTransport{conn: conn, closed: make(chan struct{})}
}

func dialWebSocket(ctx context.Context, target Address, opts Options) (*WebSocketTransport, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.handshakeTimeout(),
		ReadBufferSize:   opts.readBufferBytes(),
	}
	if target.Secure() {
		hostport := target.HostPort
		if _, _, err := net.SplitHostPort(hostport); err != nil {
			hostport = net.JoinHostPort(hostport, "443")
		}
		tlsCfg, err := opts.TLS.ClientConfig(hostport)
		if err != nil {
			return nil, err
		}
		dialer.TLSClientConfig = tlsCfg
	}
	conn, resp, err := dialer.DialContext(ctx, target.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return NewWebSocket(conn), nil
}

func (w *WebSocketTransport) Framing() Framing {
	return FramingMessage
}

func (w *WebSocketTransport) Send(ctx context.Context, text string) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if w.isClosed() {
		return ErrClosed
	}
	stop := deadlineOnCancel(ctx, w.conn.SetWriteDeadline)
	err := w.conn.WriteMessage(websocket.TextMessage, []byte(text))
	if !stop() {
		return ctx.Err()
	}
	return w.mapErr(err)
}

// Receive returns the next text or binary message payload. A cancelled
// read leaves the connection unusable.
func (w *WebSocketTransport) Receive(ctx context.Context) (string, error) {
	if w.isClosed() {
		return "", ErrClosed
	}
	stop := deadlineOnCancel(ctx, w.conn.SetReadDeadline)
	_, data, err := w.conn.ReadMessage()
	if !stop() {
		return "", ctx.Err()
	}
	if err != nil {
		return "", w.mapErr(err)
	}
	return string(data), nil
}

// Close sends a normal close frame and releases the connection.
func (w *WebSocketTransport) Close() error {
	w.closeOnce.Do(func() {
		close(w.closed)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		w.closeErr = w.conn.Close()
	})
	return w.closeErr
}

func (w *WebSocketTransport) isClosed() bool {
	select {
	case <-w.closed:
		return true
	default:
		return false
	}
}

func (w *WebSocketTransport) mapErr(err error) error {
	if err == nil {
		return nil
	}
	if w.isClosed() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return ErrClosed
	}
	return err
}
