package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/ircctl/internal/observability"
	"github.com/danmuck/ircctl/internal/protocol"
	"github.com/danmuck/ircctl/internal/queue"
	"github.com/danmuck/ircctl/internal/transport"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrConnectFailed = errors.New("session: connect failed")
	ErrSessionClosed = errors.New("session: closed")
	ErrReadTimeout   = errors.New("session: read timeout")
)

// Session is one connected IRC conversation. Inbound messages are read with
// Read, ReadTimeout or ReadContext in the order they arrived.
type Session struct {
	id        string
	cfg       Config
	transport transport.Transport
	framing   transport.Framing
	inbox     *queue.Queue[protocol.Message]
	logger    zerolog.Logger

	state  atomic.Int32
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// pump-owned reassembly state
	partial    string
	discarding bool

	errMu sync.Mutex
	err   error

	transportOnce sync.Once
	transportErr  error
	closeOnce     sync.Once
}

// Dial connects to addr and starts the receive pump. On failure no Session
// is returned and the error wraps ErrConnectFailed.
func Dial(ctx context.Context, addr string, cfg Config) (*Session, error) {
	cfg = cfg.WithDefaults()
	logger := observability.Component("session").With().Str("addr", addr).Logger()

	dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	logger.Debug().Stringer("state", StateConnecting).Msg("session.Dial connecting")
	t, err := cfg.Dialer.Dial(dialCtx, addr)
	if err != nil {
		logger.Warn().Err(err).Msg("session.Dial failed")
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectFailed, addr, err)
	}
	return New(t, cfg), nil
}

// New wraps an already connected transport and starts the receive pump.
func New(t transport.Transport, cfg Config) *Session {
	cfg = cfg.WithDefaults()
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:        id,
		cfg:       cfg,
		transport: t,
		framing:   transport.FramingOf(t),
		inbox:     queue.New[protocol.Message](),
		logger: observability.Component("session").With().
			Str("session_id", id).
			Str("framing", transport.FramingOf(t).String()).
			Logger(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	observability.SessionOpened()
	s.state.Store(int32(StateOpen))
	s.logger.Info().Bool("handle_ping", cfg.HandlePing).Msg("session.New open")
	go s.pump()
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Done is closed once the receive pump has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the transport fault that ended the pump, or nil after a
// normal Close.
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Send validates and encodes msg and hands it to the transport. Success
// means the transport accepted the write.
func (s *Session) Send(ctx context.Context, msg protocol.Message) error {
	if st := s.State(); st != StateOpen {
		return fmt.Errorf("%w: state %s", ErrSessionClosed, st)
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	err := s.write(ctx, msg)
	observability.RecordSent(msg.Command, err == nil)
	if errors.Is(err, transport.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrSessionClosed, err)
	}
	return err
}

// Read blocks until a message is available.
func (s *Session) Read() protocol.Message {
	return s.inbox.Pop()
}

// ReadTimeout waits up to d and returns ErrReadTimeout when nothing arrived.
func (s *Session) ReadTimeout(d time.Duration) (protocol.Message, error) {
	msg, ok := s.inbox.PopTimeout(d)
	if !ok {
		return protocol.Message{}, ErrReadTimeout
	}
	return msg, nil
}

// ReadContext waits until a message arrives or ctx is done.
func (s *Session) ReadContext(ctx context.Context) (protocol.Message, error) {
	return s.inbox.PopContext(ctx)
}

// Close tears the session down and waits for the pump to exit. Messages
// already queued stay readable. Close is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.state.CompareAndSwap(int32(StateOpen), int32(StateClosing))
		s.closeTransport()
		s.cancel()
		<-s.done
		s.state.Store(int32(StateClosed))
		s.logger.Info().Msg("session.Session.Close closed")
	})
	return s.transportErr
}

func (s *Session) write(ctx context.Context, msg protocol.Message) error {
	var line strings.Builder
	if err := protocol.Encode(&line, msg); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()
	return s.transport.Send(ctx, line.String())
}

func (s *Session) closeTransport() {
	s.transportOnce.Do(func() {
		s.transportErr = s.transport.Close()
		if errors.Is(s.transportErr, transport.ErrClosed) {
			s.transportErr = nil
		}
	})
}
