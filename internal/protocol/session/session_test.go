package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/ircctl/internal/protocol"
	"github.com/danmuck/ircctl/internal/testutil/testlog"
	"github.com/danmuck/ircctl/internal/transport"
	"github.com/danmuck/ircctl/internal/transport/transporttest"
	"github.com/google/uuid"
)

const waitFor = 2 * time.Second

func newPipeSession(t *testing.T, framing transport.Framing, handlePing bool) (*Session, *transporttest.Pipe) {
	t.Helper()
	pipe := transporttest.NewPipe(framing)
	cfg := DefaultConfig()
	cfg.HandlePing = handlePing
	s := New(pipe, cfg)
	t.Cleanup(func() { _ = s.Close() })
	return s, pipe
}

func mustRead(t *testing.T, s *Session) protocol.Message {
	t.Helper()
	msg, err := s.ReadTimeout(waitFor)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func expectEmpty(t *testing.T, s *Session) {
	t.Helper()
	if msg, err := s.ReadTimeout(50 * time.Millisecond); !errors.Is(err, ErrReadTimeout) {
		t.Fatalf("expected empty queue, got %q err=%v", msg.String(), err)
	}
}

func TestBackoffDelayDeterministicNoJitter(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
	}
	want := map[int]time.Duration{
		0: 250 * time.Millisecond,
		1: 250 * time.Millisecond,
		2: 500 * time.Millisecond,
		3: time.Second,
		6: 5 * time.Second,
	}
	for attempt, d := range want {
		if got := cfg.Delay(attempt, nil); got != d {
			t.Fatalf("attempt%d got=%v want=%v", attempt, got, d)
		}
	}
	if got := (BackoffConfig{}).Delay(3, nil); got != 0 {
		t.Fatalf("zero config must not wait, got %v", got)
	}
}

func TestBackoffDelayJitterStaysUnderCap(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{InitialDelay: time.Second, Multiplier: 2.0, MaxDelay: 8 * time.Second, Jitter: true}
	rng := rand.New(rand.NewSource(7))
	for attempt := 1; attempt <= 8; attempt++ {
		base := (BackoffConfig{InitialDelay: cfg.InitialDelay, Multiplier: cfg.Multiplier, MaxDelay: cfg.MaxDelay}).Delay(attempt, nil)
		got := cfg.Delay(attempt, rng)
		if got < base/2 || got > base {
			t.Fatalf("attempt%d out of bounds: %v (base %v)", attempt, got, base)
		}
	}
}

func TestBackoffWaitHonoursContext(t *testing.T) {
	testlog.Start(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := BackoffConfig{InitialDelay: time.Hour}
	if err := cfg.Wait(ctx, 1, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if err := (BackoffConfig{}).Wait(context.Background(), 4, nil); err != nil {
		t.Fatalf("zero delay wait: %v", err)
	}
}

func TestStateNames(t *testing.T) {
	testlog.Start(t)
	want := map[State]string{
		StateConnecting: "connecting",
		StateOpen:       "open",
		StateClosing:    "closing",
		StateClosed:     "closed",
		State(9):        "state(9)",
	}
	for state, name := range want {
		if state.String() != name {
			t.Fatalf("state %d got=%q want=%q", int32(state), state.String(), name)
		}
	}
}

func TestNewSessionIsOpen(t *testing.T) {
	testlog.Start(t)
	s, _ := newPipeSession(t, transport.FramingMessage, true)
	if s.State() != StateOpen {
		t.Fatalf("expected open, got %s", s.State())
	}
	if _, err := uuid.Parse(s.ID()); err != nil {
		t.Fatalf("session id is not a uuid: %q", s.ID())
	}
}

func TestPingAutoReply(t *testing.T) {
	testlog.Start(t)
	s, pipe := newPipeSession(t, transport.FramingMessage, true)

	pipe.Deliver("PING :server1\r\n")
	got, ok := pipe.NextSent(waitFor)
	if !ok {
		t.Fatalf("no keepalive reply")
	}
	if got != "PONG server1\r\n" {
		t.Fatalf("unexpected reply %q", got)
	}

	pipe.Deliver("PRIVMSG #c :after\r\n")
	msg := mustRead(t, s)
	if msg.Command != protocol.CmdPrivmsg || msg.Trailing() != "after" {
		t.Fatalf("PING must not be queued, got %q", msg.String())
	}
}

func TestPingQueuedWhenHandlingDisabled(t *testing.T) {
	testlog.Start(t)
	s, pipe := newPipeSession(t, transport.FramingMessage, false)

	pipe.Deliver("PING :server1\r\n")
	msg := mustRead(t, s)
	if !msg.Equal(protocol.NewMessage(protocol.CmdPing, "server1")) {
		t.Fatalf("unexpected message %q", msg.String())
	}
	if sent := pipe.Sent(); len(sent) != 0 {
		t.Fatalf("unexpected outbound writes: %q", sent)
	}
}

func TestPingMatchIsCaseSensitive(t *testing.T) {
	testlog.Start(t)
	s, pipe := newPipeSession(t, transport.FramingMessage, true)

	pipe.Deliver("ping :server1\r\n")
	msg := mustRead(t, s)
	if msg.Command != "ping" || msg.Param(0) != "server1" {
		t.Fatalf("lowercase ping must be queued, got %q", msg.String())
	}
	if sent := pipe.Sent(); len(sent) != 0 {
		t.Fatalf("lowercase ping must not be answered: %q", sent)
	}
}

func TestKeepaliveFailureKeepsPumpRunning(t *testing.T) {
	testlog.Start(t)
	s, pipe := newPipeSession(t, transport.FramingMessage, true)

	pipe.FailSends(errors.New("write refused"))
	pipe.Deliver("PING :x\r\n")
	pipe.Deliver("NOTICE * :still here\r\n")
	msg := mustRead(t, s)
	if msg.Command != protocol.CmdNotice {
		t.Fatalf("unexpected message %q", msg.String())
	}
	if s.State() != StateOpen {
		t.Fatalf("keepalive failure must not end the session, state=%s", s.State())
	}
}

func TestMalformedLineDropped(t *testing.T) {
	testlog.Start(t)
	s, pipe := newPipeSession(t, transport.FramingMessage, true)

	pipe.Deliver("@ BAD\r\n:nick! X\r\nPRIVMSG #c :ok\r\n")
	msg := mustRead(t, s)
	if msg.Trailing() != "ok" {
		t.Fatalf("unexpected message %q", msg.String())
	}
	expectEmpty(t, s)
	if s.State() != StateOpen {
		t.Fatalf("malformed input must not end the session, state=%s", s.State())
	}
}

func TestMessageFramedUnitWithoutCRLF(t *testing.T) {
	testlog.Start(t)
	s, pipe := newPipeSession(t, transport.FramingMessage, true)

	pipe.Deliver("@display-name=Ann PRIVMSG #foo :hello there")
	msg := mustRead(t, s)
	if name, _ := msg.Tags.Value(protocol.TagDisplayName); name != "Ann" || msg.Trailing() != "hello there" {
		t.Fatalf("unexpected message %q", msg.String())
	}
}

func TestStreamReassembly(t *testing.T) {
	testlog.Start(t)
	s, pipe := newPipeSession(t, transport.FramingStream, false)

	pipe.Deliver("PRIVMSG #c :hel")
	pipe.Deliver("lo\r\nPI")
	pipe.Deliver("NG :x\r")
	pipe.Deliver("\n")

	first := mustRead(t, s)
	if first.Trailing() != "hello" {
		t.Fatalf("unexpected first message %q", first.String())
	}
	second := mustRead(t, s)
	if second.Command != protocol.CmdPing || second.Param(0) != "x" {
		t.Fatalf("unexpected second message %q", second.String())
	}
	expectEmpty(t, s)
}

func TestStreamOversizedFragmentDropped(t *testing.T) {
	testlog.Start(t)
	pipe := transporttest.NewPipe(transport.FramingStream)
	cfg := DefaultConfig()
	cfg.MaxLineBytes = 16
	s := New(pipe, cfg)
	defer s.Close()

	pipe.Deliver(strings.Repeat("a", 12))
	pipe.Deliver(strings.Repeat("b", 12))
	pipe.Deliver("still-junk\r\nPRIVMSG #c :ok\r\n")

	msg := mustRead(t, s)
	if msg.Trailing() != "ok" {
		t.Fatalf("unexpected message %q", msg.String())
	}
	expectEmpty(t, s)
}

func TestReadOrderPreserved(t *testing.T) {
	testlog.Start(t)
	s, pipe := newPipeSession(t, transport.FramingStream, true)

	var batch strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&batch, "PRIVMSG #c :%d\r\n", i)
	}
	text := batch.String()
	pipe.Deliver(text[:333])
	pipe.Deliver(text[333:])

	for i := 0; i < 50; i++ {
		msg := mustRead(t, s)
		if msg.Trailing() != fmt.Sprint(i) {
			t.Fatalf("message %d out of order: %q", i, msg.String())
		}
	}
}

func TestSendEncodes(t *testing.T) {
	testlog.Start(t)
	s, pipe := newPipeSession(t, transport.FramingMessage, true)

	if err := s.Send(context.Background(), protocol.PrivateMessage("foo", "hello there")); err != nil {
		t.Fatalf("send: %v", err)
	}
	got, ok := pipe.NextSent(waitFor)
	if !ok || got != "PRIVMSG #foo :hello there\r\n" {
		t.Fatalf("unexpected write %q", got)
	}
}

func TestSendRejectsContractViolation(t *testing.T) {
	testlog.Start(t)
	s, pipe := newPipeSession(t, transport.FramingMessage, true)

	err := s.Send(context.Background(), protocol.Join(nil, nil))
	if !errors.Is(err, protocol.ErrContractViolation) {
		t.Fatalf("expected contract violation, got %v", err)
	}
	err = s.Send(context.Background(), protocol.NewMessage("CMD", "two words", "last"))
	if !errors.Is(err, protocol.ErrContractViolation) {
		t.Fatalf("expected contract violation, got %v", err)
	}
	if sent := pipe.Sent(); len(sent) != 0 {
		t.Fatalf("invalid messages reached the transport: %q", sent)
	}
}

func TestReadTimeoutAndContext(t *testing.T) {
	testlog.Start(t)
	s, pipe := newPipeSession(t, transport.FramingMessage, true)

	start := time.Now()
	if _, err := s.ReadTimeout(50 * time.Millisecond); !errors.Is(err, ErrReadTimeout) {
		t.Fatalf("expected ErrReadTimeout, got %v", err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Fatalf("read timeout returned early")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.ReadContext(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	pipe.Deliver("PRIVMSG #c :late\r\n")
	if msg := s.Read(); msg.Trailing() != "late" {
		t.Fatalf("unexpected message %q", msg.String())
	}
}

func TestTransportFaultStopsDelivery(t *testing.T) {
	testlog.Start(t)
	s, pipe := newPipeSession(t, transport.FramingMessage, true)

	pipe.Deliver("PRIVMSG #c :queued\r\n")
	pipe.Fail(io.ErrUnexpectedEOF)

	select {
	case <-s.Done():
	case <-time.After(waitFor):
		t.Fatalf("pump did not stop after transport fault")
	}
	if !errors.Is(s.Err(), io.ErrUnexpectedEOF) {
		t.Fatalf("expected fault error, got %v", s.Err())
	}
	if s.State() != StateClosing {
		t.Fatalf("expected closing after fault, got %s", s.State())
	}
	if msg := mustRead(t, s); msg.Trailing() != "queued" {
		t.Fatalf("queued message lost: %q", msg.String())
	}
	expectEmpty(t, s)
	if err := s.Send(context.Background(), protocol.Nick("me")); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if s.State() != StateClosed {
		t.Fatalf("expected closed, got %s", s.State())
	}
	if pipe.Closes() != 1 {
		t.Fatalf("transport closed %d times", pipe.Closes())
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	testlog.Start(t)
	pipe := transporttest.NewPipe(transport.FramingMessage)
	s := New(pipe, DefaultConfig())

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	select {
	case <-s.Done():
	default:
		t.Fatalf("pump still running after close")
	}
	if s.State() != StateClosed {
		t.Fatalf("expected closed, got %s", s.State())
	}
	if s.Err() != nil {
		t.Fatalf("normal close must not report a fault: %v", s.Err())
	}
	if pipe.Closes() != 1 {
		t.Fatalf("transport closed %d times", pipe.Closes())
	}
	if err := s.Send(context.Background(), protocol.Nick("me")); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestDialConnectFailure(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	cfg.Dialer = transport.DialerFunc(func(context.Context, string) (transport.Transport, error) {
		return nil, errors.New("connection refused")
	})
	s, err := Dial(context.Background(), "irc://irc.invalid", cfg)
	if s != nil {
		t.Fatalf("no session may be returned on connect failure")
	}
	if !errors.Is(err, ErrConnectFailed) {
		t.Fatalf("expected ErrConnectFailed, got %v", err)
	}
}

func TestDialUsesConfiguredDialer(t *testing.T) {
	testlog.Start(t)
	pipe := transporttest.NewPipe(transport.FramingMessage)
	cfg := DefaultConfig()
	cfg.Dialer = pipe.Dialer()
	s, err := Dial(context.Background(), "wss://irc-ws.chat.twitch.tv:443", cfg)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer s.Close()
	if s.State() != StateOpen {
		t.Fatalf("expected open, got %s", s.State())
	}
}

func TestSessionOverTCP(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	serverErr := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			serverErr <- err
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		if _, err := conn.Write([]byte("PING :tmi.twitch.tv\r\n:nick!nick@host PRIVMSG #c")); err != nil {
			serverErr <- err
			return
		}
		pong, err := r.ReadString('\n')
		if err != nil {
			serverErr <- err
			return
		}
		if pong != "PONG tmi.twitch.tv\r\n" {
			serverErr <- fmt.Errorf("unexpected pong %q", pong)
			return
		}
		if _, err := conn.Write([]byte(" :split line\r\n")); err != nil {
			serverErr <- err
			return
		}
		serverErr <- nil
		_, _ = r.ReadString('\n')
	}()

	s, err := Dial(context.Background(), "irc://"+ln.Addr().String(), DefaultConfig())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer s.Close()

	msg := mustRead(t, s)
	if msg.Prefix == nil || msg.Prefix.Main != "nick" || msg.Trailing() != "split line" {
		t.Fatalf("unexpected message %q", msg.String())
	}
	if err := <-serverErr; err != nil {
		t.Fatalf("server: %v", err)
	}
}
