// Package transporttest provides an in-memory transport for driving the
// session layer in tests.
package transporttest

import (
	"context"
	"sync"
	"time"

	"github.com/danmuck/ircctl/internal/transport"
)

type unit struct {
	text string
	err  error
}

// Pipe is a transport.Transport whose remote side is controlled by the
// test: Deliver feeds Receive, Sent and NextSent observe Send.
type Pipe struct {
	framing transport.Framing
	inbound chan unit
	sentCh  chan string

	mu      sync.Mutex
	sent    []string
	sendErr error
	closes  int

	closeOnce sync.Once
	closed    chan struct{}
}

func NewPipe(framing transport.Framing) *Pipe {
	return &Pipe{
		framing: framing,
		inbound: make(chan unit, 256),
		sentCh:  make(chan string, 256),
		closed:  make(chan struct{}),
	}
}

// Dialer returns a dialer that always hands out p.
func (p *Pipe) Dialer() transport.Dialer {
	return transport.DialerFunc(func(context.Context, string) (transport.Transport, error) {
		return p, nil
	})
}

func (p *Pipe) Framing() transport.Framing {
	return p.framing
}

func (p *Pipe) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-p.closed:
		return transport.ErrClosed
	default:
	}
	p.mu.Lock()
	if p.sendErr != nil {
		err := p.sendErr
		p.mu.Unlock()
		return err
	}
	p.sent = append(p.sent, text)
	p.mu.Unlock()
	select {
	case p.sentCh <- text:
	default:
	}
	return nil
}

func (p *Pipe) Receive(ctx context.Context) (string, error) {
	select {
	case u := <-p.inbound:
		return u.text, u.err
	case <-p.closed:
		return "", transport.ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *Pipe) Close() error {
	p.mu.Lock()
	p.closes++
	p.mu.Unlock()
	p.closeOnce.Do(func() {
		close(p.closed)
	})
	return nil
}

// Deliver queues text for the next Receive call.
func (p *Pipe) Deliver(text string) {
	p.inbound <- unit{text: text}
}

// Fail makes the next Receive call return err.
func (p *Pipe) Fail(err error) {
	p.inbound <- unit{err: err}
}

// FailSends makes every later Send return err. A nil err restores sends.
func (p *Pipe) FailSends(err error) {
	p.mu.Lock()
	p.sendErr = err
	p.mu.Unlock()
}

// Sent returns every text accepted by Send so far.
func (p *Pipe) Sent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sent...)
}

// NextSent waits for the next accepted Send.
func (p *Pipe) NextSent(timeout time.Duration) (string, bool) {
	select {
	case text := <-p.sentCh:
		return text, true
	case <-time.After(timeout):
		return "", false
	}
}

// Closes reports how many times Close was called.
func (p *Pipe) Closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}
