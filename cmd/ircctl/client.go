package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"github.com/danmuck/ircctl/internal/config"
	"github.com/danmuck/ircctl/internal/observability"
	"github.com/danmuck/ircctl/internal/protocol"
	"github.com/danmuck/ircctl/internal/protocol/session"
	"github.com/rs/zerolog"
)

var errSessionEnded = errors.New("ircctl: session ended")

// chatClient keeps one session alive and prints channel chat.
type chatClient struct {
	cfg     config.ClientConfig
	sessCfg session.Config
	creds   credentials
	out     io.Writer
	rng     *rand.Rand
	ready   atomic.Bool
	logger  zerolog.Logger
}

func newChatClient(cfg config.ClientConfig, creds credentials, out io.Writer) (*chatClient, error) {
	sessCfg, err := cfg.SessionConfig()
	if err != nil {
		return nil, err
	}
	return &chatClient{
		cfg:     cfg,
		sessCfg: sessCfg,
		creds:   creds,
		out:     out,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:  observability.Component("ircctl.client").With().Str("addr", cfg.Addr).Logger(),
	}, nil
}

// Ready reports whether a session is registered and reading.
func (c *chatClient) Ready() bool {
	return c.ready.Load()
}

// Run connects, reconnecting with backoff after failures, until ctx is done
// or the attempt budget is spent.
func (c *chatClient) Run(ctx context.Context) error {
	attempt := 0
	for {
		attempt++
		s, err := session.Dial(ctx, c.cfg.Addr, c.sessCfg)
		if err == nil {
			var registered bool
			registered, err = c.serve(ctx, s)
			_ = s.Close()
			if registered {
				attempt = 1
			}
		}
		if ctx.Err() != nil {
			c.logger.Info().Msg("ircctl.client.Run shutdown")
			return nil
		}
		c.logger.Warn().Int("attempt", attempt).Err(err).Msg("ircctl.client.Run session lost")
		if !c.shouldRetry(attempt) {
			return err
		}
		if err := c.sessCfg.Backoff.Wait(ctx, attempt, c.rng); err != nil {
			return nil
		}
	}
}

// serve registers on s and prints chat until the session ends. registered
// reports whether the handshake completed.
func (c *chatClient) serve(ctx context.Context, s *session.Session) (bool, error) {
	if err := c.handshake(ctx, s); err != nil {
		return false, err
	}
	c.ready.Store(true)
	defer c.ready.Store(false)
	c.logger.Info().Str("session_id", s.ID()).Strs("channels", c.cfg.Channels).Msg("ircctl.client.serve joined")

	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.Done():
			cancel()
		case <-readCtx.Done():
		}
	}()

	// ReadContext hands out queued messages before reporting cancellation,
	// so lines that arrived ahead of a fault are still printed.
	for {
		msg, err := s.ReadContext(readCtx)
		if err != nil {
			break
		}
		if line, ok := formatChat(msg); ok {
			fmt.Fprintln(c.out, line)
			continue
		}
		if note, ok := describeReply(msg); ok {
			c.logger.Info().Str("command", msg.Command).Str("reply", note).Msg("ircctl.client.serve server reply")
		}
	}
	if err := s.Err(); err != nil {
		return true, err
	}
	return true, errSessionEnded
}

// handshake sends CAP REQ, PASS, NICK and JOIN in that order.
func (c *chatClient) handshake(ctx context.Context, s *session.Session) error {
	var msgs []protocol.Message
	if len(c.cfg.Capabilities) > 0 {
		msgs = append(msgs, protocol.CapabilityRequest(c.cfg.Capabilities...))
	}
	if c.creds.Password != "" {
		msgs = append(msgs, protocol.Pass(c.creds.Password))
	}
	msgs = append(msgs, protocol.Nick(c.creds.apply(c.cfg.Nick)))
	if len(c.cfg.Channels) > 0 {
		msgs = append(msgs, protocol.Join(c.cfg.Channels, nil))
	}
	for _, msg := range msgs {
		if err := s.Send(ctx, msg); err != nil {
			return fmt.Errorf("handshake %s: %w", msg.Command, err)
		}
	}
	return nil
}

func (c *chatClient) shouldRetry(attempt int) bool {
	if c.cfg.MaxReconnectAttempts <= 0 {
		return true
	}
	return attempt < c.cfg.MaxReconnectAttempts
}

// describeReply summarises server replies to the handshake.
func describeReply(msg protocol.Message) (string, bool) {
	switch msg.Command {
	case protocol.CmdCap:
		switch msg.Param(1) {
		case protocol.CapAck:
			return "capabilities acknowledged: " + msg.Trailing(), true
		case protocol.CapNak:
			return "capabilities rejected: " + msg.Trailing(), true
		}
	case protocol.RplWelcome:
		return "registered as " + msg.Param(0), true
	case protocol.ErrNicknameUse:
		return "nickname in use: " + msg.Param(1), true
	}
	return "", false
}

// formatChat renders a PRIVMSG as "sender@channel: text". The sender is the
// display-name tag when present, otherwise the prefix nick.
func formatChat(msg protocol.Message) (string, bool) {
	if msg.Command != protocol.CmdPrivmsg || len(msg.Params) < 2 {
		return "", false
	}
	sender, _ := msg.Tags.Value(protocol.TagDisplayName)
	if sender == "" && msg.Prefix != nil {
		sender = msg.Prefix.Main
	}
	channel := strings.TrimPrefix(msg.Param(0), "#")
	return fmt.Sprintf("%s@%s: %s", sender, channel, msg.Trailing()), true
}
