package session

import (
	"strings"

	"github.com/danmuck/ircctl/internal/observability"
	"github.com/danmuck/ircctl/internal/protocol"
	"github.com/danmuck/ircctl/internal/transport"
)

// pump is the only reader of the transport. It exits on cancellation,
// on close, or on the first transport error.
func (s *Session) pump() {
	defer close(s.done)
	defer observability.SessionClosed()

	for {
		text, err := s.transport.Receive(s.ctx)
		if s.ctx.Err() != nil {
			s.logger.Debug().Msg("session.Session.pump cancelled")
			return
		}
		if err != nil {
			s.fault(err)
			return
		}
		s.consume(text)
	}
}

// fault ends an open session after a transport error. An error observed
// while Close is in progress is part of normal shutdown.
func (s *Session) fault(err error) {
	if !s.state.CompareAndSwap(int32(StateOpen), int32(StateClosing)) {
		s.logger.Debug().Err(err).Msg("session.Session.pump stopped during close")
		return
	}
	s.errMu.Lock()
	s.err = err
	s.errMu.Unlock()
	observability.RecordTransportFault()
	s.logger.Warn().Err(err).Msg("session.Session.pump transport fault")
	s.closeTransport()
	s.cancel()
}

// consume splits a received unit into lines. Stream transports may split a
// line across units, so an unterminated tail is held for the next call.
func (s *Session) consume(text string) {
	data := text
	if s.discarding {
		i := strings.IndexByte(data, '\n')
		if i < 0 {
			return
		}
		s.discarding = false
		data = data[i+1:]
	}
	if s.partial != "" {
		data = s.partial + data
		s.partial = ""
	}

	for {
		i := strings.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		s.handleLine(data[:i])
		data = data[i+1:]
	}
	if data == "" {
		return
	}
	if s.framing != transport.FramingStream {
		s.handleLine(data)
		return
	}
	if len(data) > s.cfg.MaxLineBytes {
		observability.RecordDroppedFragment()
		s.logger.Warn().Int("bytes", len(data)).Int("limit", s.cfg.MaxLineBytes).
			Msg("session.Session.pump dropped oversized fragment")
		s.discarding = true
		return
	}
	s.partial = data
}

func (s *Session) handleLine(line string) {
	line = strings.TrimSuffix(line, "\r")
	observability.RecordLineReceived(s.framing.String())

	msg, err := protocol.Parse(line, false)
	if err != nil {
		observability.RecordParseFailure()
		s.logger.Warn().Err(err).Str("line", line).Msg("session.Session.pump dropped malformed line")
		return
	}

	if s.cfg.HandlePing && msg.Command == protocol.CmdPing {
		err := s.write(s.ctx, protocol.Pong(msg.Param(0)))
		observability.RecordKeepalive(err == nil)
		if err != nil {
			s.logger.Warn().Err(err).Msg("session.Session.pump keepalive reply failed")
		}
		return
	}

	s.inbox.Push(msg)
	observability.RecordQueued(msg.Command)
}
