package protocol

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ParseLine parses a complete wire line terminated by CRLF.
func ParseLine(raw string) (Message, error) {
	return Parse(raw, true)
}

// Parse decodes one IRC line. When crlfIncluded is true the line must end
// with exactly CRLF; otherwise end of input is accepted at any boundary
// after the command. On failure the zero Message and a *ParseError are
// returned.
func Parse(raw string, crlfIncluded bool) (Message, error) {
	s := &scanner{raw: raw, crlf: crlfIncluded}
	if s.eof() {
		return Message{}, s.fail("message is empty")
	}
	tags, err := s.tags()
	if err != nil {
		return Message{}, err
	}
	prefix, err := s.prefix()
	if err != nil {
		return Message{}, err
	}
	command, err := s.command()
	if err != nil {
		return Message{}, err
	}
	params, err := s.params()
	if err != nil {
		return Message{}, err
	}
	if err := s.terminator(); err != nil {
		return Message{}, err
	}
	return Message{Tags: tags, Prefix: prefix, Command: command, Params: params}, nil
}

type scanner struct {
	raw  string
	pos  int
	crlf bool
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.raw)
}

func (s *scanner) peek() byte {
	return s.raw[s.pos]
}

func (s *scanner) fail(reason string) error {
	return &ParseError{Reason: reason, Offset: s.pos}
}

func (s *scanner) endedWhile(part string) error {
	return s.fail("message ended while parsing " + part)
}

// skipSpaces consumes the separator run that follows part. Input may not
// end inside the separator.
func (s *scanner) skipSpaces(part string) error {
	for !s.eof() && s.peek() == ' ' {
		s.pos++
	}
	if s.eof() {
		return s.endedWhile(part)
	}
	return nil
}

// until consumes bytes up to the first stop byte. Input may not end first.
func (s *scanner) until(part, stops string) (string, error) {
	start := s.pos
	for strings.IndexByte(stops, s.peek()) < 0 {
		s.pos++
		if s.eof() {
			return "", s.endedWhile(part)
		}
	}
	return s.raw[start:s.pos], nil
}

func (s *scanner) tags() (Tags, error) {
	if s.peek() != '@' {
		return Tags{}, nil
	}
	m := orderedmap.New[string, TagValue]()
	for {
		s.pos++
		if s.eof() {
			return Tags{}, s.endedWhile("tags")
		}
		key, value, err := s.tag()
		if err != nil {
			return Tags{}, err
		}
		if _, seen := m.Get(key); !seen {
			m.Set(key, value)
		}
		if s.peek() != ';' {
			break
		}
	}
	if s.peek() != ' ' {
		return Tags{}, s.fail("tags do not terminate with space")
	}
	if err := s.skipSpaces("tags"); err != nil {
		return Tags{}, err
	}
	return Tags{m: m}, nil
}

func (s *scanner) tag() (string, TagValue, error) {
	start := s.pos
	for isTagKeyByte(s.peek()) {
		s.pos++
		if s.eof() {
			return "", TagValue{}, s.endedWhile("tag key")
		}
	}
	if s.pos == start {
		return "", TagValue{}, s.fail("empty key in tags")
	}
	key := s.raw[start:s.pos]
	if s.peek() != '=' {
		return key, TagValue{}, nil
	}
	s.pos++
	if s.eof() {
		return "", TagValue{}, s.endedWhile("tag value")
	}
	value, err := s.tagValue()
	if err != nil {
		return "", TagValue{}, err
	}
	return key, TagValue{Value: value, HasValue: true}, nil
}

func (s *scanner) tagValue() (string, error) {
	var b strings.Builder
	for !isTagValueStop(s.peek()) {
		c := s.peek()
		if c == '\\' {
			s.pos++
			if s.eof() {
				return "", s.endedWhile("tag value")
			}
			u, ok := unescapeByte(s.peek())
			if !ok {
				return "", s.fail("unknown escape sequence in tag value")
			}
			c = u
		}
		b.WriteByte(c)
		s.pos++
		if s.eof() {
			return "", s.endedWhile("tag value")
		}
	}
	return b.String(), nil
}

func (s *scanner) prefix() (*Prefix, error) {
	if s.peek() != ':' {
		return nil, nil
	}
	s.pos++
	if s.eof() {
		return nil, s.endedWhile("prefix")
	}
	main, err := s.until("prefix", " !@")
	if err != nil {
		return nil, err
	}
	p := &Prefix{Main: main}
	if s.peek() == '!' {
		s.pos++
		if s.eof() {
			return nil, s.endedWhile("prefix")
		}
		user, err := s.until("prefix", " @")
		if err != nil {
			return nil, err
		}
		if user == "" {
			return nil, s.fail("empty user part in prefix")
		}
		p.User = user
	}
	if s.peek() == '@' {
		s.pos++
		if s.eof() {
			return nil, s.endedWhile("prefix")
		}
		host, err := s.until("prefix", " ")
		if err != nil {
			return nil, err
		}
		if host == "" {
			return nil, s.fail("empty host part in prefix")
		}
		p.Host = host
	}
	if s.peek() != ' ' {
		return nil, s.fail("prefix does not terminate with space")
	}
	if err := s.skipSpaces("prefix"); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *scanner) command() (string, error) {
	start := s.pos
	switch c := s.peek(); {
	case isAlpha(c):
		for !s.eof() && isAlpha(s.peek()) {
			s.pos++
		}
		if s.eof() && s.crlf {
			return "", s.endedWhile("command")
		}
	case isDigit(c):
		for i := 0; i < 3; i++ {
			if s.eof() {
				return "", s.endedWhile("numeric command")
			}
			if !isDigit(s.peek()) {
				return "", s.fail("message command is in wrong format")
			}
			s.pos++
		}
		if s.eof() && s.crlf {
			return "", s.endedWhile("numeric command")
		}
	default:
		return "", s.fail("message command is in wrong format")
	}
	return s.raw[start:s.pos], nil
}

func (s *scanner) params() ([]string, error) {
	var params []string
	for !s.eof() && s.peek() == ' ' {
		for !s.eof() && s.peek() == ' ' {
			s.pos++
		}
		if s.eof() {
			if s.crlf {
				return nil, s.endedWhile("params")
			}
			break
		}
		if s.peek() == ':' {
			s.pos++
			trailing, err := s.param(true)
			if err != nil {
				return nil, err
			}
			return append(params, trailing), nil
		}
		middle, err := s.param(false)
		if err != nil {
			return nil, err
		}
		if middle == "" {
			return nil, s.fail("middle param is empty")
		}
		params = append(params, middle)
	}
	return params, nil
}

// param reads a parameter up to the line end. A middle parameter also
// stops at a space.
func (s *scanner) param(trailing bool) (string, error) {
	start := s.pos
	for !s.eof() {
		c := s.peek()
		if isLineEnd(c) || (!trailing && c == ' ') {
			break
		}
		s.pos++
	}
	if s.eof() && s.crlf {
		return "", s.endedWhile("params")
	}
	return s.raw[start:s.pos], nil
}

func (s *scanner) terminator() error {
	if s.crlf {
		if s.eof() {
			return s.fail("message ends before CRLF sequence")
		}
		if s.peek() != '\r' {
			return s.fail("expected CR character")
		}
		s.pos++
		if s.eof() {
			return s.fail("message ends before LF character")
		}
		if s.peek() != '\n' {
			return s.fail("expected LF character")
		}
		s.pos++
	}
	if !s.eof() {
		return s.fail("message does not end properly")
	}
	return nil
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isTagKeyByte(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '-' || c == '/' || c == '+'
}

func isTagValueStop(c byte) bool {
	return c == ';' || c == ' ' || isLineEnd(c)
}

func isLineEnd(c byte) bool {
	return c == '\r' || c == '\n' || c == 0
}
