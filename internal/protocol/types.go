package protocol

import "strings"

// Prefix is the message origin. Empty User or Host means the part is absent.
type Prefix struct {
	Main string
	User string
	Host string
}

func (p Prefix) String() string {
	var b strings.Builder
	b.WriteString(p.Main)
	if p.User != "" {
		b.WriteByte('!')
		b.WriteString(p.User)
	}
	if p.Host != "" {
		b.WriteByte('@')
		b.WriteString(p.Host)
	}
	return b.String()
}

// Message is a single IRC protocol line. Values are treated as immutable
// once built; constructors copy their inputs.
type Message struct {
	Tags    Tags
	Prefix  *Prefix
	Command string
	Params  []string
}

// NewMessage builds a message with no tags and no prefix.
func NewMessage(command string, params ...string) Message {
	return Message{
		Command: command,
		Params:  append([]string(nil), params...),
	}
}

// Equal reports structural equality. Tag order is not significant.
func (m Message) Equal(other Message) bool {
	if m.Command != other.Command {
		return false
	}
	if !prefixEqual(m.Prefix, other.Prefix) {
		return false
	}
	if len(m.Params) != len(other.Params) {
		return false
	}
	for i := range m.Params {
		if m.Params[i] != other.Params[i] {
			return false
		}
	}
	return m.Tags.Equal(other.Tags)
}

// Param returns the i-th parameter or "" when out of range.
func (m Message) Param(i int) string {
	if i < 0 || i >= len(m.Params) {
		return ""
	}
	return m.Params[i]
}

// Trailing returns the last parameter or "" when there are none.
func (m Message) Trailing() string {
	return m.Param(len(m.Params) - 1)
}

func prefixEqual(a, b *Prefix) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
