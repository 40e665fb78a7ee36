package protocol

import (
	"io"
	"strings"
)

// String renders the wire form including the CRLF terminator. It never
// fails; use MarshalText or Encode to reject messages that break the
// wire contract.
func (m Message) String() string {
	var b strings.Builder
	m.writeWire(&b)
	return b.String()
}

// MarshalText validates m and returns its wire bytes.
func (m Message) MarshalText() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return []byte(m.String()), nil
}

// Encode validates msg and writes one wire line to w.
func Encode(w io.Writer, msg Message) error {
	text, err := msg.MarshalText()
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}

func (m Message) writeWire(b *strings.Builder) {
	if m.Tags.Len() > 0 {
		b.WriteByte('@')
		for i, tag := range m.Tags.All() {
			if i > 0 {
				b.WriteByte(';')
			}
			b.WriteString(tag.Key)
			if tag.Value.HasValue {
				b.WriteByte('=')
				b.WriteString(EscapeTagValue(tag.Value.Value))
			}
		}
		b.WriteByte(' ')
	}
	if m.Prefix != nil {
		b.WriteByte(':')
		b.WriteString(m.Prefix.String())
		b.WriteByte(' ')
	}
	b.WriteString(m.Command)
	for i, param := range m.Params {
		b.WriteByte(' ')
		if needsTrailing(param, i == len(m.Params)-1) {
			b.WriteByte(':')
		}
		b.WriteString(param)
	}
	b.WriteString("\r\n")
}

// needsTrailing reports whether param must use the `:` form. A space always
// forces it; the last param also needs it when it is empty or starts with ':'.
func needsTrailing(param string, last bool) bool {
	if strings.IndexByte(param, ' ') >= 0 {
		return true
	}
	return last && (param == "" || param[0] == ':')
}
