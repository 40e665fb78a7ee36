package protocol

import "strings"

// EscapeTagValue applies the tag escape table. The table maps ';' to `\:`
// and `\:` back to ';' as the wire convention requires.
func EscapeTagValue(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		switch c := value[i]; c {
		case ';':
			b.WriteString(`\:`)
		case ' ':
			b.WriteString(`\s`)
		case '\\':
			b.WriteString(`\\`)
		case '\r':
			b.WriteString(`\r`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// UnescapeTagValue is the exact inverse of EscapeTagValue. Unknown escapes
// and a trailing backslash are rejected.
func UnescapeTagValue(value string) (string, error) {
	if strings.IndexByte(value, '\\') < 0 {
		return value, nil
	}
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(value) {
			return "", &ParseError{Reason: "tag value ended while parsing escape", Offset: i}
		}
		u, ok := unescapeByte(value[i])
		if !ok {
			return "", &ParseError{Reason: "unknown escape sequence in tag value", Offset: i}
		}
		b.WriteByte(u)
	}
	return b.String(), nil
}

func unescapeByte(c byte) (byte, bool) {
	switch c {
	case ':':
		return ';', true
	case 's':
		return ' ', true
	case '\\':
		return '\\', true
	case 'r':
		return '\r', true
	case 'n':
		return '\n', true
	default:
		return 0, false
	}
}
