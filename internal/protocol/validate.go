package protocol

import "strings"

// minParams lists commands whose constructors require arguments.
var minParams = map[string]int{
	CmdPass:    1,
	CmdNick:    1,
	CmdJoin:    1,
	CmdPart:    1,
	CmdPrivmsg: 2,
	CmdCap:     1,
}

// Validate checks that m can be encoded without producing a corrupt or
// ambiguous wire line. Errors wrap ErrContractViolation.
func (m Message) Validate() error {
	if !validCommand(m.Command) {
		return violation("invalid command %q", m.Command)
	}
	if n, ok := minParams[strings.ToUpper(m.Command)]; ok && len(m.Params) < n {
		return violation("%s requires at least %d params, got %d", m.Command, n, len(m.Params))
	}
	for _, tag := range m.Tags.All() {
		if !validTagKey(tag.Key) {
			return violation("invalid tag key %q", tag.Key)
		}
		if !tag.Value.HasValue && tag.Value.Value != "" {
			return violation("flag tag %q carries a value", tag.Key)
		}
		if strings.IndexByte(tag.Value.Value, 0) >= 0 {
			return violation("tag %q value contains NUL", tag.Key)
		}
	}
	if m.Prefix != nil {
		if err := m.Prefix.validate(); err != nil {
			return err
		}
	}
	last := len(m.Params) - 1
	for i, param := range m.Params {
		if strings.ContainsAny(param, "\r\n\x00") {
			return violation("param %d contains a line terminator", i)
		}
		if i == last {
			continue
		}
		switch {
		case param == "":
			return violation("param %d is empty but not last", i)
		case strings.IndexByte(param, ' ') >= 0:
			return violation("param %d contains a space but is not last", i)
		case param[0] == ':':
			return violation("param %d starts with ':' but is not last", i)
		}
	}
	return nil
}

func (p Prefix) validate() error {
	if strings.ContainsAny(p.Main, " !@\r\n\x00") {
		return violation("invalid prefix main %q", p.Main)
	}
	if strings.ContainsAny(p.User, " @\r\n\x00") {
		return violation("invalid prefix user %q", p.User)
	}
	if strings.ContainsAny(p.Host, " \r\n\x00") {
		return violation("invalid prefix host %q", p.Host)
	}
	return nil
}

func validCommand(command string) bool {
	if command == "" {
		return false
	}
	if isDigit(command[0]) {
		return len(command) == 3 && isDigit(command[1]) && isDigit(command[2])
	}
	for i := 0; i < len(command); i++ {
		if !isAlpha(command[i]) {
			return false
		}
	}
	return true
}

func validTagKey(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		if !isTagKeyByte(key[i]) {
			return false
		}
	}
	return true
}
