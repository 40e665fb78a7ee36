package protocol

import "strings"

const (
	CmdPass    = "PASS"
	CmdNick    = "NICK"
	CmdJoin    = "JOIN"
	CmdPart    = "PART"
	CmdPrivmsg = "PRIVMSG"
	CmdNotice  = "NOTICE"
	CmdPing    = "PING"
	CmdPong    = "PONG"
	CmdCap     = "CAP"

	CapReq = "REQ"
	CapAck = "ACK"
	CapNak = "NAK"
	CapEnd = "END"
)

const (
	RplWelcome     = "001"
	ErrNicknameUse = "433"
)

// TagDisplayName carries the sender's display name on PRIVMSG lines.
const TagDisplayName = "display-name"

// PrivateMessage addresses text to a channel, adding '#' when missing.
func PrivateMessage(channel, text string) Message {
	return NewMessage(CmdPrivmsg, channelName(channel), text)
}

func Pass(password string) Message {
	return NewMessage(CmdPass, password)
}

func Nick(nickname string) Message {
	return NewMessage(CmdNick, nickname)
}

// Join builds JOIN for one or more channels with optional keys. An empty
// channel list yields a message that fails Validate.
func Join(channels []string, keys []string) Message {
	if len(channels) == 0 {
		return Message{Command: CmdJoin}
	}
	params := []string{channelList(channels)}
	if len(keys) > 0 {
		params = append(params, strings.Join(keys, ","))
	}
	return Message{Command: CmdJoin, Params: params}
}

// Part builds PART. An empty channel list yields a message that fails
// Validate.
func Part(channels ...string) Message {
	if len(channels) == 0 {
		return Message{Command: CmdPart}
	}
	return NewMessage(CmdPart, channelList(channels))
}

func Pong(server string) Message {
	return NewMessage(CmdPong, server)
}

func PongServers(server1, server2 string) Message {
	return NewMessage(CmdPong, server1, server2)
}

// CapabilityRequest builds `CAP REQ :cap1 cap2`. An empty list yields a
// message that fails Validate.
func CapabilityRequest(capabilities ...string) Message {
	if len(capabilities) == 0 {
		return Message{Command: CmdCap}
	}
	return NewMessage(CmdCap, CapReq, strings.Join(capabilities, " "))
}

func CapabilityEnd() Message {
	return NewMessage(CmdCap, CapEnd)
}

func channelList(channels []string) string {
	names := make([]string, len(channels))
	for i, c := range channels {
		names[i] = channelName(c)
	}
	return strings.Join(names, ",")
}

func channelName(channel string) string {
	if strings.HasPrefix(channel, "#") {
		return channel
	}
	return "#" + channel
}
