package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "client", "twitch":
		return twitchTemplate, nil
	case "irc":
		return ircTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const twitchTemplate = `addr = "wss://irc-ws.chat.twitch.tv:443"
nick = "justinfan12345"
channels = ["twitch"]
capabilities = ["twitch.tv/tags", "twitch.tv/commands"]
handle_ping = true
max_reconnect_attempts = 0
admin_addr = "127.0.0.1:9464"

[session]
connect_timeout = "10s"
write_timeout = "10s"
max_line_bytes = 8703
backoff_initial = "500ms"
backoff_max = "30s"
backoff_multiplier = 2.0
backoff_jitter = true

[tls]
enabled = false
insecure_skip_verify = false
server_name = ""
ca_file = ""
cert_file = ""
key_file = ""
`

const ircTemplate = `addr = "ircs://irc.libera.chat:6697"
nick = "ircctl"
channels = ["#ircctl"]
capabilities = ["message-tags"]
handle_ping = true
max_reconnect_attempts = 5
admin_addr = ""

[session]
connect_timeout = "15s"
write_timeout = "10s"

[tls]
enabled = true
`
