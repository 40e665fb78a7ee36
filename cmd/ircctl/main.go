package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/ircctl/internal/config"
	"github.com/danmuck/ircctl/internal/logging"
	"github.com/danmuck/ircctl/internal/observability"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "ircctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("ircctl", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config.toml (defaults to anonymous Twitch chat)")
	envPath := fs.String("env", ".env", "path to a .env file with IRCCTL_NICK, IRCCTL_PASSWORD and IRCCTL_ADMIN_TOKEN")
	addr := fs.String("addr", "", "server address override (irc://, ircs://, ws://, wss:// or host:port)")
	var channels channelFlags
	fs.Var(&channels, "channel", "channel to join; repeatable, overrides config channels")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rc, err := loadRuntimeConfig(*configPath)
	if err != nil {
		return err
	}
	if len(channels) > 0 {
		rc.Client.Channels = channels
	}
	if v := strings.TrimSpace(*addr); v != "" {
		rc.Client.Addr = v
	}
	if err := config.ValidateClientConfig(rc.Client); err != nil {
		return err
	}

	logging.ConfigureRuntime()
	if level, ok := logging.ParseLevel(rc.LogLevel); ok && os.Getenv(logging.EnvLogLevel) == "" {
		logging.SetLevel(level)
	}

	creds, err := loadCredentials(*envPath)
	if err != nil {
		return err
	}

	client, err := newChatClient(rc.Client, creds, os.Stdout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if rc.Client.AdminAddr != "" {
		go func() {
			if err := observability.ServeAdmin(ctx, rc.Client.AdminAddr, client.Ready, creds.adminGuard()); err != nil {
				client.logger.Error().Err(err).Msg("ircctl admin server stopped")
			}
		}()
	}
	return client.Run(ctx)
}
