package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/ircctl/internal/auth"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// credentials are kept out of config.toml and read from the environment,
// optionally seeded from a .env file.
type credentials struct {
	Nick       string `env:"IRCCTL_NICK"`
	Password   string `env:"IRCCTL_PASSWORD"`
	AdminToken string `env:"IRCCTL_ADMIN_TOKEN"`
}

// loadCredentials reads envPath when it exists and decodes the environment.
// Variables already set in the process win over the file.
func loadCredentials(envPath string) (credentials, error) {
	if envPath = strings.TrimSpace(envPath); envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return credentials{}, fmt.Errorf("load env file %s: %w", envPath, err)
		}
	}
	var creds credentials
	if err := envdecode.Decode(&creds); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return credentials{}, fmt.Errorf("decode credentials: %w", err)
	}
	creds.Nick = strings.TrimSpace(creds.Nick)
	creds.Password = strings.TrimSpace(creds.Password)
	creds.AdminToken = strings.TrimSpace(creds.AdminToken)
	return creds, nil
}

func (c credentials) apply(nick string) string {
	if c.Nick != "" {
		return c.Nick
	}
	return nick
}

// adminGuard returns the admin endpoint validator, or nil when no token is
// configured.
func (c credentials) adminGuard() auth.Validator {
	if c.AdminToken == "" {
		return nil
	}
	return auth.StaticToken{Token: c.AdminToken}
}
