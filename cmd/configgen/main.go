package main

import (
	"flag"
	"log"

	"github.com/danmuck/ircctl/internal/config"
)

const defaultPath = "cmd/ircctl/config.toml"

func main() {
	kind := flag.String("kind", "client", "config template kind: client|irc")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to "+defaultPath+")")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath
		}
		cfg, err := config.LoadClientConfig(path)
		if err != nil {
			log.Fatal(err)
		}
		if _, err := cfg.SessionConfig(); err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated ircctl config at %s (addr=%s channels=%d)", path, cfg.Addr, len(cfg.Channels))
		return
	}

	target := *output
	if target == "" {
		target = defaultPath
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}
