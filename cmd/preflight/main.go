// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/pingboard/internal/config"
)

func main() {
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load()
	if err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintln(os.Stderr, "✖", e)
		}
		os.Exit(1)
	}

	for name, v := range map[string]string{
		"ADMIN_API_KEYS":  os.Getenv("ADMIN_API_KEYS"),
		"PUBLIC_API_KEYS": os.Getenv("PUBLIC_API_KEYS"),
	} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}
	if len(cfg.PublicAPIKeys) == 0 {
		warn("PUBLIC_API_KEYS is empty; read routes accept admin keys only.")
	}

	ok("API_ADDR=" + cfg.Addr)

	switch {
	case cfg.DirectoryFile != "":
		ok("endpoints from file " + cfg.DirectoryFile)
	case cfg.DirectoryURL != "":
		ok("endpoints from " + cfg.DirectoryURL)
	default:
		ok("endpoints from the Steam relay directory")
	}

	if cfg.ICMPEnabled {
		if _, err := exec.LookPath("ping"); err != nil {
			warn("ICMP_ENABLED but no ping binary on PATH; TCP failures will not fall back.")
		} else {
			ok("ping available for ICMP fallback")
		}
	}

	if cfg.SweepInterval == 0 {
		warn("SWEEP_INTERVAL_MS is 0; sweeps only run on request.")
	} else {
		ok("background sweep every " + cfg.SweepInterval.String())
	}

	if cfg.SlackWebhookURL == "" {
		warn("SLACK_WEBHOOK_URL empty; reachability alerts go to the log only.")
	} else {
		ok("Slack alerts enabled")
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		warn("ALLOWED_ORIGINS is '*'; any site may call the API from a browser.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	ok("preflight passed")
}
