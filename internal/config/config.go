package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr      string `yaml:"api_addr"` // API bind address, e.g. "127.0.0.1:8080" or ":8080" in containers
	LogDir    string `yaml:"log_dir"`
	LogLevel  string `yaml:"log_level"`
	LogStdout bool   `yaml:"log_stdout"`

	// Endpoint directory. A file takes precedence over the Steam URL.
	DirectoryURL     string        `yaml:"directory_url"`
	DirectoryFile    string        `yaml:"directory_file"`
	DirectoryRefresh time.Duration `yaml:"directory_refresh"`

	ProbePort     int           `yaml:"probe_port"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout"`
	ICMPEnabled   bool          `yaml:"icmp_enabled"`
	ICMPCount     int           `yaml:"icmp_count"`
	ICMPTimeout   time.Duration `yaml:"icmp_timeout"` // per echo reply
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"`

	Stagger             time.Duration `yaml:"stagger"` // 0 = launch every probe at once
	StaleAfter          time.Duration `yaml:"stale_after"`
	MaxConcurrentProbes int           `yaml:"max_concurrent_probes"` // 0 = unbounded
	SweepInterval       time.Duration `yaml:"sweep_interval"`        // 0 = no background sweeps

	AlertCooldown   time.Duration `yaml:"alert_cooldown"`
	AlertOnRecovery bool          `yaml:"alert_on_recovery"`
	SlackWebhookURL string        `yaml:"slack_webhook_url"`

	PublicAPIKeys  []string `yaml:"public_api_keys"`
	AdminAPIKeys   []string `yaml:"admin_api_keys"`
	PublicRPM      int      `yaml:"public_rpm"`
	PublicBurst    int      `yaml:"public_burst"`
	AdminRPM       int      `yaml:"admin_rpm"`
	AdminBurst     int      `yaml:"admin_burst"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func Default() Config {
	return Config{
		Addr:             "127.0.0.1:8080",
		LogDir:           "logs",
		LogLevel:         "info",
		DirectoryRefresh: 30 * time.Minute,
		ProbePort:        27017,
		ProbeTimeout:     2 * time.Second,
		ICMPEnabled:      true,
		ICMPCount:        4,
		ICMPTimeout:      5 * time.Second,
		RetryAttempts:    1,
		RetryBackoff:     300 * time.Millisecond,
		Stagger:          100 * time.Millisecond,
		StaleAfter:       10 * time.Minute,
		AlertCooldown:    10 * time.Minute,
		AlertOnRecovery:  true,
		PublicRPM:        60,
		PublicBurst:      20,
		AdminRPM:         30,
		AdminBurst:       10,
		AllowedOrigins:   []string{"*"},
	}
}

// Load applies CONFIG_FILE (if set) over the defaults, then the
// environment over that.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// FromEnv is Default with the environment applied.
func FromEnv() Config {
	cfg := Default()
	applyEnv(&cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	str(&cfg.Addr, "API_ADDR")
	str(&cfg.LogDir, "LOG_DIR")
	str(&cfg.LogLevel, "LOG_LEVEL")
	boolean(&cfg.LogStdout, "LOG_STDOUT")

	str(&cfg.DirectoryURL, "DIRECTORY_URL")
	str(&cfg.DirectoryFile, "DIRECTORY_FILE")
	millis(&cfg.DirectoryRefresh, "DIRECTORY_REFRESH_MS")

	integer(&cfg.ProbePort, "PROBE_PORT")
	millis(&cfg.ProbeTimeout, "PROBE_TIMEOUT_MS")
	boolean(&cfg.ICMPEnabled, "ICMP_ENABLED")
	integer(&cfg.ICMPCount, "ICMP_COUNT")
	millis(&cfg.ICMPTimeout, "ICMP_TIMEOUT_MS")
	integer(&cfg.RetryAttempts, "RETRY_ATTEMPTS")
	millis(&cfg.RetryBackoff, "RETRY_BACKOFF_MS")

	millis(&cfg.Stagger, "STAGGER_MS")
	millis(&cfg.StaleAfter, "STALE_AFTER_MS")
	integer(&cfg.MaxConcurrentProbes, "MAX_CONCURRENT_PROBES")
	millis(&cfg.SweepInterval, "SWEEP_INTERVAL_MS")

	millis(&cfg.AlertCooldown, "ALERT_COOLDOWN_MS")
	boolean(&cfg.AlertOnRecovery, "ALERT_ON_RECOVERY")
	str(&cfg.SlackWebhookURL, "SLACK_WEBHOOK_URL")

	list(&cfg.PublicAPIKeys, "PUBLIC_API_KEYS")
	list(&cfg.AdminAPIKeys, "ADMIN_API_KEYS")
	integer(&cfg.PublicRPM, "PUBLIC_RPM")
	integer(&cfg.PublicBurst, "PUBLIC_BURST")
	integer(&cfg.AdminRPM, "ADMIN_RPM")
	integer(&cfg.AdminBurst, "ADMIN_BURST")
	list(&cfg.AllowedOrigins, "ALLOWED_ORIGINS")
}

// Validate reports every bad setting at once.
func (c Config) Validate() error {
	var err error
	if c.Addr == "" {
		err = multierr.Append(err, errors.New("API_ADDR must not be empty"))
	}
	if c.ProbePort < 1 || c.ProbePort > 65535 {
		err = multierr.Append(err, fmt.Errorf("PROBE_PORT %d out of range", c.ProbePort))
	}
	if c.ProbeTimeout <= 0 {
		err = multierr.Append(err, errors.New("PROBE_TIMEOUT_MS must be positive"))
	}
	if c.ICMPEnabled && c.ICMPCount < 1 {
		err = multierr.Append(err, errors.New("ICMP_COUNT must be at least 1"))
	}
	if c.ICMPEnabled && c.ICMPTimeout <= 0 {
		err = multierr.Append(err, errors.New("ICMP_TIMEOUT_MS must be positive"))
	}
	if c.RetryAttempts < 1 {
		err = multierr.Append(err, errors.New("RETRY_ATTEMPTS must be at least 1"))
	}
	if c.Stagger < 0 || c.StaleAfter < 0 || c.SweepInterval < 0 || c.RetryBackoff < 0 {
		err = multierr.Append(err, errors.New("durations must not be negative"))
	}
	if c.MaxConcurrentProbes < 0 {
		err = multierr.Append(err, errors.New("MAX_CONCURRENT_PROBES must not be negative"))
	}
	if c.DirectoryURL != "" {
		if u, perr := url.Parse(c.DirectoryURL); perr != nil || u.Scheme == "" || u.Host == "" {
			err = multierr.Append(err, fmt.Errorf("DIRECTORY_URL %q is not an absolute URL", c.DirectoryURL))
		}
	}
	if c.DirectoryFile != "" {
		if _, serr := os.Stat(c.DirectoryFile); serr != nil {
			err = multierr.Append(err, fmt.Errorf("DIRECTORY_FILE: %w", serr))
		}
	}
	if len(c.AdminAPIKeys) == 0 {
		err = multierr.Append(err, errors.New("ADMIN_API_KEYS must contain at least one key"))
	}
	return err
}

// SweepStagger is the per-position delay to hand the engine, which reads
// a zero delay as "use the default" and a negative one as "none".
func (c Config) SweepStagger() time.Duration {
	if c.Stagger == 0 {
		return -1
	}
	return c.Stagger
}

func str(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func integer(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func millis(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			*dst = time.Duration(ms) * time.Millisecond
		}
	}
}

func boolean(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func list(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*dst = out
}
