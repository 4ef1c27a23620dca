package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"klipperwatch/internal/common/fsutil"
)

// Config holds runtime parameters for the service.
type Config struct {
	Addr                  string   `json:"addr" yaml:"addr" toml:"addr"`
	PrinterURL            string   `json:"printer_url" yaml:"printer_url" toml:"printer_url"`
	AccessClientID        string   `json:"access_client_id" yaml:"access_client_id" toml:"access_client_id"`
	AccessClientSecret    string   `json:"access_client_secret" yaml:"access_client_secret" toml:"access_client_secret"`
	RequestTimeoutSeconds int      `json:"request_timeout_seconds" yaml:"request_timeout_seconds" toml:"request_timeout_seconds"`
	InitialDelaySeconds   int      `json:"initial_delay_seconds" yaml:"initial_delay_seconds" toml:"initial_delay_seconds"`
	PollIntervalSeconds   int      `json:"poll_interval_seconds" yaml:"poll_interval_seconds" toml:"poll_interval_seconds"`
	WebhookURL            string   `json:"webhook_url" yaml:"webhook_url" toml:"webhook_url"`
	WebhookSecret         string   `json:"webhook_secret" yaml:"webhook_secret" toml:"webhook_secret"`
	LogLevel              string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat             string   `json:"log_format" yaml:"log_format" toml:"log_format"`
	CORSEnabled           bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins           []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:                  ":8080",
		PrinterURL:            "http://127.0.0.1:7125",
		RequestTimeoutSeconds: 10,
		InitialDelaySeconds:   5,
		PollIntervalSeconds:   60,
		LogLevel:              "info",
		LogFormat:             "json",
	}
}

// RequestTimeout is RequestTimeoutSeconds as a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// InitialDelay is InitialDelaySeconds as a duration.
func (c Config) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelaySeconds) * time.Second
}

// PollInterval is PollIntervalSeconds as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Load reads a configuration file based on its extension on top of Default.
// Supports: .yaml/.yml, .json, .toml. A leading ~ is expanded.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", filepath.Base(p), err)
	}
	return cfg, nil
}

// SearchPaths are tried in order by Discover when no --config is given.
var SearchPaths = []string{
	"klipperwatch.yaml",
	"klipperwatch.toml",
	"klipperwatch.json",
	"~/.config/klipperwatch/config.yaml",
	"~/.config/klipperwatch/config.toml",
}

// Discover returns the first existing file in SearchPaths, or "" when there
// is none.
func Discover() string {
	return fsutil.FirstExisting(SearchPaths...)
}

// Environment variables read by ApplyEnv. The unprefixed printer variables
// are the names existing bot deployments already use.
const (
	EnvPrefix         = "KLIPPERWATCH_"
	EnvPrinterURL     = "PRINTER_URL"
	EnvAccessClientID = "CLOUDFLARE_AC_ID"
	EnvAccessSecret   = "CLOUDFLARE_AC_SECRET"
)

// ApplyEnv overlays environment variables onto cfg. lookup is normally
// os.LookupEnv. Prefixed variables win over the legacy names.
func ApplyEnv(cfg Config, lookup func(string) (string, bool)) (Config, error) {
	str := func(dst *string, names ...string) {
		for _, n := range names {
			if v, ok := lookup(n); ok && v != "" {
				*dst = v
			}
		}
	}
	var errs []error
	num := func(dst *int, name string) {
		if v, ok := lookup(name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}

	str(&cfg.Addr, EnvPrefix+"ADDR")
	str(&cfg.PrinterURL, EnvPrinterURL, EnvPrefix+"PRINTER_URL")
	str(&cfg.AccessClientID, EnvAccessClientID, EnvPrefix+"ACCESS_CLIENT_ID")
	str(&cfg.AccessClientSecret, EnvAccessSecret, EnvPrefix+"ACCESS_CLIENT_SECRET")
	num(&cfg.RequestTimeoutSeconds, EnvPrefix+"REQUEST_TIMEOUT_SECONDS")
	num(&cfg.InitialDelaySeconds, EnvPrefix+"INITIAL_DELAY_SECONDS")
	num(&cfg.PollIntervalSeconds, EnvPrefix+"POLL_INTERVAL_SECONDS")
	str(&cfg.WebhookURL, EnvPrefix+"WEBHOOK_URL")
	str(&cfg.WebhookSecret, EnvPrefix+"WEBHOOK_SECRET")
	str(&cfg.LogLevel, EnvPrefix+"LOG_LEVEL")
	str(&cfg.LogFormat, EnvPrefix+"LOG_FORMAT")
	if v, ok := lookup(EnvPrefix + "CORS_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sCORS_ENABLED: %w", EnvPrefix, err))
		} else {
			cfg.CORSEnabled = b
		}
	}
	if v, ok := lookup(EnvPrefix + "CORS_ORIGINS"); ok && v != "" {
		cfg.CORSOrigins = SplitCSV(v)
	}
	return cfg, errors.Join(errs...)
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if strings.TrimSpace(c.PrinterURL) == "" {
		errs = append(errs, errors.New("printer_url is required"))
	}
	if c.RequestTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout_seconds must be positive, got %d", c.RequestTimeoutSeconds))
	}
	if c.InitialDelaySeconds <= 0 {
		errs = append(errs, fmt.Errorf("initial_delay_seconds must be positive, got %d", c.InitialDelaySeconds))
	}
	if c.PollIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval_seconds must be positive, got %d", c.PollIntervalSeconds))
	}
	if (c.AccessClientID == "") != (c.AccessClientSecret == "") {
		errs = append(errs, errors.New("access_client_id and access_client_secret must be set together"))
	}
	if c.WebhookURL != "" {
		if u, err := url.Parse(c.WebhookURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("webhook_url %q is not an absolute URL", c.WebhookURL))
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q: want debug, info, warn or error", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log_format %q: want json or console", c.LogFormat))
	}
	return errors.Join(errs...)
}

// SplitCSV splits a comma separated list, trimming blanks and dropping empty
// items.
func SplitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
