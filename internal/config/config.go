package config

import (
	"fmt"
	"log/slog"
	"math"
	"net/mail"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for the Williamson County shelter on Petango
const (
	DefaultDetailBaseURL = "https://ws.petango.com/webservices/adoptablesearch/"
	DefaultShelterURL    = DefaultDetailBaseURL + "wsAdoptableAnimals2.aspx?species=Dog&sex=A&agegroup=All&location=&site=&onhold=A&orderby=ID&colnum=4&authkey=htr0d8cmdxn6kjq4i3brxlvgmx8e610khmut6wkjxayue3rdff&recAmount=&detailsInPopup=Yes&featuredPet=Include&stageID="
	DefaultSubject       = "Daily Adoptable Puppies Report"
	DefaultTimeout       = 60 * time.Second
	DefaultMaxAgeMonths  = 6
	DefaultDetailRate    = 2.0
)

// ConfigError reports missing or invalid configuration
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// Config holds everything one invocation of the notifier needs
type Config struct {
	EmailFrom     string
	EmailTo       []string
	Subject       string
	Timeout       time.Duration
	MemoryLimitMB int

	ShelterURL    string
	DetailBaseURL string
	MaxAgeMonths  int

	FetchDetails        bool
	DetailRatePerSecond float64

	SnapshotBucket  string
	SiteProfilePath string
	LogLevel        slog.Level
}

// LookupFunc matches os.LookupEnv so tests can supply their own environment
type LookupFunc func(key string) (string, bool)

// FromEnv builds a Config from environment variables and validates it
func FromEnv(lookup LookupFunc) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key, fallback string) string {
		if val, ok := lookup(key); ok && strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
		return fallback
	}

	cfg := &Config{
		EmailFrom:       get("EMAIL_FROM", ""),
		EmailTo:         SplitRecipients(get("EMAIL_TO", "")),
		Subject:         get("EMAIL_SUBJECT", DefaultSubject),
		ShelterURL:      get("SHELTER_URL", DefaultShelterURL),
		DetailBaseURL:   get("DETAIL_BASE_URL", DefaultDetailBaseURL),
		SnapshotBucket:  get("SNAPSHOT_BUCKET", ""),
		SiteProfilePath: get("SITE_PROFILE", ""),
	}

	var err error
	if cfg.Timeout, err = secondsVar("TIMEOUT_SECONDS", get("TIMEOUT_SECONDS", ""), DefaultTimeout); err != nil {
		return nil, err
	}
	if cfg.MemoryLimitMB, err = intVar("MEMORY_LIMIT", get("MEMORY_LIMIT", ""), 0, 0); err != nil {
		return nil, err
	}
	if cfg.MaxAgeMonths, err = intVar("MAX_AGE_MONTHS", get("MAX_AGE_MONTHS", ""), DefaultMaxAgeMonths, 0); err != nil {
		return nil, err
	}
	if cfg.FetchDetails, err = boolVar("FETCH_DETAILS", get("FETCH_DETAILS", ""), true); err != nil {
		return nil, err
	}
	if cfg.DetailRatePerSecond, err = floatVar("DETAIL_RATE_PER_SECOND", get("DETAIL_RATE_PER_SECOND", ""), DefaultDetailRate); err != nil {
		return nil, err
	}
	cfg.LogLevel = ParseLogLevel(get("LOG_LEVEL", "info"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can drive a full invocation
func (c *Config) Validate() error {
	if c.EmailFrom == "" {
		return &ConfigError{Field: "EMAIL_FROM", Reason: "sender address is required"}
	}
	if _, err := mail.ParseAddress(c.EmailFrom); err != nil {
		return &ConfigError{Field: "EMAIL_FROM", Reason: fmt.Sprintf("%q is not a valid address", c.EmailFrom)}
	}

	if len(c.EmailTo) == 0 {
		return &ConfigError{Field: "EMAIL_TO", Reason: "at least one recipient address is required"}
	}
	for _, addr := range c.EmailTo {
		if _, err := mail.ParseAddress(addr); err != nil {
			return &ConfigError{Field: "EMAIL_TO", Reason: fmt.Sprintf("%q is not a valid address", addr)}
		}
	}

	if c.Timeout <= 0 {
		return &ConfigError{Field: "TIMEOUT_SECONDS", Reason: "must be positive"}
	}
	if c.MaxAgeMonths < 0 {
		return &ConfigError{Field: "MAX_AGE_MONTHS", Reason: "must not be negative"}
	}
	if !(c.DetailRatePerSecond > 0) || math.IsInf(c.DetailRatePerSecond, 0) {
		return &ConfigError{Field: "DETAIL_RATE_PER_SECOND", Reason: "must be a positive finite number"}
	}

	for field, raw := range map[string]string{"SHELTER_URL": c.ShelterURL, "DETAIL_BASE_URL": c.DetailBaseURL} {
		u, err := url.ParseRequestURI(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return &ConfigError{Field: field, Reason: fmt.Sprintf("%q must be an absolute http(s) URL", raw)}
		}
	}

	if c.Subject == "" {
		c.Subject = DefaultSubject
	}
	return nil
}

// SplitRecipients splits a comma separated address list, dropping blanks and duplicates
func SplitRecipients(raw string) []string {
	var recipients []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		addr := strings.TrimSpace(part)
		key := strings.ToLower(addr)
		if addr == "" || seen[key] {
			continue
		}
		seen[key] = true
		recipients = append(recipients, addr)
	}
	return recipients
}

// ParseLogLevel maps debug|info|warn|error onto slog levels, defaulting to info
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// maxSeconds is the largest whole-second count a time.Duration can hold
const maxSeconds = math.MaxInt64 / int64(time.Second)

func secondsVar(field, raw string, fallback time.Duration) (time.Duration, error) {
	n, err := intVar(field, raw, int(fallback/time.Second), 1)
	if err != nil {
		return 0, err
	}
	if int64(n) > maxSeconds {
		return 0, &ConfigError{Field: field, Reason: fmt.Sprintf("must be at most %d", maxSeconds)}
	}
	return time.Duration(n) * time.Second, nil
}

func intVar(field, raw string, fallback, least int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ConfigError{Field: field, Reason: fmt.Sprintf("%q is not an integer", raw)}
	}
	if n < least {
		return 0, &ConfigError{Field: field, Reason: fmt.Sprintf("must be at least %d", least)}
	}
	return n, nil
}

func floatVar(field, raw string, fallback float64) (float64, error) {
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ConfigError{Field: field, Reason: fmt.Sprintf("%q is not a finite number", raw)}
	}
	return f, nil
}

func boolVar(field, raw string, fallback bool) (bool, error) {
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &ConfigError{Field: field, Reason: fmt.Sprintf("%q is not a boolean", raw)}
	}
	return b, nil
}
