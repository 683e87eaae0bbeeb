package config

import (
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"
	"time"
)

func envLookup(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		val, ok := env[key]
		return val, ok
	}
}

func validEnv() map[string]string {
	return map[string]string{
		"EMAIL_FROM": "shelter-bot@example.com",
		"EMAIL_TO":   "alice@example.com, bob@example.com",
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envLookup(validEnv()))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Timeout != 60*time.Second {
		t.Errorf("Expected default timeout 60s, got %v", cfg.Timeout)
	}
	if cfg.MaxAgeMonths != 6 {
		t.Errorf("Expected default max age 6, got %d", cfg.MaxAgeMonths)
	}
	if cfg.ShelterURL != DefaultShelterURL {
		t.Errorf("Expected default shelter URL, got %s", cfg.ShelterURL)
	}
	if cfg.Subject != DefaultSubject {
		t.Errorf("Expected default subject, got %s", cfg.Subject)
	}
	if !cfg.FetchDetails {
		t.Error("Detail fetching should default to enabled")
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("Expected info log level, got %v", cfg.LogLevel)
	}

	expected := []string{"alice@example.com", "bob@example.com"}
	if !reflect.DeepEqual(cfg.EmailTo, expected) {
		t.Errorf("Expected recipients %v, got %v", expected, cfg.EmailTo)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	env := validEnv()
	env["TIMEOUT_SECONDS"] = "30"
	env["MEMORY_LIMIT"] = "256"
	env["MAX_AGE_MONTHS"] = "4"
	env["FETCH_DETAILS"] = "false"
	env["DETAIL_RATE_PER_SECOND"] = "0.5"
	env["SHELTER_URL"] = "http://localhost:8080/list"
	env["SNAPSHOT_BUCKET"] = "puppy-snapshots"
	env["LOG_LEVEL"] = "debug"
	env["EMAIL_SUBJECT"] = "Puppies!"

	cfg, err := FromEnv(envLookup(env))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Timeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.Timeout)
	}
	if cfg.MemoryLimitMB != 256 {
		t.Errorf("Expected memory limit 256, got %d", cfg.MemoryLimitMB)
	}
	if cfg.MaxAgeMonths != 4 {
		t.Errorf("Expected max age 4, got %d", cfg.MaxAgeMonths)
	}
	if cfg.FetchDetails {
		t.Error("Expected detail fetching to be disabled")
	}
	if cfg.DetailRatePerSecond != 0.5 {
		t.Errorf("Expected detail rate 0.5, got %v", cfg.DetailRatePerSecond)
	}
	if cfg.ShelterURL != "http://localhost:8080/list" {
		t.Errorf("Unexpected shelter URL %s", cfg.ShelterURL)
	}
	if cfg.SnapshotBucket != "puppy-snapshots" {
		t.Errorf("Unexpected snapshot bucket %s", cfg.SnapshotBucket)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("Expected debug log level, got %v", cfg.LogLevel)
	}
	if cfg.Subject != "Puppies!" {
		t.Errorf("Unexpected subject %s", cfg.Subject)
	}
}

func TestFromEnv_ConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		field string
	}{
		{"missing sender", map[string]string{"EMAIL_TO": "a@example.com"}, "EMAIL_FROM"},
		{"invalid sender", map[string]string{"EMAIL_FROM": "not-an-address", "EMAIL_TO": "a@example.com"}, "EMAIL_FROM"},
		{"missing recipients", map[string]string{"EMAIL_FROM": "a@example.com", "EMAIL_TO": " , "}, "EMAIL_TO"},
		{"invalid recipient", map[string]string{"EMAIL_FROM": "a@example.com", "EMAIL_TO": "b@example.com,nope"}, "EMAIL_TO"},
		{"non-numeric timeout", map[string]string{"EMAIL_FROM": "a@example.com", "EMAIL_TO": "b@example.com", "TIMEOUT_SECONDS": "soon"}, "TIMEOUT_SECONDS"},
		{"zero timeout", map[string]string{"EMAIL_FROM": "a@example.com", "EMAIL_TO": "b@example.com", "TIMEOUT_SECONDS": "0"}, "TIMEOUT_SECONDS"},
		{"negative max age", map[string]string{"EMAIL_FROM": "a@example.com", "EMAIL_TO": "b@example.com", "MAX_AGE_MONTHS": "-1"}, "MAX_AGE_MONTHS"},
		{"bad boolean", map[string]string{"EMAIL_FROM": "a@example.com", "EMAIL_TO": "b@example.com", "FETCH_DETAILS": "maybe"}, "FETCH_DETAILS"},
		{"relative shelter url", map[string]string{"EMAIL_FROM": "a@example.com", "EMAIL_TO": "b@example.com", "SHELTER_URL": "/listing"}, "SHELTER_URL"},
		{"ftp shelter url", map[string]string{"EMAIL_FROM": "a@example.com", "EMAIL_TO": "b@example.com", "SHELTER_URL": "ftp://example.com/x"}, "SHELTER_URL"},
		{"zero detail rate", map[string]string{"EMAIL_FROM": "a@example.com", "EMAIL_TO": "b@example.com", "DETAIL_RATE_PER_SECOND": "0"}, "DETAIL_RATE_PER_SECOND"},
		{"NaN detail rate", map[string]string{"EMAIL_FROM": "a@example.com", "EMAIL_TO": "b@example.com", "DETAIL_RATE_PER_SECOND": "NaN"}, "DETAIL_RATE_PER_SECOND"},
		{"infinite detail rate", map[string]string{"EMAIL_FROM": "a@example.com", "EMAIL_TO": "b@example.com", "DETAIL_RATE_PER_SECOND": "+Inf"}, "DETAIL_RATE_PER_SECOND"},
		{"timeout overflows duration", map[string]string{"EMAIL_FROM": "a@example.com", "EMAIL_TO": "b@example.com", "TIMEOUT_SECONDS": "9300000000"}, "TIMEOUT_SECONDS"},
		{"timeout past int range", map[string]string{"EMAIL_FROM": "a@example.com", "EMAIL_TO": "b@example.com", "TIMEOUT_SECONDS": "99999999999999999999"}, "TIMEOUT_SECONDS"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := FromEnv(envLookup(test.env))
			if err == nil {
				t.Fatalf("Expected error, got config %+v", cfg)
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected *ConfigError, got %T: %v", err, err)
			}
			if cfgErr.Field != test.field {
				t.Errorf("Expected field %s, got %s (%v)", test.field, cfgErr.Field, err)
			}
		})
	}
}

func TestValidate_RejectsNaNRate(t *testing.T) {
	cfg := &Config{
		EmailFrom:           "a@example.com",
		EmailTo:             []string{"b@example.com"},
		Timeout:             DefaultTimeout,
		ShelterURL:          DefaultShelterURL,
		DetailBaseURL:       DefaultDetailBaseURL,
		MaxAgeMonths:        DefaultMaxAgeMonths,
		DetailRatePerSecond: math.NaN(),
	}

	var cfgErr *ConfigError
	if err := cfg.Validate(); !errors.As(err, &cfgErr) || cfgErr.Field != "DETAIL_RATE_PER_SECOND" {
		t.Errorf("Expected DETAIL_RATE_PER_SECOND error, got %v", err)
	}
}

func TestSecondsVar_LargestTimeout(t *testing.T) {
	d, err := secondsVar("TIMEOUT_SECONDS", strconv.FormatInt(maxSeconds, 10), DefaultTimeout)
	if err != nil {
		t.Fatalf("Unexpected error at the limit: %v", err)
	}
	if d <= 0 {
		t.Errorf("Expected a positive duration, got %v", d)
	}
}

func TestSplitRecipients(t *testing.T) {
	tests := []struct {
		raw      string
		expected []string
	}{
		{"a@example.com", []string{"a@example.com"}},
		{" a@example.com ,b@example.com", []string{"a@example.com", "b@example.com"}},
		{"a@example.com,,A@example.com,b@example.com", []string{"a@example.com", "b@example.com"}},
		{"", nil},
	}

	for _, test := range tests {
		if got := SplitRecipients(test.raw); !reflect.DeepEqual(got, test.expected) {
			t.Errorf("SplitRecipients(%q) = %v, expected %v", test.raw, got, test.expected)
		}
	}
}

func TestDefaultSiteProfile(t *testing.T) {
	profile := DefaultSiteProfile()

	if profile.Listing.Item != "li" {
		t.Errorf("Expected listing item selector 'li', got %q", profile.Listing.Item)
	}
	if profile.DefaultSpecies != "Dog" {
		t.Errorf("Expected default species Dog, got %q", profile.DefaultSpecies)
	}
	if profile.Detail.Container != "#DefaultLayoutDiv" {
		t.Errorf("Unexpected detail container %q", profile.Detail.Container)
	}
}

func TestLoadSiteProfile(t *testing.T) {
	if _, err := LoadSiteProfile(""); err != nil {
		t.Fatalf("Empty path should load embedded profile: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	custom := []byte("name: custom\nlisting:\n  item: div.pet\n  name: h3\n  age: .age\n")
	if err := os.WriteFile(path, custom, 0o644); err != nil {
		t.Fatalf("Failed to write profile: %v", err)
	}

	profile, err := LoadSiteProfile(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if profile.Listing.Item != "div.pet" || profile.Name != "custom" {
		t.Errorf("Unexpected profile: %+v", profile)
	}

	if _, err := LoadSiteProfile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing profile file")
	}
}

func TestParseSiteProfile_MissingSelectors(t *testing.T) {
	_, err := ParseSiteProfile([]byte("listing:\n  item: li\n"))
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *ConfigError for incomplete profile, got %v", err)
	}
}
