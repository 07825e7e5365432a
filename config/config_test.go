package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.HTTP.Timeout != 30*time.Second {
			t.Errorf("HTTP.Timeout = %v, want 30s", cfg.HTTP.Timeout)
		}
		if cfg.HTTP.UserAgent == "" {
			t.Error("HTTP.UserAgent is empty, want a default client identifier")
		}
		if cfg.HTTP.MaxRetries != 2 {
			t.Errorf("HTTP.MaxRetries = %d, want 2", cfg.HTTP.MaxRetries)
		}
		if cfg.RateLimit.Policy != "fixed-delay" {
			t.Errorf("RateLimit.Policy = %s, want fixed-delay", cfg.RateLimit.Policy)
		}
		if cfg.RateLimit.Delay != 2*time.Second {
			t.Errorf("RateLimit.Delay = %v, want 2s", cfg.RateLimit.Delay)
		}
		want := []string{"current", "industry", "1997"}
		if len(cfg.Harvest.Sources) != len(want) {
			t.Fatalf("Harvest.Sources = %v, want %v", cfg.Harvest.Sources, want)
		}
		for i := range want {
			if cfg.Harvest.Sources[i] != want[i] {
				t.Errorf("Harvest.Sources[%d] = %s, want %s", i, cfg.Harvest.Sources[i], want[i])
			}
		}
		if cfg.Harvest.Workers != 1 {
			t.Errorf("Harvest.Workers = %d, want 1", cfg.Harvest.Workers)
		}
		if cfg.Output.Basename != "fctMalaysia" {
			t.Errorf("Output.Basename = %s, want fctMalaysia", cfg.Output.Basename)
		}
		if cfg.Output.Database != "myfcd.db" {
			t.Errorf("Output.Database = %s, want myfcd.db", cfg.Output.Database)
		}
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.CacheMaxAge != 5*time.Minute {
			t.Errorf("Server.CacheMaxAge = %v, want 5m", cfg.Server.CacheMaxAge)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.Search.MinConfidence != 40 {
			t.Errorf("Search.MinConfidence = %v, want 40", cfg.Search.MinConfidence)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		t.Setenv("MYFCD_HARVEST_SOURCES", "1997,current")
		t.Setenv("MYFCD_HARVEST_WORKERS", "4")
		t.Setenv("MYFCD_RATELIMIT_POLICY", "token-bucket")
		t.Setenv("MYFCD_RATELIMIT_RPS", "2")
		t.Setenv("MYFCD_OUTPUT_FORMATS", "yaml")
		t.Setenv("MYFCD_SERVER_PORT", "9090")
		t.Setenv("MYFCD_CACHE_TTL", "1h")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if len(cfg.Harvest.Sources) != 2 || cfg.Harvest.Sources[0] != "1997" || cfg.Harvest.Sources[1] != "current" {
			t.Errorf("Harvest.Sources = %v, want [1997 current]", cfg.Harvest.Sources)
		}
		if cfg.Harvest.Workers != 4 {
			t.Errorf("Harvest.Workers = %d, want 4", cfg.Harvest.Workers)
		}
		if cfg.RateLimit.Policy != "token-bucket" {
			t.Errorf("RateLimit.Policy = %s, want token-bucket", cfg.RateLimit.Policy)
		}
		if cfg.RateLimit.RPS != 2 {
			t.Errorf("RateLimit.RPS = %v, want 2", cfg.RateLimit.RPS)
		}
		if len(cfg.Output.Formats) != 1 || cfg.Output.Formats[0] != "yaml" {
			t.Errorf("Output.Formats = %v, want [yaml]", cfg.Output.Formats)
		}
		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
	})

	t.Run("loads an explicit config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "harvester.yaml")
		content := `
http:
  user_agent: test-agent/1.0
  headers:
    Accept-Language: en
harvest:
  sources: [industry]
output:
  dir: out
  database: ""
`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.HTTP.UserAgent != "test-agent/1.0" {
			t.Errorf("HTTP.UserAgent = %s, want test-agent/1.0", cfg.HTTP.UserAgent)
		}
		if cfg.HTTP.Headers["accept-language"] != "en" {
			t.Errorf("HTTP.Headers = %v, want accept-language=en", cfg.HTTP.Headers)
		}
		if len(cfg.Harvest.Sources) != 1 || cfg.Harvest.Sources[0] != "industry" {
			t.Errorf("Harvest.Sources = %v, want [industry]", cfg.Harvest.Sources)
		}
		if cfg.Output.Dir != "out" {
			t.Errorf("Output.Dir = %s, want out", cfg.Output.Dir)
		}
		if cfg.Output.Database != "" {
			t.Errorf("Output.Database = %q, want empty", cfg.Output.Database)
		}
	})

	t.Run("fails when an explicit config file is missing", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("Load() error = nil, want error for missing file")
		}
	})

	t.Run("fails validation for unknown source", func(t *testing.T) {
		t.Setenv("MYFCD_HARVEST_SOURCES", "current,legacy")

		if _, err := Load(""); err == nil {
			t.Error("Load() error = nil, want error for unknown source")
		}
	})

	t.Run("fails validation for invalid rate policy", func(t *testing.T) {
		t.Setenv("MYFCD_RATELIMIT_POLICY", "sleepy")

		if _, err := Load(""); err == nil {
			t.Error("Load() error = nil, want error for invalid policy")
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			RateLimit: RateLimitConfig{Policy: "fixed-delay", Delay: time.Second},
			Harvest:   HarvestConfig{Sources: []string{"current"}, Workers: 1},
			Output:    OutputConfig{Formats: []string{"csv"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "no sources", mutate: func(c *Config) { c.Harvest.Sources = nil }, wantErr: true},
		{name: "unknown format", mutate: func(c *Config) { c.Output.Formats = []string{"xlsx"} }, wantErr: true},
		{name: "format is case insensitive", mutate: func(c *Config) { c.Output.Formats = []string{"JSON"} }, wantErr: false},
		{name: "too many workers", mutate: func(c *Config) { c.Harvest.Workers = 9 }, wantErr: true},
		{name: "zero workers", mutate: func(c *Config) { c.Harvest.Workers = 0 }, wantErr: true},
		{name: "token bucket without rate", mutate: func(c *Config) { c.RateLimit = RateLimitConfig{Policy: "token-bucket"} }, wantErr: true},
		{name: "negative delay", mutate: func(c *Config) { c.RateLimit.Delay = -time.Second }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.HTTP.MaxRetries = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList([]string{"current, industry", "", " 1997 "})
	want := []string{"current", "industry", "1997"}
	if len(got) != len(want) {
		t.Fatalf("splitList() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitList()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
