package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Harvest   HarvestConfig   `mapstructure:"harvest"`
	Output    OutputConfig    `mapstructure:"output"`
	Server    ServerConfig    `mapstructure:"server"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Search    SearchConfig    `mapstructure:"search"`
}

// HTTPConfig holds catalog client configuration
type HTTPConfig struct {
	UserAgent  string            `mapstructure:"user_agent"`
	Timeout    time.Duration     `mapstructure:"timeout"`
	MaxRetries int               `mapstructure:"max_retries"`
	Headers    map[string]string `mapstructure:"headers"`
	Debug      bool              `mapstructure:"debug"`
}

// RateLimitConfig holds the politeness policy applied to every catalog request
type RateLimitConfig struct {
	Policy string        `mapstructure:"policy"` // "fixed-delay", "token-bucket" or "none"
	Delay  time.Duration `mapstructure:"delay"`
	RPS    float64       `mapstructure:"rps"`
	Burst  int           `mapstructure:"burst"`
}

// HarvestConfig holds harvest pipeline configuration
type HarvestConfig struct {
	Sources []string `mapstructure:"sources"`
	Workers int      `mapstructure:"workers"`
}

// OutputConfig holds export and persistence configuration
type OutputConfig struct {
	Dir      string   `mapstructure:"dir"`
	Basename string   `mapstructure:"basename"`
	Formats  []string `mapstructure:"formats"`
	Database string   `mapstructure:"database"` // empty disables the run store
}

// ServerConfig holds read API configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	TableFile      string        `mapstructure:"table_file"` // JSON export served when no database is configured
	CacheMaxAge    time.Duration `mapstructure:"cache_max_age"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// SearchConfig holds food search configuration
type SearchConfig struct {
	MinConfidence float64 `mapstructure:"min_confidence"`
	Limit         int     `mapstructure:"limit"`
	Fuzzy         bool    `mapstructure:"fuzzy"`
}

// Known values accepted by validate
var (
	knownSources  = []string{"current", "industry", "1997"}
	knownFormats  = []string{"csv", "json", "yaml"}
	knownPolicies = []string{"fixed-delay", "token-bucket", "none"}
)

// Load loads configuration from a config file, environment variables and defaults.
// An empty path searches the default locations; a missing file there is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("harvester")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/myfcd-harvester/")
	}

	// Environment variable settings
	v.SetEnvPrefix("MYFCD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Env values for list settings arrive as one comma-separated string
	config.Harvest.Sources = splitList(config.Harvest.Sources)
	config.Output.Formats = splitList(config.Output.Formats)
	config.Server.AllowedOrigins = splitList(config.Server.AllowedOrigins)

	// Validate configuration
	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// HTTP defaults
	v.SetDefault("http.user_agent", "Mozilla/5.0 (compatible; myfcd-harvester/1.0)")
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.max_retries", 2)
	v.SetDefault("http.debug", false)
	v.SetDefault("http.headers", map[string]string{})

	// Rate limit defaults: one request every two seconds
	v.SetDefault("ratelimit.policy", "fixed-delay")
	v.SetDefault("ratelimit.delay", "2s")
	v.SetDefault("ratelimit.rps", 0.5)
	v.SetDefault("ratelimit.burst", 1)

	// Harvest defaults
	v.SetDefault("harvest.sources", knownSources)
	v.SetDefault("harvest.workers", 1)

	// Output defaults
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.basename", "fctMalaysia")
	v.SetDefault("output.formats", []string{"csv", "json"})
	v.SetDefault("output.database", "myfcd.db")

	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("server.table_file", "")
	v.SetDefault("server.cache_max_age", 5*time.Minute)

	// Cache defaults
	v.SetDefault("cache.ttl", "24h")

	// Search defaults
	v.SetDefault("search.min_confidence", 40.0)
	v.SetDefault("search.limit", 20)
	v.SetDefault("search.fuzzy", true)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if len(config.Harvest.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	for _, s := range config.Harvest.Sources {
		if !contains(knownSources, s) {
			return fmt.Errorf("unknown source %q (want one of %s)", s, strings.Join(knownSources, ", "))
		}
	}

	for _, f := range config.Output.Formats {
		if !contains(knownFormats, strings.ToLower(f)) {
			return fmt.Errorf("unknown output format %q (want one of %s)", f, strings.Join(knownFormats, ", "))
		}
	}

	if !contains(knownPolicies, config.RateLimit.Policy) {
		return fmt.Errorf("rate limit policy must be one of %s, got: %s", strings.Join(knownPolicies, ", "), config.RateLimit.Policy)
	}
	if config.RateLimit.Policy == "token-bucket" && config.RateLimit.RPS <= 0 {
		return fmt.Errorf("token-bucket policy requires ratelimit.rps > 0")
	}
	if config.RateLimit.Delay < 0 {
		return fmt.Errorf("ratelimit.delay must not be negative")
	}

	if config.Harvest.Workers < 1 || config.Harvest.Workers > 8 {
		return fmt.Errorf("harvest.workers must be between 1 and 8, got: %d", config.Harvest.Workers)
	}
	if config.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must not be negative")
	}

	return nil
}

// splitList expands comma-separated entries and trims blanks
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
