package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the InvestLink service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Model     ModelConfig     `yaml:"model"`
	Recommend RecommendConfig `yaml:"recommend"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"` // per client IP on /v1, 0 disables
	CORSOrigins     []string `yaml:"cors_origins"`
}

// Database drivers.
const (
	DatabaseRedis = "redis"
	DatabaseNone  = "none"
)

// DatabaseConfig holds the key-value store backing the embedding cache and quota counters.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis (default) or none
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	CacheTTLHours    int      `yaml:"cache_ttl_hours"` // 0 = no expiry
}

// Enabled reports whether a store is configured.
func (d DatabaseConfig) Enabled() bool { return d.Driver != DatabaseNone }

// Snapshot drivers.
const (
	SnapshotCSV      = "csv"
	SnapshotPostgres = "postgres"
	SnapshotMySQL    = "mysql"
)

// SnapshotConfig points at the system of record.
type SnapshotConfig struct {
	Driver string `yaml:"driver"` // csv (default), postgres, mysql
	Dir    string `yaml:"dir"`
	DSN    string `yaml:"dsn"`
}

// Embedding providers.
const (
	ProviderOpenAI  = "openai"
	ProviderHashing = "hashing"
)

// EmbeddingConfig holds text encoder settings.
type EmbeddingConfig struct {
	Provider     string        `yaml:"provider"` // openai, hashing (default)
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	Model        string        `yaml:"model"`
	Dimensions   int           `yaml:"dimensions"`
	MaxBatchSize int           `yaml:"max_batch_size"`
	Instruction  string        `yaml:"instruction"` // prefix for instruction-tuned models
	Breaker      BreakerConfig `yaml:"breaker"`
	Quota        QuotaConfig   `yaml:"quota"`
}

// BreakerConfig holds circuit breaker settings for a remote provider.
type BreakerConfig struct {
	MaxRequests  uint32  `yaml:"max_requests"`
	IntervalSec  int     `yaml:"interval_sec"`
	TimeoutSec   int     `yaml:"timeout_sec"`
	MinRequests  uint32  `yaml:"min_requests"`
	FailureRatio float64 `yaml:"failure_ratio"`
}

// QuotaConfig caps provider tokens.
type QuotaConfig struct {
	DailyTokens   int64  `yaml:"daily_tokens"`   // 0 = unlimited
	MonthlyTokens int64  `yaml:"monthly_tokens"` // 0 = unlimited
	Action        string `yaml:"action"`         // "reject" | "warn" (default)
}

// ModelConfig locates the trained LightGBM models. Empty or missing files select the fallback scorer.
type ModelConfig struct {
	SeekerModelPath   string `yaml:"seeker_model_path"`
	ProviderModelPath string `yaml:"provider_model_path"`
}

// RecommendConfig tunes the engine.
type RecommendConfig struct {
	ShortlistSize       int     `yaml:"shortlist_size"`
	DefaultK            int     `yaml:"default_k"`
	MaxK                int     `yaml:"max_k"`
	ExcludedSeekerIDs   []int64 `yaml:"excluded_seeker_ids"`
	ExcludedProviderIDs []int64 `yaml:"excluded_provider_ids"`
	Seed                uint64  `yaml:"seed"`
	MaxConcurrent       int     `yaml:"max_concurrent"`
	RequestTimeoutMs    int     `yaml:"request_timeout_ms"`
	LoadOnStart         bool    `yaml:"load_on_start"` // build before serving instead of on the first request
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DatabaseRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	if c.Snapshot.Driver == "" {
		c.Snapshot.Driver = SnapshotCSV
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderHashing
	}
	if c.Embedding.MaxBatchSize <= 0 {
		c.Embedding.MaxBatchSize = 256
	}
	if c.Embedding.Quota.Action == "" {
		c.Embedding.Quota.Action = "warn"
	}
	b := &c.Embedding.Breaker
	if b.MaxRequests == 0 {
		b.MaxRequests = 2
	}
	if b.IntervalSec <= 0 {
		b.IntervalSec = 60
	}
	if b.TimeoutSec <= 0 {
		b.TimeoutSec = 30
	}
	if b.MinRequests == 0 {
		b.MinRequests = 5
	}
	if b.FailureRatio <= 0 {
		b.FailureRatio = 0.6
	}

	r := &c.Recommend
	if r.ShortlistSize <= 0 {
		r.ShortlistSize = 30
	}
	if r.DefaultK <= 0 {
		r.DefaultK = 5
	}
	if r.MaxK <= 0 {
		r.MaxK = 50
	}
	if r.Seed == 0 {
		r.Seed = 42
	}
	if r.MaxConcurrent <= 0 {
		r.MaxConcurrent = runtime.NumCPU()
	}
	if r.RequestTimeoutMs <= 0 {
		r.RequestTimeoutMs = 5000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.RateLimitPerMin < 0 {
		return fmt.Errorf("http.rate_limit_per_min must be >= 0, got %d", c.HTTP.RateLimitPerMin)
	}

	switch c.Database.Driver {
	case DatabaseRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	case DatabaseNone:
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"none\", got %q", c.Database.Driver)
	}

	switch c.Snapshot.Driver {
	case SnapshotCSV:
		if c.Snapshot.Dir == "" {
			return fmt.Errorf("snapshot.dir is required for the csv driver")
		}
	case SnapshotPostgres, SnapshotMySQL:
		if c.Snapshot.DSN == "" {
			return fmt.Errorf("snapshot.dsn is required for the %s driver", c.Snapshot.Driver)
		}
	default:
		return fmt.Errorf("snapshot.driver must be csv, postgres or mysql, got %q", c.Snapshot.Driver)
	}

	switch c.Embedding.Provider {
	case ProviderOpenAI:
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required for the openai provider")
		}
	case ProviderHashing:
	default:
		return fmt.Errorf("embedding.provider must be openai or hashing, got %q", c.Embedding.Provider)
	}
	switch c.Embedding.Quota.Action {
	case "warn", "reject":
	default:
		return fmt.Errorf("embedding.quota.action must be \"warn\" or \"reject\", got %q", c.Embedding.Quota.Action)
	}
	if c.Embedding.Breaker.FailureRatio > 1 {
		return fmt.Errorf("embedding.breaker.failure_ratio must be in (0, 1], got %v", c.Embedding.Breaker.FailureRatio)
	}

	if c.Recommend.ShortlistSize < 1 {
		return fmt.Errorf("recommend.shortlist_size must be at least 1, got %d", c.Recommend.ShortlistSize)
	}
	if c.Recommend.MaxK < c.Recommend.DefaultK {
		return fmt.Errorf("recommend.max_k (%d) must not be below recommend.default_k (%d)",
			c.Recommend.MaxK, c.Recommend.DefaultK)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
