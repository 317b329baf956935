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

// Config holds the streamscout service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Cache      CacheConfig      `yaml:"cache"`
	Refresh    RefreshConfig    `yaml:"refresh"`
	Notify     NotifyConfig     `yaml:"notify"`
	Recommend  RecommendConfig  `yaml:"recommend"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
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
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// LedgerConfig holds the embedded tag ledger settings.
type LedgerConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// CatalogConfig holds upstream live catalog settings.
type CatalogConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	PageSize   int    `yaml:"page_size"`
	MaxPages   int    `yaml:"max_pages"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// EnrichmentConfig holds AI tag enrichment settings.
type EnrichmentConfig struct {
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	Model           string `yaml:"model"`
	ChunkSize       int    `yaml:"chunk_size"`
	Parallelism     int    `yaml:"parallelism"`
	ChunkTimeoutSec int    `yaml:"chunk_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	Model           string `yaml:"model"`
	Dimensions      int    `yaml:"dimensions"`
	ChunkSize       int    `yaml:"chunk_size"`
	Parallelism     int    `yaml:"parallelism"`
	ChunkTimeoutSec int    `yaml:"chunk_timeout_sec"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
}

// CacheConfig holds derived cache settings.
type CacheConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
	TTLMin    int    `yaml:"ttl_min"`
}

// RefreshConfig holds refresh cycle scheduling settings.
type RefreshConfig struct {
	IntervalMin int `yaml:"interval_min"`
}

// NotifyConfig holds notification dispatch settings.
type NotifyConfig struct {
	DiscordToken string `yaml:"discord_token"`
	Enabled      bool   `yaml:"enabled"`
	LiveURLBase  string `yaml:"live_url_base"`
}

// RecommendConfig holds recommendation settings.
type RecommendConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	KNNLimit     int `yaml:"knn_limit"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = "data/ledger"
	}
	if c.Catalog.PageSize <= 0 {
		c.Catalog.PageSize = 100
	}
	if c.Catalog.MaxPages <= 0 {
		c.Catalog.MaxPages = 10
	}
	if c.Catalog.TimeoutSec <= 0 {
		c.Catalog.TimeoutSec = 15
	}
	if c.Enrichment.Model == "" {
		c.Enrichment.Model = "gpt-4o-mini"
	}
	if c.Enrichment.ChunkSize <= 0 {
		c.Enrichment.ChunkSize = 20
	}
	if c.Enrichment.Parallelism <= 0 {
		c.Enrichment.Parallelism = 10
	}
	if c.Enrichment.ChunkTimeoutSec <= 0 {
		c.Enrichment.ChunkTimeoutSec = 30
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.ChunkSize <= 0 {
		c.Embedding.ChunkSize = 100
	}
	if c.Embedding.Parallelism <= 0 {
		c.Embedding.Parallelism = 10
	}
	if c.Embedding.ChunkTimeoutSec <= 0 {
		c.Embedding.ChunkTimeoutSec = 30
	}
	if c.Embedding.HNSWM <= 0 {
		c.Embedding.HNSWM = 16
	}
	if c.Embedding.HNSWEFConstruct <= 0 {
		c.Embedding.HNSWEFConstruct = 200
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "scout:"
	}
	if c.Cache.TTLMin <= 0 {
		c.Cache.TTLMin = 15
	}
	if c.Refresh.IntervalMin <= 0 {
		c.Refresh.IntervalMin = 10
	}
	if c.Notify.LiveURLBase == "" {
		c.Notify.LiveURLBase = "https://chzzk.naver.com/live"
	}
	if c.Recommend.DefaultLimit <= 0 {
		c.Recommend.DefaultLimit = 5
	}
	if c.Recommend.KNNLimit <= 0 {
		c.Recommend.KNNLimit = 20
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url is required")
	}
	if c.Refresh.IntervalMin >= c.Cache.TTLMin {
		return fmt.Errorf(
			"refresh.interval_min (%d) must be shorter than cache.ttl_min (%d)",
			c.Refresh.IntervalMin, c.Cache.TTLMin,
		)
	}
	if c.Notify.Enabled && c.Notify.DiscordToken == "" {
		return fmt.Errorf("notify.discord_token is required when notify.enabled is true")
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
