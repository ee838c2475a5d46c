package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aurora-hq/aurora/internal/usecase/retrieval"
)

// Config holds the aurora API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// UpstreamConfig holds the message corpus source settings.
type UpstreamConfig struct {
	URL           string `yaml:"url"`
	FetchLimit    int    `yaml:"fetch_limit"`
	TimeoutSec    int    `yaml:"timeout_sec"`
	CacheTTLHours int    `yaml:"cache_ttl_hours"`
}

// DatabaseConfig holds cache database connection settings. The database
// is optional; with no addrs the service runs without caching.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey        string `yaml:"api_key"`
	BaseURL       string `yaml:"base_url"`
	Model         string `yaml:"model"`
	Dimensions    int    `yaml:"dimensions"`
	Provider      string `yaml:"provider"`
	CacheTTLHours int    `yaml:"cache_ttl_hours"`
}

// LLMConfig holds answer generation settings.
type LLMConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSec  int     `yaml:"timeout_sec"`
	ContextTopK int     `yaml:"context_top_k"`
}

// RetrievalConfig holds hybrid retrieval tuning.
type RetrievalConfig struct {
	TopK           int                 `yaml:"top_k"`
	LexicalWeight  float64             `yaml:"lexical_weight"`
	SemanticWeight float64             `yaml:"semantic_weight"`
	BM25K1         float64             `yaml:"bm25_k1"`
	BM25B          float64             `yaml:"bm25_b"`
	LexicalLimit   int                 `yaml:"lexical_limit"`
	SemanticLimit  int                 `yaml:"semantic_limit"`
	EnrichFields   []string            `yaml:"enrich_fields"`
	Synonyms       map[string][]string `yaml:"synonyms"`
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
		// Answer generation waits on the LLM, so writes run long.
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Upstream.FetchLimit <= 0 {
		c.Upstream.FetchLimit = 10000
	}
	if c.Upstream.TimeoutSec <= 0 {
		c.Upstream.TimeoutSec = 30
	}
	if c.Upstream.CacheTTLHours <= 0 {
		c.Upstream.CacheTTLHours = 1
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.CacheTTLHours <= 0 {
		c.Embedding.CacheTTLHours = 24
	}
	if c.LLM.Temperature <= 0 {
		c.LLM.Temperature = 0.1
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 500
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 30
	}
	if c.LLM.ContextTopK <= 0 {
		c.LLM.ContextTopK = 25
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 15
	}
	if c.Retrieval.LexicalWeight == 0 && c.Retrieval.SemanticWeight == 0 {
		c.Retrieval.LexicalWeight = 0.6
		c.Retrieval.SemanticWeight = 0.4
	}
	if c.Retrieval.BM25K1 == 0 {
		c.Retrieval.BM25K1 = 1.5
	}
	if c.Retrieval.BM25B == 0 {
		c.Retrieval.BM25B = 0.75
	}
	if c.Retrieval.LexicalLimit <= 0 {
		c.Retrieval.LexicalLimit = 100
	}
	if c.Retrieval.SemanticLimit <= 0 {
		c.Retrieval.SemanticLimit = 50
	}
	if len(c.Retrieval.EnrichFields) == 0 {
		c.Retrieval.EnrichFields = []string{"user_name", "date"}
	}
}

// Weights returns the configured fusion weights.
func (c *Config) Weights() retrieval.Weights {
	return retrieval.Weights{
		Lexical:  c.Retrieval.LexicalWeight,
		Semantic: c.Retrieval.SemanticWeight,
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Upstream.URL == "" {
		return fmt.Errorf("upstream.url is required")
	}
	if err := c.Weights().Validate(); err != nil {
		return fmt.Errorf("retrieval weights %.3f/%.3f: %w",
			c.Retrieval.LexicalWeight, c.Retrieval.SemanticWeight, err)
	}
	if c.Retrieval.BM25K1 < 0 {
		return fmt.Errorf("retrieval.bm25_k1 must be non-negative, got %v", c.Retrieval.BM25K1)
	}
	if c.Retrieval.BM25B < 0 || c.Retrieval.BM25B > 1 {
		return fmt.Errorf("retrieval.bm25_b must be in [0,1], got %v", c.Retrieval.BM25B)
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
