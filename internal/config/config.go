package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the roadsafe API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Search   SearchConfig   `yaml:"search"`
	Explain  ExplainConfig  `yaml:"explain"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Batch    BatchConfig    `yaml:"batch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// Corpus source kinds.
const (
	SourceFile     = "file"
	SourceS3       = "s3"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
	SourceParquet  = "parquet"
)

// CorpusConfig selects and configures the corpus source.
type CorpusConfig struct {
	Source    string    `yaml:"source"` // file (default), s3, postgres, sqlite, parquet
	Path      string    `yaml:"path"`   // file and parquet sources
	Encodings []string  `yaml:"encodings"`
	S3        S3Config  `yaml:"s3"`
	SQL       SQLConfig `yaml:"sql"`
}

// S3Config locates a CSV object in S3 or an S3-compatible store.
type S3Config struct {
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Key       string `yaml:"key"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// SQLConfig locates the corpus table for postgres and sqlite sources.
type SQLConfig struct {
	DSN     string `yaml:"dsn"`
	Table   string `yaml:"table"`
	OrderBy string `yaml:"order_by"`
}

// SearchConfig holds the TF-IDF fitting policy.
type SearchConfig struct {
	MaxFeatures int     `yaml:"max_features"`
	MinDF       int     `yaml:"min_df"`
	MaxDF       float64 `yaml:"max_df"`
	NgramMin    int     `yaml:"ngram_min"`
	NgramMax    int     `yaml:"ngram_max"`
	StopWords   string  `yaml:"stop_words"` // english (default), none
	WarmUp      bool    `yaml:"warm_up"`    // build the index at startup
}

// Explanation providers.
const (
	ProviderNone      = "none"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderLangChain = "langchain"
)

// ExplainConfig holds explanation generator settings.
type ExplainConfig struct {
	Provider      string       `yaml:"provider"` // none (default), openai, gemini, langchain
	APIKey        string       `yaml:"api_key"`
	BaseURL       string       `yaml:"base_url"`
	Model         string       `yaml:"model"`
	Temperature   *float64     `yaml:"temperature"` // nil means 0.7; 0 is deterministic
	MaxTokens     int          `yaml:"max_tokens"`
	TimeoutSec    int          `yaml:"timeout_sec"`
	ContextSize   int          `yaml:"context_size"`   // matches included in the prompt
	DataMaxRunes  int          `yaml:"data_max_runes"` // per-match description truncation
	CacheTTLHours int          `yaml:"cache_ttl_hours"`
	Budget        BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// Key-value store drivers.
const (
	DriverNone   = "none"
	DriverRedis  = "redis"
	DriverValkey = "valkey"
	DriverBadger = "badger"
)

// DatabaseConfig holds key-value store settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // none (default), redis, valkey, badger
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Path             string   `yaml:"path"` // badger directory, empty = in memory
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// BatchConfig holds batch recommendation settings.
type BatchConfig struct {
	MaxItems int `yaml:"max_items"`
	Workers  int `yaml:"workers"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first when present.
func Load(env string) (Config, error) {
	_ = godotenv.Load()

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands environment variables in data and decodes it.
func Parse(data []byte) (Config, error) {
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
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 5000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Corpus.Source == "" {
		c.Corpus.Source = SourceFile
	}
	if c.Corpus.Source == SourceFile && c.Corpus.Path == "" {
		c.Corpus.Path = "data/irc_interventions.csv"
	}
	if c.Corpus.SQL.Table == "" {
		c.Corpus.SQL.Table = "interventions"
	}
	if c.Corpus.SQL.OrderBy == "" {
		c.Corpus.SQL.OrderBy = "id"
	}

	if c.Search.MaxFeatures == 0 {
		c.Search.MaxFeatures = 1000
	}
	if c.Search.MinDF <= 0 {
		c.Search.MinDF = 1
	}
	if c.Search.MaxDF == 0 {
		c.Search.MaxDF = 0.95
	}
	if c.Search.NgramMin <= 0 {
		c.Search.NgramMin = 1
	}
	if c.Search.NgramMax <= 0 {
		c.Search.NgramMax = 2
	}
	if c.Search.StopWords == "" {
		c.Search.StopWords = "english"
	}

	c.applyExplainDefaults()

	if c.Database.Driver == "" {
		c.Database.Driver = DriverNone
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "roadsafe:"
	}
	if c.Batch.MaxItems <= 0 {
		c.Batch.MaxItems = 50
	}
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = 4
	}
}

// Temp returns the sampling temperature, 0.7 when unset.
func (e ExplainConfig) Temp() float64 {
	if e.Temperature == nil {
		return 0.7
	}
	return *e.Temperature
}

func (c *Config) applyExplainDefaults() {
	e := &c.Explain
	if e.Provider == "" {
		e.Provider = ProviderNone
	}
	if e.Model == "" {
		switch e.Provider {
		case ProviderOpenAI:
			e.Model = "gpt-3.5-turbo"
		case ProviderGemini:
			e.Model = "gemini-1.5-flash"
		case ProviderLangChain:
			e.Model = "llama3"
		}
	}
	if e.Temperature == nil {
		t := 0.7
		e.Temperature = &t
	}
	if e.MaxTokens <= 0 {
		e.MaxTokens = 250
	}
	if e.TimeoutSec <= 0 {
		e.TimeoutSec = 20
	}
	if e.ContextSize <= 0 {
		e.ContextSize = 3
	}
	if e.DataMaxRunes <= 0 {
		e.DataMaxRunes = 300
	}
	if e.CacheTTLHours <= 0 {
		e.CacheTTLHours = 24 * 7
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if err := c.validateCorpus(); err != nil {
		return err
	}
	if c.Search.MaxDF <= 0 || c.Search.MaxDF > 1 {
		return fmt.Errorf("search.max_df must be in (0, 1], got %g", c.Search.MaxDF)
	}
	if c.Search.NgramMax < c.Search.NgramMin {
		return fmt.Errorf("search.ngram_max (%d) must be >= ngram_min (%d)", c.Search.NgramMax, c.Search.NgramMin)
	}
	switch c.Search.StopWords {
	case "english", "none":
	default:
		return fmt.Errorf("search.stop_words must be \"english\" or \"none\", got %q", c.Search.StopWords)
	}

	switch c.Explain.Provider {
	case ProviderNone, ProviderOpenAI, ProviderGemini, ProviderLangChain:
	default:
		return fmt.Errorf("unknown explain.provider %q", c.Explain.Provider)
	}
	if t := c.Explain.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("explain.temperature must be in [0, 2], got %g", *t)
	}
	switch c.Explain.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf(
			"explain.budget.action must be \"warn\" or \"reject\", got %q",
			c.Explain.Budget.Action,
		)
	}

	switch c.Database.Driver {
	case DriverNone, DriverBadger:
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	return nil
}

func (c *Config) validateCorpus() error {
	switch c.Corpus.Source {
	case SourceFile, SourceParquet:
		if c.Corpus.Path == "" {
			return fmt.Errorf("corpus.path is required for source %q", c.Corpus.Source)
		}
	case SourceS3:
		if c.Corpus.S3.Bucket == "" || c.Corpus.S3.Key == "" {
			return fmt.Errorf("corpus.s3.bucket and corpus.s3.key are required")
		}
	case SourcePostgres, SourceSQLite:
		if c.Corpus.SQL.DSN == "" {
			return fmt.Errorf("corpus.sql.dsn is required for source %q", c.Corpus.Source)
		}
	default:
		return fmt.Errorf("unknown corpus.source %q", c.Corpus.Source)
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
