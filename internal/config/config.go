// Package config loads trackbank settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/trackbank/internal/match"
)

// Store backends.
const (
	StoreSurreal = "surreal"
	StoreFile    = "file"
)

// Embedding providers.
const (
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
)

// DefaultConfigFile is read when TRACKBANK_CONFIG is unset and the file exists.
const DefaultConfigFile = "config/settings.yaml"

// Config holds all configuration values.
type Config struct {
	// Store selects the catalog backend: "surreal" or "file".
	Store       string `yaml:"store"`
	CatalogFile string `yaml:"catalog_file"`

	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// Embeddings
	EmbeddingProvider  string        `yaml:"embedding_provider"`
	EmbeddingModel     string        `yaml:"embedding_model"`
	EmbeddingDimension int           `yaml:"embedding_dimension"`
	EmbedBatchSize     int           `yaml:"embed_batch_size"`
	EmbedCacheTTL      time.Duration `yaml:"embed_cache_ttl"`
	OllamaHost         string        `yaml:"ollama_host"`
	OpenAIKey          string        `yaml:"openai_api_key"`
	AWSRegion          string        `yaml:"aws_region"`

	// Logging
	LogFile       string     `yaml:"log_file"`
	LogLevel      slog.Level `yaml:"-"`
	LogLevelName  string     `yaml:"log_level"`
	LogMaxSizeMB  int        `yaml:"log_max_size_mb"`
	LogMaxBackups int        `yaml:"log_max_backups"`
	LogMaxAgeDays int        `yaml:"log_max_age_days"`

	Matching Matching `yaml:"matching"`
}

// Matching holds the defaults for plan runs. CLI flags override them per run.
type Matching struct {
	TargetMinutes        int            `yaml:"target_minutes"`
	TopK                 int            `yaml:"top_k"`
	AllocationDepth      int            `yaml:"allocation_depth"`
	MinSimilarity        float64        `yaml:"min_similarity"`
	GapThreshold         *float64       `yaml:"gap_threshold"`
	TempoTolerance       float64        `yaml:"tempo_tolerance"`
	TempoOuterBound      float64        `yaml:"tempo_outer_bound"`
	CompatibleKeyScore   float64        `yaml:"compatible_key_score"`
	AdjacentSectionBonus float64        `yaml:"adjacent_section_bonus"`
	Profile              string         `yaml:"profile"`
	Weights              *match.Weights `yaml:"weights"`
	SkipRecent           int            `yaml:"skip_recent"`
	MaxUsage             *int           `yaml:"max_usage"`
}

// Default returns the built-in configuration.
func Default() Config {
	sc := match.DefaultScoringConfig()
	return Config{
		Store:       StoreSurreal,
		CatalogFile: "catalog.yaml",

		SurrealDBURL:       "ws://localhost:8000/rpc",
		SurrealDBNamespace: "trackbank",
		SurrealDBDatabase:  "catalog",
		SurrealDBUser:      "root",
		SurrealDBPass:      "root",
		SurrealDBAuthLevel: "root",

		EmbeddingProvider:  ProviderOllama,
		EmbeddingModel:     "all-minilm:l6-v2",
		EmbeddingDimension: 384,
		EmbedBatchSize:     32,
		EmbedCacheTTL:      time.Hour,
		OllamaHost:         "http://localhost:11434",
		AWSRegion:          "us-east-1",

		LogFile:       "/tmp/trackbank.log",
		LogLevel:      slog.LevelInfo,
		LogLevelName:  "INFO",
		LogMaxSizeMB:  10,
		LogMaxBackups: 5,
		LogMaxAgeDays: 30,

		Matching: Matching{
			TargetMinutes:      180,
			TopK:               5,
			MinSimilarity:      0.6,
			TempoTolerance:     sc.TempoTolerance,
			TempoOuterBound:    sc.TempoOuterBound,
			CompatibleKeyScore: sc.CompatibleKeyScore,
			Profile:            match.ProfileDefault,
		},
	}
}

// Load builds the configuration from defaults, the settings file and environment variables.
// Environment variables win over the file.
func Load() (Config, error) {
	path, explicit := os.LookupEnv("TRACKBANK_CONFIG")
	if !explicit {
		path = DefaultConfigFile
	}
	return load(path, explicit)
}

// LoadPath is Load with an explicit settings file, which must exist.
func LoadPath(path string) (Config, error) {
	return load(path, true)
}

func load(path string, required bool) (Config, error) {
	cfg := Default()
	if err := cfg.overlayFile(path, required); err != nil {
		return Config{}, err
	}
	if err := cfg.overlayEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) overlayFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	c.LogLevel = parseLogLevel(c.LogLevelName)
	return nil
}

func (c *Config) overlayEnv() error {
	var errs []error

	c.Store = getEnv("TRACKBANK_STORE", c.Store)
	c.CatalogFile = getEnv("TRACKBANK_CATALOG_FILE", c.CatalogFile)

	c.SurrealDBURL = getEnv("SURREALDB_URL", c.SurrealDBURL)
	c.SurrealDBNamespace = getEnv("SURREALDB_NAMESPACE", c.SurrealDBNamespace)
	c.SurrealDBDatabase = getEnv("SURREALDB_DATABASE", c.SurrealDBDatabase)
	c.SurrealDBUser = getEnv("SURREALDB_USER", c.SurrealDBUser)
	c.SurrealDBPass = getEnv("SURREALDB_PASS", c.SurrealDBPass)
	c.SurrealDBAuthLevel = getEnv("SURREALDB_AUTH_LEVEL", c.SurrealDBAuthLevel)

	c.EmbeddingProvider = getEnv("TRACKBANK_EMBEDDING_PROVIDER", c.EmbeddingProvider)
	c.EmbeddingModel = getEnv("TRACKBANK_EMBEDDING_MODEL", c.EmbeddingModel)
	c.EmbeddingDimension = getEnvInt("TRACKBANK_EMBEDDING_DIMENSION", c.EmbeddingDimension, &errs)
	c.EmbedBatchSize = getEnvInt("TRACKBANK_EMBED_BATCH_SIZE", c.EmbedBatchSize, &errs)
	c.EmbedCacheTTL = getEnvDuration("TRACKBANK_EMBED_CACHE_TTL", c.EmbedCacheTTL, &errs)
	c.OllamaHost = getEnv("OLLAMA_HOST", c.OllamaHost)
	c.OpenAIKey = getEnv("OPENAI_API_KEY", c.OpenAIKey)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)

	c.LogFile = getEnv("TRACKBANK_LOG_FILE", c.LogFile)
	c.LogLevelName = getEnv("TRACKBANK_LOG_LEVEL", c.LogLevelName)
	c.LogLevel = parseLogLevel(c.LogLevelName)

	m := &c.Matching
	m.TargetMinutes = getEnvInt("TRACKBANK_TARGET_MINUTES", m.TargetMinutes, &errs)
	m.TopK = getEnvInt("TRACKBANK_TOP_K", m.TopK, &errs)
	m.MinSimilarity = getEnvFloat("TRACKBANK_MIN_SIMILARITY", m.MinSimilarity, &errs)
	m.Profile = getEnv("TRACKBANK_PROFILE", m.Profile)
	m.SkipRecent = getEnvInt("TRACKBANK_SKIP_RECENT", m.SkipRecent, &errs)
	if v, ok := os.LookupEnv("TRACKBANK_MAX_USAGE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TRACKBANK_MAX_USAGE: %w", err))
		} else {
			m.MaxUsage = &n
		}
	}

	return errors.Join(errs...)
}

// Validate checks enumerations and builds the matching options once to surface bad values early.
func (c Config) Validate() error {
	switch c.Store {
	case StoreSurreal, StoreFile:
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreSurreal, StoreFile)
	}
	switch c.EmbeddingProvider {
	case ProviderOllama, ProviderOpenAI, ProviderBedrock:
	default:
		return fmt.Errorf("unknown embedding provider %q", c.EmbeddingProvider)
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.EmbeddingDimension)
	}
	_, err := c.Matching.Options()
	return err
}

// Options converts the matching defaults into engine options.
// Explicit weights take precedence over the named profile.
func (m Matching) Options() (match.Options, error) {
	opts := match.DefaultOptions()

	weights, err := match.Profile(m.Profile)
	if err != nil {
		return opts, err
	}
	if m.Weights != nil {
		weights = *m.Weights
	}

	opts.Scoring = match.ScoringConfig{
		Weights:              weights,
		AdjacentSectionBonus: m.AdjacentSectionBonus,
		TempoTolerance:       m.TempoTolerance,
		TempoOuterBound:      m.TempoOuterBound,
		CompatibleKeyScore:   m.CompatibleKeyScore,
	}
	opts.TargetSeconds = float64(m.TargetMinutes) * 60
	opts.TopK = m.TopK
	opts.AllocationDepth = m.AllocationDepth
	opts.MinSimilarity = m.MinSimilarity
	opts.GapThreshold = m.GapThreshold
	opts.SkipRecent = m.SkipRecent
	opts.MaxUsage = m.MaxUsage

	return opts, opts.Validate()
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int, errs *[]error) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultVal
	}
	return n
}

func getEnvFloat(key string, defaultVal float64, errs *[]error) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration, errs *[]error) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultVal
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
