package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/trackbank/internal/match"
)

// isolate points the loader at an empty directory so a developer's settings file is not picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{
		"TRACKBANK_CONFIG", "TRACKBANK_STORE", "TRACKBANK_TOP_K", "TRACKBANK_MIN_SIMILARITY",
		"TRACKBANK_MAX_USAGE", "TRACKBANK_LOG_LEVEL", "TRACKBANK_EMBED_CACHE_TTL",
		"TRACKBANK_PROFILE", "TRACKBANK_TARGET_MINUTES", "SURREALDB_URL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreSurreal, cfg.Store)
	assert.Equal(t, "ws://localhost:8000/rpc", cfg.SurrealDBURL)
	assert.Equal(t, ProviderOllama, cfg.EmbeddingProvider)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 180, cfg.Matching.TargetMinutes)
	assert.Equal(t, 5, cfg.Matching.TopK)
	assert.Equal(t, 0.6, cfg.Matching.MinSimilarity)
	assert.Nil(t, cfg.Matching.MaxUsage)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store: file
catalog_file: /data/catalog.yaml
log_level: debug
embed_cache_ttl: 15m
matching:
  top_k: 8
  min_similarity: 0.55
  profile: musical
  max_usage: 4
`), 0o644))

	t.Setenv("TRACKBANK_CONFIG", path)
	t.Setenv("TRACKBANK_TOP_K", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreFile, cfg.Store)
	assert.Equal(t, "/data/catalog.yaml", cfg.CatalogFile)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 15*time.Minute, cfg.EmbedCacheTTL)
	assert.Equal(t, 3, cfg.Matching.TopK, "env wins over file")
	assert.Equal(t, 0.55, cfg.Matching.MinSimilarity)
	require.NotNil(t, cfg.Matching.MaxUsage)
	assert.Equal(t, 4, *cfg.Matching.MaxUsage)

	opts, err := cfg.Matching.Options()
	require.NoError(t, err)
	musical, _ := match.Profile(match.ProfileMusical)
	assert.Equal(t, musical, opts.Scoring.Weights)
}

func TestLoadDefaultFileIsOptional(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("store: file\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreFile, cfg.Store)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	isolate(t)
	t.Setenv("TRACKBANK_CONFIG", "/nonexistent/settings.yaml")

	_, err := Load()
	require.Error(t, err)

	_, err = LoadPath("/nonexistent/other.yaml")
	require.Error(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name, key, val string
	}{
		{"bad int", "TRACKBANK_TOP_K", "many"},
		{"bad float", "TRACKBANK_MIN_SIMILARITY", "high"},
		{"bad duration", "TRACKBANK_EMBED_CACHE_TTL", "forever"},
		{"unknown store", "TRACKBANK_STORE", "postgres"},
		{"unknown profile", "TRACKBANK_PROFILE", "loud"},
		{"similarity out of range", "TRACKBANK_MIN_SIMILARITY", "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestMatchingExplicitWeights(t *testing.T) {
	m := Default().Matching
	m.Weights = &match.Weights{Similarity: 0.6, Section: 0.1, Tempo: 0.1, Key: 0.1, Usage: 0.1}

	opts, err := m.Options()
	require.NoError(t, err)
	assert.Equal(t, 0.6, opts.Scoring.Weights.Similarity)
	assert.Equal(t, 10800.0, opts.TargetSeconds)

	m.Weights.Usage = 0.3
	_, err = m.Options()
	require.ErrorIs(t, err, match.ErrConfiguration)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLogLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("nonsense"))
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("planned", "items", 48)

	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "items=48")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(file.String())), &entry))
	assert.Equal(t, "planned", entry["msg"])
	assert.Equal(t, float64(48), entry["items"])
}

func TestSetupLoggerWritesFile(t *testing.T) {
	cfg := Default()
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "trackbank.log")

	logger, cleanup := SetupLogger(cfg)
	logger.Info("hello")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
