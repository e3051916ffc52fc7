package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml or .env is found
	chdirTemp(t)
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, 30, cfg.Data.RecencyDays)
	assert.True(t, cfg.Data.Watch)
	assert.Equal(t, 50, cfg.Pipeline.MaxContextRecords)
	assert.Equal(t, uint64(42), cfg.Pipeline.SampleSeed)
	assert.Equal(t, 16384, cfg.Pipeline.MaxContextBytes)
	assert.Equal(t, 24, cfg.Pipeline.MaxTrendMonths)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-1.5-pro", cfg.LLM.Gemini.Model)
	assert.Equal(t, 5, cfg.LLM.Retry.MaxRetries)
	assert.Equal(t, 1000, cfg.LLM.Retry.BaseDelayMs)
	assert.Equal(t, 60000, cfg.LLM.Retry.MaxDelayMs)
	assert.Equal(t, 1000, cfg.LLM.Retry.MaxJitterMs)
	assert.Equal(t, []string{"Mumbai", "Bangalore", "Delhi"}, cfg.Scrape.Cities)
	assert.Equal(t, 24, cfg.Scrape.FrequencyHours)
	assert.Len(t, cfg.Scrape.UserAgents, 3)
	assert.True(t, cfg.Scrape.EnableMagicbricks)
	assert.True(t, cfg.Scrape.EnableHousing)
	assert.True(t, cfg.Scrape.EnableGovernment)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	require.NotEmpty(t, cfg.Pricing.Models)
	assert.Equal(t, "gemini-1.5-pro", cfg.Pricing.Models[0].Model)
	assert.InDelta(t, 1.25, cfg.Pricing.Models[0].Input, 0.001)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
data:
  dir: /var/lib/estate
  recency_days: 7
log:
  level: debug
  format: console
server:
  port: 9090
llm:
  provider: anthropic
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/estate", cfg.Data.Dir)
	assert.Equal(t, 7, cfg.Data.RecencyDays)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	// Defaults still apply for unset values
	assert.Equal(t, 50, cfg.Pipeline.MaxContextRecords)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("ESTATE_STORE_DRIVER", "postgres")
	t.Setenv("ESTATE_LOG_LEVEL", "warn")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadBareAPIKeyEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "g-key", cfg.LLM.Gemini.Key)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("ESTATE_SERVER_PORT", "")
	require.NoError(t, os.Unsetenv("ESTATE_SERVER_PORT"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ESTATE_SERVER_PORT=7070\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("ESTATE_SERVER_PORT") })

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with the defaults needed by Validate.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Data.Dir = "data"
	cfg.LLM.Provider = "gemini"
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "estate.db"
	return cfg
}

func TestValidateAnswer_GeminiKey(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("answer")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	cfg.LLM.Gemini.Key = "g-key"
	assert.NoError(t, cfg.Validate("answer"))
}

func TestValidateAnswer_AnthropicKey(t *testing.T) {
	cfg := validDefaults()
	cfg.LLM.Provider = "anthropic"

	err := cfg.Validate("answer")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")

	cfg.LLM.Anthropic.Key = "sk-ant"
	assert.NoError(t, cfg.Validate("answer"))
}

func TestValidateAnswer_UnknownProvider(t *testing.T) {
	cfg := validDefaults()
	cfg.LLM.Provider = "openai"

	err := cfg.Validate("answer")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm.provider")
}

func TestValidateStore(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("store"))

	cfg.Store.DatabaseURL = ""
	assert.Error(t, cfg.Validate("store"))

	cfg.Store.Driver = "none"
	assert.NoError(t, cfg.Validate("store"))

	cfg.Store.Driver = "mysql"
	assert.Error(t, cfg.Validate("store"))
}

func TestValidate_DataDirRequired(t *testing.T) {
	cfg := validDefaults()
	cfg.Data.Dir = ""
	assert.Error(t, cfg.Validate("data"))
}

func TestLoadExplicitFile(t *testing.T) {
	chdirTemp(t)
	// A config.yaml in the working directory is ignored when a file is named.
	require.NoError(t, os.WriteFile("config.yaml", []byte("server:\n  port: 6000\n"), 0644))
	file := filepath.Join(t.TempDir(), "estate.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server:\n  port: 8088\n"), 0644))

	cfg, err := Load(LoadOptions{File: file})
	require.NoError(t, err)
	assert.Equal(t, 8088, cfg.Server.Port)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	chdirTemp(t)
	_, err := Load(LoadOptions{File: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestLoadFlagsOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ESTATE_DATA_DIR", "/from/env")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("data-dir", "", "")
	fs.String("provider", "", "")
	require.NoError(t, fs.Parse([]string{"--data-dir", "/from/flag"}))

	cfg, err := Load(LoadOptions{Flags: map[string]*pflag.Flag{
		"data.dir":     fs.Lookup("data-dir"),
		"llm.provider": fs.Lookup("provider"),
		"log.level":    nil,
	}})
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.Data.Dir)
	// Unset flags leave the default in place.
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "info", cfg.Log.Level)
}
