// Package config holds the daemon configuration: defaults, the environment
// overlay and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/roasbeef/propsum/internal/build"
	"github.com/roasbeef/propsum/internal/cache"
	"github.com/roasbeef/propsum/internal/db"
	"github.com/roasbeef/propsum/internal/proposal"
	"github.com/roasbeef/propsum/internal/summarizer"
	"github.com/roasbeef/propsum/internal/summary"
)

const (
	// DefaultPort is the HTTP port used when PORT is unset.
	DefaultPort = 3000

	// DefaultGRPCAddr is the gRPC health listener.
	DefaultGRPCAddr = "localhost:10029"

	// EnvDevelopment enables error details in responses.
	EnvDevelopment = "development"

	// EnvProduction is the default environment.
	EnvProduction = "production"
)

// Environment variables read by ApplyEnv.
const (
	EnvPort               = "PORT"
	EnvOpenAIKey          = "OPENAI_API_KEY"
	EnvGeminiKey          = "GEMINI_API_KEY"
	EnvAnthropicKey       = "ANTHROPIC_API_KEY"
	EnvSummarizerProvider = "SUMMARIZER_PROVIDER"
	EnvSummarizerModel    = "SUMMARIZER_MODEL"
	EnvSubgraphURL        = "SUBGRAPH_URL"
	EnvDBPath             = "PROPSUM_DB"
	EnvLogDir             = "PROPSUM_LOG_DIR"
	EnvLogLevel           = "PROPSUM_LOG_LEVEL"
	EnvStaticDir          = "PROPSUM_STATIC_DIR"
	EnvMode               = "PROPSUM_ENV"
)

// Config is the full daemon configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port int

	// GRPCAddr is the gRPC health listen address, empty to disable.
	GRPCAddr string

	// DBPath is the sqlite cache file.
	DBPath string

	// LogDir enables the rotating log file when set.
	LogDir string

	// LogLevel is the btclog level name.
	LogLevel string

	// StaticDir is an optional frontend build directory.
	StaticDir string

	// Env is "production" or "development".
	Env string

	// MCP serves the MCP tools on stdio.
	MCP bool

	// Provider selects the summarizer backend.
	Provider summarizer.Provider

	// Model overrides the provider's default model.
	Model string

	OpenAIKey    string
	GeminiKey    string
	AnthropicKey string

	Subgraph proposal.Config
	Cache    cache.Config
	Summary  summary.Config
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Port:     DefaultPort,
		GRPCAddr: DefaultGRPCAddr,
		DBPath:   defaultDBPath(),
		LogLevel: "info",
		Env:      EnvProduction,
		Provider: summarizer.ProviderOpenAI,
		Subgraph: proposal.DefaultConfig(),
		Cache:    cache.DefaultConfig(),
		Summary:  summary.DefaultConfig(),
	}
}

// defaultDBPath falls back to the working directory when the home
// directory is unknown.
func defaultDBPath() string {
	path, err := db.DefaultDBPath()
	if err != nil {
		return "propsum.db"
	}

	return path
}

// ApplyEnv overlays the environment read through lookup onto c. Pass
// os.LookupEnv for the process environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)

		return v, ok && v != ""
	}

	if v, ok := get(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.Port = port
	}

	strs := []struct {
		key string
		dst *string
	}{
		{EnvOpenAIKey, &c.OpenAIKey},
		{EnvGeminiKey, &c.GeminiKey},
		{EnvAnthropicKey, &c.AnthropicKey},
		{EnvSummarizerModel, &c.Model},
		{EnvSubgraphURL, &c.Subgraph.Endpoint},
		{EnvDBPath, &c.DBPath},
		{EnvLogDir, &c.LogDir},
		{EnvLogLevel, &c.LogLevel},
		{EnvStaticDir, &c.StaticDir},
		{EnvMode, &c.Env},
	}
	for _, s := range strs {
		if v, ok := get(s.key); ok {
			*s.dst = v
		}
	}

	if v, ok := get(EnvSummarizerProvider); ok {
		c.Provider = summarizer.Provider(strings.ToLower(v))
	}

	return nil
}

// APIKey returns the key for the selected provider.
func (c *Config) APIKey() string {
	switch c.Provider {
	case summarizer.ProviderGemini:
		return c.GeminiKey
	case summarizer.ProviderAnthropic:
		return c.AnthropicKey
	default:
		return c.OpenAIKey
	}
}

// apiKeyEnv names the variable holding the selected provider's key.
func (c *Config) apiKeyEnv() string {
	switch c.Provider {
	case summarizer.ProviderGemini:
		return EnvGeminiKey
	case summarizer.ProviderAnthropic:
		return EnvAnthropicKey
	default:
		return EnvOpenAIKey
	}
}

// Development reports whether development mode is enabled.
func (c *Config) Development() bool {
	return strings.EqualFold(c.Env, EnvDevelopment)
}

// Validate checks the configuration, naming every missing required
// environment variable.
func (c *Config) Validate() error {
	var errs []error

	switch c.Provider {
	case summarizer.ProviderOpenAI, summarizer.ProviderGemini,
		summarizer.ProviderAnthropic:

		if c.APIKey() == "" {
			errs = append(errs, fmt.Errorf("missing required "+
				"environment variable: %s", c.apiKeyEnv()))
		}

	default:
		errs = append(errs, fmt.Errorf("unknown %s %q",
			EnvSummarizerProvider, c.Provider))
	}

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	if c.Subgraph.Endpoint == "" {
		errs = append(errs, errors.New("subgraph endpoint is required"))
	}
	switch strings.ToLower(c.Env) {
	case EnvProduction, EnvDevelopment, "test":
	default:
		errs = append(errs, fmt.Errorf("unknown %s %q", EnvMode, c.Env))
	}

	return errors.Join(errs...)
}

// HTTPAddr returns the HTTP listen address.
func (c *Config) HTTPAddr() string {
	return ":" + strconv.Itoa(c.Port)
}

// SummarizerConfig returns the summarizer settings for the selected
// provider.
func (c *Config) SummarizerConfig() summarizer.Config {
	return summarizer.Config{
		Provider: c.Provider,
		APIKey:   c.APIKey(),
		Model:    c.Model,
	}
}

// SummaryConfig returns the orchestrator settings.
func (c *Config) SummaryConfig() summary.Config {
	cfg := c.Summary
	cfg.Development = c.Development()

	return cfg
}

// LogConfig returns the root logger settings.
func (c *Config) LogConfig() build.LogConfig {
	logCfg := build.LogConfig{Level: c.LogLevel}
	if c.LogDir != "" {
		logCfg.File = build.DefaultLogFileConfig(ExpandPath(c.LogDir))
	}

	return logCfg
}

// ExpandPath expands environment variables and a leading ~ in path.
func ExpandPath(path string) string {
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	return path
}
