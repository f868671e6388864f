package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roasbeef/propsum/internal/proposal"
	"github.com/roasbeef/propsum/internal/summarizer"
)

func lookupMap(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, 3000, cfg.Port)
	require.Equal(t, ":3000", cfg.HTTPAddr())
	require.Equal(t, summarizer.ProviderOpenAI, cfg.Provider)
	require.Equal(t, proposal.DefaultEndpoint, cfg.Subgraph.Endpoint)
	require.True(t, cfg.Summary.DedupeInFlight)
	require.False(t, cfg.Development())
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(lookupMap(map[string]string{
		EnvPort:               "8080",
		EnvAnthropicKey:       "ak",
		EnvSummarizerProvider: "Anthropic",
		EnvSummarizerModel:    "claude-x",
		EnvSubgraphURL:        "http://localhost:8000/subgraphs/nouns",
		EnvDBPath:             "/tmp/p.db",
		EnvMode:               "development",
		EnvOpenAIKey:          "   ",
	}))
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, summarizer.ProviderAnthropic, cfg.Provider)
	require.Equal(t, "ak", cfg.APIKey())
	require.Equal(t, "http://localhost:8000/subgraphs/nouns",
		cfg.Subgraph.Endpoint)
	require.Equal(t, "/tmp/p.db", cfg.DBPath)
	require.True(t, cfg.Development())
	require.True(t, cfg.SummaryConfig().Development)

	// Blank values do not override.
	require.Empty(t, cfg.OpenAIKey)

	sumCfg := cfg.SummarizerConfig()
	require.Equal(t, summarizer.Config{
		Provider: summarizer.ProviderAnthropic,
		APIKey:   "ak",
		Model:    "claude-x",
	}, sumCfg)

	require.NoError(t, cfg.Validate())
}

func TestApplyEnvBadPort(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(lookupMap(map[string]string{EnvPort: "http"}))
	require.ErrorContains(t, err, "invalid PORT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing openai key",
			mutate:  func(*Config) {},
			wantErr: "missing required environment variable: " +
				"OPENAI_API_KEY",
		},
		{
			name: "missing gemini key",
			mutate: func(c *Config) {
				c.Provider = summarizer.ProviderGemini
				c.OpenAIKey = "set but unused"
			},
			wantErr: "GEMINI_API_KEY",
		},
		{
			name: "unknown provider",
			mutate: func(c *Config) {
				c.Provider = "llama"
			},
			wantErr: "unknown SUMMARIZER_PROVIDER",
		},
		{
			name: "bad port",
			mutate: func(c *Config) {
				c.OpenAIKey = "k"
				c.Port = 70000
			},
			wantErr: "invalid port",
		},
		{
			name: "unknown env",
			mutate: func(c *Config) {
				c.OpenAIKey = "k"
				c.Env = "staging"
			},
			wantErr: "unknown PROPSUM_ENV",
		},
		{
			name: "valid",
			mutate: func(c *Config) {
				c.OpenAIKey = "k"
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	require.Equal(t, filepath.Join(home, ".propsum", "x.db"),
		ExpandPath("~/.propsum/x.db"))

	t.Setenv("PROPSUM_TEST_DIR", "/var/lib/propsum")
	require.Equal(t, "/var/lib/propsum/logs",
		ExpandPath("$PROPSUM_TEST_DIR/logs"))

	require.Equal(t, "/abs/path", ExpandPath("/abs/path"))
}

func TestLogConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Nil(t, cfg.LogConfig().File)

	cfg.LogDir = "/var/log/propsum"
	logCfg := cfg.LogConfig()
	require.NotNil(t, logCfg.File)
	require.Equal(t, "/var/log/propsum", logCfg.File.Dir)
}
