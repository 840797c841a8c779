package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/planvisor.yaml")
	require.Error(t, err)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  port: 9090
graph:
  uri: bolt://graph:7687
redis:
  enabled: true
  addr: redis:6379
engine:
  user_count_weight: 0.40
  feature_weight: 0.25
  budget_weight: 0.15
  usage_pattern_weight: 0.10
  growth_weight: 0.10
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, "bolt://graph:7687", cfg.Graph.URI)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 0.40, cfg.Engine.UserCountWeight)

	// Untouched sections keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.API.Host)
	assert.Equal(t, "neo4j", cfg.Graph.Username)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("NEO4J_PASSWORD", "graph-secret")
	t.Setenv("STRIPE_API_KEY", "sk_test_123")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "graph-secret", cfg.Graph.Password)
	assert.Equal(t, "sk_test_123", cfg.Stripe.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			"invalid port",
			func(c *Config) { c.API.Port = 0 },
			"api config error",
		},
		{
			"missing graph uri",
			func(c *Config) { c.Graph.URI = "" },
			"graph config error",
		},
		{
			"enabled redis without addr",
			func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" },
			"redis config error",
		},
		{
			"enabled kafka without brokers",
			func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = nil },
			"kafka config error",
		},
		{
			"malformed kafka broker",
			func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = []string{"no-port"} },
			"kafka config error",
		},
		{
			"enabled openai without key",
			func(c *Config) { c.OpenAI.Enabled = true },
			"openai config error",
		},
		{
			"enabled stripe without key",
			func(c *Config) { c.Stripe.Enabled = true },
			"stripe config error",
		},
		{
			"weights not summing to one",
			func(c *Config) { c.Engine.GrowthWeight = 0.20 },
			"engine config error",
		},
		{
			"payback thresholds out of order",
			func(c *Config) { c.Analyzer.HighPaybackMonths = 3 },
			"analyzer config error",
		},
		{
			"feature match floor above 100",
			func(c *Config) { c.Discounts.FeatureMatchFloor = 120 },
			"discounts config error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
