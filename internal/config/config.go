package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/planvisor/internal/cache"
	"github.com/planvisor/internal/costbenefit"
	"github.com/planvisor/internal/equivalency"
	"github.com/planvisor/internal/events"
	"github.com/planvisor/internal/narrative"
	"github.com/planvisor/internal/scoring"
	"github.com/planvisor/internal/store"
)

// Config represents the overall application configuration
type Config struct {
	API       APIConfig       `yaml:"api"`
	Graph     GraphConfig     `yaml:"graph"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Stripe    StripeConfig    `yaml:"stripe"`
	Engine    EngineConfig    `yaml:"engine"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Discounts DiscountsConfig `yaml:"discounts"`
}

// APIConfig represents API gateway configuration
type APIConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	EnableCORS     bool          `yaml:"enable_cors"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	AllowedMethods []string      `yaml:"allowed_methods"`
	AllowedHeaders []string      `yaml:"allowed_headers"`
}

// GraphConfig represents Neo4j database configuration
type GraphConfig struct {
	URI          string        `yaml:"uri"`
	Database     string        `yaml:"database"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	MaxPoolSize  int           `yaml:"max_pool_size"`
	ConnTimeout  time.Duration `yaml:"conn_timeout"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// RedisConfig represents the usage-metrics cache configuration
type RedisConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// KafkaConfig represents the event publisher configuration
type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	ClientID     string        `yaml:"client_id"`
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// OpenAIConfig represents the executive-summary generator configuration
type OpenAIConfig struct {
	Enabled     bool          `yaml:"enabled"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float32       `yaml:"temperature"`
}

// StripeConfig represents billing provisioning configuration
type StripeConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
}

// EngineConfig represents recommendation scoring configuration
type EngineConfig struct {
	UserCountWeight    float64 `yaml:"user_count_weight"`
	FeatureWeight      float64 `yaml:"feature_weight"`
	BudgetWeight       float64 `yaml:"budget_weight"`
	UsagePatternWeight float64 `yaml:"usage_pattern_weight"`
	GrowthWeight       float64 `yaml:"growth_weight"`
}

// AnalyzerConfig represents cost-benefit analyzer configuration
type AnalyzerConfig struct {
	HourlyRate            float64 `yaml:"hourly_rate"`
	MigrationBaseFee      float64 `yaml:"migration_base_fee"`
	PerUserSurcharge      float64 `yaml:"per_user_surcharge"`
	SurchargeCeiling      float64 `yaml:"surcharge_ceiling"`
	DelayRiskThreshold    float64 `yaml:"delay_risk_threshold"`
	CriticalPaybackMonths int     `yaml:"critical_payback_months"`
	HighPaybackMonths     int     `yaml:"high_payback_months"`
}

// DiscountsConfig represents grandfathered discount configuration
type DiscountsConfig struct {
	FeatureMatchFloor float64 `yaml:"feature_match_floor"`
}

// Load reads and parses the configuration file, applying environment
// overrides for secrets.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			RequestTimeout: 25 * time.Second,
			EnableCORS:     true,
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		},
		Graph: GraphConfig{
			URI:          "bolt://localhost:7687",
			Database:     "neo4j",
			Username:     "neo4j",
			MaxPoolSize:  50,
			ConnTimeout:  10 * time.Second,
			QueryTimeout: 15 * time.Second,
		},
		Redis: RedisConfig{
			Enabled:   false,
			Addr:      "localhost:6379",
			KeyPrefix: "planvisor",
			TTL:       10 * time.Minute,
		},
		Kafka: KafkaConfig{
			Enabled:      false,
			Brokers:      []string{"localhost:9092"},
			ClientID:     "planvisor",
			BatchSize:    100,
			BatchTimeout: 100 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
		},
		OpenAI: OpenAIConfig{
			Enabled:   false,
			Model:     "gpt-4o-mini",
			MaxTokens: 400,
			Timeout:   20 * time.Second,
		},
		Engine: EngineConfig{
			UserCountWeight:    0.30,
			FeatureWeight:      0.25,
			BudgetWeight:       0.20,
			UsagePatternWeight: 0.15,
			GrowthWeight:       0.10,
		},
		Analyzer: AnalyzerConfig{
			HourlyRate:            50,
			MigrationBaseFee:      500,
			PerUserSurcharge:      10,
			SurchargeCeiling:      2000,
			DelayRiskThreshold:    70,
			CriticalPaybackMonths: 6,
			HighPaybackMonths:     12,
		},
		Discounts: DiscountsConfig{
			FeatureMatchFloor: 70,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NEO4J_URI"); v != "" {
		cfg.Graph.URI = v
	}
	if v := os.Getenv("NEO4J_USERNAME"); v != "" {
		cfg.Graph.Username = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		cfg.Graph.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("STRIPE_API_KEY"); v != "" {
		cfg.Stripe.APIKey = v
	}
}

// GraphStoreConfig converts the graph section into the store's config.
func (c *Config) GraphStoreConfig() store.Config {
	return store.Config{
		URI:         c.Graph.URI,
		Database:    c.Graph.Database,
		Username:    c.Graph.Username,
		Password:    c.Graph.Password,
		MaxPoolSize: c.Graph.MaxPoolSize,
		ConnTimeout: c.Graph.ConnTimeout,
	}
}

// RedisCacheConfig converts the redis section into the cache's config.
func (c *Config) RedisCacheConfig() cache.Config {
	return cache.Config{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		Prefix:   c.Redis.KeyPrefix,
	}
}

// PublisherConfig converts the kafka section into the publisher's config.
func (c *Config) PublisherConfig() events.Config {
	return events.Config{
		Brokers:      c.Kafka.Brokers,
		ClientID:     c.Kafka.ClientID,
		BatchSize:    c.Kafka.BatchSize,
		BatchTimeout: c.Kafka.BatchTimeout,
		WriteTimeout: c.Kafka.WriteTimeout,
	}
}

// ScoringConfig applies the engine section on top of the engine defaults.
func (c *Config) ScoringConfig() scoring.EngineConfig {
	sc := scoring.DefaultEngineConfig()
	sc.Weights = scoring.FactorWeights{
		UserCount: c.Engine.UserCountWeight,
		Features:  c.Engine.FeatureWeight,
		Budget:    c.Engine.BudgetWeight,
		Usage:     c.Engine.UsagePatternWeight,
		Growth:    c.Engine.GrowthWeight,
	}
	return sc
}

// AnalyzerCostConfig applies the analyzer section on top of the
// cost-benefit defaults.
func (c *Config) AnalyzerCostConfig() costbenefit.Config {
	cc := costbenefit.DefaultConfig()
	cc.HourlyRate = c.Analyzer.HourlyRate
	cc.MigrationBaseFee = c.Analyzer.MigrationBaseFee
	cc.PerUserSurcharge = c.Analyzer.PerUserSurcharge
	cc.SurchargeCeiling = c.Analyzer.SurchargeCeiling
	cc.DelayRiskThreshold = c.Analyzer.DelayRiskThreshold
	cc.CriticalPaybackMonths = c.Analyzer.CriticalPaybackMonths
	cc.HighPaybackMonths = c.Analyzer.HighPaybackMonths
	return cc
}

// MapperConfig applies the discounts section on top of the equivalency
// mapper defaults.
func (c *Config) MapperConfig() equivalency.Config {
	mc := equivalency.DefaultConfig()
	if c.Discounts.FeatureMatchFloor > 0 {
		mc.FeatureMatchFloor = c.Discounts.FeatureMatchFloor
	}
	return mc
}

// SummarizerConfig converts the openai section into the summarizer's config.
func (c *Config) SummarizerConfig() narrative.Config {
	return narrative.Config{
		APIKey:      c.OpenAI.APIKey,
		Model:       c.OpenAI.Model,
		MaxTokens:   c.OpenAI.MaxTokens,
		Temperature: c.OpenAI.Temperature,
		Timeout:     c.OpenAI.Timeout,
	}
}
