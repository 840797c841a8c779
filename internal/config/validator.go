package config

import (
	"fmt"
	"math"
	"net/url"
	"strings"
)

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return fmt.Errorf("api config error: %v", err)
	}

	if err := c.validateGraph(); err != nil {
		return fmt.Errorf("graph config error: %v", err)
	}

	if err := c.validateRedis(); err != nil {
		return fmt.Errorf("redis config error: %v", err)
	}

	if err := c.validateKafka(); err != nil {
		return fmt.Errorf("kafka config error: %v", err)
	}

	if err := c.validateOpenAI(); err != nil {
		return fmt.Errorf("openai config error: %v", err)
	}

	if err := c.validateStripe(); err != nil {
		return fmt.Errorf("stripe config error: %v", err)
	}

	if err := c.validateEngine(); err != nil {
		return fmt.Errorf("engine config error: %v", err)
	}

	if err := c.validateAnalyzer(); err != nil {
		return fmt.Errorf("analyzer config error: %v", err)
	}

	if err := c.validateDiscounts(); err != nil {
		return fmt.Errorf("discounts config error: %v", err)
	}

	return nil
}

func (c *Config) validateAPI() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	if c.API.EnableCORS && len(c.API.AllowedOrigins) == 0 {
		return fmt.Errorf("allowed_origins is required when CORS is enabled")
	}

	return nil
}

func (c *Config) validateGraph() error {
	if c.Graph.URI == "" {
		return fmt.Errorf("uri is required")
	}

	if _, err := url.Parse(c.Graph.URI); err != nil {
		return fmt.Errorf("invalid uri format: %v", err)
	}

	if c.Graph.Username == "" {
		return fmt.Errorf("username is required")
	}

	if c.Graph.MaxPoolSize <= 0 {
		return fmt.Errorf("max_pool_size must be greater than 0")
	}

	return nil
}

func (c *Config) validateRedis() error {
	if !c.Redis.Enabled {
		return nil
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("addr is required when redis is enabled")
	}

	if !strings.Contains(c.Redis.Addr, ":") {
		return fmt.Errorf("invalid addr format: %s (expected host:port)", c.Redis.Addr)
	}

	return nil
}

func (c *Config) validateKafka() error {
	if !c.Kafka.Enabled {
		return nil
	}

	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("brokers is required when kafka is enabled")
	}

	for _, broker := range c.Kafka.Brokers {
		if !strings.Contains(broker, ":") {
			return fmt.Errorf("invalid broker format: %s (expected host:port)", broker)
		}
	}

	if c.Kafka.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}

	return nil
}

func (c *Config) validateOpenAI() error {
	if !c.OpenAI.Enabled {
		return nil
	}

	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("api_key is required when openai is enabled")
	}

	if c.OpenAI.Model == "" {
		return fmt.Errorf("model is required when openai is enabled")
	}

	return nil
}

func (c *Config) validateStripe() error {
	if c.Stripe.Enabled && c.Stripe.APIKey == "" {
		return fmt.Errorf("api_key is required when stripe is enabled")
	}

	return nil
}

func (c *Config) validateEngine() error {
	weights := []struct {
		name  string
		value float64
	}{
		{"user_count_weight", c.Engine.UserCountWeight},
		{"feature_weight", c.Engine.FeatureWeight},
		{"budget_weight", c.Engine.BudgetWeight},
		{"usage_pattern_weight", c.Engine.UsagePatternWeight},
		{"growth_weight", c.Engine.GrowthWeight},
	}

	sum := 0.0
	for _, w := range weights {
		if w.value < 0 || w.value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", w.name)
		}
		sum += w.value
	}

	// Weights must partition the score
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.4f", sum)
	}

	return nil
}

func (c *Config) validateAnalyzer() error {
	if c.Analyzer.HourlyRate <= 0 {
		return fmt.Errorf("hourly_rate must be greater than 0")
	}

	if c.Analyzer.MigrationBaseFee < 0 {
		return fmt.Errorf("migration_base_fee must not be negative")
	}

	if c.Analyzer.SurchargeCeiling < 0 {
		return fmt.Errorf("surcharge_ceiling must not be negative")
	}

	if c.Analyzer.DelayRiskThreshold <= 0 || c.Analyzer.DelayRiskThreshold > 100 {
		return fmt.Errorf("delay_risk_threshold must be between 1 and 100")
	}

	if c.Analyzer.CriticalPaybackMonths <= 0 {
		return fmt.Errorf("critical_payback_months must be greater than 0")
	}

	// Critical payback is the stricter bound
	if c.Analyzer.HighPaybackMonths <= c.Analyzer.CriticalPaybackMonths {
		return fmt.Errorf("high_payback_months must be greater than critical_payback_months")
	}

	return nil
}

func (c *Config) validateDiscounts() error {
	if c.Discounts.FeatureMatchFloor < 0 || c.Discounts.FeatureMatchFloor > 100 {
		return fmt.Errorf("feature_match_floor must be between 0 and 100")
	}

	return nil
}
