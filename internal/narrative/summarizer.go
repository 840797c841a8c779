// Package narrative turns a recommendation response into a short
// executive-summary paragraph for account managers. The summary is
// cosmetic: any failure here degrades to an empty summary upstream.
package narrative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/planvisor/pkg/models"
)

// DefaultModel is used when the config names no model.
const DefaultModel = "gpt-4o-mini"

// Config holds the OpenAI settings.
type Config struct {
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// OpenAISummarizer implements the recommendation service's Summarizer.
type OpenAISummarizer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

// NewOpenAISummarizer creates a summarizer.
func NewOpenAISummarizer(cfg Config) *OpenAISummarizer {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 200
	}
	return &OpenAISummarizer{
		client:      openai.NewClient(cfg.APIKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}
}

// Summarize produces a two-to-three sentence narrative of the
// recommendation outcome.
func (s *OpenAISummarizer) Summarize(ctx context.Context, resp *models.PlanRecommendationResponse) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You write concise executive summaries of subscription plan " +
					"recommendations for account managers. Two to three sentences, plain language, no markdown.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: promptFor(resp),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no summary generated")
	}
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

func promptFor(resp *models.PlanRecommendationResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Organization category: %s. Verdict: %s.\n", resp.Category, resp.MigrationSummary)
	fmt.Fprintf(&b, "Team: %d users (%d active), %d projects.\n",
		resp.UserAnalytics.TotalUsers, resp.UserAnalytics.ActiveUsers, resp.UserAnalytics.TotalProjects)
	for i, rec := range resp.Recommendations {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "Candidate %d: %s, score %d, confidence %d, new monthly cost $%.2f.\n",
			i+1, rec.PlanName, rec.RecommendationScore, rec.ConfidenceLevel, rec.CostAnalysis.NewMonthlyCost)
	}
	for _, action := range resp.UrgentActions {
		fmt.Fprintf(&b, "Urgent: %s.\n", action.Message)
	}
	return b.String()
}
