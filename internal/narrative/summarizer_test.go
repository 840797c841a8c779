package narrative

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/planvisor/pkg/models"
)

func TestNewOpenAISummarizerDefaults(t *testing.T) {
	s := NewOpenAISummarizer(Config{APIKey: "sk-test"})

	assert.Equal(t, DefaultModel, s.model)
	assert.Equal(t, 200, s.maxTokens)
	assert.Zero(t, s.temperature)
	assert.Zero(t, s.timeout)
}

func TestNewOpenAISummarizerAppliesConfig(t *testing.T) {
	s := NewOpenAISummarizer(Config{
		APIKey:      "sk-test",
		Model:       "gpt-4",
		MaxTokens:   400,
		Temperature: 0.2,
		Timeout:     20 * time.Second,
	})

	assert.Equal(t, "gpt-4", s.model)
	assert.Equal(t, 400, s.maxTokens)
	assert.Equal(t, float32(0.2), s.temperature)
	assert.Equal(t, 20*time.Second, s.timeout)
}

func TestPromptFor(t *testing.T) {
	prompt := promptFor(&models.PlanRecommendationResponse{
		Category:         models.CategoryTrial,
		MigrationSummary: models.SummaryProceed,
		UserAnalytics:    models.UsageMetrics{TotalUsers: 10, ActiveUsers: 8, TotalProjects: 5},
		Recommendations: []models.PlanRecommendation{
			{PlanName: "Pro Small", RecommendationScore: 88, ConfidenceLevel: 75},
		},
		UrgentActions: []models.UrgentAction{
			{Message: "Trial expires in 4 days"},
		},
	})

	assert.Contains(t, prompt, "trial")
	assert.Contains(t, prompt, "Pro Small")
	assert.Contains(t, prompt, "score 88")
	assert.Contains(t, prompt, "Trial expires in 4 days")
}
