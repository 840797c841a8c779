// Package scoring ranks candidate plan tiers for an organization by a
// weighted five-factor match against its usage metrics. Evaluation is pure
// and deterministic; per-tier evaluations are independent and fan out
// concurrently.
package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/planvisor/internal/catalog"
	"github.com/planvisor/pkg/models"
)

// FactorWeights are the five match-factor weights. They must sum to 1.0.
type FactorWeights struct {
	UserCount float64 `yaml:"user_count" json:"user_count"`
	Features  float64 `yaml:"features" json:"features"`
	Budget    float64 `yaml:"budget" json:"budget"`
	Usage     float64 `yaml:"usage" json:"usage"`
	Growth    float64 `yaml:"growth" json:"growth"`
}

// Sum returns the total of all weights.
func (w FactorWeights) Sum() float64 {
	return w.UserCount + w.Features + w.Budget + w.Usage + w.Growth
}

// EngineConfig carries the scoring weights and thresholds.
type EngineConfig struct {
	Weights FactorWeights `yaml:"weights"`

	// User-count fit.
	UnlimitedUserThreshold int     `yaml:"unlimited_user_threshold"` // users above this make unlimited tiers score 100
	GoodUtilization        float64 `yaml:"good_utilization"`         // cap utilization at which a tier scores 100
	OverCapPenalty         float64 `yaml:"over_cap_penalty"`         // points lost per user over cap

	// Growth-trajectory fit.
	GrowthComfortRatio      float64 `yaml:"growth_comfort_ratio"` // projection/cap ratio scoring 100
	GrowthOverCapPenalty    float64 `yaml:"growth_over_cap_penalty"`
	GrowthScoreFloor        float64 `yaml:"growth_score_floor"`
	UnlimitedGrowthWatermark int    `yaml:"unlimited_growth_watermark"`

	// Budget alignment cost-delta bands for custom-plan organizations.
	TightBudgetDelta float64 `yaml:"tight_budget_delta"`
	LooseBudgetDelta float64 `yaml:"loose_budget_delta"`
}

// DefaultEngineConfig returns the calibrated scoring configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Weights: FactorWeights{
			UserCount: 0.30,
			Features:  0.25,
			Budget:    0.20,
			Usage:     0.15,
			Growth:    0.10,
		},
		UnlimitedUserThreshold:   200,
		GoodUtilization:          0.70,
		OverCapPenalty:           10,
		GrowthComfortRatio:       0.80,
		GrowthOverCapPenalty:     5,
		GrowthScoreFloor:         30,
		UnlimitedGrowthWatermark: 50,
		TightBudgetDelta:         0.10,
		LooseBudgetDelta:         0.30,
	}
}

// Validate checks that the factor weights close to 1.0.
func (c EngineConfig) Validate() error {
	if math.Abs(c.Weights.Sum()-1.0) > 1e-9 {
		return fmt.Errorf("factor weights must sum to 1.0, got %v", c.Weights.Sum())
	}
	return nil
}

// Input is everything one evaluation pass needs beyond usage metrics.
// CurrentMonthlyCost is what the organization pays today; HasCustomPlan
// feeds the data-quality component of the confidence level.
type Input struct {
	Category           models.UserCategory
	EligiblePlans      []models.PlanTier
	Discounts          []models.MigrationDiscount
	CurrentMonthlyCost float64
	HasCustomPlan      bool
}

// Engine scores plan tiers against usage metrics.
type Engine struct {
	config  EngineConfig
	catalog *catalog.Catalog
}

// NewEngine creates a scoring engine.
func NewEngine(config EngineConfig, cat *catalog.Catalog) *Engine {
	return &Engine{config: config, catalog: cat}
}

// Evaluate scores every eligible tier and returns recommendations sorted by
// score descending. Ties preserve tier evaluation order; re-running with
// identical inputs yields identical output. Cost analysis on each
// recommendation is attached downstream by the analyzer.
func (e *Engine) Evaluate(ctx context.Context, metrics models.UsageMetrics, input Input) []models.PlanRecommendation {
	tiers := make([]models.PlanDefinition, 0, len(input.EligiblePlans))
	for _, t := range input.EligiblePlans {
		def, err := e.catalog.Plan(t)
		if err != nil {
			continue // eligibility lists only catalog tiers; skip defensively
		}
		tiers = append(tiers, def)
	}

	// Per-tier evaluations are independent: fan out, fan in by index so
	// evaluation order survives for stable tie-breaking.
	recs := make([]models.PlanRecommendation, len(tiers))
	var wg sync.WaitGroup
	for i, def := range tiers {
		wg.Add(1)
		go func(idx int, def models.PlanDefinition) {
			defer wg.Done()
			recs[idx] = e.evaluateTier(def, metrics, input)
		}(i, def)
	}
	wg.Wait()

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].RecommendationScore > recs[j].RecommendationScore
	})
	return recs
}

func (e *Engine) evaluateTier(def models.PlanDefinition, metrics models.UsageMetrics, input Input) models.PlanRecommendation {
	userScore, userDetail := e.userCountFit(def, metrics)
	featureScore, featureDetail := e.featureFit(def, metrics)
	budgetScore, budgetDetail := e.budgetAlignment(def, metrics, input)
	usageScore, usageDetail := e.usagePatternFit(def, metrics)
	growthScore, growthDetail := e.growthFit(def, metrics)

	w := e.config.Weights
	reasons := []models.MatchReason{
		{Factor: models.FactorUserCount, Score: userScore, Weight: w.UserCount, Detail: userDetail},
		{Factor: models.FactorFeatures, Score: featureScore, Weight: w.Features, Detail: featureDetail},
		{Factor: models.FactorBudget, Score: budgetScore, Weight: w.Budget, Detail: budgetDetail},
		{Factor: models.FactorUsage, Score: usageScore, Weight: w.Usage, Detail: usageDetail},
		{Factor: models.FactorGrowth, Score: growthScore, Weight: w.Growth, Detail: growthDetail},
	}

	total := userScore*w.UserCount + featureScore*w.Features +
		budgetScore*w.Budget + usageScore*w.Usage + growthScore*w.Growth

	discounts := make([]models.MigrationDiscount, 0, len(input.Discounts))
	for _, d := range input.Discounts {
		if d.AppliesTo(def.Tier) {
			discounts = append(discounts, d)
		}
	}

	return models.PlanRecommendation{
		PlanTier:            def.Tier,
		PlanName:            def.Name,
		RecommendationScore: int(math.Round(math.Min(100, math.Max(0, total)))),
		ConfidenceLevel:     e.confidence(reasons, metrics, input),
		MatchReasons:        reasons,
		Discounts:           discounts,
	}
}

// userCountFit scores how well the organization's seat count sits inside
// the tier's cap. The free tier is binary; unlimited tiers reward genuinely
// large teams; capped tiers reward good utilization and decay hard over cap.
func (e *Engine) userCountFit(def models.PlanDefinition, metrics models.UsageMetrics) (float64, string) {
	users := metrics.TotalUsers

	if def.Tier == models.TierFree {
		if users <= def.MaxUsers {
			return 100, fmt.Sprintf("%d users fit within the free cap of %d", users, def.MaxUsers)
		}
		return 0, fmt.Sprintf("%d users exceed the free cap of %d", users, def.MaxUsers)
	}

	if def.Unlimited() {
		if users > e.config.UnlimitedUserThreshold {
			return 100, fmt.Sprintf("%d users justify an unlimited-seat plan", users)
		}
		return 70, "unlimited seats exceed current needs"
	}

	if users > def.MaxUsers {
		over := float64(users - def.MaxUsers)
		score := math.Max(0, 100-over*e.config.OverCapPenalty)
		return score, fmt.Sprintf("%d users exceed the %d-seat cap", users, def.MaxUsers)
	}

	utilization := float64(users) / float64(def.MaxUsers)
	if utilization >= e.config.GoodUtilization {
		return 100, fmt.Sprintf("seat utilization %.0f%% is a strong fit", utilization*100)
	}
	// Under-utilized caps still fit, just less cost-efficiently: scale from
	// 80 at zero utilization up to 100 at the good-utilization mark.
	score := 80 + 20*(utilization/e.config.GoodUtilization)
	return score, fmt.Sprintf("seat utilization %.0f%% leaves headroom", utilization*100)
}

// featureFit starts at a base of 60 and rewards matched utilization
// thresholds: advanced features count for Business tiers and above, core
// features for any paid tier.
func (e *Engine) featureFit(def models.PlanDefinition, metrics models.UsageMetrics) (float64, string) {
	const base = 60.0
	score := base
	matched := 0
	fu := metrics.FeatureUtilization

	if def.IsBusinessOrAbove() {
		advanced := []struct {
			used      float64
			threshold float64
			has       bool
		}{
			{fu.Reporting, 0.5, def.Features.AdvancedReporting},
			{fu.AdvancedPermissions, 0.3, def.Features.AdvancedPermissions},
			{fu.ClientPortal, 0.2, def.Features.ClientPortal},
			{fu.ResourceManagement, 0.4, def.Features.ResourceManagement},
		}
		for _, f := range advanced {
			if f.has && f.used > f.threshold {
				score += 10
				matched++
			}
		}
	}

	if def.IsPaid() {
		core := []struct {
			used      float64
			threshold float64
			has       bool
		}{
			{fu.GanttCharts, 0.4, def.Features.GanttCharts},
			{fu.TimeTracking, 0.3, def.Features.TimeTracking},
			{fu.CustomFields, 0.3, def.Features.CustomFields},
			{fu.Integrations, 0.2, def.Features.Integrations},
		}
		for _, f := range core {
			if f.has && f.used > f.threshold {
				score += 5
				matched++
			}
		}
	}

	score = math.Min(100, score)
	return score, fmt.Sprintf("%d feature utilization thresholds matched", matched)
}

// budgetAlignment scores the price change relative to today's spend.
func (e *Engine) budgetAlignment(def models.PlanDefinition, metrics models.UsageMetrics, input Input) (float64, string) {
	if input.Category == models.CategoryFree && def.Tier == models.TierFree {
		return 100, "staying free costs nothing"
	}
	if input.Category == models.CategoryTrial && def.Tier == models.TierProSmall {
		return 90, "entry paid tier is the natural trial conversion"
	}
	if input.Category == models.CategoryCustomPlan && input.CurrentMonthlyCost > 0 {
		newCost := e.catalog.MonthlyCost(def, metrics.TotalUsers)
		delta := math.Abs(newCost-input.CurrentMonthlyCost) / input.CurrentMonthlyCost
		switch {
		case delta <= e.config.TightBudgetDelta:
			return 90, fmt.Sprintf("cost within %.0f%% of current custom price", delta*100)
		case delta <= e.config.LooseBudgetDelta:
			return 70, fmt.Sprintf("cost within %.0f%% of current custom price", delta*100)
		default:
			return 50, fmt.Sprintf("cost differs %.0f%% from current custom price", delta*100)
		}
	}
	return 75, "typical budget fit"
}

// usagePatternFit rewards collaboration-heavy teams on large tiers and
// complex workspaces on tiers with advanced reporting.
func (e *Engine) usagePatternFit(def models.PlanDefinition, metrics models.UsageMetrics) (float64, string) {
	score := 60.0
	notes := "baseline usage fit"

	large := def.Unlimited() || def.MaxUsers >= 50
	if metrics.CollaborationIndex > 0.7 && large {
		score += 20
		notes = "high collaboration suits a large-team tier"
	}
	if metrics.ComplexityIndex > 0.6 && def.Features.AdvancedReporting {
		score += 15
		if notes != "baseline usage fit" {
			notes += "; complex workspace benefits from advanced reporting"
		} else {
			notes = "complex workspace benefits from advanced reporting"
		}
	}
	return math.Min(100, score), notes
}

// growthFit compares the six-month user projection against the tier's cap.
func (e *Engine) growthFit(def models.PlanDefinition, metrics models.UsageMetrics) (float64, string) {
	projected := metrics.GrowthTrend.Predicted6MonthUsers

	if def.Unlimited() {
		if projected > e.config.UnlimitedGrowthWatermark {
			return 100, fmt.Sprintf("projected %d users in 6 months suit unlimited seats", projected)
		}
		return 60, "growth projection does not yet require unlimited seats"
	}

	cap := def.MaxUsers
	switch {
	case float64(projected) <= e.config.GrowthComfortRatio*float64(cap):
		return 100, fmt.Sprintf("projected %d users stay comfortably under the %d-seat cap", projected, cap)
	case projected <= cap:
		return 80, fmt.Sprintf("projected %d users approach the %d-seat cap", projected, cap)
	default:
		over := float64(projected - cap)
		score := math.Max(e.config.GrowthScoreFloor, 80-over*e.config.GrowthOverCapPenalty)
		return score, fmt.Sprintf("projected %d users outgrow the %d-seat cap", projected, cap)
	}
}

// confidence rewards tight factor agreement and real usage signal:
// max(60, 100 - stddev(factorScores) - (100 - dataQuality)).
func (e *Engine) confidence(reasons []models.MatchReason, metrics models.UsageMetrics, input Input) int {
	scores := make([]float64, len(reasons))
	for i, r := range reasons {
		scores[i] = r.Score
	}

	quality := 70.0
	if metrics.TotalUsers > 0 {
		quality += 10
	}
	if metrics.TotalProjects > 0 {
		quality += 10
	}
	if input.HasCustomPlan {
		quality += 10
	}
	quality = math.Min(100, quality)

	conf := 100 - stdDev(scores) - (100 - quality)
	return int(math.Round(math.Max(60, conf)))
}

func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
