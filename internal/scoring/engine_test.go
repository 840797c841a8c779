package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planvisor/internal/catalog"
	"github.com/planvisor/pkg/models"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := DefaultEngineConfig()
	require.NoError(t, cfg.Validate())
	return NewEngine(cfg, catalog.NewStatic())
}

func mustPlan(t *testing.T, tier models.PlanTier) models.PlanDefinition {
	t.Helper()
	def, err := catalog.NewStatic().Plan(tier)
	require.NoError(t, err)
	return def
}

func TestFactorWeightsClose(t *testing.T) {
	cfg := DefaultEngineConfig()
	assert.InDelta(t, 1.0, cfg.Weights.Sum(), 1e-9)
	assert.NoError(t, cfg.Validate())

	cfg.Weights.Growth = 0.2
	assert.Error(t, cfg.Validate())
}

func TestUserCountFitFreeTierBinary(t *testing.T) {
	e := newTestEngine(t)
	free := mustPlan(t, models.TierFree)

	score, _ := e.userCountFit(free, models.UsageMetrics{TotalUsers: 3})
	assert.Equal(t, 100.0, score)

	score, _ = e.userCountFit(free, models.UsageMetrics{TotalUsers: 4})
	assert.Equal(t, 0.0, score)
}

func TestUserCountFitOverCapDecay(t *testing.T) {
	e := newTestEngine(t)
	proSmall := mustPlan(t, models.TierProSmall)

	// 10 points off per user over the cap, floored at zero.
	score, _ := e.userCountFit(proSmall, models.UsageMetrics{TotalUsers: 18})
	assert.InDelta(t, 70.0, score, 1e-9)

	score, _ = e.userCountFit(proSmall, models.UsageMetrics{TotalUsers: 25})
	assert.Equal(t, 0.0, score)

	score, _ = e.userCountFit(proSmall, models.UsageMetrics{TotalUsers: 100})
	assert.Equal(t, 0.0, score)
}

func TestUserCountFitUtilization(t *testing.T) {
	e := newTestEngine(t)
	proLarge := mustPlan(t, models.TierProLarge)

	// 40/50 = 80% utilization clears the 70% mark.
	score, _ := e.userCountFit(proLarge, models.UsageMetrics{TotalUsers: 40})
	assert.Equal(t, 100.0, score)

	// 7/50 = 14% utilization: 80 + 20*(0.14/0.70) = 84.
	score, _ = e.userCountFit(proLarge, models.UsageMetrics{TotalUsers: 7})
	assert.InDelta(t, 84.0, score, 1e-9)
}

func TestUserCountFitUnlimited(t *testing.T) {
	e := newTestEngine(t)
	enterprise := mustPlan(t, models.TierEnterprise)

	score, _ := e.userCountFit(enterprise, models.UsageMetrics{TotalUsers: 250})
	assert.Equal(t, 100.0, score)

	score, _ = e.userCountFit(enterprise, models.UsageMetrics{TotalUsers: 100})
	assert.Equal(t, 70.0, score)
}

func TestFeatureFitThresholds(t *testing.T) {
	e := newTestEngine(t)
	metrics := models.UsageMetrics{
		FeatureUtilization: models.FeatureUtilization{
			GanttCharts:         0.5, // above 0.4
			TimeTracking:        0.2, // below 0.3
			CustomFields:        0.4, // above 0.3
			Integrations:        0.3, // above 0.2
			Reporting:           0.6, // above 0.5 (advanced)
			AdvancedPermissions: 0.1, // below 0.3
			ClientPortal:        0.0,
			ResourceManagement:  0.5, // above 0.4 (advanced)
		},
	}

	// Free tier never earns feature bonuses.
	score, _ := e.featureFit(mustPlan(t, models.TierFree), metrics)
	assert.Equal(t, 60.0, score)

	// Pro Small earns the three core bonuses only: 60 + 3*5.
	score, _ = e.featureFit(mustPlan(t, models.TierProSmall), metrics)
	assert.InDelta(t, 75.0, score, 1e-9)

	// Business Small adds reporting (has no resource management): 60 + 10 + 15.
	score, _ = e.featureFit(mustPlan(t, models.TierBusinessSmall), metrics)
	assert.InDelta(t, 85.0, score, 1e-9)

	// Business Large has both advanced features in use: 60 + 20 + 15.
	score, _ = e.featureFit(mustPlan(t, models.TierBusinessLarge), metrics)
	assert.InDelta(t, 95.0, score, 1e-9)
}

func TestBudgetAlignmentBands(t *testing.T) {
	e := newTestEngine(t)
	metrics := models.UsageMetrics{TotalUsers: 30}

	score, _ := e.budgetAlignment(mustPlan(t, models.TierFree), metrics, Input{Category: models.CategoryFree})
	assert.Equal(t, 100.0, score)

	score, _ = e.budgetAlignment(mustPlan(t, models.TierProSmall), metrics, Input{Category: models.CategoryTrial})
	assert.Equal(t, 90.0, score)

	// Custom plan at $105/month vs Business Small flat $99: 5.7% delta.
	input := Input{Category: models.CategoryCustomPlan, CurrentMonthlyCost: 105}
	score, _ = e.budgetAlignment(mustPlan(t, models.TierBusinessSmall), metrics, input)
	assert.Equal(t, 90.0, score)

	// Custom plan at $80/month vs $99: 23.75% delta lands in the loose band.
	input.CurrentMonthlyCost = 80
	score, _ = e.budgetAlignment(mustPlan(t, models.TierBusinessSmall), metrics, input)
	assert.Equal(t, 70.0, score)

	// Pro Large at 30 seats is $149.70 against $80: way off.
	score, _ = e.budgetAlignment(mustPlan(t, models.TierProLarge), metrics, input)
	assert.Equal(t, 50.0, score)

	// Everything else gets the neutral band.
	score, _ = e.budgetAlignment(mustPlan(t, models.TierProLarge), metrics, Input{Category: models.CategoryActiveSubscriber})
	assert.Equal(t, 75.0, score)
}

func TestGrowthFitBands(t *testing.T) {
	e := newTestEngine(t)
	proLarge := mustPlan(t, models.TierProLarge) // 50-seat cap

	grown := func(projected int) models.UsageMetrics {
		return models.UsageMetrics{GrowthTrend: models.GrowthTrend{Predicted6MonthUsers: projected}}
	}

	score, _ := e.growthFit(proLarge, grown(35)) // under 80% of cap
	assert.Equal(t, 100.0, score)

	score, _ = e.growthFit(proLarge, grown(48)) // between 80% and cap
	assert.Equal(t, 80.0, score)

	score, _ = e.growthFit(proLarge, grown(54)) // 4 over: 80 - 4*5 = 60
	assert.InDelta(t, 60.0, score, 1e-9)

	score, _ = e.growthFit(proLarge, grown(500)) // floored at 30
	assert.Equal(t, 30.0, score)

	enterprise := mustPlan(t, models.TierEnterprise)
	score, _ = e.growthFit(enterprise, grown(80))
	assert.Equal(t, 100.0, score)
	score, _ = e.growthFit(enterprise, grown(20))
	assert.Equal(t, 60.0, score)
}

func TestEvaluateSmallFreeOrganization(t *testing.T) {
	e := newTestEngine(t)

	// Two-person workspace with barely any activity: staying free should
	// beat every paid tier.
	metrics := models.UsageMetrics{OrganizationID: "org-a", TotalUsers: 2, TotalProjects: 1}
	input := Input{
		Category:      models.CategoryFree,
		EligiblePlans: models.AllTiers,
	}

	recs := e.Evaluate(context.Background(), metrics, input)
	require.Len(t, recs, len(models.AllTiers))
	assert.Equal(t, models.TierFree, recs[0].PlanTier)

	var userReason *models.MatchReason
	for i := range recs[0].MatchReasons {
		if recs[0].MatchReasons[i].Factor == models.FactorUserCount {
			userReason = &recs[0].MatchReasons[i]
		}
	}
	require.NotNil(t, userReason)
	assert.Equal(t, 100.0, userReason.Score)
}

func TestEvaluateSortedAndDeterministic(t *testing.T) {
	e := newTestEngine(t)

	metrics := models.UsageMetrics{
		OrganizationID: "org-b",
		TotalUsers:     60,
		TotalProjects:  25,
		FeatureUtilization: models.FeatureUtilization{
			GanttCharts: 0.6, TimeTracking: 0.5, Reporting: 0.7,
			AdvancedPermissions: 0.4, Integrations: 0.5,
		},
		CollaborationIndex: 0.8,
		ComplexityIndex:    0.7,
		GrowthTrend:        models.GrowthTrend{Predicted6MonthUsers: 75},
	}
	input := Input{Category: models.CategoryActiveSubscriber, EligiblePlans: models.AllTiers}

	first := e.Evaluate(context.Background(), metrics, input)
	second := e.Evaluate(context.Background(), metrics, input)
	assert.Equal(t, first, second)

	for i := 1; i < len(first); i++ {
		assert.GreaterOrEqual(t, first[i-1].RecommendationScore, first[i].RecommendationScore,
			"recommendations must be sorted by score descending")
	}
}

func TestEvaluateScoresWithinBounds(t *testing.T) {
	e := newTestEngine(t)

	metricsVariants := []models.UsageMetrics{
		{},
		{TotalUsers: 1000, GrowthTrend: models.GrowthTrend{Predicted6MonthUsers: 5000}},
		{TotalUsers: 45, CollaborationIndex: 1, ComplexityIndex: 1,
			FeatureUtilization: models.FeatureUtilization{
				GanttCharts: 1, TimeTracking: 1, CustomFields: 1, Reporting: 1,
				Integrations: 1, AdvancedPermissions: 1, ClientPortal: 1, ResourceManagement: 1,
			}},
	}
	for _, metrics := range metricsVariants {
		recs := e.Evaluate(context.Background(), metrics, Input{
			Category:      models.CategoryFree,
			EligiblePlans: models.AllTiers,
		})
		for _, rec := range recs {
			assert.GreaterOrEqual(t, rec.RecommendationScore, 0)
			assert.LessOrEqual(t, rec.RecommendationScore, 100)
			assert.GreaterOrEqual(t, rec.ConfidenceLevel, 60)
			assert.LessOrEqual(t, rec.ConfidenceLevel, 100)
			assert.Len(t, rec.MatchReasons, 5)
		}
	}
}

func TestEvaluateDiscountEligibilityFilter(t *testing.T) {
	e := newTestEngine(t)

	// The AppSumo special offer only attaches to Business-and-above tiers.
	sumo := models.MigrationDiscount{
		Code: "SUMO50", Type: models.DiscountPercentage, Value: 50, DurationMonths: 12,
		EligiblePlans: []models.PlanTier{models.TierBusinessSmall, models.TierBusinessLarge, models.TierEnterprise},
	}
	recs := e.Evaluate(context.Background(), models.UsageMetrics{TotalUsers: 20}, Input{
		Category:      models.CategoryAppSumo,
		EligiblePlans: models.AllTiers,
		Discounts:     []models.MigrationDiscount{sumo},
	})

	for _, rec := range recs {
		def := mustPlan(t, rec.PlanTier)
		if def.IsBusinessOrAbove() {
			require.Len(t, rec.Discounts, 1, "tier %s", rec.PlanTier)
			assert.Equal(t, "SUMO50", rec.Discounts[0].Code)
		} else {
			assert.Empty(t, rec.Discounts, "tier %s", rec.PlanTier)
		}
	}
}

func TestEvaluateSkipsUnknownTier(t *testing.T) {
	e := newTestEngine(t)

	recs := e.Evaluate(context.Background(), models.UsageMetrics{TotalUsers: 5}, Input{
		Category:      models.CategoryFree,
		EligiblePlans: []models.PlanTier{models.TierProSmall, models.PlanTier("platinum")},
	})
	require.Len(t, recs, 1)
	assert.Equal(t, models.TierProSmall, recs[0].PlanTier)
}

func TestConfidenceRewardsAgreementAndData(t *testing.T) {
	e := newTestEngine(t)

	uniform := []models.MatchReason{
		{Score: 80}, {Score: 80}, {Score: 80}, {Score: 80}, {Score: 80},
	}
	spread := []models.MatchReason{
		{Score: 0}, {Score: 100}, {Score: 0}, {Score: 100}, {Score: 50},
	}

	rich := models.UsageMetrics{TotalUsers: 10, TotalProjects: 5}
	sparse := models.UsageMetrics{}

	full := e.confidence(uniform, rich, Input{HasCustomPlan: true})
	assert.Equal(t, 100, full)

	// Disagreeing factors and missing data both pull confidence down, but
	// never through the floor.
	low := e.confidence(spread, sparse, Input{})
	assert.Equal(t, 60, low)

	mid := e.confidence(uniform, sparse, Input{})
	assert.Greater(t, full, mid)
	assert.GreaterOrEqual(t, mid, 60)
}

func TestStdDev(t *testing.T) {
	assert.Zero(t, stdDev(nil))
	assert.Zero(t, stdDev([]float64{42, 42, 42}))
	assert.InDelta(t, 2.0, stdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
}
