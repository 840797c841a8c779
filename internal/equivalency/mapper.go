// Package equivalency maps legacy custom plans onto the closest new plan
// tiers by weighted feature overlap, and synthesizes a grandfathered
// discount when preserving the old price is requested.
package equivalency

import (
	"math"
	"sort"
	"sync"

	"github.com/planvisor/internal/catalog"
	"github.com/planvisor/internal/costbenefit"
	"github.com/planvisor/pkg/models"
)

// Config carries the mapper's thresholds and blend weights.
type Config struct {
	// FeatureMatchFloor is the minimum feature-match percentage a tier
	// needs to be retained as an equivalency.
	FeatureMatchFloor float64 `yaml:"feature_match_floor"`

	// Composite recommendation blend, summing to 1.0.
	FeatureWeight    float64 `yaml:"feature_weight"`
	CostWeight       float64 `yaml:"cost_weight"`
	ComplexityWeight float64 `yaml:"complexity_weight"`
	PlanFitWeight    float64 `yaml:"plan_fit_weight"`
}

// DefaultConfig returns the calibrated mapper configuration.
func DefaultConfig() Config {
	return Config{
		FeatureMatchFloor: 70,
		FeatureWeight:     0.40,
		CostWeight:        0.30,
		ComplexityWeight:  0.20,
		PlanFitWeight:     0.10,
	}
}

// Mapper finds equivalent new tiers for legacy custom plans.
type Mapper struct {
	config   Config
	catalog  *catalog.Catalog
	analyzer *costbenefit.Analyzer
}

// NewMapper creates a mapper. The analyzer supplies the per-tier cost
// comparison attached to each equivalency.
func NewMapper(config Config, cat *catalog.Catalog, analyzer *costbenefit.Analyzer) *Mapper {
	return &Mapper{config: config, catalog: cat, analyzer: analyzer}
}

// featureDimension is one of the 12 weighted dimensions of the feature
// match. Weights sum to 100, so the weighted sum is already a percentage.
type featureDimension struct {
	name   string
	weight float64
	score  func(legacy models.LegacyPlanFeatures, def models.PlanDefinition) float64
}

var dimensions = []featureDimension{
	{"user_limit", 15, func(l models.LegacyPlanFeatures, d models.PlanDefinition) float64 {
		return limitCredit(l.MaxUsers, d.MaxUsers)
	}},
	{"storage", 10, func(l models.LegacyPlanFeatures, d models.PlanDefinition) float64 {
		return limitCredit(l.StorageGB, d.StorageGB)
	}},
	{"gantt_charts", 10, boolDim(func(l models.LegacyPlanFeatures) bool { return l.GanttCharts },
		func(f models.PlanFeatures) bool { return f.GanttCharts })},
	{"time_tracking", 10, boolDim(func(l models.LegacyPlanFeatures) bool { return l.TimeTracking },
		func(f models.PlanFeatures) bool { return f.TimeTracking })},
	{"advanced_reporting", 10, boolDim(func(l models.LegacyPlanFeatures) bool { return l.AdvancedReporting },
		func(f models.PlanFeatures) bool { return f.AdvancedReporting })},
	{"custom_fields", 8, boolDim(func(l models.LegacyPlanFeatures) bool { return l.CustomFields },
		func(f models.PlanFeatures) bool { return f.CustomFields })},
	{"integrations", 8, boolDim(func(l models.LegacyPlanFeatures) bool { return l.Integrations },
		func(f models.PlanFeatures) bool { return f.Integrations })},
	{"advanced_permissions", 8, boolDim(func(l models.LegacyPlanFeatures) bool { return l.AdvancedPermissions },
		func(f models.PlanFeatures) bool { return f.AdvancedPermissions })},
	{"client_portal", 6, boolDim(func(l models.LegacyPlanFeatures) bool { return l.ClientPortal },
		func(f models.PlanFeatures) bool { return f.ClientPortal })},
	{"resource_management", 6, boolDim(func(l models.LegacyPlanFeatures) bool { return l.ResourceManagement },
		func(f models.PlanFeatures) bool { return f.ResourceManagement })},
	{"priority_support", 5, func(l models.LegacyPlanFeatures, d models.PlanDefinition) float64 {
		// Ordinal comparison: same-or-better support earns full credit.
		if d.Support >= l.Support {
			return 1
		}
		return float64(d.Support+1) / float64(l.Support+1)
	}},
	{"api_access", 4, boolDim(func(l models.LegacyPlanFeatures) bool { return l.APIAccess },
		func(f models.PlanFeatures) bool { return f.APIAccess })},
}

// boolDim grants full credit when the legacy plan lacks the feature or the
// new plan provides it.
func boolDim(legacyHas func(models.LegacyPlanFeatures) bool, newHas func(models.PlanFeatures) bool) func(models.LegacyPlanFeatures, models.PlanDefinition) float64 {
	return func(l models.LegacyPlanFeatures, d models.PlanDefinition) float64 {
		if !legacyHas(l) || newHas(d.Features) {
			return 1
		}
		return 0
	}
}

// limitCredit grants partial credit on limit dimensions by the ratio of the
// new limit to the legacy limit. Zero means unlimited on either side.
func limitCredit(legacyLimit, newLimit int) float64 {
	if legacyLimit == 0 { // legacy unlimited
		if newLimit == 0 {
			return 1
		}
		return 0.5
	}
	if newLimit == 0 { // new unlimited covers any legacy cap
		return 1
	}
	return math.Min(1, float64(newLimit)/float64(legacyLimit))
}

// FeatureMatch computes the weighted feature-match percentage in [0,100]
// between a legacy feature set and a new tier.
func FeatureMatch(legacy models.LegacyPlanFeatures, def models.PlanDefinition) float64 {
	var total float64
	for _, dim := range dimensions {
		total += dim.weight * dim.score(legacy, def)
	}
	return total
}

// Map evaluates every non-free tier against the custom plan and returns
// the retained equivalencies sorted by recommendation score descending.
// Tiers below the feature-match floor are excluded.
func (m *Mapper) Map(plan models.CustomPlanRecord, metrics models.UsageMetrics) []models.PlanEquivalency {
	legacy := DecodeLegacyFeatures(plan.FeatureFlags)

	var candidates []models.PlanDefinition
	for _, tier := range m.catalog.Tiers() {
		def, err := m.catalog.Plan(tier)
		if err != nil || !def.IsPaid() {
			continue
		}
		candidates = append(candidates, def)
	}

	// Tier evaluations are independent; fan out and fill by index to keep
	// catalog order for stable tie-breaking.
	results := make([]*models.PlanEquivalency, len(candidates))
	var wg sync.WaitGroup
	for i, def := range candidates {
		wg.Add(1)
		go func(idx int, def models.PlanDefinition) {
			defer wg.Done()
			results[idx] = m.evaluate(plan, legacy, def, metrics)
		}(i, def)
	}
	wg.Wait()

	var retained []models.PlanEquivalency
	for _, r := range results {
		if r != nil {
			retained = append(retained, *r)
		}
	}
	sort.SliceStable(retained, func(i, j int) bool {
		return retained[i].RecommendationScore > retained[j].RecommendationScore
	})
	return retained
}

func (m *Mapper) evaluate(plan models.CustomPlanRecord, legacy models.LegacyPlanFeatures,
	def models.PlanDefinition, metrics models.UsageMetrics) *models.PlanEquivalency {

	match := FeatureMatch(legacy, def)
	if match < m.config.FeatureMatchFloor {
		return nil
	}

	complexity := complexityForMatch(match)
	cost := m.analyzer.AnalyzeCost(def, metrics.TotalUsers, plan.MonthlyPrice, nil, complexity)

	score := m.config.FeatureWeight*match +
		m.config.CostWeight*costScore(cost.BaseMonthlyCost, plan.MonthlyPrice) +
		m.config.ComplexityWeight*complexityScore(complexity) +
		m.config.PlanFitWeight*planFitScore(def, metrics.TotalUsers)

	eq := &models.PlanEquivalency{
		Tier:                def.Tier,
		FeatureMatchPercent: match,
		CostComparison:      cost,
		Complexity:          complexity,
		RecommendationScore: int(math.Round(math.Min(100, math.Max(0, score)))),
	}

	if plan.PreservePricing {
		eq.GrandfatheredDiscount = GrandfatherDiscount(plan, def.Tier, cost.BaseMonthlyCost)
	}
	return eq
}

// GrandfatherDiscount synthesizes the permanent, non-stackable,
// organization-scoped discount that makes the new tier cost the preserved
// legacy price. It only exists when the new tier costs more than the
// current custom price.
func GrandfatherDiscount(plan models.CustomPlanRecord, tier models.PlanTier, newCost float64) *models.MigrationDiscount {
	if newCost <= plan.MonthlyPrice || newCost <= 0 {
		return nil
	}
	percent := math.Round(100*(newCost-plan.MonthlyPrice)/newCost*10) / 10
	return &models.MigrationDiscount{
		Code:           "GRANDFATHER-" + plan.OrganizationID,
		Description:    "Preserves the legacy custom-plan price permanently",
		Type:           models.DiscountPercentage,
		Value:          percent,
		DurationMonths: -1,
		EligiblePlans:  []models.PlanTier{tier},
		Stackable:      false,
		OrganizationID: plan.OrganizationID,
	}
}

// complexityForMatch bands migration complexity by how closely the new
// tier covers the legacy feature set.
func complexityForMatch(match float64) models.MigrationComplexity {
	switch {
	case match >= 90:
		return models.ComplexitySimple
	case match >= 80:
		return models.ComplexityModerate
	default:
		return models.ComplexityComplex
	}
}

// costScore bands the percentage cost delta against the current price.
func costScore(newCost, currentCost float64) float64 {
	if currentCost <= 0 || newCost <= currentCost {
		return 100
	}
	delta := (newCost - currentCost) / currentCost
	switch {
	case delta <= 0.10:
		return 90
	case delta <= 0.30:
		return 70
	default:
		return 50
	}
}

func complexityScore(c models.MigrationComplexity) float64 {
	switch c {
	case models.ComplexitySimple:
		return 100
	case models.ComplexityModerate:
		return 70
	default:
		return 40
	}
}

// planFitScore rewards seat caps the organization actually uses.
func planFitScore(def models.PlanDefinition, users int) float64 {
	if def.Unlimited() {
		if users > 100 {
			return 100
		}
		return 60
	}
	if users > def.MaxUsers {
		return 40
	}
	utilization := float64(users) / float64(def.MaxUsers)
	if utilization >= 0.5 {
		return 100
	}
	return 70
}
