// Package costbenefit quantifies the cost, benefit, and risk of migrating
// an organization to a candidate target plan, and turns those numbers into
// a proceed/delay/modify/reject decision. All computation is pure.
package costbenefit

import (
	"fmt"
	"math"

	"github.com/planvisor/internal/analytics"
	"github.com/planvisor/internal/catalog"
	"github.com/planvisor/pkg/models"
)

// Config carries every tunable constant of the analyzer. The dollar-value
// and hours-saved figures are product estimates, not measurements; they are
// configuration so stakeholders can recalibrate them without code changes.
type Config struct {
	HourlyRate float64 `yaml:"hourly_rate"` // blended cost of one user hour

	MigrationBaseFee     float64 `yaml:"migration_base_fee"`
	PerUserSurcharge     float64 `yaml:"per_user_surcharge"`
	SurchargeCeiling     float64 `yaml:"surcharge_ceiling"`
	ComplexityMultiplier map[models.MigrationComplexity]float64 `yaml:"complexity_multiplier"`

	// Estimated annual dollar value per unlocked feature.
	FeatureValues map[string]float64 `yaml:"feature_values"`

	// Decision thresholds.
	DelayRiskThreshold float64 `yaml:"delay_risk_threshold"` // risk score above which we always delay
	MarginalFraction   float64 `yaml:"marginal_fraction"`    // |netBenefit| within this fraction of cost -> modify
	CriticalPaybackMonths int  `yaml:"critical_payback_months"`
	HighPaybackMonths     int  `yaml:"high_payback_months"`
}

// DefaultConfig returns the calibrated analyzer configuration.
func DefaultConfig() Config {
	return Config{
		HourlyRate: 50,

		MigrationBaseFee: 500,
		PerUserSurcharge: 10,
		SurchargeCeiling: 2000,
		ComplexityMultiplier: map[models.MigrationComplexity]float64{
			models.ComplexitySimple:   0.5,
			models.ComplexityModerate: 1.2,
			models.ComplexityComplex:  2.0,
		},

		FeatureValues: map[string]float64{
			"gantt_charts":         900,
			"time_tracking":        1500,
			"custom_fields":        800,
			"advanced_reporting":   2400,
			"integrations":         1200,
			"advanced_permissions": 1200,
			"client_portal":        1800,
			"resource_management":  2000,
			"api_access":           1000,
		},

		DelayRiskThreshold:    70,
		MarginalFraction:      0.10,
		CriticalPaybackMonths: 6,
		HighPaybackMonths:     12,
	}
}

// Analyzer produces migration cost-benefit analyses.
type Analyzer struct {
	config  Config
	catalog *catalog.Catalog
}

// NewAnalyzer creates an analyzer over the given pricing catalog.
func NewAnalyzer(config Config, cat *catalog.Catalog) *Analyzer {
	return &Analyzer{config: config, catalog: cat}
}

// Request bundles the inputs of one deep-dive analysis.
type Request struct {
	OrganizationID     string
	TargetTier         models.PlanTier
	Category           models.UserCategory
	Metrics            models.UsageMetrics
	CurrentMonthlyCost float64
	CurrentFeatures    models.PlanFeatures // baseline the upgrade is measured against
	Discounts          []models.MigrationDiscount
}

// Analyze produces the full DetailedMigrationCostBenefit for one candidate
// target plan. The only possible error is an unknown target tier.
func (a *Analyzer) Analyze(req Request) (*models.DetailedMigrationCostBenefit, error) {
	def, err := a.catalog.Plan(req.TargetTier)
	if err != nil {
		return nil, fmt.Errorf("cost-benefit analysis: %w", err)
	}

	complexity := ComplexityFor(req.Category)
	cost := a.AnalyzeCost(def, req.Metrics.TotalUsers, req.CurrentMonthlyCost, req.Discounts, complexity)
	benefit := a.AnalyzeBenefit(def, req.CurrentFeatures, req.Metrics)
	risk := a.AnalyzeRisk(req.Category, req.Metrics, cost)
	decision := a.Decide(cost, benefit, risk)

	return &models.DetailedMigrationCostBenefit{
		OrganizationID:  req.OrganizationID,
		TargetTier:      req.TargetTier,
		Category:        req.Category,
		Cost:            cost,
		Benefit:         benefit,
		Risk:            risk,
		Timeline:        Timeline(req.Category),
		Decision:        decision,
		Recommendations: advice(decision, cost, risk, complexity),
		Scenarios:       a.Scenarios(def, req.Metrics, req.Discounts),
	}, nil
}

// advice produces the human-readable action items accompanying a verdict.
func advice(decision models.DecisionRecommendation, cost models.DetailedCostAnalysis,
	risk models.RiskAssessment, complexity models.MigrationComplexity) []string {

	var out []string
	switch decision.Action {
	case models.DecisionProceed:
		out = append(out, "Schedule the migration within the current billing period to capture discount value")
	case models.DecisionDelay:
		out = append(out, "Address the highest probability-times-impact risks before re-evaluating")
	case models.DecisionModify:
		out = append(out, "Consider an adjacent tier or longer discount terms to move the net benefit off the margin")
	case models.DecisionReject:
		out = append(out, "Stay on the current plan and re-run the analysis after usage grows")
	}

	if cost.AppliedDiscount != nil && !cost.AppliedDiscount.Permanent() {
		out = append(out, fmt.Sprintf("The %s discount covers %d months; budget for the full rate afterwards",
			cost.AppliedDiscount.Code, cost.AppliedDiscount.DurationMonths))
	}
	if complexity == models.ComplexityComplex {
		out = append(out, "Review the custom-plan equivalency report before committing to a target tier")
	}
	if risk.OverallRiskScore >= 50 {
		out = append(out, "Assign a migration owner and a rollback plan before the cut-over window")
	}
	return out
}

// ComplexityFor bands migration complexity by the organization's category.
// Custom plans carry bespoke data shapes and are the only complex case.
func ComplexityFor(category models.UserCategory) models.MigrationComplexity {
	switch category {
	case models.CategoryCustomPlan:
		return models.ComplexityComplex
	case models.CategoryActiveSubscriber, models.CategoryAppSumo:
		return models.ComplexityModerate
	default:
		return models.ComplexitySimple
	}
}

// Decide turns the three analyses into a verdict. A risk score above the
// delay threshold always delays; a net benefit within the marginal band of
// first-year cost asks for plan modification; otherwise the sign of the net
// benefit decides, with priority scaling by payback speed.
func (a *Analyzer) Decide(cost models.DetailedCostAnalysis, benefit models.BenefitAnalysis, risk models.RiskAssessment) models.DecisionRecommendation {
	netBenefit := benefit.QuantifiedAnnualValue - cost.FirstYearCost

	if float64(risk.OverallRiskScore) > a.config.DelayRiskThreshold {
		return models.DecisionRecommendation{
			Action:     models.DecisionDelay,
			Priority:   "high",
			Rationale:  fmt.Sprintf("overall risk score %d exceeds the delay threshold", risk.OverallRiskScore),
			NetBenefit: netBenefit,
		}
	}

	if math.Abs(netBenefit) <= a.config.MarginalFraction*cost.FirstYearCost {
		return models.DecisionRecommendation{
			Action:     models.DecisionModify,
			Priority:   "medium",
			Rationale:  "net benefit is marginal; adjust the target plan or discount terms",
			NetBenefit: netBenefit,
		}
	}

	if netBenefit > 0 {
		priority := "medium"
		if cost.PaybackPeriodMonths != nil {
			switch {
			case *cost.PaybackPeriodMonths <= a.config.CriticalPaybackMonths:
				priority = "critical"
			case *cost.PaybackPeriodMonths <= a.config.HighPaybackMonths:
				priority = "high"
			}
		}
		return models.DecisionRecommendation{
			Action:     models.DecisionProceed,
			Priority:   priority,
			Rationale:  fmt.Sprintf("annual value exceeds first-year cost by $%.0f", netBenefit),
			NetBenefit: netBenefit,
		}
	}

	return models.DecisionRecommendation{
		Action:     models.DecisionReject,
		Priority:   "low",
		Rationale:  "first-year cost exceeds the quantified annual value",
		NetBenefit: netBenefit,
	}
}

// Scenarios re-runs the cost projection under conservative, expected, and
// optimistic growth assumptions.
func (a *Analyzer) Scenarios(def models.PlanDefinition, metrics models.UsageMetrics, discounts []models.MigrationDiscount) []models.MigrationScenario {
	base := metrics.GrowthTrend.UserGrowthRate
	variants := []struct {
		name string
		rate float64
	}{
		{"conservative", base * 0.5},
		{"expected", base},
		{"optimistic", math.Min(base*1.5, 0.5)},
	}

	complexity := models.ComplexitySimple // scenarios compare run-rate cost only
	out := make([]models.MigrationScenario, 0, len(variants))
	for _, v := range variants {
		projected := analytics.ProjectCompound(metrics.TotalUsers, v.rate, 12)
		cost := a.AnalyzeCost(def, projected, 0, discounts, complexity)
		out = append(out, models.MigrationScenario{
			Name:           v.name,
			GrowthRate:     v.rate,
			ProjectedUsers: projected,
			FirstYearCost:  cost.FirstYearCost,
			ThreeYearCost:  cost.ThreeYearCost,
		})
	}
	return out
}
