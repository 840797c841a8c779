package costbenefit

import (
	"math"

	"github.com/planvisor/pkg/models"
)

var probabilityWeight = map[models.RiskProbability]float64{
	models.ProbabilityLow:    1,
	models.ProbabilityMedium: 2,
	models.ProbabilityHigh:   3,
}

var impactWeight = map[models.RiskImpact]float64{
	models.ImpactLow:      1,
	models.ImpactMedium:   2,
	models.ImpactHigh:     3,
	models.ImpactCritical: 4,
}

// maxWeightedRisk is the highest possible probability x impact product,
// used to normalize the overall score onto [0,100].
const maxWeightedRisk = 12

// AnalyzeRisk enumerates categorical migration, business, and technical
// risks and derives the overall score from probability x impact averages.
func (a *Analyzer) AnalyzeRisk(category models.UserCategory, metrics models.UsageMetrics, cost models.DetailedCostAnalysis) models.RiskAssessment {
	assessment := models.RiskAssessment{
		MigrationRisks: a.migrationRisks(category, metrics),
		BusinessRisks:  a.businessRisks(cost),
		TechnicalRisks: technicalRisks(metrics),
	}

	var sum float64
	var count int
	for _, group := range [][]models.RiskItem{assessment.MigrationRisks, assessment.BusinessRisks, assessment.TechnicalRisks} {
		for _, item := range group {
			sum += probabilityWeight[item.Probability] * impactWeight[item.Impact]
			count++
		}
	}
	if count > 0 {
		assessment.OverallRiskScore = int(math.Round(100 * (sum / float64(count)) / maxWeightedRisk))
	}
	return assessment
}

func (a *Analyzer) migrationRisks(category models.UserCategory, metrics models.UsageMetrics) []models.RiskItem {
	complexity := ComplexityFor(category)

	dataProb := models.ProbabilityLow
	switch complexity {
	case models.ComplexityModerate:
		dataProb = models.ProbabilityMedium
	case models.ComplexityComplex:
		dataProb = models.ProbabilityHigh
	}

	resistanceImpact := models.ImpactMedium
	if metrics.TotalUsers > 50 {
		resistanceImpact = models.ImpactHigh
	}

	risks := []models.RiskItem{
		{
			Category:    "data_migration",
			Description: "Project and task data must be transformed into the new plan's shape",
			Probability: dataProb,
			Impact:      models.ImpactHigh,
			Mitigation:  "Run a dry-run migration against a snapshot before cut-over",
		},
		{
			Category:    "user_resistance",
			Description: "Users pushing back on workflow or pricing changes",
			Probability: models.ProbabilityMedium,
			Impact:      resistanceImpact,
			Mitigation:  "Announce the change early and keep the old plan readable during transition",
		},
		{
			Category:    "downtime",
			Description: "Service interruption during the cut-over window",
			Probability: models.ProbabilityLow,
			Impact:      models.ImpactHigh,
			Mitigation:  "Schedule cut-over outside business hours",
		},
	}

	if category == models.CategoryCustomPlan {
		risks = append(risks, models.RiskItem{
			Category:    "feature_compatibility",
			Description: "Bespoke custom-plan features without an exact new-plan equivalent",
			Probability: models.ProbabilityHigh,
			Impact:      models.ImpactHigh,
			Mitigation:  "Review the equivalency report with the account owner before migrating",
		})
	} else {
		risks = append(risks, models.RiskItem{
			Category:    "feature_compatibility",
			Description: "Minor feature differences between the old and new plans",
			Probability: models.ProbabilityLow,
			Impact:      models.ImpactMedium,
		})
	}

	return risks
}

// businessRisks default to medium probability x medium impact; budget
// overrun escalates when the new plan costs more than the current one.
func (a *Analyzer) businessRisks(cost models.DetailedCostAnalysis) []models.RiskItem {
	budgetProb := models.ProbabilityMedium
	if cost.NewMonthlyCost <= cost.CurrentMonthlyCost {
		budgetProb = models.ProbabilityLow
	}
	return []models.RiskItem{
		{
			Category:    "budget_overrun",
			Description: "Actual spend exceeding the projected cost",
			Probability: budgetProb,
			Impact:      models.ImpactMedium,
		},
		{
			Category:    "roi",
			Description: "Quantified benefits failing to materialize",
			Probability: models.ProbabilityMedium,
			Impact:      models.ImpactMedium,
		},
	}
}

// technicalRisks default to medium x medium; integration risk rises with
// heavy integration usage.
func technicalRisks(metrics models.UsageMetrics) []models.RiskItem {
	integrationProb := models.ProbabilityMedium
	if metrics.FeatureUtilization.Integrations > 0.6 {
		integrationProb = models.ProbabilityHigh
	}
	return []models.RiskItem{
		{
			Category:    "integration",
			Description: "Connected third-party tools needing reconfiguration",
			Probability: integrationProb,
			Impact:      models.ImpactMedium,
		},
		{
			Category:    "performance",
			Description: "Workload characteristics behaving differently on the new plan",
			Probability: models.ProbabilityMedium,
			Impact:      models.ImpactMedium,
		},
		{
			Category:    "security",
			Description: "Permission model differences exposing data unintentionally",
			Probability: models.ProbabilityMedium,
			Impact:      models.ImpactMedium,
		},
	}
}
