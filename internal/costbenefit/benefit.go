package costbenefit

import (
	"github.com/planvisor/pkg/models"
)

// featureUpgradeCandidates pairs each feature dimension with an accessor so
// upgrades can be enumerated without reflection.
var featureUpgradeCandidates = []struct {
	key         string
	description string
	has         func(models.PlanFeatures) bool
}{
	{"gantt_charts", "Gantt chart planning views", func(f models.PlanFeatures) bool { return f.GanttCharts }},
	{"time_tracking", "Built-in time tracking", func(f models.PlanFeatures) bool { return f.TimeTracking }},
	{"custom_fields", "Custom fields on tasks and projects", func(f models.PlanFeatures) bool { return f.CustomFields }},
	{"advanced_reporting", "Advanced reporting and dashboards", func(f models.PlanFeatures) bool { return f.AdvancedReporting }},
	{"integrations", "Third-party integrations", func(f models.PlanFeatures) bool { return f.Integrations }},
	{"advanced_permissions", "Granular roles and permissions", func(f models.PlanFeatures) bool { return f.AdvancedPermissions }},
	{"client_portal", "Client-facing portal", func(f models.PlanFeatures) bool { return f.ClientPortal }},
	{"resource_management", "Workload and resource management", func(f models.PlanFeatures) bool { return f.ResourceManagement }},
	{"api_access", "Public API access", func(f models.PlanFeatures) bool { return f.APIAccess }},
}

// AnalyzeBenefit enumerates the feature upgrades the target tier unlocks
// over the current baseline, plus recurring productivity gains, and sums
// both into the quantified annual value.
func (a *Analyzer) AnalyzeBenefit(def models.PlanDefinition, current models.PlanFeatures, metrics models.UsageMetrics) models.BenefitAnalysis {
	var benefit models.BenefitAnalysis

	for _, c := range featureUpgradeCandidates {
		if c.has(def.Features) && !c.has(current) {
			benefit.FeatureUpgrades = append(benefit.FeatureUpgrades, models.FeatureUpgrade{
				Feature:     c.key,
				Description: c.description,
				AnnualValue: a.config.FeatureValues[c.key],
			})
		}
	}

	benefit.ProductivityGains = a.productivityGains(def, metrics)

	for _, u := range benefit.FeatureUpgrades {
		benefit.QuantifiedAnnualValue += u.AnnualValue
	}
	for _, g := range benefit.ProductivityGains {
		benefit.QuantifiedAnnualValue += g.AnnualValue
	}
	return benefit
}

// productivityGains vary by tier: paid tiers bring basic task-management
// efficiency, Business tiers add reporting and client-communication time
// savings, Enterprise adds administrative-overhead reduction.
func (a *Analyzer) productivityGains(def models.PlanDefinition, metrics models.UsageMetrics) []models.ProductivityGain {
	if !def.IsPaid() {
		return nil
	}

	active := metrics.ActiveUsers
	if active < 1 {
		active = 1
	}

	gains := []models.ProductivityGain{
		a.gain("task management efficiency", active, 0.5),
	}
	if def.IsBusinessOrAbove() {
		gains = append(gains,
			a.gain("reporting automation", active, 2.0),
			a.gain("client communication", active, 1.0),
		)
	}
	if def.Tier == models.TierEnterprise {
		users := metrics.TotalUsers
		if users < 1 {
			users = 1
		}
		gains = append(gains, a.gain("administrative overhead reduction", users, 1.5))
	}
	return gains
}

func (a *Analyzer) gain(area string, users int, hoursPerUserPerMonth float64) models.ProductivityGain {
	return models.ProductivityGain{
		Area:                      area,
		UsersAffected:             users,
		HoursSavedPerUserPerMonth: hoursPerUserPerMonth,
		AnnualValue:               float64(users) * hoursPerUserPerMonth * a.config.HourlyRate * 12,
	}
}
