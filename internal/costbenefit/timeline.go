package costbenefit

import (
	"github.com/planvisor/pkg/models"
)

// Timeline returns the fixed four-phase migration plan. Custom-plan
// migrations need longer planning and execution because bespoke data
// shapes have to be mapped by hand.
func Timeline(category models.UserCategory) models.MigrationTimeline {
	planningDays, migrationDays := 7, 5
	if category == models.CategoryCustomPlan {
		planningDays, migrationDays = 14, 10
	}

	phases := []models.TimelinePhase{
		{Name: "planning", DurationDays: planningDays, Description: "Map data, confirm discounts, and schedule the cut-over"},
		{Name: "migration", DurationDays: migrationDays, Description: "Move projects, tasks, and billing to the new plan"},
		{Name: "validation", DurationDays: 4, Description: "Verify data integrity and feature access"},
		{Name: "go_live", DurationDays: 2, Description: "Switch users over and retire the legacy plan"},
	}

	total := 0
	for _, p := range phases {
		total += p.DurationDays
	}
	return models.MigrationTimeline{Phases: phases, TotalDays: total}
}
