package costbenefit

import (
	"math"

	"github.com/planvisor/pkg/models"
)

// AnalyzeCost projects the financial impact of moving users seats onto the
// target plan. The single highest-value percentage or fixed-amount discount
// applies; multi-year figures blend discounted and regular months when the
// discount expires before the horizon.
func (a *Analyzer) AnalyzeCost(def models.PlanDefinition, users int, currentMonthly float64,
	discounts []models.MigrationDiscount, complexity models.MigrationComplexity) models.DetailedCostAnalysis {

	base := a.catalog.MonthlyCost(def, users)
	applied, effective := bestDiscount(def, base, discounts)

	analysis := models.DetailedCostAnalysis{
		CurrentMonthlyCost: math.Max(0, currentMonthly),
		BaseMonthlyCost:    base,
		NewMonthlyCost:     effective,
		FirstYearCost:      blendedCost(base, effective, applied, 12),
		ThreeYearCost:      blendedCost(base, effective, applied, 36),
		FiveYearCost:       blendedCost(base, effective, applied, 60),
		MigrationCost:      a.migrationCost(users, complexity),
		AppliedDiscount:    applied,
	}

	analysis.MonthlySavings = analysis.CurrentMonthlyCost - effective
	if analysis.MonthlySavings > 0 {
		payback := int(math.Ceil(analysis.MigrationCost / analysis.MonthlySavings))
		analysis.PaybackPeriodMonths = &payback
	}

	seatCount := users
	if seatCount < 1 {
		seatCount = 1
	}
	analysis.CostPerUser = effective / float64(seatCount)

	return analysis
}

// bestDiscount picks the single percentage or fixed-amount discount with
// the highest monetary value against this plan's base cost. The effective
// price is floored at zero.
func bestDiscount(def models.PlanDefinition, base float64, discounts []models.MigrationDiscount) (*models.MigrationDiscount, float64) {
	var best *models.MigrationDiscount
	var bestValue float64

	for i := range discounts {
		d := discounts[i]
		if !d.AppliesTo(def.Tier) {
			continue
		}
		var value float64
		switch d.Type {
		case models.DiscountPercentage:
			value = base * d.Value / 100
		case models.DiscountFixedAmount:
			value = math.Min(d.Value, base)
		default:
			continue // free_months and bogo do not reduce the sticker price
		}
		if value > bestValue {
			best = &discounts[i]
			bestValue = value
		}
	}

	effective := math.Max(0, base-bestValue)
	return best, effective
}

// blendedCost sums cost over a horizon, charging the discounted rate for
// the discount's duration and the full rate afterwards. Permanent
// discounts (duration -1) cover the whole horizon.
func blendedCost(base, effective float64, discount *models.MigrationDiscount, months int) float64 {
	if discount == nil {
		return base * float64(months)
	}
	discountedMonths := months
	if !discount.Permanent() && discount.DurationMonths < months {
		discountedMonths = discount.DurationMonths
	}
	return effective*float64(discountedMonths) + base*float64(months-discountedMonths)
}

// migrationCost is the one-time fee: a base fee scaled by category
// complexity plus a per-user surcharge capped at the configured ceiling.
func (a *Analyzer) migrationCost(users int, complexity models.MigrationComplexity) float64 {
	mult, ok := a.config.ComplexityMultiplier[complexity]
	if !ok {
		mult = 1.0
	}
	surcharge := math.Min(a.config.PerUserSurcharge*float64(users), a.config.SurchargeCeiling)
	return a.config.MigrationBaseFee*mult + surcharge
}
