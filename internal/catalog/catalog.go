// Package catalog holds the static pricing catalog. The catalog is
// configuration, not computation: the engine receives it at construction
// and never mutates it.
package catalog

import (
	"errors"
	"fmt"

	"github.com/planvisor/pkg/models"
)

// ErrUnknownTier is returned for tiers not present in the catalog. It is
// one of the two errors the engine ever propagates to callers.
var ErrUnknownTier = errors.New("unknown plan tier")

// Catalog resolves plan tiers to their definitions.
type Catalog struct {
	plans map[models.PlanTier]models.PlanDefinition
	order []models.PlanTier
}

// NewStatic returns the catalog backed by the built-in plan table.
func NewStatic() *Catalog {
	return New(defaultPlans())
}

// New builds a catalog from explicit definitions, preserving the order of
// models.AllTiers for deterministic iteration.
func New(defs []models.PlanDefinition) *Catalog {
	c := &Catalog{plans: make(map[models.PlanTier]models.PlanDefinition, len(defs))}
	for _, d := range defs {
		c.plans[d.Tier] = d
	}
	for _, t := range models.AllTiers {
		if _, ok := c.plans[t]; ok {
			c.order = append(c.order, t)
		}
	}
	return c
}

// Plan returns the definition for a tier.
func (c *Catalog) Plan(tier models.PlanTier) (models.PlanDefinition, error) {
	def, ok := c.plans[tier]
	if !ok {
		return models.PlanDefinition{}, fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
	return def, nil
}

// Tiers returns every catalog tier in evaluation order.
func (c *Catalog) Tiers() []models.PlanTier {
	out := make([]models.PlanTier, len(c.order))
	copy(out, c.order)
	return out
}

// MonthlyCost computes the undiscounted monthly cost of a plan for the
// given seat count under its pricing model.
func (c *Catalog) MonthlyCost(def models.PlanDefinition, users int) float64 {
	if users < 1 {
		users = 1
	}
	switch def.PricingModel {
	case models.PricingPerSeat:
		return def.PerSeatPrice * float64(users)
	case models.PricingBasePlusOverage:
		overage := users - def.IncludedSeats
		if overage < 0 {
			overage = 0
		}
		return def.MonthlyPrice + float64(overage)*def.OverageRate
	default: // flat
		return def.MonthlyPrice
	}
}

func defaultPlans() []models.PlanDefinition {
	return []models.PlanDefinition{
		{
			Tier:         models.TierFree,
			Name:         "Free",
			PricingModel: models.PricingFlat,
			MonthlyPrice: 0,
			MaxUsers:     3,
			StorageGB:    1,
			Features:     models.PlanFeatures{},
			Support:      models.SupportCommunity,
		},
		{
			Tier:         models.TierProSmall,
			Name:         "Pro Small",
			PricingModel: models.PricingPerSeat,
			PerSeatPrice: 5.99,
			MaxUsers:     15,
			StorageGB:    25,
			Features: models.PlanFeatures{
				GanttCharts:  true,
				TimeTracking: true,
				CustomFields: true,
				Integrations: true,
			},
			Support: models.SupportStandard,
		},
		{
			Tier:         models.TierProLarge,
			Name:         "Pro Large",
			PricingModel: models.PricingPerSeat,
			PerSeatPrice: 4.99,
			MaxUsers:     50,
			StorageGB:    100,
			Features: models.PlanFeatures{
				GanttCharts:  true,
				TimeTracking: true,
				CustomFields: true,
				Integrations: true,
				APIAccess:    true,
			},
			Support: models.SupportStandard,
		},
		{
			Tier:         models.TierBusinessSmall,
			Name:         "Business Small",
			PricingModel: models.PricingFlat,
			MonthlyPrice: 99,
			MaxUsers:     50,
			StorageGB:    250,
			Features: models.PlanFeatures{
				GanttCharts:         true,
				TimeTracking:        true,
				CustomFields:        true,
				AdvancedReporting:   true,
				Integrations:        true,
				AdvancedPermissions: true,
				ClientPortal:        true,
				APIAccess:           true,
			},
			Support: models.SupportPriority,
		},
		{
			Tier:          models.TierBusinessLarge,
			Name:          "Business Large",
			PricingModel:  models.PricingBasePlusOverage,
			MonthlyPrice:  199,
			IncludedSeats: 100,
			OverageRate:   1.50,
			MaxUsers:      200,
			StorageGB:     1024,
			Features: models.PlanFeatures{
				GanttCharts:         true,
				TimeTracking:        true,
				CustomFields:        true,
				AdvancedReporting:   true,
				Integrations:        true,
				AdvancedPermissions: true,
				ClientPortal:        true,
				ResourceManagement:  true,
				APIAccess:           true,
			},
			Support: models.SupportPriority,
		},
		{
			Tier:          models.TierEnterprise,
			Name:          "Enterprise",
			PricingModel:  models.PricingBasePlusOverage,
			MonthlyPrice:  499,
			IncludedSeats: 250,
			OverageRate:   2.00,
			MaxUsers:      0, // unlimited
			StorageGB:     0, // unlimited
			Features: models.PlanFeatures{
				GanttCharts:         true,
				TimeTracking:        true,
				CustomFields:        true,
				AdvancedReporting:   true,
				Integrations:        true,
				AdvancedPermissions: true,
				ClientPortal:        true,
				ResourceManagement:  true,
				APIAccess:           true,
			},
			Support: models.SupportDedicated,
		},
	}
}
