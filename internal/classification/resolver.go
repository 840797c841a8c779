// Package classification resolves an organization's legacy plan category
// and the migration eligibility that category unlocks.
package classification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/planvisor/pkg/models"
)

// ErrOrganizationNotFound is returned when no organization record exists
// at all. Every other missing record defaults instead of failing.
var ErrOrganizationNotFound = errors.New("organization not found")

// Store supplies the legacy plan and subscription records the resolver
// classifies against. A nil record with a nil error means "no such record";
// only infrastructure failures return errors.
type Store interface {
	GetOrganization(ctx context.Context, orgID string) (*models.OrganizationRecord, error)
	GetCustomPlan(ctx context.Context, orgID string) (*models.CustomPlanRecord, error)
	GetAppSumoPurchase(ctx context.Context, orgID string) (*models.AppSumoPurchase, error)
	GetSubscription(ctx context.Context, orgID string) (*models.SubscriptionRecord, error)
}

// AppSumoMigrationWindowDays is the number of days after purchase during
// which the AppSumo special offer may be claimed.
const AppSumoMigrationWindowDays = 5

// NewUserWindowDays is how long after signup an organization without any
// subscription history counts as a new user.
const NewUserWindowDays = 30

// Resolver classifies organizations and produces their eligibility.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver backed by the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolution is the full classification output for one organization.
type Resolution struct {
	Category    models.UserCategory
	Eligibility models.MigrationEligibility
	CustomPlan  *models.CustomPlanRecord
	AppSumo     *models.AppSumoPurchase
	Current     *models.SubscriptionRecord
}

// Resolve determines exactly one category for the organization using the
// fixed priority order: AppSumo redeemed coupon, active custom plan,
// unexpired trial, active paid subscription, new user, free. The now
// argument anchors all day-count calculations so resolution stays
// deterministic.
func (r *Resolver) Resolve(ctx context.Context, orgID string, now time.Time) (*Resolution, error) {
	org, err := r.store.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization %s: %w", orgID, err)
	}
	if org == nil {
		return nil, fmt.Errorf("%w: %s", ErrOrganizationNotFound, orgID)
	}

	customPlan, err := r.store.GetCustomPlan(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to get custom plan for %s: %w", orgID, err)
	}
	appSumo, err := r.store.GetAppSumoPurchase(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to get appsumo purchase for %s: %w", orgID, err)
	}
	sub, err := r.store.GetSubscription(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription for %s: %w", orgID, err)
	}

	category := classify(org, customPlan, appSumo, sub, now)

	res := &Resolution{
		Category:   category,
		CustomPlan: customPlan,
		AppSumo:    appSumo,
		Current:    sub,
	}
	res.Eligibility = r.eligibilityFor(category, appSumo, now)
	return res, nil
}

func classify(org *models.OrganizationRecord, customPlan *models.CustomPlanRecord,
	appSumo *models.AppSumoPurchase, sub *models.SubscriptionRecord, now time.Time) models.UserCategory {

	if appSumo != nil {
		return models.CategoryAppSumo
	}
	if customPlan != nil {
		return models.CategoryCustomPlan
	}
	if sub != nil && sub.TrialEndsAt != nil && sub.TrialEndsAt.After(now) {
		return models.CategoryTrial
	}
	if sub != nil && sub.Status == "active" && sub.Tier != models.TierFree {
		return models.CategoryActiveSubscriber
	}
	if now.Sub(org.CreatedAt) <= NewUserWindowDays*24*time.Hour {
		return models.CategoryNewUser
	}
	return models.CategoryFree
}

func (r *Resolver) eligibilityFor(category models.UserCategory, appSumo *models.AppSumoPurchase, now time.Time) models.MigrationEligibility {
	el := models.MigrationEligibility{
		Category:        category,
		IsEligible:      true,
		EligiblePlans:   eligiblePlans(category),
		RecommendedPlan: recommendedPlan(category),
		Discounts:       CategoryDiscounts(category),
	}

	switch category {
	case models.CategoryAppSumo:
		window := appSumoWindow(appSumo, now)
		el.MigrationWindow = &window
		if !window.EligibleForSpecialDiscount {
			// Window closed: the 50% special offer is off the table, but
			// the organization may still migrate at list price.
			el.Discounts = nil
		}
		el.PreservedBenefits = []string{"AppSumo lifetime feature set honored during the first year"}
	case models.CategoryCustomPlan:
		el.PreservedBenefits = []string{"Eligible for a permanent grandfathered discount preserving the current price"}
	}

	return el
}

func appSumoWindow(purchase *models.AppSumoPurchase, now time.Time) models.MigrationWindow {
	if purchase == nil {
		return models.MigrationWindow{}
	}
	daysElapsed := int(now.Sub(purchase.PurchasedAt).Hours() / 24)
	remaining := AppSumoMigrationWindowDays - daysElapsed
	if remaining < 0 {
		remaining = 0
	}
	return models.MigrationWindow{
		RemainingDays:              remaining,
		EligibleForSpecialDiscount: remaining > 0 && !purchase.Migrated,
		AlreadyMigrated:            purchase.Migrated,
	}
}

func eligiblePlans(category models.UserCategory) []models.PlanTier {
	switch category {
	case models.CategoryAppSumo:
		return []models.PlanTier{models.TierBusinessSmall, models.TierBusinessLarge, models.TierEnterprise}
	case models.CategoryCustomPlan, models.CategoryActiveSubscriber:
		return []models.PlanTier{
			models.TierProSmall, models.TierProLarge,
			models.TierBusinessSmall, models.TierBusinessLarge, models.TierEnterprise,
		}
	default: // trial, free, new_user may also stay on or move to Free
		return append([]models.PlanTier{models.TierFree},
			models.TierProSmall, models.TierProLarge,
			models.TierBusinessSmall, models.TierBusinessLarge, models.TierEnterprise)
	}
}

func recommendedPlan(category models.UserCategory) models.PlanTier {
	switch category {
	case models.CategoryAppSumo, models.CategoryCustomPlan:
		return models.TierBusinessSmall
	default:
		return models.TierProSmall
	}
}

// CategoryDiscounts returns the discount catalog entry for a category.
// Discounts reference only tiers inside the category's eligible plan set.
func CategoryDiscounts(category models.UserCategory) []models.MigrationDiscount {
	switch category {
	case models.CategoryTrial:
		return []models.MigrationDiscount{{
			Code:           "TRIAL20",
			Description:    "20% off for 3 months when converting from trial",
			Type:           models.DiscountPercentage,
			Value:          20,
			DurationMonths: 3,
		}}
	case models.CategoryFree:
		return []models.MigrationDiscount{{
			Code:           "UPGRADE10",
			Description:    "10% off your first month on any paid plan",
			Type:           models.DiscountPercentage,
			Value:          10,
			DurationMonths: 1,
		}}
	case models.CategoryNewUser:
		return []models.MigrationDiscount{{
			Code:           "WELCOME15",
			Description:    "15% off for 2 months for new organizations",
			Type:           models.DiscountPercentage,
			Value:          15,
			DurationMonths: 2,
		}}
	case models.CategoryCustomPlan:
		return []models.MigrationDiscount{{
			Code:           "LEGACY25",
			Description:    "25% off for 12 months when leaving a custom plan",
			Type:           models.DiscountPercentage,
			Value:          25,
			DurationMonths: 12,
			Stackable:      true,
		}}
	case models.CategoryAppSumo:
		return []models.MigrationDiscount{{
			Code:           "SUMO50",
			Description:    "50% off for 12 months, Business tier or above",
			Type:           models.DiscountPercentage,
			Value:          50,
			DurationMonths: 12,
			EligiblePlans:  []models.PlanTier{models.TierBusinessSmall, models.TierBusinessLarge, models.TierEnterprise},
		}}
	default: // active subscribers migrate at list price
		return nil
	}
}
