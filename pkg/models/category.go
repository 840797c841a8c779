package models

import "time"

// UserCategory is the resolved legacy classification of an organization.
// Exactly one category applies at a time.
type UserCategory string

const (
	CategoryTrial            UserCategory = "trial"
	CategoryFree             UserCategory = "free"
	CategoryCustomPlan       UserCategory = "custom_plan"
	CategoryAppSumo          UserCategory = "appsumo"
	CategoryNewUser          UserCategory = "new_user"
	CategoryActiveSubscriber UserCategory = "active_subscriber"
)

// DiscountType describes how a MigrationDiscount adjusts price.
type DiscountType string

const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
	DiscountFreeMonths  DiscountType = "free_months"
	DiscountBOGO        DiscountType = "bogo"
)

// MigrationDiscount is a reusable pricing adjustment. A DurationMonths of
// -1 means the discount is permanent. An empty EligiblePlans list means the
// discount applies to every plan.
type MigrationDiscount struct {
	Code           string       `json:"code"`
	Description    string       `json:"description"`
	Type           DiscountType `json:"type"`
	Value          float64      `json:"value"` // percent in [0,100] or dollar amount
	DurationMonths int          `json:"duration_months"`
	EligiblePlans  []PlanTier   `json:"eligible_plans,omitempty"`
	Stackable      bool         `json:"stackable"`
	OrganizationID string       `json:"organization_id,omitempty"` // set for org-scoped discounts
}

// Permanent reports whether the discount never expires.
func (d MigrationDiscount) Permanent() bool {
	return d.DurationMonths == -1
}

// AppliesTo reports whether the discount may be used with the given tier.
func (d MigrationDiscount) AppliesTo(tier PlanTier) bool {
	if len(d.EligiblePlans) == 0 {
		return true
	}
	for _, t := range d.EligiblePlans {
		if t == tier {
			return true
		}
	}
	return false
}

// MigrationEligibility describes what the organization may do given its
// resolved category.
type MigrationEligibility struct {
	Category          UserCategory        `json:"category"`
	IsEligible        bool                `json:"is_eligible"`
	EligiblePlans     []PlanTier          `json:"eligible_plans"`
	RecommendedPlan   PlanTier            `json:"recommended_plan"`
	Discounts         []MigrationDiscount `json:"discounts"`
	MigrationWindow   *MigrationWindow    `json:"migration_window,omitempty"`
	PreservedBenefits []string            `json:"preserved_benefits,omitempty"`
}

// MigrationWindow is a time-boxed eligibility period, currently only used
// for the AppSumo special offer.
type MigrationWindow struct {
	RemainingDays              int  `json:"remaining_days"`
	EligibleForSpecialDiscount bool `json:"eligible_for_special_discount"`
	AlreadyMigrated            bool `json:"already_migrated"`
}

// CustomPlanRecord is the legacy custom-plan row for an organization.
type CustomPlanRecord struct {
	OrganizationID  string                 `json:"organization_id"`
	MonthlyPrice    float64                `json:"monthly_price"`
	FeatureFlags    map[string]interface{} `json:"feature_flags"`
	PreservePricing bool                   `json:"preserve_pricing"`
}

// AppSumoPurchase records a redeemed AppSumo coupon.
type AppSumoPurchase struct {
	OrganizationID string    `json:"organization_id"`
	PurchasedAt    time.Time `json:"purchased_at"`
	Migrated       bool      `json:"migrated"`
}

// SubscriptionRecord is the active-subscription state of an organization.
type SubscriptionRecord struct {
	OrganizationID string     `json:"organization_id"`
	Tier           PlanTier   `json:"tier"`
	Status         string     `json:"status"`
	TrialEndsAt    *time.Time `json:"trial_ends_at,omitempty"`
}

// OrganizationRecord is the minimal organization row the resolver needs.
type OrganizationRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
