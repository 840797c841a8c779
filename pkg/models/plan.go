package models

// PlanTier identifies a purchasable plan level.
type PlanTier string

const (
	TierFree          PlanTier = "free"
	TierProSmall      PlanTier = "pro_small"
	TierProLarge      PlanTier = "pro_large"
	TierBusinessSmall PlanTier = "business_small"
	TierBusinessLarge PlanTier = "business_large"
	TierEnterprise    PlanTier = "enterprise"
)

// AllTiers lists every tier in catalog order. Evaluation order matters for
// stable tie-breaking when recommendations share a score.
var AllTiers = []PlanTier{
	TierFree,
	TierProSmall,
	TierProLarge,
	TierBusinessSmall,
	TierBusinessLarge,
	TierEnterprise,
}

// PricingModel describes how a plan's monthly cost is computed.
type PricingModel string

const (
	PricingFlat            PricingModel = "flat"
	PricingPerSeat         PricingModel = "per_seat"
	PricingBasePlusOverage PricingModel = "base_plus_overage"
)

// SupportTier is an ordinal support level; higher is better.
type SupportTier int

const (
	SupportCommunity SupportTier = iota
	SupportStandard
	SupportPriority
	SupportDedicated
)

// PlanFeatures enumerates the feature dimensions a plan may include.
// These are the same dimensions the equivalency mapper scores against.
type PlanFeatures struct {
	GanttCharts         bool `json:"gantt_charts"`
	TimeTracking        bool `json:"time_tracking"`
	CustomFields        bool `json:"custom_fields"`
	AdvancedReporting   bool `json:"advanced_reporting"`
	Integrations        bool `json:"integrations"`
	AdvancedPermissions bool `json:"advanced_permissions"`
	ClientPortal        bool `json:"client_portal"`
	ResourceManagement  bool `json:"resource_management"`
	APIAccess           bool `json:"api_access"`
}

// PlanDefinition is one entry of the pricing catalog.
type PlanDefinition struct {
	Tier          PlanTier     `json:"tier"`
	Name          string       `json:"name"`
	PricingModel  PricingModel `json:"pricing_model"`
	MonthlyPrice  float64      `json:"monthly_price"`   // flat price or base fee
	PerSeatPrice  float64      `json:"per_seat_price"`  // per-seat plans
	IncludedSeats int          `json:"included_seats"`  // base_plus_overage plans
	OverageRate   float64      `json:"overage_rate"`    // per seat over included
	MaxUsers      int          `json:"max_users"`       // 0 = unlimited
	StorageGB     int          `json:"storage_gb"`      // 0 = unlimited
	Features      PlanFeatures `json:"features"`
	Support       SupportTier  `json:"support"`
}

// Unlimited reports whether the plan has no seat cap.
func (p PlanDefinition) Unlimited() bool {
	return p.MaxUsers == 0
}

// IsPaid reports whether the plan carries a recurring charge.
func (p PlanDefinition) IsPaid() bool {
	return p.Tier != TierFree
}

// IsBusinessOrAbove reports whether the plan sits at or above the Business
// tiers, which gate the advanced feature set.
func (p PlanDefinition) IsBusinessOrAbove() bool {
	switch p.Tier {
	case TierBusinessSmall, TierBusinessLarge, TierEnterprise:
		return true
	}
	return false
}
