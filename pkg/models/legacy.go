package models

// LegacyPlanFeatures is the canonical decoded shape of a custom plan's
// stored feature flags. Decoding happens once at the system boundary;
// every scoring function downstream operates on this fully-populated type.
type LegacyPlanFeatures struct {
	MaxUsers            int         `json:"max_users"`  // 0 = unlimited
	StorageGB           int         `json:"storage_gb"` // 0 = unlimited
	GanttCharts         bool        `json:"gantt_charts"`
	TimeTracking        bool        `json:"time_tracking"`
	CustomFields        bool        `json:"custom_fields"`
	AdvancedReporting   bool        `json:"advanced_reporting"`
	Integrations        bool        `json:"integrations"`
	AdvancedPermissions bool        `json:"advanced_permissions"`
	ClientPortal        bool        `json:"client_portal"`
	ResourceManagement  bool        `json:"resource_management"`
	APIAccess           bool        `json:"api_access"`
	Support             SupportTier `json:"support"`
}

// PlanEquivalency maps a legacy custom plan onto one retained new tier.
// Only tiers with a feature match of at least 70% are retained.
type PlanEquivalency struct {
	Tier                PlanTier             `json:"tier"`
	FeatureMatchPercent float64              `json:"feature_match_percent"` // [0,100]
	CostComparison      DetailedCostAnalysis `json:"cost_comparison"`
	Complexity          MigrationComplexity  `json:"complexity"`
	RecommendationScore int                  `json:"recommendation_score"` // [0,100]
	GrandfatheredDiscount *MigrationDiscount `json:"grandfathered_discount,omitempty"`
}
