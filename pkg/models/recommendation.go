package models

// MatchFactor is one of the five weighted scoring dimensions.
type MatchFactor string

const (
	FactorUserCount  MatchFactor = "user_count_fit"
	FactorFeatures   MatchFactor = "feature_requirement_fit"
	FactorBudget     MatchFactor = "budget_alignment"
	FactorUsage      MatchFactor = "usage_pattern_fit"
	FactorGrowth     MatchFactor = "growth_trajectory_fit"
)

// MatchReason explains one factor's contribution to a recommendation.
type MatchReason struct {
	Factor MatchFactor `json:"factor"`
	Score  float64     `json:"score"`  // [0,100]
	Weight float64     `json:"weight"` // factor weights sum to 1.0
	Detail string      `json:"detail"`
}

// PlanRecommendation is one scored candidate plan. MatchReasons always has
// exactly five entries, one per factor.
type PlanRecommendation struct {
	PlanTier            PlanTier             `json:"plan_tier"`
	PlanName            string               `json:"plan_name"`
	RecommendationScore int                  `json:"recommendation_score"` // [0,100]
	ConfidenceLevel     int                  `json:"confidence_level"`     // [0,100]
	MatchReasons        []MatchReason        `json:"match_reasons"`
	CostAnalysis        DetailedCostAnalysis `json:"cost_analysis"`
	Discounts           []MigrationDiscount  `json:"discounts"`
}

// MigrationSummary is the one-word verdict of the recommendation pass.
type MigrationSummary string

const (
	SummaryProceed  MigrationSummary = "proceed"
	SummaryPlan     MigrationSummary = "plan"
	SummaryStay     MigrationSummary = "stay"
	SummaryEvaluate MigrationSummary = "evaluate"
)

// UrgentAction is a deadline-style warning surfaced with recommendations.
type UrgentAction struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // info, warning, critical
	DaysLeft int    `json:"days_left"`
}

// SpecialOffer surfaces a category discount with a human-readable pitch.
type SpecialOffer struct {
	Discount    MigrationDiscount `json:"discount"`
	Headline    string            `json:"headline"`
	Description string            `json:"description"`
}

// PlanRecommendationResponse is the full output of the recommendation
// entry point.
type PlanRecommendationResponse struct {
	RequestID        string               `json:"request_id"`
	OrganizationID   string               `json:"organization_id"`
	UserAnalytics    UsageMetrics         `json:"user_analytics"`
	Category         UserCategory         `json:"category"`
	Eligibility      MigrationEligibility `json:"eligibility"`
	Recommendations  []PlanRecommendation `json:"recommendations"`
	UrgentActions    []UrgentAction       `json:"urgent_actions"`
	MigrationSummary MigrationSummary     `json:"migration_summary"`
	SpecialOffers    []SpecialOffer       `json:"special_offers"`
	ExecutiveSummary string               `json:"executive_summary,omitempty"`
}
