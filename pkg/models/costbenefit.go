package models

// DetailedCostAnalysis is the financial projection for one target plan.
// All costs are non-negative dollar amounts. PaybackPeriodMonths is nil
// unless the migration produces positive monthly savings.
type DetailedCostAnalysis struct {
	CurrentMonthlyCost   float64  `json:"current_monthly_cost"`
	NewMonthlyCost       float64  `json:"new_monthly_cost"` // after best discount
	BaseMonthlyCost      float64  `json:"base_monthly_cost"` // before discounts
	FirstYearCost        float64  `json:"first_year_cost"`
	ThreeYearCost        float64  `json:"three_year_cost"`
	FiveYearCost         float64  `json:"five_year_cost"`
	MigrationCost        float64  `json:"migration_cost"`
	MonthlySavings       float64  `json:"monthly_savings"`
	PaybackPeriodMonths  *int     `json:"payback_period_months,omitempty"`
	CostPerUser          float64  `json:"cost_per_user"`
	AppliedDiscount      *MigrationDiscount `json:"applied_discount,omitempty"`
}

// FeatureUpgrade is one capability unlocked by the target tier, with a
// fixed estimated annual dollar value.
type FeatureUpgrade struct {
	Feature     string  `json:"feature"`
	Description string  `json:"description"`
	AnnualValue float64 `json:"annual_value"`
}

// ProductivityGain quantifies recurring time savings in dollars:
// UsersAffected x HoursSavedPerUserPerMonth x hourly rate x 12.
type ProductivityGain struct {
	Area                      string  `json:"area"`
	UsersAffected             int     `json:"users_affected"`
	HoursSavedPerUserPerMonth float64 `json:"hours_saved_per_user_per_month"`
	AnnualValue               float64 `json:"annual_value"`
}

// BenefitAnalysis quantifies the upside of migrating.
type BenefitAnalysis struct {
	FeatureUpgrades       []FeatureUpgrade   `json:"feature_upgrades"`
	ProductivityGains     []ProductivityGain `json:"productivity_gains"`
	QuantifiedAnnualValue float64            `json:"quantified_annual_value"`
}

// RiskProbability and RiskImpact are the ordinal inputs of the risk model.
type RiskProbability string

const (
	ProbabilityLow    RiskProbability = "low"
	ProbabilityMedium RiskProbability = "medium"
	ProbabilityHigh   RiskProbability = "high"
)

type RiskImpact string

const (
	ImpactLow      RiskImpact = "low"
	ImpactMedium   RiskImpact = "medium"
	ImpactHigh     RiskImpact = "high"
	ImpactCritical RiskImpact = "critical"
)

// RiskItem is one categorical risk tagged probability x impact.
type RiskItem struct {
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Probability RiskProbability `json:"probability"`
	Impact      RiskImpact      `json:"impact"`
	Mitigation  string          `json:"mitigation,omitempty"`
}

// RiskAssessment quantifies the downside and uncertainty of a migration.
type RiskAssessment struct {
	MigrationRisks   []RiskItem `json:"migration_risks"`
	BusinessRisks    []RiskItem `json:"business_risks"`
	TechnicalRisks   []RiskItem `json:"technical_risks"`
	OverallRiskScore int        `json:"overall_risk_score"` // [0,100]
}

// DecisionAction is the analyzer's verdict on a candidate migration.
type DecisionAction string

const (
	DecisionProceed DecisionAction = "proceed"
	DecisionDelay   DecisionAction = "delay"
	DecisionModify  DecisionAction = "modify"
	DecisionReject  DecisionAction = "reject"
)

// DecisionRecommendation carries the verdict plus its rationale.
type DecisionRecommendation struct {
	Action     DecisionAction `json:"action"`
	Priority   string         `json:"priority"` // critical, high, medium, low
	Rationale  string         `json:"rationale"`
	NetBenefit float64        `json:"net_benefit"`
}

// MigrationComplexity bands how involved a migration is.
type MigrationComplexity string

const (
	ComplexitySimple   MigrationComplexity = "simple"
	ComplexityModerate MigrationComplexity = "moderate"
	ComplexityComplex  MigrationComplexity = "complex"
)

// TimelinePhase is one step of the fixed four-phase migration plan.
type TimelinePhase struct {
	Name         string `json:"name"`
	DurationDays int    `json:"duration_days"`
	Description  string `json:"description"`
}

// MigrationTimeline is the planning/migration/validation/go-live schedule.
type MigrationTimeline struct {
	Phases    []TimelinePhase `json:"phases"`
	TotalDays int             `json:"total_days"`
}

// MigrationScenario re-runs the cost projection under an adjusted growth
// assumption.
type MigrationScenario struct {
	Name             string  `json:"name"` // conservative, expected, optimistic
	GrowthRate       float64 `json:"growth_rate"`
	ProjectedUsers   int     `json:"projected_users"` // at 12 months
	FirstYearCost    float64 `json:"first_year_cost"`
	ThreeYearCost    float64 `json:"three_year_cost"`
}

// DetailedMigrationCostBenefit is the full deep-dive output for one
// candidate target plan.
type DetailedMigrationCostBenefit struct {
	OrganizationID string               `json:"organization_id"`
	TargetTier     PlanTier             `json:"target_tier"`
	Category       UserCategory         `json:"category"`
	Cost           DetailedCostAnalysis `json:"cost"`
	Benefit        BenefitAnalysis      `json:"benefit"`
	Risk           RiskAssessment       `json:"risk"`
	Timeline       MigrationTimeline    `json:"timeline"`
	Decision       DecisionRecommendation `json:"decision"`
	Recommendations []string            `json:"recommendations"`
	Scenarios      []MigrationScenario  `json:"scenarios"`
}
