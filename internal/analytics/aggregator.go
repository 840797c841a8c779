// Package analytics turns raw usage facts into the normalized UsageMetrics
// snapshot the scoring engine consumes. Every function here is pure: the
// same RawUsage input always yields the same metrics, missing data is
// absorbed into documented defaults, and nothing is ever raised.
package analytics

import (
	"math"

	"github.com/planvisor/pkg/models"
)

// Config carries the aggregator's blend weights and caps. Defaults match
// the product's calibrated values; they are injected so tests and future
// recalibration do not touch code.
type Config struct {
	// Collaboration index blend, summing to 1.0.
	AssignmentWeight  float64 `yaml:"assignment_weight"`
	CommentWeight     float64 `yaml:"comment_weight"`
	AttachmentWeight  float64 `yaml:"attachment_weight"`
	MultiMemberWeight float64 `yaml:"multi_member_weight"`

	// Comment/attachment density caps, per task.
	CommentDensityCap    float64 `yaml:"comment_density_cap"`
	AttachmentDensityCap float64 `yaml:"attachment_density_cap"`

	// Complexity index blend, summing to 1.0, with per-signal saturation
	// points (the count at which a signal scores 1.0).
	TaskWeight        float64 `yaml:"task_weight"`
	PhaseWeight       float64 `yaml:"phase_weight"`
	CustomFieldWeight float64 `yaml:"custom_field_weight"`
	DependencyWeight  float64 `yaml:"dependency_weight"`
	MemberWeight      float64 `yaml:"member_weight"`
	TaskSaturation        int `yaml:"task_saturation"`
	PhaseSaturation       int `yaml:"phase_saturation"`
	CustomFieldSaturation int `yaml:"custom_field_saturation"`
	DependencySaturation  int `yaml:"dependency_saturation"`
	MemberSaturation      int `yaml:"member_saturation"`

	// Monthly growth rate cap.
	MaxMonthlyGrowthRate float64 `yaml:"max_monthly_growth_rate"`
}

// DefaultConfig returns the calibrated aggregator configuration.
func DefaultConfig() Config {
	return Config{
		AssignmentWeight:  0.30,
		CommentWeight:     0.25,
		AttachmentWeight:  0.20,
		MultiMemberWeight: 0.25,

		CommentDensityCap:    2.0,
		AttachmentDensityCap: 1.0,

		TaskWeight:        0.30,
		PhaseWeight:       0.20,
		CustomFieldWeight: 0.20,
		DependencyWeight:  0.15,
		MemberWeight:      0.15,

		TaskSaturation:        500,
		PhaseSaturation:       50,
		CustomFieldSaturation: 30,
		DependencySaturation:  100,
		MemberSaturation:      50,

		MaxMonthlyGrowthRate: 0.5,
	}
}

// Aggregator computes UsageMetrics from raw facts.
type Aggregator struct {
	config Config
}

// NewAggregator creates an aggregator with the given configuration.
func NewAggregator(config Config) *Aggregator {
	return &Aggregator{config: config}
}

// Defaults substituted when a ratio's denominator is zero. Each represents
// "insufficient data, assume average" for its feature.
const (
	defaultGanttRatio        = 0.2
	defaultTimeTrackingRatio = 0.3
	defaultCustomFieldRatio  = 0.2
	defaultReportingRatio    = 0.1
	defaultPermissionsRatio  = 0.1
	defaultClientPortalRatio = 0.1
	defaultResourceRatio     = 0.2
	defaultCollabComponent   = 0.3
)

// Aggregate produces a complete, clamped UsageMetrics for one organization.
// It never fails: zero or missing inputs fall back to conservative defaults.
func (a *Aggregator) Aggregate(raw models.RawUsage) models.UsageMetrics {
	return models.UsageMetrics{
		OrganizationID:     raw.OrganizationID,
		TotalUsers:         nonNegative(raw.TotalMembers),
		ActiveUsers:        nonNegative(raw.ActiveMembers),
		TotalProjects:      nonNegative(raw.TotalProjects),
		ActiveProjects:     nonNegative(raw.ActiveProjects),
		StorageUsedBytes:   maxInt64(0, raw.StorageUsedBytes),
		FeatureUtilization: a.featureUtilization(raw),
		GrowthTrend:        a.growthTrend(raw),
		CollaborationIndex: a.collaborationIndex(raw),
		ComplexityIndex:    a.complexityIndex(raw),
	}
}

func (a *Aggregator) featureUtilization(raw models.RawUsage) models.FeatureUtilization {
	return models.FeatureUtilization{
		GanttCharts:  ratio(raw.ProjectsWithGantt, raw.TotalProjects, defaultGanttRatio),
		TimeTracking: ratio(raw.TasksWithTimeLogs, raw.TotalTasks, defaultTimeTrackingRatio),
		CustomFields: ratio(raw.ProjectsWithCustomFields, raw.TotalProjects, defaultCustomFieldRatio),
		// Reporting saturates at four generated reports per active member.
		Reporting:    ratio(raw.ReportsGenerated, raw.ActiveMembers*4, defaultReportingRatio),
		Integrations: ratio(raw.ActiveIntegrations, 5, 0),
		AdvancedPermissions: ratio(raw.MembersWithCustomRoles, raw.TotalMembers, defaultPermissionsRatio),
		ClientPortal:        ratio(raw.ProjectsWithClientAccess, raw.TotalProjects, defaultClientPortalRatio),
		// Resource management saturates at two workload views per active member.
		ResourceManagement: ratio(raw.WorkloadViews, raw.ActiveMembers*2, defaultResourceRatio),
	}
}

func (a *Aggregator) collaborationIndex(raw models.RawUsage) float64 {
	cfg := a.config

	assignment := ratio(raw.AssignedTasks, raw.TotalTasks, defaultCollabComponent)

	commentDensity := defaultCollabComponent
	if raw.TotalTasks > 0 {
		commentDensity = math.Min(float64(raw.Comments)/float64(raw.TotalTasks), cfg.CommentDensityCap) / cfg.CommentDensityCap
	}

	attachmentDensity := defaultCollabComponent
	if raw.TotalTasks > 0 {
		attachmentDensity = math.Min(float64(raw.Attachments)/float64(raw.TotalTasks), cfg.AttachmentDensityCap) / cfg.AttachmentDensityCap
	}

	multiMember := ratio(raw.MultiMemberProjects, raw.TotalProjects, defaultCollabComponent)

	index := assignment*cfg.AssignmentWeight +
		commentDensity*cfg.CommentWeight +
		attachmentDensity*cfg.AttachmentWeight +
		multiMember*cfg.MultiMemberWeight
	return clamp01(index)
}

func (a *Aggregator) complexityIndex(raw models.RawUsage) float64 {
	cfg := a.config
	index := saturate(raw.TotalTasks, cfg.TaskSaturation)*cfg.TaskWeight +
		saturate(raw.PhaseCount, cfg.PhaseSaturation)*cfg.PhaseWeight +
		saturate(raw.CustomFieldDefs, cfg.CustomFieldSaturation)*cfg.CustomFieldWeight +
		saturate(raw.DependencyCount, cfg.DependencySaturation)*cfg.DependencyWeight +
		saturate(raw.TotalMembers, cfg.MemberSaturation)*cfg.MemberWeight
	return clamp01(index)
}

func (a *Aggregator) growthTrend(raw models.RawUsage) models.GrowthTrend {
	userRate := a.monthlyRate(raw.MonthlyNewUsers, raw.TotalMembers)
	projectRate := a.monthlyRate(raw.MonthlyNewProjects, raw.TotalProjects)
	storageRate := a.monthlyRateInt64(raw.MonthlyNewStorageB, raw.StorageUsedBytes)

	return models.GrowthTrend{
		UserGrowthRate:        userRate,
		ProjectGrowthRate:     projectRate,
		StorageGrowthRate:     storageRate,
		Predicted3MonthUsers:  ProjectCompound(raw.TotalMembers, userRate, 3),
		Predicted6MonthUsers:  ProjectCompound(raw.TotalMembers, userRate, 6),
		Predicted12MonthUsers: ProjectCompound(raw.TotalMembers, userRate, 12),
	}
}

// monthlyRate averages month-over-month new-unit counts against the current
// total, capped at the configured maximum. No history means no growth.
func (a *Aggregator) monthlyRate(monthlyNew []int, currentTotal int) float64 {
	if len(monthlyNew) == 0 || currentTotal <= 0 {
		return 0
	}
	var sum int
	for _, n := range monthlyNew {
		if n > 0 {
			sum += n
		}
	}
	avg := float64(sum) / float64(len(monthlyNew))
	return math.Min(avg/float64(currentTotal), a.config.MaxMonthlyGrowthRate)
}

func (a *Aggregator) monthlyRateInt64(monthlyNew []int64, currentTotal int64) float64 {
	if len(monthlyNew) == 0 || currentTotal <= 0 {
		return 0
	}
	var sum int64
	for _, n := range monthlyNew {
		if n > 0 {
			sum += n
		}
	}
	avg := float64(sum) / float64(len(monthlyNew))
	return math.Min(avg/float64(currentTotal), a.config.MaxMonthlyGrowthRate)
}

// ProjectCompound projects a count forward by months of compound growth:
// ceil(current x (1+rate)^months).
func ProjectCompound(current int, rate float64, months int) int {
	if current <= 0 {
		return 0
	}
	if rate <= 0 {
		return current
	}
	return int(math.Ceil(float64(current) * math.Pow(1+rate, float64(months))))
}

// ratio divides observed by denominator clamped to [0,1], substituting a
// documented default when the denominator is zero.
func ratio(observed, denominator int, zeroDefault float64) float64 {
	if denominator <= 0 {
		return zeroDefault
	}
	return clamp01(float64(observed) / float64(denominator))
}

func saturate(count, saturation int) float64 {
	if saturation <= 0 {
		return 0
	}
	return clamp01(float64(count) / float64(saturation))
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
