package models

// RawUsage is the primitive fact bundle the usage data provider returns for
// one organization over an observation window. Providers must return a
// zero-valued struct rather than failing when an organization has no data.
type RawUsage struct {
	OrganizationID string `json:"organization_id"`

	TotalMembers  int `json:"total_members"`
	ActiveMembers int `json:"active_members"` // active within the window

	TotalProjects       int `json:"total_projects"`
	ActiveProjects      int `json:"active_projects"`
	MultiMemberProjects int `json:"multi_member_projects"`

	TotalTasks     int `json:"total_tasks"`
	AssignedTasks  int `json:"assigned_tasks"`
	CompletedTasks int `json:"completed_tasks"`
	Comments       int `json:"comments"`
	Attachments    int `json:"attachments"`

	PhaseCount      int `json:"phase_count"`
	CustomFieldDefs int `json:"custom_field_defs"`
	DependencyCount int `json:"dependency_count"`

	StorageUsedBytes int64 `json:"storage_used_bytes"`

	// Per-feature activity counts used for utilization ratios.
	ProjectsWithGantt        int `json:"projects_with_gantt"`
	TasksWithTimeLogs        int `json:"tasks_with_time_logs"`
	ProjectsWithCustomFields int `json:"projects_with_custom_fields"`
	ReportsGenerated         int `json:"reports_generated"`
	ActiveIntegrations       int `json:"active_integrations"`
	MembersWithCustomRoles   int `json:"members_with_custom_roles"`
	ProjectsWithClientAccess int `json:"projects_with_client_access"`
	WorkloadViews            int `json:"workload_views"`

	// Trailing six months of new-unit counts, oldest first. Slices may be
	// short or empty when the organization is younger than six months.
	MonthlyNewUsers    []int   `json:"monthly_new_users"`
	MonthlyNewProjects []int   `json:"monthly_new_projects"`
	MonthlyNewStorageB []int64 `json:"monthly_new_storage_bytes"`
}

// FeatureUtilization holds per-feature usage ratios, each in [0,1].
type FeatureUtilization struct {
	GanttCharts         float64 `json:"gantt_charts"`
	TimeTracking        float64 `json:"time_tracking"`
	CustomFields        float64 `json:"custom_fields"`
	Reporting           float64 `json:"reporting"`
	Integrations        float64 `json:"integrations"`
	AdvancedPermissions float64 `json:"advanced_permissions"`
	ClientPortal        float64 `json:"client_portal"`
	ResourceManagement  float64 `json:"resource_management"`
}

// GrowthTrend extrapolates historical growth into user/project/storage
// projections via compound growth.
type GrowthTrend struct {
	UserGrowthRate    float64 `json:"user_growth_rate"`    // monthly, capped at 0.5
	ProjectGrowthRate float64 `json:"project_growth_rate"`
	StorageGrowthRate float64 `json:"storage_growth_rate"`

	Predicted3MonthUsers  int `json:"predicted_3_month_users"`
	Predicted6MonthUsers  int `json:"predicted_6_month_users"`
	Predicted12MonthUsers int `json:"predicted_12_month_users"`
}

// UsageMetrics is the normalized consumption snapshot the scoring engine
// consumes. All ratio fields are clamped to [0,1]; counts are never negative.
type UsageMetrics struct {
	OrganizationID string `json:"organization_id"`

	TotalUsers       int   `json:"total_users"`
	ActiveUsers      int   `json:"active_users"`
	TotalProjects    int   `json:"total_projects"`
	ActiveProjects   int   `json:"active_projects"`
	StorageUsedBytes int64 `json:"storage_used_bytes"`

	FeatureUtilization FeatureUtilization `json:"feature_utilization"`
	GrowthTrend        GrowthTrend        `json:"growth_trend"`

	CollaborationIndex float64 `json:"collaboration_index"` // [0,1]
	ComplexityIndex    float64 `json:"complexity_index"`    // [0,1]
}
