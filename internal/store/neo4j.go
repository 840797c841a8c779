// Package store provides the Neo4j-backed implementations of the engine's
// data collaborators: the usage data provider and the legacy plan and
// subscription store. The workspace graph (organizations, members,
// projects, tasks and their relationships) is what makes the collaboration
// metrics cheap to derive.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/planvisor/pkg/models"
)

// Config holds Neo4j connection settings.
type Config struct {
	URI         string        `yaml:"uri"`
	Database    string        `yaml:"database"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	MaxPoolSize int           `yaml:"max_pool_size"`
	ConnTimeout time.Duration `yaml:"conn_timeout"`
}

// Neo4jStore implements the usage data provider and the subscription store
// over the workspace graph.
type Neo4jStore struct {
	driver neo4j.DriverWithContext
	config Config
}

// NewNeo4jStore connects to Neo4j and verifies connectivity.
func NewNeo4jStore(config Config) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(
		config.URI,
		neo4j.BasicAuth(config.Username, config.Password, ""),
		func(c *neo4j.Config) {
			c.MaxConnectionPoolSize = config.MaxPoolSize
			c.MaxConnectionLifetime = time.Hour
			c.ConnectionAcquisitionTimeout = config.ConnTimeout
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}

	return &Neo4jStore{driver: driver, config: config}, nil
}

// Close releases the underlying driver.
func (s *Neo4jStore) Close() error {
	return s.driver.Close(context.Background())
}

// Ping verifies connectivity to the graph.
func (s *Neo4jStore) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// GetRawUsage collects the raw fact bundle for one organization. An
// organization with no graph presence yields a zero-valued bundle, never
// an error.
func (s *Neo4jStore) GetRawUsage(ctx context.Context, orgID string) (models.RawUsage, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.config.Database,
	})
	defer session.Close(ctx)

	raw := models.RawUsage{OrganizationID: orgID}

	result, err := session.Run(ctx, `
		MATCH (o:Organization {id: $orgID})
		OPTIONAL MATCH (o)<-[:MEMBER_OF]-(m:Member)
		OPTIONAL MATCH (o)-[:OWNS]->(p:Project)
		OPTIONAL MATCH (p)-[:CONTAINS]->(t:Task)
		RETURN
			count(DISTINCT m) AS totalMembers,
			count(DISTINCT CASE WHEN m.last_active >= $activeSince THEN m END) AS activeMembers,
			count(DISTINCT p) AS totalProjects,
			count(DISTINCT CASE WHEN p.status = 'active' THEN p END) AS activeProjects,
			count(DISTINCT CASE WHEN p.member_count > 1 THEN p END) AS multiMemberProjects,
			count(DISTINCT t) AS totalTasks,
			count(DISTINCT CASE WHEN t.assignee_id IS NOT NULL THEN t END) AS assignedTasks,
			count(DISTINCT CASE WHEN t.status = 'done' THEN t END) AS completedTasks,
			coalesce(sum(DISTINCT p.comment_count), 0) AS comments,
			coalesce(sum(DISTINCT p.attachment_count), 0) AS attachments,
			coalesce(sum(DISTINCT p.phase_count), 0) AS phases,
			coalesce(sum(DISTINCT p.dependency_count), 0) AS dependencies,
			coalesce(o.custom_field_defs, 0) AS customFieldDefs,
			coalesce(o.storage_used_bytes, 0) AS storageBytes,
			count(DISTINCT CASE WHEN p.has_gantt THEN p END) AS ganttProjects,
			count(DISTINCT CASE WHEN t.time_logged > 0 THEN t END) AS timeLoggedTasks,
			count(DISTINCT CASE WHEN p.custom_field_count > 0 THEN p END) AS customFieldProjects,
			coalesce(o.reports_generated, 0) AS reportsGenerated,
			coalesce(o.active_integrations, 0) AS activeIntegrations,
			count(DISTINCT CASE WHEN m.custom_role THEN m END) AS customRoleMembers,
			count(DISTINCT CASE WHEN p.client_access THEN p END) AS clientProjects,
			coalesce(o.workload_views, 0) AS workloadViews
	`, map[string]interface{}{
		"orgID":       orgID,
		"activeSince": time.Now().AddDate(0, 0, -30).Unix(),
	})
	if err != nil {
		return raw, fmt.Errorf("failed to query usage facts for %s: %w", orgID, err)
	}

	if result.Next(ctx) {
		rec := result.Record()
		raw.TotalMembers = intValue(rec, "totalMembers")
		raw.ActiveMembers = intValue(rec, "activeMembers")
		raw.TotalProjects = intValue(rec, "totalProjects")
		raw.ActiveProjects = intValue(rec, "activeProjects")
		raw.MultiMemberProjects = intValue(rec, "multiMemberProjects")
		raw.TotalTasks = intValue(rec, "totalTasks")
		raw.AssignedTasks = intValue(rec, "assignedTasks")
		raw.CompletedTasks = intValue(rec, "completedTasks")
		raw.Comments = intValue(rec, "comments")
		raw.Attachments = intValue(rec, "attachments")
		raw.PhaseCount = intValue(rec, "phases")
		raw.DependencyCount = intValue(rec, "dependencies")
		raw.CustomFieldDefs = intValue(rec, "customFieldDefs")
		raw.StorageUsedBytes = int64Value(rec, "storageBytes")
		raw.ProjectsWithGantt = intValue(rec, "ganttProjects")
		raw.TasksWithTimeLogs = intValue(rec, "timeLoggedTasks")
		raw.ProjectsWithCustomFields = intValue(rec, "customFieldProjects")
		raw.ReportsGenerated = intValue(rec, "reportsGenerated")
		raw.ActiveIntegrations = intValue(rec, "activeIntegrations")
		raw.MembersWithCustomRoles = intValue(rec, "customRoleMembers")
		raw.ProjectsWithClientAccess = intValue(rec, "clientProjects")
		raw.WorkloadViews = intValue(rec, "workloadViews")
	}

	growth, err := s.monthlyGrowth(ctx, session, orgID)
	if err != nil {
		// Growth history is optional; the aggregator defaults to no growth.
		return raw, nil
	}
	raw.MonthlyNewUsers = growth.users
	raw.MonthlyNewProjects = growth.projects
	raw.MonthlyNewStorageB = growth.storage

	return raw, nil
}

type growthCounts struct {
	users    []int
	projects []int
	storage  []int64
}

func (s *Neo4jStore) monthlyGrowth(ctx context.Context, session neo4j.SessionWithContext, orgID string) (growthCounts, error) {
	var g growthCounts
	result, err := session.Run(ctx, `
		MATCH (o:Organization {id: $orgID})-[:GROWTH_SAMPLE]->(gs:GrowthSample)
		WHERE gs.month >= $since
		RETURN gs.new_members AS users, gs.new_projects AS projects, gs.new_storage_bytes AS storage
		ORDER BY gs.month ASC
		LIMIT 6
	`, map[string]interface{}{
		"orgID": orgID,
		"since": time.Now().AddDate(0, -6, 0).Format("2006-01"),
	})
	if err != nil {
		return g, err
	}
	for result.Next(ctx) {
		rec := result.Record()
		g.users = append(g.users, intValue(rec, "users"))
		g.projects = append(g.projects, intValue(rec, "projects"))
		g.storage = append(g.storage, int64Value(rec, "storage"))
	}
	return g, nil
}

// GetOrganization returns the organization row, or nil when it does not
// exist.
func (s *Neo4jStore) GetOrganization(ctx context.Context, orgID string) (*models.OrganizationRecord, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead, DatabaseName: s.config.Database})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (o:Organization {id: $orgID})
		RETURN o.id AS id, o.name AS name, o.created_at AS createdAt
	`, map[string]interface{}{"orgID": orgID})
	if err != nil {
		return nil, fmt.Errorf("failed to query organization %s: %w", orgID, err)
	}
	if !result.Next(ctx) {
		return nil, nil
	}
	rec := result.Record()
	return &models.OrganizationRecord{
		ID:        stringValue(rec, "id"),
		Name:      stringValue(rec, "name"),
		CreatedAt: timeValue(rec, "createdAt"),
	}, nil
}

// GetCustomPlan returns the custom-plan record, or nil when the
// organization has none.
func (s *Neo4jStore) GetCustomPlan(ctx context.Context, orgID string) (*models.CustomPlanRecord, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead, DatabaseName: s.config.Database})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (o:Organization {id: $orgID})-[:HAS_CUSTOM_PLAN]->(cp:CustomPlan)
		RETURN cp.monthly_price AS price, cp.feature_flags AS flags, cp.preserve_pricing AS preserve
	`, map[string]interface{}{"orgID": orgID})
	if err != nil {
		return nil, fmt.Errorf("failed to query custom plan for %s: %w", orgID, err)
	}
	if !result.Next(ctx) {
		return nil, nil
	}
	rec := result.Record()

	plan := &models.CustomPlanRecord{
		OrganizationID:  orgID,
		MonthlyPrice:    floatValue(rec, "price"),
		PreservePricing: boolValue(rec, "preserve"),
	}
	if v, ok := rec.Get("flags"); ok {
		if flags, ok := v.(map[string]interface{}); ok {
			plan.FeatureFlags = flags
		}
	}
	if plan.FeatureFlags == nil {
		plan.FeatureFlags = map[string]interface{}{}
	}
	return plan, nil
}

// GetAppSumoPurchase returns the AppSumo purchase record, or nil when the
// organization never redeemed a coupon.
func (s *Neo4jStore) GetAppSumoPurchase(ctx context.Context, orgID string) (*models.AppSumoPurchase, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead, DatabaseName: s.config.Database})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (o:Organization {id: $orgID})-[:REDEEMED]->(a:AppSumoPurchase)
		RETURN a.purchased_at AS purchasedAt, a.migrated AS migrated
	`, map[string]interface{}{"orgID": orgID})
	if err != nil {
		return nil, fmt.Errorf("failed to query appsumo purchase for %s: %w", orgID, err)
	}
	if !result.Next(ctx) {
		return nil, nil
	}
	rec := result.Record()
	return &models.AppSumoPurchase{
		OrganizationID: orgID,
		PurchasedAt:    timeValue(rec, "purchasedAt"),
		Migrated:       boolValue(rec, "migrated"),
	}, nil
}

// GetSubscription returns the subscription record, or nil when the
// organization has never subscribed.
func (s *Neo4jStore) GetSubscription(ctx context.Context, orgID string) (*models.SubscriptionRecord, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead, DatabaseName: s.config.Database})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (o:Organization {id: $orgID})-[:SUBSCRIBED_TO]->(s:Subscription)
		RETURN s.tier AS tier, s.status AS status, s.trial_ends_at AS trialEndsAt
	`, map[string]interface{}{"orgID": orgID})
	if err != nil {
		return nil, fmt.Errorf("failed to query subscription for %s: %w", orgID, err)
	}
	if !result.Next(ctx) {
		return nil, nil
	}
	rec := result.Record()

	sub := &models.SubscriptionRecord{
		OrganizationID: orgID,
		Tier:           models.PlanTier(stringValue(rec, "tier")),
		Status:         stringValue(rec, "status"),
	}
	if t := timeValue(rec, "trialEndsAt"); !t.IsZero() {
		sub.TrialEndsAt = &t
	}
	return sub, nil
}

// Record value helpers. Neo4j returns integers as int64 and timestamps as
// time.Time or epoch seconds depending on how they were written.

func intValue(rec *neo4j.Record, key string) int {
	if v, ok := rec.Get(key); ok {
		if n, ok := v.(int64); ok {
			return int(n)
		}
	}
	return 0
}

func int64Value(rec *neo4j.Record, key string) int64 {
	if v, ok := rec.Get(key); ok {
		if n, ok := v.(int64); ok {
			return n
		}
	}
	return 0
}

func floatValue(rec *neo4j.Record, key string) float64 {
	if v, ok := rec.Get(key); ok {
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		}
	}
	return 0
}

func boolValue(rec *neo4j.Record, key string) bool {
	if v, ok := rec.Get(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func stringValue(rec *neo4j.Record, key string) string {
	if v, ok := rec.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func timeValue(rec *neo4j.Record, key string) time.Time {
	if v, ok := rec.Get(key); ok {
		switch t := v.(type) {
		case time.Time:
			return t
		case int64:
			return time.Unix(t, 0).UTC()
		}
	}
	return time.Time{}
}
