package recommendation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planvisor/internal/analytics"
	"github.com/planvisor/internal/catalog"
	"github.com/planvisor/internal/classification"
	"github.com/planvisor/internal/costbenefit"
	"github.com/planvisor/internal/equivalency"
	"github.com/planvisor/internal/scoring"
	"github.com/planvisor/pkg/models"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeClassStore struct {
	org        *models.OrganizationRecord
	customPlan *models.CustomPlanRecord
	appSumo    *models.AppSumoPurchase
	sub        *models.SubscriptionRecord
}

func (f *fakeClassStore) GetOrganization(ctx context.Context, orgID string) (*models.OrganizationRecord, error) {
	return f.org, nil
}

func (f *fakeClassStore) GetCustomPlan(ctx context.Context, orgID string) (*models.CustomPlanRecord, error) {
	return f.customPlan, nil
}

func (f *fakeClassStore) GetAppSumoPurchase(ctx context.Context, orgID string) (*models.AppSumoPurchase, error) {
	return f.appSumo, nil
}

func (f *fakeClassStore) GetSubscription(ctx context.Context, orgID string) (*models.SubscriptionRecord, error) {
	return f.sub, nil
}

type fakeProvider struct {
	raw   models.RawUsage
	err   error
	calls int
}

func (f *fakeProvider) GetRawUsage(ctx context.Context, orgID string) (models.RawUsage, error) {
	f.calls++
	return f.raw, f.err
}

type fakePublisher struct {
	recommendations []*models.PlanRecommendationResponse
	analyses        []*models.DetailedMigrationCostBenefit
}

func (f *fakePublisher) PublishRecommendation(ctx context.Context, resp *models.PlanRecommendationResponse) error {
	f.recommendations = append(f.recommendations, resp)
	return nil
}

func (f *fakePublisher) PublishMigrationAnalysis(ctx context.Context, analysis *models.DetailedMigrationCostBenefit) error {
	f.analyses = append(f.analyses, analysis)
	return nil
}

type fakeSummarizer struct {
	summary string
	err     error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, resp *models.PlanRecommendationResponse) (string, error) {
	return f.summary, f.err
}

type fakeProvisioner struct {
	provisioned []models.MigrationDiscount
}

func (f *fakeProvisioner) ProvisionDiscount(ctx context.Context, d models.MigrationDiscount) (string, error) {
	f.provisioned = append(f.provisioned, d)
	return "coupon_" + d.Code, nil
}

func newTestService(store classification.Store, provider UsageDataProvider, opts ...Option) *Service {
	cat := catalog.NewStatic()
	analyzer := costbenefit.NewAnalyzer(costbenefit.DefaultConfig(), cat)
	opts = append(opts, WithClock(func() time.Time { return testNow }))
	return NewService(
		provider,
		classification.NewResolver(store),
		analytics.NewAggregator(analytics.DefaultConfig()),
		scoring.NewEngine(scoring.DefaultEngineConfig(), cat),
		analyzer,
		equivalency.NewMapper(equivalency.DefaultConfig(), cat, analyzer),
		cat,
		opts...,
	)
}

func trialStore(daysUntilTrialEnd int) *fakeClassStore {
	trialEnd := testNow.Add(time.Duration(daysUntilTrialEnd) * 24 * time.Hour)
	return &fakeClassStore{
		org: &models.OrganizationRecord{ID: "org-1", CreatedAt: testNow.Add(-10 * 24 * time.Hour)},
		sub: &models.SubscriptionRecord{Tier: models.TierProSmall, Status: "trialing", TrialEndsAt: &trialEnd},
	}
}

func sampleUsage() models.RawUsage {
	return models.RawUsage{
		OrganizationID:  "org-1",
		TotalMembers:    10,
		ActiveMembers:   8,
		TotalProjects:   5,
		ActiveProjects:  4,
		TotalTasks:      200,
		AssignedTasks:   150,
		MonthlyNewUsers: []int{1, 1, 2, 1, 1, 2},
	}
}

func TestRecommendTrialOrganization(t *testing.T) {
	provider := &fakeProvider{raw: sampleUsage()}
	svc := newTestService(trialStore(4), provider)

	resp, err := svc.Recommend(context.Background(), "org-1")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, "org-1", resp.OrganizationID)
	assert.Equal(t, models.CategoryTrial, resp.Category)
	assert.Equal(t, 10, resp.UserAnalytics.TotalUsers)
	require.NotEmpty(t, resp.Recommendations)

	// One recommendation per eligible plan, sorted by score.
	assert.Len(t, resp.Recommendations, len(resp.Eligibility.EligiblePlans))
	for i := 1; i < len(resp.Recommendations); i++ {
		assert.GreaterOrEqual(t, resp.Recommendations[i-1].RecommendationScore,
			resp.Recommendations[i].RecommendationScore)
	}

	// Cost analysis is attached to every recommendation.
	for _, rec := range resp.Recommendations {
		if rec.PlanTier != models.TierFree {
			assert.Positive(t, rec.CostAnalysis.BaseMonthlyCost, string(rec.PlanTier))
		}
	}

	// The trial conversion discount surfaces as a special offer.
	require.Len(t, resp.SpecialOffers, 1)
	assert.Equal(t, "TRIAL20", resp.SpecialOffers[0].Discount.Code)

	// A trial ending within a week is an urgent action.
	require.Len(t, resp.UrgentActions, 1)
	assert.Equal(t, "trial_expiring", resp.UrgentActions[0].Code)
	assert.Equal(t, 4, resp.UrgentActions[0].DaysLeft)
}

func TestRecommendUnknownOrganization(t *testing.T) {
	svc := newTestService(&fakeClassStore{}, &fakeProvider{})

	_, err := svc.Recommend(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, classification.ErrOrganizationNotFound)
}

func TestRecommendCachesResponses(t *testing.T) {
	provider := &fakeProvider{raw: sampleUsage()}
	svc := newTestService(trialStore(4), provider)

	first, err := svc.Recommend(context.Background(), "org-1")
	require.NoError(t, err)
	second, err := svc.Recommend(context.Background(), "org-1")
	require.NoError(t, err)

	assert.Equal(t, first.RequestID, second.RequestID)
	assert.Equal(t, 1, provider.calls)
}

func TestRecommendDegradesOnProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("neo4j unavailable")}
	svc := newTestService(trialStore(4), provider)

	resp, err := svc.Recommend(context.Background(), "org-1")
	require.NoError(t, err, "usage failures must not block recommendations")
	assert.Zero(t, resp.UserAnalytics.TotalUsers)
	assert.NotEmpty(t, resp.Recommendations)
}

func TestRecommendAppSumoUrgency(t *testing.T) {
	tests := []struct {
		name         string
		purchaseDays int
		wantSeverity string
		wantDays     int
	}{
		{"early window warns", 1, "warning", 4},
		{"closing window is critical", 3, "critical", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeClassStore{
				org: &models.OrganizationRecord{ID: "org-1", CreatedAt: testNow.Add(-100 * 24 * time.Hour)},
				appSumo: &models.AppSumoPurchase{
					OrganizationID: "org-1",
					PurchasedAt:    testNow.Add(-time.Duration(tt.purchaseDays) * 24 * time.Hour),
				},
			}
			svc := newTestService(store, &fakeProvider{raw: sampleUsage()})

			resp, err := svc.Recommend(context.Background(), "org-1")
			require.NoError(t, err)
			require.Len(t, resp.UrgentActions, 1)
			assert.Equal(t, "appsumo_window_closing", resp.UrgentActions[0].Code)
			assert.Equal(t, tt.wantSeverity, resp.UrgentActions[0].Severity)
			assert.Equal(t, tt.wantDays, resp.UrgentActions[0].DaysLeft)
		})
	}
}

func TestRecommendClosedAppSumoWindowNotUrgent(t *testing.T) {
	store := &fakeClassStore{
		org: &models.OrganizationRecord{ID: "org-1", CreatedAt: testNow.Add(-100 * 24 * time.Hour)},
		appSumo: &models.AppSumoPurchase{
			OrganizationID: "org-1",
			PurchasedAt:    testNow.Add(-20 * 24 * time.Hour),
		},
	}
	svc := newTestService(store, &fakeProvider{raw: sampleUsage()})

	resp, err := svc.Recommend(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Empty(t, resp.UrgentActions, "a deadline that has passed is not urgent")
	assert.Empty(t, resp.SpecialOffers, "the special offer died with the window")
}

func TestRecommendPublishesAndSummarizes(t *testing.T) {
	publisher := &fakePublisher{}
	svc := newTestService(trialStore(4), &fakeProvider{raw: sampleUsage()},
		WithEventPublisher(publisher),
		WithSummarizer(&fakeSummarizer{summary: "Strong fit for Pro Small."}))

	resp, err := svc.Recommend(context.Background(), "org-1")
	require.NoError(t, err)

	assert.Equal(t, "Strong fit for Pro Small.", resp.ExecutiveSummary)
	require.Len(t, publisher.recommendations, 1)
	assert.Equal(t, resp.RequestID, publisher.recommendations[0].RequestID)
}

func TestRecommendSummarizerFailureIsNonFatal(t *testing.T) {
	svc := newTestService(trialStore(4), &fakeProvider{raw: sampleUsage()},
		WithSummarizer(&fakeSummarizer{err: errors.New("rate limited")}))

	resp, err := svc.Recommend(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Empty(t, resp.ExecutiveSummary)
}

func TestAnalyzeMigrationGrandfathersCustomPlan(t *testing.T) {
	publisher := &fakePublisher{}
	svc := newTestService(&fakeClassStore{}, &fakeProvider{raw: sampleUsage()},
		WithEventPublisher(publisher))

	analysis, err := svc.AnalyzeMigration(context.Background(), AnalyzeRequest{
		OrganizationID: "org-1",
		TargetTier:     models.TierBusinessSmall, // $99 flat
		Category:       models.CategoryCustomPlan,
		CustomPlan: &models.CustomPlanRecord{
			OrganizationID:  "org-1",
			MonthlyPrice:    75,
			PreservePricing: true,
		},
	})
	require.NoError(t, err)

	// The synthesized grandfathered discount pins the new price at the
	// preserved $75: 100 x (99-75)/99 = 24.2%.
	require.NotNil(t, analysis.Cost.AppliedDiscount)
	assert.True(t, analysis.Cost.AppliedDiscount.Permanent())
	assert.InDelta(t, 24.2, analysis.Cost.AppliedDiscount.Value, 1e-9)
	assert.InDelta(t, 75.042, analysis.Cost.NewMonthlyCost, 0.01)

	require.Len(t, publisher.analyses, 1)
}

func TestAnalyzeMigrationProvisionsAcceptedDiscount(t *testing.T) {
	provisioner := &fakeProvisioner{}
	svc := newTestService(&fakeClassStore{}, &fakeProvider{raw: sampleUsage()},
		WithDiscountProvisioner(provisioner))

	analysis, err := svc.AnalyzeMigration(context.Background(), AnalyzeRequest{
		OrganizationID: "org-1",
		TargetTier:     models.TierBusinessSmall,
		Category:       models.CategoryTrial,
		Discounts:      classification.CategoryDiscounts(models.CategoryTrial),
	})
	require.NoError(t, err)

	if analysis.Decision.Action == models.DecisionProceed {
		require.Len(t, provisioner.provisioned, 1)
		assert.Equal(t, "TRIAL20", provisioner.provisioned[0].Code)
	} else {
		assert.Empty(t, provisioner.provisioned)
	}
}

func TestAnalyzeMigrationUnknownTier(t *testing.T) {
	svc := newTestService(&fakeClassStore{}, &fakeProvider{})

	_, err := svc.AnalyzeMigration(context.Background(), AnalyzeRequest{
		OrganizationID: "org-1",
		TargetTier:     models.PlanTier("platinum"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrUnknownTier)
}

func TestEquivalenciesRequireCustomPlan(t *testing.T) {
	svc := newTestService(trialStore(4), &fakeProvider{raw: sampleUsage()})

	equivalencies, err := svc.Equivalencies(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Nil(t, equivalencies, "non-custom organizations have nothing to map")
}

func TestEquivalenciesForCustomPlan(t *testing.T) {
	store := &fakeClassStore{
		org: &models.OrganizationRecord{ID: "org-1", CreatedAt: testNow.Add(-400 * 24 * time.Hour)},
		customPlan: &models.CustomPlanRecord{
			OrganizationID: "org-1",
			MonthlyPrice:   90,
			FeatureFlags: map[string]interface{}{
				"max_users":     float64(20),
				"gantt_charts":  true,
				"time_tracking": true,
			},
		},
	}
	svc := newTestService(store, &fakeProvider{raw: sampleUsage()})

	equivalencies, err := svc.Equivalencies(context.Background(), "org-1")
	require.NoError(t, err)
	require.NotEmpty(t, equivalencies)
	for _, eq := range equivalencies {
		assert.GreaterOrEqual(t, eq.FeatureMatchPercent, 70.0)
	}
}

type fakeMetricsCache struct {
	ttls []time.Duration
}

func (f *fakeMetricsCache) Get(ctx context.Context, key string, target interface{}) (bool, error) {
	return false, nil
}

func (f *fakeMetricsCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.ttls = append(f.ttls, ttl)
	return nil
}

func TestMetricsCacheTTL(t *testing.T) {
	cache := &fakeMetricsCache{}
	svc := newTestService(trialStore(4), &fakeProvider{raw: sampleUsage()},
		WithMetricsCache(cache, 42*time.Minute))

	_, err := svc.Recommend(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, cache.ttls, 1)
	assert.Equal(t, 42*time.Minute, cache.ttls[0])
}

func TestMetricsCacheTTLDefault(t *testing.T) {
	cache := &fakeMetricsCache{}
	svc := newTestService(trialStore(4), &fakeProvider{raw: sampleUsage()},
		WithMetricsCache(cache, 0))

	_, err := svc.Recommend(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, cache.ttls, 1)
	assert.Equal(t, metricsCacheTTL, cache.ttls[0])
}

func TestSummaryFor(t *testing.T) {
	tests := []struct {
		name     string
		category models.UserCategory
		score    int
		want     models.MigrationSummary
	}{
		{"strong match proceeds", models.CategoryTrial, 85, models.SummaryProceed},
		{"boundary eighty proceeds", models.CategoryFree, 80, models.SummaryProceed},
		{"moderate match plans", models.CategoryFree, 70, models.SummaryPlan},
		{"weak match on subscriber stays", models.CategoryActiveSubscriber, 50, models.SummaryStay},
		{"weak match on custom plan stays", models.CategoryCustomPlan, 40, models.SummaryStay},
		{"weak match otherwise evaluates", models.CategoryFree, 50, models.SummaryEvaluate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SummaryFor(tt.category, tt.score, models.TierProSmall))
		})
	}
}
