package classification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planvisor/pkg/models"
)

type fakeStore struct {
	org        *models.OrganizationRecord
	customPlan *models.CustomPlanRecord
	appSumo    *models.AppSumoPurchase
	sub        *models.SubscriptionRecord
	err        error
}

func (f *fakeStore) GetOrganization(ctx context.Context, orgID string) (*models.OrganizationRecord, error) {
	return f.org, f.err
}

func (f *fakeStore) GetCustomPlan(ctx context.Context, orgID string) (*models.CustomPlanRecord, error) {
	return f.customPlan, f.err
}

func (f *fakeStore) GetAppSumoPurchase(ctx context.Context, orgID string) (*models.AppSumoPurchase, error) {
	return f.appSumo, f.err
}

func (f *fakeStore) GetSubscription(ctx context.Context, orgID string) (*models.SubscriptionRecord, error) {
	return f.sub, f.err
}

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func orgCreated(daysAgo int) *models.OrganizationRecord {
	return &models.OrganizationRecord{
		ID:        "org-1",
		Name:      "Acme",
		CreatedAt: now.Add(-time.Duration(daysAgo) * 24 * time.Hour),
	}
}

func TestResolveUnknownOrganization(t *testing.T) {
	r := NewResolver(&fakeStore{})

	_, err := r.Resolve(context.Background(), "missing", now)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOrganizationNotFound)
}

func TestResolveStoreFailure(t *testing.T) {
	r := NewResolver(&fakeStore{err: errors.New("bolt connection refused")})

	_, err := r.Resolve(context.Background(), "org-1", now)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrOrganizationNotFound)
}

func TestClassifyPriorityOrder(t *testing.T) {
	trialEnd := now.Add(7 * 24 * time.Hour)
	tests := []struct {
		name  string
		store fakeStore
		want  models.UserCategory
	}{
		{
			name: "appsumo beats everything",
			store: fakeStore{
				org:        orgCreated(400),
				appSumo:    &models.AppSumoPurchase{PurchasedAt: now.Add(-24 * time.Hour)},
				customPlan: &models.CustomPlanRecord{MonthlyPrice: 75},
				sub:        &models.SubscriptionRecord{Tier: models.TierProSmall, Status: "active"},
			},
			want: models.CategoryAppSumo,
		},
		{
			name: "custom plan beats trial and subscription",
			store: fakeStore{
				org:        orgCreated(400),
				customPlan: &models.CustomPlanRecord{MonthlyPrice: 75},
				sub:        &models.SubscriptionRecord{Tier: models.TierProSmall, Status: "active", TrialEndsAt: &trialEnd},
			},
			want: models.CategoryCustomPlan,
		},
		{
			name: "unexpired trial beats active subscription",
			store: fakeStore{
				org: orgCreated(10),
				sub: &models.SubscriptionRecord{Tier: models.TierProSmall, Status: "active", TrialEndsAt: &trialEnd},
			},
			want: models.CategoryTrial,
		},
		{
			name: "active paid subscription",
			store: fakeStore{
				org: orgCreated(400),
				sub: &models.SubscriptionRecord{Tier: models.TierProLarge, Status: "active"},
			},
			want: models.CategoryActiveSubscriber,
		},
		{
			name: "active free-tier subscription is not a subscriber",
			store: fakeStore{
				org: orgCreated(400),
				sub: &models.SubscriptionRecord{Tier: models.TierFree, Status: "active"},
			},
			want: models.CategoryFree,
		},
		{
			name:  "young organization without history is a new user",
			store: fakeStore{org: orgCreated(12)},
			want:  models.CategoryNewUser,
		},
		{
			name:  "exactly thirty days still counts as new",
			store: fakeStore{org: orgCreated(30)},
			want:  models.CategoryNewUser,
		},
		{
			name:  "older organization without history is free",
			store: fakeStore{org: orgCreated(31)},
			want:  models.CategoryFree,
		},
		{
			name: "expired trial falls through",
			store: fakeStore{
				org: orgCreated(90),
				sub: func() *models.SubscriptionRecord {
					ended := now.Add(-24 * time.Hour)
					return &models.SubscriptionRecord{Tier: models.TierProSmall, Status: "canceled", TrialEndsAt: &ended}
				}(),
			},
			want: models.CategoryFree,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(&tt.store)
			res, err := r.Resolve(context.Background(), "org-1", now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Category)
		})
	}
}

func TestAppSumoMigrationWindow(t *testing.T) {
	tests := []struct {
		name          string
		purchasedDays float64 // days before now
		migrated      bool
		wantRemaining int
		wantEligible  bool
	}{
		{"fresh purchase", 0, false, 5, true},
		{"three days in", 3, false, 2, true},
		{"last day", 4.5, false, 1, true},
		{"window closed", 5, false, 0, false},
		{"long closed", 30, false, 0, false},
		{"already migrated", 1, true, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{
				org: orgCreated(60),
				appSumo: &models.AppSumoPurchase{
					PurchasedAt: now.Add(-time.Duration(tt.purchasedDays*24) * time.Hour),
					Migrated:    tt.migrated,
				},
			}
			r := NewResolver(store)
			res, err := r.Resolve(context.Background(), "org-1", now)
			require.NoError(t, err)

			window := res.Eligibility.MigrationWindow
			require.NotNil(t, window)
			assert.Equal(t, tt.wantRemaining, window.RemainingDays)
			assert.Equal(t, tt.wantEligible, window.EligibleForSpecialDiscount)
			assert.Equal(t, tt.migrated, window.AlreadyMigrated)
		})
	}
}

func TestAppSumoClosedWindowDropsDiscount(t *testing.T) {
	store := &fakeStore{
		org:     orgCreated(60),
		appSumo: &models.AppSumoPurchase{PurchasedAt: now.Add(-10 * 24 * time.Hour)},
	}
	r := NewResolver(store)
	res, err := r.Resolve(context.Background(), "org-1", now)
	require.NoError(t, err)

	// Migration itself stays open at list price; only the special offer
	// disappears.
	assert.True(t, res.Eligibility.IsEligible)
	assert.Empty(t, res.Eligibility.Discounts)
	assert.Equal(t, []models.PlanTier{
		models.TierBusinessSmall, models.TierBusinessLarge, models.TierEnterprise,
	}, res.Eligibility.EligiblePlans)
}

func TestEligiblePlansByCategory(t *testing.T) {
	tests := []struct {
		name      string
		store     fakeStore
		wantPlans []models.PlanTier
		wantRec   models.PlanTier
	}{
		{
			name:  "appsumo restricted to business and above",
			store: fakeStore{org: orgCreated(60), appSumo: &models.AppSumoPurchase{PurchasedAt: now}},
			wantPlans: []models.PlanTier{
				models.TierBusinessSmall, models.TierBusinessLarge, models.TierEnterprise,
			},
			wantRec: models.TierBusinessSmall,
		},
		{
			name:  "custom plan excludes free",
			store: fakeStore{org: orgCreated(400), customPlan: &models.CustomPlanRecord{MonthlyPrice: 75}},
			wantPlans: []models.PlanTier{
				models.TierProSmall, models.TierProLarge,
				models.TierBusinessSmall, models.TierBusinessLarge, models.TierEnterprise,
			},
			wantRec: models.TierBusinessSmall,
		},
		{
			name:  "free may choose any tier including free",
			store: fakeStore{org: orgCreated(400)},
			wantPlans: []models.PlanTier{
				models.TierFree, models.TierProSmall, models.TierProLarge,
				models.TierBusinessSmall, models.TierBusinessLarge, models.TierEnterprise,
			},
			wantRec: models.TierProSmall,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(&tt.store)
			res, err := r.Resolve(context.Background(), "org-1", now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPlans, res.Eligibility.EligiblePlans)
			assert.Equal(t, tt.wantRec, res.Eligibility.RecommendedPlan)
		})
	}
}

func TestCategoryDiscounts(t *testing.T) {
	trial := CategoryDiscounts(models.CategoryTrial)
	require.Len(t, trial, 1)
	assert.Equal(t, "TRIAL20", trial[0].Code)
	assert.Equal(t, 20.0, trial[0].Value)
	assert.Equal(t, 3, trial[0].DurationMonths)
	assert.False(t, trial[0].Permanent())

	sumo := CategoryDiscounts(models.CategoryAppSumo)
	require.Len(t, sumo, 1)
	assert.Equal(t, "SUMO50", sumo[0].Code)
	assert.True(t, sumo[0].AppliesTo(models.TierBusinessSmall))
	assert.True(t, sumo[0].AppliesTo(models.TierEnterprise))
	assert.False(t, sumo[0].AppliesTo(models.TierProSmall))

	// Active subscribers migrate at list price.
	assert.Empty(t, CategoryDiscounts(models.CategoryActiveSubscriber))
}

func TestDiscountsReferenceOnlyEligibleTiers(t *testing.T) {
	categories := []models.UserCategory{
		models.CategoryTrial, models.CategoryFree, models.CategoryNewUser,
		models.CategoryCustomPlan, models.CategoryAppSumo, models.CategoryActiveSubscriber,
	}
	for _, cat := range categories {
		eligible := make(map[models.PlanTier]bool)
		for _, tier := range eligiblePlans(cat) {
			eligible[tier] = true
		}
		for _, d := range CategoryDiscounts(cat) {
			for _, tier := range d.EligiblePlans {
				assert.True(t, eligible[tier], "%s discount %s references ineligible tier %s", cat, d.Code, tier)
			}
		}
	}
}
