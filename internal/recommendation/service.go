// Package recommendation composes the engine pipeline: usage aggregation,
// category resolution, plan scoring, cost-benefit deep dives, and custom
// plan equivalency mapping. The engines stay pure; this service owns the
// collaborator calls around them (data fetch, caching, event publishing).
package recommendation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/planvisor/internal/analytics"
	"github.com/planvisor/internal/catalog"
	"github.com/planvisor/internal/classification"
	"github.com/planvisor/internal/costbenefit"
	"github.com/planvisor/internal/equivalency"
	"github.com/planvisor/internal/scoring"
	"github.com/planvisor/pkg/models"
)

// UsageDataProvider fetches raw usage facts for one organization. Providers
// must return a zero-valued struct, not an error, when an organization has
// no recorded usage.
type UsageDataProvider interface {
	GetRawUsage(ctx context.Context, orgID string) (models.RawUsage, error)
}

// MetricsCache caches aggregated usage metrics between requests. Cache
// failures are treated as misses.
type MetricsCache interface {
	Get(ctx context.Context, key string, target interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// EventPublisher announces computed results to downstream consumers.
type EventPublisher interface {
	PublishRecommendation(ctx context.Context, resp *models.PlanRecommendationResponse) error
	PublishMigrationAnalysis(ctx context.Context, analysis *models.DetailedMigrationCostBenefit) error
}

// Summarizer optionally produces the executive-summary narrative for a
// recommendation response.
type Summarizer interface {
	Summarize(ctx context.Context, resp *models.PlanRecommendationResponse) (string, error)
}

// DiscountProvisioner registers an applied discount with the payment
// provider once a migration analysis concludes the migration should
// proceed.
type DiscountProvisioner interface {
	ProvisionDiscount(ctx context.Context, discount models.MigrationDiscount) (string, error)
}

// Service drives the full recommendation pipeline.
type Service struct {
	provider   UsageDataProvider
	resolver   *classification.Resolver
	aggregator *analytics.Aggregator
	engine     *scoring.Engine
	analyzer   *costbenefit.Analyzer
	mapper     *equivalency.Mapper
	catalog    *catalog.Catalog

	metricsCache MetricsCache        // optional
	events       EventPublisher      // optional
	summarizer   Summarizer          // optional
	provisioner  DiscountProvisioner // optional

	responses  *gocache.Cache
	metricsTTL time.Duration
	now        func() time.Time
}

// Option configures optional collaborators on the service.
type Option func(*Service)

// WithMetricsCache attaches a shared metrics cache. A non-positive ttl
// falls back to the default.
func WithMetricsCache(c MetricsCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.metricsCache = c
		if ttl > 0 {
			s.metricsTTL = ttl
		}
	}
}

// WithEventPublisher attaches an event publisher.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithSummarizer attaches a narrative summarizer.
func WithSummarizer(sum Summarizer) Option {
	return func(s *Service) { s.summarizer = sum }
}

// WithDiscountProvisioner attaches a billing-side discount provisioner.
func WithDiscountProvisioner(p DiscountProvisioner) Option {
	return func(s *Service) { s.provisioner = p }
}

// WithClock overrides the time source; tests use this to pin "now".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

const (
	responseCacheTTL = 5 * time.Minute
	metricsCacheTTL  = 15 * time.Minute
)

// NewService wires the pipeline together.
func NewService(provider UsageDataProvider, resolver *classification.Resolver,
	aggregator *analytics.Aggregator, engine *scoring.Engine,
	analyzer *costbenefit.Analyzer, mapper *equivalency.Mapper,
	cat *catalog.Catalog, opts ...Option) *Service {

	s := &Service{
		provider:   provider,
		resolver:   resolver,
		aggregator: aggregator,
		engine:     engine,
		analyzer:   analyzer,
		mapper:     mapper,
		catalog:    cat,
		responses:  gocache.New(responseCacheTTL, 10*time.Minute),
		metricsTTL: metricsCacheTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recommend runs the full pipeline for one organization and returns the
// ranked recommendation response. The only errors it propagates are an
// unknown organization and infrastructure failures from the store.
func (s *Service) Recommend(ctx context.Context, orgID string) (*models.PlanRecommendationResponse, error) {
	if cached, found := s.responses.Get(orgID); found {
		return cached.(*models.PlanRecommendationResponse), nil
	}

	now := s.now()
	res, err := s.resolver.Resolve(ctx, orgID, now)
	if err != nil {
		return nil, err
	}

	metrics := s.usageMetrics(ctx, orgID)
	input := s.scoringInput(res, metrics)
	recs := s.engine.Evaluate(ctx, metrics, input)
	complexity := costbenefit.ComplexityFor(res.Category)

	// Attach the per-plan cost analysis the scorer leaves to the analyzer.
	for i := range recs {
		def, err := s.catalog.Plan(recs[i].PlanTier)
		if err != nil {
			continue
		}
		recs[i].CostAnalysis = s.analyzer.AnalyzeCost(def, metrics.TotalUsers,
			input.CurrentMonthlyCost, recs[i].Discounts, complexity)
	}

	resp := &models.PlanRecommendationResponse{
		RequestID:        uuid.NewString(),
		OrganizationID:   orgID,
		UserAnalytics:    metrics,
		Category:         res.Category,
		Eligibility:      res.Eligibility,
		Recommendations:  recs,
		UrgentActions:    urgentActions(res, now),
		MigrationSummary: summarize(res.Category, recs),
		SpecialOffers:    specialOffers(res.Eligibility),
	}

	if s.summarizer != nil {
		if summary, err := s.summarizer.Summarize(ctx, resp); err != nil {
			log.Printf("Failed to generate executive summary for %s: %v", orgID, err)
		} else {
			resp.ExecutiveSummary = summary
		}
	}

	s.responses.Set(orgID, resp, gocache.DefaultExpiration)

	if s.events != nil {
		if err := s.events.PublishRecommendation(ctx, resp); err != nil {
			log.Printf("Failed to publish recommendation event for %s: %v", orgID, err)
		}
	}
	return resp, nil
}

// AnalyzeRequest carries the inputs of the migration deep-dive entry point.
// Metrics may be supplied by the caller (e.g. from a prior Recommend call)
// or left zero to be recomputed from raw usage.
type AnalyzeRequest struct {
	OrganizationID string
	TargetTier     models.PlanTier
	Category       models.UserCategory
	Metrics        *models.UsageMetrics
	CustomPlan     *models.CustomPlanRecord
	AppSumo        *models.AppSumoPurchase
	CurrentTier    models.PlanTier // set for active subscribers
	Discounts      []models.MigrationDiscount
}

// AnalyzeMigration deep-dives one candidate target plan.
func (s *Service) AnalyzeMigration(ctx context.Context, req AnalyzeRequest) (*models.DetailedMigrationCostBenefit, error) {
	metrics := models.UsageMetrics{}
	if req.Metrics != nil {
		metrics = *req.Metrics
	} else {
		metrics = s.usageMetrics(ctx, req.OrganizationID)
	}

	currentCost, currentFeatures := s.currentBaseline(req, metrics)

	discounts := req.Discounts
	if req.CustomPlan != nil && req.CustomPlan.PreservePricing {
		def, err := s.catalog.Plan(req.TargetTier)
		if err == nil {
			newCost := s.catalog.MonthlyCost(def, metrics.TotalUsers)
			if g := equivalency.GrandfatherDiscount(*req.CustomPlan, req.TargetTier, newCost); g != nil {
				discounts = append(discounts, *g)
			}
		}
	}

	analysis, err := s.analyzer.Analyze(costbenefit.Request{
		OrganizationID:     req.OrganizationID,
		TargetTier:         req.TargetTier,
		Category:           req.Category,
		Metrics:            metrics,
		CurrentMonthlyCost: currentCost,
		CurrentFeatures:    currentFeatures,
		Discounts:          discounts,
	})
	if err != nil {
		return nil, err
	}

	if s.provisioner != nil && analysis.Decision.Action == models.DecisionProceed &&
		analysis.Cost.AppliedDiscount != nil {
		if _, err := s.provisioner.ProvisionDiscount(ctx, *analysis.Cost.AppliedDiscount); err != nil {
			log.Printf("Failed to provision discount %s for %s: %v",
				analysis.Cost.AppliedDiscount.Code, req.OrganizationID, err)
		}
	}

	if s.events != nil {
		if err := s.events.PublishMigrationAnalysis(ctx, analysis); err != nil {
			log.Printf("Failed to publish migration analysis event for %s: %v", req.OrganizationID, err)
		}
	}
	return analysis, nil
}

// Equivalencies maps a custom-plan organization onto its closest new tiers.
func (s *Service) Equivalencies(ctx context.Context, orgID string) ([]models.PlanEquivalency, error) {
	res, err := s.resolver.Resolve(ctx, orgID, s.now())
	if err != nil {
		return nil, err
	}
	if res.CustomPlan == nil {
		return nil, nil // nothing to map; not an error
	}
	metrics := s.usageMetrics(ctx, orgID)
	return s.mapper.Map(*res.CustomPlan, metrics), nil
}

// usageMetrics fetches raw usage and aggregates it, consulting the shared
// metrics cache when one is attached. Provider failures degrade to the
// zero-valued fact bundle so a recommendation is always produced.
func (s *Service) usageMetrics(ctx context.Context, orgID string) models.UsageMetrics {
	cacheKey := "metrics:" + orgID
	if s.metricsCache != nil {
		var cached models.UsageMetrics
		if found, err := s.metricsCache.Get(ctx, cacheKey, &cached); err != nil {
			log.Printf("Metrics cache read failed for %s: %v", orgID, err)
		} else if found {
			return cached
		}
	}

	raw, err := s.provider.GetRawUsage(ctx, orgID)
	if err != nil {
		log.Printf("Usage data fetch failed for %s, using zero facts: %v", orgID, err)
		raw = models.RawUsage{OrganizationID: orgID}
	}
	metrics := s.aggregator.Aggregate(raw)

	if s.metricsCache != nil {
		if err := s.metricsCache.Set(ctx, cacheKey, metrics, s.metricsTTL); err != nil {
			log.Printf("Metrics cache write failed for %s: %v", orgID, err)
		}
	}
	return metrics
}

func (s *Service) scoringInput(res *classification.Resolution, metrics models.UsageMetrics) scoring.Input {
	return scoring.Input{
		Category:           res.Category,
		EligiblePlans:      res.Eligibility.EligiblePlans,
		Discounts:          res.Eligibility.Discounts,
		CurrentMonthlyCost: s.currentMonthlyCost(res, metrics),
		HasCustomPlan:      res.CustomPlan != nil,
	}
}

func (s *Service) currentMonthlyCost(res *classification.Resolution, metrics models.UsageMetrics) float64 {
	if res.CustomPlan != nil {
		return res.CustomPlan.MonthlyPrice
	}
	if res.Current != nil {
		if def, err := s.catalog.Plan(res.Current.Tier); err == nil {
			return s.catalog.MonthlyCost(def, metrics.TotalUsers)
		}
	}
	return 0
}

func (s *Service) currentBaseline(req AnalyzeRequest, metrics models.UsageMetrics) (float64, models.PlanFeatures) {
	if req.CustomPlan != nil {
		legacy := equivalency.DecodeLegacyFeatures(req.CustomPlan.FeatureFlags)
		return req.CustomPlan.MonthlyPrice, models.PlanFeatures{
			GanttCharts:         legacy.GanttCharts,
			TimeTracking:        legacy.TimeTracking,
			CustomFields:        legacy.CustomFields,
			AdvancedReporting:   legacy.AdvancedReporting,
			Integrations:        legacy.Integrations,
			AdvancedPermissions: legacy.AdvancedPermissions,
			ClientPortal:        legacy.ClientPortal,
			ResourceManagement:  legacy.ResourceManagement,
			APIAccess:           legacy.APIAccess,
		}
	}
	if req.CurrentTier != "" {
		if def, err := s.catalog.Plan(req.CurrentTier); err == nil {
			return s.catalog.MonthlyCost(def, metrics.TotalUsers), def.Features
		}
	}
	return 0, models.PlanFeatures{}
}

// urgentActions surfaces deadline-style warnings. Closed windows produce
// nothing: a deadline that has passed is not urgent, it is gone.
func urgentActions(res *classification.Resolution, now time.Time) []models.UrgentAction {
	var actions []models.UrgentAction

	if w := res.Eligibility.MigrationWindow; w != nil && w.RemainingDays > 0 && !w.AlreadyMigrated {
		severity := "warning"
		if w.RemainingDays <= 2 {
			severity = "critical"
		}
		actions = append(actions, models.UrgentAction{
			Code:     "appsumo_window_closing",
			Message:  fmt.Sprintf("AppSumo migration window closes in %d days", w.RemainingDays),
			Severity: severity,
			DaysLeft: w.RemainingDays,
		})
	}

	if res.Current != nil && res.Current.TrialEndsAt != nil {
		daysLeft := int(res.Current.TrialEndsAt.Sub(now).Hours() / 24)
		if daysLeft >= 0 && daysLeft <= 7 {
			actions = append(actions, models.UrgentAction{
				Code:     "trial_expiring",
				Message:  fmt.Sprintf("Trial expires in %d days", daysLeft),
				Severity: "warning",
				DaysLeft: daysLeft,
			})
		}
	}
	return actions
}

// summarize derives the one-word verdict from the ranked recommendations.
func summarize(category models.UserCategory, recs []models.PlanRecommendation) models.MigrationSummary {
	if len(recs) == 0 {
		return SummaryFor(category, 0, "")
	}
	return SummaryFor(category, recs[0].RecommendationScore, recs[0].PlanTier)
}

// SummaryFor bands the top score into a migration verdict: a strong match
// says proceed, a moderate one says plan, a weak match on a paying
// organization says stay, anything else says evaluate.
func SummaryFor(category models.UserCategory, topScore int, topTier models.PlanTier) models.MigrationSummary {
	switch {
	case topScore >= 80:
		return models.SummaryProceed
	case topScore >= 65:
		return models.SummaryPlan
	case category == models.CategoryActiveSubscriber || category == models.CategoryCustomPlan:
		return models.SummaryStay
	default:
		return models.SummaryEvaluate
	}
}

func specialOffers(el models.MigrationEligibility) []models.SpecialOffer {
	offers := make([]models.SpecialOffer, 0, len(el.Discounts))
	for _, d := range el.Discounts {
		duration := "your first months"
		switch {
		case d.Permanent():
			duration = "forever"
		case d.DurationMonths == 1:
			duration = "your first month"
		case d.DurationMonths > 1:
			duration = fmt.Sprintf("%d months", d.DurationMonths)
		}
		offers = append(offers, models.SpecialOffer{
			Discount:    d,
			Headline:    fmt.Sprintf("%.0f%% off for %s", d.Value, duration),
			Description: d.Description,
		})
	}
	return offers
}
