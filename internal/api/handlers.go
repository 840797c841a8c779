package api

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/mux"

	"github.com/planvisor/internal/catalog"
	"github.com/planvisor/internal/classification"
	"github.com/planvisor/internal/health"
	"github.com/planvisor/internal/recommendation"
	"github.com/planvisor/pkg/models"
)

// Plan catalog handlers

func (g *Gateway) handleListPlans(w http.ResponseWriter, r *http.Request) {
	tiers := g.catalog.Tiers()
	defs := make([]models.PlanDefinition, 0, len(tiers))
	for _, tier := range tiers {
		def, err := g.catalog.Plan(tier)
		if err != nil {
			continue
		}
		defs = append(defs, def)
	}
	writeSuccessResponse(w, defs)
}

func (g *Gateway) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tier := models.PlanTier(vars["tier"])

	def, err := g.catalog.Plan(tier)
	if err != nil {
		if errors.Is(err, catalog.ErrUnknownTier) {
			writeErrorResponse(w, http.StatusNotFound, "UNKNOWN_TIER", "Unknown plan tier", string(tier))
			return
		}
		writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load plan", err.Error())
		return
	}

	writeSuccessResponse(w, def)
}

// Organization handlers

func (g *Gateway) handleRecommend(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orgID := vars["id"]

	ctx, cancel := g.requestContext(r)
	defer cancel()

	resp, err := g.service.Recommend(ctx, orgID)
	if err != nil {
		if errors.Is(err, classification.ErrOrganizationNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "ORGANIZATION_NOT_FOUND", "Organization not found", orgID)
			return
		}
		writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build recommendations", err.Error())
		return
	}

	writeSuccessResponse(w, resp)
}

func (g *Gateway) handleAnalyzeMigration(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orgID := vars["id"]

	var req AnalyzeMigrationRequest
	if err := parseRequestBody(r, g.config.MaxRequestSize, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err.Error())
		return
	}
	if req.TargetTier == "" {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", "target_tier is required", "")
		return
	}

	ctx, cancel := g.requestContext(r)
	defer cancel()

	analysis, err := g.service.AnalyzeMigration(ctx, recommendation.AnalyzeRequest{
		OrganizationID: orgID,
		TargetTier:     req.TargetTier,
		Category:       req.Category,
		CurrentTier:    req.CurrentTier,
		CustomPlan:     req.CustomPlan,
		AppSumo:        req.AppSumo,
	})
	if err != nil {
		switch {
		case errors.Is(err, classification.ErrOrganizationNotFound):
			writeErrorResponse(w, http.StatusNotFound, "ORGANIZATION_NOT_FOUND", "Organization not found", orgID)
		case errors.Is(err, catalog.ErrUnknownTier):
			writeErrorResponse(w, http.StatusNotFound, "UNKNOWN_TIER", "Unknown plan tier", string(req.TargetTier))
		default:
			writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to analyze migration", err.Error())
		}
		return
	}

	writeSuccessResponse(w, analysis)
}

func (g *Gateway) handleEquivalencies(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orgID := vars["id"]

	ctx, cancel := g.requestContext(r)
	defer cancel()

	equivalencies, err := g.service.Equivalencies(ctx, orgID)
	if err != nil {
		if errors.Is(err, classification.ErrOrganizationNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "ORGANIZATION_NOT_FOUND", "Organization not found", orgID)
			return
		}
		writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to map equivalencies", err.Error())
		return
	}

	writeSuccessResponse(w, equivalencies)
}

// Health and metrics handlers

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":     health.StatusHealthy,
		"timestamp":  time.Now().UTC(),
		"goroutines": runtime.NumGoroutine(),
	}

	if g.checker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		results := g.checker.Check(ctx)
		overall := g.checker.OverallStatus(results)
		body["status"] = overall
		body["checks"] = results

		if overall == health.StatusUnhealthy {
			writeJSONResponse(w, http.StatusServiceUnavailable, APIResponse{Success: false, Data: body})
			return
		}
	}

	writeSuccessResponse(w, body)
}

func (g *Gateway) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeSuccessResponse(w, g.metrics.snapshot())
}

func (g *Gateway) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if g.config.RequestTimeout <= 0 {
		return r.Context(), func() {}
	}
	return context.WithTimeout(r.Context(), g.config.RequestTimeout)
}

func (m *GatewayMetrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	byPath := make(map[string]int64, len(m.RequestsByPath))
	for k, v := range m.RequestsByPath {
		byPath[k] = v
	}
	byMethod := make(map[string]int64, len(m.RequestsByMethod))
	for k, v := range m.RequestsByMethod {
		byMethod[k] = v
	}
	byStatus := make(map[int]int64, len(m.RequestsByStatus))
	for k, v := range m.RequestsByStatus {
		byStatus[k] = v
	}

	return map[string]interface{}{
		"requests_total":     m.RequestsTotal,
		"requests_failed":    m.RequestsFailed,
		"average_latency_ms": m.AverageLatency.Milliseconds(),
		"requests_by_path":   byPath,
		"requests_by_method": byMethod,
		"requests_by_status": byStatus,
		"last_request":       m.LastRequest,
	}
}
