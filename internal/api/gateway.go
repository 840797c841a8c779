package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/planvisor/internal/health"
	"github.com/planvisor/internal/recommendation"
	"github.com/planvisor/pkg/models"
)

// Gateway represents the API gateway
type Gateway struct {
	server     *http.Server
	router     *mux.Router
	service    PlanService
	catalog    PlanCatalog
	checker    *health.Checker
	config     GatewayConfig
	middleware []Middleware
	metrics    *GatewayMetrics
}

// PlanService interface for recommendation and migration operations
type PlanService interface {
	Recommend(ctx context.Context, orgID string) (*models.PlanRecommendationResponse, error)
	AnalyzeMigration(ctx context.Context, req recommendation.AnalyzeRequest) (*models.DetailedMigrationCostBenefit, error)
	Equivalencies(ctx context.Context, orgID string) ([]models.PlanEquivalency, error)
}

// PlanCatalog interface for plan lookup operations
type PlanCatalog interface {
	Plan(tier models.PlanTier) (models.PlanDefinition, error)
	Tiers() []models.PlanTier
}

// GatewayConfig represents gateway configuration
type GatewayConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	ReadTimeout    time.Duration `json:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"`
	IdleTimeout    time.Duration `json:"idle_timeout"`
	RequestTimeout time.Duration `json:"request_timeout"`
	EnableCORS     bool          `json:"enable_cors"`
	AllowedOrigins []string      `json:"allowed_origins"`
	AllowedMethods []string      `json:"allowed_methods"`
	AllowedHeaders []string      `json:"allowed_headers"`
	MaxRequestSize int64         `json:"max_request_size"`
}

// DefaultGatewayConfig returns default gateway configuration
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 25 * time.Second,
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		MaxRequestSize: 1 << 20, // 1MB
	}
}

// Middleware represents HTTP middleware
type Middleware func(http.Handler) http.Handler

// GatewayMetrics represents gateway metrics
type GatewayMetrics struct {
	mu               sync.Mutex
	RequestsTotal    int64            `json:"requests_total"`
	RequestsFailed   int64            `json:"requests_failed"`
	AverageLatency   time.Duration    `json:"average_latency"`
	RequestsByPath   map[string]int64 `json:"requests_by_path"`
	RequestsByMethod map[string]int64 `json:"requests_by_method"`
	RequestsByStatus map[int]int64    `json:"requests_by_status"`
	LastRequest      time.Time        `json:"last_request"`
}

// NewGateway creates a new API gateway. The health checker may be nil, in
// which case the health endpoint reports healthy unconditionally.
func NewGateway(config GatewayConfig, service PlanService, cat PlanCatalog, checker *health.Checker) *Gateway {
	router := mux.NewRouter()

	gateway := &Gateway{
		router:     router,
		service:    service,
		catalog:    cat,
		checker:    checker,
		config:     config,
		middleware: make([]Middleware, 0),
		metrics: &GatewayMetrics{
			RequestsByPath:   make(map[string]int64),
			RequestsByMethod: make(map[string]int64),
			RequestsByStatus: make(map[int]int64),
		},
	}

	gateway.setupRoutes()
	gateway.setupMiddleware()

	gateway.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return gateway
}

// setupRoutes configures all API routes
func (g *Gateway) setupRoutes() {
	api := g.router.PathPrefix("/api/v1").Subrouter()

	// Plan catalog routes
	plans := api.PathPrefix("/plans").Subrouter()
	plans.HandleFunc("", g.handleListPlans).Methods("GET")
	plans.HandleFunc("/{tier}", g.handleGetPlan).Methods("GET")

	// Organization routes
	orgs := api.PathPrefix("/organizations").Subrouter()
	orgs.HandleFunc("/{id}/recommendations", g.handleRecommend).Methods("POST")
	orgs.HandleFunc("/{id}/migration-analysis", g.handleAnalyzeMigration).Methods("POST")
	orgs.HandleFunc("/{id}/equivalencies", g.handleEquivalencies).Methods("GET")

	// Health and metrics
	api.HandleFunc("/health", g.handleHealth).Methods("GET")
	api.HandleFunc("/metrics", g.handleMetrics).Methods("GET")
}

// setupMiddleware configures HTTP middleware
func (g *Gateway) setupMiddleware() {
	// Apply caller-supplied middleware in reverse order
	for i := len(g.middleware) - 1; i >= 0; i-- {
		g.router.Use(mux.MiddlewareFunc(g.middleware[i]))
	}

	if g.config.EnableCORS {
		g.setupCORS()
	}

	g.router.Use(g.requestIDMiddleware)

	// Metrics middleware (always last to capture all requests)
	g.router.Use(g.metricsMiddleware)
}

// setupCORS configures CORS
func (g *Gateway) setupCORS() {
	c := cors.New(cors.Options{
		AllowedOrigins:   g.config.AllowedOrigins,
		AllowedMethods:   g.config.AllowedMethods,
		AllowedHeaders:   g.config.AllowedHeaders,
		AllowCredentials: true,
	})

	g.router.Use(c.Handler)
}

// Start starts the API gateway
func (g *Gateway) Start() error {
	log.Printf("Starting API gateway on %s", g.server.Addr)
	return g.server.ListenAndServe()
}

// Stop stops the API gateway
func (g *Gateway) Stop(ctx context.Context) error {
	log.Printf("Stopping API gateway")
	return g.server.Shutdown(ctx)
}

// AddMiddleware adds middleware to the gateway
func (g *Gateway) AddMiddleware(middleware Middleware) {
	g.middleware = append(g.middleware, middleware)
	g.router.Use(mux.MiddlewareFunc(middleware))
}

// Request types

type AnalyzeMigrationRequest struct {
	TargetTier  models.PlanTier          `json:"target_tier"`
	Category    models.UserCategory      `json:"category,omitempty"`
	CurrentTier models.PlanTier          `json:"current_tier,omitempty"`
	CustomPlan  *models.CustomPlanRecord `json:"custom_plan,omitempty"`
	AppSumo     *models.AppSumoPurchase  `json:"appsumo,omitempty"`
}

// Response types

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Helper functions

func writeJSONResponse(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message, details string) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	writeJSONResponse(w, status, response)
}

func writeSuccessResponse(w http.ResponseWriter, data interface{}) {
	response := APIResponse{
		Success: true,
		Data:    data,
	}
	writeJSONResponse(w, http.StatusOK, response)
}

func parseRequestBody(r *http.Request, maxSize int64, target interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxSize)).Decode(target)
}

// Middleware implementations

func (g *Gateway) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

func (g *Gateway) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		g.updateMetrics(r, wrapped.statusCode, duration)
	})
}

func (g *Gateway) updateMetrics(r *http.Request, statusCode int, duration time.Duration) {
	g.metrics.mu.Lock()
	defer g.metrics.mu.Unlock()

	g.metrics.RequestsTotal++
	if statusCode >= http.StatusInternalServerError {
		g.metrics.RequestsFailed++
	}
	g.metrics.RequestsByPath[r.URL.Path]++
	g.metrics.RequestsByMethod[r.Method]++
	g.metrics.RequestsByStatus[statusCode]++
	g.metrics.LastRequest = time.Now()

	if g.metrics.AverageLatency == 0 {
		g.metrics.AverageLatency = duration
	} else {
		g.metrics.AverageLatency = (g.metrics.AverageLatency + duration) / 2
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
