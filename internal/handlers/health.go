package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"loan-underwriting-engine/internal/bootstrap"
	"loan-underwriting-engine/internal/standards"
)

// Pinger reports backing store reachability.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db     Pinger
	stage  string
	source string
}

// NewHealthHandler creates a health handler. db may be nil.
func NewHealthHandler(db Pinger, stage, source string) *HealthHandler {
	return &HealthHandler{db: db, stage: stage, source: source}
}

// NewHealthHandlerFromApp reports on the app's database, if any.
func NewHealthHandlerFromApp(app *bootstrap.App) *HealthHandler {
	h := NewHealthHandler(nil, app.Config.Stage, app.Config.StandardsSource)
	if app.DB != nil {
		h.db = app.DB
	}
	return h
}

// HealthResponse is the response structure for health checks.
type HealthResponse struct {
	Status          string `json:"status"`
	Timestamp       string `json:"timestamp"`
	Service         string `json:"service"`
	Version         string `json:"version"`
	Stage           string `json:"stage"`
	StandardsSource string `json:"standards_source"`
	DefaultsVersion string `json:"defaults_version"`
	Database        string `json:"database,omitempty"`
}

// Check builds the health report.
func (h *HealthHandler) Check(ctx context.Context) HealthResponse {
	response := HealthResponse{
		Status:          "healthy",
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		Service:         "loan-underwriting-engine",
		Version:         getEnvOrDefault("SERVICE_VERSION", "1.0.0"),
		Stage:           h.stage,
		StandardsSource: h.source,
		DefaultsVersion: standards.DefaultsVersion,
	}

	// The engine runs on default standards without a database, so a lost
	// connection degrades rather than fails the service.
	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			response.Database = "disconnected"
			response.Status = "degraded"
		} else {
			response.Database = "connected"
		}
	} else {
		response.Database = "not configured"
	}

	return response
}

// Handle processes health check requests.
func (h *HealthHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := corsHeaders("GET,OPTIONS")

	response := h.Check(ctx)
	statusCode := http.StatusOK
	if response.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	return jsonResponse(headers, statusCode, response)
}

// getEnvOrDefault returns environment variable or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
