// Package main provides a local HTTP server for development and testing.
// It serves the same evaluate and probability operations as the Lambda
// functions, plus standards inspection and CSV batch upload.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"loan-underwriting-engine/internal/bootstrap"
	"loan-underwriting-engine/internal/config"
	"loan-underwriting-engine/internal/handlers"
	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/services/database"
	"loan-underwriting-engine/internal/standards"
	"loan-underwriting-engine/internal/underwriting"
	"loan-underwriting-engine/internal/utils"
)

// maxUploadBytes caps multipart CSV uploads.
const maxUploadBytes = 10 << 20

type evaluationLookup interface {
	GetByID(ctx context.Context, id string) (*models.EvaluationRecord, error)
}

// Server holds all dependencies
type Server struct {
	engine   *underwriting.Engine
	evaluate *handlers.EvaluateHandler
	health   *handlers.HealthHandler
	records  evaluationLookup
	logger   *zap.Logger
}

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// StandardsResponse lists the effective thresholds for one business path.
type StandardsResponse struct {
	ProductLine     models.ProductLine `json:"product_line"`
	BankID          string             `json:"bank_id,omitempty"`
	DefaultsVersion string             `json:"defaults_version"`
	Standards       []standards.Entry  `json:"standards"`
}

// ProductInfo describes a supported product line.
type ProductInfo struct {
	ProductLine models.ProductLine `json:"product_line"`
	Secured     bool               `json:"secured"`
	Refinance   bool               `json:"refinance"`
	Criteria    []string           `json:"criteria"`
	Weights     map[string]float64 `json:"weights"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger first
	if err := utils.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.Sync()

	app, err := bootstrap.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer app.Close()

	server := NewServer(app)

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	addr := fmt.Sprintf("0.0.0.0:%s", cfg.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           c.Handler(server.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Loan Underwriting Engine API Server")
	log.Printf("Listening on http://localhost:%s", cfg.Port)
	log.Printf("Health: http://localhost:%s/health", cfg.Port)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}

// NewServer builds a server over a bootstrapped app.
func NewServer(app *bootstrap.App) *Server {
	s := &Server{
		engine:   app.Engine,
		evaluate: handlers.NewEvaluateHandlerFromApp(app),
		health:   handlers.NewHealthHandlerFromApp(app),
		logger:   utils.GetLogger(),
	}
	if app.Evaluations != nil {
		s.records = app.Evaluations
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /api/health", s.healthHandler)

	mux.HandleFunc("GET /api/products", s.productsHandler)
	mux.HandleFunc("GET /api/standards/{product}", s.standardsHandler)

	mux.HandleFunc("POST /api/evaluate/{product}", s.evaluateHandler)
	mux.HandleFunc("POST /api/probability/{product}", s.probabilityHandler)
	mux.HandleFunc("GET /api/evaluations/{id}", s.evaluationHandler)

	// Direct CSV upload endpoint
	mux.HandleFunc("POST /api/upload", s.uploadHandler)

	return mux
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := s.health.Check(r.Context())

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Loan Underwriting Engine API is running",
		Data:    health,
	})
}

func (s *Server) productsHandler(w http.ResponseWriter, r *http.Request) {
	products := make([]ProductInfo, 0, len(models.ProductLines()))
	for _, p := range models.ProductLines() {
		products = append(products, ProductInfo{
			ProductLine: p,
			Secured:     p.IsSecured(),
			Refinance:   p.IsRefinance(),
			Criteria:    underwriting.CriteriaFor(p),
			Weights:     underwriting.Weights(p),
		})
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: products})
}

func (s *Server) standardsHandler(w http.ResponseWriter, r *http.Request) {
	product := models.ParseProductLine(r.PathValue("product"))
	if !product.IsValid() {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   fmt.Sprintf("unknown product line %q", r.PathValue("product")),
		})
		return
	}

	bankID := r.URL.Query().Get("bank_id")
	th := s.engine.Thresholds(r.Context(), product, bankID)

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: StandardsResponse{
			ProductLine:     th.Path(),
			BankID:          th.BankID(),
			DefaultsVersion: standards.DefaultsVersion,
			Standards:       th.Entries(),
		},
	})
}

func (s *Server) evaluateHandler(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	app, req, err := handlers.ParseApplication(r.PathValue("product"), body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	ev, err := s.engine.Evaluate(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.evaluate.Record(r.Context(), req, ev, app.NotifyEmail)

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: string(ev.Decision.Status),
		Data:    ev,
	})
}

func (s *Server) probabilityHandler(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	_, req, err := handlers.ParseApplication(r.PathValue("product"), body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	score, err := s.engine.Probability(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: score})
}

func (s *Server) evaluationHandler(w http.ResponseWriter, r *http.Request) {
	if s.records == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "Evaluation history requires a database",
		})
		return
	}

	record, err := s.records.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, database.ErrEvaluationNotFound) {
		writeJSON(w, http.StatusNotFound, Response{Success: false, Error: "Evaluation not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to load evaluation", zap.String("evaluation_id", r.PathValue("id")), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "Failed to load evaluation"})
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: record})
}

func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	// Handle multipart form upload
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Failed to parse form: " + err.Error(),
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "No file provided",
		})
		return
	}
	defer file.Close()

	// Validate file type
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Only CSV files are allowed",
		})
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to read file",
		})
		return
	}

	if check := utils.ValidateCSVStructure(string(content)); !check.Valid {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid CSV structure",
			Data:    check,
		})
		return
	}

	s.logger.Info("Processing uploaded CSV",
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size))

	batchID := handlers.GenerateBatchID(header.Filename, time.Now())
	result := s.evaluate.EvaluateBatch(r.Context(), batchID, string(content))

	writeJSON(w, http.StatusOK, Response{
		Success: result.Evaluated > 0,
		Message: result.Message,
		Data:    result,
	})
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	status := handlers.ErrorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("Engine failure", zap.Error(err))
		message = "Internal error"
	}
	writeJSON(w, status, Response{Success: false, Error: message})
}

func readBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Failed to read request body"})
		return "", false
	}
	return string(body), true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
