package handlers

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"loan-underwriting-engine/internal/utils"
)

// ProbabilityHandler handles POST /probability/{product}.
type ProbabilityHandler struct {
	engine Evaluator
	logger *zap.Logger
}

// NewProbabilityHandler creates a new probability handler.
func NewProbabilityHandler(engine Evaluator) *ProbabilityHandler {
	return &ProbabilityHandler{engine: engine, logger: utils.GetLogger()}
}

// Handle processes the API Gateway request.
func (h *ProbabilityHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := corsHeaders("POST,OPTIONS")
	if request.HTTPMethod == http.MethodOptions {
		return preflight(headers)
	}

	_, req, err := ParseApplication(request.PathParameters["product"], request.Body)
	if err != nil {
		return errorResponse(headers, http.StatusBadRequest, err.Error())
	}

	score, err := h.engine.Probability(ctx, req)
	if err != nil {
		status := ErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Probability scoring failed", zap.Error(err))
			return errorResponse(headers, status, "Failed to score application")
		}
		return errorResponse(headers, status, err.Error())
	}

	return jsonResponse(headers, http.StatusOK, score)
}
