// Package handlers provides the API Gateway Lambda handlers for the
// underwriting engine.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"loan-underwriting-engine/internal/models"
)

// Evaluator is the part of the engine the handlers depend on.
type Evaluator interface {
	Evaluate(ctx context.Context, req *models.LoanRequest) (*models.Evaluation, error)
	Probability(ctx context.Context, req *models.LoanRequest) (*models.ProbabilityScore, error)
}

// EvaluationStore persists the audit record of a decision.
type EvaluationStore interface {
	Save(ctx context.Context, req *models.LoanRequest, ev *models.Evaluation) error
}

// corsHeaders returns the headers sent with every response.
func corsHeaders(methods string) map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,Authorization",
		"Access-Control-Allow-Methods": methods,
		"Content-Type":                 "application/json",
	}
}

// preflight answers a CORS OPTIONS request.
func preflight(headers map[string]string) (events.APIGatewayProxyResponse, error) {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
	}, nil
}

// jsonResponse marshals body with the given status.
func jsonResponse(headers map[string]string, statusCode int, body interface{}) (events.APIGatewayProxyResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return errorResponse(headers, http.StatusInternalServerError, "Failed to encode response")
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(data),
	}, nil
}

// errorResponse creates an error response.
func errorResponse(headers map[string]string, statusCode int, message string) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(map[string]string{
		"error":   http.StatusText(statusCode),
		"message": message,
	})

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(body),
	}, nil
}

// ErrorStatus maps an engine error to an HTTP status: input that cannot be
// evaluated is the caller's fault, anything else is ours.
func ErrorStatus(err error) int {
	if models.IsEvaluationError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
