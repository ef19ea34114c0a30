package handlers

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"loan-underwriting-engine/internal/bootstrap"
	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/services/ses"
	"loan-underwriting-engine/internal/utils"
)

// Notifier emails a decision summary.
type Notifier interface {
	SendDecisionSummary(ctx context.Context, to string, ev *models.Evaluation) (*ses.SendEmailResult, error)
}

// EvaluateHandler handles POST /evaluate/{product}.
type EvaluateHandler struct {
	engine   Evaluator
	store    EvaluationStore
	notifier Notifier
	logger   *zap.Logger
}

// EvaluateOption configures an EvaluateHandler.
type EvaluateOption func(*EvaluateHandler)

// WithStore records every decision in store.
func WithStore(store EvaluationStore) EvaluateOption {
	return func(h *EvaluateHandler) { h.store = store }
}

// WithNotifier emails decisions when the request carries notify_email.
func WithNotifier(notifier Notifier) EvaluateOption {
	return func(h *EvaluateHandler) { h.notifier = notifier }
}

// NewEvaluateHandler creates a new evaluate handler.
func NewEvaluateHandler(engine Evaluator, opts ...EvaluateOption) *EvaluateHandler {
	h := &EvaluateHandler{engine: engine, logger: utils.GetLogger()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewEvaluateHandlerFromApp wires the handler to whatever app connected.
func NewEvaluateHandlerFromApp(app *bootstrap.App) *EvaluateHandler {
	var opts []EvaluateOption
	if app.Evaluations != nil {
		opts = append(opts, WithStore(app.Evaluations))
	}
	if app.Notifier != nil {
		opts = append(opts, WithNotifier(app.Notifier))
	}
	return NewEvaluateHandler(app.Engine, opts...)
}

// Handle processes the API Gateway request.
func (h *EvaluateHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := corsHeaders("POST,OPTIONS")
	if request.HTTPMethod == http.MethodOptions {
		return preflight(headers)
	}

	app, req, err := ParseApplication(request.PathParameters["product"], request.Body)
	if err != nil {
		return errorResponse(headers, http.StatusBadRequest, err.Error())
	}

	ev, err := h.engine.Evaluate(ctx, req)
	if err != nil {
		status := ErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Evaluation failed", zap.Error(err))
			return errorResponse(headers, status, "Failed to evaluate application")
		}
		return errorResponse(headers, status, err.Error())
	}

	h.Record(ctx, req, ev, app.NotifyEmail)

	return jsonResponse(headers, http.StatusOK, ev)
}

// Record stores the decision and sends the notification. Failures are
// logged; the decision itself already stands.
func (h *EvaluateHandler) Record(ctx context.Context, req *models.LoanRequest, ev *models.Evaluation, notifyEmail string) {
	if h.store != nil {
		if err := h.store.Save(ctx, req, ev); err != nil {
			h.logger.Error("Failed to save evaluation",
				zap.String("evaluation_id", ev.ID),
				zap.Error(err))
		}
	}

	if h.notifier != nil && notifyEmail != "" {
		if _, err := h.notifier.SendDecisionSummary(ctx, notifyEmail, ev); err != nil {
			h.logger.Warn("Failed to send decision email",
				zap.String("evaluation_id", ev.ID),
				zap.Error(err))
		}
	}
}
