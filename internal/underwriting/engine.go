package underwriting

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/standards"
	"loan-underwriting-engine/internal/utils"
)

// Engine evaluates loan requests against resolved banking standards.
// It is safe for concurrent use.
type Engine struct {
	resolver *standards.Resolver
	lenders  []Lender
	stress   StressPolicy
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLenders replaces the recommendation panel.
func WithLenders(lenders []Lender) Option {
	return func(e *Engine) { e.lenders = lenders }
}

// WithStressPolicy replaces the stress scenario.
func WithStressPolicy(policy StressPolicy) Option {
	return func(e *Engine) { e.stress = policy }
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock overrides the evaluation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides evaluation id generation.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine creates an engine. A nil resolver resolves every threshold to
// the default table.
func NewEngine(resolver *standards.Resolver, opts ...Option) *Engine {
	if resolver == nil {
		resolver = standards.NewResolver(nil)
	}
	e := &Engine{
		resolver: resolver,
		lenders:  DefaultLenders(),
		stress:   DefaultStressPolicy(),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = utils.GetLogger()
	}
	return e
}

// Thresholds returns the resolved standards for a business path and bank.
func (e *Engine) Thresholds(ctx context.Context, path models.ProductLine, bankID string) standards.Thresholds {
	return e.resolver.Load(ctx, path, bankID)
}

// Evaluate runs the full underwriting decision for req. A returned error
// means the request could not be evaluated; a rejected application is a
// successful evaluation with Decision.Approved false.
func (e *Engine) Evaluate(ctx context.Context, req *models.LoanRequest) (*models.Evaluation, error) {
	if err := models.ValidateLoanRequest(req); err != nil {
		return nil, err
	}

	p := profiles[req.ProductLine]
	th := e.resolver.Load(ctx, req.ProductLine, req.BankID)

	ev, err := e.prepare(req, th)
	if err != nil {
		return nil, err
	}

	verdicts := make([]models.CriterionVerdict, 0, len(p.criteria))
	for _, c := range p.criteria {
		if c.applies(ev) {
			verdicts = append(verdicts, c.check(ev))
		}
	}

	e.logger.Debug("Criteria evaluated",
		zap.String("product_line", string(req.ProductLine)),
		zap.Int("criteria", len(verdicts)),
		zap.Float64("dti", ev.dti),
		zap.Float64("stress_dti", ev.stress.dti),
	)

	decision := Aggregate(verdicts, approvalConditions(ev))
	if decision.Approved {
		decision.RecommendedLenders = recommend(ev, p, e.lenders)
	}

	result := &models.Evaluation{
		ID:                   e.newID(),
		ProductLine:          req.ProductLine,
		BankID:               req.BankID,
		EvaluatedAt:          e.now().UTC(),
		Amortization:         ev.amort.Summary(),
		DTI:                  utils.RoundRatio(ev.dti),
		StressRate:           utils.RoundRate(ev.stress.rate),
		StressMonthlyPayment: utils.RoundCurrency(ev.stress.payment),
		StressDTI:            utils.RoundRatio(ev.stress.dti),
		AgeAtMaturity:        req.AgeAtMaturity(),
		CreditTier:           CreditTierFor(req.CreditScore, th),
		Decision:             decision,
	}
	if req.ProductLine.IsSecured() {
		result.LTV = ptr(utils.RoundRatio(ev.ltv))
	}
	switch req.ProductLine {
	case models.ProductLineMortgageRefinance:
		result.RefinanceType = req.RefinanceType
		result.BreakEvenMonths = ptr(utils.RoundRatio(ev.breakEven))
		result.MonthlySavings = ptr(utils.RoundCurrency(ev.savings))
	case models.ProductLineCreditRefinance:
		result.Purpose = req.Purpose
		result.DTIBefore = ptr(utils.RoundRatio(ev.dtiBefore))
		result.MonthlySavings = ptr(utils.RoundCurrency(ev.replacedPayment - ev.amort.MonthlyPayment))
	}

	e.logger.Info("Loan evaluated",
		zap.String("evaluation_id", result.ID),
		zap.String("product_line", string(req.ProductLine)),
		zap.String("bank_id", req.BankID),
		zap.Bool("approved", decision.Approved),
		zap.Strings("failed_criteria", decision.FailedCriteria()),
	)

	return result, nil
}

// Probability scores the approval likelihood of req. It shares the derived
// figures of Evaluate but never produces a decision.
func (e *Engine) Probability(ctx context.Context, req *models.LoanRequest) (*models.ProbabilityScore, error) {
	if err := models.ValidateLoanRequest(req); err != nil {
		return nil, err
	}

	th := e.resolver.Load(ctx, req.ProductLine, req.BankID)
	ev, err := e.prepare(req, th)
	if err != nil {
		return nil, err
	}

	result := score(ev, profiles[req.ProductLine])
	e.logger.Debug("Approval probability scored",
		zap.String("product_line", string(req.ProductLine)),
		zap.Int("probability", result.ApprovalProbability),
		zap.String("category", string(result.Category)),
	)
	return result, nil
}

// prepare derives every figure the criteria read. No criterion recomputes
// anything on its own.
func (e *Engine) prepare(req *models.LoanRequest, th standards.Thresholds) (*evaluation, error) {
	amort, err := CalculateAmortization(req.Principal(), req.Rate, req.TermYears, req.InitialPayment)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate amortization: %w", err)
	}

	ev := &evaluation{req: req, th: th, amort: amort}

	if req.ProductLine.IsSecured() {
		ev.ltv = req.Amount / req.PropertyValue * 100
	}

	ev.obligations = req.MonthlyExpenses + req.ExistingDebts

	switch req.ProductLine {
	case models.ProductLineMortgageRefinance:
		// The mortgage being refinanced is paid off, so its payment is not
		// part of the new debt load.
		ev.savings = req.PriorPayment() - amort.MonthlyPayment
		ev.breakEven = req.ClosingCosts / math.Max(ev.savings, 1)

	case models.ProductLineCreditRefinance:
		prior := req.PriorPayment()
		share := 1.0
		if balance := req.PriorBalance(); balance > 0 {
			share = math.Min(1, req.Amount/balance)
		}
		ev.replacedPayment = share * prior
		ev.dtiBefore = ev.ratio(prior + ev.obligations)
		ev.obligations += prior - ev.replacedPayment
	}

	ev.dti = ev.ratio(amort.MonthlyPayment + ev.obligations)

	ev.stress, err = stressTest(ev, e.stress)
	if err != nil {
		return nil, fmt.Errorf("failed to run stress test: %w", err)
	}

	return ev, nil
}

func ptr[T any](v T) *T { return &v }
