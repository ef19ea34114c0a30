// Package models defines the data structures for the loan underwriting engine.
package models

import (
	"time"
)

// Criterion names, in fixed evaluation order.
const (
	CriterionLTV        = "ltv"
	CriterionDTI        = "dti"
	CriterionAge        = "age"
	CriterionCredit     = "credit_score"
	CriterionEmployment = "employment"
	CriterionBreakEven  = "break_even"
	CriterionCashOut    = "cash_out"
	CriterionBenefit    = "refinance_benefit"
	CriterionStressTest = "stress_test"
)

// CreditTier buckets a credit score.
type CreditTier string

const (
	CreditTierPoor      CreditTier = "poor"
	CreditTierFair      CreditTier = "fair"
	CreditTierGood      CreditTier = "good"
	CreditTierExcellent CreditTier = "excellent"
)

// DecisionStatus is one of the two terminal states of an evaluation.
type DecisionStatus string

const (
	DecisionStatusApproved DecisionStatus = "approved"
	DecisionStatusRejected DecisionStatus = "rejected"
)

// CriterionVerdict is the outcome of a single underwriting check.
type CriterionVerdict struct {
	Criterion string  `json:"criterion"`
	Passed    bool    `json:"passed"`
	Observed  float64 `json:"observed"`
	Threshold float64 `json:"threshold"`
	Message   string  `json:"message,omitempty"`
}

// AmortizationSummary holds the payment figures rounded for display.
type AmortizationSummary struct {
	PrincipalFinanced float64 `json:"principal_financed"`
	MonthlyPayment    float64 `json:"monthly_payment"`
	TotalPayment      float64 `json:"total_payment"`
	TotalInterest     float64 `json:"total_interest"`
}

// LenderOffer is a recommended lender at an adjusted rate.
type LenderOffer struct {
	BankID         string  `json:"bank_id"`
	Name           string  `json:"name"`
	Tier           string  `json:"tier"`
	Rate           float64 `json:"rate"`
	MonthlyPayment float64 `json:"monthly_payment"`
}

// Decision aggregates every verdict of one evaluation.
type Decision struct {
	Approved           bool               `json:"approved"`
	Status             DecisionStatus     `json:"status"`
	RejectionReasons   []string           `json:"rejection_reasons"`
	ApprovalConditions []string           `json:"approval_conditions"`
	CriteriaResults    map[string]bool    `json:"criteria_results"`
	Verdicts           []CriterionVerdict `json:"criteria_details"`
	RecommendedLenders []LenderOffer      `json:"recommended_lenders"`
}

// FailedCriteria returns the names of failed verdicts in evaluation order.
func (d *Decision) FailedCriteria() []string {
	var failed []string
	for _, v := range d.Verdicts {
		if !v.Passed {
			failed = append(failed, v.Criterion)
		}
	}
	return failed
}

// Evaluation is the full-decision response for one LoanRequest.
type Evaluation struct {
	ID                   string              `json:"evaluation_id"`
	ProductLine          ProductLine         `json:"product_line"`
	BankID               string              `json:"bank_id,omitempty"`
	EvaluatedAt          time.Time           `json:"evaluated_at"`
	Amortization         AmortizationSummary `json:"amortization"`
	LTV                  *float64            `json:"ltv,omitempty"`
	DTI                  float64             `json:"dti"`
	DTIBefore            *float64            `json:"dti_before,omitempty"`
	StressRate           float64             `json:"stress_rate"`
	StressMonthlyPayment float64             `json:"stress_monthly_payment"`
	StressDTI            float64             `json:"stress_dti"`
	AgeAtMaturity        int                 `json:"age_at_maturity"`
	CreditTier           CreditTier          `json:"credit_tier"`
	RefinanceType        RefinanceType       `json:"refinance_type,omitempty"`
	Purpose              CreditPurpose       `json:"purpose,omitempty"`
	BreakEvenMonths      *float64            `json:"break_even_months,omitempty"`
	MonthlySavings       *float64            `json:"monthly_savings,omitempty"`
	Decision             Decision            `json:"decision"`
}
