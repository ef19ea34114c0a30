// Package models defines the data structures for the loan underwriting engine.
package models

import (
	"fmt"
)

// Request defaults applied when the applicant leaves a field empty.
const (
	DefaultCreditScore         = 750
	DefaultEmploymentYears     = 5.0
	DefaultClosingCostsPercent = 2.0
)

// PriorLoan is an existing obligation considered for refinance.
type PriorLoan struct {
	Balance        float64 `json:"balance"`
	Rate           float64 `json:"rate"`
	MonthlyPayment float64 `json:"monthly_payment"`
}

// LoanRequest is the immutable, fully defaulted input to one evaluation.
type LoanRequest struct {
	ProductLine     ProductLine   `json:"product_line"`
	BankID          string        `json:"bank_id,omitempty"`
	Amount          float64       `json:"amount"`
	Rate            float64       `json:"rate"`
	TermYears       int           `json:"years"`
	InitialPayment  float64       `json:"initial_payment,omitempty"`
	PropertyValue   float64       `json:"property_value,omitempty"`
	MonthlyIncome   float64       `json:"monthly_income"`
	MonthlyExpenses float64       `json:"monthly_expenses"`
	Age             int           `json:"age"`
	CreditScore     int           `json:"credit_score"`
	EmploymentYears float64       `json:"employment_years"`
	ExistingDebts   float64       `json:"existing_debts"`
	PriorLoans      []PriorLoan   `json:"prior_loans,omitempty"`
	RefinanceType   RefinanceType `json:"refinance_type,omitempty"`
	Purpose         CreditPurpose `json:"purpose,omitempty"`
	ClosingCosts    float64       `json:"closing_costs,omitempty"`
}

// Principal returns the amount actually financed.
func (r *LoanRequest) Principal() float64 {
	return r.Amount - r.InitialPayment
}

// AnnualIncome returns twelve months of income.
func (r *LoanRequest) AnnualIncome() float64 {
	return r.MonthlyIncome * 12
}

// AgeAtMaturity returns the applicant age when the last payment is due.
func (r *LoanRequest) AgeAtMaturity() int {
	return r.Age + r.TermYears
}

// PriorBalance sums the balances of the loans being refinanced.
func (r *LoanRequest) PriorBalance() float64 {
	total := 0.0
	for _, l := range r.PriorLoans {
		total += l.Balance
	}
	return total
}

// PriorPayment sums the monthly payments of the loans being refinanced.
func (r *LoanRequest) PriorPayment() float64 {
	total := 0.0
	for _, l := range r.PriorLoans {
		total += l.MonthlyPayment
	}
	return total
}

// LoanRequestPayload is the wire shape of a request. Pointer fields
// distinguish "absent" from zero so mandatory fields can be enforced.
type LoanRequestPayload struct {
	BankID          string   `json:"bank_id,omitempty"`
	Amount          *float64 `json:"amount"`
	Rate            *float64 `json:"rate"`
	Years           *int     `json:"years"`
	InitialPayment  *float64 `json:"initial_payment,omitempty"`
	PropertyValue   *float64 `json:"property_value,omitempty"`
	MonthlyIncome   *float64 `json:"monthly_income"`
	MonthlyExpenses *float64 `json:"monthly_expenses,omitempty"`
	Age             *int     `json:"age"`
	CreditScore     *int     `json:"credit_score,omitempty"`
	EmploymentYears *float64 `json:"employment_years,omitempty"`
	ExistingDebts   *float64 `json:"existing_debts,omitempty"`

	// Refinance fields. A single prior loan may be given inline through the
	// current_* fields; credit refinance may also list several.
	CurrentBalance        *float64    `json:"current_balance,omitempty"`
	CurrentRate           *float64    `json:"current_rate,omitempty"`
	CurrentMonthlyPayment *float64    `json:"current_monthly_payment,omitempty"`
	ExistingLoans         []PriorLoan `json:"existing_loans,omitempty"`
	RefinanceType         string      `json:"refinance_type,omitempty"`
	Purpose               string      `json:"purpose,omitempty"`
	ClosingCosts          *float64    `json:"closing_costs,omitempty"`
}

// ToLoanRequest validates the payload for the given product line and returns
// a defaulted LoanRequest. Errors wrap ErrInvalidInput or ErrInvalidTerm.
func (p *LoanRequestPayload) ToLoanRequest(product ProductLine) (*LoanRequest, error) {
	if !product.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProductLine, product)
	}

	required := []struct {
		name    string
		present bool
	}{
		{"amount", p.Amount != nil},
		{"rate", p.Rate != nil},
		{"years", p.Years != nil},
		{"monthly_income", p.MonthlyIncome != nil},
		{"age", p.Age != nil},
	}
	if product.IsSecured() {
		required = append(required, struct {
			name    string
			present bool
		}{"property_value", p.PropertyValue != nil})
	}
	for _, f := range required {
		if !f.present {
			return nil, &MissingFieldError{Field: f.name}
		}
	}

	req := &LoanRequest{
		ProductLine:     product,
		BankID:          p.BankID,
		Amount:          *p.Amount,
		Rate:            *p.Rate,
		TermYears:       *p.Years,
		MonthlyIncome:   *p.MonthlyIncome,
		Age:             *p.Age,
		CreditScore:     DefaultCreditScore,
		EmploymentYears: DefaultEmploymentYears,
		InitialPayment:  valueOr(p.InitialPayment, 0),
		PropertyValue:   valueOr(p.PropertyValue, 0),
		MonthlyExpenses: valueOr(p.MonthlyExpenses, 0),
		ExistingDebts:   valueOr(p.ExistingDebts, 0),
	}
	if p.CreditScore != nil {
		req.CreditScore = *p.CreditScore
	}
	if p.EmploymentYears != nil {
		req.EmploymentYears = *p.EmploymentYears
	}

	if err := p.applyRefinance(req); err != nil {
		return nil, err
	}

	if err := ValidateLoanRequest(req); err != nil {
		return nil, err
	}

	return req, nil
}

// applyRefinance copies the refinance section of the payload onto req.
func (p *LoanRequestPayload) applyRefinance(req *LoanRequest) error {
	switch req.ProductLine {
	case ProductLineMortgageRefinance:
		if p.CurrentBalance == nil {
			return &MissingFieldError{Field: "current_balance"}
		}
		if p.CurrentMonthlyPayment == nil {
			return &MissingFieldError{Field: "current_monthly_payment"}
		}
		req.PriorLoans = []PriorLoan{{
			Balance:        *p.CurrentBalance,
			Rate:           valueOr(p.CurrentRate, 0),
			MonthlyPayment: *p.CurrentMonthlyPayment,
		}}

		req.RefinanceType = RefinanceTypeRateAndTerm
		if p.RefinanceType != "" {
			req.RefinanceType = RefinanceType(p.RefinanceType)
		}
		if !req.RefinanceType.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidRefinanceType, p.RefinanceType)
		}

		req.ClosingCosts = req.Amount * DefaultClosingCostsPercent / 100
		if p.ClosingCosts != nil {
			req.ClosingCosts = *p.ClosingCosts
		}

	case ProductLineCreditRefinance:
		loans := append([]PriorLoan(nil), p.ExistingLoans...)
		if p.CurrentBalance != nil && p.CurrentMonthlyPayment != nil {
			loans = append(loans, PriorLoan{
				Balance:        *p.CurrentBalance,
				Rate:           valueOr(p.CurrentRate, 0),
				MonthlyPayment: *p.CurrentMonthlyPayment,
			})
		}
		if len(loans) == 0 {
			return &MissingFieldError{Field: "existing_loans"}
		}
		req.PriorLoans = loans

		req.Purpose = CreditPurposeConsolidation
		if p.Purpose != "" {
			req.Purpose = CreditPurpose(p.Purpose)
		}
		if !req.Purpose.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidCreditPurpose, p.Purpose)
		}
	}

	return nil
}

// ValidateLoanRequest checks the invariants of a LoanRequest. It is exported
// so in-process callers that build a LoanRequest directly get the same checks.
func ValidateLoanRequest(r *LoanRequest) error {
	if !r.ProductLine.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownProductLine, r.ProductLine)
	}
	if r.TermYears <= 0 {
		return ErrInvalidTerm
	}
	if r.Amount <= 0 {
		return ErrNonPositiveAmount
	}
	if r.Rate <= 0 {
		return ErrNonPositiveRate
	}
	if r.MonthlyIncome <= 0 {
		return ErrNonPositiveIncome
	}
	if r.Age < 18 || r.Age > 120 {
		return ErrInvalidAge
	}
	if r.CreditScore < 300 || r.CreditScore > 900 {
		return ErrInvalidCreditScore
	}
	if r.MonthlyExpenses < 0 || r.ExistingDebts < 0 || r.EmploymentYears < 0 ||
		r.InitialPayment < 0 || r.ClosingCosts < 0 {
		return ErrNegativeValue
	}
	if r.InitialPayment >= r.Amount {
		return ErrInitialPaymentTooHigh
	}

	if r.ProductLine.IsSecured() && r.PropertyValue < r.Amount {
		return ErrPropertyBelowAmount
	}

	for _, l := range r.PriorLoans {
		if l.Balance < 0 || l.MonthlyPayment < 0 || l.Rate < 0 {
			return fmt.Errorf("%w: prior loan", ErrNegativeValue)
		}
	}

	return nil
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
