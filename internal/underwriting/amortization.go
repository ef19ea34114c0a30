// Package underwriting implements the loan decision engine: amortization,
// criterion evaluation, stress testing, decision aggregation, lender
// recommendation and approval probability scoring.
//
// Everything in this package is a pure computation over one LoanRequest and
// one resolved standards.Thresholds; the only I/O happens in the Resolver
// before any criterion runs.
package underwriting

import (
	"fmt"
	"math"

	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/utils"
)

// Amortization holds unrounded payment figures. Rounding happens only in
// Summary, at the output boundary.
type Amortization struct {
	Principal      float64
	Upfront        float64
	Rate           float64
	Payments       int
	MonthlyPayment float64
	TotalPayment   float64
	TotalInterest  float64
}

// MonthlyPayment returns the level monthly payment for principal at an
// annual nominal rate in percent over years.
//
//	i = r/100/12, N = years*12
//	M = P*i*(1+i)^N / ((1+i)^N - 1), or P/N when r == 0
func MonthlyPayment(principal, ratePercent float64, years int) (float64, error) {
	if years <= 0 {
		return 0, fmt.Errorf("%w: got %d years", models.ErrInvalidTerm, years)
	}

	n := float64(years * 12)
	if ratePercent == 0 {
		return principal / n, nil
	}

	i := ratePercent / 100 / 12
	factor := math.Pow(1+i, n)
	return principal * i * factor / (factor - 1), nil
}

// CalculateAmortization computes baseline payment figures. upfront is the
// initial payment already subtracted from principal; it is added back into
// the total payment for display but never into total interest.
func CalculateAmortization(principal, ratePercent float64, years int, upfront float64) (Amortization, error) {
	payment, err := MonthlyPayment(principal, ratePercent, years)
	if err != nil {
		return Amortization{}, err
	}

	payments := years * 12
	paid := payment * float64(payments)

	return Amortization{
		Principal:      principal,
		Upfront:        upfront,
		Rate:           ratePercent,
		Payments:       payments,
		MonthlyPayment: payment,
		TotalPayment:   paid + upfront,
		TotalInterest:  paid - principal,
	}, nil
}

// Summary returns the figures rounded to whole currency units.
func (a Amortization) Summary() models.AmortizationSummary {
	return models.AmortizationSummary{
		PrincipalFinanced: utils.RoundCurrency(a.Principal),
		MonthlyPayment:    utils.RoundCurrency(a.MonthlyPayment),
		TotalPayment:      utils.RoundCurrency(a.TotalPayment),
		TotalInterest:     utils.RoundCurrency(a.TotalInterest),
	}
}
