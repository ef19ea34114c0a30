package underwriting

import (
	"fmt"

	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/standards"
	"loan-underwriting-engine/internal/utils"
)

// StressPolicy sets the hypothetical rate a loan is re-priced at.
// Secured lines use a fixed stress rate; unsecured lines add a margin to the
// requested rate.
type StressPolicy struct {
	MortgageRate float64
	CreditMargin float64
}

// DefaultStressPolicy returns the standard stress scenario.
func DefaultStressPolicy() StressPolicy {
	return StressPolicy{MortgageRate: 6.5, CreditMargin: 2.0}
}

// RateFor returns the stress rate for a request.
func (p StressPolicy) RateFor(req *models.LoanRequest) float64 {
	if req.ProductLine.IsSecured() {
		return p.MortgageRate
	}
	return req.Rate + p.CreditMargin
}

type stressResult struct {
	rate    float64
	payment float64
	dti     float64
}

// stressTest re-prices the financed principal at the stress rate and
// recomputes DTI with every other obligation unchanged.
func stressTest(e *evaluation, policy StressPolicy) (stressResult, error) {
	rate := policy.RateFor(e.req)
	payment, err := MonthlyPayment(e.amort.Principal, rate, e.req.TermYears)
	if err != nil {
		return stressResult{}, err
	}
	return stressResult{
		rate:    rate,
		payment: payment,
		dti:     e.ratio(payment + e.obligations),
	}, nil
}

func checkStress(e *evaluation) models.CriterionVerdict {
	limit := e.th.Value(standards.KeyDTIMax)
	return verdict(models.CriterionStressTest, e.stress.dti <= limit, e.stress.dti, limit,
		fmt.Sprintf("Stress test failed: at %s%% the debt-to-income ratio would be %s%%, exceeding the maximum allowed %s%%",
			utils.FormatPercent(e.stress.rate), utils.FormatPercent(e.stress.dti), utils.FormatPercent(limit)))
}
