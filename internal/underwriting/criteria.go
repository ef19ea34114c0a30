package underwriting

import (
	"fmt"
	"math"

	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/standards"
	"loan-underwriting-engine/internal/utils"
)

// evaluation carries the derived figures of one request through the
// criteria. It is built once by Engine.prepare and never mutated by checks.
type evaluation struct {
	req *models.LoanRequest
	th  standards.Thresholds

	amort Amortization

	ltv       float64
	dti       float64
	dtiBefore float64

	// obligations is every monthly outflow other than the new payment.
	obligations float64

	// Mortgage refinance.
	savings   float64
	breakEven float64

	// Credit refinance.
	replacedPayment float64

	stress stressResult
}

func (e *evaluation) ratio(numerator float64) float64 {
	return numerator / e.req.MonthlyIncome * 100
}

// ltvLimit picks the LTV ceiling for the line, refinance sub-cases first.
func (e *evaluation) ltvLimit() float64 {
	if e.req.ProductLine.IsRefinance() {
		if e.req.RefinanceType == models.RefinanceTypeCashOut {
			return e.th.Value(standards.KeyLTVMaxCashOut)
		}
		return e.th.Value(standards.KeyLTVMaxRateTerm)
	}
	return e.th.Value(standards.KeyLTVMax)
}

// suffix qualifies a message with the refinance sub-case or the stated
// purpose when there is one.
func (e *evaluation) suffix() string {
	switch e.req.ProductLine {
	case models.ProductLineMortgageRefinance:
		return " for " + e.req.RefinanceType.Label()
	case models.ProductLineCreditRefinance:
		return " for " + e.req.Purpose.Label()
	}
	return ""
}

func verdict(name string, passed bool, observed, threshold float64, message string) models.CriterionVerdict {
	v := models.CriterionVerdict{
		Criterion: name,
		Passed:    passed,
		Observed:  observed,
		Threshold: threshold,
	}
	if !passed {
		v.Message = message
	}
	return v
}

func checkLTV(e *evaluation) models.CriterionVerdict {
	limit := e.ltvLimit()
	return verdict(models.CriterionLTV, e.ltv <= limit, e.ltv, limit,
		fmt.Sprintf("LTV ratio %s%% exceeds the maximum allowed %s%%%s",
			utils.FormatPercent(e.ltv), utils.FormatPercent(limit), e.suffix()))
}

func checkDTI(e *evaluation) models.CriterionVerdict {
	limit := e.th.Value(standards.KeyDTIMax)
	return verdict(models.CriterionDTI, e.dti <= limit, e.dti, limit,
		fmt.Sprintf("Debt-to-income ratio %s%% exceeds the maximum allowed %s%%",
			utils.FormatPercent(e.dti), utils.FormatPercent(limit)))
}

func checkAge(e *evaluation) models.CriterionVerdict {
	limit := e.th.Value(standards.KeyAgeMax)
	age := float64(e.req.AgeAtMaturity())
	return verdict(models.CriterionAge, age <= limit, age, limit,
		fmt.Sprintf("Age at loan maturity %d exceeds the maximum allowed %s",
			e.req.AgeAtMaturity(), utils.FormatNumber(limit)))
}

func checkCredit(e *evaluation) models.CriterionVerdict {
	floor := e.th.Value(standards.KeyCreditMin)
	score := float64(e.req.CreditScore)
	return verdict(models.CriterionCredit, score >= floor, score, floor,
		fmt.Sprintf("Credit score %d is below the minimum required %s",
			e.req.CreditScore, utils.FormatNumber(floor)))
}

func checkEmployment(e *evaluation) models.CriterionVerdict {
	years := e.req.EmploymentYears
	return verdict(models.CriterionEmployment, years >= MinEmploymentYears, years, MinEmploymentYears,
		fmt.Sprintf("Employment history of %s years is below the required %s years",
			utils.FormatNumber(years), utils.FormatNumber(MinEmploymentYears)))
}

func checkBreakEven(e *evaluation) models.CriterionVerdict {
	return verdict(models.CriterionBreakEven, e.breakEven <= MaxBreakEvenMonths, e.breakEven, MaxBreakEvenMonths,
		fmt.Sprintf("Break-even period of %s months exceeds the maximum %s months",
			utils.FormatNumber(e.breakEven), utils.FormatNumber(MaxBreakEvenMonths)))
}

// cashOutRatio is the equity withdrawn as a percentage of annual income.
func (e *evaluation) cashOutRatio() float64 {
	cashOut := math.Max(0, e.req.Amount-e.req.PriorBalance())
	return cashOut / e.req.AnnualIncome() * 100
}

func checkCashOut(e *evaluation) models.CriterionVerdict {
	ratio := e.cashOutRatio()
	return verdict(models.CriterionCashOut, ratio <= MaxCashOutIncomePercent, ratio, MaxCashOutIncomePercent,
		fmt.Sprintf("Cash-out amount is %s%% of annual income, exceeding the maximum %s%%",
			utils.FormatPercent(ratio), utils.FormatPercent(MaxCashOutIncomePercent)))
}

// checkBenefit requires the new loan to be cheaper than the share of prior
// payments it replaces and to not raise the overall debt load.
func checkBenefit(e *evaluation) models.CriterionVerdict {
	cheaper := e.amort.MonthlyPayment < e.replacedPayment
	lighter := e.dti <= e.dtiBefore

	var message string
	switch {
	case !cheaper && !lighter:
		message = fmt.Sprintf("New monthly payment %s is not lower than the %s it replaces and the debt-to-income ratio would rise from %s%% to %s%%%s",
			utils.FormatAmount(e.amort.MonthlyPayment), utils.FormatAmount(e.replacedPayment),
			utils.FormatPercent(e.dtiBefore), utils.FormatPercent(e.dti), e.suffix())
	case !cheaper:
		message = fmt.Sprintf("New monthly payment %s is not lower than the %s it replaces%s",
			utils.FormatAmount(e.amort.MonthlyPayment), utils.FormatAmount(e.replacedPayment), e.suffix())
	case !lighter:
		message = fmt.Sprintf("Refinancing would raise the debt-to-income ratio from %s%% to %s%%%s",
			utils.FormatPercent(e.dtiBefore), utils.FormatPercent(e.dti), e.suffix())
	}

	return verdict(models.CriterionBenefit, cheaper && lighter, e.amort.MonthlyPayment, e.replacedPayment, message)
}

// CreditTierFor buckets a score against the resolved credit thresholds.
func CreditTierFor(score int, th standards.Thresholds) models.CreditTier {
	s := float64(score)
	switch {
	case s < th.Value(standards.KeyCreditMin):
		return models.CreditTierPoor
	case s < th.Value(standards.KeyCreditGood):
		return models.CreditTierFair
	case s < th.Value(standards.KeyCreditExcellent):
		return models.CreditTierGood
	default:
		return models.CreditTierExcellent
	}
}
