package underwriting

import (
	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/standards"
)

// Fixed floors. These are policy constants, not resolved from standards.
const (
	MinEmploymentYears      = 2.0
	MaxBreakEvenMonths      = 36.0
	MaxCashOutIncomePercent = 50.0
)

// criterion is one entry of a product line's evaluation order.
type criterion struct {
	name    string
	applies func(*evaluation) bool
	check   func(*evaluation) models.CriterionVerdict
}

// profile is the per-product-line configuration: which criteria run, in
// which order, and how the line is priced and scored.
type profile struct {
	criteria []criterion

	// premiumKey is the ratio compared against the premium line for top-tier
	// recommendations: LTV for secured lines, DTI for unsecured ones.
	premiumKey standards.Key
	topOffsets [2]float64
	midOffsets [2]float64

	weights map[string]float64
}

func always(*evaluation) bool { return true }

func isCashOut(e *evaluation) bool {
	return e.req.RefinanceType == models.RefinanceTypeCashOut
}

var (
	ltvCriterion        = criterion{models.CriterionLTV, always, checkLTV}
	dtiCriterion        = criterion{models.CriterionDTI, always, checkDTI}
	ageCriterion        = criterion{models.CriterionAge, always, checkAge}
	creditCriterion     = criterion{models.CriterionCredit, always, checkCredit}
	employmentCriterion = criterion{models.CriterionEmployment, always, checkEmployment}
	breakEvenCriterion  = criterion{models.CriterionBreakEven, always, checkBreakEven}
	cashOutCriterion    = criterion{models.CriterionCashOut, isCashOut, checkCashOut}
	benefitCriterion    = criterion{models.CriterionBenefit, always, checkBenefit}
	stressCriterion     = criterion{models.CriterionStressTest, always, checkStress}
)

// Probability weights per base product line. Each map sums to 1.0.
var (
	mortgageWeights = map[string]float64{
		models.CriterionLTV:        0.25,
		models.CriterionDTI:        0.25,
		models.CriterionAge:        0.15,
		models.CriterionCredit:     0.25,
		models.CriterionEmployment: 0.10,
	}
	creditWeights = map[string]float64{
		models.CriterionDTI:        0.30,
		ScoreAmountToIncome:        0.25,
		models.CriterionAge:        0.10,
		models.CriterionCredit:     0.25,
		models.CriterionEmployment: 0.10,
	}
)

var profiles = map[models.ProductLine]profile{
	models.ProductLineMortgage: {
		criteria: []criterion{
			ltvCriterion, dtiCriterion, ageCriterion, creditCriterion, employmentCriterion,
			stressCriterion,
		},
		premiumKey: standards.KeyLTVPremium,
		topOffsets: [2]float64{-0.2, -0.1},
		midOffsets: [2]float64{0, 0.1},
		weights:    mortgageWeights,
	},
	models.ProductLineCredit: {
		criteria: []criterion{
			dtiCriterion, ageCriterion, creditCriterion, employmentCriterion,
			stressCriterion,
		},
		premiumKey: standards.KeyDTIPremium,
		topOffsets: [2]float64{-0.5, -0.3},
		midOffsets: [2]float64{0, 0.2},
		weights:    creditWeights,
	},
	models.ProductLineMortgageRefinance: {
		criteria: []criterion{
			ltvCriterion, dtiCriterion, ageCriterion, creditCriterion, employmentCriterion,
			breakEvenCriterion, cashOutCriterion, stressCriterion,
		},
		premiumKey: standards.KeyLTVPremium,
		topOffsets: [2]float64{-0.2, -0.1},
		midOffsets: [2]float64{0, 0.1},
		weights:    mortgageWeights,
	},
	models.ProductLineCreditRefinance: {
		criteria: []criterion{
			dtiCriterion, ageCriterion, creditCriterion, employmentCriterion,
			benefitCriterion, stressCriterion,
		},
		premiumKey: standards.KeyDTIPremium,
		topOffsets: [2]float64{-0.5, -0.3},
		midOffsets: [2]float64{0, 0.2},
		weights:    creditWeights,
	},
}

// Weights returns a copy of the probability weights for a product line.
func Weights(product models.ProductLine) map[string]float64 {
	p, ok := profiles[product]
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(p.weights))
	for k, v := range p.weights {
		out[k] = v
	}
	return out
}

// CriteriaFor lists the criterion names a product line may evaluate, in order.
func CriteriaFor(product models.ProductLine) []string {
	p, ok := profiles[product]
	if !ok {
		return nil
	}
	names := make([]string, len(p.criteria))
	for i, c := range p.criteria {
		names[i] = c.name
	}
	return names
}
