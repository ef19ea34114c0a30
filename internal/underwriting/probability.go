package underwriting

import (
	"fmt"
	"math"

	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/standards"
	"loan-underwriting-engine/internal/utils"
)

// ScoreAmountToIncome is the sub-score key for loan size against annual income.
const ScoreAmountToIncome = "amount_to_income"

// Concern and tip triggers, as fractions of a ratio's threshold.
const (
	concernFraction = 0.9
	tipFraction     = 0.8
)

type band struct {
	floor   float64
	name    models.ProbabilityBand
	color   string
	message string
	rates   map[models.ProductLine]float64
	steps   []string
}

// bands is ordered from best to worst; the first whose floor is met wins.
var bands = []band{
	{
		floor: 80, name: models.ProbabilityBandExcellent, color: "green",
		message: "Your application has an excellent chance of approval.",
		rates:   map[models.ProductLine]float64{models.ProductLineMortgage: 3.5, models.ProductLineCredit: 7.5},
		steps: []string{
			"Compare offers from the recommended lenders",
			"Prepare proof of income and identity",
			"Submit a full application",
		},
	},
	{
		floor: 65, name: models.ProbabilityBandGood, color: "blue",
		message: "Your application has a good chance of approval.",
		rates:   map[models.ProductLine]float64{models.ProductLineMortgage: 4.0, models.ProductLineCredit: 9.0},
		steps: []string{
			"Prepare proof of income and identity",
			"Submit a full application to confirm your terms",
		},
	},
	{
		floor: 45, name: models.ProbabilityBandFair, color: "yellow",
		message: "Your application may be approved, but some factors need attention.",
		rates:   map[models.ProductLine]float64{models.ProductLineMortgage: 4.5, models.ProductLineCredit: 11.0},
		steps: []string{
			"Review the concerns listed above",
			"Consider a larger down payment or a longer term",
			"Talk to a loan officer before applying",
		},
	},
	{
		floor: math.Inf(-1), name: models.ProbabilityBandLow, color: "red",
		message: "Your application is unlikely to be approved in its current form.",
		rates:   map[models.ProductLine]float64{models.ProductLineMortgage: 5.5, models.ProductLineCredit: 14.0},
		steps: []string{
			"Address the concerns listed above before applying",
			"Reduce existing debt or the requested amount",
			"Check back after improving your credit profile",
		},
	},
}

func bandFor(score float64) band {
	for _, b := range bands {
		if score >= b.floor {
			return b
		}
	}
	return bands[len(bands)-1]
}

// BandFor maps a weighted score to its band, display color and the
// estimated rate for the product line's base product.
func BandFor(product models.ProductLine, score float64) (models.ProbabilityBand, string, float64) {
	b := bandFor(score)
	return b.name, b.color, b.rates[product.Base()]
}

// headroom scores how far observed sits below threshold, 100 meaning zero
// and 0 meaning at or past the threshold.
func headroom(observed, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	return clamp((threshold - observed) / threshold * 100)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// scorer accumulates sub-scores, concerns and tips for one request.
type scorer struct {
	scores   map[string]float64
	concerns []string
	tips     []string
}

func (s *scorer) ratio(key string, observed, threshold float64, unit, label, tip string) {
	s.scores[key] = headroom(observed, threshold)
	switch {
	case observed >= threshold*concernFraction:
		s.concerns = append(s.concerns, fmt.Sprintf("%s %s%s is close to or above the %s%s limit",
			label, utils.FormatNumber(observed), unit, utils.FormatNumber(threshold), unit))
	case observed >= threshold*tipFraction:
		s.tips = append(s.tips, tip)
	}
}

// score computes the approval probability for a prepared evaluation.
func score(e *evaluation, p profile) *models.ProbabilityScore {
	req, th := e.req, e.th
	s := &scorer{
		scores:   make(map[string]float64, len(p.weights)),
		concerns: []string{},
		tips:     []string{},
	}

	for _, key := range []string{
		models.CriterionLTV, models.CriterionDTI, ScoreAmountToIncome,
		models.CriterionAge, models.CriterionCredit, models.CriterionEmployment,
	} {
		if _, ok := p.weights[key]; !ok {
			continue
		}

		switch key {
		case models.CriterionLTV:
			s.ratio(key, e.ltv, e.ltvLimit(), "%", "Loan-to-value ratio",
				"A larger down payment would lower your loan-to-value ratio")

		case models.CriterionDTI:
			s.ratio(key, e.dti, th.Value(standards.KeyDTIMax), "%", "Debt-to-income ratio",
				"Paying down existing debt would improve your debt-to-income ratio")

		case ScoreAmountToIncome:
			s.ratio(key, req.Amount/req.AnnualIncome()*100, th.Value(standards.KeyAmountToIncome), "%",
				"Loan amount as a share of annual income", "A smaller amount relative to your income improves your chances")

		case models.CriterionAge:
			s.ratio(key, float64(req.AgeAtMaturity()), th.Value(standards.KeyAgeMax), "", "Age at loan maturity",
				"A shorter term would lower your age at loan maturity")

		case models.CriterionCredit:
			floor := th.Value(standards.KeyCreditMin)
			good := th.Value(standards.KeyCreditGood)
			excellent := th.Value(standards.KeyCreditExcellent)
			cs := float64(req.CreditScore)
			if excellent > floor {
				s.scores[key] = clamp((cs - floor) / (excellent - floor) * 100)
			}
			switch {
			case cs < good:
				s.concerns = append(s.concerns, fmt.Sprintf("Credit score %d is below the %s level most lenders prefer",
					req.CreditScore, utils.FormatNumber(good)))
			case cs < excellent:
				s.tips = append(s.tips, fmt.Sprintf("Raising your credit score to %s would unlock better rates",
					utils.FormatNumber(excellent)))
			}

		case models.CriterionEmployment:
			s.scores[key] = math.Min(req.EmploymentYears, 5) / 5 * 100
			if req.EmploymentYears < MinEmploymentYears {
				s.concerns = append(s.concerns, fmt.Sprintf("Less than %s years of continuous employment",
					utils.FormatNumber(MinEmploymentYears)))
			}
		}
	}

	total := 0.0
	for key, w := range p.weights {
		total += w * s.scores[key]
	}
	probability := int(math.Round(total))
	b := bandFor(float64(probability))

	scores := make(map[string]float64, len(s.scores))
	for k, v := range s.scores {
		scores[k] = utils.RoundRatio(v)
	}

	return &models.ProbabilityScore{
		ProductLine:         req.ProductLine,
		ApprovalProbability: probability,
		Category:            b.name,
		Message:             b.message,
		Color:               b.color,
		Scores:              scores,
		Weights:             Weights(req.ProductLine),
		WeightedTotal:       utils.RoundRatio(total),
		Concerns:            s.concerns,
		Tips:                s.tips,
		EstimatedRate:       b.rates[req.ProductLine.Base()],
		NextSteps:           append([]string(nil), b.steps...),
	}
}
