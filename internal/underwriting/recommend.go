package underwriting

import (
	"math"

	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/standards"
	"loan-underwriting-engine/internal/utils"
)

// LenderTier groups lenders by the applicants they compete for.
type LenderTier string

const (
	LenderTierTop LenderTier = "top"
	LenderTierMid LenderTier = "mid"
)

// Lender is one entry of the recommendation panel.
type Lender struct {
	BankID   string               `json:"bank_id" mapstructure:"bank_id"`
	Name     string               `json:"name" mapstructure:"name"`
	Tier     LenderTier           `json:"tier" mapstructure:"tier"`
	Products []models.ProductLine `json:"products" mapstructure:"products"`
}

// Serves reports whether the lender offers the base product of line.
func (l Lender) Serves(line models.ProductLine) bool {
	if len(l.Products) == 0 {
		return true
	}
	base := line.Base()
	for _, p := range l.Products {
		if p.Base() == base {
			return true
		}
	}
	return false
}

// DefaultLenders returns the built-in lender panel.
func DefaultLenders() []Lender {
	return []Lender{
		{BankID: "capital-trust", Name: "Capital Trust Bank", Tier: LenderTierTop},
		{BankID: "premier-savings", Name: "Premier Savings Bank", Tier: LenderTierTop},
		{BankID: "union-commerce", Name: "Union Commerce Bank", Tier: LenderTierMid},
		{BankID: "regional-credit", Name: "Regional Credit Union", Tier: LenderTierMid},
	}
}

// recommend returns lender offers for an approved evaluation. Strong
// applicants (excellent credit and a ratio inside the premium line) get
// top-tier lenders below the requested rate; good credit gets mid-tier
// lenders at or slightly above it; anyone else gets none.
func recommend(e *evaluation, p profile, panel []Lender) []models.LenderOffer {
	score := float64(e.req.CreditScore)

	premiumRatio := e.dti
	if e.req.ProductLine.IsSecured() {
		premiumRatio = e.ltv
	}

	var (
		tier    LenderTier
		offsets [2]float64
	)
	switch {
	case score >= e.th.Value(standards.KeyCreditExcellent) && premiumRatio <= e.th.Value(p.premiumKey):
		tier, offsets = LenderTierTop, p.topOffsets
	case score >= e.th.Value(standards.KeyCreditGood):
		tier, offsets = LenderTierMid, p.midOffsets
	default:
		return []models.LenderOffer{}
	}

	offers := make([]models.LenderOffer, 0, len(offsets))
	for _, l := range panel {
		if len(offers) == len(offsets) {
			break
		}
		if l.Tier != tier || !l.Serves(e.req.ProductLine) {
			continue
		}

		rate := math.Max(0, e.req.Rate+offsets[len(offers)])
		payment, err := MonthlyPayment(e.amort.Principal, rate, e.req.TermYears)
		if err != nil {
			continue
		}
		offers = append(offers, models.LenderOffer{
			BankID:         l.BankID,
			Name:           l.Name,
			Tier:           string(l.Tier),
			Rate:           utils.RoundRate(rate),
			MonthlyPayment: utils.RoundCurrency(payment),
		})
	}
	return offers
}
