package standards

import (
	"loan-underwriting-engine/internal/models"
)

// DefaultsVersion identifies the fallback table below.
const DefaultsVersion = "2024.1"

// Key addresses one threshold inside a business path.
type Key struct {
	Category string
	Name     string
}

func (k Key) String() string {
	return k.Category + "." + k.Name
}

// Threshold keys.
var (
	KeyLTVMax          = Key{"ltv", "max"}
	KeyLTVMaxRateTerm  = Key{"ltv", "max_rate_term"}
	KeyLTVMaxCashOut   = Key{"ltv", "max_cash_out"}
	KeyLTVInsurance    = Key{"ltv", "insurance"}
	KeyLTVPremium      = Key{"ltv", "premium"}
	KeyDTIMax          = Key{"dti", "max"}
	KeyDTIVerification = Key{"dti", "verification"}
	KeyDTIPremium      = Key{"dti", "premium"}
	KeyAgeMax          = Key{"age", "max_at_maturity"}
	KeyAgeCosigner     = Key{"age", "cosigner"}
	KeyCreditMin       = Key{"credit", "min"}
	KeyCreditGood      = Key{"credit", "good"}
	KeyCreditExcellent = Key{"credit", "excellent"}
	KeyCreditMarkup    = Key{"credit", "markup"}
	KeyAmountToIncome  = Key{"amount_to_income", "max"}
)

var creditDefaults = map[Key]float64{
	KeyCreditMin:       620,
	KeyCreditGood:      700,
	KeyCreditExcellent: 750,
	KeyCreditMarkup:    680,
}

var mortgageDefaults = map[Key]float64{
	KeyLTVMax:          80,
	KeyLTVInsurance:    70,
	KeyLTVPremium:      70,
	KeyDTIMax:          42,
	KeyDTIVerification: 35,
	KeyDTIPremium:      30,
	KeyAgeMax:          75,
	KeyAgeCosigner:     70,
}

var unsecuredDefaults = map[Key]float64{
	KeyDTIMax:          80,
	KeyDTIVerification: 60,
	KeyDTIPremium:      40,
	KeyAgeMax:          70,
	KeyAgeCosigner:     65,
	KeyAmountToIncome:  500,
}

var refinanceDefaults = map[Key]float64{
	KeyLTVMaxRateTerm: 80,
	KeyLTVMaxCashOut:  75,
}

// defaultTable is consulted only when no standards row resolves a key.
var defaultTable = map[models.ProductLine]map[Key]float64{
	models.ProductLineMortgage:          merge(mortgageDefaults, creditDefaults),
	models.ProductLineMortgageRefinance: merge(mortgageDefaults, creditDefaults, refinanceDefaults),
	models.ProductLineCredit:            merge(unsecuredDefaults, creditDefaults),
	models.ProductLineCreditRefinance:   merge(unsecuredDefaults, creditDefaults),
}

// Default returns the fallback constant for a threshold.
func Default(path models.ProductLine, category, name string) (float64, bool) {
	table, ok := defaultTable[path]
	if !ok {
		return 0, false
	}
	v, ok := table[Key{category, name}]
	return v, ok
}

// Defaults returns a copy of the fallback table for one business path.
func Defaults(path models.ProductLine) map[Key]float64 {
	return merge(defaultTable[path])
}

func merge(tables ...map[Key]float64) map[Key]float64 {
	out := make(map[Key]float64)
	for _, t := range tables {
		for k, v := range t {
			out[k] = v
		}
	}
	return out
}
