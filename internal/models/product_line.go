// Package models defines the data structures for the loan underwriting engine.
package models

import "strings"

// ProductLine identifies the business path a request is evaluated under.
type ProductLine string

const (
	ProductLineMortgage          ProductLine = "mortgage"
	ProductLineCredit            ProductLine = "credit"
	ProductLineMortgageRefinance ProductLine = "mortgage-refinance"
	ProductLineCreditRefinance   ProductLine = "credit-refinance"
)

// ProductLines returns every supported product line in a stable order.
func ProductLines() []ProductLine {
	return []ProductLine{
		ProductLineMortgage,
		ProductLineCredit,
		ProductLineMortgageRefinance,
		ProductLineCreditRefinance,
	}
}

// IsValid checks if the product line is supported.
func (p ProductLine) IsValid() bool {
	for _, valid := range ProductLines() {
		if p == valid {
			return true
		}
	}
	return false
}

// IsSecured reports whether the product is collateralized by property.
func (p ProductLine) IsSecured() bool {
	return p == ProductLineMortgage || p == ProductLineMortgageRefinance
}

// IsRefinance reports whether the product replaces existing debt.
func (p ProductLine) IsRefinance() bool {
	return p == ProductLineMortgageRefinance || p == ProductLineCreditRefinance
}

// Base returns the originating product line for refinance variants.
func (p ProductLine) Base() ProductLine {
	switch p {
	case ProductLineMortgageRefinance:
		return ProductLineMortgage
	case ProductLineCreditRefinance:
		return ProductLineCredit
	default:
		return p
	}
}

// ParseProductLine normalizes user supplied product names such as
// "mortgage_refinance" or "Credit Refinance".
func ParseProductLine(raw string) ProductLine {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")

	aliases := map[string]ProductLine{
		"mortgage":             ProductLineMortgage,
		"home":                 ProductLineMortgage,
		"credit":               ProductLineCredit,
		"consumer-credit":      ProductLineCredit,
		"personal":             ProductLineCredit,
		"mortgage-refinance":   ProductLineMortgageRefinance,
		"refinance-mortgage":   ProductLineMortgageRefinance,
		"credit-refinance":     ProductLineCreditRefinance,
		"refinance-credit":     ProductLineCreditRefinance,
		"refinancing-credit":   ProductLineCreditRefinance,
		"refinancing-mortgage": ProductLineMortgageRefinance,
	}

	if mapped, ok := aliases[normalized]; ok {
		return mapped
	}
	return ProductLine(normalized)
}

// RefinanceType distinguishes mortgage refinance sub-cases.
type RefinanceType string

const (
	RefinanceTypeRateAndTerm RefinanceType = "rate-and-term"
	RefinanceTypeCashOut     RefinanceType = "cash-out"
)

// IsValid checks if the refinance type is supported.
func (t RefinanceType) IsValid() bool {
	return t == RefinanceTypeRateAndTerm || t == RefinanceTypeCashOut
}

// Label returns the human readable sub-case used in verdict messages.
func (t RefinanceType) Label() string {
	if t == RefinanceTypeCashOut {
		return "cash-out refinance"
	}
	return "rate-and-term refinance"
}

// CreditPurpose is the stated reason for a credit refinance.
type CreditPurpose string

const (
	CreditPurposeConsolidation    CreditPurpose = "consolidation"
	CreditPurposeRateReduction    CreditPurpose = "rate-reduction"
	CreditPurposePaymentReduction CreditPurpose = "payment-reduction"
)

// Label returns the purpose as used in verdict messages.
func (p CreditPurpose) Label() string {
	switch p {
	case CreditPurposeRateReduction:
		return "rate reduction"
	case CreditPurposePaymentReduction:
		return "payment reduction"
	default:
		return "debt consolidation"
	}
}

// IsValid checks if the purpose is supported.
func (p CreditPurpose) IsValid() bool {
	switch p {
	case CreditPurposeConsolidation, CreditPurposeRateReduction, CreditPurposePaymentReduction:
		return true
	}
	return false
}
