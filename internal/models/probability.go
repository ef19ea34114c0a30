// Package models defines the data structures for the loan underwriting engine.
package models

// ProbabilityBand is the categorical outcome of the probability scorer.
type ProbabilityBand string

const (
	ProbabilityBandExcellent ProbabilityBand = "excellent"
	ProbabilityBandGood      ProbabilityBand = "good"
	ProbabilityBandFair      ProbabilityBand = "fair"
	ProbabilityBandLow       ProbabilityBand = "low"
)

// ProbabilityScore is the customer-facing approval likelihood.
type ProbabilityScore struct {
	ProductLine         ProductLine        `json:"product_line"`
	ApprovalProbability int                `json:"approval_probability"`
	Category            ProbabilityBand    `json:"category"`
	Message             string             `json:"message"`
	Color               string             `json:"color"`
	Scores              map[string]float64 `json:"scores"`
	Weights             map[string]float64 `json:"weights"`
	WeightedTotal       float64            `json:"weighted_total"`
	Concerns            []string           `json:"concerns"`
	Tips                []string           `json:"tips"`
	EstimatedRate       float64            `json:"estimated_rate"`
	NextSteps           []string           `json:"next_steps"`
}
