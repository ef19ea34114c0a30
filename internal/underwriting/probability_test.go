package underwriting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-underwriting-engine/internal/models"
)

func TestBandFor(t *testing.T) {
	tests := []struct {
		product models.ProductLine
		score   float64
		band    models.ProbabilityBand
		color   string
		rate    float64
	}{
		{models.ProductLineMortgage, 52, models.ProbabilityBandFair, "yellow", 4.5},
		{models.ProductLineMortgage, 80, models.ProbabilityBandExcellent, "green", 3.5},
		{models.ProductLineMortgage, 79, models.ProbabilityBandGood, "blue", 4.0},
		{models.ProductLineMortgage, 44, models.ProbabilityBandLow, "red", 5.5},
		{models.ProductLineCredit, 65, models.ProbabilityBandGood, "blue", 9.0},
		{models.ProductLineCreditRefinance, 45, models.ProbabilityBandFair, "yellow", 11.0},
		{models.ProductLineMortgageRefinance, 0, models.ProbabilityBandLow, "red", 5.5},
	}

	for _, tt := range tests {
		t.Run(string(tt.band), func(t *testing.T) {
			band, color, rate := BandFor(tt.product, tt.score)
			assert.Equal(t, tt.band, band)
			assert.Equal(t, tt.color, color)
			assert.Equal(t, tt.rate, rate)
		})
	}
}

func TestWeightsSumToOne(t *testing.T) {
	for _, line := range models.ProductLines() {
		total := 0.0
		for _, w := range Weights(line) {
			total += w
		}
		assert.InDelta(t, 1.0, total, 1e-9, "%s", line)
	}
}

func TestProbability_Mortgage(t *testing.T) {
	score, err := newTestEngine(nil).Probability(context.Background(), mortgageRequest())
	require.NoError(t, err)

	assert.Equal(t, 53, score.ApprovalProbability)
	assert.Equal(t, 52.7, score.WeightedTotal)
	assert.Equal(t, models.ProbabilityBandFair, score.Category)
	assert.Equal(t, "yellow", score.Color)
	assert.Equal(t, 4.5, score.EstimatedRate)
	assert.Equal(t, 100.0, score.Scores[models.CriterionCredit], "scores above excellent are capped")
	assert.Equal(t, 16.7, score.Scores[models.CriterionLTV])
	assert.Empty(t, score.Concerns)
	assert.NotEmpty(t, score.NextSteps)
	_, hasAmount := score.Scores[ScoreAmountToIncome]
	assert.False(t, hasAmount)
}

func TestProbability_Credit(t *testing.T) {
	score, err := newTestEngine(nil).Probability(context.Background(), creditRequest())
	require.NoError(t, err)

	assert.Equal(t, 52, score.ApprovalProbability)
	assert.Equal(t, models.ProbabilityBandFair, score.Category)
	assert.Equal(t, 11.0, score.EstimatedRate)
	assert.Contains(t, score.Scores, ScoreAmountToIncome)
	require.NotEmpty(t, score.Concerns)
	assert.Contains(t, score.Concerns[0], "Debt-to-income")
}

func TestProbability_WeakApplicant(t *testing.T) {
	req := mortgageRequest(func(r *models.LoanRequest) {
		r.PropertyValue = 1_000_000
		r.MonthlyIncome = 13_000
		r.Age = 50
		r.CreditScore = 600
		r.EmploymentYears = 1
	})

	score, err := newTestEngine(nil).Probability(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, models.ProbabilityBandLow, score.Category)
	assert.Equal(t, "red", score.Color)
	assert.Equal(t, 0.0, score.Scores[models.CriterionLTV])
	assert.Equal(t, 0.0, score.Scores[models.CriterionCredit])
	assert.Len(t, score.Concerns, 5)
}

func TestProbability_InvalidInput(t *testing.T) {
	_, err := newTestEngine(nil).Probability(context.Background(),
		creditRequest(func(r *models.LoanRequest) { r.TermYears = 0 }))
	assert.ErrorIs(t, err, models.ErrInvalidTerm)
}
