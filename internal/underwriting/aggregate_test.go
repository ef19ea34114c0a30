package underwriting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"loan-underwriting-engine/internal/models"
)

func TestAggregate(t *testing.T) {
	t.Run("all passed", func(t *testing.T) {
		d := Aggregate([]models.CriterionVerdict{
			{Criterion: models.CriterionDTI, Passed: true},
			{Criterion: models.CriterionAge, Passed: true},
		}, []string{"Co-signer required"})

		assert.True(t, d.Approved)
		assert.Equal(t, models.DecisionStatusApproved, d.Status)
		assert.Empty(t, d.RejectionReasons)
		assert.Equal(t, []string{"Co-signer required"}, d.ApprovalConditions)
		assert.Equal(t, map[string]bool{"dti": true, "age": true}, d.CriteriaResults)
	})

	t.Run("one reason per failure in order", func(t *testing.T) {
		d := Aggregate([]models.CriterionVerdict{
			{Criterion: models.CriterionLTV, Passed: false, Message: "ltv"},
			{Criterion: models.CriterionDTI, Passed: true},
			{Criterion: models.CriterionStressTest, Passed: false, Message: "stress"},
		}, []string{"Mortgage insurance required"})

		assert.False(t, d.Approved)
		assert.Equal(t, models.DecisionStatusRejected, d.Status)
		assert.Equal(t, []string{"ltv", "stress"}, d.RejectionReasons)
		assert.Equal(t, []string{"Mortgage insurance required"}, d.ApprovalConditions)
		assert.Equal(t, []string{"ltv", "stress_test"}, d.FailedCriteria())
	})

	t.Run("no verdicts approves", func(t *testing.T) {
		d := Aggregate(nil, nil)
		assert.True(t, d.Approved)
		assert.NotNil(t, d.Verdicts)
		assert.NotNil(t, d.RecommendedLenders)
	})
}

func TestCriteriaFor(t *testing.T) {
	assert.Equal(t,
		[]string{"dti", "age", "credit_score", "employment", "refinance_benefit", "stress_test"},
		CriteriaFor(models.ProductLineCreditRefinance))
	assert.Nil(t, CriteriaFor("auto"))
}
