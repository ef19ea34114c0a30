package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvaluationRecord(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	req := &LoanRequest{
		ProductLine:   ProductLineCredit,
		BankID:        "acme",
		Amount:        10_000,
		Rate:          9,
		TermYears:     3,
		MonthlyIncome: 5_000,
		Age:           30,
		CreditScore:   700,
	}
	ev := &Evaluation{
		ID:          "eval-1",
		ProductLine: ProductLineCredit,
		BankID:      "acme",
		EvaluatedAt: at,
		Decision: Decision{
			Approved:         false,
			Status:           DecisionStatusRejected,
			RejectionReasons: []string{"Credit score 700 is below the minimum required 720"},
		},
	}

	record, err := NewEvaluationRecord(req, ev)
	require.NoError(t, err)

	assert.Equal(t, "eval-1", record.ID)
	assert.Equal(t, "acme", record.BankID)
	assert.Equal(t, DecisionStatusRejected, record.Status)
	assert.False(t, record.Approved)
	assert.Equal(t, at, record.CreatedAt)
	assert.Equal(t, ev.Decision.RejectionReasons, record.RejectionReasons)

	var storedReq LoanRequest
	require.NoError(t, json.Unmarshal(record.Request, &storedReq))
	assert.Equal(t, *req, storedReq)

	var storedEv map[string]interface{}
	require.NoError(t, json.Unmarshal(record.Result, &storedEv))
	assert.Equal(t, "eval-1", storedEv["evaluation_id"])
}
