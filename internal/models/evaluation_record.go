package models

import (
	"encoding/json"
	"time"
)

// EvaluationRecord is the audit copy of one decision.
type EvaluationRecord struct {
	ID               string          `json:"evaluation_id"`
	ProductLine      ProductLine     `json:"product_line"`
	BankID           string          `json:"bank_id,omitempty"`
	Approved         bool            `json:"approved"`
	Status           DecisionStatus  `json:"status"`
	RejectionReasons []string        `json:"rejection_reasons"`
	Request          json.RawMessage `json:"request"`
	Result           json.RawMessage `json:"result"`
	CreatedAt        time.Time       `json:"created_at"`
}

// NewEvaluationRecord captures req and its evaluation for storage.
func NewEvaluationRecord(req *LoanRequest, ev *Evaluation) (*EvaluationRecord, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resultJSON, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}

	return &EvaluationRecord{
		ID:               ev.ID,
		ProductLine:      ev.ProductLine,
		BankID:           ev.BankID,
		Approved:         ev.Decision.Approved,
		Status:           ev.Decision.Status,
		RejectionReasons: ev.Decision.RejectionReasons,
		Request:          reqJSON,
		Result:           resultJSON,
		CreatedAt:        ev.EvaluatedAt,
	}, nil
}
