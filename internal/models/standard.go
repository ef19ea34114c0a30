// Package models defines the data structures for the loan underwriting engine.
package models

import (
	"time"
)

// BankingStandard is one named threshold row as stored by the standards store.
type BankingStandard struct {
	ID            int64       `json:"id" db:"id"`
	BusinessPath  ProductLine `json:"business_path" db:"business_path"`
	Category      string      `json:"category" db:"category"`
	Name          string      `json:"name" db:"name"`
	Value         float64     `json:"value" db:"value"`
	BankID        *string     `json:"bank_id,omitempty" db:"bank_id"`
	IsActive      bool        `json:"is_active" db:"is_active"`
	EffectiveFrom *time.Time  `json:"effective_from,omitempty" db:"effective_from"`
	EffectiveTo   *time.Time  `json:"effective_to,omitempty" db:"effective_to"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// IsEffectiveAt reports whether the row is active and inside its date range.
func (s *BankingStandard) IsEffectiveAt(t time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.EffectiveFrom != nil && t.Before(*s.EffectiveFrom) {
		return false
	}
	if s.EffectiveTo != nil && !t.Before(*s.EffectiveTo) {
		return false
	}
	return true
}

// IsBankOverride reports whether the row belongs to a single bank.
func (s *BankingStandard) IsBankOverride() bool {
	return s.BankID != nil && *s.BankID != ""
}
