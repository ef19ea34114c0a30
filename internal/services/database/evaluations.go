package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"loan-underwriting-engine/internal/models"
)

// ErrEvaluationNotFound is returned when no audit record has the given id.
var ErrEvaluationNotFound = errors.New("evaluation not found")

// EvaluationRepository stores the audit trail of decisions.
type EvaluationRepository struct {
	db *DB
}

// NewEvaluationRepository creates a new evaluation repository.
func NewEvaluationRepository(db *DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Save stores an evaluation and its per-criterion verdicts in one transaction.
func (r *EvaluationRepository) Save(ctx context.Context, req *models.LoanRequest, ev *models.Evaluation) error {
	record, err := models.NewEvaluationRecord(req, ev)
	if err != nil {
		return fmt.Errorf("failed to encode evaluation: %w", err)
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO loan_evaluations (id, product_line, bank_id, approved, status, rejection_reasons, request, result, created_at)
			VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9)`,
			record.ID,
			string(record.ProductLine),
			record.BankID,
			record.Approved,
			string(record.Status),
			record.RejectionReasons,
			record.Request,
			record.Result,
			record.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert evaluation: %w", err)
		}

		for _, v := range ev.Decision.Verdicts {
			_, err := tx.Exec(ctx, `
				INSERT INTO evaluation_criteria (evaluation_id, criterion, passed, observed, threshold, message)
				VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))`,
				record.ID, v.Criterion, v.Passed, v.Observed, v.Threshold, v.Message,
			)
			if err != nil {
				return fmt.Errorf("failed to insert criterion %s: %w", v.Criterion, err)
			}
		}
		return nil
	})
}

// GetByID retrieves an audit record.
func (r *EvaluationRepository) GetByID(ctx context.Context, id string) (*models.EvaluationRecord, error) {
	var rec models.EvaluationRecord
	var productLine, status string
	var bankID *string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, product_line, bank_id, approved, status, rejection_reasons, request, result, created_at
		FROM loan_evaluations
		WHERE id = $1`, id,
	).Scan(&rec.ID, &productLine, &bankID, &rec.Approved, &status, &rec.RejectionReasons, &rec.Request, &rec.Result, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEvaluationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}

	rec.ProductLine = models.ProductLine(productLine)
	rec.Status = models.DecisionStatus(status)
	if bankID != nil {
		rec.BankID = *bankID
	}
	return &rec, nil
}
