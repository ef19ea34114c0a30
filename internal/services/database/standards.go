package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/standards"
)

// StandardsRepository reads filtered rows from banking_standards.
type StandardsRepository struct {
	db *DB
}

// NewStandardsRepository creates a new standards repository.
func NewStandardsRepository(db *DB) *StandardsRepository {
	return &StandardsRepository{db: db}
}

// Fetch implements standards.Source.
func (r *StandardsRepository) Fetch(ctx context.Context, q standards.Query) ([]models.BankingStandard, error) {
	query, args := buildStandardsQuery(q, time.Now().UTC())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query banking standards: %w", err)
	}
	defer rows.Close()

	return scanStandards(rows)
}

// Upsert stores one standard, replacing the active row with the same key.
func (r *StandardsRepository) Upsert(ctx context.Context, s *models.BankingStandard) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO banking_standards (business_path, category, name, value, bank_id, is_active, effective_from, effective_to, updated_at)
		VALUES ($1, $2, $3, $4, $5, true, $6, $7, $8)
		ON CONFLICT (business_path, category, name, COALESCE(bank_id, '')) DO UPDATE SET
			value = EXCLUDED.value,
			is_active = true,
			effective_from = EXCLUDED.effective_from,
			effective_to = EXCLUDED.effective_to,
			updated_at = EXCLUDED.updated_at`,
		string(s.BusinessPath), s.Category, s.Name, s.Value, s.BankID,
		s.EffectiveFrom, s.EffectiveTo, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert standard %s.%s: %w", s.Category, s.Name, err)
	}
	return nil
}

// buildStandardsQuery turns a Query into SQL. Bank overrides are only
// selected for the requested bank; rows outside their effective range are
// filtered here and again by the resolver.
func buildStandardsQuery(q standards.Query, at time.Time) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, business_path, category, name, value, bank_id, is_active,
			effective_from, effective_to, updated_at
		FROM banking_standards
		WHERE is_active = true
			AND (effective_from IS NULL OR effective_from <= $1)
			AND (effective_to IS NULL OR effective_to > $1)`)

	args := []interface{}{at}
	add := func(clause string, v interface{}) {
		args = append(args, v)
		sb.WriteString("\n\t\t\tAND " + strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(args))))
	}

	if q.BusinessPath != "" {
		add("business_path = ?", string(q.BusinessPath))
	}
	if q.Category != "" {
		add("category = ?", q.Category)
	}
	if q.Name != "" {
		add("name = ?", q.Name)
	}
	if q.BankID != "" {
		add("(bank_id IS NULL OR bank_id = ?)", q.BankID)
	} else {
		sb.WriteString("\n\t\t\tAND bank_id IS NULL")
	}

	sb.WriteString("\n\t\tORDER BY category, name, id")
	return sb.String(), args
}

// scanStandards scans banking_standards rows.
func scanStandards(rows rowScanner) ([]models.BankingStandard, error) {
	var out []models.BankingStandard
	for rows.Next() {
		var s models.BankingStandard
		var path string
		var updated *time.Time
		err := rows.Scan(
			&s.ID, &path, &s.Category, &s.Name, &s.Value, &s.BankID, &s.IsActive,
			&s.EffectiveFrom, &s.EffectiveTo, &updated,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan banking standard: %w", err)
		}
		s.BusinessPath = models.ProductLine(path)
		if updated != nil {
			s.UpdatedAt = *updated
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read banking standards: %w", err)
	}
	return out, nil
}

// StandardsFunctionSource reads the complete set for a path in one call to
// the get_effective_standards stored function, which already applies
// effective dates and bank overrides.
type StandardsFunctionSource struct {
	db *DB
}

// NewStandardsFunctionSource creates a source backed by the stored function.
func NewStandardsFunctionSource(db *DB) *StandardsFunctionSource {
	return &StandardsFunctionSource{db: db}
}

// Fetch implements standards.Source. Category and name filters are applied
// after the call.
func (s *StandardsFunctionSource) Fetch(ctx context.Context, q standards.Query) ([]models.BankingStandard, error) {
	var bankID *string
	if q.BankID != "" {
		bankID = &q.BankID
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT category, name, value, bank_id FROM get_effective_standards($1, $2)",
		string(q.BusinessPath), bankID)
	if err != nil {
		return nil, fmt.Errorf("failed to call get_effective_standards: %w", err)
	}
	defer rows.Close()

	return scanEffectiveStandards(rows, q)
}

func scanEffectiveStandards(rows rowScanner, q standards.Query) ([]models.BankingStandard, error) {
	var out []models.BankingStandard
	for rows.Next() {
		s := models.BankingStandard{BusinessPath: q.BusinessPath, IsActive: true}
		if err := rows.Scan(&s.Category, &s.Name, &s.Value, &s.BankID); err != nil {
			return nil, fmt.Errorf("failed to scan effective standard: %w", err)
		}
		if q.Category != "" && s.Category != q.Category {
			continue
		}
		if q.Name != "" && s.Name != q.Name {
			continue
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read effective standards: %w", err)
	}
	return out, nil
}
