// Package standards resolves the institutional lending thresholds the
// underwriting engine evaluates against.
//
// Raw rows come from a Source (database rows, a stored bulk function, a Redis
// hash or a grouped snapshot document). The Resolver normalizes whatever
// shape it receives into a flat (category, name) key space per business path,
// applies bank overrides and falls back to the versioned default table when
// nothing is found.
package standards

import (
	"context"
	"errors"

	"loan-underwriting-engine/internal/models"
)

// ErrStandardsUnavailable is logged when a Source fails or returns nothing.
// It never leaves this package.
var ErrStandardsUnavailable = errors.New("banking standards unavailable")

// Query filters a fetch. Empty fields mean "any".
type Query struct {
	BusinessPath models.ProductLine
	Category     string
	Name         string
	BankID       string
}

// Source fetches raw standards rows. Implementations may return more rows
// than asked for; the Resolver filters on receipt.
type Source interface {
	Fetch(ctx context.Context, q Query) ([]models.BankingStandard, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, q Query) ([]models.BankingStandard, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, q Query) ([]models.BankingStandard, error) {
	return f(ctx, q)
}

// EmptySource never has any rows; every threshold resolves to its default.
type EmptySource struct{}

// Fetch returns no rows.
func (EmptySource) Fetch(context.Context, Query) ([]models.BankingStandard, error) {
	return nil, nil
}
