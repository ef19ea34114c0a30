package standards

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/utils"
)

// Resolved is a normalized value together with the level it came from.
type Resolved struct {
	Value  float64
	Origin Origin

	from    time.Time
	updated time.Time
	id      int64
}

// Resolver turns raw Source rows into effective thresholds. It holds no
// per-request state and is safe for concurrent use.
type Resolver struct {
	source Source
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used to report fallbacks.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithClock overrides the clock used for effective-date filtering.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a resolver over source. A nil source resolves
// everything to the default table.
func NewResolver(source Source, opts ...Option) *Resolver {
	if source == nil {
		source = EmptySource{}
	}
	r := &Resolver{
		source: source,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = utils.GetLogger()
	}
	return r
}

// Load resolves the full threshold set for a business path and optional bank.
// A failed or empty fetch is absorbed: the returned set is the default table.
func (r *Resolver) Load(ctx context.Context, path models.ProductLine, bankID string) Thresholds {
	rows, err := r.source.Fetch(ctx, Query{BusinessPath: path, BankID: bankID})
	if err != nil {
		r.logger.Warn("Falling back to default standards",
			zap.String("business_path", string(path)),
			zap.String("bank_id", bankID),
			zap.String("defaults_version", DefaultsVersion),
			zap.Error(fmt.Errorf("%w: %v", ErrStandardsUnavailable, err)),
		)
		return NewThresholds(path, bankID, nil)
	}

	resolved := Normalize(rows, path, bankID, r.now())
	if len(resolved) == 0 {
		r.logger.Warn("No standards rows found, using defaults",
			zap.String("business_path", string(path)),
			zap.String("bank_id", bankID),
			zap.String("defaults_version", DefaultsVersion),
		)
	} else {
		r.logger.Debug("Resolved standards",
			zap.String("business_path", string(path)),
			zap.String("bank_id", bankID),
			zap.Int("rows", len(rows)),
			zap.Int("keys", len(resolved)),
		)
	}

	return NewThresholds(path, bankID, resolved)
}

// Resolve returns the effective value of a single threshold, applying
// bank override > path standard > default constant.
func (r *Resolver) Resolve(ctx context.Context, path models.ProductLine, category, name, bankID string) float64 {
	key := Key{Category: category, Name: name}

	rows, err := r.source.Fetch(ctx, Query{BusinessPath: path, Category: category, Name: name, BankID: bankID})
	if err == nil {
		if v, ok := Normalize(rows, path, bankID, r.now())[key]; ok {
			return v.Value
		}
	}

	fallback, ok := Default(path, category, name)
	fields := []zap.Field{
		zap.String("business_path", string(path)),
		zap.String("key", key.String()),
		zap.String("bank_id", bankID),
		zap.Float64("fallback", fallback),
	}
	if err != nil {
		fields = append(fields, zap.Error(fmt.Errorf("%w: %v", ErrStandardsUnavailable, err)))
	}
	if !ok {
		r.logger.Warn("No standard or default for threshold", fields...)
		return 0
	}
	r.logger.Debug("Using default threshold", fields...)
	return fallback
}

// Normalize collapses raw rows into one value per key for path and bankID.
// Rows for other paths or other banks, inactive rows and rows outside their
// effective range are dropped. A bank override beats the path level row;
// within a level the row with the latest effective start wins.
func Normalize(rows []models.BankingStandard, path models.ProductLine, bankID string, at time.Time) map[Key]Resolved {
	out := make(map[Key]Resolved)

	for i := range rows {
		row := &rows[i]
		if row.BusinessPath != "" && row.BusinessPath != path {
			continue
		}
		if !row.IsEffectiveAt(at) {
			continue
		}

		origin := OriginPath
		if row.IsBankOverride() {
			if bankID == "" || *row.BankID != bankID {
				continue
			}
			origin = OriginBank
		}

		candidate := Resolved{Value: row.Value, Origin: origin, updated: row.UpdatedAt, id: row.ID}
		if row.EffectiveFrom != nil {
			candidate.from = *row.EffectiveFrom
		}

		key := Key{Category: row.Category, Name: row.Name}
		current, exists := out[key]
		if !exists || outranks(candidate, current) {
			out[key] = candidate
		}
	}

	return out
}

func outranks(a, b Resolved) bool {
	if a.Origin != b.Origin {
		return a.Origin == OriginBank
	}
	if !a.from.Equal(b.from) {
		return a.from.After(b.from)
	}
	if !a.updated.Equal(b.updated) {
		return a.updated.After(b.updated)
	}
	return a.id > b.id
}
