package standards

import (
	"context"

	"loan-underwriting-engine/internal/models"
)

// StaticSource serves a fixed slice of rows, filtered like a SQL WHERE clause.
type StaticSource struct {
	Rows []models.BankingStandard
}

// Fetch returns the rows matching q.
func (s *StaticSource) Fetch(_ context.Context, q Query) ([]models.BankingStandard, error) {
	var out []models.BankingStandard
	for _, row := range s.Rows {
		if q.BusinessPath != "" && row.BusinessPath != q.BusinessPath {
			continue
		}
		if q.Category != "" && row.Category != q.Category {
			continue
		}
		if q.Name != "" && row.Name != q.Name {
			continue
		}
		if row.IsBankOverride() && *row.BankID != q.BankID {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// Grouped is the nested document shape: category -> name -> value.
type Grouped map[string]map[string]float64

// Snapshot is a grouped standards document covering every business path,
// with optional per-bank overrides in the same shape.
type Snapshot struct {
	Version string                                    `json:"version,omitempty" mapstructure:"version"`
	Paths   map[models.ProductLine]Grouped            `json:"paths" mapstructure:"paths"`
	Banks   map[string]map[models.ProductLine]Grouped `json:"banks,omitempty" mapstructure:"banks"`
}

// Rows flattens the snapshot into active standards rows for path and bankID.
func (s *Snapshot) Rows(path models.ProductLine, bankID string) []models.BankingStandard {
	rows := FlattenGrouped(path, s.Paths[path], "")
	if bankID != "" {
		if banks, ok := s.Banks[bankID]; ok {
			rows = append(rows, FlattenGrouped(path, banks[path], bankID)...)
		}
	}
	return rows
}

// SnapshotSource serves an in-memory Snapshot.
type SnapshotSource struct {
	Snapshot *Snapshot
}

// Fetch flattens the snapshot for q.
func (s *SnapshotSource) Fetch(_ context.Context, q Query) ([]models.BankingStandard, error) {
	if s.Snapshot == nil {
		return nil, nil
	}
	return filterRows(s.Snapshot.Rows(q.BusinessPath, q.BankID), q), nil
}

// FlattenGrouped converts a grouped document into rows.
func FlattenGrouped(path models.ProductLine, grouped Grouped, bankID string) []models.BankingStandard {
	var rows []models.BankingStandard
	for category, names := range grouped {
		for name, value := range names {
			row := models.BankingStandard{
				BusinessPath: path,
				Category:     category,
				Name:         name,
				Value:        value,
				IsActive:     true,
			}
			if bankID != "" {
				id := bankID
				row.BankID = &id
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func filterRows(rows []models.BankingStandard, q Query) []models.BankingStandard {
	if q.Category == "" && q.Name == "" {
		return rows
	}
	out := rows[:0]
	for _, row := range rows {
		if q.Category != "" && row.Category != q.Category {
			continue
		}
		if q.Name != "" && row.Name != q.Name {
			continue
		}
		out = append(out, row)
	}
	return out
}
