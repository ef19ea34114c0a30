package standards

import (
	"sort"

	"loan-underwriting-engine/internal/models"
)

// Origin records where a resolved value came from.
type Origin string

const (
	OriginBank    Origin = "bank"
	OriginPath    Origin = "path"
	OriginDefault Origin = "default"
)

// Thresholds is a fully resolved, read-only threshold set for one business
// path and optional bank. It is built once per evaluation before any
// criterion runs.
type Thresholds struct {
	path    models.ProductLine
	bankID  string
	values  map[Key]float64
	origins map[Key]Origin
}

// NewThresholds builds a Thresholds from already resolved values. Keys missing
// from resolved fall back to the default table.
func NewThresholds(path models.ProductLine, bankID string, resolved map[Key]Resolved) Thresholds {
	t := Thresholds{
		path:    path,
		bankID:  bankID,
		values:  make(map[Key]float64),
		origins: make(map[Key]Origin),
	}
	for k, v := range defaultTable[path] {
		t.values[k] = v
		t.origins[k] = OriginDefault
	}
	for k, r := range resolved {
		t.values[k] = r.Value
		t.origins[k] = r.Origin
	}
	return t
}

// Path returns the business path the set was resolved for.
func (t Thresholds) Path() models.ProductLine { return t.path }

// BankID returns the bank the set was resolved for, if any.
func (t Thresholds) BankID() string { return t.bankID }

// Get returns the value for key and whether any value, default included, exists.
func (t Thresholds) Get(key Key) (float64, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Value returns the value for key or zero.
func (t Thresholds) Value(key Key) float64 {
	return t.values[key]
}

// Origin returns where the value for key came from.
func (t Thresholds) Origin(key Key) Origin {
	return t.origins[key]
}

// Entry is one line of a Thresholds listing.
type Entry struct {
	Category string  `json:"category"`
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Origin   Origin  `json:"origin"`
}

// Entries lists every value sorted by category then name.
func (t Thresholds) Entries() []Entry {
	entries := make([]Entry, 0, len(t.values))
	for k, v := range t.values {
		entries = append(entries, Entry{Category: k.Category, Name: k.Name, Value: v, Origin: t.origins[k]})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Category != entries[j].Category {
			return entries[i].Category < entries[j].Category
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}
