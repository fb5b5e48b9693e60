package fallback

import (
	"embed"
	"encoding/json"
	"fmt"

	"pricing-portal/internal/models"
)

//go:embed data/*.json
var snapshots embed.FS

// Source serves the static per-table snapshots used when the record store is
// unreachable or returns zero rows. Snapshots are returned verbatim and are
// never adjusted.
type Source struct{}

// NewSource creates a fallback source backed by the embedded snapshots.
func NewSource() *Source {
	return &Source{}
}

// Raw returns the snapshot for a table as raw JSON, suitable for writing
// straight into a response body.
func (s *Source) Raw(table string) (json.RawMessage, error) {
	if !models.IsKnownTable(table) {
		return nil, fmt.Errorf("unknown table: %s", table)
	}

	data, err := snapshots.ReadFile("data/" + table + ".json")
	if err != nil {
		return nil, fmt.Errorf("no fallback snapshot for %s: %w", table, err)
	}
	return data, nil
}

// Rows decodes the snapshot for a table into generic rows, for callers that
// need structured data (the seed script).
func (s *Source) Rows(table string) ([]map[string]any, error) {
	raw, err := s.Raw(table)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("corrupt fallback snapshot for %s: %w", table, err)
	}
	return rows, nil
}
