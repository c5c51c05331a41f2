package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumns is returned by ResolveColumns when a required semantic
// field cannot be matched against any header label. The file is unusable.
var ErrMissingColumns = errors.New("required columns missing")

// fieldChains holds the ordered keyword fallback chains per semantic field.
// Earlier entries are more specific; the first header label containing a
// chain entry (case-insensitive) wins. This is what keeps resolution stable
// across exports with reordered or respelled columns.
var fieldChains = map[Field][]string{
	FieldDriver:    {"driver name", "driver", "operator", "employee name", "employee", "name"},
	FieldTimestamp: {"date/time", "date time", "event time", "timestamp", "time", "date"},
	FieldEventType: {"event type", "event", "ignition", "key status", "status", "description"},
	FieldLocation:  {"location", "address", "site", "place", "position"},
	FieldAsset:     {"asset", "vehicle", "unit", "equipment", "truck"},
}

// resolutionOrder fixes the order in which fields claim columns. Specific
// fields claim before generic ones: "name" sits in the driver chain and
// "date" in the timestamp chain, and both are common substrings of
// unrelated labels.
var resolutionOrder = []Field{FieldDriver, FieldTimestamp, FieldEventType, FieldLocation, FieldAsset}

// ColumnResolution maps semantic fields to column positions in a detected
// header. Unavailable lists the optional fields that did not resolve.
// ResolveColumns never returns a resolution missing a required field (it
// fails instead), so call sites cannot proceed on a partial mapping.
type ColumnResolution struct {
	Columns     map[Field]int    `json:"columns"`
	Labels      map[Field]string `json:"labels"`
	Unavailable []Field          `json:"unavailable,omitempty"`
}

// Has reports whether the field resolved to a column.
func (r *ColumnResolution) Has(f Field) bool {
	_, ok := r.Columns[f]
	return ok
}

// Cell returns the trimmed cell value for a resolved field, or "" when the
// field did not resolve or the row is too short.
func (r *ColumnResolution) Cell(cells []string, f Field) string {
	idx, ok := r.Columns[f]
	if !ok || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

// ResolveColumns maps header labels to semantic fields using the ordered
// fallback chains. Required fields (driver identity, timestamp) must resolve
// or the file is rejected with ErrMissingColumns naming what was absent;
// optional fields (event type, location, asset) degrade to unavailable.
func ResolveColumns(header []string, kind SourceKind) (*ColumnResolution, error) {
	res := &ColumnResolution{
		Columns: make(map[Field]int, len(fieldChains)),
		Labels:  make(map[Field]string, len(fieldChains)),
	}

	normalized := make([]string, len(header))
	for i, label := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(label))
	}

	// Each column can satisfy at most one field, first claim wins.
	used := make(map[int]bool, len(header))
	for _, field := range resolutionOrder {
		for _, kw := range fieldChains[field] {
			idx := -1
			for i, label := range normalized {
				if !used[i] && label != "" && strings.Contains(label, kw) {
					idx = i
					break
				}
			}
			if idx >= 0 {
				res.Columns[field] = idx
				res.Labels[field] = strings.TrimSpace(header[idx])
				used[idx] = true
				break
			}
		}
	}

	var missing []string
	for _, field := range RequiredFields {
		if !res.Has(field) {
			missing = append(missing, string(field))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s (source %s)", ErrMissingColumns, strings.Join(missing, ", "), kind)
	}

	for _, field := range resolutionOrder {
		if !res.Has(field) {
			res.Unavailable = append(res.Unavailable, field)
		}
	}

	return res, nil
}
