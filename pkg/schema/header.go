package schema

import (
	"strings"
)

// HeaderScanLimit bounds how many leading rows are examined for a header.
// Telematics exports routinely carry report banners, filter descriptions and
// blank separator rows before the real column labels.
const HeaderScanLimit = 50

// headerKeywords groups header vocabulary by the semantic category it
// signals. A candidate row qualifies when it hits at least two distinct
// categories; a banner row like "Driving History Report" only ever hits one.
var headerKeywords = map[string][]string{
	"driver":   {"driver", "operator", "employee", "name"},
	"time":     {"time", "date", "timestamp"},
	"event":    {"event", "status", "ignition", "key", "description"},
	"location": {"location", "address", "site", "place", "position"},
	"asset":    {"asset", "vehicle", "unit", "equipment", "truck"},
}

// minHeaderCategories is the qualification threshold for a header candidate.
const minHeaderCategories = 2

// DetectHeader scans up to HeaderScanLimit rows and returns the index of the
// first row that scores as a header, or ok=false when none qualifies.
// Rows before the returned index are metadata and must be discarded.
func DetectHeader(rows [][]string) (int, bool) {
	limit := len(rows)
	if limit > HeaderScanLimit {
		limit = HeaderScanLimit
	}

	for i := 0; i < limit; i++ {
		if IsHeaderRow(rows[i]) {
			return i, true
		}
	}
	return 0, false
}

// IsHeaderRow reports whether a single row scores as a header candidate.
// Streaming callers use this to find the header without buffering a file.
func IsHeaderRow(cells []string) bool {
	return scoreHeaderRow(cells) >= minHeaderCategories
}

// scoreHeaderRow counts how many distinct keyword categories appear across
// the row's cells (case-insensitive substring match).
func scoreHeaderRow(cells []string) int {
	matched := make(map[string]bool, len(headerKeywords))

	for _, cell := range cells {
		label := strings.ToLower(strings.TrimSpace(cell))
		if label == "" {
			continue
		}
		for category, keywords := range headerKeywords {
			if matched[category] {
				continue
			}
			for _, kw := range keywords {
				if strings.Contains(label, kw) {
					matched[category] = true
					break
				}
			}
		}
	}

	return len(matched)
}
