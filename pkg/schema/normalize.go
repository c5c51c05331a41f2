package schema

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Pre-compiled regular expressions for identity and location normalization.
var (
	trailingIDRe   = regexp.MustCompile(`\s*\(\d+\)\s*$`)
	jobCodeRe      = regexp.MustCompile(`\b(\d{2,5}-\d{1,5})\b`)
	jobPrefixRe    = regexp.MustCompile(`(?i)job\s*#?\s*:?\s*([0-9][0-9-]*)`)
	sitePrefixRe   = regexp.MustCompile(`(?i)site\s*#?\s*:?\s*([0-9][0-9-]*)`)
	alphanumericRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// CanonicalDriverKey produces the join key used to merge records about the
// same person across source kinds:
//  1. Strip a trailing parenthetical numeric id ("Jane Doe (210003)")
//  2. Strip diacritics (Unicode NFD decompose, drop combining marks)
//  3. Lowercase, then drop every non-alphanumeric character
//
// Two raw strings differing only in case, spacing, punctuation or a trailing
// id normalize identically. No fuzzy matching beyond this rule: divergent
// spellings are distinct drivers.
func CanonicalDriverKey(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = trailingIDRe.ReplaceAllString(s, "")
	s = stripDiacritics(strings.ToLower(s))
	return alphanumericRe.ReplaceAllString(s, "")
}

// DisplayDriverName returns the human-readable form of a raw identity
// string: trailing id removed, whitespace collapsed, original casing kept.
func DisplayDriverName(raw string) string {
	s := trailingIDRe.ReplaceAllString(strings.TrimSpace(raw), "")
	return strings.Join(strings.Fields(s), " ")
}

// stripDiacritics removes diacritical marks from a string by decomposing to
// NFD form and dropping combining marks (unicode.Mn).
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var result strings.Builder
	result.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

// timestampFormats is the ordered permissive format list for event
// timestamps. Exports mix US-style slashed dates, ISO forms and 12-hour
// clocks, sometimes within one file.
var timestampFormats = []string{
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2-Jan-2006 15:04:05",
	"2-Jan-2006 15:04",
	"Jan 2, 2006 3:04:05 PM",
	"Jan 2, 2006 3:04 PM",
	"1/2/2006",
	"2006-01-02",
}

// ParseTimestamp attempts each known format in order. ok=false means the
// value is unusable and the row should be dropped (counted, not raised).
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ExtractJobNumber pulls a job-site token out of a free-text location field.
// Patterns are tried in order: explicit "Job #"/"Site #" prefixes, then a
// bare numeric-dash-numeric code. No match yields "".
func ExtractJobNumber(location string) string {
	if location == "" {
		return ""
	}
	if m := jobPrefixRe.FindStringSubmatch(location); m != nil {
		return strings.TrimRight(m[1], "-")
	}
	if m := sitePrefixRe.FindStringSubmatch(location); m != nil {
		return strings.TrimRight(m[1], "-")
	}
	if m := jobCodeRe.FindStringSubmatch(location); m != nil {
		return m[1]
	}
	return ""
}

// ClassifyEventType maps a raw event-type cell to KEY_ON/KEY_OFF/UNKNOWN.
// Matching is word-level, not substring; "Location Update" must not read
// as an "on" event. "off" words win when both appear, so "Key On -> Off"
// style transition labels land on the terminal state.
func ClassifyEventType(raw string) EventType {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return EventUnknown
	}

	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	sawOn := false
	for _, w := range words {
		switch w {
		case "off", "keyoff", "stop", "stopped":
			return EventKeyOff
		case "on", "keyon", "start", "started":
			sawOn = true
		}
	}
	if sawOn {
		return EventKeyOn
	}
	return EventUnknown
}

// NormalizeRow turns one data row into an Event using the file's column
// resolution. ok=false means the row is dropped: blank driver identity or an
// unparseable timestamp. Files without an event-type column produce UNKNOWN
// events; the aggregator keeps those in the trail for audit.
func NormalizeRow(cells []string, res *ColumnResolution, kind SourceKind) (Event, bool) {
	rawDriver := res.Cell(cells, FieldDriver)
	key := CanonicalDriverKey(rawDriver)
	if key == "" {
		return Event{}, false
	}

	ts, ok := ParseTimestamp(res.Cell(cells, FieldTimestamp))
	if !ok {
		return Event{}, false
	}

	location := res.Cell(cells, FieldLocation)

	return Event{
		DriverKey:   key,
		DisplayName: DisplayDriverName(rawDriver),
		Timestamp:   ts,
		Type:        ClassifyEventType(res.Cell(cells, FieldEventType)),
		Location:    location,
		JobNumber:   ExtractJobNumber(location),
		Asset:       res.Cell(cells, FieldAsset),
		Source:      kind,
	}, true
}
