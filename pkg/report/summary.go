package report

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"

	"rollcall/pkg/engine"
	"rollcall/pkg/schema"
)

// DriverDetail is the per-driver row of the report: classification outcome
// plus the timing and context a reviewer needs to audit it.
type DriverDetail struct {
	DriverKey     string                  `json:"driverKey"`
	Status        engine.AttendanceStatus `json:"status"`
	MinutesLate   int                     `json:"minutesLate"`
	MinutesEarly  int                     `json:"minutesEarly"`
	InvertedShift bool                    `json:"invertedShift,omitempty"`
	KeyOn         string                  `json:"keyOn,omitempty"`
	KeyOff        string                  `json:"keyOff,omitempty"`
	JobNumber     string                  `json:"jobNumber,omitempty"`
	Location      string                  `json:"location,omitempty"`
	Asset         string                  `json:"asset,omitempty"`
	Sources       []schema.SourceKind     `json:"sources"`
	EventCount    int                     `json:"eventCount"`
}

// SourceStats carries the per-source-kind row accounting the caller can use
// to judge how much of a file survived date filtering and normalization.
type SourceStats struct {
	Kind            schema.SourceKind `json:"kind"`
	FilesSeen       int               `json:"filesSeen"`
	FilesSkipped    int               `json:"filesSkipped"`
	RowsSeen        int               `json:"rowsSeen"`
	RowsDropped     int               `json:"rowsDropped"`
	RowsOutsideDate int               `json:"rowsOutsideDate"`
	RowsRetained    int               `json:"rowsRetained"`
}

// Diagnostic records one skipped file or dropped-row tally with its reason.
// Collected and returned rather than only logged, so callers and tests can
// assert on exactly what was excluded.
type Diagnostic struct {
	Stage  string `json:"stage"`
	File   string `json:"file,omitempty"`
	Reason string `json:"reason"`
}

// ReportSummary is the single structured output of a reconciliation run.
type ReportSummary struct {
	RunID            string                          `json:"runId"`
	Date             string                          `json:"date"`
	TotalDrivers     int                             `json:"totalDrivers"`
	StatusCounts     map[engine.AttendanceStatus]int `json:"statusCounts"`
	StatusPercent    map[engine.AttendanceStatus]int `json:"statusPercent"`
	RoundingResidual int                             `json:"roundingResidual"`
	Drivers          map[string]DriverDetail         `json:"drivers"`
	Sources          []SourceStats                   `json:"sources"`
	Diagnostics      []Diagnostic                    `json:"diagnostics,omitempty"`
}

// clockFormat renders shift boundary times in the report.
const clockFormat = "15:04"

// BuildSummary classifies every aggregated driver-day record and rolls the
// outcomes up into date-level counts and percentages. Zero records yields a
// zero-filled summary, never a division error. Percentages are rounded to
// the nearest whole number independently per bucket; the residual against
// 100 is tracked explicitly instead of being smeared over a bucket.
func BuildSummary(date string, records []*engine.DriverDayRecord, policy engine.ShiftPolicy, sources []SourceStats, diags []Diagnostic) *ReportSummary {
	s := &ReportSummary{
		RunID:         uuid.NewString(),
		Date:          date,
		TotalDrivers:  len(records),
		StatusCounts:  make(map[engine.AttendanceStatus]int, len(engine.AllStatuses)),
		StatusPercent: make(map[engine.AttendanceStatus]int, len(engine.AllStatuses)),
		Drivers:       make(map[string]DriverDetail, len(records)),
		Sources:       sources,
		Diagnostics:   diags,
	}

	for _, status := range engine.AllStatuses {
		s.StatusCounts[status] = 0
		s.StatusPercent[status] = 0
	}

	for _, rec := range records {
		c := engine.Classify(rec, policy)
		s.StatusCounts[c.Status]++

		detail := DriverDetail{
			DriverKey:     rec.DriverKey,
			Status:        c.Status,
			MinutesLate:   c.MinutesLate,
			MinutesEarly:  c.MinutesEarly,
			InvertedShift: c.InvertedShift,
			JobNumber:     rec.JobNumber,
			Location:      rec.Location,
			Asset:         rec.Asset,
			Sources:       rec.Sources,
			EventCount:    len(rec.Events),
		}
		if rec.FirstKeyOn != nil {
			detail.KeyOn = rec.FirstKeyOn.Format(clockFormat)
		}
		if rec.LastKeyOff != nil {
			detail.KeyOff = rec.LastKeyOff.Format(clockFormat)
		}

		s.Drivers[driverMapKey(s.Drivers, rec)] = detail
	}

	if s.TotalDrivers > 0 {
		sum := 0
		for _, status := range engine.AllStatuses {
			pct := int(math.Round(100 * float64(s.StatusCounts[status]) / float64(s.TotalDrivers)))
			s.StatusPercent[status] = pct
			sum += pct
		}
		s.RoundingResidual = 100 - sum
	}

	return s
}

// driverMapKey keys the detail map by display name, disambiguating the rare
// case of two distinct canonical drivers sharing a display name.
func driverMapKey(existing map[string]DriverDetail, rec *engine.DriverDayRecord) string {
	name := rec.DisplayName
	if name == "" {
		name = rec.DriverKey
	}
	if prev, ok := existing[name]; ok && prev.DriverKey != rec.DriverKey {
		return fmt.Sprintf("%s (%s)", name, rec.DriverKey)
	}
	return name
}

// ToJSON renders the summary deterministically (map keys are emitted in
// sorted order by encoding/json), which is what makes re-runs over identical
// inputs byte-comparable via Comparable.
func (s *ReportSummary) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Comparable returns a copy with the per-run identifier cleared. Two runs
// over identical inputs produce byte-identical JSON for their Comparable
// views.
func (s *ReportSummary) Comparable() *ReportSummary {
	cp := *s
	cp.RunID = ""
	return &cp
}
