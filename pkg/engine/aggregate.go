package engine

import (
	"sort"
	"time"

	"rollcall/pkg/schema"
)

// DriverDayRecord aggregates every event one driver produced on one date.
// FirstKeyOn and LastKeyOff are nil, never sentinel times, when the
// corresponding event kind was not observed.
type DriverDayRecord struct {
	DriverKey   string              `json:"driverKey"`
	DisplayName string              `json:"displayName"`
	Date        string              `json:"date"`
	Events      []schema.Event      `json:"events"`
	FirstKeyOn  *time.Time          `json:"firstKeyOn,omitempty"`
	LastKeyOff  *time.Time          `json:"lastKeyOff,omitempty"`
	JobNumber   string              `json:"jobNumber,omitempty"`
	Location    string              `json:"location,omitempty"`
	Asset       string              `json:"asset,omitempty"`
	Sources     []schema.SourceKind `json:"sources"`

	sourceSet map[schema.SourceKind]bool
}

// Ledger accumulates DriverDayRecords for one target date. Merge is the
// only mutation path; its accumulation rules (min for first KEY_ON, max for
// last KEY_OFF, first-wins for job/location/asset) are commutative over
// event delivery order, so files and chunks may arrive in any order and
// re-runs over identical inputs reproduce identical aggregates.
type Ledger struct {
	Date    string
	records map[string]*DriverDayRecord
}

// NewLedger creates an empty ledger for the given ISO date.
func NewLedger(date string) *Ledger {
	return &Ledger{
		Date:    date,
		records: make(map[string]*DriverDayRecord),
	}
}

// Merge folds one event into the driver's record, creating it on first
// sight. Non-KEY_ON/OFF events stay in the trail for audit but do not move
// the shift boundary timestamps.
func (l *Ledger) Merge(ev schema.Event) {
	rec, ok := l.records[ev.DriverKey]
	if !ok {
		rec = &DriverDayRecord{
			DriverKey: ev.DriverKey,
			Date:      l.Date,
			sourceSet: make(map[schema.SourceKind]bool, 2),
		}
		l.records[ev.DriverKey] = rec
	}

	if rec.DisplayName == "" {
		rec.DisplayName = ev.DisplayName
	}

	rec.Events = append(rec.Events, ev)
	rec.sourceSet[ev.Source] = true

	switch ev.Type {
	case schema.EventKeyOn:
		if rec.FirstKeyOn == nil || ev.Timestamp.Before(*rec.FirstKeyOn) {
			ts := ev.Timestamp
			rec.FirstKeyOn = &ts
		}
	case schema.EventKeyOff:
		if rec.LastKeyOff == nil || ev.Timestamp.After(*rec.LastKeyOff) {
			ts := ev.Timestamp
			rec.LastKeyOff = &ts
		}
	}

	// First-wins on descriptive fields: sources differ in granularity and
	// flapping between them per-row would make the record depend on which
	// file was richer, not which observation came first.
	if rec.JobNumber == "" {
		rec.JobNumber = ev.JobNumber
	}
	if rec.Location == "" {
		rec.Location = ev.Location
	}
	if rec.Asset == "" {
		rec.Asset = ev.Asset
	}
}

// Len returns the number of drivers seen so far.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Records returns all driver-day records ordered by driver key, with the
// Sources slice finalized in sorted order. Ordering makes downstream report
// output deterministic regardless of map iteration.
func (l *Ledger) Records() []*DriverDayRecord {
	out := make([]*DriverDayRecord, 0, len(l.records))
	for _, rec := range l.records {
		rec.Sources = rec.Sources[:0]
		for kind := range rec.sourceSet {
			rec.Sources = append(rec.Sources, kind)
		}
		sort.Slice(rec.Sources, func(i, j int) bool { return rec.Sources[i] < rec.Sources[j] })
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DriverKey < out[j].DriverKey })
	return out
}
