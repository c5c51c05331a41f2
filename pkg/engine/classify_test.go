package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ts(hour, min int) *time.Time {
	t := time.Date(2024, 6, 1, hour, min, 0, 0, time.UTC)
	return &t
}

func record(keyOn, keyOff *time.Time) *DriverDayRecord {
	return &DriverDayRecord{
		DriverKey:  "janedoe",
		Date:       "2024-06-01",
		FirstKeyOn: keyOn,
		LastKeyOff: keyOff,
	}
}

func TestClassifyOnTime(t *testing.T) {
	c := Classify(record(ts(7, 0), ts(17, 0)), DefaultShiftPolicy())
	assert.Equal(t, StatusOnTime, c.Status)
	assert.Equal(t, 0, c.MinutesLate)
	assert.Equal(t, 0, c.MinutesEarly)
}

// Exactly 15 minutes after the standard start is still on time; 16 is late.
func TestClassifyLateBoundary(t *testing.T) {
	c := Classify(record(ts(7, 15), ts(17, 0)), DefaultShiftPolicy())
	assert.Equal(t, StatusOnTime, c.Status)
	assert.Equal(t, 15, c.MinutesLate)

	c = Classify(record(ts(7, 16), ts(17, 0)), DefaultShiftPolicy())
	assert.Equal(t, StatusLate, c.Status)
	assert.Equal(t, 16, c.MinutesLate)
}

// Exactly 30 minutes before the standard end is not an early end; 31 is.
func TestClassifyEarlyEndBoundary(t *testing.T) {
	c := Classify(record(ts(7, 0), ts(16, 30)), DefaultShiftPolicy())
	assert.Equal(t, StatusOnTime, c.Status)
	assert.Equal(t, 30, c.MinutesEarly)

	c = Classify(record(ts(7, 0), ts(16, 29)), DefaultShiftPolicy())
	assert.Equal(t, StatusEarlyEnd, c.Status)
	assert.Equal(t, 31, c.MinutesEarly)
}

// KEY_ON 07:05, KEY_OFF 15:00 against 07:00-17:00: within the late
// tolerance but out two hours early.
func TestClassifyEarlyEndScenario(t *testing.T) {
	c := Classify(record(ts(7, 5), ts(15, 0)), DefaultShiftPolicy())
	assert.Equal(t, StatusEarlyEnd, c.Status)
	assert.Equal(t, 5, c.MinutesLate)
	assert.Equal(t, 120, c.MinutesEarly)
}

func TestClassifyLateAndEarlyEnd(t *testing.T) {
	c := Classify(record(ts(8, 0), ts(15, 0)), DefaultShiftPolicy())
	assert.Equal(t, StatusLateAndEarlyEnd, c.Status)
	assert.Equal(t, 60, c.MinutesLate)
	assert.Equal(t, 120, c.MinutesEarly)
}

func TestClassifyNoEvents(t *testing.T) {
	c := Classify(record(nil, nil), DefaultShiftPolicy())
	assert.Equal(t, StatusNotOnJob, c.Status)
	assert.False(t, c.InvertedShift)
}

// KEY_OFF earlier than KEY_ON is an anomaly, never an exception.
func TestClassifyInvertedShift(t *testing.T) {
	c := Classify(record(ts(15, 0), ts(7, 0)), DefaultShiftPolicy())
	assert.Equal(t, StatusNotOnJob, c.Status)
	assert.True(t, c.InvertedShift)
}

func TestClassifyKeyOnOnly(t *testing.T) {
	c := Classify(record(ts(7, 30), nil), DefaultShiftPolicy())
	assert.Equal(t, StatusLate, c.Status)
	assert.Equal(t, 30, c.MinutesLate)
	assert.Equal(t, 0, c.MinutesEarly)
}

// Only a KEY_OFF: no lateness can be computed, the early-end rule still
// applies.
func TestClassifyKeyOffOnly(t *testing.T) {
	c := Classify(record(nil, ts(15, 0)), DefaultShiftPolicy())
	assert.Equal(t, StatusEarlyEnd, c.Status)
	assert.Equal(t, 0, c.MinutesLate)
	assert.Equal(t, 120, c.MinutesEarly)
}

func TestClassifyCustomPolicy(t *testing.T) {
	p := ShiftPolicy{StartHour: 6, EndHour: 14, LateThresholdMin: 5, EarlyThresholdMin: 10}

	c := Classify(record(ts(6, 6), ts(14, 0)), p)
	assert.Equal(t, StatusLate, c.Status)
	assert.Equal(t, 6, c.MinutesLate)
}

func TestShiftPolicyZeroValueDefaults(t *testing.T) {
	c := Classify(record(ts(7, 20), ts(17, 0)), ShiftPolicy{})
	assert.Equal(t, StatusLate, c.Status)
	assert.Equal(t, 20, c.MinutesLate)
}
