package engine

import "time"

// AttendanceStatus is the attendance outcome assigned to one driver-day.
type AttendanceStatus string

const (
	StatusOnTime          AttendanceStatus = "ON_TIME"
	StatusLate            AttendanceStatus = "LATE"
	StatusEarlyEnd        AttendanceStatus = "EARLY_END"
	StatusLateAndEarlyEnd AttendanceStatus = "LATE_AND_EARLY_END"
	StatusNotOnJob        AttendanceStatus = "NOT_ON_JOB"

	// StatusUnknown is reserved for callers that persist statuses and need
	// a value for records classified under a different engine version. No
	// classification path here produces it.
	StatusUnknown AttendanceStatus = "UNKNOWN"
)

// AllStatuses lists every status bucket in report order.
var AllStatuses = []AttendanceStatus{
	StatusOnTime,
	StatusLate,
	StatusEarlyEnd,
	StatusLateAndEarlyEnd,
	StatusNotOnJob,
}

// ShiftPolicy holds the standard work window and deviation thresholds.
// Zero or negative fields fall back to the defaults: 07:00–17:00, late
// beyond 15 minutes, early end beyond 30 minutes.
type ShiftPolicy struct {
	StartHour         int `json:"startHour"`
	StartMinute       int `json:"startMinute"`
	EndHour           int `json:"endHour"`
	EndMinute         int `json:"endMinute"`
	LateThresholdMin  int `json:"lateThresholdMin"`
	EarlyThresholdMin int `json:"earlyThresholdMin"`
}

// DefaultShiftPolicy returns the standard 07:00–17:00 window with the
// 15/30 minute thresholds.
func DefaultShiftPolicy() ShiftPolicy {
	return ShiftPolicy{
		StartHour:         7,
		EndHour:           17,
		LateThresholdMin:  15,
		EarlyThresholdMin: 30,
	}
}

// normalized fills unset fields with defaults. A midnight shift start is not
// representable through the zero value; configure 00:01 instead.
func (p ShiftPolicy) normalized() ShiftPolicy {
	def := DefaultShiftPolicy()
	if p.StartHour == 0 && p.StartMinute == 0 {
		p.StartHour, p.StartMinute = def.StartHour, def.StartMinute
	}
	if p.EndHour == 0 && p.EndMinute == 0 {
		p.EndHour, p.EndMinute = def.EndHour, def.EndMinute
	}
	if p.LateThresholdMin <= 0 {
		p.LateThresholdMin = def.LateThresholdMin
	}
	if p.EarlyThresholdMin <= 0 {
		p.EarlyThresholdMin = def.EarlyThresholdMin
	}
	return p
}

// Classification is the attendance outcome for one driver-day. Both
// deviation magnitudes are retained whatever the final label, so consumers
// can re-derive alternate policies without re-ingesting source files.
type Classification struct {
	Status        AttendanceStatus `json:"status"`
	MinutesLate   int              `json:"minutesLate"`
	MinutesEarly  int              `json:"minutesEarly"`
	InvertedShift bool             `json:"invertedShift,omitempty"`
}

// Classify applies the attendance decision table to one record. Pure
// function of the record and policy; it never fails:
//
//	no KEY_ON and no KEY_OFF            -> NOT_ON_JOB
//	KEY_OFF before KEY_ON               -> NOT_ON_JOB, inverted-shift flag
//	late > threshold                    -> LATE
//	early end > threshold               -> EARLY_END (overrides ON_TIME)
//	both beyond threshold               -> LATE_AND_EARLY_END
//	otherwise                           -> ON_TIME
func Classify(rec *DriverDayRecord, policy ShiftPolicy) Classification {
	p := policy.normalized()

	if rec.FirstKeyOn == nil && rec.LastKeyOff == nil {
		return Classification{Status: StatusNotOnJob}
	}

	if rec.FirstKeyOn != nil && rec.LastKeyOff != nil && rec.LastKeyOff.Before(*rec.FirstKeyOn) {
		return Classification{Status: StatusNotOnJob, InvertedShift: true}
	}

	var c Classification

	if rec.FirstKeyOn != nil {
		start := atClock(*rec.FirstKeyOn, p.StartHour, p.StartMinute)
		if late := rec.FirstKeyOn.Sub(start); late > 0 {
			c.MinutesLate = int(late.Minutes())
		}
	}

	status := StatusOnTime
	if c.MinutesLate > p.LateThresholdMin {
		status = StatusLate
	}

	if rec.LastKeyOff != nil {
		end := atClock(*rec.LastKeyOff, p.EndHour, p.EndMinute)
		if early := end.Sub(*rec.LastKeyOff); early > 0 {
			c.MinutesEarly = int(early.Minutes())
		}
		if c.MinutesEarly > p.EarlyThresholdMin {
			if status == StatusLate {
				status = StatusLateAndEarlyEnd
			} else {
				status = StatusEarlyEnd
			}
		}
	}

	c.Status = status
	return c
}

// atClock pins hour:minute onto the calendar date of t.
func atClock(t time.Time, hour, minute int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
}
