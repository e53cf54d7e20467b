package ledger

import "time"

// TimestampLayout is the fixed wire format for attendance timestamps.
// Scanners and administrative callers both use it; anything else is a
// parse failure, not a domain error.
const TimestampLayout = "2006-01-02T15:04:05"

// DateLayout is the calendar-date portion of the wire format.
const DateLayout = "2006-01-02"

// StatusPresent is the default status stamped on new events.
const StatusPresent = "Present"

// Event is one attendance record. Events are created at most once per
// (person, calendar day) and are never mutated or deleted.
type Event struct {
	// ID is ledger-assigned and monotonically distinct.
	ID int64

	FingerprintID string

	// PersonName is denormalized at record time for display fidelity.
	PersonName string

	Status string

	// RecordedAt carries both the calendar date and time of day.
	RecordedAt time.Time

	// TimeOfDay repeats the time portion as the scanner sent it.
	TimeOfDay string
}

// SameDay reports whether the event falls on the given calendar day,
// ignoring time of day.
func (e Event) SameDay(t time.Time) bool {
	ey, em, ed := e.RecordedAt.Date()
	ty, tm, td := t.Date()
	return ey == ty && em == tm && ed == td
}
