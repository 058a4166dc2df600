package model

import "time"

// Dates are calendar days ("2006-01-02") and clocks are wall times
// ("15:04") in the practice's single business timezone. They are kept
// as strings end to end: slot starts compare lexicographically, which
// is exact for zero-padded HH:MM values.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

type AppointmentStatus string

const (
	StatusRequested         AppointmentStatus = "requested"
	StatusConfirmed         AppointmentStatus = "confirmed"
	StatusNeedsRescheduling AppointmentStatus = "needs_rescheduling"
	StatusCancelled         AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusRequested, StatusConfirmed, StatusNeedsRescheduling, StatusCancelled:
		return true
	}
	return false
}

// Live appointments occupy their slot; only cancellation frees it.
func (s AppointmentStatus) Live() bool {
	return s.Valid() && s != StatusCancelled
}

type BlackoutKind string

const (
	BlackoutFullDay   BlackoutKind = "full_day"
	BlackoutTimeRange BlackoutKind = "time_range"
)

// Lawyer is owned by the staff directory; this service only reads it.
type Lawyer struct {
	ID        string
	Name      string
	Specialty string
	Email     string
	Active    bool
}

// Service is owned by the catalog; duration determines slot length and
// is copied onto appointments at booking time.
type Service struct {
	ID              string
	Name            string
	Price           string
	DurationMinutes int
	Active          bool
}

type Appointment struct {
	ID              string
	ServiceID       string
	LawyerID        string
	ClientName      string
	ClientEmail     string
	ClientPhone     string
	Date            string
	StartTime       string
	DurationMinutes int
	Comment         string
	Status          AppointmentStatus
	CalendarEventID string
	MeetingLink     string
	CreatedAt       time.Time
}

// AppointmentSummary is the admin listing row with joined display names.
type AppointmentSummary struct {
	Appointment
	ServiceName string
	LawyerName  string
}

// Blackout is immutable once created: staff delete and recreate instead
// of editing. A full-day blackout ignores the time bounds.
type Blackout struct {
	ID        string
	LawyerID  string
	StartDate string
	EndDate   string
	Kind      BlackoutKind
	StartTime string
	EndTime   string
	Reason    string
	CreatedAt time.Time
}

type BlackoutSummary struct {
	Blackout
	LawyerName string
}

// CoversDate reports whether the blackout's date range includes date.
func (b Blackout) CoversDate(date string) bool {
	return b.StartDate <= date && date <= b.EndDate
}

// Covers reports whether a slot starting at clock on date is inside the
// blackout. Time-range blackouts use a half-open window [start, end).
func (b Blackout) Covers(date, clock string) bool {
	if !b.CoversDate(date) {
		return false
	}
	if b.Kind == BlackoutFullDay {
		return true
	}
	return b.StartTime <= clock && clock < b.EndTime
}

func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

func ValidClock(s string) bool {
	if len(s) != len(ClockLayout) {
		return false
	}
	_, err := time.Parse(ClockLayout, s)
	return err == nil
}

// Weekday returns the calendar weekday of a date string.
func Weekday(date string) (time.Weekday, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, err
	}
	return t.Weekday(), nil
}
