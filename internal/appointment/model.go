// Package appointment holds the canonical appointment data model for the
// scheduling core. Records arrive from the clinic backend in a loosely-shaped
// wire format (see RawAppointment); they are normalized exactly once, at the
// ingestion boundary, so downstream consumers never re-derive classification
// or juggle alternate field names.
package appointment

import (
	"strings"
	"time"
)

// Status is the lifecycle state of an appointment as reported by the backend.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusPending   Status = "pending"
	StatusMissed    Status = "missed"
	StatusNoShow    Status = "no_show"
	StatusCompleted Status = "completed"
)

// Priority returns the sort priority band for a status: confirmed and
// pending appointments sort first, missed second, everything else last.
func (s Status) Priority() int {
	switch s {
	case StatusConfirmed, StatusPending:
		return 0
	case StatusMissed:
		return 1
	default:
		return 2
	}
}

// IsMissed reports whether the appointment was missed or a no-show.
// Both "no_show" and "no-show" spellings occur in backend data.
func (s Status) IsMissed() bool {
	return s == StatusMissed || s == StatusNoShow || s == "no-show"
}

// ColorTag is the categorical display color for an appointment.
type ColorTag string

const (
	ColorTeal   ColorTag = "teal"
	ColorPurple ColorTag = "purple"
	ColorOrange ColorTag = "orange"
	ColorGreen  ColorTag = "green"
	ColorBlue   ColorTag = "blue"
	ColorRed    ColorTag = "red"
	ColorGray   ColorTag = "gray"
)

// Kind is the clinical category of an appointment, resolved once at
// ingestion so consumers switch over a closed enum instead of sniffing
// labels and colors ad hoc.
type Kind string

const (
	KindInvestigation    Kind = "investigation"
	KindFollowUp         Kind = "follow_up"
	KindUrologistConsult Kind = "urologist"
	KindSurgery          Kind = "surgery"
	KindMDT              Kind = "mdt"
	KindUnclassified     Kind = "unclassified"
)

// CanonicalColor returns the display color a kind carries on its own,
// before status and explicit color overrides are applied (see ResolveColor).
func (k Kind) CanonicalColor() ColorTag {
	switch k {
	case KindInvestigation:
		return ColorPurple
	case KindFollowUp:
		return ColorBlue
	case KindSurgery:
		return ColorOrange
	case KindMDT:
		return ColorGreen
	default:
		return ColorTeal
	}
}

// Appointment is the canonical, normalized appointment record. It is
// read-only to the scheduling core: the backend owns the data, this model
// only reflects it.
type Appointment struct {
	ID string `json:"id"`
	// Date is the calendar day at midnight UTC. The zero value means the
	// backend sent a malformed or missing date; such records sort last and
	// render as "no date" rather than crashing the grid.
	Date time.Time `json:"date"`
	// TimeOfDay is the "HH:MM" slot, or "" when the appointment has no
	// time slot (automatic / follow-up bookings).
	TimeOfDay   string   `json:"time,omitempty"`
	Status      Status   `json:"status"`
	Kind        Kind     `json:"kind"`
	AutoBooked  bool     `json:"auto_booked"`
	TypeLabel   string   `json:"type_label,omitempty"`
	TypeColor   ColorTag `json:"type_color,omitempty"`
	PatientName string   `json:"patient_name,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	// DoctorID is the linked doctor's id when the backend supplied one,
	// under any of its field spellings. Empty means unlinked.
	DoctorID string `json:"doctor_id,omitempty"`
	// DoctorName is the free-text doctor name (e.g. "Dr. Patel") used as a
	// fallback when no id linkage exists.
	DoctorName string `json:"doctor_name,omitempty"`
}

// HasDate reports whether the appointment carries a valid calendar date.
func (a Appointment) HasDate() bool {
	return !a.Date.IsZero()
}

// HasTime reports whether the appointment has a concrete time slot.
func (a Appointment) HasTime() bool {
	return a.TimeOfDay != ""
}

// DateKey returns the appointment's day as "YYYY-MM-DD", or "" when the
// date is unknown.
func (a Appointment) DateKey() string {
	if !a.HasDate() {
		return ""
	}
	return a.Date.Format("2006-01-02")
}

// MinuteOfDay returns the slot time as minutes since midnight. Appointments
// without a time slot return 0, so they tie-break as 00:00 in sorts without
// ever being hidden.
func (a Appointment) MinuteOfDay() int {
	if a.TimeOfDay == "" {
		return 0
	}
	t, err := time.Parse("15:04", a.TimeOfDay)
	if err != nil {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}

// Hour returns the hour-of-day of the slot time, or -1 when there is none.
// Grid rows match on the containing hour, so "09:15" and "09:45" both land
// in the 09:00 row.
func (a Appointment) Hour() int {
	if a.TimeOfDay == "" {
		return -1
	}
	t, err := time.Parse("15:04", a.TimeOfDay)
	if err != nil {
		return -1
	}
	return t.Hour()
}

// IsAutomatic reports whether the appointment belongs in the "automatic"
// calendar bucket: it has no time slot, or it was identified as an
// auto-booked / recurring follow-up at ingestion.
func (a Appointment) IsAutomatic() bool {
	return !a.HasTime() || a.AutoBooked
}

// PreservedType returns the appointment-type value a reschedule request
// must carry so the booking never silently changes clinical category.
// The original type color is the source of truth; the label is a fallback.
func (a Appointment) PreservedType() string {
	switch a.TypeColor {
	case ColorPurple:
		return "investigation"
	case ColorTeal:
		return "urologist"
	}
	if strings.Contains(strings.ToLower(a.TypeLabel), "investigation") {
		return "investigation"
	}
	return "urologist"
}

// Doctor identifies a clinician appointments can be scheduled with.
type Doctor struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	// Name is an optional explicit display name; when absent, first and
	// last names are joined.
	Name string `json:"name,omitempty"`
}

// DisplayName returns the doctor's name for display and name-matching.
func (d Doctor) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// Slot is a single availability slot for a (doctor, date, type) triple,
// as reported by the backend. The core never invents availability; it only
// reflects what the server supplies.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}
