package appointment

import (
	"encoding/json"
	"strings"
	"time"
)

// looseString accepts either a JSON string or number. Backend ids and dates
// have shifted representation across API versions.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*s = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}

// RawAppointment is the wire shape of an appointment as the clinic backend
// sends it. The contract is unreconciled: several fields arrive under two or
// more names depending on endpoint and API age. All variants are declared
// here so the fallback mapping lives in exactly one place (Normalize) instead
// of being threaded through every consumer.
type RawAppointment struct {
	ID looseString `json:"id"`

	Date            string `json:"date"`
	AppointmentDate string `json:"appointment_date"`

	Time            string `json:"time"`
	AppointmentTime string `json:"appointment_time"`

	Status string `json:"status"`

	Type            string `json:"type"`
	AppointmentType string `json:"appointment_type"`
	TypeColor       string `json:"typeColor"`
	TypeColorSnake  string `json:"type_color"`

	PatientName      string `json:"patient_name"`
	PatientNameCamel string `json:"patientName"`
	Notes            string `json:"notes"`

	// Doctor linkage, in every spelling the backend has used.
	Urologist        string      `json:"urologist"`
	UrologistID      looseString `json:"urologist_id"`
	UrologistIDCamel looseString `json:"urologistId"`
	DoctorID         looseString `json:"doctor_id"`
	DoctorIDCamel    looseString `json:"doctorId"`
}

// firstNonEmpty returns the first value with content, the single point where
// dual field names collapse to the canonical one.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// ParseDate parses a backend calendar date. "YYYY-MM-DD" is the contract;
// RFC3339 timestamps are tolerated by taking their date part. Malformed
// input returns the zero time rather than an error: a bad date must never
// crash the grid, the record just renders as "no date".
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if idx := strings.IndexByte(s, 'T'); idx > 0 {
		s = s[:idx]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ParseTime normalizes a backend time-of-day to "HH:MM". Seconds are
// tolerated and dropped. Malformed input normalizes to "" (no time slot).
func ParseTime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if t, err := time.Parse("15:04", s); err == nil {
		return t.Format("15:04")
	}
	if t, err := time.Parse("15:04:05", s); err == nil {
		return t.Format("15:04")
	}
	return ""
}

// Normalize converts a raw wire record into the canonical Appointment,
// resolving field-name fallbacks, parsing date and time, and running
// classification exactly once.
func (r RawAppointment) Normalize() Appointment {
	typeLabel := firstNonEmpty(r.Type, r.AppointmentType)
	typeColor := ColorTag(strings.ToLower(firstNonEmpty(r.TypeColor, r.TypeColorSnake)))
	notes := strings.TrimSpace(r.Notes)

	auto := detectAutoBooked(typeLabel, typeColor, notes)

	return Appointment{
		ID:          string(r.ID),
		Date:        ParseDate(firstNonEmpty(r.Date, r.AppointmentDate)),
		TimeOfDay:   ParseTime(firstNonEmpty(r.Time, r.AppointmentTime)),
		Status:      Status(strings.ToLower(strings.TrimSpace(r.Status))),
		Kind:        classifyKind(typeLabel, typeColor, auto),
		AutoBooked:  auto,
		TypeLabel:   typeLabel,
		TypeColor:   typeColor,
		PatientName: firstNonEmpty(r.PatientName, r.PatientNameCamel),
		Notes:       notes,
		DoctorID: firstNonEmpty(
			string(r.UrologistID),
			string(r.UrologistIDCamel),
			string(r.DoctorID),
			string(r.DoctorIDCamel),
		),
		DoctorName: strings.TrimSpace(r.Urologist),
	}
}

// NormalizeAll converts a raw appointment list. Input order is preserved;
// downstream sorts rely on it for stability.
func NormalizeAll(raw []RawAppointment) []Appointment {
	out := make([]Appointment, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.Normalize())
	}
	return out
}
