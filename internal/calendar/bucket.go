package calendar

import (
	"sort"

	"github.com/harborclinic/scheduling-core/internal/appointment"
)

// DayBuckets splits one day's appointments into the two disjoint display
// buckets: regular appointments with a time slot, and automatic ones
// (no slot, or auto-booked follow-ups). Every appointment lands in exactly
// one bucket.
type DayBuckets struct {
	Regular   []appointment.Appointment `json:"regular"`
	Automatic []appointment.Appointment `json:"automatic"`
}

// Bucket classifies a day's appointments. Classification was resolved at
// ingestion (IsAutomatic); this only routes. Order within each bucket
// preserves input order.
func Bucket(appts []appointment.Appointment) DayBuckets {
	var b DayBuckets
	for _, a := range appts {
		if a.IsAutomatic() {
			b.Automatic = append(b.Automatic, a)
		} else {
			b.Regular = append(b.Regular, a)
		}
	}
	return b
}

// SortRegular orders regular appointments by status priority, then time of
// day. The sort is stable: equal keys keep their input order. The input is
// not mutated.
func SortRegular(appts []appointment.Appointment) []appointment.Appointment {
	out := make([]appointment.Appointment, len(appts))
	copy(out, appts)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Status.Priority(), out[j].Status.Priority()
		if pi != pj {
			return pi < pj
		}
		return out[i].MinuteOfDay() < out[j].MinuteOfDay()
	})
	return out
}

// SortAutomatic orders automatic appointments by status priority only,
// stable, without mutating the input.
func SortAutomatic(appts []appointment.Appointment) []appointment.Appointment {
	out := make([]appointment.Appointment, len(appts))
	copy(out, appts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Status.Priority() < out[j].Status.Priority()
	})
	return out
}

// GroupByDay buckets and sorts the full appointment list by calendar day.
// Keys are "YYYY-MM-DD"; records with an unparseable date group under the
// empty key so they stay visible to callers that list unscheduled items.
func GroupByDay(appts []appointment.Appointment) map[string]DayBuckets {
	perDay := make(map[string][]appointment.Appointment)
	for _, a := range appts {
		key := a.DateKey()
		perDay[key] = append(perDay[key], a)
	}

	out := make(map[string]DayBuckets, len(perDay))
	for key, day := range perDay {
		b := Bucket(day)
		out[key] = DayBuckets{
			Regular:   SortRegular(b.Regular),
			Automatic: SortAutomatic(b.Automatic),
		}
	}
	return out
}

// Unscheduled returns the appointments whose date could not be parsed.
// They render as "no date" and always sort after dated appointments.
func Unscheduled(appts []appointment.Appointment) []appointment.Appointment {
	var out []appointment.Appointment
	for _, a := range appts {
		if !a.HasDate() {
			out = append(out, a)
		}
	}
	return out
}
