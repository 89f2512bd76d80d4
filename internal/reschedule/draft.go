package reschedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborclinic/scheduling-core/internal/appointment"
)

// Draft is the single in-flight reschedule interaction. It is created on
// Open, mutated as the user changes date/doctor/time, discarded on Cancel,
// and converted into a confirm request on Submit. It lives for one user
// interaction and is never persisted.
type Draft struct {
	ID          uuid.UUID               `json:"id"`
	Appointment appointment.Appointment `json:"appointment"`
	// SelectedDate is the target day; the zero value means unset.
	SelectedDate time.Time `json:"selected_date"`
	// SelectedDoctor is nil until a doctor is resolved or chosen.
	SelectedDoctor *appointment.Doctor `json:"selected_doctor,omitempty"`
	SelectedTime   string              `json:"selected_time,omitempty"`
	// Slots is the cached availability for the current (doctor, date) pair.
	// SlotsLoaded is true only after a fetch for that exact pair succeeded;
	// until then slot selection is optimistically accepted and left to the
	// server to validate.
	Slots       []appointment.Slot `json:"slots,omitempty"`
	SlotsLoaded bool               `json:"slots_loaded"`
}

// complete reports whether the draft carries everything a confirm
// request needs.
func (d *Draft) complete() bool {
	return d != nil && !d.SelectedDate.IsZero() && d.SelectedDoctor != nil && d.SelectedTime != ""
}

// confirmRequest packages the draft into the booking payload. The
// appointment type comes from the original appointment so a reschedule can
// never silently change clinical category.
func (d *Draft) confirmRequest() Request {
	return Request{
		AppointmentID:   d.Appointment.ID,
		NewDate:         d.SelectedDate.Format("2006-01-02"),
		NewTime:         d.SelectedTime,
		NewDoctorID:     d.SelectedDoctor.ID,
		AppointmentType: d.Appointment.PreservedType(),
	}
}

// slotState looks up the selected time in the cached availability.
// Returns (available, known): known is false when the cache holds no entry
// for that time.
func (d *Draft) slotState(timeOfDay string) (bool, bool) {
	for _, s := range d.Slots {
		if s.Time == timeOfDay {
			return s.Available, true
		}
	}
	return false, false
}

// Request is the confirm payload sent to the booking collaborator.
type Request struct {
	AppointmentID   string `json:"appointment_id"`
	NewDate         string `json:"new_date"`
	NewTime         string `json:"new_time"`
	NewDoctorID     string `json:"new_doctor_id"`
	AppointmentType string `json:"appointment_type"`
}

// Result is the booking collaborator's reply. A success:false with a
// conflict-phrased error signals the slot was taken server-side.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	// Appointment is the updated snapshot on success, when the backend
	// returns one.
	Appointment *appointment.Appointment `json:"appointment,omitempty"`
}
