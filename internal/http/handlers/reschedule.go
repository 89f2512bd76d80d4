package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/harborclinic/scheduling-core/internal/appointment"
	"github.com/harborclinic/scheduling-core/internal/observability/metrics"
	"github.com/harborclinic/scheduling-core/internal/reschedule"
	"github.com/harborclinic/scheduling-core/pkg/logging"
)

// settleTimeout bounds how long a request waits for the availability fetch
// before falling back to optimistic slot selection. The backend re-validates
// on submit either way.
const settleTimeout = 2 * time.Second

// CacheInvalidator drops a cached availability entry after a confirmed
// reschedule changes the slot picture.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, doctorID string, date time.Time, appointmentType string)
}

// RescheduleHandler runs a full reschedule negotiation in a single request:
// open a draft for the appointment, apply the requested date, doctor, and
// time, and submit.
type RescheduleHandler struct {
	directory    reschedule.DoctorDirectory
	availability reschedule.AvailabilityProvider
	booker       reschedule.Booker
	invalidator  CacheInvalidator
	metrics      *metrics.SchedulingMetrics
	logger       *logging.Logger
}

// NewRescheduleHandler creates a reschedule handler. invalidator may be nil.
func NewRescheduleHandler(directory reschedule.DoctorDirectory, availability reschedule.AvailabilityProvider, booker reschedule.Booker, invalidator CacheInvalidator, m *metrics.SchedulingMetrics, logger *logging.Logger) *RescheduleHandler {
	if directory == nil {
		panic("handlers: doctor directory cannot be nil")
	}
	if availability == nil {
		panic("handlers: availability provider cannot be nil")
	}
	if booker == nil {
		panic("handlers: booker cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RescheduleHandler{
		directory:    directory,
		availability: availability,
		booker:       booker,
		invalidator:  invalidator,
		metrics:      m,
		logger:       logger,
	}
}

type rescheduleRequest struct {
	Appointment appointment.RawAppointment `json:"appointment"`
	NewDate     string                     `json:"new_date"`
	NewTime     string                     `json:"new_time"`
	DoctorID    string                     `json:"doctor_id"`
}

type rescheduleResponse struct {
	Success     bool                  `json:"success"`
	Appointment *calendarAppointment  `json:"appointment,omitempty"`
	Error       string                `json:"error,omitempty"`
	ErrorClass  reschedule.ErrorClass `json:"error_class,omitempty"`
}

// Reschedule moves an appointment to a new date/time (and optionally a new
// doctor).
// POST /api/v1/appointments/{appointmentID}/reschedule
func (h *RescheduleHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	appointmentID := strings.TrimSpace(chi.URLParam(r, "appointmentID"))
	if appointmentID == "" {
		jsonError(w, "missing appointmentID", http.StatusBadRequest)
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.NewDate == "" || req.NewTime == "" {
		jsonError(w, "new_date and new_time are required", http.StatusBadRequest)
		return
	}
	newDate := appointment.ParseDate(req.NewDate)
	if newDate.IsZero() {
		jsonError(w, "invalid new_date: "+req.NewDate, http.StatusBadRequest)
		return
	}

	appt := req.Appointment.Normalize()
	if appt.ID == "" {
		appt.ID = appointmentID
	}
	if appt.ID != appointmentID {
		jsonError(w, "appointment id mismatch", http.StatusBadRequest)
		return
	}

	n := reschedule.New(h.directory, h.availability, h.booker, h.metrics, h.logger)

	if err := n.Open(r.Context(), appt, newDate, req.NewTime); err != nil {
		h.writeNegotiationError(w, err)
		return
	}

	if req.DoctorID != "" {
		doctor, ok := h.lookupDoctor(r.Context(), req.DoctorID)
		if !ok {
			jsonError(w, "unknown doctor: "+req.DoctorID, http.StatusBadRequest)
			return
		}
		if err := n.SelectDoctor(r.Context(), doctor); err != nil {
			h.writeNegotiationError(w, err)
			return
		}
	}

	waitSettled(r.Context(), n)

	if err := n.SelectTime(req.NewTime); err != nil {
		h.writeNegotiationError(w, err)
		return
	}
	if err := n.Submit(r.Context()); err != nil {
		h.writeNegotiationError(w, err)
		return
	}

	confirmed := n.Confirmed()
	if confirmed != nil && h.invalidator != nil && confirmed.DoctorID != "" && confirmed.HasDate() {
		h.invalidator.Invalidate(r.Context(), confirmed.DoctorID, confirmed.Date, confirmed.PreservedType())
	}

	resp := rescheduleResponse{Success: true}
	if confirmed != nil {
		resp.Appointment = &calendarAppointment{
			Appointment: *confirmed,
			Color:       appointment.ResolveColor(*confirmed),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RescheduleHandler) lookupDoctor(ctx context.Context, doctorID string) (appointment.Doctor, bool) {
	doctors, err := h.directory.FetchDoctors(ctx)
	if err != nil {
		h.logger.Warn("reschedule: could not fetch doctors for lookup", "error", err)
		// Let the selection proceed with just the id; the backend validates.
		return appointment.Doctor{ID: doctorID}, true
	}
	for _, d := range doctors {
		if d.ID == doctorID {
			return d, true
		}
	}
	return appointment.Doctor{}, false
}

func (h *RescheduleHandler) writeNegotiationError(w http.ResponseWriter, err error) {
	var negErr *reschedule.Error
	if !errors.As(err, &negErr) {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, statusForClass(negErr.Class), rescheduleResponse{
		Success:    false,
		Error:      negErr.Message,
		ErrorClass: negErr.Class,
	})
}

func statusForClass(class reschedule.ErrorClass) int {
	switch class {
	case reschedule.ClassValidation:
		return http.StatusBadRequest
	case reschedule.ClassConflict:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// waitSettled blocks until the negotiator's availability fetch resolves, the
// request context ends, or the settle timeout passes.
func waitSettled(ctx context.Context, n *reschedule.Negotiator) {
	deadline := time.After(settleTimeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for n.State() == reschedule.StateLoadingAvailability {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		case <-ticker.C:
		}
	}
}
