package handlers

import (
	"net/http"
	"strings"

	"github.com/harborclinic/scheduling-core/internal/appointment"
	"github.com/harborclinic/scheduling-core/internal/reschedule"
	"github.com/harborclinic/scheduling-core/pkg/logging"
)

// DirectoryHandler serves the doctor list and slot availability lookups.
type DirectoryHandler struct {
	directory    reschedule.DoctorDirectory
	availability reschedule.AvailabilityProvider
	logger       *logging.Logger
}

// NewDirectoryHandler creates a directory handler.
func NewDirectoryHandler(directory reschedule.DoctorDirectory, availability reschedule.AvailabilityProvider, logger *logging.Logger) *DirectoryHandler {
	if directory == nil {
		panic("handlers: doctor directory cannot be nil")
	}
	if availability == nil {
		panic("handlers: availability provider cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DirectoryHandler{
		directory:    directory,
		availability: availability,
		logger:       logger,
	}
}

// ListDoctors returns the clinic's doctors.
// GET /api/v1/doctors
func (h *DirectoryHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.directory.FetchDoctors(r.Context())
	if err != nil {
		h.logger.Error("directory: could not fetch doctors", "error", err)
		jsonError(w, "could not load doctors", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctors": doctors})
}

// GetAvailability returns the bookable slots for a doctor on a date.
// GET /api/v1/availability?doctor_id=..&date=YYYY-MM-DD&type=urologist|investigation
func (h *DirectoryHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	doctorID := strings.TrimSpace(q.Get("doctor_id"))
	if doctorID == "" {
		jsonError(w, "missing doctor_id", http.StatusBadRequest)
		return
	}
	date := appointment.ParseDate(q.Get("date"))
	if date.IsZero() {
		jsonError(w, "invalid date: "+q.Get("date"), http.StatusBadRequest)
		return
	}
	apptType := strings.TrimSpace(q.Get("type"))
	if apptType == "" {
		apptType = "urologist"
	}

	slots, err := h.availability.AvailableSlots(r.Context(), doctorID, date, apptType)
	if err != nil {
		h.logger.Error("directory: could not fetch availability",
			"doctor_id", doctorID, "date", date.Format("2006-01-02"), "error", err)
		jsonError(w, "could not load availability", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}
