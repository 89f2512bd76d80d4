package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/harborclinic/scheduling-core/internal/appointment"
	"github.com/harborclinic/scheduling-core/internal/reschedule"
)

type stubBooker struct {
	req    *reschedule.Request
	result reschedule.Result
	err    error
}

func (s *stubBooker) SubmitReschedule(ctx context.Context, req reschedule.Request) (reschedule.Result, error) {
	s.req = &req
	if s.err != nil {
		return reschedule.Result{}, s.err
	}
	return s.result, nil
}

func rescheduleHandlerFixture(booker *stubBooker) *RescheduleHandler {
	directory := &stubDirectory{doctors: []appointment.Doctor{
		{ID: "5", FirstName: "Asha", LastName: "Patel"},
		{ID: "8", FirstName: "James", LastName: "Wright"},
	}}
	availability := &stubAvailability{slots: []appointment.Slot{
		{Time: "09:00", Available: true},
		{Time: "10:00", Available: false},
	}}
	return NewRescheduleHandler(directory, availability, booker, nil, nil, nil)
}

func postReschedule(h *RescheduleHandler, appointmentID string, body map[string]any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/"+appointmentID+"/reschedule", bytes.NewReader(payload))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("appointmentID", appointmentID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.Reschedule(rec, req)
	return rec
}

func TestRescheduleSuccess(t *testing.T) {
	booker := &stubBooker{result: reschedule.Result{Success: true}}
	h := rescheduleHandlerFixture(booker)

	rec := postReschedule(h, "appt-1", map[string]any{
		"appointment": map[string]any{
			"id":           "appt-1",
			"date":         "2025-03-05",
			"time":         "14:00",
			"status":       "confirmed",
			"typeColor":    "purple",
			"urologist_id": "5",
		},
		"new_date": "2030-03-12",
		"new_time": "09:00",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if booker.req == nil {
		t.Fatal("expected a submit to reach the booker")
	}
	if booker.req.AppointmentID != "appt-1" || booker.req.NewDate != "2030-03-12" || booker.req.NewTime != "09:00" {
		t.Fatalf("unexpected request: %+v", booker.req)
	}
	if booker.req.NewDoctorID != "5" {
		t.Fatalf("expected the appointment's doctor to carry over, got %q", booker.req.NewDoctorID)
	}
	if booker.req.AppointmentType != "investigation" {
		t.Fatalf("expected purple appointment to keep investigation type, got %q", booker.req.AppointmentType)
	}

	var resp rescheduleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Appointment == nil {
		t.Fatalf("expected success with appointment snapshot, got %+v", resp)
	}
	if resp.Appointment.TimeOfDay != "09:00" {
		t.Fatalf("expected snapshot at new time, got %q", resp.Appointment.TimeOfDay)
	}
}

func TestRescheduleDoctorOverride(t *testing.T) {
	booker := &stubBooker{result: reschedule.Result{Success: true}}
	h := rescheduleHandlerFixture(booker)

	rec := postReschedule(h, "appt-1", map[string]any{
		"appointment": map[string]any{
			"id":           "appt-1",
			"date":         "2025-03-05",
			"time":         "14:00",
			"status":       "confirmed",
			"urologist_id": "5",
		},
		"new_date":  "2030-03-12",
		"new_time":  "09:00",
		"doctor_id": "8",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if booker.req == nil || booker.req.NewDoctorID != "8" {
		t.Fatalf("expected the override doctor, got %+v", booker.req)
	}
}

func TestRescheduleUnknownDoctor(t *testing.T) {
	booker := &stubBooker{result: reschedule.Result{Success: true}}
	h := rescheduleHandlerFixture(booker)

	rec := postReschedule(h, "appt-1", map[string]any{
		"appointment": map[string]any{"id": "appt-1", "urologist_id": "5"},
		"new_date":    "2030-03-12",
		"new_time":    "09:00",
		"doctor_id":   "404",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if booker.req != nil {
		t.Fatal("expected no submit for an unknown doctor")
	}
}

func TestReschedulePastDate(t *testing.T) {
	booker := &stubBooker{result: reschedule.Result{Success: true}}
	h := rescheduleHandlerFixture(booker)

	rec := postReschedule(h, "appt-1", map[string]any{
		"appointment": map[string]any{"id": "appt-1", "urologist_id": "5"},
		"new_date":    "2019-01-01",
		"new_time":    "09:00",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if booker.req != nil {
		t.Fatal("expected no submit for a past date")
	}
	var resp rescheduleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ErrorClass != reschedule.ClassValidation {
		t.Fatalf("expected validation class, got %q", resp.ErrorClass)
	}
}

func TestRescheduleUnavailableSlot(t *testing.T) {
	booker := &stubBooker{result: reschedule.Result{Success: true}}
	h := rescheduleHandlerFixture(booker)

	rec := postReschedule(h, "appt-1", map[string]any{
		"appointment": map[string]any{"id": "appt-1", "urologist_id": "5"},
		"new_date":    "2030-03-12",
		"new_time":    "10:00",
	})

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if booker.req != nil {
		t.Fatal("expected no submit for a known-unavailable slot")
	}
}

func TestRescheduleServerConflict(t *testing.T) {
	booker := &stubBooker{result: reschedule.Result{
		Success: false,
		Error:   "Slot already booked, overlapping appointment",
	}}
	h := rescheduleHandlerFixture(booker)

	rec := postReschedule(h, "appt-1", map[string]any{
		"appointment": map[string]any{"id": "appt-1", "urologist_id": "5"},
		"new_date":    "2030-03-12",
		"new_time":    "09:00",
	})

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp rescheduleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "Slot already booked, overlapping appointment" {
		t.Fatalf("expected the server message verbatim, got %q", resp.Error)
	}
}

func TestRescheduleValidationErrors(t *testing.T) {
	h := rescheduleHandlerFixture(&stubBooker{})

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing date and time", map[string]any{"appointment": map[string]any{"id": "appt-1"}}},
		{"malformed date", map[string]any{
			"appointment": map[string]any{"id": "appt-1"},
			"new_date":    "soon", "new_time": "09:00",
		}},
		{"id mismatch", map[string]any{
			"appointment": map[string]any{"id": "other"},
			"new_date":    "2030-03-12", "new_time": "09:00",
		}},
	}
	for _, tt := range tests {
		rec := postReschedule(h, "appt-1", tt.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status 400, got %d", tt.name, rec.Code)
		}
	}
}
