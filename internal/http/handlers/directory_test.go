package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harborclinic/scheduling-core/internal/appointment"
)

type stubDirectory struct {
	doctors []appointment.Doctor
	err     error
}

func (s *stubDirectory) FetchDoctors(ctx context.Context) ([]appointment.Doctor, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.doctors, nil
}

type stubAvailability struct {
	slots []appointment.Slot
	err   error
}

func (s *stubAvailability) AvailableSlots(ctx context.Context, doctorID string, date time.Time, appointmentType string) ([]appointment.Slot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.slots, nil
}

func TestListDoctors(t *testing.T) {
	h := NewDirectoryHandler(&stubDirectory{doctors: []appointment.Doctor{
		{ID: "5", FirstName: "Asha", LastName: "Patel"},
	}}, &stubAvailability{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/doctors", nil)
	rec := httptest.NewRecorder()
	h.ListDoctors(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp struct {
		Doctors []appointment.Doctor `json:"doctors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Doctors) != 1 || resp.Doctors[0].ID != "5" {
		t.Fatalf("unexpected doctors: %+v", resp.Doctors)
	}
}

func TestListDoctorsBackendFailure(t *testing.T) {
	h := NewDirectoryHandler(&stubDirectory{err: errors.New("down")}, &stubAvailability{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/doctors", nil)
	rec := httptest.NewRecorder()
	h.ListDoctors(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}
}

func TestGetAvailability(t *testing.T) {
	h := NewDirectoryHandler(&stubDirectory{}, &stubAvailability{slots: []appointment.Slot{
		{Time: "09:00", Available: true},
	}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability?doctor_id=5&date=2025-03-12&type=investigation", nil)
	rec := httptest.NewRecorder()
	h.GetAvailability(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Slots []appointment.Slot `json:"slots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Slots) != 1 || resp.Slots[0].Time != "09:00" {
		t.Fatalf("unexpected slots: %+v", resp.Slots)
	}
}

func TestGetAvailabilityValidation(t *testing.T) {
	h := NewDirectoryHandler(&stubDirectory{}, &stubAvailability{}, nil)

	for _, target := range []string{
		"/api/v1/availability?date=2025-03-12",
		"/api/v1/availability?doctor_id=5&date=not-a-date",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		h.GetAvailability(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400 for %s, got %d", target, rec.Code)
		}
	}
}

func TestGetAvailabilityProviderFailure(t *testing.T) {
	h := NewDirectoryHandler(&stubDirectory{}, &stubAvailability{err: errors.New("down")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability?doctor_id=5&date=2025-03-12", nil)
	rec := httptest.NewRecorder()
	h.GetAvailability(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}
}
