// Package backend is the REST client for the clinic backend: the external
// collaborator that owns appointments, doctors, availability, and the final
// double-booking check. The scheduling core only reads and reflects what
// this API reports.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/harborclinic/scheduling-core/internal/appointment"
	"github.com/harborclinic/scheduling-core/internal/reschedule"
	"github.com/harborclinic/scheduling-core/pkg/logging"
)

const defaultTimeout = 20 * time.Second

// Client talks to the clinic backend's scheduling API.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a backend API client.
func NewClient(baseURL, apiToken string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

type appointmentsResponse struct {
	Appointments []appointment.RawAppointment `json:"appointments"`
}

// FetchAppointments returns the normalized appointments in [from, to).
func (c *Client) FetchAppointments(ctx context.Context, from, to time.Time) ([]appointment.Appointment, error) {
	q := url.Values{}
	q.Set("from", from.Format("2006-01-02"))
	q.Set("to", to.Format("2006-01-02"))

	var out appointmentsResponse
	if err := c.get(ctx, "/api/appointments", q, &out); err != nil {
		return nil, fmt.Errorf("backend: fetch appointments: %w", err)
	}
	return appointment.NormalizeAll(out.Appointments), nil
}

type rawDoctor struct {
	ID        json.Number `json:"id"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Name      string      `json:"name"`
}

type doctorsResponse struct {
	Doctors []rawDoctor `json:"doctors"`
}

// FetchDoctors returns the clinic's doctors. Ids are normalized to strings;
// the backend has sent both numbers and strings over time.
func (c *Client) FetchDoctors(ctx context.Context) ([]appointment.Doctor, error) {
	var out doctorsResponse
	if err := c.get(ctx, "/api/doctors", nil, &out); err != nil {
		return nil, fmt.Errorf("backend: fetch doctors: %w", err)
	}
	doctors := make([]appointment.Doctor, 0, len(out.Doctors))
	for _, d := range out.Doctors {
		doctors = append(doctors, appointment.Doctor{
			ID:        d.ID.String(),
			FirstName: d.FirstName,
			LastName:  d.LastName,
			Name:      d.Name,
		})
	}
	return doctors, nil
}

type slotsResponse struct {
	Slots []appointment.Slot `json:"slots"`
}

// FetchAvailableSlots returns the bookable slots for a doctor on a date for
// a given appointment type.
func (c *Client) FetchAvailableSlots(ctx context.Context, doctorID string, date time.Time, appointmentType string) ([]appointment.Slot, error) {
	q := url.Values{}
	q.Set("doctor_id", doctorID)
	q.Set("date", date.Format("2006-01-02"))
	q.Set("appointment_type", appointmentType)

	var out slotsResponse
	if err := c.get(ctx, "/api/availability", q, &out); err != nil {
		return nil, fmt.Errorf("backend: fetch availability: %w", err)
	}
	return out.Slots, nil
}

type rescheduleResponse struct {
	Success     bool                        `json:"success"`
	Error       string                      `json:"error"`
	Appointment *appointment.RawAppointment `json:"appointment"`
}

// SubmitReschedule posts the confirm payload. A scheduling conflict comes
// back as success:false with the server's message, not as a transport
// error: the negotiator classifies it.
func (c *Client) SubmitReschedule(ctx context.Context, req reschedule.Request) (reschedule.Result, error) {
	body := map[string]string{
		"new_date":         req.NewDate,
		"new_time":         req.NewTime,
		"new_doctor_id":    req.NewDoctorID,
		"appointment_type": req.AppointmentType,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return reschedule.Result{}, fmt.Errorf("backend: marshal reschedule: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/appointments/%s/reschedule", c.baseURL, url.PathEscape(req.AppointmentID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return reschedule.Result{}, fmt.Errorf("backend: build reschedule request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return reschedule.Result{}, fmt.Errorf("backend: submit reschedule: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return reschedule.Result{}, fmt.Errorf("backend: read reschedule response: %w", err)
	}

	var out rescheduleResponse
	if err := json.Unmarshal(data, &out); err != nil {
		// Conflict rejections (409) still carry a JSON body; anything
		// undecodable is a transport-level failure.
		return reschedule.Result{}, fmt.Errorf("backend: reschedule returned status %d", resp.StatusCode)
	}

	result := reschedule.Result{Success: out.Success, Error: out.Error}
	if out.Appointment != nil {
		normalized := out.Appointment.Normalize()
		result.Appointment = &normalized
	}
	if !result.Success {
		c.logger.Warn("backend rejected reschedule",
			"appointment_id", req.AppointmentID,
			"status", resp.StatusCode,
			"error", result.Error,
		)
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}
}
