package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/harborclinic/scheduling-core/internal/appointment"
	"github.com/harborclinic/scheduling-core/internal/calendar"
	"github.com/harborclinic/scheduling-core/pkg/logging"
)

// AppointmentSource fetches the appointments inside a date window, normally
// the backend client.
type AppointmentSource interface {
	FetchAppointments(ctx context.Context, from, to time.Time) ([]appointment.Appointment, error)
}

// CalendarHandler serves the month, week, and day calendar grids.
type CalendarHandler struct {
	source AppointmentSource
	logger *logging.Logger
	now    func() time.Time
}

// NewCalendarHandler creates a calendar handler.
func NewCalendarHandler(source AppointmentSource, logger *logging.Logger) *CalendarHandler {
	if source == nil {
		panic("handlers: appointment source cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CalendarHandler{
		source: source,
		logger: logger,
		now:    time.Now,
	}
}

// calendarAppointment is the wire shape of an appointment in grid responses:
// the canonical record plus its resolved display color.
type calendarAppointment struct {
	appointment.Appointment
	Color appointment.ColorTag `json:"color"`
}

type dayBucketsResponse struct {
	Regular   []calendarAppointment `json:"regular"`
	Automatic []calendarAppointment `json:"automatic"`
}

type gridCellResponse struct {
	Date           string             `json:"date"`
	IsCurrentMonth bool               `json:"is_current_month"`
	IsToday        bool               `json:"is_today"`
	Buckets        dayBucketsResponse `json:"buckets"`
}

type hourRowResponse struct {
	Hour         int                   `json:"hour"`
	Label        string                `json:"label"`
	Appointments []calendarAppointment `json:"appointments"`
}

type calendarResponse struct {
	View        string                `json:"view"`
	Date        string                `json:"date"`
	Cells       []gridCellResponse    `json:"cells,omitempty"`
	Labels      []string              `json:"labels,omitempty"`
	Hours       []hourRowResponse     `json:"hours,omitempty"`
	Automatic   []calendarAppointment `json:"automatic,omitempty"`
	Unscheduled []calendarAppointment `json:"unscheduled"`
}

// GetCalendar returns the requested grid.
// GET /api/v1/calendar?view=month|week|day&date=YYYY-MM-DD
// view defaults to month, date defaults to today.
func (h *CalendarHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	today := h.now().UTC()

	view := r.URL.Query().Get("view")
	if view == "" {
		view = "month"
	}

	ref := today
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed := appointment.ParseDate(raw)
		if parsed.IsZero() {
			jsonError(w, "invalid date: "+raw, http.StatusBadRequest)
			return
		}
		ref = parsed
	}

	from, to, ok := fetchWindow(view, ref)
	if !ok {
		jsonError(w, "invalid view: "+view, http.StatusBadRequest)
		return
	}

	appts, err := h.source.FetchAppointments(r.Context(), from, to)
	if err != nil {
		h.logger.Error("calendar: could not fetch appointments", "view", view, "error", err)
		jsonError(w, "could not load appointments", http.StatusBadGateway)
		return
	}

	resp := calendarResponse{
		View:        view,
		Date:        ref.Format("2006-01-02"),
		Unscheduled: toCalendarAppointments(calendar.Unscheduled(appts)),
	}

	switch view {
	case "month":
		resp.Cells = toGridCells(calendar.MonthGrid(ref, today, appts))
	case "week":
		wk := calendar.WeekGrid(ref, today, appts)
		resp.Cells = toGridCells(wk.Days)
		resp.Labels = wk.Labels
	case "day":
		dv := calendar.DayGrid(ref, today, appts)
		resp.Cells = []gridCellResponse{{
			Date:           dv.Cell.Date.Format("2006-01-02"),
			IsCurrentMonth: dv.Cell.IsCurrentMonth,
			IsToday:        dv.Cell.IsToday,
		}}
		resp.Hours = toHourRows(dv.Hours)
		resp.Automatic = toCalendarAppointments(dv.Automatic)
	}

	writeJSON(w, http.StatusOK, resp)
}

// fetchWindow returns the [from, to) date range a view needs. The month
// window covers the full 42-cell grid, including the adjacent-month cells.
func fetchWindow(view string, ref time.Time) (time.Time, time.Time, bool) {
	switch view {
	case "month":
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		start := first.AddDate(0, 0, -int(first.Weekday()))
		return start, start.AddDate(0, 0, 42), true
	case "week":
		day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
		start := day.AddDate(0, 0, -int(day.Weekday()))
		return start, start.AddDate(0, 0, 7), true
	case "day":
		day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
		return day, day.AddDate(0, 0, 1), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

func toCalendarAppointments(appts []appointment.Appointment) []calendarAppointment {
	out := make([]calendarAppointment, 0, len(appts))
	for _, a := range appts {
		out = append(out, calendarAppointment{Appointment: a, Color: appointment.ResolveColor(a)})
	}
	return out
}

func toGridCells(cells []calendar.GridCell) []gridCellResponse {
	out := make([]gridCellResponse, 0, len(cells))
	for _, c := range cells {
		out = append(out, gridCellResponse{
			Date:           c.Date.Format("2006-01-02"),
			IsCurrentMonth: c.IsCurrentMonth,
			IsToday:        c.IsToday,
			Buckets: dayBucketsResponse{
				Regular:   toCalendarAppointments(c.Buckets.Regular),
				Automatic: toCalendarAppointments(c.Buckets.Automatic),
			},
		})
	}
	return out
}

func toHourRows(rows []calendar.HourRow) []hourRowResponse {
	out := make([]hourRowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, hourRowResponse{
			Hour:         row.Hour,
			Label:        row.Label,
			Appointments: toCalendarAppointments(row.Appointments),
		})
	}
	return out
}
