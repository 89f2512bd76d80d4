// Package calendar derives render-ready month, week, and day grids from a
// flat appointment list. Every function here is a pure transformation: no
// I/O, no clock reads, no mutation of inputs — callers inject the reference
// date and "today", so the same inputs always yield the same grid.
package calendar

import (
	"fmt"
	"time"

	"github.com/harborclinic/scheduling-core/internal/appointment"
)

// Displayed hour range for the week and day views. Appointments at finer
// granularity bucket into their containing hour row.
const (
	FirstHour = 6
	LastHour  = 21
)

// DayCell is one cell of a calendar grid.
type DayCell struct {
	Date           time.Time `json:"date"`
	IsCurrentMonth bool      `json:"is_current_month"`
	IsToday        bool      `json:"is_today"`
}

// GridCell is a day cell together with that day's bucketed appointments.
type GridCell struct {
	DayCell
	Buckets DayBuckets `json:"buckets"`
}

// HourRow is one time-slot row of the day view.
type HourRow struct {
	Hour         int                       `json:"hour"`
	Label        string                    `json:"label"`
	Appointments []appointment.Appointment `json:"appointments"`
}

// WeekView is the week grid: seven day columns and the fixed slot labels.
type WeekView struct {
	Days   []GridCell `json:"days"`
	Labels []string   `json:"labels"`
}

// DayView is the day grid: one row per displayed hour, plus the day's
// automatic appointments, which have no hour to land in.
type DayView struct {
	Cell      DayCell                   `json:"cell"`
	Hours     []HourRow                 `json:"hours"`
	Automatic []appointment.Appointment `json:"automatic"`
}

// TimeLabels returns the fixed hourly slot labels 06:00 through 21:00.
func TimeLabels() []string {
	labels := make([]string, 0, LastHour-FirstHour+1)
	for h := FirstHour; h <= LastHour; h++ {
		labels = append(labels, fmt.Sprintf("%02d:00", h))
	}
	return labels
}

// dateOnly truncates a time to its UTC calendar day.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// sameDay reports whether two times fall on the same calendar day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MonthGrid builds the month view for the month containing ref: always
// exactly 42 cells (6 rows by 7 columns), Sunday-start. Leading and trailing
// cells belong to adjacent months; they exist purely for grid alignment and
// carry no appointment bucketing.
func MonthGrid(ref, today time.Time, appts []appointment.Appointment) []GridCell {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	byDay := GroupByDay(appts)

	cells := make([]GridCell, 0, 42)
	for i := 0; i < 42; i++ {
		day := start.AddDate(0, 0, i)
		cell := GridCell{
			DayCell: DayCell{
				Date:           day,
				IsCurrentMonth: day.Month() == ref.Month() && day.Year() == ref.Year(),
				IsToday:        sameDay(day, today),
			},
		}
		if cell.IsCurrentMonth {
			cell.Buckets = byDay[day.Format("2006-01-02")]
		}
		cells = append(cells, cell)
	}
	return cells
}

// WeekGrid builds the week view for the Sunday-start week containing ref.
// The window is [ref - weekday, ref - weekday + 6].
func WeekGrid(ref, today time.Time, appts []appointment.Appointment) WeekView {
	refDay := dateOnly(ref)
	start := refDay.AddDate(0, 0, -int(refDay.Weekday()))

	byDay := GroupByDay(appts)

	days := make([]GridCell, 0, 7)
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		days = append(days, GridCell{
			DayCell: DayCell{
				Date:           day,
				IsCurrentMonth: day.Month() == ref.Month() && day.Year() == ref.Year(),
				IsToday:        sameDay(day, today),
			},
			Buckets: byDay[day.Format("2006-01-02")],
		})
	}
	return WeekView{Days: days, Labels: TimeLabels()}
}

// DayGrid builds the day view for ref. Regular appointments land in the row
// matching their hour of day ("09:15" and "09:45" both match the 09:00 row);
// hours outside the displayed 06:00–21:00 range are not rendered as rows.
// Automatic appointments for the day are listed regardless of hour.
func DayGrid(ref, today time.Time, appts []appointment.Appointment) DayView {
	refDay := dateOnly(ref)
	key := refDay.Format("2006-01-02")

	buckets := GroupByDay(appts)[key]

	hours := make([]HourRow, 0, LastHour-FirstHour+1)
	for h := FirstHour; h <= LastHour; h++ {
		row := HourRow{Hour: h, Label: fmt.Sprintf("%02d:00", h)}
		for _, a := range buckets.Regular {
			if a.Hour() == h {
				row.Appointments = append(row.Appointments, a)
			}
		}
		hours = append(hours, row)
	}

	return DayView{
		Cell: DayCell{
			Date:           refDay,
			IsCurrentMonth: true,
			IsToday:        sameDay(refDay, today),
		},
		Hours:     hours,
		Automatic: buckets.Automatic,
	}
}
