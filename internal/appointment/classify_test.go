package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveColorMissedOverridesEverything(t *testing.T) {
	// Missed and no-show always render red, no matter what other
	// classification signals are present.
	combos := []Appointment{
		{Status: StatusMissed, TypeColor: ColorPurple, TypeLabel: "Investigation"},
		{Status: StatusNoShow, TypeColor: ColorBlue, AutoBooked: true},
		{Status: "no-show", TypeLabel: "Surgery", TimeOfDay: "10:00"},
		{Status: StatusMissed},
	}
	for _, a := range combos {
		assert.Equal(t, ColorRed, ResolveColor(a), "status=%s", a.Status)
	}
}

func TestResolveColorInvestigationBeatsAutomatic(t *testing.T) {
	// A purple investigation that happens to be auto-booked must render
	// purple, not blue: the investigation check runs first.
	a := RawAppointment{
		Date:      "2025-03-10",
		TypeColor: "purple",
		Notes:     "auto-booked for follow-up",
	}.Normalize()

	assert.True(t, a.IsAutomatic(), "no time + auto-booked notes should bucket automatic")
	assert.Equal(t, ColorPurple, ResolveColor(a))
}

func TestResolveColorAutomaticBlue(t *testing.T) {
	a := RawAppointment{Date: "2025-03-10", TypeColor: "blue"}.Normalize()
	assert.True(t, a.IsAutomatic())
	assert.Equal(t, ColorBlue, ResolveColor(a))
}

func TestResolveColorExplicitPassthrough(t *testing.T) {
	for _, c := range []ColorTag{ColorTeal, ColorOrange, ColorGreen} {
		a := Appointment{Status: StatusConfirmed, TimeOfDay: "09:00", TypeColor: c}
		assert.Equal(t, c, ResolveColor(a))
	}
	// Explicit color wins over label sniffing.
	a := Appointment{Status: StatusConfirmed, TimeOfDay: "09:00", TypeColor: ColorGreen, TypeLabel: "Surgery"}
	assert.Equal(t, ColorGreen, ResolveColor(a))
}

func TestResolveColorLabelFallbacks(t *testing.T) {
	tests := []struct {
		label string
		want  ColorTag
	}{
		{"Surgery consult", ColorOrange},
		{"Surgical review", ColorOrange},
		{"MDT meeting", ColorGreen},
		{"Routine check", ColorTeal},
		{"", ColorTeal},
	}
	for _, tt := range tests {
		a := Appointment{Status: StatusConfirmed, TimeOfDay: "09:00", TypeLabel: tt.label}
		assert.Equal(t, tt.want, ResolveColor(a), "label=%q", tt.label)
	}
}

func TestDetectAutoBooked(t *testing.T) {
	tests := []struct {
		name      string
		typeLabel string
		typeColor ColorTag
		notes     string
		want      bool
	}{
		{"blue color", "", ColorBlue, "", true},
		{"automatic type", "Automatic", "", "", true},
		{"follow-up label", "Follow-up visit", "", "", true},
		{"followup label", "followup", "", "", true},
		{"auto-booked note", "", "", "This was Auto-Booked by the system", true},
		{"recurring follow up note", "", "", "recurring follow up", true},
		{"automatic appointment note", "", "", "AUTOMATIC APPOINTMENT", true},
		{"plain consult", "Consultation", ColorTeal, "patient prefers mornings", false},
		{"empty", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectAutoBooked(tt.typeLabel, tt.typeColor, tt.notes))
		})
	}
}

func TestClassifyKind(t *testing.T) {
	tests := []struct {
		name      string
		typeLabel string
		typeColor ColorTag
		auto      bool
		want      Kind
	}{
		{"purple wins over auto", "", ColorPurple, true, KindInvestigation},
		{"investigation label", "Investigation - bladder", "", false, KindInvestigation},
		{"surgery", "Surgery", "", false, KindSurgery},
		{"mdt", "MDT review", "", false, KindMDT},
		{"auto booked", "", "", true, KindFollowUp},
		{"teal consult", "Consultation", ColorTeal, false, KindUrologistConsult},
		{"urologist label", "Urologist appointment", "", false, KindUrologistConsult},
		{"unknown", "Walk-in", "", false, KindUnclassified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyKind(tt.typeLabel, tt.typeColor, tt.auto))
		})
	}
}

func TestKindCanonicalColor(t *testing.T) {
	assert.Equal(t, ColorPurple, KindInvestigation.CanonicalColor())
	assert.Equal(t, ColorBlue, KindFollowUp.CanonicalColor())
	assert.Equal(t, ColorOrange, KindSurgery.CanonicalColor())
	assert.Equal(t, ColorGreen, KindMDT.CanonicalColor())
	assert.Equal(t, ColorTeal, KindUrologistConsult.CanonicalColor())
	assert.Equal(t, ColorTeal, KindUnclassified.CanonicalColor())
}
