package appointment

import (
	"regexp"
	"strings"
)

var followUpPattern = regexp.MustCompile(`(?i)follow-?up`)

// autoBookedMarkers are the note phrases the booking pipeline writes when it
// creates an appointment automatically. Matching is case-insensitive
// substring.
var autoBookedMarkers = []string{
	"auto-booked",
	"auto booked",
	"automatic appointment",
	"recurring follow-up",
	"recurring followup",
	"recurring follow up",
}

// detectAutoBooked decides whether a record was auto-booked by the backend:
// blue type color, an explicit "automatic" type, a follow-up type label, or
// one of the known auto-booking note markers.
func detectAutoBooked(typeLabel string, typeColor ColorTag, notes string) bool {
	if typeColor == ColorBlue {
		return true
	}
	label := strings.ToLower(strings.TrimSpace(typeLabel))
	if label == "automatic" {
		return true
	}
	if followUpPattern.MatchString(typeLabel) {
		return true
	}
	lowerNotes := strings.ToLower(notes)
	for _, marker := range autoBookedMarkers {
		if strings.Contains(lowerNotes, marker) {
			return true
		}
	}
	return false
}

// classifyKind resolves the clinical category once, at ingestion.
// Investigation wins over the auto-booked signal: a purple investigation
// that happens to be auto-booked is still an investigation.
func classifyKind(typeLabel string, typeColor ColorTag, autoBooked bool) Kind {
	label := strings.ToLower(typeLabel)
	switch {
	case typeColor == ColorPurple || strings.Contains(label, "investigation"):
		return KindInvestigation
	case strings.Contains(label, "surgery") || strings.Contains(label, "surgical"):
		return KindSurgery
	case strings.Contains(label, "mdt"):
		return KindMDT
	case autoBooked:
		return KindFollowUp
	case typeColor == ColorTeal || strings.Contains(label, "urolog"):
		return KindUrologistConsult
	default:
		return KindUnclassified
	}
}

// ResolveColor returns the display color for an appointment. The cascade
// order is load-bearing: missed status overrides everything, and the
// investigation check runs before the automatic check so a purple
// investigation that is also auto-booked renders purple, not blue.
func ResolveColor(a Appointment) ColorTag {
	if a.Status.IsMissed() {
		return ColorRed
	}
	label := strings.ToLower(a.TypeLabel)
	if a.TypeColor == ColorPurple || strings.Contains(label, "investigation") {
		return ColorPurple
	}
	if a.IsAutomatic() || a.TypeColor == ColorBlue || strings.TrimSpace(label) == "automatic" {
		return ColorBlue
	}
	switch a.TypeColor {
	case ColorTeal, ColorOrange, ColorGreen:
		return a.TypeColor
	}
	if strings.Contains(label, "surgery") || strings.Contains(label, "surgical") {
		return ColorOrange
	}
	if strings.Contains(label, "mdt") {
		return ColorGreen
	}
	return ColorTeal
}
