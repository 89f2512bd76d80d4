package reschedule

import (
	"strings"

	"github.com/harborclinic/scheduling-core/internal/appointment"
)

// ResolveDefaultDoctor picks the doctor a fresh draft should start with,
// from the original appointment's linkage fields. Exact id match wins; the
// free-text doctor name is the fallback. No match leaves the doctor unset —
// an arbitrary pick is never made.
func ResolveDefaultDoctor(a appointment.Appointment, doctors []appointment.Doctor) (appointment.Doctor, bool) {
	if a.DoctorID != "" {
		for _, d := range doctors {
			if d.ID == a.DoctorID {
				return d, true
			}
		}
	}

	target := normalizeDoctorName(a.DoctorName)
	if target == "" {
		return appointment.Doctor{}, false
	}

	// Full-name pass: equality or containment in either direction against
	// "first last" and the explicit display name.
	for _, d := range doctors {
		for _, cand := range candidateNames(d) {
			if cand == "" {
				continue
			}
			if cand == target || strings.Contains(cand, target) || strings.Contains(target, cand) {
				return d, true
			}
		}
	}

	// Last resort: first-name-only or last-name-only containment.
	for _, d := range doctors {
		first := strings.ToLower(strings.TrimSpace(d.FirstName))
		last := strings.ToLower(strings.TrimSpace(d.LastName))
		if first != "" && strings.Contains(target, first) {
			return d, true
		}
		if last != "" && strings.Contains(target, last) {
			return d, true
		}
	}

	return appointment.Doctor{}, false
}

// normalizeDoctorName strips the honorific prefix and lowercases, so
// "Dr. Asha Patel" matches "asha patel".
func normalizeDoctorName(name string) string {
	name = strings.TrimSpace(name)
	lower := strings.ToLower(name)
	for _, prefix := range []string{"dr. ", "dr.", "dr "} {
		if strings.HasPrefix(lower, prefix) {
			lower = strings.TrimSpace(lower[len(prefix):])
			break
		}
	}
	return lower
}

func candidateNames(d appointment.Doctor) []string {
	full := strings.ToLower(strings.TrimSpace(strings.TrimSpace(d.FirstName) + " " + strings.TrimSpace(d.LastName)))
	explicit := normalizeDoctorName(d.Name)
	return []string{full, explicit}
}
