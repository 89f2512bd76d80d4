package reschedule

import "strings"

// ErrorClass drives UI presentation: validation errors are synchronous and
// inline, conflicts get the emphasized/modal treatment, transport errors are
// generic and retryable.
type ErrorClass string

const (
	ClassValidation ErrorClass = "validation"
	ClassConflict   ErrorClass = "conflict"
	ClassTransport  ErrorClass = "transport"
)

// Error is a user-facing reschedule failure. Server messages are surfaced
// verbatim; nothing is swallowed.
type Error struct {
	Class   ErrorClass
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// The fixed validation messages.
const (
	msgPastDate        = "cannot reschedule to a past date"
	msgDraftInProgress = "a reschedule is already in progress"
	msgNoDraft         = "no reschedule in progress"
	msgSubmitting      = "a reschedule request is being submitted"
	msgSlotUnavailable = "that time slot is not available for the selected doctor and date"
	msgMissingFields   = "select a date, doctor and time before confirming"
)

func validationError(msg string) *Error {
	return &Error{Class: ClassValidation, Message: msg}
}

func conflictError(msg string, cause error) *Error {
	return &Error{Class: ClassConflict, Message: msg, cause: cause}
}

func transportError(msg string, cause error) *Error {
	return &Error{Class: ClassTransport, Message: msg, cause: cause}
}

// conflictMarkers are the backend phrasings that signal a scheduling
// conflict rather than a generic failure.
var conflictMarkers = []string{"already booked", "overlapping"}

// IsConflictMessage reports whether a server error message signals a
// scheduling conflict (409-equivalent).
func IsConflictMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range conflictMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// classifyServerError wraps a success:false server message in the right
// error class, preserving the message verbatim.
func classifyServerError(msg string) *Error {
	if IsConflictMessage(msg) {
		return conflictError(msg, nil)
	}
	return transportError(msg, nil)
}
