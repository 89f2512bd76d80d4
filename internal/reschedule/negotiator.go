// Package reschedule owns the lifecycle of a single in-progress reschedule
// action: a small state machine that turns a drag-drop or manual reschedule
// into a confirmed booking request. It validates locally what it can (past
// dates, missing fields), reflects server-reported availability, and leaves
// the double-booking guarantee where it belongs — with the backend.
package reschedule

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/harborclinic/scheduling-core/internal/appointment"
	"github.com/harborclinic/scheduling-core/internal/observability/metrics"
	"github.com/harborclinic/scheduling-core/pkg/logging"
)

var rescheduleTracer = otel.Tracer("scheduling.internal.reschedule")

// State is the negotiator's position in the reschedule lifecycle.
type State string

const (
	StateIdle                State = "idle"
	StateDraftOpen           State = "draft_open"
	StateLoadingAvailability State = "loading_availability"
	StateReady               State = "ready"
	StateSubmitting          State = "submitting"
	StateConfirmed           State = "confirmed"
	StateFailed              State = "failed"
)

// DoctorDirectory lists the doctors a reschedule can target.
type DoctorDirectory interface {
	FetchDoctors(ctx context.Context) ([]appointment.Doctor, error)
}

// AvailabilityProvider reports the bookable slots for a (doctor, date,
// appointment type) triple. The negotiator never invents availability.
type AvailabilityProvider interface {
	AvailableSlots(ctx context.Context, doctorID string, date time.Time, appointmentType string) ([]appointment.Slot, error)
}

// Booker submits the confirmed reschedule to the backend, which owns the
// final conflict check.
type Booker interface {
	SubmitReschedule(ctx context.Context, req Request) (Result, error)
}

// Negotiator drives one reschedule interaction at a time. All methods are
// safe for interleaved use from request handlers and the availability
// callback; stale availability responses are discarded by sequence number
// so a slow earlier fetch can never overwrite a newer selection.
type Negotiator struct {
	mu        sync.Mutex
	state     State
	draft     *Draft
	lastErr   *Error
	confirmed *appointment.Appointment
	availSeq  uint64
	observers []func(State)

	directory    DoctorDirectory
	availability AvailabilityProvider
	booker       Booker

	metrics *metrics.SchedulingMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// New constructs a negotiator in the Idle state.
func New(directory DoctorDirectory, availability AvailabilityProvider, booker Booker, m *metrics.SchedulingMetrics, logger *logging.Logger) *Negotiator {
	if directory == nil {
		panic("reschedule: doctor directory required")
	}
	if availability == nil {
		panic("reschedule: availability provider required")
	}
	if booker == nil {
		panic("reschedule: booker required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Negotiator{
		state:        StateIdle,
		directory:    directory,
		availability: availability,
		booker:       booker,
		metrics:      m,
		logger:       logger,
		now:          time.Now,
	}
}

// State returns the current lifecycle state.
func (n *Negotiator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Draft returns a snapshot of the active draft, or nil when none is open.
func (n *Negotiator) Draft() *Draft {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.draft == nil {
		return nil
	}
	snapshot := *n.draft
	return &snapshot
}

// Err returns the most recent user-facing failure, or nil.
func (n *Negotiator) Err() *Error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastErr
}

// Confirmed returns the rescheduled appointment snapshot after a successful
// submit, or nil.
func (n *Negotiator) Confirmed() *appointment.Appointment {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.confirmed
}

// OnChange registers an observer invoked after every state transition.
// Refresh triggers are explicit registrations, not a global event bus.
func (n *Negotiator) OnChange(fn func(State)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, fn)
}

// Open starts a reschedule for the given appointment, seeding the draft
// with the appointment's current doctor when one can be resolved and with
// the drag-drop target date/time when provided. A past target date leaves
// the draft open with the date unset and reports the validation error.
func (n *Negotiator) Open(ctx context.Context, appt appointment.Appointment, initialDate time.Time, initialTime string) error {
	ctx, span := rescheduleTracer.Start(ctx, "reschedule.open")
	defer span.End()
	span.SetAttributes(attribute.String("scheduling.appointment_id", appt.ID))

	n.mu.Lock()
	if n.state == StateSubmitting {
		n.mu.Unlock()
		return validationError(msgSubmitting)
	}
	if n.draft != nil && n.state != StateConfirmed {
		n.mu.Unlock()
		return validationError(msgDraftInProgress)
	}

	draft := &Draft{ID: uuid.New(), Appointment: appt}
	if initialTime != "" {
		draft.SelectedTime = appointment.ParseTime(initialTime)
	}
	n.draft = draft
	n.confirmed = nil
	n.lastErr = nil
	n.availSeq++
	n.setStateLocked(StateDraftOpen)
	draftID := draft.ID
	n.mu.Unlock()

	// Load-doctors is best-effort: failure leaves the doctor unset, it
	// never blocks the draft.
	doctors, err := n.directory.FetchDoctors(ctx)
	if err != nil {
		n.logger.Warn("reschedule: could not load doctors", "error", err, "appointment_id", appt.ID)
	}

	n.mu.Lock()
	if n.draft == nil || n.draft.ID != draftID {
		n.mu.Unlock()
		return nil
	}
	if doc, ok := ResolveDefaultDoctor(appt, doctors); ok {
		n.draft.SelectedDoctor = &doc
	}
	n.mu.Unlock()

	if !initialDate.IsZero() {
		return n.SelectDate(ctx, initialDate)
	}
	return nil
}

// SelectDoctor sets the draft's doctor and, when a date is also set,
// supersedes any in-flight availability fetch with one for the new pair.
func (n *Negotiator) SelectDoctor(ctx context.Context, doctor appointment.Doctor) error {
	n.mu.Lock()
	if err := n.editableLocked(); err != nil {
		n.mu.Unlock()
		return err
	}
	n.draft.SelectedDoctor = &doctor
	n.invalidateSlotsLocked()
	if !n.draft.SelectedDate.IsZero() {
		n.startAvailabilityLoadLocked(ctx)
	} else {
		n.setStateLocked(StateDraftOpen)
	}
	n.mu.Unlock()
	return nil
}

// SelectDate sets the target date. Past dates (local calendar day,
// time-of-day ignored) are rejected synchronously, before any network call.
func (n *Negotiator) SelectDate(ctx context.Context, date time.Time) error {
	n.mu.Lock()
	if err := n.editableLocked(); err != nil {
		n.mu.Unlock()
		return err
	}
	if dateOnly(date).Before(dateOnly(n.now())) {
		n.lastErr = validationError(msgPastDate)
		err := n.lastErr
		n.mu.Unlock()
		return err
	}
	n.draft.SelectedDate = dateOnly(date)
	n.lastErr = nil
	n.invalidateSlotsLocked()
	if n.draft.SelectedDoctor != nil {
		n.startAvailabilityLoadLocked(ctx)
	} else {
		n.setStateLocked(StateDraftOpen)
	}
	n.mu.Unlock()
	return nil
}

// SelectTime chooses a slot. When availability for the current (doctor,
// date) pair is cached, unavailable slots are rejected as conflicts; while
// availability has not loaded, the selection is optimistically accepted and
// left to the server to validate, so a slow or failed fetch never blocks
// the user.
func (n *Negotiator) SelectTime(timeOfDay string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.editableLocked(); err != nil {
		return err
	}
	normalized := appointment.ParseTime(timeOfDay)
	if normalized == "" {
		return validationError("invalid time: " + timeOfDay)
	}
	if n.draft.SlotsLoaded {
		available, known := n.draft.slotState(normalized)
		if !known || !available {
			n.lastErr = conflictError(msgSlotUnavailable, nil)
			return n.lastErr
		}
	}
	n.draft.SelectedTime = normalized
	n.lastErr = nil
	return nil
}

// Submit sends the confirm request. It requires date, doctor and time to be
// set, classifies "already booked"/"overlapping" failures as conflicts, and
// keeps the draft on failure so the user can correct and resubmit.
func (n *Negotiator) Submit(ctx context.Context) error {
	ctx, span := rescheduleTracer.Start(ctx, "reschedule.submit")
	defer span.End()

	n.mu.Lock()
	if n.state == StateSubmitting {
		n.mu.Unlock()
		return validationError(msgSubmitting)
	}
	if n.draft == nil {
		n.mu.Unlock()
		return validationError(msgNoDraft)
	}
	if !n.draft.complete() {
		n.mu.Unlock()
		n.metrics.ObserveSubmit("rejected")
		return validationError(msgMissingFields)
	}
	req := n.draft.confirmRequest()
	draftID := n.draft.ID
	n.setStateLocked(StateSubmitting)
	n.mu.Unlock()

	span.SetAttributes(
		attribute.String("scheduling.appointment_id", req.AppointmentID),
		attribute.String("scheduling.new_date", req.NewDate),
	)

	res, err := n.booker.SubmitReschedule(ctx, req)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.draft == nil || n.draft.ID != draftID {
		// Draft was torn down while submitting; nothing to apply.
		return nil
	}
	if err != nil {
		span.RecordError(err)
		n.lastErr = transportError(err.Error(), err)
		n.setStateLocked(StateFailed)
		n.metrics.ObserveSubmit("failed")
		n.logger.Error("reschedule: submit failed", "appointment_id", req.AppointmentID, "error", err)
		return n.lastErr
	}
	if !res.Success {
		n.lastErr = classifyServerError(res.Error)
		n.setStateLocked(StateFailed)
		outcome := "failed"
		if n.lastErr.Class == ClassConflict {
			outcome = "conflict"
		}
		n.metrics.ObserveSubmit(outcome)
		n.logger.Warn("reschedule: backend rejected submit",
			"appointment_id", req.AppointmentID,
			"class", n.lastErr.Class,
			"error", res.Error,
		)
		return n.lastErr
	}

	n.confirmed = confirmedSnapshot(n.draft, res)
	n.draft = nil
	n.lastErr = nil
	n.setStateLocked(StateConfirmed)
	n.metrics.ObserveSubmit("confirmed")
	n.logger.Info("reschedule: confirmed",
		"appointment_id", req.AppointmentID,
		"new_date", req.NewDate,
		"new_time", req.NewTime,
		"doctor_id", req.NewDoctorID,
	)
	return nil
}

// Cancel discards the draft and returns to Idle. Any in-flight availability
// response becomes ignorable. Invalid only while a submit is outstanding.
func (n *Negotiator) Cancel() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state == StateSubmitting {
		return validationError(msgSubmitting)
	}
	n.availSeq++
	n.draft = nil
	n.lastErr = nil
	n.setStateLocked(StateIdle)
	return nil
}

// editableLocked checks that a draft exists and the state admits
// date/doctor/time changes.
func (n *Negotiator) editableLocked() *Error {
	if n.draft == nil {
		return validationError(msgNoDraft)
	}
	switch n.state {
	case StateDraftOpen, StateLoadingAvailability, StateReady, StateFailed:
		return nil
	case StateSubmitting:
		return validationError(msgSubmitting)
	default:
		return validationError(msgNoDraft)
	}
}

func (n *Negotiator) invalidateSlotsLocked() {
	n.draft.Slots = nil
	n.draft.SlotsLoaded = false
}

// startAvailabilityLoadLocked kicks off an availability fetch for the
// draft's current (doctor, date) pair. Bumping the sequence number first
// supersedes any fetch already in flight: only the response matching the
// latest selection is ever applied.
func (n *Negotiator) startAvailabilityLoadLocked(ctx context.Context) {
	n.availSeq++
	seq := n.availSeq
	draftID := n.draft.ID
	doctorID := n.draft.SelectedDoctor.ID
	date := n.draft.SelectedDate
	apptType := n.draft.Appointment.PreservedType()
	n.setStateLocked(StateLoadingAvailability)

	go n.fetchAvailability(ctx, seq, draftID, doctorID, date, apptType)
}

func (n *Negotiator) fetchAvailability(ctx context.Context, seq uint64, draftID uuid.UUID, doctorID string, date time.Time, apptType string) {
	slots, err := n.availability.AvailableSlots(ctx, doctorID, date, apptType)

	n.mu.Lock()
	defer n.mu.Unlock()
	if seq != n.availSeq || n.draft == nil || n.draft.ID != draftID {
		n.metrics.ObserveStaleDrop()
		n.logger.Debug("reschedule: dropped stale availability response",
			"doctor_id", doctorID, "date", date.Format("2006-01-02"))
		return
	}
	if err != nil {
		// Assume-available-while-unloaded: the user may still pick a time;
		// the server re-validates on submit.
		n.draft.SlotsLoaded = false
		n.lastErr = transportError("could not load availability: "+err.Error(), err)
		n.setStateLocked(StateDraftOpen)
		n.logger.Warn("reschedule: availability load failed",
			"doctor_id", doctorID, "date", date.Format("2006-01-02"), "error", err)
		return
	}
	n.draft.Slots = slots
	n.draft.SlotsLoaded = true
	n.lastErr = nil
	n.setStateLocked(StateReady)
}

// setStateLocked transitions and notifies observers. Observers are invoked
// on their own goroutine so a callback that calls back into the negotiator
// cannot deadlock on the held lock.
func (n *Negotiator) setStateLocked(s State) {
	n.state = s
	for _, fn := range n.observers {
		go fn(s)
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// confirmedSnapshot builds the post-reschedule appointment view: the
// backend's snapshot when it returns one, otherwise the original record
// with the new date, time and doctor applied.
func confirmedSnapshot(d *Draft, res Result) *appointment.Appointment {
	if res.Appointment != nil {
		return res.Appointment
	}
	updated := d.Appointment
	updated.Date = d.SelectedDate
	updated.TimeOfDay = d.SelectedTime
	updated.DoctorID = d.SelectedDoctor.ID
	updated.DoctorName = d.SelectedDoctor.DisplayName()
	return &updated
}
