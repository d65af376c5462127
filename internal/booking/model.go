package booking

import (
	"fmt"
	"net/http"
	"time"

	"github.com/orsched/or-scheduling-backend/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.New(http.StatusNotFound, apperror.KindNotFound, "booking not found")
	ErrTerminalState   = apperror.New(http.StatusConflict, apperror.KindIllegalState, "booking is in a terminal state")
	ErrStartTimePast   = apperror.Validation("scheduled_start", "cannot schedule a booking in the past")
	ErrInvalidDuration = apperror.Validation("duration_minutes", "duration must be a positive number of minutes")
	ErrEmptyPatient    = apperror.Validation("patient_id", "patient_id is required")
	ErrEmptyProcedure  = apperror.Validation("procedure", "procedure is required")
	ErrEmptyRoom       = apperror.Validation("room_id", "room_id is required")
	ErrEmptySurgeon    = apperror.Validation("surgeon_id", "surgeon_id is required")
	ErrEmptyReason     = apperror.Validation("cancellation_reason", "cancellation reason is required")
	ErrOutsideHours    = apperror.Validation("scheduled_start", "booking does not fit inside the operating hours of every named resource")
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions is the full state machine. Absence means the transition is
// illegal; completed and cancelled are terminal.
var transitions = map[Status]map[Status]bool{
	StatusScheduled: {
		StatusCompleted: true,
		StatusCancelled: true,
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether the state machine permits s -> next.
func (s Status) CanTransitionTo(next Status) bool {
	return transitions[s][next]
}

// Booking is a single scheduled use of an operating room and associated staff
// for one procedure. Bookings are never hard-deleted; cancellation is the
// caller-visible form of removal.
type Booking struct {
	ID                 string
	PatientID          string
	Procedure          string
	RoomID             string
	SurgeonID          string
	AnesthesiologistID *string
	ScheduledStart     time.Time
	DurationMinutes    int
	Status             Status
	CancellationReason *string
	OutcomeNotes       *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// End returns the exclusive end of the booking interval.
func (b *Booking) End() time.Time {
	return b.ScheduledStart.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// ResourceIDs returns every resource the booking reserves.
func (b *Booking) ResourceIDs() []string {
	ids := []string{b.RoomID, b.SurgeonID}
	if b.AnesthesiologistID != nil && *b.AnesthesiologistID != "" {
		ids = append(ids, *b.AnesthesiologistID)
	}
	return ids
}

// References reports whether the booking reserves the given resource.
func (b *Booking) References(resourceID string) bool {
	if b.RoomID == resourceID || b.SurgeonID == resourceID {
		return true
	}
	return b.AnesthesiologistID != nil && *b.AnesthesiologistID == resourceID
}

// ConflictError reports a double-booked resource. It carries the colliding
// resource and booking so the caller can offer an alternative slot.
type ConflictError struct {
	ResourceID string
	BookingID  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("resource %s is already reserved by booking %s", e.ResourceID, e.BookingID)
}

// Filter defines parameters for listing bookings. Results are ordered by
// scheduled_start ascending with id as the tie-break.
type Filter struct {
	Status    Status // empty means any
	SurgeonID string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}
