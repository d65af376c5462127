package booking

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/orsched/or-scheduling-backend/internal/pkg/apperror"
	"github.com/orsched/or-scheduling-backend/internal/pkg/reslock"
	"github.com/orsched/or-scheduling-backend/internal/resource"
)

type CreateRequest struct {
	PatientID          string
	Procedure          string
	RoomID             string
	SurgeonID          string
	AnesthesiologistID *string
	ScheduledStart     time.Time
	DurationMinutes    int
}

type UpdateRequest struct {
	PatientID          *string
	Procedure          *string
	RoomID             *string
	SurgeonID          *string
	AnesthesiologistID *string
	// ClearAnesthesiologist removes the anesthesiologist from the booking.
	ClearAnesthesiologist bool
	ScheduledStart        *time.Time
	DurationMinutes       *int
}

type AvailabilityRequest struct {
	Date               time.Time
	RoomID             string
	SurgeonID          string
	AnesthesiologistID *string
	DurationMinutes    int
	// Now is the caller's clock; candidate starts before it are dropped.
	Now time.Time
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Booking, error)
	Cancel(ctx context.Context, id, reason string) (*Booking, error)
	Complete(ctx context.Context, id string, outcomeNotes *string) (*Booking, error)
	AvailableSlots(ctx context.Context, req AvailabilityRequest) ([]time.Time, error)
}

// service owns every write to the booking store. All other components only
// ever read bookings through it.
type service struct {
	repo        Repository
	resources   resource.Service
	locks       *reslock.KeyedMutex
	granularity time.Duration
	logger      *zap.Logger
}

func NewService(repo Repository, resources resource.Service, granularity time.Duration, logger *zap.Logger) Service {
	if granularity <= 0 {
		granularity = 15 * time.Minute
	}
	return &service{
		repo:        repo,
		resources:   resources,
		locks:       reslock.New(),
		granularity: granularity,
		logger:      logger,
	}
}

// resolve loads a resource and checks it has the expected kind. A missing
// resource is a caller bug: the NotFound is propagated verbatim, never retried.
func (s *service) resolve(ctx context.Context, id string, kind resource.Kind, field string) (*resource.Resource, error) {
	res, err := s.resources.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Kind != kind {
		return nil, apperror.Validation(field, fmt.Sprintf("resource %s is not a %s", id, kind))
	}
	return res, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	if strings.TrimSpace(req.PatientID) == "" {
		return nil, ErrEmptyPatient
	}
	if strings.TrimSpace(req.Procedure) == "" {
		return nil, ErrEmptyProcedure
	}
	if req.RoomID == "" {
		return nil, ErrEmptyRoom
	}
	if req.SurgeonID == "" {
		return nil, ErrEmptySurgeon
	}
	if req.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if req.ScheduledStart.Before(time.Now().UTC()) {
		return nil, ErrStartTimePast
	}

	if req.AnesthesiologistID != nil && *req.AnesthesiologistID == "" {
		req.AnesthesiologistID = nil
	}

	staff, err := s.resolveTeam(ctx, req.RoomID, req.SurgeonID, req.AnesthesiologistID)
	if err != nil {
		return nil, err
	}

	cand := Candidate{
		RoomID:             req.RoomID,
		SurgeonID:          req.SurgeonID,
		AnesthesiologistID: req.AnesthesiologistID,
		Start:              req.ScheduledStart,
		DurationMinutes:    req.DurationMinutes,
	}
	ids := cand.ResourceIDs()

	unlock := s.locks.Lock(ids...)
	defer unlock()

	if err := s.checkWindows(staff, cand.Start, cand.end()); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListActive(ctx, ids, cand.Start, cand.end())
	if err != nil {
		return nil, err
	}
	if conflict := CheckConflict(cand, existing); conflict != nil {
		s.logger.Info("booking rejected: conflict",
			zap.String("resource_id", conflict.ResourceID),
			zap.String("conflicting_booking_id", conflict.BookingID))
		return nil, conflict
	}

	b := &Booking{
		PatientID:          req.PatientID,
		Procedure:          req.Procedure,
		RoomID:             req.RoomID,
		SurgeonID:          req.SurgeonID,
		AnesthesiologistID: req.AnesthesiologistID,
		ScheduledStart:     req.ScheduledStart,
		DurationMinutes:    req.DurationMinutes,
		Status:             StatusScheduled,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("room_id", b.RoomID),
		zap.Time("scheduled_start", b.ScheduledStart))
	return b, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperror.Validation("status", "unknown status filter")
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Booking, error) {
	// Lock the union of the current and requested resource sets so a room or
	// staff swap cannot race against writers on either side.
	var extra []string
	if req.RoomID != nil {
		extra = append(extra, *req.RoomID)
	}
	if req.SurgeonID != nil {
		extra = append(extra, *req.SurgeonID)
	}
	if req.AnesthesiologistID != nil {
		extra = append(extra, *req.AnesthesiologistID)
	}

	b, unlock, err := s.lockBooking(ctx, id, extra...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if b.Status != StatusScheduled {
		return nil, ErrTerminalState
	}

	draft := *b
	if req.PatientID != nil {
		draft.PatientID = *req.PatientID
	}
	if req.Procedure != nil {
		draft.Procedure = *req.Procedure
	}
	if req.RoomID != nil {
		draft.RoomID = *req.RoomID
	}
	if req.SurgeonID != nil {
		draft.SurgeonID = *req.SurgeonID
	}
	if req.ClearAnesthesiologist {
		draft.AnesthesiologistID = nil
	} else if req.AnesthesiologistID != nil {
		draft.AnesthesiologistID = req.AnesthesiologistID
	}
	if req.ScheduledStart != nil {
		draft.ScheduledStart = *req.ScheduledStart
	}
	if req.DurationMinutes != nil {
		draft.DurationMinutes = *req.DurationMinutes
	}

	// Re-validate the draft as if it were a fresh create.
	if strings.TrimSpace(draft.PatientID) == "" {
		return nil, ErrEmptyPatient
	}
	if strings.TrimSpace(draft.Procedure) == "" {
		return nil, ErrEmptyProcedure
	}
	if draft.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if req.ScheduledStart != nil && req.ScheduledStart.Before(time.Now().UTC()) {
		return nil, ErrStartTimePast
	}

	staff, err := s.resolveTeam(ctx, draft.RoomID, draft.SurgeonID, draft.AnesthesiologistID)
	if err != nil {
		return nil, err
	}

	cand := Candidate{
		ExcludeID:          b.ID,
		RoomID:             draft.RoomID,
		SurgeonID:          draft.SurgeonID,
		AnesthesiologistID: draft.AnesthesiologistID,
		Start:              draft.ScheduledStart,
		DurationMinutes:    draft.DurationMinutes,
	}

	if err := s.checkWindows(staff, cand.Start, cand.end()); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListActive(ctx, cand.ResourceIDs(), cand.Start, cand.end())
	if err != nil {
		return nil, err
	}
	if conflict := CheckConflict(cand, existing); conflict != nil {
		return nil, conflict
	}

	if err := s.repo.Update(ctx, &draft); err != nil {
		return nil, err
	}

	s.logger.Info("booking updated", zap.String("booking_id", draft.ID))
	return &draft, nil
}

func (s *service) Cancel(ctx context.Context, id, reason string) (*Booking, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrEmptyReason
	}

	b, unlock, err := s.lockBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if !b.Status.CanTransitionTo(StatusCancelled) {
		return nil, ErrTerminalState
	}

	b.Status = StatusCancelled
	b.CancellationReason = &reason
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled", zap.String("booking_id", b.ID))
	return b, nil
}

func (s *service) Complete(ctx context.Context, id string, outcomeNotes *string) (*Booking, error) {
	b, unlock, err := s.lockBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if !b.Status.CanTransitionTo(StatusCompleted) {
		return nil, ErrTerminalState
	}

	b.Status = StatusCompleted
	b.OutcomeNotes = outcomeNotes
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("booking completed", zap.String("booking_id", b.ID))
	return b, nil
}

func (s *service) AvailableSlots(ctx context.Context, req AvailabilityRequest) ([]time.Time, error) {
	if req.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if req.RoomID == "" {
		return nil, ErrEmptyRoom
	}
	if req.SurgeonID == "" {
		return nil, ErrEmptySurgeon
	}
	if req.AnesthesiologistID != nil && *req.AnesthesiologistID == "" {
		req.AnesthesiologistID = nil
	}

	staff, err := s.resolveTeam(ctx, req.RoomID, req.SurgeonID, req.AnesthesiologistID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(staff))
	sets := make([][]resource.Window, 0, len(staff))
	for _, res := range staff {
		ids = append(ids, res.ID)
		sets = append(sets, res.WindowsOn(req.Date))
	}

	// A resource closed all day empties the intersection: no slots, not an error.
	free := intersectWindows(sets)
	if len(free) == 0 {
		return []time.Time{}, nil
	}

	day := time.Date(req.Date.Year(), req.Date.Month(), req.Date.Day(), 0, 0, 0, 0, req.Date.Location())
	existing, err := s.repo.ListActive(ctx, ids, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	busy := make([]interval, 0, len(existing))
	for _, b := range existing {
		busy = append(busy, interval{Start: b.ScheduledStart, End: b.End()})
	}
	free = subtractBusy(free, busy)

	duration := time.Duration(req.DurationMinutes) * time.Minute
	slots := candidateStarts(free, duration, s.granularity, req.Now)
	if slots == nil {
		slots = []time.Time{}
	}
	return slots, nil
}

// resolveTeam loads the room, surgeon and optional anesthesiologist, checking
// each reference points at a resource of the right kind.
func (s *service) resolveTeam(ctx context.Context, roomID, surgeonID string, anesthesiologistID *string) ([]*resource.Resource, error) {
	room, err := s.resolve(ctx, roomID, resource.KindRoom, "room_id")
	if err != nil {
		return nil, err
	}
	surgeon, err := s.resolve(ctx, surgeonID, resource.KindSurgeon, "surgeon_id")
	if err != nil {
		return nil, err
	}

	team := []*resource.Resource{room, surgeon}
	if anesthesiologistID != nil {
		anes, err := s.resolve(ctx, *anesthesiologistID, resource.KindAnesthesiologist, "anesthesiologist_id")
		if err != nil {
			return nil, err
		}
		team = append(team, anes)
	}
	return team, nil
}

// checkWindows verifies [start, end) lies inside an open window of every
// named resource on that date.
func (s *service) checkWindows(team []*resource.Resource, start, end time.Time) error {
	for _, res := range team {
		if !fitsWithin(res.WindowsOn(start), start, end) {
			return ErrOutsideHours
		}
	}
	return nil
}

// lockBooking acquires the critical section for a booking's resource set plus
// any extra ids, re-reading the booking inside the section. If a concurrent
// update swapped the booking's resources between the read and the lock, it
// retries against the fresh set.
func (s *service) lockBooking(ctx context.Context, id string, extra ...string) (*Booking, func(), error) {
	for attempt := 0; attempt < 5; attempt++ {
		b, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}

		ids := append(b.ResourceIDs(), extra...)
		unlock := s.locks.Lock(ids...)

		fresh, err := s.repo.GetByID(ctx, id)
		if err != nil {
			unlock()
			return nil, nil, err
		}
		if sameIDSet(fresh.ResourceIDs(), b.ResourceIDs()) {
			return fresh, unlock, nil
		}
		unlock()
	}
	return nil, nil, apperror.New(http.StatusServiceUnavailable, apperror.KindStoreUnavailable,
		"booking is being modified concurrently, retry the operation")
}

func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
