package http

import (
	"time"

	"github.com/orsched/or-scheduling-backend/internal/booking"
	"github.com/orsched/or-scheduling-backend/internal/pkg/request"
)

type CreateBookingRequest struct {
	PatientID          string    `json:"patient_id" binding:"required"`
	Procedure          string    `json:"procedure" binding:"required"`
	RoomID             string    `json:"room_id" binding:"required,uuid"`
	SurgeonID          string    `json:"surgeon_id" binding:"required,uuid"`
	AnesthesiologistID *string   `json:"anesthesiologist_id" binding:"omitempty,uuid"`
	ScheduledStart     time.Time `json:"scheduled_start" binding:"required"`
	DurationMinutes    int       `json:"duration_minutes"`
}

type UpdateBookingRequest struct {
	PatientID             *string    `json:"patient_id"`
	Procedure             *string    `json:"procedure"`
	RoomID                *string    `json:"room_id" binding:"omitempty,uuid"`
	SurgeonID             *string    `json:"surgeon_id" binding:"omitempty,uuid"`
	AnesthesiologistID    *string    `json:"anesthesiologist_id" binding:"omitempty,uuid"`
	ClearAnesthesiologist bool       `json:"clear_anesthesiologist"`
	ScheduledStart        *time.Time `json:"scheduled_start"`
	DurationMinutes       *int       `json:"duration_minutes"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

type CompleteBookingRequest struct {
	OutcomeNotes *string `json:"outcome_notes"`
}

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	Status    string     `form:"status" binding:"omitempty,oneof=scheduled completed cancelled any"`
	SurgeonID string     `form:"surgeon_id" binding:"omitempty,uuid"`
	From      *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To        *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

type AvailableSlotsRequest struct {
	Date               string  `form:"date" binding:"required"`
	RoomID             string  `form:"room_id" binding:"required,uuid"`
	SurgeonID          string  `form:"surgeon_id" binding:"required,uuid"`
	AnesthesiologistID *string `form:"anesthesiologist_id" binding:"omitempty,uuid"`
	DurationMinutes    int     `form:"duration_minutes"`
}

type BookingResponse struct {
	ID                 string    `json:"id"`
	PatientID          string    `json:"patient_id"`
	Procedure          string    `json:"procedure"`
	RoomID             string    `json:"room_id"`
	SurgeonID          string    `json:"surgeon_id"`
	AnesthesiologistID *string   `json:"anesthesiologist_id,omitempty"`
	ScheduledStart     time.Time `json:"scheduled_start"`
	DurationMinutes    int       `json:"duration_minutes"`
	Status             string    `json:"status"`
	CancellationReason *string   `json:"cancellation_reason,omitempty"`
	OutcomeNotes       *string   `json:"outcome_notes,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:                 b.ID,
		PatientID:          b.PatientID,
		Procedure:          b.Procedure,
		RoomID:             b.RoomID,
		SurgeonID:          b.SurgeonID,
		AnesthesiologistID: b.AnesthesiologistID,
		ScheduledStart:     b.ScheduledStart,
		DurationMinutes:    b.DurationMinutes,
		Status:             string(b.Status),
		CancellationReason: b.CancellationReason,
		OutcomeNotes:       b.OutcomeNotes,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

type AvailableSlotsResponse struct {
	Date  string      `json:"date"`
	Slots []time.Time `json:"slots"`
}

// ConflictResponse is returned when a booking collides with an existing one.
// It names the contested resource and booking so the caller can re-query
// availability and offer an alternative slot.
type ConflictResponse struct {
	Error                string `json:"error"`
	Kind                 string `json:"kind"`
	ResourceID           string `json:"resource_id"`
	ConflictingBookingID string `json:"conflicting_booking_id"`
}
