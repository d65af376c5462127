package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/orsched/or-scheduling-backend/internal/booking"
	"github.com/orsched/or-scheduling-backend/internal/pkg/apperror"
	"github.com/orsched/or-scheduling-backend/internal/pkg/response"
)

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

// writeError maps service errors onto HTTP responses. Conflicts get a richer
// payload than the generic error shape.
func writeError(c *gin.Context, err error) {
	var conflict *booking.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, ConflictResponse{
			Error:                conflict.Error(),
			Kind:                 string(apperror.KindConflict),
			ResourceID:           conflict.ResourceID,
			ConflictingBookingID: conflict.BookingID,
		})
		return
	}
	response.Error(c, err)
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	req := booking.CreateRequest{
		PatientID:          body.PatientID,
		Procedure:          body.Procedure,
		RoomID:             body.RoomID,
		SurgeonID:          body.SurgeonID,
		AnesthesiologistID: body.AnesthesiologistID,
		ScheduledStart:     body.ScheduledStart,
		DurationMinutes:    body.DurationMinutes,
	}

	b, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) List(c *gin.Context) {
	var query ListBookingsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}
	if query.From != nil && query.To != nil && query.From.After(*query.To) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must not be after to"})
		return
	}

	status := booking.Status(query.Status)
	if query.Status == "any" {
		status = ""
	}

	filter := booking.Filter{
		Status:    status,
		SurgeonID: query.SurgeonID,
		From:      query.From,
		To:        query.To,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}

	bookings, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, filter.Page, filter.PageSize, total))
}

func (h *Handler) Update(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body UpdateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	req := booking.UpdateRequest{
		PatientID:             body.PatientID,
		Procedure:             body.Procedure,
		RoomID:                body.RoomID,
		SurgeonID:             body.SurgeonID,
		AnesthesiologistID:    body.AnesthesiologistID,
		ClearAnesthesiologist: body.ClearAnesthesiologist,
		ScheduledStart:        body.ScheduledStart,
		DurationMinutes:       body.DurationMinutes,
	}

	b, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body CancelBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), id, body.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Complete(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body CompleteBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	b, err := h.service.Complete(c.Request.Context(), id, body.OutcomeNotes)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) AvailableSlots(c *gin.Context) {
	var query AvailableSlotsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	date, err := time.ParseInLocation("2006-01-02", query.Date, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted as YYYY-MM-DD"})
		return
	}

	req := booking.AvailabilityRequest{
		Date:               date,
		RoomID:             query.RoomID,
		SurgeonID:          query.SurgeonID,
		AnesthesiologistID: query.AnesthesiologistID,
		DurationMinutes:    query.DurationMinutes,
		Now:                time.Now().UTC(),
	}

	slots, err := h.service.AvailableSlots(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, AvailableSlotsResponse{Date: query.Date, Slots: slots})
}
