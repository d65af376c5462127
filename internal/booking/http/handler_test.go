package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orsched/or-scheduling-backend/internal/booking"
)

// stubService returns canned results so handler translation logic can be
// tested without a real scheduler behind it.
type stubService struct {
	booking    *booking.Booking
	slots      []time.Time
	err        error
	lastCancel string
}

func (s *stubService) Create(context.Context, booking.CreateRequest) (*booking.Booking, error) {
	return s.booking, s.err
}

func (s *stubService) GetByID(context.Context, string) (*booking.Booking, error) {
	return s.booking, s.err
}

func (s *stubService) List(context.Context, booking.Filter) ([]*booking.Booking, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	return []*booking.Booking{s.booking}, 1, nil
}

func (s *stubService) Update(context.Context, string, booking.UpdateRequest) (*booking.Booking, error) {
	return s.booking, s.err
}

func (s *stubService) Cancel(_ context.Context, _ string, reason string) (*booking.Booking, error) {
	s.lastCancel = reason
	return s.booking, s.err
}

func (s *stubService) Complete(context.Context, string, *string) (*booking.Booking, error) {
	return s.booking, s.err
}

func (s *stubService) AvailableSlots(context.Context, booking.AvailabilityRequest) ([]time.Time, error) {
	return s.slots, s.err
}

func newTestRouter(svc booking.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/v1"), NewHandler(svc))
	return router
}

func sampleBooking() *booking.Booking {
	return &booking.Booking{
		ID:              uuid.NewString(),
		PatientID:       "patient-7",
		Procedure:       "appendectomy",
		RoomID:          uuid.NewString(),
		SurgeonID:       uuid.NewString(),
		ScheduledStart:  time.Date(2031, 3, 10, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          booking.StatusScheduled,
	}
}

func createBody(b *booking.Booking) string {
	payload := map[string]any{
		"patient_id":       b.PatientID,
		"procedure":        b.Procedure,
		"room_id":          b.RoomID,
		"surgeon_id":       b.SurgeonID,
		"scheduled_start":  b.ScheduledStart.Format(time.RFC3339),
		"duration_minutes": b.DurationMinutes,
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestCreateHandler(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		b := sampleBooking()
		router := newTestRouter(&stubService{booking: b})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(createBody(b)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)

		var got BookingResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, b.ID, got.ID)
		assert.Equal(t, "scheduled", got.Status)
	})

	t.Run("missing required fields", func(t *testing.T) {
		router := newTestRouter(&stubService{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(`{"patient_id":"p"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("conflict carries resource and booking ids", func(t *testing.T) {
		b := sampleBooking()
		conflict := &booking.ConflictError{ResourceID: b.RoomID, BookingID: "other-booking"}
		router := newTestRouter(&stubService{err: conflict})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(createBody(b)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusConflict, w.Code)

		var got ConflictResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "conflict", got.Kind)
		assert.Equal(t, b.RoomID, got.ResourceID)
		assert.Equal(t, "other-booking", got.ConflictingBookingID)
	})

	t.Run("validation error names the field", func(t *testing.T) {
		b := sampleBooking()
		router := newTestRouter(&stubService{err: booking.ErrInvalidDuration})

		body := createBody(b)
		body = strings.Replace(body, `"duration_minutes":60`, `"duration_minutes":0`, 1)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)

		var got struct {
			Kind  string `json:"kind"`
			Field string `json:"field"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "validation", got.Kind)
		assert.Equal(t, "duration_minutes", got.Field)
	})
}

func TestGetHandler(t *testing.T) {
	t.Run("invalid uuid", func(t *testing.T) {
		router := newTestRouter(&stubService{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/bookings/not-a-uuid", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		router := newTestRouter(&stubService{err: booking.ErrNotFound})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/bookings/"+uuid.NewString(), nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusNotFound, w.Code)

		var got struct {
			Kind string `json:"kind"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "not_found", got.Kind)
	})
}

func TestCancelHandler(t *testing.T) {
	t.Run("reason forwarded to service", func(t *testing.T) {
		b := sampleBooking()
		b.Status = booking.StatusCancelled
		stub := &stubService{booking: b}
		router := newTestRouter(stub)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/bookings/"+b.ID+"/cancel",
			strings.NewReader(`{"reason":"patient rescheduled"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "patient rescheduled", stub.lastCancel)
	})

	t.Run("terminal state maps to 409", func(t *testing.T) {
		router := newTestRouter(&stubService{err: booking.ErrTerminalState})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/bookings/"+uuid.NewString()+"/cancel",
			strings.NewReader(`{"reason":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusConflict, w.Code)

		var got struct {
			Kind string `json:"kind"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "illegal_state", got.Kind)
	})
}

func TestCompleteHandlerAllowsEmptyBody(t *testing.T) {
	b := sampleBooking()
	b.Status = booking.StatusCompleted
	router := newTestRouter(&stubService{booking: b})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings/"+b.ID+"/complete", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAvailableSlotsHandler(t *testing.T) {
	roomID := uuid.NewString()
	surgeonID := uuid.NewString()

	t.Run("ok", func(t *testing.T) {
		slots := []time.Time{
			time.Date(2031, 3, 10, 8, 0, 0, 0, time.UTC),
			time.Date(2031, 3, 10, 10, 0, 0, 0, time.UTC),
		}
		router := newTestRouter(&stubService{slots: slots})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/v1/availability?date=2031-03-10&room_id="+roomID+"&surgeon_id="+surgeonID+"&duration_minutes=60", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var got AvailableSlotsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "2031-03-10", got.Date)
		assert.Len(t, got.Slots, 2)
	})

	t.Run("malformed date", func(t *testing.T) {
		router := newTestRouter(&stubService{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/v1/availability?date=10-03-2031&room_id="+roomID+"&surgeon_id="+surgeonID+"&duration_minutes=60", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing room", func(t *testing.T) {
		router := newTestRouter(&stubService{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/v1/availability?date=2031-03-10&surgeon_id="+surgeonID+"&duration_minutes=60", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
