package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/memory"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/Freeeeeet/lesson_booking/internal/slotgrid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAPI(t *testing.T) *echo.Echo {
	t.Helper()

	store := memory.NewStore()
	logger := zap.NewNop()
	appointments := service.NewAppointmentService(store, nil, logger)
	availability := service.NewAvailabilityService(store, slotgrid.DefaultGrid(), logger)
	h := NewHandler(
		appointments,
		service.NewTicketService(store, nil, logger),
		availability,
		service.NewScheduleService(availability, appointments, logger),
		logger,
	)
	return NewRouter(h, nil, logger)
}

func call(t *testing.T, e *echo.Echo, method, path, body string, out any) int {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestBookingFlow(t *testing.T) {
	e := newAPI(t)

	require.Equal(t, http.StatusOK, call(t, e, http.MethodPost, "/students/20/tickets", `{"count":3}`, nil))
	require.Equal(t, http.StatusOK, call(t, e, http.MethodPut, "/teachers/10/availability/2025-03-10",
		`{"slots":[{"time":"09:00"}]}`, nil))

	var lesson model.Appointment
	status := call(t, e, http.MethodPost, "/appointments/book",
		`{"teacherId":10,"studentId":20,"date":"2025-03-10","time":"09:00","durationMinutes":90}`, &lesson)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 2, lesson.TicketsUsed)
	assert.Equal(t, model.AppointmentStatusScheduled, lesson.Status)

	var balance model.TicketBalance
	call(t, e, http.MethodGet, "/students/20/tickets", "", &balance)
	assert.Equal(t, 1, balance.Count)

	var day model.TeacherAvailability
	call(t, e, http.MethodGet, "/teachers/10/availability/2025-03-10", "", &day)
	require.Len(t, day.TimeSlots, 1)
	require.NotNil(t, day.TimeSlots[0].BookedBy)
	assert.EqualValues(t, 20, *day.TimeSlots[0].BookedBy)

	// тот же слот второй раз не бронируется
	call(t, e, http.MethodPost, "/students/21/tickets", `{"count":1}`, nil)
	var conflict map[string]any
	status = call(t, e, http.MethodPost, "/appointments/book",
		`{"teacherId":10,"studentId":21,"date":"2025-03-10","time":"09:00","durationMinutes":45}`, &conflict)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "slot_unavailable", conflict["error"])

	var cancelled model.Appointment
	path := "/appointments/" + strconv.FormatInt(lesson.ID, 10) + "/cancel"
	status = call(t, e, http.MethodPost, path, `{"cancelledBy":"student","reason":"ill"}`, &cancelled)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)

	call(t, e, http.MethodGet, "/students/20/tickets", "", &balance)
	assert.Equal(t, 3, balance.Count)

	status = call(t, e, http.MethodPost, path, `{"cancelledBy":"student","reason":"ill"}`, &conflict)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "already_cancelled", conflict["error"])
}

func TestCreateWithoutTickets(t *testing.T) {
	e := newAPI(t)

	var body map[string]any
	status := call(t, e, http.MethodPost, "/appointments",
		`{"teacherId":10,"studentId":20,"date":"2025-03-10","time":"09:00","durationMinutes":45}`, &body)

	assert.Equal(t, http.StatusConflict, status)
	assert.EqualValues(t, 1, body["needed"])
	assert.EqualValues(t, 0, body["available"])
}

func TestCreateValidation(t *testing.T) {
	e := newAPI(t)

	var body map[string]any
	status := call(t, e, http.MethodPost, "/appointments",
		`{"teacherId":10,"studentId":20,"date":"2025-03-10","time":"09:00","durationMinutes":0}`, &body)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_input", body["error"])
}

func TestRepeatWeeksOutOfRange(t *testing.T) {
	e := newAPI(t)

	var body map[string]any
	status := call(t, e, http.MethodPut, "/teachers/10/availability/2025-03-10",
		`{"slots":[{"time":"09:00"}],"repeatWeeks":13}`, &body)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_repeat_weeks", body["error"])
}

func TestGestureThenDeleteSlot(t *testing.T) {
	e := newAPI(t)

	// клик по первой ячейке понедельника: 06:00
	var result service.GestureResult
	status := call(t, e, http.MethodPost, "/teachers/10/availability/gesture",
		`{"weekStart":"2025-03-10","events":[{"type":"down","day":0,"yPct":0},{"type":"up"}]}`, &result)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, result.Slots, 1)
	assert.Equal(t, model.DatedSlot{Date: "2025-03-10", Time: "06:00"}, result.Slots[0])

	req := httptest.NewRequest(http.MethodDelete, "/teachers/10/availability/2025-03-10/slots/06:00", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	var day model.TeacherAvailability
	call(t, e, http.MethodGet, "/teachers/10/availability/2025-03-10", "", &day)
	assert.Empty(t, day.TimeSlots)
}

func TestWeekImage(t *testing.T) {
	e := newAPI(t)

	call(t, e, http.MethodPost, "/students/20/tickets", `{"count":2}`, nil)
	call(t, e, http.MethodPut, "/teachers/10/availability/2025-03-11", `{"slots":[{"time":"10:00"},{"time":"10:15"}]}`, nil)
	call(t, e, http.MethodPost, "/appointments",
		`{"teacherId":10,"studentId":20,"date":"2025-03-12","time":"12:00","durationMinutes":45}`, nil)

	req := httptest.NewRequest(http.MethodGet, "/teachers/10/availability/week.png?weekStart=2025-03-10", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	req = httptest.NewRequest(http.MethodGet, "/teachers/10/availability/week.png?weekStart=10.03.2025", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
