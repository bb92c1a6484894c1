// Package httpapi HTTP API движка записи на занятия поверх echo.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/Freeeeeet/lesson_booking/internal/slotgrid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AppointmentService операции жизненного цикла занятий
type AppointmentService interface {
	Create(ctx context.Context, in service.CreateInput) (*model.Appointment, error)
	Book(ctx context.Context, in service.CreateInput) (*model.Appointment, error)
	Get(ctx context.Context, id int64) (*model.Appointment, error)
	Update(ctx context.Context, id int64, in service.UpdateInput) (*model.Appointment, error)
	Cancel(ctx context.Context, id int64, in service.CancelInput) (*model.Appointment, error)
	Complete(ctx context.Context, id int64) (*model.Appointment, error)
	Delete(ctx context.Context, id int64) error
	ListByTeacher(ctx context.Context, teacherID int64, date string) ([]*model.Appointment, error)
	ListByStudent(ctx context.Context, studentID int64, date string) ([]*model.Appointment, error)
}

// TicketService баланс билетов
type TicketService interface {
	BalanceOf(ctx context.Context, studentID int64) (int, error)
	Add(ctx context.Context, studentID int64, count int) (int, error)
}

// AvailabilityService расписание учителей
type AvailabilityService interface {
	Get(ctx context.Context, teacherID int64, date string) (*model.TeacherAvailability, error)
	Week(ctx context.Context, teacherID int64, weekStart string) ([]*model.TeacherAvailability, error)
	ApplyProposals(ctx context.Context, teacherID int64, date string, slots []model.SlotProposal, repeatWeeks int) ([]*model.TeacherAvailability, error)
	ApplyGesture(ctx context.Context, teacherID int64, weekStart string, events []slotgrid.PointerEvent, repeatWeeks int) (*service.GestureResult, error)
	RemoveSlot(ctx context.Context, teacherID int64, date, slotTime string) error
}

// ScheduleService картинка недели учителя
type ScheduleService interface {
	WeekImage(ctx context.Context, teacherID int64, weekStart string) ([]byte, error)
}

type Handler struct {
	appointments AppointmentService
	tickets      TicketService
	availability AvailabilityService
	schedule     ScheduleService
	logger       *zap.Logger
}

func NewHandler(
	appointments AppointmentService,
	tickets TicketService,
	availability AvailabilityService,
	schedule ScheduleService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		appointments: appointments,
		tickets:      tickets,
		availability: availability,
		schedule:     schedule,
		logger:       logger,
	}
}

// Health отвечает "ok" для балансировщиков и мониторинга
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_input", "message": message})
}

// writeError переводит ошибку сервиса в HTTP ответ.
// notScheduled статус для ErrNotScheduled: он разный у изменения и завершения
func (h *Handler) writeError(c echo.Context, err error, notScheduled int) error {
	var insufficient *service.InsufficientTicketsError
	if errors.As(err, &insufficient) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "insufficient_tickets",
			"message":   err.Error(),
			"needed":    insufficient.Needed,
			"available": insufficient.Available,
		})
	}

	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, service.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNotScheduled):
		status, code = notScheduled, "not_scheduled"
	case errors.Is(err, service.ErrAlreadyCancelled):
		status, code = http.StatusConflict, "already_cancelled"
	case errors.Is(err, service.ErrNotCancellable):
		status, code = http.StatusConflict, "not_cancellable"
	case errors.Is(err, service.ErrReasonRequired):
		status, code = http.StatusBadRequest, "reason_required"
	case errors.Is(err, service.ErrInvalidRepeatWeeks):
		status, code = http.StatusBadRequest, "invalid_repeat_weeks"
	case errors.Is(err, service.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, service.ErrSlotNotFound):
		status, code = http.StatusNotFound, "slot_not_found"
	case errors.Is(err, service.ErrSlotBooked):
		status, code = http.StatusConflict, "slot_booked"
	case errors.Is(err, service.ErrSlotUnavailable):
		status, code = http.StatusConflict, "slot_unavailable"
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.JSON(status, echo.Map{"error": code, "message": "internal error"})
	}

	return c.JSON(status, echo.Map{"error": code, "message": err.Error()})
}
