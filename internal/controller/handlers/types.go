package handlers

import (
	"context"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"go.uber.org/zap"
)

// TicketService баланс билетов студента
type TicketService interface {
	BalanceOf(ctx context.Context, studentID int64) (int, error)
	Add(ctx context.Context, studentID int64, count int) (int, error)
}

// AppointmentService занятия, доступные из бота
type AppointmentService interface {
	ListByStudent(ctx context.Context, studentID int64, date string) ([]*model.Appointment, error)
	Cancel(ctx context.Context, id int64, in service.CancelInput) (*model.Appointment, error)
}

// ScheduleService картинка недели учителя
type ScheduleService interface {
	WeekImage(ctx context.Context, teacherID int64, weekStart string) ([]byte, error)
}

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	tickets      TicketService
	appointments AppointmentService
	schedule     ScheduleService
	adminChatID  int64
	logger       *zap.Logger
}

// NewHandlers создаёт новый обработчик команд.
// adminChatID = 0 запрещает команды из любого чата
func NewHandlers(
	tickets TicketService,
	appointments AppointmentService,
	schedule ScheduleService,
	adminChatID int64,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		tickets:      tickets,
		appointments: appointments,
		schedule:     schedule,
		adminChatID:  adminChatID,
		logger:       logger,
	}
}
