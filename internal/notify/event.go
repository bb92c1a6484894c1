// Package notify доставляет события жизненного цикла занятий
// во внешние системы: лог, RabbitMQ, Telegram.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventType string

const (
	EventAppointmentCreated   EventType = "appointment.created"
	EventAppointmentUpdated   EventType = "appointment.updated"
	EventAppointmentCancelled EventType = "appointment.cancelled"
	EventAppointmentCompleted EventType = "appointment.completed"
	EventAppointmentDeleted   EventType = "appointment.deleted"
	EventTicketsAdded         EventType = "tickets.added"
)

// Event событие после успешного коммита операции
type Event struct {
	ID            uuid.UUID `json:"id"`
	Type          EventType `json:"type"`
	AppointmentID int64     `json:"appointment_id,omitempty"`
	StudentID     int64     `json:"student_id"`
	TeacherID     int64     `json:"teacher_id,omitempty"`
	Date          string    `json:"date,omitempty"`
	Time          string    `json:"time,omitempty"`
	TicketsUsed   int       `json:"tickets_used,omitempty"`
	Balance       int       `json:"balance"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewEvent заполняет ID и время события
func NewEvent(eventType EventType, studentID int64, balance int) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		StudentID:  studentID,
		Balance:    balance,
		OccurredAt: time.Now().UTC(),
	}
}

// Notifier получатель событий
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Multi рассылает событие всем получателям и собирает ошибки
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier пишет события в лог
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, event Event) error {
	n.logger.Info("Appointment event",
		zap.String("event_id", event.ID.String()),
		zap.String("type", string(event.Type)),
		zap.Int64("appointment_id", event.AppointmentID),
		zap.Int64("student_id", event.StudentID),
		zap.Int64("teacher_id", event.TeacherID),
		zap.Int("tickets_used", event.TicketsUsed),
		zap.Int("balance", event.Balance),
	)
	return nil
}
