package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/notify"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"go.uber.org/zap"
)

// CreateInput параметры нового занятия
type CreateInput struct {
	TeacherID       int64  `json:"teacherId"`
	StudentID       int64  `json:"studentId"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"durationMinutes"`
}

// UpdateInput изменяемые поля занятия, nil = не менять
type UpdateInput struct {
	Date            *string `json:"date,omitempty"`
	Time            *string `json:"time,omitempty"`
	DurationMinutes *int    `json:"durationMinutes,omitempty"`
}

// CancelInput кто и почему отменяет занятие
type CancelInput struct {
	CancelledBy model.CancelledBy `json:"cancelledBy"`
	Reason      *string           `json:"reason,omitempty"`
}

// AppointmentService жизненный цикл занятий и согласованное списание билетов
type AppointmentService struct {
	store    repository.Store
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewAppointmentService(store repository.Store, notifier notify.Notifier, logger *zap.Logger) *AppointmentService {
	return &AppointmentService{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Create создаёт занятие и списывает билеты. Расписание учителя не проверяется
func (s *AppointmentService) Create(ctx context.Context, in CreateInput) (*model.Appointment, error) {
	return s.create(ctx, in, false)
}

// Book создаёт занятие в свободном слоте расписания и отмечает слот занятым.
// Слот и билеты меняются в одной транзакции
func (s *AppointmentService) Book(ctx context.Context, in CreateInput) (*model.Appointment, error) {
	return s.create(ctx, in, true)
}

func (s *AppointmentService) create(ctx context.Context, in CreateInput, withSlot bool) (*model.Appointment, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	needed := model.TicketsNeeded(in.DurationMinutes)

	var (
		appointment *model.Appointment
		balance     int
	)
	err := s.store.RunInTx(ctx, func(tx repository.Tx) error {
		ledger := NewTicketLedger(tx.Tickets(), s.logger)

		// Баланс блокируется до конца транзакции: проверка и списание атомарны
		current, err := tx.Tickets().Lock(ctx, in.StudentID)
		if err != nil {
			return fmt.Errorf("lock balance: %w", err)
		}
		if current < needed {
			return &InsufficientTicketsError{Needed: needed, Available: current}
		}

		if withSlot {
			if err := bookSlot(ctx, tx.Availability(), in.TeacherID, in.Date, in.Time, in.StudentID); err != nil {
				return err
			}
		}

		result, err := ledger.Consume(ctx, in.StudentID, needed)
		if err != nil {
			return err
		}
		if !result.OK {
			return &InsufficientTicketsError{Needed: needed, Available: result.Remaining}
		}
		balance = result.Remaining

		appointment = &model.Appointment{
			TeacherID:       in.TeacherID,
			StudentID:       in.StudentID,
			Date:            in.Date,
			Time:            in.Time,
			DurationMinutes: in.DurationMinutes,
			TicketsUsed:     needed,
			Status:          model.AppointmentStatusScheduled,
			SlotBound:       withSlot,
			SlotHeld:        withSlot,
			CreatedAt:       s.now(),
		}
		if err := tx.Appointments().Create(ctx, appointment); err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Appointment created",
		zap.Int64("appointment_id", appointment.ID),
		zap.Int64("teacher_id", appointment.TeacherID),
		zap.Int64("student_id", appointment.StudentID),
		zap.String("date", appointment.Date),
		zap.String("time", appointment.Time),
		zap.Int("tickets_used", appointment.TicketsUsed),
		zap.Bool("with_slot", withSlot),
	)
	s.emit(ctx, notify.EventAppointmentCreated, appointment, balance, "")

	return appointment, nil
}

// Get получает занятие по ID
func (s *AppointmentService) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	appointment, err := s.store.Appointments().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appointment == nil {
		return nil, ErrNotFound
	}
	return appointment, nil
}

// ListByTeacher получает занятия учителя, date == "" означает все даты
func (s *AppointmentService) ListByTeacher(ctx context.Context, teacherID int64, date string) ([]*model.Appointment, error) {
	if err := validateListFilter(date); err != nil {
		return nil, err
	}
	appointments, err := s.store.Appointments().ListByTeacher(ctx, teacherID, date)
	if err != nil {
		return nil, fmt.Errorf("list teacher appointments: %w", err)
	}
	return appointments, nil
}

// ListByStudent получает занятия студента, date == "" означает все даты
func (s *AppointmentService) ListByStudent(ctx context.Context, studentID int64, date string) ([]*model.Appointment, error) {
	if err := validateListFilter(date); err != nil {
		return nil, err
	}
	appointments, err := s.store.Appointments().ListByStudent(ctx, studentID, date)
	if err != nil {
		return nil, fmt.Errorf("list student appointments: %w", err)
	}
	return appointments, nil
}

// Cancel отменяет занятие. Запланированное занятие возвращает билеты студенту,
// проведённое отменить нельзя
func (s *AppointmentService) Cancel(ctx context.Context, id int64, in CancelInput) (*model.Appointment, error) {
	if !in.CancelledBy.Valid() {
		return nil, invalidInput("cancelledBy must be student or teacher")
	}

	var reason *string
	if in.Reason != nil {
		if trimmed := strings.TrimSpace(*in.Reason); trimmed != "" {
			reason = &trimmed
		}
	}

	var (
		appointment *model.Appointment
		balance     int
	)
	err := s.store.RunInTx(ctx, func(tx repository.Tx) error {
		var err error
		appointment, err = tx.Appointments().GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get appointment: %w", err)
		}
		if appointment == nil {
			return ErrNotFound
		}

		switch appointment.Status {
		case model.AppointmentStatusCancelled:
			return ErrAlreadyCancelled
		case model.AppointmentStatusCompleted:
			return ErrNotCancellable
		}

		if in.CancelledBy == model.CancelledByTeacher && reason == nil {
			return ErrReasonRequired
		}

		ledger := NewTicketLedger(tx.Tickets(), s.logger)
		balance, err = ledger.Add(ctx, appointment.StudentID, appointment.TicketsUsed)
		if err != nil {
			return err
		}

		if err := releaseHeldSlot(ctx, tx.Availability(), appointment); err != nil {
			return err
		}

		by := in.CancelledBy
		now := s.now()
		appointment.Status = model.AppointmentStatusCancelled
		appointment.CancelledBy = &by
		appointment.CancelReason = reason
		appointment.UpdatedAt = &now

		if err := tx.Appointments().Update(ctx, appointment); err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Appointment cancelled",
		zap.Int64("appointment_id", appointment.ID),
		zap.Int64("student_id", appointment.StudentID),
		zap.String("cancelled_by", string(in.CancelledBy)),
		zap.Int("tickets_refunded", appointment.TicketsUsed),
	)

	var reasonText string
	if reason != nil {
		reasonText = *reason
	}
	s.emit(ctx, notify.EventAppointmentCancelled, appointment, balance, reasonText)

	return appointment, nil
}

// Update меняет дату, время и длительность занятия.
// Изменение длительности досписывает или возвращает разницу в билетах; всё или ничего
func (s *AppointmentService) Update(ctx context.Context, id int64, in UpdateInput) (*model.Appointment, error) {
	if err := validateUpdate(in); err != nil {
		return nil, err
	}

	var (
		appointment *model.Appointment
		balance     int
	)
	err := s.store.RunInTx(ctx, func(tx repository.Tx) error {
		var err error
		appointment, err = tx.Appointments().GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get appointment: %w", err)
		}
		if appointment == nil {
			return ErrNotFound
		}
		if !appointment.IsScheduled() {
			return ErrNotScheduled
		}

		ledger := NewTicketLedger(tx.Tickets(), s.logger)

		if in.DurationMinutes != nil {
			newNeeded := model.TicketsNeeded(*in.DurationMinutes)
			delta := newNeeded - appointment.TicketsUsed

			switch {
			case delta > 0:
				result, err := ledger.Consume(ctx, appointment.StudentID, delta)
				if err != nil {
					return err
				}
				if !result.OK {
					return &InsufficientTicketsError{Needed: delta, Available: result.Remaining}
				}
			case delta < 0:
				if _, err := ledger.Add(ctx, appointment.StudentID, -delta); err != nil {
					return err
				}
			}

			appointment.DurationMinutes = *in.DurationMinutes
			appointment.TicketsUsed = newNeeded
		}

		oldDate, oldTime := appointment.Date, appointment.Time
		if in.Date != nil {
			appointment.Date = *in.Date
		}
		if in.Time != nil {
			appointment.Time = *in.Time
		}

		if appointment.Date != oldDate || appointment.Time != oldTime {
			if err := s.moveSlot(ctx, tx.Availability(), appointment, oldDate, oldTime); err != nil {
				return err
			}
		}

		now := s.now()
		appointment.UpdatedAt = &now
		if err := tx.Appointments().Update(ctx, appointment); err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}

		balance, err = ledger.BalanceOf(ctx, appointment.StudentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Appointment updated",
		zap.Int64("appointment_id", appointment.ID),
		zap.String("date", appointment.Date),
		zap.String("time", appointment.Time),
		zap.Int("duration_minutes", appointment.DurationMinutes),
		zap.Int("tickets_used", appointment.TicketsUsed),
	)
	s.emit(ctx, notify.EventAppointmentUpdated, appointment, balance, "")

	return appointment, nil
}

// moveSlot переносит бронь слота вслед за занятием. Старый слот освобождается,
// только если его держит это занятие. Занятие строгой записи занимает новый слот,
// если он есть и свободен; иначе переносится без брони
func (s *AppointmentService) moveSlot(ctx context.Context, repo repository.AvailabilityRepository, appointment *model.Appointment, oldDate, oldTime string) error {
	if appointment.SlotHeld {
		if _, err := releaseSlot(ctx, repo, appointment.TeacherID, oldDate, oldTime, appointment.StudentID); err != nil {
			return err
		}
		appointment.SlotHeld = false
	}

	if !appointment.SlotBound {
		return nil
	}

	err := bookSlot(ctx, repo, appointment.TeacherID, appointment.Date, appointment.Time, appointment.StudentID)
	switch {
	case err == nil:
		appointment.SlotHeld = true
		return nil
	case errors.Is(err, ErrSlotNotFound) || errors.Is(err, ErrSlotUnavailable):
		s.logger.Warn("Appointment moved to a slot that is not available",
			zap.Int64("appointment_id", appointment.ID),
			zap.String("date", appointment.Date),
			zap.String("time", appointment.Time),
		)
		return nil
	default:
		return err
	}
}

// releaseHeldSlot освобождает слот занятия, если занятие его держит
func releaseHeldSlot(ctx context.Context, repo repository.AvailabilityRepository, appointment *model.Appointment) error {
	if !appointment.SlotHeld {
		return nil
	}
	if _, err := releaseSlot(ctx, repo, appointment.TeacherID, appointment.Date, appointment.Time, appointment.StudentID); err != nil {
		return err
	}
	appointment.SlotHeld = false
	return nil
}

// Delete удаляет занятие полностью. Запланированное занятие возвращает билеты
func (s *AppointmentService) Delete(ctx context.Context, id int64) error {
	var (
		appointment *model.Appointment
		balance     int
	)
	err := s.store.RunInTx(ctx, func(tx repository.Tx) error {
		var err error
		appointment, err = tx.Appointments().GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get appointment: %w", err)
		}
		if appointment == nil {
			return ErrNotFound
		}

		ledger := NewTicketLedger(tx.Tickets(), s.logger)
		if appointment.IsScheduled() {
			balance, err = ledger.Add(ctx, appointment.StudentID, appointment.TicketsUsed)
			if err != nil {
				return err
			}

			if err := releaseHeldSlot(ctx, tx.Availability(), appointment); err != nil {
				return err
			}
		} else {
			balance, err = ledger.BalanceOf(ctx, appointment.StudentID)
			if err != nil {
				return err
			}
		}

		if err := tx.Appointments().Delete(ctx, id); err != nil {
			return fmt.Errorf("delete appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Appointment deleted",
		zap.Int64("appointment_id", appointment.ID),
		zap.Int64("student_id", appointment.StudentID),
		zap.String("status", string(appointment.Status)),
	)
	s.emit(ctx, notify.EventAppointmentDeleted, appointment, balance, "")

	return nil
}

// Complete отмечает занятие проведённым. Билеты уже списаны при создании
func (s *AppointmentService) Complete(ctx context.Context, id int64) (*model.Appointment, error) {
	var (
		appointment *model.Appointment
		balance     int
	)
	err := s.store.RunInTx(ctx, func(tx repository.Tx) error {
		var err error
		appointment, err = tx.Appointments().GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get appointment: %w", err)
		}
		if appointment == nil {
			return ErrNotFound
		}
		if !appointment.IsScheduled() {
			return ErrNotScheduled
		}

		now := s.now()
		appointment.Status = model.AppointmentStatusCompleted
		appointment.UpdatedAt = &now
		if err := tx.Appointments().Update(ctx, appointment); err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}

		balance, err = tx.Tickets().Get(ctx, appointment.StudentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Appointment completed",
		zap.Int64("appointment_id", appointment.ID),
		zap.Int64("student_id", appointment.StudentID),
	)
	s.emit(ctx, notify.EventAppointmentCompleted, appointment, balance, "")

	return appointment, nil
}

// AutoCompleteEnded отмечает проведёнными все запланированные занятия,
// закончившиеся к моменту now. Возвращает количество завершённых
func (s *AppointmentService) AutoCompleteEnded(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.store.Appointments().ListScheduledUntil(ctx, now.Format(model.DateLayout))
	if err != nil {
		return 0, fmt.Errorf("list scheduled appointments: %w", err)
	}

	completed := 0
	for _, appointment := range candidates {
		endsAt, err := appointment.EndsAt(now.Location())
		if err != nil {
			s.logger.Warn("Skipping appointment with malformed date",
				zap.Int64("appointment_id", appointment.ID),
				zap.Error(err),
			)
			continue
		}
		if endsAt.After(now) {
			continue
		}

		if _, err := s.Complete(ctx, appointment.ID); err != nil {
			// Занятие могли отменить или удалить параллельно
			if errors.Is(err, ErrNotScheduled) || errors.Is(err, ErrNotFound) {
				continue
			}
			return completed, err
		}
		completed++
	}

	return completed, nil
}

func (s *AppointmentService) emit(ctx context.Context, eventType notify.EventType, appointment *model.Appointment, balance int, reason string) {
	if s.notifier == nil {
		return
	}

	event := notify.NewEvent(eventType, appointment.StudentID, balance)
	event.AppointmentID = appointment.ID
	event.TeacherID = appointment.TeacherID
	event.Date = appointment.Date
	event.Time = appointment.Time
	event.TicketsUsed = appointment.TicketsUsed
	event.Reason = reason

	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Warn("Failed to deliver event",
			zap.String("type", string(eventType)),
			zap.Int64("appointment_id", appointment.ID),
			zap.Error(err),
		)
	}
}

func validateCreate(in CreateInput) error {
	if in.TeacherID <= 0 || in.StudentID <= 0 {
		return invalidInput("teacher and student ids must be positive")
	}
	if _, err := model.ParseDate(in.Date); err != nil {
		return invalidInput("%v", err)
	}
	if _, err := model.ParseClock(in.Time); err != nil {
		return invalidInput("%v", err)
	}
	if in.DurationMinutes <= 0 {
		return invalidInput("duration must be positive")
	}
	return nil
}

func validateUpdate(in UpdateInput) error {
	if in.Date != nil {
		if _, err := model.ParseDate(*in.Date); err != nil {
			return invalidInput("%v", err)
		}
	}
	if in.Time != nil {
		if _, err := model.ParseClock(*in.Time); err != nil {
			return invalidInput("%v", err)
		}
	}
	if in.DurationMinutes != nil && *in.DurationMinutes <= 0 {
		return invalidInput("duration must be positive")
	}
	return nil
}

func validateListFilter(date string) error {
	if date == "" {
		return nil
	}
	if _, err := model.ParseDate(date); err != nil {
		return invalidInput("%v", err)
	}
	return nil
}
