package repository

import (
	"context"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

// TicketRepository хранит баланс билетов студентов
type TicketRepository interface {
	// Get возвращает баланс, отсутствующий студент = 0
	Get(ctx context.Context, studentID int64) (int, error)
	// Lock создаёт строку баланса при необходимости и блокирует её до конца транзакции
	Lock(ctx context.Context, studentID int64) (int, error)
	// Increment увеличивает баланс и возвращает новое значение
	Increment(ctx context.Context, studentID int64, count int) (int, error)
	// Decrement уменьшает баланс только если хватает билетов.
	// Возвращает остаток и false, если билетов недостаточно
	Decrement(ctx context.Context, studentID int64, count int) (int, bool, error)
}

// AppointmentRepository хранит занятия
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *model.Appointment) error
	// GetByID возвращает nil, nil если занятие не найдено
	GetByID(ctx context.Context, id int64) (*model.Appointment, error)
	// GetByIDForUpdate как GetByID, но блокирует запись до конца транзакции
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Appointment, error)
	Update(ctx context.Context, appointment *model.Appointment) error
	Delete(ctx context.Context, id int64) error
	// ListByTeacher возвращает занятия учителя, date == "" означает все даты
	ListByTeacher(ctx context.Context, teacherID int64, date string) ([]*model.Appointment, error)
	ListByStudent(ctx context.Context, studentID int64, date string) ([]*model.Appointment, error)
	// ListScheduledUntil возвращает запланированные занятия с датой <= date
	ListScheduledUntil(ctx context.Context, date string) ([]*model.Appointment, error)
}

// AvailabilityRepository хранит расписание учителей по датам
type AvailabilityRepository interface {
	// Get возвращает nil, nil если записи на эту дату нет
	Get(ctx context.Context, teacherID int64, date string) (*model.TeacherAvailability, error)
	// GetForUpdate как Get, но блокирует запись до конца транзакции
	GetForUpdate(ctx context.Context, teacherID int64, date string) (*model.TeacherAvailability, error)
	// Save создаёт запись или полностью заменяет её слоты
	Save(ctx context.Context, availability *model.TeacherAvailability) error
	// ListRange возвращает записи учителя в диапазоне дат [from, to]
	ListRange(ctx context.Context, teacherID int64, from, to string) ([]*model.TeacherAvailability, error)
}

// Tx набор репозиториев, работающих в рамках одной транзакции
type Tx interface {
	Tickets() TicketRepository
	Appointments() AppointmentRepository
	Availability() AvailabilityRepository
}

// Store хранилище с поддержкой транзакций.
// Вне RunInTx каждый вызов репозитория атомарен сам по себе
type Store interface {
	Tx
	// RunInTx выполняет fn в транзакции: ошибка fn откатывает все изменения
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
}
