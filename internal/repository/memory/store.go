// Package memory реализует repository.Store в памяти процесса.
// Используется в тестах и для локального запуска без Postgres.
package memory

import (
	"context"
	"sync"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
)

type availabilityKey struct {
	teacherID int64
	date      string
}

// state всё содержимое хранилища
type state struct {
	balances     map[int64]int
	appointments map[int64]*model.Appointment
	nextID       int64
	availability map[availabilityKey]*model.TeacherAvailability
}

func newState() *state {
	return &state{
		balances:     make(map[int64]int),
		appointments: make(map[int64]*model.Appointment),
		availability: make(map[availabilityKey]*model.TeacherAvailability),
	}
}

// clone делает глубокую копию для отката транзакции
func (s *state) clone() *state {
	c := &state{
		balances:     make(map[int64]int, len(s.balances)),
		appointments: make(map[int64]*model.Appointment, len(s.appointments)),
		nextID:       s.nextID,
		availability: make(map[availabilityKey]*model.TeacherAvailability, len(s.availability)),
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.appointments {
		c.appointments[k] = copyAppointment(v)
	}
	for k, v := range s.availability {
		c.availability[k] = copyAvailability(v)
	}
	return c
}

// Store хранилище в памяти. Транзакции сериализуются одним мьютексом,
// при ошибке состояние восстанавливается из снимка
type Store struct {
	mu    sync.Mutex
	state *state
}

// NewStore создаёт пустое хранилище
func NewStore() *Store {
	return &Store{state: newState()}
}

// RunInTx выполняет fn под эксклюзивной блокировкой
func (s *Store) RunInTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(txView{st: s.state}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *Store) Tickets() repository.TicketRepository {
	return &ticketRepo{scope{store: s}}
}

func (s *Store) Appointments() repository.AppointmentRepository {
	return &appointmentRepo{scope{store: s}}
}

func (s *Store) Availability() repository.AvailabilityRepository {
	return &availabilityRepo{scope{store: s}}
}

// view возвращает состояние и функцию освобождения.
// Репозитории транзакции работают без блокировки: её уже держит RunInTx
func (s *Store) view() (*state, func()) {
	s.mu.Lock()
	return s.state, s.mu.Unlock
}

// txView репозитории внутри RunInTx
type txView struct {
	st *state
}

func (t txView) Tickets() repository.TicketRepository {
	return &ticketRepo{scope{st: t.st}}
}

func (t txView) Appointments() repository.AppointmentRepository {
	return &appointmentRepo{scope{st: t.st}}
}

func (t txView) Availability() repository.AvailabilityRepository {
	return &availabilityRepo{scope{st: t.st}}
}

// scope общий способ получить состояние: либо из транзакции, либо под мьютексом
type scope struct {
	store *Store
	st    *state
}

func (sc scope) acquire() (*state, func()) {
	if sc.st != nil {
		return sc.st, func() {}
	}
	return sc.store.view()
}

func copyAppointment(a *model.Appointment) *model.Appointment {
	c := *a
	if a.CancelReason != nil {
		reason := *a.CancelReason
		c.CancelReason = &reason
	}
	if a.CancelledBy != nil {
		by := *a.CancelledBy
		c.CancelledBy = &by
	}
	if a.UpdatedAt != nil {
		at := *a.UpdatedAt
		c.UpdatedAt = &at
	}
	return &c
}

func copyAvailability(a *model.TeacherAvailability) *model.TeacherAvailability {
	c := *a
	if a.BatchID != nil {
		id := *a.BatchID
		c.BatchID = &id
	}
	c.TimeSlots = make([]model.TimeSlot, len(a.TimeSlots))
	for i, s := range a.TimeSlots {
		c.TimeSlots[i] = s
		if s.BookedBy != nil {
			by := *s.BookedBy
			c.TimeSlots[i].BookedBy = &by
		}
	}
	return &c
}
