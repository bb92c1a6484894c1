package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore хранилище поверх пула pgx
type PostgresStore struct {
	pool *pgxpool.Pool
	pgTx
}

// pgTx репозитории, привязанные к одному DBTX (пулу или транзакции)
type pgTx struct {
	tickets      *PgTicketRepository
	appointments *PgAppointmentRepository
	availability *PgAvailabilityRepository
}

func newPgTx(db base.DBTX) pgTx {
	return pgTx{
		tickets:      NewTicketRepository(db),
		appointments: NewAppointmentRepository(db),
		availability: NewAvailabilityRepository(db),
	}
}

func (t pgTx) Tickets() TicketRepository {
	return t.tickets
}

func (t pgTx) Appointments() AppointmentRepository {
	return t.appointments
}

func (t pgTx) Availability() AvailabilityRepository {
	return t.availability
}

// NewPostgresStore создаёт хранилище
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool: pool,
		pgTx: newPgTx(pool),
	}
}

// RunInTx выполняет fn в транзакции Postgres
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	// Начинаем транзакцию
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(newPgTx(tx)); err != nil {
		return err
	}

	// Коммитим транзакцию
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
