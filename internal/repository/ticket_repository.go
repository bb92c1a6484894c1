package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
)

type PgTicketRepository struct {
	*base.Repository
}

func NewTicketRepository(db base.DBTX) *PgTicketRepository {
	return &PgTicketRepository{Repository: base.NewRepository(db)}
}

// Get получает баланс студента
func (r *PgTicketRepository) Get(ctx context.Context, studentID int64) (int, error) {
	query := `SELECT count FROM ticket_balances WHERE student_id = $1`

	var count int
	err := r.DB().QueryRow(ctx, query, studentID).Scan(&count)
	if err != nil {
		if base.IsNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("get ticket balance: %w", err)
	}

	return count, nil
}

// Lock создаёт строку баланса (лениво, с нулём) и берёт на неё блокировку
func (r *PgTicketRepository) Lock(ctx context.Context, studentID int64) (int, error) {
	_, err := r.DB().Exec(ctx, `
		INSERT INTO ticket_balances (student_id, count)
		VALUES ($1, 0)
		ON CONFLICT (student_id) DO NOTHING
	`, studentID)
	if err != nil {
		return 0, fmt.Errorf("ensure ticket balance: %w", err)
	}

	var count int
	err = r.DB().QueryRow(ctx, `
		SELECT count FROM ticket_balances
		WHERE student_id = $1
		FOR UPDATE
	`, studentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("lock ticket balance: %w", err)
	}

	return count, nil
}

// Increment начисляет билеты
func (r *PgTicketRepository) Increment(ctx context.Context, studentID int64, count int) (int, error) {
	query := `
		INSERT INTO ticket_balances (student_id, count)
		VALUES ($1, $2)
		ON CONFLICT (student_id) DO UPDATE
		SET count = ticket_balances.count + EXCLUDED.count, updated_at = NOW()
		RETURNING count
	`

	var balance int
	if err := r.DB().QueryRow(ctx, query, studentID, count).Scan(&balance); err != nil {
		return 0, fmt.Errorf("increment ticket balance: %w", err)
	}

	return balance, nil
}

// Decrement списывает билеты, только если их хватает (без частичного списания)
func (r *PgTicketRepository) Decrement(ctx context.Context, studentID int64, count int) (int, bool, error) {
	query := `
		UPDATE ticket_balances
		SET count = count - $2, updated_at = NOW()
		WHERE student_id = $1 AND count >= $2
		RETURNING count
	`

	var balance int
	err := r.DB().QueryRow(ctx, query, studentID, count).Scan(&balance)
	if err != nil {
		if base.IsNotFound(err) {
			current, getErr := r.Get(ctx, studentID)
			if getErr != nil {
				return 0, false, getErr
			}
			return current, false, nil
		}
		return 0, false, fmt.Errorf("decrement ticket balance: %w", err)
	}

	return balance, true, nil
}
