package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
	"github.com/google/uuid"
)

type PgAvailabilityRepository struct {
	*base.Repository
}

func NewAvailabilityRepository(db base.DBTX) *PgAvailabilityRepository {
	return &PgAvailabilityRepository{Repository: base.NewRepository(db)}
}

// Get получает расписание учителя на дату вместе со слотами
func (r *PgAvailabilityRepository) Get(ctx context.Context, teacherID int64, date string) (*model.TeacherAvailability, error) {
	return r.get(ctx, `
		SELECT id, teacher_id, date::text, batch_id, created_at
		FROM teacher_availability
		WHERE teacher_id = $1 AND date = $2::date
	`, teacherID, date)
}

// GetForUpdate получает расписание и блокирует родительскую запись
func (r *PgAvailabilityRepository) GetForUpdate(ctx context.Context, teacherID int64, date string) (*model.TeacherAvailability, error) {
	return r.get(ctx, `
		SELECT id, teacher_id, date::text, batch_id, created_at
		FROM teacher_availability
		WHERE teacher_id = $1 AND date = $2::date
		FOR UPDATE
	`, teacherID, date)
}

func (r *PgAvailabilityRepository) get(ctx context.Context, query string, teacherID int64, date string) (*model.TeacherAvailability, error) {
	var a model.TeacherAvailability
	err := r.DB().QueryRow(ctx, query, teacherID, date).Scan(
		&a.ID,
		&a.TeacherID,
		&a.Date,
		&a.BatchID,
		&a.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get teacher availability: %w", err)
	}

	slots, err := r.slots(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	a.TimeSlots = slots

	return &a, nil
}

func (r *PgAvailabilityRepository) slots(ctx context.Context, availabilityID uuid.UUID) ([]model.TimeSlot, error) {
	rows, err := r.DB().Query(ctx, `
		SELECT time, available, booked_by
		FROM availability_slots
		WHERE availability_id = $1
		ORDER BY time
	`, availabilityID)
	if err != nil {
		return nil, fmt.Errorf("get availability slots: %w", err)
	}
	defer rows.Close()

	slots := []model.TimeSlot{}
	for rows.Next() {
		var s model.TimeSlot
		if err := rows.Scan(&s.Time, &s.Available, &s.BookedBy); err != nil {
			return nil, fmt.Errorf("scan availability slot: %w", err)
		}
		slots = append(slots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate availability slots: %w", err)
	}

	return slots, nil
}

// Save создаёт родительскую запись при необходимости и перезаписывает её слоты
func (r *PgAvailabilityRepository) Save(ctx context.Context, a *model.TeacherAvailability) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	err := r.DB().QueryRow(ctx, `
		INSERT INTO teacher_availability (id, teacher_id, date, batch_id)
		VALUES ($1, $2, $3::date, $4)
		ON CONFLICT (teacher_id, date) DO UPDATE SET batch_id = COALESCE(EXCLUDED.batch_id, teacher_availability.batch_id)
		RETURNING id, created_at
	`, a.ID, a.TeacherID, a.Date, a.BatchID).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("save teacher availability: %w", err)
	}

	if _, err := r.DB().Exec(ctx, `DELETE FROM availability_slots WHERE availability_id = $1`, a.ID); err != nil {
		return fmt.Errorf("clear availability slots: %w", err)
	}

	for _, s := range a.TimeSlots {
		_, err := r.DB().Exec(ctx, `
			INSERT INTO availability_slots (availability_id, time, available, booked_by)
			VALUES ($1, $2, $3, $4)
		`, a.ID, s.Time, s.Available, s.BookedBy)
		if err != nil {
			return fmt.Errorf("insert availability slot %s: %w", s.Time, err)
		}
	}

	return nil
}

// ListRange получает расписание учителя за период
func (r *PgAvailabilityRepository) ListRange(ctx context.Context, teacherID int64, from, to string) ([]*model.TeacherAvailability, error) {
	rows, err := r.DB().Query(ctx, `
		SELECT id, teacher_id, date::text, batch_id, created_at
		FROM teacher_availability
		WHERE teacher_id = $1 AND date >= $2::date AND date <= $3::date
		ORDER BY date
	`, teacherID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list teacher availability: %w", err)
	}

	var result []*model.TeacherAvailability
	for rows.Next() {
		var a model.TeacherAvailability
		if err := rows.Scan(&a.ID, &a.TeacherID, &a.Date, &a.BatchID, &a.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan teacher availability: %w", err)
		}
		result = append(result, &a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teacher availability: %w", err)
	}

	// Слоты читаем после закрытия rows: одно соединение не может вести два запроса
	for _, a := range result {
		slots, err := r.slots(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		a.TimeSlots = slots
	}

	return result, nil
}
