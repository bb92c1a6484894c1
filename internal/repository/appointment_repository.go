package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const appointmentColumns = `id, teacher_id, student_id, date::text, time, duration_minutes, tickets_used,
		status, cancel_reason, cancelled_by, slot_bound, slot_held, created_at, updated_at`

type PgAppointmentRepository struct {
	*base.Repository
}

func NewAppointmentRepository(db base.DBTX) *PgAppointmentRepository {
	return &PgAppointmentRepository{Repository: base.NewRepository(db)}
}

// Create создаёт новое занятие
func (r *PgAppointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	query := `
		INSERT INTO appointments (teacher_id, student_id, date, time, duration_minutes, tickets_used, status,
		                          slot_bound, slot_held, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := r.DB().QueryRow(
		ctx, query,
		a.TeacherID,
		a.StudentID,
		a.Date,
		a.Time,
		a.DurationMinutes,
		a.TicketsUsed,
		a.Status,
		a.SlotBound,
		a.SlotHeld,
		a.CreatedAt,
	).Scan(&a.ID)

	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}

	return nil
}

// GetByID получает занятие по ID
func (r *PgAppointmentRepository) GetByID(ctx context.Context, id int64) (*model.Appointment, error) {
	return r.getOne(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
}

// GetByIDForUpdate получает занятие по ID и блокирует строку
func (r *PgAppointmentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Appointment, error) {
	return r.getOne(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id)
}

func (r *PgAppointmentRepository) getOne(ctx context.Context, query string, id int64) (*model.Appointment, error) {
	a, err := scanAppointment(r.DB().QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}
	return a, nil
}

// Update сохраняет изменяемые поля занятия
func (r *PgAppointmentRepository) Update(ctx context.Context, a *model.Appointment) error {
	var cancelledBy *string
	if a.CancelledBy != nil {
		s := string(*a.CancelledBy)
		cancelledBy = &s
	}

	affected, err := r.ExecAffected(ctx, `
		UPDATE appointments
		SET date = $1, time = $2, duration_minutes = $3, tickets_used = $4,
		    status = $5, cancel_reason = $6, cancelled_by = $7, slot_held = $8, updated_at = $9
		WHERE id = $10
	`,
		a.Date,
		a.Time,
		a.DurationMinutes,
		a.TicketsUsed,
		a.Status,
		a.CancelReason,
		cancelledBy,
		a.SlotHeld,
		a.UpdatedAt,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("appointment not found")
	}

	return nil
}

// Delete удаляет занятие
func (r *PgAppointmentRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("appointment not found")
	}

	return nil
}

// ListByTeacher получает занятия учителя (по индексу teacher_id, date)
func (r *PgAppointmentRepository) ListByTeacher(ctx context.Context, teacherID int64, date string) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE teacher_id = $1 AND ($2 = '' OR date = NULLIF($2, '')::date)
		ORDER BY date, time
	`
	return r.list(ctx, query, teacherID, date)
}

// ListByStudent получает занятия студента (по индексу student_id, date)
func (r *PgAppointmentRepository) ListByStudent(ctx context.Context, studentID int64, date string) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE student_id = $1 AND ($2 = '' OR date = NULLIF($2, '')::date)
		ORDER BY date, time
	`
	return r.list(ctx, query, studentID, date)
}

// ListScheduledUntil получает запланированные занятия до указанной даты включительно
func (r *PgAppointmentRepository) ListScheduledUntil(ctx context.Context, date string) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status = 'scheduled' AND date <= $1::date
		ORDER BY date, time
	`

	rows, err := r.DB().Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("list scheduled appointments: %w", err)
	}
	return collectAppointments(rows)
}

func (r *PgAppointmentRepository) list(ctx context.Context, query string, id int64, date string) ([]*model.Appointment, error) {
	rows, err := r.DB().Query(ctx, query, id, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]*model.Appointment, error) {
	defer rows.Close()

	var appointments []*model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}

	return appointments, nil
}

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var a model.Appointment
	var cancelledBy *string

	err := row.Scan(
		&a.ID,
		&a.TeacherID,
		&a.StudentID,
		&a.Date,
		&a.Time,
		&a.DurationMinutes,
		&a.TicketsUsed,
		&a.Status,
		&a.CancelReason,
		&cancelledBy,
		&a.SlotBound,
		&a.SlotHeld,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if cancelledBy != nil {
		by := model.CancelledBy(*cancelledBy)
		a.CancelledBy = &by
	}

	return &a, nil
}
