package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

type appointmentRepo struct {
	scope
}

func (r *appointmentRepo) Create(ctx context.Context, a *model.Appointment) error {
	st, release := r.acquire()
	defer release()

	st.nextID++
	a.ID = st.nextID
	st.appointments[a.ID] = copyAppointment(a)
	return nil
}

func (r *appointmentRepo) GetByID(ctx context.Context, id int64) (*model.Appointment, error) {
	st, release := r.acquire()
	defer release()

	a, ok := st.appointments[id]
	if !ok {
		return nil, nil
	}
	return copyAppointment(a), nil
}

func (r *appointmentRepo) GetByIDForUpdate(ctx context.Context, id int64) (*model.Appointment, error) {
	return r.GetByID(ctx, id)
}

func (r *appointmentRepo) Update(ctx context.Context, a *model.Appointment) error {
	st, release := r.acquire()
	defer release()

	if _, ok := st.appointments[a.ID]; !ok {
		return fmt.Errorf("appointment not found")
	}
	st.appointments[a.ID] = copyAppointment(a)
	return nil
}

func (r *appointmentRepo) Delete(ctx context.Context, id int64) error {
	st, release := r.acquire()
	defer release()

	if _, ok := st.appointments[id]; !ok {
		return fmt.Errorf("appointment not found")
	}
	delete(st.appointments, id)
	return nil
}

func (r *appointmentRepo) ListByTeacher(ctx context.Context, teacherID int64, date string) ([]*model.Appointment, error) {
	return r.filter(func(a *model.Appointment) bool {
		return a.TeacherID == teacherID && (date == "" || a.Date == date)
	}), nil
}

func (r *appointmentRepo) ListByStudent(ctx context.Context, studentID int64, date string) ([]*model.Appointment, error) {
	return r.filter(func(a *model.Appointment) bool {
		return a.StudentID == studentID && (date == "" || a.Date == date)
	}), nil
}

func (r *appointmentRepo) ListScheduledUntil(ctx context.Context, date string) ([]*model.Appointment, error) {
	return r.filter(func(a *model.Appointment) bool {
		return a.IsScheduled() && a.Date <= date
	}), nil
}

func (r *appointmentRepo) filter(match func(a *model.Appointment) bool) []*model.Appointment {
	st, release := r.acquire()
	defer release()

	var result []*model.Appointment
	for _, a := range st.appointments {
		if match(a) {
			result = append(result, copyAppointment(a))
		}
	}

	// Тот же порядок, что и ORDER BY date, time в Postgres
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		if result[i].Time != result[j].Time {
			return result[i].Time < result[j].Time
		}
		return result[i].ID < result[j].ID
	})
	return result
}
