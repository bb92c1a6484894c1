package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/google/uuid"
)

type availabilityRepo struct {
	scope
}

func (r *availabilityRepo) Get(ctx context.Context, teacherID int64, date string) (*model.TeacherAvailability, error) {
	st, release := r.acquire()
	defer release()

	a, ok := st.availability[availabilityKey{teacherID, date}]
	if !ok {
		return nil, nil
	}
	return copyAvailability(a), nil
}

func (r *availabilityRepo) GetForUpdate(ctx context.Context, teacherID int64, date string) (*model.TeacherAvailability, error) {
	return r.Get(ctx, teacherID, date)
}

func (r *availabilityRepo) Save(ctx context.Context, a *model.TeacherAvailability) error {
	st, release := r.acquire()
	defer release()

	key := availabilityKey{a.TeacherID, a.Date}
	if existing, ok := st.availability[key]; ok {
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
		if a.BatchID == nil {
			a.BatchID = existing.BatchID
		}
	} else {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		a.CreatedAt = time.Now()
	}

	stored := copyAvailability(a)
	stored.SortSlots()
	st.availability[key] = stored
	return nil
}

func (r *availabilityRepo) ListRange(ctx context.Context, teacherID int64, from, to string) ([]*model.TeacherAvailability, error) {
	st, release := r.acquire()
	defer release()

	var result []*model.TeacherAvailability
	for key, a := range st.availability {
		if key.teacherID == teacherID && key.date >= from && key.date <= to {
			result = append(result, copyAvailability(a))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})
	return result, nil
}
