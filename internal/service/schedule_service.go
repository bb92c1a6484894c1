package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/slotgrid"
	"github.com/Freeeeeet/lesson_booking/internal/weekimage"
	"go.uber.org/zap"
)

// ScheduleService собирает недельную картину учителя: свободные слоты и занятия
type ScheduleService struct {
	availability *AvailabilityService
	appointments *AppointmentService
	logger       *zap.Logger
	now          func() time.Time
}

func NewScheduleService(availability *AvailabilityService, appointments *AppointmentService, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		availability: availability,
		appointments: appointments,
		logger:       logger,
		now:          time.Now,
	}
}

// WeekImage рисует PNG недели, начинающейся с weekStart.
// Пустой weekStart означает текущую неделю с понедельника
func (s *ScheduleService) WeekImage(ctx context.Context, teacherID int64, weekStart string) ([]byte, error) {
	now := s.now()
	if weekStart == "" {
		weekStart = MondayOf(now).Format(model.DateLayout)
	}

	start, err := model.ParseDate(weekStart)
	if err != nil {
		return nil, invalidInput("%v", err)
	}

	days, err := s.availability.Week(ctx, teacherID, weekStart)
	if err != nil {
		return nil, err
	}

	var lessons []*model.Appointment
	for i := 0; i < slotgrid.DaysPerWeek; i++ {
		date := start.AddDate(0, 0, i).Format(model.DateLayout)
		list, err := s.appointments.ListByTeacher(ctx, teacherID, date)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, list...)
	}

	png, err := weekimage.Render(weekimage.Params{
		WeekStart:    start,
		Grid:         s.availability.Grid(),
		Availability: days,
		Appointments: lessons,
		Now:          now,
	})
	if err != nil {
		return nil, fmt.Errorf("render week: %w", err)
	}

	s.logger.Debug("Week image rendered",
		zap.Int64("teacher_id", teacherID),
		zap.String("week_start", weekStart),
		zap.Int("days", len(days)),
		zap.Int("lessons", len(lessons)),
	)

	return png, nil
}

// MondayOf возвращает понедельник недели, в которую попадает t
func MondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
