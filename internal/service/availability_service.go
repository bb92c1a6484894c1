package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"github.com/Freeeeeet/lesson_booking/internal/slotgrid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AvailabilityService struct {
	store  repository.Store
	grid   slotgrid.Grid
	logger *zap.Logger
}

func NewAvailabilityService(store repository.Store, grid slotgrid.Grid, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		store:  store,
		grid:   grid,
		logger: logger,
	}
}

// Grid возвращает разметку сетки недели
func (s *AvailabilityService) Grid() slotgrid.Grid {
	return s.grid
}

// Get возвращает слоты учителя на дату. Отсутствие записи = пустой список
func (s *AvailabilityService) Get(ctx context.Context, teacherID int64, date string) (*model.TeacherAvailability, error) {
	if err := validateTeacherDate(teacherID, date); err != nil {
		return nil, err
	}

	availability, err := s.store.Availability().Get(ctx, teacherID, date)
	if err != nil {
		return nil, fmt.Errorf("get availability: %w", err)
	}

	if availability == nil {
		return &model.TeacherAvailability{
			TeacherID: teacherID,
			Date:      date,
			TimeSlots: []model.TimeSlot{},
		}, nil
	}

	return availability, nil
}

// Week возвращает расписание учителя на 7 дней начиная с weekStart
func (s *AvailabilityService) Week(ctx context.Context, teacherID int64, weekStart string) ([]*model.TeacherAvailability, error) {
	if err := validateTeacherDate(teacherID, weekStart); err != nil {
		return nil, err
	}

	weekEnd, err := model.AddDays(weekStart, 6)
	if err != nil {
		return nil, invalidInput("%v", err)
	}

	week, err := s.store.Availability().ListRange(ctx, teacherID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("list week availability: %w", err)
	}

	return week, nil
}

// UpsertSlots добавляет слоты в расписание на одну дату
func (s *AvailabilityService) UpsertSlots(ctx context.Context, teacherID int64, date string, slots []model.SlotProposal) (*model.TeacherAvailability, error) {
	result, err := s.ApplyProposals(ctx, teacherID, date, slots, 1)
	if err != nil {
		return nil, err
	}
	return result[0], nil
}

// ApplyProposals добавляет одинаковый набор слотов на date и на repeatWeeks-1 следующих недель
func (s *AvailabilityService) ApplyProposals(ctx context.Context, teacherID int64, date string, slots []model.SlotProposal, repeatWeeks int) ([]*model.TeacherAvailability, error) {
	if err := validateTeacherDate(teacherID, date); err != nil {
		return nil, err
	}
	if err := validateProposals(slots); err != nil {
		return nil, err
	}
	if err := validateRepeatWeeks(repeatWeeks); err != nil {
		return nil, err
	}

	days := make([]dayProposals, 0, repeatWeeks)
	for week := 0; week < repeatWeeks; week++ {
		d, err := model.AddDays(date, 7*week)
		if err != nil {
			return nil, invalidInput("%v", err)
		}
		days = append(days, dayProposals{date: d, slots: slots})
	}

	return s.apply(ctx, teacherID, days, repeatWeeks > 1)
}

// ApplyDated добавляет свободные слоты с произвольными датами, повторяя их на repeatWeeks недель
func (s *AvailabilityService) ApplyDated(ctx context.Context, teacherID int64, slots []model.DatedSlot, repeatWeeks int) ([]*model.TeacherAvailability, error) {
	if teacherID <= 0 {
		return nil, invalidInput("teacher id must be positive")
	}

	repeated, err := slotgrid.Repeat(slots, repeatWeeks)
	if err != nil {
		if errors.Is(err, slotgrid.ErrInvalidRepeatWeeks) {
			return nil, err
		}
		return nil, invalidInput("%v", err)
	}

	// Группируем по дате, сохраняя порядок появления
	var days []dayProposals
	index := make(map[string]int)
	for _, slot := range repeated {
		if _, err := model.ParseDate(slot.Date); err != nil {
			return nil, invalidInput("%v", err)
		}
		if _, err := model.ParseClock(slot.Time); err != nil {
			return nil, invalidInput("%v", err)
		}

		i, ok := index[slot.Date]
		if !ok {
			i = len(days)
			index[slot.Date] = i
			days = append(days, dayProposals{date: slot.Date})
		}
		days[i].slots = append(days[i].slots, model.SlotProposal{Time: slot.Time, Available: true})
	}

	return s.apply(ctx, teacherID, days, repeatWeeks > 1)
}

// GestureResult слоты, полученные из жестов, и сохранённое расписание
type GestureResult struct {
	Slots        []model.DatedSlot            `json:"slots"`
	Availability []*model.TeacherAvailability `json:"availability"`
}

// ApplyGesture квантует жесты на сетке недели weekStart и открывает полученные слоты
func (s *AvailabilityService) ApplyGesture(ctx context.Context, teacherID int64, weekStart string, events []slotgrid.PointerEvent, repeatWeeks int) (*GestureResult, error) {
	if err := validateTeacherDate(teacherID, weekStart); err != nil {
		return nil, err
	}

	selections, err := slotgrid.Replay(s.grid, events)
	if err != nil {
		return nil, invalidInput("%v", err)
	}

	var slots []model.DatedSlot
	for _, sel := range selections {
		dated, err := s.grid.Slots(sel, weekStart)
		if err != nil {
			return nil, invalidInput("%v", err)
		}
		slots = append(slots, dated...)
	}

	availability, err := s.ApplyDated(ctx, teacherID, slots, repeatWeeks)
	if err != nil {
		return nil, err
	}

	return &GestureResult{Slots: slots, Availability: availability}, nil
}

type dayProposals struct {
	date  string
	slots []model.SlotProposal
}

// apply записывает все дни в одной транзакции. Повторяющиеся по неделям дни получают общий batch id
func (s *AvailabilityService) apply(ctx context.Context, teacherID int64, days []dayProposals, batch bool) ([]*model.TeacherAvailability, error) {
	var batchID *uuid.UUID
	if batch {
		id := uuid.New()
		batchID = &id
	}

	var result []*model.TeacherAvailability
	err := s.store.RunInTx(ctx, func(tx repository.Tx) error {
		result = result[:0]
		for _, day := range days {
			availability, err := upsertSlots(ctx, tx.Availability(), teacherID, day.date, day.slots, batchID)
			if err != nil {
				return err
			}
			result = append(result, availability)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, day := range days {
		s.logger.Info("Availability updated",
			zap.Int64("teacher_id", teacherID),
			zap.String("date", day.date),
			zap.Int("slots", len(day.slots)),
		)
	}

	return result, nil
}

// RemoveSlot удаляет свободный слот. Занятый слот удалить нельзя
func (s *AvailabilityService) RemoveSlot(ctx context.Context, teacherID int64, date, slotTime string) error {
	if err := validateSlot(teacherID, date, slotTime); err != nil {
		return err
	}

	return s.store.RunInTx(ctx, func(tx repository.Tx) error {
		availability, idx, err := findSlot(ctx, tx.Availability(), teacherID, date, slotTime)
		if err != nil {
			return err
		}

		slot := availability.TimeSlots[idx]
		if slot.BookedBy != nil {
			return ErrSlotBooked
		}
		if !slot.Available {
			return ErrSlotUnavailable
		}

		availability.TimeSlots = append(availability.TimeSlots[:idx], availability.TimeSlots[idx+1:]...)
		if err := tx.Availability().Save(ctx, availability); err != nil {
			return fmt.Errorf("save availability: %w", err)
		}

		s.logger.Info("Availability slot removed",
			zap.Int64("teacher_id", teacherID),
			zap.String("date", date),
			zap.String("time", slotTime),
		)
		return nil
	})
}

// MarkBooked отмечает слот занятым студентом. Повторная отметка тем же студентом ничего не меняет
func (s *AvailabilityService) MarkBooked(ctx context.Context, teacherID int64, date, slotTime string, studentID int64) error {
	if err := validateSlot(teacherID, date, slotTime); err != nil {
		return err
	}
	if studentID <= 0 {
		return invalidInput("student id must be positive")
	}

	return s.store.RunInTx(ctx, func(tx repository.Tx) error {
		availability, idx, err := findSlot(ctx, tx.Availability(), teacherID, date, slotTime)
		if err != nil {
			return err
		}

		slot := &availability.TimeSlots[idx]
		if slot.BookedBy != nil {
			if *slot.BookedBy == studentID {
				return nil
			}
			return ErrSlotBooked
		}

		slot.Available = false
		slot.BookedBy = &studentID
		if err := tx.Availability().Save(ctx, availability); err != nil {
			return fmt.Errorf("save availability: %w", err)
		}
		return nil
	})
}

// MarkAvailable освобождает слот
func (s *AvailabilityService) MarkAvailable(ctx context.Context, teacherID int64, date, slotTime string) error {
	if err := validateSlot(teacherID, date, slotTime); err != nil {
		return err
	}

	return s.store.RunInTx(ctx, func(tx repository.Tx) error {
		availability, idx, err := findSlot(ctx, tx.Availability(), teacherID, date, slotTime)
		if err != nil {
			return err
		}

		slot := &availability.TimeSlots[idx]
		if slot.Available && slot.BookedBy == nil {
			return nil
		}

		slot.Available = true
		slot.BookedBy = nil
		if err := tx.Availability().Save(ctx, availability); err != nil {
			return fmt.Errorf("save availability: %w", err)
		}
		return nil
	})
}

// upsertSlots сливает предложенные слоты с существующими.
// Занятые слоты не перезаписываются
func upsertSlots(ctx context.Context, repo repository.AvailabilityRepository, teacherID int64, date string, slots []model.SlotProposal, batchID *uuid.UUID) (*model.TeacherAvailability, error) {
	availability, err := repo.GetForUpdate(ctx, teacherID, date)
	if err != nil {
		return nil, fmt.Errorf("get availability: %w", err)
	}

	if availability == nil {
		availability = &model.TeacherAvailability{
			TeacherID: teacherID,
			Date:      date,
			TimeSlots: []model.TimeSlot{},
		}
	}
	if batchID != nil {
		availability.BatchID = batchID
	}

	for _, proposal := range slots {
		idx := availability.FindSlot(proposal.Time)
		if idx < 0 {
			availability.TimeSlots = append(availability.TimeSlots, model.TimeSlot{
				Time:      proposal.Time,
				Available: proposal.Available,
			})
			continue
		}

		if availability.TimeSlots[idx].BookedBy != nil {
			continue
		}
		availability.TimeSlots[idx].Available = proposal.Available
	}

	availability.SortSlots()

	if err := repo.Save(ctx, availability); err != nil {
		return nil, fmt.Errorf("save availability: %w", err)
	}

	return availability, nil
}

// findSlot возвращает запись на дату и индекс слота, либо ErrSlotNotFound
func findSlot(ctx context.Context, repo repository.AvailabilityRepository, teacherID int64, date, slotTime string) (*model.TeacherAvailability, int, error) {
	availability, err := repo.GetForUpdate(ctx, teacherID, date)
	if err != nil {
		return nil, -1, fmt.Errorf("get availability: %w", err)
	}
	if availability == nil {
		return nil, -1, ErrSlotNotFound
	}

	idx := availability.FindSlot(slotTime)
	if idx < 0 {
		return nil, -1, ErrSlotNotFound
	}

	return availability, idx, nil
}

// bookSlot занимает свободный слот внутри транзакции бронирования
func bookSlot(ctx context.Context, repo repository.AvailabilityRepository, teacherID int64, date, slotTime string, studentID int64) error {
	availability, idx, err := findSlot(ctx, repo, teacherID, date, slotTime)
	if err != nil {
		return err
	}

	slot := &availability.TimeSlots[idx]
	if !slot.Available || slot.BookedBy != nil {
		return ErrSlotUnavailable
	}

	slot.Available = false
	slot.BookedBy = &studentID
	if err := repo.Save(ctx, availability); err != nil {
		return fmt.Errorf("save availability: %w", err)
	}
	return nil
}

// releaseSlot освобождает слот, если он занят именно этим студентом.
// Возвращает true, если слот был освобождён
func releaseSlot(ctx context.Context, repo repository.AvailabilityRepository, teacherID int64, date, slotTime string, studentID int64) (bool, error) {
	availability, idx, err := findSlot(ctx, repo, teacherID, date, slotTime)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return false, nil
		}
		return false, err
	}

	slot := &availability.TimeSlots[idx]
	if slot.BookedBy == nil || *slot.BookedBy != studentID {
		return false, nil
	}

	slot.Available = true
	slot.BookedBy = nil
	if err := repo.Save(ctx, availability); err != nil {
		return false, fmt.Errorf("save availability: %w", err)
	}
	return true, nil
}

func validateTeacherDate(teacherID int64, date string) error {
	if teacherID <= 0 {
		return invalidInput("teacher id must be positive")
	}
	if _, err := model.ParseDate(date); err != nil {
		return invalidInput("%v", err)
	}
	return nil
}

func validateSlot(teacherID int64, date, slotTime string) error {
	if err := validateTeacherDate(teacherID, date); err != nil {
		return err
	}
	if _, err := model.ParseClock(slotTime); err != nil {
		return invalidInput("%v", err)
	}
	return nil
}

func validateProposals(slots []model.SlotProposal) error {
	for _, slot := range slots {
		if _, err := model.ParseClock(slot.Time); err != nil {
			return invalidInput("%v", err)
		}
	}
	return nil
}

func validateRepeatWeeks(n int) error {
	if n < 1 || n > slotgrid.MaxRepeatWeeks {
		return ErrInvalidRepeatWeeks
	}
	return nil
}
