package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/notify"
	"github.com/Freeeeeet/lesson_booking/internal/repository/memory"
	"github.com/Freeeeeet/lesson_booking/internal/slotgrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	teacherID = int64(10)
	studentID = int64(20)
)

type fixture struct {
	store        *memory.Store
	events       *recorder
	tickets      *TicketService
	appointments *AppointmentService
	availability *AvailabilityService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	events := &recorder{}
	logger := zap.NewNop()

	appointments := NewAppointmentService(store, events, logger)
	appointments.now = func() time.Time {
		return time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	}

	return &fixture{
		store:        store,
		events:       events,
		tickets:      NewTicketService(store, nil, logger),
		appointments: appointments,
		availability: NewAvailabilityService(store, slotgrid.DefaultGrid(), logger),
	}
}

func (f *fixture) topUp(t *testing.T, student int64, count int) {
	t.Helper()
	_, err := f.tickets.Add(context.Background(), student, count)
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, student int64) int {
	t.Helper()
	balance, err := f.tickets.BalanceOf(context.Background(), student)
	require.NoError(t, err)
	return balance
}

func lesson(duration int) CreateInput {
	return CreateInput{
		TeacherID:       teacherID,
		StudentID:       studentID,
		Date:            "2025-03-10",
		Time:            "09:00",
		DurationMinutes: duration,
	}
}

func ptr[T any](v T) *T {
	return &v
}

func TestTicketsNeeded(t *testing.T) {
	cases := map[int]int{45: 1, 46: 2, 90: 2, 91: 3, 135: 3, 1: 1, 0: 0}
	for duration, want := range cases {
		assert.Equal(t, want, model.TicketsNeeded(duration), "duration %d", duration)
	}
}

func TestCreateConsumesTickets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 2)

	appointment, err := f.appointments.Create(ctx, lesson(90))
	require.NoError(t, err)
	assert.Equal(t, 2, appointment.TicketsUsed)
	assert.Equal(t, model.AppointmentStatusScheduled, appointment.Status)
	assert.NotZero(t, appointment.ID)
	assert.Equal(t, 0, f.balance(t, studentID))

	_, err = f.appointments.Create(ctx, lesson(45))
	var insufficient *InsufficientTicketsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 1, insufficient.Needed)
	assert.Equal(t, 0, insufficient.Available)
	assert.ErrorIs(t, err, ErrInsufficientTickets)

	list, err := f.appointments.ListByStudent(ctx, studentID, "")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 5)

	bad := []CreateInput{
		{TeacherID: teacherID, StudentID: studentID, Date: "2025-03-10", Time: "09:00", DurationMinutes: 0},
		{TeacherID: teacherID, StudentID: studentID, Date: "10.03.2025", Time: "09:00", DurationMinutes: 45},
		{TeacherID: teacherID, StudentID: studentID, Date: "2025-03-10", Time: "9:00", DurationMinutes: 45},
		{TeacherID: 0, StudentID: studentID, Date: "2025-03-10", Time: "09:00", DurationMinutes: 45},
	}
	for _, in := range bad {
		_, err := f.appointments.Create(ctx, in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	assert.Equal(t, 5, f.balance(t, studentID))
}

func TestUpdateDurationAdjustsTickets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 3)

	appointment, err := f.appointments.Create(ctx, lesson(45))
	require.NoError(t, err)
	assert.Equal(t, 2, f.balance(t, studentID))

	updated, err := f.appointments.Update(ctx, appointment.ID, UpdateInput{DurationMinutes: ptr(135)})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.TicketsUsed)
	assert.Equal(t, 0, f.balance(t, studentID))

	updated, err = f.appointments.Update(ctx, appointment.ID, UpdateInput{DurationMinutes: ptr(45)})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TicketsUsed)
	assert.Equal(t, 2, f.balance(t, studentID))
	require.NotNil(t, updated.UpdatedAt)
}

func TestUpdateIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 1)

	appointment, err := f.appointments.Create(ctx, lesson(45))
	require.NoError(t, err)

	_, err = f.appointments.Update(ctx, appointment.ID, UpdateInput{
		Date:            ptr("2025-03-11"),
		Time:            ptr("10:00"),
		DurationMinutes: ptr(90),
	})
	var insufficient *InsufficientTicketsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 1, insufficient.Needed)
	assert.Equal(t, 0, insufficient.Available)

	stored, err := f.appointments.Get(ctx, appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", stored.Date)
	assert.Equal(t, "09:00", stored.Time)
	assert.Equal(t, 45, stored.DurationMinutes)
	assert.Equal(t, 1, stored.TicketsUsed)
	assert.Nil(t, stored.UpdatedAt)
	assert.Equal(t, 0, f.balance(t, studentID))
}

func TestUpdateDateTimeOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 1)

	appointment, err := f.appointments.Create(ctx, lesson(45))
	require.NoError(t, err)

	updated, err := f.appointments.Update(ctx, appointment.ID, UpdateInput{Date: ptr("2025-03-12"), Time: ptr("11:30")})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-12", updated.Date)
	assert.Equal(t, "11:30", updated.Time)
	assert.Equal(t, 1, updated.TicketsUsed)
	assert.Equal(t, 0, f.balance(t, studentID))
}

func TestUpdateRequiresScheduled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 1)

	appointment, err := f.appointments.Create(ctx, lesson(45))
	require.NoError(t, err)
	_, err = f.appointments.Complete(ctx, appointment.ID)
	require.NoError(t, err)

	_, err = f.appointments.Update(ctx, appointment.ID, UpdateInput{DurationMinutes: ptr(90)})
	assert.ErrorIs(t, err, ErrNotScheduled)

	_, err = f.appointments.Update(ctx, 999, UpdateInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTeacherCancelRequiresReason(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 2)

	appointment, err := f.appointments.Create(ctx, lesson(45))
	require.NoError(t, err)

	for _, reason := range []*string{nil, ptr("   ")} {
		_, err = f.appointments.Cancel(ctx, appointment.ID, CancelInput{CancelledBy: model.CancelledByTeacher, Reason: reason})
		assert.ErrorIs(t, err, ErrReasonRequired)
	}

	stored, err := f.appointments.Get(ctx, appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, stored.Status)
	assert.Equal(t, 1, f.balance(t, studentID))
}

func TestCancelRefundsTickets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 3)

	appointment, err := f.appointments.Create(ctx, lesson(90))
	require.NoError(t, err)
	assert.Equal(t, 1, f.balance(t, studentID))

	cancelled, err := f.appointments.Cancel(ctx, appointment.ID, CancelInput{
		CancelledBy: model.CancelledByTeacher,
		Reason:      ptr("машина в ремонте"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, model.CancelledByTeacher, *cancelled.CancelledBy)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "машина в ремонте", *cancelled.CancelReason)
	assert.Equal(t, 2, cancelled.TicketsUsed)
	assert.Equal(t, 3, f.balance(t, studentID))

	_, err = f.appointments.Cancel(ctx, appointment.ID, CancelInput{CancelledBy: model.CancelledByStudent})
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.Equal(t, 3, f.balance(t, studentID))
}

func TestStudentCancelWithoutReason(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 1)

	appointment, err := f.appointments.Create(ctx, lesson(45))
	require.NoError(t, err)

	cancelled, err := f.appointments.Cancel(ctx, appointment.ID, CancelInput{CancelledBy: model.CancelledByStudent})
	require.NoError(t, err)
	assert.Nil(t, cancelled.CancelReason)
	assert.Equal(t, 1, f.balance(t, studentID))

	_, err = f.appointments.Cancel(ctx, 999, CancelInput{CancelledBy: model.CancelledByStudent})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.appointments.Cancel(ctx, appointment.ID, CancelInput{CancelledBy: "admin"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompletedAppointmentIsNotCancellable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 1)

	appointment, err := f.appointments.Create(ctx, lesson(45))
	require.NoError(t, err)

	completed, err := f.appointments.Complete(ctx, appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, completed.Status)
	assert.Equal(t, 0, f.balance(t, studentID))

	_, err = f.appointments.Cancel(ctx, appointment.ID, CancelInput{CancelledBy: model.CancelledByStudent})
	assert.ErrorIs(t, err, ErrNotCancellable)

	_, err = f.appointments.Complete(ctx, appointment.ID)
	assert.ErrorIs(t, err, ErrNotScheduled)
	assert.Equal(t, 0, f.balance(t, studentID))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 4)

	scheduled, err := f.appointments.Create(ctx, lesson(90))
	require.NoError(t, err)
	completed, err := f.appointments.Create(ctx, lesson(45))
	require.NoError(t, err)
	_, err = f.appointments.Complete(ctx, completed.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.balance(t, studentID))

	require.NoError(t, f.appointments.Delete(ctx, scheduled.ID))
	assert.Equal(t, 3, f.balance(t, studentID))

	require.NoError(t, f.appointments.Delete(ctx, completed.ID))
	assert.Equal(t, 3, f.balance(t, studentID))

	_, err = f.appointments.Get(ctx, scheduled.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.appointments.Delete(ctx, scheduled.ID), ErrNotFound)
}

func TestDeleteCancelledDoesNotRefundTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 2)

	appointment, err := f.appointments.Create(ctx, lesson(90))
	require.NoError(t, err)
	_, err = f.appointments.Cancel(ctx, appointment.ID, CancelInput{CancelledBy: model.CancelledByStudent})
	require.NoError(t, err)

	require.NoError(t, f.appointments.Delete(ctx, appointment.ID))
	assert.Equal(t, 2, f.balance(t, studentID))
}

func TestTicketConservation(t *testing.T) {
	ctx := context.Background()

	finishers := map[string]func(f *fixture, id int64) error{
		"cancel": func(f *fixture, id int64) error {
			_, err := f.appointments.Cancel(ctx, id, CancelInput{CancelledBy: model.CancelledByStudent})
			return err
		},
		"delete": func(f *fixture, id int64) error {
			return f.appointments.Delete(ctx, id)
		},
	}

	for name, finish := range finishers {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.topUp(t, studentID, 6)

			appointment, err := f.appointments.Create(ctx, lesson(100))
			require.NoError(t, err)
			for _, d := range []int{30, 180, 91} {
				_, err = f.appointments.Update(ctx, appointment.ID, UpdateInput{DurationMinutes: ptr(d)})
				require.NoError(t, err)
			}
			assert.Equal(t, 3, f.balance(t, studentID))

			require.NoError(t, finish(f, appointment.ID))
			assert.Equal(t, 6, f.balance(t, studentID))
		})
	}
}

func TestConcurrentCreateNeverOverspends(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 3)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.appointments.Create(ctx, lesson(45))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrInsufficientTickets)
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 0, f.balance(t, studentID))
}

func TestConcurrentCancelAndCompleteHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 1)

	appointment, err := f.appointments.Create(ctx, lesson(45))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = f.appointments.Cancel(ctx, appointment.ID, CancelInput{CancelledBy: model.CancelledByStudent})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = f.appointments.Complete(ctx, appointment.ID)
	}()
	wg.Wait()

	stored, err := f.appointments.Get(ctx, appointment.ID)
	require.NoError(t, err)

	switch stored.Status {
	case model.AppointmentStatusCancelled:
		assert.NoError(t, errs[0])
		assert.ErrorIs(t, errs[1], ErrNotScheduled)
		assert.Equal(t, 1, f.balance(t, studentID))
	case model.AppointmentStatusCompleted:
		assert.NoError(t, errs[1])
		assert.ErrorIs(t, errs[0], ErrNotCancellable)
		assert.Equal(t, 0, f.balance(t, studentID))
	default:
		t.Fatalf("unexpected status %s", stored.Status)
	}
}

func TestBookMarksSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 2)

	_, err := f.availability.UpsertSlots(ctx, teacherID, "2025-03-10", []model.SlotProposal{
		{Time: "09:00", Available: true},
		{Time: "10:00", Available: true},
	})
	require.NoError(t, err)

	appointment, err := f.appointments.Book(ctx, lesson(45))
	require.NoError(t, err)

	day, err := f.availability.Get(ctx, teacherID, "2025-03-10")
	require.NoError(t, err)
	slot := day.TimeSlots[day.FindSlot("09:00")]
	assert.False(t, slot.Available)
	require.NotNil(t, slot.BookedBy)
	assert.Equal(t, studentID, *slot.BookedBy)

	// Второй ученик не может занять тот же слот, билеты не списываются
	f.topUp(t, 21, 1)
	other := lesson(45)
	other.StudentID = 21
	_, err = f.appointments.Book(ctx, other)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Equal(t, 1, f.balance(t, 21))

	other.Time = "11:00"
	_, err = f.appointments.Book(ctx, other)
	assert.ErrorIs(t, err, ErrSlotNotFound)

	_, err = f.appointments.Cancel(ctx, appointment.ID, CancelInput{CancelledBy: model.CancelledByStudent})
	require.NoError(t, err)

	day, err = f.availability.Get(ctx, teacherID, "2025-03-10")
	require.NoError(t, err)
	slot = day.TimeSlots[day.FindSlot("09:00")]
	assert.True(t, slot.Available)
	assert.Nil(t, slot.BookedBy)
}

func TestBookRollsBackSlotOnInsufficientTickets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.availability.UpsertSlots(ctx, teacherID, "2025-03-10", []model.SlotProposal{{Time: "09:00", Available: true}})
	require.NoError(t, err)

	_, err = f.appointments.Book(ctx, lesson(45))
	assert.ErrorIs(t, err, ErrInsufficientTickets)

	day, err := f.availability.Get(ctx, teacherID, "2025-03-10")
	require.NoError(t, err)
	assert.True(t, day.TimeSlots[0].Available)
}

func TestUpdateMovesBookedSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 1)

	_, err := f.availability.UpsertSlots(ctx, teacherID, "2025-03-10", []model.SlotProposal{
		{Time: "09:00", Available: true},
		{Time: "10:00", Available: true},
	})
	require.NoError(t, err)

	appointment, err := f.appointments.Book(ctx, lesson(45))
	require.NoError(t, err)

	_, err = f.appointments.Update(ctx, appointment.ID, UpdateInput{Time: ptr("10:00")})
	require.NoError(t, err)

	day, err := f.availability.Get(ctx, teacherID, "2025-03-10")
	require.NoError(t, err)
	assert.True(t, day.TimeSlots[day.FindSlot("09:00")].Available)
	assert.False(t, day.TimeSlots[day.FindSlot("10:00")].Available)

	// Перенос на время без слота не ломает обновление
	updated, err := f.appointments.Update(ctx, appointment.ID, UpdateInput{Time: ptr("12:00")})
	require.NoError(t, err)
	assert.Equal(t, "12:00", updated.Time)

	day, err = f.availability.Get(ctx, teacherID, "2025-03-10")
	require.NoError(t, err)
	assert.True(t, day.TimeSlots[day.FindSlot("10:00")].Available)
}

func TestBookedSlotSurvivesSiblingAppointment(t *testing.T) {
	finish := map[string]func(f *fixture, id int64) error{
		"cancel": func(f *fixture, id int64) error {
			_, err := f.appointments.Cancel(context.Background(), id, CancelInput{CancelledBy: model.CancelledByStudent})
			return err
		},
		"delete": func(f *fixture, id int64) error {
			return f.appointments.Delete(context.Background(), id)
		},
	}

	for name, fn := range finish {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			f.topUp(t, studentID, 2)
			f.topUp(t, 21, 1)

			_, err := f.availability.UpsertSlots(ctx, teacherID, "2025-03-10", []model.SlotProposal{{Time: "09:00", Available: true}})
			require.NoError(t, err)

			booked, err := f.appointments.Book(ctx, lesson(45))
			require.NoError(t, err)
			assert.True(t, booked.SlotHeld)

			// Обычное занятие того же ученика на то же время слот не держит
			plain, err := f.appointments.Create(ctx, lesson(45))
			require.NoError(t, err)
			assert.False(t, plain.SlotHeld)

			require.NoError(t, fn(f, plain.ID))

			day, err := f.availability.Get(ctx, teacherID, "2025-03-10")
			require.NoError(t, err)
			slot := day.TimeSlots[day.FindSlot("09:00")]
			assert.False(t, slot.Available)
			require.NotNil(t, slot.BookedBy)
			assert.Equal(t, studentID, *slot.BookedBy)

			other := lesson(45)
			other.StudentID = 21
			_, err = f.appointments.Book(ctx, other)
			assert.ErrorIs(t, err, ErrSlotUnavailable)
			assert.Equal(t, 1, f.balance(t, 21))
		})
	}
}

func TestUpdateRebooksSlotAfterMoveWithoutSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 1)

	_, err := f.availability.UpsertSlots(ctx, teacherID, "2025-03-10", []model.SlotProposal{
		{Time: "09:00", Available: true},
		{Time: "10:00", Available: true},
	})
	require.NoError(t, err)

	appointment, err := f.appointments.Book(ctx, lesson(45))
	require.NoError(t, err)

	moved, err := f.appointments.Update(ctx, appointment.ID, UpdateInput{Time: ptr("12:00")})
	require.NoError(t, err)
	assert.False(t, moved.SlotHeld)
	assert.True(t, moved.SlotBound)

	moved, err = f.appointments.Update(ctx, appointment.ID, UpdateInput{Time: ptr("10:00")})
	require.NoError(t, err)
	assert.True(t, moved.SlotHeld)

	day, err := f.availability.Get(ctx, teacherID, "2025-03-10")
	require.NoError(t, err)
	assert.True(t, day.TimeSlots[day.FindSlot("09:00")].Available)
	slot := day.TimeSlots[day.FindSlot("10:00")]
	assert.False(t, slot.Available)
	require.NotNil(t, slot.BookedBy)
	assert.Equal(t, studentID, *slot.BookedBy)

	stored, err := f.appointments.Get(ctx, appointment.ID)
	require.NoError(t, err)
	assert.True(t, stored.SlotHeld)
}

func TestUpdatePlainAppointmentLeavesSlotsAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 1)

	_, err := f.availability.UpsertSlots(ctx, teacherID, "2025-03-10", []model.SlotProposal{{Time: "10:00", Available: true}})
	require.NoError(t, err)

	appointment, err := f.appointments.Create(ctx, lesson(45))
	require.NoError(t, err)

	_, err = f.appointments.Update(ctx, appointment.ID, UpdateInput{Time: ptr("10:00")})
	require.NoError(t, err)

	day, err := f.availability.Get(ctx, teacherID, "2025-03-10")
	require.NoError(t, err)
	assert.True(t, day.TimeSlots[day.FindSlot("10:00")].Available)
}

func TestAutoCompleteEnded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 5)

	ended, err := f.appointments.Create(ctx, CreateInput{TeacherID: teacherID, StudentID: studentID, Date: "2025-03-10", Time: "09:00", DurationMinutes: 45})
	require.NoError(t, err)
	running, err := f.appointments.Create(ctx, CreateInput{TeacherID: teacherID, StudentID: studentID, Date: "2025-03-10", Time: "09:30", DurationMinutes: 90})
	require.NoError(t, err)
	future, err := f.appointments.Create(ctx, CreateInput{TeacherID: teacherID, StudentID: studentID, Date: "2025-03-11", Time: "08:00", DurationMinutes: 45})
	require.NoError(t, err)

	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	count, err := f.appointments.AutoCompleteEnded(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	for id, want := range map[int64]model.AppointmentStatus{
		ended.ID:   model.AppointmentStatusCompleted,
		running.ID: model.AppointmentStatusScheduled,
		future.ID:  model.AppointmentStatusScheduled,
	} {
		stored, err := f.appointments.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, stored.Status, "appointment %d", id)
	}
}

func TestEventsEmittedAfterCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.topUp(t, studentID, 2)

	appointment, err := f.appointments.Create(ctx, lesson(45))
	require.NoError(t, err)
	_, err = f.appointments.Create(ctx, lesson(135))
	require.Error(t, err)
	_, err = f.appointments.Update(ctx, appointment.ID, UpdateInput{Time: ptr("10:00")})
	require.NoError(t, err)
	_, err = f.appointments.Cancel(ctx, appointment.ID, CancelInput{CancelledBy: model.CancelledByTeacher, Reason: ptr("болезнь")})
	require.NoError(t, err)
	require.NoError(t, f.appointments.Delete(ctx, appointment.ID))

	assert.Equal(t, []notify.EventType{
		notify.EventAppointmentCreated,
		notify.EventAppointmentUpdated,
		notify.EventAppointmentCancelled,
		notify.EventAppointmentDeleted,
	}, f.events.types())

	cancelled := f.events.events[2]
	assert.Equal(t, "болезнь", cancelled.Reason)
	assert.Equal(t, 2, cancelled.Balance)
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, notify.Event) error {
	return errors.New("broker down")
}

func TestNotifierFailureDoesNotFailOperation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	logger := zap.NewNop()

	_, err := NewTicketService(store, nil, logger).Add(ctx, studentID, 1)
	require.NoError(t, err)

	svc := NewAppointmentService(store, failingNotifier{}, logger)
	appointment, err := svc.Create(ctx, lesson(45))
	require.NoError(t, err)
	assert.NotZero(t, appointment.ID)
}
