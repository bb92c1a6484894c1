package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMondayOf(t *testing.T) {
	cases := map[string]string{
		"2025-03-10": "2025-03-10", // понедельник
		"2025-03-12": "2025-03-10",
		"2025-03-16": "2025-03-10", // воскресенье
		"2025-03-17": "2025-03-17",
	}

	for in, want := range cases {
		d, err := time.Parse("2006-01-02", in)
		require.NoError(t, err)
		assert.Equal(t, want, MondayOf(d.Add(15*time.Hour)).Format("2006-01-02"), in)
	}
}

func TestWeekImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.topUp(t, studentID, 2)
	_, err := f.availability.UpsertSlots(ctx, teacherID, "2025-03-11", []model.SlotProposal{
		{Time: "09:00", Available: true},
		{Time: "09:15", Available: true},
	})
	require.NoError(t, err)
	_, err = f.appointments.Create(ctx, lesson(45))
	require.NoError(t, err)

	schedule := NewScheduleService(f.availability, f.appointments, zap.NewNop())
	schedule.now = f.appointments.now

	png, err := schedule.WeekImage(ctx, teacherID, "2025-03-10")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	// без даты берётся текущая неделя
	png, err = schedule.WeekImage(ctx, teacherID, "")
	require.NoError(t, err)
	assert.NotEmpty(t, png)

	_, err = schedule.WeekImage(ctx, teacherID, "03/10/2025")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
