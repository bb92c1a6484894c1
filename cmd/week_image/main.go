// Команда week_image рисует пример недели на хранилище в памяти,
// чтобы проверить отрисовку без базы и бота.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/app"
	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/memory"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/Freeeeeet/lesson_booking/internal/slotgrid"
	"go.uber.org/zap"
)

const (
	teacherID = 1
	studentID = 100
)

func main() {
	out := flag.String("out", "week.png", "output file")
	flag.Parse()

	logger := app.NewLogger("development")
	defer logger.Sync()

	if err := run(context.Background(), *out, logger); err != nil {
		logger.Error("Failed to render sample week", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, out string, logger *zap.Logger) error {
	store := memory.NewStore()
	grid := slotgrid.DefaultGrid()

	tickets := service.NewTicketService(store, nil, logger)
	appointments := service.NewAppointmentService(store, nil, logger)
	availability := service.NewAvailabilityService(store, grid, logger)
	schedule := service.NewScheduleService(availability, appointments, logger)

	weekStart := service.MondayOf(time.Now()).Format(model.DateLayout)
	hour := func(h float64) float64 { return (h - float64(grid.StartHour)) / float64(grid.Hours) }

	// Понедельник 09:00-11:00 и среда 15:00-16:00 перетаскиванием, пятница 11:00 кликом
	events := []slotgrid.PointerEvent{
		{Type: slotgrid.EventDown, Day: 0, YPct: hour(9)},
		{Type: slotgrid.EventMove, Day: 0, YPct: hour(10.75)},
		{Type: slotgrid.EventUp},
		{Type: slotgrid.EventDown, Day: 2, YPct: hour(15)},
		{Type: slotgrid.EventMove, Day: 2, YPct: hour(15.75)},
		{Type: slotgrid.EventUp},
		{Type: slotgrid.EventDown, Day: 4, YPct: hour(11)},
		{Type: slotgrid.EventUp},
	}
	result, err := availability.ApplyGesture(ctx, teacherID, weekStart, events, 1)
	if err != nil {
		return fmt.Errorf("apply gesture: %w", err)
	}

	if _, err := tickets.Add(ctx, studentID, 5); err != nil {
		return fmt.Errorf("add tickets: %w", err)
	}

	booked, err := appointments.Book(ctx, service.CreateInput{
		TeacherID: teacherID, StudentID: studentID, Date: weekStart, Time: "09:00", DurationMinutes: 90,
	})
	if err != nil {
		return fmt.Errorf("book lesson: %w", err)
	}

	wednesday, _ := model.AddDays(weekStart, 2)
	cancelled, err := appointments.Book(ctx, service.CreateInput{
		TeacherID: teacherID, StudentID: studentID, Date: wednesday, Time: "15:00", DurationMinutes: 45,
	})
	if err != nil {
		return fmt.Errorf("book lesson: %w", err)
	}
	reason := "Перенос по просьбе студента"
	if _, err := appointments.Cancel(ctx, cancelled.ID, service.CancelInput{
		CancelledBy: model.CancelledByStudent, Reason: &reason,
	}); err != nil {
		return fmt.Errorf("cancel lesson: %w", err)
	}

	imageData, err := schedule.WeekImage(ctx, teacherID, weekStart)
	if err != nil {
		return err
	}

	if err := os.WriteFile(out, imageData, 0644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	balance, _ := tickets.BalanceOf(ctx, studentID)
	logger.Info("✅ Sample week rendered",
		zap.String("file", out),
		zap.String("week_start", weekStart),
		zap.Int("slots", len(result.Slots)),
		zap.Int64("lesson_id", booked.ID),
		zap.Int("balance", balance),
	)
	return nil
}
