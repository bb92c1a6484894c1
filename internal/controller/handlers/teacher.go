package handlers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleSchedule обрабатывает команду /schedule <id учителя> [понедельник]
func (h *Handlers) HandleSchedule(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.requireAdmin(ctx, b, update) {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) < 1 || len(args) > 2 {
		h.sendError(ctx, b, chatID, usageSchedule)
		return
	}
	teacherID, ok := parseID(args[0])
	if !ok {
		h.sendError(ctx, b, chatID, usageSchedule)
		return
	}
	weekStart := ""
	if len(args) == 2 {
		weekStart = args[1]
	}

	imageData, err := h.schedule.WeekImage(ctx, teacherID, weekStart)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, err)
		return
	}

	_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileUpload{Filename: "week.png", Data: bytes.NewReader(imageData)},
		Caption: fmt.Sprintf("🗓 Расписание учителя #%d", teacherID),
	})
	if err != nil {
		h.logger.Error("Failed to send week image",
			zap.Int64("chat_id", chatID),
			zap.Int64("teacher_id", teacherID),
			zap.Error(err),
		)
	}
}

// HandleCancel обрабатывает команду /cancel <id занятия> <причина>.
// Отмена идёт от имени учителя, поэтому причина обязательна
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.requireAdmin(ctx, b, update) {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) < 1 {
		h.sendError(ctx, b, chatID, usageCancel)
		return
	}
	appointmentID, ok := parseID(args[0])
	if !ok {
		h.sendError(ctx, b, chatID, usageCancel)
		return
	}

	in := service.CancelInput{CancelledBy: model.CancelledByTeacher}
	if reason := strings.Join(args[1:], " "); reason != "" {
		in.Reason = &reason
	}

	appointment, err := h.appointments.Cancel(ctx, appointmentID, in)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, "✅ Занятие отменено, билеты возвращены.\n\n"+FormatAppointment(appointment))
}
