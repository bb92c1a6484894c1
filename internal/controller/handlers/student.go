package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleTickets обрабатывает команду /tickets <id студента>
func (h *Handlers) HandleTickets(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.requireAdmin(ctx, b, update) {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) != 1 {
		h.sendError(ctx, b, chatID, usageTickets)
		return
	}
	studentID, ok := parseID(args[0])
	if !ok {
		h.sendError(ctx, b, chatID, usageTickets)
		return
	}

	balance, err := h.tickets.BalanceOf(ctx, studentID)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("🎫 Студент #%d: %d билет(ов)", studentID, balance))
}

// HandleAddTickets обрабатывает команду /addtickets <id студента> <количество>
func (h *Handlers) HandleAddTickets(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.requireAdmin(ctx, b, update) {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) != 2 {
		h.sendError(ctx, b, chatID, usageAddTickets)
		return
	}
	studentID, ok := parseID(args[0])
	count, err := strconv.Atoi(args[1])
	if !ok || err != nil || count <= 0 {
		h.sendError(ctx, b, chatID, usageAddTickets)
		return
	}

	balance, err := h.tickets.Add(ctx, studentID, count)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, err)
		return
	}

	h.logger.Info("Tickets added from bot",
		zap.Int64("chat_id", chatID),
		zap.Int64("student_id", studentID),
		zap.Int("count", count),
	)

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Студенту #%d добавлено %d. Баланс: %d", studentID, count, balance))
}

// HandleLessons обрабатывает команду /lessons <id студента> [дата]
func (h *Handlers) HandleLessons(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.requireAdmin(ctx, b, update) {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) < 1 || len(args) > 2 {
		h.sendError(ctx, b, chatID, usageLessons)
		return
	}
	studentID, ok := parseID(args[0])
	if !ok {
		h.sendError(ctx, b, chatID, usageLessons)
		return
	}
	date := ""
	if len(args) == 2 {
		date = args[1]
	}

	lessons, err := h.appointments.ListByStudent(ctx, studentID, date)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, err)
		return
	}

	if len(lessons) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 Занятий не найдено.")
		return
	}

	parts := make([]string, 0, len(lessons))
	for i, lesson := range lessons {
		if i == maxLessonsInReply {
			parts = append(parts, fmt.Sprintf("… и ещё %d", len(lessons)-maxLessonsInReply))
			break
		}
		parts = append(parts, FormatAppointment(lesson))
	}

	h.sendMessage(ctx, b, chatID, strings.Join(parts, "\n\n"))
}
