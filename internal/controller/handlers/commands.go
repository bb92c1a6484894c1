package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const helpText = "📚 Справка по командам:\n\n" +
	"Билеты:\n" +
	"/tickets <id студента> - Баланс билетов\n" +
	"/addtickets <id студента> <кол-во> - Пополнить баланс\n\n" +
	"Занятия:\n" +
	"/lessons <id студента> [дата] - Занятия студента\n" +
	"/cancel <id занятия> <причина> - Отменить занятие от имени учителя\n\n" +
	"Расписание:\n" +
	"/schedule <id учителя> [понедельник недели] - Картинка недели\n\n" +
	"Даты в формате ГГГГ-ММ-ДД. Один билет = 45 минут занятия."

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	name := "администратор"
	if update.Message.From != nil && update.Message.From.FirstName != "" {
		name = update.Message.From.FirstName
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID,
		"👋 Привет, "+name+"!\n\n"+
			"Это бот автошколы для учёта практических занятий.\n\n"+helpText)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}
