package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireAdmin пропускает команды только из чата администратора
func (h *Handlers) requireAdmin(ctx context.Context, b *bot.Bot, update *models.Update) bool {
	if update.Message == nil {
		return false
	}

	if !h.allowedChat(update.Message.Chat.ID) {
		h.logger.Warn("Command from foreign chat rejected",
			zap.Int64("chat_id", update.Message.Chat.ID),
			zap.String("text", update.Message.Text),
		)
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Эта команда доступна только администратору.")
		return false
	}

	return true
}

// allowedChat пустой adminChatID закрывает команды для всех чатов
func (h *Handlers) allowedChat(chatID int64) bool {
	return h.adminChatID != 0 && chatID == h.adminChatID
}

// replyServiceError переводит ошибку сервиса в понятное сообщение
func (h *Handlers) replyServiceError(ctx context.Context, b *bot.Bot, chatID int64, err error) {
	text := describeError(err)
	if text == internalErrorText {
		h.logger.Error("Bot command failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	h.sendError(ctx, b, chatID, text)
}

const internalErrorText = "❌ Произошла ошибка. Попробуйте позже."

func describeError(err error) string {
	var insufficient *service.InsufficientTicketsError
	switch {
	case errors.As(err, &insufficient):
		return fmt.Sprintf("❌ Недостаточно билетов: нужно %d, доступно %d.", insufficient.Needed, insufficient.Available)
	case errors.Is(err, service.ErrNotFound):
		return "❌ Занятие не найдено."
	case errors.Is(err, service.ErrAlreadyCancelled):
		return "❌ Занятие уже отменено."
	case errors.Is(err, service.ErrNotCancellable):
		return "❌ Проведённое занятие нельзя отменить."
	case errors.Is(err, service.ErrReasonRequired):
		return "❌ Укажите причину отмены."
	case errors.Is(err, service.ErrInvalidInput):
		return "❌ Неверные параметры: " + err.Error()
	default:
		return internalErrorText
	}
}

// sendError отправляет сообщение об ошибке и логирует если не удалось
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
