package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

// TelegramNotifier отправляет события в админский чат
type TelegramNotifier struct {
	bot    *bot.Bot
	chatID int64
	logger *zap.Logger
}

func NewTelegramNotifier(b *bot.Bot, chatID int64, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		bot:    b,
		chatID: chatID,
		logger: logger,
	}
}

func (n *TelegramNotifier) Notify(ctx context.Context, event Event) error {
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   FormatEvent(event),
	})
	if err != nil {
		n.logger.Error("Failed to send telegram notification",
			zap.Int64("chat_id", n.chatID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// FormatEvent текст уведомления для человека
func FormatEvent(e Event) string {
	switch e.Type {
	case EventAppointmentCreated:
		return fmt.Sprintf("📅 Занятие #%d создано\nСтудент: %d, учитель: %d\n%s %s\nСписано билетов: %d, остаток: %d",
			e.AppointmentID, e.StudentID, e.TeacherID, e.Date, e.Time, e.TicketsUsed, e.Balance)
	case EventAppointmentUpdated:
		return fmt.Sprintf("✏️ Занятие #%d изменено\n%s %s\nБилетов: %d, остаток у студента: %d",
			e.AppointmentID, e.Date, e.Time, e.TicketsUsed, e.Balance)
	case EventAppointmentCancelled:
		text := fmt.Sprintf("❌ Занятие #%d отменено (%s %s)\nОстаток у студента %d: %d",
			e.AppointmentID, e.Date, e.Time, e.StudentID, e.Balance)
		if e.Reason != "" {
			text += "\nПричина: " + e.Reason
		}
		return text
	case EventAppointmentCompleted:
		return fmt.Sprintf("✅ Занятие #%d проведено (%s %s)", e.AppointmentID, e.Date, e.Time)
	case EventAppointmentDeleted:
		return fmt.Sprintf("🗑 Занятие #%d удалено\nОстаток у студента %d: %d", e.AppointmentID, e.StudentID, e.Balance)
	case EventTicketsAdded:
		return fmt.Sprintf("🎟 Студенту %d начислены билеты, баланс: %d", e.StudentID, e.Balance)
	default:
		return fmt.Sprintf("Событие %s", e.Type)
	}
}
