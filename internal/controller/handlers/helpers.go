package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

// StatusDisplay содержит emoji и текст для отображения статуса
type StatusDisplay struct {
	Emoji string
	Text  string
}

// GetStatusDisplay возвращает emoji и текст для статуса занятия
func GetStatusDisplay(status model.AppointmentStatus) StatusDisplay {
	switch status {
	case model.AppointmentStatusScheduled:
		return StatusDisplay{Emoji: "📅", Text: "Запланировано"}
	case model.AppointmentStatusCompleted:
		return StatusDisplay{Emoji: "✅", Text: "Проведено"}
	case model.AppointmentStatusCancelled:
		return StatusDisplay{Emoji: "❌", Text: "Отменено"}
	default:
		return StatusDisplay{Emoji: "❔", Text: string(status)}
	}
}

// FormatAppointment форматирует занятие для отображения
func FormatAppointment(a *model.Appointment) string {
	display := GetStatusDisplay(a.Status)

	date := a.Date
	if d, err := model.ParseDate(a.Date); err == nil {
		date = d.Format(displayDateLayout)
	}

	text := fmt.Sprintf(
		"%s Занятие #%d\n"+
			"🗓 %s %s, %d мин\n"+
			"🎫 Билетов: %d\n"+
			"📊 Статус: %s",
		display.Emoji,
		a.ID,
		date, a.Time, a.DurationMinutes,
		a.TicketsUsed,
		display.Text,
	)

	if a.CancelReason != nil {
		text += "\n💬 Причина: " + *a.CancelReason
	}

	return text
}

// commandArgs разбирает текст команды: "/cmd@bot a b" -> ["a", "b"]
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}

// parseID разбирает положительный идентификатор
func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
