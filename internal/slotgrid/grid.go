// Package slotgrid переводит жесты указателя на недельной сетке
// в набор слотов, выровненных по 15 минутам.
package slotgrid

import (
	"errors"
	"fmt"
	"math"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

const (
	SnapMinutes      = 15
	DaysPerWeek      = 7
	DefaultStartHour = 6
	DefaultHours     = 14
	MaxRepeatWeeks   = 12
)

var (
	ErrInvalidDay         = errors.New("day column must be between 0 and 6")
	ErrInvalidRepeatWeeks = errors.New("repeat weeks must be between 1 and 12")
	ErrInvalidGrid        = errors.New("invalid grid")
)

// Grid вертикальная разметка дня: Hours строк по часу начиная со StartHour
type Grid struct {
	StartHour int
	Hours     int
}

func DefaultGrid() Grid {
	return Grid{StartHour: DefaultStartHour, Hours: DefaultHours}
}

func (g Grid) Validate() error {
	if g.Hours <= 0 || g.StartHour < 0 || g.StartHour+g.Hours > 24 {
		return fmt.Errorf("%w: start %d, hours %d", ErrInvalidGrid, g.StartHour, g.Hours)
	}
	return nil
}

// MaxOffset последнее допустимое начало слота: начало последней строки сетки
func (g Grid) MaxOffset() int {
	return (g.Hours - 1) * 60
}

// Snap округляет минуты до ближайшей 15-минутной отметки
func Snap(minutes int) int {
	return int(math.Round(float64(minutes)/SnapMinutes)) * SnapMinutes
}

// OffsetFromPct переводит долю высоты сетки в смещение от начала дня в минутах
func (g Grid) OffsetFromPct(yPct float64) int {
	if math.IsNaN(yPct) || yPct < 0 {
		yPct = 0
	}
	if yPct > 1 {
		yPct = 1
	}
	return Snap(int(math.Round(yPct * float64(g.Hours*60))))
}

func (g Grid) clamp(offset int) int {
	return min(max(Snap(offset), 0), g.MaxOffset())
}

// Clock переводит смещение в HH:MM
func (g Grid) Clock(offset int) string {
	return model.FormatClock(g.StartHour*60 + offset)
}

// Slots переводит выделение в слоты с датой колонки дня
func (g Grid) Slots(sel Selection, weekStart string) ([]model.DatedSlot, error) {
	if sel.Day < 0 || sel.Day >= DaysPerWeek {
		return nil, ErrInvalidDay
	}

	date, err := model.AddDays(weekStart, sel.Day)
	if err != nil {
		return nil, err
	}

	offsets := sel.Offsets()
	slots := make([]model.DatedSlot, 0, len(offsets))
	for _, offset := range offsets {
		slots = append(slots, model.DatedSlot{Date: date, Time: g.Clock(offset)})
	}
	return slots, nil
}

// Repeat добавляет те же слоты на weeks-1 следующих недель
func Repeat(slots []model.DatedSlot, weeks int) ([]model.DatedSlot, error) {
	if weeks < 1 || weeks > MaxRepeatWeeks {
		return nil, ErrInvalidRepeatWeeks
	}

	result := make([]model.DatedSlot, 0, len(slots)*weeks)
	for week := 0; week < weeks; week++ {
		for _, slot := range slots {
			date, err := model.AddDays(slot.Date, 7*week)
			if err != nil {
				return nil, err
			}
			result = append(result, model.DatedSlot{Date: date, Time: slot.Time})
		}
	}
	return result, nil
}
