package slotgrid

import (
	"errors"
	"fmt"
)

// State состояние жеста
type State int

const (
	StateIdle     State = iota // Кнопка не нажата
	StateAnchored              // Нажата, указатель не двигался
	StateDragging              // Нажата и протянута в той же колонке
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAnchored:
		return "anchored"
	case StateDragging:
		return "dragging"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Selection итог одного жеста: колонка дня и отрезок смещений в минутах.
// Start == End означает клик
type Selection struct {
	Day   int
	Start int
	End   int
}

// Offsets возвращает смещения слотов с шагом 15 минут, включая оба конца
func (s Selection) Offsets() []int {
	if s.End <= s.Start {
		return []int{s.Start}
	}

	offsets := make([]int, 0, (s.End-s.Start)/SnapMinutes+1)
	for offset := s.Start; offset <= s.End; offset += SnapMinutes {
		offsets = append(offsets, offset)
	}
	return offsets
}

// Gesture конечный автомат idle -> anchored -> dragging для одного жеста.
// Не потокобезопасен: один экземпляр на одну сетку
type Gesture struct {
	grid   Grid
	state  State
	day    int
	anchor int
	end    int
}

func NewGesture(grid Grid) *Gesture {
	return &Gesture{grid: grid}
}

func (g *Gesture) State() State {
	return g.state
}

// PointerDown ставит якорь. Незавершённый жест начинается заново
func (g *Gesture) PointerDown(day int, yPct float64) error {
	if day < 0 || day >= DaysPerWeek {
		return ErrInvalidDay
	}

	g.day = day
	g.anchor = g.grid.OffsetFromPct(yPct)
	g.end = g.anchor
	g.state = StateAnchored
	return nil
}

// PointerMove двигает конец выделения. Движение в другой колонке
// и движение без нажатой кнопки игнорируются
func (g *Gesture) PointerMove(day int, yPct float64) bool {
	if g.state == StateIdle || day != g.day {
		return false
	}

	g.end = g.grid.OffsetFromPct(yPct)
	g.state = StateDragging
	return true
}

// PointerUp завершает жест и сбрасывает автомат в idle.
// Без предшествующего PointerDown возвращает false
func (g *Gesture) PointerUp() (Selection, bool) {
	if g.state == StateIdle {
		return Selection{}, false
	}

	start := g.grid.clamp(min(g.anchor, g.end))
	end := g.grid.clamp(max(g.anchor, g.end))
	if g.state == StateAnchored {
		end = start
	}

	sel := Selection{Day: g.day, Start: start, End: end}
	g.reset()
	return sel, true
}

func (g *Gesture) reset() {
	g.state = StateIdle
	g.day = 0
	g.anchor = 0
	g.end = 0
}

// EventType тип события указателя
type EventType string

const (
	EventDown EventType = "down"
	EventMove EventType = "move"
	EventUp   EventType = "up"
)

var ErrUnknownEvent = errors.New("unknown pointer event")

// PointerEvent событие указателя над сеткой недели
type PointerEvent struct {
	Type EventType `json:"type"`
	Day  int       `json:"day"`
	YPct float64   `json:"yPct"`
}

// Replay прогоняет последовательность событий через автомат и возвращает
// выделения всех завершённых жестов. Незавершённый жест в конце отбрасывается
func Replay(grid Grid, events []PointerEvent) ([]Selection, error) {
	gesture := NewGesture(grid)

	var selections []Selection
	for i, event := range events {
		switch event.Type {
		case EventDown:
			if err := gesture.PointerDown(event.Day, event.YPct); err != nil {
				return nil, fmt.Errorf("event %d: %w", i, err)
			}
		case EventMove:
			gesture.PointerMove(event.Day, event.YPct)
		case EventUp:
			if sel, ok := gesture.PointerUp(); ok {
				selections = append(selections, sel)
			}
		default:
			return nil, fmt.Errorf("event %d: %w %q", i, ErrUnknownEvent, event.Type)
		}
	}

	return selections, nil
}
