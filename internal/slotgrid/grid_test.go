package slotgrid

import (
	"testing"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pct переводит минуты от начала сетки в долю её высоты
func pct(minutes float64) float64 {
	return minutes / float64(DefaultHours*60)
}

func TestSnap(t *testing.T) {
	cases := map[int]int{
		0:   0,
		7:   0,
		8:   15,
		15:  15,
		37:  30,
		38:  45,
		45:  45,
		52:  45,
		53:  60,
		840: 840,
	}
	for in, want := range cases {
		assert.Equal(t, want, Snap(in), "snap(%d)", in)
	}
}

func TestSnapIsIdempotent(t *testing.T) {
	for m := 0; m <= 14*60; m += SnapMinutes {
		assert.Equal(t, m, Snap(m))
		assert.Equal(t, Snap(m), Snap(Snap(m)))
	}
}

func TestOffsetFromPct(t *testing.T) {
	g := DefaultGrid()

	assert.Equal(t, 0, g.OffsetFromPct(0))
	assert.Equal(t, 0, g.OffsetFromPct(-0.3))
	assert.Equal(t, 840, g.OffsetFromPct(1))
	assert.Equal(t, 840, g.OffsetFromPct(1.7))
	assert.Equal(t, 180, g.OffsetFromPct(pct(187)))
	assert.Equal(t, 420, g.OffsetFromPct(0.5))
}

func TestGridValidate(t *testing.T) {
	assert.NoError(t, DefaultGrid().Validate())
	assert.ErrorIs(t, Grid{StartHour: 6, Hours: 0}.Validate(), ErrInvalidGrid)
	assert.ErrorIs(t, Grid{StartHour: 20, Hours: 6}.Validate(), ErrInvalidGrid)
}

func TestClickEmitsOneSlot(t *testing.T) {
	g := NewGesture(DefaultGrid())

	require.NoError(t, g.PointerDown(0, pct(128)))
	assert.Equal(t, StateAnchored, g.State())

	sel, ok := g.PointerUp()
	require.True(t, ok)
	assert.Equal(t, Selection{Day: 0, Start: 135, End: 135}, sel)
	assert.Equal(t, []int{135}, sel.Offsets())
	assert.Equal(t, StateIdle, g.State())
}

func TestDragEmitsRange(t *testing.T) {
	grid := DefaultGrid()
	g := NewGesture(grid)

	require.NoError(t, g.PointerDown(3, pct(187)))
	assert.True(t, g.PointerMove(3, pct(200)))
	assert.Equal(t, StateDragging, g.State())
	assert.True(t, g.PointerMove(3, pct(232)))

	sel, ok := g.PointerUp()
	require.True(t, ok)

	slots, err := grid.Slots(sel, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, []model.DatedSlot{
		{Date: "2025-03-13", Time: "09:00"},
		{Date: "2025-03-13", Time: "09:15"},
		{Date: "2025-03-13", Time: "09:30"},
		{Date: "2025-03-13", Time: "09:45"},
	}, slots)
}

func TestDragUpwardsIsNormalized(t *testing.T) {
	g := NewGesture(DefaultGrid())

	require.NoError(t, g.PointerDown(1, pct(240)))
	g.PointerMove(1, pct(180))

	sel, ok := g.PointerUp()
	require.True(t, ok)
	assert.Equal(t, []int{180, 195, 210, 225, 240}, sel.Offsets())
}

func TestMoveWithinSameCellIsSingleSlot(t *testing.T) {
	g := NewGesture(DefaultGrid())

	require.NoError(t, g.PointerDown(1, pct(60)))
	assert.True(t, g.PointerMove(1, pct(62)))

	sel, ok := g.PointerUp()
	require.True(t, ok)
	assert.Equal(t, []int{60}, sel.Offsets())
}

func TestCrossColumnMoveIsIgnored(t *testing.T) {
	g := NewGesture(DefaultGrid())

	require.NoError(t, g.PointerDown(2, pct(60)))
	assert.False(t, g.PointerMove(3, pct(240)))
	assert.Equal(t, StateAnchored, g.State())

	sel, ok := g.PointerUp()
	require.True(t, ok)
	assert.Equal(t, Selection{Day: 2, Start: 60, End: 60}, sel)
}

func TestPointerUpWithoutDown(t *testing.T) {
	g := NewGesture(DefaultGrid())

	assert.False(t, g.PointerMove(0, 0.5))
	_, ok := g.PointerUp()
	assert.False(t, ok)
}

func TestPointerDownRejectsBadDay(t *testing.T) {
	g := NewGesture(DefaultGrid())

	assert.ErrorIs(t, g.PointerDown(7, 0.1), ErrInvalidDay)
	assert.ErrorIs(t, g.PointerDown(-1, 0.1), ErrInvalidDay)
	assert.Equal(t, StateIdle, g.State())
}

func TestSelectionIsClampedToGrid(t *testing.T) {
	grid := DefaultGrid()
	g := NewGesture(grid)

	require.NoError(t, g.PointerDown(4, 0.95))
	g.PointerMove(4, 1)

	sel, ok := g.PointerUp()
	require.True(t, ok)
	assert.Equal(t, grid.MaxOffset(), sel.End)

	slots, err := grid.Slots(sel, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "19:00", slots[len(slots)-1].Time)

	require.NoError(t, g.PointerDown(4, 1))
	sel, _ = g.PointerUp()
	assert.Equal(t, []int{780}, sel.Offsets())
}

func TestReplay(t *testing.T) {
	selections, err := Replay(DefaultGrid(), []PointerEvent{
		{Type: EventUp},
		{Type: EventDown, Day: 0, YPct: pct(0)},
		{Type: EventMove, Day: 0, YPct: pct(30)},
		{Type: EventUp},
		{Type: EventDown, Day: 6, YPct: pct(600)},
		{Type: EventUp},
		{Type: EventDown, Day: 5, YPct: pct(90)},
	})
	require.NoError(t, err)
	assert.Equal(t, []Selection{
		{Day: 0, Start: 0, End: 30},
		{Day: 6, Start: 600, End: 600},
	}, selections)

	_, err = Replay(DefaultGrid(), []PointerEvent{{Type: "hover"}})
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = Replay(DefaultGrid(), []PointerEvent{{Type: EventDown, Day: 9}})
	assert.ErrorIs(t, err, ErrInvalidDay)
}

func TestRepeat(t *testing.T) {
	slots := []model.DatedSlot{
		{Date: "2025-03-10", Time: "09:00"},
		{Date: "2025-03-10", Time: "09:15"},
	}

	repeated, err := Repeat(slots, 3)
	require.NoError(t, err)
	assert.Equal(t, []model.DatedSlot{
		{Date: "2025-03-10", Time: "09:00"},
		{Date: "2025-03-10", Time: "09:15"},
		{Date: "2025-03-17", Time: "09:00"},
		{Date: "2025-03-17", Time: "09:15"},
		{Date: "2025-03-24", Time: "09:00"},
		{Date: "2025-03-24", Time: "09:15"},
	}, repeated)

	repeated, err = Repeat(slots, 1)
	require.NoError(t, err)
	assert.Equal(t, slots, repeated)

	for _, n := range []int{0, 13, -1} {
		_, err = Repeat(slots, n)
		assert.ErrorIs(t, err, ErrInvalidRepeatWeeks)
	}
}
