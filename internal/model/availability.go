package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// TimeSlot один слот в расписании учителя
type TimeSlot struct {
	Time      string `json:"time"` // HH:MM
	Available bool   `json:"available"`
	BookedBy  *int64 `json:"bookedBy,omitempty"` // указатель - может быть nil
}

// TeacherAvailability слоты учителя на одну дату
type TeacherAvailability struct {
	ID        uuid.UUID  `json:"id"`
	TeacherID int64      `json:"teacherId"`
	Date      string     `json:"date"` // YYYY-MM-DD
	BatchID   *uuid.UUID `json:"batchId,omitempty"`
	TimeSlots []TimeSlot `json:"timeSlots"`
	CreatedAt time.Time  `json:"createdAt"`
}

// SlotProposal предложенный слот (результат квантования жеста или ввода)
type SlotProposal struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// DatedSlot слот с датой, например для повторения по неделям
type DatedSlot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// FindSlot возвращает индекс слота по времени или -1
func (a *TeacherAvailability) FindSlot(t string) int {
	for i := range a.TimeSlots {
		if a.TimeSlots[i].Time == t {
			return i
		}
	}
	return -1
}

// SortSlots сортирует слоты по времени (HH:MM сортируется лексикографически)
func (a *TeacherAvailability) SortSlots() {
	sort.Slice(a.TimeSlots, func(i, j int) bool {
		return a.TimeSlots[i].Time < a.TimeSlots[j].Time
	})
}
