package model

import "time"

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled" // Запланировано, билеты списаны
	AppointmentStatusCancelled AppointmentStatus = "cancelled" // Отменено
	AppointmentStatusCompleted AppointmentStatus = "completed" // Проведено
)

// CancelledBy кто инициировал отмену
type CancelledBy string

const (
	CancelledByStudent CancelledBy = "student"
	CancelledByTeacher CancelledBy = "teacher"
)

// Valid проверяет что значение допустимо
func (c CancelledBy) Valid() bool {
	return c == CancelledByStudent || c == CancelledByTeacher
}

// TicketMinutes длительность занятия, покрываемая одним билетом
const TicketMinutes = 45

type Appointment struct {
	ID              int64             `json:"id"`
	TeacherID       int64             `json:"teacherId"`
	StudentID       int64             `json:"studentId"`
	Date            string            `json:"date"` // YYYY-MM-DD
	Time            string            `json:"time"` // HH:MM
	DurationMinutes int               `json:"durationMinutes"`
	TicketsUsed     int               `json:"ticketsUsed"`
	Status          AppointmentStatus `json:"status"`
	CancelReason    *string           `json:"cancelReason,omitempty"`
	CancelledBy     *CancelledBy      `json:"cancelledBy,omitempty"`
	// SlotBound занятие создано строгой записью и следует за слотом учителя при переносе
	SlotBound       bool              `json:"slotBound"`
	// SlotHeld слот учителя на date/time сейчас занят именно этим занятием
	SlotHeld        bool              `json:"slotHeld"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       *time.Time        `json:"updatedAt,omitempty"`
}

// IsScheduled checks if appointment can still be edited
func (a *Appointment) IsScheduled() bool {
	return a.Status == AppointmentStatusScheduled
}

// StartsAt возвращает начало занятия в указанной локации
func (a *Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, a.Date+" "+a.Time, loc)
}

// EndsAt возвращает окончание занятия
func (a *Appointment) EndsAt(loc *time.Location) (time.Time, error) {
	start, err := a.StartsAt(loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(a.DurationMinutes) * time.Minute), nil
}

// TicketsNeeded считает сколько билетов нужно на занятие: ceil(duration / 45)
func TicketsNeeded(durationMinutes int) int {
	if durationMinutes <= 0 {
		return 0
	}
	return (durationMinutes + TicketMinutes - 1) / TicketMinutes
}
