package model

// TicketBalance баланс билетов студента на практические занятия
type TicketBalance struct {
	StudentID int64 `json:"studentId"`
	Count     int   `json:"count"`
}
