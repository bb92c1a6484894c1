package service

import (
	"errors"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/slotgrid"
)

// Ошибки операций. Все они — нарушение предусловий, повтор не поможет
var (
	ErrNotFound            = errors.New("appointment not found")
	ErrInsufficientTickets = errors.New("insufficient tickets")
	ErrNotScheduled        = errors.New("appointment is not scheduled")
	ErrAlreadyCancelled    = errors.New("appointment already cancelled")
	ErrNotCancellable      = errors.New("completed appointment cannot be cancelled")
	ErrReasonRequired      = errors.New("cancel reason is required")
	ErrInvalidInput        = errors.New("invalid input")

	ErrSlotNotFound       = errors.New("slot not found")
	ErrSlotBooked         = errors.New("slot is booked")
	ErrSlotUnavailable    = errors.New("slot is not available")
	ErrInvalidRepeatWeeks = slotgrid.ErrInvalidRepeatWeeks
)

// InsufficientTicketsError несёт данные для показа клиенту
type InsufficientTicketsError struct {
	Needed    int
	Available int
}

func (e *InsufficientTicketsError) Error() string {
	return fmt.Sprintf("insufficient tickets: needed %d, available %d", e.Needed, e.Available)
}

// Is позволяет проверять ошибку через errors.Is(err, ErrInsufficientTickets)
func (e *InsufficientTicketsError) Is(target error) bool {
	return target == ErrInsufficientTickets
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
