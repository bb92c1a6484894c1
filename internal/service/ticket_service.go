package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/notify"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"go.uber.org/zap"
)

// ConsumeResult результат списания билетов
type ConsumeResult struct {
	OK        bool `json:"ok"`
	Remaining int  `json:"remaining"`
}

// TicketLedger операции над балансом билетов поверх одного репозитория.
// Внутри транзакции создаётся заново из tx.Tickets()
type TicketLedger struct {
	tickets repository.TicketRepository
	logger  *zap.Logger
}

func NewTicketLedger(tickets repository.TicketRepository, logger *zap.Logger) *TicketLedger {
	return &TicketLedger{
		tickets: tickets,
		logger:  logger,
	}
}

// BalanceOf возвращает баланс студента, неизвестный студент = 0
func (l *TicketLedger) BalanceOf(ctx context.Context, studentID int64) (int, error) {
	balance, err := l.tickets.Get(ctx, studentID)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// Add начисляет билеты; count <= 0 ничего не меняет
func (l *TicketLedger) Add(ctx context.Context, studentID int64, count int) (int, error) {
	if count <= 0 {
		return l.BalanceOf(ctx, studentID)
	}

	balance, err := l.tickets.Increment(ctx, studentID, count)
	if err != nil {
		return 0, fmt.Errorf("add tickets: %w", err)
	}

	l.logger.Debug("Tickets added",
		zap.Int64("student_id", studentID),
		zap.Int("count", count),
		zap.Int("balance", balance),
	)

	return balance, nil
}

// Consume списывает билеты целиком или не списывает вовсе
func (l *TicketLedger) Consume(ctx context.Context, studentID int64, count int) (ConsumeResult, error) {
	if count <= 0 {
		balance, err := l.BalanceOf(ctx, studentID)
		if err != nil {
			return ConsumeResult{}, err
		}
		return ConsumeResult{OK: true, Remaining: balance}, nil
	}

	remaining, ok, err := l.tickets.Decrement(ctx, studentID, count)
	if err != nil {
		return ConsumeResult{}, fmt.Errorf("consume tickets: %w", err)
	}

	if !ok {
		l.logger.Debug("Not enough tickets to consume",
			zap.Int64("student_id", studentID),
			zap.Int("count", count),
			zap.Int("balance", remaining),
		)
		return ConsumeResult{OK: false, Remaining: remaining}, nil
	}

	l.logger.Debug("Tickets consumed",
		zap.Int64("student_id", studentID),
		zap.Int("count", count),
		zap.Int("balance", remaining),
	)

	return ConsumeResult{OK: true, Remaining: remaining}, nil
}

// TicketService публичные операции с билетами вне жизненного цикла занятий
type TicketService struct {
	ledger   *TicketLedger
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewTicketService(store repository.Store, notifier notify.Notifier, logger *zap.Logger) *TicketService {
	return &TicketService{
		ledger:   NewTicketLedger(store.Tickets(), logger),
		notifier: notifier,
		logger:   logger,
	}
}

// BalanceOf получает баланс студента
func (s *TicketService) BalanceOf(ctx context.Context, studentID int64) (int, error) {
	return s.ledger.BalanceOf(ctx, studentID)
}

// Add пополняет баланс студента (покупка пакета занятий)
func (s *TicketService) Add(ctx context.Context, studentID int64, count int) (int, error) {
	if studentID <= 0 {
		return 0, invalidInput("student id must be positive")
	}

	balance, err := s.ledger.Add(ctx, studentID, count)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		s.logger.Info("Student tickets topped up",
			zap.Int64("student_id", studentID),
			zap.Int("count", count),
			zap.Int("balance", balance),
		)
		s.emit(ctx, notify.NewEvent(notify.EventTicketsAdded, studentID, balance))
	}

	return balance, nil
}

// Consume списывает билеты вне занятия
func (s *TicketService) Consume(ctx context.Context, studentID int64, count int) (ConsumeResult, error) {
	return s.ledger.Consume(ctx, studentID, count)
}

func (s *TicketService) emit(ctx context.Context, event notify.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Warn("Failed to deliver event",
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}
