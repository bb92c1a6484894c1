package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Completer завершает закончившиеся занятия
type Completer interface {
	AutoCompleteEnded(ctx context.Context, now time.Time) (int, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	completer Completer
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time
	stopChan  chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(completer Completer, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		completer: completer,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	go s.runAutoCompleteTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт завершения текущего прогона
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	<-s.done
}

// runAutoCompleteTask периодически отмечает проведёнными закончившиеся занятия
func (s *Scheduler) runAutoCompleteTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.completeEnded(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.completeEnded(ctx)
		case <-s.stopChan:
			s.logger.Info("Auto-complete task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Auto-complete task cancelled")
			return
		}
	}
}

func (s *Scheduler) completeEnded(ctx context.Context) {
	count, err := s.completer.AutoCompleteEnded(ctx, s.now())
	if err != nil {
		s.logger.Error("Failed to auto-complete appointments", zap.Error(err))
		return
	}

	if count > 0 {
		s.logger.Info("Appointments auto-completed", zap.Int("count", count))
	}
}
