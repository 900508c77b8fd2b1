package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/feldboy/aparmenttool/internal/contextkeys"
	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/feldboy/aparmenttool/internal/core/port"
	usecases_port "github.com/feldboy/aparmenttool/internal/core/port/usecases"
	"github.com/feldboy/aparmenttool/internal/metrics"
	"github.com/robfig/cron/v3"
)

// Service запускает циклы сканирования по расписанию. Если предыдущий
// цикл еще идет, следующий запуск пропускается, а не накладывается.
type Service struct {
	cron     *cron.Cron
	runCycle usecases_port.RunCyclePort
	logger   port.LoggerPort
	interval time.Duration

	mu        sync.RWMutex
	lastStats domain.CycleStats
}

func NewService(runCycle usecases_port.RunCyclePort, logger port.LoggerPort, intervalMinutes int) *Service {
	cronLogger := &cronLoggerBridge{logger: logger.WithFields(port.Fields{"component": "cron"})}

	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLogger),
		cron.Recover(cronLogger),
	))

	return &Service{
		cron:     c,
		runCycle: runCycle,
		logger:   logger,
		interval: time.Duration(intervalMinutes) * time.Minute,
	}
}

// Start регистрирует задание и запускает планировщик. Первый цикл
// выполняется сразу, не дожидаясь первого тика.
func (s *Service) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", s.interval)
	_, err := s.cron.AddFunc(spec, func() {
		s.executeCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduler: failed to register scan job: %w", err)
	}

	s.logger.Info("Scheduler starting", port.Fields{"interval": s.interval.String()})
	go s.executeCycle(ctx)
	s.cron.Start()
	return nil
}

// Stop останавливает планировщик и ждет завершения текущего задания.
func (s *Service) Stop() {
	s.logger.Info("Scheduler stopping, waiting for the running cycle...", nil)
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}

// LastStats возвращает статистику последнего завершенного цикла.
func (s *Service) LastStats() domain.CycleStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastStats
}

func (s *Service) executeCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	cycleLogger := s.logger.WithFields(port.Fields{"component": "scheduler"})
	cycleCtx := contextkeys.ContextWithLogger(ctx, cycleLogger)

	stats, err := s.runCycle.Execute(cycleCtx)
	if err != nil {
		cycleLogger.Error("Scan cycle finished with error", err, nil)
	}

	s.mu.Lock()
	s.lastStats = stats
	s.mu.Unlock()

	metrics.RecordCycle(stats)
}

// cronLoggerBridge адаптирует LoggerPort к cron.Logger.
type cronLoggerBridge struct {
	logger port.LoggerPort
}

func (b *cronLoggerBridge) Info(msg string, keysAndValues ...interface{}) {
	b.logger.Info(msg, toFields(keysAndValues...))
}

func (b *cronLoggerBridge) Error(err error, msg string, keysAndValues ...interface{}) {
	b.logger.Error(msg, err, toFields(keysAndValues...))
}

func toFields(keysAndValues ...interface{}) port.Fields {
	fields := make(port.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
