package adherence

import (
	"context"
	"time"

	"medication-adherence/internal/platform/logger"
)

const DefaultSweepInterval = 15 * time.Minute

// Sweeper corre SweepAll periódicamente hasta que se cancela el contexto.
type Sweeper struct {
	ledger   *Ledger
	interval time.Duration
	log      logger.Logger
}

func NewSweeper(l *Ledger, interval time.Duration, log logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Sweeper{
		ledger:   l,
		interval: interval,
		log:      log.With(map[string]any{"component": "missed_sweeper"}),
	}
}

// Run hace una pasada inmediata y después una por tick. Devuelve nil al cancelar.
func (s *Sweeper) Run(ctx context.Context) error {
	s.log.Info("missed sweeper started", map[string]any{"interval": s.interval.String()})

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("missed sweeper stopped", nil)
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	start := time.Now()
	n, err := s.ledger.SweepAll(ctx)
	if err != nil && ctx.Err() == nil {
		s.log.Error("missed sweep failed", map[string]any{"error": err, "created": n})
		return
	}
	if n > 0 {
		s.log.Info("missed sweep", map[string]any{
			"created":     n,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
}
