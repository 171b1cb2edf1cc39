package app

import (
	"context"
	"log/slog"
	"time"
)

// Sweep evaluates every active session once and returns how many it
// finished. Polls apply the same transition, so the sweep only shortens
// how long an expired last question stays visible.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	sessions, err := s.store.ActiveSessions(ctx)
	if err != nil {
		return 0, err
	}
	finished := 0
	for _, session := range sessions {
		quiz, err := s.quizzes.GetQuiz(ctx, session.QuizID)
		if err != nil {
			s.logger.Warn("sweep: load quiz", "quiz_id", session.QuizID, "error", err)
			continue
		}
		ev, err := s.evaluate(ctx, session, quiz)
		if err != nil {
			s.logger.Warn("sweep: evaluate session", "session_id", session.ID, "error", err)
			continue
		}
		if ev.AutoFinished {
			finished++
		}
	}
	return finished, nil
}

// Sweeper runs Sweep on a fixed interval.
type Sweeper struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(service *Service, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{service: service, interval: interval, logger: logger}
}

// Run blocks until ctx is done. A non-positive interval disables sweeping.
func (w *Sweeper) Run(ctx context.Context) error {
	if w.interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("session sweeper started", "interval", w.interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := w.service.Sweep(ctx)
			if err != nil {
				w.logger.Error("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				w.logger.Info("session sweep finished sessions", "count", n)
			}
		}
	}
}
