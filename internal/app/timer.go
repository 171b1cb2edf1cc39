package app

import (
	"math"
	"time"

	"live-quiz-service/internal/domain"
)

// QuestionTimer is the countdown of the currently displayed question.
type QuestionTimer struct {
	StartedAt time.Time
	Duration  time.Duration
	Elapsed   time.Duration
	// Remaining is whole seconds, rounded up, never below zero.
	Remaining int
}

// Expired reports whether the countdown reached zero.
func (t QuestionTimer) Expired() bool {
	return t.Remaining <= 0
}

// DurationSeconds is the clamped question duration in whole seconds.
func (t QuestionTimer) DurationSeconds() int {
	return int(t.Duration / time.Second)
}

func newQuestionTimer(startedAt time.Time, question domain.Question, now time.Time) QuestionTimer {
	duration := question.Duration()
	elapsed := elapsedSince(startedAt, now)
	remaining := int(math.Ceil((duration - elapsed).Seconds()))
	if remaining < 0 {
		remaining = 0
	}
	return QuestionTimer{
		StartedAt: startedAt,
		Duration:  duration,
		Elapsed:   elapsed,
		Remaining: remaining,
	}
}

// latencySeconds rounds an elapsed duration to hundredths of a second.
func latencySeconds(elapsed time.Duration) float64 {
	return math.Round(elapsed.Seconds()*100) / 100
}
