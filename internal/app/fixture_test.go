package app_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	t       *testing.T
	ctx     context.Context
	store   *memory.Store
	clock   *fakeClock
	service *app.Service
}

func newFixture(t *testing.T, opts ...app.Option) *fixture {
	t.Helper()
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		store: memory.NewStore(),
		clock: &fakeClock{now: t0},
	}
	base := []app.Option{
		app.WithClock(f.clock.Now),
		app.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	f.service = app.NewService(f.store, append(base, opts...)...)
	return f
}

func singleChoice(points int, answer string) domain.Question {
	return domain.Question{
		Type:             domain.QuestionSingleChoice,
		Prompt:           "Pick one",
		Options:          []string{"Paris", "Lyon", "Nice"},
		CorrectAnswer:    json.RawMessage(`"` + answer + `"`),
		Points:           points,
		TimeLimitSeconds: 30,
	}
}

// newQuiz creates a quiz with the given questions.
func (f *fixture) newQuiz(bonus *domain.SpeedBonus, questions ...domain.Question) domain.Quiz {
	f.t.Helper()
	title := "Capitals"
	quiz, err := f.service.CreateQuiz(f.ctx, app.QuizPatch{Title: &title, SpeedBonus: bonus})
	require.NoError(f.t, err)
	for _, q := range questions {
		_, err := f.service.AddQuestion(f.ctx, quiz.ID, q)
		require.NoError(f.t, err)
	}
	quiz, err = f.service.GetQuiz(f.ctx, quiz.ID)
	require.NoError(f.t, err)
	return quiz
}

func (f *fixture) open(quizID int64) domain.Session {
	f.t.Helper()
	session, err := f.service.Open(f.ctx, quizID)
	require.NoError(f.t, err)
	return session
}

func (f *fixture) join(code, pseudo string) string {
	f.t.Helper()
	res, err := f.service.Join(f.ctx, code, pseudo)
	require.NoError(f.t, err)
	return res.SessionToken
}

func (f *fixture) launch(quizID int64) {
	f.t.Helper()
	_, err := f.service.Launch(f.ctx, quizID)
	require.NoError(f.t, err)
}

func (f *fixture) state(token string) app.ParticipantState {
	f.t.Helper()
	state, err := f.service.State(f.ctx, token)
	require.NoError(f.t, err)
	return state
}

// codes replays fixed codes, then falls back to random ones.
func codes(values ...string) app.CodeGenerator {
	var mu sync.Mutex
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(values) == 0 {
			return app.GenerateAccessCode()
		}
		code := values[0]
		values = values[1:]
		return code, nil
	}
}
