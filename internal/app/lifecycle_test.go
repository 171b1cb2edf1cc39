package app_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

func TestOpenRequiresQuestions(t *testing.T) {
	f := newFixture(t)
	quiz := f.newQuiz(nil)

	_, err := f.service.Open(f.ctx, quiz.ID)
	assert.ErrorIs(t, err, domain.ErrNoQuestions)
}

func TestOpenCreatesJoinableSession(t *testing.T) {
	f := newFixture(t)
	quiz := f.newQuiz(nil, singleChoice(1, "Paris"))

	session := f.open(quiz.ID)
	assert.Equal(t, domain.StateOpen, session.State)
	assert.Equal(t, 1, session.CurrentPosition)
	assert.Nil(t, session.StartedAt)
	assert.Nil(t, session.QuestionStartedAt)
	assert.Len(t, session.AccessCode, 6)

	_, err := f.service.Open(f.ctx, quiz.ID)
	assert.ErrorIs(t, err, domain.ErrSessionAlreadyLive)

	got, err := f.service.GetQuiz(f.ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateOpen, got.State)
}

func TestOpenRetriesAccessCodeCollision(t *testing.T) {
	f := newFixture(t, app.WithCodeGenerator(codes("AAAAAA", "AAAAAA", "BBBBBB")))
	first := f.newQuiz(nil, singleChoice(1, "Paris"))
	second := f.newQuiz(nil, singleChoice(1, "Paris"))

	assert.Equal(t, "AAAAAA", f.open(first.ID).AccessCode)
	assert.Equal(t, "BBBBBB", f.open(second.ID).AccessCode)
}

func TestLaunchAdvanceEnd(t *testing.T) {
	f := newFixture(t)
	quiz := f.newQuiz(nil, singleChoice(1, "Paris"), singleChoice(1, "Lyon"))
	f.open(quiz.ID)

	_, err := f.service.Advance(f.ctx, quiz.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotActive)

	session, err := f.service.Launch(f.ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateActive, session.State)
	require.NotNil(t, session.QuestionStartedAt)
	assert.Equal(t, t0, *session.QuestionStartedAt)
	assert.Equal(t, t0, *session.StartedAt)

	_, err = f.service.Launch(f.ctx, quiz.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	f.clock.Advance(12 * time.Second)
	session, err = f.service.Advance(f.ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, session.CurrentPosition)
	assert.Equal(t, t0.Add(12*time.Second), *session.QuestionStartedAt)

	_, err = f.service.Advance(f.ctx, quiz.ID)
	assert.ErrorIs(t, err, domain.ErrLastQuestion)

	session, err = f.service.End(f.ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateFinished, session.State)
	require.NotNil(t, session.EndedAt)

	_, err = f.service.End(f.ctx, quiz.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotLive)
}

func TestEndFromOpen(t *testing.T) {
	f := newFixture(t)
	quiz := f.newQuiz(nil, singleChoice(1, "Paris"))
	f.open(quiz.ID)

	session, err := f.service.End(f.ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateFinished, session.State)
}

func TestReopenFinishedQuiz(t *testing.T) {
	f := newFixture(t)
	quiz := f.newQuiz(nil, singleChoice(1, "Paris"))
	first := f.open(quiz.ID)
	_, err := f.service.End(f.ctx, quiz.ID)
	require.NoError(t, err)

	second := f.open(quiz.ID)
	assert.NotEqual(t, first.ID, second.ID)

	sessions, err := f.service.ListSessions(f.ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, second.ID, sessions[0].ID)
	assert.Equal(t, domain.StateFinished, sessions[1].State)
}

func TestConcurrentAdvanceCannotSkip(t *testing.T) {
	f := newFixture(t)
	quiz := f.newQuiz(nil, singleChoice(1, "Paris"), singleChoice(1, "Lyon"))
	f.open(quiz.ID)
	f.launch(quiz.ID)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Advance(f.ctx, quiz.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)

	session, err := f.store.LiveSession(f.ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, session.CurrentPosition)
}

func TestAuthoringLockedWhileLive(t *testing.T) {
	f := newFixture(t)
	quiz := f.newQuiz(nil, singleChoice(1, "Paris"))
	f.open(quiz.ID)

	_, err := f.service.AddQuestion(f.ctx, quiz.ID, singleChoice(1, "Nice"))
	assert.ErrorIs(t, err, domain.ErrQuizLocked)
	_, err = f.service.UpdateQuestion(f.ctx, quiz.ID, quiz.Questions[0].ID, singleChoice(2, "Nice"))
	assert.ErrorIs(t, err, domain.ErrQuizLocked)
	assert.ErrorIs(t, f.service.DeleteQuestion(f.ctx, quiz.ID, quiz.Questions[0].ID), domain.ErrQuizLocked)
	assert.ErrorIs(t, f.service.DeleteQuiz(f.ctx, quiz.ID), domain.ErrQuizLocked)

	title := "Renamed"
	_, err = f.service.UpdateQuiz(f.ctx, quiz.ID, app.QuizPatch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrQuizLocked)
}

func TestUpdateQuizStateRules(t *testing.T) {
	f := newFixture(t)
	quiz := f.newQuiz(nil)

	ready := domain.StateReady
	_, err := f.service.UpdateQuiz(f.ctx, quiz.ID, app.QuizPatch{State: &ready})
	assert.ErrorIs(t, err, domain.ErrNoQuestions)

	_, err = f.service.AddQuestion(f.ctx, quiz.ID, singleChoice(1, "Paris"))
	require.NoError(t, err)
	updated, err := f.service.UpdateQuiz(f.ctx, quiz.ID, app.QuizPatch{State: &ready})
	require.NoError(t, err)
	assert.Equal(t, domain.StateReady, updated.State)

	active := domain.StateActive
	_, err = f.service.UpdateQuiz(f.ctx, quiz.ID, app.QuizPatch{State: &active})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestAddQuestionNormalizes(t *testing.T) {
	f := newFixture(t)
	quiz := f.newQuiz(nil)

	added, err := f.service.AddQuestion(f.ctx, quiz.ID, domain.Question{
		Type:             domain.QuestionFreeText,
		Prompt:           "  Describe Paris  ",
		Options:          []string{"ignored"},
		CorrectAnswer:    json.RawMessage(`"ignored"`),
		Points:           5,
		TimeLimitSeconds: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, "Describe Paris", added.Prompt)
	assert.Nil(t, added.Options)
	assert.Nil(t, added.CorrectAnswer)
	assert.Zero(t, added.Points)
	assert.Equal(t, domain.MaxTimeLimitSeconds, added.TimeLimitSeconds)
	assert.Equal(t, 1, added.Position)

	_, err = f.service.AddQuestion(f.ctx, quiz.ID, domain.Question{Type: "essay", Prompt: "?"})
	assert.ErrorIs(t, err, domain.ErrInvalidQuestion)
	_, err = f.service.AddQuestion(f.ctx, quiz.ID, domain.Question{Type: domain.QuestionBoolean, Prompt: "?"})
	assert.ErrorIs(t, err, domain.ErrInvalidQuestion)
}

func TestAddQuestionLimit(t *testing.T) {
	f := newFixture(t)
	quiz := f.newQuiz(nil)
	for i := 0; i < domain.MaxQuestionsPerQuiz; i++ {
		_, err := f.service.AddQuestion(f.ctx, quiz.ID, singleChoice(1, "Paris"))
		require.NoError(t, err)
	}
	_, err := f.service.AddQuestion(f.ctx, quiz.ID, singleChoice(1, "Paris"))
	assert.ErrorIs(t, err, domain.ErrTooManyQuestions)
}

func TestCreateQuizRequiresTitle(t *testing.T) {
	f := newFixture(t)
	blank := "   "
	_, err := f.service.CreateQuiz(f.ctx, app.QuizPatch{Title: &blank})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
