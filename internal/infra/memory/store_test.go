package memory

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func seedQuiz(t *testing.T, store *Store, questions int) domain.Quiz {
	t.Helper()
	ctx := context.Background()
	quiz, err := store.CreateQuiz(ctx, domain.Quiz{Title: "Quiz", State: domain.StateReady, RankingEnabled: true})
	require.NoError(t, err)
	for i := 0; i < questions; i++ {
		_, err := store.AddQuestion(ctx, domain.Question{
			QuizID:        quiz.ID,
			Type:          domain.QuestionBoolean,
			Prompt:        "true?",
			CorrectAnswer: json.RawMessage(`true`),
			Points:        1,
		}, domain.MaxQuestionsPerQuiz)
		require.NoError(t, err)
	}
	quiz, err = store.GetQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	return quiz
}

func TestStoreQuestionPositionsStayContiguous(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	quiz := seedQuiz(t, store, 3)

	require.NoError(t, store.DeleteQuestion(ctx, quiz.ID, quiz.Questions[0].ID))

	quiz, err := store.GetQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, quiz.Questions, 2)
	assert.Equal(t, 1, quiz.Questions[0].Position)
	assert.Equal(t, 2, quiz.Questions[1].Position)
}

func TestStoreQuestionLimit(t *testing.T) {
	store := NewStore()
	quiz := seedQuiz(t, store, 2)

	_, err := store.AddQuestion(context.Background(), domain.Question{QuizID: quiz.ID, Type: domain.QuestionFreeText, Prompt: "?"}, 2)
	assert.ErrorIs(t, err, domain.ErrTooManyQuestions)
}

func TestStoreOneLiveSessionPerQuiz(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	quiz := seedQuiz(t, store, 1)
	other := seedQuiz(t, store, 1)

	_, err := store.CreateSession(ctx, domain.Session{QuizID: quiz.ID, AccessCode: "ABCDEF", State: domain.StateOpen, CurrentPosition: 1})
	require.NoError(t, err)

	_, err = store.CreateSession(ctx, domain.Session{QuizID: quiz.ID, AccessCode: "ZZZZZZ", State: domain.StateOpen, CurrentPosition: 1})
	assert.ErrorIs(t, err, domain.ErrSessionAlreadyLive)

	_, err = store.CreateSession(ctx, domain.Session{QuizID: other.ID, AccessCode: "ABCDEF", State: domain.StateOpen, CurrentPosition: 1})
	assert.ErrorIs(t, err, domain.ErrAccessCodeTaken)

	got, err := store.GetQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateOpen, got.State)
}

func TestStoreTransitionsAreConditional(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	quiz := seedQuiz(t, store, 2)
	session, err := store.CreateSession(ctx, domain.Session{QuizID: quiz.ID, AccessCode: "ABCDEF", State: domain.StateOpen, CurrentPosition: 1})
	require.NoError(t, err)

	_, err = store.AdvanceSession(ctx, session.ID, 1, t0)
	assert.ErrorIs(t, err, domain.ErrStaleSession, "open session cannot advance")

	session, err = store.LaunchSession(ctx, session.ID, t0)
	require.NoError(t, err)
	require.NotNil(t, session.QuestionStartedAt)
	assert.Equal(t, t0, *session.StartedAt)

	_, err = store.LaunchSession(ctx, session.ID, t0)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	session, err = store.AdvanceSession(ctx, session.ID, 1, t0.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, session.CurrentPosition)

	_, err = store.AdvanceSession(ctx, session.ID, 1, t0.Add(2*time.Second))
	assert.ErrorIs(t, err, domain.ErrStaleSession)

	_, applied, err := store.FinishSession(ctx, session.ID, t0, 1)
	require.NoError(t, err)
	assert.False(t, applied, "finish at a stale position must not apply")

	session, applied, err = store.FinishSession(ctx, session.ID, t0, 2)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, domain.StateFinished, session.State)

	_, applied, err = store.FinishSession(ctx, session.ID, t0, 0)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := store.GetQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateFinished, got.State)
}

func TestStoreStampQuestionStartOnlyOnce(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	quiz := seedQuiz(t, store, 1)
	session, err := store.CreateSession(ctx, domain.Session{QuizID: quiz.ID, AccessCode: "ABCDEF", State: domain.StateOpen, CurrentPosition: 1})
	require.NoError(t, err)
	_, err = store.LaunchSession(ctx, session.ID, t0)
	require.NoError(t, err)

	store.mu.Lock()
	raw := store.sessions[session.ID]
	raw.QuestionStartedAt = nil
	store.sessions[session.ID] = raw
	store.mu.Unlock()

	first, err := store.StampQuestionStart(ctx, session.ID, t0.Add(time.Second))
	require.NoError(t, err)
	second, err := store.StampQuestionStart(ctx, session.ID, t0.Add(5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, *first.QuestionStartedAt, *second.QuestionStartedAt)
}

func TestStoreRecordResponseExactlyOnce(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	quiz := seedQuiz(t, store, 1)
	session, err := store.CreateSession(ctx, domain.Session{QuizID: quiz.ID, AccessCode: "ABCDEF", State: domain.StateOpen, CurrentPosition: 1})
	require.NoError(t, err)
	p, err := store.CreateParticipant(ctx, domain.Participant{SessionID: session.ID, Pseudo: "ann", Token: "tok", JoinedAt: t0})
	require.NoError(t, err)
	_, err = store.LaunchSession(ctx, session.ID, t0)
	require.NoError(t, err)

	guard := app.ResponseGuard{SessionID: session.ID, Position: 1}
	response := domain.Response{ParticipantID: p.ID, QuestionID: quiz.Questions[0].ID, Answer: json.RawMessage(`true`), PointsAwarded: 3}

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.RecordResponse(ctx, guard, response)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok, dup := 0, 0
	for err := range results {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, domain.ErrDuplicateResponse):
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 9, dup)

	standings, err := store.Standings(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, 3, standings[0].Score)

	n, err := store.CountResponses(ctx, session.ID, quiz.Questions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStoreRecordResponseRejectsMovedSession(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	quiz := seedQuiz(t, store, 2)
	session, err := store.CreateSession(ctx, domain.Session{QuizID: quiz.ID, AccessCode: "ABCDEF", State: domain.StateOpen, CurrentPosition: 1})
	require.NoError(t, err)
	p, err := store.CreateParticipant(ctx, domain.Participant{SessionID: session.ID, Pseudo: "ann", Token: "tok", JoinedAt: t0})
	require.NoError(t, err)
	_, err = store.LaunchSession(ctx, session.ID, t0)
	require.NoError(t, err)
	_, err = store.AdvanceSession(ctx, session.ID, 1, t0)
	require.NoError(t, err)

	response := domain.Response{ParticipantID: p.ID, QuestionID: quiz.Questions[0].ID, PointsAwarded: 1}
	_, err = store.RecordResponse(ctx, app.ResponseGuard{SessionID: session.ID, Position: 1}, response)
	assert.ErrorIs(t, err, domain.ErrNotCurrentQuestion)

	_, _, err = store.FinishSession(ctx, session.ID, t0, 0)
	require.NoError(t, err)
	_, err = store.RecordResponse(ctx, app.ResponseGuard{SessionID: session.ID, Position: 2}, response)
	assert.ErrorIs(t, err, domain.ErrSessionFinished)
}

func TestStoreJoinRequiresLiveSession(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	quiz := seedQuiz(t, store, 1)
	session, err := store.CreateSession(ctx, domain.Session{QuizID: quiz.ID, AccessCode: "ABCDEF", State: domain.StateOpen, CurrentPosition: 1})
	require.NoError(t, err)
	_, _, err = store.FinishSession(ctx, session.ID, t0, 0)
	require.NoError(t, err)

	_, err = store.CreateParticipant(ctx, domain.Participant{SessionID: session.ID, Pseudo: "late", Token: "tok", JoinedAt: t0})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = store.LiveSessionByCode(ctx, "ABCDEF")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	n, err := store.CountParticipants(ctx, session.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
