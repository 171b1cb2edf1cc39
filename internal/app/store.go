package app

import (
	"context"
	"time"

	"live-quiz-service/internal/domain"
)

// QuizStore persists authored quizzes and their questions.
type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	// GetQuiz returns the quiz with its questions ordered by position.
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	DeleteQuiz(ctx context.Context, quizID int64) error
	// AddQuestion appends the question at the next position, failing with
	// domain.ErrTooManyQuestions once limit questions exist.
	AddQuestion(ctx context.Context, question domain.Question, limit int) (domain.Question, error)
	UpdateQuestion(ctx context.Context, question domain.Question) (domain.Question, error)
	// DeleteQuestion removes the question and closes the gap in positions.
	DeleteQuestion(ctx context.Context, quizID, questionID int64) error
}

// ResponseGuard pins the session state a response was graded against. The
// store rejects the write when the session moved on in the meantime.
type ResponseGuard struct {
	SessionID int64
	Position  int
}

// SessionStore persists sessions, participants, scores and responses. Every
// transition method is a compare-and-set: it applies only when the row is
// still in the expected state, which keeps concurrent host actions and lazy
// policy evaluation idempotent.
type SessionStore interface {
	// CreateSession inserts an open session and moves the quiz to open. It
	// fails with domain.ErrSessionAlreadyLive when the quiz already has an
	// open or active session and domain.ErrAccessCodeTaken on a live code
	// collision.
	CreateSession(ctx context.Context, session domain.Session) (domain.Session, error)
	GetSession(ctx context.Context, sessionID int64) (domain.Session, error)
	// LiveSession fails with domain.ErrSessionNotLive when the quiz has no
	// open or active session.
	LiveSession(ctx context.Context, quizID int64) (domain.Session, error)
	// LatestSession returns the most recently created session of the quiz,
	// or domain.ErrSessionNotFound.
	LatestSession(ctx context.Context, quizID int64) (domain.Session, error)
	LiveSessionByCode(ctx context.Context, code string) (domain.Session, error)
	// ListSessions returns sessions newest first with participant counts.
	ListSessions(ctx context.Context, quizID int64) ([]domain.SessionSummary, error)
	ActiveSessions(ctx context.Context) ([]domain.Session, error)

	// LaunchSession moves an open session to active and stamps both start
	// times. It fails with domain.ErrInvalidTransition if the session is no
	// longer open.
	LaunchSession(ctx context.Context, sessionID int64, at time.Time) (domain.Session, error)
	// AdvanceSession moves an active session from position from to from+1,
	// or fails with domain.ErrStaleSession.
	AdvanceSession(ctx context.Context, sessionID int64, from int, at time.Time) (domain.Session, error)
	// StampQuestionStart sets the question start time if it is still null.
	StampQuestionStart(ctx context.Context, sessionID int64, at time.Time) (domain.Session, error)
	// FinishSession finishes a live session and its quiz. With position > 0
	// it applies only to an active session still showing that position. The
	// boolean reports whether this call performed the transition.
	FinishSession(ctx context.Context, sessionID int64, at time.Time, position int) (domain.Session, bool, error)

	// CreateParticipant joins a live session and creates its zero score.
	CreateParticipant(ctx context.Context, participant domain.Participant) (domain.Participant, error)
	ParticipantByToken(ctx context.Context, token string) (domain.Participant, error)
	ListParticipants(ctx context.Context, sessionID int64) ([]domain.Participant, error)
	CountParticipants(ctx context.Context, sessionID int64) (int, error)

	// RecordResponse stores the response and adds its points to the score in
	// one atomic step, returning the new total. A second response for the
	// same participant and question fails with domain.ErrDuplicateResponse.
	// When the session is no longer active on guard.Position it fails with
	// domain.ErrSessionFinished or domain.ErrNotCurrentQuestion.
	RecordResponse(ctx context.Context, guard ResponseGuard, response domain.Response) (int, error)
	CountResponses(ctx context.Context, sessionID, questionID int64) (int, error)
	// Standings lists participants with scores, best first, earliest join on ties.
	Standings(ctx context.Context, sessionID int64) ([]domain.Standing, error)
}

// Store is the full persistence contract of the engine.
type Store interface {
	QuizStore
	SessionStore
}

// QuizCache serves quiz content on the hot polling path. The question set
// cannot change while a session is live, so cached content stays valid
// until an authoring edit invalidates it. The cached State is never read.
type QuizCache interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID int64) error
}

// storeQuizzes reads quiz content straight from the store.
type storeQuizzes struct {
	store QuizStore
}

func (s storeQuizzes) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	return s.store.GetQuiz(ctx, quizID)
}

func (s storeQuizzes) Invalidate(context.Context, int64) error {
	return nil
}
