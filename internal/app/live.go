package app

import (
	"context"
	"errors"
	"time"

	"live-quiz-service/internal/domain"
)

// LiveState is the host dashboard of a quiz.
type LiveState struct {
	QuizID         int64            `json:"quiz_id"`
	QuizTitle      string           `json:"quiz_title"`
	QuizState      domain.QuizState `json:"quiz_state"`
	RankingEnabled bool             `json:"ranking_enabled"`
	TotalQuestions int              `json:"total_questions"`
	Session        *LiveSession     `json:"session"`
}

// LiveSession is the host view of the current or most recent session.
type LiveSession struct {
	ID               int64             `json:"id"`
	State            domain.QuizState  `json:"state"`
	AccessCode       string            `json:"access_code"`
	StartedAt        *time.Time        `json:"started_at,omitempty"`
	EndedAt          *time.Time        `json:"ended_at,omitempty"`
	CurrentPosition  int               `json:"current_question_position"`
	RemainingSeconds *int              `json:"remaining_seconds,omitempty"`
	DurationSeconds  int               `json:"question_duration_seconds,omitempty"`
	Question         *QuestionView     `json:"question,omitempty"`
	ParticipantCount int               `json:"participant_count"`
	ResponseCount    int               `json:"response_count"`
	Participants     []ParticipantView `json:"participants"`
	Ranking          []RankingEntry    `json:"scores_ranking"`
}

// Live is the host poll. Like the participant poll it runs the policy
// before reporting, so a host watching the last question sees it finish.
func (s *Service) Live(ctx context.Context, quizID int64) (LiveState, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return LiveState{}, err
	}
	state := LiveState{
		QuizID:         quiz.ID,
		QuizTitle:      quiz.Title,
		QuizState:      quiz.State,
		RankingEnabled: quiz.RankingEnabled,
		TotalQuestions: len(quiz.Questions),
	}

	session, err := s.store.LiveSession(ctx, quizID)
	if errors.Is(err, domain.ErrSessionNotLive) {
		session, err = s.store.LatestSession(ctx, quizID)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return state, nil
		}
	}
	if err != nil {
		return LiveState{}, err
	}

	view := &LiveSession{
		ID:              session.ID,
		AccessCode:      session.AccessCode,
		CurrentPosition: session.CurrentPosition,
	}
	ev, err := s.evaluate(ctx, session, quiz)
	if err != nil {
		return LiveState{}, err
	}
	session = ev.Session
	if ev.AutoFinished {
		state.QuizState = domain.StateFinished
	}
	if ev.Running {
		remaining := ev.Timer.Remaining
		view.RemainingSeconds = &remaining
		view.DurationSeconds = ev.Timer.DurationSeconds()
		view.Question = newQuestionView(ev.Question)
		view.ResponseCount = ev.Responses
	}
	view.State = session.State
	view.StartedAt = session.StartedAt
	view.EndedAt = session.EndedAt
	view.CurrentPosition = session.CurrentPosition

	participants, err := s.store.ListParticipants(ctx, session.ID)
	if err != nil {
		return LiveState{}, err
	}
	view.Participants = participantViews(participants)
	view.ParticipantCount = len(participants)

	ranking, err := s.sessionRanking(ctx, session.ID, quiz.RankingEnabled, 0)
	if err != nil {
		return LiveState{}, err
	}
	view.Ranking = ranking.Entries

	state.Session = view
	return state, nil
}
