package app

import (
	"context"
	"fmt"

	"live-quiz-service/internal/domain"
)

// FinishReason tells why the policy ended a game on its own.
type FinishReason string

const (
	FinishAllAnswered FinishReason = "all_answered"
	FinishTimeout     FinishReason = "timeout"
)

// Evaluation is a snapshot of an active session after the auto-advance
// policy ran against it.
type Evaluation struct {
	Session      domain.Session
	Question     domain.Question
	Timer        QuestionTimer
	// Running is false when the session was not active, or stopped being
	// active during evaluation.
	Running      bool
	Participants int
	Responses    int
	AllAnswered  bool
	TimedOut     bool
	LastQuestion bool
	AutoFinished bool
	Reason       FinishReason
}

// evaluate applies the auto-advance policy to session. It lazily stamps a
// missing question start and finishes the game when the last question is
// fully answered or out of time. Every write is conditional, so any number
// of concurrent readers may evaluate the same session.
func (s *Service) evaluate(ctx context.Context, session domain.Session, quiz domain.Quiz) (Evaluation, error) {
	ev := Evaluation{Session: session}
	if session.State != domain.StateActive {
		return ev, nil
	}

	if session.QuestionStartedAt == nil {
		stamped, err := s.store.StampQuestionStart(ctx, session.ID, s.now())
		if err != nil {
			return ev, fmt.Errorf("stamp question start: %w", err)
		}
		session = stamped
		ev.Session = stamped
		if session.State != domain.StateActive || session.QuestionStartedAt == nil {
			return ev, nil
		}
	}

	question, ok := quiz.QuestionAt(session.CurrentPosition)
	if !ok {
		return ev, fmt.Errorf("session %d: no question at position %d: %w",
			session.ID, session.CurrentPosition, domain.ErrQuestionNotFound)
	}

	participants, err := s.store.CountParticipants(ctx, session.ID)
	if err != nil {
		return ev, fmt.Errorf("count participants: %w", err)
	}
	responses, err := s.store.CountResponses(ctx, session.ID, question.ID)
	if err != nil {
		return ev, fmt.Errorf("count responses: %w", err)
	}

	ev.Running = true
	ev.Question = question
	ev.Timer = newQuestionTimer(*session.QuestionStartedAt, question, s.now())
	ev.Participants = participants
	ev.Responses = responses
	ev.AllAnswered = participants > 0 && responses >= participants
	ev.TimedOut = ev.Timer.Expired()
	ev.LastQuestion = quiz.IsLastPosition(session.CurrentPosition)

	if !ev.LastQuestion || (!ev.AllAnswered && !ev.TimedOut) {
		return ev, nil
	}

	finished, applied, err := s.store.FinishSession(ctx, session.ID, s.now(), session.CurrentPosition)
	if err != nil {
		return ev, fmt.Errorf("auto-finish session: %w", err)
	}
	if !applied {
		// Someone else moved the session first; report what they left.
		current, err := s.store.GetSession(ctx, session.ID)
		if err != nil {
			return ev, fmt.Errorf("reload session: %w", err)
		}
		ev.Session = current
		ev.Running = current.State == domain.StateActive
		return ev, nil
	}

	ev.Session = finished
	ev.Running = false
	ev.AutoFinished = true
	ev.Reason = FinishTimeout
	if ev.AllAnswered {
		ev.Reason = FinishAllAnswered
	}
	s.logger.Info("session auto-finished",
		"session_id", session.ID,
		"quiz_id", session.QuizID,
		"reason", ev.Reason,
	)
	s.publish(session.ID, EventAutoFinished)
	return ev, nil
}
