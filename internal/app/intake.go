package app

import (
	"context"
	"encoding/json"

	"live-quiz-service/internal/domain"
)

// SubmitResult reports how an answer was graded.
type SubmitResult struct {
	Recorded         bool            `json:"recorded"`
	IsCorrect        *bool           `json:"is_correct"`
	CorrectAnswer    json.RawMessage `json:"correct_answer"`
	PointsEarned     int             `json:"points_earned"`
	SpeedBonusEarned int             `json:"speed_bonus_earned"`
	TotalScore       int             `json:"total_score"`
	LatencySeconds   float64         `json:"response_time_seconds"`
	AutoFinished     bool            `json:"auto_finished"`
}

// Submit grades and records the participant's answer to the current
// question. Each participant answers a question at most once.
func (s *Service) Submit(ctx context.Context, token string, questionID int64, answer json.RawMessage) (SubmitResult, error) {
	if questionID <= 0 {
		return SubmitResult{}, domain.ErrMissingQuestionID
	}
	participant, err := s.store.ParticipantByToken(ctx, token)
	if err != nil {
		return SubmitResult{}, err
	}
	session, err := s.store.GetSession(ctx, participant.SessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	switch session.State {
	case domain.StateActive:
	case domain.StateOpen:
		return SubmitResult{}, domain.ErrSessionNotActive
	default:
		return SubmitResult{}, domain.ErrSessionFinished
	}

	quiz, err := s.quizzes.GetQuiz(ctx, session.QuizID)
	if err != nil {
		return SubmitResult{}, err
	}
	ev, err := s.evaluate(ctx, session, quiz)
	if err != nil {
		return SubmitResult{}, err
	}
	if !ev.Running {
		return SubmitResult{}, domain.ErrSessionFinished
	}
	if ev.Question.ID != questionID {
		return SubmitResult{}, domain.ErrNotCurrentQuestion
	}

	now := s.now()
	latency := latencySeconds(elapsedSince(ev.Timer.StartedAt, now))
	if isNullJSON(answer) {
		answer = json.RawMessage("null")
	}
	award := scoreAnswer(ev.Question, quiz.SpeedBonus, answer, latency)

	total, err := s.store.RecordResponse(ctx, ResponseGuard{
		SessionID: ev.Session.ID,
		Position:  ev.Session.CurrentPosition,
	}, domain.Response{
		ParticipantID:  participant.ID,
		QuestionID:     questionID,
		Answer:         answer,
		IsCorrect:      award.Correct,
		LatencySeconds: latency,
		PointsAwarded:  award.Total(),
		CreatedAt:      now,
	})
	if err != nil {
		return SubmitResult{}, err
	}
	s.publish(ev.Session.ID, EventAnswered)

	result := SubmitResult{
		Recorded:         true,
		IsCorrect:        award.Correct,
		PointsEarned:     award.Total(),
		SpeedBonusEarned: award.SpeedBonus,
		TotalScore:       total,
		LatencySeconds:   latency,
	}
	if ev.Question.Type != domain.QuestionFreeText {
		result.CorrectAnswer = ev.Question.CorrectAnswer
	}

	// The answer is stored at this point; a failed follow-up evaluation is
	// retried by the next poll.
	after, err := s.store.GetSession(ctx, ev.Session.ID)
	if err != nil {
		s.logger.Warn("reload session after submit", "session_id", ev.Session.ID, "error", err)
		return result, nil
	}
	post, err := s.evaluate(ctx, after, quiz)
	if err != nil {
		s.logger.Warn("evaluate session after submit", "session_id", ev.Session.ID, "error", err)
		return result, nil
	}
	result.AutoFinished = post.AutoFinished
	return result, nil
}
