package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"live-quiz-service/internal/domain"
)

// QuizPatch carries quiz fields to set; nil fields are left unchanged.
type QuizPatch struct {
	Title          *string            `json:"title"`
	Description    *string            `json:"description"`
	State          *domain.QuizState  `json:"state"`
	RankingEnabled *bool              `json:"ranking_enabled"`
	SpeedBonus     *domain.SpeedBonus `json:"speed_bonus"`
}

func (p QuizPatch) apply(quiz domain.Quiz) domain.Quiz {
	if p.Title != nil {
		quiz.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		quiz.Description = strings.TrimSpace(*p.Description)
	}
	if p.RankingEnabled != nil {
		quiz.RankingEnabled = *p.RankingEnabled
	}
	if p.SpeedBonus != nil {
		quiz.SpeedBonus = p.SpeedBonus.Normalize()
	}
	return quiz
}

// CreateQuiz stores a new draft quiz.
func (s *Service) CreateQuiz(ctx context.Context, patch QuizPatch) (domain.Quiz, error) {
	quiz := patch.apply(domain.Quiz{
		State:          domain.StateDraft,
		RankingEnabled: true,
		SpeedBonus:     domain.DefaultSpeedBonus(),
		CreatedAt:      s.now(),
	})
	if quiz.Title == "" {
		return domain.Quiz{}, fmt.Errorf("%w: title is required", domain.ErrInvalidQuiz)
	}
	if patch.State != nil && *patch.State != domain.StateDraft {
		return domain.Quiz{}, fmt.Errorf("%w: a new quiz starts as draft", domain.ErrInvalidTransition)
	}
	return s.store.CreateQuiz(ctx, quiz)
}

// GetQuiz returns the quiz with its questions, correct answers included.
func (s *Service) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	return s.store.GetQuiz(ctx, quizID)
}

// UpdateQuiz edits quiz settings. Only draft and ready are settable here;
// the live states are reached through Open, Launch and End.
func (s *Service) UpdateQuiz(ctx context.Context, quizID int64, patch QuizPatch) (domain.Quiz, error) {
	quiz, err := s.editableQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz = patch.apply(quiz)
	if quiz.Title == "" {
		return domain.Quiz{}, fmt.Errorf("%w: title is required", domain.ErrInvalidQuiz)
	}
	if patch.State != nil && *patch.State != quiz.State {
		switch *patch.State {
		case domain.StateReady:
			if len(quiz.Questions) == 0 {
				return domain.Quiz{}, domain.ErrNoQuestions
			}
		case domain.StateDraft:
		default:
			return domain.Quiz{}, fmt.Errorf("%w: cannot set state %q directly", domain.ErrInvalidTransition, *patch.State)
		}
		quiz.State = *patch.State
	}

	updated, err := s.store.UpdateQuiz(ctx, quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(ctx, quizID)
	return updated, nil
}

func (s *Service) DeleteQuiz(ctx context.Context, quizID int64) error {
	if _, err := s.editableQuiz(ctx, quizID); err != nil {
		return err
	}
	if err := s.store.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	s.invalidate(ctx, quizID)
	return nil
}

// AddQuestion appends a question to the end of the quiz.
func (s *Service) AddQuestion(ctx context.Context, quizID int64, question domain.Question) (domain.Question, error) {
	if _, err := s.editableQuiz(ctx, quizID); err != nil {
		return domain.Question{}, err
	}
	question.QuizID = quizID
	question, err := validateQuestion(question)
	if err != nil {
		return domain.Question{}, err
	}
	added, err := s.store.AddQuestion(ctx, question, domain.MaxQuestionsPerQuiz)
	if err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx, quizID)
	return added, nil
}

// UpdateQuestion replaces a question's content, keeping its position.
func (s *Service) UpdateQuestion(ctx context.Context, quizID, questionID int64, question domain.Question) (domain.Question, error) {
	quiz, err := s.editableQuiz(ctx, quizID)
	if err != nil {
		return domain.Question{}, err
	}
	var current *domain.Question
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == questionID {
			current = &quiz.Questions[i]
			break
		}
	}
	if current == nil {
		return domain.Question{}, domain.ErrQuestionNotFound
	}

	question.ID = current.ID
	question.QuizID = quizID
	question.Position = current.Position
	question, err = validateQuestion(question)
	if err != nil {
		return domain.Question{}, err
	}
	updated, err := s.store.UpdateQuestion(ctx, question)
	if err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx, quizID)
	return updated, nil
}

func (s *Service) DeleteQuestion(ctx context.Context, quizID, questionID int64) error {
	if _, err := s.editableQuiz(ctx, quizID); err != nil {
		return err
	}
	if err := s.store.DeleteQuestion(ctx, quizID, questionID); err != nil {
		return err
	}
	s.invalidate(ctx, quizID)
	return nil
}

// editableQuiz loads the quiz and refuses when a session is live on it.
func (s *Service) editableQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.State.IsLive() {
		return domain.Quiz{}, domain.ErrQuizLocked
	}
	return quiz, nil
}

func validateQuestion(q domain.Question) (domain.Question, error) {
	if !q.Type.Valid() {
		return q, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidQuestion, q.Type)
	}
	q = q.Normalize()
	if q.Prompt == "" {
		return q, fmt.Errorf("%w: question text is required", domain.ErrInvalidQuestion)
	}
	if q.Type != domain.QuestionFreeText && isNullJSON(q.CorrectAnswer) {
		return q, fmt.Errorf("%w: correct_answer is required", domain.ErrInvalidQuestion)
	}
	return q, nil
}

func isNullJSON(raw []byte) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}

// Open creates a joinable session with a fresh access code.
func (s *Service) Open(ctx context.Context, quizID int64) (domain.Session, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Session{}, err
	}
	if quiz.State.IsLive() {
		return domain.Session{}, domain.ErrSessionAlreadyLive
	}
	if len(quiz.Questions) == 0 {
		return domain.Session{}, domain.ErrNoQuestions
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.codes()
		if err != nil {
			return domain.Session{}, err
		}
		session, err := s.store.CreateSession(ctx, domain.Session{
			QuizID:          quizID,
			AccessCode:      code,
			State:           domain.StateOpen,
			CurrentPosition: 1,
			CreatedAt:       s.now(),
		})
		if errors.Is(err, domain.ErrAccessCodeTaken) {
			s.logger.Debug("access code collision", "quiz_id", quizID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return domain.Session{}, err
		}
		s.logger.Info("session opened", "quiz_id", quizID, "session_id", session.ID, "access_code", session.AccessCode)
		s.publish(session.ID, EventOpened)
		return session, nil
	}
	return domain.Session{}, fmt.Errorf("open quiz %d: %w after %d attempts", quizID, domain.ErrAccessCodeTaken, maxCodeAttempts)
}

// Launch starts the first question of the open session.
func (s *Service) Launch(ctx context.Context, quizID int64) (domain.Session, error) {
	session, err := s.store.LiveSession(ctx, quizID)
	if err != nil {
		return domain.Session{}, err
	}
	if session.State != domain.StateOpen {
		return domain.Session{}, fmt.Errorf("%w: launch requires an open session", domain.ErrInvalidTransition)
	}
	launched, err := s.store.LaunchSession(ctx, session.ID, s.now())
	if err != nil {
		return domain.Session{}, err
	}
	s.logger.Info("session launched", "quiz_id", quizID, "session_id", session.ID)
	s.publish(session.ID, EventLaunched)
	return launched, nil
}

// Advance moves the active session to the next question and returns it.
func (s *Service) Advance(ctx context.Context, quizID int64) (domain.Session, error) {
	session, err := s.store.LiveSession(ctx, quizID)
	if err != nil {
		return domain.Session{}, err
	}
	if session.State != domain.StateActive {
		return domain.Session{}, domain.ErrSessionNotActive
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Session{}, err
	}
	if quiz.IsLastPosition(session.CurrentPosition) {
		return domain.Session{}, domain.ErrLastQuestion
	}
	advanced, err := s.store.AdvanceSession(ctx, session.ID, session.CurrentPosition, s.now())
	if err != nil {
		return domain.Session{}, err
	}
	s.logger.Info("question advanced", "session_id", session.ID, "position", advanced.CurrentPosition)
	s.publish(session.ID, EventAdvanced)
	return advanced, nil
}

// End finishes the live session of the quiz. Ending twice is rejected.
func (s *Service) End(ctx context.Context, quizID int64) (domain.Session, error) {
	session, err := s.store.LiveSession(ctx, quizID)
	if err != nil {
		return domain.Session{}, err
	}
	ended, applied, err := s.store.FinishSession(ctx, session.ID, s.now(), 0)
	if err != nil {
		return domain.Session{}, err
	}
	if !applied {
		return domain.Session{}, domain.ErrSessionNotLive
	}
	s.logger.Info("session ended", "quiz_id", quizID, "session_id", session.ID)
	s.publish(session.ID, EventFinished)
	return ended, nil
}

// ListSessions returns every session of the quiz, newest first.
func (s *Service) ListSessions(ctx context.Context, quizID int64) ([]domain.SessionSummary, error) {
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return s.store.ListSessions(ctx, quizID)
}
