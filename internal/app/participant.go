package app

import (
	"context"
	"strings"
	"time"

	"live-quiz-service/internal/domain"
)

// JoinResult is handed to a participant after joining.
type JoinResult struct {
	SessionToken   string `json:"session_token"`
	SessionID      int64  `json:"session_id"`
	QuizTitle      string `json:"quiz_title"`
	RankingEnabled bool   `json:"ranking_enabled"`
	TotalQuestions int    `json:"total_questions"`
}

// QuestionView is a question as shown to players, without its answer.
type QuestionView struct {
	ID       int64               `json:"id"`
	Position int                 `json:"position"`
	Type     domain.QuestionType `json:"type"`
	Prompt   string              `json:"question"`
	Options  []string            `json:"options"`
}

func newQuestionView(q domain.Question) *QuestionView {
	options := q.Options
	if options == nil {
		options = []string{}
	}
	return &QuestionView{ID: q.ID, Position: q.Position, Type: q.Type, Prompt: q.Prompt, Options: options}
}

// ParticipantView is a player as listed in lobbies.
type ParticipantView struct {
	Pseudo string `json:"pseudo"`
}

// ParticipantState is what a polling participant sees.
type ParticipantState struct {
	SessionID       int64             `json:"session_id"`
	ParticipantID   int64             `json:"participant_id"`
	WaitingForStart bool              `json:"waiting_for_start,omitempty"`
	Finished        bool              `json:"finished,omitempty"`
	RankingEnabled  bool              `json:"ranking_enabled"`
	TotalQuestions  int               `json:"total_questions"`
	Participants    []ParticipantView `json:"participants,omitempty"`

	CurrentPosition   int           `json:"current_question_position,omitempty"`
	QuestionStartedAt *time.Time    `json:"question_started_at,omitempty"`
	DurationSeconds   int           `json:"question_duration_seconds,omitempty"`
	RemainingSeconds  *int          `json:"remaining_seconds,omitempty"`
	Question          *QuestionView `json:"question,omitempty"`
}

// Join adds a player to the live session identified by code.
func (s *Service) Join(ctx context.Context, code, pseudo string) (JoinResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	pseudo = domain.NormalizePseudo(pseudo)
	if code == "" || pseudo == "" {
		return JoinResult{}, domain.ErrMissingJoinFields
	}

	session, err := s.store.LiveSessionByCode(ctx, code)
	if err != nil {
		return JoinResult{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, session.QuizID)
	if err != nil {
		return JoinResult{}, err
	}
	participant, err := s.store.CreateParticipant(ctx, domain.Participant{
		SessionID: session.ID,
		Pseudo:    pseudo,
		Token:     s.tokens(),
		JoinedAt:  s.now(),
	})
	if err != nil {
		return JoinResult{}, err
	}

	s.logger.Info("participant joined", "session_id", session.ID, "participant_id", participant.ID)
	s.publish(session.ID, EventJoined)
	return JoinResult{
		SessionToken:   participant.Token,
		SessionID:      session.ID,
		QuizTitle:      quiz.Title,
		RankingEnabled: quiz.RankingEnabled,
		TotalQuestions: len(quiz.Questions),
	}, nil
}

// State is the participant poll. Reading an active session runs the
// auto-advance policy first.
func (s *Service) State(ctx context.Context, token string) (ParticipantState, error) {
	participant, err := s.store.ParticipantByToken(ctx, token)
	if err != nil {
		return ParticipantState{}, err
	}
	session, err := s.store.GetSession(ctx, participant.SessionID)
	if err != nil {
		return ParticipantState{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, session.QuizID)
	if err != nil {
		return ParticipantState{}, err
	}

	state := ParticipantState{
		SessionID:      session.ID,
		ParticipantID:  participant.ID,
		RankingEnabled: quiz.RankingEnabled,
		TotalQuestions: len(quiz.Questions),
	}

	switch session.State {
	case domain.StateOpen:
		participants, err := s.store.ListParticipants(ctx, session.ID)
		if err != nil {
			return ParticipantState{}, err
		}
		state.WaitingForStart = true
		state.Participants = participantViews(participants)
		return state, nil
	case domain.StateActive:
		ev, err := s.evaluate(ctx, session, quiz)
		if err != nil {
			return ParticipantState{}, err
		}
		if !ev.Running {
			state.Finished = ev.Session.State == domain.StateFinished
			return state, nil
		}
		remaining := ev.Timer.Remaining
		startedAt := ev.Timer.StartedAt
		state.CurrentPosition = ev.Session.CurrentPosition
		state.QuestionStartedAt = &startedAt
		state.DurationSeconds = ev.Timer.DurationSeconds()
		state.RemainingSeconds = &remaining
		state.Question = newQuestionView(ev.Question)
		return state, nil
	default:
		state.Finished = true
		return state, nil
	}
}

// Subscribe streams events of the caller's session until cancel is called.
func (s *Service) Subscribe(ctx context.Context, token string) (<-chan Event, func(), error) {
	participant, err := s.store.ParticipantByToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.Subscribe(participant.SessionID)
	return ch, cancel, nil
}

func participantViews(participants []domain.Participant) []ParticipantView {
	views := make([]ParticipantView, 0, len(participants))
	for _, p := range participants {
		views = append(views, ParticipantView{Pseudo: p.Pseudo})
	}
	return views
}
