package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// Store is an in-memory app.Store. One mutex guards everything, which makes
// each compare-and-set method atomic.
type Store struct {
	mu           sync.Mutex
	nextID       int64
	quizzes      map[int64]domain.Quiz
	sessions     map[int64]domain.Session
	participants map[int64]domain.Participant
	tokens       map[string]int64
	scores       map[int64]int
	responses    map[responseKey]domain.Response
}

type responseKey struct {
	participantID int64
	questionID    int64
}

var _ app.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		quizzes:      make(map[int64]domain.Quiz),
		sessions:     make(map[int64]domain.Session),
		participants: make(map[int64]domain.Participant),
		tokens:       make(map[string]int64),
		scores:       make(map[int64]int),
		responses:    make(map[responseKey]domain.Response),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz.ID = s.id()
	quiz.Questions = nil
	s.quizzes[quiz.ID] = quiz
	return cloneQuiz(quiz), nil
}

func (s *Store) GetQuiz(_ context.Context, quizID int64) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(quiz), nil
}

func (s *Store) UpdateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.quizzes[quiz.ID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	current.Title = quiz.Title
	current.Description = quiz.Description
	current.State = quiz.State
	current.RankingEnabled = quiz.RankingEnabled
	current.SpeedBonus = quiz.SpeedBonus
	s.quizzes[quiz.ID] = current
	return cloneQuiz(current), nil
}

func (s *Store) DeleteQuiz(_ context.Context, quizID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, quizID)
	for id, session := range s.sessions {
		if session.QuizID == quizID {
			s.deleteSessionLocked(id)
		}
	}
	return nil
}

func (s *Store) deleteSessionLocked(sessionID int64) {
	delete(s.sessions, sessionID)
	for id, p := range s.participants {
		if p.SessionID != sessionID {
			continue
		}
		delete(s.participants, id)
		delete(s.tokens, p.Token)
		delete(s.scores, id)
		for key := range s.responses {
			if key.participantID == id {
				delete(s.responses, key)
			}
		}
	}
}

func (s *Store) AddQuestion(_ context.Context, question domain.Question, limit int) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[question.QuizID]
	if !ok {
		return domain.Question{}, domain.ErrQuizNotFound
	}
	if len(quiz.Questions) >= limit {
		return domain.Question{}, domain.ErrTooManyQuestions
	}
	question.ID = s.id()
	question.Position = len(quiz.Questions) + 1
	quiz.Questions = append(quiz.Questions, question)
	s.quizzes[quiz.ID] = quiz
	return question, nil
}

func (s *Store) UpdateQuestion(_ context.Context, question domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[question.QuizID]
	if !ok {
		return domain.Question{}, domain.ErrQuizNotFound
	}
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == question.ID {
			question.Position = quiz.Questions[i].Position
			quiz.Questions[i] = question
			return question, nil
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (s *Store) DeleteQuestion(_ context.Context, quizID, questionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	kept := quiz.Questions[:0:0]
	found := false
	for _, q := range quiz.Questions {
		if q.ID == questionID {
			found = true
			continue
		}
		q.Position = len(kept) + 1
		kept = append(kept, q)
	}
	if !found {
		return domain.ErrQuestionNotFound
	}
	quiz.Questions = kept
	s.quizzes[quizID] = quiz
	for key := range s.responses {
		if key.questionID == questionID {
			delete(s.responses, key)
		}
	}
	return nil
}

func (s *Store) CreateSession(_ context.Context, session domain.Session) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[session.QuizID]
	if !ok {
		return domain.Session{}, domain.ErrQuizNotFound
	}
	for _, other := range s.sessions {
		if !other.State.IsLive() {
			continue
		}
		if other.QuizID == session.QuizID {
			return domain.Session{}, domain.ErrSessionAlreadyLive
		}
		if other.AccessCode == session.AccessCode {
			return domain.Session{}, domain.ErrAccessCodeTaken
		}
	}
	session.ID = s.id()
	s.sessions[session.ID] = session
	quiz.State = domain.StateOpen
	s.quizzes[quiz.ID] = quiz
	return session, nil
}

func (s *Store) GetSession(_ context.Context, sessionID int64) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *Store) LiveSession(_ context.Context, quizID int64) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.QuizID == quizID && session.State.IsLive() {
			return session, nil
		}
	}
	return domain.Session{}, domain.ErrSessionNotLive
}

func (s *Store) LatestSession(_ context.Context, quizID int64) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest domain.Session
	for _, session := range s.sessions {
		if session.QuizID == quizID && session.ID > latest.ID {
			latest = session
		}
	}
	if latest.ID == 0 {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return latest, nil
}

func (s *Store) LiveSessionByCode(_ context.Context, code string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.AccessCode == code && session.State.IsLive() {
			return session, nil
		}
	}
	return domain.Session{}, domain.ErrSessionNotFound
}

func (s *Store) ListSessions(_ context.Context, quizID int64) ([]domain.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SessionSummary, 0)
	for _, session := range s.sessions {
		if session.QuizID != quizID {
			continue
		}
		out = append(out, domain.SessionSummary{
			Session:          session,
			ParticipantCount: s.countParticipantsLocked(session.ID),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) ActiveSessions(_ context.Context) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Session, 0)
	for _, session := range s.sessions {
		if session.State == domain.StateActive {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) LaunchSession(_ context.Context, sessionID int64, at time.Time) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if session.State != domain.StateOpen {
		return domain.Session{}, domain.ErrInvalidTransition
	}
	session.State = domain.StateActive
	session.StartedAt = &at
	session.QuestionStartedAt = &at
	s.sessions[sessionID] = session
	s.setQuizStateLocked(session.QuizID, domain.StateActive)
	return session, nil
}

func (s *Store) AdvanceSession(_ context.Context, sessionID int64, from int, at time.Time) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if session.State != domain.StateActive || session.CurrentPosition != from {
		return domain.Session{}, domain.ErrStaleSession
	}
	session.CurrentPosition = from + 1
	session.QuestionStartedAt = &at
	s.sessions[sessionID] = session
	return session, nil
}

func (s *Store) StampQuestionStart(_ context.Context, sessionID int64, at time.Time) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if session.State == domain.StateActive && session.QuestionStartedAt == nil {
		session.QuestionStartedAt = &at
		s.sessions[sessionID] = session
	}
	return session, nil
}

func (s *Store) FinishSession(_ context.Context, sessionID int64, at time.Time, position int) (domain.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, false, domain.ErrSessionNotFound
	}
	if !session.State.IsLive() {
		return session, false, nil
	}
	if position > 0 && (session.State != domain.StateActive || session.CurrentPosition != position) {
		return session, false, nil
	}
	session.State = domain.StateFinished
	session.EndedAt = &at
	s.sessions[sessionID] = session
	s.setQuizStateLocked(session.QuizID, domain.StateFinished)
	return session, true, nil
}

func (s *Store) setQuizStateLocked(quizID int64, state domain.QuizState) {
	if quiz, ok := s.quizzes[quizID]; ok {
		quiz.State = state
		s.quizzes[quizID] = quiz
	}
}

func (s *Store) CreateParticipant(_ context.Context, participant domain.Participant) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[participant.SessionID]
	if !ok || !session.State.IsLive() {
		return domain.Participant{}, domain.ErrSessionNotFound
	}
	participant.ID = s.id()
	s.participants[participant.ID] = participant
	s.tokens[participant.Token] = participant.ID
	s.scores[participant.ID] = 0
	return participant, nil
}

func (s *Store) ParticipantByToken(_ context.Context, token string) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[token]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return s.participants[id], nil
}

func (s *Store) ListParticipants(_ context.Context, sessionID int64) ([]domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Participant, 0)
	for _, p := range s.participants {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CountParticipants(_ context.Context, sessionID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countParticipantsLocked(sessionID), nil
}

func (s *Store) countParticipantsLocked(sessionID int64) int {
	n := 0
	for _, p := range s.participants {
		if p.SessionID == sessionID {
			n++
		}
	}
	return n
}

func (s *Store) RecordResponse(_ context.Context, guard app.ResponseGuard, response domain.Response) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[guard.SessionID]
	if !ok {
		return 0, domain.ErrSessionNotFound
	}
	switch {
	case session.State == domain.StateFinished:
		return 0, domain.ErrSessionFinished
	case session.State != domain.StateActive:
		return 0, domain.ErrSessionNotActive
	case session.CurrentPosition != guard.Position:
		return 0, domain.ErrNotCurrentQuestion
	}
	participant, ok := s.participants[response.ParticipantID]
	if !ok || participant.SessionID != guard.SessionID {
		return 0, domain.ErrParticipantNotFound
	}

	key := responseKey{participantID: response.ParticipantID, questionID: response.QuestionID}
	if _, dup := s.responses[key]; dup {
		return 0, domain.ErrDuplicateResponse
	}
	response.ID = s.id()
	s.responses[key] = response
	s.scores[response.ParticipantID] += response.PointsAwarded
	return s.scores[response.ParticipantID], nil
}

func (s *Store) CountResponses(_ context.Context, sessionID, questionID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key := range s.responses {
		if key.questionID != questionID {
			continue
		}
		if p, ok := s.participants[key.participantID]; ok && p.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}

func (s *Store) Standings(_ context.Context, sessionID int64) ([]domain.Standing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Standing, 0)
	for id, p := range s.participants {
		if p.SessionID != sessionID {
			continue
		}
		out = append(out, domain.Standing{
			ParticipantID: id,
			Pseudo:        p.Pseudo,
			Score:         s.scores[id],
			JoinedAt:      p.JoinedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	return out, nil
}

// cloneQuiz copies the question slice so callers cannot mutate stored state.
func cloneQuiz(quiz domain.Quiz) domain.Quiz {
	if quiz.Questions != nil {
		quiz.Questions = append([]domain.Question(nil), quiz.Questions...)
	}
	return quiz
}
