package domain

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

// QuizState is the lifecycle state shared by quizzes and their sessions.
type QuizState string

const (
	StateDraft    QuizState = "draft"
	StateReady    QuizState = "ready"
	StateOpen     QuizState = "open"
	StateActive   QuizState = "active"
	StateFinished QuizState = "finished"
)

// IsLive reports whether a session in this state still accepts participants.
func (s QuizState) IsLive() bool {
	return s == StateOpen || s == StateActive
}

// QuestionType selects how a submitted answer is graded.
type QuestionType string

const (
	QuestionSingleChoice QuestionType = "single_choice"
	QuestionMultiChoice  QuestionType = "multi_choice"
	QuestionBoolean      QuestionType = "boolean"
	QuestionFreeText     QuestionType = "free_text"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSingleChoice, QuestionMultiChoice, QuestionBoolean, QuestionFreeText:
		return true
	}
	return false
}

const (
	MinTimeLimitSeconds     = 5
	MaxTimeLimitSeconds     = 120
	DefaultTimeLimitSeconds = 30
	MaxQuestionsPerQuiz     = 30
	MaxPseudoLength         = 50
)

// SpeedBonus configures the decaying bonus for fast correct answers.
type SpeedBonus struct {
	Enabled       bool `json:"enabled"`
	MaxPoints     int  `json:"max_points"`
	StepSeconds   int  `json:"step_seconds"`
	PointsPerStep int  `json:"points_per_step"`
}

// DefaultSpeedBonus is the disabled configuration new quizzes start with.
func DefaultSpeedBonus() SpeedBonus {
	return SpeedBonus{MaxPoints: 1, StepSeconds: 3, PointsPerStep: 1}
}

// Normalize clamps the bonus settings into their accepted ranges.
func (b SpeedBonus) Normalize() SpeedBonus {
	b.MaxPoints = clamp(b.MaxPoints, 0, 100)
	b.StepSeconds = clamp(b.StepSeconds, 1, 120)
	b.PointsPerStep = clamp(b.PointsPerStep, 0, 100)
	return b
}

// Quiz is an authored set of questions plus its scoring settings.
type Quiz struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	State          QuizState  `json:"state"`
	RankingEnabled bool       `json:"ranking_enabled"`
	SpeedBonus     SpeedBonus `json:"speed_bonus"`
	Questions      []Question `json:"questions,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// QuestionAt returns the question at the 1-based position.
func (q Quiz) QuestionAt(position int) (Question, bool) {
	for _, question := range q.Questions {
		if question.Position == position {
			return question, true
		}
	}
	return Question{}, false
}

// IsLastPosition reports whether position is the final question of the quiz.
func (q Quiz) IsLastPosition(position int) bool {
	return len(q.Questions) > 0 && position >= len(q.Questions)
}

// Question is one prompt of a quiz. CorrectAnswer holds raw JSON: a string
// for single choice, a list for multi choice, a bool for boolean, and null
// for free text.
type Question struct {
	ID               int64           `json:"id"`
	QuizID           int64           `json:"quiz_id"`
	Position         int             `json:"position"`
	Type             QuestionType    `json:"type"`
	Prompt           string          `json:"question"`
	Options          []string        `json:"options,omitempty"`
	CorrectAnswer    json.RawMessage `json:"correct_answer,omitempty"`
	Points           int             `json:"points"`
	TimeLimitSeconds int             `json:"time_limit_seconds"`
}

// Normalize applies the per-type rules and clamps the time limit.
func (q Question) Normalize() Question {
	q.TimeLimitSeconds = ClampTimeLimit(q.TimeLimitSeconds)
	q.Prompt = strings.TrimSpace(q.Prompt)
	switch q.Type {
	case QuestionFreeText:
		q.Options = nil
		q.CorrectAnswer = nil
		q.Points = 0
	case QuestionBoolean:
		q.Options = nil
		if q.Points < 0 {
			q.Points = 1
		}
	default:
		if q.Points < 0 {
			q.Points = 1
		}
	}
	return q
}

// Duration is the clamped display time of the question.
func (q Question) Duration() time.Duration {
	return time.Duration(ClampTimeLimit(q.TimeLimitSeconds)) * time.Second
}

// ClampTimeLimit bounds a time limit to [5,120]; zero means the default.
func ClampTimeLimit(seconds int) int {
	if seconds == 0 {
		return DefaultTimeLimitSeconds
	}
	return clamp(seconds, MinTimeLimitSeconds, MaxTimeLimitSeconds)
}

// Session is one playthrough of a quiz, addressed by its access code.
type Session struct {
	ID                int64      `json:"id"`
	QuizID            int64      `json:"quiz_id"`
	AccessCode        string     `json:"access_code"`
	State             QuizState  `json:"state"`
	CurrentPosition   int        `json:"current_question_position"`
	QuestionStartedAt *time.Time `json:"question_started_at,omitempty"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// SessionSummary is a session row with its participant count.
type SessionSummary struct {
	Session
	ParticipantCount int `json:"participant_count"`
}

// Participant is a player joined to exactly one session.
type Participant struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	Pseudo    string    `json:"pseudo"`
	Token     string    `json:"-"`
	JoinedAt  time.Time `json:"joined_at"`
}

// NormalizePseudo trims the display name and bounds its length.
func NormalizePseudo(pseudo string) string {
	pseudo = strings.TrimSpace(pseudo)
	if utf8.RuneCountInString(pseudo) <= MaxPseudoLength {
		return pseudo
	}
	return string([]rune(pseudo)[:MaxPseudoLength])
}

// Response is the single graded answer of a participant to a question.
type Response struct {
	ID             int64           `json:"id"`
	ParticipantID  int64           `json:"participant_id"`
	QuestionID     int64           `json:"question_id"`
	Answer         json.RawMessage `json:"answer"`
	IsCorrect      *bool           `json:"is_correct"`
	LatencySeconds float64         `json:"response_time_seconds"`
	PointsAwarded  int             `json:"points_awarded"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Standing is a participant together with their cumulative score.
type Standing struct {
	ParticipantID int64
	Pseudo        string
	Score         int
	JoinedAt      time.Time
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
