package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// Store is the relational app.Store. Lifecycle transitions are conditional
// UPDATEs and exactly-once answers rest on the unique constraints of the
// schema in the migrations package.
type Store struct {
	pool *pgxpool.Pool
}

var _ app.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pool for dsn.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

const uniqueViolation = "23505"

// violatedConstraint returns the constraint name of a unique violation.
func violatedConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

const quizColumns = `id, title, description, state, ranking_enabled,
	speed_bonus_enabled, speed_bonus_max_points, speed_bonus_step_seconds,
	speed_bonus_points_per_step, created_at`

func scanQuiz(row pgx.Row) (domain.Quiz, error) {
	var (
		quiz  domain.Quiz
		state string
	)
	err := row.Scan(&quiz.ID, &quiz.Title, &quiz.Description, &state, &quiz.RankingEnabled,
		&quiz.SpeedBonus.Enabled, &quiz.SpeedBonus.MaxPoints, &quiz.SpeedBonus.StepSeconds,
		&quiz.SpeedBonus.PointsPerStep, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz.State = domain.QuizState(state)
	return quiz, err
}

const questionColumns = `id, quiz_id, position, type, prompt, options, correct_answer, points, time_limit_seconds`

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var (
		q       domain.Question
		kind    string
		options []byte
		answer  []byte
	)
	err := row.Scan(&q.ID, &q.QuizID, &q.Position, &kind, &q.Prompt, &options, &answer, &q.Points, &q.TimeLimitSeconds)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, err
	}
	q.Type = domain.QuestionType(kind)
	if len(options) > 0 {
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return domain.Question{}, fmt.Errorf("decode options of question %d: %w", q.ID, err)
		}
		if len(q.Options) == 0 {
			q.Options = nil
		}
	}
	if len(answer) > 0 {
		q.CorrectAnswer = json.RawMessage(answer)
	}
	return q, nil
}

// jsonbParam renders raw JSON for a jsonb parameter; SQL NULL when empty.
func jsonbParam(raw json.RawMessage) interface{} {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return string(raw)
}

func optionsParam(options []string) (string, error) {
	if options == nil {
		options = []string{}
	}
	data, err := json.Marshal(options)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO quizzes (title, description, state, ranking_enabled,
			speed_bonus_enabled, speed_bonus_max_points, speed_bonus_step_seconds,
			speed_bonus_points_per_step, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+quizColumns,
		quiz.Title, quiz.Description, string(quiz.State), quiz.RankingEnabled,
		quiz.SpeedBonus.Enabled, quiz.SpeedBonus.MaxPoints, quiz.SpeedBonus.StepSeconds,
		quiz.SpeedBonus.PointsPerStep, quiz.CreatedAt)
	created, err := scanQuiz(row)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	return created, nil
}

func (s *Store) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	quiz, err := scanQuiz(s.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, quizID))
	if err != nil {
		return domain.Quiz{}, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+questionColumns+` FROM questions
		WHERE quiz_id = $1 ORDER BY position`, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return domain.Quiz{}, err
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	return quiz, nil
}

func (s *Store) UpdateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE quizzes SET title = $2, description = $3, state = $4, ranking_enabled = $5,
			speed_bonus_enabled = $6, speed_bonus_max_points = $7,
			speed_bonus_step_seconds = $8, speed_bonus_points_per_step = $9
		WHERE id = $1`,
		quiz.ID, quiz.Title, quiz.Description, string(quiz.State), quiz.RankingEnabled,
		quiz.SpeedBonus.Enabled, quiz.SpeedBonus.MaxPoints, quiz.SpeedBonus.StepSeconds,
		quiz.SpeedBonus.PointsPerStep)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("update quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return s.GetQuiz(ctx, quiz.ID)
}

func (s *Store) DeleteQuiz(ctx context.Context, quizID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, quizID)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *Store) AddQuestion(ctx context.Context, question domain.Question, limit int) (domain.Question, error) {
	options, err := optionsParam(question.Options)
	if err != nil {
		return domain.Question{}, err
	}
	var added domain.Question
	err = s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		var count int
		err := tx.QueryRow(ctx, `SELECT id FROM quizzes WHERE id = $1 FOR UPDATE`, question.QuizID).Scan(new(int64))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrQuizNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM questions WHERE quiz_id = $1`, question.QuizID).Scan(&count); err != nil {
			return err
		}
		if count >= limit {
			return domain.ErrTooManyQuestions
		}
		added, err = scanQuestion(tx.QueryRow(ctx, `
			INSERT INTO questions (quiz_id, position, type, prompt, options, correct_answer, points, time_limit_seconds)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+questionColumns,
			question.QuizID, count+1, string(question.Type), question.Prompt, options,
			jsonbParam(question.CorrectAnswer), question.Points, question.TimeLimitSeconds))
		return err
	})
	if err != nil {
		return domain.Question{}, fmt.Errorf("add question: %w", err)
	}
	return added, nil
}

func (s *Store) UpdateQuestion(ctx context.Context, question domain.Question) (domain.Question, error) {
	options, err := optionsParam(question.Options)
	if err != nil {
		return domain.Question{}, err
	}
	updated, err := scanQuestion(s.pool.QueryRow(ctx, `
		UPDATE questions SET type = $3, prompt = $4, options = $5, correct_answer = $6,
			points = $7, time_limit_seconds = $8
		WHERE id = $1 AND quiz_id = $2
		RETURNING `+questionColumns,
		question.ID, question.QuizID, string(question.Type), question.Prompt, options,
		jsonbParam(question.CorrectAnswer), question.Points, question.TimeLimitSeconds))
	if err != nil {
		return domain.Question{}, fmt.Errorf("update question: %w", err)
	}
	return updated, nil
}

func (s *Store) DeleteQuestion(ctx context.Context, quizID, questionID int64) error {
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		var position int
		err := tx.QueryRow(ctx, `
			DELETE FROM questions WHERE id = $1 AND quiz_id = $2 RETURNING position`,
			questionID, quizID).Scan(&position)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrQuestionNotFound
		}
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE questions SET position = position - 1
			WHERE quiz_id = $1 AND position > $2`, quizID, position)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

const sessionColumns = `id, quiz_id, access_code, state, current_question_position,
	current_question_started_at, started_at, ended_at, created_at`

func scanSession(row pgx.Row) (domain.Session, error) {
	var (
		session domain.Session
		state   string
	)
	err := row.Scan(&session.ID, &session.QuizID, &session.AccessCode, &state, &session.CurrentPosition,
		&session.QuestionStartedAt, &session.StartedAt, &session.EndedAt, &session.CreatedAt)
	if err != nil {
		return domain.Session{}, err
	}
	session.State = domain.QuizState(state)
	return session, nil
}

func (s *Store) CreateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	var created domain.Session
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `SELECT id FROM quizzes WHERE id = $1 FOR UPDATE`, session.QuizID).Scan(new(int64))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrQuizNotFound
		}
		if err != nil {
			return err
		}
		created, err = scanSession(tx.QueryRow(ctx, `
			INSERT INTO quiz_sessions (quiz_id, access_code, state, current_question_position, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+sessionColumns,
			session.QuizID, session.AccessCode, string(session.State), session.CurrentPosition, session.CreatedAt))
		if constraint, ok := violatedConstraint(err); ok {
			switch constraint {
			case "quiz_sessions_live_code_key":
				return domain.ErrAccessCodeTaken
			default:
				return domain.ErrSessionAlreadyLive
			}
		}
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE quizzes SET state = $2 WHERE id = $1`, session.QuizID, string(domain.StateOpen))
		return err
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	return created, nil
}

func (s *Store) GetSession(ctx context.Context, sessionID int64) (domain.Session, error) {
	session, err := scanSession(s.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM quiz_sessions WHERE id = $1`, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, err
}

func (s *Store) LiveSession(ctx context.Context, quizID int64) (domain.Session, error) {
	session, err := scanSession(s.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM quiz_sessions
		WHERE quiz_id = $1 AND state IN ('open', 'active')`, quizID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotLive
	}
	return session, err
}

func (s *Store) LatestSession(ctx context.Context, quizID int64) (domain.Session, error) {
	session, err := scanSession(s.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM quiz_sessions
		WHERE quiz_id = $1 ORDER BY id DESC LIMIT 1`, quizID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, err
}

func (s *Store) LiveSessionByCode(ctx context.Context, code string) (domain.Session, error) {
	session, err := scanSession(s.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM quiz_sessions
		WHERE access_code = $1 AND state IN ('open', 'active')`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, err
}

func (s *Store) ListSessions(ctx context.Context, quizID int64) ([]domain.SessionSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+sessionColumns+`,
			(SELECT COUNT(*) FROM participants p WHERE p.session_id = quiz_sessions.id)
		FROM quiz_sessions
		WHERE quiz_id = $1
		ORDER BY id DESC`, quizID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.SessionSummary, 0)
	for rows.Next() {
		var (
			summary domain.SessionSummary
			state   string
		)
		err := rows.Scan(&summary.ID, &summary.QuizID, &summary.AccessCode, &state, &summary.CurrentPosition,
			&summary.QuestionStartedAt, &summary.StartedAt, &summary.EndedAt, &summary.CreatedAt,
			&summary.ParticipantCount)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		summary.State = domain.QuizState(state)
		out = append(out, summary)
	}
	return out, rows.Err()
}

func (s *Store) ActiveSessions(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+sessionColumns+` FROM quiz_sessions WHERE state = 'active' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("active sessions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("active sessions: %w", err)
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

// setQuizState mirrors a session transition onto its quiz.
func setQuizState(ctx context.Context, tx pgx.Tx, quizID int64, state domain.QuizState) error {
	_, err := tx.Exec(ctx, `UPDATE quizzes SET state = $2 WHERE id = $1`, quizID, string(state))
	return err
}

func (s *Store) LaunchSession(ctx context.Context, sessionID int64, at time.Time) (domain.Session, error) {
	var launched domain.Session
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		var err error
		launched, err = scanSession(tx.QueryRow(ctx, `
			UPDATE quiz_sessions
			SET state = 'active', started_at = $2, current_question_started_at = $2
			WHERE id = $1 AND state = 'open'
			RETURNING `+sessionColumns, sessionID, at))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrInvalidTransition
		}
		if err != nil {
			return err
		}
		return setQuizState(ctx, tx, launched.QuizID, domain.StateActive)
	})
	if errors.Is(err, domain.ErrInvalidTransition) {
		if _, getErr := s.GetSession(ctx, sessionID); getErr != nil {
			return domain.Session{}, getErr
		}
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("launch session: %w", err)
	}
	return launched, nil
}

func (s *Store) AdvanceSession(ctx context.Context, sessionID int64, from int, at time.Time) (domain.Session, error) {
	session, err := scanSession(s.pool.QueryRow(ctx, `
		UPDATE quiz_sessions
		SET current_question_position = $2 + 1, current_question_started_at = $3
		WHERE id = $1 AND state = 'active' AND current_question_position = $2
		RETURNING `+sessionColumns, sessionID, from, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrStaleSession
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("advance session: %w", err)
	}
	return session, nil
}

func (s *Store) StampQuestionStart(ctx context.Context, sessionID int64, at time.Time) (domain.Session, error) {
	session, err := scanSession(s.pool.QueryRow(ctx, `
		UPDATE quiz_sessions
		SET current_question_started_at = COALESCE(current_question_started_at, $2)
		WHERE id = $1 AND state = 'active'
		RETURNING `+sessionColumns, sessionID, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return s.GetSession(ctx, sessionID)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("stamp question start: %w", err)
	}
	return session, nil
}

func (s *Store) FinishSession(ctx context.Context, sessionID int64, at time.Time, position int) (domain.Session, bool, error) {
	var finished domain.Session
	applied := false
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		var err error
		finished, err = scanSession(tx.QueryRow(ctx, `
			UPDATE quiz_sessions
			SET state = 'finished', ended_at = $2
			WHERE id = $1 AND state IN ('open', 'active')
				AND ($3 = 0 OR (state = 'active' AND current_question_position = $3))
			RETURNING `+sessionColumns, sessionID, at, position))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		applied = true
		return setQuizState(ctx, tx, finished.QuizID, domain.StateFinished)
	})
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("finish session: %w", err)
	}
	if !applied {
		current, err := s.GetSession(ctx, sessionID)
		return current, false, err
	}
	return finished, true, nil
}

func (s *Store) CreateParticipant(ctx context.Context, participant domain.Participant) (domain.Participant, error) {
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO participants (session_id, pseudo, token, joined_at)
			SELECT id, $2, $3, $4 FROM quiz_sessions
			WHERE id = $1 AND state IN ('open', 'active')
			FOR SHARE
			RETURNING id`,
			participant.SessionID, participant.Pseudo, participant.Token, participant.JoinedAt).Scan(&participant.ID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO scores (participant_id, session_id, total_score, updated_at)
			VALUES ($1, $2, 0, $3)`, participant.ID, participant.SessionID, participant.JoinedAt)
		return err
	})
	if err != nil {
		return domain.Participant{}, fmt.Errorf("create participant: %w", err)
	}
	return participant, nil
}

func (s *Store) ParticipantByToken(ctx context.Context, token string) (domain.Participant, error) {
	var p domain.Participant
	err := s.pool.QueryRow(ctx, `
		SELECT id, session_id, pseudo, token, joined_at FROM participants WHERE token = $1`, token).
		Scan(&p.ID, &p.SessionID, &p.Pseudo, &p.Token, &p.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, fmt.Errorf("participant by token: %w", err)
	}
	return p, nil
}

func (s *Store) ListParticipants(ctx context.Context, sessionID int64) ([]domain.Participant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, pseudo, token, joined_at FROM participants
		WHERE session_id = $1 ORDER BY joined_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Participant, 0)
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Pseudo, &p.Token, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("list participants: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) CountParticipants(ctx context.Context, sessionID int64) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM participants WHERE session_id = $1`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return n, nil
}

func (s *Store) RecordResponse(ctx context.Context, guard app.ResponseGuard, response domain.Response) (int, error) {
	var total int
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		var (
			state    string
			position int
		)
		// The share lock holds off a concurrent advance or finish until the
		// answer is committed.
		err := tx.QueryRow(ctx, `
			SELECT state, current_question_position FROM quiz_sessions
			WHERE id = $1 FOR SHARE`, guard.SessionID).Scan(&state, &position)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		switch {
		case domain.QuizState(state) == domain.StateFinished:
			return domain.ErrSessionFinished
		case domain.QuizState(state) != domain.StateActive:
			return domain.ErrSessionNotActive
		case position != guard.Position:
			return domain.ErrNotCurrentQuestion
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO responses (participant_id, question_id, answer, is_correct,
				response_time_seconds, points_awarded, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			response.ParticipantID, response.QuestionID, jsonbParam(response.Answer), response.IsCorrect,
			response.LatencySeconds, response.PointsAwarded, response.CreatedAt)
		if _, ok := violatedConstraint(err); ok {
			return domain.ErrDuplicateResponse
		}
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx, `
			UPDATE scores SET total_score = total_score + $3, updated_at = $4
			WHERE participant_id = $1 AND session_id = $2
			RETURNING total_score`,
			response.ParticipantID, guard.SessionID, response.PointsAwarded, response.CreatedAt).Scan(&total)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrParticipantNotFound
		}
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("record response: %w", err)
	}
	return total, nil
}

func (s *Store) CountResponses(ctx context.Context, sessionID, questionID int64) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM responses r
		JOIN participants p ON p.id = r.participant_id
		WHERE p.session_id = $1 AND r.question_id = $2`, sessionID, questionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return n, nil
}

func (s *Store) Standings(ctx context.Context, sessionID int64) ([]domain.Standing, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.pseudo, COALESCE(sc.total_score, 0) AS total_score, p.joined_at
		FROM participants p
		LEFT JOIN scores sc ON sc.participant_id = p.id
		WHERE p.session_id = $1
		ORDER BY total_score DESC, p.joined_at ASC, p.id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("standings: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Standing, 0)
	for rows.Next() {
		var st domain.Standing
		if err := rows.Scan(&st.ParticipantID, &st.Pseudo, &st.Score, &st.JoinedAt); err != nil {
			return nil, fmt.Errorf("standings: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
