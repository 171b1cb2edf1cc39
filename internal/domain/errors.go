package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every sentinel below wraps exactly one of them so callers
// can map failures with errors.Is.
var (
	// ErrValidation marks malformed input; nothing was mutated.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks an action that is invalid for the current lifecycle state.
	ErrConflict = errors.New("state conflict")
	// ErrNotFound marks an unknown resource.
	ErrNotFound = errors.New("not found")
)

var (
	ErrQuizNotFound        = fmt.Errorf("%w: quiz not found", ErrNotFound)
	ErrQuestionNotFound    = fmt.Errorf("%w: question not found", ErrNotFound)
	ErrSessionNotFound     = fmt.Errorf("%w: invalid code or session not open", ErrNotFound)
	ErrParticipantNotFound = fmt.Errorf("%w: participant not found", ErrNotFound)

	ErrMissingJoinFields  = fmt.Errorf("%w: code and pseudo are required", ErrValidation)
	ErrMissingQuestionID  = fmt.Errorf("%w: question_id is required", ErrValidation)
	ErrNotCurrentQuestion = fmt.Errorf("%w: question is not the current question", ErrValidation)
	ErrInvalidQuiz        = fmt.Errorf("%w: invalid quiz", ErrValidation)
	ErrInvalidQuestion    = fmt.Errorf("%w: invalid question", ErrValidation)

	ErrQuizLocked         = fmt.Errorf("%w: quiz has an open or active session", ErrConflict)
	ErrNoQuestions        = fmt.Errorf("%w: quiz needs at least one question", ErrConflict)
	ErrTooManyQuestions   = fmt.Errorf("%w: question limit reached", ErrConflict)
	ErrInvalidTransition  = fmt.Errorf("%w: transition not allowed from current state", ErrConflict)
	ErrSessionAlreadyLive = fmt.Errorf("%w: quiz already has an open or active session", ErrConflict)
	ErrSessionNotLive     = fmt.Errorf("%w: no open or active session for quiz", ErrConflict)
	ErrSessionNotActive   = fmt.Errorf("%w: session is not active", ErrConflict)
	ErrSessionFinished    = fmt.Errorf("%w: session is finished", ErrConflict)
	ErrLastQuestion       = fmt.Errorf("%w: last question reached, end the quiz instead", ErrConflict)
	ErrDuplicateResponse  = fmt.Errorf("%w: response already recorded", ErrConflict)
	ErrAccessCodeTaken    = fmt.Errorf("%w: access code already in use", ErrConflict)
	ErrStaleSession       = fmt.Errorf("%w: session changed concurrently", ErrConflict)
)
