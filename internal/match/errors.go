package match

import "errors"

var (
	ErrInvalidRequest   = errors.New("invalid_request")
	ErrInvalidCell      = errors.New("invalid_cell")
	ErrSessionCompleted = errors.New("session_completed")
	ErrTooManyConflicts = errors.New("too_many_conflicts")
)

// Reasons reported on clicks that were accepted but changed nothing.
const (
	ReasonAlreadyUnlocked  = "already_unlocked"
	ReasonNoActiveQuestion = "no_active_question"
	ReasonAlreadyAnswered  = "already_answered"
	ReasonParticipantLeft  = "participant_left"
)
