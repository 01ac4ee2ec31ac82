package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced to callers of the command pipeline
type ErrorKind string

const (
	KindFormat             ErrorKind = "format"
	KindTimeParse          ErrorKind = "time_parse"
	KindDurationParse      ErrorKind = "duration_parse"
	KindFutureWeekday      ErrorKind = "future_weekday"
	KindNoMatch            ErrorKind = "no_match"
	KindAmbiguousMatch     ErrorKind = "ambiguous_match"
	KindSelectionExpired   ErrorKind = "selection_expired"
	KindSelectionOwnership ErrorKind = "selection_ownership"
	KindSelectionNotFound  ErrorKind = "selection_not_found"
)

// FutureWeekdayMessage is shown verbatim when a weekday reference points forward in the week
const FutureWeekdayMessage = "Извини, я могу заносить записи только за прошедшую часть текущей недели."

// CommandError is a classified pipeline failure. Two CommandErrors match
// under errors.Is when their kinds are equal.
type CommandError struct {
	Kind    ErrorKind
	Message string
	// Choices is set for ambiguous matches so callers can list the options
	Choices []RankedCandidate
	// Suggestion is an optional "did you mean" hint for no-match failures
	Suggestion string
	Err        error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Is matches any CommandError of the same kind
func (e *CommandError) Is(target error) bool {
	var t *CommandError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrFormat             = &CommandError{Kind: KindFormat, Message: "command format not recognized"}
	ErrTimeParse          = &CommandError{Kind: KindTimeParse, Message: "start time not recognized"}
	ErrDurationParse      = &CommandError{Kind: KindDurationParse, Message: "duration not recognized"}
	ErrFutureWeekday      = &CommandError{Kind: KindFutureWeekday, Message: FutureWeekdayMessage}
	ErrNoMatch            = &CommandError{Kind: KindNoMatch, Message: "project not found"}
	ErrAmbiguousMatch     = &CommandError{Kind: KindAmbiguousMatch, Message: "several projects match, resubmit with the exact name"}
	ErrSelectionExpired   = &CommandError{Kind: KindSelectionExpired, Message: "selection expired"}
	ErrSelectionOwnership = &CommandError{Kind: KindSelectionOwnership, Message: "selection belongs to another user"}
	ErrSelectionNotFound  = &CommandError{Kind: KindSelectionNotFound, Message: "selection not found"}
)

// NewCommandError creates an error of the given kind with a custom message
func NewCommandError(kind ErrorKind, message string, err error) *CommandError {
	return &CommandError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first CommandError in err's chain, or "" if none
func KindOf(err error) ErrorKind {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
