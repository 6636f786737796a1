package clinic

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the registry can report.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidInput
	KindDuplicateKey
	KindNotFound
	KindScheduleConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindDuplicateKey:
		return "duplicate_key"
	case KindNotFound:
		return "not_found"
	case KindScheduleConflict:
		return "schedule_conflict"
	default:
		return "unknown"
	}
}

// Party names the side of a booking that caused a schedule conflict.
type Party string

const (
	PartyPhysician Party = "physician"
	PartyPatient   Party = "patient"
)

// Sentinels for errors.Is matching on kind alone.
var (
	ErrInvalidInput     = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrDuplicateKey     = &Error{Kind: KindDuplicateKey, Message: "duplicate key"}
	ErrNotFound         = &Error{Kind: KindNotFound, Message: "not found"}
	ErrScheduleConflict = &Error{Kind: KindScheduleConflict, Message: "schedule conflict"}
)

// Error is the typed failure returned by registry operations. Party is set
// only for schedule conflicts.
type Error struct {
	Kind    ErrorKind
	Party   Party
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is an *Error of the same kind, so callers can
// write errors.Is(err, clinic.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of a registry error, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ConflictParty returns the conflicting party of a schedule conflict.
func ConflictParty(err error) (Party, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindScheduleConflict {
		return e.Party, true
	}
	return "", false
}

func invalidInput(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func duplicateKey(format string, args ...interface{}) error {
	return &Error{Kind: KindDuplicateKey, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func scheduleConflict(party Party) error {
	return &Error{
		Kind:    KindScheduleConflict,
		Party:   party,
		Message: fmt.Sprintf("schedule conflict for %s", party),
	}
}
