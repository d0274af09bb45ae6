package assessment

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode standardizes assessment failure semantics across stores, services and transport.
type ErrorCode string

const (
	CodeValidation             ErrorCode = "validation"
	CodeSessionNotFound        ErrorCode = "session_not_found"
	CodeSessionCompleted       ErrorCode = "session_completed"
	CodeSessionInProgress      ErrorCode = "session_in_progress"
	CodeNoActiveQuestion       ErrorCode = "no_active_question"
	CodeQuestionMismatch       ErrorCode = "question_mismatch"
	CodeNoEligibleQuestion     ErrorCode = "no_eligible_question"
	CodePersistenceConflict    ErrorCode = "persistence_conflict"
	CodePersistenceUnavailable ErrorCode = "persistence_unavailable"
	CodeInternal               ErrorCode = "internal"
)

// Error is the canonical assessment error wrapper.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates err with code. A nil err stays nil.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

func CodeOf(err error) ErrorCode {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Code
}

// Retryable reports whether the whole operation may be re-run from a fresh load.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodePersistenceConflict, CodePersistenceUnavailable:
		return true
	default:
		return false
	}
}

func SessionNotFound(op, id string) error {
	return NewError(CodeSessionNotFound, op, fmt.Sprintf("session %q not found", id), nil)
}

func SessionCompleted(op, id string) error {
	return NewError(CodeSessionCompleted, op, fmt.Sprintf("session %q is completed", id), nil)
}

func SessionInProgress(op, id string) error {
	return NewError(CodeSessionInProgress, op, fmt.Sprintf("session %q is not completed yet", id), nil)
}

func NoActiveQuestion(op, id string) error {
	return NewError(CodeNoActiveQuestion, op, fmt.Sprintf("session %q has no active question", id), nil)
}

func QuestionMismatch(op, want, got string) error {
	return NewError(CodeQuestionMismatch, op, fmt.Sprintf("active question is %q, got %q", want, got), nil)
}

func PersistenceConflict(op, message string) error {
	return NewError(CodePersistenceConflict, op, message, nil)
}

func PersistenceUnavailable(op string, cause error) error {
	msg := "store unavailable"
	if cause != nil {
		msg = cause.Error()
	}
	return NewError(CodePersistenceUnavailable, op, msg, cause)
}

func Validation(op, message string) error {
	return NewError(CodeValidation, op, message, nil)
}
