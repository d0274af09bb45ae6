package apierr

import (
	"errors"
	"fmt"
	"net/http"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// StatusFor maps an assessment error code to its HTTP status.
func StatusFor(code types.ErrorCode) int {
	switch code {
	case types.CodeSessionNotFound:
		return http.StatusNotFound
	case types.CodeSessionCompleted, types.CodeSessionInProgress, types.CodePersistenceConflict:
		return http.StatusConflict
	case types.CodeValidation, types.CodeNoActiveQuestion, types.CodeQuestionMismatch:
		return http.StatusBadRequest
	case types.CodePersistenceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromDomain converts a service error into an API error. Internal failures
// keep their cause for logging but expose a generic message.
func FromDomain(err error) *Error {
	if err == nil {
		return nil
	}
	var api *Error
	if errors.As(err, &api) {
		return api
	}
	var de *types.Error
	if !errors.As(err, &de) {
		return &Error{Status: http.StatusInternalServerError, Code: string(types.CodeInternal), Err: err}
	}
	status := StatusFor(de.Code)
	if status == http.StatusInternalServerError {
		return &Error{Status: status, Code: string(types.CodeInternal), Err: err}
	}
	return &Error{Status: status, Code: string(de.Code), Err: err}
}

// PublicMessage is the message safe to return to clients.
func (e *Error) PublicMessage() string {
	if e == nil {
		return ""
	}
	if e.Status >= http.StatusInternalServerError && e.Status != http.StatusServiceUnavailable {
		return "internal error"
	}
	var de *types.Error
	if errors.As(e.Err, &de) && de.Message != "" {
		return de.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Status)
}
