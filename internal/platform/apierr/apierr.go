package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
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

// StatusFor maps an aggregate error code onto its HTTP status.
func StatusFor(code aggregates.ErrorCode) int {
	switch code {
	case aggregates.CodeValidation:
		return http.StatusBadRequest
	case aggregates.CodeInvalidState, aggregates.CodeInvalidTransition, aggregates.CodeDuplicate, aggregates.CodeConflict:
		return http.StatusConflict
	case aggregates.CodeNotFound:
		return http.StatusNotFound
	case aggregates.CodeUnauthorized:
		return http.StatusUnauthorized
	case aggregates.CodeForbidden:
		return http.StatusForbidden
	case aggregates.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromError classifies err. An *Error passes through; aggregate errors take the status of
// their code; anything else is an internal error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	code := aggregates.CodeOf(err)
	if code == "" {
		code = aggregates.CodeInternal
	}
	return New(StatusFor(code), string(code), err)
}
