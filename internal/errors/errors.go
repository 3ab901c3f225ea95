package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrCode represents an error code
type ErrCode string

const (
	ErrCodeNotFound     ErrCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrCode = "FORBIDDEN"
	ErrCodeNoCommits    ErrCode = "NO_COMMITS"
	ErrCodeHTTP         ErrCode = "HTTP_ERROR"
	ErrCodeTransport    ErrCode = "TRANSPORT_ERROR"
	ErrCodeBadResponse  ErrCode = "BAD_RESPONSE"
	ErrCodeBadRequest   ErrCode = "BAD_REQUEST"
	ErrCodeInternal     ErrCode = "INTERNAL_ERROR"
)

// Messages shown for the statuses GitLab uses to hide or refuse a project
const (
	MsgUnauthorized = "not authorized, ensure you are logged in"
	MsgNotFound     = "project not found or no access"
	MsgForbidden    = "no permission to access this project"
	MsgNoCommits    = "no commits found"
)

// AppError represents an application error
type AppError struct {
	Code    ErrCode
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewFetchError creates the error for a non-success GitLab response. The
// message is replaced by a friendly one for 401, 403 and 404.
func NewFetchError(status int, message string) *AppError {
	e := &AppError{Code: ErrCodeHTTP, Message: message, Status: status}
	switch status {
	case 401:
		e.Code, e.Message = ErrCodeUnauthorized, MsgUnauthorized
	case 403:
		e.Code, e.Message = ErrCodeForbidden, MsgForbidden
	case 404:
		e.Code, e.Message = ErrCodeNotFound, MsgNotFound
	}
	return e
}

// NewNoCommitsError creates the error for an empty commit list
func NewNoCommitsError() *AppError {
	return &AppError{
		Code:    ErrCodeNoCommits,
		Message: MsgNoCommits,
	}
}

// NewTransportError creates an error for a request that never got a response
func NewTransportError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeTransport,
		Message: err.Error(),
		Err:     err,
	}
}

// NewBadResponseError creates an error for a 2xx response that could not be decoded
func NewBadResponseError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeBadResponse,
		Message: "invalid response from GitLab",
		Err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
	}
}

// As returns the AppError in err's chain, if any
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Message returns the user-facing message of err. For an AppError this is
// its Message without the code prefix.
func Message(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Message
	}
	return err.Error()
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == ErrCodeNotFound
}

// IsBadRequest checks if the error is a bad request error
func IsBadRequest(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == ErrCodeBadRequest
}
