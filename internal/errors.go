package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidRole      ErrorCode = "INVALID_ROLE"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserSuspended      ErrorCode = "USER_SUSPENDED"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeSessionRevoked     ErrorCode = "SESSION_REVOKED"
	ErrCodeInvalidAccessCode  ErrorCode = "INVALID_ACCESS_CODE"

	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeDepartmentNotFound ErrorCode = "DEPARTMENT_NOT_FOUND"
	ErrCodeCourseNotFound     ErrorCode = "COURSE_NOT_FOUND"
	ErrCodeDuplicateIdentity  ErrorCode = "DUPLICATE_IDENTITY"

	ErrCodeAlreadyInvited     ErrorCode = "ALREADY_INVITED"
	ErrCodeAlreadyMember      ErrorCode = "ALREADY_MEMBER"
	ErrCodeNotMember          ErrorCode = "NOT_MEMBER"
	ErrCodeNotInvited         ErrorCode = "NOT_INVITED"
	ErrCodeAlreadyEnrolled    ErrorCode = "ALREADY_ENROLLED"
	ErrCodeNotEnrolled        ErrorCode = "NOT_ENROLLED"
	ErrCodeNotDeptMember      ErrorCode = "NOT_DEPARTMENT_MEMBER"
	ErrCodeDepartmentNotEmpty ErrorCode = "DEPARTMENT_NOT_EMPTY"
	ErrCodeInsufficientRole   ErrorCode = "INSUFFICIENT_ROLE"
	ErrCodeUnauthorizedAccess ErrorCode = "UNAUTHORIZED_ACCESS"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause returns a copy so the package-level sentinels stay immutable.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Messages() string {
	msgs := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrInvalidCredentials = NewUnauthorizedError("invalid email or password", ErrCodeInvalidCredentials)
	ErrUserSuspended      = NewForbiddenError("user account is suspended", ErrCodeUserSuspended)
	ErrInvalidToken       = NewUnauthorizedError("invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("token has expired", ErrCodeTokenExpired)
	ErrSessionRevoked     = NewUnauthorizedError("session has been revoked", ErrCodeSessionRevoked)
	ErrInvalidAccessCode  = NewForbiddenError("invalid admin access code", ErrCodeInvalidAccessCode)

	ErrUserNotFound       = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrDepartmentNotFound = NewNotFoundError("department not found", ErrCodeDepartmentNotFound)
	ErrCourseNotFound     = NewNotFoundError("course not found", ErrCodeCourseNotFound)
	ErrDuplicateIdentity  = NewConflictError("a user with that email already exists", ErrCodeDuplicateIdentity)

	ErrAlreadyInvited     = NewConflictError("user already has a pending invite", ErrCodeAlreadyInvited)
	ErrAlreadyMember      = NewConflictError("user is already an active member", ErrCodeAlreadyMember)
	ErrNotMember          = NewNotFoundError("user has no membership in this department", ErrCodeNotMember)
	ErrNotInvited         = NewConflictError("user has no pending invite", ErrCodeNotInvited)
	ErrAlreadyEnrolled    = NewConflictError("user is already enrolled in this course", ErrCodeAlreadyEnrolled)
	ErrNotEnrolled        = NewNotFoundError("user is not enrolled in this course", ErrCodeNotEnrolled)
	ErrNotDeptMember      = NewForbiddenError("user is not an active member of the course's department", ErrCodeNotDeptMember)
	ErrDepartmentNotEmpty = NewConflictError("department still has courses", ErrCodeDepartmentNotEmpty)
	ErrForbidden          = NewForbiddenError("insufficient permissions", ErrCodeInsufficientRole)
	ErrUnauthenticated    = NewUnauthorizedError("authentication required", ErrCodeUnauthorizedAccess)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
