package models

import (
	"errors"
	"fmt"
)

// Error codes used throughout the extraction engine.
const (
	ErrCodeElementNotFound = "ELEMENT_NOT_FOUND"
	ErrCodeLoginFailed     = "LOGIN_FAILED"
	ErrCodeNotAuth         = "NOT_AUTHENTICATED"
	ErrCodeNavigation      = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash    = "BROWSER_CRASH"
	ErrCodeParse           = "PARSE_ERROR"
	ErrCodeMissingKeyField = "MISSING_KEY_FIELD"
	ErrCodePersistence     = "PERSISTENCE_ERROR"
)

// ExtractError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ExtractError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ExtractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// NewExtractError creates a new ExtractError.
func NewExtractError(code, message string, err error) *ExtractError {
	return &ExtractError{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) is an ExtractError
// carrying the given code.
func HasCode(err error, code string) bool {
	var ee *ExtractError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}
