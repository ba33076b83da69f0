package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Store errors
	ErrCodeStoreOpen   ErrorCode = "STORE_OPEN"
	ErrCodeStoreBusy   ErrorCode = "STORE_BUSY"
	ErrCodeStoreQuery  ErrorCode = "STORE_QUERY"
	ErrCodeStoreSchema ErrorCode = "STORE_SCHEMA"

	// Session errors
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeNoTmuxPane      ErrorCode = "NO_TMUX_PANE"
	ErrCodePaneGone        ErrorCode = "PANE_GONE"

	// Event ingestion errors
	ErrCodeEventInvalid ErrorCode = "EVENT_INVALID"
	ErrCodeEventDropped ErrorCode = "EVENT_DROPPED"

	// Bridge errors
	ErrCodeBridgeDecode ErrorCode = "BRIDGE_DECODE"
	ErrCodeBridgeRead   ErrorCode = "BRIDGE_READ"
	ErrCodeOffsetStore  ErrorCode = "OFFSET_STORE"

	// Configuration errors
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigWrite   ErrorCode = "CONFIG_WRITE"

	// Command execution errors
	ErrCodeCommandTimeout ErrorCode = "COMMAND_TIMEOUT"
	ErrCodeCommandFailed  ErrorCode = "COMMAND_FAILED"

	// Hook installation errors
	ErrCodeSettingsInvalid ErrorCode = "SETTINGS_INVALID"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// PerchError represents a structured error with context
type PerchError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *PerchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *PerchError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *PerchError) WithDetail(key string, value interface{}) *PerchError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *PerchError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new PerchError
func New(code ErrorCode, message string) *PerchError {
	return &PerchError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a PerchError
func Wrap(err error, code ErrorCode, message string) *PerchError {
	return &PerchError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific PerchError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	perchErr, ok := err.(*PerchError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	return perchErr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	perchErr, ok := err.(*PerchError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return perchErr.Code
}
