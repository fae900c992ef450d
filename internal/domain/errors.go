package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Matching Errors (MATCH_*)
	ErrorCodeMatchNotFound          ErrorCode = "MATCH_NOT_FOUND"
	ErrorCodeMatchNotConfirmable    ErrorCode = "MATCH_NOT_CONFIRMABLE"
	ErrorCodeMatchBulkDivergent     ErrorCode = "MATCH_BULK_DIVERGENT"
	ErrorCodeMatchLineAlreadyLinked ErrorCode = "MATCH_LINE_ALREADY_LINKED"

	// Cascade Validation Errors (CASCADE_*)
	ErrorCodeCascadeEmptyInput ErrorCode = "CASCADE_EMPTY_INPUT"

	// Settlement Errors (SETTLE_*)
	ErrorCodeScopeLocked    ErrorCode = "SETTLE_SCOPE_LOCKED"
	ErrorCodeNoValidatedRun ErrorCode = "SETTLE_NO_VALIDATED_RUN"

	// Run/Audit Errors (RUN_*)
	ErrorCodeRunNotFound ErrorCode = "RUN_NOT_FOUND"

	// Import Errors (IMPORT_*)
	ErrorCodeImportEmptyFile ErrorCode = "IMPORT_EMPTY_FILE"
	ErrorCodeImportBadFormat ErrorCode = "IMPORT_BAD_FORMAT"

	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed       ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationMissingField ErrorCode = "VALIDATION_MISSING_FIELD"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail returns a copy of the error with the detail field added.
// Copying keeps the shared sentinel errors immutable.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{
		Err:     e.Err,
		Details: details,
		Code:    e.Code,
		Message: e.Message,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string
// if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeMatchNotFound ||
		code == ErrorCodeRunNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeValidationMissingField ||
		code == ErrorCodeMatchBulkDivergent ||
		code == ErrorCodeMatchNotConfirmable ||
		code == ErrorCodeCascadeEmptyInput
}

// Structured error instances
var (
	ErrMatchNotFound       = NewDomainError(ErrorCodeMatchNotFound, "match not found")
	ErrMatchNotConfirmable = NewDomainError(ErrorCodeMatchNotConfirmable, "match cannot be confirmed in its current status")
	ErrMatchBulkDivergent  = NewDomainError(ErrorCodeMatchBulkDivergent, "divergent matches must be confirmed individually")
	ErrLineAlreadyLinked   = NewDomainError(ErrorCodeMatchLineAlreadyLinked, "payment line is already linked to another acquirer transaction")

	ErrCascadeEmptyInput = NewDomainError(ErrorCodeCascadeEmptyInput, "cascade validation requires at least one receipt detail row")

	ErrScopeLocked    = NewDomainError(ErrorCodeScopeLocked, "settlement scope is locked by a concurrent apply")
	ErrNoValidatedRun = NewDomainError(ErrorCodeNoValidatedRun, "no validated cascade run exists for this acquirer and date")

	ErrRunNotFound = NewDomainError(ErrorCodeRunNotFound, "reconciliation run not found")

	ErrImportEmptyFile = NewDomainError(ErrorCodeImportEmptyFile, "import file contains no parseable rows")
	ErrImportBadFormat = NewDomainError(ErrorCodeImportBadFormat, "import file format not recognized")

	ErrValidationFailed       = NewDomainError(ErrorCodeValidationFailed, "validation failed")
	ErrValidationMissingField = NewDomainError(ErrorCodeValidationMissingField, "required field missing")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
