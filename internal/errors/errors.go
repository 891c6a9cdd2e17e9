// Package errors provides the structured error type shared by the ledger,
// its store and its HTTP surface. Validation failures carry the identity of
// the offending transaction or split and, where it applies, the residual
// amount in Details so the caller can act without re-deriving it.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, optional details and optional
// internal error.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	StatusCode int            `json:"-"`
	Internal   error          `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches any AppError carrying the same code, so callers can compare
// against the sentinels with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// WithMessagef is WithMessage with a format string.
func WithMessagef(sentinel *AppError, format string, args ...any) *AppError {
	return WithMessage(sentinel, fmt.Sprintf(format, args...))
}

// WithDetails creates a new AppError with a custom message and details.
func WithDetails(sentinel *AppError, message string, details map[string]any) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		Details:    details,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// IsValidation reports whether err is a commit-time validation failure.
func IsValidation(err error) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.StatusCode == http.StatusUnprocessableEntity
}

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Lookup errors.
var (
	ErrCommodityNotFound   = &AppError{Code: "COMMODITY_NOT_FOUND", Message: "Commodity not found", StatusCode: http.StatusNotFound}
	ErrDuplicateCommodity  = &AppError{Code: "DUPLICATE_COMMODITY", Message: "A commodity with this namespace and mnemonic already exists", StatusCode: http.StatusConflict}
	ErrAccountNotFound     = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrSplitNotFound       = &AppError{Code: "SPLIT_NOT_FOUND", Message: "Split not found", StatusCode: http.StatusNotFound}
	ErrLotNotFound         = &AppError{Code: "LOT_NOT_FOUND", Message: "Lot not found", StatusCode: http.StatusNotFound}
)

// Validation errors raised while checking a batch before commit.
var (
	ErrImbalancedTransaction      = &AppError{Code: "IMBALANCED_TRANSACTION", Message: "Transaction is not balanced", StatusCode: http.StatusUnprocessableEntity}
	ErrQuantityValueMismatch      = &AppError{Code: "QUANTITY_VALUE_MISMATCH", Message: "Split quantity does not match its value", StatusCode: http.StatusUnprocessableEntity}
	ErrQuantitySignMismatch       = &AppError{Code: "QUANTITY_SIGN_MISMATCH", Message: "Split quantity and value have different signs", StatusCode: http.StatusUnprocessableEntity}
	ErrInvalidTransactionCurrency = &AppError{Code: "INVALID_TRANSACTION_CURRENCY", Message: "Transaction currency must be a currency", StatusCode: http.StatusUnprocessableEntity}
	ErrLotAccountMismatch         = &AppError{Code: "LOT_ACCOUNT_MISMATCH", Message: "Split and lot refer to different accounts", StatusCode: http.StatusUnprocessableEntity}
	ErrLotNotClosed               = &AppError{Code: "LOT_NOT_CLOSED", Message: "Finalized lot does not net to zero", StatusCode: http.StatusUnprocessableEntity}
	ErrEmptyTransaction           = &AppError{Code: "EMPTY_TRANSACTION", Message: "Transaction has no splits", StatusCode: http.StatusUnprocessableEntity}
	ErrAccountCommodityChange     = &AppError{Code: "ACCOUNT_COMMODITY_CHANGE", Message: "Account commodity cannot change once splits exist", StatusCode: http.StatusUnprocessableEntity}
)

// Price errors.
var (
	ErrNoPriceAvailable = &AppError{Code: "NO_PRICE_AVAILABLE", Message: "No price available for conversion", StatusCode: http.StatusNotFound}
)

// Session errors.
var (
	ErrReadOnlyViolation = &AppError{Code: "READ_ONLY_VIOLATION", Message: "Book is open read-only", StatusCode: http.StatusForbidden}
	ErrBookLocked        = &AppError{Code: "BOOK_LOCKED", Message: "Book is locked by another process", StatusCode: http.StatusConflict}
	ErrVersionMismatch   = &AppError{Code: "VERSION_MISMATCH", Message: "Unsupported store version", StatusCode: http.StatusInternalServerError}
)
