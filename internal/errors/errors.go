// Package errors provides custom error types for the CBMS API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

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

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrValidation     = &AppError{Code: "VALIDATION_ERROR", Message: "Validation failed", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Workflow errors.
var (
	ErrInvalidTransition = &AppError{Code: "INVALID_TRANSITION", Message: "Action not permitted from the current status", StatusCode: http.StatusConflict}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Reference entity errors.
var (
	ErrDepartmentNotFound    = &AppError{Code: "DEPARTMENT_NOT_FOUND", Message: "Department not found", StatusCode: http.StatusNotFound}
	ErrBudgetHeadNotFound    = &AppError{Code: "BUDGET_HEAD_NOT_FOUND", Message: "Budget head not found", StatusCode: http.StatusNotFound}
	ErrCategoryNotFound      = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrDuplicateCode         = &AppError{Code: "DUPLICATE_CODE", Message: "A record with this code already exists", StatusCode: http.StatusConflict}
	ErrFinancialYearNotFound = &AppError{Code: "FINANCIAL_YEAR_NOT_FOUND", Message: "Financial year not found", StatusCode: http.StatusNotFound}
	ErrFinancialYearLocked   = &AppError{Code: "FINANCIAL_YEAR_LOCKED", Message: "Financial year is locked", StatusCode: http.StatusConflict}
)

// Proposal errors.
var (
	ErrProposalNotFound = &AppError{Code: "PROPOSAL_NOT_FOUND", Message: "Budget proposal not found", StatusCode: http.StatusNotFound}
)

// Allocation errors.
var (
	ErrAllocationNotFound  = &AppError{Code: "ALLOCATION_NOT_FOUND", Message: "Allocation not found", StatusCode: http.StatusNotFound}
	ErrDuplicateAllocation = &AppError{Code: "DUPLICATE_ALLOCATION", Message: "An allocation for this department, budget head, and financial year already exists", StatusCode: http.StatusConflict}
	ErrAmendmentNotFound   = &AppError{Code: "AMENDMENT_NOT_FOUND", Message: "Allocation amendment not found", StatusCode: http.StatusNotFound}
)

// Expenditure errors.
var (
	ErrExpenditureNotFound = &AppError{Code: "EXPENDITURE_NOT_FOUND", Message: "Expenditure not found", StatusCode: http.StatusNotFound}
	ErrNoAllocation        = &AppError{Code: "NO_ALLOCATION", Message: "No allocation exists for this department and budget head in the current financial year", StatusCode: http.StatusBadRequest}
	ErrExceedsBudget       = &AppError{Code: "EXCEEDS_BUDGET", Message: "Bill amount exceeds the remaining allocation", StatusCode: http.StatusConflict}
	ErrOverrideNotFound    = &AppError{Code: "OVERRIDE_NOT_FOUND", Message: "Budget override not found", StatusCode: http.StatusNotFound}
	ErrOverridePending     = &AppError{Code: "OVERRIDE_PENDING", Message: "Expenditure has a pending budget override awaiting approval", StatusCode: http.StatusConflict}
	ErrAttachmentNotFound  = &AppError{Code: "ATTACHMENT_NOT_FOUND", Message: "Attachment not found", StatusCode: http.StatusNotFound}
	ErrUnsupportedFileType = &AppError{Code: "UNSUPPORTED_FILE_TYPE", Message: "Only PDF, JPG, and PNG attachments are accepted", StatusCode: http.StatusBadRequest}
	ErrFileTooLarge        = &AppError{Code: "FILE_TOO_LARGE", Message: "Attachment exceeds the maximum allowed size", StatusCode: http.StatusRequestEntityTooLarge}
)

// Income errors.
var (
	ErrIncomeNotFound = &AppError{Code: "INCOME_NOT_FOUND", Message: "Income record not found", StatusCode: http.StatusNotFound}
)
