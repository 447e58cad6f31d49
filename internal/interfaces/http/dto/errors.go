package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation       = "ERR_VALIDATION"
	ErrCodeInvalidInput     = "ERR_INVALID_INPUT"
	ErrCodeInvalidTaxMethod = "ERR_INVALID_TAX_METHOD"
	ErrCodeBadRequest       = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON      = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge  = "ERR_REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeNotActionable       = "ERR_NOT_ACTIONABLE"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeDuplicateRequest    = "ERR_DUPLICATE_REQUEST"
)

// Business rule error codes. Most answer 400; an already paid record
// answers 404 like a missing one.
const (
	ErrCodeDuplicateNumber      = "ERR_DUPLICATE_NUMBER"
	ErrCodeExceedsRemaining     = "ERR_EXCEEDS_REMAINING"
	ErrCodeMinDownPayment       = "ERR_MIN_DOWN_PAYMENT"
	ErrCodeUseFullPayment       = "ERR_USE_FULL_PAYMENT"
	ErrCodeInstallmentLimit     = "ERR_INSTALLMENT_LIMIT"
	ErrCodeFinalPaymentMismatch = "ERR_FINAL_PAYMENT_MISMATCH"
	ErrCodeFullPaymentMismatch  = "ERR_FULL_PAYMENT_MISMATCH"
	ErrCodePaymentInProgress    = "ERR_PAYMENT_IN_PROGRESS"
	ErrCodeBillingInProgress    = "ERR_BILLING_IN_PROGRESS"
	ErrCodeBillingPosted        = "ERR_BILLING_POSTED"
	ErrCodeAlreadyPaid          = "ERR_ALREADY_PAID"
	ErrCodeInvalidState         = "ERR_INVALID_STATE"
	ErrCodeStorageDisabled      = "ERR_STORAGE_DISABLED"
	ErrCodeUnbalancedJournal    = "ERR_UNBALANCED_JOURNAL"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeInvalidInput:     http.StatusBadRequest,
	ErrCodeInvalidTaxMethod: http.StatusBadRequest,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeInvalidJSON:      http.StatusBadRequest,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeNotActionable:       http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDuplicateRequest:    http.StatusConflict,

	ErrCodeDuplicateNumber:      http.StatusBadRequest,
	ErrCodeExceedsRemaining:     http.StatusBadRequest,
	ErrCodeMinDownPayment:       http.StatusBadRequest,
	ErrCodeUseFullPayment:       http.StatusBadRequest,
	ErrCodeInstallmentLimit:     http.StatusBadRequest,
	ErrCodeFinalPaymentMismatch: http.StatusBadRequest,
	ErrCodeFullPaymentMismatch:  http.StatusBadRequest,
	ErrCodePaymentInProgress:    http.StatusBadRequest,
	ErrCodeBillingInProgress:    http.StatusBadRequest,
	ErrCodeBillingPosted:        http.StatusBadRequest,
	ErrCodeAlreadyPaid:          http.StatusNotFound,
	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeStorageDisabled:      http.StatusServiceUnavailable,
	ErrCodeUnbalancedJournal:    http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Field-level ERR_VALIDATION_* codes answer 400; unknown codes answer 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, ErrCodeValidation+"_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode converts a domain error code to the ERR_ prefixed form
func NormalizeErrorCode(code string) string {
	if code == "" {
		return ErrCodeUnknown
	}
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	return "ERR_" + code
}
