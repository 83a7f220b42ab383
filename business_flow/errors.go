// Package businessflow contains the price history use cases: interval bookkeeping,
// current price projection and cached analytics.
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Validation errors
	ErrInvalidTransactionType      = errors.New("transaction type must be one of SALE, LEASE, SEASONAL")
	ErrInvalidDate                 = errors.New("dates must use the YYYY-MM-DD format")
	ErrAmountRequired              = errors.New("amount is required")
	ErrNegativeAmount              = errors.New("amount must not be negative")
	ErrReasonRequired              = errors.New("reason is required")
	ErrStartDateAfterEndDate       = errors.New("start date cannot be after end date")
	ErrIntervalOverlap             = errors.New("price interval overlaps an existing interval")
	ErrInvalidGranularity          = errors.New("granularity must be one of MONTHLY, QUARTERLY, YEARLY")
	ErrInvalidLookbackPeriods      = errors.New("lookback periods out of range")
	ErrInvalidSortField            = errors.New("sort field must be one of start_date, end_date, amount, created_at")
	ErrInvalidSortOrder            = errors.New("sort order must be asc or desc")
	ErrInvalidPage                 = errors.New("page must be at least 1")
	ErrInvalidPageSize             = errors.New("page size out of range")
	ErrPriceIntervalUpdateRequired = errors.New("at least one field must be provided for update")

	// Conflict errors
	ErrClosedIntervalImmutable = errors.New("closed historical price intervals cannot be edited")

	// Not found errors
	ErrListingNotFound       = errors.New("listing not found")
	ErrPriceIntervalNotFound = errors.New("price interval not found")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// OverlapError names the existing interval a candidate collided with.
type OverlapError struct {
	ConflictingID uint
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s (conflicting interval %d)", ErrIntervalOverlap.Error(), e.ConflictingID)
}

func (e *OverlapError) Unwrap() error {
	return ErrIntervalOverlap
}

func IsIntervalOverlap(err error) bool {
	return errors.Is(err, ErrIntervalOverlap)
}

// ConflictingIntervalID extracts the colliding interval id from an overlap failure.
func ConflictingIntervalID(err error) (uint, bool) {
	var oe *OverlapError
	if errors.As(err, &oe) {
		return oe.ConflictingID, true
	}
	return 0, false
}

func IsListingNotFound(err error) bool {
	return errors.Is(err, ErrListingNotFound)
}

func IsPriceIntervalNotFound(err error) bool {
	return errors.Is(err, ErrPriceIntervalNotFound)
}

var validationErrors = []error{
	ErrInvalidTransactionType,
	ErrInvalidDate,
	ErrAmountRequired,
	ErrNegativeAmount,
	ErrReasonRequired,
	ErrStartDateAfterEndDate,
	ErrIntervalOverlap,
	ErrInvalidGranularity,
	ErrInvalidLookbackPeriods,
	ErrInvalidSortField,
	ErrInvalidSortOrder,
	ErrInvalidPage,
	ErrInvalidPageSize,
	ErrPriceIntervalUpdateRequired,
}

// IsValidationError reports malformed input, broken amount/date rules and overlaps.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func IsConflictError(err error) bool {
	return errors.Is(err, ErrClosedIntervalImmutable)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrListingNotFound) || errors.Is(err, ErrPriceIntervalNotFound)
}
