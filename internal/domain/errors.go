package domain

import (
	"errors"  // Sentinel errors
	"fmt"     // Error formatting
	"strings" // Joining validation messages
)

// Sentinel errors shared by the store, the ledger engine and the API layer
var (
	ErrNotFound            = errors.New("ledger: not found")              // Generic not-found class
	ErrUserNotFound        = errors.New("ledger: user not found")         // Unknown user id
	ErrTransactionNotFound = errors.New("ledger: transaction not found")  // Unknown id or owned by someone else
	ErrAlreadyExists       = errors.New("ledger: already exists")         // Unique constraint violation
	ErrValidation          = errors.New("ledger: validation failed")      // Input rejected before any write
	ErrConflict            = errors.New("ledger: conflict")               // Lock contention or deadlock
	ErrLedgerDrift         = errors.New("ledger: cumulative delta drift") // Stored deltas disagree with prefix sums
	ErrStorage             = errors.New("ledger: storage failure")        // Underlying store failed
)

// ValidationError describes one rejected input field
type ValidationError struct {
	Field   string `json:"field"`   // Offending field name
	Message string `json:"message"` // Human readable reason
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("ledger: validation failed for %s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match a single field error
func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ValidationErrors collects every field error found in one input
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ErrValidation.Error()
	}
	msgs := make([]string, len(e)) // One message per field
	for i, fe := range e {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

// Is lets errors.Is(err, ErrValidation) match the collection
func (e ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// DriftError reports transactions whose stored cumulative delta is wrong
type DriftError struct {
	UserID uint    // Owner of the drifted ledger
	Drifts []Drift // Offending rows in ledger order
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("%s: user %d has %d drifted transactions", ErrLedgerDrift.Error(), e.UserID, len(e.Drifts))
}

// Unwrap exposes ErrLedgerDrift, which itself belongs to the conflict class
func (e *DriftError) Unwrap() []error {
	return []error{ErrLedgerDrift, ErrConflict}
}

// IsNotFound returns true for every not-found flavour
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}

// IsValidation returns true if the input was rejected
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConflict returns true for lock contention and detected drift
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsRetryable returns true if the caller may retry the same request
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) && !errors.Is(err, ErrLedgerDrift)
}
