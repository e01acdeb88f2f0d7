package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while driving cycles.
//
// RuntimeError includes structured fields for diagnostics.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected run.
	RunID string

	// Cycle is the cycle seq the error relates to, 0 if none.
	Cycle int64

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeQuotaExceeded indicates the run exceeded its cycle quota.
	ErrCodeQuotaExceeded RuntimeErrorCode = "CYCLE_QUOTA_EXCEEDED"

	// ErrCodeJournal indicates a journal write failed.
	ErrCodeJournal RuntimeErrorCode = "JOURNAL_WRITE_FAILED"

	// ErrCodeReadyClosed indicates the ready queue no longer accepts nodes.
	ErrCodeReadyClosed RuntimeErrorCode = "READY_QUEUE_CLOSED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.RunID != "" && e.Cycle != 0 {
		return fmt.Sprintf("%s: %s (run=%s, cycle=%d)", e.Code, e.Message, e.RunID, e.Cycle)
	}
	if e.RunID != "" {
		return fmt.Sprintf("%s: %s (run=%s)", e.Code, e.Message, e.RunID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsQuotaError returns true if the error is a cycle quota error.
// Uses errors.As to handle wrapped errors.
func IsQuotaError(err error) bool {
	return hasCode(err, ErrCodeQuotaExceeded)
}

// IsJournalError returns true if the error is a journal write failure.
func IsJournalError(err error) bool {
	return hasCode(err, ErrCodeJournal)
}

// IsReadyClosedError returns true if the ready queue was closed.
func IsReadyClosedError(err error) bool {
	return hasCode(err, ErrCodeReadyClosed)
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// NewQuotaError creates a RuntimeError for an exceeded cycle quota.
func NewQuotaError(runID string, cycles, maxCycles int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeQuotaExceeded,
		Message: fmt.Sprintf("run exceeded max cycles (%d > %d)", cycles, maxCycles),
		RunID:   runID,
		Details: map[string]string{
			"cycles":     fmt.Sprintf("%d", cycles),
			"max_cycles": fmt.Sprintf("%d", maxCycles),
		},
	}
}

func newJournalError(runID string, cycle int64, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeJournal,
		Message: err.Error(),
		RunID:   runID,
		Cycle:   cycle,
	}
}
