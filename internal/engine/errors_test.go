package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *RuntimeError
		want string
	}{
		{
			name: "run and cycle",
			err:  &RuntimeError{Code: ErrCodeJournal, Message: "disk full", RunID: "r1", Cycle: 3},
			want: "JOURNAL_WRITE_FAILED: disk full (run=r1, cycle=3)",
		},
		{
			name: "run only",
			err:  NewQuotaError("r1", 4, 3),
			want: "CYCLE_QUOTA_EXCEEDED: run exceeded max cycles (4 > 3) (run=r1)",
		},
		{
			name: "bare",
			err:  &RuntimeError{Code: ErrCodeReadyClosed, Message: "closed"},
			want: "READY_QUEUE_CLOSED: closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestRuntimeError_Helpers(t *testing.T) {
	quota := fmt.Errorf("turn: %w", NewQuotaError("r1", 2, 1))
	journal := fmt.Errorf("turn: %w", newJournalError("r1", 1, errors.New("boom")))

	assert.True(t, IsQuotaError(quota))
	assert.False(t, IsJournalError(quota))
	assert.True(t, IsJournalError(journal))
	assert.False(t, IsQuotaError(journal))
	assert.False(t, IsQuotaError(errors.New("plain")))
	assert.False(t, IsReadyClosedError(nil))
}
