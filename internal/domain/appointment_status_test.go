package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from AppointmentStatus
		to   AppointmentStatus
		want bool
	}{
		{"scheduled to in_progress", StatusScheduled, StatusInProgress, true},
		{"scheduled to no_show", StatusScheduled, StatusNoShow, true},
		{"scheduled to ready skips check-in", StatusScheduled, StatusReady, false},
		{"scheduled to completed skips everything", StatusScheduled, StatusCompleted, false},
		{"in_progress to ready", StatusInProgress, StatusReady, true},
		{"in_progress to no_show", StatusInProgress, StatusNoShow, true},
		{"in_progress to completed skips ready", StatusInProgress, StatusCompleted, false},
		{"in_progress back to scheduled", StatusInProgress, StatusScheduled, false},
		{"ready to completed", StatusReady, StatusCompleted, true},
		{"ready to no_show", StatusReady, StatusNoShow, false},
		{"ready back to in_progress", StatusReady, StatusInProgress, false},
		{"completed is terminal", StatusCompleted, StatusScheduled, false},
		{"no_show is terminal", StatusNoShow, StatusScheduled, false},
		{"same status is not an edge", StatusScheduled, StatusScheduled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestValidateTransition(t *testing.T) {
	assert.NoError(t, ValidateTransition(StatusScheduled, StatusInProgress))

	err := ValidateTransition(StatusCompleted, StatusInProgress)
	assert.Error(t, err)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "status", vErr.Field)

	err = ValidateTransition(StatusScheduled, AppointmentStatus("CANCELLED"))
	assert.Error(t, err)
}

func TestValidStatus(t *testing.T) {
	for _, s := range []AppointmentStatus{StatusScheduled, StatusInProgress, StatusReady, StatusCompleted, StatusNoShow} {
		assert.True(t, ValidStatus(s), string(s))
	}
	assert.False(t, ValidStatus("DONE"))
	assert.False(t, ValidStatus(""))
}

func TestTerminal(t *testing.T) {
	assert.True(t, Terminal(StatusCompleted))
	assert.True(t, Terminal(StatusNoShow))
	assert.False(t, Terminal(StatusScheduled))
	assert.False(t, Terminal(StatusInProgress))
	assert.False(t, Terminal(StatusReady))
}
