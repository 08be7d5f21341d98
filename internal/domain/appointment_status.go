package domain

import "fmt"

// AppointmentStatus is a board column. Transitions follow a fixed forward
// graph; there is no way back from a terminal status.
type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "SCHEDULED"
	StatusInProgress AppointmentStatus = "IN_PROGRESS"
	StatusReady      AppointmentStatus = "READY"
	StatusCompleted  AppointmentStatus = "COMPLETED"
	StatusNoShow     AppointmentStatus = "NO_SHOW"
)

// statusTransitions is the only legal edge set. NO_SHOW is reachable from
// SCHEDULED and IN_PROGRESS; COMPLETED and NO_SHOW are terminal.
var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled:  {StatusInProgress, StatusNoShow},
	StatusInProgress: {StatusReady, StatusNoShow},
	StatusReady:      {StatusCompleted},
	StatusCompleted:  {},
	StatusNoShow:     {},
}

// ValidStatus reports whether s names a known board column.
func ValidStatus(s AppointmentStatus) bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransition reports whether from -> to is an edge of the graph.
// from == to is not an edge; callers treat it as an idempotent no-op.
func CanTransition(from, to AppointmentStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a ValidationError naming both statuses when
// from -> to is not an edge of the graph.
func ValidateTransition(from, to AppointmentStatus) error {
	if !ValidStatus(to) {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", to)}
	}
	if !CanTransition(from, to) {
		return &ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("illegal transition from %s to %s", from, to),
		}
	}
	return nil
}

// Terminal reports whether no edge leaves s.
func Terminal(s AppointmentStatus) bool {
	return len(statusTransitions[s]) == 0
}
