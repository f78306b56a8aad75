// Package lifecycle derives entity status from container counts and
// dispatches lifecycle operations over the capability or convention path.
package lifecycle

import "git.home.luguber.info/inful/stackctl/internal/compose"

// Status is the observed lifecycle state of an entity. It is never stored;
// every query recomputes it from the orchestration runtime or the
// filesystem markers.
type Status int

const (
	StatusUnknown Status = iota
	StatusStopped
	// StatusStarting and StatusStopping are declared for API completeness
	// but the count-based classification never produces them. Transitional
	// detection would need an async start model.
	StatusStarting
	StatusRunning
	StatusStopping
	StatusError
)

var statusNames = map[Status]string{
	StatusUnknown:  "unknown",
	StatusStopped:  "stopped",
	StatusStarting: "starting",
	StatusRunning:  "running",
	StatusStopping: "stopping",
	StatusError:    "error",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// StatusFromCounts classifies declared versus running container counts.
// A partial population is an error state, not a transitional one.
func StatusFromCounts(c compose.Counts) Status {
	switch {
	case c.Total == 0:
		return StatusUnknown
	case c.Running == 0:
		return StatusStopped
	case c.Running < c.Total:
		return StatusError
	default:
		return StatusRunning
	}
}
