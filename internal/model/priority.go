package model

import "fmt"

// Priority classifies how important a work is to the harvest run.
// Critical works are processed first, sequentially, with retries;
// everything else gets a single attempt inside concurrent batches.
type Priority int

const (
	// PriorityNormal is the default for works with no explicit priority.
	PriorityNormal Priority = iota

	// PriorityMedium marks works that should sort ahead of normal ones
	// within their batch ordering but are still single-attempt.
	PriorityMedium

	// PriorityHigh marks works processed in the earliest batches.
	PriorityHigh

	// PriorityCritical marks works that must be harvested if at all
	// possible. They are processed sequentially before any batch work
	// and retried with exponential backoff.
	PriorityCritical
)

// String returns the lowercase name used in work-list files and logs.
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityNormal:
		return "normal"
	default:
		return "unknown"
	}
}

// ParsePriority converts a work-list priority string to a Priority.
// The empty string maps to PriorityNormal so that work-list entries
// may omit the field.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "critical":
		return PriorityCritical, nil
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "normal", "":
		return PriorityNormal, nil
	default:
		return PriorityNormal, fmt.Errorf("unknown priority %q", s)
	}
}
