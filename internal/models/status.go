package models

import "strings"

type TaskStatus string

const (
	StatusBacklog    TaskStatus = "Backlog"
	StatusRefine     TaskStatus = "Refine"
	StatusTodo       TaskStatus = "Todo"
	StatusInProgress TaskStatus = "InProgress"
	StatusReview     TaskStatus = "Review"
	StatusDone       TaskStatus = "Done"
)

// canonical column order for boards and for the enabled_statuses column
var statusOrder = []TaskStatus{
	StatusBacklog,
	StatusRefine,
	StatusTodo,
	StatusInProgress,
	StatusReview,
	StatusDone,
}

// ParseStatus matches a wire value by name, case-insensitively.
func ParseStatus(s string) (TaskStatus, bool) {
	for _, known := range statusOrder {
		if strings.EqualFold(strings.TrimSpace(s), string(known)) {
			return known, true
		}
	}
	return "", false
}

// NormalizeStatuses parses a comma-separated status list into the typed set a
// project's board columns are built from. Unknown names are dropped, Todo,
// InProgress and Done are always present, and the result follows the canonical
// column order. Backlog is not a board column and is filtered out.
func NormalizeStatuses(raw string) []TaskStatus {
	enabled := map[TaskStatus]bool{
		StatusTodo:       true,
		StatusInProgress: true,
		StatusDone:       true,
	}
	for _, part := range strings.Split(raw, ",") {
		if status, ok := ParseStatus(part); ok && status != StatusBacklog {
			enabled[status] = true
		}
	}

	var out []TaskStatus
	for _, status := range statusOrder {
		if enabled[status] {
			out = append(out, status)
		}
	}
	return out
}

// JoinStatuses renders an enabled-status set back to its column form.
func JoinStatuses(statuses []TaskStatus) string {
	parts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, ",")
}

// StatusEnabled reports whether a sprint column status is usable in a project.
// Backlog is always legal for backlog items and never part of the enabled set.
func StatusEnabled(enabled []TaskStatus, status TaskStatus) bool {
	if status == StatusBacklog {
		return true
	}
	for _, s := range enabled {
		if s == status {
			return true
		}
	}
	return false
}
