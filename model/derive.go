package model

import (
	"strings"
	"time"
)

// DueStatus classifies how urgent a task's due date is.
type DueStatus string

const (
	DueNormal  DueStatus = "normal"
	DueToday   DueStatus = "today"
	DueSoon    DueStatus = "soon"
	DueOverdue DueStatus = "overdue"
)

const (
	todayWindow = 24 * time.Hour
	soonWindow  = 72 * time.Hour
)

// VisibleTasks applies the state's filter and then a case-insensitive
// substring search on titles. The order of Tasks is preserved.
func VisibleTasks(state AppState) []Task {
	query := strings.ToLower(strings.TrimSpace(state.Search))
	out := make([]Task, 0, len(state.Tasks))
	for _, t := range state.Tasks {
		if !MatchesFilter(state.Filter, t.Done) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(t.Title), query) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// MatchesFilter reports whether a task with the given done flag passes the
// filter. Unknown filters behave like FilterAll.
func MatchesFilter(filter Filter, done bool) bool {
	switch filter {
	case FilterDone:
		return done
	case FilterActive:
		return !done
	default:
		return true
	}
}

// IsOverdue reports whether an incomplete task's due date has passed.
// A task due at exactly now is not overdue; the comparison is strict.
func IsOverdue(t Task, now time.Time) bool {
	if t.Done || t.DueDate == nil {
		return false
	}
	return *t.DueDate < now.UnixMilli()
}

// DueStatusAt classifies a task's due date relative to now. Bands are
// half-open: due < now is overdue, [now, now+24h) is today, [now+24h,
// now+72h) is soon, everything later is normal. Done tasks and tasks
// without a due date are always normal.
func DueStatusAt(t Task, now time.Time) DueStatus {
	if t.Done || t.DueDate == nil {
		return DueNormal
	}
	due := *t.DueDate
	nowMs := now.UnixMilli()
	switch {
	case due < nowMs:
		return DueOverdue
	case due < nowMs+todayWindow.Milliseconds():
		return DueToday
	case due < nowMs+soonWindow.Milliseconds():
		return DueSoon
	default:
		return DueNormal
	}
}

// CountSummary aggregates collection totals.
type CountSummary struct {
	Total  int
	Active int
	Done   int
}

// Counts tallies total, active and done tasks.
func Counts(tasks []Task) CountSummary {
	done := 0
	for _, t := range tasks {
		if t.Done {
			done++
		}
	}
	return CountSummary{
		Total:  len(tasks),
		Active: len(tasks) - done,
		Done:   done,
	}
}

// OverdueTitles returns the titles of every overdue task, in collection
// order. Used for the developer-facing render diagnostic.
func OverdueTitles(tasks []Task, now time.Time) []string {
	titles := make([]string, 0)
	for _, t := range tasks {
		if IsOverdue(t, now) {
			titles = append(titles, t.Title)
		}
	}
	return titles
}
