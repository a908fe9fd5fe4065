package model

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Filter represents how tasks should be shown.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterActive Filter = "active"
	FilterDone   Filter = "done"
)

// Priority is a task priority level.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Category is an optional subject tag on a task.
type Category string

const (
	CategoryNone         Category = ""
	CategoryMath         Category = "math"
	CategoryLanguageArts Category = "language-arts"
)

// Task is an individual todo item. Timestamps are milliseconds since epoch,
// matching the persisted representation exactly.
type Task struct {
	ID          string   `json:"id" validate:"required"`
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description,omitempty"`
	Done        bool     `json:"done"`
	CreatedAt   int64    `json:"createdAt" validate:"required"`
	DueDate     *int64   `json:"dueDate,omitempty"`
	Priority    Priority `json:"priority" validate:"required,oneof=high medium low"`
	Category    Category `json:"category,omitempty" validate:"omitempty,oneof=math language-arts"`
}

// DueTime returns the due date as a time.Time, if set.
func (t Task) DueTime() (time.Time, bool) {
	if t.DueDate == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*t.DueDate), true
}

// AppState is the session-wide application state. Only Tasks is persisted;
// Filter and Search are display criteria reset on each launch.
type AppState struct {
	Tasks  []Task
	Filter Filter
	Search string
}

// NewState returns an initialized empty state.
func NewState() AppState {
	return AppState{
		Tasks:  []Task{},
		Filter: FilterAll,
		Search: "",
	}
}

var validate = validator.New()

// Validate checks a task against the persisted schema. Records failing
// validation must not enter the in-memory collection.
func Validate(t Task) error {
	return validate.Struct(t)
}
