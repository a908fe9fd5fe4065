// Package app holds the task collection and its mutation rules. Every
// mutating operation persists the full collection through the injected
// Persister before returning, so the on-disk state never lags the
// in-memory one.
package app

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"todo-app/ident"
	"todo-app/model"
)

const undoStackLimit = 20

var (
	ErrEmptyTitle      = errors.New("title must not be empty")
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidFilter   = errors.New("invalid filter")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidCategory = errors.New("invalid category")
	ErrResetCancelled  = errors.New("reset cancelled")
	ErrNothingToUndo   = errors.New("nothing to undo")
)

// Persister is the storage sink the service writes through.
type Persister interface {
	SaveTasks([]model.Task)
	Clear()
}

// Confirmer decides destructive operations. It receives a user-facing
// prompt and reports whether the user agreed.
type Confirmer func(prompt string) bool

// Gate is a Confirmer that must be explicitly granted before each use and
// declines by default. The presentation shell grants it once its own
// confirmation dialog resolves.
type Gate struct {
	granted bool
}

// NewGate returns a closed gate.
func NewGate() *Gate {
	return &Gate{}
}

// Grant opens the gate for exactly one confirmation.
func (g *Gate) Grant() {
	g.granted = true
}

// Confirm consumes the grant.
func (g *Gate) Confirm(string) bool {
	v := g.granted
	g.granted = false
	return v
}

// Service holds domain rules and in-memory state.
type Service struct {
	state   model.AppState
	store   Persister
	confirm Confirmer
	log     *log.Logger
	undo    []model.AppState

	now   func() time.Time
	newID func() string
}

// NewService creates a service owning a copy of the provided state. A nil
// confirmer declines every destructive operation; a nil logger discards
// diagnostics.
func NewService(state model.AppState, store Persister, confirm Confirmer, logger *log.Logger) *Service {
	if confirm == nil {
		confirm = func(string) bool { return false }
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Service{
		state:   normalizeState(state),
		store:   store,
		confirm: confirm,
		log:     logger,
		undo:    []model.AppState{},
		now:     time.Now,
		newID:   ident.New,
	}
}

// State returns a copy of the current state.
func (s *Service) State() model.AppState {
	return copyState(s.state)
}

// Tasks returns a copy of the full collection in display order.
func (s *Service) Tasks() []model.Task {
	tasks := make([]model.Task, len(s.state.Tasks))
	copy(tasks, s.state.Tasks)
	return tasks
}

// GetTask returns a task by id.
func (s *Service) GetTask(id string) (model.Task, error) {
	for _, t := range s.state.Tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Task{}, ErrTaskNotFound
}

// VisibleTasks derives the subset shown under the current filter and search.
func (s *Service) VisibleTasks() []model.Task {
	return model.VisibleTasks(s.state)
}

// Counts derives the aggregate totals of the collection.
func (s *Service) Counts() model.CountSummary {
	return model.Counts(s.state.Tasks)
}

// AddTask creates a task and prepends it to the collection, so the newest
// task always displays first. The id and creation time are assigned here
// and never change afterwards.
func (s *Service) AddTask(title, description string, due *int64, priority model.Priority, category model.Category) (model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Task{}, ErrEmptyTitle
	}
	switch priority {
	case model.PriorityHigh, model.PriorityMedium, model.PriorityLow:
	default:
		return model.Task{}, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}
	switch category {
	case model.CategoryNone, model.CategoryMath, model.CategoryLanguageArts:
	default:
		return model.Task{}, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	task := model.Task{
		ID:          s.newID(),
		Title:       title,
		Description: strings.TrimSpace(description),
		Done:        false,
		CreatedAt:   s.now().UnixMilli(),
		DueDate:     due,
		Priority:    priority,
		Category:    category,
	}

	s.pushUndo()
	s.state.Tasks = append([]model.Task{task}, s.state.Tasks...)
	s.persistNow()
	return task, nil
}

// ToggleTask flips the done flag of the task with the given id.
func (s *Service) ToggleTask(id string) (model.Task, error) {
	for i := range s.state.Tasks {
		if s.state.Tasks[i].ID == id {
			s.pushUndo()
			s.state.Tasks[i].Done = !s.state.Tasks[i].Done
			s.persistNow()
			return s.state.Tasks[i], nil
		}
	}
	return model.Task{}, ErrTaskNotFound
}

// EditTitle replaces a task's title, leaving every other field untouched.
func (s *Service) EditTitle(id, newTitle string) (model.Task, error) {
	newTitle = strings.TrimSpace(newTitle)
	if newTitle == "" {
		return model.Task{}, ErrEmptyTitle
	}
	for i := range s.state.Tasks {
		if s.state.Tasks[i].ID == id {
			s.pushUndo()
			s.state.Tasks[i].Title = newTitle
			s.persistNow()
			return s.state.Tasks[i], nil
		}
	}
	return model.Task{}, ErrTaskNotFound
}

// RemoveTask deletes the task with the given id from the collection.
func (s *Service) RemoveTask(id string) error {
	for i := range s.state.Tasks {
		if s.state.Tasks[i].ID != id {
			continue
		}
		s.pushUndo()
		s.state.Tasks = append(s.state.Tasks[:i], s.state.Tasks[i+1:]...)
		s.persistNow()
		return nil
	}
	return ErrTaskNotFound
}

// ClearDone removes every completed task and returns how many were removed.
func (s *Service) ClearDone() int {
	kept := make([]model.Task, 0, len(s.state.Tasks))
	removed := 0
	for _, t := range s.state.Tasks {
		if t.Done {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	if removed == 0 {
		return 0
	}
	s.pushUndo()
	s.state.Tasks = kept
	s.persistNow()
	return removed
}

// ResetAll empties the collection and clears the persisted key. The
// injected confirmer must agree first; declining leaves state untouched.
func (s *Service) ResetAll() error {
	if !s.confirm("Delete every task and clear saved data?") {
		return ErrResetCancelled
	}
	s.pushUndo()
	s.state.Tasks = []model.Task{}
	s.store.Clear()
	return nil
}

// SetFilter changes the display filter. Non-mutating: tasks are not
// persisted again.
func (s *Service) SetFilter(filter model.Filter) error {
	switch filter {
	case model.FilterAll, model.FilterActive, model.FilterDone:
		s.state.Filter = filter
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFilter, filter)
	}
}

// SetSearch changes the display search query. Matching is case-insensitive
// and applied at derivation time.
func (s *Service) SetSearch(query string) {
	s.state.Search = strings.TrimSpace(query)
}

// Undo reverts the latest mutation from the undo stack.
func (s *Service) Undo() error {
	if len(s.undo) == 0 {
		return ErrNothingToUndo
	}
	last := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.state = copyState(last)
	s.persistNow()
	return nil
}

// SeedIfEmpty installs the first-run sample tasks when the loaded
// collection is empty. Returns whether seeding happened.
func (s *Service) SeedIfEmpty() bool {
	if len(s.state.Tasks) > 0 {
		return false
	}
	s.state.Tasks = sampleTasks(s.now(), s.newID)
	s.persistNow()
	s.log.Debug("seeded sample tasks", "count", len(s.state.Tasks))
	return true
}

// sampleTasks is the fixed first-run collection, newest first.
func sampleTasks(now time.Time, newID func() string) []model.Task {
	due := func(d time.Duration) *int64 {
		ms := now.Add(d).UnixMilli()
		return &ms
	}
	mk := func(title, desc string, due *int64, p model.Priority, c model.Category) model.Task {
		return model.Task{
			ID:          newID(),
			Title:       title,
			Description: desc,
			CreatedAt:   now.UnixMilli(),
			DueDate:     due,
			Priority:    p,
			Category:    c,
		}
	}
	return []model.Task{
		mk("Finish fractions worksheet", "Pages 12-14, show your work", due(20*time.Hour), model.PriorityHigh, model.CategoryMath),
		mk("Read chapter 4 and take notes", "Focus on the main character's motivation", due(2*24*time.Hour), model.PriorityMedium, model.CategoryLanguageArts),
		mk("Tidy up the desk", "", nil, model.PriorityLow, model.CategoryNone),
	}
}

func (s *Service) pushUndo() {
	s.undo = append(s.undo, copyState(s.state))
	if len(s.undo) > undoStackLimit {
		s.undo = s.undo[len(s.undo)-undoStackLimit:]
	}
}

func (s *Service) persistNow() {
	if s.store == nil {
		return
	}
	tasks := make([]model.Task, len(s.state.Tasks))
	copy(tasks, s.state.Tasks)
	s.store.SaveTasks(tasks)
}

func normalizeState(state model.AppState) model.AppState {
	if state.Tasks == nil {
		state.Tasks = []model.Task{}
	}
	switch state.Filter {
	case model.FilterAll, model.FilterActive, model.FilterDone:
	default:
		state.Filter = model.FilterAll
	}
	state.Search = strings.TrimSpace(state.Search)
	return state
}

func copyState(state model.AppState) model.AppState {
	tasks := make([]model.Task, len(state.Tasks))
	copy(tasks, state.Tasks)
	out := state
	out.Tasks = tasks
	return out
}
