package app

import (
	"errors"
	"reflect"
	"testing"

	"todo-app/model"
)

// recorder is a Persister that remembers every write.
type recorder struct {
	saves  [][]model.Task
	clears int
}

func (r *recorder) SaveTasks(tasks []model.Task) {
	snapshot := make([]model.Task, len(tasks))
	copy(snapshot, tasks)
	r.saves = append(r.saves, snapshot)
}

func (r *recorder) Clear() {
	r.clears++
}

func (r *recorder) lastSave(t *testing.T) []model.Task {
	t.Helper()
	if len(r.saves) == 0 {
		t.Fatal("expected at least one save")
	}
	return r.saves[len(r.saves)-1]
}

func newTestService(tasks ...model.Task) (*Service, *recorder) {
	rec := &recorder{}
	state := model.NewState()
	state.Tasks = tasks
	svc := NewService(state, rec, nil, nil)
	return svc, rec
}

func mustAdd(t *testing.T, svc *Service, title string) model.Task {
	t.Helper()
	task, err := svc.AddTask(title, "", nil, model.PriorityMedium, model.CategoryNone)
	if err != nil {
		t.Fatalf("add %q: %v", title, err)
	}
	return task
}

func TestAddTaskPrependsAndPersists(t *testing.T) {
	svc, rec := newTestService()

	first := mustAdd(t, svc, "First")
	second := mustAdd(t, svc, "Second")

	tasks := svc.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != second.ID || tasks[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", tasks)
	}
	if first.ID == second.ID {
		t.Fatal("expected distinct ids")
	}
	if first.CreatedAt == 0 {
		t.Fatal("expected creation timestamp assigned")
	}

	if len(rec.saves) != 2 {
		t.Fatalf("expected one save per add, got %d", len(rec.saves))
	}
	if !reflect.DeepEqual(rec.lastSave(t), tasks) {
		t.Fatal("expected persisted collection to match in-memory state")
	}
}

func TestAddTaskTrimsAndRejectsBlankTitle(t *testing.T) {
	svc, rec := newTestService()

	for _, title := range []string{"", "   ", "\t\n"} {
		if _, err := svc.AddTask(title, "", nil, model.PriorityLow, model.CategoryNone); !errors.Is(err, ErrEmptyTitle) {
			t.Fatalf("title %q: expected ErrEmptyTitle, got %v", title, err)
		}
	}
	if len(svc.Tasks()) != 0 {
		t.Fatal("expected blank titles to leave state untouched")
	}
	if len(rec.saves) != 0 {
		t.Fatal("expected no persistence on rejected add")
	}

	task := mustAdd(t, svc, "  padded  ")
	if task.Title != "padded" {
		t.Fatalf("expected trimmed title, got %q", task.Title)
	}
}

func TestAddTaskRejectsUnknownEnums(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.AddTask("A", "", nil, model.Priority("urgent"), model.CategoryNone); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
	if _, err := svc.AddTask("A", "", nil, model.PriorityLow, model.Category("science")); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestToggleTaskFlipsAndPersists(t *testing.T) {
	svc, rec := newTestService()
	task := mustAdd(t, svc, "Flip me")

	toggled, err := svc.ToggleTask(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !toggled.Done {
		t.Fatal("expected done after first toggle")
	}

	toggled, err = svc.ToggleTask(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if toggled.Done {
		t.Fatal("expected active after second toggle")
	}

	saved := rec.lastSave(t)
	if saved[0].Done {
		t.Fatal("expected persisted state to track the latest toggle")
	}

	if _, err := svc.ToggleTask("missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestEditTitle(t *testing.T) {
	svc, _ := newTestService()
	task := mustAdd(t, svc, "Old title")

	edited, err := svc.EditTitle(task.ID, "  New title  ")
	if err != nil {
		t.Fatal(err)
	}
	if edited.Title != "New title" {
		t.Fatalf("expected trimmed new title, got %q", edited.Title)
	}
	if edited.ID != task.ID || edited.CreatedAt != task.CreatedAt {
		t.Fatal("expected identity fields untouched")
	}

	if _, err := svc.EditTitle(task.ID, "   "); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if got, _ := svc.GetTask(task.ID); got.Title != "New title" {
		t.Fatal("expected rejected edit to leave the title alone")
	}

	if _, err := svc.EditTitle("missing", "X"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestRemoveTask(t *testing.T) {
	svc, rec := newTestService()
	keep := mustAdd(t, svc, "Keep")
	drop := mustAdd(t, svc, "Drop")

	if err := svc.RemoveTask(drop.ID); err != nil {
		t.Fatal(err)
	}
	tasks := svc.Tasks()
	if len(tasks) != 1 || tasks[0].ID != keep.ID {
		t.Fatalf("expected only %q to remain, got %+v", keep.Title, tasks)
	}
	if !reflect.DeepEqual(rec.lastSave(t), tasks) {
		t.Fatal("expected removal persisted")
	}

	if err := svc.RemoveTask(drop.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestClearDone(t *testing.T) {
	svc, rec := newTestService()
	a := mustAdd(t, svc, "A")
	mustAdd(t, svc, "B")
	c := mustAdd(t, svc, "C")
	if _, err := svc.ToggleTask(a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ToggleTask(c.ID); err != nil {
		t.Fatal(err)
	}

	savesBefore := len(rec.saves)
	if removed := svc.ClearDone(); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	tasks := svc.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "B" {
		t.Fatalf("expected only the active task, got %+v", tasks)
	}
	if len(rec.saves) != savesBefore+1 {
		t.Fatal("expected one save for the clear")
	}

	// Nothing completed: no mutation, no persistence.
	if removed := svc.ClearDone(); removed != 0 {
		t.Fatalf("expected 0 removed, got %d", removed)
	}
	if len(rec.saves) != savesBefore+1 {
		t.Fatal("expected no save when nothing was removed")
	}
}

func TestResetAllRequiresConfirmation(t *testing.T) {
	rec := &recorder{}
	state := model.NewState()
	svc := NewService(state, rec, func(string) bool { return false }, nil)
	mustAdd(t, svc, "Survivor")

	if err := svc.ResetAll(); !errors.Is(err, ErrResetCancelled) {
		t.Fatalf("expected ErrResetCancelled, got %v", err)
	}
	if len(svc.Tasks()) != 1 {
		t.Fatal("expected declined reset to leave tasks untouched")
	}
	if rec.clears != 0 {
		t.Fatal("expected no clear on declined reset")
	}
}

func TestResetAllConfirmed(t *testing.T) {
	rec := &recorder{}
	prompts := []string{}
	confirm := func(prompt string) bool {
		prompts = append(prompts, prompt)
		return true
	}
	svc := NewService(model.NewState(), rec, confirm, nil)
	mustAdd(t, svc, "A")
	mustAdd(t, svc, "B")

	if err := svc.ResetAll(); err != nil {
		t.Fatal(err)
	}
	if len(svc.Tasks()) != 0 {
		t.Fatal("expected empty collection after reset")
	}
	if rec.clears != 1 {
		t.Fatalf("expected one clear, got %d", rec.clears)
	}
	if len(prompts) != 1 || prompts[0] == "" {
		t.Fatalf("expected a user-facing prompt, got %v", prompts)
	}
}

func TestGateConfirmsOnceThenDeclines(t *testing.T) {
	gate := NewGate()

	if gate.Confirm("anything") {
		t.Fatal("expected a fresh gate to decline")
	}
	gate.Grant()
	if !gate.Confirm("anything") {
		t.Fatal("expected granted gate to confirm")
	}
	if gate.Confirm("anything") {
		t.Fatal("expected grant to be consumed")
	}
}

func TestSetFilterAndVisibleTasks(t *testing.T) {
	svc, _ := newTestService()
	active := mustAdd(t, svc, "Active one")
	done := mustAdd(t, svc, "Done one")
	if _, err := svc.ToggleTask(done.ID); err != nil {
		t.Fatal(err)
	}

	if err := svc.SetFilter(model.FilterDone); err != nil {
		t.Fatal(err)
	}
	visible := svc.VisibleTasks()
	if len(visible) != 1 || visible[0].ID != done.ID {
		t.Fatalf("expected only done task visible, got %+v", visible)
	}

	if err := svc.SetFilter(model.FilterActive); err != nil {
		t.Fatal(err)
	}
	visible = svc.VisibleTasks()
	if len(visible) != 1 || visible[0].ID != active.ID {
		t.Fatalf("expected only active task visible, got %+v", visible)
	}

	if err := svc.SetFilter(model.Filter("archived")); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
	if svc.State().Filter != model.FilterActive {
		t.Fatal("expected rejected filter to leave the previous one in place")
	}
}

func TestSetSearchTrimsAndNarrows(t *testing.T) {
	svc, _ := newTestService()
	mustAdd(t, svc, "Buy milk")
	mustAdd(t, svc, "Mow lawn")

	svc.SetSearch("  MILK  ")
	if svc.State().Search != "MILK" {
		t.Fatalf("expected trimmed query, got %q", svc.State().Search)
	}
	visible := svc.VisibleTasks()
	if len(visible) != 1 || visible[0].Title != "Buy milk" {
		t.Fatalf("expected case-insensitive match, got %+v", visible)
	}
}

func TestCounts(t *testing.T) {
	svc, _ := newTestService()
	mustAdd(t, svc, "A")
	b := mustAdd(t, svc, "B")
	if _, err := svc.ToggleTask(b.ID); err != nil {
		t.Fatal(err)
	}

	c := svc.Counts()
	if c.Total != 2 || c.Active != 1 || c.Done != 1 {
		t.Fatalf("unexpected counts: %+v", c)
	}
}

func TestUndoRevertsLatestMutation(t *testing.T) {
	svc, rec := newTestService()
	mustAdd(t, svc, "Keep")
	mustAdd(t, svc, "Oops")

	if err := svc.Undo(); err != nil {
		t.Fatal(err)
	}
	tasks := svc.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Keep" {
		t.Fatalf("expected undo to drop the last add, got %+v", tasks)
	}
	if !reflect.DeepEqual(rec.lastSave(t), tasks) {
		t.Fatal("expected restored state persisted")
	}

	if err := svc.Undo(); err != nil {
		t.Fatal(err)
	}
	if err := svc.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestSeedIfEmpty(t *testing.T) {
	svc, rec := newTestService()

	if !svc.SeedIfEmpty() {
		t.Fatal("expected seeding on empty collection")
	}
	tasks := svc.Tasks()
	if len(tasks) != 3 {
		t.Fatalf("expected 3 sample tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if err := model.Validate(task); err != nil {
			t.Fatalf("sample task %q invalid: %v", task.Title, err)
		}
	}
	if len(rec.saves) != 1 {
		t.Fatal("expected seeded collection persisted")
	}

	if svc.SeedIfEmpty() {
		t.Fatal("expected no reseed on non-empty collection")
	}
}

func TestNewServiceNormalizesState(t *testing.T) {
	state := model.AppState{Tasks: nil, Filter: model.Filter("bogus"), Search: "  q  "}
	svc := NewService(state, &recorder{}, nil, nil)

	got := svc.State()
	if got.Tasks == nil {
		t.Fatal("expected tasks slice initialized")
	}
	if got.Filter != model.FilterAll {
		t.Fatalf("expected filter reset to all, got %s", got.Filter)
	}
	if got.Search != "q" {
		t.Fatalf("expected trimmed search, got %q", got.Search)
	}
}
