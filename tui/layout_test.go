package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"todo-app/app"
	"todo-app/config"
	"todo-app/model"
	"todo-app/store"
)

func newTestModel(t *testing.T) (*Model, *app.Service) {
	t.Helper()
	adapter := store.New(t.TempDir(), nil)
	gate := app.NewGate()
	svc := app.NewService(model.NewState(), adapter, gate.Confirm, nil)
	m := NewModel(svc, adapter, gate, config.Default(), store.ThemeLight, nil)
	m.width = 100
	m.height = 30
	return m, svc
}

func addTask(t *testing.T, svc *app.Service, title string) model.Task {
	t.Helper()
	task, err := svc.AddTask(title, "", nil, model.PriorityMedium, model.CategoryNone)
	if err != nil {
		t.Fatalf("add %q: %v", title, err)
	}
	return task
}

func TestViewRendersWithoutSize(t *testing.T) {
	m, _ := newTestModel(t)
	m.width = 0
	m.height = 0
	if got := m.View(); got != "loading..." {
		t.Fatalf("expected placeholder before first size message, got %q", got)
	}
}

func TestViewShowsCountsInFooter(t *testing.T) {
	m, svc := newTestModel(t)
	addTask(t, svc, "A")
	done := addTask(t, svc, "B")
	if _, err := svc.ToggleTask(done.ID); err != nil {
		t.Fatal(err)
	}

	out := m.View()
	if !strings.Contains(out, "2 total") || !strings.Contains(out, "1 active") || !strings.Contains(out, "1 done") {
		t.Fatalf("expected counts in footer, got:\n%s", out)
	}
}

func TestRenderFooterFitsWidth(t *testing.T) {
	m, svc := newTestModel(t)
	addTask(t, svc, "A")
	m.setStatus(strings.Repeat("a very long status message ", 5), false)

	for _, width := range []int{60, 100, 120} {
		footer := m.renderFooter(width)
		if got := lipgloss.Width(footer); got > width {
			t.Fatalf("footer width %d exceeds viewport %d", got, width)
		}
	}
}

func TestParseDueInput(t *testing.T) {
	now := time.Now()

	if due, err := parseDueInput("", now); err != nil || due != nil {
		t.Fatalf("expected empty input to mean no due date, got %v, %v", due, err)
	}
	if due, err := parseDueInput("   ", now); err != nil || due != nil {
		t.Fatalf("expected blank input to mean no due date, got %v, %v", due, err)
	}

	due, err := parseDueInput("2026-09-04", now)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 9, 4, 0, 0, 0, 0, now.Location()).UnixMilli()
	if due == nil || *due != want {
		t.Fatalf("expected bare date to mean midnight, got %v", due)
	}

	due, err = parseDueInput("2026-09-04 17:30", now)
	if err != nil {
		t.Fatal(err)
	}
	want = time.Date(2026, 9, 4, 17, 30, 0, 0, now.Location()).UnixMilli()
	if due == nil || *due != want {
		t.Fatalf("expected date with time, got %v", due)
	}

	if _, err := parseDueInput("tomorrow", now); err == nil {
		t.Fatal("expected error for free-form input")
	}
}

func TestClamp(t *testing.T) {
	cases := []struct{ v, min, max, want int }{
		{-1, 0, 5, 0},
		{3, 0, 5, 3},
		{9, 0, 5, 5},
		{0, 0, 0, 0},
	}
	for _, c := range cases {
		if got := clamp(c.v, c.min, c.max); got != c.want {
			t.Fatalf("clamp(%d,%d,%d) = %d, want %d", c.v, c.min, c.max, got, c.want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("hello", 10); got != "hello" {
		t.Fatalf("expected no truncation, got %q", got)
	}
	if got := truncateRunes("hello", 3); got != "he…" {
		t.Fatalf("expected ellipsis truncation, got %q", got)
	}
	if got := truncateRunes("héllo wörld", 5); got != "héll…" {
		t.Fatalf("expected rune-aware truncation, got %q", got)
	}
	if got := truncateRunes("hello", 0); got != "" {
		t.Fatalf("expected empty at zero width, got %q", got)
	}
}

func TestCycleHelpers(t *testing.T) {
	if got := nextPriority(model.PriorityHigh); got != model.PriorityMedium {
		t.Fatalf("unexpected priority cycle: %s", got)
	}
	if got := nextPriority(model.PriorityLow); got != model.PriorityHigh {
		t.Fatalf("expected wrap to high, got %s", got)
	}
	if got := nextCategory(model.CategoryLanguageArts); got != model.CategoryNone {
		t.Fatalf("expected wrap to none, got %s", got)
	}
}

func TestToggleThemePersists(t *testing.T) {
	dir := t.TempDir()
	adapter := store.New(dir, nil)
	gate := app.NewGate()
	svc := app.NewService(model.NewState(), adapter, gate.Confirm, nil)
	m := NewModel(svc, adapter, gate, config.Default(), store.ThemeLight, nil)

	m.toggleTheme()
	if m.theme.name != store.ThemeDark {
		t.Fatalf("expected dark after toggle, got %s", m.theme.name)
	}
	if got := adapter.LoadTheme(); got != store.ThemeDark {
		t.Fatalf("expected toggle persisted, got %s", got)
	}

	m.toggleTheme()
	if got := adapter.LoadTheme(); got != store.ThemeLight {
		t.Fatalf("expected light persisted, got %s", got)
	}
}

func TestConfirmResetEmptiesCollection(t *testing.T) {
	m, svc := newTestModel(t)
	addTask(t, svc, "Doomed")

	m.startResetConfirm()
	if m.mode != modeConfirmReset {
		t.Fatal("expected reset confirmation mode")
	}
	m.confirmReset()

	if len(svc.Tasks()) != 0 {
		t.Fatalf("expected empty collection after confirmed reset, got %+v", svc.Tasks())
	}
	if m.mode != modeNormal {
		t.Fatal("expected return to normal mode")
	}
}

func TestResetDeclinedWithoutGrant(t *testing.T) {
	_, svc := newTestModel(t)
	addTask(t, svc, "Survivor")

	// Calling the service directly without the shell's grant must decline.
	if err := svc.ResetAll(); err == nil {
		t.Fatal("expected reset declined without grant")
	}
	if len(svc.Tasks()) != 1 {
		t.Fatal("expected collection untouched")
	}
}

func TestEnsureCursorClampsAfterShrink(t *testing.T) {
	m, svc := newTestModel(t)
	a := addTask(t, svc, "A")
	addTask(t, svc, "B")
	m.cursor = 1

	if err := svc.RemoveTask(a.ID); err != nil {
		t.Fatal(err)
	}
	m.ensureCursor()
	if m.cursor != 0 {
		t.Fatalf("expected cursor clamped to last row, got %d", m.cursor)
	}
}

func TestThemeByNameFallsBackToLight(t *testing.T) {
	if got := themeByName("solarized"); got.name != store.ThemeLight {
		t.Fatalf("expected light fallback, got %s", got.name)
	}
	if got := themeByName(store.ThemeDark); got.name != store.ThemeDark {
		t.Fatalf("expected dark, got %s", got.name)
	}
}
