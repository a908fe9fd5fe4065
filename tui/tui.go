// Package tui is the presentation shell: it rebuilds the whole view from
// state on every render and routes key presses onto the task service.
package tui

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"todo-app/app"
	"todo-app/config"
	"todo-app/model"
	"todo-app/store"
)

type uiMode int

const (
	modeNormal uiMode = iota
	modeAdd
	modeEditTitle
	modeSearch
	modeDetail
	modeConfirmDelete
	modeConfirmClear
	modeConfirmReset
)

// addField indexes the focusable fields of the add form.
type addField int

const (
	fieldTitle addField = iota
	fieldDescription
	fieldDue
	fieldPriority
	fieldCategory
	fieldCount
)

// ThemeSaver persists the theme preference. Satisfied by *store.Adapter.
type ThemeSaver interface {
	SaveTheme(name string)
}

type Model struct {
	svc    *app.Service
	themes ThemeSaver
	gate   *app.Gate
	keys   config.Keymap
	log    *log.Logger

	theme  theme
	mode   uiMode
	cursor int

	width  int
	height int

	titleInput  textinput.Model
	descInput   textinput.Model
	dueInput    textinput.Model
	addFocus    addField
	addPriority model.Priority
	addCategory model.Category

	editInput   textinput.Model
	editID      string
	searchInput textinput.Model

	detailID    string
	confirmID   string
	confirmName string

	showHelp  bool
	status    string
	statusErr bool
}

func NewModel(svc *app.Service, themes ThemeSaver, gate *app.Gate, cfg config.Config, themeName string, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	title := textinput.New()
	title.Placeholder = "Task title"
	title.CharLimit = 256
	title.Width = 48

	desc := textinput.New()
	desc.Placeholder = "Description (optional)"
	desc.CharLimit = 512
	desc.Width = 48

	due := textinput.New()
	due.Placeholder = "Due date, e.g. 2026-09-04 or 2026-09-04 17:00"
	due.CharLimit = 32
	due.Width = 48

	edit := textinput.New()
	edit.CharLimit = 256
	edit.Width = 48

	search := textinput.New()
	search.Placeholder = "Search titles"
	search.CharLimit = 128
	search.Width = 40

	m := &Model{
		svc:         svc,
		themes:      themes,
		gate:        gate,
		keys:        cfg.Keys,
		log:         logger,
		theme:       themeByName(themeName),
		mode:        modeNormal,
		titleInput:  title,
		descInput:   desc,
		dueInput:    due,
		addPriority: model.PriorityMedium,
		editInput:   edit,
		searchInput: search,
		status:      "Ready",
	}
	m.ensureCursor()
	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// Reset-all shortcut works from any non-typing mode.
		if msg.String() == "ctrl+r" && !m.typing() {
			m.startResetConfirm()
			return m, nil
		}
		switch m.mode {
		case modeAdd:
			return m, m.updateAddMode(msg)
		case modeEditTitle:
			return m, m.updateEditMode(msg)
		case modeSearch:
			return m, m.updateSearchMode(msg)
		case modeDetail:
			m.updateDetailMode(msg)
		case modeConfirmDelete, modeConfirmClear, modeConfirmReset:
			m.updateConfirmMode(msg)
		default:
			if quit := m.updateNormalMode(msg); quit {
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m *Model) typing() bool {
	switch m.mode {
	case modeAdd, modeEditTitle, modeSearch:
		return true
	}
	return false
}

func (m *Model) updateNormalMode(msg tea.KeyMsg) bool {
	switch msg.String() {
	case m.keys.Quit:
		return true
	case m.keys.Down, "down":
		m.moveCursor(1)
	case m.keys.Up, "up":
		m.moveCursor(-1)
	case m.keys.Add:
		m.startAdd()
	case m.keys.Toggle, " ":
		m.toggleSelected()
	case m.keys.Edit:
		m.startEditTitle()
	case m.keys.Delete:
		m.startDeleteConfirm()
	case m.keys.Detail:
		m.openDetail()
	case m.keys.Filter:
		m.cycleFilter()
	case "1":
		m.applyFilter(model.FilterAll)
	case "2":
		m.applyFilter(model.FilterActive)
	case "3":
		m.applyFilter(model.FilterDone)
	case m.keys.Search:
		m.startSearch()
	case m.keys.ClearDone:
		m.startClearConfirm()
	case m.keys.Theme:
		m.toggleTheme()
	case m.keys.Undo:
		m.undo()
	case "?":
		m.showHelp = !m.showHelp
	case "esc":
		if m.showHelp {
			m.showHelp = false
			break
		}
		if m.svc.State().Search != "" {
			m.svc.SetSearch("")
			m.cursor = 0
			m.setStatus("Search cleared", false)
		}
	}
	m.ensureCursor()
	return false
}

func (m *Model) updateAddMode(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.blurAddInputs()
		m.setStatus("Cancelled", false)
		return nil
	case "enter":
		m.submitAdd()
		return nil
	case "tab", "down":
		m.focusAddField((m.addFocus + 1) % fieldCount)
		return nil
	case "shift+tab", "up":
		m.focusAddField((m.addFocus + fieldCount - 1) % fieldCount)
		return nil
	}

	switch m.addFocus {
	case fieldPriority:
		if isCycleKey(msg) {
			m.addPriority = nextPriority(m.addPriority)
		}
		return nil
	case fieldCategory:
		if isCycleKey(msg) {
			m.addCategory = nextCategory(m.addCategory)
		}
		return nil
	}

	var cmd tea.Cmd
	switch m.addFocus {
	case fieldTitle:
		m.titleInput, cmd = m.titleInput.Update(msg)
	case fieldDescription:
		m.descInput, cmd = m.descInput.Update(msg)
	case fieldDue:
		m.dueInput, cmd = m.dueInput.Update(msg)
	}
	return cmd
}

func isCycleKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "left", "right", " ":
		return true
	}
	return false
}

func nextPriority(p model.Priority) model.Priority {
	switch p {
	case model.PriorityHigh:
		return model.PriorityMedium
	case model.PriorityMedium:
		return model.PriorityLow
	default:
		return model.PriorityHigh
	}
}

func nextCategory(c model.Category) model.Category {
	switch c {
	case model.CategoryNone:
		return model.CategoryMath
	case model.CategoryMath:
		return model.CategoryLanguageArts
	default:
		return model.CategoryNone
	}
}

func (m *Model) submitAdd() {
	due, err := parseDueInput(m.dueInput.Value(), time.Now())
	if err != nil {
		m.setStatus("Due date not understood: "+err.Error(), true)
		m.focusAddField(fieldDue)
		return
	}
	task, err := m.svc.AddTask(m.titleInput.Value(), m.descInput.Value(), due, m.addPriority, m.addCategory)
	if err != nil {
		m.setStatus("Could not add task: "+err.Error(), true)
		if err == app.ErrEmptyTitle {
			m.focusAddField(fieldTitle)
		}
		return
	}
	m.mode = modeNormal
	m.blurAddInputs()
	m.cursor = 0
	m.setStatus(fmt.Sprintf("Added %q", task.Title), false)
}

// parseDueInput interprets an optional due date entry as local time.
// A bare date means midnight at the start of that day.
func parseDueInput(value string, now time.Time) (*int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	layouts := []string{"2006-01-02 15:04", "2006-01-02"}
	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, value, now.Location()); err == nil {
			ms := ts.UnixMilli()
			return &ms, nil
		}
	}
	return nil, fmt.Errorf("want YYYY-MM-DD or YYYY-MM-DD HH:MM, got %q", value)
}

func (m *Model) updateEditMode(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.editInput.Blur()
		m.setStatus("Cancelled", false)
		return nil
	case "enter":
		task, err := m.svc.EditTitle(m.editID, m.editInput.Value())
		if err != nil {
			switch err {
			case app.ErrEmptyTitle:
				m.setStatus("Title must not be empty", true)
			case app.ErrTaskNotFound:
				m.mode = modeNormal
				m.editInput.Blur()
				m.setStatus("Task not found", true)
			default:
				m.setStatus("Could not edit task: "+err.Error(), true)
			}
			return nil
		}
		m.mode = modeNormal
		m.editInput.Blur()
		m.setStatus(fmt.Sprintf("Renamed to %q", task.Title), false)
		return nil
	}
	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return cmd
}

func (m *Model) updateSearchMode(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.svc.SetSearch("")
		m.searchInput.SetValue("")
		m.searchInput.Blur()
		m.mode = modeNormal
		m.cursor = 0
		m.setStatus("Search cleared", false)
		return nil
	case "enter":
		m.searchInput.Blur()
		m.mode = modeNormal
		if m.svc.State().Search == "" {
			m.setStatus("Search cleared", false)
		} else {
			m.setStatus("Search applied", false)
		}
		return nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.svc.SetSearch(m.searchInput.Value())
	m.cursor = 0
	m.ensureCursor()
	return cmd
}

func (m *Model) updateDetailMode(msg tea.KeyMsg) {
	switch msg.String() {
	case "esc", "enter", "q":
		m.mode = modeNormal
		m.detailID = ""
	}
}

func (m *Model) updateConfirmMode(msg tea.KeyMsg) {
	switch strings.ToLower(msg.String()) {
	case "y":
		switch m.mode {
		case modeConfirmDelete:
			m.confirmDelete()
		case modeConfirmClear:
			m.confirmClear()
		case modeConfirmReset:
			m.confirmReset()
		}
	case "n", "esc", "enter":
		m.mode = modeNormal
		m.confirmID = ""
		m.confirmName = ""
		m.setStatus("Action cancelled", false)
	}
}

func (m *Model) startAdd() {
	m.mode = modeAdd
	m.titleInput.SetValue("")
	m.descInput.SetValue("")
	m.dueInput.SetValue("")
	m.addPriority = model.PriorityMedium
	m.addCategory = model.CategoryNone
	m.focusAddField(fieldTitle)
}

func (m *Model) focusAddField(f addField) {
	m.addFocus = f
	m.titleInput.Blur()
	m.descInput.Blur()
	m.dueInput.Blur()
	switch f {
	case fieldTitle:
		m.titleInput.Focus()
	case fieldDescription:
		m.descInput.Focus()
	case fieldDue:
		m.dueInput.Focus()
	}
}

func (m *Model) blurAddInputs() {
	m.titleInput.Blur()
	m.descInput.Blur()
	m.dueInput.Blur()
}

func (m *Model) startEditTitle() {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return
	}
	m.mode = modeEditTitle
	m.editID = task.ID
	m.editInput.SetValue(task.Title)
	m.editInput.Focus()
}

func (m *Model) startSearch() {
	m.mode = modeSearch
	m.searchInput.SetValue(m.svc.State().Search)
	m.searchInput.Focus()
	m.setStatus("Incremental search: type to narrow, Enter keeps, Esc clears", false)
}

func (m *Model) openDetail() {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return
	}
	m.mode = modeDetail
	m.detailID = task.ID
}

func (m *Model) toggleSelected() {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return
	}
	updated, err := m.svc.ToggleTask(task.ID)
	if err != nil {
		m.setStatus("Task not found", true)
		return
	}
	if updated.Done {
		m.setStatus("Task completed", false)
	} else {
		m.setStatus("Task reopened", false)
	}
	m.ensureCursor()
}

func (m *Model) startDeleteConfirm() {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return
	}
	m.mode = modeConfirmDelete
	m.confirmID = task.ID
	m.confirmName = task.Title
}

func (m *Model) confirmDelete() {
	if err := m.svc.RemoveTask(m.confirmID); err != nil {
		m.setStatus("Task not found", true)
	} else {
		m.setStatus("Task deleted • u undoes", false)
	}
	m.mode = modeNormal
	m.confirmID = ""
	m.confirmName = ""
	m.ensureCursor()
}

func (m *Model) startClearConfirm() {
	counts := m.svc.Counts()
	if counts.Done == 0 {
		m.setStatus("No completed tasks to clear", false)
		return
	}
	m.mode = modeConfirmClear
	m.confirmName = fmt.Sprintf("%d completed", counts.Done)
}

func (m *Model) confirmClear() {
	removed := m.svc.ClearDone()
	m.mode = modeNormal
	m.confirmName = ""
	m.cursor = 0
	m.setStatus(fmt.Sprintf("%d completed tasks cleared • u undoes", removed), false)
	m.ensureCursor()
}

func (m *Model) startResetConfirm() {
	m.mode = modeConfirmReset
	m.confirmName = fmt.Sprintf("%d tasks", m.svc.Counts().Total)
}

func (m *Model) confirmReset() {
	m.gate.Grant()
	if err := m.svc.ResetAll(); err != nil {
		m.setStatus("Reset cancelled", false)
	} else {
		m.setStatus("All tasks deleted and saved data cleared", false)
	}
	m.mode = modeNormal
	m.confirmName = ""
	m.cursor = 0
	m.ensureCursor()
}

func (m *Model) cycleFilter() {
	next := model.FilterAll
	switch m.svc.State().Filter {
	case model.FilterAll:
		next = model.FilterActive
	case model.FilterActive:
		next = model.FilterDone
	case model.FilterDone:
		next = model.FilterAll
	}
	m.applyFilter(next)
}

func (m *Model) applyFilter(f model.Filter) {
	if err := m.svc.SetFilter(f); err != nil {
		m.setStatus("Could not set filter: "+err.Error(), true)
		return
	}
	m.cursor = 0
	m.ensureCursor()
	m.setStatus("Filter: "+string(f), false)
}

func (m *Model) toggleTheme() {
	if m.theme.name == store.ThemeDark {
		m.theme = lightTheme()
	} else {
		m.theme = darkTheme()
	}
	m.themes.SaveTheme(m.theme.name)
	m.setStatus("Theme: "+m.theme.name, false)
}

func (m *Model) undo() {
	if err := m.svc.Undo(); err != nil {
		if err == app.ErrNothingToUndo {
			m.setStatus("Nothing to undo", false)
			return
		}
		m.setStatus("Could not undo: "+err.Error(), true)
		return
	}
	m.setStatus("Undo applied", false)
	m.ensureCursor()
}

func (m *Model) moveCursor(delta int) {
	tasks := m.svc.VisibleTasks()
	if len(tasks) == 0 {
		return
	}
	m.cursor = clamp(m.cursor+delta, 0, len(tasks)-1)
}

func (m *Model) ensureCursor() {
	tasks := m.svc.VisibleTasks()
	if len(tasks) == 0 {
		m.cursor = 0
		return
	}
	m.cursor = clamp(m.cursor, 0, len(tasks)-1)
}

func (m *Model) selectedTask() (model.Task, bool) {
	tasks := m.svc.VisibleTasks()
	if len(tasks) == 0 {
		return model.Task{}, false
	}
	if m.cursor < 0 || m.cursor >= len(tasks) {
		m.cursor = 0
	}
	return tasks[m.cursor], true
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}
