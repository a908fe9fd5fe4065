package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"todo-app/model"
)

// View rebuilds the whole screen from state. No diffing: the list is small
// and re-deriving everything keeps render trivially consistent with the
// latest mutation.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	now := time.Now()
	m.reportOverdue(now)

	st := m.svc.State()
	viewW := m.viewportWidth()

	parts := []string{m.renderHeader(st, viewW)}

	body := m.renderTaskList(st, now, viewW)
	if m.mode == modeDetail {
		body = m.renderDetail(now, viewW)
	}
	if m.showHelp {
		body = lipgloss.Place(viewW, m.listHeight(), lipgloss.Center, lipgloss.Center, m.renderHelpOverlay())
	}
	parts = append(parts, body, m.renderFooter(viewW))

	if prompt := m.renderPrompt(viewW); prompt != "" && !m.showHelp {
		parts = append(parts, prompt)
	}
	return strings.Join(parts, "\n")
}

// reportOverdue emits the developer-facing overdue diagnostic on every
// render. It never reaches the visible UI.
func (m *Model) reportOverdue(now time.Time) {
	titles := model.OverdueTitles(m.svc.Tasks(), now)
	if len(titles) == 0 {
		return
	}
	m.log.Debug("overdue tasks", "count", len(titles), "titles", strings.Join(titles, ", "))
}

func (m *Model) renderHeader(st model.AppState, width int) string {
	title := m.theme.title.Render("todo-app")
	summary := fmt.Sprintf("filter: %s • theme: %s", st.Filter, m.theme.name)
	if st.Search != "" {
		summary += fmt.Sprintf(" • search: %q", st.Search)
	}
	line := lipgloss.JoinHorizontal(lipgloss.Left, title, m.theme.dim.Render("  "+summary))
	return lipgloss.NewStyle().Width(width).Render(line)
}

func (m *Model) renderTaskList(st model.AppState, now time.Time, width int) string {
	tasks := model.VisibleTasks(st)

	lines := make([]string, 0, len(tasks)+1)
	if len(tasks) == 0 {
		switch {
		case len(st.Tasks) == 0:
			lines = append(lines, m.theme.dim.Render("No tasks yet. Press 'a' to add the first one."))
		case strings.TrimSpace(st.Search) != "":
			lines = append(lines, m.theme.dim.Render("No tasks match the current search/filter."))
		default:
			lines = append(lines, m.theme.dim.Render("No tasks for the current filter (press 'f')."))
		}
	}

	maxRows := m.listHeight()
	top := 0
	if m.cursor >= maxRows {
		top = m.cursor - maxRows + 1
	}
	for i := top; i < len(tasks) && i-top < maxRows; i++ {
		lines = append(lines, m.renderTaskLine(tasks[i], i == m.cursor, now, width))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.frameColor).
		Width(width - 2).
		Height(maxRows)
	return box.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderTaskLine(t model.Task, selected bool, now time.Time, width int) string {
	cursor := " "
	if selected {
		cursor = "▸"
	}
	check := "[ ]"
	if t.Done {
		check = "[x]"
	}
	pri := priorityIndicator(m.theme, t.Priority)

	title := t.Title
	badge := m.dueBadge(t, now)
	tag := ""
	if t.Category != model.CategoryNone {
		tag = m.theme.dim.Render(" #" + string(t.Category))
	}

	avail := width - 14 - lipgloss.Width(badge) - lipgloss.Width(tag)
	if avail < 10 {
		avail = 10
	}
	title = truncateRunes(title, avail)

	titleStyle := lipgloss.NewStyle()
	if t.Done {
		titleStyle = m.theme.done
	} else if selected {
		titleStyle = m.theme.selected
	}

	line := fmt.Sprintf("%s %s %s %s", cursor, check, pri, titleStyle.Render(title))
	if badge != "" {
		line += " " + badge
	}
	return line + tag
}

func (m *Model) dueBadge(t model.Task, now time.Time) string {
	due, ok := t.DueTime()
	if !ok {
		return ""
	}
	status := model.DueStatusAt(t, now)
	label := due.Format("Jan 2")
	switch status {
	case model.DueOverdue:
		label = "overdue " + label
	case model.DueToday:
		label = "due today"
	case model.DueSoon:
		label = "due " + label
	}
	return m.theme.badge[status].Render("(" + label + ")")
}

func (m *Model) renderDetail(now time.Time, width int) string {
	task, err := m.svc.GetTask(m.detailID)
	if err != nil {
		return m.theme.statusErr.Render("Task not found")
	}

	rows := []string{
		m.theme.helpTitle.Render(task.Title),
		"",
		m.theme.dim.Render("priority: ") + string(task.Priority),
	}
	if task.Category != model.CategoryNone {
		rows = append(rows, m.theme.dim.Render("category: ")+string(task.Category))
	}
	if task.Description != "" {
		rows = append(rows, m.theme.dim.Render("notes:    ")+task.Description)
	}
	if due, ok := task.DueTime(); ok {
		status := model.DueStatusAt(task, now)
		rows = append(rows, m.theme.dim.Render("due:      ")+due.Format("Mon, Jan 2 2006 15:04")+" "+m.theme.badge[status].Render("("+string(status)+")"))
	}
	rows = append(rows,
		m.theme.dim.Render("created:  ")+time.UnixMilli(task.CreatedAt).Format("Mon, Jan 2 2006 15:04"),
		m.theme.dim.Render("state:    ")+stateLabel(task.Done),
		"",
		m.theme.dim.Render("Esc closes"),
	)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.frameColor).
		Padding(0, 1).
		Width(width - 2).
		Height(m.listHeight())
	return box.Render(strings.Join(rows, "\n"))
}

func stateLabel(done bool) string {
	if done {
		return "done"
	}
	return "active"
}

func (m *Model) renderFooter(width int) string {
	counts := m.svc.Counts()
	left := m.status
	if left == "" {
		left = "Ready"
	}
	style := m.theme.statusOK
	if m.statusErr {
		style = m.theme.statusErr
	}

	right := fmt.Sprintf("%d total • %d active • %d done • ? help", counts.Total, counts.Active, counts.Done)

	leftW := lipgloss.Width(left)
	rightW := lipgloss.Width(right)
	if leftW+rightW+1 > width {
		maxLeft := width - rightW - 1
		if maxLeft < 8 {
			maxLeft = 8
		}
		left = truncateRunes(left, maxLeft)
		leftW = lipgloss.Width(left)
	}
	padding := width - leftW - rightW
	if padding < 1 {
		padding = 1
	}
	return style.Render(left) + strings.Repeat(" ", padding) + m.theme.dim.Render(right)
}

func (m *Model) renderPrompt(width int) string {
	line := ""
	switch m.mode {
	case modeAdd:
		line = m.renderAddForm()
	case modeEditTitle:
		line = "Edit title: " + m.editInput.View()
	case modeSearch:
		line = "Search (/): " + m.searchInput.View()
	case modeConfirmDelete:
		line = fmt.Sprintf("Delete task %q? [y/N]", m.confirmName)
	case modeConfirmClear:
		line = fmt.Sprintf("Clear %s tasks? [y/N]", m.confirmName)
	case modeConfirmReset:
		line = fmt.Sprintf("Delete ALL %s and clear saved data? [y/N]", m.confirmName)
	}
	if line == "" {
		return ""
	}
	return m.theme.prompt.Width(width).Render(line)
}

func (m *Model) renderAddForm() string {
	marker := func(f addField) string {
		if m.addFocus == f {
			return "▸"
		}
		return " "
	}
	category := string(m.addCategory)
	if category == "" {
		category = "none"
	}
	rows := []string{
		"New task  (Tab moves, Enter saves, Esc cancels)",
		fmt.Sprintf("%s Title:       %s", marker(fieldTitle), m.titleInput.View()),
		fmt.Sprintf("%s Description: %s", marker(fieldDescription), m.descInput.View()),
		fmt.Sprintf("%s Due:         %s", marker(fieldDue), m.dueInput.View()),
		fmt.Sprintf("%s Priority:    %s  (space cycles)", marker(fieldPriority), m.addPriority),
		fmt.Sprintf("%s Category:    %s  (space cycles)", marker(fieldCategory), category),
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderHelpOverlay() string {
	k := m.keys
	rows := []string{
		m.theme.helpTitle.Render("Keys"),
		"",
		m.theme.helpLine.Render(fmt.Sprintf("  %s/%s move • %s toggle done • %s details", k.Up, k.Down, k.Toggle, k.Detail)),
		m.theme.helpLine.Render(fmt.Sprintf("  %s add • %s edit title • %s delete", k.Add, k.Edit, k.Delete)),
		m.theme.helpLine.Render(fmt.Sprintf("  %s cycle filter • 1/2/3 all/active/done • %s search", k.Filter, k.Search)),
		m.theme.helpLine.Render(fmt.Sprintf("  %s clear completed • ctrl+r reset all • %s undo", k.ClearDone, k.Undo)),
		m.theme.helpLine.Render(fmt.Sprintf("  %s theme • %s quit", k.Theme, k.Quit)),
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.frameColor).
		Padding(1, 2)
	return style.Render(strings.Join(rows, "\n"))
}

func (m *Model) viewportWidth() int {
	if m.width <= 1 {
		return 1
	}
	// One reserved column avoids clipping the last character in some
	// terminals.
	return m.width - 1
}

// listHeight is the number of task rows that fit between header and footer.
func (m *Model) listHeight() int {
	h := m.height - 6
	if h < 5 {
		h = 5
	}
	return h
}
