package tui

import (
	"github.com/charmbracelet/lipgloss"

	"todo-app/model"
	"todo-app/store"
)

// theme is a named set of styles applied during rendering. Exactly two
// themes exist, mirroring the persisted "light"/"dark" preference.
type theme struct {
	name string

	title      lipgloss.Style
	dim        lipgloss.Style
	selected   lipgloss.Style
	done       lipgloss.Style
	statusOK   lipgloss.Style
	statusErr  lipgloss.Style
	prompt     lipgloss.Style
	helpTitle  lipgloss.Style
	helpLine   lipgloss.Style
	badge      map[model.DueStatus]lipgloss.Style
	frameColor lipgloss.Color
}

func lightTheme() theme {
	return theme{
		name:      store.ThemeLight,
		title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("25")),
		dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		selected:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("26")),
		done:      lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("246")),
		statusOK:  lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
		statusErr: lipgloss.NewStyle().Foreground(lipgloss.Color("124")),
		prompt:    lipgloss.NewStyle().Foreground(lipgloss.Color("130")),
		helpTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("25")),
		helpLine:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		badge: map[model.DueStatus]lipgloss.Style{
			model.DueOverdue: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("160")),
			model.DueToday:   lipgloss.NewStyle().Foreground(lipgloss.Color("166")),
			model.DueSoon:    lipgloss.NewStyle().Foreground(lipgloss.Color("100")),
			model.DueNormal:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		},
		frameColor: lipgloss.Color("25"),
	}
}

func darkTheme() theme {
	return theme{
		name:      store.ThemeDark,
		title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		selected:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")),
		done:      lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("242")),
		statusOK:  lipgloss.NewStyle().Foreground(lipgloss.Color("70")),
		statusErr: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		prompt:    lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		helpTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111")),
		helpLine:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		badge: map[model.DueStatus]lipgloss.Style{
			model.DueOverdue: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
			model.DueToday:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			model.DueSoon:    lipgloss.NewStyle().Foreground(lipgloss.Color("185")),
			model.DueNormal:  lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		},
		frameColor: lipgloss.Color("39"),
	}
}

func themeByName(name string) theme {
	if name == store.ThemeDark {
		return darkTheme()
	}
	return lightTheme()
}

func priorityIndicator(t theme, p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Render("●")
	case model.PriorityMedium:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Render("●")
	case model.PriorityLow:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Render("●")
	default:
		return t.dim.Render("•")
	}
}
