// Package display renders the assistant's output: themed panels, markdown,
// diffs and command results. The pipeline hands it structured data; all
// markup lives here.
package display

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Theme assigns colors to the UI roles. Styles are resolved once at
// construction; callers never touch raw color codes.
type Theme struct {
	Name string

	Logo            lipgloss.Style
	Subtitle        lipgloss.Style
	HeaderBorder    lipgloss.TerminalColor
	UserBorder      lipgloss.TerminalColor
	AssistantBorder lipgloss.TerminalColor
	InfoBorder      lipgloss.TerminalColor
	WarnBorder      lipgloss.TerminalColor
	ErrorBorder     lipgloss.TerminalColor

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	TableTitle lipgloss.Style
	TableCell  lipgloss.Style

	DiffAdded   lipgloss.Style
	DiffRemoved lipgloss.Style
	DiffContext lipgloss.Style
	DiffHeader  lipgloss.Style

	// MarkdownStyle names the glamour style sheet to pair with this theme.
	MarkdownStyle string
}

var themes = map[string]Theme{
	"dark": {
		Name:            "dark",
		Logo:            lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Subtitle:        lipgloss.NewStyle().Faint(true),
		HeaderBorder:    lipgloss.Color("14"),
		UserBorder:      lipgloss.Color("10"),
		AssistantBorder: lipgloss.Color("14"),
		InfoBorder:      lipgloss.Color("10"),
		WarnBorder:      lipgloss.Color("11"),
		ErrorBorder:     lipgloss.Color("9"),
		Success:         lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:         lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Error:           lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Info:            lipgloss.NewStyle().Faint(true),
		TableTitle:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		TableCell:       lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		DiffAdded:       lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		DiffRemoved:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		DiffContext:     lipgloss.NewStyle().Faint(true),
		DiffHeader:      lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		MarkdownStyle:   "dark",
	},
	"light": {
		Name:            "light",
		Logo:            lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Subtitle:        lipgloss.NewStyle().Faint(true),
		HeaderBorder:    lipgloss.Color("12"),
		UserBorder:      lipgloss.Color("12"),
		AssistantBorder: lipgloss.Color("0"),
		InfoBorder:      lipgloss.Color("2"),
		WarnBorder:      lipgloss.Color("3"),
		ErrorBorder:     lipgloss.Color("9"),
		Success:         lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Warning:         lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Error:           lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Info:            lipgloss.NewStyle().Faint(true),
		TableTitle:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		TableCell:       lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		DiffAdded:       lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		DiffRemoved:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		DiffContext:     lipgloss.NewStyle().Faint(true),
		DiffHeader:      lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		MarkdownStyle:   "light",
	},
}

// ThemeNames returns the available theme names, sorted.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ThemeByName resolves a theme, falling back to dark for unknown names.
func ThemeByName(name string) Theme {
	if theme, ok := themes[name]; ok {
		return theme
	}
	return themes["dark"]
}
