// Package terminal covers the interactive pieces of the chat loop: line
// input with persistent history, a selection list, and a one-line text
// prompt. Everything degrades to plain stdin when there is no TTY, so the
// assistant stays usable in pipes and tests.
package terminal

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	selectTitleStyle  = lipgloss.NewStyle().Bold(true)
	selectCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	selectFaintStyle  = lipgloss.NewStyle().Faint(true)
)

type selectModel struct {
	title     string
	choices   []string
	cursor    int
	chosen    string
	cancelled bool
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = m.choices[m.cursor]
			return m, tea.Quit
		case "q", "esc", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m selectModel) View() string {
	var b strings.Builder
	b.WriteString(selectTitleStyle.Render(m.title))
	b.WriteString("\n\n")
	for i, choice := range m.choices {
		if i == m.cursor {
			b.WriteString(selectCursorStyle.Render("> " + choice))
		} else {
			b.WriteString("  " + choice)
		}
		b.WriteByte('\n')
	}
	b.WriteString(selectFaintStyle.Render("\nenter: select   esc: cancel\n"))
	return b.String()
}

// Select asks the user to pick one of the choices. The second return value
// is false when the user cancels. Without a TTY it falls back to a numbered
// prompt on stdin.
func Select(title string, choices []string) (string, bool) {
	if len(choices) == 0 {
		return "", false
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return selectPlain(title, choices)
	}

	final, err := tea.NewProgram(selectModel{title: title, choices: choices}).Run()
	if err != nil {
		return selectPlain(title, choices)
	}
	m := final.(selectModel)
	if m.cancelled {
		return "", false
	}
	return m.chosen, true
}

func selectPlain(title string, choices []string) (string, bool) {
	fmt.Println(title)
	for i, choice := range choices {
		fmt.Printf("  %d. %s\n", i+1, choice)
	}
	fmt.Print("Selection (empty to cancel): ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(choices) {
		return "", false
	}
	return choices[n-1], true
}
