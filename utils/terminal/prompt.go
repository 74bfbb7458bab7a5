package terminal

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

type promptModel struct {
	title     string
	input     textinput.Model
	cancelled bool
}

func (m promptModel) Init() tea.Cmd { return textinput.Blink }

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return m, tea.Quit
		case "esc", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	return fmt.Sprintf("%s\n\n%s\n\n%s\n",
		selectTitleStyle.Render(m.title),
		m.input.View(),
		selectFaintStyle.Render("enter: confirm   esc: cancel"))
}

// Ask reads one line of free text, with a placeholder hint. The second
// return value is false when the user cancels or submits nothing.
func Ask(title, placeholder string) (string, bool) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return askPlain(title)
	}

	input := textinput.New()
	input.Placeholder = placeholder
	input.Focus()

	final, err := tea.NewProgram(promptModel{title: title, input: input}).Run()
	if err != nil {
		return askPlain(title)
	}
	m := final.(promptModel)
	value := strings.TrimSpace(m.input.Value())
	if m.cancelled || value == "" {
		return "", false
	}
	return value, true
}

func askPlain(title string) (string, bool) {
	fmt.Printf("%s (empty to cancel): ", title)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return "", false
	}
	return value, true
}

// PathPrompter adapts the terminal prompts to the pipeline's collaborator
// interface for resolving fallback code blocks.
type PathPrompter struct{}

func (PathPrompter) AskPath() (string, bool) {
	return Ask("Enter a filename to save this code", "path/file.ext")
}

func (PathPrompter) SelectPath(choices []string) (string, bool) {
	return Select("Which file should be modified?", choices)
}
