package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"ollamacli/utils/config"
	"ollamacli/utils/processor"
)

const logo = `   ____  _ _                        _____ _      _____
  / __ \| | |                      / ____| |    |_   _|
 | |  | | | | __ _ _ __ ___   __ _| |    | |      | |
 | |  | | | |/ _' | '_ ' _ \ / _' | |    | |      | |
 | |__| | | | (_| | | | | | | (_| | |____| |____ _| |_
  \____/|_|_|\__,_|_| |_| |_|\__,_|\_____|______|_____|`

// Renderer writes themed output. It implements processor.Reporter, so the
// pipeline can hand it structured render requests.
type Renderer struct {
	out      io.Writer
	theme    Theme
	width    int
	markdown *glamour.TermRenderer
}

// NewRenderer builds a renderer for the given theme, sized to the terminal
// when out is one.
func NewRenderer(out io.Writer, themeName string) *Renderer {
	width := 100
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
			width = w
		}
	}

	theme := ThemeByName(themeName)
	markdown, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(theme.MarkdownStyle),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		config.DebugLog("[Display] Markdown renderer unavailable: %v", err)
	}

	return &Renderer{out: out, theme: theme, width: width, markdown: markdown}
}

// Theme returns the active theme.
func (r *Renderer) Theme() Theme { return r.theme }

// Header prints the logo banner with the model and working directory.
func (r *Renderer) Header(model, workdir string) {
	body := r.theme.Logo.Render(logo) + "\n" +
		r.theme.Subtitle.Render(fmt.Sprintf("model: %s    dir: %s", model, workdir))
	r.panel("", body, r.theme.HeaderBorder)
}

// UserMessage echoes the user's input in its own panel.
func (r *Renderer) UserMessage(text string) {
	r.panel("You", text, r.theme.UserBorder)
}

// Assistant renders a complete prose response as markdown, falling back to
// raw text when rendering fails.
func (r *Renderer) Assistant(text string) {
	rendered := text
	if r.markdown != nil {
		if out, err := r.markdown.Render(text); err == nil {
			rendered = strings.TrimRight(out, "\n")
		}
	}
	r.panel("Assistant", rendered, r.theme.AssistantBorder)
}

// RawAssistant shows a tool-call response verbatim, without markdown.
func (r *Renderer) RawAssistant(text string) {
	r.panel("Assistant (raw)", text, r.theme.AssistantBorder)
}

// Markdown renders arbitrary markdown in a titled info panel.
func (r *Renderer) Markdown(title, text string) {
	rendered := text
	if r.markdown != nil {
		if out, err := r.markdown.Render(text); err == nil {
			rendered = strings.TrimRight(out, "\n")
		}
	}
	r.panel(title, rendered, r.theme.InfoBorder)
}

// Explanation shows the model's plan from an <explanation> tag.
func (r *Renderer) Explanation(text string) {
	rendered := text
	if r.markdown != nil {
		if out, err := r.markdown.Render(text); err == nil {
			rendered = strings.TrimRight(out, "\n")
		}
	}
	r.panel("Plan", rendered, r.theme.InfoBorder)
}

// FilePlan lists the paths a creation batch will produce.
func (r *Renderer) FilePlan(paths []string) {
	var b strings.Builder
	b.WriteString(r.theme.TableTitle.Render("Items to create"))
	for _, path := range paths {
		b.WriteString("\n  " + r.theme.TableCell.Render(path))
	}
	r.panel("", b.String(), r.theme.InfoBorder)
}

// FileList shows the paths currently loaded in context.
func (r *Renderer) FileList(paths []string) {
	if len(paths) == 0 {
		r.Info("No files loaded.")
		return
	}
	var b strings.Builder
	b.WriteString(r.theme.TableTitle.Render("Files in context"))
	for _, path := range paths {
		b.WriteString("\n  " + r.theme.TableCell.Render(path))
	}
	r.panel("", b.String(), r.theme.InfoBorder)
}

// Diff renders a unified diff with colored added/removed lines. An empty
// diff is reported explicitly so the user learns nothing changed.
func (r *Renderer) Diff(result *processor.DiffResult) {
	if !result.Changed() {
		r.panel(fmt.Sprintf("Changes for %s", result.Path),
			r.theme.Info.Render("Proposed content is identical to the current file. No functional change."),
			r.theme.WarnBorder)
		return
	}

	var b strings.Builder
	for i, line := range strings.Split(strings.TrimRight(result.Unified(), "\n"), "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch {
		case strings.HasPrefix(line, "+"):
			b.WriteString(r.theme.DiffAdded.Render(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(r.theme.DiffRemoved.Render(line))
		case strings.HasPrefix(line, "@@"):
			b.WriteString(r.theme.DiffHeader.Render(line))
		default:
			b.WriteString(r.theme.DiffContext.Render(line))
		}
	}
	r.panel(fmt.Sprintf("Changes for %s", result.Path), b.String(), r.theme.InfoBorder)
}

// CodeProposal shows a fallback code block before the user names its file.
func (r *Renderer) CodeProposal(lang, content string) {
	title := "Proposed code"
	if lang != "" {
		title = fmt.Sprintf("Proposed code (%s)", lang)
	}
	r.panel(title, content, r.theme.WarnBorder)
}

// ShellResult reports one command execution.
func (r *Renderer) ShellResult(result processor.ApplyResult) {
	switch result.Status {
	case processor.StatusLaunched:
		r.Success("Command launched in a new terminal.")
		return
	case processor.StatusFailed:
		r.Error("Execution error: %v", result.Err)
		return
	}

	if result.Stdout == "" && result.Stderr == "" {
		if result.ExitCode == 0 {
			r.Success("Command completed successfully (no output).")
		} else {
			r.Error("Command exited with code %d (no output).", result.ExitCode)
		}
		return
	}

	border := r.theme.InfoBorder
	if result.ExitCode != 0 {
		border = r.theme.ErrorBorder
	}
	var b strings.Builder
	if result.Stdout != "" {
		b.WriteString(result.Stdout)
	}
	if result.Stderr != "" {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(r.theme.Error.Render(result.Stderr))
	}
	title := "Result"
	if result.ExitCode != 0 {
		title = fmt.Sprintf("Result (exit %d)", result.ExitCode)
	}
	r.panel(title, b.String(), border)
}

// Info prints a dim informational line.
func (r *Renderer) Info(format string, args ...interface{}) {
	fmt.Fprintln(r.out, r.theme.Info.Render(fmt.Sprintf(format, args...)))
}

// Success prints a success line.
func (r *Renderer) Success(format string, args ...interface{}) {
	fmt.Fprintln(r.out, r.theme.Success.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Warn prints a warning line.
func (r *Renderer) Warn(format string, args ...interface{}) {
	fmt.Fprintln(r.out, r.theme.Warning.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// Error prints an error line.
func (r *Renderer) Error(format string, args ...interface{}) {
	fmt.Fprintln(r.out, r.theme.Error.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Token writes one streamed token as-is, for live rendering.
func (r *Renderer) Token(token string) {
	fmt.Fprint(r.out, token)
}

func (r *Renderer) panel(title, body string, border lipgloss.TerminalColor) {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(r.width - 2)
	if title != "" {
		body = lipgloss.NewStyle().Bold(true).Render(title) + "\n" + body
	}
	fmt.Fprintln(r.out, style.Render(body))
}
