package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ollamacli/utils/config"
	"ollamacli/utils/display"
	"ollamacli/utils/models"
	"ollamacli/utils/processor"
	"ollamacli/utils/session"
	"ollamacli/utils/terminal"
	"ollamacli/utils/validate"
	"ollamacli/utils/websearch"
)

const helpText = `# Commands
- ` + "`/quit, /exit, /q`" + `: quit.
- ` + "`/clear`" + `: clear the conversation history and loaded files.
- ` + "`/model`" + `: select another model.
- ` + "`/theme`" + `: change the interface theme.
- ` + "`/config`" + `: edit the configuration (terminal launcher, web access).
- ` + "`/project [list|save|load|delete] [name]`" + `: manage saved projects.
- ` + "`/web <query>`" + `: run a web search and synthesize an answer.
- ` + "`/load <path>`" + `: load a file, glob, or directory into context.
- ` + "`/files`" + `: list the loaded files.
- ` + "`/run <command>`" + `: run a shell command (with confirmation).`

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command) error {
	workdir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("error determining working directory: %w", err)
	}

	ctx := cmd.Context()
	provider := models.DetectProvider(ctx, appConfig)
	s := newChatSession(appConfig, provider, workdir, bufio.NewReader(os.Stdin), os.Stdout)
	defer s.reader.Close()
	return s.run(ctx)
}

// chatSession holds the state of one interactive session: the provider,
// loaded files, conversation history, and the response pipeline.
type chatSession struct {
	cfg      *config.Config
	provider models.Provider
	render   *display.Renderer
	out      io.Writer
	state    *session.FileState
	history  *session.History
	proc     *processor.Processor
	confirm  processor.Confirmer
	searcher *websearch.Searcher
	spinner  *display.Spinner
	reader   *terminal.LineReader
	workdir  string

	// lastContext is the opaque continuation state from the previous turn.
	lastContext []int
}

func newChatSession(cfg *config.Config, provider models.Provider, workdir string, in io.Reader, out io.Writer) *chatSession {
	s := &chatSession{
		cfg:      cfg,
		provider: provider,
		render:   display.NewRenderer(out, cfg.Theme),
		out:      out,
		state:    session.NewFileState(workdir),
		history:  &session.History{},
		confirm:  processor.NewReaderConfirmer(in, out),
		searcher: websearch.NewSearcher(),
		spinner:  display.NewSpinner(),
		reader:   terminal.NewLineReader(in, out, config.HistoryPath()),
		workdir:  workdir,
	}
	s.proc = &processor.Processor{
		State:    s.state,
		Registry: validate.DefaultRegistry(),
		Differ:   processor.NewDiffer(),
		Mutator:  processor.NewMutator(workdir, s.state, cfg.TerminalLauncher),
		Confirm:  s.confirm,
		Paths:    terminal.PathPrompter{},
		Report:   s.render,
		Regenerate: func(ctx context.Context, prompt string) (string, error) {
			return s.regenerate(ctx, prompt)
		},
	}
	return s
}

func (s *chatSession) run(ctx context.Context) error {
	s.render.Header(s.cfg.Model, s.workdir)
	if names, err := s.provider.ListModels(ctx); err != nil {
		s.render.Warn("Could not reach the model server at %s: %v", s.cfg.OllamaURL, err)
	} else if !s.modelAvailable(names) {
		s.render.Warn("Model %q is not installed. Use /model to pick one of the %d installed models.",
			s.cfg.Model, len(names))
	}
	s.render.Info("Type /help for commands.")

	for {
		line, err := s.reader.ReadLine("You > ")
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if !s.handleCommand(ctx, line) {
				break
			}
			continue
		}
		s.render.UserMessage(line)
		s.ask(ctx, line)
	}

	s.render.Info("Goodbye!")
	return nil
}

func (s *chatSession) modelAvailable(names []string) bool {
	for _, name := range names {
		if models.MatchesModel(s.cfg.Model, name) {
			return true
		}
	}
	return false
}

// ask sends one user turn through the model and hands the complete response
// to the pipeline. Ctrl-C during streaming discards the partial response.
func (s *chatSession) ask(ctx context.Context, input string) {
	s.history.Add("user", input)
	system := processor.SystemPrompt(s.state.Paths(), s.cfg.TerminalLauncher, s.cfg.PythonCommand)
	prompt := s.state.PromptContext() + input

	genCtx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	text, class, newContext, err := s.generate(genCtx, prompt, system, s.lastContext, true)
	cancel()
	if err != nil {
		if genCtx.Err() != nil {
			fmt.Fprintln(s.out)
			s.render.Warn("Generation interrupted. The partial response was discarded.")
			return
		}
		s.render.Error("Error during response generation: %v", err)
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	s.history.Add("assistant", text)
	s.lastContext = newContext
	fmt.Fprintln(s.out)

	if class == processor.ClassProse {
		s.render.Assistant(text)
		return
	}
	if !s.proc.Process(ctx, text) {
		// Classified as a tool call but nothing actionable parsed out of
		// it. Show the text rather than dropping the turn.
		s.render.RawAssistant(text)
	}
}

// regenerate resubmits a correction prompt; the corrected response re-enters
// the pipeline through the caller.
func (s *chatSession) regenerate(ctx context.Context, prompt string) (string, error) {
	system := processor.SystemPrompt(s.state.Paths(), s.cfg.TerminalLauncher, s.cfg.PythonCommand)
	text, _, newContext, err := s.generate(ctx, prompt, system, s.lastContext, true)
	if err != nil {
		return "", err
	}
	s.lastContext = newContext
	fmt.Fprintln(s.out)
	return text, nil
}

// generate streams one completion. With live rendering, tokens are echoed as
// they arrive until the accumulator commits to tool-call mode, at which point
// the raw directive text is kept off the screen.
func (s *chatSession) generate(ctx context.Context, prompt, system string, cont []int, live bool) (string, processor.Classification, []int, error) {
	var acc processor.Accumulator
	muted := false
	waiting := false

	if live {
		s.spinner.Start("Thinking...")
		waiting = true
		defer s.spinner.Stop()
	}

	result, err := s.provider.Generate(ctx, models.GenerateRequest{
		Model:   s.cfg.Model,
		Prompt:  prompt,
		System:  system,
		Context: cont,
	}, func(token string) error {
		if waiting {
			s.spinner.Stop()
			waiting = false
		}
		acc.Feed(token)
		if !live || muted {
			return nil
		}
		if acc.Classification() == processor.ClassToolCall {
			muted = true
			fmt.Fprintln(s.out)
			s.spinner.Start("Preparing actions...")
			return nil
		}
		s.render.Token(token)
		return nil
	})
	s.spinner.Stop()
	if err != nil {
		return "", acc.Finalize(), nil, err
	}
	return result.Text, acc.Finalize(), result.Context, nil
}

func (s *chatSession) clearContext() {
	s.history.Clear()
	s.state.Clear()
	s.lastContext = nil
}

// handleCommand dispatches one slash command. A false return ends the
// session.
func (s *chatSession) handleCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/quit", "/exit", "/q":
		return false
	case "/help":
		s.render.Markdown("Help", helpText)
	case "/clear":
		s.clearContext()
		s.render.Success("Conversation context cleared.")
	case "/model":
		s.selectModel(ctx)
	case "/theme":
		s.selectTheme()
	case "/config":
		s.editConfig()
	case "/project":
		s.projectCommand(args)
	case "/web":
		if len(args) == 0 {
			s.render.Error("Usage: /web <query>")
			break
		}
		s.webSearch(ctx, strings.Join(args, " "))
	case "/load":
		if len(args) == 0 {
			s.render.Error("Usage: /load <path>")
			break
		}
		s.loadFiles(strings.Join(args, " "))
	case "/files":
		s.render.FileList(s.state.Paths())
	case "/run":
		if len(args) == 0 {
			s.render.Error("Usage: /run <command>")
			break
		}
		s.runCommand(ctx, strings.Join(args, " "))
	default:
		s.render.Error("Unknown command: %s. Type /help.", command)
	}
	return true
}

func (s *chatSession) selectModel(ctx context.Context) {
	names, err := s.provider.ListModels(ctx)
	if err != nil {
		s.render.Error("Could not list models: %v", err)
		return
	}
	if len(names) == 0 {
		s.render.Warn("No models are installed on the server.")
		return
	}
	choice, ok := terminal.Select(fmt.Sprintf("Select a model (current: %s)", s.cfg.Model), names)
	if !ok {
		s.render.Warn("Selection cancelled.")
		return
	}
	s.cfg.Model = choice
	s.clearContext()
	if err := s.cfg.Save(); err != nil {
		config.DebugLog("[Chat] Could not persist model choice: %v", err)
	}
	s.render.Success("Model changed to %s. Context cleared.", choice)
}

func (s *chatSession) selectTheme() {
	choice, ok := terminal.Select(fmt.Sprintf("Select a theme (current: %s)", s.cfg.Theme), display.ThemeNames())
	if !ok {
		s.render.Warn("Selection cancelled.")
		return
	}
	s.cfg.Theme = choice
	s.render = display.NewRenderer(s.out, choice)
	s.proc.Report = s.render
	if err := s.cfg.Save(); err != nil {
		config.DebugLog("[Chat] Could not persist theme choice: %v", err)
	}
	s.render.Success("Theme changed to %s.", choice)
}

func (s *chatSession) editConfig() {
	web := "disabled"
	if s.cfg.WebEnabled {
		web = "enabled"
	}
	s.render.Markdown("Current configuration", fmt.Sprintf(
		"- Terminal launcher: `%s`\n- Python command: `%s`\n- Web access: %s\n- Refresh rate: %d fps",
		s.cfg.TerminalLauncher, s.cfg.PythonCommand, web, s.cfg.RefreshRate))

	if s.confirm.Confirm("Toggle web access?") {
		s.cfg.WebEnabled = !s.cfg.WebEnabled
		status := "disabled"
		if s.cfg.WebEnabled {
			status = "enabled"
		}
		s.render.Success("Web access is now %s.", status)
	}
	if s.confirm.Confirm("Change the terminal launcher?") {
		if value, ok := terminal.Ask("New launcher command", s.cfg.TerminalLauncher); ok {
			s.cfg.TerminalLauncher = value
			s.proc.Mutator = processor.NewMutator(s.workdir, s.state, value)
			s.render.Success("Terminal launcher set to `%s`.", value)
		}
	}
	if s.confirm.Confirm("Change the Python command?") {
		if value, ok := terminal.Ask("New Python command", s.cfg.PythonCommand); ok {
			s.cfg.PythonCommand = value
			s.render.Success("Python command set to `%s`.", value)
		}
	}
	if s.confirm.Confirm("Change the refresh rate?") {
		if value, ok := terminal.Ask("New refresh rate (frames per second)", strconv.Itoa(s.cfg.RefreshRate)); ok {
			if rate, err := strconv.Atoi(value); err == nil && rate > 0 {
				s.cfg.RefreshRate = rate
				s.render.Success("Refresh rate set to %d fps.", rate)
			} else {
				s.render.Error("The rate must be a positive number.")
			}
		}
	}

	if err := s.cfg.Save(); err != nil {
		s.render.Error("Could not save the configuration: %v", err)
		return
	}
	s.render.Success("Configuration saved.")
}

func (s *chatSession) projectCommand(args []string) {
	if len(args) == 0 {
		s.render.Error("Usage: /project [list|save|load|delete] [name]")
		return
	}
	sub := strings.ToLower(args[0])
	name := ""
	if len(args) > 1 {
		name = args[1]
	}
	if sub != "list" && name == "" {
		s.render.Error("Usage: /project %s <name>", sub)
		return
	}

	switch sub {
	case "list":
		names, err := session.ListProjects()
		if err != nil {
			s.render.Error("Could not list projects: %v", err)
			return
		}
		if len(names) == 0 {
			s.render.Info("No saved projects.")
			return
		}
		s.render.Markdown("Saved projects", "- "+strings.Join(names, "\n- "))
	case "save":
		if err := session.SaveProject(name, s.cfg.Model, s.state, s.history); err != nil {
			s.render.Error("Could not save project %q: %v", name, err)
			return
		}
		s.render.Success("Project %q saved.", name)
	case "load":
		model, err := session.LoadProject(name, s.state, s.history)
		if err != nil {
			s.render.Error("Could not load project %q: %v", name, err)
			return
		}
		s.lastContext = nil
		if model != "" {
			s.cfg.Model = model
		}
		s.render.Success("Project %q loaded (%d files, model %s).", name, s.state.Len(), s.cfg.Model)
	case "delete":
		if !s.confirm.Confirm(fmt.Sprintf("Delete project %q? This cannot be undone.", name)) {
			s.render.Warn("Deletion cancelled.")
			return
		}
		if err := session.DeleteProject(name); err != nil {
			s.render.Error("Could not delete project %q: %v", name, err)
			return
		}
		s.render.Success("Project %q deleted.", name)
	default:
		s.render.Error("Unknown project subcommand: %s", sub)
	}
}

func (s *chatSession) loadFiles(pattern string) {
	result, err := s.state.LoadPath(pattern)
	if err != nil {
		s.render.Error("%v", err)
		return
	}
	if len(result.Loaded) > 0 {
		s.render.Success("%d file(s) loaded from %s.", len(result.Loaded), pattern)
	}
	if len(result.Unchanged) > 0 {
		s.render.Info("%d file(s) already in context and unchanged.", len(result.Unchanged))
	}
	if len(result.Skipped) > 0 {
		s.render.Warn("%d file(s) skipped (binary or unreadable).", len(result.Skipped))
	}
}

func (s *chatSession) runCommand(ctx context.Context, command string) {
	if processor.IsDangerous(command) {
		s.render.Warn("This command can be destructive: %s", command)
	}
	if !s.confirm.Confirm(fmt.Sprintf("Run `%s`?", command)) {
		s.render.Warn("Execution cancelled.")
		return
	}
	s.render.ShellResult(s.proc.Mutator.Apply(ctx, processor.Directive{
		Kind:    processor.KindRunShell,
		Command: command,
	}))
}

// webSearch answers a question from live web sources: the query is refined
// by the model, searched, the top pages are read, and the model synthesizes
// a cited answer.
func (s *chatSession) webSearch(ctx context.Context, query string) {
	if !s.cfg.WebEnabled {
		s.render.Warn("Web access is disabled. Enable it with /config.")
		return
	}

	refined := s.refineQuery(ctx, query)
	s.render.Info("Searching the web for: %s", refined)

	s.spinner.Start("Searching...")
	results, err := s.searcher.Search(ctx, refined, 5)
	s.spinner.Stop()
	if err != nil {
		s.render.Error("Web search failed: %v", err)
		return
	}
	if len(results) == 0 {
		s.render.Warn("No results found for %q.", refined)
		return
	}

	top := results
	if len(top) > 3 {
		top = top[:3]
	}
	pages := make([]string, len(top))
	for i, r := range top {
		s.spinner.Start(fmt.Sprintf("Reading source %d/%d...", i+1, len(top)))
		text, err := s.searcher.FetchPage(r.URL)
		s.spinner.Stop()
		if err != nil {
			config.DebugLog("[Web] Fetch failed for %s: %v", r.URL, err)
			text = "Could not fetch this page."
		}
		pages[i] = text
	}

	s.spinner.Start("Synthesizing answer...")
	prompt := websearch.SynthesisPrompt(query, websearch.SourceContext(top, pages))
	text, _, _, err := s.generate(ctx, prompt, websearch.SynthesisSystem, nil, false)
	s.spinner.Stop()
	if err != nil {
		s.render.Error("Error during answer synthesis: %v", err)
		return
	}

	answer := websearch.LinkSources(text, top)
	s.render.Markdown("Web answer", answer)
	s.history.Add("user", "/web "+query)
	s.history.Add("assistant", answer)
}

// refineQuery asks the model for a search-engine query. Any failure falls
// back to the user's words unchanged.
func (s *chatSession) refineQuery(ctx context.Context, query string) string {
	refineCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	s.spinner.Start("Refining search query...")
	text, _, _, err := s.generate(refineCtx, websearch.RefinementPrompt(query), "", nil, false)
	s.spinner.Stop()
	if err != nil {
		config.DebugLog("[Web] Query refinement failed: %v", err)
		return query
	}
	if refined := websearch.CleanQuery(text); refined != "" {
		return refined
	}
	return query
}
