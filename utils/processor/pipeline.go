package processor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"ollamacli/utils/config"
	"ollamacli/utils/fileutil"
	"ollamacli/utils/session"
	"ollamacli/utils/validate"
)

// RegenerateFunc resubmits a correction prompt through the model and
// returns the complete new response text. The caller owns streaming,
// conversation history and continuation context.
type RegenerateFunc func(ctx context.Context, prompt string) (string, error)

// PathPrompter resolves fallback code blocks whose target path is unknown.
// The second return value is false when the user cancels.
type PathPrompter interface {
	// AskPath asks for a filename for a new file.
	AskPath() (string, bool)
	// SelectPath asks the user to pick one of the loaded paths.
	SelectPath(choices []string) (string, bool)
}

// Reporter receives structured render requests from the pipeline. The
// pipeline emits data; markup and color belong to the implementation.
type Reporter interface {
	Explanation(text string)
	FilePlan(paths []string)
	Diff(result *DiffResult)
	CodeProposal(lang, content string)
	ShellResult(result ApplyResult)
	Info(format string, args ...interface{})
	Success(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Processor drives a complete response through parse, validate, diff,
// confirm and apply, with one bounded self-correction retry on validation
// failure.
type Processor struct {
	State      *session.FileState
	Registry   *validate.Registry
	Differ     *Differ
	Mutator    *Mutator
	Confirm    Confirmer
	Paths      PathPrompter
	Report     Reporter
	Regenerate RegenerateFunc
}

// Process handles one complete model response. Failures stay local to the
// directive or batch that produced them; this never returns an error to
// abort the chat session. The return value reports whether the response
// produced anything to show or act on: when it is false the caller still
// owes the user the raw text.
func (p *Processor) Process(ctx context.Context, response string) bool {
	return p.process(ctx, response, false)
}

// process carries the correction flag: a regenerated response re-enters
// here with correctionAttempt=true and is never allowed a second retry.
func (p *Processor) process(ctx context.Context, response string, correctionAttempt bool) bool {
	response = strings.TrimSpace(response)
	if response == "" {
		return false
	}

	result := Parse(response, p.State)
	config.DebugLog("[Pipeline] Parsed %d directive(s), %d malformed, pending=%v",
		len(result.Directives), len(result.Malformed), result.Pending != nil)

	for _, note := range result.Malformed {
		p.Report.Warn("Skipped a malformed entry: %s", note)
	}
	if result.Explanation != "" {
		p.Report.Explanation(result.Explanation)
	}
	if result.Pending != nil {
		p.resolveFallback(ctx, result.Pending, correctionAttempt)
		return true
	}
	if len(result.Directives) == 0 {
		// A tool-shaped response that parsed to nothing actionable. The
		// explanation or the malformed warnings may already have told the
		// user something; otherwise the caller must show the raw text.
		return result.Explanation != "" || len(result.Malformed) > 0
	}

	if result.Directives[0].Kind == KindRunShell {
		p.runShellBatch(ctx, result.Directives)
		return true
	}
	p.applyFileBatch(ctx, result.Directives, correctionAttempt)
	return true
}

// runShellBatch executes shell directives in textual order, each behind its
// own confirmation. A failure or decline never stops the remaining
// commands.
func (p *Processor) runShellBatch(ctx context.Context, directives []Directive) {
	if len(directives) > 1 {
		p.Report.Info("The assistant proposed running these %d commands in sequence.", len(directives))
	}
	for _, d := range directives {
		if IsDangerous(d.Command) {
			p.Report.Warn("This command can be destructive: %s", d.Command)
		}
		if !p.Confirm.Confirm(fmt.Sprintf("Run `%s`?", d.Command)) {
			p.Report.Warn("Execution cancelled.")
			continue
		}
		p.Report.ShellResult(p.Mutator.Apply(ctx, d))
	}
}

// applyFileBatch validates, diffs, confirms and applies one batch of file
// and directory directives. The batch is a single yes/no decision covering
// every directive that passed validation.
func (p *Processor) applyFileBatch(ctx context.Context, directives []Directive, correctionAttempt bool) {
	var ready []Directive
	creating := false

	for _, d := range directives {
		if d.Kind == KindCreateDir {
			creating = true
			ready = append(ready, d)
			continue
		}
		if d.Kind == KindCreateFile {
			creating = true
		}

		if d.Content == "" {
			p.Report.Warn("Skipped `%s`: a %s directive needs content.", d.Path, d.Kind)
			continue
		}
		if res := p.Registry.Validate(d.Path, d.Content); !res.OK {
			p.handleInvalid(ctx, d, res.Message, correctionAttempt)
			continue
		}
		ready = append(ready, d)
	}
	if len(ready) == 0 {
		return
	}

	// Creations are summarized as a plan; modifications are shown as
	// diffs, including the empty diff when the model proposed identical
	// content.
	var planned []string
	for _, d := range ready {
		switch d.Kind {
		case KindCreateDir, KindCreateFile:
			planned = append(planned, d.Path)
		case KindModifyFile:
			p.Report.Diff(p.Differ.Diff(d.Path, p.originalContent(d.Path), d.Content))
		}
	}
	if len(planned) > 0 {
		p.Report.FilePlan(planned)
	}

	prompt := fmt.Sprintf("Apply these %d change(s)?", len(ready))
	if creating {
		prompt = fmt.Sprintf("Create these %d item(s)?", len(ready))
	}
	if !p.Confirm.Confirm(prompt) {
		p.Report.Warn("Cancelled. No changes were applied.")
		return
	}

	// Strict in-order application: a directory created earlier in the
	// batch may be the parent of a file written later.
	for _, d := range ready {
		result := p.Mutator.Apply(ctx, d)
		if result.Err != nil {
			p.Report.Error("Failed to apply %s: %v", d, result.Err)
			continue
		}
		switch result.Status {
		case StatusDirCreated:
			p.Report.Success("Directory created: %s", d.Path)
		case StatusWritten:
			p.Report.Success("File written: %s", d.Path)
		}
	}
}

// resolveFallback turns an untagged code block into a directive with the
// user's help: a new filename when nothing is loaded, or a selection when
// several files are.
func (p *Processor) resolveFallback(ctx context.Context, pending *PendingBlock, correctionAttempt bool) {
	if pending.Choices == nil {
		p.Report.Warn("The assistant provided a code block without explicit instructions.")
		p.Report.CodeProposal(pending.Lang, pending.Content)
		path, ok := p.Paths.AskPath()
		if !ok || strings.TrimSpace(path) == "" {
			p.Report.Warn("Creation cancelled.")
			return
		}
		p.applyFileBatch(ctx, []Directive{{
			Kind:    KindCreateFile,
			Path:    strings.TrimSpace(path),
			Content: pending.Content,
		}}, correctionAttempt)
		return
	}

	p.Report.Warn("The assistant suggested a modification but several files are loaded.")
	path, ok := p.Paths.SelectPath(pending.Choices)
	if !ok {
		p.Report.Warn("Modification cancelled.")
		return
	}
	p.applyFileBatch(ctx, []Directive{{
		Kind:    KindModifyFile,
		Path:    path,
		Content: pending.Content,
	}}, correctionAttempt)
}

// handleInvalid deals with one directive that failed validation: on the
// first failure the user may trigger the single self-correction retry; a
// failure during the retry is terminal and the directive is dropped.
func (p *Processor) handleInvalid(ctx context.Context, d Directive, diagnostic string, correctionAttempt bool) {
	if correctionAttempt {
		p.Report.Error("The self-correction attempt for `%s` failed again.\nDetail: %s", d.Path, diagnostic)
		return
	}
	if !p.Confirm.Confirm(fmt.Sprintf("The proposal for `%s` contains a syntax error. Attempt a self-correction?", d.Path)) {
		p.Report.Error("The change for `%s` was rejected.\nDetail: %s", d.Path, diagnostic)
		return
	}
	p.selfCorrect(ctx, d.Path, d.Content, diagnostic)
}

func (p *Processor) selfCorrect(ctx context.Context, path, invalidContent, diagnostic string) {
	p.Report.Warn("The proposed code for `%s` is invalid. Attempting self-correction...", path)

	response, err := p.Regenerate(ctx, CorrectionPrompt(path, invalidContent, diagnostic))
	if err != nil {
		p.Report.Error("Error during the correction attempt: %v", err)
		return
	}
	if strings.TrimSpace(response) == "" {
		p.Report.Error("The correction attempt produced no response.")
		return
	}
	if !p.process(ctx, response, true) {
		p.Report.Error("The correction attempt did not produce a usable change.")
	}
}

// originalContent looks up the current content for a path: the loaded file
// state first, then disk, then empty for a new file.
func (p *Processor) originalContent(path string) string {
	if content, ok := p.State.Get(path); ok {
		return content
	}
	data, err := fileutil.SafeReadFile(filepath.Join(p.State.Root(), path))
	if err != nil {
		return ""
	}
	return string(data)
}
