package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ollamacli/utils/session"
	"ollamacli/utils/validate"
)

type scriptConfirmer struct {
	answers []bool
	prompts []string
}

func (c *scriptConfirmer) Confirm(prompt string) bool {
	c.prompts = append(c.prompts, prompt)
	if len(c.answers) == 0 {
		return false
	}
	answer := c.answers[0]
	c.answers = c.answers[1:]
	return answer
}

type scriptPrompter struct {
	path     string
	ok       bool
	selected []string
}

func (p *scriptPrompter) AskPath() (string, bool) { return p.path, p.ok }

func (p *scriptPrompter) SelectPath(choices []string) (string, bool) {
	p.selected = choices
	return p.path, p.ok
}

type recordingReporter struct {
	explanations []string
	plans        [][]string
	diffs        []*DiffResult
	proposals    []string
	shell        []ApplyResult
	messages     []string
}

func (r *recordingReporter) Explanation(text string)       { r.explanations = append(r.explanations, text) }
func (r *recordingReporter) FilePlan(paths []string)       { r.plans = append(r.plans, paths) }
func (r *recordingReporter) Diff(result *DiffResult)       { r.diffs = append(r.diffs, result) }
func (r *recordingReporter) CodeProposal(lang, c string)   { r.proposals = append(r.proposals, c) }
func (r *recordingReporter) ShellResult(res ApplyResult)   { r.shell = append(r.shell, res) }
func (r *recordingReporter) Info(f string, a ...interface{}) {
	r.messages = append(r.messages, "info: "+fmt.Sprintf(f, a...))
}
func (r *recordingReporter) Success(f string, a ...interface{}) {
	r.messages = append(r.messages, "success: "+fmt.Sprintf(f, a...))
}
func (r *recordingReporter) Warn(f string, a ...interface{}) {
	r.messages = append(r.messages, "warn: "+fmt.Sprintf(f, a...))
}
func (r *recordingReporter) Error(f string, a ...interface{}) {
	r.messages = append(r.messages, "error: "+fmt.Sprintf(f, a...))
}

func (r *recordingReporter) hasMessage(substr string) bool {
	for _, m := range r.messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

type testPipeline struct {
	proc     *Processor
	state    *session.FileState
	root     string
	confirm  *scriptConfirmer
	prompter *scriptPrompter
	report   *recordingReporter
	regens   []string // prompts passed to Regenerate
}

func newTestPipeline(t *testing.T, regenerated string) *testPipeline {
	t.Helper()
	root := t.TempDir()
	state := session.NewFileState(root)

	tp := &testPipeline{
		state:    state,
		root:     root,
		confirm:  &scriptConfirmer{},
		prompter: &scriptPrompter{},
		report:   &recordingReporter{},
	}
	tp.proc = &Processor{
		State:    state,
		Registry: validate.DefaultRegistry(),
		Differ:   NewDiffer(),
		Mutator:  NewMutator(root, state, "konsole -e"),
		Confirm:  tp.confirm,
		Paths:    tp.prompter,
		Report:   tp.report,
		Regenerate: func(ctx context.Context, prompt string) (string, error) {
			tp.regens = append(tp.regens, prompt)
			return regenerated, nil
		},
	}
	return tp
}

func (tp *testPipeline) fileOnDisk(t *testing.T, path string) (string, bool) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(tp.root, path))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Declining a creation batch leaves the filesystem and file state untouched.
func TestPipelineDeclinedCreationIsNoOp(t *testing.T) {
	tp := newTestPipeline(t, "")
	tp.confirm.answers = []bool{false}

	tp.proc.Process(context.Background(),
		`<project_creation><file path="a.txt">hello</file><file path="b.txt">world</file></project_creation>`)

	if _, ok := tp.fileOnDisk(t, "a.txt"); ok {
		t.Error("a.txt written despite decline")
	}
	if _, ok := tp.fileOnDisk(t, "b.txt"); ok {
		t.Error("b.txt written despite decline")
	}
	if tp.state.Len() != 0 {
		t.Errorf("file state changed: %v", tp.state.Paths())
	}
	if !tp.report.hasMessage("Cancelled") {
		t.Error("decline not reported")
	}
	if len(tp.confirm.prompts) != 1 {
		t.Errorf("batch must be one decision, got prompts: %v", tp.confirm.prompts)
	}
}

// An untagged code block with no loaded files asks for a filename, then
// writes the file and loads it into the state.
func TestPipelineFallbackCreateWithSuppliedFilename(t *testing.T) {
	tp := newTestPipeline(t, "")
	tp.prompter.path = "x.py"
	tp.prompter.ok = true
	tp.confirm.answers = []bool{true}

	tp.proc.Process(context.Background(), "```python\nprint('hi')\n```")

	content, ok := tp.fileOnDisk(t, "x.py")
	if !ok || content != "print('hi')" {
		t.Fatalf("file not written correctly: %q %v", content, ok)
	}
	if got, _ := tp.state.Get("x.py"); got != "print('hi')" {
		t.Errorf("file state mismatch: %q", got)
	}
	if len(tp.report.proposals) != 1 {
		t.Error("code proposal not shown before asking for a filename")
	}
}

func TestPipelineFallbackCreateCancelled(t *testing.T) {
	tp := newTestPipeline(t, "")
	tp.prompter.ok = false

	tp.proc.Process(context.Background(), "```python\nprint('hi')\n```")

	if tp.state.Len() != 0 {
		t.Error("state changed after cancelled filename prompt")
	}
	if !tp.report.hasMessage("Creation cancelled") {
		t.Error("cancellation not reported")
	}
}

// Two shell tags run in order, each behind its own confirmation.
func TestPipelineShellSequence(t *testing.T) {
	tp := newTestPipeline(t, "")
	tp.confirm.answers = []bool{true, true}

	tp.proc.Process(context.Background(), "<shell>echo a</shell><shell>echo b</shell>")

	if len(tp.confirm.prompts) != 2 {
		t.Fatalf("expected one confirmation per command, got %v", tp.confirm.prompts)
	}
	if len(tp.report.shell) != 2 {
		t.Fatalf("expected 2 executions, got %d", len(tp.report.shell))
	}
	if tp.report.shell[0].Stdout != "a" || tp.report.shell[1].Stdout != "b" {
		t.Errorf("order not preserved: %+v", tp.report.shell)
	}
}

func TestPipelineShellDeclineSkipsOnlyThatCommand(t *testing.T) {
	tp := newTestPipeline(t, "")
	tp.confirm.answers = []bool{false, true}

	tp.proc.Process(context.Background(), "<shell>echo a</shell><shell>echo b</shell>")

	if len(tp.report.shell) != 1 || tp.report.shell[0].Stdout != "b" {
		t.Errorf("expected only the second command to run: %+v", tp.report.shell)
	}
	if !tp.report.hasMessage("Execution cancelled") {
		t.Error("skipped command not reported")
	}
}

func TestPipelineDangerousCommandWarns(t *testing.T) {
	tp := newTestPipeline(t, "")
	tp.confirm.answers = []bool{false}

	tp.proc.Process(context.Background(), "<shell>rm -rf build</shell>")

	if !tp.report.hasMessage("destructive") {
		t.Error("no warning for a destructive command")
	}
	if len(tp.report.shell) != 0 {
		t.Error("declined command executed")
	}
}

// An invalid .py file triggers exactly one correction; the corrected
// response is validated and applied.
func TestPipelineSelfCorrectionSucceeds(t *testing.T) {
	corrected := "<file_modifications><file path=\"app.py\">def f():\n    return 1</file></file_modifications>"
	tp := newTestPipeline(t, corrected)
	// yes: attempt correction; yes: apply the corrected change
	tp.confirm.answers = []bool{true, true}

	tp.proc.Process(context.Background(),
		`<file_modifications><file path="app.py">def f(:</file></file_modifications>`)

	if len(tp.regens) != 1 {
		t.Fatalf("expected exactly one correction attempt, got %d", len(tp.regens))
	}
	prompt := tp.regens[0]
	if !strings.Contains(prompt, "app.py") || !strings.Contains(prompt, "def f(:") {
		t.Errorf("correction prompt missing the invalid content:\n%s", prompt)
	}
	if !strings.Contains(prompt, "never closed") {
		t.Errorf("correction prompt missing the validator diagnostic:\n%s", prompt)
	}

	content, ok := tp.fileOnDisk(t, "app.py")
	if !ok || !strings.Contains(content, "return 1") {
		t.Errorf("corrected content not applied: %q %v", content, ok)
	}
}

// A correction that fails again is terminal: no third attempt, no write.
func TestPipelineSelfCorrectionSecondFailureIsTerminal(t *testing.T) {
	stillBroken := `<file_modifications><file path="app.py">def f(:</file></file_modifications>`
	tp := newTestPipeline(t, stillBroken)
	tp.confirm.answers = []bool{true, true, true, true}

	tp.proc.Process(context.Background(), stillBroken)

	if len(tp.regens) != 1 {
		t.Fatalf("expected exactly one correction attempt, got %d", len(tp.regens))
	}
	if !tp.report.hasMessage("failed again") {
		t.Error("terminal failure not reported")
	}
	if _, ok := tp.fileOnDisk(t, "app.py"); ok {
		t.Error("invalid content written")
	}
}

func TestPipelineRejectedInvalidDirective(t *testing.T) {
	tp := newTestPipeline(t, "")
	// no: do not attempt correction
	tp.confirm.answers = []bool{false}

	tp.proc.Process(context.Background(),
		`<file_modifications><file path="app.py">def f(:</file></file_modifications>`)

	if len(tp.regens) != 0 {
		t.Error("correction attempted despite refusal")
	}
	if !tp.report.hasMessage("rejected") {
		t.Error("rejection not reported")
	}
}

// A valid sibling proceeds to confirmation even when another directive in
// the batch fails validation and is rejected.
func TestPipelineInvalidDirectiveDoesNotSinkSiblings(t *testing.T) {
	tp := newTestPipeline(t, "")
	// no: skip correction for the broken file; yes: apply the valid one
	tp.confirm.answers = []bool{false, true}

	tp.proc.Process(context.Background(),
		`<file_modifications><file path="broken.py">def f(:</file><file path="ok.txt">fine</file></file_modifications>`)

	content, ok := tp.fileOnDisk(t, "ok.txt")
	if !ok || content != "fine" {
		t.Errorf("valid sibling not applied: %q %v", content, ok)
	}
	if _, ok := tp.fileOnDisk(t, "broken.py"); ok {
		t.Error("invalid directive applied")
	}
}

// A modification batch shows a diff per file, and an identical proposal
// still surfaces as an (empty) diff rather than being skipped.
func TestPipelineModificationShowsDiffs(t *testing.T) {
	tp := newTestPipeline(t, "")
	tp.state.Set("same.txt", "unchanged")
	tp.state.Set("edit.txt", "old line")
	tp.confirm.answers = []bool{true}

	tp.proc.Process(context.Background(),
		`<file_modifications><file path="edit.txt">new line</file><file path="same.txt">unchanged</file></file_modifications>`)

	if len(tp.report.diffs) != 2 {
		t.Fatalf("expected 2 diffs, got %d", len(tp.report.diffs))
	}
	if !tp.report.diffs[0].Changed() {
		t.Error("real change reported as empty")
	}
	if tp.report.diffs[1].Changed() {
		t.Error("identical content reported as changed")
	}
}

func TestPipelineAmbiguousFallbackUsesSelection(t *testing.T) {
	tp := newTestPipeline(t, "")
	tp.state.Set("a.py", "a = 0")
	tp.state.Set("b.py", "b = 0")
	tp.prompter.path = "b.py"
	tp.prompter.ok = true
	tp.confirm.answers = []bool{true}

	tp.proc.Process(context.Background(), "```python\nb = 1\n```")

	if len(tp.prompter.selected) != 2 {
		t.Errorf("selection not offered the loaded paths: %v", tp.prompter.selected)
	}
	content, ok := tp.fileOnDisk(t, "b.py")
	if !ok || content != "b = 1" {
		t.Errorf("selected file not modified: %q %v", content, ok)
	}
	if got, _ := tp.state.Get("a.py"); got != "a = 0" {
		t.Error("unselected file changed")
	}
}

// Directory entries and files apply in order within one confirmed batch.
func TestPipelineCreationBatchAppliesInOrder(t *testing.T) {
	tp := newTestPipeline(t, "")
	tp.confirm.answers = []bool{true}

	tp.proc.Process(context.Background(),
		`<project_creation><explanation>setup</explanation><file path="pkg/">util</file><file path="pkg/util/mod.py">x = 1</file></project_creation>`)

	if len(tp.report.explanations) != 1 || tp.report.explanations[0] != "setup" {
		t.Errorf("explanation not surfaced: %v", tp.report.explanations)
	}
	info, err := os.Stat(filepath.Join(tp.root, "pkg/util"))
	if err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
	if content, ok := tp.fileOnDisk(t, "pkg/util/mod.py"); !ok || content != "x = 1" {
		t.Errorf("file not written into created directory: %q %v", content, ok)
	}
}

func TestPipelineProseDoesNothing(t *testing.T) {
	tp := newTestPipeline(t, "")

	tp.proc.Process(context.Background(), "Paris is the capital of France.")

	if len(tp.confirm.prompts) != 0 {
		t.Errorf("prose triggered a confirmation: %v", tp.confirm.prompts)
	}
	if tp.state.Len() != 0 {
		t.Error("prose changed the file state")
	}
}

// A tool block that parses to no directives and surfaces nothing must report
// itself as unhandled so the caller can show the raw text instead.
func TestPipelineEmptyToolBlockIsUnhandled(t *testing.T) {
	tp := newTestPipeline(t, "")

	handled := tp.proc.Process(context.Background(),
		"I checked the file.\n<file_modifications>\nNo changes are needed.\n</file_modifications>")
	if handled {
		t.Error("an empty tool block with nothing to show reported as handled")
	}

	tp.confirm.answers = []bool{true}
	if !tp.proc.Process(context.Background(), "<shell>echo ok</shell>") {
		t.Error("a shell batch must report as handled")
	}
}
