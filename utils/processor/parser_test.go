package processor

import (
	"reflect"
	"testing"

	"ollamacli/utils/session"
)

func emptyState(t *testing.T) *session.FileState {
	t.Helper()
	return session.NewFileState(t.TempDir())
}

func TestParseSingleShell(t *testing.T) {
	result := Parse("<shell>ls -la</shell>", emptyState(t))

	want := []Directive{{Kind: KindRunShell, Command: "ls -la"}}
	if !reflect.DeepEqual(result.Directives, want) {
		t.Errorf("got %v, want %v", result.Directives, want)
	}
}

func TestParseShellOrderPreserved(t *testing.T) {
	text := "First do this:\n<shell>echo a</shell>\nthen that:\n<shell>echo b</shell>"
	result := Parse(text, emptyState(t))

	if len(result.Directives) != 2 {
		t.Fatalf("expected 2 directives, got %d", len(result.Directives))
	}
	if result.Directives[0].Command != "echo a" || result.Directives[1].Command != "echo b" {
		t.Errorf("order not preserved: %v", result.Directives)
	}
}

func TestParseUnclosedShell(t *testing.T) {
	result := Parse("<shell>echo a</shell><shell>echo b", emptyState(t))

	if len(result.Directives) != 1 {
		t.Errorf("expected 1 directive, got %v", result.Directives)
	}
	if len(result.Malformed) != 1 {
		t.Errorf("expected a malformed note, got %v", result.Malformed)
	}
}

func TestParseIsPure(t *testing.T) {
	state := emptyState(t)
	text := `<project_creation><explanation>demo</explanation><file path="a.txt">hello</file></project_creation>`

	first := Parse(text, state)
	second := Parse(text, state)
	if !reflect.DeepEqual(first, second) {
		t.Error("identical input produced different results")
	}
}

func TestParseProjectCreation(t *testing.T) {
	text := `Let me set that up.
<project_creation>
  <explanation>A tiny project.</explanation>
  <file path="app.py">print("hi")</file>
  <file path="README.md">
# Demo
</file>
</project_creation>`

	result := Parse(text, emptyState(t))
	if result.Explanation != "A tiny project." {
		t.Errorf("unexpected explanation: %q", result.Explanation)
	}
	if len(result.Directives) != 2 {
		t.Fatalf("expected 2 directives, got %v", result.Directives)
	}
	if d := result.Directives[0]; d.Kind != KindCreateFile || d.Path != "app.py" || d.Content != `print("hi")` {
		t.Errorf("unexpected first directive: %+v", d)
	}
	if d := result.Directives[1]; d.Kind != KindCreateFile || d.Path != "README.md" || d.Content != "# Demo" {
		t.Errorf("unexpected second directive: %+v", d)
	}
}

func TestParseDirectoryFromSplitFilename(t *testing.T) {
	text := `<project_creation><file path="docs/">api</file><file path="assets/"></file></project_creation>`
	result := Parse(text, emptyState(t))

	if len(result.Directives) != 2 {
		t.Fatalf("expected 2 directives, got %v", result.Directives)
	}
	if d := result.Directives[0]; d.Kind != KindCreateDir || d.Path != "docs/api" {
		t.Errorf("split filename not rejoined: %+v", d)
	}
	if d := result.Directives[1]; d.Kind != KindCreateDir || d.Path != "assets/" {
		t.Errorf("plain directory entry mishandled: %+v", d)
	}
}

func TestParseStripsFenceWrapper(t *testing.T) {
	text := "<file_modifications><file path=\"app.py\">```python\nx = 1\n```</file></file_modifications>"
	result := Parse(text, emptyState(t))

	if len(result.Directives) != 1 {
		t.Fatalf("expected 1 directive, got %v", result.Directives)
	}
	if d := result.Directives[0]; d.Kind != KindModifyFile || d.Content != "x = 1" {
		t.Errorf("fence wrapper not stripped: %+v", d)
	}
}

func TestParseBlockWithNoEntries(t *testing.T) {
	result := Parse("<file_modifications>nothing in here</file_modifications>", emptyState(t))

	if len(result.Directives) != 0 {
		t.Errorf("expected no directives, got %v", result.Directives)
	}
	if result.Pending != nil {
		t.Error("a tagged block must not fall through to the fenced-block fallback")
	}
}

func TestParseRecoversFromMalformedEntry(t *testing.T) {
	text := `<file_modifications><file>no path here</file><file path="ok.txt">fine</file></file_modifications>`
	result := Parse(text, emptyState(t))

	if len(result.Directives) != 1 || result.Directives[0].Path != "ok.txt" {
		t.Errorf("valid sibling entry lost: %v", result.Directives)
	}
	if len(result.Malformed) != 1 {
		t.Errorf("expected one malformed note, got %v", result.Malformed)
	}
}

func TestParseFallbackAllShell(t *testing.T) {
	text := "Run these:\n```bash\nmake build\n```\nthen\n```sh\nmake test\n```"
	result := Parse(text, emptyState(t))

	if len(result.Directives) != 2 {
		t.Fatalf("expected 2 shell directives, got %v", result.Directives)
	}
	if result.Directives[0].Command != "make build" || result.Directives[1].Command != "make test" {
		t.Errorf("unexpected commands: %v", result.Directives)
	}
}

func TestParseFallbackSingleLoadedFile(t *testing.T) {
	state := emptyState(t)
	state.Set("main.py", "old")

	result := Parse("```python\nnew = True\n```", state)
	if len(result.Directives) != 1 {
		t.Fatalf("expected 1 directive, got %v", result.Directives)
	}
	if d := result.Directives[0]; d.Kind != KindModifyFile || d.Path != "main.py" || d.Content != "new = True" {
		t.Errorf("unexpected directive: %+v", d)
	}
}

func TestParseFallbackNoLoadedFiles(t *testing.T) {
	result := Parse("```python\nx = 1\n```", emptyState(t))

	if result.Pending == nil {
		t.Fatal("expected a pending block")
	}
	if result.Pending.Choices != nil {
		t.Errorf("expected no choices, got %v", result.Pending.Choices)
	}
	if result.Pending.Content != "x = 1" || result.Pending.Lang != "python" {
		t.Errorf("unexpected pending block: %+v", result.Pending)
	}
}

func TestParseFallbackAmbiguous(t *testing.T) {
	state := emptyState(t)
	state.Set("b.py", "b")
	state.Set("a.py", "a")

	result := Parse("```python\nx = 1\n```", state)
	if result.Pending == nil {
		t.Fatal("expected a pending block")
	}
	if !reflect.DeepEqual(result.Pending.Choices, []string{"a.py", "b.py"}) {
		t.Errorf("unexpected choices: %v", result.Pending.Choices)
	}
}

func TestParsePlainProse(t *testing.T) {
	result := Parse("The capital of France is Paris.", emptyState(t))

	if len(result.Directives) != 0 || result.Pending != nil {
		t.Errorf("prose produced directives: %+v", result)
	}
}

func TestParseTagPriorityOverFallback(t *testing.T) {
	// A creation block wins over a fenced block elsewhere in the response.
	text := "```bash\necho ignored\n```\n<project_creation><file path=\"a.txt\">x</file></project_creation>"
	result := Parse(text, emptyState(t))

	if len(result.Directives) != 1 || result.Directives[0].Kind != KindCreateFile {
		t.Errorf("priority order violated: %v", result.Directives)
	}
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", "x = 1", "x = 1"},
		{"fence with lang", "```python\nx = 1\n```", "x = 1"},
		{"fence without lang", "```\nx = 1\n```", "x = 1"},
		{"surrounding text dropped", "note\n```\nx = 1\n```\ntrailing", "x = 1"},
		{"single fence untouched", "```python\nx = 1", "```python\nx = 1"},
		{"multiline body", "```go\npackage main\n\nfunc main() {}\n```", "package main\n\nfunc main() {}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFence(tt.in); got != tt.want {
				t.Errorf("stripFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
