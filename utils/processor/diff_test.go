package processor

import (
	"strings"
	"testing"
)

func TestDiffIdenticalContentIsEmpty(t *testing.T) {
	d := NewDiffer()
	for _, content := range []string{"", "one line", "a\nb\nc\n", "no trailing newline"} {
		result := d.Diff("f.txt", content, content)
		if len(result.Lines) != 0 {
			t.Errorf("diff of identical content %q not empty: %v", content, result.Lines)
		}
		if result.Changed() {
			t.Errorf("identical content %q reported as changed", content)
		}
		if result.Unified() != "" {
			t.Errorf("identical content %q produced unified output", content)
		}
	}
}

func TestDiffAddAndRemove(t *testing.T) {
	d := NewDiffer()
	result := d.Diff("f.txt", "a\nb\nc\n", "a\nx\nc\n")

	if !result.Changed() {
		t.Fatal("expected a change")
	}

	var added, removed []string
	for _, l := range result.Lines {
		switch l.Kind {
		case LineAdded:
			added = append(added, l.Text)
		case LineRemoved:
			removed = append(removed, l.Text)
		}
	}
	if len(removed) != 1 || removed[0] != "b" {
		t.Errorf("unexpected removed lines: %v", removed)
	}
	if len(added) != 1 || added[0] != "x" {
		t.Errorf("unexpected added lines: %v", added)
	}
}

func TestDiffNewFileIsAllAdded(t *testing.T) {
	d := NewDiffer()
	result := d.Diff("new.py", "", "x = 1\ny = 2\n")

	for _, l := range result.Lines {
		if l.Kind != LineAdded {
			t.Errorf("new file produced non-added line: %+v", l)
		}
	}
	if len(result.Lines) != 2 {
		t.Errorf("expected 2 added lines, got %d", len(result.Lines))
	}
}

func TestDiffUnifiedFormat(t *testing.T) {
	d := NewDiffer()
	result := d.Diff("app.py", "a\nb\nc\n", "a\nB\nc\n")
	out := result.Unified()

	for _, want := range []string{"--- a/app.py", "+++ b/app.py", "@@ ", "-b", "+B", " a", " c"} {
		if !strings.Contains(out, want) {
			t.Errorf("unified output missing %q:\n%s", want, out)
		}
	}
}

func TestDiffUnifiedSplitsDistantChangesIntoHunks(t *testing.T) {
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, "same")
	}
	original := "first\n" + strings.Join(lines, "\n") + "\nlast\n"
	proposed := "FIRST\n" + strings.Join(lines, "\n") + "\nLAST\n"

	d := NewDiffer()
	out := d.Diff("f.txt", original, proposed).Unified()

	if got := strings.Count(out, "@@ "); got != 2 {
		t.Errorf("expected 2 hunks, got %d:\n%s", got, out)
	}
	if strings.Count(out, "\n") > 20 {
		t.Errorf("unified output should elide distant context:\n%s", out)
	}
}

func TestDiffCachedResultKeepsPath(t *testing.T) {
	d := NewDiffer()
	first := d.Diff("one.txt", "a\n", "b\n")
	second := d.Diff("two.txt", "a\n", "b\n")

	if second.Path != "two.txt" {
		t.Errorf("cached result leaked the old path: %q", second.Path)
	}
	if len(first.Lines) != len(second.Lines) {
		t.Errorf("cache changed the diff: %v vs %v", first.Lines, second.Lines)
	}
}
