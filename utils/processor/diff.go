package processor

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineKind tags one line of a diff.
type LineKind int

const (
	// LineContext is an unchanged line shown for context.
	LineContext LineKind = iota
	// LineAdded is a line present only in the proposed content.
	LineAdded
	// LineRemoved is a line present only in the original content.
	LineRemoved
)

// DiffLine is a single tagged line.
type DiffLine struct {
	Kind LineKind
	Text string
}

// DiffResult is an ordered sequence of tagged lines for one file. An empty
// Lines slice means the proposed content is identical to the original; that
// outcome is still shown to the user, never silently skipped.
type DiffResult struct {
	Path  string
	Lines []DiffLine
}

// Changed reports whether the diff contains any added or removed line.
func (r *DiffResult) Changed() bool {
	for _, l := range r.Lines {
		if l.Kind != LineContext {
			return true
		}
	}
	return false
}

// Unified renders the diff in unified format with three lines of context
// per hunk. Identical content renders as the empty string.
func (r *DiffResult) Unified() string {
	if !r.Changed() {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n", r.Path, r.Path)

	type pos struct{ old, new int }
	positions := make([]pos, len(r.Lines))
	o, n := 1, 1
	for i, l := range r.Lines {
		positions[i] = pos{o, n}
		switch l.Kind {
		case LineContext:
			o++
			n++
		case LineRemoved:
			o++
		case LineAdded:
			n++
		}
	}

	const ctxLines = 3
	i := 0
	for i < len(r.Lines) {
		if r.Lines[i].Kind == LineContext {
			i++
			continue
		}

		// Extend the hunk while the next change is close enough that the
		// surrounding context would overlap.
		first, last := i, i
		gap := 0
		for j := i + 1; j < len(r.Lines); j++ {
			if r.Lines[j].Kind == LineContext {
				gap++
				if gap > 2*ctxLines {
					break
				}
				continue
			}
			last = j
			gap = 0
		}

		start := first - ctxLines
		if start < 0 {
			start = 0
		}
		end := last + ctxLines + 1
		if end > len(r.Lines) {
			end = len(r.Lines)
		}

		oldCount, newCount := 0, 0
		for _, l := range r.Lines[start:end] {
			switch l.Kind {
			case LineContext:
				oldCount++
				newCount++
			case LineRemoved:
				oldCount++
			case LineAdded:
				newCount++
			}
		}
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", positions[start].old, oldCount, positions[start].new, newCount)

		for _, l := range r.Lines[start:end] {
			switch l.Kind {
			case LineContext:
				b.WriteByte(' ')
			case LineRemoved:
				b.WriteByte('-')
			case LineAdded:
				b.WriteByte('+')
			}
			b.WriteString(l.Text)
			b.WriteByte('\n')
		}
		i = end
	}
	return b.String()
}

type diffKey struct {
	original uint64
	proposed uint64
}

// Differ computes line diffs with a line-level reduction so hunks fall on
// line boundaries. Results are cached per content pair; the pipeline is
// single-threaded so a plain map suffices.
type Differ struct {
	dmp   *diffmatchpatch.DiffMatchPatch
	cache map[diffKey][]DiffLine
}

// NewDiffer creates a diff engine tuned for code.
func NewDiffer() *Differ {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return &Differ{
		dmp:   dmp,
		cache: make(map[diffKey][]DiffLine),
	}
}

// Diff computes the line diff between original and proposed content. It is
// a pure function of its inputs; an unavailable original is passed as the
// empty string.
func (d *Differ) Diff(path, original, proposed string) *DiffResult {
	result := &DiffResult{Path: path}
	if original == proposed {
		return result
	}

	key := diffKey{xxhash.Sum64String(original), xxhash.Sum64String(proposed)}
	if lines, ok := d.cache[key]; ok {
		result.Lines = lines
		return result
	}

	a, b, lineArray := d.dmp.DiffLinesToChars(original, proposed)
	diffs := d.dmp.DiffMain(a, b, false)
	diffs = d.dmp.DiffCharsToLines(diffs, lineArray)

	var lines []DiffLine
	for _, diff := range diffs {
		var kind LineKind
		switch diff.Type {
		case diffmatchpatch.DiffEqual:
			kind = LineContext
		case diffmatchpatch.DiffInsert:
			kind = LineAdded
		case diffmatchpatch.DiffDelete:
			kind = LineRemoved
		}
		for _, text := range splitDiffLines(diff.Text) {
			lines = append(lines, DiffLine{Kind: kind, Text: text})
		}
	}

	d.cache[key] = lines
	result.Lines = lines
	return result
}

func splitDiffLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
