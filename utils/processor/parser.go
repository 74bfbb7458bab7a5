package processor

import (
	"fmt"
	"strings"

	"ollamacli/utils/session"
)

// PendingBlock is a fallback code block whose target path could not be
// determined from the response alone. Choices lists the loaded paths to
// pick from; a nil Choices means no file is loaded and a new filename must
// be supplied interactively.
type PendingBlock struct {
	Lang    string
	Content string
	Choices []string
}

// ParseResult is the outcome of parsing one complete response.
type ParseResult struct {
	Explanation string
	Directives  []Directive
	Pending     *PendingBlock
	// Malformed lists entries that were recognized but dropped, one note
	// per entry. Malformed entries never fail the whole block.
	Malformed []string
}

// Parse extracts directives from a complete response. The top-level grammar
// is matched in priority order, first match wins: <project_creation>, then
// <file_modifications>, then <shell> tags, then the fenced-code-block
// fallback. An empty result means the response is prose.
//
// The file state is consulted only by the fallback, to decide whether an
// untagged code block targets the single loaded file, needs a new filename,
// or needs an explicit selection.
func Parse(text string, state *session.FileState) *ParseResult {
	text = strings.TrimSpace(text)
	switch {
	case strings.Contains(text, "<project_creation>"):
		return parseFileBlock(text, "project_creation")
	case strings.Contains(text, "<file_modifications>"):
		return parseFileBlock(text, "file_modifications")
	case strings.Contains(text, "<shell>"):
		return parseShell(text)
	default:
		return parseFallback(text, state)
	}
}

func parseFileBlock(text, tag string) *ParseResult {
	result := &ParseResult{}

	inner, ok := extractBlock(text, tag)
	if !ok {
		result.Malformed = append(result.Malformed, fmt.Sprintf("unclosed <%s> block", tag))
		return result
	}
	result.Explanation = extractExplanation(inner)

	entries, malformed := parseFileEntries(inner)
	result.Malformed = append(result.Malformed, malformed...)

	for _, e := range entries {
		if e.path == "" {
			result.Malformed = append(result.Malformed, "file entry with empty path")
			continue
		}
		if tag == "project_creation" {
			if dir, isDir := dirFromSplitFilename(e.path, e.content); isDir {
				result.Directives = append(result.Directives, Directive{Kind: KindCreateDir, Path: dir})
				continue
			}
			result.Directives = append(result.Directives, Directive{
				Kind:    KindCreateFile,
				Path:    e.path,
				Content: stripFence(e.content),
			})
			continue
		}
		result.Directives = append(result.Directives, Directive{
			Kind:    KindModifyFile,
			Path:    e.path,
			Content: stripFence(e.content),
		})
	}
	return result
}

func parseShell(text string) *ParseResult {
	result := &ParseResult{}
	pos := 0
	for {
		i := strings.Index(text[pos:], "<shell>")
		if i < 0 {
			break
		}
		i += pos + len("<shell>")
		j := strings.Index(text[i:], "</shell>")
		if j < 0 {
			result.Malformed = append(result.Malformed, "unclosed <shell> tag")
			break
		}
		command := strings.TrimSpace(text[i : i+j])
		if command != "" {
			result.Directives = append(result.Directives, Directive{Kind: KindRunShell, Command: command})
		}
		pos = i + j + len("</shell>")
	}
	return result
}

type fencedBlock struct {
	lang    string
	content string
}

func parseFallback(text string, state *session.FileState) *ParseResult {
	blocks := scanFencedBlocks(text)
	if len(blocks) == 0 {
		return &ParseResult{}
	}

	// When every fenced block is tagged as shell, each becomes a command,
	// in order. A single non-shell block breaks the pattern.
	allShell := true
	var shell []Directive
	for _, b := range blocks {
		content := strings.TrimSpace(b.content)
		if content == "" {
			continue
		}
		switch strings.ToLower(b.lang) {
		case "shell", "bash", "sh":
			shell = append(shell, Directive{Kind: KindRunShell, Command: content})
		default:
			allShell = false
		}
		if !allShell {
			break
		}
	}
	if allShell && len(shell) > 0 {
		return &ParseResult{Directives: shell}
	}

	// Otherwise only the first block counts, and the target depends on the
	// file state.
	content := strings.TrimSpace(blocks[0].content)
	if content == "" {
		return &ParseResult{}
	}
	switch state.Len() {
	case 1:
		return &ParseResult{Directives: []Directive{{
			Kind:    KindModifyFile,
			Path:    state.Paths()[0],
			Content: content,
		}}}
	case 0:
		return &ParseResult{Pending: &PendingBlock{Lang: blocks[0].lang, Content: content}}
	default:
		return &ParseResult{Pending: &PendingBlock{Lang: blocks[0].lang, Content: content, Choices: state.Paths()}}
	}
}

// extractBlock returns the text between <tag> and the first matching
// </tag>. ok is false when either tag is missing.
func extractBlock(text, tag string) (string, bool) {
	open, close := "<"+tag+">", "</"+tag+">"
	i := strings.Index(text, open)
	if i < 0 {
		return "", false
	}
	rest := text[i+len(open):]
	j := strings.Index(rest, close)
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}

func extractExplanation(inner string) string {
	text, ok := extractBlock(inner, "explanation")
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}

type fileEntry struct {
	path    string
	content string
}

// parseFileEntries scans <file path="...">...</file> entries. Recovery is
// per entry: a malformed opening tag or missing terminator drops that entry
// with a note and scanning continues at the next one.
func parseFileEntries(inner string) ([]fileEntry, []string) {
	var entries []fileEntry
	var malformed []string

	skipToNext := func(from int) (int, bool) {
		end := strings.Index(inner[from:], "</file>")
		if end < 0 {
			return 0, false
		}
		return from + end + len("</file>"), true
	}

	pos := 0
	for {
		i := strings.Index(inner[pos:], "<file")
		if i < 0 {
			break
		}
		i += pos

		rest := inner[i+len("<file"):]
		if !strings.HasPrefix(rest, ` path="`) {
			malformed = append(malformed, "file entry missing path attribute")
			next, ok := skipToNext(i)
			if !ok {
				break
			}
			pos = next
			continue
		}
		rest = rest[len(` path="`):]

		q := strings.Index(rest, `"`)
		if q < 0 || !strings.HasPrefix(rest[q+1:], ">") {
			malformed = append(malformed, "file entry with malformed opening tag")
			next, ok := skipToNext(i)
			if !ok {
				break
			}
			pos = next
			continue
		}
		path := strings.TrimSpace(rest[:q])
		body := rest[q+2:]

		end := strings.Index(body, "</file>")
		if end < 0 {
			malformed = append(malformed, fmt.Sprintf("unterminated file entry for %q", path))
			break
		}
		entries = append(entries, fileEntry{path: path, content: strings.TrimSpace(body[:end])})
		pos = len(inner) - len(body) + end + len("</file>")
	}
	return entries, malformed
}

// dirFromSplitFilename reinterprets a file entry whose path ends in "/" as
// a directory. When the content is a single line it is the rest of the
// directory name, split across the two tag captures by the loose grammar
// some models produce; the two halves are rejoined. Multi-line content
// under a trailing-slash path is discarded and the path alone becomes the
// directory.
func dirFromSplitFilename(path, content string) (string, bool) {
	if !strings.HasSuffix(path, "/") {
		return "", false
	}
	if content != "" && !strings.Contains(content, "\n") {
		return path + content, true
	}
	return path, true
}

// stripFence removes one fenced-code wrapper layer from tag content: models
// often wrap the file body in triple backticks even inside a <file> tag.
// Everything outside the outermost fence pair is dropped, the optional
// language word after the opening fence is skipped, and the inner text is
// trimmed. Content without a complete fence pair is returned unchanged.
func stripFence(content string) string {
	i := strings.Index(content, "```")
	if i < 0 {
		return content
	}
	j := strings.LastIndex(content, "```")
	if j <= i+2 {
		return content
	}
	inner := content[i+3 : j]

	k := 0
	for k < len(inner) && isWordChar(inner[k]) {
		k++
	}
	inner = strings.TrimPrefix(inner[k:], "\n")
	return strings.TrimSpace(inner)
}

// scanFencedBlocks pairs up ``` fences in order, capturing the optional
// language word attached to each opening fence.
func scanFencedBlocks(text string) []fencedBlock {
	var blocks []fencedBlock
	pos := 0
	for {
		i := strings.Index(text[pos:], "```")
		if i < 0 {
			break
		}
		i += pos + 3

		k := i
		for k < len(text) && isWordChar(text[k]) {
			k++
		}
		lang := text[i:k]

		body := k
		if body < len(text) && text[body] == '\n' {
			body++
		}
		j := strings.Index(text[body:], "```")
		if j < 0 {
			break
		}
		blocks = append(blocks, fencedBlock{lang: lang, content: text[body : body+j]})
		pos = body + j + 3
	}
	return blocks
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
