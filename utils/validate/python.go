package validate

import (
	"strings"
	"unicode"
)

// PythonChecker returns the built-in Python syntax checker. It is a
// structural tokenizer, not a full parser: it tracks string literals,
// comments, bracket nesting and logical lines, and checks compound statement
// headers. That is enough to reject the malformed output a model typically
// produces (unbalanced brackets, broken def headers, missing colons,
// unterminated strings) with a line/column diagnostic.
func PythonChecker() Checker {
	return CheckerFunc(checkPython)
}

type pyBracket struct {
	ch   byte
	line int
	col  int
}

var pyHeaderKeywords = map[string]bool{
	"def": true, "class": true, "if": true, "elif": true, "else": true,
	"for": true, "while": true, "try": true, "except": true,
	"finally": true, "with": true,
}

func checkPython(source string) Result {
	if strings.TrimSpace(source) == "" {
		return Ok()
	}

	var stack []pyBracket

	line, col := 1, 0
	inString := false
	stringDelim := byte(0)
	tripleString := false
	stringLine, stringCol := 0, 0

	// Logical-line accumulation with strings and comments blanked out, used
	// for the statement-level checks once bracket depth returns to zero.
	var logical strings.Builder
	logicalStart := 1
	expectIndentAfter := 0 // header line number awaiting an indented block, 0 if none
	continuation := false  // previous physical line ended with a backslash

	flushLogical := func() Result {
		text := logical.String()
		logical.Reset()
		res := checkPythonStatement(text, logicalStart, &expectIndentAfter)
		logicalStart = line + 1
		return res
	}

	n := len(source)
	for i := 0; i < n; i++ {
		c := source[i]
		col++

		if inString {
			switch {
			case c == '\\':
				if i+1 < n {
					i++
					if source[i] == '\n' {
						line++
						col = 0
					} else {
						col++
					}
				}
			case c == '\n':
				if !tripleString {
					return Errorf("line %d, column %d: unterminated string literal (detected at line %d)",
						stringLine, stringCol, line)
				}
				line++
				col = 0
			case c == stringDelim:
				if tripleString {
					if i+2 < n && source[i+1] == stringDelim && source[i+2] == stringDelim {
						i += 2
						col += 2
						inString = false
					}
				} else {
					inString = false
				}
			}
			continue
		}

		switch c {
		case '#':
			// Comment runs to end of physical line.
			for i+1 < n && source[i+1] != '\n' {
				i++
			}

		case '\'', '"':
			inString = true
			stringDelim = c
			stringLine, stringCol = line, col
			tripleString = i+2 < n && source[i+1] == c && source[i+2] == c
			if tripleString {
				i += 2
				col += 2
			}
			logical.WriteByte('"') // placeholder so tokens stay separated

		case '(', '[', '{':
			stack = append(stack, pyBracket{c, line, col})
			logical.WriteByte(c)

		case ')', ']', '}':
			if len(stack) == 0 {
				return Errorf("line %d, column %d: unmatched '%c'", line, col, c)
			}
			open := stack[len(stack)-1]
			if !pyBracketsMatch(open.ch, c) {
				return Errorf("line %d, column %d: closing bracket '%c' does not match opening bracket '%c' on line %d",
					line, col, c, open.ch, open.line)
			}
			stack = stack[:len(stack)-1]
			logical.WriteByte(c)

		case '\\':
			if i+1 < n && source[i+1] == '\n' {
				i++
				line++
				col = 0
				continuation = true
				logical.WriteByte(' ')
			} else {
				logical.WriteByte(c)
			}

		case '\n':
			if len(stack) == 0 && !continuation {
				if res := flushLogical(); !res.OK {
					return res
				}
			} else {
				logical.WriteByte(' ')
			}
			continuation = false
			line++
			col = 0

		default:
			logical.WriteByte(c)
		}
	}

	if inString {
		if tripleString {
			return Errorf("line %d, column %d: unterminated triple-quoted string literal (detected at end of file)",
				stringLine, stringCol)
		}
		return Errorf("line %d, column %d: unterminated string literal (detected at end of file)",
			stringLine, stringCol)
	}
	if len(stack) > 0 {
		open := stack[len(stack)-1]
		return Errorf("line %d, column %d: '%c' was never closed", open.line, open.col, open.ch)
	}
	if logical.Len() > 0 {
		if res := flushLogical(); !res.OK {
			return res
		}
	}
	if expectIndentAfter > 0 {
		headerLine := expectIndentAfter & 0xffff
		return Errorf("line %d: expected an indented block after statement on line %d",
			headerLine, headerLine)
	}

	return Ok()
}

func pyBracketsMatch(open, close byte) bool {
	switch open {
	case '(':
		return close == ')'
	case '[':
		return close == ']'
	case '{':
		return close == '}'
	}
	return false
}

// checkPythonStatement inspects one logical line (strings blanked, comments
// stripped, bracketed spans joined). It enforces the colon rule on compound
// statement headers, validates def/class headers, and tracks the
// expected-indent state across calls.
func checkPythonStatement(text string, startLine int, expectIndentAfter *int) Result {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Ok()
	}

	indent := pyIndentWidth(text)
	if *expectIndentAfter > 0 {
		headerIndent := *expectIndentAfter >> 16
		headerLine := *expectIndentAfter & 0xffff
		if indent <= headerIndent {
			return Errorf("line %d: expected an indented block after statement on line %d",
				startLine, headerLine)
		}
		*expectIndentAfter = 0
	}

	keyword := pyFirstWord(trimmed)
	if !pyHeaderKeywords[keyword] {
		return Ok()
	}

	if !pyHasTopLevelColon(trimmed) {
		return Errorf("line %d: expected ':' at end of '%s' statement", startLine, keyword)
	}

	if keyword == "def" || keyword == "class" {
		if res := checkPyDefHeader(trimmed, keyword, startLine); !res.OK {
			return res
		}
	}

	// A header ending in ':' opens a suite on the following lines; a header
	// with an inline suite ("if x: pass") does not. Pack the header indent
	// and line into one int so the caller keeps a single field.
	if strings.HasSuffix(trimmed, ":") {
		*expectIndentAfter = indent<<16 | (startLine & 0xffff)
	}
	return Ok()
}

// pyHasTopLevelColon reports whether a logical line contains a ':' outside
// any bracket pair. Colons inside dict literals or subscripts do not count.
func pyHasTopLevelColon(text string) bool {
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ':':
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

// checkPyDefHeader validates "def name(params):" and "class name(bases):"
// headers. The parameter grammar is deliberately loose; the goal is to catch
// the common model mistakes such as "def f(:" or a missing name.
func checkPyDefHeader(trimmed, keyword string, startLine int) Result {
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, keyword))
	rest = strings.TrimSuffix(rest, ":")

	// Isolate the name before any parenthesis or return annotation.
	name := rest
	if idx := strings.IndexAny(rest, "( \t-"); idx >= 0 {
		name = rest[:idx]
	}
	if name == "" || !pyIsIdentifier(name) {
		return Errorf("line %d: invalid %s name %q", startLine, keyword, name)
	}

	open := strings.Index(rest, "(")
	if open < 0 {
		if keyword == "def" {
			return Errorf("line %d: expected '(' after function name in def statement", startLine)
		}
		return Ok() // class without bases is fine
	}

	inner := rest[open+1:]
	if end := strings.LastIndex(inner, ")"); end >= 0 {
		inner = inner[:end]
	}

	// A ':' directly after '(' or ',' can never start a parameter.
	prev := byte('(')
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == ' ' || c == '\t' {
			continue
		}
		if c == ':' && (prev == '(' || prev == ',') {
			return Errorf("line %d: unexpected ':' in parameter list of %q", startLine, name)
		}
		if c == ',' && prev == ',' {
			return Errorf("line %d: empty parameter in parameter list of %q", startLine, name)
		}
		prev = c
	}

	return Ok()
}

func pyIndentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 8
		default:
			return width
		}
	}
	return width
}

func pyFirstWord(s string) string {
	for i, r := range s {
		if !unicode.IsLetter(r) && r != '_' {
			return s[:i]
		}
	}
	return s
}

func pyIsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
