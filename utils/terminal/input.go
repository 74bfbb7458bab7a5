package terminal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"ollamacli/utils/config"
)

// LineReader reads chat input line by line and appends every entry to a
// persistent history file, so input survives across sessions.
type LineReader struct {
	in      *bufio.Reader
	out     io.Writer
	history *os.File
}

// NewLineReader opens (or creates) the history file at path. A history
// that cannot be opened is logged and skipped, never fatal.
func NewLineReader(in io.Reader, out io.Writer, historyPath string) *LineReader {
	r := &LineReader{in: bufio.NewReader(in), out: out}
	file, err := os.OpenFile(historyPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		config.DebugLog("[Terminal] History unavailable: %v", err)
		return r
	}
	r.history = file
	return r
}

// ReadLine shows the prompt and blocks for one line. io.EOF means the
// input stream ended.
func (r *LineReader) ReadLine(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	line, err := r.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) != "" && r.history != nil {
		fmt.Fprintln(r.history, line)
	}
	return line, nil
}

// Close releases the history file.
func (r *LineReader) Close() {
	if r.history != nil {
		r.history.Close()
	}
}
