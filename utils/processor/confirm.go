package processor

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer is the blocking yes/no gate in front of every mutation. One
// call covers one batch of directives: accepting applies every directive
// that passed validation, declining applies none.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(prompt string) bool

// Confirm calls f.
func (f ConfirmerFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// ReaderConfirmer asks on out and reads the answer from in. Anything other
// than an explicit yes declines, including read errors and EOF, so a closed
// stdin can never approve a mutation.
type ReaderConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewReaderConfirmer wraps an input/output pair, typically stdin/stdout.
func NewReaderConfirmer(in io.Reader, out io.Writer) *ReaderConfirmer {
	return &ReaderConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm blocks until the user answers. There is no timeout.
func (c *ReaderConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(c.out, "%s [y/N]: ", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
