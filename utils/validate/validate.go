// Package validate checks directive content for syntax validity before it is
// offered to the user. Checkers are registered per file extension; paths with
// no registered checker pass through unvalidated.
package validate

import (
	"encoding/json"
	"fmt"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Result is the outcome of a syntax check. Message carries the checker's
// exact diagnostic (with line/column where available) so it can be relayed
// verbatim to a correction prompt.
type Result struct {
	OK      bool
	Message string
}

// Ok returns a passing result.
func Ok() Result {
	return Result{OK: true}
}

// Errorf returns a failing result with a formatted diagnostic.
func Errorf(format string, args ...interface{}) Result {
	return Result{Message: fmt.Sprintf(format, args...)}
}

// Checker validates source text for a single language.
type Checker interface {
	Check(source string) Result
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(source string) Result

// Check implements Checker.
func (f CheckerFunc) Check(source string) Result { return f(source) }

// Registry maps file extensions to syntax checkers.
type Registry struct {
	byExt map[string]Checker
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Checker)}
}

// DefaultRegistry returns a registry with the built-in checkers registered.
// Python is the primary one; JSON, YAML and Go ride along since their
// parsers are already in the dependency tree.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(".py", PythonChecker())
	r.Register(".json", CheckerFunc(checkJSON))
	r.Register(".yaml", CheckerFunc(checkYAML))
	r.Register(".yml", CheckerFunc(checkYAML))
	r.Register(".go", CheckerFunc(checkGo))
	return r
}

// Register adds or replaces the checker for an extension. The extension must
// include the leading dot.
func (r *Registry) Register(ext string, c Checker) {
	r.byExt[strings.ToLower(ext)] = c
}

// Checker returns the checker registered for an extension, if any.
func (r *Registry) Checker(ext string) (Checker, bool) {
	c, ok := r.byExt[strings.ToLower(ext)]
	return c, ok
}

// Validate runs the checker registered for the path's extension. Paths with
// an unrecognized extension pass: the assistant should not block content it
// has no checker for.
func (r *Registry) Validate(path, content string) Result {
	c, ok := r.Checker(filepath.Ext(path))
	if !ok {
		return Ok()
	}
	return c.Check(content)
}

func checkJSON(source string) Result {
	if strings.TrimSpace(source) == "" {
		return Ok()
	}
	var v interface{}
	if err := json.Unmarshal([]byte(source), &v); err != nil {
		return Errorf("invalid JSON: %v", err)
	}
	return Ok()
}

func checkYAML(source string) Result {
	var v interface{}
	if err := yaml.Unmarshal([]byte(source), &v); err != nil {
		return Errorf("invalid YAML: %v", err)
	}
	return Ok()
}

func checkGo(source string) Result {
	if _, err := parser.ParseFile(token.NewFileSet(), "src.go", source, parser.SkipObjectResolution); err != nil {
		return Errorf("invalid Go: %v", err)
	}
	return Ok()
}
