package processor

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"ollamacli/utils/config"
	"ollamacli/utils/fileutil"
	"ollamacli/utils/session"
)

// Status is the outcome of applying one directive.
type Status int

const (
	// StatusWritten means the file was written and the file state updated.
	StatusWritten Status = iota
	// StatusDirCreated means the directory exists, created or not.
	StatusDirCreated
	// StatusCompleted means a synchronous shell command ran to completion,
	// successfully or not; check ExitCode.
	StatusCompleted
	// StatusLaunched means a long-running command was started detached in
	// its own process group. There is no output and no exit code; the
	// absence of output is not a failure.
	StatusLaunched
	// StatusFailed means the side effect did not happen; Err says why.
	StatusFailed
)

// ApplyResult reports one Mutator.Apply call.
type ApplyResult struct {
	Directive Directive
	Status    Status
	Stdout    string
	Stderr    string
	ExitCode  int
	Err       error
}

// Mutator performs the filesystem and process side effects of confirmed
// directives. It is the only component that writes the file state, and only
// after the disk write succeeded.
type Mutator struct {
	root     string
	state    *session.FileState
	launcher string
}

// NewMutator creates a mutator rooted at the working directory. Commands
// whose text starts with the launcher prefix are treated as long-running
// and started detached.
func NewMutator(root string, state *session.FileState, launcher string) *Mutator {
	return &Mutator{root: root, state: state, launcher: launcher}
}

// Apply performs one directive's side effect. Failures are reported in the
// result, never panicked, so the caller can continue with sibling
// directives.
func (m *Mutator) Apply(ctx context.Context, d Directive) ApplyResult {
	switch d.Kind {
	case KindCreateDir:
		return m.applyCreateDir(d)
	case KindCreateFile, KindModifyFile:
		return m.applyWrite(d)
	case KindRunShell:
		return m.applyShell(ctx, d)
	}
	return ApplyResult{Directive: d, Status: StatusFailed}
}

func (m *Mutator) applyCreateDir(d Directive) ApplyResult {
	result := ApplyResult{Directive: d, Status: StatusDirCreated}
	if err := fileutil.EnsureDir(filepath.Join(m.root, d.Path)); err != nil {
		result.Status = StatusFailed
		result.Err = err
	}
	return result
}

func (m *Mutator) applyWrite(d Directive) ApplyResult {
	result := ApplyResult{Directive: d, Status: StatusWritten}
	if err := fileutil.WriteFile(filepath.Join(m.root, d.Path), []byte(d.Content)); err != nil {
		result.Status = StatusFailed
		result.Err = err
		return result
	}
	m.state.Set(d.Path, d.Content)
	config.DebugLog("[Mutator] Wrote %s (%d bytes)", d.Path, len(d.Content))
	return result
}

func (m *Mutator) applyShell(ctx context.Context, d Directive) ApplyResult {
	if m.launcher != "" && strings.HasPrefix(strings.TrimSpace(d.Command), m.launcher) {
		return m.launchDetached(d)
	}
	return m.runSync(ctx, d)
}

// launchDetached starts the command in its own process group and does not
// wait for it. Closing the assistant must not kill a server the user asked
// it to start.
func (m *Mutator) launchDetached(d Directive) ApplyResult {
	result := ApplyResult{Directive: d, Status: StatusLaunched}

	shell, flag := shellCommand()
	cmd := exec.Command(shell, flag, d.Command)
	cmd.Dir = m.root
	detach(cmd)

	if err := cmd.Start(); err != nil {
		result.Status = StatusFailed
		result.Err = err
		return result
	}
	config.DebugLog("[Mutator] Launched detached pid=%d: %s", cmd.Process.Pid, d.Command)
	cmd.Process.Release()
	return result
}

func (m *Mutator) runSync(ctx context.Context, d Directive) ApplyResult {
	result := ApplyResult{Directive: d, Status: StatusCompleted}

	shell, flag := shellCommand()
	cmd := exec.CommandContext(ctx, shell, flag, d.Command)
	cmd.Dir = m.root

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result.Stdout = strings.TrimSpace(stdout.String())
	result.Stderr = strings.TrimSpace(stderr.String())

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.Status = StatusFailed
			result.Err = err
		}
	}
	config.DebugLog("[Mutator] Ran %q exit=%d", d.Command, result.ExitCode)
	return result
}
