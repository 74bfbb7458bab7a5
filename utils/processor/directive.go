// Package processor turns a complete model response into validated,
// diffable, confirmable actions: file creation, file modification,
// directory creation and shell execution. The flow is
// parse -> validate -> diff -> confirm -> apply, with a single bounded
// self-correction retry when generated code fails validation.
package processor

import (
	"fmt"
	"strings"
)

// Kind discriminates the directive variants.
type Kind int

const (
	// KindCreateFile writes a new file with the given content.
	KindCreateFile Kind = iota
	// KindModifyFile overwrites an existing file with new content.
	KindModifyFile
	// KindCreateDir creates a directory and its parents.
	KindCreateDir
	// KindRunShell executes a shell command.
	KindRunShell
)

func (k Kind) String() string {
	switch k {
	case KindCreateFile:
		return "create"
	case KindModifyFile:
		return "modify"
	case KindCreateDir:
		return "mkdir"
	case KindRunShell:
		return "shell"
	}
	return "unknown"
}

// Directive is one structured instruction extracted from a model response.
// Directives are immutable once parsed; a new response always produces a
// fresh set.
type Directive struct {
	Kind    Kind
	Path    string // relative path; empty for KindRunShell
	Content string // file content; empty for KindCreateDir and KindRunShell
	Command string // shell command; set only for KindRunShell
}

func (d Directive) String() string {
	if d.Kind == KindRunShell {
		return fmt.Sprintf("%s: %s", d.Kind, d.Command)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Path)
}

// dangerousCommands are command names whose appearance in a proposed shell
// directive warrants an extra warning at the confirmation prompt. Execution
// is still allowed; the user decides.
var dangerousCommands = map[string]bool{
	"rm": true, "rmdir": true, "dd": true, "shred": true,
	"mkfs": true, "fdisk": true, "parted": true,
	"sudo": true, "su": true, "doas": true,
	"chmod": true, "chown": true,
	"kill": true, "killall": true, "pkill": true,
	"shutdown": true, "reboot": true, "halt": true, "poweroff": true,
}

// IsDangerous reports whether any simple command in the shell line starts
// with a name from the warning list. It looks at the first word of each
// segment split on common separators, which is deliberately rough: a false
// positive costs one extra warning, a false negative costs nothing because
// the confirmation prompt still gates execution.
func IsDangerous(command string) bool {
	for _, segment := range strings.FieldsFunc(command, func(r rune) bool {
		return r == ';' || r == '|' || r == '&'
	}) {
		fields := strings.Fields(segment)
		if len(fields) == 0 {
			continue
		}
		if dangerousCommands[fields[0]] {
			return true
		}
	}
	return false
}
