//go:build windows

package processor

import (
	"os/exec"
	"syscall"
)

const (
	createNewProcessGroup = 0x00000200
	detachedProcess       = 0x00000008
)

func shellCommand() (string, string) {
	return "cmd", "/C"
}

// detach puts the command in its own process group so it survives the
// assistant's exit and does not receive its console signals.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: createNewProcessGroup | detachedProcess,
	}
}
