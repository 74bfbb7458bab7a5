//go:build !windows

package processor

import (
	"os/exec"
	"syscall"
)

func shellCommand() (string, string) {
	return "sh", "-c"
}

// detach puts the command in its own process group so it survives the
// assistant's exit and does not receive its terminal signals.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
