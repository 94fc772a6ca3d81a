//go:build !windows

package launcher

import (
	"os/exec"
	"syscall"
)

// detach starts the process in its own session, so it survives the installer terminal
func detach(cmd *exec.Cmd, _ bool) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
