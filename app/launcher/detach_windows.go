//go:build windows

package launcher

import (
	"os/exec"
	"strings"
	"syscall"

	"golang.org/x/sys/windows"
)

// detach starts the process in its own process group. Visible console gets a new console window,
// hidden python.exe a console without window and pythonw.exe no console at all.
func detach(cmd *exec.Cmd, hide bool) {
	flags := uint32(windows.CREATE_NEW_PROCESS_GROUP)
	switch {
	case !hide:
		flags |= windows.CREATE_NEW_CONSOLE
	case strings.HasSuffix(strings.ToLower(cmd.Path), "python.exe"):
		flags |= windows.CREATE_NO_WINDOW
	default:
		flags |= windows.DETACHED_PROCESS
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: flags, HideWindow: hide}
}
