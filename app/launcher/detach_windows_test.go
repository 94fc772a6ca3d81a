//go:build windows

package launcher

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

func TestDetach(t *testing.T) {
	tbl := []struct {
		name  string
		path  string
		hide  bool
		flags uint32
	}{
		{"visible console", `C:\app\venv\Scripts\python.exe`, false, windows.CREATE_NEW_PROCESS_GROUP | windows.CREATE_NEW_CONSOLE},
		{"hidden python", `C:\app\venv\Scripts\Python.exe`, true, windows.CREATE_NEW_PROCESS_GROUP | windows.CREATE_NO_WINDOW},
		{"hidden pythonw", `C:\app\venv\Scripts\pythonw.exe`, true, windows.CREATE_NEW_PROCESS_GROUP | windows.DETACHED_PROCESS},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &exec.Cmd{Path: tt.path}
			detach(cmd, tt.hide)
			require.NotNil(t, cmd.SysProcAttr)
			assert.Equal(t, tt.flags, cmd.SysProcAttr.CreationFlags)
			assert.Equal(t, tt.hide, cmd.SysProcAttr.HideWindow)
		})
	}
}
