// Package launcher makes launcher scripts for the application and starts it as a detached process.
package launcher

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/autoinst/app/prefs"
	"github.com/umputun/autoinst/app/python"
)

// EntryScript is the application main script in install directory
const EntryScript = "twitch_drop_automator.py"

const batBody = `@echo off
cd /d "%~dp0"
if exist "venv\Scripts\pythonw.exe" (
    start "" "venv\Scripts\pythonw.exe" twitch_drop_automator.py
) else (
    "venv\Scripts\python.exe" twitch_drop_automator.py
)
`

const shBody = `#!/usr/bin/env bash
cd "$(dirname "$0")" || exit 1
exec ./venv/bin/python twitch_drop_automator.py "$@"
`

// Launcher starts the application installed in Dir
type Launcher struct {
	Dir  string
	GOOS string
}

// ScriptPath returns the launcher script location, run_automator.bat on windows and run_automator.sh elsewhere
func (l Launcher) ScriptPath() string {
	if l.GOOS == "windows" {
		return filepath.Join(l.Dir, "run_automator.bat")
	}
	return filepath.Join(l.Dir, "run_automator.sh")
}

// EnsureScript writes the fallback launcher script if the archive didn't provide one.
// Existing script is never overwritten, but made executable on unix.
func (l Launcher) EnsureScript() (path string, created bool, err error) {
	path = l.ScriptPath()
	body, mode := shBody, os.FileMode(0o755)
	if l.GOOS == "windows" {
		body, mode = batBody, 0o644
	}

	if _, err = os.Stat(path); err == nil {
		if l.GOOS != "windows" {
			if err = os.Chmod(path, mode); err != nil { // nolint gosec
				return path, false, fmt.Errorf("can't make %s executable: %w", path, err)
			}
		}
		return path, false, nil
	}

	log.Printf("[INFO] %s not found, create default one", filepath.Base(path))
	if err = os.WriteFile(path, []byte(body), mode); err != nil { // nolint gosec
		return path, false, fmt.Errorf("can't write %s: %w", path, err)
	}
	return path, true, nil
}

// Interpreter picks venv interpreter. On windows pythonw.exe is used if console should be hidden.
func (l Launcher) Interpreter(p prefs.Preferences) string {
	venv := python.NewVenv(l.Dir, l.GOOS)
	if l.GOOS == "windows" && p.HideConsole {
		if _, err := os.Stat(venv.PythonW); err == nil {
			return venv.PythonW
		}
	}
	return venv.Python
}

// Start runs the application detached from the installer and returns its pid.
// The process is not supervised, its exit status is never collected.
func (l Launcher) Start() (int, error) {
	dir, err := filepath.Abs(l.Dir)
	if err != nil {
		return 0, fmt.Errorf("can't resolve install directory: %w", err)
	}
	l.Dir = dir
	entry := filepath.Join(l.Dir, EntryScript)
	if _, err := os.Stat(entry); err != nil {
		return 0, fmt.Errorf("application entry %s not found: %w", entry, err)
	}
	p := prefs.Load(filepath.Join(l.Dir, prefs.FileName))
	interp := l.Interpreter(p)

	cmd := exec.Command(interp, EntryScript) // nolint gosec
	cmd.Dir = l.Dir
	detach(cmd, p.HideConsole)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("can't start %s: %w", interp, err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		log.Printf("[DEBUG] can't release process %d, %v", pid, err)
	}
	log.Printf("[INFO] started %s %s, pid %d", interp, EntryScript, pid)
	return pid, nil
}
