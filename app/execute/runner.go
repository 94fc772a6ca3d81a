// Package execute runs external commands (package managers, python, pip) on behalf of the installer.
// Output of each command is streamed to the configured writer with a short command prefix and the
// tail of it is kept to be reported if the command fails.
package execute

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	log "github.com/go-pkgz/lgr"
)

const defaultMaxLogLines = 20

// Runner executes commands synchronously. Zero value is usable and discards the output.
type Runner struct {
	Stdout      io.Writer // destination for command output, nil to discard
	MaxLogLines int       // number of output lines kept for error reports
	Env         []string  // extra environment variables, KEY=VALUE
}

// Run executes the command in dir and waits for completion.
// The error contains the last lines of the command output.
func (r *Runner) Run(ctx context.Context, dir, name string, args ...string) error {
	desc := Describe(name, args...)
	capture := newTail(r.maxLogLines())

	writers := []io.Writer{capture}
	if r.Stdout != nil {
		writers = append(writers, newPrefixWriter(r.Stdout, desc))
	}
	out := io.MultiWriter(writers...)

	cmd := exec.CommandContext(ctx, name, args...) // nolint gosec
	cmd.Dir = dir
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.Env = r.environ()

	log.Printf("[DEBUG] executing %s in %q", desc, dir)
	if err := cmd.Run(); err != nil {
		if lines := capture.String(); lines != "" {
			return fmt.Errorf("failed to execute %s: %w\n\n%s", desc, err, lines)
		}
		return fmt.Errorf("failed to execute %s: %w", desc, err)
	}
	return nil
}

// Output executes the command and returns its combined output, trimmed.
// Used for short checks like "python --version".
func (r *Runner) Output(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) // nolint gosec
	cmd.Dir = dir
	cmd.Env = r.environ()
	out, err := cmd.CombinedOutput()
	res := strings.TrimSpace(string(out))
	if err != nil {
		return res, fmt.Errorf("failed to execute %s: %w", Describe(name, args...), err)
	}
	return res, nil
}

func (r *Runner) environ() []string {
	if len(r.Env) == 0 {
		return nil // inherit
	}
	return append(os.Environ(), r.Env...)
}

func (r *Runner) maxLogLines() int {
	if r.MaxLogLines <= 0 {
		return defaultMaxLogLines
	}
	return r.MaxLogLines
}

// Describe makes a short human-readable form of the command, with the base name of the executable
func Describe(name string, args ...string) string {
	elems := append([]string{filepath.Base(name)}, args...)
	return strings.Join(elems, " ")
}
