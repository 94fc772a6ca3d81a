// Package python finds or installs a Python 3 interpreter and provisions the application virtual environment.
package python

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	log "github.com/go-pkgz/lgr"
)

// ErrNoInterpreter returned when no usable interpreter found and all installation attempts failed
var ErrNoInterpreter = errors.New("python 3 not found and could not be installed automatically, " +
	"install it from https://www.python.org/downloads/ (check \"Add python to PATH\") and re-run the installer")

// preferred minor versions, in order of preference
var minorVersions = []string{"3.11", "3.12", "3.10"}

var reVersion = regexp.MustCompile(`Python\s+(3(?:\.\d+)+)`)

// Commander runs external commands
type Commander interface {
	Run(ctx context.Context, dir, name string, args ...string) error
	Output(ctx context.Context, dir, name string, args ...string) (string, error)
}

// Interpreter is a way to invoke python, i.e. "py -3.11" or "python3.11"
type Interpreter struct {
	Path    string
	Args    []string
	Version string
}

// Command returns executable and arguments to run python with args
func (i Interpreter) Command(args ...string) (string, []string) {
	res := make([]string, 0, len(i.Args)+len(args))
	res = append(res, i.Args...)
	return i.Path, append(res, args...)
}

func (i Interpreter) String() string {
	res := strings.TrimSpace(i.Path + " " + strings.Join(i.Args, " "))
	if i.Version != "" {
		res += " (" + i.Version + ")"
	}
	return res
}

// Candidates returns interpreters to try on the platform, in preference order 3.11, 3.12, 3.10, 3
func Candidates(goos string) []Interpreter {
	res := []Interpreter{}
	if goos == "windows" {
		for _, v := range minorVersions {
			res = append(res, Interpreter{Path: "py", Args: []string{"-" + v}})
		}
		return append(res, Interpreter{Path: "py", Args: []string{"-3"}}, Interpreter{Path: "python"})
	}
	for _, v := range minorVersions {
		res = append(res, Interpreter{Path: "python" + v})
	}
	return append(res, Interpreter{Path: "python3"})
}

// Discover returns the first candidate reporting a python 3 version
func Discover(ctx context.Context, cmd Commander, candidates []Interpreter) (Interpreter, error) {
	for _, c := range candidates {
		name, args := c.Command("--version")
		out, err := cmd.Output(ctx, "", name, args...)
		if err != nil {
			log.Printf("[DEBUG] %s not available, %v", c, err)
			continue
		}
		m := reVersion.FindStringSubmatch(out)
		if len(m) < 2 {
			log.Printf("[DEBUG] %s reported unexpected version %q", c, out)
			continue
		}
		c.Version = m[1]
		log.Printf("[INFO] found python %s", c)
		return c, nil
	}
	return Interpreter{}, ErrNoInterpreter
}

// Venv describes the virtual environment of the application
type Venv struct {
	Dir     string
	Python  string // console interpreter
	PythonW string // windowless interpreter, windows only
}

// NewVenv makes Venv for install dir
func NewVenv(installDir, goos string) Venv {
	dir := filepath.Join(installDir, "venv")
	if goos == "windows" {
		return Venv{
			Dir:     dir,
			Python:  filepath.Join(dir, "Scripts", "python.exe"),
			PythonW: filepath.Join(dir, "Scripts", "pythonw.exe"),
		}
	}
	py := filepath.Join(dir, "bin", "python")
	return Venv{Dir: dir, Python: py, PythonW: py}
}

// Exists checks if venv interpreter is in place
func (v Venv) Exists() bool {
	_, err := os.Stat(v.Python)
	return err == nil
}

// needsPlaywright checks if requirements file lists playwright
func needsPlaywright(requirements string) bool {
	data, err := os.ReadFile(requirements) // nolint gosec
	if err != nil {
		return false
	}
	for line := range strings.SplitSeq(string(data), "\n") {
		line = strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(line, "#") {
			continue
		}
		name := line
		if idx := strings.IndexAny(line, "=<>~![; "); idx >= 0 {
			name = line[:idx]
		}
		if name == "playwright" {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
