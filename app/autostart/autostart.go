// Package autostart registers the application to run at user login.
// Windows uses a shortcut in the Startup folder, macOS a LaunchAgent and other systems an XDG autostart entry.
package autostart

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	log "github.com/go-pkgz/lgr"
)

// Entry defines what to start at login
type Entry struct {
	Name        string   // display name, also used for file names
	Dir         string   // working directory
	Target      string   // program or script to run
	Args        []string // program arguments
	Icon        string   // optional icon path
	Description string
}

// Manager provides platform-specific autostart registration
type Manager interface {
	Enable(e Entry) error
	Disable() error
	IsEnabled() bool
	Path() string
}

// Commander runs external commands
type Commander interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// Params to make platform manager
type Params struct {
	GOOS    string
	Home    string    // user home directory
	AppData string    // %APPDATA% on windows
	Name    string    // entry name
	Label   string    // launchd label
	Runner  Commander // optional, used to (re)load launch agents on macOS
}

// New makes Manager for the platform
func New(p Params) Manager {
	switch p.GOOS {
	case "windows":
		return &StartupShortcut{
			Dir:  filepath.Join(p.AppData, "Microsoft", "Windows", "Start Menu", "Programs", "Startup"),
			Name: p.Name,
		}
	case "darwin":
		return &LaunchAgent{Dir: filepath.Join(p.Home, "Library", "LaunchAgents"), Label: p.Label, Runner: p.Runner}
	default:
		return &XDGAutostart{Dir: filepath.Join(p.Home, ".config", "autostart"), Name: p.Name}
	}
}

// StartupShortcut is a .lnk file in the user's Startup folder
type StartupShortcut struct {
	Dir  string
	Name string
}

// Path returns shortcut location
func (s *StartupShortcut) Path() string {
	return filepath.Join(s.Dir, s.Name+".lnk")
}

// Enable creates (or replaces) the shortcut
func (s *StartupShortcut) Enable(e Entry) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil { // nolint gosec
		return fmt.Errorf("can't make startup folder %s: %w", s.Dir, err)
	}
	if e.Icon != "" && !exists(e.Icon) {
		log.Printf("[WARN] icon %s not found, shortcut will use default icon", e.Icon)
		e.Icon = ""
	}
	if err := createShortcut(s.Path(), e); err != nil {
		return fmt.Errorf("can't create shortcut %s: %w", s.Path(), err)
	}
	log.Printf("[INFO] startup shortcut created %s", s.Path())
	return nil
}

// Disable removes the shortcut, missing shortcut is not an error
func (s *StartupShortcut) Disable() error {
	return remove(s.Path())
}

// IsEnabled checks if shortcut exists
func (s *StartupShortcut) IsEnabled() bool {
	return exists(s.Path())
}

// XDGAutostart is a desktop entry in ~/.config/autostart
type XDGAutostart struct {
	Dir  string
	Name string
}

var desktopTmpl = template.Must(template.New("desktop").Parse(`[Desktop Entry]
Type=Application
Name={{.Name}}
{{- if .Description}}
Comment={{.Description}}
{{- end}}
Exec={{.Exec}}
Path={{.Dir}}
{{- if .Icon}}
Icon={{.Icon}}
{{- end}}
Terminal=false
X-GNOME-Autostart-enabled=true
`))

// Path returns desktop entry location
func (x *XDGAutostart) Path() string {
	return filepath.Join(x.Dir, x.Name+".desktop")
}

// Enable writes the desktop entry
func (x *XDGAutostart) Enable(e Entry) error {
	if e.Icon != "" && !exists(e.Icon) {
		e.Icon = ""
	}
	data := struct {
		Entry
		Exec string
	}{Entry: e, Exec: desktopExec(append([]string{e.Target}, e.Args...))}
	if err := render(x.Path(), desktopTmpl, data); err != nil {
		return err
	}
	log.Printf("[INFO] autostart entry created %s", x.Path())
	return nil
}

// Disable removes the desktop entry
func (x *XDGAutostart) Disable() error {
	return remove(x.Path())
}

// IsEnabled checks if desktop entry exists
func (x *XDGAutostart) IsEnabled() bool {
	return exists(x.Path())
}

// desktopExec quotes Exec arguments following the freedesktop Exec key rules
func desktopExec(args []string) string {
	res := make([]string, 0, len(args))
	for _, a := range args {
		if a != "" && !strings.ContainsAny(a, " \t\n\"'\\><~|&;$*?#()`") {
			res = append(res, a)
			continue
		}
		r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)
		res = append(res, `"`+r.Replace(a)+`"`)
	}
	return strings.Join(res, " ")
}

func render(path string, tmpl *template.Template, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { // nolint gosec
		return fmt.Errorf("can't make directory for %s: %w", path, err)
	}
	fh, err := os.Create(path) // nolint gosec
	if err != nil {
		return fmt.Errorf("can't create %s: %w", path, err)
	}
	if err := tmpl.Execute(fh, data); err != nil {
		_ = fh.Close()
		return fmt.Errorf("can't write %s: %w", path, err)
	}
	return fh.Close()
}

func remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("can't remove %s: %w", path, err)
	}
	log.Printf("[INFO] autostart removed %s", path)
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
