// Package installer provides the top level installation flow. It combines archive download, python provisioning,
// launcher scripts, autostart registration and the final detached launch of the application.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/syncs"

	"github.com/umputun/autoinst/app/archive"
	"github.com/umputun/autoinst/app/autostart"
	"github.com/umputun/autoinst/app/history"
	"github.com/umputun/autoinst/app/launcher"
	"github.com/umputun/autoinst/app/notify"
	"github.com/umputun/autoinst/app/prefs"
	"github.com/umputun/autoinst/app/python"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher
//go:generate moq -out mocks/provisioner.go -pkg mocks -skip-ensure -fmt goimports . Provisioner
//go:generate moq -out mocks/autostart.go -pkg mocks -skip-ensure -fmt goimports . Autostart
//go:generate moq -out mocks/launcher.go -pkg mocks -skip-ensure -fmt goimports . Launcher
//go:generate moq -out mocks/preflight.go -pkg mocks -skip-ensure -fmt goimports . Preflight
//go:generate moq -out mocks/journal.go -pkg mocks -skip-ensure -fmt goimports . Journal
//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier

// DefaultKeep lists user-owned entries of install directory never overwritten by the archive content
var DefaultKeep = []string{prefs.FileName, "venv", "user_data_stealth", history.Dir}

// Installer is a top-level service wiring all installation steps together
type Installer struct {
	Dir      string // install directory
	URL      string // archive url
	Version  string // installer version, recorded in journal
	Name     string // application name for autostart entry
	Login    bool   // register autostart
	NoLaunch bool
	Quiet    bool
	Keep     []string
	TempDir  string
	Prefs    struct {
		Headless    *bool
		HideConsole *bool
	}
	Stdout io.Writer // banner output

	Fetcher     Fetcher
	Provisioner Provisioner
	Autostart   Autostart
	Launcher    Launcher
	Preflight   Preflight
	Journal     Journal
	Notifier    Notifier
}

// Fetcher downloads the application archive
type Fetcher interface {
	Download(ctx context.Context, url, dst string) error
}

// Provisioner finds or installs python and sets up the venv
type Provisioner interface {
	Ensure(ctx context.Context) (python.Interpreter, error)
	Setup(ctx context.Context, interp python.Interpreter, installDir string, recreate bool) error
}

// Autostart registers the application to start at login
type Autostart interface {
	Enable(e autostart.Entry) error
	Path() string
}

// Launcher makes launcher script and starts the application
type Launcher interface {
	EnsureScript() (path string, created bool, err error)
	Start() (int, error)
}

// Preflight checks host before installation
type Preflight interface {
	DiskFree(path string) (uint64, error)
	FindRunning(ctx context.Context, installDir, script string) ([]int32, error)
}

// Journal records installer runs
type Journal interface {
	Start(ctx context.Context, version, source string) (int64, error)
	Finish(ctx context.Context, runID int64, runErr error) error
	Interrupted(ctx context.Context, except int64) ([]history.Run, error)
}

// Notifier delivers installation report
type Notifier interface {
	Send(ctx context.Context, r notify.Report) error
}

// Result of successful installation
type Result struct {
	Python    python.Interpreter
	Files     int // number of files placed from the archive
	Script    string
	Autostart string
	PID       int
}

// Do runs the installation. Required steps abort it, optional steps only log a warning.
func (i *Installer) Do(ctx context.Context) (res Result, err error) {
	if i.Stdout == nil {
		i.Stdout = os.Stdout
	}
	if i.Keep == nil {
		i.Keep = DefaultKeep
	}
	if i.Dir, err = filepath.Abs(i.Dir); err != nil {
		return res, fmt.Errorf("can't resolve install directory: %w", err)
	}

	if err = os.MkdirAll(i.Dir, 0o750); err != nil {
		return res, fmt.Errorf("can't make install directory %s: %w", i.Dir, err)
	}

	runID, recreate := i.journalStart(ctx)
	defer func() {
		i.report(ctx, runID, res, err)
	}()

	if err = i.preflight(ctx); err != nil {
		return res, err
	}

	tmp, err := os.MkdirTemp(i.TempDir, "autoinst-")
	if err != nil {
		return res, fmt.Errorf("can't make temp directory: %w", err)
	}
	defer func() {
		if e := os.RemoveAll(tmp); e != nil {
			log.Printf("[WARN] can't remove %s, %v", tmp, e)
		}
	}()

	srcDir, interp, err := i.prepare(ctx, tmp)
	if err != nil {
		return res, err
	}
	res.Python = interp

	if res.Files, err = archive.Place(srcDir, i.Dir, i.Keep); err != nil {
		return res, fmt.Errorf("can't place application files: %w", err)
	}
	log.Printf("[INFO] placed %d files to %s", res.Files, i.Dir)
	if _, e := os.Stat(filepath.Join(i.Dir, launcher.EntryScript)); e != nil {
		log.Printf("[WARN] %s not found in the archive", launcher.EntryScript)
	}

	i.presetPrefs()

	if res.Script, _, err = i.Launcher.EnsureScript(); err != nil {
		return res, fmt.Errorf("can't make launcher script: %w", err)
	}

	if err = i.Provisioner.Setup(ctx, interp, i.Dir, recreate); err != nil {
		return res, fmt.Errorf("can't set up python environment: %w", err)
	}

	if i.Login {
		res.Autostart = i.registerAutostart(res.Script)
	}

	if i.NoLaunch {
		i.banner("installed to %s, launch with %s\n", i.Dir, res.Script)
		return res, nil
	}
	if res.PID, err = i.Launcher.Start(); err != nil {
		return res, fmt.Errorf("installed, but can't launch the application: %w", err)
	}
	i.banner("installed to %s, application started (pid %d)\n", i.Dir, res.PID)
	return res, nil
}

func (i *Installer) preflight(ctx context.Context) error {
	if isNil(i.Preflight) {
		return nil
	}
	free, err := i.Preflight.DiskFree(i.Dir)
	if err != nil {
		return fmt.Errorf("preflight failed: %w", err)
	}
	if free > 0 {
		log.Printf("[DEBUG] %dMB free for %s", free, i.Dir)
	}
	pids, err := i.Preflight.FindRunning(ctx, i.Dir, launcher.EntryScript)
	if err != nil {
		log.Printf("[DEBUG] can't check running instances, %v", err)
		return nil
	}
	if len(pids) > 0 {
		log.Printf("[WARN] application is running from %s (pids %v), some files may be locked", i.Dir, pids)
	}
	return nil
}

// prepare downloads and extracts the archive while looking for python in parallel
func (i *Installer) prepare(ctx context.Context, tmp string) (srcDir string, interp python.Interpreter, err error) {
	srcDir = filepath.Join(tmp, "src")
	var dlErr, pyErr error

	grp := syncs.NewErrSizedGroup(2, syncs.Context(ctx), syncs.TermOnErr)
	grp.Go(func(ctx context.Context) error {
		dlErr = i.fetch(ctx, filepath.Join(tmp, "app.zip"), srcDir)
		return dlErr
	})
	grp.Go(func(ctx context.Context) error {
		interp, pyErr = i.Provisioner.Ensure(ctx)
		if pyErr != nil {
			return fmt.Errorf("can't get python: %w", pyErr)
		}
		log.Printf("[INFO] using python %s", interp)
		return nil
	})
	if err := grp.Wait(); err != nil {
		switch {
		case dlErr != nil && !errors.Is(dlErr, context.Canceled):
			return "", interp, dlErr
		case pyErr != nil:
			return "", interp, fmt.Errorf("can't get python: %w", pyErr)
		default:
			return "", interp, err
		}
	}
	return srcDir, interp, nil
}

func (i *Installer) fetch(ctx context.Context, zipFile, dest string) error {
	log.Printf("[INFO] download %s", i.URL)
	if err := i.Fetcher.Download(ctx, i.URL, zipFile); err != nil {
		return fmt.Errorf("can't download %s: %w", i.URL, err)
	}
	files, err := archive.Extract(zipFile, dest)
	if err != nil {
		return fmt.Errorf("can't extract archive: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("archive %s is empty", i.URL)
	}
	log.Printf("[DEBUG] extracted %d files", len(files))
	return nil
}

func (i *Installer) presetPrefs() {
	if i.Prefs.Headless == nil && i.Prefs.HideConsole == nil {
		return
	}
	path := filepath.Join(i.Dir, prefs.FileName)
	p := prefs.Load(path)
	for key, val := range map[string]*bool{"headless": i.Prefs.Headless, "hide_console": i.Prefs.HideConsole} {
		if val == nil {
			continue
		}
		if err := p.Set(key, *val); err != nil {
			log.Printf("[WARN] can't preset %s, %v", key, err)
		}
	}
	if err := prefs.Save(path, p); err != nil {
		log.Printf("[WARN] can't preset preferences, %v", err)
		return
	}
	log.Printf("[INFO] preferences set, headless=%v, hide_console=%v", p.Headless, p.HideConsole)
}

func (i *Installer) registerAutostart(script string) string {
	if isNil(i.Autostart) {
		log.Printf("[WARN] autostart is not supported on this system")
		return ""
	}
	entry := autostart.Entry{
		Name:        i.Name,
		Dir:         i.Dir,
		Target:      script,
		Icon:        filepath.Join(i.Dir, "tray.ico"),
		Description: i.Name + " autostart",
	}
	if err := i.Autostart.Enable(entry); err != nil {
		log.Printf("[WARN] can't register autostart, %v", err)
		return ""
	}
	log.Printf("[INFO] autostart registered, %s", i.Autostart.Path())
	return i.Autostart.Path()
}

// journalStart records run start and reports if a previous run was interrupted
func (i *Installer) journalStart(ctx context.Context) (id int64, interrupted bool) {
	if isNil(i.Journal) {
		return 0, false
	}
	id, err := i.Journal.Start(ctx, i.Version, i.URL)
	if err != nil {
		log.Printf("[WARN] %v", err)
		return 0, false
	}
	runs, err := i.Journal.Interrupted(ctx, id)
	if err != nil {
		log.Printf("[WARN] %v", err)
		return id, false
	}
	if len(runs) > 0 {
		log.Printf("[INFO] previous installation started %s was interrupted, venv will be recreated",
			runs[len(runs)-1].StartedAt.Format("2006-01-02 15:04:05"))
		for _, r := range runs {
			if err := i.Journal.Finish(ctx, r.ID, errors.New("interrupted")); err != nil {
				log.Printf("[WARN] %v", err)
			}
		}
		return id, true
	}
	return id, false
}

// report finishes journal record and sends notification, both are best effort
func (i *Installer) report(ctx context.Context, runID int64, res Result, runErr error) {
	ctx = context.WithoutCancel(ctx)
	if !isNil(i.Journal) && runID > 0 {
		if err := i.Journal.Finish(ctx, runID, runErr); err != nil {
			log.Printf("[WARN] %v", err)
		}
	}
	if isNil(i.Notifier) {
		return
	}
	r := notify.Report{Source: i.URL, Dir: i.Dir, Version: i.Version, Err: runErr}
	if res.Python.Path != "" {
		r.Python = res.Python.String()
	}
	if err := i.Notifier.Send(ctx, r); err != nil {
		log.Printf("[WARN] can't send notification, %v", err)
	}
}

func (i *Installer) banner(format string, args ...any) {
	if i.Quiet {
		return
	}
	_, _ = fmt.Fprintf(i.Stdout, format, args...)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
