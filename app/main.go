package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/autoinst/app/archive"
	"github.com/umputun/autoinst/app/autostart"
	"github.com/umputun/autoinst/app/config"
	"github.com/umputun/autoinst/app/execute"
	"github.com/umputun/autoinst/app/history"
	"github.com/umputun/autoinst/app/installer"
	"github.com/umputun/autoinst/app/launcher"
	"github.com/umputun/autoinst/app/notify"
	"github.com/umputun/autoinst/app/preflight"
	"github.com/umputun/autoinst/app/python"
	"github.com/umputun/autoinst/app/selfupdate"
)

// installerVersion is compared with the remote installer_version marker on self-update
const installerVersion = "1.4.0"

const (
	appName     = "TwitchDropAutomator"
	appLabel    = "dev.arcticfox.twitchdropautomator"
	defaultRepo = "ArcticFox-dev/twitch-drop-automator"
)

type options struct {
	Repo           string `short:"r" long:"repo" env:"AUTOINST_REPO" description:"github repository, owner/name (default: ArcticFox-dev/twitch-drop-automator)"`
	Branch         string `short:"b" long:"branch" env:"AUTOINST_BRANCH" description:"branch to download (default: main)"`
	ZipURL         string `short:"z" long:"zip-url" env:"AUTOINST_ZIP_URL" description:"archive url, overrides repo and branch"`
	Dir            string `short:"d" long:"dir" env:"AUTOINST_DIR" description:"install directory"`
	Quiet          bool   `short:"q" long:"quiet" env:"AUTOINST_QUIET" description:"no command output on console and no launch banner"`
	Login          bool   `short:"l" long:"login" env:"AUTOINST_LOGIN" description:"start the application at login"`
	SkipSelfUpdate bool   `long:"skip-self-update" env:"AUTOINST_SKIP_SELF_UPDATE" description:"don't check for a newer installer"`
	NoLaunch       bool   `long:"no-launch" env:"AUTOINST_NO_LAUNCH" description:"don't start the application after install"`
	Unregister     bool   `long:"unregister" description:"remove autostart entry and exit"`
	History        int    `long:"history" description:"show last N installer runs and exit"`
	Config         string `long:"config" env:"AUTOINST_CONFIG" description:"yaml file with defaults"`
	ConfigSchema   bool   `long:"config-schema" description:"print json schema of the config file and exit"`
	MinFree        uint64 `long:"min-free" env:"AUTOINST_MIN_FREE" description:"required free disk space in MB (default: 500)"`
	Dbg            bool   `long:"dbg" env:"DEBUG" description:"debug mode"`

	SelfUpdate struct {
		URL    string `long:"url" env:"URL" description:"remote installer with version marker"`
		Binary string `long:"binary" env:"BINARY" description:"newer installer binary url, {os}, {arch} and {ext} substituted"`
	} `group:"self-update" namespace:"self-update" env-namespace:"AUTOINST_SELF_UPDATE"`

	Python struct {
		Version  string `long:"version" env:"VERSION" description:"python version to install if missing (default: 3.11.9)"`
		Browsers string `long:"browsers" env:"BROWSERS" description:"comma-separated playwright browsers, none to skip (default: chromium)"`
	} `group:"python" namespace:"python" env-namespace:"AUTOINST_PYTHON"`

	Retry struct {
		Attempts int           `long:"attempts" env:"ATTEMPTS" default:"3" description:"download attempts"`
		Duration time.Duration `long:"duration" env:"DURATION" default:"1s" description:"initial retry delay"`
		Factor   float64       `long:"factor" env:"FACTOR" default:"2" description:"backoff factor"`
		Timeout  time.Duration `long:"timeout" env:"TIMEOUT" default:"5m" description:"single download timeout"`
	} `group:"retry" namespace:"retry" env-namespace:"AUTOINST_RETRY"`

	Notify struct {
		Webhook string        `long:"webhook" env:"WEBHOOK" description:"webhook url for install reports"`
		Headers []string      `long:"header" env:"HEADERS" env-delim:"," description:"webhook header, key:value"`
		Timeout time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"webhook timeout"`
	} `group:"notify" namespace:"notify" env-namespace:"AUTOINST_NOTIFY"`

	Prefs struct {
		Headless    string `long:"headless" choice:"true" choice:"false" description:"preset headless preference"`
		HideConsole string `long:"hide-console" choice:"true" choice:"false" description:"preset hide_console preference"`
	} `group:"prefs" namespace:"prefs"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging to file"`
		Filename        string `long:"filename" env:"FILENAME" description:"log file name (default: <dir>/.autoinst/autoinst.log)"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"10" description:"max log file size in MB"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"3" description:"max number of rotated files"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"30" description:"max age of rotated files, days"`
		EnabledCompress bool   `long:"compress" env:"COMPRESS" description:"compress rotated files"`
	} `group:"log" namespace:"log" env-namespace:"AUTOINST_LOG"`
}

var opts options

var revision = "unknown"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	p := flags.NewParser(&opts, flags.Default)
	if _, err := p.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		return 2
	}
	if opts.ConfigSchema {
		return printSchema(os.Stdout)
	}
	if opts.Config != "" {
		if err := applyConfig(opts.Config); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 2
		}
	}
	applyDefaults()

	logOut := setupLogs()
	if closer, ok := logOut.(io.Closer); ok {
		defer closer.Close()
	}
	log.Printf("[INFO] autoinst %s (%s)", installerVersion, revision)

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals(cancel)

	switch {
	case opts.History > 0:
		return showHistory(ctx, os.Stdout, opts.Dir, opts.History)
	case opts.Unregister:
		return unregister(makeAutostart(nil))
	}

	fetcher := makeFetcher()
	if !opts.SkipSelfUpdate {
		if code, updated := selfUpdate(ctx, fetcher, args); updated {
			return code
		}
	}

	childOut := logOut
	if opts.Quiet && logOut == os.Stdout {
		childOut = io.Discard
	}
	inst, closeFn := makeInstaller(ctx, fetcher, childOut)
	defer closeFn()

	if _, err := inst.Do(ctx); err != nil {
		log.Printf("[ERROR] installation failed, %v", err)
		if errors.Is(err, python.ErrNoInterpreter) && !opts.Quiet {
			fmt.Fprintln(os.Stderr, python.ErrNoInterpreter.Error())
		}
		return 1
	}
	return 0
}

// selfUpdate checks the remote installer version and runs the newer installer if available.
// Errors are not fatal, current installer continues in this case.
func selfUpdate(ctx context.Context, getter selfupdate.Getter, args []string) (code int, updated bool) {
	upd := selfupdate.Updater{URL: opts.SelfUpdate.URL, BinaryURL: opts.SelfUpdate.Binary, Current: installerVersion,
		Getter: getter, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
	remote, newer, err := upd.Check(ctx)
	if err != nil {
		log.Printf("[DEBUG] self-update check skipped, %v", err)
		return 0, false
	}
	if !newer {
		log.Printf("[DEBUG] installer is up to date, local %s, remote %s", installerVersion, remote)
		return 0, false
	}
	if opts.SelfUpdate.Binary == "" {
		log.Printf("[INFO] newer installer %s available, current %s", remote, installerVersion)
		return 0, false
	}
	log.Printf("[INFO] updating installer %s -> %s", installerVersion, remote)
	code, err = upd.Apply(ctx, runtime.GOOS, runtime.GOARCH, args)
	if err != nil {
		log.Printf("[DEBUG] self-update failed, continue with current installer, %v", err)
		return 0, false
	}
	return code, true
}

func makeFetcher() *archive.Fetcher {
	rptr := repeater.New(&strategy.Backoff{Repeats: opts.Retry.Attempts, Duration: opts.Retry.Duration,
		Factor: opts.Retry.Factor, Jitter: true})
	return &archive.Fetcher{
		Client:    &http.Client{Timeout: opts.Retry.Timeout},
		Repeater:  rptr,
		UserAgent: "autoinst/" + installerVersion,
	}
}

// makeInstaller wires installer with its dependencies, returned func closes the journal
func makeInstaller(ctx context.Context, fetcher *archive.Fetcher, childOut io.Writer) (*installer.Installer, func()) {
	runner := &execute.Runner{Stdout: childOut, MaxLogLines: 20}
	inst := &installer.Installer{
		Dir:      opts.Dir,
		URL:      archive.URL(opts.Repo, opts.Branch, opts.ZipURL),
		Version:  installerVersion,
		Name:     appName,
		Login:    opts.Login,
		NoLaunch: opts.NoLaunch,
		Quiet:    opts.Quiet,
		Stdout:   os.Stdout,
		Fetcher:  fetcher,
		Provisioner: &python.Provisioner{
			Runner:       runner,
			Downloader:   fetcher,
			GOOS:         runtime.GOOS,
			GOARCH:       runtime.GOARCH,
			Version:      opts.Python.Version,
			Browsers:     browsers(opts.Python.Browsers),
			LocalAppData: os.Getenv("LOCALAPPDATA"),
		},
		Launcher:  launcher.Launcher{Dir: opts.Dir, GOOS: runtime.GOOS},
		Preflight: preflight.Checker{MinFreeMB: opts.MinFree},
	}
	inst.Prefs.Headless = parseBool(opts.Prefs.Headless)
	inst.Prefs.HideConsole = parseBool(opts.Prefs.HideConsole)
	if opts.Login {
		inst.Autostart = makeAutostart(runner)
	}
	if svc := notify.NewService(notify.Params{Webhook: opts.Notify.Webhook, Headers: opts.Notify.Headers,
		Timeout: opts.Notify.Timeout}); svc != nil {
		inst.Notifier = svc
	}

	closeFn := func() {}
	journal, err := history.Open(ctx, history.Path(opts.Dir))
	if err != nil {
		log.Printf("[WARN] install history disabled, %v", err)
		return inst, closeFn
	}
	inst.Journal = journal
	return inst, func() {
		if err := journal.Close(); err != nil {
			log.Printf("[WARN] can't close history, %v", err)
		}
	}
}

func makeAutostart(runner autostart.Commander) autostart.Manager {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("[WARN] can't get home directory, %v", err)
	}
	return autostart.New(autostart.Params{
		GOOS:    runtime.GOOS,
		Home:    home,
		AppData: os.Getenv("APPDATA"),
		Name:    appName,
		Label:   appLabel,
		Runner:  runner,
	})
}

func unregister(m autostart.Manager) int {
	if !m.IsEnabled() {
		log.Printf("[INFO] no autostart entry at %s", m.Path())
		return 0
	}
	if err := m.Disable(); err != nil {
		log.Printf("[ERROR] can't remove autostart, %v", err)
		return 1
	}
	log.Printf("[INFO] autostart removed, %s", m.Path())
	return 0
}

func showHistory(ctx context.Context, w io.Writer, dir string, n int) int {
	dbPath := history.Path(dir)
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Fprintf(w, "no install history in %s\n", dir)
		return 0
	}
	journal, err := history.Open(ctx, dbPath)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return 1
	}
	defer journal.Close()

	runs, err := journal.Recent(ctx, n)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return 1
	}
	for _, r := range runs {
		took := "-"
		if !r.FinishedAt.IsZero() {
			took = r.FinishedAt.Sub(r.StartedAt).String()
		}
		line := fmt.Sprintf("%4d  %s  %-7s  %-6s  %-8s  %s", r.ID, r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Status, took, r.Version, r.Source)
		if r.Error != "" {
			line += "  error: " + r.Error
		}
		fmt.Fprintln(w, line)
	}
	return 0
}

func printSchema(w io.Writer) int {
	data, err := config.Schema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	fmt.Fprintln(w, string(data))
	return 0
}

func applyConfig(path string) error {
	f, err := config.Load(path)
	if err != nil {
		return err
	}
	cli := config.File{Repo: opts.Repo, Branch: opts.Branch, ZipURL: opts.ZipURL, Dir: opts.Dir,
		Login: opts.Login, NoLaunch: opts.NoLaunch, Quiet: opts.Quiet, MinFree: opts.MinFree}
	cli.SelfUpdate.URL, cli.SelfUpdate.Binary, cli.SelfUpdate.Skip = opts.SelfUpdate.URL, opts.SelfUpdate.Binary, opts.SkipSelfUpdate
	cli.Python.Version, cli.Python.Browsers = opts.Python.Version, opts.Python.Browsers
	cli.Notify.Webhook, cli.Notify.Headers = opts.Notify.Webhook, opts.Notify.Headers
	cli.Prefs.Headless, cli.Prefs.HideConsole = parseBool(opts.Prefs.Headless), parseBool(opts.Prefs.HideConsole)

	f.Apply(&cli)

	opts.Repo, opts.Branch, opts.ZipURL, opts.Dir = cli.Repo, cli.Branch, cli.ZipURL, cli.Dir
	opts.Login, opts.NoLaunch, opts.Quiet, opts.MinFree = cli.Login, cli.NoLaunch, cli.Quiet, cli.MinFree
	opts.SelfUpdate.URL, opts.SelfUpdate.Binary, opts.SkipSelfUpdate = cli.SelfUpdate.URL, cli.SelfUpdate.Binary, cli.SelfUpdate.Skip
	opts.Python.Version, opts.Python.Browsers = cli.Python.Version, cli.Python.Browsers
	opts.Notify.Webhook, opts.Notify.Headers = cli.Notify.Webhook, cli.Notify.Headers
	opts.Prefs.Headless, opts.Prefs.HideConsole = formatBool(cli.Prefs.Headless), formatBool(cli.Prefs.HideConsole)
	return nil
}

func applyDefaults() {
	setDefault := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	setDefault(&opts.Repo, defaultRepo)
	setDefault(&opts.Branch, "main")
	setDefault(&opts.Dir, defaultDir(runtime.GOOS))
	if abs, err := filepath.Abs(opts.Dir); err == nil {
		opts.Dir = abs
	}
	setDefault(&opts.Python.Version, "3.11.9")
	setDefault(&opts.Python.Browsers, "chromium")
	setDefault(&opts.SelfUpdate.URL, selfUpdateURL(runtime.GOOS, opts.Repo, opts.Branch))
	setDefault(&opts.Log.Filename, filepath.Join(opts.Dir, history.Dir, "autoinst.log"))
	if opts.MinFree == 0 {
		opts.MinFree = 500
	}
}

func defaultDir(goos string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	if goos == "windows" {
		base := os.Getenv("LOCALAPPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Local")
		}
		return filepath.Join(base, appName)
	}
	return filepath.Join(home, appName)
}

// selfUpdateURL returns raw url of the installer script carrying the version marker
func selfUpdateURL(goos, repo, branch string) string {
	script := "install.sh"
	if goos == "windows" {
		script = "install.ps1"
	}
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s", strings.Trim(repo, "/"), branch, script)
}

func browsers(s string) []string {
	if strings.EqualFold(strings.TrimSpace(s), "none") {
		return nil
	}
	res := []string{}
	for b := range strings.SplitSeq(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			res = append(res, b)
		}
	}
	return res
}

func parseBool(s string) *bool {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &v
}

func formatBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

// setupLogs configures lgr and returns writer for command output, rotated file if logging enabled
func setupLogs() io.Writer {
	var out io.Writer = os.Stdout
	logOpts := []log.Option{log.Msec, log.LevelBraces}
	if opts.Dbg {
		logOpts = []log.Option{log.Debug, log.Msec, log.LevelBraces, log.CallerFunc, log.CallerPkg, log.CallerFile}
	}
	if opts.Log.Enabled {
		out = &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxBackups: opts.Log.MaxBackups,
			MaxAge:     opts.Log.MaxAge,
			Compress:   opts.Log.EnabledCompress,
		}
		logOpts = append(logOpts, log.Out(io.MultiWriter(os.Stdout, out)))
	}
	log.Setup(logOpts...)
	return out
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			log.Printf("[WARN] interrupted by %v", sig)
			cancel()
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, os.Interrupt)
}
