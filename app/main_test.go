package main

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/autoinst/app/autostart"
	"github.com/umputun/autoinst/app/history"
)

func Test_setupLogsWithLogsDisabled(t *testing.T) {
	opts = options{}
	assert.Equal(t, os.Stdout, setupLogs())
}

func Test_setupLogsToFile(t *testing.T) {
	tmpfile := filepath.Join(t.TempDir(), "autoinst.log")
	opts = options{}
	opts.Log.Enabled = true
	opts.Log.Filename = tmpfile
	opts.Log.MaxSize = 100
	opts.Log.MaxBackups = 7
	opts.Log.MaxAge = 0
	opts.Log.EnabledCompress = false
	defer func() { opts = options{}; setupLogs() }()

	out := setupLogs()
	assert.IsType(t, &lumberjack.Logger{}, out)

	logger := out.(*lumberjack.Logger)
	assert.Equal(t, tmpfile, logger.Filename)
	assert.Equal(t, 100, logger.MaxSize)
	assert.Equal(t, 7, logger.MaxBackups)
	assert.Equal(t, 0, logger.MaxAge)
	assert.False(t, logger.Compress)
	require.NoError(t, logger.Close())
}

func Test_applyDefaults(t *testing.T) {
	opts = options{}
	opts.Branch = "dev"
	applyDefaults()
	assert.Equal(t, "ArcticFox-dev/twitch-drop-automator", opts.Repo)
	assert.Equal(t, "dev", opts.Branch)
	assert.Equal(t, "3.11.9", opts.Python.Version)
	assert.Equal(t, "chromium", opts.Python.Browsers)
	assert.Equal(t, uint64(500), opts.MinFree)
	assert.Equal(t, defaultDir(runtime.GOOS), opts.Dir)
	assert.Contains(t, opts.SelfUpdate.URL, "https://raw.githubusercontent.com/ArcticFox-dev/twitch-drop-automator/dev/install.")
	assert.Equal(t, filepath.Join(opts.Dir, ".autoinst", "autoinst.log"), opts.Log.Filename)
}

func Test_applyConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "autoinst.yml")
	require.NoError(t, os.WriteFile(cfg, []byte("repo: someone/fork\nbranch: dev\nlogin: true\n"+
		"python:\n  browsers: none\nprefs:\n  headless: false\n"), 0o600))

	opts = options{}
	opts.Branch = "main"
	opts.Prefs.HideConsole = "true"
	require.NoError(t, applyConfig(cfg))
	assert.Equal(t, "someone/fork", opts.Repo)
	assert.Equal(t, "main", opts.Branch, "command line wins")
	assert.True(t, opts.Login)
	assert.Equal(t, "none", opts.Python.Browsers)
	assert.Equal(t, "false", opts.Prefs.Headless)
	assert.Equal(t, "true", opts.Prefs.HideConsole)

	require.Error(t, applyConfig(filepath.Join(t.TempDir(), "missing.yml")))
}

func Test_defaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "TwitchDropAutomator"), defaultDir("linux"))

	t.Setenv("LOCALAPPDATA", filepath.Join("C:", "Users", "u", "AppData", "Local"))
	assert.Equal(t, filepath.Join("C:", "Users", "u", "AppData", "Local", "TwitchDropAutomator"), defaultDir("windows"))
}

func Test_selfUpdateURL(t *testing.T) {
	assert.Equal(t, "https://raw.githubusercontent.com/a/b/main/install.sh", selfUpdateURL("linux", "a/b", "main"))
	assert.Equal(t, "https://raw.githubusercontent.com/a/b/dev/install.ps1", selfUpdateURL("windows", "/a/b/", "dev"))
}

func Test_browsers(t *testing.T) {
	assert.Equal(t, []string{"chromium"}, browsers("chromium"))
	assert.Equal(t, []string{"chromium", "firefox"}, browsers(" chromium, ,firefox "))
	assert.Nil(t, browsers("none"))
	assert.Empty(t, browsers(""))
}

func Test_parseBool(t *testing.T) {
	assert.Nil(t, parseBool(""))
	assert.Nil(t, parseBool("maybe"))
	require.NotNil(t, parseBool("false"))
	assert.False(t, *parseBool("false"))
	assert.True(t, *parseBool("true"))
	assert.Empty(t, formatBool(nil))
	assert.Equal(t, "true", formatBool(parseBool("true")))
}

func Test_selfUpdate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/new.sh":
			_, _ = w.Write([]byte("#!/bin/bash\n# @installer_version 99.0.0\n"))
		case "/same.sh":
			_, _ = w.Write([]byte(`INSTALLER_VERSION="` + installerVersion + `"`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	opts = options{}
	opts.Retry.Attempts = 1
	fetcher := makeFetcher()

	tbl := []struct {
		name, url, binary string
	}{
		{"not found", ts.URL + "/missing.sh", ""},
		{"same version", ts.URL + "/same.sh", ts.URL + "/bin"},
		{"newer without binary", ts.URL + "/new.sh", ""},
		{"binary download failed", ts.URL + "/new.sh", ts.URL + "/bin/{os}"},
	}
	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			opts.SelfUpdate.URL, opts.SelfUpdate.Binary = tt.url, tt.binary
			code, updated := selfUpdate(context.Background(), fetcher, []string{"-q"})
			assert.False(t, updated)
			assert.Zero(t, code)
		})
	}
}

func Test_unregister(t *testing.T) {
	m := autostart.New(autostart.Params{GOOS: "linux", Home: t.TempDir(), Name: appName})
	assert.Equal(t, 0, unregister(m), "nothing to remove")

	require.NoError(t, m.Enable(autostart.Entry{Name: appName, Dir: t.TempDir(), Target: "/bin/true"}))
	require.True(t, m.IsEnabled())
	assert.Equal(t, 0, unregister(m))
	assert.False(t, m.IsEnabled())
	assert.NoFileExists(t, m.Path())
}

func Test_printSchema(t *testing.T) {
	buf := &bytes.Buffer{}
	assert.Equal(t, 0, printSchema(buf))
	assert.Contains(t, buf.String(), `"title": "autoinst configuration"`)
	assert.Contains(t, buf.String(), `"self_update"`)
}

func Test_showHistory(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	buf := &bytes.Buffer{}
	assert.Equal(t, 0, showHistory(ctx, buf, dir, 5))
	assert.Equal(t, "no install history in "+dir+"\n", buf.String())

	j, err := history.Open(ctx, history.Path(dir))
	require.NoError(t, err)
	id, err := j.Start(ctx, "1.4.0", "https://example.com/a.zip")
	require.NoError(t, err)
	require.NoError(t, j.Finish(ctx, id, errors.New("pip failed")))
	_, err = j.Start(ctx, "1.4.0", "https://example.com/b.zip")
	require.NoError(t, err)
	require.NoError(t, j.Close())

	buf.Reset()
	assert.Equal(t, 0, showHistory(ctx, buf, dir, 5))
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "running")
	assert.Contains(t, string(lines[0]), "https://example.com/b.zip")
	assert.Contains(t, string(lines[1]), "failed")
	assert.Contains(t, string(lines[1]), "error: pip failed")
}

func Test_runFlags(t *testing.T) {
	opts = options{}
	assert.Equal(t, 2, run([]string{"--no-such-flag"}))
	opts = options{}
	assert.Equal(t, 2, run([]string{"--prefs.headless", "maybe"}))
	opts = options{}
	assert.Equal(t, 0, run([]string{"-h"}))
}

func Test_runInstall(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses fake python script")
	}
	zipData := makeTestZip(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(zipData)
	}))
	defer ts.Close()

	// fake python3.11 on PATH, creates venv/bin/python and succeeds on everything else
	bin := t.TempDir()
	fake := "#!/bin/sh\n" +
		"if [ \"$1\" = \"--version\" ]; then echo \"Python 3.11.9\"; exit 0; fi\n" +
		"if [ \"$1\" = \"-m\" ] && [ \"$2\" = \"venv\" ]; then mkdir -p \"$3/bin\"; cp \"$0\" \"$3/bin/python\"; exit 0; fi\n" +
		"exit 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(bin, "python3.11"), []byte(fake), 0o700)) // nolint gosec
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))

	install := func(t *testing.T, dirArg, dir string) {
		opts = options{}
		code := run([]string{"-q", "--skip-self-update", "--no-launch", "-d", dirArg, "-z", ts.URL + "/app.zip",
			"--min-free", "1", "--python.browsers", "none", "--retry.attempts", "1"})
		assert.Equal(t, 0, code)
		assert.Equal(t, dir, opts.Dir)
		assert.FileExists(t, filepath.Join(dir, "twitch_drop_automator.py"))
		assert.FileExists(t, filepath.Join(dir, "run_automator.sh"))
		assert.FileExists(t, filepath.Join(dir, "venv", "bin", "python"))
		assert.FileExists(t, filepath.Join(dir, ".autoinst", "history.db"))

		buf := &bytes.Buffer{}
		assert.Equal(t, 0, showHistory(context.Background(), buf, dir, 1))
		assert.Contains(t, buf.String(), "success")
	}

	t.Run("absolute dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "app")
		install(t, dir, dir)
	})

	t.Run("relative dir", func(t *testing.T) {
		t.Chdir(t.TempDir())
		dir, err := filepath.Abs("app")
		require.NoError(t, err)
		install(t, "app", dir)
	})
}

func makeTestZip(t *testing.T) []byte {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	zw := zip.NewWriter(buf)
	for name, body := range map[string]string{
		"twitch-drop-automator-main/twitch_drop_automator.py": "print('hi')",
		"twitch-drop-automator-main/requirements.txt":         "playwright\n",
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
