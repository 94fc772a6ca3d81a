package autostart

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	p := Params{Home: "/home/user", AppData: "/appdata", Name: "TwitchDropAutomator", Label: "com.example.automator"}

	p.GOOS = "windows"
	m := New(p)
	assert.IsType(t, &StartupShortcut{}, m)
	assert.Equal(t, filepath.Join("/appdata", "Microsoft", "Windows", "Start Menu", "Programs", "Startup", "TwitchDropAutomator.lnk"), m.Path())

	p.GOOS = "darwin"
	m = New(p)
	assert.IsType(t, &LaunchAgent{}, m)
	assert.Equal(t, filepath.Join("/home/user", "Library", "LaunchAgents", "com.example.automator.plist"), m.Path())

	p.GOOS = "linux"
	m = New(p)
	assert.IsType(t, &XDGAutostart{}, m)
	assert.Equal(t, filepath.Join("/home/user", ".config", "autostart", "TwitchDropAutomator.desktop"), m.Path())
}

func TestXDGAutostart(t *testing.T) {
	home := t.TempDir()
	installDir := filepath.Join(home, "Twitch Drop Automator")
	icon := filepath.Join(installDir, "tray.ico")
	require.NoError(t, os.MkdirAll(installDir, 0o750))
	require.NoError(t, os.WriteFile(icon, []byte("ico"), 0o600))

	x := New(Params{GOOS: "linux", Home: home, Name: "TwitchDropAutomator"})
	assert.False(t, x.IsEnabled())

	err := x.Enable(Entry{Name: "TwitchDropAutomator", Dir: installDir, Description: "drops watcher",
		Target: filepath.Join(installDir, "run_automator.sh"), Icon: icon})
	require.NoError(t, err)
	assert.True(t, x.IsEnabled())

	data, err := os.ReadFile(x.Path())
	require.NoError(t, err)
	exp := "[Desktop Entry]\nType=Application\nName=TwitchDropAutomator\nComment=drops watcher\n" +
		"Exec=\"" + filepath.Join(installDir, "run_automator.sh") + "\"\n" +
		"Path=" + installDir + "\nIcon=" + icon + "\nTerminal=false\nX-GNOME-Autostart-enabled=true\n"
	assert.Equal(t, exp, string(data))

	require.NoError(t, x.Disable())
	assert.False(t, x.IsEnabled())
	require.NoError(t, x.Disable(), "second disable is fine")
}

func TestXDGAutostart_MissingIcon(t *testing.T) {
	x := &XDGAutostart{Dir: t.TempDir(), Name: "app"}
	require.NoError(t, x.Enable(Entry{Name: "app", Dir: "/opt/app", Target: "/opt/app/run.sh", Icon: "/no/such/tray.ico"}))
	data, err := os.ReadFile(x.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Icon=")
	assert.Contains(t, string(data), "Exec=/opt/app/run.sh\n")
}

func TestLaunchAgent(t *testing.T) {
	runner := &runnerMock{}
	dir := t.TempDir()
	l := &LaunchAgent{Dir: filepath.Join(dir, "LaunchAgents"), Label: "com.example.automator", Runner: runner}

	err := l.Enable(Entry{Dir: "/Users/me/Drops & Co", Target: "/Users/me/Drops & Co/run_automator.sh"})
	require.NoError(t, err)
	assert.True(t, l.IsEnabled())

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	plist := string(data)
	assert.Contains(t, plist, "<key>Label</key>\n\t<string>com.example.automator</string>")
	assert.Contains(t, plist, "<array>\n\t\t<string>/Users/me/Drops &amp; Co/run_automator.sh</string>\n\t</array>")
	assert.Contains(t, plist, "<key>WorkingDirectory</key>\n\t<string>/Users/me/Drops &amp; Co</string>")
	assert.Contains(t, plist, "<key>RunAtLoad</key>\n\t<true/>")

	assert.Equal(t, []string{
		"launchctl unload " + l.Path(),
		"launchctl load -w " + l.Path(),
	}, runner.calls)

	runner.calls = nil
	require.NoError(t, l.Disable())
	assert.False(t, l.IsEnabled())
	assert.Equal(t, []string{"launchctl unload " + l.Path()}, runner.calls)
}

func TestLaunchAgent_LoadFailureIgnored(t *testing.T) {
	runner := &runnerMock{err: errors.New("launchctl failed")}
	l := &LaunchAgent{Dir: t.TempDir(), Label: "com.example.automator", Runner: runner}
	require.NoError(t, l.Enable(Entry{Dir: "/opt", Target: "/opt/run.sh", Args: []string{"--tray"}}))
	assert.Equal(t, "com.example.automator.plist", filepath.Base(l.Path()))
	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "<key>Label</key>\n\t<string>com.example.automator</string>")
	assert.Contains(t, string(data), "<string>/opt/run.sh</string>\n\t\t<string>--tray</string>")
}

func TestStartupShortcut(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("creates real shortcut on windows")
	}
	s := &StartupShortcut{Dir: filepath.Join(t.TempDir(), "Startup"), Name: "TwitchDropAutomator"}
	err := s.Enable(Entry{Target: "run_automator.bat"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "windows only")
	assert.False(t, s.IsEnabled())
	require.NoError(t, s.Disable())
}

func TestDesktopExec(t *testing.T) {
	assert.Equal(t, "/opt/app/run.sh --flag", desktopExec([]string{"/opt/app/run.sh", "--flag"}))
	assert.Equal(t, `"/opt/my app/run.sh" ""`, desktopExec([]string{"/opt/my app/run.sh", ""}))
	assert.Equal(t, `"a\"b\$c"`, desktopExec([]string{`a"b$c`}))
}

type runnerMock struct {
	calls []string
	err   error
}

func (r *runnerMock) Run(_ context.Context, _, name string, args ...string) error {
	r.calls = append(r.calls, strings.Join(append([]string{name}, args...), " "))
	return r.err
}
