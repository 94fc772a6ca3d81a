package autostart

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"text/template"

	log "github.com/go-pkgz/lgr"
)

// LaunchAgent is a per-user launchd job in ~/Library/LaunchAgents
type LaunchAgent struct {
	Dir    string
	Label  string
	Runner Commander
}

var plistTmpl = template.Must(template.New("plist").Funcs(template.FuncMap{"xml": xmlEscape}).Parse(
	`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{xml .Label}}</string>
	<key>ProgramArguments</key>
	<array>
{{- range .Program}}
		<string>{{xml .}}</string>
{{- end}}
	</array>
	<key>WorkingDirectory</key>
	<string>{{xml .Dir}}</string>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<false/>
	<key>StandardOutPath</key>
	<string>{{xml .LogFile}}</string>
	<key>StandardErrorPath</key>
	<string>{{xml .LogFile}}</string>
</dict>
</plist>
`))

// Path returns plist location
func (l *LaunchAgent) Path() string {
	return filepath.Join(l.Dir, l.Label+".plist")
}

// Enable writes the plist and loads it if Runner defined. Loading is best effort, the agent
// is picked up on the next login anyway.
func (l *LaunchAgent) Enable(e Entry) error {
	data := struct {
		Label   string
		Program []string
		Dir     string
		LogFile string
	}{
		Label:   l.Label,
		Program: append([]string{e.Target}, e.Args...),
		Dir:     e.Dir,
		LogFile: filepath.Join(e.Dir, "launchagent.log"),
	}
	if err := render(l.Path(), plistTmpl, data); err != nil {
		return err
	}
	log.Printf("[INFO] launch agent created %s", l.Path())

	if l.Runner != nil {
		ctx := context.Background()
		_ = l.Runner.Run(ctx, "", "launchctl", "unload", l.Path()) // not loaded yet is fine
		if err := l.Runner.Run(ctx, "", "launchctl", "load", "-w", l.Path()); err != nil {
			log.Printf("[WARN] can't load launch agent, it will start on next login, %v", err)
		}
	}
	return nil
}

// Disable unloads (best effort) and removes the plist
func (l *LaunchAgent) Disable() error {
	if l.Runner != nil && exists(l.Path()) {
		if err := l.Runner.Run(context.Background(), "", "launchctl", "unload", l.Path()); err != nil {
			log.Printf("[DEBUG] can't unload %s, %v", l.Path(), err)
		}
	}
	return remove(l.Path())
}

// IsEnabled checks if plist exists
func (l *LaunchAgent) IsEnabled() bool {
	return exists(l.Path())
}

func xmlEscape(s string) (string, error) {
	buf := bytes.Buffer{}
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return "", fmt.Errorf("can't escape %q: %w", s, err)
	}
	return buf.String(), nil
}
