// Package config loads optional yaml file with installer defaults.
// Values from the file are used only for options not set on the command line or environment.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the yaml config structure
type File struct {
	Repo     string `yaml:"repo" jsonschema:"description=github repository as owner/name"`
	Branch   string `yaml:"branch"`
	ZipURL   string `yaml:"zip_url" jsonschema:"description=archive url used instead of repo and branch"`
	Dir      string `yaml:"dir"`
	Login    bool   `yaml:"login" jsonschema:"description=start the application at login"`
	NoLaunch bool   `yaml:"no_launch"`
	Quiet    bool   `yaml:"quiet"`
	MinFree  uint64 `yaml:"min_free" jsonschema:"description=required free disk space in MB"`

	SelfUpdate struct {
		URL    string `yaml:"url"`
		Binary string `yaml:"binary"`
		Skip   bool   `yaml:"skip"`
	} `yaml:"self_update"`

	Python struct {
		Version  string `yaml:"version"`
		Browsers string `yaml:"browsers" jsonschema:"description=comma-separated playwright browsers or none"`
	} `yaml:"python"`

	Notify struct {
		Webhook string   `yaml:"webhook"`
		Headers []string `yaml:"headers"`
	} `yaml:"notify"`

	Prefs struct {
		Headless    *bool `yaml:"headless"`
		HideConsole *bool `yaml:"hide_console"`
	} `yaml:"prefs"`
}

// Load reads yaml config from path. Unknown fields rejected.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) // nolint gosec
	if err != nil {
		return nil, fmt.Errorf("can't read config %s: %w", path, err)
	}
	res := &File{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(res); err != nil {
		if len(bytes.TrimSpace(data)) == 0 {
			return res, nil
		}
		return nil, fmt.Errorf("can't parse config %s: %w", path, err)
	}
	return res, nil
}

// Apply fills empty values of dst with values from f. Booleans can only be turned on.
func (f File) Apply(dst *File) {
	setStr := func(d *string, v string) {
		if *d == "" {
			*d = v
		}
	}
	setBool := func(d *bool, v bool) {
		*d = *d || v
	}

	setStr(&dst.Repo, f.Repo)
	setStr(&dst.Branch, f.Branch)
	setStr(&dst.ZipURL, f.ZipURL)
	setStr(&dst.Dir, f.Dir)
	setBool(&dst.Login, f.Login)
	setBool(&dst.NoLaunch, f.NoLaunch)
	setBool(&dst.Quiet, f.Quiet)
	if dst.MinFree == 0 {
		dst.MinFree = f.MinFree
	}

	setStr(&dst.SelfUpdate.URL, f.SelfUpdate.URL)
	setStr(&dst.SelfUpdate.Binary, f.SelfUpdate.Binary)
	setBool(&dst.SelfUpdate.Skip, f.SelfUpdate.Skip)
	setStr(&dst.Python.Version, f.Python.Version)
	setStr(&dst.Python.Browsers, f.Python.Browsers)
	setStr(&dst.Notify.Webhook, f.Notify.Webhook)
	if len(dst.Notify.Headers) == 0 {
		dst.Notify.Headers = f.Notify.Headers
	}
	if dst.Prefs.Headless == nil {
		dst.Prefs.Headless = f.Prefs.Headless
	}
	if dst.Prefs.HideConsole == nil {
		dst.Prefs.HideConsole = f.Prefs.HideConsole
	}
}
