// Package prefs reads and writes the application preferences file (config.json).
// The file belongs to the application, the installer only reads it to pick the interpreter
// and optionally presets values before the first launch.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/go-pkgz/lgr"
)

// FileName of the preferences file in install directory
const FileName = "config.json"

// Preferences of the application. Unknown keys are kept as is.
type Preferences struct {
	Headless    bool
	HideConsole bool
	extra       map[string]json.RawMessage
}

// Default preferences, used when no config exists
func Default() Preferences {
	return Preferences{Headless: true, HideConsole: true}
}

// Load reads preferences from path. Missing or broken file results in defaults.
func Load(path string) Preferences {
	res := Default()
	data, err := os.ReadFile(path) // nolint gosec
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[DEBUG] can't read preferences %s, %v", path, err)
		}
		return res
	}

	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("[WARN] can't parse preferences %s, using defaults, %v", path, err)
		return res
	}
	for key, val := range raw {
		switch key {
		case "headless":
			res.Headless = truthy(val)
		case "hide_console":
			res.HideConsole = truthy(val)
		default:
			if res.extra == nil {
				res.extra = map[string]json.RawMessage{}
			}
			res.extra[key] = val
		}
	}
	return res
}

// Save writes preferences to path as indented json
func Save(path string, p Preferences) error {
	out := map[string]any{}
	for k, v := range p.extra {
		out[k] = v
	}
	out["headless"] = p.Headless
	out["hide_console"] = p.HideConsole

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("can't marshal preferences: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("can't write preferences %s: %w", path, err)
	}
	return nil
}

// Set changes the named boolean preference, "headless" or "hide_console"
func (p *Preferences) Set(key string, val bool) error {
	switch key {
	case "headless":
		p.Headless = val
	case "hide_console":
		p.HideConsole = val
	default:
		return fmt.Errorf("unknown preference %q", key)
	}
	return nil
}

// truthy converts any json value the way the application reads it: null, false, zero,
// empty string, array or object are false, everything else is true.
func truthy(data json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return false
	}
}
