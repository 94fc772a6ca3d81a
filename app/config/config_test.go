package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoad(t *testing.T) {
	f, err := Load("testdata/config.yml")
	require.NoError(t, err)
	assert.Equal(t, "someone/fork", f.Repo)
	assert.Equal(t, "dev", f.Branch)
	assert.True(t, f.Login)
	assert.False(t, f.NoLaunch)
	assert.Equal(t, uint64(200), f.MinFree)
	assert.Equal(t, "https://example.com/autoinst_{os}_{arch}{ext}", f.SelfUpdate.Binary)
	assert.Equal(t, "3.12.4", f.Python.Version)
	assert.Equal(t, "https://hooks.example.com/abc", f.Notify.Webhook)
	assert.Equal(t, []string{"Authorization: Bearer 123"}, f.Notify.Headers)
	require.NotNil(t, f.Prefs.Headless)
	assert.False(t, *f.Prefs.Headless)
	assert.Nil(t, f.Prefs.HideConsole)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("testdata/missing.yml")
	require.Error(t, err)

	_, err = Load("testdata/unknown.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad_key")

	empty := filepath.Join(t.TempDir(), "empty.yml")
	require.NoError(t, os.WriteFile(empty, []byte("\n"), 0o600))
	f, err := Load(empty)
	require.NoError(t, err)
	assert.Equal(t, File{}, *f)
}

func TestFile_Apply(t *testing.T) {
	f, err := Load("testdata/config.yml")
	require.NoError(t, err)

	yes := true
	dst := File{Branch: "main", Quiet: true}
	dst.Prefs.Headless = &yes
	f.Apply(&dst)

	assert.Equal(t, "someone/fork", dst.Repo, "empty filled")
	assert.Equal(t, "main", dst.Branch, "set value kept")
	assert.True(t, dst.Login)
	assert.True(t, dst.Quiet)
	assert.Equal(t, uint64(200), dst.MinFree)
	assert.Equal(t, "3.12.4", dst.Python.Version)
	assert.Empty(t, dst.Python.Browsers)
	assert.Equal(t, "https://hooks.example.com/abc", dst.Notify.Webhook)
	require.NotNil(t, dst.Prefs.Headless)
	assert.True(t, *dst.Prefs.Headless, "set value kept")
	assert.Nil(t, dst.Prefs.HideConsole)
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)

	var schema struct {
		Type                 string `json:"type"`
		AdditionalProperties *bool  `json:"additionalProperties"`
		Required             []string
		Properties           map[string]struct {
			Type        string `json:"type"`
			Description string `json:"description"`
			Properties  map[string]struct {
				Type string `json:"type"`
			} `json:"properties"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, "object", schema.Type)
	require.NotNil(t, schema.AdditionalProperties)
	assert.False(t, *schema.AdditionalProperties, "unknown fields rejected")
	assert.Empty(t, schema.Required)

	assert.Equal(t, "integer", schema.Properties["min_free"].Type)
	assert.Equal(t, "github repository as owner/name", schema.Properties["repo"].Description)
	assert.Equal(t, "boolean", schema.Properties["prefs"].Properties["hide_console"].Type)
	assert.Equal(t, "array", schema.Properties["notify"].Properties["headers"].Type)

	// every key of the sample config is described
	raw, err := os.ReadFile("testdata/config.yml")
	require.NoError(t, err)
	sample := map[string]any{}
	require.NoError(t, yaml.Unmarshal(raw, &sample))
	for k := range sample {
		assert.Contains(t, schema.Properties, k)
	}
}
