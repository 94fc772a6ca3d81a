package selfupdate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tbl := []struct {
		text string
		ver  string
		err  bool
	}{
		{"# @installer_version 1.4.2\nset -e\n", "1.4.2", false},
		{"<# @installer_version: 2.0 #>", "2.0", false},
		{"// @installer_version=v3.1.0", "3.1.0", false},
		{"$InstallerVersion = '1.2.3'\n", "1.2.3", false},
		{"INSTALLER_VERSION=\"1.10.0\"\n", "1.10.0", false},
		{"const installerVersion = \"0.9\"", "0.9", false},
		{"installer_version := \"4.5.6\"", "4.5.6", false},
		{"INSTALLER_VERSION=\"1.0.0\"\n# @installer_version 1.1.0\n", "1.1.0", false},
		{"echo nothing here", "", true},
		{"my_installer_version_note = 1.0", "", true},
		{"", "", true},
	}

	for i, tt := range tbl {
		ver, err := ParseVersion(tt.text)
		if tt.err {
			assert.ErrorIs(t, err, ErrNoVersion, "case #%d", i)
			continue
		}
		require.NoError(t, err, "case #%d", i)
		assert.Equal(t, tt.ver, ver, "case #%d", i)
	}
}

func TestIsNewer(t *testing.T) {
	tbl := []struct {
		local, remote string
		res           bool
	}{
		{"1.0.0", "1.0.1", true},
		{"1.9.0", "1.10.0", true},
		{"1.2", "1.2.0", false},
		{"2.0.0", "1.99.99", false},
		{"1.0.0", "1.0.0", false},
		{"1.0.0", "", false},
		{"unknown", "2.0.0", false},
		{"1.0.0", " 1.0.1\n", true},
	}
	for i, tt := range tbl {
		assert.Equal(t, tt.res, IsNewer(tt.local, tt.remote), "case #%d %s vs %s", i, tt.local, tt.remote)
	}
}

func TestUpdater_Check(t *testing.T) {
	getter := &getterMock{content: "#!/usr/bin/env bash\n# @installer_version 1.5.0\n"}
	u := Updater{URL: "https://example.com/install.sh", Current: "1.4.0", Getter: getter}
	remote, newer, err := u.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.5.0", remote)
	assert.True(t, newer)
	assert.Equal(t, []string{"https://example.com/install.sh"}, getter.fetched)

	u.Current = "1.5.0"
	_, newer, err = u.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, newer)

	getter.content = "no version"
	_, _, err = u.Check(context.Background())
	require.ErrorIs(t, err, ErrNoVersion)

	getter.err = errors.New("network down")
	_, _, err = u.Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network down")

	_, _, err = (&Updater{Getter: getter}).Check(context.Background())
	require.Error(t, err)
}

func TestUpdater_Apply(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses shell script as installer")
	}
	out := filepath.Join(t.TempDir(), "args.txt")
	script := "#!/bin/sh\necho \"$@\" > " + out + "\nexit 7\n"
	getter := &getterMock{content: script}
	u := Updater{BinaryURL: "https://example.com/autoinst_{os}_{arch}{ext}", Getter: getter}

	code, err := u.Apply(context.Background(), runtime.GOOS, runtime.GOARCH, []string{"-d", "/tmp/x", "--login"})
	require.NoError(t, err)
	assert.Equal(t, 7, code)
	assert.Equal(t, []string{"https://example.com/autoinst_" + runtime.GOOS + "_" + runtime.GOARCH}, getter.downloaded)

	data, err := os.ReadFile(out) // nolint gosec
	require.NoError(t, err)
	assert.Equal(t, "-d /tmp/x --login --skip-self-update\n", string(data))
}

func TestUpdater_ApplyNoBinary(t *testing.T) {
	u := Updater{Getter: &getterMock{}}
	_, err := u.Apply(context.Background(), "linux", "amd64", nil)
	require.Error(t, err)

	u = Updater{BinaryURL: "https://example.com/bin", Getter: &getterMock{err: errors.New("404")}}
	_, err = u.Apply(context.Background(), "linux", "amd64", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't download")
}

func TestBinaryURL(t *testing.T) {
	assert.Equal(t, "https://x/autoinst_windows_amd64.exe", BinaryURL("https://x/autoinst_{os}_{arch}{ext}", "windows", "amd64"))
	assert.Equal(t, "https://x/autoinst_darwin_arm64", BinaryURL("https://x/autoinst_{os}_{arch}{ext}", "darwin", "arm64"))
	assert.Equal(t, "https://x/fixed", BinaryURL("https://x/fixed", "linux", "amd64"))
}

func TestWithLoopGuard(t *testing.T) {
	args := []string{"-q"}
	res := WithLoopGuard(args)
	assert.Equal(t, []string{"-q", SkipFlag}, res)
	assert.Equal(t, []string{"-q"}, args, "source not modified")
	assert.Equal(t, []string{"-q", SkipFlag}, WithLoopGuard(res))
	assert.Equal(t, []string{SkipFlag}, WithLoopGuard(nil))
}

type getterMock struct {
	content    string
	err        error
	fetched    []string
	downloaded []string
}

func (g *getterMock) Fetch(_ context.Context, url string) ([]byte, error) {
	g.fetched = append(g.fetched, url)
	if g.err != nil {
		return nil, g.err
	}
	return []byte(g.content), nil
}

func (g *getterMock) Download(_ context.Context, url, dst string) error {
	g.downloaded = append(g.downloaded, url)
	if g.err != nil {
		return g.err
	}
	return os.WriteFile(dst, []byte(g.content), 0o600)
}
