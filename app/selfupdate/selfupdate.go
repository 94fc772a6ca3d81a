// Package selfupdate checks a remote copy of the installer for a newer version and re-runs the newer one.
//
// The remote resource is a plain text file (an installer script or a version file) carrying
// either a "@installer_version X.Y.Z" marker or an assignment like INSTALLER_VERSION="X.Y.Z".
// Versions are compared as dotted numbers.
package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	log "github.com/go-pkgz/lgr"
	goversion "github.com/hashicorp/go-version"
)

// SkipFlag is added to the arguments of the re-executed installer to prevent update loops
const SkipFlag = "--skip-self-update"

var (
	reMarker = regexp.MustCompile(`@installer_version[\s:=]+v?(\d+(?:\.\d+)*)`)
	reAssign = regexp.MustCompile(`(?i)\binstaller_?version\s*:?=+\s*["']?v?(\d+(?:\.\d+)*)`)
)

// ErrNoVersion returned if the text has neither marker nor assignment
var ErrNoVersion = errors.New("no installer version found")

// Getter loads remote resources
type Getter interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	Download(ctx context.Context, url, dst string) error
}

// Updater checks and applies installer updates
type Updater struct {
	URL       string // remote copy with the version marker
	BinaryURL string // newer installer binary, {os}, {arch} and {ext} are substituted
	Current   string // local installer version
	Getter    Getter

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// ParseVersion extracts installer version from text. Marker has priority over assignment.
func ParseVersion(text string) (string, error) {
	if m := reMarker.FindStringSubmatch(text); len(m) > 1 {
		return m[1], nil
	}
	if m := reAssign.FindStringSubmatch(text); len(m) > 1 {
		return m[1], nil
	}
	return "", ErrNoVersion
}

// IsNewer returns true if remote version is greater than local. Unparsable versions are never newer.
func IsNewer(local, remote string) bool {
	lv, err := goversion.NewVersion(strings.TrimSpace(local))
	if err != nil {
		return false
	}
	rv, err := goversion.NewVersion(strings.TrimSpace(remote))
	if err != nil {
		return false
	}
	return rv.GreaterThan(lv)
}

// Check fetches the remote copy and reports its version and whether it is newer than the current one
func (u *Updater) Check(ctx context.Context) (remote string, newer bool, err error) {
	if u.URL == "" {
		return "", false, errors.New("no self-update url")
	}
	body, err := u.Getter.Fetch(ctx, u.URL)
	if err != nil {
		return "", false, fmt.Errorf("can't fetch %s: %w", u.URL, err)
	}
	remote, err = ParseVersion(string(body))
	if err != nil {
		return "", false, fmt.Errorf("can't parse %s: %w", u.URL, err)
	}
	return remote, IsNewer(u.Current, remote), nil
}

// Apply downloads the newer installer and runs it with args plus SkipFlag, waiting for completion.
// Returns exit code of the child installer.
func (u *Updater) Apply(ctx context.Context, goos, goarch string, args []string) (int, error) {
	if u.BinaryURL == "" {
		return 0, errors.New("no self-update binary url")
	}
	tmpDir, err := os.MkdirTemp("", "autoinst-update-")
	if err != nil {
		return 0, fmt.Errorf("can't make temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir) // nolint

	bin := filepath.Join(tmpDir, "autoinst"+exeSuffix(goos))
	url := BinaryURL(u.BinaryURL, goos, goarch)
	if err = u.Getter.Download(ctx, url, bin); err != nil {
		return 0, fmt.Errorf("can't download %s: %w", url, err)
	}
	if err = os.Chmod(bin, 0o755); err != nil { // nolint gosec
		return 0, fmt.Errorf("can't make %s executable: %w", bin, err)
	}

	childArgs := WithLoopGuard(args)
	log.Printf("[INFO] run updated installer %s %s", bin, strings.Join(childArgs, " "))
	cmd := exec.CommandContext(ctx, bin, childArgs...) // nolint gosec
	cmd.Stdin, cmd.Stdout, cmd.Stderr = u.Stdin, u.Stdout, u.Stderr
	if err = cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, fmt.Errorf("failed to run updated installer: %w", err)
	}
	return 0, nil
}

// BinaryURL substitutes platform placeholders in url template
func BinaryURL(tmpl, goos, goarch string) string {
	return strings.NewReplacer("{os}", goos, "{arch}", goarch, "{ext}", exeSuffix(goos)).Replace(tmpl)
}

// WithLoopGuard returns a copy of args with SkipFlag appended, unless already present
func WithLoopGuard(args []string) []string {
	res := slices.Clone(args)
	if slices.Contains(res, SkipFlag) {
		return res
	}
	return append(res, SkipFlag)
}

func exeSuffix(goos string) string {
	if goos == "windows" {
		return ".exe"
	}
	return ""
}
