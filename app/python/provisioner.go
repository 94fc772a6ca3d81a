package python

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	log "github.com/go-pkgz/lgr"
)

// Downloader saves remote url to a local file
type Downloader interface {
	Download(ctx context.Context, url, dst string) error
}

// Provisioner makes sure python is available and sets up the application venv
type Provisioner struct {
	Runner       Commander
	Downloader   Downloader
	GOOS         string
	GOARCH       string
	Version      string   // full version for python.org installer, i.e. 3.11.9
	Browsers     []string // playwright browsers to install, empty to skip
	LocalAppData string   // windows only, for per-user python installs
	TempDir      string

	LookPath func(file string) (string, error) // defaults to exec.LookPath
	Geteuid  func() int                        // defaults to os.Geteuid
}

type installStep struct {
	name string
	fn   func(ctx context.Context) error
}

// Ensure returns usable interpreter, installing python if none found
func (p *Provisioner) Ensure(ctx context.Context) (Interpreter, error) {
	interp, err := Discover(ctx, p.Runner, p.candidates())
	if err == nil {
		return interp, nil
	}
	log.Printf("[INFO] python 3 not found, trying to install")

	for _, step := range p.installChain() {
		if ctx.Err() != nil {
			return Interpreter{}, ctx.Err()
		}
		log.Printf("[INFO] install python with %s", step.name)
		if err := step.fn(ctx); err != nil {
			log.Printf("[WARN] python install with %s failed, %v", step.name, err)
			continue
		}
		if interp, err := Discover(ctx, p.Runner, p.candidates()); err == nil {
			return interp, nil
		}
		log.Printf("[WARN] python still not found after %s", step.name)
	}
	return Interpreter{}, ErrNoInterpreter
}

// Setup creates venv in installDir if missing (or always if recreate), upgrades pip and installs requirements.
// Only the requirements install is mandatory, pip upgrade and browsers install are best effort.
func (p *Provisioner) Setup(ctx context.Context, interp Interpreter, installDir string, recreate bool) error {
	// venv interpreter runs with installDir as working directory, relative path would resolve twice
	installDir, err := filepath.Abs(installDir)
	if err != nil {
		return fmt.Errorf("can't resolve install directory: %w", err)
	}
	venv := NewVenv(installDir, p.GOOS)
	if recreate && fileExists(venv.Dir) {
		log.Printf("[INFO] remove existing venv %s", venv.Dir)
		if err := os.RemoveAll(venv.Dir); err != nil {
			return fmt.Errorf("can't remove venv %s: %w", venv.Dir, err)
		}
	}

	if !venv.Exists() {
		log.Printf("[INFO] create venv %s", venv.Dir)
		name, args := interp.Command("-m", "venv", "venv")
		if err := p.Runner.Run(ctx, installDir, name, args...); err != nil {
			return fmt.Errorf("can't create venv: %w", err)
		}
	} else {
		log.Printf("[INFO] reuse venv %s", venv.Dir)
	}

	if err := p.Runner.Run(ctx, installDir, venv.Python, "-m", "pip", "install", "--upgrade", "pip"); err != nil {
		log.Printf("[WARN] pip upgrade failed, %v", err)
	}

	requirements := filepath.Join(installDir, "requirements.txt")
	if !fileExists(requirements) {
		log.Printf("[WARN] %s not found, skip dependencies", requirements)
		return nil
	}
	log.Printf("[INFO] install dependencies from %s", requirements)
	if err := p.Runner.Run(ctx, installDir, venv.Python, "-m", "pip", "install", "-r", "requirements.txt"); err != nil {
		return fmt.Errorf("can't install requirements: %w", err)
	}

	if len(p.Browsers) > 0 && needsPlaywright(requirements) {
		log.Printf("[INFO] install playwright browsers %v", p.Browsers)
		args := append([]string{"-m", "playwright", "install"}, p.Browsers...)
		if err := p.Runner.Run(ctx, installDir, venv.Python, args...); err != nil {
			log.Printf("[WARN] playwright browsers install failed, %v", err)
		}
	}
	return nil
}

// candidates adds well-known per-user install locations on windows, PATH is not refreshed
// for the running process after python installer updates it.
func (p *Provisioner) candidates() []Interpreter {
	res := Candidates(p.GOOS)
	if p.GOOS != "windows" || p.LocalAppData == "" {
		return res
	}
	for _, v := range minorVersions {
		dir := "Python" + strings.ReplaceAll(v, ".", "")
		exe := filepath.Join(p.LocalAppData, "Programs", "Python", dir, "python.exe")
		if fileExists(exe) {
			res = append(res, Interpreter{Path: exe})
		}
	}
	return res
}

// installChain returns platform specific install attempts, in order
func (p *Provisioner) installChain() []installStep {
	switch p.GOOS {
	case "windows":
		return []installStep{
			{name: "winget", fn: p.installWinget},
			{name: "python.org installer", fn: p.installDirect},
		}
	case "darwin":
		return []installStep{{name: "homebrew", fn: p.installBrew}}
	default:
		return []installStep{{name: "system package manager", fn: p.installSystem}}
	}
}

func (p *Provisioner) installWinget(ctx context.Context) error {
	if _, err := p.lookPath("winget"); err != nil {
		return errors.New("winget not available")
	}
	id := "Python.Python." + minorVersions[0]
	return p.Runner.Run(ctx, "", "winget", "install", "-e", "--id", id, "--scope", "user", "--silent",
		"--accept-package-agreements", "--accept-source-agreements")
}

func (p *Provisioner) installDirect(ctx context.Context) error {
	url := InstallerURL(p.Version, p.GOARCH)
	dst := filepath.Join(p.tempDir(), filepath.Base(url))
	if err := p.Downloader.Download(ctx, url, dst); err != nil {
		return err
	}
	defer os.Remove(dst) // nolint
	return p.Runner.Run(ctx, "", dst, "/quiet", "InstallAllUsers=0", "PrependPath=1", "Include_launcher=1", "Include_test=0")
}

func (p *Provisioner) installBrew(ctx context.Context) error {
	if _, err := p.lookPath("brew"); err != nil {
		return errors.New("homebrew not available, install it from https://brew.sh")
	}
	return p.Runner.Run(ctx, "", "brew", "install", "python@"+minorVersions[0])
}

// installSystem uses the first available of apt-get, dnf and pacman, with sudo for non-root users
func (p *Provisioner) installSystem(ctx context.Context) error {
	managers := []struct {
		name string
		cmds [][]string
	}{
		{"apt-get", [][]string{{"apt-get", "update"}, {"apt-get", "install", "-y", "python3", "python3-venv", "python3-pip"}}},
		{"dnf", [][]string{{"dnf", "install", "-y", "python3", "python3-pip"}}},
		{"pacman", [][]string{{"pacman", "-S", "--noconfirm", "python", "python-pip"}}},
	}
	for _, m := range managers {
		if _, err := p.lookPath(m.name); err != nil {
			continue
		}
		for _, c := range m.cmds {
			name, args := p.privileged(c)
			if err := p.Runner.Run(ctx, "", name, args...); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.New("no supported package manager found")
}

func (p *Provisioner) privileged(cmd []string) (string, []string) {
	if p.geteuid() == 0 {
		return cmd[0], cmd[1:]
	}
	if _, err := p.lookPath("sudo"); err != nil {
		return cmd[0], cmd[1:]
	}
	return "sudo", cmd
}

// InstallerURL returns python.org windows installer url for version and arch
func InstallerURL(version, goarch string) string {
	suffix := "-amd64"
	switch goarch {
	case "386":
		suffix = ""
	case "arm64":
		suffix = "-arm64"
	}
	return fmt.Sprintf("https://www.python.org/ftp/python/%s/python-%s%s.exe", version, version, suffix)
}

func (p *Provisioner) lookPath(file string) (string, error) {
	if p.LookPath != nil {
		return p.LookPath(file)
	}
	return exec.LookPath(file)
}

func (p *Provisioner) geteuid() int {
	if p.Geteuid != nil {
		return p.Geteuid()
	}
	return os.Geteuid()
}

func (p *Provisioner) tempDir() string {
	if p.TempDir != "" {
		return p.TempDir
	}
	return os.TempDir()
}
