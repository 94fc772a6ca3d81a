// Package preflight checks the host before installation: free disk space and running application instances.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/process"
)

// ErrLowDisk returned when free space is below the threshold
var ErrLowDisk = errors.New("not enough free disk space")

// Checker makes preflight checks. Zero MinFreeMB disables disk check.
type Checker struct {
	MinFreeMB uint64
	usage     func(path string) (*disk.UsageStat, error)
}

// DiskFree checks free space on the volume holding path. Path may not exist yet,
// the nearest existing parent is checked in this case.
func (c Checker) DiskFree(path string) (freeMB uint64, err error) {
	if c.MinFreeMB == 0 {
		return 0, nil
	}
	usage := c.usage
	if usage == nil {
		usage = disk.Usage
	}

	existing := nearestExisting(path)
	st, err := usage(existing)
	if err != nil {
		return 0, fmt.Errorf("failed to get disk usage for %s: %w", existing, err)
	}
	freeMB = st.Free / (1024 * 1024)
	if freeMB < c.MinFreeMB {
		return freeMB, fmt.Errorf("%w: %dMB free on %s, need %dMB", ErrLowDisk, freeMB, existing, c.MinFreeMB)
	}
	return freeMB, nil
}

// FindRunning returns pids of processes running the script from installDir
func (c Checker) FindRunning(ctx context.Context, installDir, script string) ([]int32, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't list processes: %w", err)
	}
	dir := canonical(installDir)
	self := int32(os.Getpid()) // nolint gosec

	var res []int32
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		args, err := p.CmdlineSliceWithContext(ctx)
		if err != nil || !hasScript(args, script) {
			continue
		}
		if matchDir(ctx, p, args, script, dir) {
			res = append(res, p.Pid)
		}
	}
	return res, nil
}

func hasScript(args []string, script string) bool {
	for _, a := range args {
		if filepath.Base(a) == script {
			return true
		}
	}
	return false
}

// matchDir checks if the process runs the script from dir, either by absolute script path or by working directory
func matchDir(ctx context.Context, p *process.Process, args []string, script, dir string) bool {
	for _, a := range args {
		if filepath.IsAbs(a) && filepath.Base(a) == script && canonical(filepath.Dir(a)) == dir {
			return true
		}
	}
	cwd, err := p.CwdWithContext(ctx)
	if err != nil {
		return false
	}
	return canonical(cwd) == dir
}

func canonical(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return strings.TrimRight(filepath.Clean(path), string(filepath.Separator))
}

func nearestExisting(path string) string {
	path = filepath.Clean(path)
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}
