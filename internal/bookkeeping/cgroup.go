package bookkeeping

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/loykin/rdaemon/internal/proc"
)

const (
	// DefaultCgroupMount is the cgroup v2 unified hierarchy mount point.
	DefaultCgroupMount = "/sys/fs/cgroup"
	// DefaultGroupRoot is the sub-hierarchy all daemon groups live under.
	DefaultGroupRoot = "rdaemons"

	procsFile = "cgroup.procs"
)

// CgroupBackend keeps one cgroup per daemon:
// <mount>/<root>/<sub_path>/<name>. The current process joins the group
// before detaching, so every descendant inherits membership and the whole
// tree can be enumerated and bulk-signaled without per-child registration.
type CgroupBackend struct {
	Mount string
	Root  string
}

// NewCgroup returns a group backend on the given mount point (the v2
// hierarchy by default).
func NewCgroup(mount string) *CgroupBackend {
	if mount == "" {
		mount = DefaultCgroupMount
	}
	return &CgroupBackend{Mount: mount, Root: DefaultGroupRoot}
}

func (b *CgroupBackend) groupDir(name, subPath string) (string, error) {
	if err := validName(name); err != nil {
		return "", fmt.Errorf("%w: daemon name %q", err, name)
	}
	if err := validSubPath(subPath); err != nil {
		return "", fmt.Errorf("%w: sub path %q", err, subPath)
	}
	return filepath.Join(b.Mount, b.Root, subPath, name), nil
}

func (b *CgroupBackend) Daemonize(name, subPath string) error {
	dir, err := b.groupDir(name, subPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	// Joining the group here is what makes children tracked for free:
	// cgroup membership propagates to every process forked afterwards.
	return writeProcs(filepath.Join(dir, procsFile), os.Getpid())
}

func (b *CgroupBackend) PIDs(name, subPath string) ([]int, error) {
	dir, err := b.groupDir(name, subPath)
	if err != nil {
		return nil, err
	}
	pids, err := readProcs(filepath.Join(dir, procsFile))
	if err != nil {
		return nil, fmt.Errorf("%w: no cgroup %s", ErrNotActive, dir)
	}
	if len(pids) == 0 {
		// Empty group: every member exited. Remove the husk.
		removeGroupTree(dir)
		return nil, fmt.Errorf("%w: cgroup %s has no members", ErrNotActive, dir)
	}
	return pids, nil
}

func (b *CgroupBackend) IsRunning(name, subPath string) bool {
	pids, err := b.PIDs(name, subPath)
	return err == nil && len(pids) > 0
}

func (b *CgroupBackend) Kill(name, subPath string, sig syscall.Signal) bool {
	pids, err := b.PIDs(name, subPath)
	if err != nil {
		return false
	}
	proc.KillMany(pids, sig)
	if sig == ConfirmSignal {
		if dir, err := b.groupDir(name, subPath); err == nil {
			removeGroupTree(dir)
		}
	}
	return true
}

func (b *CgroupBackend) KillAll(subPath string, sig syscall.Signal) {
	if validSubPath(subPath) != nil {
		return
	}
	root := filepath.Join(b.Mount, b.Root, subPath)
	pids := hierarchyProcs(root)
	proc.KillMany(pids, sig)
	if sig == ConfirmSignal {
		removeGroupTree(root)
	}
}

func (b *CgroupBackend) ClearEmpty(subPath string) {
	if subPath == "" || validSubPath(subPath) != nil {
		return
	}
	_ = os.Remove(filepath.Join(b.Mount, b.Root, subPath))
}

func (b *CgroupBackend) Release(name, subPath string) {
	// Best-effort: the group cannot be removed while we are still a
	// member, but a reparented process (or an empty group) can be.
	if dir, err := b.groupDir(name, subPath); err == nil {
		removeGroupTree(dir)
	}
}

func writeProcs(path string, pid int) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o640)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = f.WriteString(strconv.Itoa(pid) + "\n")
	return err
}

func readProcs(path string) ([]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pids []int
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil || pid <= 0 {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// hierarchyProcs collects every member PID in the group tree rooted at dir.
func hierarchyProcs(dir string) []int {
	var pids []int
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != procsFile {
			return nil
		}
		if got, err := readProcs(path); err == nil {
			pids = append(pids, got...)
		}
		return nil
	})
	return pids
}

// removeGroupTree removes a cgroup directory tree bottom-up. Cgroup
// directories only answer to rmdir, so each level is removed with
// os.Remove after its children. All errors are swallowed.
func removeGroupTree(dir string) {
	var dirs []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		} else {
			// Real cgroup control files refuse unlink; fake hierarchies
			// in tests use regular files that must go before rmdir.
			_ = os.Remove(path)
		}
		return nil
	})
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, d := range dirs {
		_ = os.Remove(d)
	}
}
