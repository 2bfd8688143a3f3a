package bookkeeping

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/loykin/rdaemon/internal/proc"
)

// DefaultFileRoot is where PID files live unless configured otherwise.
var DefaultFileRoot = filepath.Join(os.TempDir(), "rdaemons")

// FileBackend keeps one PID file per daemon under Root, with sub-path
// groups as subdirectories: <root>/<sub_path>/<name>.pid, content a
// decimal PID followed by newline.
type FileBackend struct {
	Root string
}

// NewFile returns a file backend rooted at root, or DefaultFileRoot when
// root is empty.
func NewFile(root string) *FileBackend {
	if root == "" {
		root = DefaultFileRoot
	}
	return &FileBackend{Root: root}
}

func (b *FileBackend) pidFile(name, subPath string) (string, error) {
	if err := validName(name); err != nil {
		return "", fmt.Errorf("%w: daemon name %q", err, name)
	}
	if err := validSubPath(subPath); err != nil {
		return "", fmt.Errorf("%w: sub path %q", err, subPath)
	}
	return filepath.Join(b.Root, subPath, name+".pid"), nil
}

func (b *FileBackend) Daemonize(name, subPath string) error {
	path, err := b.pidFile(name, subPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o640)
}

func (b *FileBackend) PIDs(name, subPath string) ([]int, error) {
	path, err := b.pidFile(name, subPath)
	if err != nil {
		return nil, err
	}
	pid, err := readPIDFile(path)
	if err != nil {
		return nil, err
	}
	return []int{pid}, nil
}

func (b *FileBackend) IsRunning(name, subPath string) bool {
	path, err := b.pidFile(name, subPath)
	if err != nil {
		return false
	}
	pid, err := readPIDFile(path)
	if err != nil {
		return false
	}
	if !proc.Alive(pid) {
		// Stale record: the process died without cleanup.
		_ = os.Remove(path)
		return false
	}
	return true
}

func (b *FileBackend) Kill(name, subPath string, sig syscall.Signal) bool {
	path, err := b.pidFile(name, subPath)
	if err != nil {
		return false
	}
	return killByPIDFile(path, sig)
}

func (b *FileBackend) KillAll(subPath string, sig syscall.Signal) {
	if validSubPath(subPath) != nil {
		return
	}
	dir := filepath.Join(b.Root, subPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".pid") {
			continue
		}
		killByPIDFile(filepath.Join(dir, e.Name()), sig)
	}
}

func (b *FileBackend) ClearEmpty(subPath string) {
	if subPath == "" || validSubPath(subPath) != nil {
		return
	}
	// Only succeeds when empty; errors are housekeeping noise.
	_ = os.Remove(filepath.Join(b.Root, subPath))
}

func (b *FileBackend) Release(name, subPath string) {
	if path, err := b.pidFile(name, subPath); err == nil {
		_ = os.Remove(path)
	}
}

// readPIDFile parses a PID file written by Daemonize. Missing,
// unreadable, or non-integer content all map to ErrNotActive.
func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: no pid file %s", ErrNotActive, path)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%w: malformed pid file %s", ErrNotActive, path)
	}
	return pid, nil
}

func killByPIDFile(path string, sig syscall.Signal) bool {
	pid, err := readPIDFile(path)
	if err != nil {
		return false
	}
	ok := proc.Kill(pid, sig)
	if ok && sig == ConfirmSignal {
		_ = os.Remove(path)
	}
	return ok
}
