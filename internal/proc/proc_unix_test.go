//go:build !windows

package proc

import (
	"os"
	"os/exec"
	"syscall"
	"testing"
	"time"
)

func TestGroupLeaderSelf(t *testing.T) {
	// The main goroutine's thread belongs to our own thread group, so the
	// leader of our pid is our pid (identity on systems without procfs).
	if got := groupLeader(os.Getpid()); got != os.Getpid() {
		t.Fatalf("leader of self = %d, want %d", got, os.Getpid())
	}
}

func TestKillManyTerminatesChild(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start helper process: %v", err)
	}
	pid := cmd.Process.Pid
	defer func() { _ = cmd.Process.Kill(); _, _ = cmd.Process.Wait() }()

	if !Alive(pid) {
		t.Fatalf("child must be alive after start")
	}
	KillMany([]int{pid, pid}, syscall.SIGKILL)
	_, _ = cmd.Process.Wait()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !Alive(pid) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("child still alive after KillMany")
}
