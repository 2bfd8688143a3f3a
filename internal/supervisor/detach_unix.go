//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// configureDetachAttrs puts the child in a new session so it survives
// the parent's terminal going away.
func configureDetachAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}

// resetUmask clears the file-creation mask inherited from the launcher
// so the daemon's permission bits are exactly what it asks for.
func resetUmask() {
	syscall.Umask(0)
}
