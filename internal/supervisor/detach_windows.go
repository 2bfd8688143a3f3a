//go:build windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// configureDetachAttrs starts the child in its own process group without
// a console window.
func configureDetachAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | 0x08000000, // CREATE_NO_WINDOW
	}
}

// resetUmask is a no-op: Windows has no file-creation mask.
func resetUmask() {}
