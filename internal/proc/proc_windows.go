//go:build windows

package proc

import "syscall"

var (
	kernel32             = syscall.NewLazyDLL("kernel32.dll")
	procOpenProcess      = kernel32.NewProc("OpenProcess")
	procTerminateProcess = kernel32.NewProc("TerminateProcess")
	procCloseHandle      = kernel32.NewProc("CloseHandle")
)

const (
	processTerminate        = 0x0001
	processQueryInformation = 0x0400
)

func pidAlive(pid int) bool {
	h, err := openProcess(processQueryInformation, uint32(pid))
	if err != nil {
		return false
	}
	closeHandle(h)
	return true
}

// killProcess terminates a Windows process by PID. Windows has no signal
// numbers; any signal other than the null probe maps to TerminateProcess.
func killProcess(pid int, sig syscall.Signal) error {
	if sig == 0 {
		if !pidAlive(pid) {
			return syscall.ESRCH
		}
		return nil
	}
	h, err := openProcess(processTerminate, uint32(pid))
	if err != nil {
		// The process is most likely already gone.
		return nil
	}
	defer closeHandle(h)
	ret, _, callErr := procTerminateProcess.Call(uintptr(h), uintptr(1))
	if ret == 0 {
		return callErr
	}
	return nil
}

// groupLeader has no procfs to consult on Windows; each pid is its own
// killable unit.
func groupLeader(pid int) int { return pid }

func openProcess(access uint32, pid uint32) (syscall.Handle, error) {
	ret, _, err := procOpenProcess.Call(uintptr(access), 0, uintptr(pid))
	if ret == 0 {
		return 0, err
	}
	return syscall.Handle(ret), nil
}

func closeHandle(h syscall.Handle) {
	_, _, _ = procCloseHandle.Call(uintptr(h))
}
