//go:build windows

package cmd

import (
	"os"
	"os/exec"
	"syscall"
)

// setDaemonAttrs is a no-op on Windows.
func setDaemonAttrs(_ *exec.Cmd) {}

// shutdownSignals returns the OS signals that stop the server gracefully.
func shutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

func sigTERM() syscall.Signal { return syscall.SIGTERM }

func sigKILL() syscall.Signal { return syscall.SIGKILL }
