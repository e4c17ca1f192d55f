//go:build !windows

package cli

import (
	"os"
	"os/signal"
	"syscall"
)

// focusEvents delivers a value every time the process is resumed.
func focusEvents() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGCONT)
	return ch, func() { signal.Stop(ch) }
}
