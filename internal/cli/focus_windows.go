//go:build windows

package cli

import "os"

// focusEvents never fires on Windows, which has no job-control signals.
func focusEvents() (<-chan os.Signal, func()) {
	return nil, func() {}
}
