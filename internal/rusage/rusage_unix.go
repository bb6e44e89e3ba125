//go:build unix

package rusage

import (
	"runtime"

	"golang.org/x/sys/unix"
)

const supported = true

// PeakRSS returns the peak resident set size of the process in bytes, or 0
// if it cannot be determined.
func PeakRSS() uint64 {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil || ru.Maxrss < 0 {
		return 0
	}
	rss := uint64(ru.Maxrss)
	// Darwin reports bytes, everyone else kilobytes.
	if runtime.GOOS != "darwin" && runtime.GOOS != "ios" {
		rss *= 1024
	}
	return rss
}
