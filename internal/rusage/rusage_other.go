//go:build !unix

package rusage

const supported = false

// PeakRSS always returns 0 on platforms without getrusage.
func PeakRSS() uint64 {
	return 0
}
