// Package rusage reports process memory usage for search resource limits.
package rusage

// Supported reports whether PeakRSS returns real measurements on this
// platform.
func Supported() bool {
	return supported
}
