// Package sysinfo auto-detects worker counts and available memory for
// the load command's smart defaults, grounded on the teacher's
// per-platform cpu_*.go/memory_*.go detection files.
package sysinfo

import "runtime"

// DefaultWorkers returns the worker count load falls back to when
// --workers is left at zero: the platform's detected performance-core
// count where available, otherwise every logical CPU.
func DefaultWorkers() int {
	if n := detectOptimalWorkers(); n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// AvailableMemory reports total and currently-available system memory
// in bytes. Either value is zero when the platform detection fails,
// signaling callers to fall back to a fixed default budget rather than
// sizing off an unknown quantity.
func AvailableMemory() (total, available int64) {
	return detectSystemMemory()
}

// SpillThreshold returns the byte budget load should buffer unsorted
// pixels in before spilling a sorted run to disk: a quarter of detected
// available memory, or a conservative fixed fallback when memory
// detection is unavailable.
func SpillThreshold() int64 {
	_, available := AvailableMemory()
	if available <= 0 {
		return defaultSpillThreshold
	}
	return available / 4
}

const defaultSpillThreshold = 256 * 1024 * 1024
