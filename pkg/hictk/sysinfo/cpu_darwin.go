//go:build darwin

package sysinfo

import "syscall"

// detectOptimalWorkers prefers Apple Silicon performance cores over
// efficiency cores for the CPU-bound block decode/coarsen work.
func detectOptimalWorkers() int {
	if n := sysctlCoreCount("hw.perflevel0.physicalcpu"); n > 0 {
		return n
	}
	return sysctlCoreCount("hw.physicalcpu")
}

func sysctlCoreCount(name string) int {
	result, err := syscall.Sysctl(name)
	if err != nil || len(result) == 0 {
		return 0
	}
	count := int(result[0])
	if len(result) > 1 {
		count |= int(result[1]) << 8
	}
	return count
}
