//go:build darwin

package sysinfo

import "syscall"

func detectSystemMemory() (total int64, available int64) {
	raw, err := syscall.Sysctl("hw.memsize")
	if err != nil || len(raw) == 0 {
		return 0, 0
	}
	var memTotal uint64
	for i := 0; i < len(raw) && i < 8; i++ {
		memTotal |= uint64(raw[i]) << (uint(i) * 8)
	}
	total = int64(memTotal)
	// hw.memsize exposes no free/available counterpart through sysctl;
	// estimate conservatively rather than report zero.
	available = total * 3 / 4
	return total, available
}
