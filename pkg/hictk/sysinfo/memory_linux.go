//go:build linux

package sysinfo

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

func detectSystemMemory() (total int64, available int64) {
	file, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, 0
	}
	defer file.Close()

	var memTotal, memAvailable, memFree, buffers, cached int64
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		key := strings.TrimSuffix(fields[0], ":")
		value, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch key {
		case "MemTotal":
			memTotal = value * 1024
		case "MemAvailable":
			memAvailable = value * 1024
		case "MemFree":
			memFree = value * 1024
		case "Buffers":
			buffers = value * 1024
		case "Cached":
			cached = value * 1024
		}
	}

	if memTotal > 0 && memAvailable == 0 {
		memAvailable = memFree + buffers + cached
	}
	return memTotal, memAvailable
}
