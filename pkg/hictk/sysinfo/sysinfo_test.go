package sysinfo

import "testing"

func TestDefaultWorkersIsPositive(t *testing.T) {
	if n := DefaultWorkers(); n <= 0 {
		t.Fatalf("DefaultWorkers() = %d, want > 0", n)
	}
}

func TestSpillThresholdIsPositive(t *testing.T) {
	if n := SpillThreshold(); n <= 0 {
		t.Fatalf("SpillThreshold() = %d, want > 0", n)
	}
}

func TestAvailableMemoryNeverNegative(t *testing.T) {
	total, available := AvailableMemory()
	if total < 0 || available < 0 {
		t.Fatalf("AvailableMemory() = (%d, %d), want non-negative", total, available)
	}
}
