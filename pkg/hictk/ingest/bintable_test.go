package ingest

import (
	"strings"
	"testing"
)

func TestParseChromSizesParsesNameLengthPairs(t *testing.T) {
	r := strings.NewReader("chr1\t1000\nchr2\t2000\n# comment\n\nchrX\t500\n")
	ref, err := ParseChromSizes(r)
	if err != nil {
		t.Fatalf("ParseChromSizes: %v", err)
	}
	if ref.Len() != 3 {
		t.Fatalf("ref.Len() = %d, want 3", ref.Len())
	}
	chr2, err := ref.ChromosomeByName("chr2")
	if err != nil || chr2.Length != 2000 {
		t.Errorf("chr2 = %+v, err=%v, want length 2000", chr2, err)
	}
}

func TestParseChromSizesRejectsMalformedLine(t *testing.T) {
	r := strings.NewReader("chr1\tnotanumber\n")
	if _, err := ParseChromSizes(r); err == nil {
		t.Fatal("expected error for non-numeric length")
	}
}

func TestParseBinTableDerivesUniformWidth(t *testing.T) {
	r := strings.NewReader("chr1\t0\t1000\nchr1\t1000\t2000\nchr2\t0\t1000\nchr2\t1000\t1500\n")
	ref, width, err := ParseBinTable(r)
	if err != nil {
		t.Fatalf("ParseBinTable: %v", err)
	}
	if width != 1000 {
		t.Errorf("width = %d, want 1000", width)
	}
	if ref.Len() != 2 {
		t.Fatalf("ref.Len() = %d, want 2", ref.Len())
	}
	chr2, err := ref.ChromosomeByName("chr2")
	if err != nil || chr2.Length != 1500 {
		t.Errorf("chr2 = %+v, err=%v, want length 1500 (trailing truncated bin)", chr2, err)
	}
}

func TestParseBinTableRejectsWiderThanFirstSeen(t *testing.T) {
	r := strings.NewReader("chr1\t0\t1000\nchr1\t1000\t3000\n")
	if _, _, err := ParseBinTable(r); err == nil {
		t.Fatal("expected error for a bin wider than the first-seen width")
	}
}

func TestParseBinTableRejectsEmptyInput(t *testing.T) {
	if _, _, err := ParseBinTable(strings.NewReader("")); err == nil {
		t.Fatal("expected error for an empty bin table")
	}
}

func TestParseBinTableRejectsEndBeforeStart(t *testing.T) {
	r := strings.NewReader("chr1\t1000\t500\n")
	if _, _, err := ParseBinTable(r); err == nil {
		t.Fatal("expected error when end <= start")
	}
}
