package hictk

import "testing"

func TestParseGenomicIntervalUCSC(t *testing.T) {
	ref := testReference(t)
	iv, err := ParseGenomicInterval(ref, "chr1:1,000-2,000")
	if err != nil {
		t.Fatalf("ParseGenomicInterval: %v", err)
	}
	if iv.Start != 1000 || iv.End != 2000 || iv.Chrom.Name != "chr1" {
		t.Errorf("got %+v", iv)
	}
}

func TestParseGenomicIntervalWholeChromosome(t *testing.T) {
	ref := testReference(t)
	iv, err := ParseGenomicInterval(ref, "chr2")
	if err != nil {
		t.Fatalf("ParseGenomicInterval: %v", err)
	}
	if iv.Start != 0 || iv.End != 550 {
		t.Errorf("got %+v, want whole-chromosome span", iv)
	}
}

func TestParseGenomicIntervalBED3(t *testing.T) {
	ref := testReference(t)
	iv, err := ParseGenomicInterval(ref, "chr1\t100\t200")
	if err != nil {
		t.Fatalf("ParseGenomicInterval: %v", err)
	}
	if iv.Start != 100 || iv.End != 200 {
		t.Errorf("got %+v", iv)
	}
}

func TestParseGenomicIntervalRejectsOutOfRange(t *testing.T) {
	ref := testReference(t)
	if _, err := ParseGenomicInterval(ref, "chr1:0-5000"); err == nil {
		t.Fatal("expected error for interval past chromosome end")
	}
}

func TestParseGenomicIntervalRejectsUnknownChrom(t *testing.T) {
	ref := testReference(t)
	if _, err := ParseGenomicInterval(ref, "chrX:0-100"); err == nil {
		t.Fatal("expected error for unknown chromosome")
	}
}

func TestParseGenomicIntervalRejectsReversedRange(t *testing.T) {
	ref := testReference(t)
	if _, err := ParseGenomicInterval(ref, "chr1:200-100"); err == nil {
		t.Fatal("expected error for start > end")
	}
}
