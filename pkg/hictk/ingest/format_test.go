package ingest

import "testing"

func TestParseFormatAcceptsKnownValues(t *testing.T) {
	for _, s := range []string{"4dn", "validpairs", "bg2", "coo"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q): %v", s, err)
		}
	}
}

func TestParseFormatRejectsUnknown(t *testing.T) {
	if _, err := ParseFormat("sam"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestParse4DNRecord(t *testing.T) {
	p, err := parse4DN(splitFields(".\tchr1\t1000\tchr2\t2000\t+\t-"), true)
	if err != nil {
		t.Fatalf("parse4DN: %v", err)
	}
	if p.chrom1 != "chr1" || p.pos1 != 999 || p.chrom2 != "chr2" || p.pos2 != 1999 {
		t.Errorf("parse4DN = %+v, want one-based shift applied", p)
	}
}

func TestParseValidPairsRecord(t *testing.T) {
	p, err := parseValidPairs(splitFields("readA\tchr1\t1000\t+\tchr2\t2000\t-\t100\t200"), false)
	if err != nil {
		t.Fatalf("parseValidPairs: %v", err)
	}
	if p.chrom1 != "chr1" || p.pos1 != 1000 || p.chrom2 != "chr2" || p.pos2 != 2000 {
		t.Errorf("parseValidPairs = %+v", p)
	}
}

func TestParseBG2Record(t *testing.T) {
	p, err := parseBG2(splitFields("chr1\t1000\t2000\tchr2\t3000\t4000\t5"))
	if err != nil {
		t.Fatalf("parseBG2: %v", err)
	}
	if p.chrom1 != "chr1" || p.pos1 != 1000 || p.chrom2 != "chr2" || p.pos2 != 3000 || p.count != 5 {
		t.Errorf("parseBG2 = %+v", p)
	}
}

func TestParseCOORecord(t *testing.T) {
	p, err := parseCOO(splitFields("10\t20\t3.5"))
	if err != nil {
		t.Fatalf("parseCOO: %v", err)
	}
	if p.bin1 != 10 || p.bin2 != 20 || p.count != 3.5 {
		t.Errorf("parseCOO = %+v", p)
	}
}

func TestPrebinnedAndOneBasedApplicability(t *testing.T) {
	if !FormatBG2.Prebinned() || !FormatCOO.Prebinned() {
		t.Error("bg2 and coo must report Prebinned()")
	}
	if Format4DN.Prebinned() || FormatValidPairs.Prebinned() {
		t.Error("4dn and validpairs must not report Prebinned()")
	}
	if !Format4DN.AcceptsOneBased() || !FormatValidPairs.AcceptsOneBased() {
		t.Error("4dn and validpairs must accept --one-based")
	}
	if FormatBG2.AcceptsOneBased() || FormatCOO.AcceptsOneBased() {
		t.Error("bg2 and coo must not accept --one-based")
	}
}
