// Package ingest turns pairs-format text into a base-resolution MRES
// container, the Go-native counterpart of the reference implementation's
// load command. Column parsing is grounded on the four accepted formats
// (4dn, validpairs, bg2, coo); buffering, spill-to-disk, and parallel
// chunk handling are grounded on the teacher's spill.go and
// parallel_writer.go, repurposed to sort pixel records instead of reads.
package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hictk-go/hictk/pkg/hictk"
)

// Format identifies one of the four accepted pairs-text layouts.
type Format string

const (
	Format4DN        Format = "4dn"
	FormatValidPairs Format = "validpairs"
	FormatBG2        Format = "bg2"
	FormatCOO        Format = "coo"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case Format4DN, FormatValidPairs, FormatBG2, FormatCOO:
		return Format(s), nil
	default:
		return "", &hictk.Error{Kind: hictk.KindInvalidArgument, Msg: fmt.Sprintf("unknown pairs format %q (want one of 4dn, validpairs, bg2, coo)", s)}
	}
}

// Prebinned reports whether a format's records already carry bin ids
// rather than base-pair positions (bg2 rows are bin-boundary-aligned
// intervals, coo rows are bin ids outright).
func (f Format) Prebinned() bool {
	return f == FormatBG2 || f == FormatCOO
}

// AcceptsOneBased reports whether --one-based/--zero-based has any
// effect for f: HiC-Pro/4DN coordinates are conventionally one-based,
// bg2/coo are not coordinate pairs at all.
func (f Format) AcceptsOneBased() bool {
	return f == Format4DN || f == FormatValidPairs
}

// rawPair is one parsed input line before bin lookup.
type rawPair struct {
	chrom1, chrom2 string
	pos1, pos2     uint32 // base pairs for 4dn/validpairs; bin start for bg2
	bin1, bin2     uint64 // populated directly for coo
	count          float64
}

func splitFields(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool { return r == '\t' })
}

// parseLine parses one non-comment line of format f. oneBased shifts
// 4dn/validpairs positions down by one before binning.
func parseLine(f Format, line string, oneBased bool) (rawPair, error) {
	fields := splitFields(line)
	switch f {
	case Format4DN:
		return parse4DN(fields, oneBased)
	case FormatValidPairs:
		return parseValidPairs(fields, oneBased)
	case FormatBG2:
		return parseBG2(fields)
	case FormatCOO:
		return parseCOO(fields)
	default:
		return rawPair{}, fmt.Errorf("unreachable: unknown format %q", f)
	}
}

// parse4DN reads the 4D Nucleome pairs format: readID (the column must
// be present; its value is ignored) chrom1 pos1 chrom2 pos2 strand1
// strand2 ... Only the chrom/pos columns are consumed.
func parse4DN(fields []string, oneBased bool) (rawPair, error) {
	if len(fields) < 5 {
		return rawPair{}, fmt.Errorf("4dn record has %d fields, want at least 5", len(fields))
	}
	pos1, err := parseUint32(fields[2])
	if err != nil {
		return rawPair{}, fmt.Errorf("4dn pos1: %w", err)
	}
	pos2, err := parseUint32(fields[4])
	if err != nil {
		return rawPair{}, fmt.Errorf("4dn pos2: %w", err)
	}
	if oneBased {
		pos1, pos2 = shiftDown(pos1), shiftDown(pos2)
	}
	return rawPair{chrom1: fields[1], pos1: pos1, chrom2: fields[3], pos2: pos2, count: 1}, nil
}

// parseValidPairs reads HiC-Pro's validPairs layout: readID chrom1 pos1
// strand1 chrom2 pos2 strand2 fragSize1 fragSize2 ...
func parseValidPairs(fields []string, oneBased bool) (rawPair, error) {
	if len(fields) < 7 {
		return rawPair{}, fmt.Errorf("validpairs record has %d fields, want at least 7", len(fields))
	}
	pos1, err := parseUint32(fields[2])
	if err != nil {
		return rawPair{}, fmt.Errorf("validpairs pos1: %w", err)
	}
	pos2, err := parseUint32(fields[5])
	if err != nil {
		return rawPair{}, fmt.Errorf("validpairs pos2: %w", err)
	}
	if oneBased {
		pos1, pos2 = shiftDown(pos1), shiftDown(pos2)
	}
	return rawPair{chrom1: fields[1], pos1: pos1, chrom2: fields[4], pos2: pos2, count: 1}, nil
}

// parseBG2 reads bedGraph2-style pre-binned pairs: chrom1 start1 end1
// chrom2 start2 end2 count. start1/start2 are already bin-aligned.
func parseBG2(fields []string) (rawPair, error) {
	if len(fields) < 7 {
		return rawPair{}, fmt.Errorf("bg2 record has %d fields, want 7", len(fields))
	}
	start1, err := parseUint32(fields[1])
	if err != nil {
		return rawPair{}, fmt.Errorf("bg2 start1: %w", err)
	}
	start2, err := parseUint32(fields[4])
	if err != nil {
		return rawPair{}, fmt.Errorf("bg2 start2: %w", err)
	}
	count, err := strconv.ParseFloat(fields[6], 64)
	if err != nil {
		return rawPair{}, fmt.Errorf("bg2 count: %w", err)
	}
	return rawPair{chrom1: fields[0], pos1: start1, chrom2: fields[3], pos2: start2, count: count}, nil
}

// parseCOO reads already bin-indexed triplets: bin1_id bin2_id count.
func parseCOO(fields []string) (rawPair, error) {
	if len(fields) < 3 {
		return rawPair{}, fmt.Errorf("coo record has %d fields, want 3", len(fields))
	}
	bin1, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return rawPair{}, fmt.Errorf("coo bin1_id: %w", err)
	}
	bin2, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return rawPair{}, fmt.Errorf("coo bin2_id: %w", err)
	}
	count, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return rawPair{}, fmt.Errorf("coo count: %w", err)
	}
	return rawPair{bin1: bin1, bin2: bin2, count: count}, nil
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}

func shiftDown(pos uint32) uint32 {
	if pos == 0 {
		return 0
	}
	return pos - 1
}
