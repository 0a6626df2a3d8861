package hictk

import (
	"fmt"
	"strconv"
	"strings"
)

// GenomicInterval is a half-open [Start, End) span on one chromosome.
type GenomicInterval struct {
	Chrom Chromosome
	Start uint32
	End   uint32
}

func (iv GenomicInterval) String() string {
	return fmt.Sprintf("%s:%d-%d", iv.Chrom.Name, iv.Start, iv.End)
}

// ParseGenomicInterval accepts either UCSC-style ("chr1:1,000,000-2,000,000")
// or BED-style ("chr1\t1000000\t2000000") region strings.
func ParseGenomicInterval(ref *Reference, s string) (GenomicInterval, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "\t") || strings.Count(s, " ") >= 2 {
		return parseBED3(ref, s)
	}
	return parseUCSC(ref, s)
}

func parseUCSC(ref *Reference, s string) (GenomicInterval, error) {
	name, rest, ok := strings.Cut(s, ":")
	if !ok {
		chrom, err := ref.ChromosomeByName(s)
		if err != nil {
			return GenomicInterval{}, err
		}
		return GenomicInterval{Chrom: chrom, Start: 0, End: chrom.Length}, nil
	}
	chrom, err := ref.ChromosomeByName(name)
	if err != nil {
		return GenomicInterval{}, err
	}
	startStr, endStr, ok := strings.Cut(rest, "-")
	if !ok {
		return GenomicInterval{}, newErr(KindInvalidArgument, "malformed region %q: expected chr:start-end", s)
	}
	start, err := parseCoord(startStr)
	if err != nil {
		return GenomicInterval{}, newErr(KindInvalidArgument, "malformed region %q: %v", s, err)
	}
	end, err := parseCoord(endStr)
	if err != nil {
		return GenomicInterval{}, newErr(KindInvalidArgument, "malformed region %q: %v", s, err)
	}
	return newInterval(chrom, start, end)
}

func parseBED3(ref *Reference, s string) (GenomicInterval, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '\t' || r == ' ' })
	if len(fields) < 3 {
		return GenomicInterval{}, newErr(KindInvalidArgument, "malformed BED3 region %q", s)
	}
	chrom, err := ref.ChromosomeByName(fields[0])
	if err != nil {
		return GenomicInterval{}, err
	}
	start, err := parseCoord(fields[1])
	if err != nil {
		return GenomicInterval{}, newErr(KindInvalidArgument, "malformed BED3 region %q: %v", s, err)
	}
	end, err := parseCoord(fields[2])
	if err != nil {
		return GenomicInterval{}, newErr(KindInvalidArgument, "malformed BED3 region %q: %v", s, err)
	}
	return newInterval(chrom, start, end)
}

func parseCoord(s string) (uint32, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func newInterval(chrom Chromosome, start, end uint32) (GenomicInterval, error) {
	if start > end || end > chrom.Length {
		return GenomicInterval{}, newErr(KindInvalidArgument, "interval [%d, %d) is out of range for chromosome %q (length %d)", start, end, chrom.Name, chrom.Length)
	}
	return GenomicInterval{Chrom: chrom, Start: start, End: end}, nil
}

// Number is the set of arithmetic types a pixel count may hold.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint |
		~float32 | ~float64
}

// ThinPixel is a nonzero matrix cell. Within a diagonal block,
// Bin1ID <= Bin2ID; no such constraint holds across chromosomes.
type ThinPixel[N Number] struct {
	Bin1ID uint64
	Bin2ID uint64
	Count  N
}

// Pixel is a ThinPixel with its bin ids resolved to full Bin records.
type Pixel[N Number] struct {
	Bin1  Bin
	Bin2  Bin
	Count N
}

// NormalizationMethod names a per-bin correction vector, or NormNone to
// disable normalization.
type NormalizationMethod string

// NormNone disables normalization.
const NormNone NormalizationMethod = ""

// MatrixType selects the value kind a query returns.
type MatrixType int

const (
	// MatrixObserved returns the raw (optionally normalized) count.
	MatrixObserved MatrixType = iota
	// MatrixExpected returns the per-diagonal expected count.
	MatrixExpected
	// MatrixOE returns the observed-over-expected ratio.
	MatrixOE
)
