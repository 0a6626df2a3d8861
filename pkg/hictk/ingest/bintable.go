package ingest

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/hictk-go/hictk/pkg/hictk"
)

// ParseChromSizes reads a two-column "name\tlength" file, the format
// produced by UCSC's fetchChromSizes and expected as load's first
// positional argument.
func ParseChromSizes(r io.Reader) (*hictk.Reference, error) {
	scanner := bufio.NewScanner(r)
	var chroms []hictk.Chromosome
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, invalidArgf("malformed chrom.sizes line %q", line)
		}
		length, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, invalidArgf("malformed chrom.sizes line %q: %v", line, err)
		}
		chroms = append(chroms, hictk.Chromosome{Name: fields[0], Length: uint32(length)})
	}
	if err := scanner.Err(); err != nil {
		return nil, ioErrf(err, "read chrom.sizes")
	}
	return hictk.NewReference(chroms)
}

// ParseBinTable reads a BED3+ bin table into a Reference and a uniform
// bin size: the first bin's width becomes the bin size, and the file is
// rejected if any later bin is wider. A narrower bin is accepted
// wherever it appears, which covers a chromosome's trailing, truncated
// bin. hictk-go's Bin is fixed-width by construction, so genuinely
// irregular bin tables are out of scope.
func ParseBinTable(r io.Reader) (*hictk.Reference, uint32, error) {
	scanner := bufio.NewScanner(r)
	var (
		chroms   []hictk.Chromosome
		byName   = make(map[string]int)
		binWidth uint32
	)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, 0, invalidArgf("malformed bin table line %q", line)
		}
		start, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, 0, invalidArgf("malformed bin table line %q: %v", line, err)
		}
		end, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return nil, 0, invalidArgf("malformed bin table line %q: %v", line, err)
		}
		if end <= start {
			return nil, 0, invalidArgf("malformed bin table line %q: end <= start", line)
		}
		width := uint32(end - start)
		if binWidth == 0 {
			binWidth = width
		} else if width > binWidth {
			return nil, 0, invalidArgf("bin table has non-uniform bin width (%d vs %d); hictk-go only supports fixed-width bin tables", width, binWidth)
		}
		// width < binWidth is tolerated: it is the trailing, truncated bin
		// of a chromosome whose length isn't a multiple of binWidth, the
		// same shape hictk.BinTable.AtHint itself produces.
		idx, ok := byName[fields[0]]
		if !ok {
			byName[fields[0]] = len(chroms)
			chroms = append(chroms, hictk.Chromosome{Name: fields[0], Length: uint32(end)})
		} else if uint32(end) > chroms[idx].Length {
			chroms[idx].Length = uint32(end)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, ioErrf(err, "read bin table")
	}
	if binWidth == 0 {
		return nil, 0, invalidArgf("bin table is empty")
	}
	ref, err := hictk.NewReference(chroms)
	if err != nil {
		return nil, 0, err
	}
	return ref, binWidth, nil
}
