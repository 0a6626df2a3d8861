// Package bbm reads the legacy monolithic Hi-C binary format (spec §4.4):
// a single file carrying a header, a master index of per-resolution
// chromosome-pair footers, a block index per footer, and zlib-compressed
// block bodies. Byte layout and block encodings are grounded on
// nimezhu-indexed/hic (hic.go's readFooter, block.go's getBlock), reworked
// to use pkg/hictk/storage.Cursor instead of the netio free functions and
// to return typed pixels instead of a gonum dense matrix.
package bbm

import (
	"github.com/hictk-go/hictk/pkg/hictk"
	"github.com/hictk-go/hictk/pkg/hictk/storage"
)

const magic = "HIC\x00"

// Header describes the fixed, once-read-at-open portion of a BBM file:
// the format version, the master index location, and the chromosome
// list from which every resolution's bin table is derived.
type Header struct {
	Version         int32
	MasterIndexPos  int64
	GenomeID        string
	Attributes      map[string]string
	Chroms          []hictk.Chromosome
	BPResolutions   []int32
	FragResolutions []int32
}

// readHeader parses the header starting at offset 0 of store.
func readHeader(store storage.ChunkedStore) (*Header, error) {
	r, err := store.NewReader(0)
	if err != nil {
		return nil, ioErrf(err, "open header reader")
	}
	defer r.Close()

	c := storage.NewCursor(r, byteOrder)
	buf := make([]byte, 4)
	if _, err := ioReadFull(r, buf); err != nil {
		return nil, ioErrf(err, "read magic")
	}
	if string(buf) != magic {
		return nil, corruptf("not a BBM file (bad magic %q)", buf)
	}

	// magic already consumed directly from r; resume cursor-based reads
	// for the remaining fixed-then-variable fields.
	h := &Header{}
	h.Version = c.Int32()
	h.MasterIndexPos = c.Int64()
	h.GenomeID = c.CString()

	nAttrs := c.Int32()
	if nAttrs < 0 || nAttrs > maxReasonableCount {
		return nil, corruptf("implausible attribute count %d", nAttrs)
	}
	h.Attributes = make(map[string]string, nAttrs)
	for i := int32(0); i < nAttrs; i++ {
		k := c.CString()
		v := c.CString()
		h.Attributes[k] = v
	}

	nChroms := c.Int32()
	if nChroms < 0 || nChroms > maxReasonableCount {
		return nil, corruptf("implausible chromosome count %d", nChroms)
	}
	h.Chroms = make([]hictk.Chromosome, nChroms)
	for i := int32(0); i < nChroms; i++ {
		name := c.CString()
		var length uint32
		if h.Version >= wideChromLengthVersion {
			length = uint32(c.Int64())
		} else {
			length = uint32(c.Int32())
		}
		h.Chroms[i] = hictk.Chromosome{ID: uint32(i), Name: name, Length: length}

		nRes := c.Int32()
		if nRes < 0 || nRes > maxReasonableCount {
			return nil, corruptf("implausible resolution count %d for chromosome %q", nRes, name)
		}
		for j := int32(0); j < nRes; j++ {
			h.BPResolutions = appendUnique(h.BPResolutions, c.Int32())
		}

		nFrag := c.Int32()
		if nFrag < 0 || nFrag > maxReasonableCount {
			return nil, corruptf("implausible fragment resolution count %d for chromosome %q", nFrag, name)
		}
		for j := int32(0); j < nFrag; j++ {
			h.FragResolutions = appendUnique(h.FragResolutions, c.Int32())
		}
	}

	if c.Err() != nil {
		return nil, ioErrf(c.Err(), "parse header")
	}
	return h, nil
}

func appendUnique(s []int32, v int32) []int32 {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

// Reference builds a hictk.Reference from the header's chromosome list.
// The header carries only zero-length chromosomes that BBM uses as a
// sentinel "All" entry in some producers; those are dropped.
func (h *Header) Reference() (*hictk.Reference, error) {
	var chroms []hictk.Chromosome
	for _, c := range h.Chroms {
		if c.Length == 0 {
			continue
		}
		chroms = append(chroms, c)
	}
	return hictk.NewReference(chroms)
}

func ioReadFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
