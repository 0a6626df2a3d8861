package bbm

import (
	"fmt"

	"github.com/hictk-go/hictk/pkg/hictk/storage"
)

// masterEntry is one row of the master index: the file offset and byte
// size of one chromosome pair's footer body.
type masterEntry struct {
	offset int64
	size   int32
}

// masterIndex maps "chromA_chromB" (chromA ≤ chromB, spec §6) to the
// pair's footer location.
type masterIndex map[string]masterEntry

func pairKey(chromA, chromB uint32) string {
	if chromA > chromB {
		chromA, chromB = chromB, chromA
	}
	return fmt.Sprintf("%d_%d", chromA, chromB)
}

func readMasterIndex(store storage.ChunkedStore, pos int64) (masterIndex, error) {
	r, err := store.NewReader(pos)
	if err != nil {
		return nil, ioErrf(err, "open master index reader at %d", pos)
	}
	defer r.Close()

	c := storage.NewCursor(r, byteOrder)
	n := c.Int32()
	if n < 0 || n > maxReasonableCount {
		return nil, corruptf("implausible master index entry count %d", n)
	}
	idx := make(masterIndex, n)
	for i := int32(0); i < n; i++ {
		key := c.CString()
		offset := c.Int64()
		size := c.Int32()
		idx[key] = masterEntry{offset: offset, size: size}
	}
	if c.Err() != nil {
		return nil, ioErrf(c.Err(), "parse master index")
	}
	return idx, nil
}

// BlockIndexEntry locates one compressed block within the file.
type BlockIndexEntry struct {
	ID             int32
	Offset         int64
	CompressedSize int32
}

// ResolutionFooter is the block index and normalization data for one
// (unit, resolution) pair within a chromosome-pair body (spec §4.4).
type ResolutionFooter struct {
	Unit             string
	Resolution       int32
	BlockBinSize     int32
	BlockColumnCount int32
	Blocks           map[int32]BlockIndexEntry

	// ExpectedValues holds intra-chromosomal expected counts indexed by
	// |bin2 - bin1|. Empty for inter-chromosomal pairs.
	ExpectedValues []float64
	// NormA and NormB are the per-bin normalization weight vectors for
	// chromA and chromB respectively, aligned to each chromosome's own
	// bin count. Empty when no normalization was computed for this pair.
	NormA []float64
	NormB []float64
}

// PairFooter is the fully parsed footer body for one chromosome pair,
// covering every resolution and unit stored for it.
type PairFooter struct {
	ChromAIdx   int32
	ChromBIdx   int32
	Resolutions []ResolutionFooter
}

// ByResolution finds the footer entry matching unit and resolution, or
// KindNotFound if this pair has nothing stored at that resolution.
func (p *PairFooter) ByResolution(unit string, resolution int32) (*ResolutionFooter, error) {
	for i := range p.Resolutions {
		rf := &p.Resolutions[i]
		if rf.Unit == unit && rf.Resolution == resolution {
			return rf, nil
		}
	}
	return nil, notFoundf("no footer for unit %q resolution %d", unit, resolution)
}

func readPairFooter(store storage.ChunkedStore, e masterEntry) (*PairFooter, error) {
	r, err := store.NewReader(e.offset)
	if err != nil {
		return nil, ioErrf(err, "open pair footer reader at %d", e.offset)
	}
	defer r.Close()

	c := storage.NewCursor(r, byteOrder)
	pf := &PairFooter{}
	pf.ChromAIdx = c.Int32()
	pf.ChromBIdx = c.Int32()

	nRes := c.Int32()
	if nRes < 0 || nRes > maxReasonableCount {
		return nil, corruptf("implausible per-pair resolution count %d", nRes)
	}
	pf.Resolutions = make([]ResolutionFooter, nRes)
	for i := int32(0); i < nRes; i++ {
		rf := &pf.Resolutions[i]
		rf.Unit = c.CString()
		rf.Resolution = c.Int32()
		rf.BlockBinSize = c.Int32()
		rf.BlockColumnCount = c.Int32()

		blockCount := c.Int32()
		if blockCount < 0 || blockCount > maxReasonableCount {
			return nil, corruptf("implausible block count %d", blockCount)
		}
		rf.Blocks = make(map[int32]BlockIndexEntry, blockCount)
		for j := int32(0); j < blockCount; j++ {
			id := c.Int32()
			off := c.Int64()
			size := c.Int32()
			rf.Blocks[id] = BlockIndexEntry{ID: id, Offset: off, CompressedSize: size}
		}

		rf.ExpectedValues = readFloat64Vector(c)
		rf.NormA = readFloat64Vector(c)
		rf.NormB = readFloat64Vector(c)
	}

	if c.Err() != nil {
		return nil, ioErrf(c.Err(), "parse pair footer")
	}
	return pf, nil
}

func readFloat64Vector(c *storage.Cursor) []float64 {
	n := c.Int32()
	if n <= 0 || n > maxReasonableCount {
		return nil
	}
	v := make([]float64, n)
	for i := range v {
		v[i] = c.Float64()
	}
	return v
}
