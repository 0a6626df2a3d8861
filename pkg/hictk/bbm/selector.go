package bbm

import (
	"sort"

	"github.com/hictk-go/hictk/pkg/hictk"
	"github.com/hictk-go/hictk/pkg/hictk/storage"
)

// Selector implements hictk.PixelIterator[float64] over one BBM
// chromosome-pair footer, walking the block grid one row at a time
// (spec §4.6: "groups blocks that share a row of the grid... sorts
// them, emits them, then advances to the next row").
type Selector struct {
	store  storage.ChunkedStore
	cache  *hictk.BlockCache
	footer *ResolutionFooter
	bins   *hictk.BinTable

	chromA, chromB hictk.Chromosome
	aLo, aHi       uint64 // bin-within-chromosome bounds for the a axis, half-open
	bLo, bHi       uint64 // bin-within-chromosome bounds for the b axis, half-open

	matrixType hictk.MatrixType
	normMethod hictk.NormalizationMethod
	interAvg   float64 // used for EXPECTED/OE when chromA != chromB

	rows   []int64
	rowIdx int
	buf    []hictk.ThinPixel[float64]
	bufPos int
	err    error
}

// NewSelector builds a Selector over the given resolution footer,
// restricted to the bin ranges [aLo,aHi) of chromA and [bLo,bHi) of
// chromB (both expressed as bin offsets within their own chromosome,
// not global ids).
func NewSelector(
	store storage.ChunkedStore,
	cache *hictk.BlockCache,
	bins *hictk.BinTable,
	footer *ResolutionFooter,
	chromA, chromB hictk.Chromosome,
	aLo, aHi, bLo, bHi uint64,
	matrixType hictk.MatrixType,
	normMethod hictk.NormalizationMethod,
	interAvg float64,
) (*Selector, error) {
	if chromA.ID == chromB.ID && aLo > bLo {
		return nil, &hictk.Error{Kind: hictk.KindInvalidQuery, Msg: "intra-chromosomal query is below the diagonal"}
	}
	if normMethod != hictk.NormNone && matrixType != hictk.MatrixExpected {
		if len(footer.NormA) == 0 || len(footer.NormB) == 0 {
			return nil, &hictk.Error{Kind: hictk.KindNotFound, Msg: "normalization weights unavailable for this resolution"}
		}
	}

	bb := uint64(footer.BlockBinSize)
	if bb == 0 {
		return nil, corruptf("block bin size is zero")
	}
	rowLo := aLo / bb
	rowHi := (aHi - 1) / bb
	rows := make([]int64, 0, rowHi-rowLo+1)
	for r := rowLo; r <= rowHi; r++ {
		rows = append(rows, int64(r))
	}

	return &Selector{
		store: store, cache: cache, footer: footer, bins: bins,
		chromA: chromA, chromB: chromB,
		aLo: aLo, aHi: aHi, bLo: bLo, bHi: bHi,
		matrixType: matrixType, normMethod: normMethod, interAvg: interAvg,
		rows: rows,
	}, nil
}

func (s *Selector) blockKey(id int32) hictk.BlockKey {
	return hictk.BlockKey{ChromA: s.chromA.ID, ChromB: s.chromB.ID, BlockID: uint32(id)}
}

// prefetchWorkers bounds how many blocks a single row warms concurrently;
// a row rarely spans more than a handful of blocks, so this stays small
// rather than scaling with GOMAXPROCS.
const prefetchWorkers = 4

// prefetchRow warms the cache for every block touched by the row ids
// computed in fillRow, decoding misses concurrently so the row's
// sequential pixel-filter loop below mostly hits warm entries. Ids with
// no footer entry are silently skipped, same as loadBlock's ok=false path.
func (s *Selector) prefetchRow(ids []int32) {
	present := make([]int32, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.footer.Blocks[id]; ok {
			present = append(present, id)
		}
	}
	if len(present) < 2 {
		return
	}
	keys := make([]hictk.BlockKey, len(present))
	for i, id := range present {
		keys[i] = s.blockKey(id)
	}
	_ = s.cache.Prefetch(keys, prefetchWorkers, func(key hictk.BlockKey) (*hictk.InteractionBlock, error) {
		id := int32(key.BlockID)
		entry := s.footer.Blocks[id]
		diagonal := s.chromA.ID == s.chromB.ID && id/s.footer.BlockColumnCount == id%s.footer.BlockColumnCount
		return decodeBlock(s.store, entry, diagonal)
	})
}

func (s *Selector) loadBlock(id int32) (*hictk.InteractionBlock, bool, error) {
	entry, ok := s.footer.Blocks[id]
	if !ok {
		return nil, false, nil
	}
	diagRow := id / s.footer.BlockColumnCount
	diagCol := id % s.footer.BlockColumnCount
	diagonal := s.chromA.ID == s.chromB.ID && diagRow == diagCol
	blk, err := s.cache.GetOrLoad(s.blockKey(id), func(hictk.BlockKey) (*hictk.InteractionBlock, error) {
		return decodeBlock(s.store, entry, diagonal)
	})
	return blk, true, err
}

func (s *Selector) fillRow() bool {
	if s.rowIdx >= len(s.rows) {
		return false
	}
	row := s.rows[s.rowIdx]
	s.rowIdx++

	bb := int64(s.footer.BlockBinSize)
	colLo := int64(s.bLo) / bb
	colHi := (int64(s.bHi) - 1) / bb

	ids := make([]int32, 0, colHi-colLo+1)
	for col := colLo; col <= colHi; col++ {
		storedRow, storedCol := row, col
		if storedRow > storedCol {
			storedRow, storedCol = storedCol, storedRow
		}
		ids = append(ids, int32(storedRow*int64(s.footer.BlockColumnCount)+storedCol))
	}
	s.prefetchRow(ids)

	var rowPixels []hictk.ThinPixel[float64]
	for col := colLo; col <= colHi; col++ {
		storedRow, storedCol := row, col
		transpose := false
		if storedRow > storedCol {
			storedRow, storedCol = storedCol, storedRow
			transpose = true
		}
		id := int32(storedRow*int64(s.footer.BlockColumnCount) + storedCol)
		blk, ok, err := s.loadBlock(id)
		if err != nil {
			s.err = err
			return false
		}
		if !ok {
			continue
		}
		for _, p := range blk.Pixels {
			bin1, bin2 := p.Bin1ID, p.Bin2ID
			if transpose {
				bin1, bin2 = bin2, bin1
			}
			if bin1 < s.aLo || bin1 >= s.aHi || bin2 < s.bLo || bin2 >= s.bHi {
				continue
			}
			count, err := s.transform(bin1, bin2, p.Count)
			if err != nil {
				s.err = err
				return false
			}
			rowPixels = append(rowPixels, hictk.ThinPixel[float64]{
				Bin1ID: s.bins.GlobalID(s.chromA, bin1),
				Bin2ID: s.bins.GlobalID(s.chromB, bin2),
				Count:  count,
			})
		}
	}
	sort.Slice(rowPixels, func(i, j int) bool {
		if rowPixels[i].Bin1ID != rowPixels[j].Bin1ID {
			return rowPixels[i].Bin1ID < rowPixels[j].Bin1ID
		}
		return rowPixels[i].Bin2ID < rowPixels[j].Bin2ID
	})
	s.buf = rowPixels
	s.bufPos = 0
	return true
}

// transform applies the normalization and observed/expected/OE
// transform described in spec §4.6. bin1/bin2 are bin-within-chromosome
// offsets (not global ids).
func (s *Selector) transform(bin1, bin2 uint64, count float64) (float64, error) {
	if s.normMethod != hictk.NormNone && s.matrixType != hictk.MatrixExpected {
		if bin1 >= uint64(len(s.footer.NormA)) || bin2 >= uint64(len(s.footer.NormB)) {
			return 0, corruptf("normalization vector shorter than chromosome bin count")
		}
		count = count / (s.footer.NormA[bin1] * s.footer.NormB[bin2])
	}
	switch s.matrixType {
	case hictk.MatrixObserved:
		return count, nil
	case hictk.MatrixExpected, hictk.MatrixOE:
		var expected float64
		if s.chromA.ID == s.chromB.ID {
			d := bin2 - bin1
			if bin1 > bin2 {
				d = bin1 - bin2
			}
			if d >= uint64(len(s.footer.ExpectedValues)) {
				return 0, corruptf("expected-value vector shorter than required diagonal distance")
			}
			expected = s.footer.ExpectedValues[d]
		} else {
			expected = s.interAvg
		}
		if s.matrixType == hictk.MatrixExpected {
			return expected, nil
		}
		if expected == 0 {
			return 0, nil
		}
		return count / expected, nil
	default:
		return count, nil
	}
}

func (s *Selector) Next() bool {
	if s.err != nil {
		return false
	}
	for s.bufPos >= len(s.buf) {
		if !s.fillRow() {
			return false
		}
	}
	s.bufPos++
	return true
}

func (s *Selector) Pixel() hictk.ThinPixel[float64] { return s.buf[s.bufPos-1] }
func (s *Selector) Err() error                      { return s.err }
func (s *Selector) Close() error                    { return nil }
