package hictk

import (
	"math/rand"
	"sort"
)

// Integer is the subset of Number that PixelRandomSampler accepts.
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint
}

// joinIterator adapts a ThinPixel stream to a Pixel stream by resolving
// bin ids against a BinTable.
type joinIterator[N Number] struct {
	src  PixelIterator[N]
	bins *BinTable
	cur  Pixel[N]
	err  error
}

// JoinGenomicCoords wraps src, resolving each pixel's bin1/bin2 ids into
// full Bin records via bins.
func JoinGenomicCoords[N Number](src PixelIterator[N], bins *BinTable) *joinIterator[N] {
	return &joinIterator[N]{src: src, bins: bins}
}

func (it *joinIterator[N]) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.src.Next() {
		it.err = it.src.Err()
		return false
	}
	p := it.src.Pixel()
	b1, err := it.bins.BinByID(p.Bin1ID)
	if err != nil {
		it.err = err
		return false
	}
	b2, err := it.bins.BinByID(p.Bin2ID)
	if err != nil {
		it.err = err
		return false
	}
	it.cur = Pixel[N]{Bin1: b1, Bin2: b2, Count: p.Count}
	return true
}

func (it *joinIterator[N]) Pixel() Pixel[N] { return it.cur }
func (it *joinIterator[N]) Err() error      { return it.err }
func (it *joinIterator[N]) Close() error    { return it.src.Close() }

// coarsenIterator implements the read-ahead-into-a-row-buffer strategy:
// it accumulates all source pixels that map to the same destination
// bin1 row, sorts the row by destination bin2 (distinct source bin1
// rows collapsing into one destination row can interleave in bin2
// space once divided, so arrival order alone does not put equal
// destination bin2s next to each other), merges adjacent equal-bin2
// entries, then flushes the row before pulling the next one.
type coarsenIterator[N Number] struct {
	src     PixelIterator[N]
	srcBins *BinTable
	dstBins *BinTable
	factor  uint32

	row    []ThinPixel[N]
	pos    int
	pushed *ThinPixel[N] // one pixel read past the current row, held for the next row
	err    error
	done   bool
}

// CoarsenPixels rebins src (whose bins are described by srcBins) to a
// bin size srcBins.BinSize() * factor. factor must be a positive
// integer; the spec conservatively rejects non-integer multiples (see
// the Open Question in SPEC_FULL.md), so factor is taken as a whole
// number by construction.
func CoarsenPixels[N Number](src PixelIterator[N], srcBins *BinTable, factor uint32) (PixelIterator[N], *BinTable, error) {
	if factor == 0 {
		return nil, nil, newErr(KindInvalidArgument, "coarsening factor must be positive")
	}
	dstBins, err := NewBinTable(srcBins.Reference(), srcBins.BinSize()*factor)
	if err != nil {
		return nil, nil, err
	}
	if factor == 1 {
		return src, dstBins, nil
	}
	return &coarsenIterator[N]{src: src, srcBins: srcBins, dstBins: dstBins, factor: factor}, dstBins, nil
}

func (it *coarsenIterator[N]) dstOf(globalID uint64) (uint64, error) {
	bin, err := it.srcBins.BinByID(globalID)
	if err != nil {
		return 0, err
	}
	return it.dstBins.GlobalID(bin.Chrom, bin.RelID/uint64(it.factor)), nil
}

func (it *coarsenIterator[N]) fillRow() bool {
	it.row = it.row[:0]
	it.pos = 0

	var rowBin1 uint64
	var have bool

	if it.pushed != nil {
		d1, err := it.dstOf(it.pushed.Bin1ID)
		if err != nil {
			it.err = err
			return false
		}
		d2, err := it.dstOf(it.pushed.Bin2ID)
		if err != nil {
			it.err = err
			return false
		}
		rowBin1 = d1
		it.row = append(it.row, ThinPixel[N]{Bin1ID: d1, Bin2ID: d2, Count: it.pushed.Count})
		it.pushed = nil
		have = true
	}

	for it.src.Next() {
		p := it.src.Pixel()
		d1, err := it.dstOf(p.Bin1ID)
		if err != nil {
			it.err = err
			return false
		}
		d2, err := it.dstOf(p.Bin2ID)
		if err != nil {
			it.err = err
			return false
		}
		if !have {
			rowBin1 = d1
			have = true
		} else if d1 != rowBin1 {
			cp := ThinPixel[N]{Bin1ID: d1, Bin2ID: d2, Count: p.Count}
			it.pushed = &cp
			break
		}
		it.row = append(it.row, ThinPixel[N]{Bin1ID: d1, Bin2ID: d2, Count: p.Count})
	}
	if it.err = it.src.Err(); it.err != nil {
		return false
	}

	sort.Slice(it.row, func(i, j int) bool { return it.row[i].Bin2ID < it.row[j].Bin2ID })

	// merge adjacent equal-bin2 entries
	merged := it.row[:0]
	for _, p := range it.row {
		if n := len(merged); n > 0 && merged[n-1].Bin2ID == p.Bin2ID {
			merged[n-1].Count += p.Count
			continue
		}
		merged = append(merged, p)
	}
	it.row = merged

	return len(it.row) > 0
}

func (it *coarsenIterator[N]) Next() bool {
	if it.err != nil || it.done {
		return false
	}
	for it.pos >= len(it.row) {
		if !it.fillRow() {
			it.done = true
			return false
		}
	}
	it.pos++
	return true
}

func (it *coarsenIterator[N]) Pixel() ThinPixel[N] { return it.row[it.pos-1] }
func (it *coarsenIterator[N]) Err() error          { return it.err }
func (it *coarsenIterator[N]) Close() error        { return it.src.Close() }

// samplerIterator implements PixelRandomSampler.
type samplerIterator[N Integer] struct {
	src      PixelIterator[N]
	fraction float64
	rng      *rand.Rand
	cur      ThinPixel[N]
	err      error
}

// PixelRandomSampler draws count' ~ Binomial(count, fraction) for each
// input pixel and emits it with the thinned count when count' > 0.
// Given the same seed and the same input sequence, two runs produce
// identical output.
func PixelRandomSampler[N Integer](src PixelIterator[N], fraction float64, seed int64) PixelIterator[N] {
	return &samplerIterator[N]{
		src:      src,
		fraction: fraction,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

func (it *samplerIterator[N]) Next() bool {
	if it.err != nil {
		return false
	}
	for it.src.Next() {
		p := it.src.Pixel()
		thinned := binomial(it.rng, int64(p.Count), it.fraction)
		if thinned <= 0 {
			continue
		}
		it.cur = ThinPixel[N]{Bin1ID: p.Bin1ID, Bin2ID: p.Bin2ID, Count: N(thinned)}
		return true
	}
	it.err = it.src.Err()
	return false
}

func (it *samplerIterator[N]) Pixel() ThinPixel[N] { return it.cur }
func (it *samplerIterator[N]) Err() error          { return it.err }
func (it *samplerIterator[N]) Close() error        { return it.src.Close() }

// binomial draws a Binomial(n, p) sample by direct Bernoulli summation.
// Hi-C pixel counts are small enough in practice (rarely beyond a few
// thousand) that this is both exact and fast; a normal or Poisson
// approximation would trade exactness for speed we don't need here.
func binomial(rng *rand.Rand, n int64, p float64) int64 {
	if p <= 0 || n <= 0 {
		return 0
	}
	if p >= 1 {
		return n
	}
	var successes int64
	for i := int64(0); i < n; i++ {
		if rng.Float64() < p {
			successes++
		}
	}
	return successes
}
