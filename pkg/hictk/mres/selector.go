package mres

import "github.com/hictk-go/hictk/pkg/hictk"

// Selector implements hictk.PixelIterator[float64] over one resolution
// group, walking indexes/bin1_offset one bin1 value at a time (spec
// §4.3, step 2). Each bin1's pixel range is already ascending in
// bin2_id, and bin1 only increases as the selector advances, so the
// output is emitted in final sorted order without buffering a row.
type Selector struct {
	res  *Resolution
	a, b hictk.PixelCoordinates
	wA   []float64 // nil disables normalization
	wB   []float64

	b1               uint64 // next bin1 value to open
	pos, hiPos       uint64
	inRange          bool
	cur              hictk.ThinPixel[float64]
	err              error
}

func (s *Selector) advanceRow() bool {
	for s.b1 < s.a.Hi {
		lo := s.res.bin1Offset[s.b1]
		hi := s.res.bin1Offset[s.b1+1]
		s.b1++
		if lo < hi {
			s.pos, s.hiPos = lo, hi
			return true
		}
	}
	return false
}

func (s *Selector) Next() bool {
	if s.err != nil {
		return false
	}
	for {
		if !s.inRange {
			if !s.advanceRow() {
				return false
			}
			s.inRange = true
		}
		for s.pos < s.hiPos {
			i := s.pos
			s.pos++
			bin2 := s.res.pixelBin2[i]
			if bin2 < s.b.Lo || bin2 >= s.b.Hi {
				continue
			}
			bin1 := s.res.pixelBin1[i]
			count := s.res.pixelCount[i]
			if s.wA != nil {
				if bin1 >= uint64(len(s.wA)) || bin2 >= uint64(len(s.wB)) {
					s.err = corruptf("normalization vector shorter than bin table")
					return false
				}
				count = count / (s.wA[bin1] * s.wB[bin2])
			}
			s.cur = hictk.ThinPixel[float64]{Bin1ID: bin1, Bin2ID: bin2, Count: count}
			return true
		}
		s.inRange = false
	}
}

func (s *Selector) Pixel() hictk.ThinPixel[float64] { return s.cur }
func (s *Selector) Err() error                      { return s.err }
func (s *Selector) Close() error                    { return nil }
