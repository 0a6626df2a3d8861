package hictk

// PixelIterator is the forward iteration contract every selector and
// transformer honors. Advance with Next; the zero value returned by
// Next()==false is undefined and callers must stop consuming.
type PixelIterator[N Number] interface {
	// Next advances the iterator. It returns false at end of stream or
	// on error; callers must then check Err.
	Next() bool
	// Pixel returns the current pixel. Only valid after a Next call
	// that returned true.
	Pixel() ThinPixel[N]
	// Err returns the first error encountered, if any.
	Err() error
	// Close releases any resources (e.g. cache single-flight slots)
	// held by the iterator. Safe to call multiple times.
	Close() error
}

// sliceIterator adapts a pre-materialized slice to PixelIterator. Used
// by tests and by callers that already hold a collected slice (the
// sample command feeds one to PixelRandomSampler).
type sliceIterator[N Number] struct {
	pixels []ThinPixel[N]
	pos    int
}

// NewSliceIterator returns a PixelIterator over an already-sorted slice
// of pixels.
func NewSliceIterator[N Number](pixels []ThinPixel[N]) PixelIterator[N] {
	return &sliceIterator[N]{pixels: pixels, pos: -1}
}

func (it *sliceIterator[N]) Next() bool {
	it.pos++
	return it.pos < len(it.pixels)
}

func (it *sliceIterator[N]) Pixel() ThinPixel[N] { return it.pixels[it.pos] }
func (it *sliceIterator[N]) Err() error           { return nil }
func (it *sliceIterator[N]) Close() error         { return nil }

// Collect drains it into a slice. Intended for tests and for the dense
// materialization adapter (§4.11).
func Collect[N Number](it PixelIterator[N]) ([]ThinPixel[N], error) {
	var out []ThinPixel[N]
	for it.Next() {
		out = append(out, it.Pixel())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
