package hictk

import "github.com/pbenner/threadpool"

// PixelSelector is any pixel stream a dense materializer can drain: a
// BBM/MRES Selector or a transformer chained on top of one.
type PixelSelector[N Number] PixelIterator[N]

// ToCOO drains sel into a triplet slice. It is a thin, non-lazy
// collector: everything except iteration and append is left to the
// caller.
func ToCOO[N Number](sel PixelSelector[N]) ([]ThinPixel[N], error) {
	return Collect[N](sel)
}

// ToDenseRowMajor drains sel into a row-major matrix sized to the bin
// extent actually present in the stream. dtype only fixes the type
// parameter for callers that can't otherwise let it be inferred; its
// value is unused. Bounded to a single chromosome pair's bin extent, as
// sel itself is expected to be (spec: out of scope for anything
// resembling a numerical library).
func ToDenseRowMajor[N Number](sel PixelSelector[N], dtype N) ([][]N, error) {
	pixels, err := Collect[N](sel)
	if err != nil {
		return nil, err
	}
	if len(pixels) == 0 {
		return nil, nil
	}
	minB1, maxB1 := pixels[0].Bin1ID, pixels[0].Bin1ID
	minB2, maxB2 := pixels[0].Bin2ID, pixels[0].Bin2ID
	for _, p := range pixels[1:] {
		if p.Bin1ID < minB1 {
			minB1 = p.Bin1ID
		}
		if p.Bin1ID > maxB1 {
			maxB1 = p.Bin1ID
		}
		if p.Bin2ID < minB2 {
			minB2 = p.Bin2ID
		}
		if p.Bin2ID > maxB2 {
			maxB2 = p.Bin2ID
		}
	}
	rows := int(maxB1-minB1) + 1
	cols := int(maxB2-minB2) + 1
	m := make([][]N, rows)
	for i := range m {
		m[i] = make([]N, cols)
	}
	for _, p := range pixels {
		m[p.Bin1ID-minB1][p.Bin2ID-minB2] = p.Count
	}
	return m, nil
}

// ToCOOGenomeWide fans a set of independent chromosome-pair fetches out
// across a bounded worker pool, grounded on pbenner/threadpool's
// RangeJob usage for per-item concurrent work (pbenner-gonetics'
// countKmers), then concatenates each pair's triplets in fetch order.
// fetch(i) must be safe to call concurrently from any worker and own
// whatever selector state it opens; ToCOOGenomeWide closes it once
// drained.
func ToCOOGenomeWide[N Number](pairCount, workers int, fetch func(i int) (PixelSelector[N], error)) ([]ThinPixel[N], error) {
	if pairCount == 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = 1
	}
	results := make([][]ThinPixel[N], pairCount)
	pool := threadpool.New(workers, 2*workers)
	err := pool.RangeJob(0, pairCount, func(i int, pool threadpool.ThreadPool, erf func() error) error {
		sel, err := fetch(i)
		if err != nil {
			return err
		}
		defer sel.Close()
		px, err := Collect[N](sel)
		if err != nil {
			return err
		}
		results[i] = px
		return nil
	})
	if err != nil {
		return nil, err
	}
	var out []ThinPixel[N]
	for _, px := range results {
		out = append(out, px...)
	}
	return out, nil
}
