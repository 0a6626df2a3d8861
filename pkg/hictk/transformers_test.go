package hictk

import "testing"

func TestJoinGenomicCoords(t *testing.T) {
	ref := testReference(t)
	bt, _ := NewBinTable(ref, 100)
	src := NewSliceIterator([]ThinPixel[int32]{
		{Bin1ID: 0, Bin2ID: 10, Count: 5},
	})
	it := JoinGenomicCoords[int32](src, bt)
	if !it.Next() {
		t.Fatalf("Next() = false, err: %v", it.Err())
	}
	p := it.Pixel()
	if p.Bin1.Chrom.Name != "chr1" || p.Bin2.Chrom.Name != "chr2" || p.Count != 5 {
		t.Errorf("got %+v", p)
	}
	if it.Next() {
		t.Fatal("expected exactly one pixel")
	}
}

func TestCoarsenPixelsIdentityAtFactorOne(t *testing.T) {
	ref := testReference(t)
	bt, _ := NewBinTable(ref, 100)
	src := NewSliceIterator([]ThinPixel[int32]{{Bin1ID: 0, Bin2ID: 1, Count: 3}})
	out, dst, err := CoarsenPixels[int32](src, bt, 1)
	if err != nil {
		t.Fatalf("CoarsenPixels: %v", err)
	}
	if dst.BinSize() != 100 {
		t.Errorf("expected unchanged bin size, got %d", dst.BinSize())
	}
	pixels, err := Collect[int32](out)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(pixels) != 1 || pixels[0].Count != 3 {
		t.Errorf("got %+v", pixels)
	}
}

func TestCoarsenPixelsMergesAndSums(t *testing.T) {
	ref := testReference(t)
	bt, _ := NewBinTable(ref, 100) // chr1 has 10 bins of 100bp each
	// bins 0 and 1 (0-100, 100-200) both fall into dst bin 0 at factor 2
	src := NewSliceIterator([]ThinPixel[int32]{
		{Bin1ID: 0, Bin2ID: 0, Count: 2},
		{Bin1ID: 0, Bin2ID: 1, Count: 3},
		{Bin1ID: 1, Bin2ID: 1, Count: 4},
		{Bin1ID: 2, Bin2ID: 2, Count: 1},
	})
	out, dst, err := CoarsenPixels[int32](src, bt, 2)
	if err != nil {
		t.Fatalf("CoarsenPixels: %v", err)
	}
	if dst.BinSize() != 200 {
		t.Fatalf("expected coarsened bin size 200, got %d", dst.BinSize())
	}
	pixels, err := Collect[int32](out)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	// dst bin 0 = src bins {0,1}; the first three source pixels all map
	// to (dstBin1=0, dstBin2=0) and must be summed to 2+3+4=9
	if len(pixels) != 2 {
		t.Fatalf("got %d pixels, want 2: %+v", len(pixels), pixels)
	}
	if pixels[0].Bin1ID != 0 || pixels[0].Bin2ID != 0 || pixels[0].Count != 9 {
		t.Errorf("first pixel = %+v, want {0 0 9}", pixels[0])
	}
	if pixels[1].Bin1ID != 1 || pixels[1].Bin2ID != 1 || pixels[1].Count != 1 {
		t.Errorf("second pixel = %+v, want {1 1 1}", pixels[1])
	}
}

// TestCoarsenPixelsMergesAcrossInterleavedSourceRows covers two distinct
// source bin1 rows collapsing into the same destination row whose bin2
// ranges interleave once floor-divided: row bin1=2 emits bin2={2,3,4,9}
// and row bin1=3 emits bin2={3,4,5,9}; concatenated in arrival order the
// destination bin2 sequence is 1,1,2,4,1,2,2,4 — not sorted — so a
// merge-adjacent pass without a prior sort would leave duplicate,
// out-of-order (dstBin1,dstBin2) entries instead of summing them.
func TestCoarsenPixelsMergesAcrossInterleavedSourceRows(t *testing.T) {
	ref := testReference(t)
	bt, _ := NewBinTable(ref, 100) // chr1 has 10 bins of 100bp each
	src := NewSliceIterator([]ThinPixel[int32]{
		{Bin1ID: 2, Bin2ID: 2, Count: 10},
		{Bin1ID: 2, Bin2ID: 3, Count: 20},
		{Bin1ID: 2, Bin2ID: 4, Count: 30},
		{Bin1ID: 2, Bin2ID: 9, Count: 40},
		{Bin1ID: 3, Bin2ID: 3, Count: 100},
		{Bin1ID: 3, Bin2ID: 4, Count: 200},
		{Bin1ID: 3, Bin2ID: 5, Count: 300},
		{Bin1ID: 3, Bin2ID: 9, Count: 400},
	})
	out, _, err := CoarsenPixels[int32](src, bt, 2)
	if err != nil {
		t.Fatalf("CoarsenPixels: %v", err)
	}
	pixels, err := Collect[int32](out)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := []ThinPixel[int32]{
		{Bin1ID: 1, Bin2ID: 1, Count: 130}, // 10+20+100
		{Bin1ID: 1, Bin2ID: 2, Count: 530}, // 30+200+300
		{Bin1ID: 1, Bin2ID: 4, Count: 440}, // 40+400
	}
	if len(pixels) != len(want) {
		t.Fatalf("got %d pixels, want %d: %+v", len(pixels), len(want), pixels)
	}
	for i, w := range want {
		if pixels[i] != w {
			t.Errorf("pixel %d = %+v, want %+v", i, pixels[i], w)
		}
	}
}

func TestCoarsenPixelsRejectsZeroFactor(t *testing.T) {
	ref := testReference(t)
	bt, _ := NewBinTable(ref, 100)
	src := NewSliceIterator([]ThinPixel[int32]{})
	if _, _, err := CoarsenPixels[int32](src, bt, 0); err == nil {
		t.Fatal("expected error for zero coarsening factor")
	}
}

func TestPixelRandomSamplerReproducible(t *testing.T) {
	pixels := []ThinPixel[int32]{
		{Bin1ID: 0, Bin2ID: 0, Count: 1000},
		{Bin1ID: 0, Bin2ID: 1, Count: 500},
		{Bin1ID: 1, Bin2ID: 1, Count: 1},
	}
	run := func() []ThinPixel[int32] {
		src := NewSliceIterator(append([]ThinPixel[int32]{}, pixels...))
		out, err := Collect[int32](PixelRandomSampler[int32](src, 0.3, 42))
		if err != nil {
			t.Fatalf("Collect: %v", err)
		}
		return out
	}
	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("non-reproducible lengths: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("pixel %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestPixelRandomSamplerFullFractionPreservesCounts(t *testing.T) {
	src := NewSliceIterator([]ThinPixel[int32]{{Bin1ID: 0, Bin2ID: 0, Count: 42}})
	out, err := Collect[int32](PixelRandomSampler[int32](src, 1.0, 1))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(out) != 1 || out[0].Count != 42 {
		t.Errorf("got %+v, want count preserved at fraction 1.0", out)
	}
}

func TestPixelRandomSamplerZeroFractionDropsAll(t *testing.T) {
	src := NewSliceIterator([]ThinPixel[int32]{{Bin1ID: 0, Bin2ID: 0, Count: 42}})
	out, err := Collect[int32](PixelRandomSampler[int32](src, 0.0, 1))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("got %+v, want no pixels at fraction 0.0", out)
	}
}
