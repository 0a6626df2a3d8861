package hictk

import "testing"

func TestToCOODrainsSelector(t *testing.T) {
	want := []ThinPixel[float64]{
		{Bin1ID: 0, Bin2ID: 1, Count: 2},
		{Bin1ID: 1, Bin2ID: 1, Count: 3},
	}
	got, err := ToCOO[float64](NewSliceIterator(want))
	if err != nil {
		t.Fatalf("ToCOO: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d pixels, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pixel %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestToDenseRowMajorFillsOnlyPresentExtent(t *testing.T) {
	pixels := []ThinPixel[float64]{
		{Bin1ID: 5, Bin2ID: 5, Count: 1},
		{Bin1ID: 5, Bin2ID: 7, Count: 2},
		{Bin1ID: 6, Bin2ID: 6, Count: 3},
	}
	m, err := ToDenseRowMajor[float64](NewSliceIterator(pixels), 0)
	if err != nil {
		t.Fatalf("ToDenseRowMajor: %v", err)
	}
	if len(m) != 2 || len(m[0]) != 3 {
		t.Fatalf("matrix shape = %dx%d, want 2x3", len(m), len(m[0]))
	}
	if m[0][0] != 1 || m[0][2] != 2 || m[1][1] != 3 {
		t.Errorf("matrix = %+v, want diag/off-diag entries at (0,0)=1 (0,2)=2 (1,1)=3", m)
	}
}

func TestToDenseRowMajorEmptySelector(t *testing.T) {
	m, err := ToDenseRowMajor[float64](NewSliceIterator[float64](nil), 0)
	if err != nil {
		t.Fatalf("ToDenseRowMajor: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil matrix for an empty stream, got %+v", m)
	}
}

func TestToCOOGenomeWideConcatenatesInOrder(t *testing.T) {
	sources := [][]ThinPixel[float64]{
		{{Bin1ID: 0, Bin2ID: 0, Count: 1}},
		{{Bin1ID: 1, Bin2ID: 1, Count: 2}, {Bin1ID: 1, Bin2ID: 2, Count: 3}},
		{},
	}
	got, err := ToCOOGenomeWide[float64](len(sources), 2, func(i int) (PixelSelector[float64], error) {
		return NewSliceIterator(sources[i]), nil
	})
	if err != nil {
		t.Fatalf("ToCOOGenomeWide: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d pixels, want 3: %+v", len(got), got)
	}
}
