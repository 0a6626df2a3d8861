package bbm

import "testing"

// buildType1Block assembles a dense-by-row block body: two rows, using
// full-width offsets and short (int16) values.
func buildType1Block(t *testing.T) []byte {
	t.Helper()
	b := &fileBuilder{}
	b.i32(4) // nRecords
	b.i32(100) // bin1Offset
	b.i32(200) // bin2Offset
	b.u8(blockType1)
	b.boolean(false) // useShortBin1
	b.boolean(false) // useShortBin2
	b.boolean(true)  // useShortCount

	b.i32(2) // total rows
	// row 0: rowIdx=0 -> bin1=100
	b.i32(0)
	b.i32(2) // colCount
	b.i32(0)
	b.i16(5) // value
	b.i32(1)
	b.i16(shortCountSentinel) // sentinel, skipped
	// row 1: rowIdx=1 -> bin1=101
	b.i32(1)
	b.i32(1)
	b.i32(3)
	b.i16(9)

	return zlibCompress(b.bytes())
}

func buildType2Block(t *testing.T) []byte {
	t.Helper()
	b := &fileBuilder{}
	b.i32(3) // nRecords
	b.i32(100) // bin1Offset
	b.i32(200) // bin2Offset
	b.u8(blockType2)
	b.i32(3)  // nPoints
	b.i16(4)  // wCols
	b.boolean(false) // useShortCount (float32 values)

	// point 0 -> row 0, col 0 -> bin1=100, bin2=200
	b.i32(0)
	b.f32(1.5)
	// point 5 -> row 1, col 1 -> bin1=101, bin2=201
	b.i32(5)
	b.f32(2.5)
	// point 6 -> row 1, col 2 -> sentinel NaN, skipped
	b.i32(6)
	b.f32(nanFloat32())

	return zlibCompress(b.bytes())
}

func nanFloat32() float32 {
	var f float32
	return f / f // NaN without importing math in the test helper set
}

func TestDecodeBlockType1(t *testing.T) {
	raw := buildType1Block(t)
	store := &memStore{data: raw}
	blk, err := decodeBlock(store, BlockIndexEntry{Offset: 0, CompressedSize: int32(len(raw))}, false)
	if err != nil {
		t.Fatalf("decodeBlock: %v", err)
	}
	want := []struct{ bin1, bin2 uint64; count float64 }{
		{100, 200, 5},
		{101, 201, 9},
	}
	if len(blk.Pixels) != len(want) {
		t.Fatalf("got %d pixels, want %d: %+v", len(blk.Pixels), len(want), blk.Pixels)
	}
	for i, w := range want {
		p := blk.Pixels[i]
		if p.Bin1ID != w.bin1 || p.Bin2ID != w.bin2 || p.Count != w.count {
			t.Errorf("pixel %d = %+v, want {%d %d %v}", i, p, w.bin1, w.bin2, w.count)
		}
	}
}

func TestDecodeBlockType2(t *testing.T) {
	raw := buildType2Block(t)
	store := &memStore{data: raw}
	blk, err := decodeBlock(store, BlockIndexEntry{Offset: 0, CompressedSize: int32(len(raw))}, false)
	if err != nil {
		t.Fatalf("decodeBlock: %v", err)
	}
	if len(blk.Pixels) != 2 {
		t.Fatalf("got %d pixels, want 2 (NaN sentinel skipped): %+v", len(blk.Pixels), blk.Pixels)
	}
	if blk.Pixels[0].Bin1ID != 100 || blk.Pixels[0].Bin2ID != 200 || blk.Pixels[0].Count != 1.5 {
		t.Errorf("pixel 0 = %+v", blk.Pixels[0])
	}
	if blk.Pixels[1].Bin1ID != 101 || blk.Pixels[1].Bin2ID != 201 || blk.Pixels[1].Count != 2.5 {
		t.Errorf("pixel 1 = %+v", blk.Pixels[1])
	}
}

// buildType2BlockAsymmetric covers a point index whose quotient and
// remainder differ (pointIdx=3, wCols=4 -> row=0, col=3), which the
// swapped-field regression this guards against would decode with
// bin1/bin2 transposed.
func buildType2BlockAsymmetric(t *testing.T) []byte {
	t.Helper()
	b := &fileBuilder{}
	b.i32(1) // nRecords
	b.i32(100) // bin1Offset
	b.i32(200) // bin2Offset
	b.u8(blockType2)
	b.i32(1)  // nPoints
	b.i16(4)  // wCols
	b.boolean(false) // useShortCount (float32 values)

	// point 3 -> row 0, col 3 -> bin1=100, bin2=203
	b.i32(3)
	b.f32(4.5)

	return zlibCompress(b.bytes())
}

func TestDecodeBlockType2QuotientRemainderDiffer(t *testing.T) {
	raw := buildType2BlockAsymmetric(t)
	store := &memStore{data: raw}
	blk, err := decodeBlock(store, BlockIndexEntry{Offset: 0, CompressedSize: int32(len(raw))}, false)
	if err != nil {
		t.Fatalf("decodeBlock: %v", err)
	}
	if len(blk.Pixels) != 1 {
		t.Fatalf("got %d pixels, want 1: %+v", len(blk.Pixels), blk.Pixels)
	}
	if blk.Pixels[0].Bin1ID != 100 || blk.Pixels[0].Bin2ID != 203 {
		t.Errorf("pixel = %+v, want {Bin1ID:100 Bin2ID:203}: row (quotient) must go to Bin1ID, col (remainder) to Bin2ID", blk.Pixels[0])
	}
}

func TestDecodeBlockDiagonalFlip(t *testing.T) {
	b := &fileBuilder{}
	b.i32(1)
	b.i32(0) // bin1Offset
	b.i32(0) // bin2Offset
	b.u8(blockType1)
	b.boolean(false)
	b.boolean(false)
	b.boolean(true)
	b.i32(1) // one row
	b.i32(5) // rowIdx -> bin1=5
	b.i32(1) // one column
	b.i32(2) // colIdx -> bin2=2, so bin1(5) > bin2(2)
	b.i16(7)
	raw := zlibCompress(b.bytes())

	store := &memStore{data: raw}
	blk, err := decodeBlock(store, BlockIndexEntry{Offset: 0, CompressedSize: int32(len(raw))}, true)
	if err != nil {
		t.Fatalf("decodeBlock: %v", err)
	}
	if len(blk.Pixels) != 1 {
		t.Fatalf("got %d pixels, want 1", len(blk.Pixels))
	}
	if blk.Pixels[0].Bin1ID != 2 || blk.Pixels[0].Bin2ID != 5 {
		t.Errorf("diagonal flip did not swap bin1/bin2: got %+v", blk.Pixels[0])
	}
}

func TestDecodeBlockRejectsBadZlib(t *testing.T) {
	store := &memStore{data: []byte{0x00, 0x01, 0x02, 0x03}}
	if _, err := decodeBlock(store, BlockIndexEntry{Offset: 0, CompressedSize: 4}, false); err == nil {
		t.Fatal("expected error for non-zlib payload")
	}
}
