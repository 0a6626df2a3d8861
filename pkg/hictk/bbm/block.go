package bbm

import (
	"bytes"
	"compress/zlib"
	"math"

	"github.com/hictk-go/hictk/pkg/hictk"
	"github.com/hictk-go/hictk/pkg/hictk/storage"
)

const (
	blockType1 = 1 // dense-by-row
	blockType2 = 2 // list-of-triples
)

// shortCountSentinel marks an empty cell in a short (int16) encoded
// count field (spec §4.4).
const shortCountSentinel = math.MinInt16

// decodeBlock decompresses and parses one block body. diagonalBlock must
// be true only for the block sitting on the diagonal of an
// intra-chromosomal pair's grid (row == col); every off-diagonal block
// of an upper-triangular grid already has bin1 ≤ bin2 by construction.
func decodeBlock(store storage.ChunkedStore, entry BlockIndexEntry, diagonalBlock bool) (*hictk.InteractionBlock, error) {
	raw, err := store.ReadRange(entry.Offset, int64(entry.CompressedSize))
	if err != nil {
		return nil, ioErrf(err, "read block at offset %d", entry.Offset)
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, corruptf("block at offset %d is not valid zlib: %v", entry.Offset, err)
	}
	defer zr.Close()

	c := storage.NewCursor(zr, byteOrder)
	nRecords := c.Int32()
	if nRecords < 0 || nRecords > maxReasonableCount {
		return nil, corruptf("implausible block record count %d", nRecords)
	}
	bin1Offset := c.Int32()
	bin2Offset := c.Int32()
	typ := c.Uint8()

	var pixels []hictk.ThinPixel[float64]
	switch typ {
	case blockType1:
		pixels, err = decodeType1(c, int64(bin1Offset), int64(bin2Offset))
	case blockType2:
		pixels, err = decodeType2(c, int64(bin1Offset), int64(bin2Offset))
	default:
		return nil, corruptf("unknown block encoding type %d at offset %d", typ, entry.Offset)
	}
	if err != nil {
		return nil, err
	}
	if c.Err() != nil {
		return nil, ioErrf(c.Err(), "parse block body")
	}

	if diagonalBlock {
		for i, p := range pixels {
			if p.Bin1ID > p.Bin2ID {
				pixels[i].Bin1ID, pixels[i].Bin2ID = p.Bin2ID, p.Bin1ID
			}
		}
	}

	return &hictk.InteractionBlock{Pixels: pixels, SizeBytes: int64(len(raw))}, nil
}

// decodeType1 reads the dense-by-row encoding. The row count and each
// row's column count are structural fields and always full width;
// useShortBin1/useShortBin2 narrow only the row and column bin
// *offsets*, useShortCount narrows the value (spec §4.4).
func decodeType1(c *storage.Cursor, bin1Offset, bin2Offset int64) ([]hictk.ThinPixel[float64], error) {
	useShortBin1 := c.Bool()
	useShortBin2 := c.Bool()
	useShortCount := c.Bool()

	totalRows := c.Int32()
	if totalRows < 0 || totalRows > maxReasonableCount {
		return nil, corruptf("implausible row count %d in type-1 block", totalRows)
	}

	var pixels []hictk.ThinPixel[float64]
	for r := int32(0); r < totalRows; r++ {
		var rowIdx int64
		if useShortBin1 {
			rowIdx = int64(c.Int16())
		} else {
			rowIdx = int64(c.Int32())
		}
		bin1 := bin1Offset + rowIdx

		colCount := c.Int32()
		if colCount < 0 || colCount > maxReasonableCount {
			return nil, corruptf("implausible column count %d in type-1 block row", colCount)
		}
		for i := int32(0); i < colCount; i++ {
			var colIdx int64
			if useShortBin2 {
				colIdx = int64(c.Int16())
			} else {
				colIdx = int64(c.Int32())
			}
			value, empty := readCount(c, useShortCount)
			if empty {
				continue
			}
			pixels = append(pixels, hictk.ThinPixel[float64]{
				Bin1ID: uint64(bin1),
				Bin2ID: uint64(bin2Offset + colIdx),
				Count:  value,
			})
		}
	}
	return pixels, nil
}

func decodeType2(c *storage.Cursor, bin1Offset, bin2Offset int64) ([]hictk.ThinPixel[float64], error) {
	nPoints := c.Int32()
	if nPoints < 0 || nPoints > maxReasonableCount {
		return nil, corruptf("implausible point count %d in type-2 block", nPoints)
	}
	wCols := int64(c.Int16())
	useShortCount := c.Bool()
	if wCols <= 0 {
		return nil, corruptf("non-positive column width %d in type-2 block", wCols)
	}

	pixels := make([]hictk.ThinPixel[float64], 0, nPoints)
	for i := int32(0); i < nPoints; i++ {
		pointIdx := int64(c.Int32())
		value, empty := readCount(c, useShortCount)
		if empty {
			continue
		}
		row := pointIdx / wCols
		col := pointIdx - row*wCols
		pixels = append(pixels, hictk.ThinPixel[float64]{
			Bin1ID: uint64(bin1Offset + row),
			Bin2ID: uint64(bin2Offset + col),
			Count:  value,
		})
	}
	return pixels, nil
}

// readCount reads one count field, returning (0, true) for a sentinel
// "empty cell" value that the caller should skip.
func readCount(c *storage.Cursor, useShort bool) (float64, bool) {
	if useShort {
		v := c.Int16()
		if v == shortCountSentinel {
			return 0, true
		}
		return float64(v), false
	}
	v := c.Float32()
	if v != v { // NaN
		return 0, true
	}
	return float64(v), false
}
