package ingest

import "github.com/hictk-go/hictk/pkg/hictk"

// toPixel resolves a rawPair against bins, canonicalizing to the
// upper-triangular orientation (bin1 <= bin2) the MRES/BBM writers
// require.
func toPixel(f Format, bins *hictk.BinTable, p rawPair) (hictk.ThinPixel[float64], error) {
	var bin1, bin2 uint64
	if f.Prebinned() {
		if f == FormatCOO {
			bin1, bin2 = p.bin1, p.bin2
		} else {
			b1, b2, err := binBG2(bins, p)
			if err != nil {
				return hictk.ThinPixel[float64]{}, err
			}
			bin1, bin2 = b1, b2
		}
	} else {
		b1, b2, err := binPositions(bins, p)
		if err != nil {
			return hictk.ThinPixel[float64]{}, err
		}
		bin1, bin2 = b1, b2
	}
	if bin1 > bin2 {
		bin1, bin2 = bin2, bin1
	}
	return hictk.ThinPixel[float64]{Bin1ID: bin1, Bin2ID: bin2, Count: p.count}, nil
}

func binPositions(bins *hictk.BinTable, p rawPair) (bin1, bin2 uint64, err error) {
	chrom1, err := bins.Reference().ChromosomeByName(p.chrom1)
	if err != nil {
		return 0, 0, err
	}
	chrom2, err := bins.Reference().ChromosomeByName(p.chrom2)
	if err != nil {
		return 0, 0, err
	}
	b1, err := bins.BinAt(chrom1, p.pos1)
	if err != nil {
		return 0, 0, err
	}
	b2, err := bins.BinAt(chrom2, p.pos2)
	if err != nil {
		return 0, 0, err
	}
	return bins.GlobalID(chrom1, b1.RelID), bins.GlobalID(chrom2, b2.RelID), nil
}

func binBG2(bins *hictk.BinTable, p rawPair) (bin1, bin2 uint64, err error) {
	return binPositions(bins, p)
}
