package hictk

import "sort"

// Chromosome is one entry of a Reference. Ids are dense and assigned in
// declaration order; names are unique within a Reference.
type Chromosome struct {
	ID     uint32
	Name   string
	Length uint32
}

// Reference is an ordered, immutable list of chromosomes.
type Reference struct {
	chroms  []Chromosome
	byName  map[string]uint32
	offsets []uint32 // not populated; BinTable keeps its own per-chromosome bin offsets
}

// NewReference builds a Reference from an ordered chromosome list. It
// fails with KindInvalidArgument if any name is duplicated or any length
// is zero.
func NewReference(chroms []Chromosome) (*Reference, error) {
	byName := make(map[string]uint32, len(chroms))
	out := make([]Chromosome, len(chroms))
	for i, c := range chroms {
		if c.Length == 0 {
			return nil, newErr(KindInvalidArgument, "chromosome %q has zero length", c.Name)
		}
		if _, dup := byName[c.Name]; dup {
			return nil, newErr(KindInvalidArgument, "duplicate chromosome name %q", c.Name)
		}
		c.ID = uint32(i)
		byName[c.Name] = c.ID
		out[i] = c
	}
	return &Reference{chroms: out, byName: byName}, nil
}

// Len returns the number of chromosomes.
func (r *Reference) Len() int { return len(r.chroms) }

// ChromosomeByID returns the chromosome with the given id.
func (r *Reference) ChromosomeByID(id uint32) (Chromosome, error) {
	if int(id) >= len(r.chroms) {
		return Chromosome{}, newErr(KindInvalidArgument, "chromosome id %d out of range", id)
	}
	return r.chroms[id], nil
}

// ChromosomeByName looks up a chromosome by name.
func (r *Reference) ChromosomeByName(name string) (Chromosome, error) {
	id, ok := r.byName[name]
	if !ok {
		return Chromosome{}, newErr(KindInvalidArgument, "unknown chromosome %q", name)
	}
	return r.chroms[id], nil
}

// Chromosomes returns the ordered chromosome list. The returned slice
// must not be mutated by the caller.
func (r *Reference) Chromosomes() []Chromosome { return r.chroms }

// Bin describes one bin of a BinTable.
type Bin struct {
	Chrom Chromosome
	RelID uint64
	Start uint32
	End   uint32
}

// BinTable derives a fixed-width bin grid from a Reference and a bin
// size. Its lifetime is tied to whichever file handle constructed it;
// selectors opened from that handle share the same BinTable.
type BinTable struct {
	ref         *Reference
	binSize     uint32
	chromOffset []uint64 // global bin id of the first bin of each chromosome
	nBins       uint64
}

// NewBinTable derives a BinTable from ref and binSize. binSize must be
// greater than zero.
func NewBinTable(ref *Reference, binSize uint32) (*BinTable, error) {
	if binSize == 0 {
		return nil, newErr(KindInvalidArgument, "bin size must be positive")
	}
	chroms := ref.Chromosomes()
	offsets := make([]uint64, len(chroms)+1)
	var total uint64
	for i, c := range chroms {
		offsets[i] = total
		total += uint64((c.Length + binSize - 1) / binSize)
	}
	offsets[len(chroms)] = total
	return &BinTable{ref: ref, binSize: binSize, chromOffset: offsets, nBins: total}, nil
}

// Reference returns the underlying Reference.
func (bt *BinTable) Reference() *Reference { return bt.ref }

// BinSize returns the fixed bin width in base pairs.
func (bt *BinTable) BinSize() uint32 { return bt.binSize }

// Len returns the total number of bins across all chromosomes.
func (bt *BinTable) Len() uint64 { return bt.nBins }

// BinByID resolves a global bin id to its (chromosome, start, end).
func (bt *BinTable) BinByID(globalID uint64) (Bin, error) {
	if globalID >= bt.nBins {
		return Bin{}, newErr(KindInvalidArgument, "bin id %d out of range", globalID)
	}
	// binary search for the chromosome owning globalID
	chroms := bt.ref.Chromosomes()
	idx := sort.Search(len(chroms), func(i int) bool { return bt.chromOffset[i+1] > globalID })
	return bt.AtHint(globalID-bt.chromOffset[idx], chroms[idx])
}

// BinAt resolves a genomic position within chrom to the bin containing
// it. pos is rounded down to the nearest bin boundary.
func (bt *BinTable) BinAt(chrom Chromosome, pos uint32) (Bin, error) {
	if pos > chrom.Length {
		return Bin{}, newErr(KindInvalidArgument, "position %d exceeds chromosome %q length %d", pos, chrom.Name, chrom.Length)
	}
	return bt.AtHint(uint64(pos/bt.binSize), chrom)
}

// AtHint builds the Bin for relID within chrom directly, without a
// chromosome lookup. Callers that already know the chromosome should
// prefer this over BinByID.
func (bt *BinTable) AtHint(relID uint64, chrom Chromosome) (Bin, error) {
	start := uint32(relID) * bt.binSize
	if start >= chrom.Length {
		return Bin{}, newErr(KindInvalidArgument, "relative bin %d out of range for chromosome %q", relID, chrom.Name)
	}
	end := start + bt.binSize
	if end > chrom.Length {
		end = chrom.Length
	}
	return Bin{Chrom: chrom, RelID: relID, Start: start, End: end}, nil
}

// Subset returns the inclusive-exclusive global bin id range
// [lo, hi) covering chrom in its entirety.
func (bt *BinTable) Subset(chrom Chromosome) (lo, hi uint64) {
	return bt.chromOffset[chrom.ID], bt.chromOffset[chrom.ID+1]
}

// GlobalID returns the global bin id of relID within chrom.
func (bt *BinTable) GlobalID(chrom Chromosome, relID uint64) uint64 {
	return bt.chromOffset[chrom.ID] + relID
}

// PixelCoordinates is the bin span of a GenomicInterval within one
// chromosome, expressed as global bin ids [Lo, Hi).
type PixelCoordinates struct {
	Chrom Chromosome
	Lo    uint64
	Hi    uint64
}

// Coordinates converts a GenomicInterval into its bin span.
func (bt *BinTable) Coordinates(iv GenomicInterval) (PixelCoordinates, error) {
	if iv.Start > iv.End || iv.End > iv.Chrom.Length {
		return PixelCoordinates{}, newErr(KindInvalidQuery, "interval %s is out of range for chromosome %q (length %d)", iv, iv.Chrom.Name, iv.Chrom.Length)
	}
	lo := bt.GlobalID(iv.Chrom, uint64(iv.Start/bt.binSize))
	var hiRel uint64
	if iv.End == iv.Start {
		hiRel = uint64(iv.Start / bt.binSize)
	} else {
		hiRel = uint64((iv.End - 1) / bt.binSize)
	}
	hi := bt.GlobalID(iv.Chrom, hiRel) + 1
	return PixelCoordinates{Chrom: iv.Chrom, Lo: lo, Hi: hi}, nil
}
