package mres

import (
	"sort"

	"github.com/hictk-go/hictk/pkg/hictk"
)

// Resolution is one open resolution subgroup: its chromosome list, bin
// table, flat pixel columns, and the two index vectors that let a
// Selector avoid a linear scan (spec §4.3).
type Resolution struct {
	store Store
	res   int32

	ref  *hictk.Reference
	bins *hictk.BinTable

	chromOffset []uint64 // indexes/chrom_offset, len = nChroms+1
	bin1Offset  []uint64 // indexes/bin1_offset, len = nBins+1

	pixelBin1  []uint64
	pixelBin2  []uint64
	pixelCount []float64

	weights map[string][]float64 // lazily loaded from bins/<method>

	assembly     string
	haveAssembly bool
}

// Resolution returns the bin size in base pairs.
func (r *Resolution) Resolution() int32 { return r.res }

// Reference returns the chromosome list stored in this resolution group.
func (r *Resolution) Reference() *hictk.Reference { return r.ref }

// BinTable returns the bin grid derived from this resolution's chromosomes.
func (r *Resolution) BinTable() *hictk.BinTable { return r.bins }

// Len returns the number of stored pixels.
func (r *Resolution) Len() int { return len(r.pixelBin1) }

func loadResolution(store Store, res int32) (*Resolution, error) {
	names, err := readStringArray(store, groupKey(res, "chroms/name"))
	if err != nil {
		return nil, err
	}
	lengths, err := readUint32Array(store, groupKey(res, "chroms/length"))
	if err != nil {
		return nil, err
	}
	if len(names) != len(lengths) {
		return nil, corruptf("resolution %d: chroms/name and chroms/length have different lengths", res)
	}
	chroms := make([]hictk.Chromosome, len(names))
	for i, n := range names {
		chroms[i] = hictk.Chromosome{Name: n, Length: lengths[i]}
	}
	ref, err := hictk.NewReference(chroms)
	if err != nil {
		return nil, err
	}
	bins, err := hictk.NewBinTable(ref, uint32(res))
	if err != nil {
		return nil, err
	}

	chromOffset, err := readUint64Array(store, groupKey(res, "indexes/chrom_offset"))
	if err != nil {
		return nil, err
	}
	bin1Offset, err := readUint64Array(store, groupKey(res, "indexes/bin1_offset"))
	if err != nil {
		return nil, err
	}
	bin1, err := readUint64Array(store, groupKey(res, "pixels/bin1_id"))
	if err != nil {
		return nil, err
	}
	bin2, err := readUint64Array(store, groupKey(res, "pixels/bin2_id"))
	if err != nil {
		return nil, err
	}
	count, err := readFloat64Array(store, groupKey(res, "pixels/count"))
	if err != nil {
		return nil, err
	}
	if len(bin1) != len(bin2) || len(bin1) != len(count) {
		return nil, corruptf("resolution %d: pixel columns have mismatched lengths", res)
	}
	if uint64(len(bin1Offset)) != bins.Len()+1 {
		return nil, corruptf("resolution %d: bin1_offset length %d does not match bin count+1 (%d)", res, len(bin1Offset), bins.Len()+1)
	}

	return &Resolution{
		store: store, res: res,
		ref: ref, bins: bins,
		chromOffset: chromOffset, bin1Offset: bin1Offset,
		pixelBin1: bin1, pixelBin2: bin2, pixelCount: count,
		weights: make(map[string][]float64),
	}, nil
}

// newResolution creates and persists an empty resolution group for ref
// at bin size res; WritePixels must be called before it is queried.
func newResolution(store Store, res int32, ref *hictk.Reference) (*Resolution, error) {
	chroms := ref.Chromosomes()
	names := make([]string, len(chroms))
	lengths := make([]uint32, len(chroms))
	for i, c := range chroms {
		names[i] = c.Name
		lengths[i] = c.Length
	}
	if err := writeStringArray(store, groupKey(res, "chroms/name"), names); err != nil {
		return nil, err
	}
	if err := writeUint32Array(store, groupKey(res, "chroms/length"), lengths); err != nil {
		return nil, err
	}
	bins, err := hictk.NewBinTable(ref, uint32(res))
	if err != nil {
		return nil, err
	}
	r := &Resolution{
		store: store, res: res,
		ref: ref, bins: bins,
		weights: make(map[string][]float64),
	}
	if err := r.WritePixels(nil); err != nil {
		return nil, err
	}
	return r, nil
}

// WritePixels persists pixels as this resolution's full pixel set,
// deriving and writing indexes/bin1_offset and indexes/chrom_offset.
// pixels must already be sorted ascending by (Bin1ID, Bin2ID); callers
// coarsening or sampling an existing selector already produce that
// order (CoarsenPixels and PixelRandomSampler both preserve it).
func (r *Resolution) WritePixels(pixels []hictk.ThinPixel[float64]) error {
	nBins := r.bins.Len()
	bin1Offset := make([]uint64, nBins+1)
	bin1 := make([]uint64, len(pixels))
	bin2 := make([]uint64, len(pixels))
	count := make([]float64, len(pixels))

	cur := uint64(0)
	for i, p := range pixels {
		for cur <= p.Bin1ID {
			bin1Offset[cur] = uint64(i)
			cur++
		}
		bin1[i] = p.Bin1ID
		bin2[i] = p.Bin2ID
		count[i] = p.Count
	}
	for ; cur <= nBins; cur++ {
		bin1Offset[cur] = uint64(len(pixels))
	}

	chroms := r.ref.Chromosomes()
	chromOffset := make([]uint64, len(chroms)+1)
	for _, c := range chroms {
		lo, hi := r.bins.Subset(c)
		chromOffset[c.ID] = lo
		chromOffset[c.ID+1] = hi
	}

	if err := writeUint64Array(r.store, groupKey(r.res, "pixels/bin1_id"), bin1); err != nil {
		return err
	}
	if err := writeUint64Array(r.store, groupKey(r.res, "pixels/bin2_id"), bin2); err != nil {
		return err
	}
	if err := writeFloat64Array(r.store, groupKey(r.res, "pixels/count"), count); err != nil {
		return err
	}
	if err := writeUint64Array(r.store, groupKey(r.res, "indexes/bin1_offset"), bin1Offset); err != nil {
		return err
	}
	if err := writeUint64Array(r.store, groupKey(r.res, "indexes/chrom_offset"), chromOffset); err != nil {
		return err
	}

	r.pixelBin1, r.pixelBin2, r.pixelCount = bin1, bin2, count
	r.bin1Offset, r.chromOffset = bin1Offset, chromOffset
	return nil
}

// WriteWeights persists a named normalization vector (method == "weight"
// writes the default bins/weight column; any other name writes
// bins/<method>).
func (r *Resolution) WriteWeights(method string, weights []float64) error {
	if uint64(len(weights)) != r.bins.Len() {
		return corruptf("normalization vector length %d does not match bin count %d", len(weights), r.bins.Len())
	}
	if err := writeFloat64Array(r.store, groupKey(r.res, weightDatasetName(method)), weights); err != nil {
		return err
	}
	r.weights[method] = weights
	return nil
}

func weightDatasetName(method string) string {
	if method == "" || method == "weight" {
		return "bins/weight"
	}
	return "bins/" + method
}

func (r *Resolution) loadWeights(method string) ([]float64, error) {
	if w, ok := r.weights[method]; ok {
		return w, nil
	}
	w, err := readFloat64Array(r.store, groupKey(r.res, weightDatasetName(method)))
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, notFoundf("normalization weights %q unavailable for resolution %d", method, r.res)
	}
	r.weights[method] = w
	return w, nil
}

// Stats reports the root-group summary attributes spec §6 names
// alongside the required datasets: nnz (stored pixel count), sum (total
// count across all stored pixels), and cis (total count restricted to
// intra-chromosomal pixels). They are derived from the already-loaded
// pixel columns rather than persisted, since every caller that can read
// a resolution has already paid the cost of loading those columns.
func (r *Resolution) Stats() (nnz uint64, sum float64, cis float64) {
	nnz = uint64(len(r.pixelBin1))
	chroms := r.ref.Chromosomes()
	for i, b1 := range r.pixelBin1 {
		count := r.pixelCount[i]
		sum += count
		b2 := r.pixelBin2[i]
		idx := sort.Search(len(chroms), func(k int) bool { return r.chromOffset[k+1] > b1 })
		if idx < len(chroms) && b2 >= r.chromOffset[idx] && b2 < r.chromOffset[idx+1] {
			cis += count
		}
	}
	return nnz, sum, cis
}

// WriteAssembly persists the assembly name reported by info. An
// empty name is a valid, if uninformative, value.
func (r *Resolution) WriteAssembly(name string) error {
	if err := writeStringArray(r.store, groupKey(r.res, "_assembly"), []string{name}); err != nil {
		return err
	}
	r.assembly = name
	r.haveAssembly = true
	return nil
}

// Assembly returns the persisted assembly name, or "" if none was ever
// written.
func (r *Resolution) Assembly() (string, error) {
	if r.haveAssembly {
		return r.assembly, nil
	}
	if !hasDataset(r.store, groupKey(r.res, "_assembly")) {
		return "", nil
	}
	fields, err := readStringArray(r.store, groupKey(r.res, "_assembly"))
	if err != nil {
		return "", err
	}
	if len(fields) != 1 {
		return "", corruptf("resolution %d: malformed assembly marker", r.res)
	}
	r.assembly, r.haveAssembly = fields[0], true
	return r.assembly, nil
}

// Fetch opens a Selector over [a.Lo,a.Hi) x [b.Lo,b.Hi). The container
// format carries no expected-value vector (spec §4.3 names only
// bins/<method> weight datasets), so matrixType must be
// hictk.MatrixObserved; Expected/OE queries are a BBM-only capability.
func (r *Resolution) Fetch(a, b hictk.PixelCoordinates, matrixType hictk.MatrixType, normMethod hictk.NormalizationMethod) (hictk.PixelIterator[float64], error) {
	if a.Chrom.ID == b.Chrom.ID && a.Lo > b.Lo {
		return nil, &hictk.Error{Kind: hictk.KindInvalidQuery, Msg: "intra-chromosomal query is below the diagonal"}
	}
	if matrixType != hictk.MatrixObserved {
		return nil, &hictk.Error{Kind: hictk.KindInvalidArgument, Msg: "MRES resolutions carry no expected-value vector; only MatrixObserved is supported"}
	}

	var wA, wB []float64
	if normMethod != hictk.NormNone {
		var err error
		wA, err = r.loadWeights(string(normMethod))
		if err != nil {
			return nil, err
		}
		wB = wA
	}

	return &Selector{
		res: r, a: a, b: b,
		wA: wA, wB: wB,
		b1: a.Lo,
	}, nil
}
