package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hictk-go/hictk/pkg/hictk"
	"github.com/hictk-go/hictk/pkg/hictk/mres"
	"github.com/hictk-go/hictk/pkg/hictk/sysinfo"
)

var (
	sampleFraction float64
	sampleCount    int64
	sampleSeed     int64
	sampleForce    bool
	sampleWorkers  int
)

var sampleCmd = &cobra.Command{
	Use:   "sample <input> <output>",
	Short: "Randomly subsample a resolution into a new MRES container",
	Long: `sample reads a resolution's pixels from an MRES or BBM input, applies
Binomial thinning per pixel, and writes the thinned pixels as the base
resolution of a new MRES container.

--fraction and --count are mutually exclusive; --count infers the
fraction from the file's total observed count (sum of every stored
pixel's value) before sampling.

Examples:
  hictk sample in.mres out.mres --fraction 0.1
  hictk sample in.bbm out.mres --count 1000000 --seed 42`,
	Args: cobra.ExactArgs(2),
	RunE: runSample,
}

func init() {
	sampleCmd.Flags().Float64Var(&sampleFraction, "fraction", 0, "Fraction of interactions to keep")
	sampleCmd.Flags().Int64Var(&sampleCount, "count", 0, "Approximate number of interactions to keep")
	sampleCmd.Flags().Int64Var(&sampleSeed, "seed", 0, "Seed for the sampling PRNG")
	sampleCmd.Flags().BoolVar(&sampleForce, "force", false, "Overwrite an existing output path")
	sampleCmd.Flags().IntVar(&sampleWorkers, "workers", 0, "Parallel fetch workers across chromosome pairs (0 = auto-detect)")
}

func runSample(cmd *cobra.Command, args []string) error {
	inputPath, outputPath := args[0], args[1]

	if sampleFraction > 0 && sampleCount > 0 {
		return &hictk.Error{Kind: hictk.KindInvalidArgument, Msg: "--fraction and --count are mutually exclusive"}
	}
	if sampleFraction <= 0 && sampleCount <= 0 {
		return &hictk.Error{Kind: hictk.KindInvalidArgument, Msg: "specify either --fraction or --count"}
	}
	if !sampleForce && !strings.HasPrefix(outputPath, "s3://") {
		if _, err := os.Stat(outputPath); err == nil {
			return &hictk.Error{Kind: hictk.KindOverwrite, Msg: fmt.Sprintf("refusing to overwrite %s; pass --force to overwrite", outputPath)}
		}
	}

	src, err := openSource(inputPath)
	if err != nil {
		return err
	}
	defer src.Close()

	resolutions := src.Resolutions()
	if len(resolutions) == 0 {
		return &hictk.Error{Kind: hictk.KindNotFound, Msg: "input file carries no resolutions"}
	}
	res := resolutions[0]
	ref := src.Reference()
	bins, err := src.BinTable(res)
	if err != nil {
		return err
	}

	workers := sampleWorkers
	if workers <= 0 {
		workers = sysinfo.DefaultWorkers()
	}
	fmt.Printf("collecting resolution %d from %s...\n", res, inputPath)
	pixels, err := collectGenomeWide(src, res, ref, bins, workers)
	if err != nil {
		return err
	}

	fraction := sampleFraction
	if sampleCount > 0 {
		var total float64
		for _, p := range pixels {
			total += p.Count
		}
		if total > 0 {
			fraction = float64(sampleCount) / total
		}
	}
	if fraction <= 0 {
		return &hictk.Error{Kind: hictk.KindInvalidArgument, Msg: "resolved sampling fraction is zero; the input may be empty"}
	}

	fmt.Printf("sampling %d pixels at fraction %.6f...\n", len(pixels), fraction)
	rounded := make([]hictk.ThinPixel[int64], len(pixels))
	for i, p := range pixels {
		rounded[i] = hictk.ThinPixel[int64]{Bin1ID: p.Bin1ID, Bin2ID: p.Bin2ID, Count: int64(math.RoundToEven(p.Count))}
	}
	sampler := hictk.PixelRandomSampler[int64](hictk.NewSliceIterator(rounded), fraction, sampleSeed)
	thinned, err := hictk.Collect[int64](sampler)
	if err != nil {
		return err
	}

	out := make([]hictk.ThinPixel[float64], len(thinned))
	for i, p := range thinned {
		out[i] = hictk.ThinPixel[float64]{Bin1ID: p.Bin1ID, Bin2ID: p.Bin2ID, Count: float64(p.Count)}
	}

	fmt.Printf("writing %d sampled pixels to %s...\n", len(out), outputPath)
	if !strings.HasPrefix(outputPath, "s3://") {
		if err := os.RemoveAll(outputPath); err != nil {
			return &hictk.Error{Kind: hictk.KindIO, Msg: "clear existing output path", Cause: err}
		}
	}
	store, err := openOutputStore(outputPath)
	if err != nil {
		return err
	}
	container, err := mres.Create(store)
	if err != nil {
		cleanupPartialOutput(outputPath)
		return err
	}
	resolution, err := container.CreateBaseResolution(res, ref)
	if err != nil {
		cleanupPartialOutput(outputPath)
		return err
	}
	if err := resolution.WritePixels(out); err != nil {
		cleanupPartialOutput(outputPath)
		return err
	}

	fmt.Println("done.")
	return nil
}

// collectGenomeWide fans the fetch of every chromosome pair (i<=j) out
// across a worker pool via ToCOOGenomeWide, then imposes the global
// (Bin1ID, Bin2ID) order WritePixels requires: each per-pair fetch is
// already locally sorted, but concatenation across pairs is not, since
// distinct pairs sharing chromosome i's rows interleave in bin1 space.
func collectGenomeWide(src source, res int32, ref *hictk.Reference, bins *hictk.BinTable, workers int) ([]hictk.ThinPixel[float64], error) {
	chroms := ref.Chromosomes()
	type pair struct{ i, j int }
	var pairs []pair
	for i := range chroms {
		for j := i; j < len(chroms); j++ {
			pairs = append(pairs, pair{i, j})
		}
	}
	out, err := hictk.ToCOOGenomeWide[float64](len(pairs), workers, func(k int) (hictk.PixelSelector[float64], error) {
		p := pairs[k]
		chromA, chromB := chroms[p.i], chroms[p.j]
		loA, hiA := bins.Subset(chromA)
		loB, hiB := bins.Subset(chromB)
		return src.Fetch(res,
			hictk.PixelCoordinates{Chrom: chromA, Lo: loA, Hi: hiA},
			hictk.PixelCoordinates{Chrom: chromB, Lo: loB, Hi: hiB},
			hictk.MatrixObserved, hictk.NormNone)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bin1ID != out[j].Bin1ID {
			return out[i].Bin1ID < out[j].Bin1ID
		}
		return out[i].Bin2ID < out[j].Bin2ID
	})
	return out, nil
}
