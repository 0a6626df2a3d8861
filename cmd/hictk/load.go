package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hictk-go/hictk/pkg/hictk"
	"github.com/hictk-go/hictk/pkg/hictk/ingest"
	"github.com/hictk-go/hictk/pkg/hictk/mres"
	"github.com/hictk-go/hictk/pkg/hictk/sysinfo"
)

var (
	loadBinSize      int32
	loadBinTable     string
	loadFormat       string
	loadForce        bool
	loadAssembly     string
	loadOneBased     bool
	loadZeroBased    bool
	loadAssumeSorted bool
	loadBatchSize    int
	loadWorkers      int
)

var loadCmd = &cobra.Command{
	Use:   "load <chrom-sizes> <output>",
	Short: "Build an MRES container from pairs-text interactions read on stdin",
	Long: `load reads interaction records from stdin in one of four pairs-text
formats and writes them as the base resolution of a new MRES container.

Formats:
  4dn         4D Nucleome pairs (readID chrom1 pos1 chrom2 pos2 strand1 strand2)
  validpairs  HiC-Pro validPairs (readID chrom1 pos1 strand1 chrom2 pos2 strand2 fragSize1 fragSize2)
  bg2         bedGraph2 pre-binned pairs (chrom1 start1 end1 chrom2 start2 end2 count)
  coo         COO triplets, already bin-indexed (bin1_id bin2_id count)

Smart defaults:
  Workers: auto-detected from CPU count (sysinfo.DefaultWorkers)
  Batch size: 1,000,000 pixels before spilling to disk

Examples:
  hictk load hg38.chrom.sizes out.mres -b 10000 -f coo < pixels.coo
  cat pairs.4dn | hictk load hg38.chrom.sizes out.mres -b 5000 -f 4dn`,
	Args: cobra.ExactArgs(2),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().Int32VarP(&loadBinSize, "bin-size", "b", 0, "Bin size in base pairs (required unless --bin-table is given)")
	loadCmd.Flags().StringVarP(&loadBinTable, "bin-table", "t", "", "Path to a BED3+ fixed-width bin table")
	loadCmd.Flags().StringVarP(&loadFormat, "format", "f", "", "Input format: 4dn, validpairs, bg2, coo (required)")
	loadCmd.Flags().BoolVar(&loadForce, "force", false, "Overwrite an existing output path")
	loadCmd.Flags().StringVar(&loadAssembly, "assembly", "", "Assembly name recorded in the output container")
	loadCmd.Flags().BoolVar(&loadOneBased, "one-based", false, "Interpret coordinates as one-based (default for 4dn/validpairs)")
	loadCmd.Flags().BoolVar(&loadZeroBased, "zero-based", false, "Interpret coordinates as zero-based")
	loadCmd.Flags().BoolVar(&loadAssumeSorted, "assume-sorted", false, "Accepted for compatibility; input is always sorted before writing (warns for 4dn/validpairs)")
	loadCmd.Flags().IntVar(&loadBatchSize, "batch-size", 1_000_000, "Pixels buffered in memory before spilling to disk")
	loadCmd.Flags().IntVar(&loadWorkers, "workers", 0, "Parallel parse workers (0 = auto-detect)")
	_ = loadCmd.MarkFlagRequired("format")
}

func runLoad(cmd *cobra.Command, args []string) error {
	chromSizesPath, outputPath := args[0], args[1]

	format, err := ingest.ParseFormat(loadFormat)
	if err != nil {
		return err
	}
	if loadBinSize != 0 && loadBinTable != "" {
		return &hictk.Error{Kind: hictk.KindInvalidArgument, Msg: "--bin-size and --bin-table are mutually exclusive"}
	}
	if loadBinSize == 0 && loadBinTable == "" {
		return &hictk.Error{Kind: hictk.KindInvalidArgument, Msg: "--bin-size is required when --bin-table is not specified"}
	}
	if loadBinTable != "" && format.Prebinned() {
		return &hictk.Error{Kind: hictk.KindInvalidArgument, Msg: fmt.Sprintf("--bin-table is not supported when ingesting pre-binned %s interactions", format)}
	}
	if loadOneBased && loadZeroBased {
		return &hictk.Error{Kind: hictk.KindInvalidArgument, Msg: "--one-based and --zero-based are mutually exclusive"}
	}
	if !loadForce && !strings.HasPrefix(outputPath, "s3://") {
		if _, err := os.Stat(outputPath); err == nil {
			return &hictk.Error{Kind: hictk.KindOverwrite, Msg: fmt.Sprintf("refusing to overwrite %s; pass --force to overwrite", outputPath)}
		}
	}

	sizesFile, err := os.Open(chromSizesPath)
	if err != nil {
		return &hictk.Error{Kind: hictk.KindIO, Msg: "open chrom.sizes", Cause: err}
	}
	defer sizesFile.Close()

	var (
		ref     *hictk.Reference
		binSize uint32
	)
	if loadBinTable != "" {
		btFile, err := os.Open(loadBinTable)
		if err != nil {
			return &hictk.Error{Kind: hictk.KindIO, Msg: "open bin table", Cause: err}
		}
		defer btFile.Close()
		ref, binSize, err = ingest.ParseBinTable(btFile)
		if err != nil {
			return err
		}
	} else {
		ref, err = ingest.ParseChromSizes(sizesFile)
		if err != nil {
			return err
		}
		binSize = uint32(loadBinSize)
	}

	bins, err := hictk.NewBinTable(ref, binSize)
	if err != nil {
		return err
	}

	oneBased := format == ingest.Format4DN || format == ingest.FormatValidPairs
	if loadOneBased {
		oneBased = true
	} else if loadZeroBased {
		oneBased = false
	}

	workers := loadWorkers
	if workers <= 0 {
		workers = sysinfo.DefaultWorkers()
	}

	tmpDir, err := os.MkdirTemp("", "hictk-load-*")
	if err != nil {
		return &hictk.Error{Kind: hictk.KindIO, Msg: "create spill directory", Cause: err}
	}
	defer os.RemoveAll(tmpDir)

	fmt.Printf("loading %s pairs (bin size %d) from stdin...\n", format, binSize)
	pixels, err := ingest.Load(os.Stdin, bins, tmpDir, ingest.Options{
		Format:       format,
		OneBased:     oneBased,
		AssumeSorted: loadAssumeSorted,
		BatchSize:    loadBatchSize,
		Workers:      workers,
		Logger:       warnLog,
	})
	if err != nil {
		return err
	}
	fmt.Printf("parsed %d pixels, writing %s...\n", len(pixels), outputPath)

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
	resolution, err := container.CreateBaseResolution(int32(binSize), ref)
	if err != nil {
		cleanupPartialOutput(outputPath)
		return err
	}
	if err := resolution.WritePixels(pixels); err != nil {
		cleanupPartialOutput(outputPath)
		return err
	}
	if loadAssembly != "" {
		if err := resolution.WriteAssembly(loadAssembly); err != nil {
			cleanupPartialOutput(outputPath)
			return err
		}
	}

	fmt.Println("done.")
	return nil
}

func cleanupPartialOutput(path string) {
	if strings.HasPrefix(path, "s3://") {
		warnLog.Printf("partial output left behind at %s; hictk-go does not delete S3 objects on error", path)
		return
	}
	if err := os.RemoveAll(path); err != nil {
		warnLog.Printf("failed to remove partial output %s: %v", path, err)
	}
}
