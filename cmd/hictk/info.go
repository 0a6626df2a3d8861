package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Print chromosome and resolution metadata",
	Long: `info opens an MRES or BBM file and prints its chromosome list, the
resolutions it carries, and, for MRES containers, the per-resolution
nnz/sum/cis summary attributes and assembly name.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	src, err := openSource(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	ref := src.Reference()
	fmt.Printf("chromosomes (%d):\n", ref.Len())
	for _, c := range ref.Chromosomes() {
		fmt.Printf("  %-20s %d\n", c.Name, c.Length)
	}

	resolutions := src.Resolutions()
	fmt.Printf("resolutions (%d): %v\n", len(resolutions), resolutions)

	for _, res := range resolutions {
		nnz, sum, cis, assembly, err := src.Stats(res)
		if err != nil {
			fmt.Printf("  %d: summary attributes unavailable (%v)\n", res, err)
			continue
		}
		fmt.Printf("  %d: nnz=%d sum=%.0f cis=%.0f assembly=%q\n", res, nnz, sum, cis, assembly)
	}
	return nil
}
