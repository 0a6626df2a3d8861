package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/hictk-go/hictk/pkg/hictk"
)

// warnLog is the structured side of the ambient logging split: progress
// narration goes through fmt.Print* directly (matching the teacher's
// convert/writer.go register), while advisory warnings that don't fail
// the command go through this logger instead.
var warnLog = log.New(os.Stderr, "[hictk] ", log.LstdFlags)

var rootCmd = &cobra.Command{
	Use:   "hictk",
	Short: "Read, write, and transform Hi-C contact matrices",
	Long: `hictk-go reads and writes sparse Hi-C contact matrices stored in the
MRES (hierarchical) and BBM (monolithic, read-only) container formats.

Commands:
  load         build an MRES container from pairs-text interactions
  sample       random-subsample a resolution into a new MRES container
  info         print chromosome and resolution metadata
  dump         print pixels from a chromosome-pair query as text
  resolutions  list the resolutions stored in a file`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(hictk.ExitCode(err))
	}
}

func init() {
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(resolutionsCmd)
}
