package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resolutionsCmd = &cobra.Command{
	Use:   "resolutions <file>",
	Short: "List the resolutions stored in a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolutions,
}

func runResolutions(cmd *cobra.Command, args []string) error {
	src, err := openSource(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	for _, res := range src.Resolutions() {
		fmt.Println(res)
	}
	return nil
}
