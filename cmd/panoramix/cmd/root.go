package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "panoramix",
	Short: "build terrain meshes from elevation-contour vector tiles",
	Long: `panoramix builds, on demand, a triangulated terrain mesh centered on a
geographic point: it fetches elevation-contour vector tiles, decodes their
contour geometry into elevated sample points, and triangulates the result.
It has no renderer of its own; it is meant to sit behind one.`,
}

// Execute adds all child commands to RootCmd and runs it. Called by
// main.main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
