// Command cvpreview renders CV documents outside the web service and downloads exports.
//
//	cvpreview render cv.json --out preview.html
//	cvpreview validate cv.json
//	cvpreview export 42 --format pdf --token $PORTAL_TOKEN
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cvpreview",
		Short:         "Render and export portal CVs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRenderCmd(), newValidateCmd(), newExportCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cvpreview:", err)
		os.Exit(1)
	}
}
