package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/csvasset/internal/files/filesystem"
	"github.com/vvka-141/csvasset/internal/files/loader"
	"github.com/vvka-141/csvasset/internal/tui"
)

var previewCmd = &cobra.Command{
	Use:   "preview <csv_path>",
	Short: "Show the columns of a CSV file and their inferred kinds",
	Long: `Preview lists every header cell of a CSV file together with the first
data row's value and the scalar kind guessed from it. Nothing is written.

A column is guessed as int, then float, then bool, falling back to string.
Columns the first data row does not reach show no sample.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

// buildPreview loads path and infers its column kinds.
func buildPreview(provider filesystem.FileSystemProvider, path string) ([]loader.ColumnPreview, int, error) {
	header, data, err := loader.LoadTable(provider, path)
	if err != nil {
		return nil, 0, err
	}
	return loader.Infer(header, data), len(data), nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	columns, dataRows, err := buildPreview(filesystem.NewOSFileSystem(), args[0])
	if err != nil {
		return fmt.Errorf("preview failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderPreview(args[0], columns, dataRows))
	return nil
}
