package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/csvasset/internal/tui"
)

var typesCmd = &cobra.Command{
	Use:   "types [type]",
	Short: "List record types or the fields of one type",
	Long: `Types lists the record types declared in the schema file. Given a type, it
lists that type's importable fields, their kinds and whether cells can be
assigned to them.

Examples:
  csvasset types --schema schema.yaml
  csvasset types Monster`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTypes,
}

func init() {
	rootCmd.AddCommand(typesCmd)
}

func runTypes(cmd *cobra.Command, args []string) error {
	project, err := openProject(rootFlags.project, rootFlags.schema)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		fmt.Fprintln(out, tui.RenderTypes(project.registry.List()))
		return nil
	}

	rt, err := project.registry.Resolve(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tui.RenderFields(rt))
	return nil
}
