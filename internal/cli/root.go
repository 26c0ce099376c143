package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "csvasset",
	Short: "Import CSV rows as typed records",
	Long: `csvasset turns the rows of a CSV file into records of a type declared in a
schema file and upserts them into a content store: YAML asset files, SQLite,
PostgreSQL or MongoDB.

Each row is named from a template such as "{type}_{column}", so re-importing
the same sheet updates the records it created before instead of duplicating them.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration, schema or request
  11 - Content store could not be opened
  12 - CSV file missing, unreadable or empty
  13 - Store commit failed
  14 - Record type not registered`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout)
		return nil
	}
	return rootCmd.Execute()
}

type rootFlagValues struct {
	project string
	schema  string
}

var rootFlags = rootFlagValues{project: "."}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.PersistentFlags().StringVar(&rootFlags.project, "project", ".",
		"Directory holding csvasset.yaml and .env; file store paths are relative to it")
	rootCmd.PersistentFlags().StringVar(&rootFlags.schema, "schema", "",
		"Schema file declaring record types\n"+
			"Precedence: --schema > $CSVASSET_SCHEMA > csvasset.yaml")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
