package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/csvasset/internal/config"
	"github.com/vvka-141/csvasset/internal/files/filesystem"
	"github.com/vvka-141/csvasset/internal/files/loader"
	"github.com/vvka-141/csvasset/internal/importer"
	"github.com/vvka-141/csvasset/internal/logging"
	"github.com/vvka-141/csvasset/internal/store"
	"github.com/vvka-141/csvasset/internal/store/backends"
	"github.com/vvka-141/csvasset/internal/tui"
	"github.com/vvka-141/csvasset/pkg/csvasset"
)

var importCmd = &cobra.Command{
	Use:   "import <csv_path>",
	Short: "Import CSV rows as records of a type",
	Long: `Import reads a CSV file and upserts one record per data row.

The first line is the header. Header cells are matched against the field names
of the selected type by exact, case-sensitive equality; other columns are
ignored. Cells that cannot be converted to the field's kind are reported as
warnings and leave the field unchanged.

Each record is named by the --name template:
  {type}    short name of the record type
  {index}   0-based position of the data row
  {column}  value of the name column ("Unnamed" when the row is too short)
  {guid}    a fresh random identifier

A record that already exists at the computed location is updated in place.

Examples:
  # Import into Assets/ScriptableObjects using csvasset.yaml
  csvasset import monsters.csv --type game.data.Monster

  # Name records after the "id" column and preview the result
  csvasset import monsters.csv -t Monster --name-column-header id --dry-run

  # Import into SQLite
  csvasset import monsters.csv -t Monster --store sqlite --dsn ./assets.db`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

type importFlagValues struct {
	typeName         string
	out              string
	name             string
	nameColumn       int
	nameColumnHeader string
	storeDriver      string
	dsn              string
	table            string
	dryRun           bool
	timeout          time.Duration
}

var importFlags importFlagValues

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importFlags.typeName, "type", "t", "",
		"Record type, by full identifier or unambiguous short name\n"+
			"Prompted for interactively when omitted on a terminal")
	importCmd.Flags().StringVarP(&importFlags.out, "out", "o", "",
		"Folder records are written to\n"+
			"Precedence: --out > csvasset.yaml > "+csvasset.DefaultSaveFolder)
	importCmd.Flags().StringVar(&importFlags.name, "name", "",
		"Record name template\n"+
			"Precedence: --name > csvasset.yaml > "+csvasset.DefaultIdentityTemplate)
	importCmd.Flags().IntVar(&importFlags.nameColumn, "name-column", csvasset.DefaultNameColumn,
		"0-based column used for {column}")
	importCmd.Flags().StringVar(&importFlags.nameColumnHeader, "name-column-header", "",
		"Header name of the column used for {column}; overrides --name-column")

	importCmd.Flags().StringVar(&importFlags.storeDriver, "store", "",
		"Content store: file|sqlite|postgres|mongo\n"+
			"Precedence: --store > $"+EnvStoreDriver+" > csvasset.yaml > file")
	importCmd.Flags().StringVar(&importFlags.dsn, "dsn", "",
		"Store location: SQLite file path, PostgreSQL connection string or MongoDB URI\n"+
			"Precedence: --dsn > $"+EnvStoreDSN+" > csvasset.yaml")
	importCmd.Flags().StringVar(&importFlags.table, "table", "",
		"Table name for the sqlite and postgres stores (default "+store.DefaultTable+")")

	importCmd.Flags().BoolVar(&importFlags.dryRun, "dry-run", false,
		"Materialize records and report what would change without writing")
	importCmd.Flags().DurationVar(&importFlags.timeout, "timeout", 5*time.Minute,
		"Maximum duration of the whole import, including store connection\n"+
			"Examples: 30s, 5m")
}

// importSettings is everything runImport needs, resolved from flags,
// environment, csvasset.yaml and defaults.
type importSettings struct {
	Request csvasset.ImportRequest
	Store   store.Config
	Timeout time.Duration
}

// buildImportSettings resolves the import configuration.
// This function is extracted for testability.
func buildImportSettings(cmd *cobra.Command, csvPath string, project *projectContext) (importSettings, error) {
	cfg := project.cfg
	if cfg == nil {
		cfg = &config.ProjectConfig{}
	}

	typeID, err := resolveType(project)
	if err != nil {
		return importSettings{}, err
	}

	nameColumn, err := resolveNameColumn(cmd, csvPath, cfg)
	if err != nil {
		return importSettings{}, err
	}

	timeout := importFlags.timeout
	if cfg.Timeout != "" && !cmd.Flags().Changed("timeout") {
		parsed, parseErr := cfg.TimeoutDuration()
		if parseErr != nil {
			return importSettings{}, fmt.Errorf("%s: %v: %w", config.ConfigFileName, parseErr, csvasset.ErrInvalidConfig)
		}
		timeout = parsed
	}

	req := csvasset.ImportRequest{
		FilePath:         csvPath,
		TypeID:           typeID,
		SaveFolder:       firstNonEmpty(importFlags.out, cfg.SaveFolder),
		IdentityTemplate: firstNonEmpty(importFlags.name, cfg.NameTemplate),
		NameColumn:       nameColumn,
		DryRun:           importFlags.dryRun,
	}.WithDefaults()
	if err := req.Validate(); err != nil {
		return importSettings{}, err
	}

	storeCfg := resolveStoreConfig(project.dir, cfg.Store)
	if err := storeCfg.Validate(); err != nil {
		return importSettings{}, err
	}

	return importSettings{Request: req, Store: storeCfg, Timeout: timeout}, nil
}

func resolveType(project *projectContext) (csvasset.TypeID, error) {
	if importFlags.typeName != "" {
		return csvasset.TypeID(importFlags.typeName), nil
	}
	if !tui.IsInteractive() {
		return "", fmt.Errorf("--type is required in non-interactive mode: %w", csvasset.ErrInvalidConfig)
	}

	typeID, err := tui.PickType(project.registry.List())
	if errors.Is(err, tui.ErrCancelled) {
		return "", fmt.Errorf("no record type selected: %w", csvasset.ErrInvalidConfig)
	}
	return typeID, err
}

// resolveNameColumn applies --name-column-header > --name-column >
// name_column_header > name_column > 0. Header names are looked up in the
// CSV header row.
func resolveNameColumn(cmd *cobra.Command, csvPath string, cfg *config.ProjectConfig) (int, error) {
	if importFlags.nameColumnHeader != "" {
		return headerColumn(csvPath, importFlags.nameColumnHeader)
	}
	if cmd.Flags().Changed("name-column") {
		return importFlags.nameColumn, nil
	}
	if cfg.NameColumnHeader != "" {
		return headerColumn(csvPath, cfg.NameColumnHeader)
	}
	if cfg.NameColumn != nil {
		return *cfg.NameColumn, nil
	}
	return csvasset.DefaultNameColumn, nil
}

func headerColumn(csvPath, name string) (int, error) {
	header, _, err := loader.LoadTable(filesystem.NewOSFileSystem(), csvPath)
	if err != nil {
		return 0, err
	}

	i := header.Index(name)
	if i < 0 {
		return 0, fmt.Errorf("name column %q not found in header of %s: %w", name, csvPath, csvasset.ErrInvalidConfig)
	}
	return i, nil
}

func resolveStoreConfig(projectDir string, yamlStore config.StoreConfig) store.Config {
	cfg := store.Config{
		Driver:     firstNonEmpty(importFlags.storeDriver, os.Getenv(EnvStoreDriver), yamlStore.Driver),
		DSN:        firstNonEmpty(importFlags.dsn, os.Getenv(EnvStoreDSN)),
		Table:      firstNonEmpty(importFlags.table, yamlStore.Table),
		Database:   yamlStore.Database,
		Collection: yamlStore.Collection,
		Root:       projectDir,
	}

	// SQLite paths from csvasset.yaml and the default file are relative to the project.
	if cfg.DSN == "" {
		cfg.DSN = yamlStore.DSN
		cfg = cfg.WithDefaults()
		if cfg.Driver == store.DriverSQLite && !filepath.IsAbs(cfg.DSN) {
			cfg.DSN = filepath.Join(projectDir, cfg.DSN)
		}
	}
	return cfg.WithDefaults()
}

func runImport(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	project, err := openProject(rootFlags.project, rootFlags.schema)
	if err != nil {
		return err
	}

	settings, err := buildImportSettings(cmd, args[0], project)
	if err != nil {
		return err
	}

	logger := logging.NewConsoleLogger(verbose)
	logger.Verbose("Store: %s (root %s)", settings.Store.Driver, settings.Store.Root)

	ctx, cancel := context.WithTimeout(context.Background(), settings.Timeout)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling import...")
			cancel()
		case <-ctx.Done():
		}
	}()

	st, err := backends.Open(ctx, settings.Store, nil, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Warn("Failed to close store: %v", closeErr)
		}
	}()

	imp := importer.New(filesystem.NewOSFileSystem(), project.registry, st, logger)
	report, err := imp.Run(ctx, settings.Request)
	if report != nil {
		fmt.Fprintln(cmd.OutOrStdout(), tui.RenderReport(report, verbose))
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	return nil
}
