package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vvka-141/csvasset/internal/config"
	"github.com/vvka-141/csvasset/internal/files/filesystem"
	"github.com/vvka-141/csvasset/internal/schema"
	"github.com/vvka-141/csvasset/pkg/csvasset"
)

// Environment variables consulted when the matching flag is not set.
const (
	EnvSchema      = "CSVASSET_SCHEMA"
	EnvStoreDriver = "CSVASSET_STORE_DRIVER"
	EnvStoreDSN    = "CSVASSET_STORE_DSN"
)

// loadProjectConfig loads .env and csvasset.yaml from dir.
// A missing csvasset.yaml is not an error and yields a nil config.
func loadProjectConfig(dir string) (*config.ProjectConfig, error) {
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	cfg, err := config.Load(dir)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %v: %w", config.ConfigFileName, err, csvasset.ErrInvalidConfig)
	}
	return cfg, nil
}

// resolveSchemaPath applies --schema > $CSVASSET_SCHEMA > csvasset.yaml.
// A path taken from csvasset.yaml is relative to the project directory.
func resolveSchemaPath(flagValue, projectDir string, cfg *config.ProjectConfig) string {
	if p := firstNonEmpty(flagValue, os.Getenv(EnvSchema)); p != "" {
		return p
	}
	if cfg == nil || cfg.Schema == "" {
		return ""
	}
	if filepath.IsAbs(cfg.Schema) {
		return cfg.Schema
	}
	return filepath.Join(projectDir, cfg.Schema)
}

// loadRegistry builds a registry from the schema file at path.
func loadRegistry(path string) (*schema.Registry, error) {
	if path == "" {
		return nil, fmt.Errorf("no schema file configured: %w\n"+
			"Tip: pass --schema, set $%s, or add 'schema:' to %s",
			csvasset.ErrInvalidConfig, EnvSchema, config.ConfigFileName)
	}

	fs := filesystem.NewOSFileSystem()
	if !filesystem.Exists(fs, path) {
		return nil, fmt.Errorf("schema file %s not found: %w", path, csvasset.ErrInvalidConfig)
	}

	registry := schema.NewRegistry()
	if err := schema.LoadFile(fs, path, registry); err != nil {
		return nil, err
	}
	return registry, nil
}

// projectContext is the configuration shared by every subcommand.
type projectContext struct {
	dir      string
	cfg      *config.ProjectConfig
	registry *schema.Registry
}

func openProject(projectDir, schemaFlag string) (*projectContext, error) {
	if projectDir == "" {
		projectDir = "."
	}

	cfg, err := loadProjectConfig(projectDir)
	if err != nil {
		return nil, err
	}

	registry, err := loadRegistry(resolveSchemaPath(schemaFlag, projectDir, cfg))
	if err != nil {
		return nil, err
	}

	return &projectContext{dir: projectDir, cfg: cfg, registry: registry}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
