package store

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vvka-141/csvasset/pkg/csvasset"
)

// Supported drivers.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Defaults for the database backends.
const (
	DefaultTable      = "csvasset_records"
	DefaultDatabase   = "csvasset"
	DefaultCollection = "records"
	DefaultSQLiteFile = "csvasset.db"
)

// Config selects and configures a backend.
type Config struct {
	// Driver is one of the Driver constants. Empty means DriverFile.
	Driver string

	// Root is the directory the file store resolves record locations against.
	Root string

	// DSN is the sqlite file, postgres connection string or mongo URI.
	DSN string

	// Table is the SQL table records are stored in.
	Table string

	// Database and Collection address records in mongo.
	Database   string
	Collection string
}

// WithDefaults returns a copy with empty fields set to their defaults.
func (c Config) WithDefaults() Config {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	if c.Driver == "" {
		c.Driver = DriverFile
	}
	if c.Root == "" {
		c.Root = "."
	}
	if c.Table == "" {
		c.Table = DefaultTable
	}
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
	if c.Driver == DriverSQLite && c.DSN == "" {
		c.DSN = DefaultSQLiteFile
	}
	return c
}

// Validate checks that the driver is known and has what it needs.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverFile, DriverSQLite:
		return nil
	case DriverPostgres, DriverMongo:
		if c.DSN == "" {
			return fmt.Errorf("store driver %s requires a DSN: %w", c.Driver, csvasset.ErrInvalidConfig)
		}
		return nil
	default:
		return fmt.Errorf("unknown store driver %q (want file, sqlite, postgres or mongo): %w",
			c.Driver, csvasset.ErrInvalidConfig)
	}
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier checks that a table name is safe to interpolate into SQL.
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid table name %q: %w", name, csvasset.ErrInvalidConfig)
	}
	return nil
}
