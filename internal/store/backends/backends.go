// Package backends opens the store selected by a store.Config.
package backends

import (
	"context"
	"fmt"

	"github.com/vvka-141/csvasset/internal/files/filesystem"
	"github.com/vvka-141/csvasset/internal/store"
	"github.com/vvka-141/csvasset/internal/store/filestore"
	"github.com/vvka-141/csvasset/internal/store/mongostore"
	"github.com/vvka-141/csvasset/internal/store/pgstore"
	"github.com/vvka-141/csvasset/internal/store/sqlitestore"
	"github.com/vvka-141/csvasset/pkg/csvasset"
)

// Open returns the backend named by cfg.Driver. The file backend writes
// through provider; when provider is nil an OS filesystem rooted at cfg.Root
// is used. Connection failures wrap csvasset.ErrStoreUnavailable.
func Open(ctx context.Context, cfg store.Config, provider filesystem.FileSystemProvider, logger csvasset.Logger) (csvasset.Store, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case store.DriverFile:
		if provider == nil {
			provider = filesystem.NewRootedOSFileSystem(cfg.Root)
		}
		return filestore.New(provider, logger), nil

	case store.DriverSQLite:
		s, err := sqlitestore.Open(ctx, cfg.DSN, cfg.Table, logger)
		if err != nil {
			return nil, unavailable(cfg.Driver, err)
		}
		return s, nil

	case store.DriverPostgres:
		s, err := pgstore.Connect(ctx, cfg.DSN, cfg.Table, logger)
		if err != nil {
			return nil, unavailable(cfg.Driver, err)
		}
		return s, nil

	case store.DriverMongo:
		s, err := mongostore.Connect(ctx, cfg.DSN, cfg.Database, cfg.Collection, logger)
		if err != nil {
			return nil, unavailable(cfg.Driver, err)
		}
		return s, nil
	}

	return nil, fmt.Errorf("unknown store driver %q: %w", cfg.Driver, csvasset.ErrInvalidConfig)
}

func unavailable(driver string, err error) error {
	return fmt.Errorf("%s store: %w: %w", driver, csvasset.ErrStoreUnavailable, err)
}
