package importer

import (
	"context"
	"fmt"

	"github.com/vvka-141/csvasset/internal/files/filesystem"
	"github.com/vvka-141/csvasset/internal/files/loader"
	"github.com/vvka-141/csvasset/internal/identity"
	"github.com/vvka-141/csvasset/internal/schema"
	"github.com/vvka-141/csvasset/pkg/csvasset"
)

// Importer runs imports against one store.
// Thread-Safety: NOT safe for concurrent Run calls; the store batch is shared.
type Importer struct {
	fs       filesystem.FileSystemProvider
	registry *schema.Registry
	store    csvasset.Store
	logger   csvasset.Logger
	newGUID  func() string
}

// Option configures an Importer.
type Option func(*Importer)

// WithGUIDSource replaces the {guid} generator.
func WithGUIDSource(fn func() string) Option {
	return func(im *Importer) { im.newGUID = fn }
}

// New creates an Importer. It panics on nil dependencies.
func New(
	fs filesystem.FileSystemProvider,
	registry *schema.Registry,
	store csvasset.Store,
	logger csvasset.Logger,
	opts ...Option,
) *Importer {
	if fs == nil {
		panic("fs cannot be nil")
	}
	if registry == nil {
		panic("registry cannot be nil")
	}
	if store == nil {
		panic("store cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	im := &Importer{
		fs:       fs,
		registry: registry,
		store:    store,
		logger:   logger,
		newGUID:  identity.NewGUID,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Run imports req.FilePath as records of req.TypeID.
//
// Load failures and unknown types abort before anything touches the store.
// Field assignment failures are collected in the report. A failed commit or
// index refresh returns a *csvasset.CommitError together with the report of
// what was materialized.
func (im *Importer) Run(ctx context.Context, req csvasset.ImportRequest) (*csvasset.ImportReport, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rt, err := im.registry.Resolve(string(req.TypeID))
	if err != nil {
		return nil, err
	}

	header, data, err := loader.LoadTable(im.fs, req.FilePath)
	if err != nil {
		return nil, err
	}

	im.logger.Verbose("Importing %d row(s) from %s as %s", len(data), req.FilePath, rt.ID())
	im.reportColumns(rt, header)

	if !req.DryRun {
		if err := im.store.EnsureFolder(ctx, req.SaveFolder); err != nil {
			return nil, fmt.Errorf("prepare %s: %w", req.SaveFolder, err)
		}
	}

	run := &run{
		importer: im,
		rt:       rt,
		header:   header,
		req:      req,
		namer:    identity.NewNamer(req.IdentityTemplate, rt.Name()).WithGUIDSource(im.newGUID),
		report:   &csvasset.ImportReport{Type: rt.ID(), Stored: -1},
		touched:  make(map[string]bool),
	}
	for i, row := range data {
		if err := run.row(ctx, i, row); err != nil {
			return run.report, err
		}
	}

	report := run.report
	if req.DryRun {
		im.logger.Info("Dry run: %d record(s) would be created, %d updated", len(report.Created), len(report.Updated))
		return report, nil
	}

	if err := im.store.CommitBatch(ctx); err != nil {
		return report, &csvasset.CommitError{Pending: report.Upserted(), Err: err}
	}
	if err := im.store.RefreshIndex(ctx); err != nil {
		return report, &csvasset.CommitError{Pending: report.Upserted(), Err: fmt.Errorf("refresh index: %w", err)}
	}
	report.Committed = true
	report.Stored = im.count(ctx, rt.ID())

	im.logger.Verbose("Committed %d record(s) to %s", report.Upserted(), req.SaveFolder)
	return report, nil
}

// reportColumns logs header cells that will never be assigned.
func (im *Importer) reportColumns(rt *schema.RecordType, header loader.Header) {
	for _, name := range header {
		f, ok := rt.Field(name)
		switch {
		case !ok:
			im.logger.Verbose("Column %q does not match any field of %s, ignoring", name, rt.ID())
		case !f.Kind.Assignable():
			im.logger.Verbose("Field %q has unsupported type %s, ignoring", name, f.DisplayType())
		}
	}
}

// count asks the store how many records of typeID it holds, or returns -1.
func (im *Importer) count(ctx context.Context, typeID csvasset.TypeID) int {
	counter, ok := im.store.(csvasset.Counter)
	if !ok {
		return -1
	}
	n, err := counter.Count(ctx, typeID)
	if err != nil {
		im.logger.Warn("Could not count stored %s records: %v", typeID, err)
		return -1
	}
	im.logger.Verbose("Store holds %d %s record(s)", n, typeID)
	return n
}
