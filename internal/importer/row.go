package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/vvka-141/csvasset/internal/files/loader"
	"github.com/vvka-141/csvasset/internal/identity"
	"github.com/vvka-141/csvasset/internal/schema"
	"github.com/vvka-141/csvasset/pkg/csvasset"
)

// run holds the state of one Importer.Run call.
type run struct {
	importer *Importer
	rt       *schema.RecordType
	header   loader.Header
	req      csvasset.ImportRequest
	namer    *identity.Namer
	report   *csvasset.ImportReport

	// touched is every location already listed in the report.
	touched map[string]bool
}

func (r *run) row(ctx context.Context, index int, row loader.Row) error {
	store := r.importer.store

	cell := identity.ColumnValue(row, r.req.NameColumn)
	name := r.namer.Name(index, cell)
	location, err := identity.Location(r.req.SaveFolder, name)
	if err != nil {
		r.skip(index, cell, err)
		return nil
	}

	rec, err := store.LoadIfExists(ctx, location)
	if err != nil {
		return fmt.Errorf("row %d: %w", index, err)
	}

	if rec != nil {
		if rec.Type != r.rt.ID() {
			r.importer.logger.Verbose("%s holds a %s, updating it as %s", location, rec.Type, r.rt.ID())
		}
		r.rt.Conform(rec)
		if !r.touched[location] {
			r.report.Updated = append(r.report.Updated, location)
		}
	} else {
		rec = store.CreateBlank(r.rt.ID())
		if err := store.RegisterNew(ctx, rec, location); err != nil {
			return fmt.Errorf("row %d: register %s: %w", index, location, err)
		}
		r.report.Created = append(r.report.Created, location)
	}
	r.touched[location] = true

	r.assign(rec, index, row)
	r.report.Rows++
	return nil
}

// skip records a row whose identity cannot be stored. The row is not counted.
func (r *run) skip(index int, cell string, err error) {
	field := ""
	if c := r.req.NameColumn; c >= 0 && c < len(r.header) {
		field = r.header[c]
	}
	w := &csvasset.FieldAssignError{Row: index, Field: field, Cell: cell, Err: err}
	r.report.Warnings = append(r.report.Warnings, w)
	r.importer.logger.Warn("Skipping %v", w)
}

// assign sets every field named in the header from the row's cells.
// Columns beyond the shorter of header and row are ignored.
func (r *run) assign(rec *csvasset.Record, index int, row loader.Row) {
	n := min(len(r.header), len(row))
	for i := 0; i < n; i++ {
		field := r.header[i]
		setter, ok := r.rt.Setter(field)
		if !ok {
			continue
		}

		if err := apply(setter, rec, row[i]); err != nil {
			w := &csvasset.FieldAssignError{Row: index, Field: field, Cell: row[i], Err: err}
			r.report.Warnings = append(r.report.Warnings, w)
			r.importer.logger.Warn("%v", w)
			continue
		}
		r.importer.store.MarkDirty(rec)
	}
}

// apply runs a setter, turning panics and non-coercion failures into
// ErrAssign errors.
func apply(setter schema.Setter, rec *csvasset.Record, cell string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", csvasset.ErrAssign, p)
		}
	}()

	if err := setter(rec, cell); err != nil {
		if errors.Is(err, csvasset.ErrCoercion) {
			return err
		}
		return fmt.Errorf("%w: %w", csvasset.ErrAssign, err)
	}
	return nil
}
