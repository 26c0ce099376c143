package store

import (
	"fmt"

	"github.com/vvka-141/csvasset/pkg/csvasset"
)

// Batch tracks the records touched during one import, keyed by location.
// A location is tracked at most once, so rows whose identities collide
// update the same in-memory record.
type Batch struct {
	records map[string]*csvasset.Record
	order   []string
	created map[string]bool
}

// Pending is a record waiting to be committed.
type Pending struct {
	Record *csvasset.Record
	New    bool
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{
		records: make(map[string]*csvasset.Record),
		created: make(map[string]bool),
	}
}

// Get returns the tracked record at location.
func (b *Batch) Get(location string) (*csvasset.Record, bool) {
	rec, ok := b.records[location]
	return rec, ok
}

// Track records an existing record loaded from the backend.
func (b *Batch) Track(rec *csvasset.Record) {
	if _, ok := b.records[rec.Location]; ok {
		return
	}
	b.records[rec.Location] = rec
	b.order = append(b.order, rec.Location)
}

// Add registers a new record at location. New records are always committed.
func (b *Batch) Add(rec *csvasset.Record, location string) error {
	if _, ok := b.records[location]; ok {
		return fmt.Errorf("record already registered at %s", location)
	}
	rec.Location = location
	b.records[location] = rec
	b.order = append(b.order, location)
	b.created[location] = true
	return nil
}

// MarkDirty flags rec and starts tracking it if it was not already.
func (b *Batch) MarkDirty(rec *csvasset.Record) {
	rec.MarkDirty()
	b.Track(rec)
}

// Pending returns new and dirty records in the order they were first tracked.
func (b *Batch) Pending() []Pending {
	var out []Pending
	for _, loc := range b.order {
		rec := b.records[loc]
		isNew := b.created[loc]
		if isNew || rec.Dirty() {
			out = append(out, Pending{Record: rec, New: isNew})
		}
	}
	return out
}

// Committed marks a record as persisted.
func (b *Batch) Committed(rec *csvasset.Record) {
	rec.ClearDirty()
	delete(b.created, rec.Location)
}

// Len returns the number of tracked records.
func (b *Batch) Len() int {
	return len(b.order)
}
