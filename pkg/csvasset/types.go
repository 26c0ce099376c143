package csvasset

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// TypeID identifies a record type, usually its fully qualified name
// (for example "game.data.Monster").
type TypeID string

// ShortName returns the last dot-separated segment of the identifier.
// It is the value substituted for the {type} placeholder.
func (id TypeID) ShortName() string {
	s := string(id)
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}

// ScalarKind is the declared kind of a field. Only the five scalar kinds are
// coercion targets; KindUnsupported fields are listed but never assigned.
type ScalarKind int

const (
	KindUnsupported ScalarKind = iota
	KindInteger
	KindFloat32
	KindFloat64
	KindBoolean
	KindText
)

func (k ScalarKind) String() string {
	switch k {
	case KindInteger:
		return "int"
	case KindFloat32:
		return "float"
	case KindFloat64:
		return "double"
	case KindBoolean:
		return "bool"
	case KindText:
		return "string"
	default:
		return "unsupported"
	}
}

// Assignable reports whether cells can be coerced to this kind.
func (k ScalarKind) Assignable() bool {
	return k != KindUnsupported
}

// FieldDescriptor describes one importable field of a record type.
type FieldDescriptor struct {
	// Name is matched against header cells by exact, case-sensitive equality.
	Name string

	// Kind is the scalar kind cells are coerced to.
	Kind ScalarKind

	// TypeName is the declared type as written in the schema, kept for display
	// when Kind is KindUnsupported.
	TypeName string
}

// DisplayType returns the kind name for scalar fields and the raw declared
// type otherwise.
func (f FieldDescriptor) DisplayType() string {
	if f.Kind == KindUnsupported {
		return f.TypeName
	}
	return f.Kind.String()
}

// Record is a mutable bag of field values belonging to one record type.
// Its identity is Location, the path it is persisted at.
type Record struct {
	Type     TypeID
	Location string
	Fields   map[string]any

	dirty bool
}

// NewRecord creates a blank record of the given type.
func NewRecord(typeID TypeID) *Record {
	return &Record{
		Type:   typeID,
		Fields: make(map[string]any),
	}
}

// Get returns the value stored for a field.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Set stores a value without touching the dirty flag.
func (r *Record) Set(name string, value any) {
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	r.Fields[name] = value
}

// Dirty reports whether the record was modified since it was last persisted.
func (r *Record) Dirty() bool { return r.dirty }

// MarkDirty flags the record for the next commit.
func (r *Record) MarkDirty() { r.dirty = true }

// ClearDirty is called by stores once the record is persisted.
func (r *Record) ClearDirty() { r.dirty = false }

// Store is the content store records are upserted into.
//
// A Store accumulates a batch: RegisterNew and MarkDirty only stage records,
// CommitBatch persists every registered and dirty record in one call.
// Implementations are not safe for concurrent use.
type Store interface {
	// EnsureFolder makes sure the destination folder exists.
	EnsureFolder(ctx context.Context, folder string) error

	// LoadIfExists returns the record stored at location, or nil if there is none.
	// Records already staged in the current batch are returned as the same instance.
	LoadIfExists(ctx context.Context, location string) (*Record, error)

	// CreateBlank instantiates an empty record of the given type.
	CreateBlank(typeID TypeID) *Record

	// RegisterNew stages a new record for persistence at location.
	RegisterNew(ctx context.Context, rec *Record, location string) error

	// MarkDirty stages a modified record for persistence.
	MarkDirty(rec *Record)

	// CommitBatch persists all staged records.
	CommitBatch(ctx context.Context) error

	// RefreshIndex makes committed records visible to other consumers.
	RefreshIndex(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}

// Counter is implemented by stores that can report how many records of a
// type they hold. An empty typeID counts every record.
type Counter interface {
	Count(ctx context.Context, typeID TypeID) (int, error)
}

// ImportRequest contains everything needed for one import run.
type ImportRequest struct {
	// FilePath is the CSV file to read.
	FilePath string

	// TypeID selects the record type rows are materialized as.
	TypeID TypeID

	// SaveFolder is the folder (relative to the store root) records are written to.
	SaveFolder string

	// IdentityTemplate computes each record's name. See the Placeholder constants.
	IdentityTemplate string

	// NameColumn is the 0-based column substituted for {column}.
	NameColumn int

	// DryRun materializes records without committing them.
	DryRun bool
}

// WithDefaults fills empty optional fields with their defaults.
func (r ImportRequest) WithDefaults() ImportRequest {
	if r.SaveFolder == "" {
		r.SaveFolder = DefaultSaveFolder
	}
	if r.IdentityTemplate == "" {
		r.IdentityTemplate = DefaultIdentityTemplate
	}
	return r
}

// Validate checks if the ImportRequest has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (r *ImportRequest) Validate() error {
	var errs []error

	if r.TypeID == "" {
		errs = append(errs, fmt.Errorf("TypeID is required: %w", ErrInvalidConfig))
	}

	if r.SaveFolder == "" {
		errs = append(errs, fmt.Errorf("SaveFolder is required: %w", ErrInvalidConfig))
	}

	if strings.TrimSpace(r.IdentityTemplate) == "" {
		errs = append(errs, fmt.Errorf("IdentityTemplate is required: %w", ErrInvalidConfig))
	}

	if r.NameColumn < 0 {
		errs = append(errs, fmt.Errorf("NameColumn cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ImportReport is the outcome of a completed import.
type ImportReport struct {
	Type TypeID

	// Rows is the number of data rows processed.
	Rows int

	// Created and Updated list record locations in order of first touch.
	Created []string
	Updated []string

	// Warnings holds every non-fatal field assignment failure.
	Warnings []*FieldAssignError

	// Committed is false for dry runs.
	Committed bool

	// Stored is the number of records of Type held by the store after the
	// commit. It is -1 when the store cannot count or the run was a dry run.
	Stored int
}

// Upserted returns the number of distinct records written.
func (r *ImportReport) Upserted() int {
	return len(r.Created) + len(r.Updated)
}
