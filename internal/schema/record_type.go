package schema

import (
	"fmt"
	"math"

	"github.com/vvka-141/csvasset/pkg/csvasset"
)

// Setter coerces a cell and stores it on the record.
// Coercion failures wrap csvasset.ErrCoercion and leave the record untouched.
type Setter func(rec *csvasset.Record, cell string) error

// RecordType is an immutable record schema: its identifier, its importable
// fields and the setter table built from them.
type RecordType struct {
	id      csvasset.TypeID
	fields  []csvasset.FieldDescriptor
	byName  map[string]int
	setters map[string]Setter
}

// NewRecordType builds a record type. Field names must be unique.
func NewRecordType(id csvasset.TypeID, fields []csvasset.FieldDescriptor) (*RecordType, error) {
	if id == "" {
		return nil, fmt.Errorf("record type id is empty: %w", csvasset.ErrInvalidConfig)
	}

	rt := &RecordType{
		id:      id,
		fields:  make([]csvasset.FieldDescriptor, 0, len(fields)),
		byName:  make(map[string]int, len(fields)),
		setters: make(map[string]Setter, len(fields)),
	}

	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%s: field with empty name: %w", id, csvasset.ErrInvalidConfig)
		}
		if _, dup := rt.byName[f.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate field %q: %w", id, f.Name, csvasset.ErrInvalidConfig)
		}
		rt.byName[f.Name] = len(rt.fields)
		rt.fields = append(rt.fields, f)
		if f.Kind.Assignable() {
			rt.setters[f.Name] = newSetter(f)
		}
	}

	return rt, nil
}

func newSetter(f csvasset.FieldDescriptor) Setter {
	name, kind := f.Name, f.Kind
	return func(rec *csvasset.Record, cell string) error {
		v, err := Coerce(kind, cell)
		if err != nil {
			return err
		}
		rec.Set(name, v)
		return nil
	}
}

// ID returns the full type identifier.
func (t *RecordType) ID() csvasset.TypeID { return t.id }

// Name returns the short name used for the {type} placeholder.
func (t *RecordType) Name() string { return t.id.ShortName() }

// Fields returns a copy of the field descriptors in declaration order.
func (t *RecordType) Fields() []csvasset.FieldDescriptor {
	out := make([]csvasset.FieldDescriptor, len(t.fields))
	copy(out, t.fields)
	return out
}

// Field looks up a descriptor by exact, case-sensitive name.
func (t *RecordType) Field(name string) (csvasset.FieldDescriptor, bool) {
	i, ok := t.byName[name]
	if !ok {
		return csvasset.FieldDescriptor{}, false
	}
	return t.fields[i], true
}

// Setter returns the setter for a field. Unsupported fields have none.
func (t *RecordType) Setter(name string) (Setter, bool) {
	s, ok := t.setters[name]
	return s, ok
}

// New instantiates a blank record of this type.
func (t *RecordType) New() *csvasset.Record {
	return csvasset.NewRecord(t.id)
}

// Conform converts values decoded from a store (YAML ints, JSON floats,
// driver-specific numbers) back to the Go types setters produce. Values that
// cannot be converted are left as they are.
func (t *RecordType) Conform(rec *csvasset.Record) {
	for _, f := range t.fields {
		v, ok := rec.Fields[f.Name]
		if !ok || v == nil {
			continue
		}
		if converted, ok := conformValue(f.Kind, v); ok {
			rec.Fields[f.Name] = converted
		}
	}
}

func conformValue(kind csvasset.ScalarKind, v any) (any, bool) {
	switch kind {
	case csvasset.KindInteger:
		switch n := v.(type) {
		case int:
			return int64(n), true
		case int32:
			return int64(n), true
		case int64:
			return n, true
		case uint64:
			if n <= math.MaxInt64 {
				return int64(n), true
			}
		case float64:
			if n == math.Trunc(n) && n >= math.MinInt64 && n <= math.MaxInt64 {
				return int64(n), true
			}
		}
	case csvasset.KindFloat32:
		switch n := v.(type) {
		case float32:
			return n, true
		case float64:
			return float32(n), true
		case int:
			return float32(n), true
		case int64:
			return float32(n), true
		}
	case csvasset.KindFloat64:
		switch n := v.(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		}
	case csvasset.KindBoolean:
		if b, ok := v.(bool); ok {
			return b, true
		}
	case csvasset.KindText:
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return nil, false
}
