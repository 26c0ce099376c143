package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/csvasset/internal/files/filesystem"
	"github.com/vvka-141/csvasset/pkg/csvasset"
)

// File is the YAML schema document:
//
//	types:
//	  - name: game.data.Monster
//	    fields:
//	      - {name: hp, type: int}
//	      - {name: notes, type: string, exported: false, serialize: true}
//	      - {name: Count, type: int, static: true}
type File struct {
	Types []TypeDefinition `yaml:"types"`
}

// TypeDefinition declares one record type.
type TypeDefinition struct {
	Name   string            `yaml:"name"`
	Fields []FieldDefinition `yaml:"fields"`
}

// FieldDefinition declares one field. Exported defaults to true.
type FieldDefinition struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Exported  *bool  `yaml:"exported,omitempty"`
	Serialize bool   `yaml:"serialize,omitempty"`
	Static    bool   `yaml:"static,omitempty"`
	Computed  bool   `yaml:"computed,omitempty"`
}

// Eligible reports whether the field is importable.
func (f FieldDefinition) Eligible() bool {
	exported := f.Exported == nil || *f.Exported
	return (exported || f.Serialize) && !f.Static && !f.Computed
}

// Descriptor converts the definition into a field descriptor.
func (f FieldDefinition) Descriptor() csvasset.FieldDescriptor {
	return csvasset.FieldDescriptor{
		Name:     f.Name,
		Kind:     ParseKind(f.Type),
		TypeName: f.Type,
	}
}

// Build creates the record type, dropping ineligible fields.
func (d TypeDefinition) Build() (*RecordType, error) {
	var fields []csvasset.FieldDescriptor
	for _, f := range d.Fields {
		if f.Eligible() {
			fields = append(fields, f.Descriptor())
		}
	}
	return NewRecordType(csvasset.TypeID(d.Name), fields)
}

// Parse decodes a schema document and builds its record types.
func Parse(data []byte) ([]*RecordType, error) {
	var doc File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse schema: %v: %w", err, csvasset.ErrInvalidConfig)
	}

	types := make([]*RecordType, 0, len(doc.Types))
	for i, def := range doc.Types {
		rt, err := def.Build()
		if err != nil {
			return nil, fmt.Errorf("schema type #%d: %w", i+1, err)
		}
		types = append(types, rt)
	}
	return types, nil
}

// LoadFile reads a schema document from provider and registers its types.
func LoadFile(provider filesystem.FileSystemProvider, path string, registry *Registry) error {
	data, err := provider.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schema %s: %v: %w", path, err, csvasset.ErrInvalidConfig)
	}

	types, err := Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return registry.RegisterAll(types)
}
