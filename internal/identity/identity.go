// Package identity computes record names from user templates.
package identity

import (
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/vvka-141/csvasset/pkg/csvasset"
)

// Values are the inputs substituted into a template.
type Values struct {
	Type   string
	Index  int
	Column string
	GUID   string
}

// Expand substitutes the {type}, {index}, {column} and {guid} placeholders.
// Replacement is literal; unknown placeholders are left untouched.
func Expand(template string, v Values) string {
	return strings.NewReplacer(
		csvasset.PlaceholderType, v.Type,
		csvasset.PlaceholderIndex, fmt.Sprintf("%03d", v.Index),
		csvasset.PlaceholderColumn, v.Column,
		csvasset.PlaceholderGUID, v.GUID,
	).Replace(template)
}

// UsesGUID reports whether the template produces a fresh name on every run.
func UsesGUID(template string) bool {
	return strings.Contains(template, csvasset.PlaceholderGUID)
}

// NewGUID returns a random 32 character lowercase hex token (a UUIDv4 without hyphens).
func NewGUID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// ColumnValue returns the cell at column, or csvasset.UnnamedColumnValue when
// the row is too short.
func ColumnValue(row []string, column int) string {
	if column >= 0 && column < len(row) {
		return row[column]
	}
	return csvasset.UnnamedColumnValue
}

// Location joins the save folder, the identity and the record extension.
// Names that would resolve outside saveFolder, such as "../x" or "a/../../x",
// are rejected with csvasset.ErrUnsafeIdentity.
func Location(saveFolder, name string) (string, error) {
	folder := path.Clean(saveFolder)
	location := path.Join(folder, name+csvasset.RecordExtension)
	if !within(folder, location) {
		return "", fmt.Errorf("%w: %q resolves to %s", csvasset.ErrUnsafeIdentity, name, location)
	}
	return location, nil
}

func within(folder, location string) bool {
	switch folder {
	case ".":
		return location != ".." && !strings.HasPrefix(location, "../") && !path.IsAbs(location)
	case "/":
		return true
	}
	return strings.HasPrefix(location, folder+"/")
}

// Namer expands one template for successive rows.
type Namer struct {
	template string
	typeName string
	newGUID  func() string
}

// NewNamer creates a Namer for the given template and record type short name.
func NewNamer(template, typeName string) *Namer {
	return &Namer{template: template, typeName: typeName, newGUID: NewGUID}
}

// WithGUIDSource replaces the GUID generator, for deterministic tests.
func (n *Namer) WithGUIDSource(fn func() string) *Namer {
	n.newGUID = fn
	return n
}

// Name computes the identity of the row at index.
// A GUID is only generated when the template asks for one.
func (n *Namer) Name(index int, columnValue string) string {
	v := Values{Type: n.typeName, Index: index, Column: columnValue}
	if UsesGUID(n.template) {
		v.GUID = n.newGUID()
	}
	return Expand(n.template, v)
}
