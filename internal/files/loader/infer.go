package loader

import (
	"github.com/vvka-141/csvasset/internal/schema"
	"github.com/vvka-141/csvasset/pkg/csvasset"
)

// ColumnPreview is the guessed kind of one column.
type ColumnPreview struct {
	Header string
	Sample string
	Kind   csvasset.ScalarKind
}

// inferenceOrder lists the kinds tried by InferKind. Float32 is absent
// because every float32 literal also parses as float64.
var inferenceOrder = []csvasset.ScalarKind{
	csvasset.KindInteger,
	csvasset.KindFloat64,
	csvasset.KindBoolean,
}

// Infer guesses each column's kind from the first data row.
// Columns the sample row does not reach are reported as text with an empty sample.
func Infer(header Header, data []Row) []ColumnPreview {
	var sample Row
	if len(data) > 0 {
		sample = data[0]
	}

	width := len(header)
	if len(sample) > width {
		width = len(sample)
	}

	previews := make([]ColumnPreview, width)
	for i := range previews {
		if i < len(header) {
			previews[i].Header = header[i]
		}
		previews[i].Kind = csvasset.KindText
		if i < len(sample) {
			previews[i].Sample = sample[i]
			previews[i].Kind = InferKind(sample[i])
		}
	}
	return previews
}

// InferKind returns the first kind the cell coerces to, falling back to text.
func InferKind(cell string) csvasset.ScalarKind {
	for _, kind := range inferenceOrder {
		if _, err := schema.Coerce(kind, cell); err == nil {
			return kind
		}
	}
	return csvasset.KindText
}
