package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vvka-141/csvasset/pkg/csvasset"
)

// kindNames maps declared type names to scalar kinds. Lookup is case-sensitive
// so that a user type named "String" is not mistaken for text.
var kindNames = map[string]csvasset.ScalarKind{
	"int":     csvasset.KindInteger,
	"integer": csvasset.KindInteger,
	"int32":   csvasset.KindInteger,
	"int64":   csvasset.KindInteger,
	"float":   csvasset.KindFloat32,
	"float32": csvasset.KindFloat32,
	"double":  csvasset.KindFloat64,
	"float64": csvasset.KindFloat64,
	"bool":    csvasset.KindBoolean,
	"boolean": csvasset.KindBoolean,
	"string":  csvasset.KindText,
	"text":    csvasset.KindText,
}

// ParseKind classifies a declared type name.
func ParseKind(typeName string) csvasset.ScalarKind {
	return kindNames[strings.TrimSpace(typeName)]
}

// Coerce converts a cell to the Go value stored for kind:
// int64, float32, float64, bool or string.
// Surrounding whitespace is ignored for every kind but text. Floats must be
// finite. Failures wrap csvasset.ErrCoercion.
func Coerce(kind csvasset.ScalarKind, cell string) (any, error) {
	if kind == csvasset.KindText {
		return cell, nil
	}
	trimmed := strings.TrimSpace(cell)

	switch kind {
	case csvasset.KindInteger:
		v, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, coercionError(kind, err)
		}
		return v, nil
	case csvasset.KindFloat32:
		v, err := parseFinite(kind, trimmed, 32)
		if err != nil {
			return nil, err
		}
		return float32(v), nil
	case csvasset.KindFloat64:
		return parseFinite(kind, trimmed, 64)
	case csvasset.KindBoolean:
		switch {
		case strings.EqualFold(trimmed, "true"):
			return true, nil
		case strings.EqualFold(trimmed, "false"):
			return false, nil
		}
		return nil, fmt.Errorf("%w: %q is not true or false", csvasset.ErrCoercion, cell)
	default:
		return nil, fmt.Errorf("%w: %s is not a scalar kind", csvasset.ErrCoercion, kind)
	}
}

// parseFinite parses a float and rejects NaN and infinities.
func parseFinite(kind csvasset.ScalarKind, s string, bitSize int) (float64, error) {
	v, err := strconv.ParseFloat(s, bitSize)
	if err != nil {
		return 0, coercionError(kind, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: not a valid %s: %q is not finite", csvasset.ErrCoercion, kind, s)
	}
	return v, nil
}

func coercionError(kind csvasset.ScalarKind, err error) error {
	if numErr, ok := err.(*strconv.NumError); ok {
		err = numErr.Err
	}
	return fmt.Errorf("%w: not a valid %s: %v", csvasset.ErrCoercion, kind, err)
}
