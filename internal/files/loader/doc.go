// Package loader reads comma-separated tables for import.
//
// The format is deliberately naive: every non-blank line is split on ','
// with no quoting or escaping. A cell cannot contain a comma or a newline.
// Lines made only of whitespace are dropped entirely.
//
// Load does not distinguish the header from data rows; SplitHeader makes
// that step explicit. Infer produces the preview shown before an import
// and never influences what gets written.
package loader
