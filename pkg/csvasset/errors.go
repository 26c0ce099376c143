package csvasset

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	report, err := importer.Run(ctx, req)
//	if errors.Is(err, csvasset.ErrLoad) {
//	    // CSV file missing or unreadable
//	}
var (
	// ErrInvalidConfig indicates the provided configuration or request is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrLoad indicates the CSV file could not be loaded.
	ErrLoad = errors.New("load failed")

	// ErrCoercion indicates a cell could not be converted to the field's scalar kind.
	ErrCoercion = errors.New("coercion failed")

	// ErrAssign indicates a coerced value could not be stored on the record.
	ErrAssign = errors.New("assignment failed")

	// ErrCommit indicates the content store failed to persist the batch.
	ErrCommit = errors.New("commit failed")

	// ErrUnknownType indicates the requested record type is not registered.
	ErrUnknownType = errors.New("unknown record type")

	// ErrUnsafeIdentity indicates a computed identity would place the record
	// outside the save folder.
	ErrUnsafeIdentity = errors.New("identity escapes save folder")

	// ErrStoreUnavailable indicates the content store could not be opened.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// LoadError reports a CSV file that could not be read. It aborts the import
// before any row is processed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load csv: %v", e.Err)
	}
	return fmt.Sprintf("load csv %s: %v", e.Path, e.Err)
}

// Unwrap lets errors.Is match both ErrLoad and the underlying cause.
func (e *LoadError) Unwrap() []error {
	return []error{ErrLoad, e.Err}
}

// FieldAssignError is a non-fatal failure to set one field on one row.
// Row is the 0-based data row index (the header is not counted).
type FieldAssignError struct {
	Row   int
	Field string
	Cell  string
	Err   error
}

func (e *FieldAssignError) Error() string {
	return fmt.Sprintf("row %d [%s] = %q: %v", e.Row, e.Field, e.Cell, e.Err)
}

func (e *FieldAssignError) Unwrap() error {
	return e.Err
}

// CommitError reports a failed batch commit or index refresh. Records that
// were already written are not rolled back.
type CommitError struct {
	Pending int
	Err     error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit %d record(s): %v", e.Pending, e.Err)
}

func (e *CommitError) Unwrap() []error {
	return []error{ErrCommit, e.Err}
}

// usageErrorPatterns are the message fragments cobra uses for CLI misuse.
var usageErrorPatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"required flag",
	"invalid argument",
	"flag needs an argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrStoreUnavailable):
		return ExitStoreUnavailable
	case errors.Is(err, ErrLoad):
		return ExitLoadError
	case errors.Is(err, ErrCommit):
		return ExitCommitError
	case errors.Is(err, ErrUnknownType):
		return ExitUnknownType
	}

	errStr := err.Error()
	for _, pattern := range usageErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return ExitUsageError
		}
	}

	return ExitGeneralError
}
