// Package importer turns the rows of a CSV file into records of a registered
// type and upserts them into a content store.
//
// Each data row is named from the identity template, looked up in the store
// by its computed location, created when absent, and then has every header
// column that matches a field assigned from its cell. Cells that cannot be
// coerced are reported as warnings and never stop the import. All records
// are committed in one batch once every row has been processed.
package importer
