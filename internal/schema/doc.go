// Package schema is the registry of record types rows can be imported as.
//
// Record types are registered explicitly from a YAML schema file (Parse,
// LoadFile) or built directly with NewRecordType. Nothing is discovered at
// import time: a RecordType carries its field descriptors, an O(1)
// name lookup and a setter table, all built once at registration.
//
// # Eligibility
//
// A declared field is importable when it is exported or explicitly marked
// serializable, and it is neither static nor computed. Ineligible fields are
// not part of the record type at all.
//
// # Scalar kinds
//
// Fields of kind int, float, double, bool or string are coercion targets.
// Any other declared type is kept for display with its raw type name and has
// no setter, so cells in that column are never assigned.
package schema
