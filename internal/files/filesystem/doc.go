// Package filesystem provides filesystem abstraction interfaces and implementations.
//
// This package defines interfaces for file and directory operations, enabling
// testability through in-memory implementations while maintaining compatibility
// with the OS filesystem. Unlike a read-only fs.FS, providers can also create
// directories and write files, which the file-backed content store relies on.
//
// Key interfaces:
//   - FileSystemProvider: read, write and traverse files
//   - Directory: Represents a directory that can be traversed
//   - File: Represents an individual file with metadata and content
//
// Implementations:
//   - OSFileSystem: Production implementation using OS filesystem
//   - MemoryFileSystem: In-memory implementation for testing
//
// Missing paths are reported with errors wrapping fs.ErrNotExist, so callers
// can use errors.Is(err, fs.ErrNotExist) regardless of the implementation.
package filesystem
