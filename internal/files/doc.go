// Package files groups the file-facing layers of csvasset: the filesystem
// abstraction records and CSV tables are read from and written to, and the
// CSV loader.
package files
