// Package store holds what the content store backends share: the
// configuration that selects a backend and the Batch that stages records
// between an import's first row and its single commit.
//
// Backends live in sub-packages (filestore, sqlitestore, pgstore,
// mongostore); backends.Open picks one from a Config.
package store
