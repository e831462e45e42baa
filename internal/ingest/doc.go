// Package ingest owns the session's uploaded files. File metadata is an
// ordered sequence persisted through a store.FileRecordStore after every
// mutation; file content lives only in memory and is lost on restart.
//
// Persistence failures never undo a mutation. They are logged, published as
// storage.warning events and reported in the operation's result.
package ingest
