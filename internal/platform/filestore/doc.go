// Package filestore implements store.FileRecordStore with one msgpack
// snapshot file per session. Writes are atomic (temp file plus rename) and
// bounded by a byte quota; a snapshot larger than the quota is rejected
// with store.ErrStorageQuotaExceeded.
package filestore
