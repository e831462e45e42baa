// Package store defines the persistence contracts of the application and the
// errors shared by every implementation. The durable medium holds only file
// metadata; binary content never reaches a store.
package store
