// Package storage provides the persistence backends for the record store.
// The store keeps whole collections as JSON documents under stable keys, so
// the backend contract is a small key/document interface rather than a
// relational schema. ErrNotFound is returned for keys that were never
// written; callers treat that as an empty collection.
package storage

import (
	"context"
	"errors"
)

// Keys under which the store persists its collections. The names match the
// keys used by earlier versions of the system so existing data stays
// readable.
const (
	KeyUsers        = "vacun_users"
	KeySession      = "vacun_user"
	KeyCertificates = "vacun_certificates"
)

// ErrNotFound is returned when a key has no stored document.
var ErrNotFound = errors.New("storage: key not found")

// Storage persists JSON documents under stable keys. Implementations must be
// safe for concurrent use; the store serializes its own read-modify-write
// cycles but readers may run concurrently.
type Storage interface {
	// Get returns the raw document stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores the raw document under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes the document under key. Deleting an absent key is not
	// an error.
	Delete(ctx context.Context, key string) error
}
