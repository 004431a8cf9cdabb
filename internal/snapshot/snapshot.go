// Package snapshot persists per-store state snapshots under namespaced keys.
// Each store serializes only its declared durable subset and writes it after
// every committed mutation; the snapshot is read back once at startup.
package snapshot

import (
	"context"
)

// Keys under which the two stores persist their durable subsets.
const (
	IdentityKey = "shoppingmall.identity"
	AdminKey    = "shoppingmall.admin"
)

// Store is a keyed durable blob store. Load reports ok=false when no snapshot
// has ever been written for the key.
type Store interface {
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}
