// Package storage provides the persistence port used by the quota tracker and
// history store. Records are serialized text stored under fixed keys.
package storage

import "context"

// Store is a small keyed text store. Get reports ok=false when the key has
// never been written, which callers treat the same as a corrupt record.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
