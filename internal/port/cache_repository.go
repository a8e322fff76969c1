package port

import (
	"context"
	"time"

	"github.com/rl1809/asset-vault/internal/core/domain"
)

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)
	// ReleaseIdempotency drops a key whose request was never accepted
	ReleaseIdempotency(ctx context.Context, key string) error

	// StoreForest saves an owner's forest unless a newer inventory version is already stored
	StoreForest(ctx context.Context, ownerID int64, version int, forest domain.Forest) (bool, error)

	// LoadForest returns the stored forest and its inventory version, ok=false on miss
	LoadForest(ctx context.Context, ownerID int64) (forest domain.Forest, version int, ok bool, err error)
}

type OwnerLocker interface {
	// LockOwner takes the per-owner refresh lock, ok=false if another worker holds it
	LockOwner(ctx context.Context, ownerID int64, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}
