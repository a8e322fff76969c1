package port

import (
	"context"

	"github.com/rl1809/asset-vault/internal/core/domain"
)

type DatabaseRepository interface {
	// UpsertOwner creates or renames an owner, keeping its inventory version
	UpsertOwner(ctx context.Context, owner domain.OwnerContext) error

	// GetOwner returns the owner and its current inventory version, nil if missing
	GetOwner(ctx context.Context, ownerID int64) (*domain.Owner, error)

	// ListInventory returns an owner's records in their stored order
	ListInventory(ctx context.Context, ownerID int64) ([]domain.InventoryRecord, error)

	// SaveInventory replaces an owner's records with version check for optimistic locking
	SaveInventory(ctx context.Context, ownerID int64, expectedVersion int, records []domain.InventoryRecord) (int, error)
}
