package port

import (
	"context"

	"github.com/rl1809/asset-vault/internal/core/domain"
)

type ItemRepository interface {
	// GetItem returns type metadata, nil if the type is not stored
	GetItem(ctx context.Context, typeID int32) (*domain.Item, error)
}

// ItemResolver never fails: unknown types resolve to domain.UnknownItem.
type ItemResolver interface {
	Item(typeID int32) domain.Item
}
