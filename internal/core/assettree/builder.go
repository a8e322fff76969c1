// Package assettree turns flat, location-addressed inventory records into an
// owner's containment forest.
//
// A record whose LocationID matches another record's ItemID is nested inside
// that record; every other record is a root. Roots and children keep the order
// in which their records appear in the input.
package assettree

import (
	"github.com/rl1809/asset-vault/internal/core/domain"
	"github.com/rl1809/asset-vault/internal/port"
)

// Predicate reports whether a record is left out of the forest. The record it
// receives has LocationID resolved to the location of its forest root.
type Predicate func(rec domain.InventoryRecord, owner domain.OwnerContext) bool

// KeepAll excludes nothing.
func KeepAll(domain.InventoryRecord, domain.OwnerContext) bool { return false }

// Builder materializes forests. It keeps no state between calls and may be
// shared between goroutines.
type Builder struct {
	items port.ItemResolver
}

// NewBuilder returns a Builder annotating nodes through items. A nil resolver
// annotates every node with domain.UnknownItem.
func NewBuilder(items port.ItemResolver) *Builder {
	return &Builder{items: items}
}

type build struct {
	records  []domain.InventoryRecord
	children map[int64][]int
	owner    domain.OwnerContext
	exclude  Predicate
	items    port.ItemResolver
}

// Build returns the forest for records, or fails with *DuplicateIdentifierError
// or *CyclicReferenceError without producing any part of it.
//
// An excluded record is dropped together with its whole subtree: children are
// only visited below retained nodes.
func (b *Builder) Build(records []domain.InventoryRecord, owner domain.OwnerContext, exclude Predicate) (domain.Forest, error) {
	if exclude == nil {
		exclude = KeepAll
	}

	index := make(map[int64]int, len(records))
	for i, rec := range records {
		if first, dup := index[rec.ItemID]; dup {
			return nil, &DuplicateIdentifierError{ItemID: rec.ItemID, First: first, Second: i}
		}
		index[rec.ItemID] = i
	}

	if err := checkCycles(records, index); err != nil {
		return nil, err
	}

	children := make(map[int64][]int, len(records))
	var roots []int
	for i, rec := range records {
		if _, nested := index[rec.LocationID]; nested {
			children[rec.LocationID] = append(children[rec.LocationID], i)
			continue
		}
		roots = append(roots, i)
	}

	bld := &build{
		records:  records,
		children: children,
		owner:    owner,
		exclude:  exclude,
		items:    b.items,
	}

	forest := make(domain.Forest, 0, len(roots))
	for _, i := range roots {
		if asset := bld.materialize(i, nil); asset != nil {
			forest = append(forest, asset)
		}
	}
	return forest, nil
}

func (b *build) materialize(i int, parent *domain.Asset) *domain.Asset {
	rec := b.records[i]

	var ancestors []*domain.Asset
	location := rec.LocationID
	if parent != nil {
		ancestors = make([]*domain.Asset, 0, len(parent.Ancestors)+1)
		ancestors = append(ancestors, parent.Ancestors...)
		ancestors = append(ancestors, parent)
		location = parent.LocationID
	}

	resolved := rec
	resolved.LocationID = location
	if b.exclude(resolved, b.owner) {
		return nil
	}

	asset := &domain.Asset{
		Record:     rec,
		LocationID: location,
		Item:       b.item(rec.TypeID),
		OwnerID:    b.owner.ID,
		OwnerName:  b.owner.Name,
		Source:     domain.AssetSourceInventory,
		Ancestors:  ancestors,
	}
	for _, c := range b.children[rec.ItemID] {
		if child := b.materialize(c, asset); child != nil {
			asset.AddChild(child)
		}
	}
	return asset
}

func (b *build) item(typeID int32) domain.Item {
	if b.items == nil {
		return domain.UnknownItem(typeID)
	}
	return b.items.Item(typeID)
}

// checkCycles follows every record's container chain once. A chain that comes
// back to a record still on the current path is a cycle.
func checkCycles(records []domain.InventoryRecord, index map[int64]int) error {
	const (
		unseen = iota
		onPath
		settled
	)
	state := make([]uint8, len(records))
	path := make([]int, 0, 16)

	for start := range records {
		path = path[:0]
		cur := start
	walk:
		for {
			switch state[cur] {
			case settled:
				break walk
			case onPath:
				return &CyclicReferenceError{ItemID: records[cur].ItemID}
			}
			state[cur] = onPath
			path = append(path, cur)
			parent, nested := index[records[cur].LocationID]
			if !nested {
				break walk
			}
			cur = parent
		}
		for _, p := range path {
			state[p] = settled
		}
	}
	return nil
}
