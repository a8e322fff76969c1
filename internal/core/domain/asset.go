package domain

import "strings"

type AssetSource string

const (
	AssetSourceInventory   AssetSource = "inventory"
	AssetSourceIndustryJob AssetSource = "industry_job"
	AssetSourceMarketOrder AssetSource = "market_order"
	AssetSourceContract    AssetSource = "contract"
)

// Asset is one materialized node of an owner's containment forest.
//
// Ancestors runs from the forest root down to the direct parent and never
// contains the asset itself. LocationID is the root's location, so every asset
// in a tree reports the station or structure the whole tree sits in.
type Asset struct {
	Record     InventoryRecord
	LocationID int64
	Item       Item
	OwnerID    int64
	OwnerName  string
	Source     AssetSource
	Ancestors  []*Asset
	Children   []*Asset
}

func (a *Asset) Parent() *Asset {
	if len(a.Ancestors) == 0 {
		return nil
	}
	return a.Ancestors[len(a.Ancestors)-1]
}

func (a *Asset) Root() *Asset {
	if len(a.Ancestors) == 0 {
		return a
	}
	return a.Ancestors[0]
}

func (a *Asset) AddChild(child *Asset) {
	a.Children = append(a.Children, child)
}

// ContainerPath renders the ancestor chain as "Root > ... > Parent".
func (a *Asset) ContainerPath() string {
	names := make([]string, 0, len(a.Ancestors))
	for _, ancestor := range a.Ancestors {
		names = append(names, ancestor.Item.Name)
	}
	return strings.Join(names, " > ")
}

// Forest is an ordered list of root assets.
type Forest []*Asset

// Walk visits every asset depth-first, parents before children. Returning
// false from fn skips that asset's children.
func (f Forest) Walk(fn func(*Asset) bool) {
	for _, root := range f {
		walk(root, fn)
	}
}

func walk(a *Asset, fn func(*Asset) bool) {
	if !fn(a) {
		return
	}
	for _, child := range a.Children {
		walk(child, fn)
	}
}

func (f Forest) Len() int {
	n := 0
	f.Walk(func(*Asset) bool {
		n++
		return true
	})
	return n
}

func (f Forest) Find(itemID int64) *Asset {
	var found *Asset
	f.Walk(func(a *Asset) bool {
		if found != nil {
			return false
		}
		if a.Record.ItemID == itemID {
			found = a
			return false
		}
		return true
	})
	return found
}

// Records flattens the forest back into records in depth-first order. Records
// of nested assets point at their container's ItemID.
func (f Forest) Records() []InventoryRecord {
	records := make([]InventoryRecord, 0, f.Len())
	f.Walk(func(a *Asset) bool {
		rec := a.Record
		if parent := a.Parent(); parent != nil {
			rec.LocationID = parent.Record.ItemID
		}
		records = append(records, rec)
		return true
	})
	return records
}

// LinkAncestors rebuilds every Ancestors chain from the Children structure.
// Decoders that only persist children call it after loading.
func (f Forest) LinkAncestors() {
	for _, root := range f {
		root.Ancestors = nil
		linkChildren(root)
	}
}

func linkChildren(parent *Asset) {
	for _, child := range parent.Children {
		chain := make([]*Asset, 0, len(parent.Ancestors)+1)
		chain = append(chain, parent.Ancestors...)
		child.Ancestors = append(chain, parent)
		linkChildren(child)
	}
}
