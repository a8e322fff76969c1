package storage

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/rl1809/asset-vault/internal/core/domain"
)

// maxNestedLevels is the deepest CBOR nesting the decoder accepts. Every
// tree level costs two: the asset map and its children array.
const maxNestedLevels = 65535

var (
	snapshotEnc cbor.EncMode
	snapshotDec cbor.DecMode

	maxSnapshotDepth = (maxNestedLevels - 1) / 2

	ErrSnapshotTooDeep = errors.New("forest too deep for snapshot")
)

func init() {
	var err error
	snapshotEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("storage: CBOR encoder initialization failed: " + err.Error())
	}
	snapshotDec, err = cbor.DecOptions{MaxNestedLevels: maxNestedLevels}.DecMode()
	if err != nil {
		panic("storage: CBOR decoder initialization failed: " + err.Error())
	}
}

// snapshotAsset is the stored shape of an asset. Ancestors are rebuilt from
// the children on load.
type snapshotAsset struct {
	ItemID      int64  `cbor:"1,keyasint"`
	RecLocation int64  `cbor:"2,keyasint"`
	TypeID      int32  `cbor:"3,keyasint"`
	FlagID      int32  `cbor:"4,keyasint"`
	Quantity    int64  `cbor:"5,keyasint"`
	RawQuantity int32  `cbor:"6,keyasint,omitempty"`
	Singleton   bool   `cbor:"7,keyasint,omitempty"`
	LocationID  int64  `cbor:"8,keyasint"`
	OwnerID     int64  `cbor:"9,keyasint"`
	OwnerName   string `cbor:"10,keyasint,omitempty"`
	Source      string `cbor:"11,keyasint"`

	ItemName     string  `cbor:"12,keyasint"`
	ItemGroup    string  `cbor:"13,keyasint,omitempty"`
	ItemCategory string  `cbor:"14,keyasint,omitempty"`
	ItemVolume   float64 `cbor:"15,keyasint,omitempty"`
	ItemPrice    float64 `cbor:"16,keyasint,omitempty"`
	ItemUnknown  bool    `cbor:"17,keyasint,omitempty"`

	Children []snapshotAsset `cbor:"18,keyasint,omitempty"`
}

func encodeForest(forest domain.Forest) ([]byte, error) {
	if depth := forestDepth(forest); depth > maxSnapshotDepth {
		return nil, fmt.Errorf("encode forest: %w: %d levels", ErrSnapshotTooDeep, depth)
	}
	roots := make([]snapshotAsset, 0, len(forest))
	for _, a := range forest {
		roots = append(roots, toSnapshot(a))
	}
	data, err := snapshotEnc.Marshal(roots)
	if err != nil {
		return nil, fmt.Errorf("encode forest: %w", err)
	}
	return data, nil
}

func forestDepth(forest domain.Forest) int {
	depth := 0
	forest.Walk(func(a *domain.Asset) bool {
		if d := len(a.Ancestors) + 1; d > depth {
			depth = d
		}
		return true
	})
	return depth
}

func decodeForest(data []byte) (domain.Forest, error) {
	var roots []snapshotAsset
	if err := snapshotDec.Unmarshal(data, &roots); err != nil {
		return nil, fmt.Errorf("decode forest: %w", err)
	}
	forest := make(domain.Forest, 0, len(roots))
	for i := range roots {
		forest = append(forest, fromSnapshot(&roots[i]))
	}
	forest.LinkAncestors()
	return forest, nil
}

func toSnapshot(a *domain.Asset) snapshotAsset {
	s := snapshotAsset{
		ItemID:       a.Record.ItemID,
		RecLocation:  a.Record.LocationID,
		TypeID:       a.Record.TypeID,
		FlagID:       a.Record.FlagID,
		Quantity:     a.Record.Quantity,
		RawQuantity:  a.Record.RawQuantity,
		Singleton:    a.Record.Singleton,
		LocationID:   a.LocationID,
		OwnerID:      a.OwnerID,
		OwnerName:    a.OwnerName,
		Source:       string(a.Source),
		ItemName:     a.Item.Name,
		ItemGroup:    a.Item.Group,
		ItemCategory: a.Item.Category,
		ItemVolume:   a.Item.Volume,
		ItemPrice:    a.Item.BasePrice,
		ItemUnknown:  a.Item.Unknown,
	}
	for _, c := range a.Children {
		s.Children = append(s.Children, toSnapshot(c))
	}
	return s
}

func fromSnapshot(s *snapshotAsset) *domain.Asset {
	a := &domain.Asset{
		Record: domain.InventoryRecord{
			ItemID:      s.ItemID,
			LocationID:  s.RecLocation,
			TypeID:      s.TypeID,
			FlagID:      s.FlagID,
			Quantity:    s.Quantity,
			RawQuantity: s.RawQuantity,
			Singleton:   s.Singleton,
		},
		LocationID: s.LocationID,
		Item: domain.Item{
			TypeID:    s.TypeID,
			Name:      s.ItemName,
			Group:     s.ItemGroup,
			Category:  s.ItemCategory,
			Volume:    s.ItemVolume,
			BasePrice: s.ItemPrice,
			Unknown:   s.ItemUnknown,
		},
		OwnerID:   s.OwnerID,
		OwnerName: s.OwnerName,
		Source:    domain.AssetSource(s.Source),
	}
	for i := range s.Children {
		a.AddChild(fromSnapshot(&s.Children[i]))
	}
	return a
}
