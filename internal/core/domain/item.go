package domain

import "fmt"

// Item is the static metadata of an inventory type.
type Item struct {
	TypeID    int32   `yaml:"type_id"`
	Name      string  `yaml:"name"`
	Group     string  `yaml:"group"`
	Category  string  `yaml:"category"`
	Volume    float64 `yaml:"volume"`
	BasePrice float64 `yaml:"base_price"`
	Unknown   bool    `yaml:"-"`
}

// UnknownItem is returned by resolvers for type ids missing from every catalog.
func UnknownItem(typeID int32) Item {
	return Item{
		TypeID:   typeID,
		Name:     fmt.Sprintf("!%d", typeID),
		Group:    "Unknown",
		Category: "Unknown",
		Unknown:  true,
	}
}
