// Package catalog resolves type ids to item metadata.
package catalog

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/rl1809/asset-vault/internal/core/domain"
)

// StaticResolver serves a fixed catalog, usually loaded from YAML.
type StaticResolver map[int32]domain.Item

type catalogFile struct {
	Items []domain.Item `yaml:"items"`
}

func LoadYAML(path string) (StaticResolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML reads a document of the form
//
//	items:
//	  - type_id: 34
//	    name: Tritanium
//	    group: Mineral
//	    category: Material
func ParseYAML(data []byte) (StaticResolver, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	resolver := make(StaticResolver, len(file.Items))
	for i, item := range file.Items {
		if item.TypeID == 0 {
			return nil, fmt.Errorf("parse catalog: item %d has no type_id", i)
		}
		if _, dup := resolver[item.TypeID]; dup {
			return nil, fmt.Errorf("parse catalog: type_id %d listed twice", item.TypeID)
		}
		resolver[item.TypeID] = item
	}
	return resolver, nil
}

func (s StaticResolver) Item(typeID int32) domain.Item {
	if item, ok := s[typeID]; ok {
		return item
	}
	return domain.UnknownItem(typeID)
}

// Items lists the catalog ordered by type id.
func (s StaticResolver) Items() []domain.Item {
	items := make([]domain.Item, 0, len(s))
	for _, id := range slices.Sorted(maps.Keys(s)) {
		items = append(items, s[id])
	}
	return items
}
