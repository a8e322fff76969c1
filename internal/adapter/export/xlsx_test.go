package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rl1809/asset-vault/internal/core/assettree"
	"github.com/rl1809/asset-vault/internal/core/domain"
)

type items map[int32]domain.Item

func (i items) Item(typeID int32) domain.Item {
	if item, ok := i[typeID]; ok {
		return item
	}
	return domain.UnknownItem(typeID)
}

func TestWriteAssetsXLSX(t *testing.T) {
	catalog := items{
		587: {TypeID: 587, Name: "Rifter", Group: "Frigate", Category: "Ship"},
		34:  {TypeID: 34, Name: "Tritanium", Group: "Mineral", Category: "Material"},
	}
	records := []domain.InventoryRecord{
		{ItemID: 1, LocationID: 60003760, TypeID: 587, FlagID: domain.FlagHangar, Quantity: 1},
		{ItemID: 2, LocationID: 1, TypeID: 34, FlagID: domain.FlagCargo, Quantity: 5000},
		{ItemID: 3, LocationID: 60008494, TypeID: 34, FlagID: domain.FlagHangar, Quantity: 12},
	}
	forest, err := assettree.NewBuilder(catalog).Build(records, domain.OwnerContext{ID: 90000001, Name: "Pilot"}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteAssetsXLSX(&buf, forest))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Item ID", "Name", "Group", "Category", "Quantity", "Flag", "Location", "Container", "Owner"}, rows[0])
	assert.Equal(t, []string{"1", "Rifter", "Frigate", "Ship", "1", domain.FlagName(domain.FlagHangar), "60003760", "", "Pilot"}, rows[1])
	assert.Equal(t, []string{"2", "Tritanium", "Mineral", "Material", "5000", domain.FlagName(domain.FlagCargo), "60003760", "Rifter", "Pilot"}, rows[2])
	assert.Equal(t, "60008494", rows[3][6])
}

func TestWriteAssetsXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAssetsXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
