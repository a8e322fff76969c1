package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/asset-vault/internal/core/domain"
)

type stubItems map[int32]domain.Item

func (s stubItems) Item(typeID int32) domain.Item {
	if item, ok := s[typeID]; ok {
		return item
	}
	return domain.UnknownItem(typeID)
}

var (
	testItems = stubItems{
		34:  {TypeID: 34, Name: "Tritanium", Group: "Mineral", Category: "Material"},
		587: {TypeID: 587, Name: "Rifter", Group: "Frigate", Category: "Ship"},
		691: {TypeID: 691, Name: "Rifter Blueprint", Group: "Frigate Blueprint", Category: "Blueprint"},
	}
	pilot = domain.OwnerContext{ID: 90000001, Name: "Pilot"}
)

func int32p(v int32) *int32 { return &v }

func TestConverter_AssetsAppliesIgnorePolicy(t *testing.T) {
	records := []domain.InventoryRecord{
		{ItemID: 1, LocationID: 60003760, TypeID: 587, FlagID: domain.FlagHangar, Quantity: 1, Singleton: true},
		{ItemID: 2, LocationID: 1, TypeID: 34, FlagID: domain.FlagCargo, Quantity: 500},
		{ItemID: 3, LocationID: pilot.ID, TypeID: 34, FlagID: domain.FlagImplant, Quantity: 1},
		{ItemID: 4, LocationID: pilot.ID, TypeID: 34, FlagID: domain.FlagHangar, Quantity: 1},
		{ItemID: 5, LocationID: 60003760, TypeID: 34, FlagID: domain.FlagSkill, Quantity: 1},
	}

	forest, err := NewConverter(testItems).Assets(records, pilot)
	require.NoError(t, err)

	require.Len(t, forest, 1)
	assert.Equal(t, "Rifter", forest[0].Item.Name)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "Rifter", forest[0].Children[0].ContainerPath())
	assert.Equal(t, int64(60003760), forest[0].Children[0].LocationID)
}

func TestIgnoreAsset(t *testing.T) {
	cases := []struct {
		name string
		rec  domain.InventoryRecord
		want bool
	}{
		{"hangar", domain.InventoryRecord{FlagID: domain.FlagHangar, LocationID: 60003760}, false},
		{"skill", domain.InventoryRecord{FlagID: domain.FlagSkill, LocationID: 60003760}, true},
		{"skill in training", domain.InventoryRecord{FlagID: domain.FlagSkillInTraining}, true},
		{"booster", domain.InventoryRecord{FlagID: domain.FlagBooster}, true},
		{"implant", domain.InventoryRecord{FlagID: domain.FlagImplant}, true},
		{"on owner", domain.InventoryRecord{FlagID: domain.FlagHangar, LocationID: pilot.ID}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IgnoreAsset(tc.rec, pilot))
		})
	}
}

func TestConverter_IndustryJobAssets(t *testing.T) {
	jobs := []domain.IndustryJob{
		{JobID: 10, StationID: 60003760, Activity: domain.ActivityManufacturing, BlueprintID: 100, BlueprintTypeID: 691,
			ProductTypeID: int32p(587), Runs: 3, OutputLocationID: 60003761, Status: domain.JobStatusActive, OwnerID: pilot.ID},
		{JobID: 11, FacilityID: 1022734985679, Activity: domain.ActivityCopying, BlueprintID: 101, BlueprintTypeID: 691,
			Status: domain.JobStatusActive, OwnerID: pilot.ID},
		{JobID: 12, StationID: 60003760, Activity: domain.ActivityManufacturing, BlueprintID: 102, BlueprintTypeID: 691,
			ProductTypeID: int32p(587), Status: domain.JobStatusDelivered, OwnerID: pilot.ID},
	}
	c := NewConverter(testItems)

	assets := c.IndustryJobAssets(jobs, true)
	require.Len(t, assets, 3)
	assert.Equal(t, int64(100), assets[0].Record.ItemID)
	assert.Equal(t, int64(60003760), assets[0].LocationID)
	assert.Equal(t, "Rifter Blueprint", assets[0].Item.Name)
	assert.Equal(t, int64(10), assets[1].Record.ItemID)
	assert.Equal(t, int64(3), assets[1].Record.Quantity)
	assert.Equal(t, int64(60003761), assets[1].LocationID)
	assert.Equal(t, "Rifter", assets[1].Item.Name)
	assert.Equal(t, int64(1022734985679), assets[2].LocationID)
	for _, a := range assets {
		assert.Equal(t, domain.AssetSourceIndustryJob, a.Source)
	}

	assert.Len(t, c.IndustryJobAssets(jobs, false), 2)
}

func TestConverter_MarketOrderAssets(t *testing.T) {
	orders := []domain.MarketOrder{
		{OrderID: 1, StationID: 60003760, TypeID: 34, VolRemaining: 100, State: domain.OrderStateActive},
		{OrderID: 2, StationID: 60003760, TypeID: 34, VolRemaining: 50, State: domain.OrderStateActive, Bid: true},
		{OrderID: 3, StationID: 60003760, TypeID: 34, VolRemaining: 10, State: domain.OrderStateClosed},
		{OrderID: 4, StationID: 60003760, TypeID: 34, VolRemaining: 0, State: domain.OrderStateActive},
	}
	c := NewConverter(testItems)

	ids := func(assets []*domain.Asset) []int64 {
		var out []int64
		for _, a := range assets {
			out = append(out, a.Record.ItemID)
		}
		return out
	}
	assert.Equal(t, []int64{1, 2}, ids(c.MarketOrderAssets(orders, true, true)))
	assert.Equal(t, []int64{1}, ids(c.MarketOrderAssets(orders, true, false)))
	assert.Equal(t, []int64{2}, ids(c.MarketOrderAssets(orders, false, true)))
	assert.Empty(t, c.MarketOrderAssets(orders, false, false))
}

func TestConverter_ContractAssets(t *testing.T) {
	contracts := map[int64]*domain.Contract{
		20: {ContractID: 20, IssuerID: pilot.ID, StartStationID: 60003760, Status: domain.ContractStatusOutstanding,
			Type: domain.ContractTypeItemExchange, Items: []domain.ContractItem{
				{RecordID: 201, TypeID: 587, Quantity: 1, Included: true},
				{RecordID: 202, TypeID: 34, Quantity: 1000, Included: false},
			}},
		10: {ContractID: 10, IssuerID: pilot.ID, StartStationID: 60003760, Status: domain.ContractStatusInProgress,
			Type: domain.ContractTypeAuction, Items: []domain.ContractItem{{RecordID: 101, TypeID: 34, Quantity: 5, Included: true}}},
		30: {ContractID: 30, IssuerID: 1, Status: domain.ContractStatusOutstanding, Type: domain.ContractTypeItemExchange,
			Items: []domain.ContractItem{{RecordID: 301, TypeID: 34, Included: true}}},
		40: {ContractID: 40, IssuerID: pilot.ID, Status: domain.ContractStatusCompleted, Type: domain.ContractTypeItemExchange,
			Items: []domain.ContractItem{{RecordID: 401, TypeID: 34, Included: true}}},
		50: {ContractID: 50, IssuerID: pilot.ID, Status: domain.ContractStatusOutstanding, Type: domain.ContractTypeCourier,
			Items: []domain.ContractItem{{RecordID: 501, TypeID: 34, Included: true}}},
	}
	owners := map[int64]domain.OwnerContext{pilot.ID: pilot}
	c := NewConverter(testItems)

	all := c.ContractAssets(contracts, owners, true, true)
	require.Len(t, all, 3)
	assert.Equal(t, int64(101), all[0].Record.ItemID)
	assert.Equal(t, int64(201), all[1].Record.ItemID)
	assert.Equal(t, int64(202), all[2].Record.ItemID)
	assert.Equal(t, "Pilot", all[0].OwnerName)
	assert.Equal(t, domain.AssetSourceContract, all[0].Source)

	buy := c.ContractAssets(contracts, owners, false, true)
	require.Len(t, buy, 1)
	assert.Equal(t, int64(202), buy[0].Record.ItemID)
}

func TestConverter_AccountBalancesAndJobs(t *testing.T) {
	c := NewConverter(testItems)

	balances := c.AccountBalances([]domain.AccountBalance{{AccountID: 1, AccountKey: domain.DefaultAccountKey, Balance: decimal.RequireFromString("1234.56")}}, pilot)
	require.Len(t, balances, 1)
	assert.Equal(t, pilot.ID, balances[0].OwnerID)

	jobs := c.IndustryJobs([]domain.IndustryJob{{JobID: 1, BlueprintTypeID: 691, ProductTypeID: int32p(587)}, {JobID: 2, BlueprintTypeID: 1}}, pilot)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Rifter Blueprint", jobs[0].Blueprint.Name)
	assert.Equal(t, "Rifter", jobs[0].Output.Name)
	assert.True(t, jobs[1].Blueprint.Unknown)
	assert.Equal(t, domain.Item{}, jobs[1].Output)
	assert.Equal(t, pilot.ID, jobs[1].OwnerID)
}

func TestConverter_JournalHistory(t *testing.T) {
	owner := &domain.Owner{ID: pilot.ID, Journal: []domain.JournalEntry{
		{RefID: 1, Reason: "old"},
		{RefID: 2, Reason: "old"},
	}}
	fresh := []domain.JournalEntry{{RefID: 2, Reason: "new"}, {RefID: 3, Reason: "new"}, {RefID: 3, Reason: "dup"}}
	c := NewConverter(testItems)

	kept := c.Journal(fresh, owner, true)
	require.Len(t, kept, 3)
	assert.Equal(t, int64(2), kept[0].RefID)
	assert.Equal(t, "new", kept[0].Reason)
	assert.Equal(t, "new", kept[1].Reason)
	assert.Equal(t, int64(1), kept[2].RefID)

	assert.Len(t, c.Journal(fresh, owner, false), 2)
}

func TestConverter_TransactionsHistory(t *testing.T) {
	owner := &domain.Owner{ID: pilot.ID, Transactions: []domain.Transaction{{TransactionID: 1, TypeID: 34}}}
	fresh := []domain.Transaction{{TransactionID: 2, TypeID: 587, TransactionType: "sell"}}
	c := NewConverter(testItems)

	txs := c.Transactions(fresh, owner, true)
	require.Len(t, txs, 2)
	assert.Equal(t, "Rifter", txs[0].Item.Name)
	assert.Equal(t, pilot.ID, txs[0].OwnerID)
	assert.Equal(t, int64(1), txs[1].TransactionID)
}

func TestConverter_MarketOrdersCarryChanges(t *testing.T) {
	day := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	old := []domain.MarketOrder{
		{OrderID: 1, State: domain.OrderStateActive, Changes: []domain.OrderChange{{Date: day, Price: decimal.NewFromInt(10)}}},
		{OrderID: 2, State: domain.OrderStateActive, Changes: []domain.OrderChange{{Date: day, Price: decimal.NewFromInt(20)}}},
	}
	owner := &domain.Owner{ID: pilot.ID, MarketOrders: old}
	fresh := []domain.MarketOrder{{OrderID: 1, TypeID: 34, State: domain.OrderStateActive,
		Changes: []domain.OrderChange{{Date: day.Add(time.Hour), Price: decimal.NewFromInt(9)}}}}
	c := NewConverter(testItems)

	orders := c.MarketOrders(fresh, owner, true)
	require.Len(t, orders, 2)
	assert.Len(t, orders[0].Changes, 2)
	assert.Equal(t, "Tritanium", orders[0].Item.Name)
	assert.Equal(t, int64(2), orders[1].OrderID)
	assert.Equal(t, domain.OrderStateClosed, orders[1].State)
	assert.Equal(t, domain.OrderStateActive, owner.MarketOrders[1].State, "owner data must not change")

	assert.Len(t, c.MarketOrders(fresh, owner, false), 1)
}

func TestConverter_Contracts(t *testing.T) {
	owner := &domain.Owner{ID: pilot.ID, Contracts: map[int64]*domain.Contract{
		1: {ContractID: 1, Status: domain.ContractStatusOutstanding, Items: []domain.ContractItem{{RecordID: 11, TypeID: 34}}},
		2: {ContractID: 2, Status: domain.ContractStatusOutstanding},
	}}
	fresh := []domain.Contract{
		{ContractID: 1, Status: domain.ContractStatusCompleted},
		{ContractID: 3, Status: domain.ContractStatusOutstanding},
	}
	c := NewConverter(testItems)

	contracts := c.Contracts(fresh, owner, true)
	require.Len(t, contracts, 3)
	assert.Equal(t, domain.ContractStatusCompleted, contracts[1].Status)
	assert.Len(t, contracts[1].Items, 1)
	assert.Empty(t, contracts[3].Items)
	assert.Same(t, owner.Contracts[2], contracts[2])

	assert.Len(t, c.Contracts(fresh, owner, false), 2)

	withItems := c.ContractItems(domain.Contract{ContractID: 3}, []domain.ContractItem{{RecordID: 31, TypeID: 587}}, owner)
	require.Len(t, withItems, 3)
	require.Len(t, withItems[3].Items, 1)
	assert.Equal(t, "Rifter", withItems[3].Items[0].Item.Name)
}

func TestIndustrySlots(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limits := domain.SlotLimits{Manufacturing: 10, Research: 5, Reactions: 2}
	owners := []*domain.Owner{
		{ID: 1, Name: "Zed", Show: true, IndustryJobs: []domain.IndustryJob{
			{Activity: domain.ActivityManufacturing, Status: domain.JobStatusActive, EndDate: now.Add(time.Hour)},
			{Activity: domain.ActivityManufacturing, Status: domain.JobStatusActive, EndDate: now.Add(-time.Hour)},
			{Activity: domain.ActivityManufacturing, Status: domain.JobStatusDelivered},
			{Activity: domain.ActivityReactions, Status: domain.JobStatusPaused},
			{Activity: domain.ActivityInvention, Status: domain.JobStatusReady},
		}},
		{ID: 2, Name: "Amy", Show: true},
		{ID: 3, Name: "Hidden", Show: false},
	}

	slots := IndustrySlots(owners, limits, now)
	require.Len(t, slots, 3)

	assert.Equal(t, "Zed", slots[0].OwnerName)
	assert.Equal(t, domain.SlotCounters{Done: 1, Free: 8, Active: 1, Max: 10}, slots[0].Manufacturing)
	assert.Equal(t, domain.SlotCounters{Done: 1, Free: 4, Max: 5}, slots[0].Research)
	assert.Equal(t, domain.SlotCounters{Free: 1, Active: 1, Max: 2}, slots[0].Reactions)

	assert.Equal(t, "Amy", slots[1].OwnerName)
	assert.Equal(t, domain.SlotCounters{Free: 10, Max: 10}, slots[1].Manufacturing)

	total := slots[2]
	assert.True(t, total.GrandTotal)
	assert.Equal(t, domain.SlotCounters{Done: 1, Free: 18, Active: 1, Max: 20}, total.Manufacturing)
	assert.Equal(t, domain.SlotCounters{Free: 3, Active: 1, Max: 4}, total.Reactions)
}
