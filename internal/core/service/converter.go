package service

import (
	"maps"
	"slices"

	"github.com/rl1809/asset-vault/internal/core/assettree"
	"github.com/rl1809/asset-vault/internal/core/domain"
	"github.com/rl1809/asset-vault/internal/port"
)

// Converter turns API-shaped records into owner-annotated domain values and
// derives the extra assets tied up in jobs, orders and contracts.
type Converter struct {
	builder *assettree.Builder
	items   port.ItemResolver
}

func NewConverter(items port.ItemResolver) *Converter {
	return &Converter{
		builder: assettree.NewBuilder(items),
		items:   items,
	}
}

func (c *Converter) item(typeID int32) domain.Item {
	if c.items == nil {
		return domain.UnknownItem(typeID)
	}
	return c.items.Item(typeID)
}

// Assets builds the owner's containment forest, leaving out what IgnoreAsset rejects.
func (c *Converter) Assets(records []domain.InventoryRecord, owner domain.OwnerContext) (domain.Forest, error) {
	return c.builder.Build(records, owner, IgnoreAsset)
}

// Tree builds a forest with a caller-supplied predicate.
func (c *Converter) Tree(records []domain.InventoryRecord, owner domain.OwnerContext, exclude assettree.Predicate) (domain.Forest, error) {
	return c.builder.Build(records, owner, exclude)
}

// IndustryJobAssets lists blueprints installed in undelivered jobs and, when
// asked, the pending output of manufacturing jobs.
func (c *Converter) IndustryJobAssets(jobs []domain.IndustryJob, includeManufacturing bool) []*domain.Asset {
	var assets []*domain.Asset
	for i := range jobs {
		job := &jobs[i]
		if job.IsDelivered() {
			continue
		}
		location := firstNonZero(job.StationID, job.FacilityID)
		assets = append(assets, &domain.Asset{
			Record: domain.InventoryRecord{
				ItemID:     job.BlueprintID,
				LocationID: location,
				TypeID:     job.BlueprintTypeID,
				Quantity:   1,
				Singleton:  true,
			},
			LocationID: location,
			Item:       c.item(job.BlueprintTypeID),
			OwnerID:    job.OwnerID,
			Source:     domain.AssetSourceIndustryJob,
		})
		if includeManufacturing && job.IsManufacturing() && job.ProductTypeID != nil {
			output := firstNonZero(job.OutputLocationID, location)
			assets = append(assets, &domain.Asset{
				Record: domain.InventoryRecord{
					ItemID:     job.JobID,
					LocationID: output,
					TypeID:     *job.ProductTypeID,
					Quantity:   int64(job.Runs),
				},
				LocationID: output,
				Item:       c.item(*job.ProductTypeID),
				OwnerID:    job.OwnerID,
				Source:     domain.AssetSourceIndustryJob,
			})
		}
	}
	return assets
}

// MarketOrderAssets lists the remaining volume of active orders on the chosen sides.
func (c *Converter) MarketOrderAssets(orders []domain.MarketOrder, includeSell, includeBuy bool) []*domain.Asset {
	var assets []*domain.Asset
	for i := range orders {
		order := &orders[i]
		if !order.IsActive() || order.VolRemaining <= 0 {
			continue
		}
		if order.IsBuyOrder() && !includeBuy || !order.IsBuyOrder() && !includeSell {
			continue
		}
		assets = append(assets, &domain.Asset{
			Record: domain.InventoryRecord{
				ItemID:     order.OrderID,
				LocationID: order.StationID,
				TypeID:     order.TypeID,
				Quantity:   int64(order.VolRemaining),
			},
			LocationID: order.StationID,
			Item:       c.item(order.TypeID),
			OwnerID:    order.OwnerID,
			Source:     domain.AssetSourceMarketOrder,
		})
	}
	return assets
}

// ContractAssets lists items of open item contracts issued by a known owner.
// Included items count as selling, the rest as buying.
func (c *Converter) ContractAssets(contracts map[int64]*domain.Contract, owners map[int64]domain.OwnerContext, includeSell, includeBuy bool) []*domain.Asset {
	var assets []*domain.Asset
	for _, id := range slices.Sorted(maps.Keys(contracts)) {
		contract := contracts[id]
		issuer, owned := owners[contract.IssuerID]
		if !owned || !contract.IsOpen() || !contract.IsItemContract() {
			continue
		}
		for _, ci := range contract.Items {
			if ci.Included && !includeSell || !ci.Included && !includeBuy {
				continue
			}
			assets = append(assets, &domain.Asset{
				Record: domain.InventoryRecord{
					ItemID:     ci.RecordID,
					LocationID: contract.StartStationID,
					TypeID:     ci.TypeID,
					Quantity:   ci.Quantity,
					Singleton:  ci.Singleton,
				},
				LocationID: contract.StartStationID,
				Item:       c.item(ci.TypeID),
				OwnerID:    issuer.ID,
				OwnerName:  issuer.Name,
				Source:     domain.AssetSourceContract,
			})
		}
	}
	return assets
}

func (c *Converter) AccountBalances(raw []domain.AccountBalance, owner domain.OwnerContext) []domain.AccountBalance {
	balances := make([]domain.AccountBalance, 0, len(raw))
	for _, b := range raw {
		b.OwnerID = owner.ID
		balances = append(balances, b)
	}
	return balances
}

func (c *Converter) IndustryJobs(raw []domain.IndustryJob, owner domain.OwnerContext) []domain.IndustryJob {
	jobs := make([]domain.IndustryJob, 0, len(raw))
	for _, job := range raw {
		job.Blueprint = c.item(job.BlueprintTypeID)
		if job.ProductTypeID != nil {
			job.Output = c.item(*job.ProductTypeID)
		}
		job.OwnerID = owner.ID
		jobs = append(jobs, job)
	}
	return jobs
}

// Journal annotates fresh entries and, with saveHistory, keeps older entries
// that the fresh batch no longer carries.
func (c *Converter) Journal(raw []domain.JournalEntry, owner *domain.Owner, saveHistory bool) []domain.JournalEntry {
	seen := make(map[int64]bool, len(raw))
	journal := make([]domain.JournalEntry, 0, len(raw))
	for _, entry := range raw {
		if seen[entry.RefID] {
			continue
		}
		seen[entry.RefID] = true
		entry.OwnerID = owner.ID
		journal = append(journal, entry)
	}
	if saveHistory {
		for _, entry := range owner.Journal {
			if !seen[entry.RefID] {
				seen[entry.RefID] = true
				journal = append(journal, entry)
			}
		}
	}
	return journal
}

func (c *Converter) Transactions(raw []domain.Transaction, owner *domain.Owner, saveHistory bool) []domain.Transaction {
	seen := make(map[int64]bool, len(raw))
	transactions := make([]domain.Transaction, 0, len(raw))
	for _, tx := range raw {
		if seen[tx.TransactionID] {
			continue
		}
		seen[tx.TransactionID] = true
		tx.Item = c.item(tx.TypeID)
		tx.OwnerID = owner.ID
		transactions = append(transactions, tx)
	}
	if saveHistory {
		for _, tx := range owner.Transactions {
			if !seen[tx.TransactionID] {
				seen[tx.TransactionID] = true
				transactions = append(transactions, tx)
			}
		}
	}
	return transactions
}

// MarketOrders carries the recorded change history of known orders over to
// their fresh copies. With saveHistory, orders missing from the fresh batch
// are kept as closed.
func (c *Converter) MarketOrders(raw []domain.MarketOrder, owner *domain.Owner, saveHistory bool) []domain.MarketOrder {
	changes := make(map[int64][]domain.OrderChange, len(owner.MarketOrders))
	for _, old := range owner.MarketOrders {
		changes[old.OrderID] = old.Changes
	}

	seen := make(map[int64]bool, len(raw))
	orders := make([]domain.MarketOrder, 0, len(raw))
	for _, order := range raw {
		if seen[order.OrderID] {
			continue
		}
		seen[order.OrderID] = true
		order.Item = c.item(order.TypeID)
		order.OwnerID = owner.ID
		order.Changes = slices.Clone(order.Changes)
		order.AddChanges(changes[order.OrderID])
		orders = append(orders, order)
	}
	if saveHistory {
		for _, old := range owner.MarketOrders {
			if seen[old.OrderID] {
				continue
			}
			seen[old.OrderID] = true
			old.Changes = slices.Clone(old.Changes)
			old.Close()
			orders = append(orders, old)
		}
	}
	return orders
}

// Contracts replaces the owner's contracts with the fresh batch. Contracts
// already known keep their loaded items; with saveHistory, contracts missing
// from the batch are kept.
func (c *Converter) Contracts(raw []domain.Contract, owner *domain.Owner, saveHistory bool) map[int64]*domain.Contract {
	contracts := make(map[int64]*domain.Contract, len(raw))
	if saveHistory {
		for id, old := range owner.Contracts {
			contracts[id] = old
		}
	}
	for i := range raw {
		contract := raw[i]
		contract.Items = nil
		if old, ok := owner.Contracts[contract.ContractID]; ok {
			contract.Items = slices.Clone(old.Items)
		}
		contracts[contract.ContractID] = &contract
	}
	return contracts
}

// ContractItems attaches freshly fetched items to one contract.
func (c *Converter) ContractItems(contract domain.Contract, raw []domain.ContractItem, owner *domain.Owner) map[int64]*domain.Contract {
	contracts := make(map[int64]*domain.Contract, len(owner.Contracts)+1)
	for id, old := range owner.Contracts {
		contracts[id] = old
	}
	contract.Items = c.ResolveContractItems(raw)
	contracts[contract.ContractID] = &contract
	return contracts
}

// ResolveContractItems annotates contract items with their type metadata.
func (c *Converter) ResolveContractItems(raw []domain.ContractItem) []domain.ContractItem {
	items := make([]domain.ContractItem, 0, len(raw))
	for _, ci := range raw {
		ci.Item = c.item(ci.TypeID)
		items = append(items, ci)
	}
	return items
}

func firstNonZero(values ...int64) int64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
