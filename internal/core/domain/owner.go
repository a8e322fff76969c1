package domain

import "time"

// OwnerContext is what the tree builder and its predicates know about the
// owner of a batch of records.
type OwnerContext struct {
	ID          int64
	Name        string
	Corporation bool
}

type UpdateSchedule struct {
	AssetsNext       time.Time
	AssetsLast       time.Time
	BalanceNext      time.Time
	BalanceLast      time.Time
	MarketOrdersNext time.Time
	JournalNext      time.Time
	TransactionsNext time.Time
	IndustryJobsNext time.Time
	ContractsNext    time.Time
	LocationsNext    time.Time
	BlueprintsNext   time.Time
}

// Owner is a character or corporation with everything loaded for it.
type Owner struct {
	ID          int64
	Name        string
	Corporation bool
	Show        bool
	Updates     UpdateSchedule

	Assets       Forest
	Balances     []AccountBalance
	MarketOrders []MarketOrder
	Journal      []JournalEntry
	Transactions []Transaction
	IndustryJobs []IndustryJob
	Contracts    map[int64]*Contract
	Blueprints   map[int64]Blueprint

	// InventoryVersion is bumped by storage on every inventory replace.
	InventoryVersion int
}

func (o *Owner) Context() OwnerContext {
	return OwnerContext{ID: o.ID, Name: o.Name, Corporation: o.Corporation}
}

type KeyType string

const (
	KeyTypeAccount     KeyType = "ACCOUNT"
	KeyTypeCharacter   KeyType = "CHARACTER"
	KeyTypeCorporation KeyType = "CORPORATION"
)

// Account is an API key holding one or more owners.
type Account struct {
	KeyID                int32
	VerificationCode     string
	Name                 string
	CharactersNextUpdate time.Time
	AccessMask           int64
	Type                 KeyType
	Expires              *time.Time
	Invalid              bool
	Owners               []*Owner
}

// ContinuationIDs are the per-endpoint cursors kept by the third-party
// mirror API.
type ContinuationIDs struct {
	Journal      *int64
	Transactions *int64
	Contracts    *int64
	IndustryJobs *int64
	MarketOrders *int64
}

// KitOwner is an owner reached through the third-party mirror API instead of
// an account key.
type KitOwner struct {
	Owner
	AccessKey   int32
	AccessCred  string
	Expire      *time.Time
	AccessMask  int64
	Limit       *time.Time
	AccountName string
	Cursors     ContinuationIDs
}

// Profile is everything persisted in one profile file.
type Profile struct {
	Accounts  []*Account
	KitOwners []*KitOwner
}

// Owners lists account owners first, then mirror owners, in file order.
func (p *Profile) Owners() []*Owner {
	var owners []*Owner
	for _, account := range p.Accounts {
		owners = append(owners, account.Owners...)
	}
	for _, kit := range p.KitOwners {
		owners = append(owners, &kit.Owner)
	}
	return owners
}

// OwnerIndex maps owner ids to their context, as used for contract issuers.
func (p *Profile) OwnerIndex() map[int64]OwnerContext {
	index := make(map[int64]OwnerContext)
	for _, owner := range p.Owners() {
		index[owner.ID] = owner.Context()
	}
	return index
}
