package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ContractStatus string

const (
	ContractStatusOutstanding ContractStatus = "OUTSTANDING"
	ContractStatusInProgress  ContractStatus = "INPROGRESS"
	ContractStatusCompleted   ContractStatus = "COMPLETED"
	ContractStatusRejected    ContractStatus = "REJECTED"
	ContractStatusFailed      ContractStatus = "FAILED"
	ContractStatusDeleted     ContractStatus = "DELETED"
	ContractStatusExpired     ContractStatus = "EXPIRED"
)

type ContractType string

const (
	ContractTypeItemExchange ContractType = "ITEMEXCHANGE"
	ContractTypeAuction      ContractType = "AUCTION"
	ContractTypeCourier      ContractType = "COURIER"
	ContractTypeLoan         ContractType = "LOAN"
)

type Contract struct {
	ContractID     int64
	AcceptorID     int64
	AssigneeID     int64
	Availability   string
	Buyout         decimal.Decimal
	Collateral     decimal.Decimal
	Price          decimal.Decimal
	Reward         decimal.Decimal
	DateAccepted   *time.Time
	DateCompleted  *time.Time
	DateExpired    time.Time
	DateIssued     time.Time
	StartStationID int64
	EndStationID   int64
	IssuerID       int64
	IssuerCorpID   int64
	NumDays        int32
	Status         ContractStatus
	Title          string
	Type           ContractType
	Volume         float64
	ForCorp        bool

	Items []ContractItem
}

func (c *Contract) IsOpen() bool {
	return c.Status == ContractStatusOutstanding || c.Status == ContractStatusInProgress
}

func (c *Contract) IsItemContract() bool {
	return c.Type == ContractTypeItemExchange || c.Type == ContractTypeAuction
}

type ContractItem struct {
	RecordID    int64
	TypeID      int32
	Quantity    int64
	RawQuantity *int64
	Singleton   bool
	// Included items are handed over by the issuer; the rest are asked for.
	Included bool

	Item Item
}
