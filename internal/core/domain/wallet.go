package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultAccountKey is the master wallet division.
const DefaultAccountKey int32 = 1000

type AccountBalance struct {
	AccountID  int32
	AccountKey int32
	Balance    decimal.Decimal
	OwnerID    int64
}

type JournalEntry struct {
	RefID         int64
	RefTypeID     int32
	Date          time.Time
	Amount        decimal.Decimal
	Balance       decimal.Decimal
	ArgID1        int64
	ArgName1      string
	OwnerID1      int64
	OwnerID2      int64
	OwnerName1    string
	OwnerName2    string
	Owner1TypeID  int32
	Owner2TypeID  int32
	Reason        string
	TaxAmount     *decimal.Decimal
	TaxReceiverID *int64
	AccountKey    int32

	OwnerID int64
}

type Transaction struct {
	TransactionID        int64
	Date                 time.Time
	Quantity             int32
	TypeID               int32
	TypeName             string
	Price                decimal.Decimal
	ClientID             int64
	ClientName           string
	ClientTypeID         int32
	CharacterID          *int64
	CharacterName        string
	StationID            int64
	StationName          string
	TransactionType      string
	TransactionFor       string
	JournalTransactionID int64
	AccountKey           int32

	Item    Item
	OwnerID int64
}

func (t *Transaction) IsSell() bool { return t.TransactionType == "sell" }

// Total is price times quantity, negative for purchases.
func (t *Transaction) Total() decimal.Decimal {
	total := t.Price.Mul(decimal.NewFromInt32(t.Quantity))
	if t.IsSell() {
		return total
	}
	return total.Neg()
}
