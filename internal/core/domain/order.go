package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderState int32

const (
	OrderStateActive    OrderState = 0
	OrderStateClosed    OrderState = 1
	OrderStateExpired   OrderState = 2
	OrderStateCancelled OrderState = 3
	OrderStatePending   OrderState = 4
)

// OrderChange is one observed price/volume revision of a market order.
type OrderChange struct {
	Date         time.Time
	Price        decimal.Decimal
	VolRemaining int32
}

type MarketOrder struct {
	OrderID      int64
	CharID       int64
	StationID    int64
	VolEntered   int32
	VolRemaining int32
	MinVolume    int32
	State        OrderState
	TypeID       int32
	Range        int32
	AccountKey   int32
	Duration     int32
	Escrow       decimal.Decimal
	Price        decimal.Decimal
	Bid          bool
	Issued       time.Time

	Item    Item
	OwnerID int64
	Changes []OrderChange
}

func (o *MarketOrder) IsActive() bool   { return o.State == OrderStateActive }
func (o *MarketOrder) IsBuyOrder() bool { return o.Bid }

// Close marks a historical order that no longer shows up in fresh data.
func (o *MarketOrder) Close() {
	if o.State == OrderStateActive || o.State == OrderStatePending {
		o.State = OrderStateClosed
	}
}

// AddChanges merges previously observed changes, skipping duplicates by date.
func (o *MarketOrder) AddChanges(changes []OrderChange) {
	seen := make(map[int64]bool, len(o.Changes))
	for _, c := range o.Changes {
		seen[c.Date.UnixMilli()] = true
	}
	for _, c := range changes {
		if seen[c.Date.UnixMilli()] {
			continue
		}
		seen[c.Date.UnixMilli()] = true
		o.Changes = append(o.Changes, c)
	}
}
