package service

import (
	"time"

	"github.com/rl1809/asset-vault/internal/core/domain"
)

// IndustrySlots reports slot usage for every shown owner followed by a grand
// total row.
func IndustrySlots(owners []*domain.Owner, limits domain.SlotLimits, now time.Time) []domain.IndustrySlot {
	slots := make([]domain.IndustrySlot, 0, len(owners)+1)
	total := domain.IndustrySlot{OwnerName: "Total", GrandTotal: true}
	for _, owner := range owners {
		if !owner.Show {
			continue
		}
		slot := domain.NewIndustrySlot(owner.Context(), limits)
		for i := range owner.IndustryJobs {
			slot.Count(&owner.IndustryJobs[i], now)
		}
		total.Add(slot)
		slots = append(slots, slot)
	}
	slots = append(slots, total)
	domain.SortIndustrySlots(slots)
	return slots
}
