package service

import "github.com/rl1809/asset-vault/internal/core/domain"

// IgnoreAsset keeps trained skills, boosters and implants out of the asset
// forest, together with anything located directly on the owner.
func IgnoreAsset(rec domain.InventoryRecord, owner domain.OwnerContext) bool {
	switch rec.FlagID {
	case domain.FlagSkill, domain.FlagSkillInTraining, domain.FlagBooster, domain.FlagImplant:
		return true
	}
	return rec.LocationID == owner.ID
}
