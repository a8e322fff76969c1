package domain

import "strconv"

// InventoryRecord is one flat inventory entry as delivered by the account API or
// read back from a cached profile. LocationID is either another record's ItemID
// (the record sits inside that container) or an external location id.
type InventoryRecord struct {
	ItemID      int64
	LocationID  int64
	TypeID      int32
	FlagID      int32
	Quantity    int64
	RawQuantity int32
	Singleton   bool
}

const (
	FlagNone            int32 = 0
	FlagWallet          int32 = 1
	FlagHangar          int32 = 4
	FlagCargo           int32 = 5
	FlagSkill           int32 = 7
	FlagAssetSafety     int32 = 36
	FlagSkillInTraining int32 = 61
	FlagDeliveries      int32 = 62
	FlagHangarAll       int32 = 63
	FlagUnlocked        int32 = 64
	FlagDroneBay        int32 = 87
	FlagBooster         int32 = 88
	FlagImplant         int32 = 89
	FlagShipHangar      int32 = 90
)

var flagNames = map[int32]string{
	FlagNone:            "None",
	FlagWallet:          "Wallet",
	FlagHangar:          "Hangar",
	FlagCargo:           "Cargo",
	FlagSkill:           "Skill",
	FlagAssetSafety:     "AssetSafety",
	FlagSkillInTraining: "SkillInTraining",
	FlagDeliveries:      "Deliveries",
	FlagHangarAll:       "HangarAll",
	FlagUnlocked:        "Unlocked",
	FlagDroneBay:        "DroneBay",
	FlagBooster:         "Booster",
	FlagImplant:         "Implant",
	FlagShipHangar:      "ShipHangar",
}

var flagIDs = func() map[string]int32 {
	ids := make(map[string]int32, len(flagNames))
	for id, name := range flagNames {
		ids[name] = id
	}
	return ids
}()

// FlagByName maps the textual flag names written by old profiles.
func FlagByName(name string) (int32, bool) {
	id, ok := flagIDs[name]
	return id, ok
}

func FlagName(id int32) string {
	if name, ok := flagNames[id]; ok {
		return name
	}
	return strconv.Itoa(int(id))
}
