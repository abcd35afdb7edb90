package world

// EquipSlot identifies an equipment slot on a character. The slot number
// is reported as the item's layer.
type EquipSlot int

const (
	SlotNone    EquipSlot = 0
	SlotHelm    EquipSlot = 1
	SlotArmor   EquipSlot = 2
	SlotGlove   EquipSlot = 3
	SlotBoots   EquipSlot = 4
	SlotShield  EquipSlot = 5
	SlotCloak   EquipSlot = 6
	SlotRing1   EquipSlot = 7
	SlotRing2   EquipSlot = 8
	SlotAmulet  EquipSlot = 9
	SlotBelt    EquipSlot = 10
	SlotWeapon  EquipSlot = 11
	SlotEarring EquipSlot = 12
	SlotGuarder EquipSlot = 13
	SlotTShirt  EquipSlot = 14
	SlotMax     EquipSlot = 15
)

// Equipment tracks what a player currently has equipped.
// Each slot holds a pointer to an InvItem (nil = empty).
type Equipment struct {
	Slots [SlotMax]*InvItem
}

// Get returns the item in a slot, or nil.
func (e *Equipment) Get(slot EquipSlot) *InvItem {
	if slot <= SlotNone || slot >= SlotMax {
		return nil
	}
	return e.Slots[slot]
}

// Set places an item in a slot (or nil to clear).
func (e *Equipment) Set(slot EquipSlot, item *InvItem) {
	if slot > SlotNone && slot < SlotMax {
		e.Slots[slot] = item
	}
}

// Each calls fn for every occupied slot in slot order.
func (e *Equipment) Each(fn func(EquipSlot, *InvItem)) {
	for s := SlotNone + 1; s < SlotMax; s++ {
		if it := e.Slots[s]; it != nil {
			fn(s, it)
		}
	}
}

// ArmorSlotFromType maps an armor type string (from YAML) to an EquipSlot.
func ArmorSlotFromType(armorType string) EquipSlot {
	switch armorType {
	case "helm":
		return SlotHelm
	case "armor":
		return SlotArmor
	case "T", "t_shirts":
		return SlotTShirt
	case "cloak":
		return SlotCloak
	case "glove":
		return SlotGlove
	case "boots":
		return SlotBoots
	case "shield":
		return SlotShield
	case "guarder":
		return SlotGuarder
	case "ring":
		return SlotRing1 // caller should check Ring1 vs Ring2
	case "amulet", "necklace":
		return SlotAmulet
	case "earring":
		return SlotEarring
	case "belt":
		return SlotBelt
	default:
		return SlotNone
	}
}

// EquipStats holds the cumulative stat bonuses from all equipped items.
type EquipStats struct {
	AddStr int
	AddDex int
	AddInt int
}
