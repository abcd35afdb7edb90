package world

// GroundItem is an item lying on the ground of a map.
type GroundItem struct {
	ID         int32 // ground object ID
	ItemID     int32 // template ID
	Count      int32 // stack count
	EnchantLvl byte
	X          int32
	Y          int32
	MapID      int16
	OwnerID    int32 // CharID of dropper (0 = anyone can pick up)
}
