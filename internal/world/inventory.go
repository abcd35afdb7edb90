package world

// InvItem represents a single item instance in a player's inventory.
type InvItem struct {
	ObjectID   int32  // unique per instance
	ItemID     int32  // template ID
	Name       string // display name
	Count      int32  // stack count (1 for non-stackable)
	EnchantLvl byte
	Bless      byte // 0=normal, 1=blessed, 2=cursed, >=128=sealed
	Equipped   bool // true if currently worn/wielded
}

// Inventory holds a player's item list.
type Inventory struct {
	Items []*InvItem
}

// NewInventory creates an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{
		Items: make([]*InvItem, 0, 16),
	}
}

// Add appends an item instance.
func (inv *Inventory) Add(item *InvItem) {
	inv.Items = append(inv.Items, item)
}

// Size returns the number of item instances.
func (inv *Inventory) Size() int {
	return len(inv.Items)
}
