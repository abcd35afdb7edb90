package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ItemCategory distinguishes weapon/armor/etcitem.
type ItemCategory int

const (
	CategoryEtcItem ItemCategory = 0
	CategoryWeapon  ItemCategory = 1
	CategoryArmor   ItemCategory = 2
)

func (c ItemCategory) String() string {
	switch c {
	case CategoryWeapon:
		return "weapon"
	case CategoryArmor:
		return "armor"
	default:
		return "etcitem"
	}
}

func categoryFromString(s string) (ItemCategory, error) {
	switch s {
	case "weapon":
		return CategoryWeapon, nil
	case "armor":
		return CategoryArmor, nil
	case "etcitem", "":
		return CategoryEtcItem, nil
	}
	return CategoryEtcItem, fmt.Errorf("unknown item category %q", s)
}

// ItemInfo holds the template fields the stats page needs.
type ItemInfo struct {
	ItemID   int32
	Name     string
	Category ItemCategory
	Type     string // weapon/armor sub-type, e.g. "sword", "helm"
	InvGfx   int32
	AddStr   int16
	AddDex   int16
	AddInt   int16
}

// ItemTable holds all item templates indexed by ItemID.
type ItemTable struct {
	items map[int32]*ItemInfo
}

// Get returns an item template, or nil.
func (t *ItemTable) Get(itemID int32) *ItemInfo {
	return t.items[itemID]
}

// Count returns the number of templates loaded.
func (t *ItemTable) Count() int {
	return len(t.items)
}

type itemEntry struct {
	ItemID   int32  `yaml:"item_id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Type     string `yaml:"type"`
	InvGfx   int32  `yaml:"inv_gfx"`
	AddStr   int16  `yaml:"add_str,omitempty"`
	AddDex   int16  `yaml:"add_dex,omitempty"`
	AddInt   int16  `yaml:"add_int,omitempty"`
}

type itemListFile struct {
	Items []itemEntry `yaml:"items"`
}

// LoadItemTable loads item templates from YAML.
func LoadItemTable(path string) (*ItemTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	return parseItemTable(raw)
}

func parseItemTable(raw []byte) (*ItemTable, error) {
	var f itemListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}
	t := &ItemTable{items: make(map[int32]*ItemInfo, len(f.Items))}
	for _, e := range f.Items {
		cat, err := categoryFromString(e.Category)
		if err != nil {
			return nil, fmt.Errorf("parse items: item %d: %w", e.ItemID, err)
		}
		t.items[e.ItemID] = &ItemInfo{
			ItemID:   e.ItemID,
			Name:     e.Name,
			Category: cat,
			Type:     e.Type,
			InvGfx:   e.InvGfx,
			AddStr:   e.AddStr,
			AddDex:   e.AddDex,
			AddInt:   e.AddInt,
		}
	}
	return t, nil
}
