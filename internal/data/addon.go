package data

import (
	"fmt"
	"os"

	"github.com/l1jgo/webstats/internal/serial"
	"gopkg.in/yaml.v3"
)

// AddonComponent is one tile of a multi-tile furniture addon, positioned
// relative to the addon origin.
type AddonComponent struct {
	Art int32 `yaml:"art"` // item graphic, e.g. 0xA7D
	DX  int32 `yaml:"dx"`
	DY  int32 `yaml:"dy"`
	DZ  int32 `yaml:"dz"`
}

// AddonInfo describes a placeable furniture addon and the deed that creates it.
type AddonInfo struct {
	AddonID    int32
	Name       string
	DeedLabel  int32 // client cliloc number of the deed ("large bed (east)")
	Components []AddonComponent
}

// AddonTable holds addon templates indexed by AddonID and by name.
type AddonTable struct {
	addons map[int32]*AddonInfo
	byName map[string]*AddonInfo
}

// Get returns an addon template, or nil.
func (t *AddonTable) Get(addonID int32) *AddonInfo {
	return t.addons[addonID]
}

// GetByName returns an addon template by its exact name, or nil.
func (t *AddonTable) GetByName(name string) *AddonInfo {
	return t.byName[name]
}

// Count returns the number of addon templates.
func (t *AddonTable) Count() int {
	return len(t.addons)
}

type addonEntry struct {
	AddonID    int32            `yaml:"addon_id"`
	Name       string           `yaml:"name"`
	DeedLabel  int32            `yaml:"deed_label"`
	Components []AddonComponent `yaml:"components"`
}

type addonListFile struct {
	Addons []addonEntry `yaml:"addons"`
}

// LoadAddonTable loads addon templates from YAML.
func LoadAddonTable(path string) (*AddonTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read addons: %w", err)
	}
	return parseAddonTable(raw)
}

func parseAddonTable(raw []byte) (*AddonTable, error) {
	var f addonListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse addons: %w", err)
	}
	t := &AddonTable{
		addons: make(map[int32]*AddonInfo, len(f.Addons)),
		byName: make(map[string]*AddonInfo, len(f.Addons)),
	}
	for _, e := range f.Addons {
		if len(e.Components) == 0 {
			return nil, fmt.Errorf("parse addons: addon %d (%s) has no components", e.AddonID, e.Name)
		}
		if _, err := serial.EncodeString(e.Name); err != nil {
			return nil, fmt.Errorf("parse addons: addon %d: %w", e.AddonID, err)
		}
		info := &AddonInfo{
			AddonID:    e.AddonID,
			Name:       e.Name,
			DeedLabel:  e.DeedLabel,
			Components: e.Components,
		}
		t.addons[e.AddonID] = info
		t.byName[e.Name] = info
	}
	return t, nil
}
