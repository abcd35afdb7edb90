package world

import (
	"errors"
	"fmt"

	"github.com/l1jgo/webstats/internal/data"
	"github.com/l1jgo/webstats/internal/serial"
)

// addonVersion is the current record version written by Serialize.
const addonVersion = 0

// ErrUnknownAddon is returned when a placement names a template that does
// not exist.
var ErrUnknownAddon = errors.New("unknown addon")

// AddonComponent is one placed tile of an addon.
type AddonComponent struct {
	Art int32
	DX  int32
	DY  int32
	DZ  int32
}

// Addon is a piece of multi-tile furniture placed in a house.
type Addon struct {
	ID         int64 // DB row ID, 0 until stored
	AddonID    int32 // template ID
	Name       string
	HouseID    int32
	X          int32
	Y          int32
	Z          int32
	MapID      int16
	Components []AddonComponent
}

// NewAddon places template info at (x, y, z) on mapID inside houseID.
func NewAddon(info *data.AddonInfo, houseID, x, y, z int32, mapID int16) *Addon {
	a := &Addon{
		AddonID:    info.AddonID,
		Name:       info.Name,
		HouseID:    houseID,
		X:          x,
		Y:          y,
		Z:          z,
		MapID:      mapID,
		Components: make([]AddonComponent, len(info.Components)),
	}
	for i, c := range info.Components {
		a.Components[i] = AddonComponent{Art: c.Art, DX: c.DX, DY: c.DY, DZ: c.DZ}
	}
	return a
}

// PlaceAddon looks the template up by name and places it.
func PlaceAddon(table *data.AddonTable, name string, houseID, x, y, z int32, mapID int16) (*Addon, error) {
	info := table.GetByName(name)
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAddon, name)
	}
	if _, err := serial.EncodeString(info.Name); err != nil {
		return nil, fmt.Errorf("addon %d name: %w", info.AddonID, err)
	}
	return NewAddon(info, houseID, x, y, z, mapID), nil
}

// Tile is the absolute position of one component.
type Tile struct {
	Art     int32
	X, Y, Z int32
}

// Tiles returns the absolute position of every component.
func (a *Addon) Tiles() []Tile {
	out := make([]Tile, len(a.Components))
	for i, c := range a.Components {
		out[i] = Tile{Art: c.Art, X: a.X + c.DX, Y: a.Y + c.DY, Z: a.Z + c.DZ}
	}
	return out
}

// Serialize encodes the addon for the house_addons table. It fails when
// the name has no MS950 form.
func (a *Addon) Serialize() ([]byte, error) {
	w := serial.NewWriter()
	w.WriteVersion(addonVersion)
	w.WriteInt(a.AddonID)
	w.WriteString(a.Name)
	w.WriteInt(a.HouseID)
	w.WriteInt(a.X)
	w.WriteInt(a.Y)
	w.WriteInt(a.Z)
	w.WriteShort(a.MapID)
	w.WriteShort(int16(len(a.Components)))
	for _, c := range a.Components {
		w.WriteInt(c.Art)
		w.WriteInt(c.DX)
		w.WriteInt(c.DY)
		w.WriteInt(c.DZ)
	}
	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("addon record: %w", err)
	}
	return w.Bytes(), nil
}

// DeserializeAddon decodes a record written by Serialize. Records from a
// newer version are rejected.
func DeserializeAddon(raw []byte) (*Addon, error) {
	r := serial.NewReader(raw)
	version, err := r.ReadVersion(addonVersion)
	if err != nil {
		return nil, fmt.Errorf("addon record: %w", err)
	}

	a := &Addon{}
	switch version {
	case 0:
		a.AddonID = r.ReadInt()
		a.Name = r.ReadString()
		a.HouseID = r.ReadInt()
		a.X = r.ReadInt()
		a.Y = r.ReadInt()
		a.Z = r.ReadInt()
		a.MapID = r.ReadShort()
		n := int(r.ReadShort())
		if n < 0 {
			return nil, fmt.Errorf("addon record: negative component count %d", n)
		}
		a.Components = make([]AddonComponent, 0, n)
		for i := 0; i < n && r.Err() == nil; i++ {
			a.Components = append(a.Components, AddonComponent{
				Art: r.ReadInt(),
				DX:  r.ReadInt(),
				DY:  r.ReadInt(),
				DZ:  r.ReadInt(),
			})
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("addon record: %w", err)
	}
	return a, nil
}
