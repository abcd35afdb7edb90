package world

import (
	"errors"
	"testing"

	"github.com/l1jgo/webstats/internal/data"
	"github.com/l1jgo/webstats/internal/serial"
)

func testAddons(t *testing.T) *data.AddonTable {
	t.Helper()
	table, err := data.LoadAddonTable(writeYAML(t, "addons.yaml", `
addons:
  - addon_id: 1
    name: LargeBedEast
    deed_label: 1044324
    components:
      - {art: 0xA7D, dx: 0, dy: 0, dz: 0}
      - {art: 0xA7C, dx: 0, dy: 1, dz: 0}
      - {art: 0xA79, dx: 1, dy: 0, dz: 0}
      - {art: 0xA78, dx: 1, dy: 1, dz: 0}
`))
	if err != nil {
		t.Fatalf("load addons: %v", err)
	}
	return table
}

func TestAddonRoundTrip(t *testing.T) {
	a, err := PlaceAddon(testAddons(t), "LargeBedEast", 7, 32800, 32900, 0, 4)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	a.Name = "大床"

	raw, err := a.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	got, err := DeserializeAddon(raw)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if got.AddonID != 1 || got.Name != "大床" || got.HouseID != 7 || got.X != 32800 || got.Y != 32900 || got.MapID != 4 {
		t.Fatalf("got %+v", got)
	}
	if len(got.Components) != 4 || got.Components[1].Art != 0xA7C || got.Components[3].DX != 1 {
		t.Fatalf("components = %+v", got.Components)
	}

	tiles := got.Tiles()
	if tiles[3].X != 32801 || tiles[3].Y != 32901 {
		t.Fatalf("tile = %+v", tiles[3])
	}
}

func TestAddonRejectsFutureVersion(t *testing.T) {
	w := serial.NewWriter()
	w.WriteVersion(addonVersion + 1)
	w.WriteInt(1)
	if _, err := DeserializeAddon(w.Bytes()); err == nil {
		t.Fatalf("expected newer version to be rejected")
	}
}

func TestAddonTruncated(t *testing.T) {
	a := NewAddon(testAddons(t).Get(1), 1, 0, 0, 0, 0)
	raw, err := a.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if _, err := DeserializeAddon(raw[:len(raw)-3]); !errors.Is(err, serial.ErrShortRecord) {
		t.Fatalf("expected short record, got %v", err)
	}
}

func TestPlaceUnknownAddon(t *testing.T) {
	if _, err := PlaceAddon(testAddons(t), "Throne", 1, 0, 0, 0, 0); !errors.Is(err, ErrUnknownAddon) {
		t.Fatalf("expected ErrUnknownAddon, got %v", err)
	}
}


func TestAddonSerializeRejectsUnencodableName(t *testing.T) {
	a := NewAddon(testAddons(t).Get(1), 1, 0, 0, 0, 0)
	a.Name = "Bed 🛏"
	if _, err := a.Serialize(); !errors.Is(err, serial.ErrUnencodable) {
		t.Fatalf("expected ErrUnencodable, got %v", err)
	}
}
