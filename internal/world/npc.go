package world

// NpcSpawn is one spawn-list row: Count copies of an NPC template on a map.
type NpcSpawn struct {
	SpawnID int32
	NpcID   int32 // template ID
	Name    string
	MapID   int16
	Count   int32
}
