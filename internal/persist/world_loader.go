package persist

import (
	"context"
	"fmt"

	"github.com/l1jgo/webstats/internal/world"
)

// WorldLoader reads one world snapshot from the game database.
type WorldLoader struct {
	Chars  *CharacterRepo
	Items  *ItemRepo
	Clans  *ClanRepo
	Spawns *SpawnRepo
	Addons *AddonRepo
	Status *StatusRepo

	serverID int
}

func NewWorldLoader(db *DB, serverID int) *WorldLoader {
	return &WorldLoader{
		serverID: serverID,
		Chars:  NewCharacterRepo(db),
		Items:  NewItemRepo(db),
		Clans:  NewClanRepo(db),
		Spawns: NewSpawnRepo(db),
		Addons: NewAddonRepo(db),
		Status: NewStatusRepo(db),
	}
}

func (l *WorldLoader) Load(ctx context.Context) (world.WorldSnapshot, error) {
	var ws world.WorldSnapshot

	players, err := l.Chars.LoadOnline(ctx)
	if err != nil {
		return ws, err
	}
	ids := make([]int32, len(players))
	for i, p := range players {
		ids[i] = p.CharID
	}
	skills, err := l.Chars.LoadSkills(ctx, ids)
	if err != nil {
		return ws, err
	}
	invs, err := l.Items.LoadInventories(ctx, ids)
	if err != nil {
		return ws, err
	}
	for _, p := range players {
		p.Skills = skills[p.CharID]
		p.Inv = invs[p.CharID]
	}
	ws.Players = players

	if ws.Clans, err = l.Clans.LoadAll(ctx); err != nil {
		return ws, err
	}
	if ws.Spawns, err = l.Spawns.LoadAll(ctx); err != nil {
		return ws, err
	}
	if ws.GroundItems, err = l.Items.LoadGround(ctx); err != nil {
		return ws, err
	}
	if ws.Addons, err = l.Addons.LoadAll(ctx); err != nil {
		return ws, fmt.Errorf("load addons: %w", err)
	}
	if ws.Status, err = l.Status.Load(ctx, l.serverID); err != nil {
		return ws, err
	}
	return ws, nil
}
