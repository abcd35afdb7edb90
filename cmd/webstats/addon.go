package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/l1jgo/webstats/internal/config"
	"github.com/l1jgo/webstats/internal/data"
	"github.com/l1jgo/webstats/internal/persist"
	"github.com/l1jgo/webstats/internal/world"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	addonHouse int32
	addonX     int32
	addonY     int32
	addonZ     int32
	addonMap   int16
)

func newAddonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addon",
		Short: "Place and list house addons",
	}

	place := &cobra.Command{
		Use:   "place <name>",
		Short: "Place an addon from the addon list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddonPlace(args[0])
		},
	}
	place.Flags().Int32Var(&addonHouse, "house", 0, "house ID")
	place.Flags().Int32Var(&addonX, "x", 0, "x")
	place.Flags().Int32Var(&addonY, "y", 0, "y")
	place.Flags().Int32Var(&addonZ, "z", 0, "z")
	place.Flags().Int16Var(&addonMap, "map", 0, "map ID")

	list := &cobra.Command{
		Use:   "list",
		Short: "List placed addons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddonList()
		},
	}

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a placed addon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bad addon id %q", args[0])
			}
			return withAddonRepo(func(ctx context.Context, _ *config.Config, repo *persist.AddonRepo, log *zap.Logger) error {
				if err := repo.Delete(ctx, id); err != nil {
					return err
				}
				log.Info("家具已移除", zap.Int64("id", id))
				return nil
			})
		},
	}

	cmd.AddCommand(place, list, remove)
	return cmd
}

func withAddonRepo(fn func(ctx context.Context, cfg *config.Config, repo *persist.AddonRepo, log *zap.Logger) error) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, cfg, persist.NewAddonRepo(db), log)
}

func runAddonPlace(name string) error {
	return withAddonRepo(func(ctx context.Context, cfg *config.Config, repo *persist.AddonRepo, log *zap.Logger) error {
		addons, err := data.LoadAddonTable(cfg.Data.AddonList)
		if err != nil {
			return fmt.Errorf("addon table: %w", err)
		}
		a, err := world.PlaceAddon(addons, name, addonHouse, addonX, addonY, addonZ, addonMap)
		if err != nil {
			return err
		}
		if err := repo.Insert(ctx, a); err != nil {
			return err
		}
		log.Info("家具已放置", zap.Int64("id", a.ID), zap.String("name", a.Name), zap.Int("components", len(a.Components)))

		t := table.New("Art", "X", "Y", "Z").WithWriter(os.Stdout)
		for _, tile := range a.Tiles() {
			t.AddRow(tile.Art, tile.X, tile.Y, tile.Z)
		}
		t.Print()
		return nil
	})
}

func runAddonList() error {
	return withAddonRepo(func(ctx context.Context, _ *config.Config, repo *persist.AddonRepo, _ *zap.Logger) error {
		placed, err := repo.LoadAll(ctx)
		if err != nil {
			return err
		}
		t := table.New("ID", "Addon", "Name", "House", "Location", "Components").WithWriter(os.Stdout)
		for _, a := range placed {
			t.AddRow(a.ID, a.AddonID, a.Name, a.HouseID, fmt.Sprintf("%d,%d,%d @%d", a.X, a.Y, a.Z, a.MapID), len(a.Components))
		}
		t.Print()
		return nil
	})
}
