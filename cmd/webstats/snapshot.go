package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/l1jgo/webstats/internal/persist"
	"github.com/l1jgo/webstats/internal/webstats"
	"github.com/l1jgo/webstats/internal/world"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	snapshotJSON  bool
	snapshotFlags string
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshot",
		Aliases: []string{"ss"},
		Short:   "Take one snapshot of the world and print it",
		Long: `Read the world from the game database once, refresh the stats and
print the metric table and online players.

Example:
  webstats snapshot
  webstats snapshot --json --flags 0x5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot()
		},
	}
	cmd.Flags().BoolVar(&snapshotJSON, "json", false, "print the JSON document instead of tables")
	cmd.Flags().StringVar(&snapshotFlags, "flags", "", "section bitmask for --json (server=1 stats=2 players=4)")
	return cmd
}

func runSnapshot() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	skills, items, err := loadTables(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	ws, err := persist.NewWorldLoader(db, cfg.Server.ID).Load(ctx)
	if err != nil {
		return fmt.Errorf("load world: %w", err)
	}
	worldState := world.NewState(gameStartTime(cfg, time.Now()), skills, items)
	worldState.Replace(ws, time.Now())

	opts := webstats.OptionsFromConfig(cfg, cfg.Server.PublicHost, 0)
	opts.CacheDir = "" // read-only
	cache := webstats.NewCache(worldState, opts, log)
	if entries, err := persist.NewStatsRepo(db).LoadMetrics(ctx); err == nil {
		cache.Restore(entries)
	}
	if !cache.Refresh(true) {
		return fmt.Errorf("refresh failed")
	}

	if snapshotJSON {
		q := url.Values{}
		if snapshotFlags != "" {
			q.Set("flags", snapshotFlags)
		}
		fmt.Println(cache.Cached(webstats.ParseFlags(q)))
		return nil
	}

	printWorld(os.Stdout, worldState)

	p := message.NewPrinter(language.English)
	mt := table.New("Metric", "Value", "Max", "Peak").WithWriter(os.Stdout)
	for _, e := range cache.Metrics() {
		mt.AddRow(e.Key, formatValue(p, e.Value), formatValue(p, e.Max), formatValue(p, e.Peak))
	}
	mt.Print()
	fmt.Println()

	census, err := worldState.Census()
	if err != nil {
		return err
	}
	pt := table.New("ID", "Name", "Guild", "Address", "Kills", "Equip").WithWriter(os.Stdout)
	for _, c := range census.Connections {
		if c.Player == nil {
			continue
		}
		guild := ""
		if c.Player.Guild != nil {
			guild = c.Player.Guild.Abbr
		}
		pt.AddRow(c.Player.ID, c.Player.Name, guild, c.Addr, c.Player.Kills, len(c.Player.Equip))
	}
	pt.Print()
	return nil
}

// printWorld prints what the last sync read and the clan roster.
func printWorld(w io.Writer, s *world.State) {
	wt := table.New("Players", "NPCs", "Items", "Clans", "Addons", "Synced").WithWriter(w)
	clans := s.Clans().All()
	wt.AddRow(s.PlayerCount(), s.NpcCount(), s.ItemCount(), len(clans), len(s.Addons()),
		s.SyncedAt().Format(time.DateTime))
	wt.Print()
	fmt.Fprintln(w)

	if len(clans) == 0 {
		return
	}
	ct := table.New("Clan", "Abbr", "Leader", "Online").WithWriter(w)
	for _, c := range clans {
		ct.AddRow(c.ClanName, c.Abbr(), c.LeaderName, c.MemberCount())
	}
	ct.Print()
	fmt.Fprintln(w)
}

func formatValue(p *message.Printer, v webstats.Value) string {
	if v.Kind() == webstats.KindInt {
		return p.Sprintf("%d", v.Int())
	}
	return fmt.Sprint(v.Text())
}
