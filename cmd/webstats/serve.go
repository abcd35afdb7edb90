package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/l1jgo/webstats/internal/config"
	"github.com/l1jgo/webstats/internal/core/event"
	coresys "github.com/l1jgo/webstats/internal/core/system"
	gonet "github.com/l1jgo/webstats/internal/net"
	"github.com/l1jgo/webstats/internal/persist"
	"github.com/l1jgo/webstats/internal/scripting"
	"github.com/l1jgo/webstats/internal/system"
	"github.com/l1jgo/webstats/internal/webstats"
	"github.com/l1jgo/webstats/internal/world"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the stats HTTP endpoint and refresh loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	// 1. Config + logger
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 2. Data tables
	printSection("資料表")
	skills, items, err := loadTables(cfg)
	if err != nil {
		return err
	}
	printStat("技能", skills.Count())
	printStat("道具", items.Count())
	fmt.Println()

	// 3. PostgreSQL
	printSection("資料庫")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()
	printOK("PostgreSQL 連線成功")
	printOK("資料庫遷移完成")

	// 4. Stats cache
	host, port, err := gonet.ReachableAddr(cfg.Server.PublicHost, cfg.Server.GameAddr)
	if err != nil {
		return fmt.Errorf("reachable address: %w", err)
	}
	if host == "" {
		log.Warn("找不到可連線的位址，橫幅不顯示位址")
	}

	worldState := world.NewState(gameStartTime(cfg, time.Now()), skills, items)
	cache := webstats.NewCache(worldState, webstats.OptionsFromConfig(cfg, host, port), log.Named("webstats"))
	statsRepo := persist.NewStatsRepo(db)

	entries, err := statsRepo.LoadMetrics(ctx)
	if err != nil {
		return fmt.Errorf("load metrics: %w", err)
	}
	cache.Restore(entries)
	printStat("統計數值", len(entries))

	history := webstats.NewHistory(cfg.WebStats.HistorySize)
	since := time.Now().Add(-time.Duration(cfg.WebStats.HistorySize) * cfg.WebStats.UpdateInterval)
	samples, err := statsRepo.LoadHistory(ctx, since, cfg.WebStats.HistorySize)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	history.Seed(samples)
	printStat("歷史樣本", len(samples))
	fmt.Println()

	// 5. Banner script
	if cfg.Scripting.Enabled {
		engine, err := scripting.NewEngine(cfg.Scripting.ScriptsDir, log.Named("lua"))
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		if hook := engine.BannerHandler(); hook != nil {
			cache.SetBannerHandler(hook)
			printOK("Lua 橫幅腳本已載入")
		}
	}

	// 6. Systems and events
	bus := event.NewBus(log.Named("event"))
	hub := webstats.NewHub(cache, log.Named("feed"))
	persistence := system.NewPersistenceSystem(cache, history, statsRepo, log, cfg.Loop.PersistInterval)

	event.Subscribe(bus, func(e event.SnapshotPublished) {
		hub.Broadcast()
		history.Add(webstats.SampleOf(e.At, e.Metrics))
	})
	event.Subscribe(bus, func(e event.PeaksReset) {
		log.Info("峰值已重置，立即存檔", zap.Time("at", e.At))
		persistence.Flush()
	})
	event.Subscribe(bus, func(e event.WorldSynced) {
		log.Debug("世界已同步", zap.Int("players", e.Players))
	})

	runner := coresys.NewRunner(log.Named("loop"))
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewWorldSyncSystem(worldState, persist.NewWorldLoader(db, cfg.Server.ID), bus, log, cfg.Loop.SyncInterval))
	runner.Register(system.NewStatsSystem(cache, bus))
	runner.Register(persistence)

	// 7. HTTP
	handlerCfg := webstats.HandlerConfig{
		Path:    cfg.HTTP.Path,
		Hub:     hub,
		History: history,
		OnPeaksReset: func(at time.Time) {
			event.Emit(bus, event.PeaksReset{At: at})
		},
		Logger: log.Named("http"),
	}
	if cfg.Admin.Enabled {
		handlerCfg.Auth = persist.NewAccountRepo(db)
		handlerCfg.MinAccessLevel = cfg.Admin.MinAccessLevel
	}
	srv, err := gonet.NewServer(cfg.HTTP, webstats.NewHTTPHandler(cache, handlerCfg), log)
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	go srv.Serve()

	// 8. Loop
	return runLoop(cfg, runner, hub, srv, log)
}

func runLoop(cfg *config.Config, runner *coresys.Runner, hub *webstats.Hub, srv *gonet.Server, log *zap.Logger) error {
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Loop.TickRate)
	defer ticker.Stop()

	printSection("伺服器就緒")
	printReady(fmt.Sprintf("監聽位址 http://%s%s", srv.Addr().String(), cfg.HTTP.Path))
	printReady(fmt.Sprintf("更新間隔 %s (tick: %s)", cfg.WebStats.UpdateInterval, cfg.Loop.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Loop.TickRate)
		case sig := <-shutdownCh:
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			runner.Shutdown()
			hub.Close()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := srv.Shutdown(ctx)
			cancel()
			if err != nil {
				log.Warn("HTTP 關閉逾時", zap.Error(err))
			}
			log.Info("伺服器已停止")
			return nil
		}
	}
}
