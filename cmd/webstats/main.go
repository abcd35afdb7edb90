package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/l1jgo/webstats/internal/config"
	"github.com/l1jgo/webstats/internal/data"
	"github.com/l1jgo/webstats/internal/persist"
	"github.com/l1jgo/webstats/internal/webstats"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var cfgPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "webstats",
		Short: "Server statistics page for L1JGO",
		Long: `webstats publishes live server statistics (players, items, mobiles,
guilds, memory) as JSON and a PNG banner over HTTP.

Commands:
  serve      Run the stats HTTP endpoint and refresh loop
  snapshot   Take one snapshot and print it
  export     Export the sample history to a Parquet file
  addon      Place and list house addons
  convert    Convert L1JTW SQL dumps to the YAML data tables`,
		Version:       webstats.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultCfg := "config/webstats.toml"
	if p := os.Getenv("WEBSTATS_CONFIG"); p != "" {
		defaultCfg = p
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultCfg, "config file (env WEBSTATS_CONFIG)")

	root.AddCommand(
		newServeCmd(),
		newSnapshotCmd(),
		newExportCmd(),
		newAddonCmd(),
		newConvertCmd(),
	)
	return root
}

// setup loads the config and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

// openDB connects to PostgreSQL and applies pending migrations.
func openDB(ctx context.Context, cfg *config.Config, log *zap.Logger) (*persist.DB, error) {
	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	version, err := persist.RunMigrations(ctx, db.Pool)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	log.Debug("資料庫遷移完成", zap.Int64("version", version))
	return db, nil
}

func loadTables(cfg *config.Config) (*data.SkillTable, *data.ItemTable, error) {
	skills, err := data.LoadSkillTable(cfg.Data.SkillList)
	if err != nil {
		return nil, nil, fmt.Errorf("skill table: %w", err)
	}
	items, err := data.LoadItemTable(cfg.Data.ItemList)
	if err != nil {
		return nil, nil, fmt.Errorf("item table: %w", err)
	}
	return skills, items, nil
}

// ── Startup display helpers ────────────────────────────────────────

// gameStartTime is the boot time reported until the game writes its
// server_status row.
func gameStartTime(cfg *config.Config, now time.Time) time.Time {
	if !cfg.Server.StartedAt.IsZero() {
		return cfg.Server.StartedAt
	}
	return now
}

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Printf("\033[36;1m  │\033[0m         L1JGO WebStats  v%-8s         \033[36;1m│\033[0m\n", webstats.Version)
	fmt.Println("\033[36;1m  │\033[0m          伺服器統計頁 · 即時狀態          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s \033[90m(編號: %d)\033[0m\n\n", serverName, serverID)
}

// displayWidth counts CJK characters as two columns.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x7F {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func printSection(title string) {
	lineLen := 46 - displayWidth(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - displayWidth(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
