package webstats

import (
	"time"

	"github.com/l1jgo/webstats/internal/config"
)

// Options controls what a refresh collects and publishes.
type Options struct {
	ServerName    string
	Core          string
	Host          string // reachable address shown on the banner and in the server section
	Port          int
	ModuleVersion string

	UpdateInterval time.Duration
	CacheDir       string // empty disables cache files

	DisplayServer       bool
	DisplayStats        bool
	DisplayPlayers      bool
	DisplayPlayerGuilds bool
	DisplayPlayerStats  bool
	DisplayPlayerSkills bool
	DisplayPlayerEquip  bool

	BannerWidth  int
	BannerHeight int
	StatCap      int
}

// OptionsFromConfig maps the [server] and [webstats] sections onto Options.
// host and port come from address discovery.
func OptionsFromConfig(cfg *config.Config, host string, port int) Options {
	ws := cfg.WebStats
	return Options{
		ServerName:          cfg.Server.Name,
		Core:                cfg.Server.Core,
		Host:                host,
		Port:                port,
		ModuleVersion:       ws.ModuleVersion,
		UpdateInterval:      ws.UpdateInterval,
		CacheDir:            ws.CacheDir,
		DisplayServer:       ws.DisplayServer,
		DisplayStats:        ws.DisplayStats,
		DisplayPlayers:      ws.DisplayPlayers,
		DisplayPlayerGuilds: ws.DisplayPlayerGuilds,
		DisplayPlayerStats:  ws.DisplayPlayerStats,
		DisplayPlayerSkills: ws.DisplayPlayerSkills,
		DisplayPlayerEquip:  ws.DisplayPlayerEquip,
		BannerWidth:         ws.BannerWidth,
		BannerHeight:        ws.BannerHeight,
		StatCap:             ws.StatCap,
	}
}

// DisplayFlags is the section set the options publish. A change in it
// bypasses the refresh throttle.
func (o Options) DisplayFlags() Flags {
	var f Flags
	if o.DisplayServer {
		f |= FlagServer
	}
	if o.DisplayStats {
		f |= FlagStats
	}
	if o.DisplayPlayers {
		f |= FlagPlayers
	}
	return f
}
