package webstats

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	cacheJSONFile   = "WebStats.json"
	cacheBannerFile = "WebStats.png"
)

// published is the state readers see. It is replaced wholesale.
type published struct {
	at      time.Time
	metrics []Entry
}

// Cache aggregates world metrics on a throttle and serves the last
// published JSON document and banner. Refresh is single-flight: a call
// that finds another refresh running returns false instead of waiting.
// Readers never block.
type Cache struct {
	provider Provider
	log      *zap.Logger
	now      func() time.Time

	updating       atomic.Bool // metric table
	updatingJSON   atomic.Bool
	updatingBanner atomic.Bool
	resetPending   atomic.Bool

	// written only while updating is held
	opts      Options
	table     *table
	lastFlags Flags
	lastRun   time.Time

	optsMu  sync.Mutex
	newOpts *Options
	hook    atomic.Pointer[BannerHandler]

	json   atomic.Pointer[jsonArtifact]
	banner atomic.Pointer[[]byte]
	pub    atomic.Pointer[published]
}

func NewCache(p Provider, opts Options, log *zap.Logger) *Cache {
	c := &Cache{
		provider: p,
		log:      log,
		now:      time.Now,
		opts:     opts,
		table:    newTable(),
	}
	c.pub.Store(&published{metrics: c.table.snapshot()})
	return c
}

// SetBannerHandler installs a render hook; nil restores the default layout.
func (c *Cache) SetBannerHandler(h BannerHandler) {
	if h == nil {
		c.hook.Store(nil)
		return
	}
	c.hook.Store(&h)
}

// SetOptions replaces the options at the start of the next refresh.
func (c *Cache) SetOptions(o Options) {
	c.optsMu.Lock()
	c.newOpts = &o
	c.optsMu.Unlock()
}

// Restore seeds running maxima and peaks from persisted entries. Call it
// before the first refresh.
func (c *Cache) Restore(entries []Entry) {
	if !c.updating.CompareAndSwap(false, true) {
		return
	}
	defer c.updating.Store(false)
	for _, e := range entries {
		cur, ok := c.table.entries[e.Key]
		if !ok {
			continue
		}
		cur.merge(e)
	}
	c.pub.Store(&published{at: c.pub.Load().at, metrics: c.table.snapshot()})
}

// ResetPeaks lowers every peak to its current value. Running maxima are
// left alone. The reset is applied by a forced refresh so the metric table
// keeps a single writer; if a refresh is already running it picks the
// reset up on the next cycle.
func (c *Cache) ResetPeaks() bool {
	c.resetPending.Store(true)
	return c.Refresh(true)
}

// Refresh recomputes every metric and republishes both artifacts. It
// returns false when another refresh is running, when the throttle holds
// (not forced, display flags unchanged, interval not elapsed) or when the
// provider fails.
//
// The metric table is updated under updating. The JSON document and the
// banner are rendered after it is released, each under its own flag; a
// refresh that finds an artifact still being rendered by an earlier one
// leaves it to that render and keeps the metrics it published.
func (c *Cache) Refresh(force bool) bool {
	if !c.updating.CompareAndSwap(false, true) {
		return false
	}

	c.applyOptions()

	now := c.now()
	flags := c.opts.DisplayFlags()
	if !force && flags == c.lastFlags && !c.lastRun.IsZero() && now.Sub(c.lastRun) < c.opts.UpdateInterval {
		c.updating.Store(false)
		return false
	}

	census, err := c.provider.Census()
	if err != nil {
		c.updating.Store(false)
		c.log.Warn("讀取世界狀態失敗", zap.Error(err))
		return false
	}
	c.lastRun = now
	c.lastFlags = flags

	c.observe(now, census)
	if c.resetPending.CompareAndSwap(true, false) {
		c.table.resetPeaks()
		c.log.Info("峰值已重置")
	}
	metrics := c.table.snapshot()
	c.pub.Store(&published{at: now, metrics: metrics})
	opts := c.opts
	c.updating.Store(false)

	c.rebuildJSON(opts, now, census, metrics)
	c.rebuildBanner(opts, census)
	c.writeCacheFiles(opts.CacheDir)
	return true
}

func (c *Cache) applyOptions() {
	c.optsMu.Lock()
	if c.newOpts != nil {
		c.opts = *c.newOpts
		c.newOpts = nil
	}
	c.optsMu.Unlock()
}

// observe records one census. Online and unique count only sessions with
// a character in the world.
func (c *Cache) observe(now time.Time, census Census) {
	uptime := time.Duration(0)
	if !census.StartTime.IsZero() {
		uptime = now.Sub(census.StartTime)
	}
	playing := inWorld(census.Connections)
	c.table.observe(MetricUptime, DurationValue(uptime))
	c.table.observe(MetricOnline, IntValue(int64(len(playing))))
	c.table.observe(MetricUnique, IntValue(int64(len(uniqueAddrs(playing)))))
	c.table.observe(MetricItems, IntValue(int64(census.Items)))
	c.table.observe(MetricMobiles, IntValue(int64(census.Mobiles)))
	c.table.observe(MetricGuilds, IntValue(int64(census.Guilds)))
	c.table.observe(MetricMemory, IntValue(census.Memory))
}

func (c *Cache) rebuildJSON(opts Options, now time.Time, census Census, metrics []Entry) {
	if !c.updatingJSON.CompareAndSwap(false, true) {
		return
	}
	defer c.updatingJSON.Store(false)

	b := snapshotBuilder{opts: opts, census: census, metrics: metrics, at: now}
	a, err := b.build()
	if err != nil {
		c.log.Error("建立統計 JSON 失敗", zap.Error(err))
		return
	}
	c.json.Store(a)
}

func (c *Cache) rebuildBanner(opts Options, census Census) {
	if !c.updatingBanner.CompareAndSwap(false, true) {
		return
	}
	defer c.updatingBanner.Store(false)

	playing := inWorld(census.Connections)
	info := BannerInfo{
		Width:  opts.BannerWidth,
		Height: opts.BannerHeight,
		Name:   opts.ServerName,
		Host:   opts.Host,
		Port:   opts.Port,
		Online: int64(len(playing)),
		Unique: int64(len(uniqueAddrs(playing))),
	}
	var hook BannerHandler
	if h := c.hook.Load(); h != nil {
		hook = *h
	}
	png, err := renderBanner(info, hook)
	if err != nil {
		c.log.Error("繪製橫幅失敗", zap.Error(err))
		return
	}
	c.banner.Store(&png)
}

// writeCacheFiles dumps the latest artifacts for inspection. They are
// never read back.
func (c *Cache) writeCacheFiles(dir string) {
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.log.Warn("建立快取目錄失敗", zap.String("dir", dir), zap.Error(err))
		return
	}
	if a := c.json.Load(); a != nil {
		if err := writeFileAtomic(filepath.Join(dir, cacheJSONFile), a.full); err != nil {
			c.log.Warn("寫入快取檔失敗", zap.Error(err))
		}
	}
	if b := c.banner.Load(); b != nil {
		if err := writeFileAtomic(filepath.Join(dir, cacheBannerFile), *b); err != nil {
			c.log.Warn("寫入快取檔失敗", zap.Error(err))
		}
	}
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// JSON triggers a refresh and returns the last published document
// restricted to flags. An empty flag set yields "".
func (c *Cache) JSON(flags Flags, force bool) string {
	c.Refresh(force)
	return c.Cached(flags)
}

// Cached is JSON without the refresh.
func (c *Cache) Cached(flags Flags) string {
	if flags&FlagAll == FlagNone {
		return ""
	}
	a := c.json.Load()
	if a == nil {
		return ""
	}
	return string(a.filter(flags))
}

// Banner triggers a refresh and returns the last rendered PNG.
func (c *Cache) Banner(force bool) []byte {
	c.Refresh(force)
	if b := c.banner.Load(); b != nil {
		return *b
	}
	return nil
}

// LastUpdate is the time of the last successful refresh; zero before one.
func (c *Cache) LastUpdate() time.Time {
	return c.pub.Load().at
}

// Metrics returns a copy of the metric table as of the last publish.
func (c *Cache) Metrics() []Entry {
	return append([]Entry(nil), c.pub.Load().metrics...)
}

// Published returns the time of the last publish together with the
// metric table it published.
func (c *Cache) Published() (time.Time, []Entry) {
	p := c.pub.Load()
	return p.at, append([]Entry(nil), p.metrics...)
}
