package webstats

import (
	"bytes"
	"errors"
	"net/netip"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	goccy "github.com/goccy/go-json"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

type fakeWorld struct {
	census Census
	err    error
	calls  atomic.Int32
}

func (f *fakeWorld) Census() (Census, error) {
	f.calls.Add(1)
	return f.census, f.err
}

func (f *fakeWorld) setOnline(n int) {
	conns := make([]Connection, n)
	for i := range conns {
		conns[i] = Connection{
			Addr:   netip.AddrFrom4([4]byte{10, 0, 0, byte(i%3 + 1)}),
			Player: &Player{ID: int32(i + 1), Name: "player"},
		}
	}
	f.census.Connections = conns
}

func testOptions() Options {
	return Options{
		ServerName:          "Whale",
		Core:                "L1JGO",
		Host:                "203.0.113.7",
		Port:                7001,
		ModuleVersion:       "1.0.0",
		UpdateInterval:      time.Minute,
		DisplayServer:       true,
		DisplayStats:        true,
		DisplayPlayers:      true,
		DisplayPlayerGuilds: true,
		DisplayPlayerStats:  true,
		DisplayPlayerSkills: true,
		DisplayPlayerEquip:  true,
		BannerWidth:         468,
		BannerHeight:        60,
		StatCap:             225,
	}
}

// newTestCache returns a cache on a manual clock.
func newTestCache(t *testing.T, w *fakeWorld, opts Options) (*Cache, *time.Time) {
	t.Helper()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if w.census.StartTime.IsZero() {
		w.census.StartTime = clock.Add(-time.Hour)
	}
	c := NewCache(w, opts, zap.NewNop())
	c.now = func() time.Time { return clock }
	return c, &clock
}

func metric(t *testing.T, c *Cache, key string) Entry {
	t.Helper()
	for _, e := range c.Metrics() {
		if e.Key == key {
			return e
		}
	}
	t.Fatalf("metric %q not found", key)
	return Entry{}
}

func topKeys(t *testing.T, doc string) map[string]goccy.RawMessage {
	t.Helper()
	var m map[string]goccy.RawMessage
	if err := goccy.Unmarshal([]byte(doc), &m); err != nil {
		t.Fatalf("decode %q: %v", doc, err)
	}
	return m
}

func TestRefreshThrottledWithinInterval(t *testing.T) {
	w := &fakeWorld{}
	c, clock := newTestCache(t, w, testOptions())

	if !c.Refresh(false) {
		t.Fatalf("expected first refresh to run")
	}
	first := c.LastUpdate()

	*clock = clock.Add(30 * time.Second)
	if c.Refresh(false) {
		t.Fatalf("expected refresh within interval to be throttled")
	}
	if !c.LastUpdate().Equal(first) {
		t.Fatalf("snapshot time changed: %v -> %v", first, c.LastUpdate())
	}
	if w.calls.Load() != 1 {
		t.Fatalf("expected one census, got %d", w.calls.Load())
	}

	*clock = clock.Add(31 * time.Second)
	if !c.Refresh(false) {
		t.Fatalf("expected refresh after interval to run")
	}
	if !c.LastUpdate().After(first) {
		t.Fatalf("expected snapshot time to advance")
	}
}

func TestRefreshForceBypassesThrottle(t *testing.T) {
	c, _ := newTestCache(t, &fakeWorld{}, testOptions())
	c.Refresh(false)
	if !c.Refresh(true) {
		t.Fatalf("expected forced refresh to run")
	}
}

func TestRefreshDisplayChangeBypassesThrottle(t *testing.T) {
	c, _ := newTestCache(t, &fakeWorld{}, testOptions())
	c.Refresh(false)

	opts := testOptions()
	opts.DisplayPlayers = false
	c.SetOptions(opts)
	if !c.Refresh(false) {
		t.Fatalf("expected refresh after display flags changed")
	}
	if _, ok := topKeys(t, c.Cached(FlagAll))["players"]; ok {
		t.Fatalf("players section should be gone")
	}
}

type blockingWorld struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingWorld) Census() (Census, error) {
	close(b.entered)
	<-b.release
	return Census{}, nil
}

func TestRefreshReentrantReturnsFalse(t *testing.T) {
	b := &blockingWorld{entered: make(chan struct{}), release: make(chan struct{})}
	c := NewCache(b, testOptions(), zap.NewNop())

	done := make(chan bool)
	go func() { done <- c.Refresh(true) }()
	<-b.entered

	if c.Refresh(true) {
		t.Fatalf("expected re-entrant refresh to return false")
	}
	if !c.LastUpdate().IsZero() {
		t.Fatalf("re-entrant refresh must not publish")
	}
	if c.Cached(FlagAll) != "" {
		t.Fatalf("re-entrant refresh must not publish JSON")
	}

	close(b.release)
	if !<-done {
		t.Fatalf("expected first refresh to complete")
	}
	if c.LastUpdate().IsZero() {
		t.Fatalf("expected first refresh to publish")
	}
}

func TestRunningMaxNeverDecreases(t *testing.T) {
	w := &fakeWorld{}
	c, _ := newTestCache(t, w, testOptions())

	var prevMax int64
	for _, n := range []int{5, 2, 7, 1, 0, 7, 3} {
		w.setOnline(n)
		if !c.Refresh(true) {
			t.Fatalf("refresh failed")
		}
		e := metric(t, c, MetricOnline)
		if e.Value.Int() != int64(n) {
			t.Fatalf("online = %d, want %d", e.Value.Int(), n)
		}
		if e.Max.Int() < prevMax {
			t.Fatalf("running max dropped from %d to %d", prevMax, e.Max.Int())
		}
		prevMax = e.Max.Int()
	}
	if prevMax != 7 {
		t.Fatalf("max = %d, want 7", prevMax)
	}
}

func TestUniqueCountsDistinctAddresses(t *testing.T) {
	w := &fakeWorld{}
	w.setOnline(5)
	c, _ := newTestCache(t, w, testOptions())
	c.Refresh(true)
	if got := metric(t, c, MetricUnique).Value.Int(); got != 3 {
		t.Fatalf("unique = %d, want 3", got)
	}
}

func TestResetPeaksKeepsRunningMax(t *testing.T) {
	w := &fakeWorld{}
	c, _ := newTestCache(t, w, testOptions())

	w.setOnline(9)
	c.Refresh(true)
	w.setOnline(4)
	c.Refresh(true)

	if !c.ResetPeaks() {
		t.Fatalf("expected reset to refresh")
	}
	e := metric(t, c, MetricOnline)
	if e.Peak.Int() != 4 {
		t.Fatalf("peak = %d, want 4", e.Peak.Int())
	}
	if e.Max.Int() != 9 {
		t.Fatalf("max = %d, want 9", e.Max.Int())
	}

	w.setOnline(6)
	c.Refresh(true)
	e = metric(t, c, MetricOnline)
	if e.Peak.Int() != 6 || e.Max.Int() != 9 {
		t.Fatalf("after growth peak=%d max=%d, want 6/9", e.Peak.Int(), e.Max.Int())
	}
}

func TestRestoreSeedsAggregates(t *testing.T) {
	w := &fakeWorld{}
	w.setOnline(2)
	c, _ := newTestCache(t, w, testOptions())

	c.Restore([]Entry{{Key: MetricOnline, Value: IntValue(1), Max: IntValue(40), Peak: IntValue(12)}})
	c.Refresh(true)

	e := metric(t, c, MetricOnline)
	if e.Value.Int() != 2 || e.Max.Int() != 40 || e.Peak.Int() != 12 {
		t.Fatalf("got value=%d max=%d peak=%d", e.Value.Int(), e.Max.Int(), e.Peak.Int())
	}
}

func TestJSONPlayersOnly(t *testing.T) {
	w := &fakeWorld{}
	w.setOnline(2)
	c, _ := newTestCache(t, w, testOptions())

	keys := topKeys(t, c.JSON(FlagPlayers, false))
	if len(keys) != 1 {
		t.Fatalf("expected only players, got %v", keys)
	}
	if _, ok := keys["players"]; !ok {
		t.Fatalf("players key missing: %v", keys)
	}
}

func TestJSONNoneIsEmpty(t *testing.T) {
	c, _ := newTestCache(t, &fakeWorld{}, testOptions())
	if got := c.JSON(FlagNone, false); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
	if c.LastUpdate().IsZero() {
		t.Fatalf("expected JSON to trigger a refresh")
	}
}

func TestJSONFullDocument(t *testing.T) {
	w := &fakeWorld{}
	w.setOnline(1)
	c, _ := newTestCache(t, w, testOptions())

	keys := topKeys(t, c.JSON(FlagAll, false))
	for _, k := range []string{"vnc_version", "mod_version", "snapshot_id", "last_update", "last_update_stamp", "server", "stats", "players"} {
		if _, ok := keys[k]; !ok {
			t.Fatalf("missing %q in %v", k, keys)
		}
	}

	var stats map[string]map[string]any
	if err := goccy.Unmarshal(keys["stats"], &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	up := stats[MetricUptime]
	if up["value"] != "01:00:00" {
		t.Fatalf("uptime value = %v", up["value"])
	}
	if up["value_stamp"] != float64(3600) {
		t.Fatalf("uptime stamp = %v", up["value_stamp"])
	}
	if _, ok := stats[MetricOnline]["value_stamp"]; ok {
		t.Fatalf("counts carry no stamp")
	}
}

func TestJSONPlayerSections(t *testing.T) {
	w := &fakeWorld{}
	w.census.Skills = []SkillDef{{ID: 1, Name: "Alchemy", Cap: 100}, {ID: 2, Name: "Anatomy", Cap: 100}}
	w.census.Connections = []Connection{
		{Addr: netip.MustParseAddr("10.0.0.1"), Player: &Player{
			ID:     7,
			Name:   "Kent",
			Guild:  &Guild{ID: 3, Name: "Red Knights", Abbr: "RK"},
			Stats:  Attributes{Str: 20, StrRaw: 18, Dex: 12, DexRaw: 12, Int: 8, IntRaw: 8},
			Skills: map[int32]SkillLevel{1: {Base: 50, Value: 55, Cap: 100}},
			Equip:  []EquipItem{{ID: 100, Type: "Weapon", Layer: 1, Art: 0x13B9, Name: "Long Sword"}},
		}},
		{Addr: netip.MustParseAddr("10.0.0.2")},
	}

	opts := testOptions()
	opts.DisplayPlayerGuilds = false
	c, _ := newTestCache(t, w, opts)

	var players []map[string]goccy.RawMessage
	if err := goccy.Unmarshal(topKeys(t, c.JSON(FlagPlayers, false))["players"], &players); err != nil {
		t.Fatalf("decode players: %v", err)
	}
	if len(players) != 1 {
		t.Fatalf("expected one player (login sessions skipped), got %d", len(players))
	}
	p := players[0]
	if _, ok := p["guild"]; ok {
		t.Fatalf("guild must be omitted when display_player_guilds is off")
	}

	var stats map[string]int
	goccy.Unmarshal(p["stats"], &stats)
	if stats["total"] != 38 || stats["cap"] != 225 {
		t.Fatalf("stats = %v", stats)
	}

	var skills []skillRecord
	goccy.Unmarshal(p["skills"], &skills)
	if len(skills) != 2 {
		t.Fatalf("expected every skill in the table, got %d", len(skills))
	}
	if skills[0].Value != 55 || skills[1].Cap != 100 {
		t.Fatalf("skills = %+v", skills)
	}

	var equip []equipRecord
	goccy.Unmarshal(p["equip"], &equip)
	if len(equip) != 1 || equip[0].Name != "Long Sword" {
		t.Fatalf("equip = %+v", equip)
	}
}

func TestProviderErrorKeepsLastArtifact(t *testing.T) {
	w := &fakeWorld{}
	w.setOnline(3)
	c, clock := newTestCache(t, w, testOptions())

	before := c.JSON(FlagAll, false)
	w.err = errors.New("db down")
	*clock = clock.Add(2 * time.Minute)

	if c.Refresh(false) {
		t.Fatalf("expected refresh to fail")
	}
	if got := c.JSON(FlagAll, false); got != before {
		t.Fatalf("artifact changed after provider failure")
	}
}

func TestBannerDefaultLayout(t *testing.T) {
	c, _ := newTestCache(t, &fakeWorld{}, testOptions())
	png := c.Banner(false)
	if !bytes.HasPrefix(png, pngMagic) {
		t.Fatalf("expected PNG bytes, got %d bytes", len(png))
	}
}

func TestBannerHookReplacesLayout(t *testing.T) {
	w := &fakeWorld{}
	w.setOnline(4)
	c, _ := newTestCache(t, w, testOptions())

	var got BannerInfo
	calls := 0
	c.SetBannerHandler(func(surface *vgimg.Canvas, dc draw.Canvas, info BannerInfo) error {
		calls++
		got = info
		FillRect(surface, float64(info.Height), 0, 0, 10, 10, bannerRed)
		return nil
	})

	if !bytes.HasPrefix(c.Banner(true), pngMagic) {
		t.Fatalf("expected PNG bytes")
	}
	if calls != 1 {
		t.Fatalf("hook called %d times", calls)
	}
	if got.Online != 4 || got.Addr() != "203.0.113.7:7001" {
		t.Fatalf("hook info = %+v", got)
	}
}

func TestBannerHookErrorKeepsPrevious(t *testing.T) {
	c, _ := newTestCache(t, &fakeWorld{}, testOptions())
	first := c.Banner(true)

	c.SetBannerHandler(func(*vgimg.Canvas, draw.Canvas, BannerInfo) error {
		return errors.New("boom")
	})
	if !bytes.Equal(c.Banner(true), first) {
		t.Fatalf("banner changed after hook failure")
	}
}

func TestCacheFilesWritten(t *testing.T) {
	opts := testOptions()
	opts.CacheDir = t.TempDir()
	c, _ := newTestCache(t, &fakeWorld{}, opts)
	c.Refresh(true)

	data, err := os.ReadFile(filepath.Join(opts.CacheDir, cacheJSONFile))
	if err != nil {
		t.Fatalf("read json cache: %v", err)
	}
	if string(data) != c.Cached(FlagAll) {
		t.Fatalf("cache file differs from published JSON")
	}
	png, err := os.ReadFile(filepath.Join(opts.CacheDir, cacheBannerFile))
	if err != nil {
		t.Fatalf("read banner cache: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Fatalf("banner cache is not a PNG")
	}
}

func TestLoginSessionsNotCounted(t *testing.T) {
	w := &fakeWorld{}
	w.setOnline(3)
	w.census.Connections = append(w.census.Connections,
		Connection{Addr: netip.MustParseAddr("192.0.2.50")},
		Connection{Addr: netip.MustParseAddr("192.0.2.51")},
	)
	c, _ := newTestCache(t, w, testOptions())

	var got BannerInfo
	c.SetBannerHandler(func(_ *vgimg.Canvas, _ draw.Canvas, info BannerInfo) error {
		got = info
		return nil
	})
	c.Refresh(true)

	if online := metric(t, c, MetricOnline).Value.Int(); online != 3 {
		t.Fatalf("online = %d, want 3", online)
	}
	if unique := metric(t, c, MetricUnique).Value.Int(); unique != 3 {
		t.Fatalf("unique = %d, want 3", unique)
	}
	if got.Online != 3 || got.Unique != 3 {
		t.Fatalf("banner info online=%d unique=%d, want 3/3", got.Online, got.Unique)
	}
}

func TestRefreshWhileBannerRenders(t *testing.T) {
	w := &fakeWorld{}
	w.setOnline(2)
	c, _ := newTestCache(t, w, testOptions())

	entered := make(chan struct{})
	release := make(chan struct{})
	var renders atomic.Int32
	c.SetBannerHandler(func(*vgimg.Canvas, draw.Canvas, BannerInfo) error {
		if renders.Add(1) == 1 {
			close(entered)
			<-release
		}
		return nil
	})

	done := make(chan bool)
	go func() { done <- c.Refresh(true) }()
	<-entered

	w.setOnline(5)
	if !c.Refresh(true) {
		t.Fatalf("expected refresh to run while the banner renders")
	}
	if online := metric(t, c, MetricOnline).Value.Int(); online != 5 {
		t.Fatalf("online = %d, want 5", online)
	}
	if n := renders.Load(); n != 1 {
		t.Fatalf("banner rendered %d times while busy, want 1", n)
	}

	close(release)
	if !<-done {
		t.Fatalf("expected first refresh to complete")
	}
	if !bytes.HasPrefix(c.Banner(false), pngMagic) {
		t.Fatalf("expected the first render to be published")
	}
}

func TestPublishedPairsTimeAndMetrics(t *testing.T) {
	w := &fakeWorld{}
	w.setOnline(4)
	c, clock := newTestCache(t, w, testOptions())
	c.Refresh(true)

	at, metrics := c.Published()
	if !at.Equal(*clock) {
		t.Fatalf("published at %s, want %s", at, *clock)
	}
	for _, e := range metrics {
		if e.Key == MetricOnline && e.Value.Int() != 4 {
			t.Fatalf("online = %d, want 4", e.Value.Int())
		}
	}
}
