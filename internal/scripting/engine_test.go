package scripting

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/l1jgo/webstats/internal/webstats"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	bannerDir := filepath.Join(dir, "banner")
	if err := os.MkdirAll(bannerDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(bannerDir, "test.lua"), []byte(body), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return dir
}

func testInfo() webstats.BannerInfo {
	return webstats.BannerInfo{Width: 100, Height: 30, Name: "Whale", Host: "10.0.0.1", Port: 7001, Online: 3, Unique: 2}
}

func TestNoScriptsNoHook(t *testing.T) {
	e, err := NewEngine(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer e.Close()
	if e.BannerHandler() != nil {
		t.Fatalf("expected no banner hook without scripts")
	}
}

func TestRenderBannerCallsScript(t *testing.T) {
	dir := writeScript(t, `
function render_banner(info)
    seen = info.name .. "@" .. info.addr .. "#" .. info.online
    banner_fill(0, 0, info.width, info.height, "#ff0000")
    banner_text(2, 2, 10, "white", info.name)
end
`)
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer e.Close()

	hook := e.BannerHandler()
	if hook == nil {
		t.Fatalf("expected banner hook")
	}
	surface := vgimg.New(100, 30)
	if err := hook(surface, draw.New(surface), testInfo()); err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := e.vm.GetGlobal("seen").String(); got != "Whale@10.0.0.1:7001#3" {
		t.Fatalf("unexpected info seen by script: %q", got)
	}
	r, g, b, _ := surface.Image().At(90, 25).RGBA()
	if r>>8 != 0xff || g != 0 || b != 0 {
		t.Fatalf("expected red fill, got %v", surface.Image().At(90, 25))
	}
}

func TestRenderBannerScriptError(t *testing.T) {
	dir := writeScript(t, `
function render_banner(info)
    banner_fill(0, 0, 1, 1, "chartreuse-ish")
end
`)
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer e.Close()

	surface := vgimg.New(100, 30)
	if err := e.RenderBanner(surface, draw.New(surface), testInfo()); err == nil {
		t.Fatalf("expected error for bad color")
	}
}

func TestDrawingOutsideRenderFails(t *testing.T) {
	e, err := NewEngine(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer e.Close()

	err = e.vm.CallByParam(lua.P{Fn: e.vm.GetGlobal("banner_rect"), Protect: true},
		lua.LNumber(0), lua.LNumber(0), lua.LNumber(1), lua.LNumber(1), lua.LString("red"))
	if err == nil {
		t.Fatalf("expected error drawing outside render_banner")
	}
}

func TestBadScriptFailsLoad(t *testing.T) {
	dir := writeScript(t, `function render_banner(info`)
	if _, err := NewEngine(dir, zap.NewNop()); err == nil {
		t.Fatalf("expected load error for broken script")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"red", color.RGBA{R: 0xff, A: 0xff}, true},
		{" Black ", color.RGBA{A: 0xff}, true},
		{"#102030", color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}, true},
		{"#10203080", color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x80}, true},
		{"#123", color.RGBA{}, false},
		{"#zzzzzz", color.RGBA{}, false},
		{"mauve", color.RGBA{}, false},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err == nil) != tt.ok {
			t.Fatalf("ParseColor(%q) err = %v, want ok=%v", tt.in, err, tt.ok)
		}
		if tt.ok && got != tt.want {
			t.Fatalf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultScriptLoads(t *testing.T) {
	e, err := NewEngine(filepath.Join("..", "..", "scripts"), zap.NewNop())
	if err != nil {
		t.Fatalf("load shipped scripts: %v", err)
	}
	defer e.Close()
	if !e.HasBannerHook() {
		t.Fatalf("expected shipped banner script to define render_banner")
	}
	surface := vgimg.New(468, 60)
	if err := e.RenderBanner(surface, draw.New(surface), testInfo()); err != nil {
		t.Fatalf("render shipped banner: %v", err)
	}
}
