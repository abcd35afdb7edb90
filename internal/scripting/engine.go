package scripting

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/l1jgo/webstats/internal/webstats"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Engine wraps a single gopher-lua VM for banner scripts.
// Single-goroutine access only: the cache enters it from its refresh path.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger

	// canvas of the render in progress; nil outside RenderBanner
	cur    vg.Canvas
	height float64
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	e.registerBuiltins()

	if err := e.loadDir(filepath.Join(scriptsDir, "banner")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load banner scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// HasBannerHook reports whether a script defined render_banner.
func (e *Engine) HasBannerHook() bool {
	return e.vm.GetGlobal("render_banner").Type() == lua.LTFunction
}

// BannerHandler returns the hook to install on the cache, or nil when no
// script defines render_banner.
func (e *Engine) BannerHandler() webstats.BannerHandler {
	if !e.HasBannerHook() {
		return nil
	}
	return e.RenderBanner
}

// RenderBanner calls the Lua render_banner(info) function on the surface.
func (e *Engine) RenderBanner(surface *vgimg.Canvas, _ draw.Canvas, info webstats.BannerInfo) error {
	fn := e.vm.GetGlobal("render_banner")
	if fn.Type() != lua.LTFunction {
		return fmt.Errorf("lua function render_banner not found")
	}

	t := e.vm.NewTable()
	t.RawSetString("width", lua.LNumber(info.Width))
	t.RawSetString("height", lua.LNumber(info.Height))
	t.RawSetString("name", lua.LString(info.Name))
	t.RawSetString("host", lua.LString(info.Host))
	t.RawSetString("port", lua.LNumber(info.Port))
	t.RawSetString("addr", lua.LString(info.Addr()))
	t.RawSetString("online", lua.LNumber(info.Online))
	t.RawSetString("unique", lua.LNumber(info.Unique))

	e.cur, e.height = surface, float64(info.Height)
	defer func() { e.cur = nil }()

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, t); err != nil {
		return fmt.Errorf("lua render_banner: %w", err)
	}
	return nil
}

func (e *Engine) registerBuiltins() {
	e.vm.SetGlobal("banner_text", e.vm.NewFunction(e.luaText))
	e.vm.SetGlobal("banner_text_width", e.vm.NewFunction(e.luaTextWidth))
	e.vm.SetGlobal("banner_rect", e.vm.NewFunction(e.luaRect))
	e.vm.SetGlobal("banner_fill", e.vm.NewFunction(e.luaFill))
}

// banner_text(x, y, size, color, text)
func (e *Engine) luaText(L *lua.LState) int {
	c := e.canvas(L)
	x := float64(L.CheckNumber(1))
	y := float64(L.CheckNumber(2))
	size := float64(L.CheckNumber(3))
	col := checkColor(L, 4)
	text := L.CheckString(5)
	webstats.DrawText(c, e.height, x, y, size, col, text)
	return 0
}

// banner_text_width(size, text) -> width
func (e *Engine) luaTextWidth(L *lua.LState) int {
	size := float64(L.CheckNumber(1))
	text := L.CheckString(2)
	L.Push(lua.LNumber(webstats.TextWidth(size, text)))
	return 1
}

// banner_rect(x, y, w, h, color)
func (e *Engine) luaRect(L *lua.LState) int {
	c := e.canvas(L)
	x, y, w, h := rectArgs(L)
	webstats.StrokeRect(c, e.height, x, y, w, h, checkColor(L, 5))
	return 0
}

// banner_fill(x, y, w, h, color)
func (e *Engine) luaFill(L *lua.LState) int {
	c := e.canvas(L)
	x, y, w, h := rectArgs(L)
	webstats.FillRect(c, e.height, x, y, w, h, checkColor(L, 5))
	return 0
}

func (e *Engine) canvas(L *lua.LState) vg.Canvas {
	if e.cur == nil {
		L.RaiseError("banner drawing is only allowed inside render_banner")
	}
	return e.cur
}

func rectArgs(L *lua.LState) (x, y, w, h float64) {
	return float64(L.CheckNumber(1)), float64(L.CheckNumber(2)),
		float64(L.CheckNumber(3)), float64(L.CheckNumber(4))
}

func checkColor(L *lua.LState, n int) color.Color {
	s := L.CheckString(n)
	col, err := ParseColor(s)
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return col
}

var namedColors = map[string]color.RGBA{
	"black": {A: 0xff},
	"white": {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	"red":   {R: 0xff, A: 0xff},
	"green": {G: 0x80, A: 0xff},
	"blue":  {B: 0xff, A: 0xff},
	"gold":  {R: 0xff, G: 0xd7, A: 0xff},
	"gray":  {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
}

// ParseColor accepts a colour name, "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return color.RGBA{}, fmt.Errorf("bad color %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad color %q", s)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
