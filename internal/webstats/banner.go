package webstats

import (
	"bytes"
	"fmt"
	"image/color"
	"strconv"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/font/liberation"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// BannerInfo is what a render hook knows about the server.
type BannerInfo struct {
	Width  int
	Height int
	Name   string
	Host   string
	Port   int
	Online int64
	Unique int64
}

// Addr is "host:port", or empty when no reachable address is known.
func (i BannerInfo) Addr() string {
	if i.Host == "" {
		return ""
	}
	return i.Host + ":" + strconv.Itoa(i.Port)
}

// BannerHandler replaces the default banner layout. The surface has been
// cleared to transparent before the call.
type BannerHandler func(surface *vgimg.Canvas, dc draw.Canvas, info BannerInfo) error

var (
	fontOnce  sync.Once
	fontCache *font.Cache
)

func bannerFace(size float64) font.Face {
	fontOnce.Do(func() {
		fontCache = font.NewCache(liberation.Collection())
	})
	return fontCache.Lookup(font.Font{Typeface: "Liberation", Variant: "Sans"}, vg.Length(size))
}

var (
	bannerRed   = color.RGBA{R: 0xff, A: 0xff}
	bannerBlack = color.RGBA{A: 0xff}
)

// DrawText writes s with its top-left corner at (x, y), measured from the
// top-left of a canvas of height h.
func DrawText(c vg.Canvas, h, x, y, size float64, col color.Color, s string) {
	face := bannerFace(size)
	baseline := h - y - float64(face.Extents().Ascent)
	c.SetColor(col)
	c.FillString(face, vg.Point{X: vg.Length(x), Y: vg.Length(baseline)}, s)
}

// TextWidth is the rendered width of s at size.
func TextWidth(size float64, s string) float64 {
	face := bannerFace(size)
	return float64(face.Width(s))
}

func rectPath(h, x, y, w, rh float64) vg.Path {
	var p vg.Path
	top := vg.Length(h - y)
	bottom := vg.Length(h - y - rh)
	p.Move(vg.Point{X: vg.Length(x), Y: top})
	p.Line(vg.Point{X: vg.Length(x + w), Y: top})
	p.Line(vg.Point{X: vg.Length(x + w), Y: bottom})
	p.Line(vg.Point{X: vg.Length(x), Y: bottom})
	p.Close()
	return p
}

// StrokeRect outlines a rectangle given in top-left coordinates.
func StrokeRect(c vg.Canvas, h, x, y, w, rh float64, col color.Color) {
	c.SetColor(col)
	c.SetLineWidth(1)
	c.Stroke(rectPath(h, x, y, w, rh))
}

// FillRect fills a rectangle given in top-left coordinates.
func FillRect(c vg.Canvas, h, x, y, w, rh float64, col color.Color) {
	c.SetColor(col)
	c.Fill(rectPath(h, x, y, w, rh))
}

// renderBanner draws the banner and returns it PNG-encoded. hook, when
// set, replaces the default layout.
func renderBanner(info BannerInfo, hook BannerHandler) ([]byte, error) {
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("invalid banner size %dx%d", info.Width, info.Height)
	}
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(info.Width), vg.Length(info.Height)),
		vgimg.UseDPI(72),
		vgimg.UseBackgroundColor(color.Transparent),
	)

	if hook != nil {
		if err := hook(c, draw.New(c), info); err != nil {
			return nil, fmt.Errorf("banner hook: %w", err)
		}
	} else {
		defaultBanner(c, info)
	}

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode banner: %w", err)
	}
	return buf.Bytes(), nil
}

func defaultBanner(c vg.Canvas, info BannerInfo) {
	w, h := float64(info.Width), float64(info.Height)

	StrokeRect(c, h, 0.5, 0.5, w-1, h-1, bannerRed)
	DrawText(c, h, 5, 2.5, 20, bannerRed, info.Name)
	if addr := info.Addr(); addr != "" {
		DrawText(c, h, 10, 35, 10, bannerBlack, addr)
	}

	online := message.NewPrinter(language.English).Sprintf("Online: %d", info.Online)
	DrawText(c, h, w-10-TextWidth(10, online), 35, 10, bannerBlack, online)
}
