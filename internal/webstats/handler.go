package webstats

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	goccy "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Authenticator checks administrator credentials and returns the
// account's access level.
type Authenticator interface {
	Authenticate(ctx context.Context, login, password string) (int16, error)
}

type HandlerConfig struct {
	Path           string // mount point, e.g. "/webstats"
	Hub            *Hub
	History        *History
	Auth           Authenticator // nil disables the admin routes
	MinAccessLevel int16
	OnPeaksReset   func(at time.Time) // called after a successful peak reset
	Logger         *zap.Logger
}

// NewHTTPHandler serves the stats endpoint and its companion routes.
// Stats queries never fail: callers always get the last artifact, which
// may be empty.
func NewHTTPHandler(cache *Cache, cfg HandlerConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	base := "/" + strings.Trim(cfg.Path, "/")
	if base == "/" {
		base = ""
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	stats := func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Has("banner") {
			w.Header().Set("Content-Type", "image/png")
			w.Header().Set("Cache-Control", "no-cache")
			w.Write(cache.Banner(false))
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write([]byte(cache.JSON(ParseFlags(q), false)))
	}
	if base == "" {
		mux.HandleFunc("GET /{$}", stats)
	} else {
		mux.HandleFunc("GET "+base, stats)
		mux.HandleFunc("GET "+base+"/{$}", stats)
	}

	if cfg.History != nil {
		mux.HandleFunc("GET "+base+"/history", func(w http.ResponseWriter, r *http.Request) {
			var buf bytes.Buffer
			if err := cfg.History.Render(&buf, "WebStats History"); err != nil {
				log.Error("繪製歷史圖表失敗", zap.Error(err))
				http.Error(w, "history unavailable", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(buf.Bytes())
		})
	}

	if cfg.Hub != nil {
		mux.Handle("GET "+base+"/ws", cfg.Hub)
	}

	if cfg.Auth != nil {
		admin := &adminGuard{auth: cfg.Auth, minLevel: cfg.MinAccessLevel, log: log}
		mux.Handle("POST "+base+"/admin/refresh", admin.wrap(func(w http.ResponseWriter, r *http.Request) {
			writeAdminResult(w, cache.Refresh(true), cache)
		}))
		mux.Handle("POST "+base+"/admin/reset-peaks", admin.wrap(func(w http.ResponseWriter, r *http.Request) {
			ok := cache.ResetPeaks()
			if ok && cfg.OnPeaksReset != nil {
				cfg.OnPeaksReset(cache.LastUpdate())
			}
			writeAdminResult(w, ok, cache)
		}))
	}

	return mux
}

type adminResult struct {
	Refreshed  bool   `json:"refreshed"`
	LastUpdate string `json:"last_update,omitempty"`
}

func writeAdminResult(w http.ResponseWriter, refreshed bool, cache *Cache) {
	res := adminResult{Refreshed: refreshed}
	if at := cache.LastUpdate(); !at.IsZero() {
		res.LastUpdate = at.UTC().Format(time.RFC3339)
	}
	data, _ := goccy.Marshal(res)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(data)
}

type adminGuard struct {
	auth     Authenticator
	minLevel int16
	log      *zap.Logger
}

func (g *adminGuard) wrap(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		login, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="webstats"`)
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		level, err := g.auth.Authenticate(r.Context(), login, password)
		if err != nil {
			g.log.Warn("管理員驗證失敗", zap.String("login", login), zap.Error(err))
			w.Header().Set("WWW-Authenticate", `Basic realm="webstats"`)
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		if level < g.minLevel {
			g.log.Warn("權限不足", zap.String("login", login), zap.Int16("level", level))
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		g.log.Info("管理員操作", zap.String("login", login), zap.String("path", r.URL.Path))
		next(w, r)
	})
}
