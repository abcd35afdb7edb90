package net

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/l1jgo/webstats/internal/config"
	"go.uber.org/zap"
)

func ipNet(s string) *net.IPNet {
	ip, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	n.IP = ip
	return n
}

func TestReachableAddr(t *testing.T) {
	ifaces := []net.Addr{
		ipNet("127.0.0.1/8"),
		ipNet("fe80::1/64"),
		ipNet("169.254.3.3/16"),
		ipNet("2001:db8::5/64"),
		ipNet("192.168.1.20/24"),
		ipNet("10.0.0.9/8"),
	}
	tests := []struct {
		name       string
		publicHost string
		gameAddr   string
		wantHost   string
		wantPort   int
	}{
		{"public host wins", "play.example.org", "0.0.0.0:7001", "play.example.org", 7001},
		{"explicit listener ip", "", "203.0.113.5:2593", "203.0.113.5", 2593},
		{"wildcard discovers", "", "0.0.0.0:7001", "192.168.1.20", 7001},
		{"empty host discovers", "", ":7001", "192.168.1.20", 7001},
		{"loopback discovers", "", "127.0.0.1:7001", "192.168.1.20", 7001},
		{"dns name kept", "", "game.example.org:7001", "game.example.org", 7001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := reachableAddr(tt.publicHost, tt.gameAddr, ifaces)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if host != tt.wantHost || port != tt.wantPort {
				t.Fatalf("got %s:%d, want %s:%d", host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestReachableAddrNoInterfaces(t *testing.T) {
	host, port, err := reachableAddr("", "0.0.0.0:7001", []net.Addr{ipNet("127.0.0.1/8")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host != "" || port != 7001 {
		t.Fatalf("got %q:%d, want empty host", host, port)
	}
}

func TestReachableAddrBadGameAddr(t *testing.T) {
	for _, addr := range []string{"7001", "host:", "host:99999", "host:abc"} {
		if _, _, err := reachableAddr("", addr, nil); err == nil {
			t.Fatalf("expected error for %q", addr)
		}
	}
}

func TestServerLifecycle(t *testing.T) {
	cfg := config.HTTPConfig{BindAddress: "127.0.0.1:0", ReadTimeout: time.Second, WriteTimeout: time.Second}
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "pong") })
	s, err := NewServer(cfg, h, zap.NewNop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	go s.Serve()

	resp, err := http.Get("http://" + s.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Fatalf("body = %q", body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if _, err := http.Get("http://" + s.Addr().String() + "/"); err == nil {
		t.Fatalf("expected connection failure after shutdown")
	}
}
