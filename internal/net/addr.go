package net

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
)

// ReachableAddr decides the host:port shown on the banner and in the
// server section. publicHost wins when set; otherwise the game listener's
// host is used unless it is a wildcard or loopback address, in which case
// the first non-loopback IPv4 of this machine is used. An empty host means
// no reachable address could be found.
func ReachableAddr(publicHost, gameAddr string) (string, int, error) {
	ifaceAddrs, err := net.InterfaceAddrs()
	if err != nil {
		ifaceAddrs = nil
	}
	return reachableAddr(publicHost, gameAddr, ifaceAddrs)
}

func reachableAddr(publicHost, gameAddr string, ifaceAddrs []net.Addr) (string, int, error) {
	host, portStr, err := net.SplitHostPort(gameAddr)
	if err != nil {
		return "", 0, fmt.Errorf("game address %q: %w", gameAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("game address %q: bad port", gameAddr)
	}

	if publicHost != "" {
		return publicHost, port, nil
	}
	if a, err := netip.ParseAddr(host); err == nil {
		if !a.IsUnspecified() && !a.IsLoopback() {
			return a.String(), port, nil
		}
	} else if host != "" && host != "localhost" {
		return host, port, nil // DNS name
	}
	return firstIPv4(ifaceAddrs), port, nil
}

func firstIPv4(addrs []net.Addr) string {
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
			continue
		}
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
	}
	return ""
}
