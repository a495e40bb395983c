package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

const unknownIP = "0.0.0.0"

// IANA defined IPv4 non-public ranges
var privatePrefixes = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("198.18.0.0/15"),
}

// ClientIP parses the "X-Forwarded-For" and "X-Real-Ip" headers for the address of the client,
// falling back to remoteAddr.
//
// ClientIP skips addresses from non-public ranges.
func ClientIP(h http.Header, remoteAddr string) string {
	for _, key := range []string{"X-Forwarded-For", "X-Real-Ip"} {
		addresses := strings.Split(h.Get(key), ",")
		// march from right to left until we get a public address
		// that will be the address right before our proxy.
		for i := len(addresses) - 1; i >= 0; i-- {
			ip := strings.TrimSpace(addresses[i])
			if isPublic(ip) {
				return ip
			}
		}
	}

	if host, _, err := net.SplitHostPort(remoteAddr); err == nil && host != "" {
		return host
	}

	return unknownIP
}

func isPublic(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.IsGlobalUnicast() {
		return false
	}

	if addr.Is4() {
		for _, p := range privatePrefixes {
			if p.Contains(addr) {
				return false
			}
		}
	}

	return true
}
