package netutil

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"unicode/utf8"
)

const MaxUserAgentLength = 512

// NormalizeIP returns the canonical address from a bare IP or host:port
// string, with any zone stripped. ok is false when no IP could be parsed, in
// which case the trimmed input is returned unchanged.
func NormalizeIP(raw string) (ip string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	candidates := []string{raw}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		candidates = append(candidates, host)
	}
	if i := strings.LastIndexByte(raw, ']'); strings.HasPrefix(raw, "[") && i > 0 {
		candidates = append(candidates, raw[1:i])
	}
	for _, c := range candidates {
		if addr, err := netip.ParseAddr(c); err == nil {
			return addr.WithZone("").String(), true
		}
	}
	return raw, false
}

// TruncateUserAgent caps ua at MaxUserAgentLength runes.
func TruncateUserAgent(ua string) string {
	if utf8.RuneCountInString(ua) <= MaxUserAgentLength {
		return ua
	}
	n := 0
	for i := range ua {
		if n == MaxUserAgentLength {
			return ua[:i]
		}
		n++
	}
	return ua
}

// ClientInfo extracts the caller's address and user agent for audit rows.
// RemoteAddr is expected to have been rewritten by chi's RealIP middleware.
func ClientInfo(r *http.Request) (ip, ua string) {
	ip, _ = NormalizeIP(r.RemoteAddr)
	return ip, TruncateUserAgent(r.UserAgent())
}
