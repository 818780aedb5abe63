package middleware

import (
	"net/http"
	"net/netip"
	"strings"
)

// Guard protects operational endpoints with an optional bearer token and CIDR allowlist.
// With neither configured it lets every request through. The allowlist is checked
// against the connection's peer address, never a forwarded client address.
func Guard(token, allowlist string) func(http.Handler) http.Handler {
	g := &guard{token: strings.TrimSpace(token), allowed: parseAllowlist(allowlist)}
	return g.wrap
}

type guard struct {
	token   string
	allowed []netip.Prefix
}

func (g *guard) wrap(next http.Handler) http.Handler {
	if g.token == "" && len(g.allowed) == 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(g.allowed) > 0 {
			if !g.permits(GetPeerAddr(r)) {
				writeError(w, http.StatusForbidden, "Forbidden", "request IP not allowed")
				return
			}
		}

		if g.token == "" {
			next.ServeHTTP(w, r)
			return
		}

		const bearerPrefix = "Bearer "
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, bearerPrefix) {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "missing or invalid bearer token")
			return
		}
		if strings.TrimSpace(strings.TrimPrefix(auth, bearerPrefix)) != g.token {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "invalid bearer token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (g *guard) permits(addr string) bool {
	ip, ok := peerIP(addr)
	if !ok {
		return false
	}
	if ip.IsLoopback() {
		return true
	}
	for _, prefix := range g.allowed {
		if prefix.Contains(ip) {
			return true
		}
	}
	return false
}

// peerIP accepts "host:port" or a bare address; IPv4-mapped IPv6 is unmapped.
func peerIP(addr string) (netip.Addr, bool) {
	if ap, err := netip.ParseAddrPort(addr); err == nil {
		return ap.Addr().Unmap(), true
	}
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}

// parseAllowlist reads comma separated CIDRs, skipping blanks and malformed entries.
func parseAllowlist(raw string) []netip.Prefix {
	var prefixes []netip.Prefix
	for _, entry := range strings.Split(raw, ",") {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(entry))
		if err != nil {
			continue
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes
}
