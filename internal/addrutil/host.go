package addrutil

import (
	"net"
	"strconv"
	"strings"
)

// Host strips an optional port from a logged socket address.
//
// Connection lines log the bound address as "ip:port" (for example
// "10.0.0.1:0"), while scout and listener lines log the bare IP. Network
// attribution is keyed by the bare IP, so both forms must reduce to the same
// key. Unbracketed IPv6 "host:port" is accepted when the trailing component
// is numeric and the remainder parses as an address.
func Host(addr string) string {
	a := strings.TrimSpace(addr)
	if a == "" {
		return ""
	}

	if ip := net.ParseIP(strings.Trim(a, "[]")); ip != nil {
		return ip.String()
	}

	if h, _, err := net.SplitHostPort(a); err == nil {
		return h
	}

	if strings.Count(a, ":") > 1 && !strings.HasPrefix(a, "[") {
		if last := strings.LastIndexByte(a, ':'); last > 0 && last < len(a)-1 {
			host := a[:last]
			if _, err := strconv.Atoi(a[last+1:]); err == nil && net.ParseIP(host) != nil {
				return host
			}
		}
	}

	return strings.Trim(a, "[]")
}
