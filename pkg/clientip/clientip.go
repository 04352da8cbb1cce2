package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Proxy headers in priority order. CDN-set headers are checked before the
// generic proxy headers because they are harder to spoof.
var headers = []string{
	"CF-Connecting-IP",
	"DO-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// GetIP extracts the real client IP address from the request.
// It checks proxy headers in priority order and falls back to RemoteAddr.
// The returned address is validated and normalized; if no valid IP can be
// determined the raw RemoteAddr is returned.
func GetIP(r *http.Request) string {
	for _, header := range headers {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}

		// X-Forwarded-For may carry a chain "client, proxy1, proxy2";
		// the leftmost entry is the original client.
		if idx := strings.IndexByte(value, ','); idx >= 0 {
			value = value[:idx]
		}

		if ip := normalize(value); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := normalize(host); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// normalize validates and canonicalizes an IP string.
// Returns "" for invalid addresses and the unspecified address 0.0.0.0.
func normalize(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil || ip.IsUnspecified() {
		return ""
	}
	return ip.String()
}
