// Package clientip extracts real client IP addresses from HTTP requests.
//
// Proxy headers are checked in priority order before falling back to the
// connection's RemoteAddr:
//  1. CF-Connecting-IP (Cloudflare)
//  2. DO-Connecting-IP (DigitalOcean)
//  3. X-Forwarded-For (leftmost entry is the original client)
//  4. X-Real-IP (nginx and other reverse proxies)
//  5. RemoteAddr (direct connection)
//
// All candidates are validated with net.ParseIP and normalized; malformed
// headers are skipped and the unspecified address 0.0.0.0 is rejected.
// GetIP never panics and always returns a non-empty string.
package clientip
