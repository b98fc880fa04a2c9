// Package fingerprint derives a stable digest from transport-level client
// attributes (address, user agent, source port).
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// Size is the length of a fingerprint in hex characters.
const Size = sha256.Size * 2

// Client holds the transport attributes a fingerprint is computed from.
type Client struct {
	Addr      string
	UserAgent string
	Port      string
}

// Generate returns the SHA-256 hex digest of addr, userAgent and port
// concatenated in that order. Empty values are hashed as-is.
//
// Params:
// - remoteAddr: client address without port.
// - userAgent: raw User-Agent header value.
// - remotePort: client source port.
//
// Returns:
// - 64 lowercase hex characters.
func Generate(remoteAddr, userAgent, remotePort string) string {
	sum := sha256.Sum256([]byte(remoteAddr + userAgent + remotePort))
	return hex.EncodeToString(sum[:])
}

// Fingerprint is a shortcut for Generate(c.Addr, c.UserAgent, c.Port).
func (c Client) Fingerprint() string {
	return Generate(c.Addr, c.UserAgent, c.Port)
}

type options struct {
	trustForwarded bool
}

// Option customizes how FromRequest reads the client attributes.
type Option func(*options)

// WithTrustedProxyHeaders makes FromRequest take the client address from the
// left-most X-Forwarded-For entry when present. Only enable it behind a proxy
// that overwrites the header.
func WithTrustedProxyHeaders() Option {
	return func(o *options) {
		o.trustForwarded = true
	}
}

// FromRequest extracts the client attributes from r.
// When r.RemoteAddr has no port the whole value is used as the address.
func FromRequest(r *http.Request, opts ...Option) Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	addr, port, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		addr, port = r.RemoteAddr, ""
	}

	if o.trustForwarded {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				addr = first
			}
		}
	}

	return Client{
		Addr:      addr,
		UserAgent: r.UserAgent(),
		Port:      port,
	}
}
