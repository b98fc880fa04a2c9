package csrf

import (
	"crypto/rand"
	"io"
	"time"
)

const (
	// DefaultFieldName is the form field carrying the token.
	DefaultFieldName = "request_token"
	// DefaultHeaderName is the request header checked before the form field.
	DefaultHeaderName = "X-Request-Token"
)

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now for the time component of generated tokens.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRandom replaces the random source. It must be cryptographically secure
// outside of tests.
func WithRandom(r io.Reader) Option {
	return func(m *Manager) {
		if r != nil {
			m.rand = r
		}
	}
}

// WithFingerprintBinding makes Validate also require that the client
// fingerprint matches the one recorded when the token was generated.
func WithFingerprintBinding(enabled bool) Option {
	return func(m *Manager) {
		m.bindFingerprint = enabled
	}
}

// WithFieldName sets the hidden input name used by RenderField.
func WithFieldName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.fieldName = name
		}
	}
}

// WithHeaderName sets the header ExtractToken looks at first.
func WithHeaderName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.headerName = name
		}
	}
}

func defaultManager() *Manager {
	return &Manager{
		now:        time.Now,
		rand:       rand.Reader,
		fieldName:  DefaultFieldName,
		headerName: DefaultHeaderName,
	}
}
