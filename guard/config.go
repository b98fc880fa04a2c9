package guard

import (
	"time"

	"github.com/JeanGrijp/go-sessionguard/legitimacy"
)

// DefaultSessionName is the session cookie name used when none is configured.
const DefaultSessionName = "PHPSESSID"

// Config drives the Guard. Field tags allow loading it with config.Load.
type Config struct {
	// Session cookie
	SessionName   string `env:"SESSION_NAME" envDefault:"PHPSESSID"`
	SessionMaxAge int    `env:"SESSION_MAX_AGE" envDefault:"0"` // seconds, 0 = browser session

	// Legitimacy cookie
	LegitimacyCookie string `env:"LEGITIMACY_COOKIE" envDefault:"REFERER_INFO"`
	LegitimacyMaxAge int    `env:"LEGITIMACY_MAX_AGE" envDefault:"0"`

	// Transport
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	// Protect behavior
	EnforceLegitimacy bool `env:"ENFORCE_LEGITIMACY" envDefault:"false"`
	RefreshOnSuccess  bool `env:"REFRESH_ON_SUCCESS" envDefault:"false"`
	BindFingerprint   bool `env:"BIND_FINGERPRINT" envDefault:"false"`

	// No-referer watchlist, disabled when the window is zero
	WatchlistWindow    time.Duration `env:"WATCHLIST_WINDOW" envDefault:"0"`
	WatchlistThreshold int           `env:"WATCHLIST_THRESHOLD" envDefault:"20"`
}

func (c *Config) applyDefaults() {
	if c.SessionName == "" {
		c.SessionName = DefaultSessionName
	}
	if c.SessionMaxAge < 0 {
		c.SessionMaxAge = 0
	}
	if c.LegitimacyCookie == "" {
		c.LegitimacyCookie = legitimacy.DefaultCookieName
	}
	if c.WatchlistThreshold <= 0 {
		c.WatchlistThreshold = 20
	}
}
