// Package legitimacy issues and checks a cookie recording whether the first
// navigation of a visitor carried a same-origin Referer.
//
// The signal is a heuristic. It complements request token validation and
// must never replace it.
package legitimacy

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultCookieName is the name of the legitimacy cookie.
	DefaultCookieName = "REFERER_INFO"
	// MaxCookieSize is the largest Set-Cookie value Mark will emit.
	MaxCookieSize = 4096

	clearAge = 365 * 24 * time.Hour
)

// ErrCookieTooLarge is returned by Mark when the encoded Referer does not fit
// in a cookie.
var ErrCookieTooLarge = errors.New("legitimacy cookie exceeds maximum size")

// Payload is the JSON document carried by the cookie.
type Payload struct {
	IsAvailable bool   `json:"IsAvailable"`
	Content     string `json:"Content"`
}

// Verdict is the outcome of inspecting a legitimacy cookie.
type Verdict int

const (
	// VerdictMissing means no cookie or an empty one.
	VerdictMissing Verdict = iota
	// VerdictMalformed means the value is not base64 JSON with both fields.
	VerdictMalformed
	// VerdictNoReferer means the first contact had no Referer header.
	VerdictNoReferer
	// VerdictSameOrigin means the recorded Referer host equals the request host.
	VerdictSameOrigin
	// VerdictCrossOrigin means the recorded Referer host differs.
	VerdictCrossOrigin
)

func (v Verdict) String() string {
	switch v {
	case VerdictMissing:
		return "missing"
	case VerdictMalformed:
		return "malformed"
	case VerdictNoReferer:
		return "no_referer"
	case VerdictSameOrigin:
		return "same_origin"
	case VerdictCrossOrigin:
		return "cross_origin"
	default:
		return "unknown"
	}
}

// Legitimate reports whether the verdict trusts the request. Clients that
// never sent a Referer are trusted.
func (v Verdict) Legitimate() bool {
	return v == VerdictNoReferer || v == VerdictSameOrigin
}

// Tracker writes and reads the legitimacy cookie.
type Tracker struct {
	cookieName string
	maxAge     int
	sameSite   http.SameSite
	watchlist  *Watchlist
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithCookieName overrides DefaultCookieName.
func WithCookieName(name string) Option {
	return func(t *Tracker) {
		if name != "" {
			t.cookieName = name
		}
	}
}

// WithMaxAge sets the cookie Max-Age in seconds. Zero keeps the cookie for
// the browser session.
func WithMaxAge(seconds int) Option {
	return func(t *Tracker) {
		if seconds >= 0 {
			t.maxAge = seconds
		}
	}
}

// WithSameSite sets the cookie SameSite attribute.
func WithSameSite(mode http.SameSite) Option {
	return func(t *Tracker) {
		t.sameSite = mode
	}
}

// WithWatchlist records clients trusted without a Referer.
func WithWatchlist(w *Watchlist) Option {
	return func(t *Tracker) {
		t.watchlist = w
	}
}

// New returns a Tracker with a session-lifetime, SameSite=Strict cookie.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		cookieName: DefaultCookieName,
		sameSite:   http.SameSiteStrictMode,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CookieName returns the name of the legitimacy cookie.
func (t *Tracker) CookieName() string { return t.cookieName }

// Watchlist returns the configured watchlist, or nil.
func (t *Tracker) Watchlist() *Watchlist { return t.watchlist }

// Encode serializes the Referer observation. present tells whether the
// header existed at all, even if empty.
func Encode(referer string, present bool) string {
	b, _ := json.Marshal(Payload{IsAvailable: present, Content: referer})
	return base64.StdEncoding.EncodeToString(b)
}

// Mark sets the legitimacy cookie for host. The cookie is HttpOnly, scoped to
// path "/" and the host, and Secure when the request was. A Referer too long
// to fit is reduced to its scheme and host, which is all Check compares.
func (t *Tracker) Mark(w http.ResponseWriter, host string, secure bool, referer string, present bool) error {
	c := t.cookie(host, secure)
	c.Value = Encode(referer, present)
	c.MaxAge = t.maxAge

	if len(c.String()) > MaxCookieSize {
		c.Value = Encode(origin(referer), present)
	}
	if size := len(c.String()); size > MaxCookieSize {
		return fmt.Errorf("%w: %d bytes", ErrCookieTooLarge, size)
	}
	http.SetCookie(w, c)
	return nil
}

// origin drops everything after the host of referer. Unparseable values
// become empty, which Check treats as cross-origin.
func origin(referer string) string {
	u, err := url.Parse(referer)
	if err != nil || u.Host == "" {
		return ""
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host}).String()
}

// MarkRequest calls Mark with the attributes of r.
func (t *Tracker) MarkRequest(w http.ResponseWriter, r *http.Request, secure bool) error {
	_, present := r.Header["Referer"]
	return t.Mark(w, r.Host, secure, r.Header.Get("Referer"), present)
}

// Clear expires the cookie one year in the past.
func (t *Tracker) Clear(w http.ResponseWriter, host string, secure bool) {
	c := t.cookie(host, secure)
	c.Expires = time.Now().Add(-clearAge)
	c.MaxAge = -1
	http.SetCookie(w, c)
}

func (t *Tracker) cookie(host string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     t.cookieName,
		Path:     "/",
		Domain:   Hostname(host),
		Secure:   secure,
		HttpOnly: true,
		SameSite: t.sameSite,
	}
}

// Inspect decodes cookieValue and classifies it against the request host.
func (t *Tracker) Inspect(cookieValue, host string) Verdict {
	return inspect(cookieValue, host)
}

// Check reports whether cookieValue marks a legitimate visitor for host.
func (t *Tracker) Check(cookieValue, host string) bool {
	return inspect(cookieValue, host).Legitimate()
}

// HasCookie reports whether r carries a non-empty legitimacy cookie.
func (t *Tracker) HasCookie(r *http.Request) bool {
	c, err := r.Cookie(t.cookieName)
	return err == nil && c.Value != ""
}

// InspectRequest reads the cookie from r and inspects it against r.Host.
func (t *Tracker) InspectRequest(r *http.Request) Verdict {
	c, err := r.Cookie(t.cookieName)
	if err != nil {
		return VerdictMissing
	}
	return inspect(c.Value, r.Host)
}

func inspect(cookieValue, host string) Verdict {
	if cookieValue == "" {
		return VerdictMissing
	}

	raw, err := base64.StdEncoding.DecodeString(cookieValue)
	if err != nil {
		return VerdictMalformed
	}

	var p struct {
		IsAvailable *bool   `json:"IsAvailable"`
		Content     *string `json:"Content"`
	}
	if err := json.Unmarshal(raw, &p); err != nil || p.IsAvailable == nil || p.Content == nil {
		return VerdictMalformed
	}

	if !*p.IsAvailable {
		return VerdictNoReferer
	}

	u, err := url.Parse(*p.Content)
	if err != nil {
		return VerdictCrossOrigin
	}
	given := strings.ToLower(u.Hostname())
	expected := strings.ToLower(Hostname(host))
	if given == "" || given != expected {
		return VerdictCrossOrigin
	}
	return VerdictSameOrigin
}

// Hostname strips the port and IPv6 brackets from a Host header value.
func Hostname(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
}
