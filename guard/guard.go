package guard

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/JeanGrijp/go-sessionguard/csrf"
	"github.com/JeanGrijp/go-sessionguard/fingerprint"
	"github.com/JeanGrijp/go-sessionguard/legitimacy"
	"github.com/JeanGrijp/go-sessionguard/session"
)

// Guard composes the session store, the token manager and the legitimacy
// tracker. It is safe for concurrent use; per-request state lives in Session.
type Guard struct {
	cfg       Config
	store     session.Store
	tokens    *csrf.Manager
	tracker   *legitimacy.Tracker
	watchlist *legitimacy.Watchlist
	log       zerolog.Logger
	metrics   *metrics
	registry  prometheus.Registerer
}

// Option configures a Guard.
type Option func(*Guard)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Guard) {
		g.log = l
	}
}

// WithMetrics registers the guard's Prometheus counters on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(g *Guard) {
		g.registry = reg
	}
}

// WithTokenManager replaces the token manager built from Config.
func WithTokenManager(m *csrf.Manager) Option {
	return func(g *Guard) {
		if m != nil {
			g.tokens = m
		}
	}
}

// WithTracker replaces the legitimacy tracker built from Config.
func WithTracker(t *legitimacy.Tracker) Option {
	return func(g *Guard) {
		if t == nil {
			return
		}
		if g.watchlist != nil && g.watchlist != t.Watchlist() {
			g.watchlist.Stop()
		}
		g.tracker = t
		g.watchlist = t.Watchlist()
	}
}

// New builds a Guard over store. Zero Config fields fall back to defaults.
func New(store session.Store, cfg Config, opts ...Option) *Guard {
	cfg.applyDefaults()

	g := &Guard{
		cfg:     cfg,
		store:   store,
		log:     zerolog.Nop(),
		metrics: newMetrics(),
		tokens:  csrf.New(csrf.WithFingerprintBinding(cfg.BindFingerprint)),
	}

	trackerOpts := []legitimacy.Option{
		legitimacy.WithCookieName(cfg.LegitimacyCookie),
		legitimacy.WithMaxAge(cfg.LegitimacyMaxAge),
	}
	if cfg.WatchlistWindow > 0 {
		g.watchlist = legitimacy.NewWatchlist(cfg.WatchlistWindow, cfg.WatchlistThreshold)
		trackerOpts = append(trackerOpts, legitimacy.WithWatchlist(g.watchlist))
	}
	g.tracker = legitimacy.New(trackerOpts...)

	for _, opt := range opts {
		opt(g)
	}

	if g.registry != nil {
		if err := g.metrics.register(g.registry); err != nil {
			g.log.Warn().Err(err).Msg("failed to register session guard metrics")
		}
	}
	return g
}

// Close releases background resources.
func (g *Guard) Close() {
	if g.watchlist != nil {
		g.watchlist.Stop()
	}
}

// Config returns the effective configuration.
func (g *Guard) Config() Config { return g.cfg }

// Tokens returns the token manager.
func (g *Guard) Tokens() *csrf.Manager { return g.tokens }

// Tracker returns the legitimacy tracker.
func (g *Guard) Tracker() *legitimacy.Tracker { return g.tracker }

// Session returns the request-scoped session context for w and r.
// Nothing is read or written until Start is called.
func (g *Guard) Session(w http.ResponseWriter, r *http.Request) *Session {
	var fpOpts []fingerprint.Option
	if g.cfg.TrustProxyHeaders {
		fpOpts = append(fpOpts, fingerprint.WithTrustedProxyHeaders())
	}
	return &Session{
		g:      g,
		w:      w,
		r:      r,
		client: fingerprint.FromRequest(r, fpOpts...),
		secure: g.isSecure(r),
	}
}

func (g *Guard) isSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return g.cfg.TrustProxyHeaders && r.Header.Get("X-Forwarded-Proto") == "https"
}
