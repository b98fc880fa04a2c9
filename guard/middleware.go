package guard

import (
	"net/http"

	"github.com/JeanGrijp/go-sessionguard/csrf"
)

// Protect wraps next and enforces request token validation.
//
// Behavior:
//   - Every request: starts (or resumes) the session, disables caching and
//     stores the Session and its token in the request context.
//   - Safe methods (GET/HEAD/OPTIONS): call next.
//   - Unsafe methods (POST/PUT/PATCH/DELETE): optionally check the legitimacy
//     cookie (EnforceLegitimacy), then require the submitted token (header or
//     form field) to match the session token. Rejections are a generic 403.
//
// Params:
// - next: downstream handler executed once the checks pass.
//
// Returns:
// - An http.Handler performing the checks before delegating to next.
func (g *Guard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1) always start the session
		s := g.Session(w, r)
		if err := s.Start(); err != nil {
			g.log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to start session")
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}
		noCache(w.Header())

		r = r.WithContext(csrf.ContextWithToken(ContextWithSession(r.Context(), s), s.Token()))
		s.r = r

		// 2) for safe methods, just continue
		if !csrf.IsUnsafeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		// 3) legitimacy cookie (if enabled)
		if g.cfg.EnforceLegitimacy && !s.IsLegitimateRequest() {
			g.reject(w, r, "illegitimate")
			return
		}

		// 4) submitted token
		if !s.ValidateToken(g.tokens.ExtractToken(r)) {
			g.reject(w, r, "token")
			return
		}

		// 5) rotate after a successful state-changing request (if enabled)
		if g.cfg.RefreshOnSuccess {
			if err := s.RefreshToken(); err != nil {
				g.log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to refresh request token")
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}
			r = r.WithContext(csrf.ContextWithToken(r.Context(), s.Token()))
			s.r = r
		}

		next.ServeHTTP(w, r)
	})
}

// MarkLegitimate wraps next and sets the legitimacy cookie on safe requests
// of visitors that do not carry one yet. Place it on entry pages, inside
// Protect.
func (g *Guard) MarkLegitimate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if csrf.IsUnsafeMethod(r.Method) || g.tracker.HasCookie(r) {
			next.ServeHTTP(w, r)
			return
		}

		s, ok := FromContext(r.Context())
		if !ok {
			s = g.Session(w, r)
			if err := s.Start(); err != nil {
				g.log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to start session")
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}
		}
		if err := s.MarkAsLegitimateUser(); err != nil {
			g.log.Warn().Err(err).Str("path", r.URL.Path).Msg("failed to mark visitor")
		}
		next.ServeHTTP(w, r)
	})
}

// TokenHandler returns an HTTP handler that writes the current token.
// This is useful for SPAs to fetch the token and attach it to subsequent
// requests. It must run behind Protect.
func (g *Guard) TokenHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok, ok := csrf.TokenFromContext(r.Context()); ok {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Write([]byte(tok))
			return
		}
		http.Error(w, "no token", http.StatusInternalServerError)
	})
}

func (g *Guard) reject(w http.ResponseWriter, r *http.Request, reason string) {
	g.metrics.rejected.WithLabelValues(reason).Inc()
	g.log.Debug().
		Str("reason", reason).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request rejected")
	http.Error(w, "forbidden", http.StatusForbidden)
}

func noCache(h http.Header) {
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}
