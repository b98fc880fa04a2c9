package guard

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/JeanGrijp/go-sessionguard/fingerprint"
	"github.com/JeanGrijp/go-sessionguard/legitimacy"
	"github.com/JeanGrijp/go-sessionguard/session"
)

// ErrNotStarted is returned by operations that need Start to have succeeded.
var ErrNotStarted = errors.New("session not started")

const expiredAge = 365 * 24 * time.Hour

// Session is the explicit per-request context: the session handle plus the
// transport attributes of one request. It is not safe for concurrent use.
type Session struct {
	g      *Guard
	w      http.ResponseWriter
	r      *http.Request
	client fingerprint.Client
	secure bool

	handle *session.Handle
	active bool
	token  string
}

// ID returns the session id, empty before Start.
func (s *Session) ID() string {
	if s.handle == nil {
		return ""
	}
	return s.handle.ID()
}

// Secure reports whether the request arrived over a secure channel.
func (s *Session) Secure() bool { return s.secure }

// Fingerprint returns the client fingerprint of the request.
func (s *Session) Fingerprint() string { return s.client.Fingerprint() }

// Start resumes the session named by the request cookie or creates a new
// one, then issues a request token if the session has none. Unknown or
// malformed session ids are never adopted.
func (s *Session) Start() error {
	if s.active {
		return nil
	}
	ctx := s.r.Context()
	g := s.g

	id := ""
	if c, err := s.r.Cookie(g.cfg.SessionName); err == nil && session.ValidID(c.Value) {
		active, err := session.NewHandle(g.store, c.Value).Active(ctx)
		if err != nil {
			return fmt.Errorf("failed to look up session: %w", err)
		}
		if active {
			id = c.Value
		}
	}

	state := "resumed"
	if id == "" {
		id, state = session.NewID(), "new"
	}

	h := session.NewHandle(g.store, id)
	if err := h.Activate(ctx); err != nil {
		return fmt.Errorf("failed to activate session: %w", err)
	}
	if state == "new" {
		http.SetCookie(s.w, s.sessionCookie(id))
	}

	tok, err := g.tokens.Issue(ctx, h, s.client.Fingerprint())
	if err != nil {
		return err
	}

	s.handle, s.active, s.token = h, true, tok
	g.metrics.sessionsStarted.WithLabelValues(state).Inc()
	g.log.Debug().
		Str("session_id", shortID(id)).
		Str("state", state).
		Msg("session started")
	return nil
}

// IsValid reports whether the session is active and holds a non-empty token.
func (s *Session) IsValid() bool {
	if !s.active {
		return false
	}
	tok, ok, err := s.handle.Get(s.r.Context(), session.KeyRequestToken)
	if err != nil {
		s.g.log.Error().Err(err).Str("session_id", shortID(s.ID())).Msg("failed to read request token")
		return false
	}
	return ok && tok != ""
}

// Token returns the current request token, empty before Start.
func (s *Session) Token() string { return s.token }

// TokenField returns the hidden input carrying the current token.
func (s *Session) TokenField() template.HTML {
	return s.g.tokens.RenderField(s.token)
}

// PrintTokenField writes the hidden input to w.
func (s *Session) PrintTokenField(w io.Writer) error {
	if !s.active {
		return ErrNotStarted
	}
	_, err := io.WriteString(w, string(s.TokenField()))
	return err
}

// ValidateToken reports whether submitted equals the stored token. A false
// result means the request must be rejected.
func (s *Session) ValidateToken(submitted string) bool {
	if !s.active {
		s.g.metrics.tokenValidations.WithLabelValues("not_started").Inc()
		return false
	}

	err := s.g.tokens.Check(s.r.Context(), s.handle, submitted, s.client.Fingerprint())
	if err != nil {
		s.g.metrics.tokenValidations.WithLabelValues("rejected").Inc()
		s.g.log.Debug().
			Err(err).
			Str("session_id", shortID(s.ID())).
			Msg("request token rejected")
		return false
	}
	s.g.metrics.tokenValidations.WithLabelValues("accepted").Inc()
	return true
}

// RefreshToken replaces the stored token, invalidating the previous one.
func (s *Session) RefreshToken() error {
	if !s.active {
		return ErrNotStarted
	}
	tok, err := s.g.tokens.Refresh(s.r.Context(), s.handle, s.client.Fingerprint())
	if err != nil {
		return err
	}
	s.token = tok
	return nil
}

// Destroy clears the session data, expires the session and legitimacy
// cookies and deactivates the session. It is a no-op on an inactive session.
func (s *Session) Destroy() error {
	if !s.active {
		return nil
	}
	if err := s.handle.Destroy(s.r.Context()); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}

	c := s.sessionCookie("")
	c.MaxAge = -1
	c.Expires = time.Now().Add(-expiredAge)
	http.SetCookie(s.w, c)
	s.g.tracker.Clear(s.w, s.r.Host, s.secure)

	s.g.log.Debug().Str("session_id", shortID(s.ID())).Msg("session destroyed")
	s.active, s.token = false, ""
	return nil
}

// MarkAsLegitimateUser sets the legitimacy cookie recording the Referer of
// this request.
func (s *Session) MarkAsLegitimateUser() error {
	if !s.active {
		return ErrNotStarted
	}
	return s.g.tracker.MarkRequest(s.w, s.r, s.secure)
}

// IsLegitimateRequest checks the legitimacy cookie against the request host.
// Clients trusted only because they never sent a Referer are counted on the
// watchlist when one is configured.
func (s *Session) IsLegitimateRequest() bool {
	verdict := s.g.tracker.InspectRequest(s.r)
	s.g.metrics.legitimacyChecks.WithLabelValues(verdict.String()).Inc()

	if verdict == legitimacy.VerdictNoReferer && s.g.watchlist != nil {
		if n, suspicious := s.g.watchlist.Observe(s.client.Fingerprint()); suspicious {
			s.g.log.Warn().
				Str("session_id", shortID(s.ID())).
				Int("hits", n).
				Str("path", s.r.URL.Path).
				Msg("client repeatedly trusted without referer")
		}
	}
	return verdict.Legitimate()
}

func (s *Session) sessionCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     s.g.cfg.SessionName,
		Value:    value,
		Path:     "/",
		Domain:   legitimacy.Hostname(s.r.Host),
		MaxAge:   s.g.cfg.SessionMaxAge,
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// shortID keeps session ids out of logs in full.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
