package csrf

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/JeanGrijp/go-sessionguard/session"
)

// Reasons a submitted token is rejected. Callers should not expose them to
// clients.
var (
	ErrNoToken             = errors.New("no request token in session")
	ErrEmptySubmission     = errors.New("no request token submitted")
	ErrMismatch            = errors.New("request token mismatch")
	ErrFingerprintMismatch = errors.New("request fingerprint mismatch")
)

// Storage is the slice of a session the manager reads and writes.
// *session.Handle implements it.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Manager issues, refreshes and validates per-session request tokens.
// Tokens carry no TTL of their own; they live as long as the session.
type Manager struct {
	now             func() time.Time
	rand            io.Reader
	bindFingerprint bool
	fieldName       string
	headerName      string
}

// New returns a Manager with crypto/rand, time.Now and the default field names.
func New(opts ...Option) *Manager {
	m := defaultManager()
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FieldName is the hidden input name used by RenderField.
func (m *Manager) FieldName() string { return m.fieldName }

// HeaderName is the request header consulted before the form field.
func (m *Manager) HeaderName() string { return m.headerName }

// BindsFingerprint reports whether validation also checks the client fingerprint.
func (m *Manager) BindsFingerprint() bool { return m.bindFingerprint }

// Issue stores a new token unless the session already has one, and returns
// the current token. Repeated calls leave an existing token untouched so
// several open tabs or forms keep working.
func (m *Manager) Issue(ctx context.Context, st Storage, fingerprint string) (string, error) {
	tok, ok, err := st.Get(ctx, session.KeyRequestToken)
	if err != nil {
		return "", fmt.Errorf("failed to read request token: %w", err)
	}
	if ok && tok != "" {
		return tok, nil
	}
	return m.Refresh(ctx, st, fingerprint)
}

// Refresh unconditionally replaces the stored token.
func (m *Manager) Refresh(ctx context.Context, st Storage, fingerprint string) (string, error) {
	tok, err := m.Generate(fingerprint)
	if err != nil {
		return "", err
	}
	if m.bindFingerprint {
		if err := st.Set(ctx, session.KeyRequestFingerprint, fingerprint); err != nil {
			return "", fmt.Errorf("failed to store request fingerprint: %w", err)
		}
	}
	if err := st.Set(ctx, session.KeyRequestToken, tok); err != nil {
		return "", fmt.Errorf("failed to store request token: %w", err)
	}
	return tok, nil
}

// Check compares submitted against the stored token in constant time and
// returns the reason for a rejection, or nil.
func (m *Manager) Check(ctx context.Context, st Storage, submitted, fingerprint string) error {
	if submitted == "" {
		return ErrEmptySubmission
	}

	stored, ok, err := st.Get(ctx, session.KeyRequestToken)
	if err != nil {
		return fmt.Errorf("failed to read request token: %w", err)
	}
	if !ok || stored == "" {
		return ErrNoToken
	}
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) != 1 {
		return ErrMismatch
	}

	if m.bindFingerprint {
		bound, ok, err := st.Get(ctx, session.KeyRequestFingerprint)
		if err != nil {
			return fmt.Errorf("failed to read request fingerprint: %w", err)
		}
		if !ok || subtle.ConstantTimeCompare([]byte(bound), []byte(fingerprint)) != 1 {
			return ErrFingerprintMismatch
		}
	}
	return nil
}

// Validate reports whether submitted matches the stored token. Any failure,
// including a storage error, is a rejection.
func (m *Manager) Validate(ctx context.Context, st Storage, submitted, fingerprint string) bool {
	return m.Check(ctx, st, submitted, fingerprint) == nil
}

// RenderField returns the hidden input embedding token.
func (m *Manager) RenderField(token string) template.HTML {
	return template.HTML(fmt.Sprintf(`<input type="hidden" name="%s" value="%s" required />`,
		html.EscapeString(m.fieldName), html.EscapeString(token)))
}

// ExtractToken returns the token submitted with r using the manager's header
// and field names.
func (m *Manager) ExtractToken(r *http.Request) string {
	return ExtractToken(r, m.headerName, m.fieldName)
}
