// Package csrf manages per-session anti-forgery request tokens.
//
// # Tokens
//
// A token is 96 characters over [A-Za-z0-9_]: 32 hex characters of random
// bytes followed by the SHA-256 hex digest of the current time and the client
// fingerprint, with a random case flip and underscore substitution applied.
// All randomness comes from crypto/rand.
//
// # Lifecycle
//
//   - Issue: store a token if the session has none (idempotent).
//   - Refresh: replace the token, e.g. after a state-changing action.
//   - Validate: constant-time comparison against the stored token.
//   - RenderField: hidden input named "request_token" for HTML forms.
//
// Typical usage
//
//	m := csrf.New()
//	tok, err := m.Issue(ctx, handle, fp)
//	// render m.RenderField(tok) inside the form
//	if !m.Validate(ctx, handle, m.ExtractToken(r), fp) {
//	    http.Error(w, "forbidden", http.StatusForbidden)
//	    return
//	}
//
// With WithFingerprintBinding(true) the fingerprint recorded at generation
// must also match on validation. This breaks clients whose address or port
// changes between page load and submit, so it is off by default.
package csrf
