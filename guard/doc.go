// Package guard protects the request/response cycle of a server-rendered
// application: it binds an anti-forgery token to a server-side session and
// tracks whether visitors first arrived from a same-origin page.
//
// # Lifecycle
//
//	s := g.Session(w, r)
//	s.Start()                  // resume or create session, issue token
//	s.IsValid()                // active session with a token
//	s.TokenField()             // <input type="hidden" name="request_token" ...>
//	s.ValidateToken(submitted) // constant-time check
//	s.RefreshToken()           // rotate after a state change
//	s.Destroy()                // drop data, expire cookies
//
// MarkAsLegitimateUser and IsLegitimateRequest may be called at any point
// once the session exists. The legitimacy signal only complements the token
// check.
//
// # Middleware
//
// Protect runs Start for every request and validates the token on unsafe
// methods:
//
//	store := session.NewMemoryStore(24 * time.Hour)
//	g := guard.New(store, guard.Config{EnforceLegitimacy: true},
//		guard.WithLogger(logger),
//		guard.WithMetrics(prometheus.DefaultRegisterer))
//	defer g.Close()
//	http.ListenAndServe(":8080", g.Protect(appMux))
//
// Handlers read the session back with FromContext, or the bare token with
// csrf.TokenFromContext.
//
// # Cookies
//
// The session cookie (default PHPSESSID) and the legitimacy cookie (default
// REFERER_INFO) are HttpOnly, Path=/, scoped to the request host,
// SameSite=Strict, and Secure when the request arrived over TLS (or over an
// https proxy when TrustProxyHeaders is set). Neither has a Max-Age unless
// configured.
package guard
