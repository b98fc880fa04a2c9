package csrf

import "context"

type ctxKey string

const tokenKey ctxKey = "request_token_ctx"

// ContextWithToken returns a derived context that stores the given token.
//
// Params:
// - ctx: base context to attach the token to.
// - tok: token string to store.
//
// Returns:
// - a new context containing the token.
func ContextWithToken(ctx context.Context, tok string) context.Context {
	return context.WithValue(ctx, tokenKey, tok)
}

// TokenFromContext extracts the token from ctx, if present.
//
// Params:
// - ctx: context possibly containing the token.
//
// Returns:
// - token (string) and a boolean indicating presence.
func TokenFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(tokenKey)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
