package httpx

import "context"

type ctxKey string

const (
	// CtxKeyIdentityKey carries the authenticated identity's stable key.
	CtxKeyIdentityKey ctxKey = "identity_key"

	// CtxKeyIdentity carries the full normalized identity value when the
	// authentication middleware resolved one.
	CtxKeyIdentity ctxKey = "identity"
)

// IdentityKeyFromCtx returns the authenticated identity key, if any.
func IdentityKeyFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyIdentityKey).(string); ok {
		return v
	}
	return ""
}
