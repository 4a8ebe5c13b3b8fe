package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/crossauth/bridge/internal/bridge/service"
	"github.com/crossauth/bridge/pkg/httpx"
)

// AuthnMiddleware authenticates the Authorization header through the gate
// and injects the resolved identity into the request context. The scheme
// prefix is optional so store-native clients that send bare tokens keep
// working.
func AuthnMiddleware(gate *service.Gate) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearer := bearerToken(r)
			if bearer == "" {
				httpx.WriteError(w, http.StatusUnauthorized,
					"unauthenticated", "missing Authorization header")
				return
			}

			id, err := gate.Authenticate(r.Context(), bearer)
			if err != nil {
				writeDomainError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), httpx.CtxKeyIdentity, id)
			ctx = context.WithValue(ctx, httpx.CtxKeyIdentityKey, id.Key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken pulls the credential out of the Authorization header,
// accepting "Bearer x", "Token x" (the legacy system's scheme) or a bare
// value.
func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	for _, scheme := range []string{"Bearer ", "Token "} {
		if len(h) > len(scheme) && strings.EqualFold(h[:len(scheme)], scheme) {
			return strings.TrimSpace(h[len(scheme):])
		}
	}
	return h
}
