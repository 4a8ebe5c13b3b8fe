package http

import (
	"net/http"

	"github.com/crossauth/bridge/internal/bridge/domain"
	"github.com/crossauth/bridge/pkg/httpx"
)

// WhoamiHandler serves GET /v1/whoami behind the authentication middleware.
//
//	@Summary		Resolve the calling identity
//	@Description	Returns the normalized identity behind the presented credential,
//	@Description	whichever store it came from.
//	@Tags			Identity
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	IdentityResponse	"The authenticated identity"
//	@Failure		401	{object}	map[string]string	"error, error_description"
//	@Failure		403	{object}	map[string]string	"error, error_description"
//	@Router			/v1/whoami [get].
func WhoamiHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := r.Context().Value(httpx.CtxKeyIdentity).(domain.Identity)
		if !ok {
			// The middleware should have rejected already; fail closed.
			httpx.WriteError(w, http.StatusUnauthorized,
				"unauthenticated", "no authenticated identity on request")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, identityResponse(id))
	}
}
