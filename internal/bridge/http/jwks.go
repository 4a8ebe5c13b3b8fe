package http

import (
	"net/http"

	"github.com/crossauth/bridge/pkg/httpx"
	"github.com/crossauth/bridge/pkg/jwtx"
)

// JWKSHandler exposes the JSON Web Key Set used to verify unified tokens.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify bridge-minted tokens.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	jwtx.JWKS	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, keys.PublicJWKS())
	}
}
