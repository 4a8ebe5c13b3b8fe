package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/crossauth/bridge/internal/bridge/domain"
	"github.com/crossauth/bridge/internal/bridge/service"
	"github.com/crossauth/bridge/pkg/httpx"
	"github.com/crossauth/bridge/pkg/slogx"
)

// TranslateRequest asks the bridge to exchange a token between stores.
type TranslateRequest struct {
	// Token is the credential to translate, in its origin store's format.
	Token string `json:"token"`

	// From names the store that issued Token (legacy, portal or unified).
	From string `json:"from"`

	// To names the target store whose format the caller wants.
	To string `json:"to"`
}

// TranslateResponse carries the freshly minted credential.
type TranslateResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	Store     string `json:"store"`
	Subject   string `json:"subject"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp,omitempty"`
}

// TranslateHandler serves POST /v1/translate.
type TranslateHandler struct {
	Translator *service.Translator
}

// ServeHTTP godoc
//
//	@Summary		Translate a token between credential stores
//	@Description	Validates a token against its origin store and mints an equivalent
//	@Description	credential in the target store's format. Translating into a store-backed
//	@Description	target mirrors the identity into that store on first use.
//	@Tags			Translate
//	@Accept			json
//	@Produce		json
//	@Param			request	body		TranslateRequest	true	"Token, origin store and target store"
//	@Success		200		{object}	TranslateResponse	"The minted credential"
//	@Failure		400		{object}	map[string]string	"error, error_description"
//	@Failure		401		{object}	map[string]string	"error, error_description"
//	@Failure		403		{object}	map[string]string	"error, error_description"
//	@Failure		409		{object}	map[string]string	"error, error_description"
//	@Router			/v1/translate [post].
func (h *TranslateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "request body must be valid JSON")
		return
	}

	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" || req.From == "" || req.To == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "token, from and to are required")
		return
	}

	from := domain.Store(req.From)
	to := domain.Store(req.To)
	if !from.Valid() || !to.Valid() {
		writeDomainError(w, domain.ErrUnknownStore)
		return
	}

	minted, err := h.Translator.Translate(ctx,
		domain.Token{Value: req.Token, Origin: from}, to)
	if err != nil {
		log.Debug("translation refused", "from", req.From, "to", req.To, "error", err)
		writeDomainError(w, err)
		return
	}

	resp := TranslateResponse{
		Token:     minted.Value,
		TokenType: tokenType(minted.Origin),
		Store:     string(minted.Origin),
		Subject:   minted.Subject,
		IssuedAt:  minted.IssuedAt.Unix(),
	}
	if !minted.ExpiresAt.IsZero() {
		resp.ExpiresAt = minted.ExpiresAt.Unix()
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// tokenType is the Authorization scheme the minted token should be sent
// with. Legacy clients use "Token", everything else is "Bearer".
func tokenType(origin domain.Store) string {
	if origin == domain.StoreLegacy {
		return "Token"
	}
	return "Bearer"
}
