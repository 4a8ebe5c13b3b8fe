package http

import (
	"net/http"
	"strings"

	"github.com/crossauth/bridge/internal/bridge/service"
	"github.com/crossauth/bridge/pkg/httpx"
	"github.com/crossauth/bridge/pkg/slogx"
)

// IntrospectionResponse follows the RFC7662 shape. When the token is not
// recognized only "active" is returned.
type IntrospectionResponse struct {
	Active bool `json:"active"`

	// Present only when active=true.
	Username    string `json:"username,omitempty"`
	Sub         string `json:"sub,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	Role        string `json:"role,omitempty"`
	SourceStore string `json:"source_store,omitempty"`
}

// IntrospectHandler serves POST /v1/introspect. Unlike a plain JWT
// introspection endpoint it accepts tokens of all three formats and routes
// them through the gate, so opaque legacy keys introspect too.
type IntrospectHandler struct {
	Gate *service.Gate
}

// ServeHTTP godoc
//
//	@Summary		Token introspection endpoint
//	@Description	Introspects a credential of any supported format and reports whether
//	@Description	it is active, following the RFC 7662 response shape.
//	@Tags			Identity
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			token	formData	string					true	"The token to introspect"
//	@Success		200		{object}	IntrospectionResponse	"Introspection result"
//	@Failure		400		{object}	map[string]string		"error, error_description"
//	@Router			/v1/introspect [post].
func (h *IntrospectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "content type must be application/x-www-form-urlencoded")
		return
	}

	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "malformed form body")
		return
	}

	token := r.Form.Get("token")
	if token == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "token is required")
		return
	}

	id, err := h.Gate.Authenticate(ctx, token)
	if err != nil {
		// Inactive, invalid or unknown all collapse to active=false here;
		// introspection must not reveal why.
		log.Debug("introspection returned inactive", "error", err)
		writeInactiveResponse(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, IntrospectionResponse{
		Active:      true,
		Username:    id.Key,
		Sub:         id.Key,
		TokenType:   tokenType(id.SourceStore),
		Role:        string(id.Role),
		SourceStore: string(id.SourceStore),
	})
}

// writeInactiveResponse returns the minimal response for unrecognized
// tokens.
func writeInactiveResponse(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"active":false}`))
}
