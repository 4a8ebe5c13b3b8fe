package http

import (
	"errors"
	"net/http"

	"github.com/crossauth/bridge/internal/bridge/domain"
	"github.com/crossauth/bridge/pkg/httpx"
)

// HealthResponse is the body returned by the health probe endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports per-dependency readiness.
type HealthChecks struct {
	LegacyStore string `json:"legacy_store"`
	PortalStore string `json:"portal_store"`
	Signer      string `json:"signer"`
}

// IdentityResponse is the wire shape of an authenticated identity.
type IdentityResponse struct {
	Key         string `json:"key"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role"`
	Active      bool   `json:"active"`
	SourceStore string `json:"source_store"`
}

func identityResponse(id domain.Identity) IdentityResponse {
	return IdentityResponse{
		Key:         id.Key,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		Role:        string(id.Role),
		Active:      id.Active,
		SourceStore: string(id.SourceStore),
	}
}

// writeDomainError maps bridge sentinel errors onto HTTP status codes with
// the error/error_description body shape. Anything unmapped is a 500 with
// no internals leaked.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		httpx.WriteError(w, http.StatusUnauthorized,
			"invalid_token", "the supplied token was not recognized by its origin store")
	case errors.Is(err, domain.ErrUnauthenticated):
		httpx.WriteError(w, http.StatusUnauthorized,
			"unauthenticated", "no configured store recognized the credential")
	case errors.Is(err, domain.ErrInactive):
		httpx.WriteError(w, http.StatusForbidden,
			"inactive_identity", "the identity exists but has been deactivated")
	case errors.Is(err, domain.ErrIdentityConflict):
		httpx.WriteError(w, http.StatusConflict,
			"identity_conflict", "the identity key is already bound to a different account in the target store")
	case errors.Is(err, domain.ErrUnknownStore):
		httpx.WriteError(w, http.StatusBadRequest,
			"unknown_store", "store must be one of: legacy, portal, unified")
	default:
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "internal error")
	}
}
