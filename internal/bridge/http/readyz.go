package http

import (
	"net/http"
	"time"

	"github.com/crossauth/bridge/internal/bridge/service"
	"github.com/crossauth/bridge/pkg/httpx"
	"github.com/crossauth/bridge/pkg/jwtx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Checks both credential stores and the signing keys; returns 503 when
//	@Description	any dependency is unavailable.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	HealthResponse	"service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	stores service.Stores,
	keys *jwtx.KeySet,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{
			LegacyStore: "ok",
			PortalStore: "ok",
			Signer:      "ok",
		}
		status := "ok"
		code := http.StatusOK

		if err := stores.Legacy.Ping(r.Context()); err != nil {
			checks.LegacyStore = "error: " + err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		if err := stores.Portal.Ping(r.Context()); err != nil {
			checks.PortalStore = "error: " + err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		if !keys.IsReady() {
			checks.Signer = "error: no keys loaded"
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
