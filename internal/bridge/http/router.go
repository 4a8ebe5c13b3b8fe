package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/crossauth/bridge/internal/bridge/service"
	"github.com/crossauth/bridge/pkg/httpx"
	"github.com/crossauth/bridge/pkg/jwtx"
	"github.com/crossauth/bridge/pkg/slogx"

	_ "github.com/crossauth/bridge/api/bridge" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	Stores     service.Stores
	Translator *service.Translator
	Gate       *service.Gate
}

func NewRouter(
	keys *jwtx.KeySet,
	buildVersion string,
	stores service.Stores,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		Stores:       stores,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerTranslate()
	r.registerIdentity()
	r.registerWellKnown()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Cross-Store Authentication Bridge API
//	@version		0.1.0
//	@description	Bridges two incompatible credential systems: an opaque-token store and a
//	@description	JWT-based store. Tokens from either side can be translated into the other's
//	@description	format, or into a bridge-minted unified token, without either system changing.
//	@description
//	@description				Unified tokens are signed with EdDSA and verifiable via the JWKS endpoint.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				A credential from either store or a unified token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerTranslate() {
	// POST /translate - strict rate limit by IP, it handles raw credentials
	h := &TranslateHandler{Translator: r.Translator}
	r.Mux.Handle("POST /v1/translate",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerIdentity() {
	// GET /whoami - authenticated, lenient limit per identity
	r.Mux.Handle("GET /v1/whoami",
		httpx.Chain(WhoamiHandler(),
			AuthnMiddleware(r.Gate),
			httpx.RateLimitByIdentity(httpx.LenientLimit),
		),
	)

	// POST /introspect - moderate limit by IP; resource servers poll this
	introspect := &IntrospectHandler{Gate: r.Gate}
	r.Mux.Handle("POST /v1/introspect",
		httpx.Chain(introspect,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerWellKnown() {
	// GET /jwks.json - public endpoint with high limit
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient limits, monitoring systems poll these
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.Stores, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
