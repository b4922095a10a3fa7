package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/service"
	"github.com/aussiebroadwan/cliq/internal/invites/store"
	"github.com/aussiebroadwan/cliq/internal/invites/telemetry"
	"github.com/aussiebroadwan/cliq/pkg/httpx"
	"github.com/aussiebroadwan/cliq/pkg/jwtx"
	"github.com/aussiebroadwan/cliq/pkg/pendingcookie"
	"github.com/aussiebroadwan/cliq/pkg/slogx"

	_ "github.com/aussiebroadwan/cliq/api/invites" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	keys         Readier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	// BaseURL is the public origin used in invite links.
	BaseURL string
	Cookies *pendingcookie.Codec
	Metrics *telemetry.Metrics

	InviteService       *service.InviteService
	ApprovalService     *service.ApprovalService
	ProvisioningService *service.ProvisioningService
	AccountService      *service.AccountService
	VerificationService *service.VerificationService
	CliqService         *service.CliqService
	NextStepService     *service.NextStepService
}

func NewRouter(
	verifier jwtx.Verifier,
	keys Readier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// Use prepends mws to the global chain, so they run before request logging.
func (r *Router) Use(mws ...httpx.Middleware) {
	r.middlewares = append(append([]httpx.Middleware{}, mws...), r.middlewares...)
}

func (r *Router) ApplyRoutes() {
	r.registerInvites()
	r.registerApprovals()
	r.registerChildren()
	r.registerAccount()
	r.registerCliqs()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Cliq Invite Service API
//	@version		0.1.0
//	@description	Invites, parental approval and child account provisioning for cliqs.
//	@description
//	@description				Authenticated endpoints take an access token issued by the auth service.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/cliq
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
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerInvites() {
	invites := &InviteHandler{
		InviteService:  r.InviteService,
		AccountService: r.AccountService,
		BaseURL:        r.BaseURL,
	}
	redeem := &RedeemHandler{
		NextStepService: r.NextStepService,
		AccountService:  r.AccountService,
		Cookies:         r.Cookies,
	}
	next := &NextStepHandler{
		NextStepService: r.NextStepService,
		AccountService:  r.AccountService,
		Cookies:         r.Cookies,
	}

	// GET /invites/redeem/{token} - strict rate limit by IP (token guessing surface)
	r.Mux.Handle("GET /v1/invites/redeem/{token}",
		httpx.Chain(redeem,
			httpx.OptionalAuthnMiddleware(r.verifier),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// GET /invites/next - lenient, polled by the UI on every entry point
	r.Mux.Handle("GET /v1/invites/next",
		httpx.Chain(next,
			httpx.OptionalAuthnMiddleware(r.verifier),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("POST /v1/invites",
		httpx.Chain(http.HandlerFunc(invites.HandleCreate),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// POST /invites/accept - strict by user, short codes are guessable
	r.Mux.Handle("POST /v1/invites/accept",
		httpx.Chain(http.HandlerFunc(invites.HandleAccept),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/invites/{id}/cancel",
		httpx.Chain(http.HandlerFunc(invites.HandleCancel),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerApprovals() {
	h := &ApprovalHandler{
		ApprovalService: r.ApprovalService,
		AccountService:  r.AccountService,
	}

	// POST /approvals - children are usually signed out here; each call sends an email
	r.Mux.Handle("POST /v1/approvals",
		httpx.Chain(http.HandlerFunc(h.HandleRequest),
			httpx.OptionalAuthnMiddleware(r.verifier),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /v1/approvals/{token}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /v1/approvals/respond",
		httpx.Chain(http.HandlerFunc(h.HandleRespond),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/approvals/resend",
		httpx.Chain(http.HandlerFunc(h.HandleResend),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerChildren() {
	h := &ChildrenHandler{
		ProvisioningService: r.ProvisioningService,
		AccountService:      r.AccountService,
	}

	// POST /children - strict by user, invite codes are guessable
	r.Mux.Handle("POST /v1/children",
		httpx.Chain(h,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerAccount() {
	h := &AccountHandler{
		AccountService:      r.AccountService,
		VerificationService: r.VerificationService,
	}

	r.Mux.Handle("POST /v1/account/upgrade",
		httpx.Chain(http.HandlerFunc(h.HandleUpgrade),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// Verification codes are six digits; keep both halves strict.
	r.Mux.Handle("POST /v1/verification/start",
		httpx.Chain(http.HandlerFunc(h.HandleStartVerification),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/verification/confirm",
		httpx.Chain(http.HandlerFunc(h.HandleConfirmVerification),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerCliqs() {
	h := &CliqHandler{
		CliqService:    r.CliqService,
		AccountService: r.AccountService,
	}

	r.Mux.Handle("POST /v1/cliqs",
		httpx.Chain(h,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", r.Metrics.Handler())
}
