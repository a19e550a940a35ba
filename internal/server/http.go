// Package server assembles the HTTP router and the gRPC health listener.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	audithandler "direct-messaging/backend/internal/audit/handler"
	convhandler "direct-messaging/backend/internal/conversation/handler"
	healthhandler "direct-messaging/backend/internal/health/handler"
	identityhandler "direct-messaging/backend/internal/identity/handler"
	msghandler "direct-messaging/backend/internal/message/handler"
	"direct-messaging/backend/internal/policy/engine"
	"direct-messaging/backend/internal/server/middleware"
	userhandler "direct-messaging/backend/internal/user/handler"
)

// Fixed routes. Page paths (login, home, protected prefixes) come from config.
const (
	APIPrefix    = "/api/"
	LoginRoute   = "/api/login"
	LogoutRoute  = "/api/logout"
	HealthRoute  = "/healthz"
	MetricsRoute = "/metrics"
)

// RouteTable returns the gate's route table for the configured login page and protected page prefixes.
func RouteTable(loginPath string, protectedPrefixes []string) engine.RouteTable {
	return engine.RouteTable{
		PublicPaths:      []string{LoginRoute, LogoutRoute, HealthRoute, MetricsRoute},
		UnprotectedPaths: []string{loginPath},
		APIPrefixes:      []string{APIPrefix},
		PagePrefixes:     protectedPrefixes,
	}
}

// HTTPDeps holds everything the router needs. Handlers and gate dependencies are required.
type HTTPDeps struct {
	Auth       identityhandler.Authenticator
	Verifier   middleware.TokenVerifier
	Classifier middleware.RouteClassifier
	Gate       middleware.GateConfig

	Contacts   userhandler.ContactLister
	Resolver   convhandler.PairResolver
	Ledger     msghandler.Ledger
	Aggregator msghandler.UnreadSummarizer
	Health     healthhandler.ReadinessChecker
	// Activity serves /api/activity when set.
	Activity audithandler.Lister

	// Registry receives the HTTP metrics and backs /metrics. Nil uses a fresh registry.
	Registry *prometheus.Registry

	RequestTimeout time.Duration
	LoginRateRPS   float64
	LoginRateBurst int
	// TrustedProxies may set X-Forwarded-For; nil trusts none and uses the peer address.
	TrustedProxies []string
	// CORSOrigins enables CORS with credentials for the listed origins. Empty disables CORS.
	CORSOrigins []string
}

// NewHTTPHandler builds the gin router, wrapped with CORS (when configured) and otelhttp.
func NewHTTPHandler(deps HTTPDeps) (http.Handler, error) {
	if deps.Auth == nil || deps.Verifier == nil || deps.Classifier == nil {
		return nil, errors.New("server: auth, verifier and classifier are required")
	}
	if deps.Contacts == nil || deps.Resolver == nil || deps.Ledger == nil || deps.Aggregator == nil || deps.Health == nil {
		return nil, errors.New("server: handler dependencies are required")
	}
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics, err := middleware.NewHTTPMetrics(reg)
	if err != nil {
		return nil, err
	}
	if len(deps.Gate.APIPrefixes) == 0 {
		deps.Gate.APIPrefixes = []string{APIPrefix}
	}

	r := gin.New()
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, err
	}
	r.Use(
		gin.Recovery(),
		middleware.RequestContext(deps.RequestTimeout),
		middleware.RequestLogger(),
		metrics.Middleware(),
		middleware.Gate(deps.Classifier, deps.Verifier, deps.Gate),
	)

	identity := identityhandler.NewHandler(deps.Auth, deps.Verifier, deps.Gate.Cookie)
	contacts := userhandler.NewHandler(deps.Contacts)
	conversations := convhandler.NewHandler(deps.Resolver)
	messages := msghandler.NewHandler(deps.Ledger, deps.Aggregator)

	r.POST(LoginRoute, middleware.LoginRateLimit(deps.LoginRateRPS, deps.LoginRateBurst), identity.Login)
	r.POST(LogoutRoute, identity.Logout)
	r.GET(HealthRoute, healthhandler.Healthz(deps.Health))
	r.GET(MetricsRoute, gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.GET("/session", identity.Session)
	api.GET("/contacts", contacts.Contacts)
	api.POST("/conversation-resolve", conversations.Resolve)
	api.GET("/conversation-history/:id", messages.History)
	api.PATCH("/conversation-history", messages.MarkRead)
	api.POST("/message-append", messages.Append)
	api.GET("/unread-summary", messages.UnreadSummary)
	if deps.Activity != nil {
		api.GET("/activity", audithandler.NewHandler(deps.Activity).List)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	var h http.Handler = r
	if len(deps.CORSOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins:   deps.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", middleware.RequestIDHeader},
			AllowCredentials: true,
		}).Handler(h)
	}
	return otelhttp.NewHandler(h, "http.server"), nil
}
