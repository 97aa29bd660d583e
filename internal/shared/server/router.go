package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"portal-web/cv/editor"
	"portal-web/internal/analytics"
	"portal-web/internal/content"
	"portal-web/internal/cvs"
	"portal-web/internal/membership"
	"portal-web/internal/ordering"
	"portal-web/internal/profile"
	"portal-web/internal/services/health"
	"portal-web/internal/session"
	"portal-web/internal/shared/config"
	"portal-web/internal/shared/metrics"
	"portal-web/internal/shared/server/middleware"
	"portal-web/internal/shared/server/respond"
)

// AdminRoles may use the back-office routes.
var AdminRoles = []string{"admin", "super_admin"}

// RouterDeps carries the handlers mounted by NewRouter.
type RouterDeps struct {
	Config            config.Config
	Sessions          middleware.SessionResolver
	SessionHandler    *session.Handler
	EditorHandler     *editor.Handler
	CVHandler         *cvs.Handler
	ContentHandler    *content.Handler
	OrderingHandler   *ordering.Handler
	MembershipHandler *membership.Handler
	ProfileHandler    *profile.Handler
	AnalyticsHandler  *analytics.Handler
	RateLimiter       *middleware.RateLimiter
	Health            *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(nil)
	}
	api.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})

	credentials := api.Group("", middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			middleware.LoginRateLimitGroup: {Rate: deps.Config.LoginRate, Burst: deps.Config.LoginBurst},
		},
		GroupFor: func(c *gin.Context) string {
			if strings.HasPrefix(c.FullPath(), "/api/v1/auth/") {
				return middleware.LoginRateLimitGroup
			}
			return ""
		},
		Limiter: deps.RateLimiter,
	}))
	if deps.SessionHandler != nil {
		deps.SessionHandler.RegisterRoutes(credentials)
	}
	if deps.ContentHandler != nil {
		deps.ContentHandler.RegisterRoutes(api)
	}
	if deps.AnalyticsHandler != nil {
		deps.AnalyticsHandler.RegisterRoutes(api)
	}

	authed := api.Group("", middleware.Auth(deps.Sessions, deps.Config.SessionCookie))
	if deps.SessionHandler != nil {
		deps.SessionHandler.RegisterAuthedRoutes(authed)
	}
	if deps.EditorHandler != nil {
		deps.EditorHandler.RegisterRoutes(authed)
	}
	if deps.CVHandler != nil {
		deps.CVHandler.RegisterRoutes(authed)
	}
	if deps.MembershipHandler != nil {
		deps.MembershipHandler.RegisterRoutes(authed)
	}
	if deps.ProfileHandler != nil {
		deps.ProfileHandler.RegisterRoutes(authed)
	}

	admin := authed.Group("/admin", middleware.RequireRole(AdminRoles...))
	if deps.ContentHandler != nil {
		deps.ContentHandler.RegisterAdminRoutes(admin)
	}
	if deps.OrderingHandler != nil {
		deps.OrderingHandler.RegisterRoutes(admin)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
