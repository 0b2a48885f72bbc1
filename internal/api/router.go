package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"staffsuite/internal/auth"
	"staffsuite/internal/httpmiddleware"
)

// RouterConfig holds the cross-cutting HTTP settings.
type RouterConfig struct {
	CORSOrigins     []string
	RateLimitPerMin int
	Policy          httpmiddleware.NetworkPolicy
}

// NewRouter wires every route onto a gin engine.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewLimiter(cfg.RateLimitPerMin).Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.Healthz)

	r.POST("/v1/auth/login", h.Login)
	r.POST("/v1/auth/logout", h.Logout)

	v1 := r.Group("/v1", auth.RequireSession(h.Credentials.Cookie.Name, h.Credentials.Cookie.Key, h.Issuer))
	v1.GET("/session", h.Session)

	gated := v1.Group("", httpmiddleware.RequireNetworkPolicy(cfg.Policy))
	{
		gated.GET("/attendance", h.ListAttendance)
		gated.POST("/attendance", h.Clock)
		gated.DELETE("/attendance", h.ClearAttendance)
		gated.DELETE("/attendance/records", h.DeleteAttendanceRecord)
		gated.GET("/attendance/dashboard", h.Dashboard)
		gated.POST("/attendance/face", h.FaceClock)

		gated.GET("/movements", h.ListMovements)
		gated.POST("/movements", h.LogMovement)
		gated.DELETE("/movements", h.ClearMovements)
		gated.DELETE("/movements/records", h.DeleteMovementRecord)

		gated.GET("/duty-reports", h.ListDuty)
		gated.POST("/duty-reports", h.SubmitDuty)
		gated.DELETE("/duty-reports", h.ClearDuty)
		gated.DELETE("/duty-reports/:id", h.DeleteDuty)

		gated.GET("/staff", h.ListStaff)
		gated.POST("/staff", h.RegisterStaff)
		gated.DELETE("/staff", h.ClearStaff)
		gated.DELETE("/staff/entries", h.DeleteStaff)
		gated.POST("/staff/captures", h.StartCapture)
		gated.POST("/staff/captures/:id/samples", h.AddSample)

		gated.POST("/uploads", h.Upload)
		gated.GET("/audit", h.ListAudit)
	}
	return r
}

// ListAudit returns recent destructive operations when the audit trail is
// backed by Postgres.
func (h *Handler) ListAudit(c *gin.Context) {
	if h.Audit == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit trail not configured"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.Audit.Recent(c.Request.Context(), c.Query("stream"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowOrigins = nil
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	}
	return c
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
