package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shinystaratnight/endless-backend-sub001/backend/config"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/api/handler"
	"github.com/shinystaratnight/endless-backend-sub001/backend/internal/api/middleware"
	"github.com/shinystaratnight/endless-backend-sub001/backend/pkg/jwt"
	"github.com/shinystaratnight/endless-backend-sub001/backend/pkg/redis"
)

// Setup builds the Gin engine. rdb may be nil, which disables rate limiting.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()

	// ── global middleware ──
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	staff := []string{jwt.RoleAdmin, jwt.RoleRecruiter}
	supervisors := []string{jwt.RoleAdmin, jwt.RoleRecruiter, jwt.RoleSupervisor}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(jwtMgr))
	authorized.Use(middleware.RateLimit(rdb, cfg.Server.RateLimit, cfg.Server.RateWindow))
	{
		// job offers
		offers := authorized.Group("/job-offers")
		{
			offers.POST("", middleware.RoleAuth(staff...), h.JobOffer.Create)
			offers.GET("/:id", h.JobOffer.Get)
			offers.POST("/:id/accept", middleware.RoleAuth(staff...), h.JobOffer.Accept)
			offers.POST("/:id/cancel", middleware.RoleAuth(staff...), h.JobOffer.Cancel)
			offers.POST("/:id/resend", middleware.RoleAuth(staff...), h.JobOffer.Resend)
			offers.POST("/:id/reply", h.JobOffer.Reply) // inbound message webhook or the candidate app
			offers.GET("/:id/quota", middleware.RoleAuth(staff...), h.JobOffer.Quota)
		}

		// timesheets
		sheets := authorized.Group("/timesheets")
		{
			sheets.GET("/:id", h.TimeSheet.Get)
			sheets.GET("/:id/history", h.TimeSheet.History)
			sheets.POST("/:id/attendance", h.TimeSheet.Attendance)
			sheets.POST("/:id/submit", h.TimeSheet.Submit)
			sheets.POST("/:id/modify", middleware.RoleAuth(supervisors...), h.TimeSheet.Modify)
			sheets.POST("/:id/approve", middleware.RoleAuth(supervisors...), h.TimeSheet.Approve)
			sheets.GET("/:id/pay-lines", middleware.RoleAuth(staff...), h.TimeSheet.PayLines)
		}

		authorized.POST("/pricing/calc", middleware.RoleAuth(staff...), h.Pricing.Calc)

		authorized.GET("/exports/pay-lines", middleware.RoleAuth(staff...), h.Export.ExportPayLines)

		authorized.GET("/candidates/:id/calendar.ics", h.Calendar.CandidateCalendar)
	}

	return r
}
