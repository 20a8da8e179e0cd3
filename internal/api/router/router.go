package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bornfit/backend/config"
	"bornfit/backend/internal/api/handler"
	"bornfit/backend/internal/api/middleware"
	"bornfit/backend/pkg/jwt"
	"bornfit/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(8 << 20)) // 8MB，兼顾 ICS 文件上传

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	{
		// 周期规则模块
		patterns := v1.Group("/patterns")
		{
			patterns.GET("", h.Pattern.ListPatterns)
			patterns.GET("/:id", h.Pattern.GetPattern)
			patterns.POST("", middleware.RoleAuth("admin", "front_desk"), h.Pattern.CreatePattern)
			patterns.PUT("/:id", middleware.RoleAuth("admin", "front_desk"), h.Pattern.UpdatePattern)
			patterns.DELETE("/:id", middleware.RoleAuth("admin"), h.Pattern.DeletePattern)
			patterns.POST("/:id/expand", middleware.RoleAuth("admin", "front_desk"), h.Pattern.ExpandPattern)
		}

		// 课程实例模块
		sessions := v1.Group("/sessions")
		{
			sessions.GET("/:id", h.Session.GetSession)
			sessions.GET("/:id/occupancy", h.Session.ClassifySession)
			sessions.POST("", middleware.RoleAuth("admin", "front_desk"), h.Session.CreateSession)
			sessions.PUT("/:id", middleware.RoleAuth("admin", "front_desk"), h.Session.UpdateSession)
			sessions.DELETE("/:id", middleware.RoleAuth("admin", "front_desk"), h.Session.DeleteSession)

			// 预约与签到挂在实例下
			sessions.GET("/:id/bookings", middleware.RoleAuth("admin", "front_desk", "coach"), h.Booking.ListBookings)
			sessions.POST("/:id/bookings", middleware.RateLimit(rdb, 30, time.Minute), h.Booking.Book)
			sessions.POST("/:id/checkin", middleware.RoleAuth("admin", "front_desk"), h.Booking.CheckIn)
		}

		// 预约模块
		v1.DELETE("/bookings/:id", h.Booking.CancelBooking)

		// 聚合日历模块
		calendar := v1.Group("/calendar")
		{
			calendar.GET("", h.Calendar.GetCalendar)
			calendar.DELETE("/entries/:source_type/:source_id", middleware.RoleAuth("admin", "front_desk"), h.Calendar.DeleteEntry)
		}

		// 手动占用时段模块
		blocks := v1.Group("/manual-blocks")
		{
			blocks.POST("", h.ManualBlock.CreateBlock)
			blocks.POST("/import", h.ManualBlock.ImportBlocks)
		}
	}

	return r
}
