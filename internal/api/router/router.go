package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bonus-wheel/config"
	"bonus-wheel/internal/api/handler"
	"bonus-wheel/internal/api/middleware"
	"bonus-wheel/pkg/jwt"
)

// Pinger 健康检查依赖，由 *sql.DB 实现
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Setup 初始化并返回 Gin 路由引擎
// limiter / db 可为 nil：分别表示不限流、健康检查不探测数据库
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, limiter middleware.RateLimiter, db Pinger, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limit := middleware.RateLimit(limiter, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 转盘模块（可匿名，携带 Token 时记录归属）
		wheel := v1.Group("/wheel")
		wheel.Use(middleware.OptionalJWT(jwtMgr))
		if cfg.Server.WheelBody > 0 {
			wheel.Use(middleware.BodyLimit(cfg.Server.WheelBody))
		}
		{
			wheel.GET("/segments", h.Wheel.Segments)
			wheel.POST("/spin", limit, h.Wheel.Spin)
			wheel.POST("/redeem", limit, h.Wheel.Redeem)
			wheel.GET("/codes/:code", limit, h.Wheel.LookupCode)
		}

		// 管理端（奖品目录维护、台账导出）
		admin := v1.Group("/admin")
		admin.Use(middleware.JWTAuth(jwtMgr), middleware.RoleAuth("admin"))
		{
			admin.GET("/prizes", h.Prize.ListPrizes)
			admin.POST("/prizes", h.Prize.CreatePrize)
			admin.PUT("/prizes/:id", h.Prize.UpdatePrize)
			admin.GET("/issued-codes/export", h.Export.ExportIssuedCodes)
		}
	}

	return r
}
