package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lms-classroom/backend/config"
	"lms-classroom/backend/internal/api/handler"
	"lms-classroom/backend/internal/api/middleware"
	"lms-classroom/backend/internal/model"
	"lms-classroom/backend/pkg/jwt"
	"lms-classroom/backend/pkg/metrics"
	"lms-classroom/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb、db 均可为 nil：前者关闭吊销检查与限流，后者使健康检查只报告进程存活
// 限流只作用于需要认证的用户接口
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, m *metrics.Metrics, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	// 只认 TCP 对端地址，X-Forwarded-For 不参与受信网段判断与限流
	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Warn("设置受信代理失败", zap.Error(err))
	}

	// ── 全局中间件 ──
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", healthHandler(db, rdb))

	// ── 指标 ──
	if cfg.Metrics.Enabled && m != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 内部接口（无令牌，受信网段）
		// 不经过按客户端限流：全部同步来自同一网关地址，批量同步不能被拒绝
		v1.POST("/classrooms/sync", middleware.TrustedNetwork(cfg.Server.TrustedCIDRs, logger), h.Classroom.Sync)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.RateLimit(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window))
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		{
			// 课堂模块
			classrooms := authorized.Group("/classrooms")
			{
				classrooms.GET("/me", middleware.RoleAuth(model.AnyRole), h.Classroom.ListMine)
				classrooms.POST("/:id/modules", middleware.RoleAuth(model.StaffRoles), h.Classroom.AddModule)
				classrooms.POST("/:id/announcements", middleware.RoleAuth(model.StaffRoles), h.Classroom.AddAnnouncement)
				classrooms.GET("/:id/assignments", middleware.RoleAuth(model.AnyRole), h.Classroom.ListAssignments)
				classrooms.GET("/:id/calendar.ics", middleware.RoleAuth(model.AnyRole), h.Classroom.Calendar)
			}

			// 作业模块
			assignments := authorized.Group("/assignments")
			{
				assignments.POST("", middleware.RoleAuth(model.StaffRoles), h.Assignment.Create)
				assignments.POST("/submissions", middleware.RoleAuth(model.SubmitterRoles), h.Assignment.Submit)
				assignments.GET("/submissions/:id", middleware.RoleAuth(model.AnyRole), h.Assignment.GetSubmission) // 本人或教学人员（Service 层鉴权）
				assignments.POST("/submissions/:id/grade", middleware.RoleAuth(model.StaffRoles), h.Assignment.Grade)
				assignments.GET("/:id/submissions", middleware.RoleAuth(model.StaffRoles), h.Assignment.ListSubmissions)
				assignments.GET("/:id/grades/export", middleware.RoleAuth(model.StaffRoles), h.Export.ExportGradebook)
			}
		}
	}

	return r
}

func healthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := gin.H{"status": "ok"}

		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "unavailable"
				body["database"] = "down"
			} else {
				body["database"] = "up"
			}
		}

		switch {
		case rdb == nil:
			body["redis"] = "disabled"
		case rdb.Ping(ctx) != nil:
			body["redis"] = "down"
		default:
			body["redis"] = "up"
		}

		c.JSON(status, body)
	}
}
