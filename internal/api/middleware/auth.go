package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lms-classroom/backend/internal/model"
	"lms-classroom/backend/internal/service"
	"lms-classroom/backend/pkg/jwt"
	"lms-classroom/backend/pkg/redis"
	"lms-classroom/backend/pkg/response"
)

// 上下文键
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证令牌，sub 与 role 均须存在，role 须为已知角色
// rdb 为 nil 或 Redis 出错时跳过吊销检查（降级运行）
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		role, ok := model.ParseRole(claims.Role)
		if !ok {
			response.Unauthorized(c, 10002, "Token 角色无效")
			c.Abort()
			return
		}

		if rdb != nil {
			revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Warn("查询令牌吊销名单失败，跳过检查", zap.Error(err))
			} else if revoked {
				response.Unauthorized(c, 10002, "Token 已失效")
				c.Abort()
				return
			}
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextRole, role)

		c.Next()
	}
}

// RoleAuth 角色权限中间件
// 仅做粗粒度角色校验，课堂成员关系由 Service 层判断
func RoleAuth(allowed model.RoleSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ContextUserID)
		role, exists := c.Get(ContextRole)
		if !exists || userID == "" {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		r, _ := role.(model.Role)
		if _, err := service.Require(model.Identity{UserID: userID, Role: r}, allowed); err != nil {
			response.Forbidden(c, 10003, "无权限访问")
			c.Abort()
			return
		}

		c.Next()
	}
}
