package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lms-classroom/backend/internal/api/middleware"
	"lms-classroom/backend/internal/model"
	apperrors "lms-classroom/backend/pkg/errors"
	"lms-classroom/backend/pkg/response"
	pkgvalidator "lms-classroom/backend/pkg/validator"
)

// MustGetIdentity 从 Gin 上下文中安全提取调用方身份。
// 如果 JWT 中间件未正确注入 user_id / role，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetIdentity(c *gin.Context) (model.Identity, bool) {
	userID := c.GetString(middleware.ContextUserID)
	v, exists := c.Get(middleware.ContextRole)
	role, ok := v.(model.Role)
	if !exists || !ok || userID == "" {
		response.Unauthorized(c, 10002, "未认证")
		return model.Identity{}, false
	}
	return model.Identity{UserID: userID, Role: role}, true
}

// bindJSON 绑定并校验请求体，失败时写入 400（超出大小限制时 413）
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10006, "invalid_input", "请求体过大")
			return false
		}
		response.BadRequest(c, 10001, pkgvalidator.Describe(err))
		return false
	}
	return true
}

// writeError 按错误分类写入响应
// 内部错误只返回通用提示，原始错误挂到上下文由日志中间件记录
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch apperrors.KindOf(err) {
	case apperrors.KindInvalidInput:
		response.BadRequest(c, 10001, err.Error())
	case apperrors.KindUnauthenticated:
		response.Unauthorized(c, 10002, err.Error())
	case apperrors.KindForbidden:
		response.Forbidden(c, 10003, err.Error())
	case apperrors.KindNotFound:
		response.NotFound(c, 10005, err.Error())
	default:
		response.InternalError(c)
	}
}
