package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lms-classroom/backend/internal/model"
	"lms-classroom/backend/internal/repository"
	apperrors "lms-classroom/backend/pkg/errors"
	"lms-classroom/backend/pkg/metrics"
)

// ── 鉴权业务错误 ──

var (
	ErrRoleNotAllowed     = fmt.Errorf("%w: 当前角色无权执行该操作", apperrors.ErrForbidden)
	ErrNotClassroomMember = fmt.Errorf("%w: 不是该课堂的成员", apperrors.ErrForbidden)
	ErrInvalidID          = fmt.Errorf("%w: 标识符格式错误", apperrors.ErrInvalidInput)
)

// Require 粗粒度角色校验：身份角色必须在允许集合内
// 角色为封闭枚举，未知取值一律拒绝
func Require(identity model.Identity, allowed model.RoleSet) (model.Identity, error) {
	switch identity.Role {
	case model.RoleStudent, model.RoleTA, model.RoleInstructor:
		if allowed.Contains(identity.Role) {
			return identity, nil
		}
		return model.Identity{}, ErrRoleNotAllowed
	default:
		return model.Identity{}, ErrRoleNotAllowed
	}
}

// validateID 校验路径或请求体中的 UUID
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// membership 课堂成员关系解析
// 课堂不存在与非成员对调用方不作区分，均返回 ErrNotClassroomMember
type membership struct {
	classrooms repository.ClassroomRepository
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// require 判断 userID 在课堂中持有任一给定关系，operation 用于拒绝计数
func (m *membership) require(ctx context.Context, operation, classroomID, userID string, relations []model.Relation) error {
	ok, err := m.classrooms.IsMember(ctx, classroomID, userID, relations)
	if err != nil {
		m.logger.Error("查询课堂成员关系失败",
			zap.String("classroom_id", classroomID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return err
	}
	if !ok {
		m.deny(operation)
		return ErrNotClassroomMember
	}
	return nil
}

// deny 记录一次鉴权拒绝
func (m *membership) deny(operation string) {
	if m.metrics != nil {
		m.metrics.AccessDeniedTotal.WithLabelValues(operation).Inc()
	}
}

// requireRole 角色校验并计数
func (m *membership) requireRole(operation string, identity model.Identity, allowed model.RoleSet) error {
	if _, err := Require(identity, allowed); err != nil {
		m.deny(operation)
		return err
	}
	return nil
}
