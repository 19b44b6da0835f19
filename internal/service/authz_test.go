package service

import (
	"errors"
	"testing"

	"lms-classroom/backend/internal/model"
	apperrors "lms-classroom/backend/pkg/errors"
)

func TestRequire(t *testing.T) {
	tests := []struct {
		name    string
		role    model.Role
		allowed model.RoleSet
		wantErr bool
	}{
		{"教师属于教学人员", model.RoleInstructor, model.StaffRoles, false},
		{"助教属于教学人员", model.RoleTA, model.StaffRoles, false},
		{"学生不属于教学人员", model.RoleStudent, model.StaffRoles, true},
		{"学生可提交", model.RoleStudent, model.SubmitterRoles, false},
		{"助教可提交", model.RoleTA, model.SubmitterRoles, false},
		{"教师不可提交", model.RoleInstructor, model.SubmitterRoles, true},
		{"未知角色一律拒绝", model.Role("admin"), model.AnyRole, true},
		{"空角色拒绝", model.Role(""), model.AnyRole, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := model.Identity{UserID: "u1", Role: tt.role}
			got, err := Require(id, tt.allowed)
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrForbidden) {
					t.Errorf("期望 Forbidden，实际: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("期望放行，实际: %v", err)
			}
			if got != id {
				t.Errorf("期望返回原身份，实际=%+v", got)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	if err := validateID("6f1c2b7e-0a8e-4a55-9d43-3c1f9a1f0d11"); err != nil {
		t.Errorf("合法 UUID 不应报错: %v", err)
	}
	for _, bad := range []string{"", "not-a-uuid", "64f0c0ffee"} {
		if err := validateID(bad); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("期望 %q 返回 InvalidInput，实际: %v", bad, err)
		}
	}
}
