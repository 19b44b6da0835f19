package repository

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lms-classroom/backend/internal/model"
)

// ClassroomRepository 课堂数据访问接口
type ClassroomRepository interface {
	// Upsert 按 (course_id, semester) 原子写入：新建时写全部字段，
	// 已存在时只覆盖 instructor_id、name、student_ids
	Upsert(ctx context.Context, classroom *model.Classroom) error
	GetByID(ctx context.Context, id string) (*model.Classroom, error)
	// IsMember 单条查询判断课堂存在且用户持有任一给定关系
	IsMember(ctx context.Context, classroomID, userID string, relations []model.Relation) (bool, error)
	ListByMember(ctx context.Context, userID string) ([]model.Classroom, error)
	// AppendModule 仅当 actorID 为课堂教学人员时追加，返回是否写入
	AppendModule(ctx context.Context, classroomID, actorID string, module model.Module) (bool, error)
	AppendAnnouncement(ctx context.Context, classroomID, actorID string, ann model.Announcement) (bool, error)
}

// classroomRepo ClassroomRepository 的 GORM 实现
type classroomRepo struct {
	db *gorm.DB
}

// NewClassroomRepo 创建 ClassroomRepository 实例
func NewClassroomRepo(db *gorm.DB) ClassroomRepository {
	return &classroomRepo{db: db}
}

// syncColumns 名单同步时允许覆盖的列；ta_ids / modules / announcements 只在插入时写入
var syncColumns = []string{"instructor_id", "name", "student_ids"}

// syncTouchUpdatedAt 仅当名单列实际变化时刷新 updated_at，相同内容的重复同步不改变任何列
// SET 右侧引用的 classrooms.* 均为更新前的旧值
var syncTouchUpdatedAt = clause.Assignment{
	Column: clause.Column{Name: "updated_at"},
	Value: gorm.Expr(`CASE WHEN (classrooms.instructor_id, classrooms.name, classrooms.student_ids)
		IS DISTINCT FROM (EXCLUDED.instructor_id, EXCLUDED.name, EXCLUDED.student_ids)
		THEN EXCLUDED.updated_at ELSE classrooms.updated_at END`),
}

func (r *classroomRepo) Upsert(ctx context.Context, classroom *model.Classroom) error {
	if classroom.TAIDs == nil {
		classroom.TAIDs = pq.StringArray{}
	}
	if classroom.StudentIDs == nil {
		classroom.StudentIDs = pq.StringArray{}
	}
	if classroom.Modules == nil {
		classroom.Modules = []model.Module{}
	}
	if classroom.Announcements == nil {
		classroom.Announcements = []model.Announcement{}
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}, {Name: "semester"}},
			DoUpdates: append(clause.AssignmentColumns(syncColumns), syncTouchUpdatedAt),
		}).
		Create(classroom).Error
}

func (r *classroomRepo) GetByID(ctx context.Context, id string) (*model.Classroom, error) {
	var classroom model.Classroom
	err := r.db.WithContext(ctx).
		Where("classroom_id = ?", id).
		First(&classroom).Error
	if err != nil {
		return nil, err
	}
	return &classroom, nil
}

func (r *classroomRepo) IsMember(ctx context.Context, classroomID, userID string, relations []model.Relation) (bool, error) {
	cond, args := relationCondition(userID, relations)
	if cond == "" {
		return false, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Classroom{}).
		Where("classroom_id = ?", classroomID).
		Where(cond, args...).
		Count(&count).Error
	return count > 0, err
}

func (r *classroomRepo) ListByMember(ctx context.Context, userID string) ([]model.Classroom, error) {
	cond, args := relationCondition(userID, model.AllRelations)

	var classrooms []model.Classroom
	err := r.db.WithContext(ctx).
		Where(cond, args...).
		Order("semester DESC, course_id ASC").
		Find(&classrooms).Error
	return classrooms, err
}

func (r *classroomRepo) AppendModule(ctx context.Context, classroomID, actorID string, module model.Module) (bool, error) {
	return r.appendJSON(ctx, classroomID, actorID, "modules", []model.Module{module})
}

func (r *classroomRepo) AppendAnnouncement(ctx context.Context, classroomID, actorID string, ann model.Announcement) (bool, error) {
	return r.appendJSON(ctx, classroomID, actorID, "announcements", []model.Announcement{ann})
}

// appendJSON 在同一条 UPDATE 中完成成员校验与 JSONB 数组追加
func (r *classroomRepo) appendJSON(ctx context.Context, classroomID, actorID, column string, item interface{}) (bool, error) {
	payload, err := json.Marshal(item)
	if err != nil {
		return false, err
	}

	cond, args := relationCondition(actorID, model.StaffRelations)
	res := r.db.WithContext(ctx).
		Model(&model.Classroom{}).
		Where("classroom_id = ?", classroomID).
		Where(cond, args...).
		Updates(map[string]interface{}{
			column: gorm.Expr(column+" || ?::jsonb", string(payload)),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// relationCondition 将关系集合展开为 OR 条件
func relationCondition(userID string, relations []model.Relation) (string, []interface{}) {
	parts := make([]string, 0, len(relations))
	args := make([]interface{}, 0, len(relations))
	for _, rel := range relations {
		switch rel {
		case model.RelationInstructor:
			parts = append(parts, "instructor_id = ?")
		case model.RelationTA:
			parts = append(parts, "? = ANY(ta_ids)")
		case model.RelationStudent:
			parts = append(parts, "? = ANY(student_ids)")
		default:
			continue
		}
		args = append(args, userID)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}
