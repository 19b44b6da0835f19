package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lms-classroom/backend/internal/model"
)

// SubmissionRepository 作业提交数据访问接口
type SubmissionRepository interface {
	// Upsert 按 (assignment_id, student_id) 原子写入，冲突时只覆盖 content 与提交时间，
	// 成绩字段保持不变；返回后 sub 为库中完整记录
	Upsert(ctx context.Context, sub *model.Submission) error
	GetByID(ctx context.Context, id string) (*model.Submission, error)
	// UpdateGrade 单条 UPDATE ... RETURNING 写入成绩，记录不存在返回 gorm.ErrRecordNotFound
	UpdateGrade(ctx context.Context, id string, grade float64, gradedBy string) (*model.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]model.Submission, error)
}

type submissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo 创建 SubmissionRepository 实例
func NewSubmissionRepo(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

var resubmitColumns = []string{"content", "submitted_at", "updated_at"}

func (r *submissionRepo) Upsert(ctx context.Context, sub *model.Submission) error {
	return r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns:   []clause.Column{{Name: "assignment_id"}, {Name: "student_id"}},
				DoUpdates: clause.AssignmentColumns(resubmitColumns),
			},
			clause.Returning{},
		).
		Create(sub).Error
}

func (r *submissionRepo) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	var sub model.Submission
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", id).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *submissionRepo) UpdateGrade(ctx context.Context, id string, grade float64, gradedBy string) (*model.Submission, error) {
	var sub model.Submission
	res := r.db.WithContext(ctx).
		Model(&sub).
		Clauses(clause.Returning{}).
		Where("submission_id = ?", id).
		Updates(map[string]interface{}{
			"grade":     grade,
			"graded_by": gradedBy,
			"graded_at": gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &sub, nil
}

func (r *submissionRepo) ListByAssignment(ctx context.Context, assignmentID string) ([]model.Submission, error) {
	var subs []model.Submission
	err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("student_id ASC").
		Find(&subs).Error
	return subs, err
}
