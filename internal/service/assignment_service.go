package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lms-classroom/backend/internal/dto"
	"lms-classroom/backend/internal/model"
	"lms-classroom/backend/internal/repository"
	apperrors "lms-classroom/backend/pkg/errors"
	"lms-classroom/backend/pkg/metrics"
)

// ── 作业模块业务错误 ──

var (
	ErrAssignmentNotFound = fmt.Errorf("%w: 作业不存在", apperrors.ErrNotFound)
	ErrSubmissionNotFound = fmt.Errorf("%w: 提交记录不存在", apperrors.ErrNotFound)
	ErrInvalidDueDate     = fmt.Errorf("%w: 截止时间格式错误，应为 RFC3339", apperrors.ErrInvalidInput)
	ErrGradeExceedsMax    = fmt.Errorf("%w: 成绩超过作业满分", apperrors.ErrInvalidInput)
)

// AssignmentService 作业与提交业务接口
//
// 提交状态机（每个 作业×学生）：
//
//	无提交 → 已提交 → 已批改
//	已提交/已批改 → 已提交（重新提交覆盖 content，已有成绩保留至再次批改）
type AssignmentService interface {
	Create(ctx context.Context, identity model.Identity, req *dto.CreateAssignmentRequest) (*dto.AssignmentResponse, error)
	Submit(ctx context.Context, identity model.Identity, req *dto.SubmitAssignmentRequest) (*dto.SubmissionResponse, error)
	Grade(ctx context.Context, identity model.Identity, submissionID string, req *dto.GradeSubmissionRequest) (*dto.SubmissionResponse, error)
	// GetSubmission 提交者本人或课堂教学人员可查看
	GetSubmission(ctx context.Context, identity model.Identity, submissionID string) (*dto.SubmissionResponse, error)
	ListSubmissions(ctx context.Context, identity model.Identity, assignmentID string) ([]dto.SubmissionResponse, error)
}

type assignmentService struct {
	repo    *repository.Repository
	members *membership
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) AssignmentService {
	return &assignmentService{
		repo:    repo,
		members: &membership{classrooms: repo.Classroom, metrics: m, logger: logger},
		metrics: m,
		logger:  logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *assignmentService) Create(ctx context.Context, identity model.Identity, req *dto.CreateAssignmentRequest) (*dto.AssignmentResponse, error) {
	if err := validateID(req.ClassroomID); err != nil {
		return nil, err
	}
	if err := s.members.requireRole("create_assignment", identity, model.StaffRoles); err != nil {
		return nil, err
	}

	var dueDate *time.Time
	if req.DueDate != "" {
		t, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			return nil, ErrInvalidDueDate
		}
		t = t.UTC()
		dueDate = &t
	}

	if err := s.members.require(ctx, "create_assignment", req.ClassroomID, identity.UserID, model.StaffRelations); err != nil {
		return nil, err
	}

	assignment := &model.Assignment{
		ClassroomID: req.ClassroomID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		MaxScore:    req.MaxScore,
		CreatedBy:   identity.UserID,
	}
	if err := s.repo.Assignment.Create(ctx, assignment); err != nil {
		s.logger.Error("创建作业失败", zap.String("classroom_id", req.ClassroomID), zap.Error(err))
		return nil, err
	}

	resp := toAssignmentResponse(assignment)
	return &resp, nil
}

// ────────────────────── Submit ──────────────────────

func (s *assignmentService) Submit(ctx context.Context, identity model.Identity, req *dto.SubmitAssignmentRequest) (*dto.SubmissionResponse, error) {
	if err := validateID(req.AssignmentID); err != nil {
		return nil, err
	}
	if err := s.members.requireRole("submit", identity, model.SubmitterRoles); err != nil {
		return nil, err
	}

	// 先解析作业所属课堂：作业不存在时返回 NotFound，早于成员校验
	assignment, err := s.getAssignment(ctx, req.AssignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.members.require(ctx, "submit", assignment.ClassroomID, identity.UserID, model.SubmitterRelations); err != nil {
		return nil, err
	}

	sub := &model.Submission{
		AssignmentID: assignment.AssignmentID,
		StudentID:    identity.UserID,
		Content:      req.Content,
		SubmittedAt:  time.Now().UTC(),
	}
	if err := s.repo.Submission.Upsert(ctx, sub); err != nil {
		s.logger.Error("提交作业失败",
			zap.String("assignment_id", req.AssignmentID),
			zap.String("student_id", identity.UserID),
			zap.Error(err),
		)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.SubmissionsTotal.Inc()
	}

	resp := toSubmissionResponse(sub)
	return &resp, nil
}

// ────────────────────── Grade ──────────────────────

func (s *assignmentService) Grade(ctx context.Context, identity model.Identity, submissionID string, req *dto.GradeSubmissionRequest) (*dto.SubmissionResponse, error) {
	if err := validateID(submissionID); err != nil {
		return nil, err
	}
	if err := s.members.requireRole("grade", identity, model.StaffRoles); err != nil {
		return nil, err
	}

	// 提交 → 作业 → 课堂，任一环缺失即 NotFound
	sub, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	assignment, err := s.getAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.members.require(ctx, "grade", assignment.ClassroomID, identity.UserID, model.StaffRelations); err != nil {
		return nil, err
	}

	if req.Grade == nil {
		return nil, fmt.Errorf("%w: 缺少成绩", apperrors.ErrInvalidInput)
	}
	if assignment.MaxScore != nil && *req.Grade > *assignment.MaxScore {
		return nil, ErrGradeExceedsMax
	}

	graded, err := s.repo.Submission.UpdateGrade(ctx, submissionID, *req.Grade, identity.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSubmissionNotFound
		}
		s.logger.Error("批改作业失败", zap.String("submission_id", submissionID), zap.Error(err))
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.GradesTotal.Inc()
	}

	resp := toSubmissionResponse(graded)
	return &resp, nil
}

// ────────────────────── GetSubmission ──────────────────────

func (s *assignmentService) GetSubmission(ctx context.Context, identity model.Identity, submissionID string) (*dto.SubmissionResponse, error) {
	if err := validateID(submissionID); err != nil {
		return nil, err
	}
	if err := s.members.requireRole("get_submission", identity, model.AnyRole); err != nil {
		return nil, err
	}

	sub, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	if sub.StudentID != identity.UserID {
		assignment, err := s.getAssignment(ctx, sub.AssignmentID)
		if err != nil {
			return nil, err
		}
		if err := s.members.require(ctx, "get_submission", assignment.ClassroomID, identity.UserID, model.StaffRelations); err != nil {
			return nil, err
		}
	}

	resp := toSubmissionResponse(sub)
	return &resp, nil
}

// ────────────────────── ListSubmissions ──────────────────────

func (s *assignmentService) ListSubmissions(ctx context.Context, identity model.Identity, assignmentID string) ([]dto.SubmissionResponse, error) {
	if err := validateID(assignmentID); err != nil {
		return nil, err
	}
	if err := s.members.requireRole("list_submissions", identity, model.StaffRoles); err != nil {
		return nil, err
	}

	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.members.require(ctx, "list_submissions", assignment.ClassroomID, identity.UserID, model.StaffRelations); err != nil {
		return nil, err
	}

	subs, err := s.repo.Submission.ListByAssignment(ctx, assignmentID)
	if err != nil {
		s.logger.Error("查询提交列表失败", zap.String("assignment_id", assignmentID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.SubmissionResponse, 0, len(subs))
	for i := range subs {
		result = append(result, toSubmissionResponse(&subs[i]))
	}
	return result, nil
}

// ── 辅助函数 ──

func (s *assignmentService) getAssignment(ctx context.Context, id string) (*model.Assignment, error) {
	assignment, err := s.repo.Assignment.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询作业失败", zap.String("assignment_id", id), zap.Error(err))
		return nil, err
	}
	return assignment, nil
}

func (s *assignmentService) getSubmission(ctx context.Context, id string) (*model.Submission, error) {
	sub, err := s.repo.Submission.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSubmissionNotFound
		}
		s.logger.Error("查询提交记录失败", zap.String("submission_id", id), zap.Error(err))
		return nil, err
	}
	return sub, nil
}

func toAssignmentResponse(a *model.Assignment) dto.AssignmentResponse {
	resp := dto.AssignmentResponse{
		AssignmentID: a.AssignmentID,
		ClassroomID:  a.ClassroomID,
		Title:        a.Title,
		Description:  a.Description,
		MaxScore:     a.MaxScore,
		CreatedBy:    a.CreatedBy,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
	}
	if a.DueDate != nil {
		resp.DueDate = a.DueDate.Format(time.RFC3339)
	}
	return resp
}

func toSubmissionResponse(sub *model.Submission) dto.SubmissionResponse {
	resp := dto.SubmissionResponse{
		SubmissionID: sub.SubmissionID,
		AssignmentID: sub.AssignmentID,
		StudentID:    sub.StudentID,
		Content:      sub.Content,
		Grade:        sub.Grade,
		GradedBy:     sub.GradedBy,
		SubmittedAt:  sub.SubmittedAt.Format(time.RFC3339),
	}
	if sub.GradedAt != nil {
		resp.GradedAt = sub.GradedAt.Format(time.RFC3339)
	}
	return resp
}
