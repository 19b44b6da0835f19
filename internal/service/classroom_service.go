package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lms-classroom/backend/internal/dto"
	"lms-classroom/backend/internal/model"
	"lms-classroom/backend/internal/repository"
	apperrors "lms-classroom/backend/pkg/errors"
	"lms-classroom/backend/pkg/metrics"
)

// ── 课堂模块业务错误 ──

var (
	ErrClassroomNotFound = fmt.Errorf("%w: 课堂不存在", apperrors.ErrNotFound)
	ErrSyncInvalid       = fmt.Errorf("%w: 同步数据不完整", apperrors.ErrInvalidInput)
)

// 同步来源，用于指标标签
const (
	SyncSourceAPI    = "api"
	SyncSourcePuller = "puller"
)

// ClassroomService 课堂业务接口
type ClassroomService interface {
	// ListMine 列出调用方以任一身份参与的课堂
	ListMine(ctx context.Context, identity model.Identity) ([]dto.ClassroomResponse, error)
	// Sync 按 (course_id, semester) 幂等同步课堂名单，仅供受信任的内部调用方使用
	Sync(ctx context.Context, req *dto.SyncClassroomRequest, source string) (*dto.SyncClassroomResponse, error)
	AddModule(ctx context.Context, identity model.Identity, classroomID string, req *dto.AddModuleRequest) (*dto.ModuleResponse, error)
	AddAnnouncement(ctx context.Context, identity model.Identity, classroomID string, req *dto.AddAnnouncementRequest) (*dto.AnnouncementResponse, error)
	// ListAssignments 列出课堂内的作业，任一成员可见
	ListAssignments(ctx context.Context, identity model.Identity, classroomID string) ([]dto.AssignmentResponse, error)
}

type classroomService struct {
	repo    *repository.Repository
	members *membership
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewClassroomService 创建 ClassroomService 实例
func NewClassroomService(repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) ClassroomService {
	return &classroomService{
		repo:    repo,
		members: &membership{classrooms: repo.Classroom, metrics: m, logger: logger},
		metrics: m,
		logger:  logger,
	}
}

// ────────────────────── ListMine ──────────────────────

func (s *classroomService) ListMine(ctx context.Context, identity model.Identity) ([]dto.ClassroomResponse, error) {
	if err := s.members.requireRole("list_classrooms", identity, model.AnyRole); err != nil {
		return nil, err
	}

	classrooms, err := s.repo.Classroom.ListByMember(ctx, identity.UserID)
	if err != nil {
		s.logger.Error("查询课堂列表失败", zap.String("user_id", identity.UserID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ClassroomResponse, 0, len(classrooms))
	for i := range classrooms {
		result = append(result, toClassroomResponse(&classrooms[i], identity.UserID))
	}
	return result, nil
}

// ────────────────────── Sync ──────────────────────

func (s *classroomService) Sync(ctx context.Context, req *dto.SyncClassroomRequest, source string) (*dto.SyncClassroomResponse, error) {
	if strings.TrimSpace(req.CourseID) == "" || strings.TrimSpace(req.Semester) == "" || req.InstructorID == "" {
		s.countSync(source, "invalid")
		return nil, ErrSyncInvalid
	}

	classroom := &model.Classroom{
		CourseID:     req.CourseID,
		Semester:     req.Semester,
		Name:         req.Name,
		InstructorID: req.InstructorID,
		StudentIDs:   dedupe(req.StudentIDs),
	}
	if err := s.repo.Classroom.Upsert(ctx, classroom); err != nil {
		s.logger.Error("同步课堂失败",
			zap.String("course_id", req.CourseID),
			zap.String("semester", req.Semester),
			zap.Error(err),
		)
		s.countSync(source, "error")
		return nil, err
	}

	s.countSync(source, "success")
	s.logger.Info("课堂名单已同步",
		zap.String("classroom_id", classroom.ClassroomID),
		zap.String("course_id", req.CourseID),
		zap.String("semester", req.Semester),
		zap.Int("students", len(classroom.StudentIDs)),
		zap.String("source", source),
	)

	return &dto.SyncClassroomResponse{
		Message:     "Classroom synced",
		ClassroomID: classroom.ClassroomID,
	}, nil
}

func (s *classroomService) countSync(source, status string) {
	if s.metrics != nil {
		s.metrics.ClassroomSyncsTotal.WithLabelValues(source, status).Inc()
	}
}

// ────────────────────── AddModule ──────────────────────

func (s *classroomService) AddModule(ctx context.Context, identity model.Identity, classroomID string, req *dto.AddModuleRequest) (*dto.ModuleResponse, error) {
	if err := validateID(classroomID); err != nil {
		return nil, err
	}
	if err := s.members.requireRole("add_module", identity, model.StaffRoles); err != nil {
		return nil, err
	}

	module := model.Module{
		Title:       req.Title,
		Content:     req.Content,
		ResourceURL: req.ResourceURL,
		CreatedBy:   identity.UserID,
		CreatedAt:   time.Now().UTC(),
	}

	// 成员校验与追加在同一条 UPDATE 中完成，未写入即视为无权限
	ok, err := s.repo.Classroom.AppendModule(ctx, classroomID, identity.UserID, module)
	if err != nil {
		s.logger.Error("追加课程模块失败", zap.String("classroom_id", classroomID), zap.Error(err))
		return nil, err
	}
	if !ok {
		s.members.deny("add_module")
		return nil, ErrNotClassroomMember
	}

	return &dto.ModuleResponse{
		Title:       module.Title,
		Content:     module.Content,
		ResourceURL: module.ResourceURL,
		CreatedBy:   module.CreatedBy,
		CreatedAt:   module.CreatedAt.Format(time.RFC3339),
	}, nil
}

// ────────────────────── AddAnnouncement ──────────────────────

func (s *classroomService) AddAnnouncement(ctx context.Context, identity model.Identity, classroomID string, req *dto.AddAnnouncementRequest) (*dto.AnnouncementResponse, error) {
	if err := validateID(classroomID); err != nil {
		return nil, err
	}
	if err := s.members.requireRole("add_announcement", identity, model.StaffRoles); err != nil {
		return nil, err
	}

	ann := model.Announcement{
		Text:      req.Text,
		AuthorID:  identity.UserID,
		CreatedAt: time.Now().UTC(),
	}

	ok, err := s.repo.Classroom.AppendAnnouncement(ctx, classroomID, identity.UserID, ann)
	if err != nil {
		s.logger.Error("发布公告失败", zap.String("classroom_id", classroomID), zap.Error(err))
		return nil, err
	}
	if !ok {
		s.members.deny("add_announcement")
		return nil, ErrNotClassroomMember
	}

	return &dto.AnnouncementResponse{
		Text:      ann.Text,
		AuthorID:  ann.AuthorID,
		CreatedAt: ann.CreatedAt.Format(time.RFC3339),
	}, nil
}

// ────────────────────── ListAssignments ──────────────────────

func (s *classroomService) ListAssignments(ctx context.Context, identity model.Identity, classroomID string) ([]dto.AssignmentResponse, error) {
	if err := validateID(classroomID); err != nil {
		return nil, err
	}
	if err := s.members.requireRole("list_assignments", identity, model.AnyRole); err != nil {
		return nil, err
	}
	if err := s.members.require(ctx, "list_assignments", classroomID, identity.UserID, model.AllRelations); err != nil {
		return nil, err
	}

	assignments, err := s.repo.Assignment.ListByClassroom(ctx, classroomID)
	if err != nil {
		s.logger.Error("查询作业列表失败", zap.String("classroom_id", classroomID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.AssignmentResponse, 0, len(assignments))
	for i := range assignments {
		result = append(result, toAssignmentResponse(&assignments[i]))
	}
	return result, nil
}

// ── 辅助函数 ──

// relationOf 返回用户在课堂中的最高关系
func relationOf(c *model.Classroom, userID string) (model.Relation, bool) {
	for _, rel := range model.AllRelations {
		if c.HasRelation(userID, []model.Relation{rel}) {
			return rel, true
		}
	}
	return 0, false
}

func toClassroomResponse(c *model.Classroom, viewerID string) dto.ClassroomResponse {
	resp := dto.ClassroomResponse{
		ClassroomID:   c.ClassroomID,
		CourseID:      c.CourseID,
		Semester:      c.Semester,
		Name:          c.Name,
		InstructorID:  c.InstructorID,
		Modules:       make([]dto.ModuleResponse, 0, len(c.Modules)),
		Announcements: make([]dto.AnnouncementResponse, 0, len(c.Announcements)),
	}

	rel, _ := relationOf(c, viewerID)
	resp.MyRelation = rel.String()
	// 名单仅对教学人员可见
	if rel == model.RelationInstructor || rel == model.RelationTA {
		resp.TAIDs = append([]string{}, c.TAIDs...)
		resp.StudentIDs = append([]string{}, c.StudentIDs...)
	}

	for _, m := range c.Modules {
		resp.Modules = append(resp.Modules, dto.ModuleResponse{
			Title:       m.Title,
			Content:     m.Content,
			ResourceURL: m.ResourceURL,
			CreatedBy:   m.CreatedBy,
			CreatedAt:   m.CreatedAt.Format(time.RFC3339),
		})
	}
	for _, a := range c.Announcements {
		resp.Announcements = append(resp.Announcements, dto.AnnouncementResponse{
			Text:      a.Text,
			AuthorID:  a.AuthorID,
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}

// dedupe 去重并保持首次出现的顺序
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// isNotFound 判断存储层的记录不存在错误
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
