package service

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"lms-classroom/backend/internal/model"
	"lms-classroom/backend/internal/repository"
	"lms-classroom/backend/pkg/metrics"
)

// ── iCalendar 订阅 ──────────────────────────────────────────
//
// 将课堂内带截止时间的作业导出为 RFC 5545 日历，供学生订阅。
// 每个作业对应一个 VEVENT，DTSTART=DTEND=截止时间，UID 固定为作业 ID，
// 客户端重复拉取时按 UID 去重。
// ─────────────────────────────────────────────────────────────

const calendarProductID = "-//lms-classroom//assignments//EN"

// CalendarService 课堂日历接口
type CalendarService interface {
	// ClassroomCalendar 返回 ics 文本与建议文件名，任一成员可访问
	ClassroomCalendar(ctx context.Context, identity model.Identity, classroomID string) (string, string, error)
}

type calendarService struct {
	repo    *repository.Repository
	members *membership
	logger  *zap.Logger
	now     func() time.Time
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) CalendarService {
	return &calendarService{
		repo:    repo,
		members: &membership{classrooms: repo.Classroom, metrics: m, logger: logger},
		logger:  logger,
		now:     time.Now,
	}
}

func (s *calendarService) ClassroomCalendar(ctx context.Context, identity model.Identity, classroomID string) (string, string, error) {
	if err := validateID(classroomID); err != nil {
		return "", "", err
	}
	if err := s.members.requireRole("calendar", identity, model.AnyRole); err != nil {
		return "", "", err
	}
	if err := s.members.require(ctx, "calendar", classroomID, identity.UserID, model.AllRelations); err != nil {
		return "", "", err
	}

	classroom, err := s.repo.Classroom.GetByID(ctx, classroomID)
	if err != nil {
		if isNotFound(err) {
			return "", "", ErrClassroomNotFound
		}
		s.logger.Error("查询课堂失败", zap.String("classroom_id", classroomID), zap.Error(err))
		return "", "", err
	}

	assignments, err := s.repo.Assignment.ListByClassroom(ctx, classroomID)
	if err != nil {
		s.logger.Error("查询作业列表失败", zap.String("classroom_id", classroomID), zap.Error(err))
		return "", "", err
	}

	cal := buildCalendar(classroom, assignments, s.now().UTC())
	filename := fmt.Sprintf("%s_%s.ics", classroom.CourseID, classroom.Semester)
	return cal.Serialize(), filename, nil
}

// buildCalendar 无截止时间的作业不生成事件
func buildCalendar(classroom *model.Classroom, assignments []model.Assignment, stamp time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName(fmt.Sprintf("%s %s", classroom.Name, classroom.Semester))

	for _, a := range assignments {
		if a.DueDate == nil {
			continue
		}
		due := a.DueDate.UTC()

		event := cal.AddEvent(a.AssignmentID + "@lms-classroom")
		event.SetDtStampTime(stamp)
		event.SetStartAt(due)
		event.SetEndAt(due)
		event.SetSummary(fmt.Sprintf("[%s] %s 截止", classroom.CourseID, a.Title))
		if a.Description != "" {
			event.SetDescription(a.Description)
		}
	}
	return cal
}
