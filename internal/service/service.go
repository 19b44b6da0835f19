package service

import (
	"go.uber.org/zap"

	"lms-classroom/backend/internal/repository"
	"lms-classroom/backend/pkg/metrics"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Classroom  ClassroomService
	Assignment AssignmentService
	Export     ExportService
	Calendar   CalendarService
}

// NewService 创建 Service 聚合
func NewService(repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		Classroom:  NewClassroomService(repo, m, logger),
		Assignment: NewAssignmentService(repo, m, logger),
		Export:     NewExportService(repo, m, logger),
		Calendar:   NewCalendarService(repo, m, logger),
	}
}
