package handler

import "lms-classroom/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Classroom  *ClassroomHandler
	Assignment *AssignmentHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Classroom:  NewClassroomHandler(svc.Classroom, svc.Calendar),
		Assignment: NewAssignmentHandler(svc.Assignment),
		Export:     NewExportHandler(svc.Export),
	}
}
