package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"lms-classroom/backend/internal/dto"
	"lms-classroom/backend/internal/service"
	"lms-classroom/backend/pkg/response"
)

// ClassroomHandler 课堂模块 HTTP 处理器
type ClassroomHandler struct {
	classroomSvc service.ClassroomService
	calendarSvc  service.CalendarService
}

// NewClassroomHandler 创建 ClassroomHandler
func NewClassroomHandler(classroomSvc service.ClassroomService, calendarSvc service.CalendarService) *ClassroomHandler {
	return &ClassroomHandler{classroomSvc: classroomSvc, calendarSvc: calendarSvc}
}

// ListMine 我参与的课堂
// GET /api/v1/classrooms/me
func (h *ClassroomHandler) ListMine(c *gin.Context) {
	identity, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, err := h.classroomSvc.ListMine(c.Request.Context(), identity)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, dto.NewListResponse(list))
}

// Sync 选课名单同步（内部接口）
// POST /api/v1/classrooms/sync
func (h *ClassroomHandler) Sync(c *gin.Context) {
	var req dto.SyncClassroomRequest
	if !bindJSON(c, &req) {
		return
	}

	ack, err := h.classroomSvc.Sync(c.Request.Context(), &req, service.SyncSourceAPI)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, ack)
}

// AddModule 添加课程模块
// POST /api/v1/classrooms/:id/modules
func (h *ClassroomHandler) AddModule(c *gin.Context) {
	identity, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.AddModuleRequest
	if !bindJSON(c, &req) {
		return
	}

	module, err := h.classroomSvc.AddModule(c.Request.Context(), identity, c.Param("id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, module)
}

// AddAnnouncement 发布公告
// POST /api/v1/classrooms/:id/announcements
func (h *ClassroomHandler) AddAnnouncement(c *gin.Context) {
	identity, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.AddAnnouncementRequest
	if !bindJSON(c, &req) {
		return
	}

	announcement, err := h.classroomSvc.AddAnnouncement(c.Request.Context(), identity, c.Param("id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, announcement)
}

// ListAssignments 课堂作业列表
// GET /api/v1/classrooms/:id/assignments
func (h *ClassroomHandler) ListAssignments(c *gin.Context) {
	identity, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, err := h.classroomSvc.ListAssignments(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, dto.NewListResponse(list))
}

// Calendar 作业截止日历订阅
// GET /api/v1/classrooms/:id/calendar.ics
func (h *ClassroomHandler) Calendar(c *gin.Context) {
	identity, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	body, filename, err := h.calendarSvc.ClassroomCalendar(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", "inline; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}
