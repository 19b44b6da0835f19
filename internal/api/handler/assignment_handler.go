package handler

import (
	"github.com/gin-gonic/gin"

	"lms-classroom/backend/internal/dto"
	"lms-classroom/backend/internal/service"
	"lms-classroom/backend/pkg/response"
)

// AssignmentHandler 作业模块 HTTP 处理器
type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignmentSvc service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc}
}

// Create 布置作业
// POST /api/v1/assignments
func (h *AssignmentHandler) Create(c *gin.Context) {
	identity, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.CreateAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}

	assignment, err := h.assignmentSvc.Create(c.Request.Context(), identity, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, assignment)
}

// Submit 提交或重新提交作业
// POST /api/v1/assignments/submissions
func (h *AssignmentHandler) Submit(c *gin.Context) {
	identity, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.SubmitAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}

	sub, err := h.assignmentSvc.Submit(c.Request.Context(), identity, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, sub)
}

// GetSubmission 查看提交
// GET /api/v1/assignments/submissions/:id
func (h *AssignmentHandler) GetSubmission(c *gin.Context) {
	identity, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	sub, err := h.assignmentSvc.GetSubmission(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, sub)
}

// Grade 批改
// POST /api/v1/assignments/submissions/:id/grade
func (h *AssignmentHandler) Grade(c *gin.Context) {
	identity, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.GradeSubmissionRequest
	if !bindJSON(c, &req) {
		return
	}

	sub, err := h.assignmentSvc.Grade(c.Request.Context(), identity, c.Param("id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, sub)
}

// ListSubmissions 作业的全部提交
// GET /api/v1/assignments/:id/submissions
func (h *AssignmentHandler) ListSubmissions(c *gin.Context) {
	identity, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, err := h.assignmentSvc.ListSubmissions(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, dto.NewListResponse(list))
}
