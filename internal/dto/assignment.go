package dto

// ── 作业 DTO ──

// CreateAssignmentRequest 布置作业请求
type CreateAssignmentRequest struct {
	ClassroomID string   `json:"classroom_id" binding:"required,uuid"`
	Title       string   `json:"title"        binding:"required,notblank,max=255"`
	Description string   `json:"description"  binding:"omitempty,max=20000"`
	DueDate     string   `json:"due_date"     binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	MaxScore    *float64 `json:"max_score"    binding:"omitempty,gt=0,lte=100000"`
}

// AssignmentResponse 作业响应
type AssignmentResponse struct {
	AssignmentID string   `json:"assignment_id"`
	ClassroomID  string   `json:"classroom_id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	DueDate      string   `json:"due_date,omitempty"`
	MaxScore     *float64 `json:"max_score,omitempty"`
	CreatedBy    string   `json:"created_by"`
	CreatedAt    string   `json:"created_at"`
}

// ── 提交与批改 DTO ──

// SubmitAssignmentRequest 提交（或重新提交）作业请求
// content 允许为空字符串
type SubmitAssignmentRequest struct {
	AssignmentID string `json:"assignment_id" binding:"required,uuid"`
	Content      string `json:"content"       binding:"max=100000"`
}

// GradeSubmissionRequest 批改请求
type GradeSubmissionRequest struct {
	Grade *float64 `json:"grade" binding:"required,gte=0,lte=100000"`
}

// SubmissionResponse 提交记录响应
type SubmissionResponse struct {
	SubmissionID string   `json:"submission_id"`
	AssignmentID string   `json:"assignment_id"`
	StudentID    string   `json:"student_id"`
	Content      string   `json:"content"`
	Grade        *float64 `json:"grade"`
	GradedBy     *string  `json:"graded_by"`
	GradedAt     string   `json:"graded_at,omitempty"`
	SubmittedAt  string   `json:"submitted_at"`
}
