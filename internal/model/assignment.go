package model

import "time"

// Assignment 作业表 — 对应 assignments
// 创建后不可修改
type Assignment struct {
	AssignmentID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	ClassroomID  string     `gorm:"type:uuid;not null;index"                       json:"classroom_id"`
	Title        string     `gorm:"type:varchar(255);not null"                     json:"title"`
	Description  string     `gorm:"type:text;not null;default:''"                  json:"description"`
	DueDate      *time.Time `gorm:"type:timestamptz"                               json:"due_date,omitempty"`
	MaxScore     *float64   `gorm:"type:numeric(8,2)"                              json:"max_score,omitempty"`
	CreatedBy    string     `gorm:"type:varchar(64);not null"                      json:"created_by"`
	BaseModel
}

// TableName 指定表名
func (Assignment) TableName() string { return "assignments" }

// Submission 作业提交表 — 对应 submissions
// (assignment_id, student_id) 唯一：重新提交原地覆盖 content，保留 ID 与已有成绩
type Submission struct {
	SubmissionID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"submission_id"`
	AssignmentID string     `gorm:"type:uuid;not null"                             json:"assignment_id"`
	StudentID    string     `gorm:"type:varchar(64);not null"                      json:"student_id"`
	Content      string     `gorm:"type:text;not null"                             json:"content"`
	Grade        *float64   `gorm:"type:numeric(8,2)"                              json:"grade,omitempty"`
	GradedBy     *string    `gorm:"type:varchar(64)"                               json:"graded_by,omitempty"`
	GradedAt     *time.Time `gorm:"type:timestamptz"                               json:"graded_at,omitempty"`
	SubmittedAt  time.Time  `gorm:"type:timestamptz;not null"                      json:"submitted_at"`
	BaseModel
}

// TableName 指定表名
func (Submission) TableName() string { return "submissions" }
