package model

import (
	"time"

	"github.com/lib/pq"
)

// Classroom 课堂表 — 对应 classrooms
// (course_id, semester) 唯一，是名单同步的幂等键
type Classroom struct {
	ClassroomID   string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"classroom_id"`
	CourseID      string         `gorm:"type:varchar(64);not null"                      json:"course_id"`
	Semester      string         `gorm:"type:varchar(64);not null"                      json:"semester"`
	Name          string         `gorm:"type:varchar(255);not null"                     json:"name"`
	InstructorID  string         `gorm:"type:varchar(64);not null"                      json:"instructor_id"`
	TAIDs         pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"ta_ids"`
	StudentIDs    pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"student_ids"`
	Modules       []Module       `gorm:"type:jsonb;not null;serializer:json"            json:"modules"`
	Announcements []Announcement `gorm:"type:jsonb;not null;serializer:json"            json:"announcements"`
	BaseModel
}

// TableName 指定表名
func (Classroom) TableName() string { return "classrooms" }

// Module 课程模块，嵌入课堂文档，按追加顺序保存
type Module struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ResourceURL string    `json:"resource_url,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Announcement 课堂公告，嵌入课堂文档，按追加顺序保存
type Announcement struct {
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// HasRelation 判断用户是否在课堂中持有任一给定关系
// 仅用于内存场景（测试替身、导出），存储层以单条查询实现同样的判断
func (c *Classroom) HasRelation(userID string, relations []Relation) bool {
	for _, rel := range relations {
		switch rel {
		case RelationInstructor:
			if c.InstructorID == userID {
				return true
			}
		case RelationTA:
			if containsString(c.TAIDs, userID) {
				return true
			}
		case RelationStudent:
			if containsString(c.StudentIDs, userID) {
				return true
			}
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
