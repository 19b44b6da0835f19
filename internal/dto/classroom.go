package dto

// ── 名单同步 DTO ──

// SyncClassroomRequest 上游教务系统同步课堂请求
// 以 (course_id, semester) 为幂等键，student_ids 为全量名单
type SyncClassroomRequest struct {
	CourseID     string   `json:"course_id"     binding:"required,notblank,max=64"`
	InstructorID string   `json:"instructor_id" binding:"required,userid"`
	Semester     string   `json:"semester"      binding:"required,notblank,max=64"`
	Name         string   `json:"name"          binding:"required,notblank,max=255"`
	StudentIDs   []string `json:"student_ids"   binding:"required,dive,userid"`
}

// SyncClassroomResponse 同步确认
type SyncClassroomResponse struct {
	Message     string `json:"message"`
	ClassroomID string `json:"classroom_id"`
}

// ── 课堂内容 DTO ──

// AddModuleRequest 发布课程模块请求
type AddModuleRequest struct {
	Title       string `json:"title"        binding:"required,notblank,max=255"`
	Content     string `json:"content"      binding:"omitempty,max=20000"`
	ResourceURL string `json:"resource_url" binding:"omitempty,url,max=2048"`
}

// AddAnnouncementRequest 发布公告请求
type AddAnnouncementRequest struct {
	Text string `json:"text" binding:"required,notblank,max=5000"`
}

// ModuleResponse 课程模块响应
type ModuleResponse struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	ResourceURL string `json:"resource_url,omitempty"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   string `json:"created_at"`
}

// AnnouncementResponse 公告响应
type AnnouncementResponse struct {
	Text      string `json:"text"`
	AuthorID  string `json:"author_id"`
	CreatedAt string `json:"created_at"`
}

// ClassroomResponse 课堂详情
// 学生视角下不返回助教与学生名单
type ClassroomResponse struct {
	ClassroomID   string                 `json:"classroom_id"`
	CourseID      string                 `json:"course_id"`
	Semester      string                 `json:"semester"`
	Name          string                 `json:"name"`
	InstructorID  string                 `json:"instructor_id"`
	TAIDs         []string               `json:"ta_ids,omitempty"`
	StudentIDs    []string               `json:"student_ids,omitempty"`
	Modules       []ModuleResponse       `json:"modules"`
	Announcements []AnnouncementResponse `json:"announcements"`
	MyRelation    string                 `json:"my_relation"`
}
