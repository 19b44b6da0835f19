package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"lms-classroom/backend/internal/model"
	"lms-classroom/backend/internal/repository"
)

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ── Mock ClassroomRepository ──
// 与 SQL 实现保持同样的语义：upsert 只覆盖名单字段，追加时同时校验教学人员身份

type mockClassroomRepo struct {
	mu         sync.Mutex
	classrooms map[string]*model.Classroom
	err        error
}

func newMockClassroomRepo() *mockClassroomRepo {
	return &mockClassroomRepo{classrooms: make(map[string]*model.Classroom)}
}

func (m *mockClassroomRepo) Upsert(_ context.Context, c *model.Classroom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	for _, existing := range m.classrooms {
		if existing.CourseID == c.CourseID && existing.Semester == c.Semester {
			changed := existing.InstructorID != c.InstructorID || existing.Name != c.Name ||
				!equalStrings(existing.StudentIDs, c.StudentIDs)
			existing.InstructorID = c.InstructorID
			existing.Name = c.Name
			existing.StudentIDs = append(pq.StringArray{}, c.StudentIDs...)
			if changed {
				existing.UpdatedAt = time.Now()
			}
			*c = *cloneClassroom(existing)
			return nil
		}
	}

	stored := cloneClassroom(c)
	stored.ClassroomID = uuid.NewString()
	if stored.TAIDs == nil {
		stored.TAIDs = pq.StringArray{}
	}
	if stored.Modules == nil {
		stored.Modules = []model.Module{}
	}
	if stored.Announcements == nil {
		stored.Announcements = []model.Announcement{}
	}
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.classrooms[stored.ClassroomID] = stored
	*c = *cloneClassroom(stored)
	return nil
}

func (m *mockClassroomRepo) GetByID(_ context.Context, id string) (*model.Classroom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.classrooms[id]; ok {
		return cloneClassroom(c), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassroomRepo) IsMember(_ context.Context, classroomID, userID string, relations []model.Relation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	c, ok := m.classrooms[classroomID]
	if !ok {
		return false, nil
	}
	return c.HasRelation(userID, relations), nil
}

func (m *mockClassroomRepo) ListByMember(_ context.Context, userID string) ([]model.Classroom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Classroom
	for _, c := range m.classrooms {
		if c.HasRelation(userID, model.AllRelations) {
			result = append(result, *cloneClassroom(c))
		}
	}
	return result, nil
}

func (m *mockClassroomRepo) AppendModule(_ context.Context, classroomID, actorID string, module model.Module) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.classrooms[classroomID]
	if !ok || !c.HasRelation(actorID, model.StaffRelations) {
		return false, nil
	}
	c.Modules = append(c.Modules, module)
	return true, nil
}

func (m *mockClassroomRepo) AppendAnnouncement(_ context.Context, classroomID, actorID string, ann model.Announcement) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.classrooms[classroomID]
	if !ok || !c.HasRelation(actorID, model.StaffRelations) {
		return false, nil
	}
	c.Announcements = append(c.Announcements, ann)
	return true, nil
}

// setTAs 测试辅助：直接设置助教名单（生产中由其他渠道维护）
func (m *mockClassroomRepo) setTAs(classroomID string, ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classrooms[classroomID].TAIDs = append(pq.StringArray{}, ids...)
}

func cloneClassroom(c *model.Classroom) *model.Classroom {
	out := *c
	out.TAIDs = append(pq.StringArray(nil), c.TAIDs...)
	out.StudentIDs = append(pq.StringArray(nil), c.StudentIDs...)
	out.Modules = append([]model.Module(nil), c.Modules...)
	out.Announcements = append([]model.Announcement(nil), c.Announcements...)
	return &out
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[string]*model.Assignment
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{assignments: make(map[string]*model.Assignment)}
}

func (m *mockAssignmentRepo) Create(_ context.Context, a *model.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.AssignmentID == "" {
		a.AssignmentID = uuid.NewString()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	stored := *a
	m.assignments[a.AssignmentID] = &stored
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.assignments[id]; ok {
		out := *a
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) ListByClassroom(_ context.Context, classroomID string) ([]model.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Assignment
	for _, a := range m.assignments {
		if a.ClassroomID == classroomID {
			result = append(result, *a)
		}
	}
	return result, nil
}

// ── Mock SubmissionRepository ──

type mockSubmissionRepo struct {
	mu          sync.Mutex
	submissions map[string]*model.Submission
}

func newMockSubmissionRepo() *mockSubmissionRepo {
	return &mockSubmissionRepo{submissions: make(map[string]*model.Submission)}
}

func (m *mockSubmissionRepo) Upsert(_ context.Context, sub *model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.submissions {
		if existing.AssignmentID == sub.AssignmentID && existing.StudentID == sub.StudentID {
			existing.Content = sub.Content
			existing.SubmittedAt = sub.SubmittedAt
			existing.UpdatedAt = time.Now()
			*sub = *existing
			return nil
		}
	}

	stored := *sub
	stored.SubmissionID = uuid.NewString()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.submissions[stored.SubmissionID] = &stored
	*sub = stored
	return nil
}

func (m *mockSubmissionRepo) GetByID(_ context.Context, id string) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.submissions[id]; ok {
		out := *s
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubmissionRepo) UpdateGrade(_ context.Context, id string, grade float64, gradedBy string) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	now := time.Now()
	s.Grade = &grade
	s.GradedBy = &gradedBy
	s.GradedAt = &now
	out := *s
	return &out, nil
}

func (m *mockSubmissionRepo) ListByAssignment(_ context.Context, assignmentID string) ([]model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Submission
	for _, s := range m.submissions {
		if s.AssignmentID == assignmentID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSubmissionRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.submissions)
}

// ── 测试装配 ──

type testRepos struct {
	repo        *repository.Repository
	classrooms  *mockClassroomRepo
	assignments *mockAssignmentRepo
	submissions *mockSubmissionRepo
}

func newTestRepos() *testRepos {
	tr := &testRepos{
		classrooms:  newMockClassroomRepo(),
		assignments: newMockAssignmentRepo(),
		submissions: newMockSubmissionRepo(),
	}
	tr.repo = &repository.Repository{
		Classroom:  tr.classrooms,
		Assignment: tr.assignments,
		Submission: tr.submissions,
	}
	return tr
}
