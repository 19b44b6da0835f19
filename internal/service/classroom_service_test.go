package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lms-classroom/backend/internal/dto"
	"lms-classroom/backend/internal/model"
	apperrors "lms-classroom/backend/pkg/errors"
	"lms-classroom/backend/pkg/metrics"
)

// ── 测试辅助 ──

var (
	instructorI1 = model.Identity{UserID: "I1", Role: model.RoleInstructor}
	instructorI2 = model.Identity{UserID: "I2", Role: model.RoleInstructor}
	taT1         = model.Identity{UserID: "T1", Role: model.RoleTA}
	studentS1    = model.Identity{UserID: "S1", Role: model.RoleStudent}
	studentS9    = model.Identity{UserID: "S9", Role: model.RoleStudent}
)

func setupTestClassroomService() (ClassroomService, *testRepos) {
	tr := newTestRepos()
	svc := NewClassroomService(tr.repo, metrics.New(nil), zap.NewNop())
	return svc, tr
}

func syncCS101(t *testing.T, svc ClassroomService, students ...string) string {
	t.Helper()
	resp, err := svc.Sync(context.Background(), &dto.SyncClassroomRequest{
		CourseID:     "CS101",
		InstructorID: "I1",
		Semester:     "F24",
		Name:         "Intro",
		StudentIDs:   students,
	}, SyncSourceAPI)
	if err != nil {
		t.Fatalf("Sync 应成功: %v", err)
	}
	return resp.ClassroomID
}

// ── Sync 测试 ──

func TestClassroomService_Sync_CreatesClassroom(t *testing.T) {
	svc, tr := setupTestClassroomService()

	id := syncCS101(t, svc, "S1")

	c, err := tr.classrooms.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("课堂应已创建: %v", err)
	}
	if c.InstructorID != "I1" || c.Name != "Intro" {
		t.Errorf("期望 instructor=I1 name=Intro，实际=%s %s", c.InstructorID, c.Name)
	}
	if len(c.TAIDs) != 0 || len(c.Modules) != 0 || len(c.Announcements) != 0 {
		t.Errorf("新课堂的助教、模块、公告应为空，实际=%+v", c)
	}
}

func TestClassroomService_Sync_Idempotent(t *testing.T) {
	svc, tr := setupTestClassroomService()

	first := syncCS101(t, svc, "S1", "S2")
	before, _ := tr.classrooms.GetByID(context.Background(), first)

	second := syncCS101(t, svc, "S1", "S2")
	after, _ := tr.classrooms.GetByID(context.Background(), second)

	if first != second {
		t.Fatalf("重复同步应落在同一课堂: %s != %s", first, second)
	}
	if len(tr.classrooms.classrooms) != 1 {
		t.Errorf("期望 1 个课堂，实际=%d", len(tr.classrooms.classrooms))
	}
	if before.InstructorID != after.InstructorID || before.Name != after.Name ||
		len(before.StudentIDs) != len(after.StudentIDs) {
		t.Errorf("重复同步后状态应一致: before=%+v after=%+v", before, after)
	}
}

func TestClassroomService_Sync_PreservesContent(t *testing.T) {
	svc, tr := setupTestClassroomService()
	ctx := context.Background()

	id := syncCS101(t, svc, "S1")
	tr.classrooms.setTAs(id, "T1")

	if _, err := svc.AddModule(ctx, instructorI1, id, &dto.AddModuleRequest{Title: "Week 1"}); err != nil {
		t.Fatalf("AddModule 应成功: %v", err)
	}
	if _, err := svc.AddAnnouncement(ctx, taT1, id, &dto.AddAnnouncementRequest{Text: "Welcome"}); err != nil {
		t.Fatalf("AddAnnouncement 应成功: %v", err)
	}

	syncCS101(t, svc, "S1", "S2")

	c, _ := tr.classrooms.GetByID(ctx, id)
	if len(c.StudentIDs) != 2 || c.StudentIDs[1] != "S2" {
		t.Errorf("期望名单包含 S2，实际=%v", c.StudentIDs)
	}
	if len(c.Modules) != 1 || c.Modules[0].Title != "Week 1" {
		t.Errorf("同步不应影响模块，实际=%+v", c.Modules)
	}
	if len(c.Announcements) != 1 {
		t.Errorf("同步不应影响公告，实际=%+v", c.Announcements)
	}
	if len(c.TAIDs) != 1 || c.TAIDs[0] != "T1" {
		t.Errorf("同步不应影响助教，实际=%v", c.TAIDs)
	}
}

func TestClassroomService_Sync_ReplacesRoster(t *testing.T) {
	svc, tr := setupTestClassroomService()

	id := syncCS101(t, svc, "S1", "S2", "S2")
	c, _ := tr.classrooms.GetByID(context.Background(), id)
	if len(c.StudentIDs) != 2 {
		t.Errorf("重复学号应去重，实际=%v", c.StudentIDs)
	}

	syncCS101(t, svc, "S3")
	c, _ = tr.classrooms.GetByID(context.Background(), id)
	if len(c.StudentIDs) != 1 || c.StudentIDs[0] != "S3" {
		t.Errorf("名单应整体替换，实际=%v", c.StudentIDs)
	}
}

func TestClassroomService_Sync_StoreFailure(t *testing.T) {
	svc, tr := setupTestClassroomService()
	tr.classrooms.err = errors.New("connection reset")

	_, err := svc.Sync(context.Background(), &dto.SyncClassroomRequest{
		CourseID: "CS101", InstructorID: "I1", Semester: "F24", Name: "Intro", StudentIDs: []string{},
	}, SyncSourceAPI)
	if err == nil {
		t.Fatal("存储失败应返回错误")
	}
	if apperrors.KindOf(err) != apperrors.KindInternal {
		t.Errorf("存储失败应归为 Internal，实际=%s", apperrors.KindOf(err))
	}
}

// ── AddModule / AddAnnouncement 测试 ──

func TestClassroomService_AddModule_Permissions(t *testing.T) {
	svc, tr := setupTestClassroomService()
	ctx := context.Background()
	id := syncCS101(t, svc, "S1")
	tr.classrooms.setTAs(id, "T1")

	tests := []struct {
		name     string
		identity model.Identity
		classID  string
		wantErr  error
	}{
		{"主讲教师", instructorI1, id, nil},
		{"课堂助教", taT1, id, nil},
		{"非本课堂教师", instructorI2, id, apperrors.ErrForbidden},
		{"学生角色", studentS1, id, apperrors.ErrForbidden},
		{"课堂不存在", instructorI1, uuid.NewString(), apperrors.ErrForbidden},
		{"ID 格式错误", instructorI1, "bad-id", apperrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.AddModule(ctx, tt.identity, tt.classID, &dto.AddModuleRequest{Title: "M", Content: "c"})
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("期望成功，实际: %v", err)
				}
				if resp.CreatedBy != tt.identity.UserID {
					t.Errorf("期望 created_by=%s，实际=%s", tt.identity.UserID, resp.CreatedBy)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
			}
		})
	}
}

func TestClassroomService_AddModule_NotFoundIndistinguishable(t *testing.T) {
	svc, _ := setupTestClassroomService()
	ctx := context.Background()
	id := syncCS101(t, svc)

	_, errNotMember := svc.AddModule(ctx, instructorI2, id, &dto.AddModuleRequest{Title: "M"})
	_, errMissing := svc.AddModule(ctx, instructorI2, uuid.NewString(), &dto.AddModuleRequest{Title: "M"})

	if errNotMember != errMissing {
		t.Errorf("课堂不存在与非成员应返回同一错误: %v vs %v", errNotMember, errMissing)
	}
}

func TestClassroomService_AddAnnouncement_PreservesOrder(t *testing.T) {
	svc, tr := setupTestClassroomService()
	ctx := context.Background()
	id := syncCS101(t, svc)

	for _, text := range []string{"first", "second", "third"} {
		if _, err := svc.AddAnnouncement(ctx, instructorI1, id, &dto.AddAnnouncementRequest{Text: text}); err != nil {
			t.Fatalf("AddAnnouncement 应成功: %v", err)
		}
	}

	c, _ := tr.classrooms.GetByID(ctx, id)
	if len(c.Announcements) != 3 || c.Announcements[0].Text != "first" || c.Announcements[2].Text != "third" {
		t.Errorf("公告应按追加顺序保存，实际=%+v", c.Announcements)
	}
	if c.Announcements[0].AuthorID != "I1" {
		t.Errorf("期望 author_id=I1，实际=%s", c.Announcements[0].AuthorID)
	}
}

// ── ListMine 测试 ──

func TestClassroomService_ListMine(t *testing.T) {
	svc, tr := setupTestClassroomService()
	ctx := context.Background()
	id := syncCS101(t, svc, "S1")
	tr.classrooms.setTAs(id, "T1")

	list, err := svc.ListMine(ctx, studentS1)
	if err != nil {
		t.Fatalf("ListMine 应成功: %v", err)
	}
	if len(list) != 1 || list[0].MyRelation != "student" {
		t.Fatalf("期望 1 个课堂且身份为 student，实际=%+v", list)
	}
	if list[0].StudentIDs != nil || list[0].TAIDs != nil {
		t.Error("学生视角不应返回名单")
	}

	list, _ = svc.ListMine(ctx, taT1)
	if len(list) != 1 || list[0].MyRelation != "ta" || len(list[0].StudentIDs) != 1 {
		t.Errorf("助教视角应返回名单，实际=%+v", list)
	}

	list, _ = svc.ListMine(ctx, studentS9)
	if len(list) != 0 {
		t.Errorf("非成员应得到空列表，实际=%+v", list)
	}
}

// ── ListAssignments 测试 ──

func TestClassroomService_ListAssignments(t *testing.T) {
	svc, tr := setupTestClassroomService()
	ctx := context.Background()
	id := syncCS101(t, svc, "S1")
	_ = tr.assignments.Create(ctx, &model.Assignment{ClassroomID: id, Title: "HW1", CreatedBy: "I1"})

	list, err := svc.ListAssignments(ctx, studentS1, id)
	if err != nil {
		t.Fatalf("成员应可查看作业: %v", err)
	}
	if len(list) != 1 || list[0].Title != "HW1" {
		t.Errorf("期望 1 个作业 HW1，实际=%+v", list)
	}

	if _, err := svc.ListAssignments(ctx, studentS9, id); !errors.Is(err, ErrNotClassroomMember) {
		t.Errorf("非成员期望 ErrNotClassroomMember，实际: %v", err)
	}
}
