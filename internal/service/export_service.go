package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"lms-classroom/backend/internal/model"
	"lms-classroom/backend/internal/repository"
	"lms-classroom/backend/pkg/metrics"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 成绩册导出接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入。
// 行为课堂名单中的学生与实际提交者的并集，未提交者标记为未提交。
type ExportService interface {
	ExportGradebook(ctx context.Context, identity model.Identity, assignmentID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo    *repository.Repository
	members *membership
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) ExportService {
	return &exportService{
		repo:    repo,
		members: &membership{classrooms: repo.Classroom, metrics: m, logger: logger},
		logger:  logger,
	}
}

// gradebookRow 成绩册一行
type gradebookRow struct {
	studentID   string
	submitted   bool
	submittedAt string
	grade       string
	gradedBy    string
}

// ═══════════════════════════════════════════════════════════
// ExportGradebook — 导出单个作业的成绩册
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 标题行：课程号 / 学期 / 作业标题
//   - 表头：学号 | 状态 | 提交时间 | 成绩 | 批改人
//   - 数据行按学号排序

func (s *exportService) ExportGradebook(ctx context.Context, identity model.Identity, assignmentID string) (*bytes.Buffer, string, error) {
	if err := validateID(assignmentID); err != nil {
		return nil, "", err
	}
	if err := s.members.requireRole("export_gradebook", identity, model.StaffRoles); err != nil {
		return nil, "", err
	}

	// 1. 作业 → 课堂
	assignment, err := s.repo.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		if isNotFound(err) {
			return nil, "", ErrAssignmentNotFound
		}
		s.logger.Error("查询作业失败", zap.String("assignment_id", assignmentID), zap.Error(err))
		return nil, "", err
	}
	if err := s.members.require(ctx, "export_gradebook", assignment.ClassroomID, identity.UserID, model.StaffRelations); err != nil {
		return nil, "", err
	}

	classroom, err := s.repo.Classroom.GetByID(ctx, assignment.ClassroomID)
	if err != nil {
		if isNotFound(err) {
			return nil, "", ErrClassroomNotFound
		}
		s.logger.Error("查询课堂失败", zap.String("classroom_id", assignment.ClassroomID), zap.Error(err))
		return nil, "", err
	}

	// 2. 提交记录
	subs, err := s.repo.Submission.ListByAssignment(ctx, assignmentID)
	if err != nil {
		s.logger.Error("查询提交列表失败", zap.String("assignment_id", assignmentID), zap.Error(err))
		return nil, "", err
	}

	rows := buildGradebookRows(classroom.StudentIDs, subs)

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "成绩册"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 18)
	f.SetColWidth(sheetName, "B", "B", 10)
	f.SetColWidth(sheetName, "C", "C", 22)
	f.SetColWidth(sheetName, "D", "D", 10)
	f.SetColWidth(sheetName, "E", "E", 18)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	title := fmt.Sprintf("%s %s — %s", classroom.CourseID, classroom.Semester, assignment.Title)
	if assignment.MaxScore != nil {
		title += fmt.Sprintf("（满分 %g）", *assignment.MaxScore)
	}
	f.SetCellValue(sheetName, "A1", title)
	f.MergeCell(sheetName, "A1", "E1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	headers := []string{"学号", "状态", "提交时间", "成绩", "批改人"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", "E2", headerStyle)

	row := 3
	for _, r := range rows {
		status := "未提交"
		if r.submitted {
			status = "已提交"
		}
		f.SetCellValue(sheetName, cell("A", row), r.studentID)
		f.SetCellValue(sheetName, cell("B", row), status)
		f.SetCellValue(sheetName, cell("C", row), orDash(r.submittedAt))
		f.SetCellValue(sheetName, cell("D", row), orDash(r.grade))
		f.SetCellValue(sheetName, cell("E", row), orDash(r.gradedBy))
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("成绩册_%s_%s_%s.xlsx", classroom.CourseID, classroom.Semester, sanitizeFilename(assignment.Title))
	return buf, filename, nil
}

// buildGradebookRows 合并名单与提交记录，按学号排序
func buildGradebookRows(roster []string, subs []model.Submission) []gradebookRow {
	byStudent := make(map[string]gradebookRow, len(roster)+len(subs))
	for _, id := range roster {
		byStudent[id] = gradebookRow{studentID: id}
	}
	for _, sub := range subs {
		r := gradebookRow{
			studentID:   sub.StudentID,
			submitted:   true,
			submittedAt: sub.SubmittedAt.Format(time.RFC3339),
		}
		if sub.Grade != nil {
			r.grade = fmt.Sprintf("%g", *sub.Grade)
		}
		if sub.GradedBy != nil {
			r.gradedBy = *sub.GradedBy
		}
		byStudent[sub.StudentID] = r
	}

	rows := make([]gradebookRow, 0, len(byStudent))
	for _, r := range byStudent {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].studentID < rows[j].studentID })
	return rows
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// sanitizeFilename 去掉文件名中不安全的字符
func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, s)
}
