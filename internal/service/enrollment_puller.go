package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lms-classroom/backend/config"
	"lms-classroom/backend/internal/dto"
	"lms-classroom/backend/pkg/metrics"
	pkgvalidator "lms-classroom/backend/pkg/validator"
)

// ── 选课名单定时拉取 ──────────────────────────────────────────
//
// 从上游教务系统拉取 JSON 名单 [{course_id, instructor_id, semester, name, student_ids}]，
// 逐门课程调用 Sync。单门课程失败不影响其他课程，失败数计入本次结果。
// ─────────────────────────────────────────────────────────────

const rosterMaxSize = 20 * 1024 * 1024 // 20MB

// PullResult 单次拉取结果
type PullResult struct {
	Total   int
	Synced  int
	Invalid int
	Failed  int
}

// EnrollmentPuller 名单拉取任务
type EnrollmentPuller struct {
	cfg        config.EnrollmentConfig
	classrooms ClassroomService
	client     *http.Client
	validate   *validator.Validate
	metrics    *metrics.Metrics
	logger     *zap.Logger
	cron       *cron.Cron
}

// NewEnrollmentPuller 创建名单拉取任务
func NewEnrollmentPuller(cfg *config.EnrollmentConfig, classrooms ClassroomService, m *metrics.Metrics, logger *zap.Logger) (*EnrollmentPuller, error) {
	v := validator.New()
	v.SetTagName("binding")
	if err := pkgvalidator.Setup(v); err != nil {
		return nil, fmt.Errorf("初始化名单校验失败: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &EnrollmentPuller{
		cfg:        *cfg,
		classrooms: classrooms,
		client:     &http.Client{Timeout: timeout},
		validate:   v,
		metrics:    m,
		logger:     logger.With(zap.String("component", "enrollment_puller")),
	}, nil
}

// Enabled 未配置名单地址时不启用
func (p *EnrollmentPuller) Enabled() bool {
	return p.cfg.SourceURL != ""
}

// Start 按 cron 表达式启动定时拉取
func (p *EnrollmentPuller) Start() error {
	if !p.Enabled() {
		p.logger.Info("未配置名单地址，跳过定时拉取")
		return nil
	}

	p.cron = cron.New()
	_, err := p.cron.AddFunc(p.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.client.Timeout*2)
		defer cancel()

		if _, err := p.RunOnce(ctx); err != nil {
			p.logger.Error("名单拉取失败", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("无效的拉取计划 %q: %w", p.cfg.Schedule, err)
	}

	p.cron.Start()
	p.logger.Info("名单定时拉取已启动",
		zap.String("schedule", p.cfg.Schedule),
		zap.String("source", p.cfg.SourceURL),
	)
	return nil
}

// Stop 停止调度并等待进行中的任务结束
func (p *EnrollmentPuller) Stop(ctx context.Context) {
	if p.cron == nil {
		return
	}
	select {
	case <-p.cron.Stop().Done():
	case <-ctx.Done():
		p.logger.Warn("等待名单拉取结束超时")
	}
}

// RunOnce 拉取一次名单并同步
func (p *EnrollmentPuller) RunOnce(ctx context.Context) (*PullResult, error) {
	sections, err := p.fetch(ctx)
	if err != nil {
		p.countPull("fetch_error")
		return nil, err
	}

	var synced, invalid, failed int64

	concurrency := p.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	var g errgroup.Group
	g.SetLimit(concurrency)

	for i := range sections {
		section := &sections[i]
		g.Go(func() error {
			if err := p.validate.Struct(section); err != nil {
				atomic.AddInt64(&invalid, 1)
				p.logger.Warn("名单条目无效，已跳过",
					zap.String("course_id", section.CourseID),
					zap.String("semester", section.Semester),
					zap.Error(err),
				)
				return nil
			}
			if _, err := p.classrooms.Sync(ctx, section, SyncSourcePuller); err != nil {
				atomic.AddInt64(&failed, 1)
				return nil
			}
			atomic.AddInt64(&synced, 1)
			return nil
		})
	}
	_ = g.Wait()

	result := &PullResult{
		Total:   len(sections),
		Synced:  int(synced),
		Invalid: int(invalid),
		Failed:  int(failed),
	}

	status := "success"
	if result.Failed > 0 {
		status = "partial"
	}
	p.countPull(status)
	p.logger.Info("名单拉取完成",
		zap.Int("total", result.Total),
		zap.Int("synced", result.Synced),
		zap.Int("invalid", result.Invalid),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (p *EnrollmentPuller) fetch(ctx context.Context) ([]dto.SyncClassroomRequest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.SourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构建名单请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取名单失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("获取名单失败: HTTP %d", resp.StatusCode)
	}

	var sections []dto.SyncClassroomRequest
	if err := json.NewDecoder(io.LimitReader(resp.Body, rosterMaxSize)).Decode(&sections); err != nil {
		return nil, fmt.Errorf("解析名单失败: %w", err)
	}
	return sections, nil
}

func (p *EnrollmentPuller) countPull(status string) {
	if p.metrics != nil {
		p.metrics.EnrollmentPullsTotal.WithLabelValues(status).Inc()
	}
}
