package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lms-classroom/backend/config"
	"lms-classroom/backend/internal/model"
	"lms-classroom/backend/pkg/metrics"
)

const rosterJSON = `[
  {"course_id":"CS101","instructor_id":"I1","semester":"F24","name":"Intro","student_ids":["S1","S2"]},
  {"course_id":"CS102","instructor_id":"I2","semester":"F24","name":"Data Structures","student_ids":[]},
  {"course_id":"","instructor_id":"I3","semester":"F24","name":"Broken","student_ids":["S1"]},
  {"course_id":"CS103","instructor_id":"I3","semester":"F24","name":"Missing roster"}
]`

func newTestPuller(t *testing.T, url string) (*EnrollmentPuller, *testRepos, *metrics.Metrics) {
	t.Helper()
	tr := newTestRepos()
	m := metrics.New(nil)
	classrooms := NewClassroomService(tr.repo, m, zap.NewNop())

	p, err := NewEnrollmentPuller(&config.EnrollmentConfig{
		SourceURL:   url,
		Schedule:    "@every 1h",
		Concurrency: 2,
		Timeout:     5 * time.Second,
	}, classrooms, m, zap.NewNop())
	require.NoError(t, err)
	return p, tr, m
}

func TestEnrollmentPuller_RunOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(rosterJSON))
	}))
	defer srv.Close()

	p, tr, m := newTestPuller(t, srv.URL)

	result, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 2, result.Invalid)
	assert.Equal(t, 0, result.Failed)

	list, err := tr.classrooms.ListByMember(context.Background(), "S2")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "CS101", list[0].CourseID)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ClassroomSyncsTotal.WithLabelValues(SyncSourcePuller, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EnrollmentPullsTotal.WithLabelValues("success")))

	// 再次拉取不产生新课堂
	_, err = p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, tr.classrooms.classrooms, 2)
}

func TestEnrollmentPuller_PreservesContentOnRepeat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rosterJSON))
	}))
	defer srv.Close()

	p, tr, _ := newTestPuller(t, srv.URL)
	ctx := context.Background()

	_, err := p.RunOnce(ctx)
	require.NoError(t, err)

	list, _ := tr.classrooms.ListByMember(ctx, "I1")
	require.Len(t, list, 1)
	ok, err := tr.classrooms.AppendModule(ctx, list[0].ClassroomID, "I1", model.Module{Title: "Week 1"})
	require.NoError(t, err)
	require.True(t, ok)

	_, err = p.RunOnce(ctx)
	require.NoError(t, err)

	c, err := tr.classrooms.GetByID(ctx, list[0].ClassroomID)
	require.NoError(t, err)
	assert.Len(t, c.Modules, 1)
}

func TestEnrollmentPuller_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p, _, m := newTestPuller(t, srv.URL)

	_, err := p.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EnrollmentPullsTotal.WithLabelValues("fetch_error")))
}

func TestEnrollmentPuller_Disabled(t *testing.T) {
	p, _, _ := newTestPuller(t, "")
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Start())
	p.Stop(context.Background())
}

func TestEnrollmentPuller_InvalidSchedule(t *testing.T) {
	p, _, _ := newTestPuller(t, "http://127.0.0.1:1/roster")
	p.cfg.Schedule = "not a cron"
	assert.Error(t, p.Start())
}
