package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/erickfunier/lumenq/internal/domain/queue"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lightJob queue.Type = "streetlights.set_brightness"

func TestInMemoryMetricsService(t *testing.T) {
	// Given
	s := NewInMemoryMetricsService()

	// When
	s.RecordJobEnqueued(lightJob)
	s.RecordJobEnqueued(lightJob)
	s.RecordJobCompleted(lightJob, 1.0)
	s.RecordJobCompleted(lightJob, 3.0)
	s.RecordJobFailed(lightJob, "panic")
	s.RecordJobCancelled(lightJob)

	// Then
	got := s.GetMetrics()
	assert.Equal(t, int64(2), got["enqueued:"+string(lightJob)])
	assert.Equal(t, int64(2), got["completed:"+string(lightJob)])
	assert.Equal(t, int64(1), got["failed:"+string(lightJob)])
	assert.Equal(t, int64(1), got["failed:"+string(lightJob)+":panic"])
	assert.Equal(t, int64(1), got["cancelled:"+string(lightJob)])
	assert.Equal(t, 2.0, s.AverageDuration(lightJob))
	assert.Zero(t, s.AverageDuration("unknown"))
}

func TestInMemoryMetricsService_GetMetricsReturnsCopy(t *testing.T) {
	s := NewInMemoryMetricsService()
	s.RecordJobEnqueued(lightJob)

	snapshot := s.GetMetrics()
	snapshot["enqueued:"+string(lightJob)] = 100

	assert.Equal(t, int64(1), s.GetMetrics()["enqueued:"+string(lightJob)])
}

func TestInMemoryMetricsService_Concurrent(t *testing.T) {
	s := NewInMemoryMetricsService()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.RecordJobEnqueued(lightJob)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), s.GetMetrics()["enqueued:"+string(lightJob)])
}

func TestPrometheusMetricsService(t *testing.T) {
	// Given
	depth := 3
	s := NewPrometheusMetricsService(func() int { return depth })

	// When
	s.RecordJobEnqueued(lightJob)
	s.RecordJobCompleted(lightJob, 0.2)
	s.RecordJobFailed(lightJob, "handler_error")
	s.RecordJobFailed(lightJob, "handler_error")
	s.RecordJobCancelled(lightJob)

	// Then
	assert.Equal(t, 1.0, testutil.ToFloat64(s.enqueued.WithLabelValues(string(lightJob))))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.completed.WithLabelValues(string(lightJob))))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.failed.WithLabelValues(string(lightJob), "handler_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.cancelled.WithLabelValues(string(lightJob))))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "lumenq_queue_depth 3")
	assert.Contains(t, body, `lumenq_job_duration_seconds_count{job_type="streetlights.set_brightness"} 1`)
	assert.True(t, strings.Contains(body, "go_goroutines"), "runtime collectors should be registered")
}

func TestMultiMetricsService_FansOut(t *testing.T) {
	// Given
	a := NewInMemoryMetricsService()
	b := NewInMemoryMetricsService()
	multi := MultiMetricsService{a, b}

	// When
	multi.RecordJobEnqueued(lightJob)
	multi.RecordJobCompleted(lightJob, 1)
	multi.RecordJobFailed(lightJob, "scope")
	multi.RecordJobCancelled(lightJob)

	// Then
	assert.Equal(t, a.GetMetrics(), b.GetMetrics())
	assert.Len(t, a.GetMetrics(), 5)
}
