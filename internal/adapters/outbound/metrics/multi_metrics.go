package metrics

import (
	"github.com/erickfunier/lumenq/internal/domain/queue"
)

// MultiMetricsService fans every event out to several services
type MultiMetricsService []queue.MetricsService

func (m MultiMetricsService) RecordJobEnqueued(jobType queue.Type) {
	for _, s := range m {
		s.RecordJobEnqueued(jobType)
	}
}

func (m MultiMetricsService) RecordJobCompleted(jobType queue.Type, duration float64) {
	for _, s := range m {
		s.RecordJobCompleted(jobType, duration)
	}
}

func (m MultiMetricsService) RecordJobFailed(jobType queue.Type, reason string) {
	for _, s := range m {
		s.RecordJobFailed(jobType, reason)
	}
}

func (m MultiMetricsService) RecordJobCancelled(jobType queue.Type) {
	for _, s := range m {
		s.RecordJobCancelled(jobType)
	}
}
