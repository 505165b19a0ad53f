package metrics

import (
	"sync"

	"github.com/erickfunier/lumenq/internal/domain/queue"
)

// InMemoryMetricsService implements queue.MetricsService with in-memory storage
type InMemoryMetricsService struct {
	mu       sync.RWMutex
	counters map[string]int64
	duration map[queue.Type]float64
}

// NewInMemoryMetricsService creates a new in-memory metrics service
func NewInMemoryMetricsService() *InMemoryMetricsService {
	return &InMemoryMetricsService{
		counters: make(map[string]int64),
		duration: make(map[queue.Type]float64),
	}
}

func (s *InMemoryMetricsService) RecordJobEnqueued(jobType queue.Type) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters["enqueued:"+string(jobType)]++
}

func (s *InMemoryMetricsService) RecordJobCompleted(jobType queue.Type, duration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters["completed:"+string(jobType)]++
	s.duration[jobType] += duration
}

func (s *InMemoryMetricsService) RecordJobFailed(jobType queue.Type, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters["failed:"+string(jobType)]++
	s.counters["failed:"+string(jobType)+":"+reason]++
}

func (s *InMemoryMetricsService) RecordJobCancelled(jobType queue.Type) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters["cancelled:"+string(jobType)]++
}

// GetMetrics returns a copy of every counter, keyed "<event>:<jobType>[:<reason>]"
func (s *InMemoryMetricsService) GetMetrics() map[string]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]int64, len(s.counters))
	for k, v := range s.counters {
		result[k] = v
	}
	return result
}

// AverageDuration returns the mean completion time in seconds for jobType
func (s *InMemoryMetricsService) AverageDuration(jobType queue.Type) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	completed := s.counters["completed:"+string(jobType)]
	if completed == 0 {
		return 0
	}
	return s.duration[jobType] / float64(completed)
}
