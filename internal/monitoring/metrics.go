package monitoring

import (
	"sync"
	"time"

	"github.com/farhan-ahmed1/seedcheck/internal/task"
)

// Metrics collects in-process counters for the task runner
type Metrics struct {
	mu sync.RWMutex

	submitted  int64
	completed  int64
	succeeded  int64
	failed     int64
	rejected   int64
	inProgress int32
	byKind     map[task.ErrorKind]int64

	totalVerifyTime time.Duration
	maxVerifyTime   time.Duration

	startTime   time.Time
	lastUpdated time.Time
}

// Snapshot is a point-in-time copy of the metrics
type Snapshot struct {
	Submitted      int64                    `json:"submitted"`
	Completed      int64                    `json:"completed"`
	Succeeded      int64                    `json:"succeeded"`
	Failed         int64                    `json:"failed"`
	Rejected       int64                    `json:"rejected"`
	InProgress     int32                    `json:"in_progress"`
	FailuresByKind map[task.ErrorKind]int64 `json:"failures_by_kind"`
	AvgVerifyTime  time.Duration            `json:"avg_verify_time"`
	MaxVerifyTime  time.Duration            `json:"max_verify_time"`
	Uptime         time.Duration            `json:"uptime"`
	LastUpdated    time.Time                `json:"last_updated"`
}

// NewMetrics creates an empty metrics collector
func NewMetrics() *Metrics {
	now := time.Now()
	return &Metrics{
		byKind:      make(map[task.ErrorKind]int64),
		startTime:   now,
		lastUpdated: now,
	}
}

// RecordSubmitted counts a task accepted by the runner
func (m *Metrics) RecordSubmitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted++
	m.inProgress++
	m.lastUpdated = time.Now()
}

// RecordCompleted counts a delivered result
func (m *Metrics) RecordCompleted(r *task.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.completed++
	if m.inProgress > 0 {
		m.inProgress--
	}

	switch {
	case r.OK():
		m.succeeded++
	case r.Kind == task.KindRejected:
		m.rejected++
		m.byKind[r.Kind]++
	default:
		m.failed++
		m.byKind[r.Kind]++
	}

	if r.Kind != task.KindRejected {
		m.totalVerifyTime += r.Duration
		if r.Duration > m.maxVerifyTime {
			m.maxVerifyTime = r.Duration
		}
	}
	m.lastUpdated = time.Now()
}

// Snapshot returns a copy of the current metrics
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	kinds := make(map[task.ErrorKind]int64, len(m.byKind))
	for k, v := range m.byKind {
		kinds[k] = v
	}

	var avg time.Duration
	if verified := m.completed - m.rejected; verified > 0 {
		avg = m.totalVerifyTime / time.Duration(verified)
	}

	return Snapshot{
		Submitted:      m.submitted,
		Completed:      m.completed,
		Succeeded:      m.succeeded,
		Failed:         m.failed,
		Rejected:       m.rejected,
		InProgress:     m.inProgress,
		FailuresByKind: kinds,
		AvgVerifyTime:  avg,
		MaxVerifyTime:  m.maxVerifyTime,
		Uptime:         time.Since(m.startTime),
		LastUpdated:    m.lastUpdated,
	}
}
