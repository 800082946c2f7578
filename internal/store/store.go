// Package store keeps finished analyses: a SQL archive for the long term,
// a Redis cache for recent lookups, and an in-memory fallback.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/motion_analyzer/internal/pipeline"
)

var ErrNotFound = errors.New("analysis not found")

// Record is one stored analysis with its bookkeeping tags.
type Record struct {
	ID          string            `json:"id"`
	PatientCode string            `json:"patient_code,omitempty"`
	Exercise    string            `json:"exercise,omitempty"`
	Source      string            `json:"source,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	Analysis    pipeline.Analysis `json:"analysis"`
}

// NewRecord wraps an analysis under a fresh ID.
func NewRecord(a pipeline.Analysis, patient, exercise, source string) *Record {
	return &Record{
		ID:          uuid.NewString(),
		PatientCode: patient,
		Exercise:    exercise,
		Source:      source,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
		Analysis:    a,
	}
}

// Store is implemented by every backend.
type Store interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	ListByPatient(ctx context.Context, patient string) ([]*Record, error)
	Close() error
}

// Memory keeps records in process; used when nothing else is configured.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]*Record)}
}

func (m *Memory) Save(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.ID] = r
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

func (m *Memory) ListByPatient(_ context.Context, patient string) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Record
	for _, r := range m.records {
		if r.PatientCode == patient {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *Memory) Close() error { return nil }

func sortNewestFirst(rs []*Record) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].CreatedAt.After(rs[j].CreatedAt) })
}
