package application

import (
	"sync"

	"marketdata-service/internal/domain"
)

// ProviderStats counts outcomes per provider. Purely observational;
// never read by the fallback control flow.
type ProviderStats struct {
	Success int64 `json:"success"`
	Failure int64 `json:"failure"`
}

type statsRegistry struct {
	mu     sync.Mutex
	counts map[domain.ProviderID]*ProviderStats
}

func newStatsRegistry() *statsRegistry {
	return &statsRegistry{counts: make(map[domain.ProviderID]*ProviderStats)}
}

func (s *statsRegistry) count(id domain.ProviderID) *ProviderStats {
	st, ok := s.counts[id]
	if !ok {
		st = &ProviderStats{}
		s.counts[id] = st
	}
	return st
}

func (s *statsRegistry) RecordSuccess(id domain.ProviderID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count(id).Success++
}

func (s *statsRegistry) RecordFailure(id domain.ProviderID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count(id).Failure++
}

func (s *statsRegistry) Snapshot() map[domain.ProviderID]ProviderStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.ProviderID]ProviderStats, len(s.counts))
	for id, st := range s.counts {
		out[id] = *st
	}
	return out
}
