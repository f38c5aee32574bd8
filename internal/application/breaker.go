package application

import (
	"sync"
	"time"

	"marketdata-service/internal/domain"

	"go.uber.org/zap"
)

// BreakerConfig is injected at construction so tests can use short
// windows instead of the production cooldown.
type BreakerConfig struct {
	FailureThreshold int
	OpenTimeout      time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 5, OpenTimeout: 300 * time.Second}
}

type breakerState struct {
	consecutiveFailures int
	openUntil           time.Time
}

// BreakerSnapshot is the observational view exposed through stats.
type BreakerSnapshot struct {
	Failures  int        `json:"failures"`
	Open      bool       `json:"open"`
	OpenUntil *time.Time `json:"open_until"`
}

// BreakerRegistry tracks per-provider health. A provider opens after
// FailureThreshold consecutive failures and is skipped until
// OpenTimeout has elapsed. The Open->Closed transition is lazy: it
// happens on the next IsOpen check, never on a background timer.
type BreakerRegistry struct {
	mu     sync.Mutex
	cfg    BreakerConfig
	clock  Clock
	log    *zap.Logger
	states map[domain.ProviderID]*breakerState
}

func NewBreakerRegistry(cfg BreakerConfig, clock Clock, log *zap.Logger) *BreakerRegistry {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultBreakerConfig().OpenTimeout
	}
	if clock == nil {
		clock = realClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BreakerRegistry{
		cfg:    cfg,
		clock:  clock,
		log:    log,
		states: make(map[domain.ProviderID]*breakerState),
	}
}

func (r *BreakerRegistry) state(id domain.ProviderID) *breakerState {
	st, ok := r.states[id]
	if !ok {
		st = &breakerState{}
		r.states[id] = st
	}
	return st
}

// IsOpen reports whether calls to the provider should be skipped. If
// the open window has elapsed it resets the breaker before answering.
func (r *BreakerRegistry) IsOpen(id domain.ProviderID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state(id)
	if st.openUntil.IsZero() {
		return false
	}
	now := r.clock.Now()
	if now.Before(st.openUntil) {
		return true
	}
	st.consecutiveFailures = 0
	st.openUntil = time.Time{}
	r.log.Info("breaker_closed", zap.String("provider", string(id)))
	return false
}

// RecordFailure counts a consecutive failure and opens the breaker
// when the threshold is reached. Further failures inside an already
// open window do not extend it.
func (r *BreakerRegistry) RecordFailure(id domain.ProviderID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state(id)
	st.consecutiveFailures++
	if st.consecutiveFailures == r.cfg.FailureThreshold {
		st.openUntil = r.clock.Now().Add(r.cfg.OpenTimeout)
		r.log.Warn("breaker_opened",
			zap.String("provider", string(id)),
			zap.Int("consecutive_failures", st.consecutiveFailures),
			zap.Time("open_until", st.openUntil),
		)
	}
}

// RecordSuccess closes the breaker unconditionally.
func (r *BreakerRegistry) RecordSuccess(id domain.ProviderID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state(id)
	st.consecutiveFailures = 0
	st.openUntil = time.Time{}
}

// Snapshot returns a read-only view for stats reporting. It does not
// perform the lazy reset; an elapsed window simply reads as closed.
func (r *BreakerRegistry) Snapshot() map[domain.ProviderID]BreakerSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	out := make(map[domain.ProviderID]BreakerSnapshot, len(r.states))
	for id, st := range r.states {
		snap := BreakerSnapshot{Failures: st.consecutiveFailures}
		if !st.openUntil.IsZero() {
			snap.Open = now.Before(st.openUntil)
			until := st.openUntil
			snap.OpenUntil = &until
		}
		out[id] = snap
	}
	return out
}
