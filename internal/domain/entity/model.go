package entity

import "time"

// Strategy selects how the selector picks among eligible candidates.
type Strategy string

const (
	StrategyLottery Strategy = "lottery"
	StrategyRotor   Strategy = "rotor"
)

// Model is the logical, caller-facing name a request addresses. It fans
// out to one or more Bindings (model-with-provider pairs) via the
// resolver.
type Model struct {
	ID             uint
	Name           string
	Remark         string
	MaxRetry       int // caps attempts across candidates; 0 behaves as 1
	TimeoutSeconds int // bounds the whole request; 0 = no cap
	IOLog          bool
	Strategy       Strategy
	Breaker        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// Live reports whether this model has not been soft-deleted.
func (m *Model) Live() bool {
	return m.DeletedAt == nil
}

// AttemptsCap returns the maximum number of dispatch attempts this model
// allows: attempt_count <= max(1, model.max_retry).
func (m *Model) AttemptsCap() int {
	if m.MaxRetry < 1 {
		return 1
	}
	return m.MaxRetry
}

// Deadline resolves the model's time_out_seconds into an absolute
// deadline from now; ok is false when the model has no timeout.
func (m *Model) Deadline(now time.Time) (deadline time.Time, ok bool) {
	if m.TimeoutSeconds <= 0 {
		return time.Time{}, false
	}
	return now.Add(time.Duration(m.TimeoutSeconds) * time.Second), true
}
