package entity

import (
	"time"

	"github.com/axgate/llmgw/internal/domain/valueobject"
)

// Binding ties a logical Model to a physical upstream: which Provider to
// call, and what the upstream calls that model. Weight feeds the
// selector; capabilities gate candidate eligibility.
type Binding struct {
	ID              uint
	ModelID         uint
	ProviderID      uint
	ProviderModel   string
	Capabilities    valueobject.CapabilitySet
	WithHeader      bool
	CustomerHeaders map[string]string
	Status          bool // admin-enabled
	Weight          int  // >= 1
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// Live reports whether this binding has not been soft-deleted.
func (b *Binding) Live() bool {
	return b.DeletedAt == nil
}

// Eligible reports whether this binding is usable for a request requiring
// reqCaps: admin-enabled, live, and capability-satisfying.
func (b *Binding) Eligible(reqCaps valueobject.CapabilitySet) bool {
	return b.Status && b.Live() && b.Capabilities.Satisfies(reqCaps)
}

// EffectiveWeight returns the binding's weight, treating a non-positive
// stored weight as 1 (selector invariant: weights are always >= 1).
func (b *Binding) EffectiveWeight() int {
	if b.Weight < 1 {
		return 1
	}
	return b.Weight
}

// Candidate is a binding admitted by the resolver for the current
// request, paired with its owning provider, model, and live health
// statistics.
type Candidate struct {
	Binding  *Binding
	Provider *Provider
	Model    *Model
	Stats    BindingStats
}

// BindingStats is the resolver-attached view of a candidate's recent
// health, sourced from the breaker/health store (component F).
type BindingStats struct {
	SuccessRate float64
	Samples     int
	LastError   string
	BreakerOpen bool
}
