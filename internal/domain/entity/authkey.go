package entity

import "time"

// AuthKey is a bearer credential authorizing a bounded set of models (or
// all of them via AllowAll).
type AuthKey struct {
	ID          uint
	Name        string
	Key         string
	Status      bool
	AllowAll    bool
	Models      map[string]struct{}
	ExpiresAt   *time.Time
	UsageCount  uint64
	LastUsedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// Live reports whether this key has not been soft-deleted.
func (k *AuthKey) Live() bool {
	return k.DeletedAt == nil
}

// Authorizes reports whether this key may be used to call modelName right
// now: status ∧ (expires_at is null ∨ now < expires_at) ∧
// (allow_all ∨ name ∈ models).
func (k *AuthKey) Authorizes(modelName string, now time.Time) bool {
	if !k.Status || !k.Live() {
		return false
	}
	if k.ExpiresAt != nil && !now.Before(*k.ExpiresAt) {
		return false
	}
	if k.AllowAll {
		return true
	}
	_, ok := k.Models[modelName]
	return ok
}
