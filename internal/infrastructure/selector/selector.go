// Package selector picks one binding from a pre-filtered candidate list,
// using one of two weighted strategies: Lottery (weighted random) and
// Rotor (smooth weighted round-robin), instead of always trying
// candidates in storage order.
package selector

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
	"sync"

	"github.com/axgate/llmgw/internal/domain/entity"
)

// Strategy picks one candidate from a non-empty, pre-filtered list.
type Strategy interface {
	Pick(modelID uint, candidates []*entity.Candidate) *entity.Candidate
}

// Lottery samples one candidate with probability proportional to its
// weight, breaking ties (equal cumulative bucket, zero total weight) by
// lowest binding id.
type Lottery struct{}

func (Lottery) Pick(_ uint, candidates []*entity.Candidate) *entity.Candidate {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) == 1 {
		return candidates[0]
	}

	total := 0
	for _, c := range candidates {
		total += c.Binding.EffectiveWeight()
	}
	if total <= 0 {
		return lowestID(candidates)
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(total)))
	target := int64(0)
	if err == nil {
		target = n.Int64()
	}

	cum := int64(0)
	for _, c := range orderedByID(candidates) {
		cum += int64(c.Binding.EffectiveWeight())
		if target < cum {
			return c
		}
	}
	return lowestID(candidates)
}

func lowestID(candidates []*entity.Candidate) *entity.Candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Binding.ID < best.Binding.ID {
			best = c
		}
	}
	return best
}

func orderedByID(candidates []*entity.Candidate) []*entity.Candidate {
	out := make([]*entity.Candidate, len(candidates))
	copy(out, candidates)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Binding.ID < out[j-1].Binding.ID; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Rotor implements smooth weighted round-robin with process-wide,
// per-model cursor state. The cursor is reset automatically whenever
// the candidate set's binding-id composition changes, so stale cursor
// entries never point outside the current candidate list.
type Rotor struct {
	mu       sync.Mutex
	cursors  map[uint]*rotorCursor
}

type rotorCursor struct {
	setHash uint64
	current map[uint]int
}

func NewRotor() *Rotor {
	return &Rotor{cursors: make(map[uint]*rotorCursor)}
}

func (r *Rotor) Pick(modelID uint, candidates []*entity.Candidate) *entity.Candidate {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) == 1 {
		return candidates[0]
	}

	hash := hashBindingSet(candidates)

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.cursors[modelID]
	if !ok || cur.setHash != hash {
		cur = &rotorCursor{setHash: hash, current: make(map[uint]int, len(candidates))}
		r.cursors[modelID] = cur
	}

	total := 0
	var best *entity.Candidate
	bestWeight := 0
	for _, c := range candidates {
		w := c.Binding.EffectiveWeight()
		total += w
		cur.current[c.Binding.ID] += w
		if best == nil || cur.current[c.Binding.ID] > bestWeight ||
			(cur.current[c.Binding.ID] == bestWeight && c.Binding.ID < best.Binding.ID) {
			best = c
			bestWeight = cur.current[c.Binding.ID]
		}
	}

	cur.current[best.Binding.ID] -= total
	return best
}

func hashBindingSet(candidates []*entity.Candidate) uint64 {
	ids := make([]uint, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Binding.ID
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}

	var h uint64 = 14695981039346656037 // FNV offset basis
	buf := make([]byte, 8)
	for _, id := range ids {
		binary.LittleEndian.PutUint64(buf, uint64(id))
		for _, b := range buf {
			h ^= uint64(b)
			h *= 1099511628211 // FNV prime
		}
	}
	return h
}
