package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axgate/llmgw/internal/domain/entity"
)

func candidate(id uint, weight int) *entity.Candidate {
	return &entity.Candidate{Binding: &entity.Binding{ID: id, Weight: weight}}
}

func TestLottery_SingleCandidate(t *testing.T) {
	c := candidate(1, 5)
	got := Lottery{}.Pick(1, []*entity.Candidate{c})
	assert.Same(t, c, got)
}

func TestLottery_ZeroWeightsTreatedAsOne(t *testing.T) {
	candidates := []*entity.Candidate{candidate(3, 0), candidate(1, 0), candidate(2, 0)}
	got := Lottery{}.Pick(1, candidates)
	require.NotNil(t, got)
	counts := map[uint]int{got.Binding.ID: 1}
	for i := 0; i < 299; i++ {
		counts[Lottery{}.Pick(1, candidates).Binding.ID]++
	}
	assert.Len(t, counts, 3, "all-zero weights each count as weight 1, so every candidate gets picked")
}

func TestLottery_DistributionFavorsHigherWeight(t *testing.T) {
	candidates := []*entity.Candidate{candidate(1, 1), candidate(2, 99)}
	counts := map[uint]int{}
	for i := 0; i < 500; i++ {
		got := Lottery{}.Pick(1, candidates)
		counts[got.Binding.ID]++
	}
	assert.Greater(t, counts[2], counts[1], "the heavily-weighted binding should be picked far more often")
}

func TestRotor_DistributesProportionallyToWeight(t *testing.T) {
	r := NewRotor()
	candidates := []*entity.Candidate{candidate(1, 1), candidate(2, 2)}

	counts := map[uint]int{}
	for i := 0; i < 9; i++ {
		got := r.Pick(1, candidates)
		counts[got.Binding.ID]++
	}
	assert.Equal(t, 3, counts[1])
	assert.Equal(t, 6, counts[2])
}

func TestRotor_ResetsCursorWhenCandidateSetChanges(t *testing.T) {
	r := NewRotor()
	first := []*entity.Candidate{candidate(1, 1), candidate(2, 1)}
	r.Pick(1, first)

	second := []*entity.Candidate{candidate(3, 1), candidate(4, 1)}
	got := r.Pick(1, second)
	assert.Contains(t, []uint{3, 4}, got.Binding.ID)
}

func TestRotor_IndependentPerModel(t *testing.T) {
	r := NewRotor()
	candidates := []*entity.Candidate{candidate(1, 1), candidate(2, 1)}

	firstForModelA := r.Pick(10, candidates)
	firstForModelB := r.Pick(20, candidates)
	assert.Equal(t, firstForModelA.Binding.ID, firstForModelB.Binding.ID, "fresh cursors for each model should both pick the same first candidate")
}
