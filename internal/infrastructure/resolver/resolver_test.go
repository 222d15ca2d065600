package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/valueobject"
	"github.com/axgate/llmgw/internal/infrastructure/breaker"
	"github.com/axgate/llmgw/internal/infrastructure/cache"
	domainErrors "github.com/axgate/llmgw/pkg/errors"
)

type fakeModels struct{ byName map[string]*entity.Model }

func (f *fakeModels) FindByID(_ context.Context, id uint) (*entity.Model, error) {
	for _, m := range f.byName {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, assertNotFound()
}
func (f *fakeModels) FindByName(_ context.Context, name string) (*entity.Model, error) {
	if m, ok := f.byName[name]; ok {
		return m, nil
	}
	return nil, assertNotFound()
}
func (f *fakeModels) List(context.Context, valueobject.Pagination) ([]*entity.Model, int64, error) {
	return nil, 0, nil
}
func (f *fakeModels) Create(context.Context, *entity.Model) error { return nil }
func (f *fakeModels) Update(context.Context, *entity.Model) error { return nil }
func (f *fakeModels) SoftDelete(context.Context, uint) (int64, error) { return 0, nil }

type fakeBindings struct{ byModel map[uint][]*entity.Binding }

func (f *fakeBindings) FindByID(_ context.Context, id uint) (*entity.Binding, error) {
	for _, list := range f.byModel {
		for _, b := range list {
			if b.ID == id {
				return b, nil
			}
		}
	}
	return nil, assertNotFound()
}
func (f *fakeBindings) ListEnabledForModel(_ context.Context, modelID uint) ([]*entity.Binding, error) {
	return f.byModel[modelID], nil
}
func (f *fakeBindings) List(context.Context, valueobject.Pagination) ([]*entity.Binding, int64, error) {
	return nil, 0, nil
}
func (f *fakeBindings) Create(context.Context, *entity.Binding) error { return nil }
func (f *fakeBindings) Update(context.Context, *entity.Binding) error { return nil }
func (f *fakeBindings) SoftDelete(context.Context, uint) (int64, error) { return 0, nil }

type fakeProviders struct{ byID map[uint]*entity.Provider }

func (f *fakeProviders) FindByID(_ context.Context, id uint) (*entity.Provider, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, assertNotFound()
}
func (f *fakeProviders) FindByName(context.Context, string) (*entity.Provider, error) { return nil, assertNotFound() }
func (f *fakeProviders) List(context.Context, valueobject.Pagination) ([]*entity.Provider, int64, error) {
	return nil, 0, nil
}
func (f *fakeProviders) Create(context.Context, *entity.Provider) error { return nil }
func (f *fakeProviders) Update(context.Context, *entity.Provider) error { return nil }
func (f *fakeProviders) SoftDelete(context.Context, uint) (int64, error) { return 0, nil }

func assertNotFound() error {
	return domainErrors.NewNotFoundError("not found")
}

func TestResolver_FiltersIneligibleBindings(t *testing.T) {
	models := &fakeModels{byName: map[string]*entity.Model{
		"gpt-4": {ID: 1, Name: "gpt-4", Breaker: true},
	}}
	bindings := &fakeBindings{byModel: map[uint][]*entity.Binding{
		1: {
			{ID: 10, ModelID: 1, ProviderID: 100, Status: true, Weight: 1, Capabilities: valueobject.NewCapabilitySet(valueobject.CapabilityToolCall)},
			{ID: 11, ModelID: 1, ProviderID: 100, Status: true, Weight: 1},
		},
	}}
	providers := &fakeProviders{byID: map[uint]*entity.Provider{
		100: {ID: 100, Name: "openai-main"},
	}}

	r := New(models, bindings, providers, cache.NewMemoryStore(), breaker.NewStore(breaker.DefaultConfig()))

	model, candidates, err := r.Resolve(context.Background(), "gpt-4", valueobject.NewCapabilitySet(valueobject.CapabilityToolCall))
	require.NoError(t, err)
	assert.Equal(t, uint(1), model.ID)
	require.Len(t, candidates, 1)
	assert.Equal(t, uint(10), candidates[0].Binding.ID)
}

func TestResolver_UnknownModelIsNotFound(t *testing.T) {
	r := New(&fakeModels{byName: map[string]*entity.Model{}}, &fakeBindings{}, &fakeProviders{}, cache.NewMemoryStore(), breaker.NewStore(breaker.DefaultConfig()))

	_, _, err := r.Resolve(context.Background(), "missing", 0)
	assert.Error(t, err)
}

func TestResolver_CachesCandidateIDsAcrossCalls(t *testing.T) {
	models := &fakeModels{byName: map[string]*entity.Model{
		"gpt-4": {ID: 1, Name: "gpt-4"},
	}}
	bindings := &fakeBindings{byModel: map[uint][]*entity.Binding{
		1: {{ID: 10, ModelID: 1, ProviderID: 100, Status: true, Weight: 1}},
	}}
	providers := &fakeProviders{byID: map[uint]*entity.Provider{100: {ID: 100}}}

	r := New(models, bindings, providers, cache.NewMemoryStore(), breaker.NewStore(breaker.DefaultConfig()))

	_, first, err := r.Resolve(context.Background(), "gpt-4", 0)
	require.NoError(t, err)
	_, second, err := r.Resolve(context.Background(), "gpt-4", 0)
	require.NoError(t, err)

	assert.Equal(t, first[0].Binding.ID, second[0].Binding.ID)
}
