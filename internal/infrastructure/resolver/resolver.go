// Package resolver turns a (model name, required capabilities) request
// into the ordered candidate list the selector and dispatcher consume,
// via a full model → bindings → providers join with capability
// filtering and cache-backed reads.
package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/repository"
	"github.com/axgate/llmgw/internal/domain/valueobject"
	"github.com/axgate/llmgw/internal/infrastructure/breaker"
	"github.com/axgate/llmgw/internal/infrastructure/cache"
	domainErrors "github.com/axgate/llmgw/pkg/errors"
)

const (
	namespaceModels   = "models"
	namespaceBindings = "bindings"
)

// Resolver loads the live candidate pool for a model, cache-first.
type Resolver struct {
	models    repository.ModelRepository
	bindings  repository.BindingRepository
	providers repository.ProviderRepository
	store     cache.Store
	health    *breaker.Store
}

func New(models repository.ModelRepository, bindings repository.BindingRepository, providers repository.ProviderRepository, store cache.Store, health *breaker.Store) *Resolver {
	return &Resolver{models: models, bindings: bindings, providers: providers, store: store, health: health}
}

// Resolve returns the live model and its ordered, capability-filtered
// candidate list for reqCaps.
func (r *Resolver) Resolve(ctx context.Context, modelName string, reqCaps valueobject.CapabilitySet) (*entity.Model, []*entity.Candidate, error) {
	model, err := r.loadModel(ctx, modelName)
	if err != nil {
		return nil, nil, err
	}
	if !model.Live() {
		return nil, nil, domainErrors.NewNotFoundError("model not found: " + modelName)
	}

	candidates, err := r.loadCandidates(ctx, model, reqCaps)
	if err != nil {
		return nil, nil, err
	}
	return model, candidates, nil
}

func (r *Resolver) loadModel(ctx context.Context, modelName string) (*entity.Model, error) {
	var cached entity.Model
	if ok, err := r.store.GetJSON(ctx, namespaceModels, modelName, &cached); err == nil && ok {
		return &cached, nil
	}

	model, err := r.models.FindByName(ctx, modelName)
	if err != nil {
		return nil, err
	}
	_ = r.store.SetJSON(ctx, namespaceModels, modelName, model, 0)
	return model, nil
}

func (r *Resolver) loadCandidates(ctx context.Context, model *entity.Model, reqCaps valueobject.CapabilitySet) ([]*entity.Candidate, error) {
	cacheKey := fmt.Sprintf("%d:%d", model.ID, reqCaps)

	var cachedIDs []uint
	if ok, err := r.store.GetJSON(ctx, namespaceBindings, cacheKey, &cachedIDs); err == nil && ok {
		return r.hydrateByIDs(ctx, cachedIDs)
	}

	bindings, err := r.bindings.ListEnabledForModel(ctx, model.ID)
	if err != nil {
		return nil, err
	}

	candidates := make([]*entity.Candidate, 0, len(bindings))
	for _, b := range bindings {
		if !b.Eligible(reqCaps) {
			continue
		}
		provider, err := r.providers.FindByID(ctx, b.ProviderID)
		if err != nil {
			if domainErrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if !provider.Live() {
			continue
		}
		candidates = append(candidates, &entity.Candidate{
			Binding:  b,
			Provider: provider,
			Model:    model,
			Stats:    toEntityStats(r.health.Snapshot(b.ID, model.Breaker)),
		})
	}

	// Candidates are returned by binding id descending; since ids are
	// unique, this sort replaces the storage (id ascending) order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Binding.ID > candidates[j].Binding.ID
	})

	ids := make([]uint, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Binding.ID
	}
	_ = r.store.SetJSON(ctx, namespaceBindings, cacheKey, ids, 0)

	return candidates, nil
}

func (r *Resolver) hydrateByIDs(ctx context.Context, ids []uint) ([]*entity.Candidate, error) {
	candidates := make([]*entity.Candidate, 0, len(ids))
	for _, id := range ids {
		b, err := r.bindings.FindByID(ctx, id)
		if err != nil {
			if domainErrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if !b.Live() || !b.Status {
			continue
		}
		provider, err := r.providers.FindByID(ctx, b.ProviderID)
		if err != nil {
			if domainErrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		model, err := r.models.FindByID(ctx, b.ModelID)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, &entity.Candidate{
			Binding:  b,
			Provider: provider,
			Model:    model,
			Stats:    toEntityStats(r.health.Snapshot(b.ID, model.Breaker)),
		})
	}
	return candidates, nil
}

func toEntityStats(s breaker.Stats) entity.BindingStats {
	return entity.BindingStats{
		SuccessRate: s.SuccessRate,
		Samples:     s.Samples,
		LastError:   s.LastError,
		BreakerOpen: s.BreakerOpen,
	}
}
