package repository

import (
	"context"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/valueobject"
)

// ProviderRepository is typed storage access for Provider entities.
// Implementations never silently substitute an empty result for a
// storage error.
type ProviderRepository interface {
	FindByID(ctx context.Context, id uint) (*entity.Provider, error)
	FindByName(ctx context.Context, name string) (*entity.Provider, error)
	List(ctx context.Context, p valueobject.Pagination) ([]*entity.Provider, int64, error)
	Create(ctx context.Context, prov *entity.Provider) error
	Update(ctx context.Context, prov *entity.Provider) error
	SoftDelete(ctx context.Context, id uint) (rowCount int64, err error)
}
