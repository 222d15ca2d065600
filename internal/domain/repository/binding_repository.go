package repository

import (
	"context"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/valueobject"
)

// BindingRepository is typed storage access for Binding entities.
type BindingRepository interface {
	FindByID(ctx context.Context, id uint) (*entity.Binding, error)
	// ListEnabledForModel returns live, admin-enabled bindings for a model,
	// in storage order (resolver applies its own stable tie-break).
	ListEnabledForModel(ctx context.Context, modelID uint) ([]*entity.Binding, error)
	List(ctx context.Context, p valueobject.Pagination) ([]*entity.Binding, int64, error)
	Create(ctx context.Context, b *entity.Binding) error
	Update(ctx context.Context, b *entity.Binding) error
	SoftDelete(ctx context.Context, id uint) (rowCount int64, err error)
}
