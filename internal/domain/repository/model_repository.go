package repository

import (
	"context"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/valueobject"
)

// ModelRepository is typed storage access for logical Model entities.
type ModelRepository interface {
	FindByID(ctx context.Context, id uint) (*entity.Model, error)
	FindByName(ctx context.Context, name string) (*entity.Model, error)
	List(ctx context.Context, p valueobject.Pagination) ([]*entity.Model, int64, error)
	Create(ctx context.Context, m *entity.Model) error
	Update(ctx context.Context, m *entity.Model) error
	SoftDelete(ctx context.Context, id uint) (rowCount int64, err error)
}
