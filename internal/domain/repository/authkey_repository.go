package repository

import (
	"context"
	"time"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/valueobject"
)

// AuthKeyRepository is typed storage access for AuthKey entities.
type AuthKeyRepository interface {
	FindByID(ctx context.Context, id uint) (*entity.AuthKey, error)
	FindByKey(ctx context.Context, key string) (*entity.AuthKey, error)
	List(ctx context.Context, p valueobject.Pagination) ([]*entity.AuthKey, int64, error)
	Create(ctx context.Context, k *entity.AuthKey) error
	Update(ctx context.Context, k *entity.AuthKey) error
	SoftDelete(ctx context.Context, id uint) (rowCount int64, err error)
	// RecordUsage atomically bumps usage_count and sets last_used_at,
	// the post-dispatch admission-context side effect.
	RecordUsage(ctx context.Context, id uint, at time.Time) error
}
