package repository

import (
	"context"

	"github.com/axgate/llmgw/internal/domain/entity"
)

// ConfigRepository is typed storage access for the opaque, name-keyed
// configs table consumed by adapters.
type ConfigRepository interface {
	Get(ctx context.Context, name string) (*entity.ConfigEntry, error)
	Set(ctx context.Context, entry *entity.ConfigEntry) error
}
