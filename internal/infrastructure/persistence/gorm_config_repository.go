package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/repository"
	"github.com/axgate/llmgw/internal/infrastructure/persistence/models"
	domainErrors "github.com/axgate/llmgw/pkg/errors"
)

// GormConfigRepository is the gorm-backed ConfigRepository.
type GormConfigRepository struct {
	db *gorm.DB
}

func NewGormConfigRepository(db *gorm.DB) repository.ConfigRepository {
	return &GormConfigRepository{db: db}
}

func (r *GormConfigRepository) Get(ctx context.Context, name string) (*entity.ConfigEntry, error) {
	var row models.ConfigModel
	if err := r.db.WithContext(ctx).First(&row, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("config not found")
		}
		return nil, domainErrors.NewInternalError("failed to find config: " + err.Error())
	}
	return row.ToEntity(), nil
}

func (r *GormConfigRepository) Set(ctx context.Context, entry *entity.ConfigEntry) error {
	row := models.ConfigModelFromEntity(entry)
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return domainErrors.NewInternalError("failed to set config: " + err.Error())
	}
	return nil
}
