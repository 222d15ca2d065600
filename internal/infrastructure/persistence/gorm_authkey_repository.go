package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/repository"
	"github.com/axgate/llmgw/internal/domain/valueobject"
	"github.com/axgate/llmgw/internal/infrastructure/persistence/models"
	domainErrors "github.com/axgate/llmgw/pkg/errors"
)

// GormAuthKeyRepository is the gorm-backed AuthKeyRepository.
type GormAuthKeyRepository struct {
	db *gorm.DB
}

func NewGormAuthKeyRepository(db *gorm.DB) repository.AuthKeyRepository {
	return &GormAuthKeyRepository{db: db}
}

func (r *GormAuthKeyRepository) FindByID(ctx context.Context, id uint) (*entity.AuthKey, error) {
	var row models.AuthKeyModel
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("auth key not found")
		}
		return nil, domainErrors.NewInternalError("failed to find auth key: " + err.Error())
	}
	return row.ToEntity()
}

func (r *GormAuthKeyRepository) FindByKey(ctx context.Context, key string) (*entity.AuthKey, error) {
	var row models.AuthKeyModel
	if err := r.db.WithContext(ctx).First(&row, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("auth key not found")
		}
		return nil, domainErrors.NewInternalError("failed to find auth key: " + err.Error())
	}
	return row.ToEntity()
}

func (r *GormAuthKeyRepository) List(ctx context.Context, p valueobject.Pagination) ([]*entity.AuthKey, int64, error) {
	var rows []models.AuthKeyModel
	var total int64
	q := r.db.WithContext(ctx).Model(&models.AuthKeyModel{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, domainErrors.NewInternalError("failed to count auth keys: " + err.Error())
	}
	if err := q.Offset(p.Offset()).Limit(p.Limit()).Find(&rows).Error; err != nil {
		return nil, 0, domainErrors.NewInternalError("failed to list auth keys: " + err.Error())
	}
	out := make([]*entity.AuthKey, 0, len(rows))
	for i := range rows {
		e, err := rows[i].ToEntity()
		if err != nil {
			return nil, 0, domainErrors.NewInternalErrorWithCause("failed to decode auth key", err)
		}
		out = append(out, e)
	}
	return out, total, nil
}

func (r *GormAuthKeyRepository) Create(ctx context.Context, k *entity.AuthKey) error {
	row, err := models.AuthKeyModelFromEntity(k)
	if err != nil {
		return domainErrors.NewInternalErrorWithCause("failed to encode auth key", err)
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return domainErrors.NewInternalError("failed to create auth key: " + err.Error())
	}
	k.ID = row.ID
	return nil
}

func (r *GormAuthKeyRepository) Update(ctx context.Context, k *entity.AuthKey) error {
	row, err := models.AuthKeyModelFromEntity(k)
	if err != nil {
		return domainErrors.NewInternalErrorWithCause("failed to encode auth key", err)
	}
	if err := r.db.WithContext(ctx).Model(&models.AuthKeyModel{}).Where("id = ?", k.ID).Updates(row).Error; err != nil {
		return domainErrors.NewInternalError("failed to update auth key: " + err.Error())
	}
	return nil
}

func (r *GormAuthKeyRepository) SoftDelete(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.AuthKeyModel{}, "id = ?", id)
	if result.Error != nil {
		return 0, domainErrors.NewInternalError("failed to delete auth key: " + result.Error.Error())
	}
	return result.RowsAffected, nil
}

func (r *GormAuthKeyRepository) RecordUsage(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.AuthKeyModel{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"usage_count":  gorm.Expr("usage_count + 1"),
			"last_used_at": at,
		}).Error
	if err != nil {
		return domainErrors.NewInternalError("failed to record auth key usage: " + err.Error())
	}
	return nil
}
