package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/repository"
	"github.com/axgate/llmgw/internal/domain/valueobject"
	"github.com/axgate/llmgw/internal/infrastructure/persistence/models"
	domainErrors "github.com/axgate/llmgw/pkg/errors"
)

// GormProviderRepository is the gorm-backed ProviderRepository.
type GormProviderRepository struct {
	db *gorm.DB
}

func NewGormProviderRepository(db *gorm.DB) repository.ProviderRepository {
	return &GormProviderRepository{db: db}
}

func (r *GormProviderRepository) FindByID(ctx context.Context, id uint) (*entity.Provider, error) {
	var row models.ProviderModel
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("provider not found")
		}
		return nil, domainErrors.NewInternalError("failed to find provider: " + err.Error())
	}
	return row.ToEntity()
}

func (r *GormProviderRepository) FindByName(ctx context.Context, name string) (*entity.Provider, error) {
	var row models.ProviderModel
	if err := r.db.WithContext(ctx).First(&row, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("provider not found")
		}
		return nil, domainErrors.NewInternalError("failed to find provider: " + err.Error())
	}
	return row.ToEntity()
}

func (r *GormProviderRepository) List(ctx context.Context, p valueobject.Pagination) ([]*entity.Provider, int64, error) {
	var rows []models.ProviderModel
	var total int64
	q := r.db.WithContext(ctx).Model(&models.ProviderModel{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, domainErrors.NewInternalError("failed to count providers: " + err.Error())
	}
	if err := q.Offset(p.Offset()).Limit(p.Limit()).Find(&rows).Error; err != nil {
		return nil, 0, domainErrors.NewInternalError("failed to list providers: " + err.Error())
	}
	out := make([]*entity.Provider, 0, len(rows))
	for i := range rows {
		e, err := rows[i].ToEntity()
		if err != nil {
			return nil, 0, domainErrors.NewInternalErrorWithCause("failed to decode provider", err)
		}
		out = append(out, e)
	}
	return out, total, nil
}

func (r *GormProviderRepository) Create(ctx context.Context, p *entity.Provider) error {
	row, err := models.ProviderModelFromEntity(p)
	if err != nil {
		return domainErrors.NewInternalErrorWithCause("failed to encode provider", err)
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return domainErrors.NewInternalError("failed to create provider: " + err.Error())
	}
	p.ID = row.ID
	return nil
}

func (r *GormProviderRepository) Update(ctx context.Context, p *entity.Provider) error {
	row, err := models.ProviderModelFromEntity(p)
	if err != nil {
		return domainErrors.NewInternalErrorWithCause("failed to encode provider", err)
	}
	if err := r.db.WithContext(ctx).Model(&models.ProviderModel{}).Where("id = ?", p.ID).Updates(row).Error; err != nil {
		return domainErrors.NewInternalError("failed to update provider: " + err.Error())
	}
	return nil
}

func (r *GormProviderRepository) SoftDelete(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.ProviderModel{}, "id = ?", id)
	if result.Error != nil {
		return 0, domainErrors.NewInternalError("failed to delete provider: " + result.Error.Error())
	}
	return result.RowsAffected, nil
}
