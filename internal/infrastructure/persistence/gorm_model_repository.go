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

// GormModelRepository is the gorm-backed ModelRepository.
type GormModelRepository struct {
	db *gorm.DB
}

func NewGormModelRepository(db *gorm.DB) repository.ModelRepository {
	return &GormModelRepository{db: db}
}

func (r *GormModelRepository) FindByID(ctx context.Context, id uint) (*entity.Model, error) {
	var row models.ModelModel
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("model not found")
		}
		return nil, domainErrors.NewInternalError("failed to find model: " + err.Error())
	}
	return row.ToEntity(), nil
}

func (r *GormModelRepository) FindByName(ctx context.Context, name string) (*entity.Model, error) {
	var row models.ModelModel
	if err := r.db.WithContext(ctx).First(&row, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("model not found")
		}
		return nil, domainErrors.NewInternalError("failed to find model: " + err.Error())
	}
	return row.ToEntity(), nil
}

func (r *GormModelRepository) List(ctx context.Context, p valueobject.Pagination) ([]*entity.Model, int64, error) {
	var rows []models.ModelModel
	var total int64
	q := r.db.WithContext(ctx).Model(&models.ModelModel{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, domainErrors.NewInternalError("failed to count models: " + err.Error())
	}
	if err := q.Offset(p.Offset()).Limit(p.Limit()).Find(&rows).Error; err != nil {
		return nil, 0, domainErrors.NewInternalError("failed to list models: " + err.Error())
	}
	out := make([]*entity.Model, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToEntity())
	}
	return out, total, nil
}

func (r *GormModelRepository) Create(ctx context.Context, m *entity.Model) error {
	row := models.ModelModelFromEntity(m)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return domainErrors.NewInternalError("failed to create model: " + err.Error())
	}
	m.ID = row.ID
	return nil
}

func (r *GormModelRepository) Update(ctx context.Context, m *entity.Model) error {
	row := models.ModelModelFromEntity(m)
	if err := r.db.WithContext(ctx).Model(&models.ModelModel{}).Where("id = ?", m.ID).Updates(row).Error; err != nil {
		return domainErrors.NewInternalError("failed to update model: " + err.Error())
	}
	return nil
}

func (r *GormModelRepository) SoftDelete(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.ModelModel{}, "id = ?", id)
	if result.Error != nil {
		return 0, domainErrors.NewInternalError("failed to delete model: " + result.Error.Error())
	}
	return result.RowsAffected, nil
}
