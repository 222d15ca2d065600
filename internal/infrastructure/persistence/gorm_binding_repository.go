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

// GormBindingRepository is the gorm-backed BindingRepository.
type GormBindingRepository struct {
	db *gorm.DB
}

func NewGormBindingRepository(db *gorm.DB) repository.BindingRepository {
	return &GormBindingRepository{db: db}
}

func (r *GormBindingRepository) FindByID(ctx context.Context, id uint) (*entity.Binding, error) {
	var row models.BindingModel
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("binding not found")
		}
		return nil, domainErrors.NewInternalError("failed to find binding: " + err.Error())
	}
	return row.ToEntity()
}

func (r *GormBindingRepository) ListEnabledForModel(ctx context.Context, modelID uint) ([]*entity.Binding, error) {
	var rows []models.BindingModel
	if err := r.db.WithContext(ctx).
		Where("model_id = ? AND status = ?", modelID, true).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, domainErrors.NewInternalError("failed to list bindings: " + err.Error())
	}
	out := make([]*entity.Binding, 0, len(rows))
	for i := range rows {
		e, err := rows[i].ToEntity()
		if err != nil {
			return nil, domainErrors.NewInternalErrorWithCause("failed to decode binding", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *GormBindingRepository) List(ctx context.Context, p valueobject.Pagination) ([]*entity.Binding, int64, error) {
	var rows []models.BindingModel
	var total int64
	q := r.db.WithContext(ctx).Model(&models.BindingModel{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, domainErrors.NewInternalError("failed to count bindings: " + err.Error())
	}
	if err := q.Offset(p.Offset()).Limit(p.Limit()).Find(&rows).Error; err != nil {
		return nil, 0, domainErrors.NewInternalError("failed to list bindings: " + err.Error())
	}
	out := make([]*entity.Binding, 0, len(rows))
	for i := range rows {
		e, err := rows[i].ToEntity()
		if err != nil {
			return nil, 0, domainErrors.NewInternalErrorWithCause("failed to decode binding", err)
		}
		out = append(out, e)
	}
	return out, total, nil
}

func (r *GormBindingRepository) Create(ctx context.Context, b *entity.Binding) error {
	row, err := models.BindingModelFromEntity(b)
	if err != nil {
		return domainErrors.NewInternalErrorWithCause("failed to encode binding", err)
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return domainErrors.NewInternalError("failed to create binding: " + err.Error())
	}
	b.ID = row.ID
	return nil
}

func (r *GormBindingRepository) Update(ctx context.Context, b *entity.Binding) error {
	row, err := models.BindingModelFromEntity(b)
	if err != nil {
		return domainErrors.NewInternalErrorWithCause("failed to encode binding", err)
	}
	if err := r.db.WithContext(ctx).Model(&models.BindingModel{}).Where("id = ?", b.ID).Updates(row).Error; err != nil {
		return domainErrors.NewInternalError("failed to update binding: " + err.Error())
	}
	return nil
}

func (r *GormBindingRepository) SoftDelete(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.BindingModel{}, "id = ?", id)
	if result.Error != nil {
		return 0, domainErrors.NewInternalError("failed to delete binding: " + result.Error.Error())
	}
	return result.RowsAffected, nil
}
