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

// GormChatLogRepository is the gorm-backed ChatLogRepository.
type GormChatLogRepository struct {
	db *gorm.DB
}

func NewGormChatLogRepository(db *gorm.DB) repository.ChatLogRepository {
	return &GormChatLogRepository{db: db}
}

func (r *GormChatLogRepository) Create(ctx context.Context, log *entity.ChatLog) (uint, error) {
	row := models.ChatLogModelFromEntity(log)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return 0, domainErrors.NewInternalError("failed to create chat log: " + err.Error())
	}
	return row.ID, nil
}

func (r *GormChatLogRepository) List(ctx context.Context, p valueobject.Pagination) ([]*entity.ChatLog, int64, error) {
	var rows []models.ChatLogModel
	var total int64
	q := r.db.WithContext(ctx).Model(&models.ChatLogModel{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, domainErrors.NewInternalError("failed to count chat logs: " + err.Error())
	}
	if err := q.Order("created_at DESC").Offset(p.Offset()).Limit(p.Limit()).Find(&rows).Error; err != nil {
		return nil, 0, domainErrors.NewInternalError("failed to list chat logs: " + err.Error())
	}
	out := make([]*entity.ChatLog, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToEntity())
	}
	return out, total, nil
}

func (r *GormChatLogRepository) Cleanup(ctx context.Context, spec repository.CleanupSpec) (int64, error) {
	var result *gorm.DB
	switch spec.Type {
	case "age":
		cutoff := time.Now().UTC().AddDate(0, 0, -int(spec.Value))
		result = r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.ChatLogModel{})
	case "count":
		var keepIDs []uint
		if err := r.db.WithContext(ctx).Model(&models.ChatLogModel{}).
			Order("created_at DESC").Limit(int(spec.Value)).Pluck("id", &keepIDs).Error; err != nil {
			return 0, domainErrors.NewInternalError("failed to resolve cleanup watermark: " + err.Error())
		}
		q := r.db.WithContext(ctx)
		if len(keepIDs) > 0 {
			q = q.Where("id NOT IN ?", keepIDs)
		}
		result = q.Delete(&models.ChatLogModel{})
	default:
		return 0, domainErrors.NewInvalidInputError("unknown cleanup spec type: " + spec.Type)
	}
	if result.Error != nil {
		return 0, domainErrors.NewInternalError("failed to cleanup chat logs: " + result.Error.Error())
	}
	liveIDs := r.db.WithContext(ctx).Model(&models.ChatLogModel{}).Select("id")
	if err := r.db.WithContext(ctx).Where("log_id NOT IN (?)", liveIDs).Delete(&models.ChatIOModel{}).Error; err != nil {
		return 0, domainErrors.NewInternalError("failed to cleanup orphaned chat io: " + err.Error())
	}
	return result.RowsAffected, nil
}

func (r *GormChatLogRepository) Recent(ctx context.Context, providerModel string, limit int) ([]*entity.ChatLog, error) {
	var rows []models.ChatLogModel
	if err := r.db.WithContext(ctx).
		Where("provider_model = ?", providerModel).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, domainErrors.NewInternalError("failed to fetch recent chat logs: " + err.Error())
	}
	out := make([]*entity.ChatLog, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToEntity())
	}
	return out, nil
}

// GormChatIORepository is the gorm-backed ChatIORepository.
type GormChatIORepository struct {
	db *gorm.DB
}

func NewGormChatIORepository(db *gorm.DB) repository.ChatIORepository {
	return &GormChatIORepository{db: db}
}

func (r *GormChatIORepository) Create(ctx context.Context, io *entity.ChatIO) error {
	row := models.ChatIOModelFromEntity(io)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return domainErrors.NewInternalError("failed to create chat io: " + err.Error())
	}
	return nil
}

func (r *GormChatIORepository) FindByLogID(ctx context.Context, logID uint) (*entity.ChatIO, error) {
	var row models.ChatIOModel
	if err := r.db.WithContext(ctx).First(&row, "log_id = ?", logID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("chat io not found")
		}
		return nil, domainErrors.NewInternalError("failed to find chat io: " + err.Error())
	}
	return row.ToEntity(), nil
}
