package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/axgate/llmgw/internal/domain/entity"
)

// ModelModel is the gorm row for entity.Model.
type ModelModel struct {
	ID             uint   `gorm:"primaryKey"`
	Name           string `gorm:"uniqueIndex:idx_model_name,size:128"`
	Remark         string `gorm:"size:255"`
	MaxRetry       int
	TimeoutSeconds int
	IOLog          bool
	Strategy       string `gorm:"size:16"`
	Breaker        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (ModelModel) TableName() string { return "models" }

func (m *ModelModel) ToEntity() *entity.Model {
	e := &entity.Model{
		ID:             m.ID,
		Name:           m.Name,
		Remark:         m.Remark,
		MaxRetry:       m.MaxRetry,
		TimeoutSeconds: m.TimeoutSeconds,
		IOLog:          m.IOLog,
		Strategy:       entity.Strategy(m.Strategy),
		Breaker:        m.Breaker,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		e.DeletedAt = &t
	}
	return e
}

func ModelModelFromEntity(e *entity.Model) *ModelModel {
	return &ModelModel{
		ID:             e.ID,
		Name:           e.Name,
		Remark:         e.Remark,
		MaxRetry:       e.MaxRetry,
		TimeoutSeconds: e.TimeoutSeconds,
		IOLog:          e.IOLog,
		Strategy:       string(e.Strategy),
		Breaker:        e.Breaker,
	}
}
