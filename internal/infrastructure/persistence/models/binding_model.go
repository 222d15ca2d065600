package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/valueobject"
)

// BindingModel is the gorm row for entity.Binding.
type BindingModel struct {
	ID                  uint `gorm:"primaryKey"`
	ModelID             uint `gorm:"index:idx_binding_model_enabled"`
	ProviderID          uint `gorm:"index"`
	ProviderModel       string `gorm:"size:128"`
	Capabilities        uint8
	WithHeader          bool
	CustomerHeadersJSON string `gorm:"type:text"`
	Status              bool   `gorm:"index:idx_binding_model_enabled"`
	Weight              int
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           gorm.DeletedAt `gorm:"index"`
}

func (BindingModel) TableName() string { return "bindings" }

func (m *BindingModel) ToEntity() (*entity.Binding, error) {
	headers := map[string]string{}
	if m.CustomerHeadersJSON != "" {
		if err := json.Unmarshal([]byte(m.CustomerHeadersJSON), &headers); err != nil {
			return nil, err
		}
	}
	e := &entity.Binding{
		ID:              m.ID,
		ModelID:         m.ModelID,
		ProviderID:      m.ProviderID,
		ProviderModel:   m.ProviderModel,
		Capabilities:    valueobject.CapabilitySet(m.Capabilities),
		WithHeader:      m.WithHeader,
		CustomerHeaders: headers,
		Status:          m.Status,
		Weight:          m.Weight,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		e.DeletedAt = &t
	}
	return e, nil
}

func BindingModelFromEntity(e *entity.Binding) (*BindingModel, error) {
	headersJSON, err := json.Marshal(e.CustomerHeaders)
	if err != nil {
		return nil, err
	}
	return &BindingModel{
		ID:                  e.ID,
		ModelID:             e.ModelID,
		ProviderID:          e.ProviderID,
		ProviderModel:       e.ProviderModel,
		Capabilities:        uint8(e.Capabilities),
		WithHeader:          e.WithHeader,
		CustomerHeadersJSON: string(headersJSON),
		Status:              e.Status,
		Weight:              e.Weight,
	}, nil
}
