package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/axgate/llmgw/internal/domain/entity"
)

// ProviderModel is the gorm row for entity.Provider.
type ProviderModel struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string `gorm:"uniqueIndex:idx_provider_name_live,size:128"`
	Type          string `gorm:"size:32;not null"`
	ConfigJSON    string `gorm:"type:text"`
	ConsoleURL    string `gorm:"size:255"`
	RPMLimit      int
	IPLockMinutes int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (ProviderModel) TableName() string { return "providers" }

// ToEntity converts the row into a domain entity, parsing the opaque
// config JSON.
func (m *ProviderModel) ToEntity() (*entity.Provider, error) {
	var cfg entity.ProviderConfig
	if m.ConfigJSON != "" {
		if err := json.Unmarshal([]byte(m.ConfigJSON), &cfg); err != nil {
			return nil, err
		}
	}
	p := &entity.Provider{
		ID:            m.ID,
		Name:          m.Name,
		Type:          entity.ProviderType(m.Type),
		Config:        cfg,
		ConsoleURL:    m.ConsoleURL,
		RPMLimit:      m.RPMLimit,
		IPLockMinutes: m.IPLockMinutes,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		p.DeletedAt = &t
	}
	return p, nil
}

// ProviderModelFromEntity projects a domain entity into a gorm row.
func ProviderModelFromEntity(p *entity.Provider) (*ProviderModel, error) {
	cfgJSON, err := json.Marshal(p.Config)
	if err != nil {
		return nil, err
	}
	return &ProviderModel{
		ID:            p.ID,
		Name:          p.Name,
		Type:          string(p.Type),
		ConfigJSON:    string(cfgJSON),
		ConsoleURL:    p.ConsoleURL,
		RPMLimit:      p.RPMLimit,
		IPLockMinutes: p.IPLockMinutes,
	}, nil
}
