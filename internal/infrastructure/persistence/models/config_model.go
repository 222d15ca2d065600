package models

import "github.com/axgate/llmgw/internal/domain/entity"

// ConfigModel is the gorm row for entity.ConfigEntry: an opaque,
// name-keyed JSON blob consumed by dialect adapters.
type ConfigModel struct {
	Name  string `gorm:"primaryKey;size:128"`
	Value string `gorm:"type:text"`
}

func (ConfigModel) TableName() string { return "configs" }

func (m *ConfigModel) ToEntity() *entity.ConfigEntry {
	return &entity.ConfigEntry{Name: m.Name, Value: []byte(m.Value)}
}

func ConfigModelFromEntity(e *entity.ConfigEntry) *ConfigModel {
	return &ConfigModel{Name: e.Name, Value: string(e.Value)}
}
