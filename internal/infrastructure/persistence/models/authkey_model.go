package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/axgate/llmgw/internal/domain/entity"
)

// AuthKeyModel is the gorm row for entity.AuthKey.
type AuthKeyModel struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:128"`
	Key         string `gorm:"uniqueIndex;size:128"`
	Status      bool
	AllowAll    bool
	ModelsJSON  string `gorm:"type:text"`
	ExpiresAt   *time.Time
	UsageCount  uint64
	LastUsedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (AuthKeyModel) TableName() string { return "auth_keys" }

func (m *AuthKeyModel) ToEntity() (*entity.AuthKey, error) {
	var names []string
	if m.ModelsJSON != "" {
		if err := json.Unmarshal([]byte(m.ModelsJSON), &names); err != nil {
			return nil, err
		}
	}
	models := make(map[string]struct{}, len(names))
	for _, n := range names {
		models[n] = struct{}{}
	}
	e := &entity.AuthKey{
		ID:         m.ID,
		Name:       m.Name,
		Key:        m.Key,
		Status:     m.Status,
		AllowAll:   m.AllowAll,
		Models:     models,
		ExpiresAt:  m.ExpiresAt,
		UsageCount: m.UsageCount,
		LastUsedAt: m.LastUsedAt,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		e.DeletedAt = &t
	}
	return e, nil
}

func AuthKeyModelFromEntity(e *entity.AuthKey) (*AuthKeyModel, error) {
	names := make([]string, 0, len(e.Models))
	for n := range e.Models {
		names = append(names, n)
	}
	namesJSON, err := json.Marshal(names)
	if err != nil {
		return nil, err
	}
	return &AuthKeyModel{
		ID:         e.ID,
		Name:       e.Name,
		Key:        e.Key,
		Status:     e.Status,
		AllowAll:   e.AllowAll,
		ModelsJSON: string(namesJSON),
		ExpiresAt:  e.ExpiresAt,
		UsageCount: e.UsageCount,
		LastUsedAt: e.LastUsedAt,
	}, nil
}
