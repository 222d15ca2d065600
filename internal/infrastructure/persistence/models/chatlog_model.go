package models

import (
	"time"

	"github.com/axgate/llmgw/internal/domain/entity"
)

// ChatLogModel is the gorm row for entity.ChatLog. Never soft-deleted
// through the normal lifecycle: rows are hard-deleted by Cleanup.
type ChatLogModel struct {
	ID                uint `gorm:"primaryKey"`
	CreatedAt         time.Time `gorm:"index"`
	AuthKeyID         uint   `gorm:"index"`
	ModelName         string `gorm:"size:128;index"`
	ProviderName      string `gorm:"size:128"`
	ProviderModel     string `gorm:"size:128;index:idx_chatlog_provider_model"`
	Dialect           string `gorm:"size:16"`
	Status            string `gorm:"size:16"`
	UserAgent         string `gorm:"size:255"`
	RemoteIP          string `gorm:"size:64"`
	Error             string `gorm:"type:text"`
	RetryCount        int
	ProxyMs           int64
	FirstChunkMs      int64
	ChunkMs           int64
	TPS               float64
	IORecorded        bool
	ResponseSizeBytes int64
	PromptTokens      int
	CompletionTokens  int
	TotalTokens       int
	CachedTokens      *int
}

func (ChatLogModel) TableName() string { return "chat_logs" }

func (m *ChatLogModel) ToEntity() *entity.ChatLog {
	return &entity.ChatLog{
		ID:                m.ID,
		CreatedAt:         m.CreatedAt,
		AuthKeyID:         m.AuthKeyID,
		ModelName:         m.ModelName,
		ProviderName:      m.ProviderName,
		ProviderModel:     m.ProviderModel,
		Dialect:           m.Dialect,
		Status:            entity.ChatLogStatus(m.Status),
		UserAgent:         m.UserAgent,
		RemoteIP:          m.RemoteIP,
		Error:             m.Error,
		RetryCount:        m.RetryCount,
		ProxyMs:           m.ProxyMs,
		FirstChunkMs:      m.FirstChunkMs,
		ChunkMs:           m.ChunkMs,
		TPS:               m.TPS,
		IORecorded:        m.IORecorded,
		ResponseSizeBytes: m.ResponseSizeBytes,
		PromptTokens:      m.PromptTokens,
		CompletionTokens:  m.CompletionTokens,
		TotalTokens:       m.TotalTokens,
		CachedTokens:      m.CachedTokens,
	}
}

func ChatLogModelFromEntity(e *entity.ChatLog) *ChatLogModel {
	return &ChatLogModel{
		ID:                e.ID,
		AuthKeyID:         e.AuthKeyID,
		ModelName:         e.ModelName,
		ProviderName:      e.ProviderName,
		ProviderModel:     e.ProviderModel,
		Dialect:           e.Dialect,
		Status:            string(e.Status),
		UserAgent:         e.UserAgent,
		RemoteIP:          e.RemoteIP,
		Error:             e.Error,
		RetryCount:        e.RetryCount,
		ProxyMs:           e.ProxyMs,
		FirstChunkMs:      e.FirstChunkMs,
		ChunkMs:           e.ChunkMs,
		TPS:               e.TPS,
		IORecorded:        e.IORecorded,
		ResponseSizeBytes: e.ResponseSizeBytes,
		PromptTokens:      e.PromptTokens,
		CompletionTokens:  e.CompletionTokens,
		TotalTokens:       e.TotalTokens,
		CachedTokens:      e.CachedTokens,
	}
}

// ChatIOModel is the gorm row for entity.ChatIO, gated by Model.IOLog.
type ChatIOModel struct {
	LogID  uint   `gorm:"primaryKey"`
	Input  string `gorm:"type:text"`
	Output string `gorm:"type:text"`
}

func (ChatIOModel) TableName() string { return "chat_ios" }

func (m *ChatIOModel) ToEntity() *entity.ChatIO {
	return &entity.ChatIO{LogID: m.LogID, Input: m.Input, Output: m.Output}
}

func ChatIOModelFromEntity(e *entity.ChatIO) *ChatIOModel {
	return &ChatIOModel{LogID: e.LogID, Input: e.Input, Output: e.Output}
}
