package repository

import (
	"context"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/valueobject"
)

// CleanupSpec describes a /logs/cleanup request: delete rows beyond
// either a row-count retention target ("count") or an age cutoff
// ("age").
type CleanupSpec struct {
	Type  string // "count" | "age"
	Value int64  // target row count to retain, or max-age in days
}

// ChatLogRepository is typed storage access for ChatLog/ChatIO rows.
type ChatLogRepository interface {
	Create(ctx context.Context, log *entity.ChatLog) (uint, error)
	List(ctx context.Context, p valueobject.Pagination) ([]*entity.ChatLog, int64, error)
	// Cleanup deletes ChatLog rows (and any orphaned ChatIO), returning
	// how many ChatLog rows were removed.
	Cleanup(ctx context.Context, spec CleanupSpec) (deleted int64, err error)
	// Recent returns the most recent N ChatLog rows for a provider_model,
	// used to optionally warm-start the health store on startup.
	Recent(ctx context.Context, providerModel string, limit int) ([]*entity.ChatLog, error)
}

// ChatIORepository is typed storage access for optional ChatIO rows.
type ChatIORepository interface {
	Create(ctx context.Context, io *entity.ChatIO) error
	FindByLogID(ctx context.Context, logID uint) (*entity.ChatIO, error)
}
