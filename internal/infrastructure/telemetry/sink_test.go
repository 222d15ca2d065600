package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/repository"
	"github.com/axgate/llmgw/internal/domain/valueobject"
)

type fakeChatLogRepo struct {
	created []*entity.ChatLog
	nextID  uint
}

func (f *fakeChatLogRepo) Create(ctx context.Context, log *entity.ChatLog) (uint, error) {
	f.nextID++
	log.ID = f.nextID
	f.created = append(f.created, log)
	return f.nextID, nil
}
func (f *fakeChatLogRepo) List(ctx context.Context, p valueobject.Pagination) ([]*entity.ChatLog, int64, error) {
	return nil, 0, nil
}
func (f *fakeChatLogRepo) Cleanup(ctx context.Context, spec repository.CleanupSpec) (int64, error) {
	return 0, nil
}
func (f *fakeChatLogRepo) Recent(ctx context.Context, providerModel string, limit int) ([]*entity.ChatLog, error) {
	return nil, nil
}

type fakeChatIORepo struct {
	created []*entity.ChatIO
}

func (f *fakeChatIORepo) Create(ctx context.Context, io *entity.ChatIO) error {
	f.created = append(f.created, io)
	return nil
}
func (f *fakeChatIORepo) FindByLogID(ctx context.Context, logID uint) (*entity.ChatIO, error) {
	for _, io := range f.created {
		if io.LogID == logID {
			return io, nil
		}
	}
	return nil, nil
}

func TestSink_RecordWritesExactlyOneChatLogRow(t *testing.T) {
	logs := &fakeChatLogRepo{}
	ioRepo := &fakeChatIORepo{}
	sink := NewSink(logs, ioRepo, NewMetrics(), zap.NewNop())

	sink.Record(context.Background(), Record{
		ModelName:    "gpt-demo",
		ProviderName: "openai-main",
		Status:       entity.ChatLogSuccess,
		RetryCount:   1,
		ProxyMs:      5,
		FirstChunkMs: 120,
		ChunkMs:      800,
		Usage:        entity.Usage{PromptTokens: 10, CompletionTokens: 40},
	})

	require.Len(t, logs.created, 1)
	row := logs.created[0]
	assert.Equal(t, 1, row.RetryCount)
	assert.Equal(t, entity.ChatLogSuccess, row.Status)
	assert.InDelta(t, 50.0, row.TPS, 0.001)
	assert.Empty(t, ioRepo.created)
}

func TestSink_RecordWritesChatIOWhenIOLogSet(t *testing.T) {
	logs := &fakeChatLogRepo{}
	ioRepo := &fakeChatIORepo{}
	sink := NewSink(logs, ioRepo, NewMetrics(), zap.NewNop())

	sink.Record(context.Background(), Record{
		ModelName:  "gpt-demo",
		Status:     entity.ChatLogSuccess,
		IOLog:      true,
		InputBody:  []byte(`{"messages":[]}`),
		OutputBody: []byte(`{"content":"hi"}`),
	})

	require.Len(t, ioRepo.created, 1)
	assert.Equal(t, logs.created[0].ID, ioRepo.created[0].LogID)
	assert.Equal(t, `{"messages":[]}`, ioRepo.created[0].Input)
}

func TestSink_TruncatesOversizedIOBodies(t *testing.T) {
	logs := &fakeChatLogRepo{}
	ioRepo := &fakeChatIORepo{}
	sink := NewSink(logs, ioRepo, NewMetrics(), zap.NewNop()).WithIOTruncateBytes(4)

	sink.Record(context.Background(), Record{
		ModelName: "gpt-demo",
		Status:    entity.ChatLogSuccess,
		IOLog:     true,
		InputBody: []byte("0123456789"),
	})

	require.Len(t, ioRepo.created, 1)
	assert.Equal(t, "0123", ioRepo.created[0].Input)
}
