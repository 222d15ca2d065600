package telemetry

import (
	"context"

	"go.uber.org/zap"

	"github.com/axgate/llmgw/internal/domain/entity"
	"github.com/axgate/llmgw/internal/domain/repository"
	"github.com/axgate/llmgw/internal/domain/valueobject"
)

// defaultIOTruncateBytes bounds how much of a request/response body the
// ChatIO row keeps, protecting the table from unbounded growth on large
// prompts or completions.
const defaultIOTruncateBytes = 64 * 1024

// Record is everything the dispatcher accumulated over the lifetime of
// one logical request, ready to become exactly one ChatLog row.
type Record struct {
	Admission     valueobject.AdmissionContext
	ModelName     string
	ProviderName  string
	ProviderModel string
	Dialect       valueobject.Dialect
	Status        entity.ChatLogStatus
	Error         string
	RetryCount    int

	ProxyMs      int64
	FirstChunkMs int64
	ChunkMs      int64

	Usage             entity.Usage
	ResponseSizeBytes int64

	IOLog      bool
	InputBody  []byte
	OutputBody []byte
}

// Sink writes the ChatLog/ChatIO rows and feeds the Prometheus
// collectors. One Sink is shared by every in-flight dispatch.
type Sink struct {
	logs            repository.ChatLogRepository
	io              repository.ChatIORepository
	metrics         *Metrics
	logger          *zap.Logger
	ioTruncateBytes int
}

func NewSink(logs repository.ChatLogRepository, io repository.ChatIORepository, metrics *Metrics, logger *zap.Logger) *Sink {
	return &Sink{logs: logs, io: io, metrics: metrics, logger: logger, ioTruncateBytes: defaultIOTruncateBytes}
}

// WithIOTruncateBytes overrides the configured ChatIO body ceiling.
func (s *Sink) WithIOTruncateBytes(n int) *Sink {
	if n > 0 {
		s.ioTruncateBytes = n
	}
	return s
}

// Record writes exactly one ChatLog row for rec, and an accompanying
// ChatIO row when rec.IOLog is set. Errors are
// logged, not returned, per the dispatcher's contract of never letting a
// logging failure turn a completed dispatch into an error response —
// the dispatch's own outcome has already been decided.
func (s *Sink) Record(ctx context.Context, rec Record) {
	tps := entity.TPS(rec.Usage.CompletionTokens, rec.ChunkMs)

	log := &entity.ChatLog{
		AuthKeyID:         rec.Admission.AuthKeyID,
		ModelName:         rec.ModelName,
		ProviderName:      rec.ProviderName,
		ProviderModel:     rec.ProviderModel,
		Dialect:           string(rec.Dialect),
		Status:            rec.Status,
		UserAgent:         rec.Admission.UserAgent,
		RemoteIP:          rec.Admission.RemoteIP,
		Error:             rec.Error,
		RetryCount:        rec.RetryCount,
		ProxyMs:           rec.ProxyMs,
		FirstChunkMs:      rec.FirstChunkMs,
		ChunkMs:           rec.ChunkMs,
		TPS:               tps,
		IORecorded:        rec.IOLog,
		ResponseSizeBytes: rec.ResponseSizeBytes,
		PromptTokens:      rec.Usage.PromptTokens,
		CompletionTokens:  rec.Usage.CompletionTokens,
		TotalTokens:       rec.Usage.Total(),
		CachedTokens:      rec.Usage.CachedTokens,
	}

	id, err := s.logs.Create(ctx, log)
	if err != nil {
		s.logger.Error("failed to write chat log", zap.Error(err))
	} else if rec.IOLog {
		s.writeIO(ctx, id, rec)
	}

	if s.metrics != nil {
		s.metrics.ObserveRequest(rec.ModelName, string(rec.Status))
		s.metrics.ObserveTiming(rec.ProxyMs, rec.FirstChunkMs, rec.ChunkMs, tps)
	}
}

func (s *Sink) writeIO(ctx context.Context, logID uint, rec Record) {
	row := &entity.ChatIO{
		LogID:  logID,
		Input:  truncate(rec.InputBody, s.ioTruncateBytes),
		Output: truncate(rec.OutputBody, s.ioTruncateBytes),
	}
	if err := s.io.Create(ctx, row); err != nil {
		s.logger.Error("failed to write chat io", zap.Uint("log_id", logID), zap.Error(err))
	}
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit])
}
