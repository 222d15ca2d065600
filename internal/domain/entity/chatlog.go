package entity

import "time"

// ChatLogStatus is the terminal outcome of a single logical dispatch.
type ChatLogStatus string

const (
	ChatLogSuccess ChatLogStatus = "success"
	ChatLogError   ChatLogStatus = "error"
)

// ChatLog is written exactly once per inbound request (not per attempt),
// aggregating the retry count and timing breakdown across every attempt
// the dispatcher made.
type ChatLog struct {
	ID                uint
	CreatedAt         time.Time
	AuthKeyID         uint // 0 = admin / unauthenticated internal call
	ModelName         string
	ProviderName      string
	ProviderModel     string
	Dialect           string
	Status            ChatLogStatus
	UserAgent         string
	RemoteIP          string
	Error             string
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

// ChatIO optionally persists the raw request/response bodies for a
// ChatLog row, gated by Model.IOLog.
type ChatIO struct {
	LogID  uint
	Input  string
	Output string
}

// Usage is the normalized token accounting an adapter extracts from an
// upstream response (unary or the terminal SSE frame).
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CachedTokens     *int
}

// Total returns the best available total, falling back to the sum of
// prompt+completion when the upstream didn't report one directly.
func (u Usage) Total() int {
	if u.TotalTokens > 0 {
		return u.TotalTokens
	}
	return u.PromptTokens + u.CompletionTokens
}

// TPS computes tokens-per-second for the streaming window, guarded
// against divide-by-zero.
func TPS(completionTokens int, chunkMs int64) float64 {
	if chunkMs <= 0 {
		return 0
	}
	return float64(completionTokens) / (float64(chunkMs) / 1000.0)
}
