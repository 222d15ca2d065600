package entity

import (
	"time"

	"github.com/axgate/llmgw/internal/domain/valueobject"
)

// ProviderType names the upstream wire dialect a Provider speaks.
type ProviderType string

const (
	ProviderOpenAI     ProviderType = "openai"
	ProviderOpenAIResp ProviderType = "openai-res"
	ProviderAnthropic  ProviderType = "anthropic"
	ProviderGemini     ProviderType = "gemini"
)

// ProviderConfig is the opaque, provider-type-specific configuration blob.
// BaseURL and APIKey are required for every type; Version is consulted by
// the anthropic and gemini adapters only.
type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
	Version string `json:"version,omitempty"`
}

// Provider is an upstream endpoint: a base URL, credentials, and the
// dialect it speaks. Identity (ID, Name) is immutable once created.
// Provider rows are not cached: the resolver reads them through the
// repository on every resolve, so Config changes are seen by the next
// request.
type Provider struct {
	ID             uint
	Name           string
	Type           ProviderType
	Config         ProviderConfig
	ConsoleURL     string
	RPMLimit       int // 0 = unlimited
	IPLockMinutes  int // 0 = no IP stickiness
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// Live reports whether this provider has not been soft-deleted.
func (p *Provider) Live() bool {
	return p.DeletedAt == nil
}

// Dialect maps the provider type onto the wire dialect it speaks, used by
// the dispatcher to pick the outbound adapter for a binding.
func (p *Provider) Dialect() valueobject.Dialect {
	switch p.Type {
	case ProviderOpenAI:
		return valueobject.DialectOpenAIChat
	case ProviderOpenAIResp:
		return valueobject.DialectOpenAIResponse
	case ProviderAnthropic:
		return valueobject.DialectAnthropic
	case ProviderGemini:
		return valueobject.DialectGemini
	default:
		return ""
	}
}
