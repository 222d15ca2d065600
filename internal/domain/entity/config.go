package entity

// ConfigEntry is an opaque, name-keyed JSON configuration blob consumed by
// adapters, not by the dispatch core itself (e.g. anthropic_count_tokens,
// embedding_config, anthropic_proxy_ip).
type ConfigEntry struct {
	Name  string
	Value []byte // raw JSON
}
