package ai

import "context"

// TokenUsage represents token consumption for one generation call.
type TokenUsage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	TotalTokens  int64 `json:"totalTokens"`
}

// ModelInfo describes the configured model for health reporting.
type ModelInfo struct {
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	Available bool   `json:"available"`
}

// DialogueProvider generates one raw dialogue turn. Implementations make a
// single attempt under a hard timeout and never retry; the returned text is
// unvalidated model output, parsed elsewhere.
type DialogueProvider interface {
	GenerateTurn(ctx context.Context, promptBody string) (string, *TokenUsage, error)
	GetModelInfo(ctx context.Context) (*ModelInfo, error)
	BreakerStats() map[string]any
	IsHealthy() bool
	Close() error
}
