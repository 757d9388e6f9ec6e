package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"jobgate/internal/config"
	"jobgate/internal/errors"
)

// OpenAIProvider generates dialogue turns via the OpenAI chat completion API.
type OpenAIProvider struct {
	client         *openai.Client
	config         *config.AIConfig
	circuitBreaker *DialogueCircuitBreaker
	logger         *errors.Logger
}

var _ DialogueProvider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a new OpenAI provider instance
func NewOpenAIProvider(cfg *config.AIConfig, logger *errors.Logger) (*OpenAIProvider, error) {
	return &OpenAIProvider{
		client:         openai.NewClient(cfg.APIKey),
		config:         cfg,
		circuitBreaker: NewDialogueCircuitBreaker("openai", &cfg.CircuitBreaker, logger),
		logger:         logger,
	}, nil
}

// GenerateTurn makes exactly one generation attempt under the configured
// timeout. JSON output is requested via response format; unlike the Gemini
// path there is no schema, so fenced or loose output is expected downstream.
func (p *OpenAIProvider) GenerateTurn(ctx context.Context, promptBody string) (string, *TokenUsage, error) {
	tracer := otel.Tracer("jobgate.ai.openai")
	ctx, span := tracer.Start(ctx, "openai.generate_turn")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "openai"),
		attribute.String("ai.model", p.config.Model),
		attribute.Float64("ai.temperature", float64(p.config.Temperature)),
		attribute.Int("input.prompt_length", len(promptBody)),
	)

	genCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	var usage *TokenUsage
	raw, err := p.circuitBreaker.Execute(func() (string, error) {
		resp, err := p.client.CreateChatCompletion(genCtx, openai.ChatCompletionRequest{
			Model:       p.config.Model,
			Temperature: p.config.Temperature,
			MaxTokens:   int(p.config.MaxOutputTokens),
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: config.ActiveSystemPrompt()},
				{Role: openai.ChatMessageRoleUser, Content: promptBody},
			},
		})
		if err != nil {
			return "", err
		}
		usage = &TokenUsage{
			InputTokens:  int64(resp.Usage.PromptTokens),
			OutputTokens: int64(resp.Usage.CompletionTokens),
			TotalTokens:  int64(resp.Usage.TotalTokens),
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("empty completion response")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return "", nil, p.classifyError(err)
	}

	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Bool("success", true))

	return raw, usage, nil
}

func (p *OpenAIProvider) classifyError(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewAIError(errors.ErrCodeAITimeout, "Generation timed out", err)
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.NewAIError(errors.ErrCodeAITimeout, "Generation timed out", err)
	}

	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		return errors.NewAIError(errors.ErrCodeAIServiceFailed,
			fmt.Sprintf("OpenAI API error (status %d)", apiErr.HTTPStatusCode), err)
	}

	return errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to generate dialogue turn", err)
}

// GetModelInfo checks the readiness and availability of the configured model
func (p *OpenAIProvider) GetModelInfo(ctx context.Context) (*ModelInfo, error) {
	info := &ModelInfo{Name: p.config.Model, Provider: "openai"}

	_, err := p.client.GetModel(ctx, p.config.Model)
	if err != nil {
		p.logger.Warn("Model availability check failed",
			"model", p.config.Model,
			"provider", "openai",
			"error", err.Error())
		return info, nil
	}

	info.Available = true
	return info, nil
}

// BreakerStats exposes the generation circuit breaker state for /health.
func (p *OpenAIProvider) BreakerStats() map[string]any {
	return p.circuitBreaker.GetStats()
}

// IsHealthy reports whether the generation breaker is closed.
func (p *OpenAIProvider) IsHealthy() bool {
	return p.circuitBreaker.IsHealthy()
}

func (p *OpenAIProvider) Close() error {
	return nil
}
