package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"jobgate/internal/config"
	"jobgate/internal/errors"
)

// GeminiProvider generates dialogue turns via the Gemini API.
type GeminiProvider struct {
	client         *genai.Client
	config         *config.AIConfig
	circuitBreaker *DialogueCircuitBreaker
	logger         *errors.Logger
}

// Ensure GeminiProvider implements DialogueProvider
var _ DialogueProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance
func NewGeminiProvider(cfg *config.AIConfig, logger *errors.Logger) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:         client,
		config:         cfg,
		circuitBreaker: NewDialogueCircuitBreaker("gemini", &cfg.CircuitBreaker, logger),
		logger:         logger,
	}, nil
}

// dialogueResponseSchema constrains the model to the turn response shape.
// Validation still reruns every bound server-side; the schema just raises the
// odds of parseable output.
func dialogueResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"message": {Type: genai.TypeString},
			"extraction": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"interest": {Type: genai.TypeString},
					"location": {Type: genai.TypeString},
				},
			},
			"signal":       {Type: genai.TypeInteger},
			"topPickIndex": {Type: genai.TypeInteger, Nullable: genai.Ptr(true)},
			"shownIndices": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeInteger},
			},
			"suggestions": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"refineSearch": {Type: genai.TypeBoolean},
		},
		Required: []string{"message", "extraction", "signal"},
	}
}

// GenerateTurn makes exactly one generation attempt under the configured
// timeout and returns the raw model text. No retries: a failed turn is
// cheaper to degrade than to stall the conversation on.
func (g *GeminiProvider) GenerateTurn(ctx context.Context, promptBody string) (string, *TokenUsage, error) {
	tracer := otel.Tracer("jobgate.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.generate_turn")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(g.config.Temperature)),
		attribute.Int("input.prompt_length", len(promptBody)),
	)

	genCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	genaiConfig := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(g.config.Temperature),
		MaxOutputTokens:   g.config.MaxOutputTokens,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    dialogueResponseSchema(),
		SystemInstruction: genai.NewContentFromText(config.ActiveSystemPrompt(), genai.RoleUser),
	}

	var usage *TokenUsage
	raw, err := g.circuitBreaker.Execute(func() (string, error) {
		resp, err := g.client.Models.GenerateContent(genCtx, g.config.Model, genai.Text(promptBody), genaiConfig)
		if err != nil {
			return "", err
		}
		usage = extractTokenUsage(resp)
		return resp.Text(), nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return "", nil, g.classifyError(err)
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

// classifyError maps transport and API failures onto the AppError taxonomy.
func (g *GeminiProvider) classifyError(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewAIError(errors.ErrCodeAITimeout, "Generation timed out", err)
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.NewAIError(errors.ErrCodeAITimeout, "Generation timed out", err)
	}

	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		return errors.NewAIError(errors.ErrCodeAIServiceFailed,
			fmt.Sprintf("Gemini API error (status %d)", apiErr.Code), err)
	}

	return errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to generate dialogue turn", err)
}

// extractTokenUsage reads usage metadata from a generation response.
func extractTokenUsage(resp *genai.GenerateContentResponse) *TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return nil
	}
	return &TokenUsage{
		InputTokens:  int64(resp.UsageMetadata.PromptTokenCount),
		OutputTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:  int64(resp.UsageMetadata.TotalTokenCount),
	}
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) (*ModelInfo, error) {
	info := &ModelInfo{Name: g.config.Model, Provider: "gemini"}

	_, err := g.client.Models.Get(ctx, g.config.Model, &genai.GetModelConfig{})
	if err != nil {
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", "gemini",
			"error", err.Error())
		return info, nil
	}

	info.Available = true
	return info, nil
}

// BreakerStats exposes the generation circuit breaker state for /health.
func (g *GeminiProvider) BreakerStats() map[string]any {
	return g.circuitBreaker.GetStats()
}

// IsHealthy reports whether the generation breaker is closed.
func (g *GeminiProvider) IsHealthy() bool {
	return g.circuitBreaker.IsHealthy()
}

// Close releases provider resources. The genai client holds no connection
// pool that needs explicit teardown.
func (g *GeminiProvider) Close() error {
	return nil
}
