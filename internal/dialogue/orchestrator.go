package dialogue

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"jobgate/internal/ai"
	"jobgate/internal/errors"
	"jobgate/internal/observability"
	"jobgate/internal/prompt"
	"jobgate/internal/types"
)

// maxArenaItems bounds the listing arena regardless of where it came from.
// Caller-supplied caches are re-bounded here so index references can never
// escape the slice actually used for the prompt.
const maxArenaItems = 20

// Searcher is the retrieval gateway surface the orchestrator needs.
type Searcher interface {
	Search(ctx context.Context, keyword, location string) types.SearchResult
}

// Orchestrator runs one conversation turn end to end. It is a total
// function over its inputs: whatever fails upstream, HandleTurn returns a
// well-formed response.
type Orchestrator struct {
	searcher  Searcher
	generator ai.DialogueProvider // nil when no AI credentials are configured
	provider  string
	metrics   *observability.Metrics // nil-safe, may be nil
	logger    *errors.Logger
}

// TurnOutcome carries the response plus the arena and usage data the
// transport layer needs for the envelope and metrics.
type TurnOutcome struct {
	Response   types.DialogueResponse
	Arena      types.SearchResult
	TokenUsage *ai.TokenUsage
}

func NewOrchestrator(searcher Searcher, generator ai.DialogueProvider, provider string, metrics *observability.Metrics, logger *errors.Logger) *Orchestrator {
	return &Orchestrator{
		searcher:  searcher,
		generator: generator,
		provider:  provider,
		metrics:   metrics,
		logger:    logger,
	}
}

// HandleTurn sequences retrieval, composition, generation and validation for
// one turn. Never returns an error: every failure path lands in the
// synthesizer with whatever arena exists at that point.
func (o *Orchestrator) HandleTurn(ctx context.Context, req types.TurnRequest) TurnOutcome {
	tracer := otel.Tracer("jobgate.dialogue")
	ctx, span := tracer.Start(ctx, "dialogue.handle_turn")
	defer span.End()

	prior := types.Extraction{
		Interest: clampField(req.Profile.InterestHint, true),
		Location: clampField(req.Profile.LocationHint, false),
	}

	arena := o.resolveArena(ctx, req, prior)
	span.SetAttributes(
		attribute.Int("search.items", len(arena.Items)),
		attribute.Int("search.total_matches", arena.TotalMatches),
		attribute.Bool("search.missing_credentials", arena.MissingCredentials),
	)

	if o.generator == nil {
		span.SetAttributes(attribute.Bool("dialogue.fallback", true))
		return TurnOutcome{Response: Fallback(req.Profile, arena), Arena: arena}
	}

	promptBody := prompt.Compose(req.Profile, arena, req.Transcript)

	genStart := time.Now()
	raw, usage, err := o.generator.GenerateTurn(ctx, promptBody)
	o.recordGeneration(ctx, time.Since(genStart), err, usage)
	if err != nil {
		o.logger.LogError(err, "Generation failed, synthesizing fallback turn")
		span.SetAttributes(attribute.Bool("dialogue.fallback", true))
		return TurnOutcome{Response: Fallback(req.Profile, arena), Arena: arena, TokenUsage: usage}
	}

	resp, ok := ValidateRaw(raw, arena, prior)
	if !ok {
		o.logger.LogError(
			errors.NewAIError(errors.ErrCodeSchemaViolation, "Model output unparsable, synthesizing fallback turn", nil).
				WithContext("raw_length", len(raw)),
			"Validation rejected model output")
		span.SetAttributes(attribute.Bool("dialogue.fallback", true))
		return TurnOutcome{Response: Fallback(req.Profile, arena), Arena: arena, TokenUsage: usage}
	}

	span.SetAttributes(
		attribute.Bool("dialogue.fallback", false),
		attribute.Bool("dialogue.refine_search", resp.RefineSearch),
		attribute.Int("dialogue.signal", resp.Signal),
	)

	return TurnOutcome{Response: resp, Arena: arena, TokenUsage: usage}
}

// resolveArena reuses a caller-supplied cached result when allowed, otherwise
// performs a fresh search keyed by the prior extraction.
func (o *Orchestrator) resolveArena(ctx context.Context, req types.TurnRequest, prior types.Extraction) types.SearchResult {
	if req.Cached != nil && !req.ForceSearch {
		return boundArena(*req.Cached)
	}

	result := o.searcher.Search(ctx, prior.Interest, prior.Location)
	o.metrics.RecordSearch(ctx, len(result.Items), result.MissingCredentials)
	return boundArena(result)
}

func (o *Orchestrator) recordGeneration(ctx context.Context, duration time.Duration, err error, usage *ai.TokenUsage) {
	var input, output, total int64
	if usage != nil {
		input, output, total = usage.InputTokens, usage.OutputTokens, usage.TotalTokens
	}
	o.metrics.RecordAIOperation(ctx, o.provider, duration, err, input, output, total)
}

// boundArena caps the arena size. Applied to both fresh and cached results
// so the two paths are indistinguishable downstream.
func boundArena(result types.SearchResult) types.SearchResult {
	if len(result.Items) > maxArenaItems {
		result.Items = result.Items[:maxArenaItems]
	}
	return result
}
