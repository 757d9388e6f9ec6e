package dialogue

import (
	"context"
	"testing"

	"jobgate/internal/ai"
	"jobgate/internal/errors"
	"jobgate/internal/types"
)

type stubSearcher struct {
	result       types.SearchResult
	calls        int
	lastKeyword  string
	lastLocation string
}

func (s *stubSearcher) Search(ctx context.Context, keyword, location string) types.SearchResult {
	s.calls++
	s.lastKeyword = keyword
	s.lastLocation = location
	return s.result
}

type stubGenerator struct {
	raw   string
	usage *ai.TokenUsage
	err   error
	calls int
}

func (g *stubGenerator) GenerateTurn(ctx context.Context, promptBody string) (string, *ai.TokenUsage, error) {
	g.calls++
	return g.raw, g.usage, g.err
}

func (g *stubGenerator) GetModelInfo(ctx context.Context) (*ai.ModelInfo, error) {
	return &ai.ModelInfo{Name: "stub", Available: true}, nil
}

func (g *stubGenerator) BreakerStats() map[string]any { return map[string]any{"enabled": false} }
func (g *stubGenerator) IsHealthy() bool              { return true }
func (g *stubGenerator) Close() error                 { return nil }

func testLogger(t *testing.T) *errors.Logger {
	t.Helper()
	logger, err := errors.New("error")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return logger
}

func TestHandleTurn(t *testing.T) {
	profile := types.UserProfile{Name: "Ada", InterestHint: "Nursing", LocationHint: "Austin"}

	t.Run("valid generation flows through validation", func(t *testing.T) {
		searcher := &stubSearcher{result: arenaOf(3)}
		gen := &stubGenerator{
			raw:   `{"message": "Listing [1] fits you well.", "signal": 60, "topPickIndex": 1, "shownIndices": [0, 1]}`,
			usage: &ai.TokenUsage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150},
		}
		o := NewOrchestrator(searcher, gen, "stub", nil, testLogger(t))

		out := o.HandleTurn(context.Background(), types.TurnRequest{Profile: profile})

		if out.Response.Diagnostics.UsedFallback {
			t.Error("valid turn should not use fallback")
		}
		if out.Response.Signal != 60 {
			t.Errorf("Signal = %d, want 60", out.Response.Signal)
		}
		if out.Response.TopPickIndex == nil || *out.Response.TopPickIndex != 1 {
			t.Errorf("TopPickIndex = %v, want 1", out.Response.TopPickIndex)
		}
		if len(out.Arena.Items) != 3 {
			t.Errorf("Arena items = %d, want 3", len(out.Arena.Items))
		}
		if out.TokenUsage == nil || out.TokenUsage.TotalTokens != 150 {
			t.Errorf("TokenUsage = %+v", out.TokenUsage)
		}
		// The search is keyed by the clamped hints.
		if searcher.lastKeyword != "nursing" || searcher.lastLocation != "Austin" {
			t.Errorf("search keyed by (%q, %q)", searcher.lastKeyword, searcher.lastLocation)
		}
	})

	t.Run("generation failure falls back with the fresh arena", func(t *testing.T) {
		searcher := &stubSearcher{result: arenaOf(4)}
		gen := &stubGenerator{err: errors.NewAIError(errors.ErrCodeAITimeout, "timed out", context.DeadlineExceeded)}
		o := NewOrchestrator(searcher, gen, "stub", nil, testLogger(t))

		out := o.HandleTurn(context.Background(), types.TurnRequest{Profile: profile})

		if !out.Response.Diagnostics.UsedFallback {
			t.Error("expected fallback turn")
		}
		if out.Response.Message == "" {
			t.Error("fallback message must be non-empty")
		}
		if len(out.Response.ShownIndices) != 3 {
			t.Errorf("ShownIndices = %v, want first three", out.Response.ShownIndices)
		}
		if len(out.Arena.Items) != 4 {
			t.Error("arena must still be returned on fallback")
		}
	})

	t.Run("unparsable output falls back", func(t *testing.T) {
		searcher := &stubSearcher{result: arenaOf(2)}
		gen := &stubGenerator{raw: "I cannot answer in JSON today."}
		o := NewOrchestrator(searcher, gen, "stub", nil, testLogger(t))

		out := o.HandleTurn(context.Background(), types.TurnRequest{Profile: profile})

		if !out.Response.Diagnostics.UsedFallback {
			t.Error("expected fallback turn")
		}
	})

	t.Run("nil generator always falls back without a call", func(t *testing.T) {
		searcher := &stubSearcher{result: arenaOf(1)}
		o := NewOrchestrator(searcher, nil, "stub", nil, testLogger(t))

		out := o.HandleTurn(context.Background(), types.TurnRequest{Profile: profile})

		if !out.Response.Diagnostics.UsedFallback {
			t.Error("expected fallback turn")
		}
		if out.Response.Signal < minSignal || out.Response.Signal > maxSignal {
			t.Errorf("Signal = %d outside range", out.Response.Signal)
		}
	})

	t.Run("cached arena skips the search", func(t *testing.T) {
		searcher := &stubSearcher{result: arenaOf(9)}
		gen := &stubGenerator{raw: `{"message": "m"}`}
		o := NewOrchestrator(searcher, gen, "stub", nil, testLogger(t))

		cached := arenaOf(2)
		out := o.HandleTurn(context.Background(), types.TurnRequest{Profile: profile, Cached: &cached})

		if searcher.calls != 0 {
			t.Errorf("searcher called %d times, want 0", searcher.calls)
		}
		if len(out.Arena.Items) != 2 {
			t.Errorf("Arena items = %d, want cached 2", len(out.Arena.Items))
		}
	})

	t.Run("force search overrides the cache", func(t *testing.T) {
		searcher := &stubSearcher{result: arenaOf(9)}
		gen := &stubGenerator{raw: `{"message": "m"}`}
		o := NewOrchestrator(searcher, gen, "stub", nil, testLogger(t))

		cached := arenaOf(2)
		out := o.HandleTurn(context.Background(), types.TurnRequest{Profile: profile, Cached: &cached, ForceSearch: true})

		if searcher.calls != 1 {
			t.Errorf("searcher called %d times, want 1", searcher.calls)
		}
		if len(out.Arena.Items) != 9 {
			t.Errorf("Arena items = %d, want fresh 9", len(out.Arena.Items))
		}
	})

	t.Run("oversized cached arena is re-bounded", func(t *testing.T) {
		searcher := &stubSearcher{}
		gen := &stubGenerator{raw: `{"message": "m", "topPickIndex": 25, "shownIndices": [19, 20, 21]}`}
		o := NewOrchestrator(searcher, gen, "stub", nil, testLogger(t))

		cached := arenaOf(30)
		out := o.HandleTurn(context.Background(), types.TurnRequest{Profile: profile, Cached: &cached})

		if len(out.Arena.Items) != maxArenaItems {
			t.Errorf("Arena items = %d, want %d", len(out.Arena.Items), maxArenaItems)
		}
		if out.Response.TopPickIndex != nil {
			t.Error("index beyond the bounded arena must be dropped")
		}
		if len(out.Response.ShownIndices) != 1 || out.Response.ShownIndices[0] != 19 {
			t.Errorf("ShownIndices = %v, want [19]", out.Response.ShownIndices)
		}
	})

	t.Run("missing credentials arena still produces a turn", func(t *testing.T) {
		searcher := &stubSearcher{result: types.SearchResult{MissingCredentials: true}}
		gen := &stubGenerator{raw: `{"message": "Search is down, but tell me more about what you want."}`}
		o := NewOrchestrator(searcher, gen, "stub", nil, testLogger(t))

		out := o.HandleTurn(context.Background(), types.TurnRequest{Profile: profile})

		if out.Response.Diagnostics.UsedFallback {
			t.Error("generation still ran, no fallback expected")
		}
		if !out.Arena.MissingCredentials {
			t.Error("degraded arena marker must survive")
		}
	})
}
