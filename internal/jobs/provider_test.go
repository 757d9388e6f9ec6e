package jobs

import (
	"context"
	"fmt"
	"testing"

	"jobgate/internal/config"
	"jobgate/internal/errors"
	"jobgate/internal/types"
)

type stubProvider struct {
	name        string
	credentials bool
	result      types.SearchResult
	err         error
	lastQuery   Query
	calls       int
}

func (s *stubProvider) Name() string          { return s.name }
func (s *stubProvider) HasCredentials() bool  { return s.credentials }
func (s *stubProvider) Search(ctx context.Context, q Query) (types.SearchResult, error) {
	s.calls++
	s.lastQuery = q
	return s.result, s.err
}

func testLogger(t *testing.T) *errors.Logger {
	t.Helper()
	logger, err := errors.New("error")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return logger
}

func testSearchConfig() *config.SearchConfig {
	return &config.SearchConfig{
		Provider:      "stub",
		MaxResults:    20,
		OutboundRPS:   100,
		OutboundBurst: 10,
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled: false,
		},
	}
}

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name     string
		keyword  string
		location string
		want     Query
	}{
		{
			name:     "plain keyword and location",
			keyword:  "nurse",
			location: "Austin",
			want:     Query{Keyword: "nurse", Location: "Austin"},
		},
		{
			name:     "anywhere drops location filter",
			keyword:  "nurse",
			location: "anywhere",
			want:     Query{Keyword: "nurse"},
		},
		{
			name:     "near me drops location filter",
			keyword:  "nurse",
			location: "Near Me",
			want:     Query{Keyword: "nurse"},
		},
		{
			name:     "empty location drops filter",
			keyword:  "nurse",
			location: "",
			want:     Query{Keyword: "nurse"},
		},
		{
			name:     "remote requests remote only",
			keyword:  "nurse",
			location: "remote",
			want:     Query{Keyword: "nurse", RemoteOnly: true},
		},
		{
			name:     "anything broadens keyword",
			keyword:  "anything",
			location: "Austin",
			want:     Query{Location: "Austin"},
		},
		{
			name:     "jobs broadens keyword",
			keyword:  "Jobs",
			location: "Austin",
			want:     Query{Location: "Austin"},
		},
		{
			name:     "whitespace is trimmed",
			keyword:  "  nurse  ",
			location: "  Austin  ",
			want:     Query{Keyword: "nurse", Location: "Austin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeQuery(tt.keyword, tt.location)
			if got != tt.want {
				t.Errorf("normalizeQuery(%q, %q) = %+v, want %+v", tt.keyword, tt.location, got, tt.want)
			}
		})
	}
}

func TestGatewaySearch(t *testing.T) {
	t.Run("missing credentials yields marked empty result", func(t *testing.T) {
		provider := &stubProvider{name: "stub", credentials: false}
		gw := NewGateway(provider, testSearchConfig(), testLogger(t))

		result := gw.Search(context.Background(), "nurse", "Austin")

		if !result.MissingCredentials {
			t.Error("expected MissingCredentials to be true")
		}
		if len(result.Items) != 0 || result.TotalMatches != 0 {
			t.Errorf("expected empty result, got %d items / %d total", len(result.Items), result.TotalMatches)
		}
		if provider.calls != 0 {
			t.Errorf("provider should not be called without credentials, got %d calls", provider.calls)
		}
	})

	t.Run("provider error degrades to empty result", func(t *testing.T) {
		provider := &stubProvider{name: "stub", credentials: true, err: fmt.Errorf("upstream boom")}
		gw := NewGateway(provider, testSearchConfig(), testLogger(t))

		result := gw.Search(context.Background(), "nurse", "Austin")

		if result.MissingCredentials {
			t.Error("provider failure must not be reported as missing credentials")
		}
		if len(result.Items) != 0 || result.TotalMatches != 0 {
			t.Errorf("expected empty result, got %+v", result)
		}
	})

	t.Run("successful search passes through", func(t *testing.T) {
		provider := &stubProvider{
			name:        "stub",
			credentials: true,
			result: types.SearchResult{
				Items:        []types.JobListing{{Title: "Registered Nurse"}},
				TotalMatches: 42,
			},
		}
		gw := NewGateway(provider, testSearchConfig(), testLogger(t))

		result := gw.Search(context.Background(), "nurse", "Austin")

		if len(result.Items) != 1 || result.TotalMatches != 42 {
			t.Errorf("unexpected result: %+v", result)
		}
		if provider.lastQuery.Keyword != "nurse" || provider.lastQuery.Location != "Austin" {
			t.Errorf("unexpected query: %+v", provider.lastQuery)
		}
	})

	t.Run("sentinels reach the provider normalized", func(t *testing.T) {
		provider := &stubProvider{name: "stub", credentials: true}
		gw := NewGateway(provider, testSearchConfig(), testLogger(t))

		gw.Search(context.Background(), "anything", "remote")

		if provider.lastQuery.Keyword != "" {
			t.Errorf("expected broadened keyword, got %q", provider.lastQuery.Keyword)
		}
		if !provider.lastQuery.RemoteOnly {
			t.Error("expected remote-only query")
		}
	})
}
