package jobs

import (
	"context"
	"strings"

	"golang.org/x/time/rate"

	"jobgate/internal/config"
	"jobgate/internal/errors"
	"jobgate/internal/types"
)

// Provider is a structured job-listing search backend.
type Provider interface {
	// Name identifies the provider for logs and health reporting.
	Name() string
	// Search runs one upstream query. Implementations may return errors;
	// the Gateway absorbs them.
	Search(ctx context.Context, q Query) (types.SearchResult, error)
	// HasCredentials reports whether the provider can actually call upstream.
	HasCredentials() bool
}

// Query is a normalized search request after sentinel handling.
type Query struct {
	Keyword    string
	Location   string
	RemoteOnly bool
}

// Gateway fronts a Provider and guarantees a usable SearchResult on every
// call. Upstream failures of any kind degrade to an empty result; callers
// never see an error and never branch on one.
type Gateway struct {
	provider Provider
	breaker  *SearchCircuitBreaker
	limiter  *rate.Limiter
	logger   *errors.Logger
}

// NewGateway wires a provider with its outbound throttle and circuit breaker.
func NewGateway(provider Provider, cfg *config.SearchConfig, logger *errors.Logger) *Gateway {
	var limiter *rate.Limiter
	if cfg.OutboundRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.OutboundRPS), cfg.OutboundBurst)
	}

	return &Gateway{
		provider: provider,
		breaker:  NewSearchCircuitBreaker(provider.Name(), &cfg.CircuitBreaker, logger),
		limiter:  limiter,
		logger:   logger,
	}
}

// Sentinel values that relax rather than constrain the query.
var (
	locationSentinels = map[string]bool{"": true, "anywhere": true, "near me": true}
	keywordSentinels  = map[string]bool{"": true, "anything": true, "jobs": true}
)

// normalizeQuery applies the sentinel rules to raw user hints.
func normalizeQuery(keyword, location string) Query {
	var q Query

	k := strings.ToLower(strings.TrimSpace(keyword))
	if !keywordSentinels[k] {
		q.Keyword = strings.TrimSpace(keyword)
	}

	l := strings.ToLower(strings.TrimSpace(location))
	switch {
	case l == "remote":
		q.RemoteOnly = true
	case locationSentinels[l]:
		// no location filter
	default:
		q.Location = strings.TrimSpace(location)
	}

	return q
}

// Search performs at most one upstream query and always returns a result.
// Missing credentials, throttle exhaustion, open breaker, and provider errors
// all degrade to an empty (possibly marked) result.
func (g *Gateway) Search(ctx context.Context, keyword, location string) types.SearchResult {
	if !g.provider.HasCredentials() {
		g.logger.Warn("search credentials missing, returning marked empty result",
			"provider", g.provider.Name())
		return types.SearchResult{MissingCredentials: true}
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			g.logger.Warn("outbound search throttle exhausted",
				"provider", g.provider.Name(), "error", err.Error())
			return types.SearchResult{}
		}
	}

	q := normalizeQuery(keyword, location)

	result, err := g.breaker.Execute(func() (types.SearchResult, error) {
		return g.provider.Search(ctx, q)
	})
	if err != nil {
		g.logger.LogError(
			errors.NewSearchError(errors.ErrCodeSearchFailed, "search provider call failed", err).
				WithContext("provider", g.provider.Name()).
				WithContext("keyword", q.Keyword).
				WithContext("location", q.Location),
			"Search degraded to empty result")
		return types.SearchResult{}
	}

	g.logger.Debug("search completed",
		"provider", g.provider.Name(),
		"keyword", q.Keyword,
		"location", q.Location,
		"remote_only", q.RemoteOnly,
		"items", len(result.Items),
		"total_matches", result.TotalMatches)

	return result
}

// HasCredentials reports whether the underlying provider is usable.
func (g *Gateway) HasCredentials() bool {
	return g.provider.HasCredentials()
}

// BreakerStats exposes the search circuit breaker state for /health.
func (g *Gateway) BreakerStats() map[string]any {
	return g.breaker.GetStats()
}

// IsHealthy reports whether the search breaker is closed.
func (g *Gateway) IsHealthy() bool {
	return g.breaker.IsHealthy()
}
