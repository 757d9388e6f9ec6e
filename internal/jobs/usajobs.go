package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"jobgate/internal/config"
	"jobgate/internal/errors"
	"jobgate/internal/types"
)

const qualificationsExcerptLen = 280

// USAJobsProvider searches the USAJOBS REST API.
type USAJobsProvider struct {
	host       string
	apiKey     string
	userAgent  string
	maxResults int
	client     *http.Client
}

// NewUSAJobsProvider creates the provider with an otel-instrumented client.
func NewUSAJobsProvider(cfg *config.SearchConfig) *USAJobsProvider {
	return &USAJobsProvider{
		host:       strings.TrimRight(cfg.Host, "/"),
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
		maxResults: cfg.MaxResults,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (p *USAJobsProvider) Name() string {
	return "usajobs"
}

func (p *USAJobsProvider) HasCredentials() bool {
	return p.apiKey != "" && p.userAgent != ""
}

// Wire types for the upstream response. Only the fields we normalize are
// declared; everything else is dropped at decode time.
type usajobsResponse struct {
	SearchResult struct {
		SearchResultItems []struct {
			MatchedObjectDescriptor usajobsDescriptor `json:"MatchedObjectDescriptor"`
		} `json:"SearchResultItems"`
		SearchResultCountAll int `json:"SearchResultCountAll"`
	} `json:"SearchResult"`
}

type usajobsDescriptor struct {
	PositionTitle           string `json:"PositionTitle"`
	OrganizationName        string `json:"OrganizationName"`
	DepartmentName          string `json:"DepartmentName"`
	PositionLocationDisplay string `json:"PositionLocationDisplay"`
	ApplyURI                []string `json:"ApplyURI"`
	PositionRemuneration    []struct {
		MinimumRange     string `json:"MinimumRange"`
		MaximumRange     string `json:"MaximumRange"`
		RateIntervalCode string `json:"RateIntervalCode"`
	} `json:"PositionRemuneration"`
	JobGrade []struct {
		Code string `json:"Code"`
	} `json:"JobGrade"`
	PositionSchedule []struct {
		Name string `json:"Name"`
	} `json:"PositionSchedule"`
	ApplicationCloseDate string `json:"ApplicationCloseDate"`
	UserArea             struct {
		Details struct {
			JobSummary string `json:"JobSummary"`
		} `json:"Details"`
	} `json:"UserArea"`
	QualificationSummary string `json:"QualificationSummary"`
}

// Search performs one GET against /api/search and normalizes the payload.
func (p *USAJobsProvider) Search(ctx context.Context, q Query) (types.SearchResult, error) {
	params := url.Values{}
	params.Set("ResultsPerPage", strconv.Itoa(p.maxResults))
	if q.Keyword != "" {
		params.Set("Keyword", q.Keyword)
	}
	if q.Location != "" {
		params.Set("LocationName", q.Location)
	}
	if q.RemoteOnly {
		params.Set("RemoteIndicator", "True")
	}

	reqURL := p.host + "/api/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return types.SearchResult{}, errors.NewSearchError(errors.ErrCodeSearchFailed, "failed to build search request", err)
	}
	req.Header.Set("Authorization-Key", p.apiKey)
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return types.SearchResult{}, errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "search request timed out", err)
		}
		return types.SearchResult{}, errors.NewNetworkError(errors.ErrCodeSearchFailed, "search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the log; upstream error pages can be large.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.SearchResult{}, errors.NewSearchError(errors.ErrCodeSearchFailed,
			fmt.Sprintf("search provider returned status %d", resp.StatusCode), nil).
			WithContext("body", string(snippet))
	}

	var payload usajobsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return types.SearchResult{}, errors.NewSearchError(errors.ErrCodeSearchFailed, "failed to decode search response", err)
	}

	items := make([]types.JobListing, 0, len(payload.SearchResult.SearchResultItems))
	for _, item := range payload.SearchResult.SearchResultItems {
		items = append(items, normalizeListing(item.MatchedObjectDescriptor))
		if len(items) >= p.maxResults {
			break
		}
	}

	return types.SearchResult{
		Items:        items,
		TotalMatches: payload.SearchResult.SearchResultCountAll,
	}, nil
}

// normalizeListing flattens a MatchedObjectDescriptor into the canonical
// listing shape. First-element convention for remuneration, grade and
// schedule follows the upstream payload layout.
func normalizeListing(d usajobsDescriptor) types.JobListing {
	listing := types.JobListing{
		Title:        strings.TrimSpace(d.PositionTitle),
		Organization: strings.TrimSpace(d.OrganizationName),
		Department:   strings.TrimSpace(d.DepartmentName),
		Location:     strings.TrimSpace(d.PositionLocationDisplay),
		ClosingDate:  d.ApplicationCloseDate,
	}

	if len(d.ApplyURI) > 0 {
		listing.ApplyURL = d.ApplyURI[0]
	}
	if len(d.PositionRemuneration) > 0 {
		rem := d.PositionRemuneration[0]
		listing.SalaryMin = parseSalary(rem.MinimumRange)
		listing.SalaryMax = parseSalary(rem.MaximumRange)
		listing.SalaryPeriod = rem.RateIntervalCode
	}
	if len(d.JobGrade) > 0 {
		listing.Grade = d.JobGrade[0].Code
	}
	if len(d.PositionSchedule) > 0 {
		listing.Schedule = d.PositionSchedule[0].Name
	}

	qual := strings.TrimSpace(d.QualificationSummary)
	if qual == "" {
		qual = strings.TrimSpace(d.UserArea.Details.JobSummary)
	}
	listing.QualificationsExcerpt = truncate(qual, qualificationsExcerptLen)

	return listing
}

// parseSalary handles the string-typed salary figures in the upstream
// payload, including thousands separators.
func parseSalary(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// truncate bounds the excerpt by rune count so a multi-byte character is
// never split at the boundary.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
