package jobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"jobgate/internal/config"
)

const sampleSearchResponse = `{
	"SearchResult": {
		"SearchResultItems": [
			{
				"MatchedObjectDescriptor": {
					"PositionTitle": "Registered Nurse",
					"OrganizationName": "Veterans Health Administration",
					"DepartmentName": "Department of Veterans Affairs",
					"PositionLocationDisplay": "Austin, Texas",
					"ApplyURI": ["https://example.test/apply/123"],
					"PositionRemuneration": [
						{"MinimumRange": "65,000", "MaximumRange": "98,500", "RateIntervalCode": "Per Year"}
					],
					"JobGrade": [{"Code": "GS-9"}],
					"PositionSchedule": [{"Name": "Full-time"}],
					"ApplicationCloseDate": "2026-10-01",
					"QualificationSummary": "Active RN license required."
				}
			}
		],
		"SearchResultCountAll": 137
	}
}`

func newTestProvider(t *testing.T, serverURL string) *USAJobsProvider {
	t.Helper()
	return NewUSAJobsProvider(&config.SearchConfig{
		Host:       serverURL,
		APIKey:     "test-key",
		UserAgent:  "test@example.test",
		Timeout:    5 * time.Second,
		MaxResults: 20,
	})
}

func TestUSAJobsSearch(t *testing.T) {
	t.Run("normalizes the nested payload", func(t *testing.T) {
		var gotPath, gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization-Key")
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(sampleSearchResponse))
		}))
		defer server.Close()

		provider := newTestProvider(t, server.URL)
		result, err := provider.Search(context.Background(), Query{Keyword: "nurse", Location: "Austin"})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}

		if gotPath != "/api/search" {
			t.Errorf("request path = %q, want /api/search", gotPath)
		}
		if gotAuth != "test-key" {
			t.Errorf("Authorization-Key = %q, want test-key", gotAuth)
		}
		if result.TotalMatches != 137 {
			t.Errorf("TotalMatches = %d, want 137", result.TotalMatches)
		}
		if len(result.Items) != 1 {
			t.Fatalf("len(Items) = %d, want 1", len(result.Items))
		}

		job := result.Items[0]
		if job.Title != "Registered Nurse" {
			t.Errorf("Title = %q", job.Title)
		}
		if job.Organization != "Veterans Health Administration" {
			t.Errorf("Organization = %q", job.Organization)
		}
		if job.Location != "Austin, Texas" {
			t.Errorf("Location = %q", job.Location)
		}
		if job.SalaryMin != 65000 || job.SalaryMax != 98500 {
			t.Errorf("Salary = %v-%v, want 65000-98500", job.SalaryMin, job.SalaryMax)
		}
		if job.SalaryPeriod != "Per Year" {
			t.Errorf("SalaryPeriod = %q", job.SalaryPeriod)
		}
		if job.Grade != "GS-9" {
			t.Errorf("Grade = %q", job.Grade)
		}
		if job.ApplyURL != "https://example.test/apply/123" {
			t.Errorf("ApplyURL = %q", job.ApplyURL)
		}
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusForbidden)
		}))
		defer server.Close()

		provider := newTestProvider(t, server.URL)
		if _, err := provider.Search(context.Background(), Query{Keyword: "nurse"}); err == nil {
			t.Error("expected error for 403 response")
		}
	})

	t.Run("malformed body is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer server.Close()

		provider := newTestProvider(t, server.URL)
		if _, err := provider.Search(context.Background(), Query{Keyword: "nurse"}); err == nil {
			t.Error("expected error for malformed body")
		}
	})

	t.Run("query parameters reflect the normalized query", func(t *testing.T) {
		var gotQuery map[string][]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query()
			w.Write([]byte(`{"SearchResult":{"SearchResultItems":[],"SearchResultCountAll":0}}`))
		}))
		defer server.Close()

		provider := newTestProvider(t, server.URL)
		if _, err := provider.Search(context.Background(), Query{Keyword: "nurse", RemoteOnly: true}); err != nil {
			t.Fatalf("Search() error = %v", err)
		}

		if got := gotQuery["Keyword"]; len(got) != 1 || got[0] != "nurse" {
			t.Errorf("Keyword param = %v", got)
		}
		if got := gotQuery["RemoteIndicator"]; len(got) != 1 || got[0] != "True" {
			t.Errorf("RemoteIndicator param = %v", got)
		}
		if _, present := gotQuery["LocationName"]; present {
			t.Error("LocationName should be absent for remote-only query")
		}
	})
}

func TestParseSalary(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"65,000", 65000},
		{"98500.50", 98500.50},
		{"", 0},
		{"n/a", 0},
		{" 70,000 ", 70000},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseSalary(tt.in); got != tt.want {
				t.Errorf("parseSalary(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Run("short strings pass through", func(t *testing.T) {
		if got := truncate("qualified nurse", 280); got != "qualified nurse" {
			t.Errorf("truncate = %q", got)
		}
	})

	t.Run("counts runes not bytes", func(t *testing.T) {
		s := strings.Repeat("é", 300)
		got := truncate(s, 280)
		if !utf8.ValidString(got) {
			t.Error("truncation split a multi-byte rune")
		}
		if n := utf8.RuneCountInString(got); n != 280 {
			t.Errorf("rune count = %d, want 280", n)
		}
	})
}
