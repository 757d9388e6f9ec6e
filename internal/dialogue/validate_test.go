package dialogue

import (
	"strings"
	"testing"

	"jobgate/internal/types"
)

func arenaOf(n int) types.SearchResult {
	items := make([]types.JobListing, n)
	for i := range items {
		items[i] = types.JobListing{Title: "Listing"}
	}
	return types.SearchResult{Items: items, TotalMatches: n}
}

func TestValidateRaw(t *testing.T) {
	prior := types.Extraction{Interest: "nursing", Location: "Austin"}

	t.Run("well formed response passes through", func(t *testing.T) {
		raw := `{
			"message": "Check out listing [0], it looks great.",
			"extraction": {"interest": "Pediatric Nursing", "location": "Austin, TX"},
			"signal": 55,
			"topPickIndex": 0,
			"shownIndices": [0, 2],
			"suggestions": ["Tell me more", "Show salary"],
			"refineSearch": true
		}`

		resp, ok := ValidateRaw(raw, arenaOf(3), prior)
		if !ok {
			t.Fatal("expected valid response")
		}
		if resp.Signal != 55 {
			t.Errorf("Signal = %d, want 55", resp.Signal)
		}
		if resp.TopPickIndex == nil || *resp.TopPickIndex != 0 {
			t.Errorf("TopPickIndex = %v, want 0", resp.TopPickIndex)
		}
		if resp.TopPickJob == nil {
			t.Error("TopPickJob should be resolved")
		}
		if len(resp.ShownIndices) != 2 || len(resp.ShownJobs) != 2 {
			t.Errorf("shown = %v / %d jobs", resp.ShownIndices, len(resp.ShownJobs))
		}
		if resp.Extraction.Interest != "pediatric nursing" {
			t.Errorf("Interest = %q, should be lowercased", resp.Extraction.Interest)
		}
		if resp.Extraction.Location != "Austin, TX" {
			t.Errorf("Location = %q, should keep case", resp.Extraction.Location)
		}
		if !resp.RefineSearch {
			t.Error("RefineSearch should carry through")
		}
		if resp.Diagnostics.UsedFallback {
			t.Error("valid turn must not be marked as fallback")
		}
	})

	t.Run("unparsable input is rejected", func(t *testing.T) {
		for _, raw := range []string{"", "not json at all", `{"message": }`, `[1,2,3]`} {
			if _, ok := ValidateRaw(raw, arenaOf(3), prior); ok {
				t.Errorf("ValidateRaw(%q) should be invalid", raw)
			}
		}
	})

	t.Run("missing or non-string message is rejected", func(t *testing.T) {
		for _, raw := range []string{`{"signal": 50}`, `{"message": 42}`, `{"message": "  "}`} {
			if _, ok := ValidateRaw(raw, arenaOf(3), prior); ok {
				t.Errorf("ValidateRaw(%q) should be invalid", raw)
			}
		}
	})

	t.Run("single code fence is stripped", func(t *testing.T) {
		raw := "```json\n{\"message\": \"hi\", \"signal\": 40}\n```"
		resp, ok := ValidateRaw(raw, arenaOf(0), prior)
		if !ok {
			t.Fatal("fenced JSON should parse")
		}
		if resp.Message != "hi" {
			t.Errorf("Message = %q", resp.Message)
		}
	})

	t.Run("message is truncated to 500 characters", func(t *testing.T) {
		long := strings.Repeat("x", 700)
		resp, ok := ValidateRaw(`{"message": "`+long+`"}`, arenaOf(0), prior)
		if !ok {
			t.Fatal("expected valid response")
		}
		if len([]rune(resp.Message)) != maxMessageLen {
			t.Errorf("len(Message) = %d, want %d", len([]rune(resp.Message)), maxMessageLen)
		}
	})

	t.Run("signal is clamped and defaulted", func(t *testing.T) {
		tests := []struct {
			name string
			raw  string
			want int
		}{
			{"above range", `{"message": "m", "signal": 150}`, 99},
			{"below range", `{"message": "m", "signal": 0}`, 1},
			{"negative", `{"message": "m", "signal": -5}`, 1},
			{"missing", `{"message": "m"}`, defaultSignal},
			{"non numeric", `{"message": "m", "signal": "high"}`, defaultSignal},
			{"fractional truncated", `{"message": "m", "signal": 47.9}`, 47},
			{"fractional above range", `{"message": "m", "signal": 150.5}`, 99},
			{"boundary low", `{"message": "m", "signal": 1}`, 1},
			{"boundary high", `{"message": "m", "signal": 99}`, 99},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				resp, ok := ValidateRaw(tt.raw, arenaOf(0), prior)
				if !ok {
					t.Fatal("expected valid response")
				}
				if resp.Signal != tt.want {
					t.Errorf("Signal = %d, want %d", resp.Signal, tt.want)
				}
				if resp.Signal < minSignal || resp.Signal > maxSignal {
					t.Errorf("Signal %d outside [%d,%d]", resp.Signal, minSignal, maxSignal)
				}
			})
		}
	})

	t.Run("out of range top pick is dropped not clamped", func(t *testing.T) {
		resp, ok := ValidateRaw(`{"message": "m", "topPickIndex": 7}`, arenaOf(3), prior)
		if !ok {
			t.Fatal("expected valid response")
		}
		if resp.TopPickIndex != nil {
			t.Errorf("TopPickIndex = %d, want nil", *resp.TopPickIndex)
		}
		if resp.TopPickJob != nil {
			t.Error("TopPickJob must be nil for dropped index")
		}
	})

	t.Run("empty arena drops all index references", func(t *testing.T) {
		raw := `{"message": "m", "topPickIndex": 0, "shownIndices": [0, 1, 2]}`
		resp, ok := ValidateRaw(raw, arenaOf(0), prior)
		if !ok {
			t.Fatal("expected valid response")
		}
		if resp.TopPickIndex != nil {
			t.Error("TopPickIndex must be nil on empty arena")
		}
		if len(resp.ShownIndices) != 0 {
			t.Errorf("ShownIndices = %v, want empty", resp.ShownIndices)
		}
	})

	t.Run("legacy topPick key is accepted", func(t *testing.T) {
		resp, ok := ValidateRaw(`{"message": "m", "topPick": 1}`, arenaOf(3), prior)
		if !ok {
			t.Fatal("expected valid response")
		}
		if resp.TopPickIndex == nil || *resp.TopPickIndex != 1 {
			t.Errorf("TopPickIndex = %v, want 1", resp.TopPickIndex)
		}
	})

	t.Run("shown indices are filtered deduped and capped", func(t *testing.T) {
		raw := `{"message": "m", "shownIndices": [2, 2, 9, -1, 0, 1, "x", 3, 4, 5]}`
		resp, ok := ValidateRaw(raw, arenaOf(10), prior)
		if !ok {
			t.Fatal("expected valid response")
		}
		want := []int{2, 0, 1, 3, 4}
		if len(resp.ShownIndices) != len(want) {
			t.Fatalf("ShownIndices = %v, want %v", resp.ShownIndices, want)
		}
		for i, n := range want {
			if resp.ShownIndices[i] != n {
				t.Errorf("ShownIndices[%d] = %d, want %d", i, resp.ShownIndices[i], n)
			}
		}
	})

	t.Run("extraction falls back to prior values", func(t *testing.T) {
		resp, ok := ValidateRaw(`{"message": "m", "extraction": {"interest": ""}}`, arenaOf(0), prior)
		if !ok {
			t.Fatal("expected valid response")
		}
		if resp.Extraction.Interest != "nursing" {
			t.Errorf("Interest = %q, want prior value", resp.Extraction.Interest)
		}
		if resp.Extraction.Location != "Austin" {
			t.Errorf("Location = %q, want prior value", resp.Extraction.Location)
		}
	})

	t.Run("extraction is never empty without hints", func(t *testing.T) {
		resp, ok := ValidateRaw(`{"message": "m"}`, arenaOf(0), types.Extraction{})
		if !ok {
			t.Fatal("expected valid response")
		}
		if resp.Extraction.Interest != "jobs" {
			t.Errorf("Interest = %q, want terminal default", resp.Extraction.Interest)
		}
		if resp.Extraction.Location != "near me" {
			t.Errorf("Location = %q, want terminal default", resp.Extraction.Location)
		}
	})

	t.Run("extraction fields are bounded", func(t *testing.T) {
		long := strings.Repeat("A", 200)
		raw := `{"message": "m", "extraction": {"interest": "` + long + `", "location": "` + long + `"}}`
		resp, ok := ValidateRaw(raw, arenaOf(0), prior)
		if !ok {
			t.Fatal("expected valid response")
		}
		if len(resp.Extraction.Interest) != maxFieldLen {
			t.Errorf("len(Interest) = %d, want %d", len(resp.Extraction.Interest), maxFieldLen)
		}
		if resp.Extraction.Interest != strings.ToLower(resp.Extraction.Interest) {
			t.Error("Interest should be lowercased")
		}
	})

	t.Run("suggestions are capped and defaulted", func(t *testing.T) {
		t.Run("missing suggestions get the default set", func(t *testing.T) {
			resp, _ := ValidateRaw(`{"message": "m"}`, arenaOf(0), prior)
			if len(resp.Suggestions) != 3 || resp.Suggestions[0] != "Show me jobs" {
				t.Errorf("Suggestions = %v", resp.Suggestions)
			}
		})

		t.Run("too many suggestions are capped", func(t *testing.T) {
			raw := `{"message": "m", "suggestions": ["a", "b", "c", "d", "e", "f"]}`
			resp, _ := ValidateRaw(raw, arenaOf(0), prior)
			if len(resp.Suggestions) != maxSuggestions {
				t.Errorf("len(Suggestions) = %d, want %d", len(resp.Suggestions), maxSuggestions)
			}
		})

		t.Run("long suggestions are truncated", func(t *testing.T) {
			long := strings.Repeat("s", 60)
			resp, _ := ValidateRaw(`{"message": "m", "suggestions": ["`+long+`"]}`, arenaOf(0), prior)
			if len(resp.Suggestions[0]) != maxSuggestionLen {
				t.Errorf("len = %d, want %d", len(resp.Suggestions[0]), maxSuggestionLen)
			}
		})

		t.Run("non-string entries are skipped", func(t *testing.T) {
			resp, _ := ValidateRaw(`{"message": "m", "suggestions": [1, "ok", null]}`, arenaOf(0), prior)
			if len(resp.Suggestions) != 1 || resp.Suggestions[0] != "ok" {
				t.Errorf("Suggestions = %v", resp.Suggestions)
			}
		})
	})
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"json tagged fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.in); got != tt.want {
				t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
