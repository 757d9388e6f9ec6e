package dialogue

import (
	"reflect"
	"strings"
	"testing"

	"jobgate/internal/types"
)

func TestFallback(t *testing.T) {
	profile := types.UserProfile{Name: "Sam", InterestHint: "Nursing", LocationHint: "Austin"}

	t.Run("always well formed", func(t *testing.T) {
		resp := Fallback(profile, arenaOf(5))

		if strings.TrimSpace(resp.Message) == "" {
			t.Error("Message must be non-empty")
		}
		if resp.Signal < minSignal || resp.Signal > maxSignal {
			t.Errorf("Signal = %d outside range", resp.Signal)
		}
		if resp.TopPickIndex != nil {
			t.Error("fallback never picks a top listing")
		}
		if !resp.Diagnostics.UsedFallback {
			t.Error("UsedFallback must be true")
		}
		if len(resp.Suggestions) == 0 {
			t.Error("Suggestions must be populated")
		}
	})

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		a := Fallback(profile, arenaOf(5))
		b := Fallback(profile, arenaOf(5))
		if !reflect.DeepEqual(a, b) {
			t.Error("identical inputs must produce identical responses")
		}
	})

	t.Run("references the profile hints", func(t *testing.T) {
		resp := Fallback(profile, arenaOf(2))
		if !strings.Contains(resp.Message, "Sam") {
			t.Errorf("Message should mention the name: %q", resp.Message)
		}
		if !strings.Contains(strings.ToLower(resp.Message), "nursing") {
			t.Errorf("Message should mention the interest: %q", resp.Message)
		}
	})

	t.Run("shows at most the first three listings", func(t *testing.T) {
		tests := []struct {
			items int
			want  []int
		}{
			{0, []int{}},
			{1, []int{0}},
			{2, []int{0, 1}},
			{3, []int{0, 1, 2}},
			{10, []int{0, 1, 2}},
		}

		for _, tt := range tests {
			resp := Fallback(profile, arenaOf(tt.items))
			if len(resp.ShownIndices) != len(tt.want) {
				t.Errorf("items=%d: ShownIndices = %v, want %v", tt.items, resp.ShownIndices, tt.want)
				continue
			}
			for i, n := range tt.want {
				if resp.ShownIndices[i] != n {
					t.Errorf("items=%d: ShownIndices[%d] = %d, want %d", tt.items, i, resp.ShownIndices[i], n)
				}
			}
			if len(resp.ShownJobs) != len(tt.want) {
				t.Errorf("items=%d: ShownJobs not resolved, got %d", tt.items, len(resp.ShownJobs))
			}
		}
	})

	t.Run("empty profile uses neutral wording", func(t *testing.T) {
		resp := Fallback(types.UserProfile{}, arenaOf(0))
		if strings.TrimSpace(resp.Message) == "" {
			t.Error("Message must be non-empty even with an empty profile")
		}
		if strings.Contains(resp.Message, "%!") {
			t.Errorf("template placeholder leaked: %q", resp.Message)
		}
		if resp.Extraction.Interest != "jobs" {
			t.Errorf("Interest = %q, want terminal default", resp.Extraction.Interest)
		}
		if resp.Extraction.Location != "near me" {
			t.Errorf("Location = %q, want terminal default", resp.Extraction.Location)
		}
	})

	t.Run("extraction carries bounded hints", func(t *testing.T) {
		long := strings.Repeat("X", 200)
		resp := Fallback(types.UserProfile{InterestHint: long, LocationHint: long}, arenaOf(0))
		if len(resp.Extraction.Interest) != maxFieldLen {
			t.Errorf("len(Interest) = %d, want %d", len(resp.Extraction.Interest), maxFieldLen)
		}
		if resp.Extraction.Interest != strings.ToLower(resp.Extraction.Interest) {
			t.Error("Interest should be lowercased")
		}
	})
}
