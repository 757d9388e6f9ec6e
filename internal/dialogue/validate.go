package dialogue

import (
	"encoding/json"
	"math"
	"strings"

	"jobgate/internal/types"
)

// Bounds every DialogueResponse is normalized to.
const (
	maxMessageLen    = 500
	maxFieldLen      = 100
	maxSuggestions   = 4
	maxSuggestionLen = 35
	maxShown         = 5
	minSignal        = 1
	maxSignal        = 99
	defaultSignal    = 30
)

// Terminal extraction defaults. Both double as broaden sentinels for the
// retrieval gateway, so an empty-hint turn still produces a usable search
// key for the next one.
const (
	defaultInterest = "jobs"
	defaultLocation = "near me"
)

func defaultSuggestions() []string {
	return []string{"Show me jobs", "Tell me more", "Surprise me"}
}

// ValidateRaw normalizes raw model output into a bounded DialogueResponse.
// The second return value is false only when the text is fundamentally
// unparsable; every recoverable defect (bad types, out-of-range indices,
// oversized strings) is repaired in place. No error values: malformed model
// output is an expected input, not an exceptional one.
func ValidateRaw(raw string, result types.SearchResult, prior types.Extraction) (types.DialogueResponse, bool) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		return types.DialogueResponse{}, false
	}

	message, ok := payload["message"].(string)
	if !ok || strings.TrimSpace(message) == "" {
		return types.DialogueResponse{}, false
	}

	resp := types.DialogueResponse{
		Message:      truncateRunes(message, maxMessageLen),
		Extraction:   coerceExtraction(payload["extraction"], prior),
		Signal:       coerceSignal(payload["signal"]),
		TopPickIndex: coerceIndex(topPickValue(payload), len(result.Items)),
		ShownIndices: coerceShownIndices(payload["shownIndices"], len(result.Items)),
		Suggestions:  coerceSuggestions(payload["suggestions"]),
	}

	if refine, ok := payload["refineSearch"].(bool); ok {
		resp.RefineSearch = refine
	}

	resolveListings(&resp, result)
	return resp, true
}

// stripCodeFence removes a single markdown fence wrapper if present. Anything
// beyond one fence is left for the JSON parser to reject.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// Drop the opening fence line (which may carry a language tag).
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		return s
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// topPickValue accepts both key spellings the model is known to emit.
func topPickValue(payload map[string]any) any {
	if v, ok := payload["topPickIndex"]; ok {
		return v
	}
	return payload["topPick"]
}

func coerceExtraction(v any, prior types.Extraction) types.Extraction {
	out := types.Extraction{
		Interest: clampField(prior.Interest, true),
		Location: clampField(prior.Location, false),
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return withExtractionDefaults(out)
	}

	if interest, ok := obj["interest"].(string); ok && strings.TrimSpace(interest) != "" {
		out.Interest = clampField(interest, true)
	}
	if location, ok := obj["location"].(string); ok && strings.TrimSpace(location) != "" {
		out.Location = clampField(location, false)
	}

	return withExtractionDefaults(out)
}

// withExtractionDefaults enforces the non-empty guarantee on both fields.
func withExtractionDefaults(e types.Extraction) types.Extraction {
	if e.Interest == "" {
		e.Interest = defaultInterest
	}
	if e.Location == "" {
		e.Location = defaultLocation
	}
	return e
}

// clampField trims and bounds a refined search field. Interest is lowercased
// so cached arenas and fresh queries agree on the key.
func clampField(s string, lower bool) string {
	s = strings.TrimSpace(s)
	if lower {
		s = strings.ToLower(s)
	}
	return truncateRunes(s, maxFieldLen)
}

// coerceSignal accepts any finite number and truncates fractions before
// clamping. Unlike indices, a fractional signal still carries meaning.
func coerceSignal(v any) int {
	var n int
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return defaultSignal
		}
		n = int(math.Trunc(x))
	case int:
		n = x
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return defaultSignal
		}
		n = int(math.Trunc(f))
	default:
		return defaultSignal
	}

	if n < minSignal {
		return minSignal
	}
	if n > maxSignal {
		return maxSignal
	}
	return n
}

// coerceIndex returns a pointer to the index when it addresses the arena,
// nil otherwise. An out-of-range pick is dropped, never clamped: clamping
// would silently point at a different listing.
func coerceIndex(v any, arenaLen int) *int {
	n, ok := asInt(v)
	if !ok || n < 0 || n >= arenaLen {
		return nil
	}
	return &n
}

func coerceShownIndices(v any, arenaLen int) []int {
	arr, ok := v.([]any)
	if !ok {
		return []int{}
	}

	out := make([]int, 0, maxShown)
	seen := make(map[int]bool)
	for _, item := range arr {
		n, ok := asInt(item)
		if !ok || n < 0 || n >= arenaLen || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
		if len(out) == maxShown {
			break
		}
	}
	return out
}

func coerceSuggestions(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return defaultSuggestions()
	}

	out := make([]string, 0, maxSuggestions)
	for _, item := range arr {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, truncateRunes(s, maxSuggestionLen))
		if len(out) == maxSuggestions {
			break
		}
	}

	if len(out) == 0 {
		return defaultSuggestions()
	}
	return out
}

// resolveListings materializes index references against the arena. Indices
// were already bounds-checked, so lookups here cannot miss.
func resolveListings(resp *types.DialogueResponse, result types.SearchResult) {
	if resp.TopPickIndex != nil {
		job := result.Items[*resp.TopPickIndex]
		resp.TopPickJob = &job
	}

	if len(resp.ShownIndices) > 0 {
		resp.ShownJobs = make([]types.JobListing, 0, len(resp.ShownIndices))
		for _, i := range resp.ShownIndices {
			resp.ShownJobs = append(resp.ShownJobs, result.Items[i])
		}
	}
}

// asInt accepts the numeric shapes encoding/json produces plus whole-valued
// floats. "3.7" style fractional picks are rejected rather than rounded.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
