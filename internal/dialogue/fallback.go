package dialogue

import (
	"fmt"
	"hash/fnv"
	"strings"

	"jobgate/internal/types"
)

const fallbackShown = 3

// fallbackTemplates are the degraded-turn message bodies. Placeholders are
// name, interest, location in that order.
var fallbackTemplates = []string{
	"Thanks for your patience, %s. I pulled together some %s openings around %s below. Tell me which one catches your eye, or nudge me in a different direction.",
	"%s, here's what I have on %s roles near %s right now. Want me to dig into any of these, or broaden the search?",
	"I'm having a little trouble forming a full reply, %s, but the %s listings for %s below are solid. Pick one and I'll tell you more.",
}

// fallbackEmptyTemplates cover an empty arena. Placeholders are name and
// interest.
var fallbackEmptyTemplates = []string{
	"Sorry %s, I couldn't turn up %s listings just now. Try a nearby city, or tell me another kind of work you'd consider.",
	"%s, nothing matched that %s search this time. Want to broaden the location or try a different keyword?",
}

// Fallback synthesizes a degraded but fully valid response. Pure function of
// its inputs: the template is picked by a stable hash of the name, so
// retrying an identical request yields an identical body. Never fails, does
// no I/O.
func Fallback(profile types.UserProfile, result types.SearchResult) types.DialogueResponse {
	name := orDefault(profile.Name, "there")
	interest := orDefault(strings.ToLower(strings.TrimSpace(profile.InterestHint)), "promising")
	location := orDefault(strings.TrimSpace(profile.LocationHint), "your area")

	var message string
	if len(result.Items) == 0 {
		tmpl := fallbackEmptyTemplates[pickTemplate(name, len(fallbackEmptyTemplates))]
		message = fmt.Sprintf(tmpl, name, interest)
	} else {
		tmpl := fallbackTemplates[pickTemplate(name, len(fallbackTemplates))]
		message = fmt.Sprintf(tmpl, name, interest, location)
	}

	shown := make([]int, 0, fallbackShown)
	for i := 0; i < len(result.Items) && i < fallbackShown; i++ {
		shown = append(shown, i)
	}

	resp := types.DialogueResponse{
		Message: truncateRunes(message, maxMessageLen),
		Extraction: withExtractionDefaults(types.Extraction{
			Interest: clampField(profile.InterestHint, true),
			Location: clampField(profile.LocationHint, false),
		}),
		Signal:       defaultSignal,
		TopPickIndex: nil,
		ShownIndices: shown,
		Suggestions:  defaultSuggestions(),
		Diagnostics:  types.Diagnostics{UsedFallback: true},
	}

	resolveListings(&resp, result)
	return resp
}

func pickTemplate(name string, n int) int {
	h := fnv.New32a()
	h.Write([]byte(name))
	return int(h.Sum32() % uint32(n))
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
