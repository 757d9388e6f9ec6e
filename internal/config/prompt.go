package config

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
)

// DefaultSystemPrompt is the built-in dialogue instruction. Operators can
// replace it inline (ai.systemPrompt) or via file (ai.systemPromptFile);
// the file path additionally supports hot reload.
const DefaultSystemPrompt = `You are a warm, sharp job-search guide inside a job portal. You help the user figure out what kind of work they want and where, then surface the best matching listings from the grounding context.

Conversation rules:
- Keep replies short and conversational. One or two sentences, then a question or a pointer at a listing.
- Listings appear in the context as numbered entries like [0], [1], [2]. Refer to them only by those numbers.
- Never invent listings, salaries, or employers. If the context says no listings were found, say so plainly and help the user broaden or shift their search.
- As the conversation progresses, refine your understanding of what the user wants (their interest) and where (their location).

You must respond with a single JSON object and nothing else:
{
  "message": "your conversational reply to the user",
  "extraction": { "interest": "their refined job interest", "location": "their refined location" },
  "signal": 1-99,
  "topPickIndex": <number of the single best listing for this user, or null>,
  "shownIndices": [<numbers of up to 5 listings worth showing now>],
  "suggestions": [<up to 4 short reply chips, each under 35 characters>],
  "refineSearch": <true only if the user's interest or location changed enough that a fresh search would help>
}

signal is your read of how close the user is to applying: low while exploring, high when they are ready to act.`

// activePrompt holds the current system prompt for lock-free reads from the
// request path. Updated at load time and by the prompt file watcher.
var activePrompt atomic.Value

func init() {
	activePrompt.Store(DefaultSystemPrompt)
}

// ActiveSystemPrompt returns the system prompt currently in effect.
func ActiveSystemPrompt() string {
	return activePrompt.Load().(string)
}

// setActiveSystemPrompt replaces the in-effect prompt. Blank values are
// ignored so a truncated write mid-reload cannot blank the prompt.
func setActiveSystemPrompt(p string) {
	if strings.TrimSpace(p) == "" {
		return
	}
	activePrompt.Store(p)
}

// loadSystemPrompt resolves the effective system prompt at config load time.
// Precedence: file > inline config value > built-in default.
func (c *Config) loadSystemPrompt() error {
	if c.AI.SystemPromptFile != "" {
		data, err := os.ReadFile(c.AI.SystemPromptFile)
		if err != nil {
			return fmt.Errorf("failed to read system prompt file %s: %w", c.AI.SystemPromptFile, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return fmt.Errorf("system prompt file %s is empty", c.AI.SystemPromptFile)
		}
		c.AI.SystemPrompt = string(data)
	}

	if c.AI.SystemPrompt == "" {
		c.AI.SystemPrompt = DefaultSystemPrompt
	}

	setActiveSystemPrompt(c.AI.SystemPrompt)
	return nil
}
