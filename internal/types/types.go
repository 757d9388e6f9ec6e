package types

// Role values for transcript turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// UserProfile carries the caller-supplied hints that seed retrieval and the
// prompt. Free-form; never validated against a catalog.
type UserProfile struct {
	Name         string `json:"name"`
	InterestHint string `json:"interestHint"`
	LocationHint string `json:"locationHint"`
}

// Turn is one exchange unit in the conversation transcript. The transcript is
// owned entirely by the caller and replayed on every request; assistant turns
// hold the raw model text so the grounding context is reproduced exactly.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// JobListing is one normalized, provider-sourced item. Listings are identified
// only by their positional index within the SearchResult that produced them.
type JobListing struct {
	Title                 string  `json:"title"`
	Organization          string  `json:"organization"`
	Department            string  `json:"department,omitempty"`
	Location              string  `json:"location"`
	SalaryMin             float64 `json:"salaryMin"`
	SalaryMax             float64 `json:"salaryMax"`
	SalaryPeriod          string  `json:"salaryPeriod,omitempty"`
	Grade                 string  `json:"grade,omitempty"`
	Schedule              string  `json:"schedule,omitempty"`
	ApplyURL              string  `json:"applyUrl"`
	ClosingDate           string  `json:"closingDate,omitempty"`
	QualificationsExcerpt string  `json:"qualificationsExcerpt,omitempty"`
}

// SearchResult is the turn-scoped arena of retrieved listings. Indices in a
// DialogueResponse are only meaningful against the SearchResult instance that
// was active when the prompt was built; a new search replaces it wholesale.
type SearchResult struct {
	Items              []JobListing `json:"items"`
	TotalMatches       int          `json:"totalMatches"`
	MissingCredentials bool         `json:"missingCredentials,omitempty"`
}

// Extraction is the refined search key the dialogue has converged on so far.
// Both fields are guaranteed non-empty after validation.
type Extraction struct {
	Interest string `json:"interest"`
	Location string `json:"location"`
}

// Diagnostics distinguishes degraded turns from live ones.
type Diagnostics struct {
	UsedFallback bool `json:"usedFallback"`
}

// DialogueResponse is the validated, bounded response for one turn. Every
// field is safe to render without further checking: Signal is inside [1,99],
// index fields resolve inside the active SearchResult, and string fields
// respect their length caps.
type DialogueResponse struct {
	Message      string       `json:"message"`
	Extraction   Extraction   `json:"extraction"`
	Signal       int          `json:"signal"`
	TopPickIndex *int         `json:"topPickIndex"`
	ShownIndices []int        `json:"shownIndices"`
	Suggestions  []string     `json:"suggestions"`
	RefineSearch bool         `json:"refineSearch,omitempty"`
	TopPickJob   *JobListing  `json:"topPickJob,omitempty"`
	ShownJobs    []JobListing `json:"shownJobs,omitempty"`
	Diagnostics  Diagnostics  `json:"diagnostics"`
}

// TurnRequest is the orchestrator input for one conversation turn. Cached may
// carry a SearchResult the caller obtained on a previous turn; ForceSearch
// requests a fresh provider query regardless.
type TurnRequest struct {
	Profile     UserProfile
	Transcript  []Turn
	Cached      *SearchResult
	ForceSearch bool
}
