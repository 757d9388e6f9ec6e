package prompt

import (
	"fmt"
	"strings"

	"jobgate/internal/types"
)

// transcriptWindow is the number of most recent turns replayed into the
// prompt. Older turns are dropped; the extraction carried by the caller
// preserves the converged search key across the cut.
const transcriptWindow = 14

// Compose builds the full prompt body for one turn: profile lines, the
// grounding block of retrieved listings, the trailing transcript window, and
// a closing directive. The output is bounded because every input section is.
func Compose(profile types.UserProfile, result types.SearchResult, transcript []types.Turn) string {
	var b strings.Builder

	b.WriteString("USER PROFILE:\n")
	writeProfileLine(&b, "Name", profile.Name)
	writeProfileLine(&b, "Looking for", profile.InterestHint)
	writeProfileLine(&b, "Location", profile.LocationHint)
	b.WriteString("\n")

	writeGrounding(&b, result)
	b.WriteString("\n")

	b.WriteString("CONVERSATION:\n")
	for _, turn := range windowedTranscript(transcript) {
		b.WriteString(turn.Role)
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}

	b.WriteString("\nRespond now with the JSON object only.")
	return b.String()
}

func writeProfileLine(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		value = "(not provided)"
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}

// writeGrounding emits the listing arena. The three cases are mutually
// exclusive: credentials missing, nothing found, or an enumerated slice.
func writeGrounding(b *strings.Builder, result types.SearchResult) {
	b.WriteString("JOB LISTINGS:\n")

	if result.MissingCredentials {
		b.WriteString("Listing search is temporarily unavailable (no provider credentials). Do not reference any listing numbers.\n")
		return
	}

	if len(result.Items) == 0 {
		b.WriteString("NO MATCHING LISTINGS FOUND\n")
		return
	}

	for i, job := range result.Items {
		fmt.Fprintf(b, "[%d] %s\n", i, listingLine(job))
	}
	fmt.Fprintf(b, "(%d total matches; only the listings above may be referenced by number)\n", result.TotalMatches)
}

// listingLine renders one listing on a single line, skipping empty fields.
func listingLine(job types.JobListing) string {
	parts := []string{job.Title}

	if job.Organization != "" {
		parts = append(parts, job.Organization)
	}
	if job.Location != "" {
		parts = append(parts, job.Location)
	}
	if job.SalaryMin > 0 || job.SalaryMax > 0 {
		salary := fmt.Sprintf("$%.0f-$%.0f", job.SalaryMin, job.SalaryMax)
		if job.SalaryPeriod != "" {
			salary += " " + job.SalaryPeriod
		}
		parts = append(parts, salary)
	}
	if job.Grade != "" {
		parts = append(parts, job.Grade)
	}
	if job.Schedule != "" {
		parts = append(parts, job.Schedule)
	}
	if job.ClosingDate != "" {
		parts = append(parts, "closes "+job.ClosingDate)
	}

	line := strings.Join(parts, " | ")
	if job.QualificationsExcerpt != "" {
		line += "\n    " + job.QualificationsExcerpt
	}
	return line
}

// windowedTranscript truncates to the most recent turns and guarantees the
// replayed conversation ends with a user turn, appending a synthetic
// continuation when the caller's transcript ends on the assistant side.
func windowedTranscript(transcript []types.Turn) []types.Turn {
	if len(transcript) > transcriptWindow {
		transcript = transcript[len(transcript)-transcriptWindow:]
	}

	if len(transcript) == 0 || transcript[len(transcript)-1].Role == types.RoleAssistant {
		out := make([]types.Turn, len(transcript), len(transcript)+1)
		copy(out, transcript)
		return append(out, types.Turn{Role: types.RoleUser, Content: "Continue."})
	}

	return transcript
}
