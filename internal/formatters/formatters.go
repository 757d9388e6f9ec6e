package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"jobgate/internal/dialogue"
	"jobgate/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "TurnOutcome", &TurnTextFormatter{})
	registry.RegisterFormatter("markdown", "TurnOutcome", &TurnMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case dialogue.TurnOutcome:
		return "TurnOutcome"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// TurnTextFormatter handles text formatting for a conversation turn
type TurnTextFormatter struct{}

func (ttf *TurnTextFormatter) Format(data any) (string, error) {
	outcome, ok := data.(dialogue.TurnOutcome)
	if !ok {
		return "", fmt.Errorf("expected TurnOutcome, got %T", data)
	}

	resp := outcome.Response
	var output strings.Builder

	output.WriteString("=== ASSISTANT ===\n\n")
	output.WriteString(resp.Message)
	output.WriteString("\n\n")

	if resp.TopPickJob != nil {
		output.WriteString("=== TOP PICK ===\n")
		output.WriteString(listingText(*resp.TopPickJob))
		output.WriteString("\n")
	}

	if len(resp.ShownJobs) > 0 {
		output.WriteString("=== LISTINGS ===\n")
		for i, job := range resp.ShownJobs {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, listingText(job)))
		}
		output.WriteString("\n")
	}
	if outcome.Arena.TotalMatches > len(outcome.Arena.Items) {
		output.WriteString(fmt.Sprintf("(%d total matches)\n\n", outcome.Arena.TotalMatches))
	}

	output.WriteString("=== SEARCH CONTEXT ===\n")
	output.WriteString(fmt.Sprintf("Interest: %s\n", resp.Extraction.Interest))
	output.WriteString(fmt.Sprintf("Location: %s\n", resp.Extraction.Location))
	output.WriteString(fmt.Sprintf("Signal: %d/99\n\n", resp.Signal))

	if len(resp.Suggestions) > 0 {
		output.WriteString("Suggestions:\n")
		for _, suggestion := range resp.Suggestions {
			output.WriteString(fmt.Sprintf("- %s\n", suggestion))
		}
		output.WriteString("\n")
	}

	if resp.Diagnostics.UsedFallback {
		output.WriteString("Note: this turn was answered without the generative model.\n")
	}
	if outcome.Arena.MissingCredentials {
		output.WriteString("Note: job search is unavailable (no search credentials configured).\n")
	}

	return output.String(), nil
}

func (ttf *TurnTextFormatter) SupportedType() string {
	return "TurnOutcome"
}

// TurnMarkdownFormatter handles markdown formatting for a conversation turn
type TurnMarkdownFormatter struct{}

func (tmf *TurnMarkdownFormatter) Format(data any) (string, error) {
	outcome, ok := data.(dialogue.TurnOutcome)
	if !ok {
		return "", fmt.Errorf("expected TurnOutcome, got %T", data)
	}

	resp := outcome.Response
	var output strings.Builder

	output.WriteString("# Assistant\n\n")
	output.WriteString(resp.Message)
	output.WriteString("\n\n")

	if resp.TopPickJob != nil {
		output.WriteString("## Top Pick\n\n")
		writeListingMarkdown(&output, *resp.TopPickJob)
	}

	if len(resp.ShownJobs) > 0 {
		output.WriteString("## Listings\n\n")
		for i, job := range resp.ShownJobs {
			output.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, job.Title))
			writeListingMarkdown(&output, job)
		}
	}
	if outcome.Arena.TotalMatches > len(outcome.Arena.Items) {
		output.WriteString(fmt.Sprintf("*%d total matches*\n\n", outcome.Arena.TotalMatches))
	}

	output.WriteString("## Search Context\n\n")
	output.WriteString(fmt.Sprintf("**Interest:** %s\n\n", resp.Extraction.Interest))
	output.WriteString(fmt.Sprintf("**Location:** %s\n\n", resp.Extraction.Location))
	output.WriteString(fmt.Sprintf("**Signal:** %d/99\n\n", resp.Signal))

	if len(resp.Suggestions) > 0 {
		output.WriteString("## Suggestions\n\n")
		for _, suggestion := range resp.Suggestions {
			output.WriteString(fmt.Sprintf("- %s\n", suggestion))
		}
		output.WriteString("\n")
	}

	if resp.Diagnostics.UsedFallback {
		output.WriteString("> This turn was answered without the generative model.\n")
	}
	if outcome.Arena.MissingCredentials {
		output.WriteString("> Job search is unavailable: no search credentials configured.\n")
	}

	return output.String(), nil
}

func (tmf *TurnMarkdownFormatter) SupportedType() string {
	return "TurnOutcome"
}

// listingText renders a single listing on one line.
func listingText(job types.JobListing) string {
	parts := []string{job.Title}
	if job.Organization != "" {
		parts = append(parts, job.Organization)
	}
	if job.Location != "" {
		parts = append(parts, job.Location)
	}
	if job.SalaryMax > 0 {
		parts = append(parts, fmt.Sprintf("$%.0f-$%.0f", job.SalaryMin, job.SalaryMax))
	}
	return strings.Join(parts, " | ")
}

func writeListingMarkdown(output *strings.Builder, job types.JobListing) {
	if job.Organization != "" {
		output.WriteString(fmt.Sprintf("**Organization:** %s\n\n", job.Organization))
	}
	if job.Location != "" {
		output.WriteString(fmt.Sprintf("**Location:** %s\n\n", job.Location))
	}
	if job.SalaryMax > 0 {
		output.WriteString(fmt.Sprintf("**Salary:** $%.0f - $%.0f", job.SalaryMin, job.SalaryMax))
		if job.SalaryPeriod != "" {
			output.WriteString(fmt.Sprintf(" (%s)", job.SalaryPeriod))
		}
		output.WriteString("\n\n")
	}
	if job.ClosingDate != "" {
		output.WriteString(fmt.Sprintf("**Closes:** %s\n\n", job.ClosingDate))
	}
	if job.ApplyURL != "" {
		output.WriteString(fmt.Sprintf("**Apply:** %s\n\n", job.ApplyURL))
	}
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
