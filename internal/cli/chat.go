package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"jobgate/internal/ai"
	"jobgate/internal/dialogue"
	"jobgate/internal/formatters"
	"jobgate/internal/jobs"
	"jobgate/internal/types"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Run a single conversation turn from the command line",
	Long: `Run one conversation turn without starting the server. The message is
treated as the latest user turn; an existing transcript can be replayed from
a JSON file via --transcript. Prints the validated turn result.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if chatConfig.OutputFormat == "" {
			chatConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return validateOutputFormat(chatConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runChat,
}

type chatCommandConfig struct {
	Name           string
	Interest       string
	Location       string
	TranscriptFile string
	ForceSearch    bool
	OutputFile     string
	OutputFormat   string
}

var chatConfig chatCommandConfig

func init() {
	chatCmd.Flags().StringVar(&chatConfig.Name, "name", "", "User name for the profile")
	chatCmd.Flags().StringVar(&chatConfig.Interest, "interest", "", "Interest hint seeding the search")
	chatCmd.Flags().StringVar(&chatConfig.Location, "location", "", "Location hint seeding the search")
	chatCmd.Flags().StringVar(&chatConfig.TranscriptFile, "transcript", "", "JSON file with prior conversation turns")
	chatCmd.Flags().BoolVar(&chatConfig.ForceSearch, "force-search", false, "Force a fresh listing search")
	chatCmd.Flags().StringVarP(&chatConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	chatCmd.Flags().StringVar(&chatConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = chatCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	transcript, err := loadTranscript(chatConfig.TranscriptFile)
	if err != nil {
		return err
	}
	transcript = append(transcript, types.Turn{Role: types.RoleUser, Content: args[0]})

	provider := jobs.NewUSAJobsProvider(&cfg.Search)
	gateway := jobs.NewGateway(provider, &cfg.Search, logger)

	aiProvider, err := ai.NewService(&cfg.AI, logger)
	if err != nil {
		logger.Warn("AI provider unavailable, answering with fallback",
			"provider", cfg.AI.Provider,
			"error", err.Error())
		aiProvider = nil
	}
	defer func() {
		if aiProvider != nil {
			if err := aiProvider.Close(); err != nil {
				logger.Warn("Failed to close AI provider", "error", err.Error())
			}
		}
	}()

	orchestrator := dialogue.NewOrchestrator(gateway, aiProvider, cfg.AI.Provider, nil, logger)

	logger.Info("Running conversation turn",
		"transcript_turns", len(transcript),
		"force_search", chatConfig.ForceSearch,
		"output_format", chatConfig.OutputFormat)

	outcome := orchestrator.HandleTurn(cmd.Context(), types.TurnRequest{
		Profile: types.UserProfile{
			Name:         chatConfig.Name,
			InterestHint: chatConfig.Interest,
			LocationHint: chatConfig.Location,
		},
		Transcript:  transcript,
		ForceSearch: chatConfig.ForceSearch,
	})

	output, err := formatters.GlobalRegistry.Format(outcome, chatConfig.OutputFormat)
	if err != nil {
		return fmt.Errorf("failed to format output as %s: %w", chatConfig.OutputFormat, err)
	}

	if chatConfig.OutputFile != "" {
		if err := os.WriteFile(chatConfig.OutputFile, []byte(output), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		logger.Info("Output written successfully",
			"file", chatConfig.OutputFile, "format", chatConfig.OutputFormat)
	} else {
		fmt.Print(output)
		if !strings.HasSuffix(output, "\n") {
			fmt.Println()
		}
	}

	return nil
}

// loadTranscript reads prior turns from a JSON file. An empty path means a
// fresh conversation.
func loadTranscript(path string) ([]types.Turn, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript file: %w", err)
	}

	var transcript []types.Turn
	if err := json.Unmarshal(data, &transcript); err != nil {
		return nil, fmt.Errorf("failed to parse transcript file: %w", err)
	}

	return transcript, nil
}

// validateOutputFormat validates format against configured supported formats
func validateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}
