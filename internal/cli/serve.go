package cli

import (
	"fmt"

	"jobgate/internal/ai"
	"jobgate/internal/dialogue"
	"jobgate/internal/jobs"
	"jobgate/internal/observability"
	"jobgate/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chat gateway",
	Long: `Start an HTTP server that handles conversation turns for job search.

Available endpoints:
- POST /chat: Handle one conversation turn
- GET /geo: Best-effort caller location from edge headers
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server
- Use --cert-file and --key-file for TLS certificates`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("server.tls.mode", "tls-mode")
	bindFlag("server.tls.certfile", "cert-file")
	bindFlag("server.tls.keyfile", "key-file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	om, err := observability.NewObservabilityManager(cfg.Observability)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}

	provider := jobs.NewUSAJobsProvider(&cfg.Search)
	gateway := jobs.NewGateway(provider, &cfg.Search, logger)

	// A missing AI key is not fatal: the service still answers every turn
	// through the fallback path.
	aiProvider, err := ai.NewService(&cfg.AI, logger)
	if err != nil {
		logger.Warn("AI provider unavailable, serving fallback turns only",
			"provider", cfg.AI.Provider,
			"error", err.Error())
		aiProvider = nil
	}

	orchestrator := dialogue.NewOrchestrator(gateway, aiProvider, cfg.AI.Provider, om.GetMetrics(), logger)

	serverCfg := server.ServerConfig{
		Version:       Version,
		Orchestrator:  orchestrator,
		Gateway:       gateway,
		AIProvider:    aiProvider,
		Observability: om,
	}
	return server.NewServer(cfg, serverCfg, logger).Start()
}
