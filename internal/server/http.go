package server

import (
	"time"

	"github.com/go-playground/validator/v10"

	"jobgate/internal/ai"
	"jobgate/internal/config"
	"jobgate/internal/dialogue"
	jobgateErrors "jobgate/internal/errors"
	"jobgate/internal/jobs"
	"jobgate/internal/observability"
	"jobgate/internal/types"
)

// ChatRequest is the inbound body for one conversation turn. The struct tags
// reject grossly malformed bodies; everything within bounds is clamped
// downstream rather than rejected.
type ChatRequest struct {
	Name               string             `json:"name" validate:"max=500"`
	InterestHint       string             `json:"interestHint" validate:"max=500"`
	LocationHint       string             `json:"locationHint" validate:"max=500"`
	Transcript         []types.Turn       `json:"transcript" validate:"max=200"`
	CachedListings     []types.JobListing `json:"cachedListings" validate:"max=100"`
	CachedTotalMatches int                `json:"cachedTotalMatches"`
	ForceSearch        bool               `json:"forceSearch"`
}

// ChatResponse is the turn envelope: the validated dialogue response plus the
// listing arena it was validated against, so the client can render indices
// and replay the arena as its cache next turn.
type ChatResponse struct {
	types.DialogueResponse
	Listings           []types.JobListing `json:"listings"`
	TotalMatches       int                `json:"totalMatches"`
	MissingCredentials bool               `json:"missingCredentials,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Turn pipeline
	Orchestrator *dialogue.Orchestrator
	Gateway      *jobs.Gateway
	AIProvider   ai.DialogueProvider // nil when no AI credentials are configured

	// Observability; nil until Start unless injected via ServerConfig
	Observability *observability.ObservabilityManager

	// API Authentication
	APIKeys map[string]bool

	// CORS allow-list; empty means any origin
	AllowedOrigins map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Inbound body validation
	Validate *validator.Validate

	// Logger
	Logger *jobgateErrors.Logger
}

// ServerConfig holds the wiring for creating a Server instance.
type ServerConfig struct {
	Version      string
	Orchestrator *dialogue.Orchestrator
	Gateway      *jobs.Gateway
	AIProvider   ai.DialogueProvider

	// Observability is optional; when nil, Start builds one from AppConfig.
	// Passing it in lets the caller share the metric instruments with the
	// turn pipeline.
	Observability *observability.ObservabilityManager
}

// NewServer creates a new Server instance
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *jobgateErrors.Logger) *Server {
	apiKeyMap := make(map[string]bool)
	for _, key := range appCfg.Server.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	originMap := make(map[string]bool)
	for _, origin := range appCfg.Server.AllowedOrigins {
		if origin != "" {
			originMap[origin] = true
		}
	}

	var rateLimiter *RateLimiter
	if appCfg.Server.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			appCfg.Server.RateLimit.RequestsPerMin,
			appCfg.Server.RateLimit.Window,
			appCfg.Server.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           appCfg.Server.Host,
		Port:           appCfg.Server.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      appCfg.Server.TLS,
		Orchestrator:   cfg.Orchestrator,
		Gateway:        cfg.Gateway,
		AIProvider:     cfg.AIProvider,
		Observability:  cfg.Observability,
		APIKeys:        apiKeyMap,
		AllowedOrigins: originMap,
		ReadTimeout:    appCfg.Server.ReadTimeout,
		WriteTimeout:   appCfg.Server.WriteTimeout,
		IdleTimeout:    appCfg.Server.IdleTimeout,
		MaxRequestSize: appCfg.Server.MaxRequestSize,
		RateLimit:      &appCfg.Server.RateLimit,
		RateLimiter:    rateLimiter,
		Validate:       validator.New(),
		Logger:         logger,
	}
}
