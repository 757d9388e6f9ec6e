package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"jobgate/internal/geo"
)

// getHealthCheckTimeout returns the configured health check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	return s.AppConfig.Observability.HealthCheck.Timeout
}

// healthHandler reports dependency health. Credential checks only report
// presence, never values. The endpoint returns 503 only when the generative
// model is unavailable; a degraded search provider still leaves the service
// able to answer turns.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":  "healthy",
		"service": "jobgate",
		"version": s.Version,
	}

	response["credentials"] = map[string]any{
		"ai":     s.AppConfig.HasAICredentials(),
		"search": s.AppConfig.HasSearchCredentials(),
	}

	aiStatus := s.checkAIModelHealth()
	response["ai_model"] = aiStatus

	response["circuit_breakers"] = s.checkCircuitBreakerHealth()

	// Overall health hinges only on the generative model.
	overallHealthy := true
	if available, ok := aiStatus["available"].(bool); ok && !available {
		overallHealthy = false
	}

	if !overallHealthy {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// checkAIModelHealth checks the availability of the configured model
func (s *Server) checkAIModelHealth() map[string]any {
	if s.AIProvider == nil {
		return map[string]any{
			"available": false,
			"error":     "No AI provider configured",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.getHealthCheckTimeout())
	defer cancel()

	info, err := s.AIProvider.GetModelInfo(ctx)
	if err != nil {
		return map[string]any{
			"available": false,
			"error":     fmt.Sprintf("Model check failed: %v", err),
		}
	}

	return map[string]any{
		"name":      info.Name,
		"provider":  info.Provider,
		"available": info.Available,
	}
}

// checkCircuitBreakerHealth reports the state of both upstream breakers
func (s *Server) checkCircuitBreakerHealth() map[string]any {
	status := make(map[string]any)

	if s.AIProvider != nil {
		status["ai"] = s.AIProvider.BreakerStats()
	} else {
		status["ai"] = map[string]any{"enabled": false}
	}

	if s.Gateway != nil {
		status["search"] = s.Gateway.BreakerStats()
	} else {
		status["search"] = map[string]any{"enabled": false}
	}

	return status
}

// geoHandler resolves a best-effort location hint from edge headers. The
// result is per-request and must not be cached by intermediaries.
func (s *Server) geoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSONResponse(w, geo.FromRequest(r))
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "jobgate",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode stats response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
