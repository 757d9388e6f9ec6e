package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"jobgate/internal/observability"
	"jobgate/internal/types"
)

// createChatHandler builds the /chat handler. The only non-200 outcome is a
// malformed request body; everything the pipeline can throw at us still
// yields a well-formed 200 envelope.
func (s *Server) createChatHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	metrics := om.GetMetrics()
	tracer := om.Tracer("jobgate.server")

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeErrorResponse(w, "Method not allowed", "Use POST", http.StatusMethodNotAllowed)
			return
		}

		var req ChatRequest
		if err := parseJSONRequest(r, &req); err != nil {
			writeErrorResponse(w, "Invalid request", err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.Validate.Struct(&req); err != nil {
			s.Logger.Info("Chat request rejected by validation",
				"client_ip", getClientIP(r),
				"error", err.Error())
			writeErrorResponse(w, "Invalid request", "Request body failed validation", http.StatusBadRequest)
			return
		}

		ctx, span := tracer.Start(r.Context(), "server.chat")
		defer span.End()

		turnReq := buildTurnRequest(req)
		span.SetAttributes(
			attribute.Int("chat.transcript_turns", len(turnReq.Transcript)),
			attribute.Bool("chat.cached", turnReq.Cached != nil),
			attribute.Bool("chat.force_search", turnReq.ForceSearch),
		)

		start := time.Now()
		out := s.Orchestrator.HandleTurn(ctx, turnReq)
		metrics.RecordTurn(ctx, time.Since(start), out.Response.Diagnostics.UsedFallback)

		span.SetAttributes(
			attribute.Bool("chat.fallback", out.Response.Diagnostics.UsedFallback),
			attribute.Int("chat.listings", len(out.Arena.Items)),
		)

		listings := out.Arena.Items
		if listings == nil {
			listings = []types.JobListing{}
		}

		writeJSONResponse(w, ChatResponse{
			DialogueResponse:   out.Response,
			Listings:           listings,
			TotalMatches:       out.Arena.TotalMatches,
			MissingCredentials: out.Arena.MissingCredentials,
		})
	}
}

// buildTurnRequest maps the wire request onto the orchestrator input.
// Transcript turns with unknown roles are dropped rather than rejected,
// matching how assistant clients historically replayed loose histories.
func buildTurnRequest(req ChatRequest) types.TurnRequest {
	transcript := make([]types.Turn, 0, len(req.Transcript))
	for _, turn := range req.Transcript {
		if turn.Role == types.RoleUser || turn.Role == types.RoleAssistant {
			transcript = append(transcript, turn)
		}
	}

	turnReq := types.TurnRequest{
		Profile: types.UserProfile{
			Name:         req.Name,
			InterestHint: req.InterestHint,
			LocationHint: req.LocationHint,
		},
		Transcript:  transcript,
		ForceSearch: req.ForceSearch,
	}

	if len(req.CachedListings) > 0 {
		turnReq.Cached = &types.SearchResult{
			Items:        req.CachedListings,
			TotalMatches: req.CachedTotalMatches,
		}
	}

	return turnReq
}

// writeJSONResponse writes a 200 JSON body.
func writeJSONResponse(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
