package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
	"github.com/cypherlabdev/odds-reconciler-service/internal/service"
)

// Transport labels batches that arrived through the ingest endpoint
const Transport = "http"

// maxIngestBody caps one posted source envelope
const maxIngestBody = 10 << 20 // 10MB

// OddsHandler handles HTTP requests for games, odds and ingestion
type OddsHandler struct {
	queries  *service.QueryService
	ingester service.Ingester
	logger   zerolog.Logger
}

// NewOddsHandler creates a new odds HTTP handler
func NewOddsHandler(queries *service.QueryService, ingester service.Ingester, logger zerolog.Logger) *OddsHandler {
	return &OddsHandler{
		queries:  queries,
		ingester: ingester,
		logger:   logger.With().Str("component", "odds_handler").Logger(),
	}
}

// RegisterRoutes registers the API routes on r
func (h *OddsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		// Games
		r.Get("/games", h.handleListGames)
		r.Get("/games/{id}", h.handleGetGame)
		r.Get("/games/{id}/odds", h.handleGetLatestOdds)
		r.Get("/games/{id}/closing-lines", h.handleGetClosingLines)

		// Snapshot history
		r.Get("/outcomes/{id}/snapshots", h.handleGetSnapshots)

		// Teams
		r.Get("/teams/resolve", h.handleResolveTeam)

		// Source payloads pushed instead of published to Kafka
		r.Post("/ingest", h.handleIngest)
	})
}

// handleListGames handles GET /api/v1/games?sport=&date=&status=&limit=
func (h *OddsHandler) handleListGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.GameFilter{
		Sport:     q.Get("sport"),
		LocalDate: q.Get("date"),
		Status:    models.GameStatus(q.Get("status")),
	}

	if filter.LocalDate != "" {
		if _, err := time.Parse(models.LocalDateLayout, filter.LocalDate); err != nil {
			h.errorResponse(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}
	if filter.Status != "" && filter.Status != models.GameStatusScheduled && filter.Status != models.GameStatusCompleted {
		h.errorResponse(w, http.StatusBadRequest, "status must be scheduled or completed")
		return
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			h.errorResponse(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	games, err := h.queries.ListGames(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list games")
		h.errorResponse(w, http.StatusInternalServerError, "failed to list games")
		return
	}
	if games == nil {
		games = []*models.Game{}
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"count": len(games),
		"games": games,
	})
}

// handleGetGame handles GET /api/v1/games/{id}
func (h *OddsHandler) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	game, err := h.queries.GetGame(r.Context(), id)
	if err != nil {
		h.queryError(w, err, id, "failed to retrieve game")
		return
	}

	h.jsonResponse(w, http.StatusOK, game)
}

// handleGetLatestOdds handles GET /api/v1/games/{id}/odds
func (h *OddsHandler) handleGetLatestOdds(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	odds, err := h.queries.LatestOdds(r.Context(), id)
	if err != nil {
		h.queryError(w, err, id, "failed to retrieve odds")
		return
	}
	if odds == nil {
		odds = []*models.LatestOdds{}
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"game_id": id,
		"count":   len(odds),
		"odds":    odds,
	})
}

// handleGetClosingLines handles GET /api/v1/games/{id}/closing-lines
func (h *OddsHandler) handleGetClosingLines(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	lines, err := h.queries.ClosingLines(r.Context(), id)
	if err != nil {
		h.queryError(w, err, id, "failed to retrieve closing lines")
		return
	}
	if lines == nil {
		lines = []*models.ClosingLine{}
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"game_id":       id,
		"count":         len(lines),
		"closing_lines": lines,
	})
}

// handleGetSnapshots handles GET /api/v1/outcomes/{id}/snapshots
func (h *OddsHandler) handleGetSnapshots(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	snaps, err := h.queries.Snapshots(r.Context(), id)
	if err != nil {
		h.queryError(w, err, id, "failed to retrieve snapshots")
		return
	}
	if snaps == nil {
		snaps = []*models.OddsSnapshot{}
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"outcome_id": id,
		"count":      len(snaps),
		"snapshots":  snaps,
	})
}

// handleResolveTeam handles GET /api/v1/teams/resolve?name=&sport=
func (h *OddsHandler) handleResolveTeam(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	sport := r.URL.Query().Get("sport")
	if name == "" || sport == "" {
		h.errorResponse(w, http.StatusBadRequest, "name and sport are required")
		return
	}

	team, err := h.queries.ResolveTeam(name, sport)
	if err != nil {
		h.errorResponse(w, http.StatusNotFound, err.Error())
		return
	}

	h.jsonResponse(w, http.StatusOK, team)
}

// handleIngest handles POST /api/v1/ingest
func (h *OddsHandler) handleIngest(w http.ResponseWriter, r *http.Request) {
	var msg models.SourceMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIngestBody)).Decode(&msg); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid source message")
		return
	}
	if msg.Source == "" || msg.Kind == "" {
		h.errorResponse(w, http.StatusBadRequest, "source and kind are required")
		return
	}

	batch, err := h.ingester.Ingest(&msg, Transport)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("source", msg.Source).
			Str("kind", msg.Kind).
			Msg("rejected source message")
		h.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.jsonResponse(w, http.StatusAccepted, IngestResponse{
		Source:      batch.Source,
		Role:        batch.Role,
		BatchID:     batch.BatchID,
		Events:      len(batch.Events),
		Completions: len(batch.Completions),
		Skipped:     batch.Skipped,
	})
}

// pathID parses the {id} URL parameter, writing a 400 when it is not a UUID
func (h *OddsHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// queryError maps a query failure to a status code
func (h *OddsHandler) queryError(w http.ResponseWriter, err error, id uuid.UUID, message string) {
	if errors.Is(err, models.ErrGameNotFound) {
		h.logger.Debug().
			Err(err).
			Str("id", id.String()).
			Msg("game not found")
		h.errorResponse(w, http.StatusNotFound, "game not found")
		return
	}

	h.logger.Error().
		Err(err).
		Str("id", id.String()).
		Msg(message)
	h.errorResponse(w, http.StatusInternalServerError, message)
}

// jsonResponse writes a JSON response
func (h *OddsHandler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes a JSON error response
func (h *OddsHandler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}

// IngestResponse summarizes a queued source batch
type IngestResponse struct {
	Source      string            `json:"source"`
	Role        models.SourceRole `json:"role"`
	BatchID     string            `json:"batch_id,omitempty"`
	Events      int               `json:"events"`
	Completions int               `json:"completions"`
	Skipped     int               `json:"skipped"`
}
