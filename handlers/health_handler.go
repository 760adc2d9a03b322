package handlers

import (
	"log/slog"
	"net/http"
)

type HealthHandler struct {
	lobby  Lobby
	logger *slog.Logger
}

func NewHealthHandler(lobby Lobby, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{lobby: lobby, logger: logger}
}

// Check reports live counters, or 503 once the event loop is gone.
//
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  game.Stats
// @Failure      503  {object}  map[string]string
// @Router       /healthz [get]
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	stats, err := h.lobby.Stats(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "ok", "stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}
