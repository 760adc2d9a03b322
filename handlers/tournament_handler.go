package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Dosada05/pong-arena/game"
	"github.com/Dosada05/pong-arena/models"
)

// Lobby is the read-only view of live state served over REST.
type Lobby interface {
	PublicTournaments(ctx context.Context) ([]models.TournamentDescription, error)
	Stats(ctx context.Context) (game.Stats, error)
}

type TournamentHandler struct {
	lobby  Lobby
	logger *slog.Logger
}

func NewTournamentHandler(lobby Lobby, logger *slog.Logger) *TournamentHandler {
	return &TournamentHandler{lobby: lobby, logger: logger}
}

// ListPublic returns the tournaments a guest could join right now.
//
// @Summary      List joinable tournaments
// @Tags         tournaments
// @Produce      json
// @Success      200  {object}  map[string][]models.TournamentDescription
// @Failure      503  {object}  map[string]string
// @Router       /api/tournaments [get]
func (h *TournamentHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.lobby.PublicTournaments(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	if tournaments == nil {
		tournaments = []models.TournamentDescription{}
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}
