package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Dosada05/pong-arena/models"
	"github.com/go-chi/chi/v5"
)

type MatchHistory interface {
	History(ctx context.Context, userID, limit int) ([]models.MatchRecord, error)
}

type MatchHandler struct {
	matches MatchHistory
	logger  *slog.Logger
}

func NewMatchHandler(matches MatchHistory, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{matches: matches, logger: logger}
}

// ListByUser returns the latest recorded matches of a user.
//
// @Summary      Match history
// @Tags         matches
// @Produce      json
// @Param        userID  path   int  true   "User ID"
// @Param        limit   query  int  false  "Maximum number of matches (1-100)"
// @Success      200  {object}  map[string][]models.MatchRecord
// @Failure      400  {object}  map[string]string
// @Router       /api/users/{userID}/matches [get]
func (h *MatchHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil || userID <= 0 {
		badRequestResponse(w, h.logger, errors.New("invalid user id"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			badRequestResponse(w, h.logger, errors.New("limit must be an integer"))
			return
		}
	}

	matches, err := h.matches.History(r.Context(), userID, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}
