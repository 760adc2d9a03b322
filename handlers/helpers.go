package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dosada05/pong-arena/game"
	"github.com/Dosada05/pong-arena/services"
)

type jsonResponse map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, logger *slog.Logger, status int, message interface{}) {
	if err := writeJSON(w, status, jsonResponse{"error": message}, nil); err != nil {
		logger.Error("Failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.Error("Internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	errorResponse(w, logger, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, logger *slog.Logger, err error) {
	errorResponse(w, logger, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, logger *slog.Logger) {
	errorResponse(w, logger, http.StatusNotFound, "the requested resource could not be found")
}

func unavailableResponse(w http.ResponseWriter, logger *slog.Logger) {
	errorResponse(w, logger, http.StatusServiceUnavailable, "the server is shutting down")
}

// mapServiceErrorToHTTP turns service and game errors into HTTP responses.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrUserNotFound):
		notFoundResponse(w, logger)
	case errors.Is(err, services.ErrValidationFailed):
		badRequestResponse(w, logger, err)
	case errors.Is(err, game.ErrLoopStopped),
		errors.Is(err, context.DeadlineExceeded):
		unavailableResponse(w, logger)
	default:
		serverErrorResponse(w, r, logger, err)
	}
}
