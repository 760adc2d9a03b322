package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"github.com/Dosada05/pong-arena/models"
	"github.com/Dosada05/pong-arena/storage"
)

// ArchiveService uploads finished tournament summaries as JSON objects.
type ArchiveService struct {
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewArchiveService(uploader storage.FileUploader, logger *slog.Logger) *ArchiveService {
	return &ArchiveService{uploader: uploader, logger: logger}
}

// ArchiveKey is where a tournament summary is stored, bucketed by finish date.
func ArchiveKey(a models.TournamentArchive) string {
	return path.Join("tournaments", a.FinishedAt.UTC().Format("2006/01/02"), a.ID+".json")
}

func (s *ArchiveService) Archive(ctx context.Context, a models.TournamentArchive) error {
	if a.ID == "" {
		return fmt.Errorf("%w: archive without tournament id", ErrValidationFailed)
	}
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode archive of tournament %s: %w", a.ID, err)
	}

	res, err := s.uploader.Upload(ctx, ArchiveKey(a), "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to upload archive of tournament %s: %w", a.ID, err)
	}
	s.logger.Info("Tournament archived",
		slog.String("tournament_id", a.ID),
		slog.String("winner", a.Winner),
		slog.String("location", res.Location))
	return nil
}
