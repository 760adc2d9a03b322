package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/pong-arena/models"
	"github.com/Dosada05/pong-arena/repositories"
)

const maxHistoryLimit = 100

// MatchService persists finished matches and serves match history.
type MatchService struct {
	matches repositories.MatchRepository
	now     func() time.Time
}

func NewMatchService(matches repositories.MatchRepository) *MatchService {
	return &MatchService{matches: matches, now: time.Now}
}

// RegisterMatch stores rec. Each side must carry either a user id or a guest name.
func (s *MatchService) RegisterMatch(ctx context.Context, rec *models.MatchRecord) error {
	if err := validateSide(rec.LeftID, rec.LeftGuestName); err != nil {
		return fmt.Errorf("%w: left side: %v", ErrValidationFailed, err)
	}
	if err := validateSide(rec.RightID, rec.RightGuestName); err != nil {
		return fmt.Errorf("%w: right side: %v", ErrValidationFailed, err)
	}
	switch rec.WinnerIndicator {
	case models.WinnerLeft, models.WinnerRight, models.WinnerDraw:
	default:
		return fmt.Errorf("%w: unknown winner %q", ErrValidationFailed, rec.WinnerIndicator)
	}
	if rec.ScoreLeft < 0 || rec.ScoreRight < 0 || rec.Duration < 0 {
		return fmt.Errorf("%w: negative score or duration", ErrValidationFailed)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}

	if err := s.matches.Create(ctx, rec); err != nil {
		return fmt.Errorf("failed to register match: %w", err)
	}
	return nil
}

// History returns the latest matches of a user, newest first.
func (s *MatchService) History(ctx context.Context, userID, limit int) ([]models.MatchRecord, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: invalid user id %d", ErrValidationFailed, userID)
	}
	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	matches, err := s.matches.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of user %d: %w", userID, err)
	}
	return matches, nil
}

func validateSide(id *int, guestName *string) error {
	switch {
	case id != nil && guestName != nil:
		return fmt.Errorf("both user id and guest name set")
	case id == nil && (guestName == nil || *guestName == ""):
		return fmt.Errorf("neither user id nor guest name set")
	case id != nil && *id <= 0:
		return fmt.Errorf("invalid user id %d", *id)
	}
	return nil
}
